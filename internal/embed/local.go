package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LocalEmbedder talks to a locally hosted text-embeddings-inference
// server. The model is resident in that process; this client carries no
// credentials and is the cheapest provider to run.
type LocalEmbedder struct {
	baseURL    string
	httpClient *http.Client

	mu  sync.Mutex
	dim int
}

// NewLocalEmbedder creates a client for a TEI-compatible server.
func NewLocalEmbedder(baseURL string) *LocalEmbedder {
	return &LocalEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type localEmbedRequest struct {
	Inputs []string `json:"inputs"`
}

// EmbedTexts embeds a batch of texts, preserving input order.
func (e *LocalEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(localEmbedRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local embedding server unavailable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read local embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("local embedding error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.Unmarshal(respBody, &vectors); err != nil {
		return nil, fmt.Errorf("failed to decode local embedding response: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("local server returned %d vectors for %d texts", len(vectors), len(texts))
	}

	e.mu.Lock()
	if e.dim == 0 && len(vectors[0]) > 0 {
		e.dim = len(vectors[0])
	}
	e.mu.Unlock()

	return vectors, nil
}

// Dimension reports the vector dimensionality seen on the first batch.
func (e *LocalEmbedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}
