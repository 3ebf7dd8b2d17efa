package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// HFEmbedder calls the Hugging Face Inference API feature-extraction
// pipeline for a fixed model.
type HFEmbedder struct {
	apiKey     string
	model      string
	httpClient *http.Client

	// BaseURL overrides the default inference endpoint when non-empty.
	BaseURL string

	mu  sync.Mutex
	dim int
}

// NewHFEmbedder creates an embedder bound to one HF model.
func NewHFEmbedder(apiKey, model string) *HFEmbedder {
	return &HFEmbedder{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type hfEmbedRequest struct {
	Inputs []string `json:"inputs"`
}

// EmbedTexts embeds a batch of texts, preserving input order.
func (e *HFEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	url := e.BaseURL
	if url == "" {
		url = fmt.Sprintf("https://api-inference.huggingface.co/pipeline/feature-extraction/%s", e.model)
	}

	body, err := json.Marshal(hfEmbedRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HF embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read HF embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HF embedding error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.Unmarshal(respBody, &vectors); err != nil {
		return nil, fmt.Errorf("failed to decode HF embedding response: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("HF returned %d vectors for %d texts", len(vectors), len(texts))
	}

	e.remember(vectors)
	return vectors, nil
}

// Dimension reports the vector dimensionality seen on the first batch.
func (e *HFEmbedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

func (e *HFEmbedder) remember(vectors [][]float32) {
	if len(vectors) == 0 {
		return
	}
	e.mu.Lock()
	if e.dim == 0 {
		e.dim = len(vectors[0])
	}
	e.mu.Unlock()
}
