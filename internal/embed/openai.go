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

// DefaultOpenAIEmbedModel matches the model the service was tuned against.
const DefaultOpenAIEmbedModel = "text-embedding-3-large"

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	httpClient *http.Client

	// BaseURL overrides the default API endpoint when non-empty.
	BaseURL string

	mu  sync.Mutex
	dim int
}

// NewOpenAIEmbedder creates an embedder using the default OpenAI model.
func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		apiKey: apiKey,
		model:  DefaultOpenAIEmbedModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedTexts embeds a batch of texts, preserving input order.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	url := e.BaseURL
	if url == "" {
		url = "https://api.openai.com/v1/embeddings"
	}

	body, err := json.Marshal(openAIEmbedRequest{Model: e.model, Input: texts})
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
		return nil, fmt.Errorf("OpenAI embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAI embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI embedding error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed openAIEmbedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAI embedding response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d vectors for %d texts", len(parsed.Data), len(texts))
	}

	// The API reports an index per vector; order by it rather than trusting
	// response ordering.
	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("OpenAI returned out-of-range vector index %d", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	e.mu.Lock()
	if e.dim == 0 && len(vectors[0]) > 0 {
		e.dim = len(vectors[0])
	}
	e.mu.Unlock()

	return vectors, nil
}

// Dimension reports the vector dimensionality seen on the first batch.
func (e *OpenAIEmbedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}
