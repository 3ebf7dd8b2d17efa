package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/JeYeMC/rag-service/internal/config"
	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/logger"
)

// pairScorer scores (query, text) pairs; higher means more relevant.
type pairScorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float32, error)
}

// CrossEncoderReranker reorders candidates with a remote cross-encoder.
// Scorers are instantiated at most once per provider selector and cached;
// a selector whose scorer cannot be configured is cached as unavailable
// so the pipeline degrades without re-probing on every request.
type CrossEncoderReranker struct {
	settings *config.Settings

	mu      sync.Mutex
	scorers map[string]pairScorer // nil entry = known unavailable
}

// NewCrossEncoderReranker creates a reranker bound to the given settings.
func NewCrossEncoderReranker(settings *config.Settings) *CrossEncoderReranker {
	return &CrossEncoderReranker{
		settings: settings,
		scorers:  make(map[string]pairScorer),
	}
}

// Rerank scores every (query, excerpt) pair and reorders hits by model
// score descending. On any failure it returns the input hits truncated to
// topK in their original order; this path is degraded, not fatal.
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, hits []core.SearchHit, topK int, provider string) []core.SearchHit {
	if len(hits) == 0 {
		return nil
	}
	if topK > len(hits) {
		topK = len(hits)
	}

	scorer := r.scorerFor(provider)
	if scorer == nil {
		logger.Debug("No cross-encoder available, returning top-%d in native order", topK)
		return hits[:topK]
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Metadata.Excerpt
	}

	scores, err := scorer.Score(ctx, query, texts)
	if err != nil || len(scores) != len(hits) {
		logger.Warn("Cross-encoder scoring failed, degrading to native order: %v", err)
		return hits[:topK]
	}

	reranked := make([]core.SearchHit, len(hits))
	copy(reranked, hits)
	order := make(map[string]float32, len(hits))
	for i, h := range hits {
		order[h.ID] = scores[i]
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return order[reranked[i].ID] > order[reranked[j].ID]
	})

	return reranked[:topK]
}

// scorerFor returns the cached scorer for a selector, building it on
// first use under the lock.
func (r *CrossEncoderReranker) scorerFor(provider string) pairScorer {
	if provider == "" {
		provider = r.settings.LLMProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if scorer, ok := r.scorers[provider]; ok {
		return scorer
	}

	var scorer pairScorer
	if r.settings.HFAPIKey != "" && r.settings.CrossEncoder != "" {
		scorer = newHFScorer(r.settings.HFAPIKey, r.settings.CrossEncoder)
		logger.Info("Loaded cross-encoder %s for provider %q", r.settings.CrossEncoder, provider)
	} else {
		logger.Warn("Cross-encoder unavailable for provider %q (missing HF credentials)", provider)
	}
	r.scorers[provider] = scorer
	return scorer
}

// hfScorer calls the HF Inference API sentence-similarity pipeline to
// score a query against candidate texts.
type hfScorer struct {
	apiKey     string
	model      string
	httpClient *http.Client

	baseURL string
}

func newHFScorer(apiKey, model string) *hfScorer {
	return &hfScorer{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type hfScoreRequest struct {
	Inputs struct {
		SourceSentence string   `json:"source_sentence"`
		Sentences      []string `json:"sentences"`
	} `json:"inputs"`
}

func (s *hfScorer) Score(ctx context.Context, query string, texts []string) ([]float32, error) {
	url := s.baseURL
	if url == "" {
		url = fmt.Sprintf("https://api-inference.huggingface.co/models/%s", s.model)
	}

	var reqBody hfScoreRequest
	reqBody.Inputs.SourceSentence = query
	reqBody.Inputs.Sentences = texts

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var scores []float32
	if err := json.Unmarshal(respBody, &scores); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}
	return scores, nil
}
