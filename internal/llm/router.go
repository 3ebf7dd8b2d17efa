// Package llm routes text generation to interchangeable completion
// providers and applies the degraded-generation policy: a failed
// generation yields a marked fallback string, never an aborted request.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JeYeMC/rag-service/internal/config"
	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/logger"
)

// Provider selector tokens, mirroring the embedding side.
const (
	ProviderLocal  = "local"
	ProviderHF     = "hf"
	ProviderOpenAI = "openai"
)

// FallbackMarker prefixes every degraded generation result so callers and
// tests can recognize them.
const FallbackMarker = "⚠️ Error al generar respuesta con el modelo"

// ErrConfig marks a missing-credential or missing-model configuration
// error for a completion provider.
var ErrConfig = errors.New("completion provider misconfigured")

// Router owns the completion services, one per selector, built lazily
// under a mutex.
type Router struct {
	mu       sync.Mutex
	services map[string]core.CompletionService
	settings *config.Settings
}

// NewRouter creates an empty router bound to the given settings.
func NewRouter(settings *config.Settings) *Router {
	return &Router{
		services: make(map[string]core.CompletionService),
		settings: settings,
	}
}

// Get returns the completion service for the selector, constructing it on
// first use. An empty selector resolves to the configured default.
func (r *Router) Get(provider string) (core.CompletionService, error) {
	if provider == "" {
		provider = r.settings.LLMProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[provider]; ok {
		return svc, nil
	}

	svc, err := r.build(provider)
	if err != nil {
		return nil, err
	}
	logger.Info("Initialized completion provider %q", provider)
	r.services[provider] = svc
	return svc, nil
}

func (r *Router) build(provider string) (core.CompletionService, error) {
	switch provider {
	case ProviderHF:
		if r.settings.HFAPIKey == "" || r.settings.HFModel == "" {
			return nil, fmt.Errorf("%w: HF_INFERENCE_API_KEY and HF_MODEL are required for provider %q", ErrConfig, provider)
		}
		svc := NewHFCompleter(r.settings.HFAPIKey, r.settings.HFModel)
		svc.BaseURL = r.settings.HFAPIURL
		return svc, nil
	case ProviderOpenAI:
		if r.settings.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for provider %q", ErrConfig, provider)
		}
		return NewOpenAICompleter(r.settings.OpenAIAPIKey, r.settings.OpenAIModel), nil
	case ProviderLocal:
		if r.settings.LocalLLMURL == "" {
			return nil, fmt.Errorf("%w: LOCAL_LLM_URL is required for provider %q", ErrConfig, provider)
		}
		return NewLocalCompleter(r.settings.LocalLLMURL), nil
	default:
		return nil, fmt.Errorf("%w: unknown completion provider %q", ErrConfig, provider)
	}
}

// GenerateAnswer runs the prompt through the selected provider. Any
// failure, including a misconfigured provider, degrades to a marked
// fallback string that embeds the original prompt: the caller still holds
// retrieved sources worth returning.
func (r *Router) GenerateAnswer(ctx context.Context, provider, systemPrompt, prompt string) string {
	svc, err := r.Get(provider)
	if err != nil {
		logger.Error("Completion provider unavailable: %v", err)
		return fmt.Sprintf("%s: %v\n%s", FallbackMarker, err, prompt)
	}

	text, err := svc.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		logger.Error("Generation failed: %v", err)
		return fmt.Sprintf("%s: %v\n%s", FallbackMarker, err, prompt)
	}
	return NormalizeAnswer(text)
}
