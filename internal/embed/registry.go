// Package embed provides text embedding through interchangeable backend
// providers selected by a caller-supplied token.
package embed

import (
	"errors"
	"fmt"
	"sync"

	"github.com/JeYeMC/rag-service/internal/config"
	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/logger"
)

// Provider selector tokens.
const (
	ProviderLocal  = "local"
	ProviderHF     = "hf"
	ProviderOpenAI = "openai"
)

// ErrConfig marks a missing-credential or missing-model configuration
// error. These fail fast and are never retried.
var ErrConfig = errors.New("embedding provider misconfigured")

// Registry owns the embedding services, constructing each one lazily at
// most once per provider selector. This is the only process-wide mutable
// state in the pipeline and it is guarded by a mutex.
type Registry struct {
	mu       sync.Mutex
	services map[string]core.EmbedService
	settings *config.Settings
}

// NewRegistry creates an empty registry bound to the given settings.
func NewRegistry(settings *config.Settings) *Registry {
	return &Registry{
		services: make(map[string]core.EmbedService),
		settings: settings,
	}
}

// Get returns the embedding service for the selector, constructing it on
// first use. An empty selector resolves to the configured default.
func (r *Registry) Get(provider string) (core.EmbedService, error) {
	if provider == "" {
		provider = r.settings.EmbedProvider
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
	logger.Info("Initialized embedding provider %q", provider)
	r.services[provider] = svc
	return svc, nil
}

func (r *Registry) build(provider string) (core.EmbedService, error) {
	switch provider {
	case ProviderHF:
		if r.settings.HFAPIKey == "" || r.settings.EmbedModel == "" {
			return nil, fmt.Errorf("%w: HF_INFERENCE_API_KEY and EMB_MODEL are required for provider %q", ErrConfig, provider)
		}
		return NewHFEmbedder(r.settings.HFAPIKey, r.settings.EmbedModel), nil
	case ProviderOpenAI:
		if r.settings.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for provider %q", ErrConfig, provider)
		}
		return NewOpenAIEmbedder(r.settings.OpenAIAPIKey), nil
	case ProviderLocal:
		if r.settings.LocalEmbedURL == "" {
			return nil, fmt.Errorf("%w: LOCAL_EMBED_URL is required for provider %q", ErrConfig, provider)
		}
		return NewLocalEmbedder(r.settings.LocalEmbedURL), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", ErrConfig, provider)
	}
}
