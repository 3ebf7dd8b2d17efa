package llm

import (
	"context"
	"strings"

	"github.com/JeYeMC/rag-service/internal/logger"
	"github.com/JeYeMC/rag-service/internal/prompt"
)

// ExtractEntities asks the model for the structured entities in a
// document, as JSON per the extraction prompt. Best-effort: any provider
// failure yields an empty string so callers treat entities as optional
// enrichment.
func (r *Router) ExtractEntities(ctx context.Context, provider, text string) string {
	input := cutAtRune(text, summaryInputLimit)

	svc, err := r.Get(provider)
	if err != nil {
		logger.Warn("Entity extraction unavailable: %v", err)
		return ""
	}

	out, err := svc.Complete(ctx, "", prompt.EntityExtractionPrompt+"\n\nContenido:\n"+input)
	if err != nil {
		logger.Warn("Entity extraction failed: %v", err)
		return ""
	}
	return strings.TrimSpace(out)
}
