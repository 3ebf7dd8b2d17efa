package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JeYeMC/rag-service/internal/logger"
)

const (
	// summaryInputLimit bounds how much document text is sent to the model.
	summaryInputLimit = 6000
	// summaryFallbackLimit bounds the truncated-text fallback summary.
	summaryFallbackLimit = 1200
)

const summaryPrompt = "Resume el siguiente documento de forma clara, en máximo 10 líneas. " +
	"Devuelve un resumen organizado y conciso.\n\nDocumento:\n"

// summaryStrategy is one way of producing a summary. Strategies are tried
// in order; the first success wins.
type summaryStrategy struct {
	name    string
	attempt func(ctx context.Context) (string, error)
}

// GenerateSummary summarizes a document with the selected provider,
// falling back to a plain truncation when the model is unavailable. The
// strategy that ultimately produced the summary is logged.
func (r *Router) GenerateSummary(ctx context.Context, provider, text string) string {
	input := cutAtRune(text, summaryInputLimit)

	strategies := []summaryStrategy{
		{
			name: "llm",
			attempt: func(ctx context.Context) (string, error) {
				svc, err := r.Get(provider)
				if err != nil {
					return "", err
				}
				out, err := svc.Complete(ctx, "", summaryPrompt+input)
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(out) == "" {
					return "", fmt.Errorf("model returned an empty summary")
				}
				return NormalizeAnswer(out), nil
			},
		},
		{
			name: "truncate",
			attempt: func(ctx context.Context) (string, error) {
				return cutAtRune(text, summaryFallbackLimit), nil
			},
		},
	}

	for _, s := range strategies {
		out, err := s.attempt(ctx)
		if err != nil {
			logger.Warn("Summary strategy %q failed: %v", s.name, err)
			continue
		}
		logger.Debug("Summary produced by strategy %q", s.name)
		return out
	}
	return ""
}

// cutAtRune truncates s to at most limit bytes without splitting a rune.
func cutAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
