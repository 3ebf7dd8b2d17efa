// Package doctype classifies raw document text into one of a closed set of
// CRM document-type labels by counting keyword occurrences.
package doctype

import "strings"

// FallbackLabel is returned when no label scores above zero or when the
// best score is shared by more than one label.
const FallbackLabel = "documento"

// patterns maps each label to the keywords that indicate it. Matching is
// case-insensitive substring counting.
var patterns = map[string][]string{
	"contrato":  {"contrato", "contratante", "contratista", "cláusula", "clausula", "honorarios"},
	"correo":    {"asunto:", "estimado", "saludos", "atentamente", "from:", "para:"},
	"factura":   {"factura", "subtotal", "iva", "valor total", "nit", "número de factura"},
	"propuesta": {"propuesta", "cotización", "alcance", "entregables"},
	"pqr":       {"petición", "queja", "reclamo", "pqrs"},
	"acta":      {"acta", "reunión", "acuerdos", "asistentes", "orden del día"},
}

// queryPatterns is the smaller keyword set used to turn a question into a
// retrieval routing hint. Oriented to how users phrase questions rather
// than to document body text.
var queryPatterns = map[string][]string{
	"contrato": {"cláusula", "clausula", "contrato"},
	"factura":  {"factura"},
	"correo":   {"correo", "email", "asunto"},
}

// Classify scores every label against the text and returns the unique top
// label, or FallbackLabel on a zero or tied best score. Deterministic and
// stateless.
func Classify(text string) string {
	return classifyWith(patterns, text, FallbackLabel)
}

// ClassifyQuery infers a doc-type routing hint from a user question.
// Returns "" when the question carries no usable type signal, so the
// caller can retrieve unfiltered.
func ClassifyQuery(question string) string {
	return classifyWith(queryPatterns, question, "")
}

func classifyWith(set map[string][]string, text, fallback string) string {
	t := strings.ToLower(text)

	best := fallback
	bestScore := 0
	tied := false
	for label, keywords := range set {
		score := 0
		for _, kw := range keywords {
			score += strings.Count(t, kw)
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = label, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return fallback
	}
	return best
}

// Labels returns all known labels plus the fallback.
func Labels() []string {
	out := make([]string, 0, len(patterns)+1)
	for label := range patterns {
		out = append(out, label)
	}
	return append(out, FallbackLabel)
}
