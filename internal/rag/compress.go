package rag

import (
	"strings"
	"unicode/utf8"

	"github.com/JeYeMC/rag-service/internal/core"
)

const (
	// compressCharBudget bounds each compressed unit's text.
	compressCharBudget = 800
	// compressMinSentenceCut is how far into the budget a sentence break
	// must fall for the unit to be trimmed back to it.
	compressMinSentenceCut = 100
)

// Compress partitions hits into consecutive groups of groupSize and merges
// each group's excerpts into one bounded context unit, keeping per-hit
// provenance in original order. At most maxUnits units are produced; any
// remaining hits are discarded.
func Compress(hits []core.SearchHit, maxUnits, groupSize int) []core.CompressedContext {
	if len(hits) == 0 || maxUnits <= 0 {
		return nil
	}
	if groupSize <= 0 {
		groupSize = 5
	}

	var units []core.CompressedContext
	for start := 0; start < len(hits) && len(units) < maxUnits; start += groupSize {
		end := start + groupSize
		if end > len(hits) {
			end = len(hits)
		}
		group := hits[start:end]

		texts := make([]string, 0, len(group))
		sources := make([]core.SourceRef, 0, len(group))
		for _, h := range group {
			texts = append(texts, h.Metadata.Excerpt)
			sources = append(sources, core.SourceRef{
				ChunkID:    h.ID,
				ChunkIndex: h.Metadata.ChunkIndex,
				DocumentID: h.Metadata.DocumentID,
				DocType:    h.Metadata.DocType,
				Filename:   h.Metadata.Filename,
			})
		}

		units = append(units, core.CompressedContext{
			Text:    truncateAtSentence(strings.Join(texts, "\n\n")),
			Sources: sources,
		})
	}
	return units
}

// truncateAtSentence cuts text to the character budget and, when a
// sentence break falls far enough in, trims back to it so units do not
// end mid-sentence.
func truncateAtSentence(text string) string {
	text = cutAtRune(text, compressCharBudget)
	if lastDot := strings.LastIndex(text, "."); lastDot > compressMinSentenceCut {
		text = text[:lastDot+1]
	}
	return strings.TrimSpace(text)
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
