// Package chunker splits extracted document text into passages suitable
// for embedding. A structural split on repeated section markers is tried
// first; texts without enough structure fall back to a word sliding window.
package chunker

import (
	"regexp"
	"strings"

	"github.com/JeYeMC/rag-service/internal/logger"
)

const (
	// minChunkLen drops fragments that carry no useful content.
	minChunkLen = 25
	// minStructuralSegments is how many merged segments a structural split
	// must yield before it is preferred over the sliding window.
	minStructuralSegments = 2
	// minMarkers is how many marker occurrences count as real structure.
	minMarkers = 3
)

// markerRe matches section markers typical of Spanish-language business
// documents (contract clauses, articles, numbered sections).
var markerRe = regexp.MustCompile(`(?i)\b(CL[ÁA]USULA|ART[ÍI]CULO|SECCI[ÓO]N|CAP[ÍI]TULO)\b`)

// Chunk splits text into ordered passages of roughly size words with the
// given word overlap. Ordinals are the positions in the returned slice.
func Chunk(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if chunks := structuralSplit(text); len(chunks) >= minStructuralSegments {
		logger.Debug("Structural split produced %d chunks", len(chunks))
		return chunks
	}

	return slidingWindowSplit(text, size, overlap)
}

// structuralSplit cuts the text at repeated section markers, merging each
// marker with the segment that follows it. Returns nil when the text does
// not look structured.
func structuralSplit(text string) []string {
	locs := markerRe.FindAllStringIndex(text, -1)
	if len(locs) < minMarkers {
		return nil
	}

	var chunks []string

	// Preamble before the first marker is kept as its own chunk.
	if head := strings.TrimSpace(text[:locs[0][0]]); len(head) >= minChunkLen {
		chunks = append(chunks, head)
	}

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segment := strings.TrimSpace(text[loc[0]:end])
		if len(segment) < minChunkLen {
			continue
		}
		chunks = append(chunks, segment)
	}

	return chunks
}

// slidingWindowSplit tokenizes into words and emits windows of size words
// advancing by size-overlap. Overlap >= size is a configuration error and
// is clamped so the window always moves forward.
func slidingWindowSplit(text string, size, overlap int) []string {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		logger.Warn("Chunk overlap %d >= size %d, clamping to %d", overlap, size, size/5)
		overlap = size / 5
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.TrimSpace(strings.Join(words[start:end], " "))
		if len(chunk) >= minChunkLen {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}

	return chunks
}
