package rag

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeYeMC/rag-service/internal/core"
)

func makeHits(n int) []core.SearchHit {
	hits := make([]core.SearchHit, n)
	for i := range hits {
		hits[i] = core.SearchHit{
			ID:    fmt.Sprintf("chunk-%d", i),
			Score: float32(n - i),
			Metadata: core.HitMetadata{
				DocumentID: fmt.Sprintf("doc-%d", i/3),
				ChunkIndex: i,
				DocType:    "contrato",
				Filename:   fmt.Sprintf("file-%d.pdf", i/3),
				Excerpt:    fmt.Sprintf("Extracto número %d. Contiene información del contrato.", i),
			},
		}
	}
	return hits
}

func TestCompressGroupsAndCaps(t *testing.T) {
	hits := makeHits(17)
	units := Compress(hits, 3, 5)

	require.Len(t, units, 3) // capped at maxUnits, remainder discarded
	assert.Len(t, units[0].Sources, 5)
	assert.Len(t, units[1].Sources, 5)
	assert.Len(t, units[2].Sources, 5)
}

func TestCompressLastGroupShorter(t *testing.T) {
	units := Compress(makeHits(7), 5, 5)
	require.Len(t, units, 2)
	assert.Len(t, units[1].Sources, 2)
}

func TestCompressProvenancePreserved(t *testing.T) {
	hits := makeHits(6)
	units := Compress(hits, 5, 3)

	var refs []core.SourceRef
	for _, u := range units {
		refs = append(refs, u.Sources...)
	}
	require.Len(t, refs, 6)
	for i, ref := range refs {
		assert.Equal(t, hits[i].ID, ref.ChunkID)
		assert.Equal(t, hits[i].Metadata.DocumentID, ref.DocumentID)
		assert.Equal(t, hits[i].Metadata.ChunkIndex, ref.ChunkIndex)
	}
}

func TestCompressRespectsCharBudget(t *testing.T) {
	long := strings.Repeat("palabra ", 300) // no periods, ~2400 chars
	hits := []core.SearchHit{{ID: "a", Metadata: core.HitMetadata{Excerpt: long}}}

	units := Compress(hits, 1, 1)
	require.Len(t, units, 1)
	assert.LessOrEqual(t, len(units[0].Text), compressCharBudget)
}

func TestCompressTrimsAtSentence(t *testing.T) {
	sentence := "Esta es una oración completa del contrato que aporta contexto. "
	long := strings.Repeat(sentence, 30)
	hits := []core.SearchHit{{ID: "a", Metadata: core.HitMetadata{Excerpt: long}}}

	units := Compress(hits, 1, 1)
	require.Len(t, units, 1)
	assert.True(t, strings.HasSuffix(units[0].Text, "."))
}

func TestCompressTruncationKeepsRuneBoundaries(t *testing.T) {
	// A two-byte rune straddling the byte budget must not be split.
	long := strings.Repeat("b", compressCharBudget-1) + "ñandú en la llanura"
	hits := []core.SearchHit{{ID: "a", Metadata: core.HitMetadata{Excerpt: long}}}

	units := Compress(hits, 1, 1)
	require.Len(t, units, 1)
	assert.True(t, utf8.ValidString(units[0].Text))
	assert.LessOrEqual(t, len(units[0].Text), compressCharBudget)
}

func TestExcerptKeepsRuneBoundaries(t *testing.T) {
	long := strings.Repeat("a", excerptLen-1) + "ácido y más texto del documento"

	out := excerpt(long)
	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), excerptLen)

	short := "texto corto con eñes: ñoño"
	assert.Equal(t, short, excerpt(short))
}

func TestCompressEmptyInput(t *testing.T) {
	assert.Nil(t, Compress(nil, 5, 5))
	assert.Nil(t, Compress(makeHits(3), 0, 5))
}
