package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeYeMC/rag-service/internal/core"
)

func seedIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex()
	require.NoError(t, idx.EnsureIndex(context.Background(), "test", 3))
	require.NoError(t, idx.Upsert(context.Background(), "test", []core.IndexEntry{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: core.HitMetadata{DocType: "contrato", Filename: "c.pdf"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Metadata: core.HitMetadata{DocType: "factura", Filename: "f.pdf"}},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}, Metadata: core.HitMetadata{DocType: "contrato", Filename: "c.pdf"}},
	}))
	return idx
}

func TestEnsureIndexIdempotent(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.EnsureIndex(context.Background(), "x", 4))
	require.NoError(t, idx.EnsureIndex(context.Background(), "x", 4))
	assert.Error(t, idx.EnsureIndex(context.Background(), "x", 8)) // dimension mismatch
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.EnsureIndex(context.Background(), "x", 2))
	err := idx.Upsert(context.Background(), "x", []core.IndexEntry{{ID: "a", Vector: []float32{1, 2, 3}}})
	assert.Error(t, err)
}

func TestQueryRanksBySimilarity(t *testing.T) {
	idx := seedIndex(t)
	hits, err := idx.Query(context.Background(), "test", []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
}

func TestQueryFiltersByDocType(t *testing.T) {
	idx := seedIndex(t)
	hits, err := idx.Query(context.Background(), "test", []float32{1, 0, 0}, 10,
		&core.HitFilter{DocType: "factura"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)

	hits, err = idx.Query(context.Background(), "test", []float32{1, 0, 0}, 10,
		&core.HitFilter{DocType: "pqr"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBuildFilterExpr(t *testing.T) {
	assert.Equal(t, "", buildFilterExpr(nil))
	assert.Equal(t, `doc_type == "factura"`, buildFilterExpr(&core.HitFilter{DocType: "factura"}))
	assert.Equal(t, `doc_type == "factura" && provider == "hf"`,
		buildFilterExpr(&core.HitFilter{DocType: "factura", Provider: "hf"}))
	// Values are escaped before interpolation.
	assert.Equal(t, `doc_type == "a\"b"`, buildFilterExpr(&core.HitFilter{DocType: `a"b`}))
}
