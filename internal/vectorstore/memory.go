package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/JeYeMC/rag-service/internal/core"
)

// MemoryIndex is an in-process core.VectorIndex used by tests and local
// development. Cosine similarity, exact search.
type MemoryIndex struct {
	mu      sync.RWMutex
	indexes map[string]*memCollection
}

type memCollection struct {
	dim     int
	entries []core.IndexEntry
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{indexes: make(map[string]*memCollection)}
}

// EnsureIndex registers the named index with its dimensionality.
// Recreating with a different dimensionality is an error state.
func (m *MemoryIndex) EnsureIndex(ctx context.Context, name string, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.indexes[name]; ok {
		if existing.dim != dim {
			return fmt.Errorf("index %s already exists with dimension %d, got %d", name, existing.dim, dim)
		}
		return nil
	}
	m.indexes[name] = &memCollection{dim: dim}
	return nil
}

// Upsert appends entries, validating dimensionality.
func (m *MemoryIndex) Upsert(ctx context.Context, name string, entries []core.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.indexes[name]
	if !ok {
		return fmt.Errorf("index %s does not exist", name)
	}
	for _, e := range entries {
		if len(e.Vector) != coll.dim {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(e.Vector), coll.dim)
		}
	}
	coll.entries = append(coll.entries, entries...)
	return nil
}

// Query ranks all matching entries by cosine similarity.
func (m *MemoryIndex) Query(ctx context.Context, name string, vector []float32, topK int, filter *core.HitFilter) ([]core.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.indexes[name]
	if !ok {
		return nil, fmt.Errorf("index %s does not exist", name)
	}

	var hits []core.SearchHit
	for _, e := range coll.entries {
		if filter != nil {
			if filter.DocType != "" && e.Metadata.DocType != filter.DocType {
				continue
			}
			if filter.Provider != "" && e.Metadata.Provider != filter.Provider {
				continue
			}
		}
		hits = append(hits, core.SearchHit{
			ID:       e.ID,
			Score:    cosine(vector, e.Vector),
			Metadata: e.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Count returns the number of stored entries, for test assertions.
func (m *MemoryIndex) Count(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if coll, ok := m.indexes[name]; ok {
		return len(coll.entries)
	}
	return 0
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
