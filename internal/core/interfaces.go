package core

import "context"

// EmbedService turns texts into fixed-dimensionality vectors. The returned
// slice has one vector per input text, in input order. All vectors produced
// by one service share the same dimensionality.
type EmbedService interface {
	// EmbedTexts generates embeddings for a batch of texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the vector dimensionality, or 0 if not yet known.
	Dimension() int
}

// CompletionService generates text from a prompt plus a system instruction.
type CompletionService interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// VectorIndex is the consumed vector database capability. Implementations
// must normalize their native response shapes into SearchHit; callers never
// see the backend's own match representation.
type VectorIndex interface {
	// EnsureIndex creates the named index with the given dimensionality if
	// it does not exist yet. Idempotent.
	EnsureIndex(ctx context.Context, name string, dim int) error
	// Upsert stores (id, vector, metadata) triples.
	Upsert(ctx context.Context, name string, entries []IndexEntry) error
	// Query returns up to topK ranked matches, optionally restricted by an
	// equality filter over metadata fields.
	Query(ctx context.Context, name string, vector []float32, topK int, filter *HitFilter) ([]SearchHit, error)
}

// IndexEntry is one vector with identity and metadata, as handed to Upsert.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata HitMetadata
}

// HitFilter restricts a query to vectors whose metadata matches every
// non-empty field exactly.
type HitFilter struct {
	DocType  string
	Provider string
}

// Reranker refines the ordering of an initial candidate set using the full
// query and candidate text.
type Reranker interface {
	// Rerank reorders hits by pairwise relevance to the query and truncates
	// to topK. Implementations degrade to the input order on failure rather
	// than returning an error. The provider selector chooses the scoring
	// backend; empty means the default.
	Rerank(ctx context.Context, query string, hits []SearchHit, topK int, provider string) []SearchHit
}

// DocumentReader extracts plain text from a file on disk, dispatching on
// the file extension. Unsupported formats yield empty text, not an error.
type DocumentReader interface {
	Extract(path string) (string, error)
}
