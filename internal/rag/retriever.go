// Package rag implements the retrieval-augmented answer pipelines:
// ingestion (extract, classify, chunk, embed, upsert) and query
// (retrieve, rerank, compress, prompt, generate).
package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/embed"
	"github.com/JeYeMC/rag-service/internal/logger"
)

// overFetchPool returns the pool size queried from the index before
// truncating to topK. Reranking and type filtering are lossy with respect
// to the index's own ranking, so a shallow query would starve the
// reranker of good candidates.
func overFetchPool(topK int) int {
	pool := topK * 4
	if pool < 50 {
		pool = 50
	}
	return pool
}

// Retriever embeds a query and fetches a raw candidate set from the
// vector index.
type Retriever struct {
	embeds    *embed.Registry
	index     core.VectorIndex
	indexName string
}

// NewRetriever wires a retriever to an embedding registry and an index.
func NewRetriever(embeds *embed.Registry, index core.VectorIndex, indexName string) *Retriever {
	return &Retriever{embeds: embeds, index: index, indexName: indexName}
}

// Retrieve returns up to topK hits ordered by native similarity score.
// docType restricts results to one document type; provider, when set
// explicitly, restricts to vectors embedded by the same provider so a
// mixed collection never serves cross-provider hits.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, docType, provider string) ([]core.SearchHit, error) {
	svc, err := r.embeds.Get(provider)
	if err != nil {
		return nil, err
	}

	vectors, err := svc.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}

	var filter *core.HitFilter
	if docType != "" || provider != "" {
		filter = &core.HitFilter{DocType: docType, Provider: provider}
	}

	hits, err := r.index.Query(ctx, r.indexName, vectors[0], overFetchPool(topK), filter)
	if err != nil {
		return nil, fmt.Errorf("index query failed: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}

	logger.Debug("Retrieved %d hits for query (topK=%d, docType=%q)", len(hits), topK, docType)
	return hits, nil
}
