// Package vectorstore adapts the Milvus client to the VectorIndex
// capability consumed by the pipelines. All response-shape normalization
// happens here: callers only ever see core.SearchHit.
package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/logger"
)

// Field names for the chunk collection.
const (
	FieldID         = "id"
	FieldDocumentID = "document_id"
	FieldChunkIndex = "chunk_index"
	FieldDocType    = "doc_type"
	FieldFilename   = "filename"
	FieldSource     = "source"
	FieldProvider   = "provider"
	FieldExcerpt    = "text_excerpt"
	FieldCreatedAt  = "created_at"
	FieldVector     = "vector"
)

var outputFields = []string{
	FieldDocumentID, FieldChunkIndex, FieldDocType,
	FieldFilename, FieldSource, FieldProvider, FieldExcerpt,
}

// MilvusIndex implements core.VectorIndex over a Milvus deployment.
type MilvusIndex struct {
	client *milvusclient.Client
}

// NewMilvusIndex connects to Milvus at the given address.
func NewMilvusIndex(ctx context.Context, addr string) (*MilvusIndex, error) {
	logger.Info("Connecting to Milvus at %s", addr)

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}
	return &MilvusIndex{client: c}, nil
}

// EnsureIndex creates the chunk collection with the given vector
// dimensionality if it does not exist, then loads it. Idempotent.
func (m *MilvusIndex) EnsureIndex(ctx context.Context, name string, dim int) error {
	exists, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: name,
			Description:    "Document chunk vectors for CRM RAG",
			Fields: []*entity.Field{
				{
					Name:       FieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:       FieldDocumentID,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:     FieldChunkIndex,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       FieldDocType,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:       FieldFilename,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "512"},
				},
				{
					Name:       FieldSource,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:       FieldProvider,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:       FieldExcerpt,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "65535"},
				},
				{
					Name:     FieldCreatedAt,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       FieldVector,
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{"dim": fmt.Sprintf("%d", dim)},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(name, schema)
		createOpt.WithShardNum(2)
		if err := m.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}

		vecIdx := index.NewHNSWIndex(entity.COSINE, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(name, FieldVector, vecIdx)
		if _, err := m.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("failed to create index on vector field: %w", err)
		}

		logger.Info("Created collection %s (dim=%d)", name, dim)
	}

	loadOpt := milvusclient.NewLoadCollectionOption(name)
	if _, err := m.client.LoadCollection(ctx, loadOpt); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", name, err)
	}
	return nil
}

// Upsert stores chunk vectors with their metadata.
func (m *MilvusIndex) Upsert(ctx context.Context, name string, entries []core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	n := len(entries)
	dim := len(entries[0].Vector)

	ids := make([]string, n)
	docIDs := make([]string, n)
	chunkIdxs := make([]int64, n)
	docTypes := make([]string, n)
	filenames := make([]string, n)
	sources := make([]string, n)
	providers := make([]string, n)
	excerpts := make([]string, n)
	createdAts := make([]int64, n)
	vectors := make([][]float32, n)

	for i, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("mixed vector dimensionality in upsert batch: %d vs %d", len(e.Vector), dim)
		}
		ids[i] = e.ID
		docIDs[i] = e.Metadata.DocumentID
		chunkIdxs[i] = int64(e.Metadata.ChunkIndex)
		docTypes[i] = e.Metadata.DocType
		filenames[i] = e.Metadata.Filename
		sources[i] = e.Metadata.Source
		providers[i] = e.Metadata.Provider
		excerpts[i] = e.Metadata.Excerpt
		createdAts[i] = time.Now().Unix()
		vectors[i] = e.Vector
	}

	insertOpt := milvusclient.NewColumnBasedInsertOption(name,
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnVarChar(FieldDocumentID, docIDs),
		column.NewColumnInt64(FieldChunkIndex, chunkIdxs),
		column.NewColumnVarChar(FieldDocType, docTypes),
		column.NewColumnVarChar(FieldFilename, filenames),
		column.NewColumnVarChar(FieldSource, sources),
		column.NewColumnVarChar(FieldProvider, providers),
		column.NewColumnVarChar(FieldExcerpt, excerpts),
		column.NewColumnInt64(FieldCreatedAt, createdAts),
		column.NewColumnFloatVector(FieldVector, dim, vectors),
	)

	if _, err := m.client.Insert(ctx, insertOpt); err != nil {
		return fmt.Errorf("failed to insert %d vectors: %w", n, err)
	}
	logger.Debug("Upserted %d vectors into %s", n, name)
	return nil
}

// Query searches the collection and normalizes results into SearchHits.
func (m *MilvusIndex) Query(ctx context.Context, name string, vector []float32, topK int, filter *core.HitFilter) ([]core.SearchHit, error) {
	searchOpt := milvusclient.NewSearchOption(name, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector).
		WithOutputFields(outputFields...)

	if expr := buildFilterExpr(filter); expr != "" {
		searchOpt.WithFilter(expr)
	}

	results, err := m.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	rs := results[0]
	hits := make([]core.SearchHit, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		id, err := rs.IDs.GetAsString(i)
		if err != nil {
			logger.Warn("Skipping hit with unreadable id at %d: %v", i, err)
			continue
		}

		var score float32
		if i < len(rs.Scores) {
			score = rs.Scores[i]
		}

		hit := core.SearchHit{
			ID:    id,
			Score: score,
			Metadata: core.HitMetadata{
				DocumentID: columnString(rs, FieldDocumentID, i),
				ChunkIndex: int(columnInt(rs, FieldChunkIndex, i)),
				DocType:    columnString(rs, FieldDocType, i),
				Filename:   columnString(rs, FieldFilename, i),
				Source:     columnString(rs, FieldSource, i),
				Provider:   columnString(rs, FieldProvider, i),
				Excerpt:    columnString(rs, FieldExcerpt, i),
			},
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close closes the connection to Milvus.
func (m *MilvusIndex) Close(ctx context.Context) error {
	return m.client.Close(ctx)
}

// buildFilterExpr renders a HitFilter as a Milvus boolean expression.
func buildFilterExpr(filter *core.HitFilter) string {
	if filter == nil {
		return ""
	}
	var terms []string
	if filter.DocType != "" {
		terms = append(terms, fmt.Sprintf(`%s == "%s"`, FieldDocType, escape(filter.DocType)))
	}
	if filter.Provider != "" {
		terms = append(terms, fmt.Sprintf(`%s == "%s"`, FieldProvider, escape(filter.Provider)))
	}
	return strings.Join(terms, " && ")
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func columnString(rs milvusclient.ResultSet, field string, i int) string {
	col := rs.GetColumn(field)
	if col == nil {
		return ""
	}
	v, err := col.GetAsString(i)
	if err != nil {
		return ""
	}
	return v
}

func columnInt(rs milvusclient.ResultSet, field string, i int) int64 {
	col := rs.GetColumn(field)
	if col == nil {
		return 0
	}
	v, err := col.GetAsInt64(i)
	if err != nil {
		return 0
	}
	return v
}
