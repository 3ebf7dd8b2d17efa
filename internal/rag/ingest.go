package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JeYeMC/rag-service/internal/chunker"
	"github.com/JeYeMC/rag-service/internal/config"
	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/doctype"
	"github.com/JeYeMC/rag-service/internal/embed"
	"github.com/JeYeMC/rag-service/internal/llm"
	"github.com/JeYeMC/rag-service/internal/logger"
	"github.com/JeYeMC/rag-service/internal/reader"
)

// excerptLen bounds the chunk excerpt kept in index metadata for display
// and reranking.
const excerptLen = 600

// Stable error codes surfaced at the ingestion boundary.
const (
	ErrFileNotFound    = "file_not_found"
	ErrNoTextExtracted = "no_text_extracted"
	ErrEmbeddingFailed = "embedding_failed"
	ErrIndexFailed     = "index_failed"
)

// Ingestor is the ingestion orchestrator: extract, classify, chunk,
// embed, ensure index, upsert, summarize.
type Ingestor struct {
	reader   core.DocumentReader
	embeds   *embed.Registry
	index    core.VectorIndex
	router   *llm.Router
	settings *config.Settings
}

// NewIngestor wires the ingestion orchestrator.
func NewIngestor(docReader core.DocumentReader, embeds *embed.Registry, index core.VectorIndex, router *llm.Router, settings *config.Settings) *Ingestor {
	return &Ingestor{
		reader:   docReader,
		embeds:   embeds,
		index:    index,
		router:   router,
		settings: settings,
	}
}

// IngestFile runs the full ingestion pipeline for one file. Input errors
// come back as structured results with a stable error code; embedding and
// index failures abort the request since nothing can be stored without
// vectors. Image analysis and summarization are best-effort.
func (ing *Ingestor) IngestFile(ctx context.Context, path, source, provider string) *core.IngestResult {
	start := time.Now()
	logger.Info("Starting ingestion [%s]: %s", provider, path)

	info, err := os.Stat(path)
	if err != nil {
		return &core.IngestResult{Status: "error", Error: ErrFileNotFound, ElapsedSeconds: round2(time.Since(start).Seconds())}
	}

	text, err := ing.reader.Extract(path)
	if err != nil {
		logger.Warn("Extraction failed for %s: %v", path, err)
	}
	if strings.TrimSpace(text) == "" {
		return &core.IngestResult{Status: "error", Error: ErrNoTextExtracted, ElapsedSeconds: round2(time.Since(start).Seconds())}
	}

	filename := filepath.Base(path)
	docType := doctype.Classify(text)
	documentID := uuid.NewString()

	// Image analysis is layout metadata only; failures never abort.
	imageCount := 0
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if n, imgErr := reader.CountPDFImages(path); imgErr != nil {
			logger.Warn("PDF image analysis failed for %s: %v", filename, imgErr)
		} else {
			imageCount = n
		}
	}

	chunks := chunker.Chunk(text, ing.settings.ChunkSize, ing.settings.ChunkOverlap)
	if len(chunks) == 0 {
		return &core.IngestResult{Status: "error", Error: ErrNoTextExtracted, ElapsedSeconds: round2(time.Since(start).Seconds())}
	}

	svc, err := ing.embeds.Get(provider)
	if err != nil {
		logger.Error("Embedding provider unavailable: %v", err)
		return &core.IngestResult{Status: "error", Error: ErrEmbeddingFailed, ElapsedSeconds: round2(time.Since(start).Seconds())}
	}
	vectors, err := svc.EmbedTexts(ctx, chunks)
	if err != nil {
		logger.Error("Chunk embedding failed: %v", err)
		return &core.IngestResult{Status: "error", Error: ErrEmbeddingFailed, ElapsedSeconds: round2(time.Since(start).Seconds())}
	}

	dim := len(vectors[0])
	if err := ing.index.EnsureIndex(ctx, ing.settings.IndexName, dim); err != nil {
		logger.Error("Failed to ensure index: %v", err)
		return &core.IngestResult{Status: "error", Error: ErrIndexFailed, ElapsedSeconds: round2(time.Since(start).Seconds())}
	}

	entries := make([]core.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = core.IndexEntry{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Metadata: core.HitMetadata{
				DocumentID: documentID,
				ChunkIndex: i,
				DocType:    docType,
				Filename:   filename,
				Source:     source,
				Provider:   provider,
				Excerpt:    excerpt(chunk),
			},
		}
	}

	if err := ing.index.Upsert(ctx, ing.settings.IndexName, entries); err != nil {
		logger.Error("Upsert failed: %v", err)
		return &core.IngestResult{Status: "error", Error: ErrIndexFailed, ElapsedSeconds: round2(time.Since(start).Seconds())}
	}

	summary := ing.router.GenerateSummary(ctx, provider, text)

	logger.Info("Ingestion completed [%s]: %s -> %s (chunks=%d, images=%d)",
		provider, filename, documentID, len(chunks), imageCount)

	return &core.IngestResult{
		Status:         "ok",
		DocumentID:     documentID,
		Filename:       filename,
		DocType:        docType,
		Summary:        summary,
		ChunkCount:     len(chunks),
		VectorDim:      dim,
		ImageCount:     imageCount,
		FileSize:       info.Size(),
		ElapsedSeconds: round2(time.Since(start).Seconds()),
	}
}

func excerpt(text string) string {
	return cutAtRune(text, excerptLen)
}
