package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeYeMC/rag-service/internal/embed"
	"github.com/JeYeMC/rag-service/internal/llm"
	"github.com/JeYeMC/rag-service/internal/reader"
	"github.com/JeYeMC/rag-service/internal/vectorstore"
)

func newIngestor(t *testing.T, embedURL string, index *vectorstore.MemoryIndex) *Ingestor {
	t.Helper()
	settings := localSettings(t, embedURL)
	// No LLM endpoint configured: summaries fall back to truncation.
	return NewIngestor(reader.New(), embed.NewRegistry(settings), index, llm.NewRouter(settings), settings)
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestFileStoresChunks(t *testing.T) {
	es := newEmbedServer(t)
	index := vectorstore.NewMemoryIndex()
	ing := newIngestor(t, es.URL, index)

	text := "CONTRATO DE PRESTACIÓN DE SERVICIOS\n" +
		"CLÁUSULA PRIMERA: el contratista se obliga a prestar los servicios descritos.\n" +
		"CLÁUSULA SEGUNDA: el contratante pagará los honorarios pactados.\n" +
		"CLÁUSULA TERCERA: el valor del contrato es de $5.000.000."
	path := writeDoc(t, "contrato.txt", text)

	result := ing.IngestFile(context.Background(), path, "crm", "")
	require.Equal(t, "ok", result.Status, "error code: %s", result.Error)

	assert.Equal(t, "contrato.txt", result.Filename)
	assert.Equal(t, "contrato", result.DocType)
	assert.NotEmpty(t, result.DocumentID)
	assert.Greater(t, result.ChunkCount, 0)
	assert.Equal(t, 3, result.VectorDim)
	assert.NotEmpty(t, result.Summary)
	assert.Equal(t, result.ChunkCount, index.Count("test_index"))
}

func TestIngestFileNotFound(t *testing.T) {
	es := newEmbedServer(t)
	ing := newIngestor(t, es.URL, vectorstore.NewMemoryIndex())

	result := ing.IngestFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), "crm", "")
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, ErrFileNotFound, result.Error)
}

func TestIngestNoTextExtracted(t *testing.T) {
	es := newEmbedServer(t)
	ing := newIngestor(t, es.URL, vectorstore.NewMemoryIndex())

	// Unsupported binary format extracts to empty text.
	path := writeDoc(t, "imagen.png", "\x89PNG...")
	result := ing.IngestFile(context.Background(), path, "crm", "")
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, ErrNoTextExtracted, result.Error)

	// Whitespace-only content counts as no text too.
	blank := writeDoc(t, "vacio.txt", "   \n\t  ")
	result = ing.IngestFile(context.Background(), blank, "crm", "")
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, ErrNoTextExtracted, result.Error)
}

func TestIngestEmbeddingFailure(t *testing.T) {
	index := vectorstore.NewMemoryIndex()
	ing := newIngestor(t, "", index) // no embed endpoint configured

	path := writeDoc(t, "doc.txt", "Contenido suficiente para generar al menos un fragmento de texto.")
	result := ing.IngestFile(context.Background(), path, "crm", "")
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, ErrEmbeddingFailed, result.Error)
	assert.Zero(t, index.Count("test_index"))
}

func TestIngestMetadataCarriesSourceAndType(t *testing.T) {
	es := newEmbedServer(t)
	index := vectorstore.NewMemoryIndex()
	ing := newIngestor(t, es.URL, index)

	text := "FACTURA DE VENTA No. 123. Subtotal: $100.000. IVA: $19.000. " +
		"Valor total: $119.000. NIT 900.123.456-7. Gracias por su compra."
	path := writeDoc(t, "factura_123.txt", text)

	result := ing.IngestFile(context.Background(), path, "erp", "local")
	require.Equal(t, "ok", result.Status)
	assert.Equal(t, "factura", result.DocType)

	hits, err := index.Query(context.Background(), "test_index", testVec("factura"), 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "erp", hits[0].Metadata.Source)
	assert.Equal(t, "local", hits[0].Metadata.Provider)
	assert.Equal(t, result.DocumentID, hits[0].Metadata.DocumentID)
	assert.NotEmpty(t, hits[0].Metadata.Excerpt)
}

func TestIngestSummaryFallsBackToTruncation(t *testing.T) {
	es := newEmbedServer(t)
	ing := newIngestor(t, es.URL, vectorstore.NewMemoryIndex())

	long := strings.Repeat("Contenido del documento con texto repetido. ", 60)
	path := writeDoc(t, "largo.txt", long)

	result := ing.IngestFile(context.Background(), path, "crm", "")
	require.Equal(t, "ok", result.Status)
	assert.NotEmpty(t, result.Summary)
	assert.LessOrEqual(t, len(result.Summary), 1200)
}
