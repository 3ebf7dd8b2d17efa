package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeYeMC/rag-service/internal/embed"
	"github.com/JeYeMC/rag-service/internal/llm"
	"github.com/JeYeMC/rag-service/internal/vectorstore"
)

// newChatServer serves an OpenAI-compatible chat completions endpoint
// that always answers with the given content.
func newChatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "model overloaded", status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newPipeline(t *testing.T, embedURL, llmURL string, index *vectorstore.MemoryIndex) *Pipeline {
	t.Helper()
	settings := localSettings(t, embedURL)
	settings.LocalLLMURL = llmURL
	settings.CiteByFilename = true

	embeds := embed.NewRegistry(settings)
	retriever := NewRetriever(embeds, index, settings.IndexName)
	reranker := NewCrossEncoderReranker(settings) // no HF creds, degrades to native order
	router := llm.NewRouter(settings)
	return NewPipeline(retriever, reranker, router, settings)
}

func TestAnswerQuestionRoundTrip(t *testing.T) {
	es := newEmbedServer(t)
	cs := newChatServer(t, "El valor del contrato es $5.000.000 (Fuentes: contrato.pdf)", http.StatusOK)
	index := vectorstore.NewMemoryIndex()
	seedIndex(t, index, "test_index", map[string]string{
		"contrato.pdf": "CLÁUSULA TERCERA: el valor del contrato es de $5.000.000.",
		"factura.pdf":  "Factura de venta, total a pagar $119.000.",
		"notas.txt":    "Notas internas sin relación.",
	})

	p := newPipeline(t, es.URL, cs.URL, index)
	answer, err := p.AnswerQuestion(context.Background(), "¿Cuál es el valor del contrato?", 5, "", "")
	require.NoError(t, err)

	assert.Contains(t, answer.Answer, "$5.000.000")
	assert.Equal(t, "contrato", answer.DocType) // inferred from the question
	assert.Contains(t, answer.DocumentsUsed, "contrato.pdf")
	assert.NotEmpty(t, answer.Sources)
	assert.NotEmpty(t, answer.CompressedContext)
	assert.Equal(t, "contrato.pdf", answer.Sources[0].Filename)
}

func TestAnswerQuestionUnfilteredRetry(t *testing.T) {
	es := newEmbedServer(t)
	cs := newChatServer(t, "No hay facturas, pero el contrato dice lo siguiente.", http.StatusOK)
	index := vectorstore.NewMemoryIndex()
	// Corpus has no invoices at all.
	seedIndex(t, index, "test_index", map[string]string{
		"contrato.pdf": "CLÁUSULA PRIMERA del contrato de servicios.",
	})

	p := newPipeline(t, es.URL, cs.URL, index)
	answer, err := p.AnswerQuestion(context.Background(), "¿Cuánto se facturó?", 5, "factura", "")
	require.NoError(t, err)

	// The filter was dropped and the resolved type relabeled generic.
	assert.Equal(t, "documento", answer.DocType)
	assert.NotEmpty(t, answer.Sources)
	assert.Contains(t, answer.DocumentsUsed, "contrato.pdf")
}

func TestAnswerQuestionGenerationFailureDegrades(t *testing.T) {
	es := newEmbedServer(t)
	cs := newChatServer(t, "", http.StatusInternalServerError)
	index := vectorstore.NewMemoryIndex()
	seedIndex(t, index, "test_index", map[string]string{
		"contrato.pdf": "CLÁUSULA PRIMERA del contrato de servicios.",
	})

	p := newPipeline(t, es.URL, cs.URL, index)
	answer, err := p.AnswerQuestion(context.Background(), "¿Qué dice el contrato?", 5, "", "")
	require.NoError(t, err)

	// Degraded, not failed: marked answer plus the retrieval evidence.
	assert.True(t, strings.HasPrefix(answer.Answer, llm.FallbackMarker))
	assert.NotEmpty(t, answer.Sources)
	assert.NotEmpty(t, answer.CompressedContext)
}

func TestAnswerQuestionEmptyCorpus(t *testing.T) {
	es := newEmbedServer(t)
	cs := newChatServer(t, "No encontré información en los documentos.", http.StatusOK)
	index := vectorstore.NewMemoryIndex()
	require.NoError(t, index.EnsureIndex(context.Background(), "test_index", 3))

	p := newPipeline(t, es.URL, cs.URL, index)
	answer, err := p.AnswerQuestion(context.Background(), "¿Hay algo?", 5, "", "")
	require.NoError(t, err)

	assert.Equal(t, "documento", answer.DocType)
	assert.Empty(t, answer.Sources)
	assert.Empty(t, answer.DocumentsUsed)
}

func TestAnswerQuestionExplicitDocTypeWins(t *testing.T) {
	es := newEmbedServer(t)
	cs := newChatServer(t, "Total facturado: $119.000", http.StatusOK)
	index := vectorstore.NewMemoryIndex()
	seedIndex(t, index, "test_index", map[string]string{
		"contrato.pdf": "CLÁUSULA PRIMERA del contrato.",
		"factura.pdf":  "Factura de venta, total a pagar $119.000.",
	})

	p := newPipeline(t, es.URL, cs.URL, index)
	// Question mentions "contrato" but the caller pins the invoice type.
	answer, err := p.AnswerQuestion(context.Background(), "¿Qué facturas referencia el contrato?", 5, "factura", "")
	require.NoError(t, err)

	assert.Equal(t, "factura", answer.DocType)
	for _, src := range answer.Sources {
		assert.Equal(t, "factura", src.DocType)
	}
}
