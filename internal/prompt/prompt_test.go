package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/doctype"
)

func sampleUnits() []core.CompressedContext {
	return []core.CompressedContext{
		{
			Text: "El contrato tiene vigencia de un año.",
			Sources: []core.SourceRef{
				{ChunkID: "c1", ChunkIndex: 0, DocumentID: "d1", Filename: "contrato.pdf"},
				{ChunkID: "c2", ChunkIndex: 1, DocumentID: "d1", Filename: "contrato.pdf"},
			},
		},
		{
			Text: "La factura asciende a 119 pesos.",
			Sources: []core.SourceRef{
				{ChunkID: "c3", ChunkIndex: 0, DocumentID: "d2", Filename: "factura.pdf"},
			},
		},
	}
}

func TestTemplateIsTotal(t *testing.T) {
	assert.NotEmpty(t, Template("contrato"))
	assert.Equal(t, Template(doctype.FallbackLabel), Template("desconocido"))
	assert.Equal(t, Template(doctype.FallbackLabel), Template(""))
}

func TestBuildWithFilenameCitation(t *testing.T) {
	b := &Builder{CiteByFilename: true}
	system, user := b.Build("¿Cuál es la vigencia?", sampleUnits(), "contrato")

	assert.Equal(t, BaseSystemPrompt, system)
	assert.Contains(t, user, "¿Cuál es la vigencia?")
	assert.Contains(t, user, "contrato.pdf")
	assert.Contains(t, user, "factura.pdf")
	// Internal chunk identifiers must stay out of the prompt.
	assert.NotContains(t, user, "[chunks:")
	assert.NotContains(t, user, "c1")
}

func TestBuildWithChunkMarkers(t *testing.T) {
	b := &Builder{CiteByFilename: false}
	_, user := b.Build("pregunta", sampleUnits(), "factura")

	assert.Contains(t, user, "[chunks: 0,1]")
	assert.Contains(t, user, Template("factura")[:20])
}

func TestDistinctFilenamesOrderAndDedup(t *testing.T) {
	files := DistinctFilenames(sampleUnits())
	assert.Equal(t, []string{"contrato.pdf", "factura.pdf"}, files)
}

func TestBuildEmptyContext(t *testing.T) {
	b := &Builder{CiteByFilename: true}
	_, user := b.Build("pregunta", nil, "")
	assert.True(t, strings.Contains(user, "Contexto:"))
}
