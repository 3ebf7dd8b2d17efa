package doctype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyContract(t *testing.T) {
	text := "CONTRATO de prestación de servicios. El contratante y el contratista acuerdan. CLÁUSULA PRIMERA: honorarios."
	assert.Equal(t, "contrato", Classify(text))
}

func TestClassifyInvoice(t *testing.T) {
	text := "FACTURA No. 001. Subtotal: 100. IVA: 19. Valor total: 119. NIT 900123456."
	assert.Equal(t, "factura", Classify(text))
}

func TestClassifyNoKeywordsReturnsFallback(t *testing.T) {
	assert.Equal(t, FallbackLabel, Classify("lorem ipsum dolor sit amet"))
}

func TestClassifyTieReturnsFallback(t *testing.T) {
	// One keyword from each of two labels ties the best score.
	assert.Equal(t, FallbackLabel, Classify("contrato factura"))
}

func TestClassifyDeterministic(t *testing.T) {
	text := "Estimado cliente, asunto: seguimiento. Saludos, atentamente."
	first := Classify(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(text))
	}
	assert.Equal(t, "correo", first)
}

func TestClassifyQueryHints(t *testing.T) {
	assert.Equal(t, "contrato", ClassifyQuery("¿Qué dice la cláusula segunda del contrato?"))
	assert.Equal(t, "factura", ClassifyQuery("¿Cuál es el valor de la factura?"))
	assert.Equal(t, "", ClassifyQuery("¿Qué pasó ayer?"))
}
