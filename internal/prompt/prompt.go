// Package prompt assembles generation requests: a doc-type-specific
// instruction, the compressed retrieval context, and the user question.
package prompt

import (
	"fmt"
	"strings"

	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/doctype"
)

// BaseSystemPrompt frames every generation request.
const BaseSystemPrompt = "Eres un asistente experto en análisis de documentos dentro de un CRM empresarial. " +
	"Usa SOLO la información del 'Contexto' para responder. Responde en español. " +
	"Si no hay suficiente información, dilo explícitamente. No inventes datos."

// EntityExtractionPrompt asks the model for structured entities in JSON.
// Used by the analyze flow when entity enrichment is requested.
const EntityExtractionPrompt = `Extrae entidades estructuradas del siguiente contenido.
Devuelve el resultado en formato JSON:

{
  "personas": [],
  "organizaciones": [],
  "fechas": [],
  "valores_economicos": [],
  "productos_servicios": [],
  "lugares": [],
  "acciones_solicitadas": []
}

No inventes entidades. Solo retorna lo explícitamente mencionado.`

// templates maps each doc-type label to its specialized instruction.
var templates = map[string]string{
	"contrato": "Eres un asistente jurídico para un CRM. " +
		"Organiza la respuesta en: Cláusulas, Obligaciones, Vigencia, Sanciones.",
	"correo": "Eres un asistente comercial. Resume el correo en 2-4 líneas, " +
		"identifica intención y acciones sugeridas.",
	"factura": "Eres un asistente financiero. Extrae valores clave: total, impuestos, fechas.",
	"propuesta": "Eres un asistente comercial. Identifica alcance, entregables, " +
		"cotización y condiciones de la propuesta.",
	"pqr": "Eres un asistente de servicio al cliente. Identifica el tipo de solicitud " +
		"(petición, queja, reclamo), el afectado, la urgencia y la respuesta recomendada.",
	"acta": "Eres un asistente de CRM. Resume los acuerdos, asistentes y compromisos del acta.",
	doctype.FallbackLabel: "Eres un asistente de CRM. Resume la información relevante " +
		"y sugiere 1-3 acciones comerciales.",
}

// Template returns the instruction for a doc-type label. Total over every
// input: unknown or empty labels resolve to the fallback template.
func Template(docType string) string {
	if t, ok := templates[docType]; ok {
		return t
	}
	return templates[doctype.FallbackLabel]
}

// Builder turns compressed context and a question into one generation
// request under a fixed citation policy.
type Builder struct {
	// CiteByFilename switches citation from internal chunk markers to a
	// dedicated sources section listing document filenames.
	CiteByFilename bool
}

// Build assembles the system instruction and the user prompt.
func (b *Builder) Build(question string, units []core.CompressedContext, docType string) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	sb.WriteString(Template(docType))
	sb.WriteString("\n\nContexto:\n")
	sb.WriteString(b.renderContext(units))
	sb.WriteString("\n\nPregunta: ")
	sb.WriteString(question)

	if b.CiteByFilename {
		files := DistinctFilenames(units)
		sb.WriteString("\n\nDocumentos disponibles:\n")
		for _, f := range files {
			sb.WriteString("- ")
			sb.WriteString(f)
			sb.WriteString("\n")
		}
		sb.WriteString("\nRespuesta estructurada. Cita los documentos usados por su nombre " +
			"de archivo en una sección final 'Fuentes':")
	} else {
		sb.WriteString("\n\nRespuesta estructurada (incluye fuentes):")
	}

	return BaseSystemPrompt, sb.String()
}

// renderContext joins unit texts, prefixing chunk-index markers only when
// the citation policy allows internal identifiers into the prompt.
func (b *Builder) renderContext(units []core.CompressedContext) string {
	parts := make([]string, 0, len(units))
	for _, u := range units {
		if b.CiteByFilename {
			parts = append(parts, u.Text)
			continue
		}
		idxs := make([]string, 0, len(u.Sources))
		for _, s := range u.Sources {
			idxs = append(idxs, fmt.Sprintf("%d", s.ChunkIndex))
		}
		marker := ""
		if len(idxs) > 0 {
			marker = fmt.Sprintf("[chunks: %s]\n", strings.Join(idxs, ","))
		}
		parts = append(parts, marker+u.Text)
	}
	return strings.Join(parts, "\n\n")
}

// DistinctFilenames lists the filenames among the units' provenance, first
// occurrence order, no duplicates.
func DistinctFilenames(units []core.CompressedContext) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, u := range units {
		for _, s := range u.Sources {
			if s.Filename == "" {
				continue
			}
			if _, ok := seen[s.Filename]; ok {
				continue
			}
			seen[s.Filename] = struct{}{}
			out = append(out, s.Filename)
		}
	}
	return out
}
