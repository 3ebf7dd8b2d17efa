package rag

import (
	"context"
	"time"

	"github.com/JeYeMC/rag-service/internal/config"
	"github.com/JeYeMC/rag-service/internal/core"
	"github.com/JeYeMC/rag-service/internal/doctype"
	"github.com/JeYeMC/rag-service/internal/llm"
	"github.com/JeYeMC/rag-service/internal/logger"
	"github.com/JeYeMC/rag-service/internal/prompt"
)

const (
	// DefaultTopK is how many candidates the retriever hands downstream.
	DefaultTopK = 20
	// rerankTopK caps how many candidates survive reranking.
	rerankTopK = 30
	// compressMaxUnits and compressGroupSize shape the context window.
	compressMaxUnits  = 5
	compressGroupSize = 5
)

// Pipeline is the query orchestrator: classify, retrieve (with one
// unfiltered retry), rerank, compress, build the prompt, generate,
// post-process. Each stage runs at most twice and there are no loops.
type Pipeline struct {
	retriever *Retriever
	reranker  core.Reranker
	router    *llm.Router
	builder   *prompt.Builder
	settings  *config.Settings
}

// NewPipeline wires the query orchestrator.
func NewPipeline(retriever *Retriever, reranker core.Reranker, router *llm.Router, settings *config.Settings) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		reranker:  reranker,
		router:    router,
		builder:   &prompt.Builder{CiteByFilename: settings.CiteByFilename},
		settings:  settings,
	}
}

// AnswerQuestion answers a natural-language question over the ingested
// corpus. docType pins retrieval to one document type; when empty, a
// lightweight keyword pass over the question infers one. The reported
// doc_type reflects what was actually used: when a type-filtered
// retrieval comes back empty, the filter is dropped and the type is
// relabeled as the generic fallback.
func (p *Pipeline) AnswerQuestion(ctx context.Context, question string, topK int, docType, provider string) (*core.Answer, error) {
	start := time.Now()
	if topK <= 0 {
		topK = DefaultTopK
	}

	if docType == "" {
		docType = doctype.ClassifyQuery(question)
		if docType != "" {
			logger.Debug("Inferred doc_type %q from question", docType)
		}
	}

	hits, err := p.retriever.Retrieve(ctx, question, topK, docType, provider)
	if err != nil {
		return nil, err
	}

	// One-shot unfiltered retry: an empty type-filtered result means the
	// filter was wrong, not that the corpus is empty.
	if len(hits) == 0 && docType != "" {
		logger.Info("No hits for doc_type %q, retrying unfiltered", docType)
		hits, err = p.retriever.Retrieve(ctx, question, topK, "", provider)
		if err != nil {
			return nil, err
		}
		docType = doctype.FallbackLabel
	}
	if docType == "" {
		docType = doctype.FallbackLabel
	}

	reranked := p.reranker.Rerank(ctx, question, hits, rerankTopK, provider)

	compressed := Compress(reranked, compressMaxUnits, compressGroupSize)

	systemPrompt, userPrompt := p.builder.Build(question, compressed, docType)

	answer := p.router.GenerateAnswer(ctx, provider, systemPrompt, userPrompt)

	sources := make([]core.HitMetadata, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, h.Metadata)
	}

	return &core.Answer{
		Answer:            answer,
		Sources:           sources,
		CompressedContext: compressed,
		DocType:           docType,
		DocumentsUsed:     prompt.DistinctFilenames(compressed),
		ElapsedSeconds:    round2(time.Since(start).Seconds()),
	}, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
