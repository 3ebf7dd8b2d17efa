package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JeYeMC/rag-service/internal/config"
	"github.com/JeYeMC/rag-service/internal/embed"
	"github.com/JeYeMC/rag-service/internal/feedback"
	"github.com/JeYeMC/rag-service/internal/llm"
	"github.com/JeYeMC/rag-service/internal/logger"
	"github.com/JeYeMC/rag-service/internal/rag"
	"github.com/JeYeMC/rag-service/internal/reader"
	"github.com/JeYeMC/rag-service/internal/server"
	"github.com/JeYeMC/rag-service/internal/vectorstore"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// .env is optional; real deployments configure the environment directly.
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	settings := config.Load()
	logger.Init(*debug || settings.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index, err := vectorstore.NewMilvusIndex(ctx, settings.MilvusAddr)
	if err != nil {
		logger.Error("Failed to connect to Milvus: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := index.Close(context.Background()); err != nil {
			logger.Warn("Error closing Milvus connection: %v", err)
		}
	}()

	embeds := embed.NewRegistry(settings)
	router := llm.NewRouter(settings)
	reranker := rag.NewCrossEncoderReranker(settings)
	docReader := reader.New()

	retriever := rag.NewRetriever(embeds, index, settings.IndexName)
	pipeline := rag.NewPipeline(retriever, reranker, router, settings)
	ingestor := rag.NewIngestor(docReader, embeds, index, router, settings)

	store, err := feedback.NewStore(settings.FeedbackPath)
	if err != nil {
		logger.Error("Failed to open feedback store: %v", err)
		os.Exit(1)
	}

	srv := server.New(settings, pipeline, ingestor, docReader, store, router)

	logger.Info("Starting RAG service (embed=%s, llm=%s, index=%s)",
		settings.EmbedProvider, settings.LLMProvider, settings.IndexName)

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server exited with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
