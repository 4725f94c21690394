// Command sercha-rag retrieves grounded context for questions over arXiv papers.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// envOverrides maps environment variables onto config keys.
//
//nolint:gosec // G101: environment variable names, not credentials.
var envOverrides = map[string]string{
	"OPENAI_API_KEY":          "embedding.api_key",
	"SERCHA_RAG_POSTGRES_DSN": "vector_store.postgres_dsn",
}

func main() {
	// A missing .env file is normal.
	_ = godotenv.Load() //nolint:errcheck // optional file

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	home := os.Getenv("SERCHA_RAG_HOME")

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return err
	}
	for _, key := range configStore.OverrideFromEnv(envOverrides) {
		logger.Debug("config key %s set from environment", key)
	}

	promptDir := ""
	if home != "" {
		promptDir = filepath.Join(home, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return err
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return err
	}
	if home != "" && settings.VectorStore.DataDir == "" {
		settings.VectorStore.DataDir = filepath.Join(home, "data")
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings:          settingsService,
		Retrieval:         retrievalFactory(settings),
		Chunker:           newChunkService,
		Context:           services.NewContextBuilder(prompts, settings.Context),
		Extractor:         pdf.New(),
		ValidateEmbedding: ai.ValidateEmbeddingConfig,
	})

	return cli.Execute(ctx)
}

// retrievalFactory defers opening the embedding service and vector store
// until a command actually retrieves.
func retrievalFactory(settings *domain.AppSettings) cli.RetrievalFactory {
	return func(ctx context.Context) (driving.RetrievalService, func(), error) {
		adapters, err := ai.Init(ctx, settings)
		if err != nil {
			return nil, nil, err
		}

		pipeline, err := postprocessors.DefaultPipeline(settings.Chunker)
		if err != nil {
			adapters.Close()
			return nil, nil, err
		}

		svc := services.NewRetrievalService(adapters.VectorStore, adapters.Source, pipeline, *settings)
		return svc, adapters.Close, nil
	}
}

func newChunkService(settings domain.ChunkerSettings) (driving.ChunkService, error) {
	pipeline, err := postprocessors.DefaultPipeline(settings)
	if err != nil {
		return nil, err
	}
	return services.NewChunkService(pipeline), nil
}
