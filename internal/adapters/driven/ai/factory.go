// Package ai provides factory functions that turn settings into the driven
// adapters used by the retrieval pipeline: the embedding service, the vector
// store and the document source.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/connectors/arxiv"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the adapters created from application settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	VectorStore      driven.VectorStore
	Source           driven.DocumentSource
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.VectorStore != nil {
		if err := r.VectorStore.Close(); err != nil {
			logger.Warn("closing vector store: %v", err)
		}
	}
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
}

// Init creates and validates every adapter the retrieval pipeline needs.
// On error, anything already created is closed.
func Init(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	result := &InitResult{EmbeddingService: embedder}

	store, err := CreateVectorStore(ctx, &settings.VectorStore, embedder)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.VectorStore = store
	result.Source = CreateDocumentSource(&settings.Source)

	logger.Debug("adapters ready: embedding=%s/%s (%d dims) vector_store=%s source=%s",
		settings.Embedding.Provider, embedder.ModelName(), embedder.Dimensions(),
		settings.VectorStore.Backend, result.Source.Name())
	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'sercha-rag settings set-embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'sercha-rag settings set-embedding' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig creates a service from settings and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(pingCtx)
}

// CreateEmbeddingService creates the embedding service named by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, errors.New("embedding settings are required")
	}
	if !settings.IsConfigured() {
		if settings.Provider.RequiresAPIKey() {
			return nil, fmt.Errorf("%s requires an API key", settings.Provider)
		}
		return nil, fmt.Errorf("unsupported embedding provider: %q", settings.Provider)
	}

	switch settings.Provider {
	case domain.EmbeddingProviderHashing:
		return hashing.NewEmbeddingService(settings.Dimensions), nil

	case domain.EmbeddingProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.EmbeddingProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// CreateVectorStore opens the vector store backend named by settings.
func CreateVectorStore(
	ctx context.Context,
	settings *domain.VectorStoreSettings,
	embedder driven.EmbeddingService,
) (driven.VectorStore, error) {
	if settings == nil {
		return nil, errors.New("vector store settings are required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: vector store needs an embedding service", domain.ErrVectorStoreUnavailable)
	}

	switch settings.Backend {
	case domain.VectorBackendMemory, "":
		return memory.NewVectorStore(embedder), nil

	case domain.VectorBackendSQLite:
		store, err := sqlite.NewStore(settings.DataDir, embedder)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		return store, nil

	case domain.VectorBackendPostgres:
		if settings.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: postgres backend requires vector_store.postgres_dsn",
				domain.ErrVectorStoreUnavailable)
		}
		store, err := postgres.NewStore(ctx, settings.PostgresDSN, embedder)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unsupported backend %q", domain.ErrVectorStoreUnavailable, settings.Backend)
	}
}

// CreateDocumentSource creates the arXiv source with the in-process PDF extractor.
func CreateDocumentSource(settings *domain.SourceSettings) driven.DocumentSource {
	cfg := arxiv.Config{}
	if settings != nil {
		cfg.BaseURL = settings.BaseURL
		cfg.PDFBaseURL = settings.PDFBaseURL
		cfg.RequestsPerSecond = settings.RequestsPerSecond
		cfg.MaxRetries = settings.MaxRetries
	}
	return arxiv.New(cfg, pdf.New())
}
