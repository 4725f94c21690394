package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

// ==================== Embedding Tests ====================

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantType    any
		wantErr     bool
		errContains string
	}{
		{
			name:        "nil settings",
			settings:    nil,
			wantErr:     true,
			errContains: "required",
		},
		{
			name:        "unknown provider",
			settings:    &domain.EmbeddingSettings{Provider: "cohere"},
			wantErr:     true,
			errContains: "unsupported",
		},
		{
			name:     "hashing provider",
			settings: &domain.EmbeddingSettings{Provider: domain.EmbeddingProviderHashing, Dimensions: 64},
			wantType: &hashing.EmbeddingService{},
		},
		{
			name: "ollama provider",
			settings: &domain.EmbeddingSettings{
				Provider: domain.EmbeddingProviderOllama,
				Model:    "nomic-embed-text",
			},
			wantType: &ollamaembed.EmbeddingService{},
		},
		{
			name: "openai provider",
			settings: &domain.EmbeddingSettings{
				Provider: domain.EmbeddingProviderOpenAI,
				Model:    "text-embedding-3-small",
				APIKey:   "sk-test",
			},
			wantType: &openaiembed.EmbeddingService{},
		},
		{
			name:        "openai without key",
			settings:    &domain.EmbeddingSettings{Provider: domain.EmbeddingProviderOpenAI},
			wantErr:     true,
			errContains: "API key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.IsType(t, tt.wantType, svc)
			svc.Close()
		})
	}
}

func TestCreateEmbeddingService_HashingDimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider:   domain.EmbeddingProviderHashing,
		Dimensions: 128,
	})
	require.NoError(t, err)
	assert.Equal(t, 128, svc.Dimensions())
}

func TestCreateEmbeddingService_OllamaKnownModelDimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderOllama,
		Model:    "mxbai-embed-large",
	})
	require.NoError(t, err)
	assert.Equal(t, 1024, svc.Dimensions())
}

func TestCreateAndValidateEmbeddingService_Hashing(t *testing.T) {
	svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderHashing,
	})
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, hashing.DefaultDimensions, svc.Dimensions())
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderOllama,
		BaseURL:  "http://127.0.0.1:1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestCreateAndValidateEmbeddingService_InvalidConfig(t *testing.T) {
	_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderOpenAI,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestValidateEmbeddingConfig(t *testing.T) {
	err := ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderHashing,
	})
	assert.NoError(t, err)
}

// ==================== Vector Store Tests ====================

func TestCreateVectorStore_Memory(t *testing.T) {
	store, err := CreateVectorStore(context.Background(),
		&domain.VectorStoreSettings{Backend: domain.VectorBackendMemory},
		hashing.NewEmbeddingService(32))
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &memory.VectorStore{}, store)
}

func TestCreateVectorStore_SQLite(t *testing.T) {
	store, err := CreateVectorStore(context.Background(),
		&domain.VectorStoreSettings{Backend: domain.VectorBackendSQLite, DataDir: t.TempDir()},
		hashing.NewEmbeddingService(32))
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &sqlite.Store{}, store)
}

func TestCreateVectorStore_PostgresRequiresDSN(t *testing.T) {
	_, err := CreateVectorStore(context.Background(),
		&domain.VectorStoreSettings{Backend: domain.VectorBackendPostgres},
		hashing.NewEmbeddingService(32))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)
	assert.Contains(t, err.Error(), "postgres_dsn")
}

func TestCreateVectorStore_Errors(t *testing.T) {
	embedder := hashing.NewEmbeddingService(32)

	_, err := CreateVectorStore(context.Background(), nil, embedder)
	assert.Error(t, err)

	_, err = CreateVectorStore(context.Background(), &domain.VectorStoreSettings{Backend: "redis"}, embedder)
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)

	_, err = CreateVectorStore(context.Background(), &domain.VectorStoreSettings{}, nil)
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)
}

// ==================== Source Tests ====================

func TestCreateDocumentSource(t *testing.T) {
	src := CreateDocumentSource(&domain.SourceSettings{BaseURL: "http://localhost/api"})
	require.NotNil(t, src)
	assert.Equal(t, "arxiv", src.Name())

	assert.Equal(t, "arxiv", CreateDocumentSource(nil).Name())
}

// ==================== Init Tests ====================

func TestInit_Defaults(t *testing.T) {
	settings := domain.DefaultAppSettings()

	result, err := Init(context.Background(), &settings)
	require.NoError(t, err)
	defer result.Close()

	assert.NotNil(t, result.EmbeddingService)
	assert.IsType(t, &memory.VectorStore{}, result.VectorStore)
	assert.Equal(t, "arxiv", result.Source.Name())
}

func TestInit_NilSettings(t *testing.T) {
	_, err := Init(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInit_BadBackend(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.VectorStore.Backend = "redis"

	_, err := Init(context.Background(), &settings)
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)
}
