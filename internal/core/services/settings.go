package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkerMaxSize      = "chunker.max_size"
	keyChunkerMinSize      = "chunker.min_size"
	keyChunkerKeepPreamble = "chunker.keep_preamble"

	keyScorerHeaderWeight  = "scorer.header_weight"
	keyScorerContentWeight = "scorer.content_weight"
	keyScorerLevelWeight   = "scorer.level_weight"
	keyScorerLevelCeiling  = "scorer.level_ceiling"
	keyScorerLongSize      = "scorer.long_chunk_size"
	keyScorerLongPenalty   = "scorer.long_chunk_penalty"

	keyGateMaxScore    = "gate.max_score"
	keyGateMinAvgScore = "gate.min_avg_score"
	keyGateMinResults  = "gate.min_results"

	keyRetrievalTopK        = "retrieval.top_k"
	keyRetrievalChunkBudget = "retrieval.chunk_budget"
	keyRetrievalMaxFetch    = "retrieval.max_fetch"
	keyRetrievalConcurrency = "retrieval.fetch_concurrency"
	keyRetrievalChunkCached = "retrieval.chunk_cached"

	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"

	keyVectorBackend     = "vector_store.backend"
	keyVectorDataDir     = "vector_store.data_dir"
	keyVectorPostgresDSN = "vector_store.postgres_dsn"

	keySourceBaseURL    = "source.base_url"
	keySourcePDFBaseURL = "source.pdf_base_url"
	keySourceRPS        = "source.requests_per_second"
	keySourceMaxRetries = "source.max_retries"

	keyContextMaxChars = "context.max_chars"
)

// SettingsService maps the flat config store onto domain.AppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to domain.DefaultAppSettings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunker: domain.ChunkerSettings{
			MaxSize:      s.getInt(keyChunkerMaxSize, d.Chunker.MaxSize),
			MinSize:      s.getInt(keyChunkerMinSize, d.Chunker.MinSize),
			KeepPreamble: s.getBool(keyChunkerKeepPreamble, d.Chunker.KeepPreamble),
		},
		Scorer: domain.ScorerSettings{
			HeaderWeight:     s.getFloat(keyScorerHeaderWeight, d.Scorer.HeaderWeight),
			ContentWeight:    s.getFloat(keyScorerContentWeight, d.Scorer.ContentWeight),
			LevelWeight:      s.getFloat(keyScorerLevelWeight, d.Scorer.LevelWeight),
			LevelCeiling:     s.getInt(keyScorerLevelCeiling, d.Scorer.LevelCeiling),
			LongChunkSize:    s.getInt(keyScorerLongSize, d.Scorer.LongChunkSize),
			LongChunkPenalty: s.getFloat(keyScorerLongPenalty, d.Scorer.LongChunkPenalty),
		},
		Gate: domain.GateSettings{
			MaxScore:    s.getFloat(keyGateMaxScore, d.Gate.MaxScore),
			MinAvgScore: s.getFloat(keyGateMinAvgScore, d.Gate.MinAvgScore),
			MinResults:  s.getInt(keyGateMinResults, d.Gate.MinResults),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:             s.getInt(keyRetrievalTopK, d.Retrieval.TopK),
			ChunkBudget:      s.getInt(keyRetrievalChunkBudget, d.Retrieval.ChunkBudget),
			MaxFetch:         s.getInt(keyRetrievalMaxFetch, d.Retrieval.MaxFetch),
			FetchConcurrency: s.getInt(keyRetrievalConcurrency, d.Retrieval.FetchConcurrency),
			ChunkCached:      s.getBool(keyRetrievalChunkCached, d.Retrieval.ChunkCached),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(d.Embedding.Provider),
			Model:      s.configStore.GetString(keyEmbedModel),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - adapters pick their own
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDimensions, 0),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:     s.getBackend(d.VectorStore.Backend),
			DataDir:     s.configStore.GetString(keyVectorDataDir),
			PostgresDSN: s.configStore.GetString(keyVectorPostgresDSN),
		},
		Source: domain.SourceSettings{
			BaseURL:           s.getString(keySourceBaseURL, d.Source.BaseURL),
			PDFBaseURL:        s.getString(keySourcePDFBaseURL, d.Source.PDFBaseURL),
			RequestsPerSecond: s.getFloat(keySourceRPS, d.Source.RequestsPerSecond),
			MaxRetries:        s.getInt(keySourceMaxRetries, d.Source.MaxRetries),
		},
		Context: domain.ContextSettings{
			MaxChars: s.getInt(keyContextMaxChars, d.Context.MaxChars),
		},
	}

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.Embedding.Dimensions == 0 {
		settings.Embedding.Dimensions = dimensionsFor(settings.Embedding.Model, d.Embedding.Dimensions)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyChunkerMaxSize, settings.Chunker.MaxSize},
		{keyChunkerMinSize, settings.Chunker.MinSize},
		{keyChunkerKeepPreamble, settings.Chunker.KeepPreamble},
		{keyScorerHeaderWeight, settings.Scorer.HeaderWeight},
		{keyScorerContentWeight, settings.Scorer.ContentWeight},
		{keyScorerLevelWeight, settings.Scorer.LevelWeight},
		{keyScorerLevelCeiling, settings.Scorer.LevelCeiling},
		{keyScorerLongSize, settings.Scorer.LongChunkSize},
		{keyScorerLongPenalty, settings.Scorer.LongChunkPenalty},
		{keyGateMaxScore, settings.Gate.MaxScore},
		{keyGateMinAvgScore, settings.Gate.MinAvgScore},
		{keyGateMinResults, settings.Gate.MinResults},
		{keyRetrievalTopK, settings.Retrieval.TopK},
		{keyRetrievalChunkBudget, settings.Retrieval.ChunkBudget},
		{keyRetrievalMaxFetch, settings.Retrieval.MaxFetch},
		{keyRetrievalConcurrency, settings.Retrieval.FetchConcurrency},
		{keyRetrievalChunkCached, settings.Retrieval.ChunkCached},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyVectorBackend, settings.VectorStore.Backend.String()},
		{keyVectorDataDir, settings.VectorStore.DataDir},
		{keySourceBaseURL, settings.Source.BaseURL},
		{keySourcePDFBaseURL, settings.Source.PDFBaseURL},
		{keySourceRPS, settings.Source.RequestsPerSecond},
		{keySourceMaxRetries, settings.Source.MaxRetries},
		{keyContextMaxChars, settings.Context.MaxChars},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present so env-provided values never land on disk.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.VectorStore.PostgresDSN != "" {
		if err := s.configStore.Set(keyVectorPostgresDSN, settings.VectorStore.PostgresDSN); err != nil {
			return fmt.Errorf("save postgres dsn: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.EmbeddingProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.APIKey = apiKey
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if provider == domain.EmbeddingProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.Dimensions = dimensionsFor(settings.Embedding.Model, settings.Embedding.Dimensions)

	return s.Save(settings)
}

// SetVectorBackend selects the vector store backend.
func (s *SettingsService) SetVectorBackend(backend domain.VectorBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid vector backend: %s", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.VectorStore.Backend = backend

	return s.Save(settings)
}

// Validate checks that current settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateSettings reports every inconsistency in settings at once.
func ValidateSettings(settings *domain.AppSettings) error {
	var errs []error

	if settings.Chunker.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("chunker max size must be positive, got %d", settings.Chunker.MaxSize))
	}
	if settings.Chunker.MinSize < 0 || settings.Chunker.MinSize > settings.Chunker.MaxSize {
		errs = append(errs, fmt.Errorf("chunker min size %d must be between 0 and max size %d",
			settings.Chunker.MinSize, settings.Chunker.MaxSize))
	}
	if settings.Gate.MinResults < 0 {
		errs = append(errs, errors.New("gate min results must not be negative"))
	}
	if settings.Retrieval.TopK <= 0 {
		errs = append(errs, errors.New("retrieval top_k must be positive"))
	}
	if settings.Retrieval.FetchConcurrency <= 0 {
		errs = append(errs, errors.New("retrieval fetch concurrency must be positive"))
	}
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider))
	}
	if settings.VectorStore.Backend == domain.VectorBackendPostgres && settings.VectorStore.PostgresDSN == "" {
		errs = append(errs, errors.New("postgres backend requires vector_store.postgres_dsn"))
	}
	if settings.Source.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("source requests per second must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	provider := domain.EmbeddingProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	backend := domain.VectorBackend(s.configStore.GetString(keyVectorBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func dimensionsFor(model string, fallback int) int {
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return fallback
}
