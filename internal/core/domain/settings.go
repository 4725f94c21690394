package domain

const unknownDescription = "Unknown"

// EmbeddingProvider identifies the service that turns text into vectors.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderHashing is a local feature-hashing embedder.
	// It needs no network access and is the default.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderHashing, EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderHashing:
		return "Hashing (local, offline)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies where document vectors are stored.
type VectorBackend string

// Available vector store backends.
const (
	// VectorBackendMemory keeps vectors in process memory for one run.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists vectors in a local SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendPostgres stores vectors in PostgreSQL with pgvector.
	VectorBackendPostgres VectorBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendPostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendMemory:
		return "Memory (not persisted)"
	case VectorBackendSQLite:
		return "SQLite (local file)"
	case VectorBackendPostgres:
		return "PostgreSQL + pgvector"
	default:
		return unknownDescription
	}
}

// ChunkerSettings holds structure-aware chunking limits.
type ChunkerSettings struct {
	// MaxSize is the largest chunk in bytes; larger sections are split.
	MaxSize int

	// MinSize is the smallest chunk kept; shorter chunks are discarded.
	MinSize int

	// KeepPreamble emits text before the first header as its own chunk.
	KeepPreamble bool
}

// ScorerSettings holds the lexical relevance weights.
type ScorerSettings struct {
	// HeaderWeight is added once per query term found in the section header.
	HeaderWeight float64

	// ContentWeight is added once per query term found in the content.
	ContentWeight float64

	// LevelWeight multiplies the level bonus max(0, LevelCeiling-level).
	LevelWeight float64

	// LevelCeiling is the level at which the level bonus reaches zero.
	LevelCeiling int

	// LongChunkSize is the length above which LongChunkPenalty applies.
	LongChunkSize int

	// LongChunkPenalty multiplies the score of chunks longer than LongChunkSize.
	LongChunkPenalty float64
}

// GateSettings holds the retrieval quality thresholds.
type GateSettings struct {
	// MaxScore is the similarity the best match must reach.
	MaxScore float64

	// MinAvgScore is the mean similarity all matches must reach.
	MinAvgScore float64

	// MinResults is the minimum number of matches.
	MinResults int
}

// RetrievalSettings controls the orchestrator.
type RetrievalSettings struct {
	// TopK is the number of vector store matches requested.
	TopK int

	// ChunkBudget is the maximum number of chunks returned.
	ChunkBudget int

	// MaxFetch is the maximum number of documents fetched from the source.
	MaxFetch int

	// FetchConcurrency bounds parallel downloads and chunking.
	FetchConcurrency int

	// ChunkCached also chunks cached documents whose text is stored.
	ChunkCached bool
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama, or an OpenAI-compatible proxy).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings holds vector store configuration.
type VectorStoreSettings struct {
	// Backend selects the store implementation.
	Backend VectorBackend

	// DataDir is where the SQLite database lives.
	DataDir string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string
}

// SourceSettings holds document source configuration.
type SourceSettings struct {
	// BaseURL is the search API endpoint.
	BaseURL string

	// PDFBaseURL is the prefix for full-text downloads.
	PDFBaseURL string

	// RequestsPerSecond throttles calls to the source.
	RequestsPerSecond float64

	// MaxRetries bounds retries of throttled requests; negative disables them.
	MaxRetries int
}

// ContextSettings controls how selected chunks are rendered for generation.
type ContextSettings struct {
	// MaxChars bounds the rendered context block.
	MaxChars int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunker     ChunkerSettings
	Scorer      ScorerSettings
	Gate        GateSettings
	Retrieval   RetrievalSettings
	Embedding   EmbeddingSettings
	VectorStore VectorStoreSettings
	Source      SourceSettings
	Context     ContextSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The defaults work offline: hashing embeddings and an in-memory store.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunker: ChunkerSettings{
			MaxSize:      2000,
			MinSize:      100,
			KeepPreamble: true,
		},
		Scorer: DefaultScorerSettings(),
		Gate: GateSettings{
			MaxScore:    0.8,
			MinAvgScore: 0.75,
			MinResults:  2,
		},
		Retrieval: RetrievalSettings{
			TopK:             5,
			ChunkBudget:      5,
			MaxFetch:         5,
			FetchConcurrency: 3,
			ChunkCached:      true,
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderHashing,
			Dimensions: 384,
		},
		VectorStore: VectorStoreSettings{
			Backend: VectorBackendMemory,
		},
		Source: SourceSettings{
			BaseURL:           "http://export.arxiv.org/api/query",
			PDFBaseURL:        "https://arxiv.org/pdf",
			RequestsPerSecond: 1.0 / 3.0, // arXiv asks for one request every three seconds
			MaxRetries:        3,
		},
		Context: ContextSettings{
			MaxChars: 32000, // 8000 tokens at ~4 chars/token
		},
	}
}

// DefaultScorerSettings returns the standard relevance weights.
func DefaultScorerSettings() ScorerSettings {
	return ScorerSettings{
		HeaderWeight:     0.4,
		ContentWeight:    0.01,
		LevelWeight:      0.1,
		LevelCeiling:     3,
		LongChunkSize:    3000,
		LongChunkPenalty: 0.8,
	}
}

// AllEmbeddingProviders returns all available embedding providers.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderHashing,
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
	}
}

// AllVectorBackends returns all available vector store backends.
func AllVectorBackends() []VectorBackend {
	return []VectorBackend{
		VectorBackendMemory,
		VectorBackendSQLite,
		VectorBackendPostgres,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderHashing: "hashing-v1",
		EmbeddingProviderOllama:  "nomic-embed-text",
		EmbeddingProviderOpenAI:  "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds chunking pipeline configuration.
// Uses generic map-based config so processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds the chunking pipeline config from chunker settings.
func PipelineConfigFor(c ChunkerSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"section_chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"section_chunker": {
				"max_size":      c.MaxSize,
				"min_size":      c.MinSize,
				"keep_preamble": c.KeepPreamble,
			},
		},
	}
}
