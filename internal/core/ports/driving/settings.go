package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with defaults filled in.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.EmbeddingProvider, model, apiKey string) error

	// SetVectorBackend selects the vector store backend.
	SetVectorBackend(backend domain.VectorBackend) error

	// Validate checks that current settings are internally consistent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
