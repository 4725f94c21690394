package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorStore holds embedded documents and answers similarity queries.
// Implementations embed text themselves using an EmbeddingService, so the
// core never handles raw vectors.
type VectorStore interface {
	// Search returns at most topK matches for the query, best first.
	// Scores are similarities where higher is better.
	Search(ctx context.Context, query string, topK int) ([]domain.VectorMatch, error)

	// Upsert embeds and stores documents, replacing any with the same ID.
	Upsert(ctx context.Context, docs []domain.Document) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
