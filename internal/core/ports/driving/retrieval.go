package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// RetrievalService answers a query with the most useful context available.
type RetrievalService interface {
	// Retrieve runs the full pipeline for one query: vector search, quality
	// gate, then either the cached matches or a fetch-ingest-chunk-select pass.
	// A result with OutcomeNoContext is not an error.
	// Errors wrap domain.ErrCollaboratorUnavailable or the context error.
	Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error)
}

// ChunkService exposes the chunker for ad-hoc text.
type ChunkService interface {
	// ChunkText splits text into section-aware chunks.
	ChunkText(ctx context.Context, text string) ([]domain.Chunk, error)

	// ChunkDocument splits a document's text and tags chunks with its ID.
	ChunkDocument(ctx context.Context, doc domain.Document) ([]domain.Chunk, error)
}

// ContextBuilder renders a retrieval result for an answering model.
type ContextBuilder interface {
	// Build returns a prompt that grounds the question in the result's
	// chunks or documents, or a no-context prompt if there are none.
	Build(question string, result *domain.RetrievalResult) (string, error)
}
