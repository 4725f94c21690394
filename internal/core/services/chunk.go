package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure ChunkService implements the interface.
var _ driving.ChunkService = (*ChunkService)(nil)

// ChunkService runs the chunking pipeline outside of retrieval.
type ChunkService struct {
	pipeline driven.PostProcessorPipeline
}

// NewChunkService creates a chunk service over the given pipeline.
func NewChunkService(pipeline driven.PostProcessorPipeline) *ChunkService {
	return &ChunkService{pipeline: pipeline}
}

// ChunkText splits free text. Chunks carry no document ID.
func (s *ChunkService) ChunkText(ctx context.Context, text string) ([]domain.Chunk, error) {
	return s.pipeline.Process(ctx, &domain.Document{Text: text})
}

// ChunkDocument splits a document's text.
func (s *ChunkService) ChunkDocument(ctx context.Context, doc domain.Document) ([]domain.Chunk, error) {
	if !doc.HasText() {
		return nil, fmt.Errorf("%w: document %q has no text", domain.ErrInvalidInput, doc.ID)
	}
	return s.pipeline.Process(ctx, &doc)
}
