package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type vectorEntry struct {
	doc    domain.Document
	vector []float32
}

// VectorStore is an in-memory implementation of driven.VectorStore using
// brute-force cosine similarity. Contents are lost when the process exits.
type VectorStore struct {
	mu       sync.RWMutex
	embedder driven.EmbeddingService
	entries  map[string]vectorEntry
	order    []string
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore(embedder driven.EmbeddingService) *VectorStore {
	return &VectorStore{
		embedder: embedder,
		entries:  make(map[string]vectorEntry),
	}
}

// Search embeds the query and returns the topK most similar documents.
func (s *VectorStore) Search(ctx context.Context, query string, topK int) ([]domain.VectorMatch, error) {
	if topK <= 0 {
		return nil, nil
	}
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	matches := make([]domain.VectorMatch, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		matches = append(matches, domain.VectorMatch{
			ID:       id,
			Score:    vectors.Cosine(qvec, e.vector),
			Metadata: domain.MetadataFor(e.doc),
			Text:     e.doc.Text,
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Upsert embeds and stores documents, replacing any with the same ID.
func (s *VectorStore) Upsert(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	inputs := make([]string, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("%w: document without ID", domain.ErrInvalidInput)
		}
		inputs[i] = vectors.EmbedInput(d)
	}

	vecs, err := s.embedder.EmbedBatch(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if err := vectors.CheckDimensions(vecs, s.embedder.Dimensions()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range docs {
		if _, exists := s.entries[d.ID]; !exists {
			s.order = append(s.order, d.ID)
		}
		d.Score = 0
		s.entries[d.ID] = vectorEntry{doc: d, vector: vecs[i]}
	}
	return nil
}

// Count returns the number of stored documents.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}
