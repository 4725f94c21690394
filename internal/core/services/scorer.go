package services

import (
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// RelevanceScorer ranks chunks against a query by lexical overlap.
// It is a cheap heuristic over chunks already known to belong to relevant
// documents; semantic matching happens earlier in the vector store.
type RelevanceScorer struct {
	weights domain.ScorerSettings
}

// NewRelevanceScorer creates a scorer with the given weights.
func NewRelevanceScorer(weights domain.ScorerSettings) *RelevanceScorer {
	return &RelevanceScorer{weights: weights}
}

// Score annotates each chunk with its relevance to query. Output order
// matches input order; sorting is the caller's job.
func (s *RelevanceScorer) Score(query string, chunks []domain.ScoredChunk) []domain.ScoredChunk {
	terms := termSet(query)
	scored := make([]domain.ScoredChunk, len(chunks))

	for i, c := range chunks {
		c.Score = s.score(terms, c.Chunk)
		scored[i] = c
	}
	return scored
}

func (s *RelevanceScorer) score(terms map[string]struct{}, c domain.Chunk) float64 {
	w := s.weights

	score := float64(overlap(terms, c.SectionHeader)) * w.HeaderWeight
	score += float64(overlap(terms, c.Content)) * w.ContentWeight
	score += float64(max(0, w.LevelCeiling-c.SectionLevel)) * w.LevelWeight

	if c.Length() > w.LongChunkSize {
		score *= w.LongChunkPenalty
	}
	return max(0, score)
}

// termSet lower-cases and whitespace-splits text into a set of words.
func termSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// overlap counts the distinct query terms that appear as words of text.
func overlap(terms map[string]struct{}, text string) int {
	if len(terms) == 0 || text == "" {
		return 0
	}
	found := make(map[string]struct{}, len(terms))
	for _, f := range strings.Fields(strings.ToLower(text)) {
		if _, ok := terms[f]; ok {
			found[f] = struct{}{}
		}
	}
	return len(found)
}
