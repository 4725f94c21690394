package services

import (
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DiverseSelector reduces a scored chunk list to a budget while spreading
// the picks across documents.
type DiverseSelector struct{}

// NewDiverseSelector creates a selector.
func NewDiverseSelector() *DiverseSelector {
	return &DiverseSelector{}
}

// Select returns at most k chunks in descending score order. It first takes
// the best chunk of each document, then fills the remaining slots with the
// best chunks not yet taken.
func (s *DiverseSelector) Select(chunks []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if k <= 0 || len(chunks) == 0 {
		return nil
	}

	ranked := make([]domain.ScoredChunk, len(chunks))
	copy(ranked, chunks)
	sortByScore(ranked)

	if len(ranked) <= k {
		return ranked
	}

	selected := make([]domain.ScoredChunk, 0, k)
	taken := make([]bool, len(ranked))
	seenDocs := make(map[string]struct{})

	for i, c := range ranked {
		if len(selected) == k {
			break
		}
		if _, seen := seenDocs[c.DocumentID]; seen {
			continue
		}
		seenDocs[c.DocumentID] = struct{}{}
		selected = append(selected, c)
		taken[i] = true
	}

	for i, c := range ranked {
		if len(selected) == k {
			break
		}
		if !taken[i] {
			selected = append(selected, c)
		}
	}

	sortByScore(selected)
	return selected
}

// sortByScore orders chunks by descending score. Ties keep input order.
func sortByScore(chunks []domain.ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
}
