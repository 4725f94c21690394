package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService runs the retrieval pipeline:
//
//	QueryVectorStore -> GateDecision -> ReturnCached | FetchAndIngest
//	  -> ChunkAndScore -> Select -> Done
//
// Only collaborator failures abort a run. Per-document fetch failures,
// malformed vector hits and empty chunking are recovered and reported on
// the result.
type RetrievalService struct {
	store    driven.VectorStore
	source   driven.DocumentSource
	pipeline driven.PostProcessorPipeline
	gate     *QualityGate
	scorer   *RelevanceScorer
	selector *DiverseSelector
	cfg      domain.RetrievalSettings
}

// NewRetrievalService creates a retrieval service. Settings are read once
// here and never change for the lifetime of the service.
func NewRetrievalService(
	store driven.VectorStore,
	source driven.DocumentSource,
	pipeline driven.PostProcessorPipeline,
	settings domain.AppSettings,
) *RetrievalService {
	cfg := settings.Retrieval
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 1
	}
	return &RetrievalService{
		store:    store,
		source:   source,
		pipeline: pipeline,
		gate:     NewQualityGate(settings.Gate),
		scorer:   NewRelevanceScorer(settings.Scorer),
		selector: NewDiverseSelector(),
		cfg:      cfg,
	}
}

// Retrieve runs the pipeline for one query.
func (s *RetrievalService) Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	start := time.Now()
	result := &domain.RetrievalResult{Query: query}

	// 1. Query the vector store
	logger.Section("Query Vector Store")
	if logger.IsVerbose() {
		if n, err := s.store.Count(ctx); err == nil {
			logger.Debug("vector store holds %d documents", n)
		}
	}
	matches, err := s.store.Search(ctx, query, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", domain.ErrCollaboratorUnavailable, err)
	}
	cached, dropped := documentsFromMatches(matches)
	result.DroppedMatches = dropped
	logger.Info("%d matches, %d dropped for malformed metadata", len(matches), dropped)

	// 2. Gate decision
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	logger.Section("Gate Decision")
	result.Assessment = s.gate.Assess(matchesFor(cached))
	logger.Info("sufficient=%t reason=%q", result.Assessment.Sufficient, result.Assessment.Reason)

	if result.Assessment.Sufficient {
		if err := s.returnCached(ctx, result, cached, domain.OutcomeCached); err != nil {
			return nil, err
		}
		logger.Debug("retrieval finished in %v (%s)", time.Since(start), result.Outcome)
		return result, nil
	}

	// 3. Fetch and ingest fresh documents
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	logger.Section("Fetch And Ingest")
	fetched, failed, err := s.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	result.FailedDocuments = failed

	if len(fetched) == 0 {
		if len(cached) == 0 {
			logger.Warn("no documents fetched and no cached matches; continuing without context")
			result.Outcome = domain.OutcomeNoContext
			return result, nil
		}
		logger.Warn("no documents fetched; falling back to %d cached matches", len(cached))
		if err := s.returnCached(ctx, result, cached, domain.OutcomeStaleFallback); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := s.store.Upsert(ctx, fetched); err != nil {
		return nil, fmt.Errorf("%w: persist fetched documents: %w", domain.ErrCollaboratorUnavailable, err)
	}
	result.Documents = fetched
	logger.Info("ingested %d documents (%d failed)", len(fetched), len(failed))

	// 4. Chunk and score
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	logger.Section("Chunk And Score")
	scored, err := s.chunkAndScore(ctx, query, fetched, result)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		logger.Warn("chunking produced nothing; continuing without context")
		result.Outcome = domain.OutcomeNoContext
		return result, nil
	}

	// 5. Select
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	logger.Section("Select")
	result.Chunks = s.selector.Select(scored, s.cfg.ChunkBudget)
	result.Outcome = domain.OutcomeFetched
	logger.Info("selected %d of %d chunks", len(result.Chunks), len(scored))
	logger.Debug("retrieval finished in %v (%s)", time.Since(start), result.Outcome)

	return result, nil
}

// returnCached fills result from cached documents. When enabled, cached
// documents with stored text are chunked too so both paths yield chunks.
func (s *RetrievalService) returnCached(
	ctx context.Context,
	result *domain.RetrievalResult,
	cached []domain.Document,
	outcome domain.Outcome,
) error {
	logger.Section("Return Cached")
	result.Outcome = outcome
	result.Documents = cached

	if !s.cfg.ChunkCached {
		return nil
	}

	var withText []domain.Document
	for _, d := range cached {
		if d.HasText() {
			withText = append(withText, d)
		}
	}
	if len(withText) == 0 {
		return nil
	}

	scored, err := s.chunkAndScore(ctx, result.Query, withText, result)
	if err != nil {
		return err
	}
	result.Chunks = s.selector.Select(scored, s.cfg.ChunkBudget)
	logger.Info("selected %d chunks from %d cached documents", len(result.Chunks), len(withText))
	return nil
}

// fetch searches the source and downloads each candidate with bounded
// parallelism. Individual download failures are returned as IDs, not errors.
func (s *RetrievalService) fetch(ctx context.Context, query string) ([]domain.Document, []string, error) {
	candidates, err := s.source.Search(ctx, query, s.cfg.MaxFetch)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, fmt.Errorf("%w: %s search: %w", domain.ErrCollaboratorUnavailable, s.source.Name(), err)
	}
	logger.Info("%s returned %d candidates", s.source.Name(), len(candidates))

	docs := make([]domain.Document, len(candidates))
	ok := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			doc, err := s.source.Fetch(gctx, c)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("fetch %s failed: %v", c.ID, err)
				return nil
			}
			if !doc.HasText() {
				logger.Warn("fetch %s returned no text", c.ID)
				return nil
			}
			docs[i], ok[i] = doc, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var fetched []domain.Document
	var failed []string
	for i, c := range candidates {
		if ok[i] {
			fetched = append(fetched, docs[i])
		} else {
			failed = append(failed, c.ID)
		}
	}
	return fetched, failed, nil
}

// chunkAndScore chunks each document independently, pools the chunks in
// document order and scores them against the query.
func (s *RetrievalService) chunkAndScore(
	ctx context.Context,
	query string,
	docs []domain.Document,
	result *domain.RetrievalResult,
) ([]domain.ScoredChunk, error) {
	perDoc := make([][]domain.ScoredChunk, len(docs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i := range docs {
		doc := docs[i]
		g.Go(func() error {
			chunks, err := s.pipeline.Process(gctx, &doc)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("chunk %s failed: %v", doc.ID, err)
				mu.Lock()
				result.UnchunkedDocuments = append(result.UnchunkedDocuments, doc.ID)
				mu.Unlock()
				return nil
			}

			tagged := make([]domain.ScoredChunk, len(chunks))
			for j, c := range chunks {
				tagged[j] = domain.ScoredChunk{
					Chunk:           c,
					DocumentTitle:   doc.Title,
					DocumentAuthors: doc.Authors,
				}
			}
			perDoc[i] = tagged
			logger.Debug("%s: %d chunks", doc.ID, len(chunks))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pooled []domain.ScoredChunk
	for _, chunks := range perDoc {
		pooled = append(pooled, chunks...)
	}
	return s.scorer.Score(query, pooled), nil
}

// checkpoint reports whether the caller abandoned the run.
func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("retrieval cancelled: %w", err)
	}
	return nil
}

// documentsFromMatches converts vector hits to documents, dropping hits
// whose metadata cannot reconstruct one.
func documentsFromMatches(matches []domain.VectorMatch) ([]domain.Document, int) {
	docs := make([]domain.Document, 0, len(matches))
	dropped := 0
	for _, m := range matches {
		doc, err := domain.DocumentFromMatch(m)
		if err != nil {
			logger.Debug("dropping match: %v", err)
			dropped++
			continue
		}
		docs = append(docs, doc)
	}
	return docs, dropped
}

// matchesFor rebuilds the score list the gate measures.
func matchesFor(docs []domain.Document) []domain.VectorMatch {
	out := make([]domain.VectorMatch, len(docs))
	for i, d := range docs {
		out[i] = domain.VectorMatch{ID: d.ID, Score: d.Score}
	}
	return out
}
