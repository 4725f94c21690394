// Package postgres provides a PostgreSQL implementation of driven.VectorStore
// using the pgvector extension.
//
// Similarity is computed in the database with the cosine distance operator,
// so scores are comparable with the other vector store backends.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a pgvector-backed vector store.
type Store struct {
	pool     *pgxpool.Pool
	embedder driven.EmbeddingService
}

// NewStore connects to dsn and ensures the schema exists for the
// embedder's dimensions.
func NewStore(ctx context.Context, dsn string, embedder driven.EmbeddingService) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres: DSN is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if err := EnsureSchema(ctx, pool, embedder.Dimensions()); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool, embedder: embedder}, nil
}

// maxIndexedDimension is the largest vector pgvector's hnsw index accepts.
const maxIndexedDimension = 2000

// schemaStatements returns the DDL for a store of the given dimension.
// The ANN index is hnsw, which needs no training data and so works on a table
// created empty. Wider embeddings are searched by exact scan.
func schemaStatements(dimension int) []string {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rag_papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			published TIMESTAMPTZ,
			text TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_rag_papers_model ON rag_papers(model)",
	}
	if dimension <= maxIndexedDimension {
		stmts = append(stmts,
			"CREATE INDEX IF NOT EXISTS idx_rag_papers_embedding ON rag_papers USING hnsw (embedding vector_cosine_ops)")
	}
	return stmts
}

// EnsureSchema creates the pgvector extension, table and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return errors.New("postgres: embedding dimension must be positive")
	}
	for _, stmt := range schemaStatements(dimension) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: execute schema statement: %w", err)
		}
	}
	return nil
}

// Search embeds the query and returns the topK nearest papers by cosine
// distance, scored as 1 - distance.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]domain.VectorMatch, error) {
	if topK <= 0 {
		return nil, nil
	}
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, title, authors, summary, url, published, text,
			1 - (embedding <=> $1::vector) AS score
		FROM rag_papers
		WHERE model = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`, pgvector.NewVector(qvec), s.embedder.ModelName(), topK)
	if err != nil {
		return nil, fmt.Errorf("postgres: query similar papers: %w", err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch
	for rows.Next() {
		var (
			m                               domain.VectorMatch
			title, authors, summary, url, t string
			published                       *time.Time
		)
		if err := rows.Scan(&m.ID, &title, &authors, &summary, &url, &published, &t, &m.Score); err != nil {
			return nil, fmt.Errorf("postgres: scan paper: %w", err)
		}
		m.Metadata = metadata(title, authors, summary, url, published)
		m.Text = t
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate papers: %w", err)
	}
	return matches, nil
}

// Upsert embeds and stores papers in one batch, replacing any with the same ID.
func (s *Store) Upsert(ctx context.Context, docs []domain.Document) error {
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

	batch := &pgx.Batch{}
	for i, d := range docs {
		batch.Queue(`
			INSERT INTO rag_papers (id, title, authors, summary, url, published, text, model, embedding, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				authors = EXCLUDED.authors,
				summary = EXCLUDED.summary,
				url = EXCLUDED.url,
				published = EXCLUDED.published,
				text = EXCLUDED.text,
				model = EXCLUDED.model,
				embedding = EXCLUDED.embedding,
				updated_at = NOW()
		`, d.ID, d.Title, strings.Join(d.Authors, ", "), d.Summary, d.URL,
			publishedParam(d.Published), d.Text, s.embedder.ModelName(), pgvector.NewVector(vecs[i]))
	}

	results := s.pool.SendBatch(ctx, batch)
	for _, d := range docs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("postgres: save paper %s: %w", d.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("postgres: close batch: %w", err)
	}

	logger.Debug("postgres: stored %d papers", len(docs))
	return nil
}

// Count returns the number of stored papers across all models.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rag_papers").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count papers: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func metadata(title, authors, summary, url string, published *time.Time) map[string]any {
	md := map[string]any{
		domain.MetadataTitle:   title,
		domain.MetadataAuthors: authors,
		domain.MetadataSummary: summary,
		domain.MetadataURL:     url,
	}
	if published != nil && !published.IsZero() {
		md[domain.MetadataPublished] = published.UTC().Format(time.RFC3339)
	}
	return md
}

func publishedParam(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
