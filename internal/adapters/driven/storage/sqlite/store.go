package sqlite

import (
	"container/heap"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService
}

// NewStore opens (or creates) the vector database in dataDir.
// If dataDir is empty, defaults to ~/.sercha-rag/data.
func NewStore(dataDir string, embedder driven.EmbeddingService) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-rag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath, embedder: embedder}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Search embeds the query and returns the topK most similar documents
// produced by the current embedding model.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]domain.VectorMatch, error) {
	if topK <= 0 {
		return nil, nil
	}
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, authors, summary, url, published, text, embedding
		FROM documents
		WHERE model = ? AND dimensions = ?
	`, s.embedder.ModelName(), s.embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	best := &matchHeap{}
	for rows.Next() {
		m, vec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		m.Score = vectors.Cosine(qvec, vec)

		if best.Len() < topK {
			heap.Push(best, m)
		} else if m.Score > (*best)[0].Score {
			(*best)[0] = m
			heap.Fix(best, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	matches := []domain.VectorMatch(*best)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// Upsert embeds and stores documents, replacing any with the same ID.
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, title, authors, summary, url, published, text, model, dimensions, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			authors = excluded.authors,
			summary = excluded.summary,
			url = excluded.url,
			published = excluded.published,
			text = excluded.text,
			model = excluded.model,
			dimensions = excluded.dimensions,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, d := range docs {
		var published string
		if !d.Published.IsZero() {
			published = d.Published.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.Title, strings.Join(d.Authors, ", "), d.Summary, d.URL, published, d.Text,
			s.embedder.ModelName(), len(vecs[i]), vectors.Encode(vecs[i]), now,
		); err != nil {
			return fmt.Errorf("saving document %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing documents: %w", err)
	}
	logger.Debug("sqlite: stored %d documents", len(docs))
	return nil
}

// Count returns the number of stored documents across all models.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// migrate runs all pending migrations and records their versions.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_documents.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// scanMatch reads one documents row into a match and its stored vector.
func scanMatch(rows *sql.Rows) (domain.VectorMatch, []float32, error) {
	var (
		id, title, authors, summary, url, published, text string
		blob                                              []byte
	)
	if err := rows.Scan(&id, &title, &authors, &summary, &url, &published, &text, &blob); err != nil {
		return domain.VectorMatch{}, nil, fmt.Errorf("scanning document: %w", err)
	}

	vec, err := vectors.Decode(blob)
	if err != nil {
		return domain.VectorMatch{}, nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
	}

	md := map[string]any{
		domain.MetadataTitle:   title,
		domain.MetadataAuthors: authors,
		domain.MetadataSummary: summary,
		domain.MetadataURL:     url,
	}
	if published != "" {
		md[domain.MetadataPublished] = published
	}
	return domain.VectorMatch{ID: id, Metadata: md, Text: text}, vec, nil
}

// matchHeap is a min-heap on score, used to keep the best topK matches.
type matchHeap []domain.VectorMatch

func (h matchHeap) Len() int           { return len(h) }
func (h matchHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h matchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) { *h = append(*h, x.(domain.VectorMatch)) }

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
