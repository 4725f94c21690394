// Package sqlite provides a SQLite-backed implementation of driven.VectorStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Embeddings are stored as little-endian float32 BLOBs next
// to the document metadata and searched by a brute-force cosine scan, which
// is fast enough for the few thousand papers a local cache holds.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-rag/data/vectors.db
//
// # Models
//
// Each row records the embedding model and dimensions it was built with.
// Searches only consider rows produced by the current embedder, so switching
// models never compares incompatible vectors.
package sqlite
