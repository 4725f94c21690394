// Package domain defines the core business entities for Sercha RAG.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source paper with its metadata and raw text
//   - Chunk: A contiguous section of a document's text
//   - ScoredChunk: A chunk annotated with query relevance
//   - QualityAssessment: The gate's verdict on cached retrieval results
//   - RetrievalResult: Everything a single retrieval produced
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
