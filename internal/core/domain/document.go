package domain

import "time"

// Document represents a source paper known to the retrieval pipeline.
// Metadata comes from the document source or the vector store; Text is only
// populated once the full content has been fetched and extracted.
type Document struct {
	// ID is the source-assigned identifier (for arXiv, e.g. "2401.01234v1").
	ID string

	// Title is the human-readable title.
	Title string

	// Authors lists the author names in source order.
	Authors []string

	// Summary is the abstract or short description.
	Summary string

	// URL is where the full content can be downloaded from.
	URL string

	// Published is when the source published the document.
	Published time.Time

	// Text is the raw extracted text with line breaks preserved.
	// Header detection depends on line structure, so this is never cleaned.
	Text string

	// Score is the vector similarity of this document to the query,
	// when it came from a vector store search.
	Score float64
}

// HasText returns true if the document's full text is available.
func (d Document) HasText() bool {
	return d.Text != ""
}

// Chunk is a contiguous, non-empty span of a document's text associated
// with the section header that introduced it.
type Chunk struct {
	// ID is a deterministic identifier derived from the document and offsets.
	ID string

	// DocumentID links to the parent Document. Empty for ad-hoc chunking.
	DocumentID string

	// Content is the chunk text. It always equals Text[StartOffset:EndOffset].
	Content string

	// SectionHeader is the header line that introduced the section.
	SectionHeader string

	// SectionLevel is the header depth: 1 for top-level, 2 for sub-sections.
	SectionLevel int

	// StartOffset is the byte offset of Content in the source text.
	StartOffset int

	// EndOffset is the byte offset just past Content in the source text.
	EndOffset int
}

// Length returns the chunk size in bytes.
func (c Chunk) Length() int {
	return len(c.Content)
}

// ScoredChunk is a chunk with the relevance score it earned for one query,
// plus the document fields needed to cite it.
type ScoredChunk struct {
	Chunk

	// DocumentTitle is the parent document's title.
	DocumentTitle string

	// DocumentAuthors is the parent document's author list.
	DocumentAuthors []string

	// Score is the non-negative lexical relevance to the query.
	Score float64
}
