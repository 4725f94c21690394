package domain

// Metadata keys stored alongside each vector.
const (
	MetadataTitle     = "title"
	MetadataAuthors   = "authors"
	MetadataSummary   = "summary"
	MetadataURL       = "url"
	MetadataPublished = "published"
)

// VectorMatch is one hit returned by a vector store similarity search.
type VectorMatch struct {
	// ID is the stored document identifier.
	ID string

	// Score is the similarity to the query, higher is better.
	Score float64

	// Metadata holds the stored document fields keyed by the Metadata* constants.
	Metadata map[string]any

	// Text is the stored raw text, if the backend keeps it.
	Text string
}

// QualityMetrics summarises the score distribution of a set of matches.
type QualityMetrics struct {
	// AvgScore is the arithmetic mean of match scores.
	AvgScore float64

	// MaxScore is the highest match score.
	MaxScore float64

	// ResultCount is the number of matches considered.
	ResultCount int

	// ThresholdMet reports whether MaxScore reached the configured threshold.
	ThresholdMet bool
}

// QualityAssessment is the quality gate's verdict on cached matches.
type QualityAssessment struct {
	// Sufficient is true only if every quality criterion passed.
	Sufficient bool

	// Reason is a human-readable explanation of the verdict.
	Reason string

	// Metrics is nil when there were no matches to measure.
	Metrics *QualityMetrics
}

// ReasonNoResults is the assessment reason when a search returned nothing.
const ReasonNoResults = "No results found"

// Outcome describes which branch of the retrieval pipeline produced a result.
type Outcome string

// Retrieval outcomes.
const (
	// OutcomeCached means the cached matches were good enough and were used.
	OutcomeCached Outcome = "cached"

	// OutcomeFetched means fresh documents were fetched, ingested and chunked.
	OutcomeFetched Outcome = "fetched"

	// OutcomeStaleFallback means fetching failed for every document and the
	// original low-quality matches were returned instead.
	OutcomeStaleFallback Outcome = "stale_fallback"

	// OutcomeNoContext means nothing usable was found. Callers should answer
	// without retrieved context.
	OutcomeNoContext Outcome = "no_context"
)

// String returns the string representation.
func (o Outcome) String() string {
	return string(o)
}

// HasContext returns true if the outcome carries context for generation.
func (o Outcome) HasContext() bool {
	return o != OutcomeNoContext && o != ""
}

// RetrievalResult is everything one retrieval run produced.
type RetrievalResult struct {
	// Query is the trimmed query text.
	Query string

	// Outcome is the pipeline branch that produced this result.
	Outcome Outcome

	// Assessment is the quality gate's verdict on the cached matches.
	Assessment QualityAssessment

	// Documents are the documents backing the result. For the cached path
	// these are the vector store hits; for the fetch path, the ingested papers.
	Documents []Document

	// Chunks are the selected chunks in descending score order.
	Chunks []ScoredChunk

	// DroppedMatches counts vector hits discarded for malformed metadata.
	DroppedMatches int

	// FailedDocuments lists IDs of documents whose fetch or extraction failed.
	FailedDocuments []string

	// UnchunkedDocuments lists IDs of fetched or cached documents the
	// chunking pipeline rejected.
	UnchunkedDocuments []string
}
