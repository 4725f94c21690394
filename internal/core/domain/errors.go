package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document does not exist at the source.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not reachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// Retrieval Errors.

	// ErrCollaboratorUnavailable indicates a collaborator the pipeline cannot
	// work without (vector store, document source) failed. Retrieval aborts.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrFetchFailed indicates a single document could not be downloaded.
	ErrFetchFailed = errors.New("document fetch failed")

	// ErrExtractFailed indicates text could not be extracted from a download.
	ErrExtractFailed = errors.New("text extraction failed")

	// ErrMalformedMetadata indicates a vector hit lacks required fields.
	ErrMalformedMetadata = errors.New("malformed metadata")

	// ErrRateLimited indicates the source API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
