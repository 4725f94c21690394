package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentSource finds candidate documents for a query and downloads
// their full text.
type DocumentSource interface {
	// Name returns the source name for logging.
	Name() string

	// Search returns up to maxResults documents matching the query.
	// Returned documents carry metadata only; Text is empty.
	Search(ctx context.Context, query string, maxResults int) ([]domain.Document, error)

	// Fetch downloads the document's content and returns a copy with Text set.
	// Errors wrap domain.ErrFetchFailed or domain.ErrExtractFailed.
	Fetch(ctx context.Context, doc domain.Document) (domain.Document, error)
}

// TextExtractor turns downloaded bytes into raw text.
// Line breaks must be preserved so that section headers remain detectable.
type TextExtractor interface {
	// Extract returns the text content of data.
	Extract(ctx context.Context, data []byte) (string, error)

	// SupportedMIMETypes returns the content types this extractor handles.
	SupportedMIMETypes() []string
}
