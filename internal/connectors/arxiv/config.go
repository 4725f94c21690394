package arxiv

import "time"

// Default configuration values.
const (
	DefaultBaseURL           = "http://export.arxiv.org/api/query"
	DefaultPDFBaseURL        = "https://arxiv.org/pdf"
	DefaultRequestsPerSecond = 1.0 / 3.0
	DefaultTimeout           = 60 * time.Second
	DefaultMaxRetries        = 3
	DefaultUserAgent         = "sercha-rag (+https://github.com/custodia-labs/sercha-rag)"

	// MaxPDFSize caps a single download.
	MaxPDFSize = 50 << 20
)

// Config holds configuration for the arXiv source.
type Config struct {
	// BaseURL is the Atom query endpoint.
	BaseURL string

	// PDFBaseURL is the prefix for PDF downloads; "<PDFBaseURL>/<id>.pdf".
	PDFBaseURL string

	// RequestsPerSecond throttles all requests. Zero uses the default;
	// negative disables throttling.
	RequestsPerSecond float64

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MaxRetries is how often a 429 or 503 response is retried. Zero uses
	// the default; negative disables retries.
	MaxRetries int

	// UserAgent identifies the client to arXiv.
	UserAgent string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PDFBaseURL == "" {
		c.PDFBaseURL = DefaultPDFBaseURL
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}
