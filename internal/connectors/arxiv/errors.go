package arxiv

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success HTTP response from arXiv.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("arxiv: HTTP %d (URL: %s)", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("arxiv: HTTP %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound reports whether err is a 404 from arXiv.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRetryable reports whether the status code is worth retrying.
func IsRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}
