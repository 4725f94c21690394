package arxiv

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// defaultBackoff is used when a throttled response carries no Retry-After.
const defaultBackoff = 5 * time.Second

// RateLimiter combines proactive throttling with the server's Retry-After hints.
type RateLimiter struct {
	mu         sync.Mutex
	bucket     *rate.Limiter
	pauseUntil time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second.
// A non-positive rps disables the proactive throttle.
func NewRateLimiter(rps float64) *RateLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, 1)}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	pause := time.Until(r.pauseUntil)
	r.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.bucket.Wait(ctx)
}

// Backoff pauses all requests after a throttled response. It returns the
// pause duration.
func (r *RateLimiter) Backoff(resp *http.Response) time.Duration {
	pause := defaultBackoff
	if resp != nil {
		if s := resp.Header.Get(HeaderRetryAfter); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
				pause = time.Duration(secs) * time.Second
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(pause); until.After(r.pauseUntil) {
		r.pauseUntil = until
	}
	return pause
}
