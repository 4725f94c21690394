package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Verify interface compliance.
var _ driven.DocumentSource = (*Source)(nil)

// Source searches arXiv and downloads paper PDFs.
type Source struct {
	cfg       Config
	client    *http.Client
	limiter   *RateLimiter
	extractor driven.TextExtractor
}

// New creates an arXiv source. The extractor converts downloaded PDFs to text.
func New(cfg Config, extractor driven.TextExtractor) *Source {
	cfg = cfg.withDefaults()
	return &Source{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   NewRateLimiter(cfg.RequestsPerSecond),
		extractor: extractor,
	}
}

// Name returns "arxiv".
func (s *Source) Name() string {
	return "arxiv"
}

// Search returns up to maxResults papers ordered by arXiv relevance.
func (s *Source) Search(ctx context.Context, query string, maxResults int) ([]domain.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("arxiv: empty query: %w", domain.ErrInvalidInput)
	}
	if maxResults <= 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	body, err := s.get(ctx, s.cfg.BaseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("arxiv: search %q: %w", query, err)
	}

	docs, err := parseFeed(body, s.cfg.PDFBaseURL)
	if err != nil {
		return nil, err
	}
	if len(docs) > maxResults {
		docs = docs[:maxResults]
	}

	logger.Debug("arxiv: %d results for %q", len(docs), query)
	return docs, nil
}

// Fetch downloads the paper's PDF and extracts its text.
func (s *Source) Fetch(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if s.extractor == nil {
		return doc, fmt.Errorf("arxiv: no text extractor configured: %w", domain.ErrExtractFailed)
	}

	target := doc.URL
	if target == "" {
		if doc.ID == "" {
			return doc, fmt.Errorf("arxiv: document has neither URL nor ID: %w", domain.ErrFetchFailed)
		}
		target = pdfURL(s.cfg.PDFBaseURL, doc.ID)
	}

	data, err := s.get(ctx, target)
	if IsNotFound(err) {
		return doc, fmt.Errorf("arxiv: download %s: %w: %w", doc.ID, domain.ErrFetchFailed, domain.ErrNotFound)
	}
	if err != nil {
		return doc, fmt.Errorf("arxiv: download %s: %w: %w", doc.ID, domain.ErrFetchFailed, err)
	}

	text, err := s.extractor.Extract(ctx, data)
	if err != nil {
		return doc, fmt.Errorf("arxiv: extract %s: %w: %w", doc.ID, domain.ErrExtractFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return doc, fmt.Errorf("arxiv: extract %s: no text: %w", doc.ID, domain.ErrExtractFailed)
	}

	doc.Text = text
	logger.Debug("arxiv: fetched %s (%d bytes, %d chars of text)", doc.ID, len(data), len(text))
	return doc, nil
}

// get performs a throttled GET, retrying throttled responses.
func (s *Source) get(ctx context.Context, target string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", s.cfg.UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			body, err := readLimited(resp.Body, MaxPDFSize)
			resp.Body.Close()
			return body, err
		}

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			URL:        target,
			Message:    strings.TrimSpace(string(msg)),
		}

		if !IsRetryable(resp.StatusCode) {
			return nil, apiErr
		}
		if attempt >= s.cfg.MaxRetries {
			return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, apiErr)
		}

		pause := s.limiter.Backoff(resp)
		logger.Warn("arxiv: HTTP %d, backing off %s (attempt %d)", resp.StatusCode, pause, attempt+1)
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errors.New("response exceeds size limit")
	}
	return data, nil
}
