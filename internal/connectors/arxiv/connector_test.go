package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2401.01234v2</id>
    <published>2024-01-03T18:00:00Z</published>
    <title>Retrieval Augmented
      Generation for Physics</title>
    <summary>  We study retrieval.
    It works.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2401.01234v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.01234v2" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/hep-th/9901001v1</id>
    <published>not-a-date</published>
    <title>Strings</title>
    <summary>Old style.</summary>
    <author><name>Ed Witten</name></author>
  </entry>
</feed>`

type mockExtractor struct {
	text string
	err  error
	got  []byte
}

func (m *mockExtractor) Extract(_ context.Context, data []byte) (string, error) {
	m.got = data
	return m.text, m.err
}

func (m *mockExtractor) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

func testSource(t *testing.T, handler http.HandlerFunc, ext *mockExtractor) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Config{
		BaseURL:           server.URL + "/api/query",
		PDFBaseURL:        server.URL + "/pdf",
		RequestsPerSecond: -1,
		Timeout:           5 * time.Second,
		MaxRetries:        2,
	}, ext)
}

// ==================== Search Tests ====================

func TestSource_Name(t *testing.T) {
	assert.Equal(t, "arxiv", New(Config{}, nil).Name())
}

func TestSource_Search_ParsesFeed(t *testing.T) {
	var gotQuery map[string][]string
	src := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/query", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(sampleFeed))
	}, nil)

	docs, err := src.Search(context.Background(), "retrieval augmented generation", 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, []string{"retrieval augmented generation"}, gotQuery["search_query"])
	assert.Equal(t, []string{"0"}, gotQuery["start"])
	assert.Equal(t, []string{"5"}, gotQuery["max_results"])
	assert.Equal(t, []string{"relevance"}, gotQuery["sortBy"])
	assert.Equal(t, []string{"descending"}, gotQuery["sortOrder"])

	first := docs[0]
	assert.Equal(t, "2401.01234v2", first.ID)
	assert.Equal(t, "Retrieval Augmented Generation for Physics", first.Title)
	assert.Equal(t, "We study retrieval. It works.", first.Summary)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, first.Authors)
	assert.Equal(t, src.cfg.PDFBaseURL+"/2401.01234v2.pdf", first.URL)
	assert.Equal(t, time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC), first.Published.UTC())
	assert.Empty(t, first.Text)

	second := docs[1]
	assert.Equal(t, "hep-th/9901001v1", second.ID)
	assert.True(t, second.Published.IsZero())
}

func TestSource_Search_TruncatesToMaxResults(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}, nil)

	docs, err := src.Search(context.Background(), "anything", 1)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSource_Search_EmptyQuery(t *testing.T) {
	src := New(Config{}, nil)

	_, err := src.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSource_Search_ZeroMaxResults(t *testing.T) {
	var calls atomic.Int32
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}, nil)

	docs, err := src.Search(context.Background(), "query", 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Zero(t, calls.Load())
}

func TestSource_Search_ErrorEntrySkipped(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom">
<entry><id>http://arxiv.org/api/errors#incorrect_id_format</id><title>Error</title>
<summary>incorrect id format</summary></entry></feed>`))
	}, nil)

	docs, err := src.Search(context.Background(), "id:bad", 3)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSource_Search_MalformedXML(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<feed"))
	}, nil)

	_, err := src.Search(context.Background(), "query", 3)
	assert.Error(t, err)
}

func TestSource_Search_ServerError(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, nil)

	_, err := src.Search(context.Background(), "query", 3)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestSource_Search_RetriesThrottled(t *testing.T) {
	var calls atomic.Int32
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set(HeaderRetryAfter, "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(sampleFeed))
	}, nil)

	docs, err := src.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSource_Search_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set(HeaderRetryAfter, "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := src.Search(context.Background(), "query", 5)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSource_Search_RetriesByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set(HeaderRetryAfter, "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(server.Close)

	src := New(Config{BaseURL: server.URL, RequestsPerSecond: -1}, nil)
	assert.Equal(t, DefaultMaxRetries, src.cfg.MaxRetries)

	docs, err := src.Search(context.Background(), "attention", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, docs)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSource_Search_NegativeMaxRetriesDisablesRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set(HeaderRetryAfter, "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	src := New(Config{BaseURL: server.URL, RequestsPerSecond: -1, MaxRetries: -1}, nil)

	_, err := src.Search(context.Background(), "attention", 3)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

// ==================== Fetch Tests ====================

func TestSource_Fetch_Success(t *testing.T) {
	ext := &mockExtractor{text: "1. Introduction\nBody text"}
	src := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pdf/2401.01234v2.pdf", r.URL.Path)
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}, ext)

	doc := domain.Document{ID: "2401.01234v2", Title: "Paper"}
	got, err := src.Fetch(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "1. Introduction\nBody text", got.Text)
	assert.Equal(t, "Paper", got.Title)
	assert.Equal(t, []byte("%PDF-1.4 fake"), ext.got)
	assert.Empty(t, doc.Text, "input document is not modified")
}

func TestSource_Fetch_UsesDocumentURL(t *testing.T) {
	ext := &mockExtractor{text: "text"}
	var gotPath string
	src := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("pdf"))
	}, ext)

	_, err := src.Fetch(context.Background(), domain.Document{
		ID:  "x",
		URL: src.cfg.PDFBaseURL + "/custom.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "/pdf/custom.pdf", gotPath)
}

func TestSource_Fetch_NotFound(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}, &mockExtractor{text: "unused"})

	_, err := src.Fetch(context.Background(), domain.Document{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSource_Fetch_NoIdentity(t *testing.T) {
	src := New(Config{}, &mockExtractor{})

	_, err := src.Fetch(context.Background(), domain.Document{})
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestSource_Fetch_ExtractError(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not a pdf"))
	}, &mockExtractor{err: errors.New("bad pdf")})

	_, err := src.Fetch(context.Background(), domain.Document{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrExtractFailed)
	assert.NotErrorIs(t, err, domain.ErrFetchFailed)
}

func TestSource_Fetch_EmptyText(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pdf"))
	}, &mockExtractor{text: "  \n "})

	_, err := src.Fetch(context.Background(), domain.Document{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrExtractFailed)
}

func TestSource_Fetch_NoExtractor(t *testing.T) {
	src := New(Config{}, nil)

	_, err := src.Fetch(context.Background(), domain.Document{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrExtractFailed)
}

func TestSource_Fetch_ContextCancelled(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pdf"))
	}, &mockExtractor{text: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Fetch(ctx, domain.Document{ID: "a"})
	assert.ErrorIs(t, err, context.Canceled)
}
