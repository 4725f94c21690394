package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentFromMatch_RoundTrip(t *testing.T) {
	published := time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC)
	doc := Document{
		ID:        "1706.03762v7",
		Title:     "Attention Is All You Need",
		Authors:   []string{"Ashish Vaswani", "Noam Shazeer"},
		Summary:   "The dominant sequence transduction models...",
		URL:       "https://arxiv.org/pdf/1706.03762v7.pdf",
		Published: published,
	}

	got, err := DocumentFromMatch(VectorMatch{
		ID:       doc.ID,
		Score:    0.91,
		Metadata: MetadataFor(doc),
		Text:     "Abstract\nbody",
	})
	require.NoError(t, err)

	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Authors, got.Authors)
	assert.Equal(t, doc.Summary, got.Summary)
	assert.Equal(t, doc.URL, got.URL)
	assert.True(t, published.Equal(got.Published))
	assert.Equal(t, "Abstract\nbody", got.Text)
	assert.InDelta(t, 0.91, got.Score, 1e-9)
}

// TestDocumentFromMatch_Malformed tests required metadata fields
func TestDocumentFromMatch_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		match VectorMatch
		field string
	}{
		{
			name:  "missing id",
			match: VectorMatch{Metadata: map[string]any{MetadataTitle: "T", MetadataURL: "u"}},
			field: "id",
		},
		{
			name:  "missing title",
			match: VectorMatch{ID: "a", Metadata: map[string]any{MetadataURL: "u"}},
			field: MetadataTitle,
		},
		{
			name:  "blank url",
			match: VectorMatch{ID: "a", Metadata: map[string]any{MetadataTitle: "T", MetadataURL: "  "}},
			field: MetadataURL,
		},
		{
			name:  "title of wrong type",
			match: VectorMatch{ID: "a", Metadata: map[string]any{MetadataTitle: 42, MetadataURL: "u"}},
			field: MetadataTitle,
		},
		{
			name:  "nil metadata",
			match: VectorMatch{ID: "a"},
			field: MetadataTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DocumentFromMatch(tt.match)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedMetadata)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDocumentFromMatch_AuthorShapes(t *testing.T) {
	base := map[string]any{MetadataTitle: "T", MetadataURL: "u"}

	for name, authors := range map[string]any{
		"string slice": []string{"A. One", " B. Two "},
		"any slice":    []any{"A. One", "B. Two", 3},
		"joined":       "A. One, B. Two,",
	} {
		t.Run(name, func(t *testing.T) {
			md := map[string]any{MetadataAuthors: authors}
			for k, v := range base {
				md[k] = v
			}
			doc, err := DocumentFromMatch(VectorMatch{ID: "x", Metadata: md})
			require.NoError(t, err)
			assert.Equal(t, []string{"A. One", "B. Two"}, doc.Authors)
		})
	}
}

func TestMetadataFor_OmitsZeroPublished(t *testing.T) {
	md := MetadataFor(Document{Title: "T", URL: "u"})
	_, ok := md[MetadataPublished]
	assert.False(t, ok)
}
