package domain

import (
	"fmt"
	"strings"
	"time"
)

// DocumentFromMatch reconstructs a document from a vector hit. The ID,
// title and URL are required; other fields are best effort.
func DocumentFromMatch(m VectorMatch) (Document, error) {
	title, _ := m.Metadata[MetadataTitle].(string)
	url, _ := m.Metadata[MetadataURL].(string)

	var missing []string
	if m.ID == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(title) == "" {
		missing = append(missing, MetadataTitle)
	}
	if strings.TrimSpace(url) == "" {
		missing = append(missing, MetadataURL)
	}
	if len(missing) > 0 {
		return Document{}, fmt.Errorf("%w: match %q missing %s",
			ErrMalformedMetadata, m.ID, strings.Join(missing, ", "))
	}

	doc := Document{
		ID:      m.ID,
		Title:   title,
		URL:     url,
		Authors: authorsFrom(m.Metadata[MetadataAuthors]),
		Text:    m.Text,
		Score:   m.Score,
	}
	doc.Summary, _ = m.Metadata[MetadataSummary].(string)
	if published, ok := m.Metadata[MetadataPublished].(string); ok {
		if t, err := time.Parse(time.RFC3339, published); err == nil {
			doc.Published = t
		}
	}
	return doc, nil
}

// MetadataFor is the inverse of DocumentFromMatch. Vector stores use it to
// build the metadata they persist alongside each vector.
func MetadataFor(doc Document) map[string]any {
	md := map[string]any{
		MetadataTitle:   doc.Title,
		MetadataAuthors: strings.Join(doc.Authors, ", "),
		MetadataSummary: doc.Summary,
		MetadataURL:     doc.URL,
	}
	if !doc.Published.IsZero() {
		md[MetadataPublished] = doc.Published.UTC().Format(time.RFC3339)
	}
	return md
}

func authorsFrom(v any) []string {
	var raw []string
	switch a := v.(type) {
	case []string:
		raw = a
	case []any:
		for _, item := range a {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(a, ",")
	}

	authors := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			authors = append(authors, r)
		}
	}
	return authors
}
