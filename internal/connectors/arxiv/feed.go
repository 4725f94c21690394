package arxiv

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// feed is the subset of the arXiv Atom response we read.
type feed struct {
	XMLName xml.Name `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []entry  `xml:"http://www.w3.org/2005/Atom entry"`
}

type entry struct {
	ID        string   `xml:"http://www.w3.org/2005/Atom id"`
	Title     string   `xml:"http://www.w3.org/2005/Atom title"`
	Summary   string   `xml:"http://www.w3.org/2005/Atom summary"`
	Published string   `xml:"http://www.w3.org/2005/Atom published"`
	Authors   []author `xml:"http://www.w3.org/2005/Atom author"`
}

type author struct {
	Name string `xml:"http://www.w3.org/2005/Atom name"`
}

// parseFeed decodes an Atom response into documents. Entries without an ID
// or title are skipped; arXiv returns such an entry to report query errors.
func parseFeed(data []byte, pdfBaseURL string) ([]domain.Document, error) {
	var f feed
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("arxiv: decode feed: %w", err)
	}

	docs := make([]domain.Document, 0, len(f.Entries))
	for _, e := range f.Entries {
		id := paperID(e.ID)
		title := collapseSpace(e.Title)
		if id == "" || title == "" || strings.EqualFold(title, "Error") {
			continue
		}

		doc := domain.Document{
			ID:      id,
			Title:   title,
			Summary: collapseSpace(e.Summary),
			URL:     pdfURL(pdfBaseURL, id),
		}
		for _, a := range e.Authors {
			if name := collapseSpace(a.Name); name != "" {
				doc.Authors = append(doc.Authors, name)
			}
		}
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
			doc.Published = t
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// paperID extracts "2401.01234v1" from "http://arxiv.org/abs/2401.01234v1".
// Old-style IDs such as "hep-th/9901001v1" keep their archive prefix.
func paperID(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "/abs/"); i >= 0 {
		return raw[i+len("/abs/"):]
	}
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

// pdfURL builds "<base>/<id>.pdf".
func pdfURL(pdfBaseURL, id string) string {
	return strings.TrimRight(pdfBaseURL, "/") + "/" + id + ".pdf"
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
