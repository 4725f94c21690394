package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// snippetLen bounds chunk previews in table output.
const snippetLen = 160

var (
	queryJSON    bool
	queryContext bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve context for a question",
	Long: `Runs the retrieval pipeline for a question.

The vector store is searched first. If the quality gate accepts the cached
matches they are used as-is; otherwise papers are fetched from arXiv,
ingested, chunked by section and the best sections are selected.

Use --context to print the grounded prompt an answering model would receive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the retrieval result as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "print the grounded prompt instead of a summary")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalFactory == nil {
		return errors.New("retrieval service not configured")
	}
	question := strings.Join(args, " ")

	ctx := cmd.Context()
	svc, cleanup, err := retrievalFactory(ctx)
	if err != nil {
		return fmt.Errorf("failed to start retrieval: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	result, err := svc.Retrieve(ctx, question)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	switch {
	case queryJSON:
		return outputQueryJSON(cmd, result)
	case queryContext:
		if contextBuilder == nil {
			return errors.New("context builder not configured")
		}
		prompt, err := contextBuilder.Build(question, result)
		if err != nil {
			return fmt.Errorf("failed to build context: %w", err)
		}
		cmd.Println(prompt)
		return nil
	default:
		outputQueryText(cmd, result)
		return nil
	}
}

type queryOutput struct {
	Query              string         `json:"query"`
	Outcome            string         `json:"outcome"`
	Sufficient         bool           `json:"sufficient"`
	Reason             string         `json:"reason"`
	MaxScore           *float64       `json:"max_score,omitempty"`
	AvgScore           *float64       `json:"avg_score,omitempty"`
	Documents          []documentJSON `json:"documents"`
	Chunks             []chunkJSON    `json:"chunks"`
	DroppedMatches     int            `json:"dropped_matches,omitempty"`
	FailedDocuments    []string       `json:"failed_documents,omitempty"`
	UnchunkedDocuments []string       `json:"unchunked_documents,omitempty"`
}

type documentJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
	URL       string   `json:"url,omitempty"`
	Published string   `json:"published,omitempty"`
	Score     float64  `json:"score,omitempty"`
}

type chunkJSON struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	SectionHeader string  `json:"section_header"`
	SectionLevel  int     `json:"section_level"`
	Score         float64 `json:"score"`
	Content       string  `json:"content"`
}

func toQueryOutput(r *domain.RetrievalResult) queryOutput {
	out := queryOutput{
		Query:              r.Query,
		Outcome:            r.Outcome.String(),
		Sufficient:         r.Assessment.Sufficient,
		Reason:             r.Assessment.Reason,
		Documents:          make([]documentJSON, 0, len(r.Documents)),
		Chunks:             make([]chunkJSON, 0, len(r.Chunks)),
		DroppedMatches:     r.DroppedMatches,
		FailedDocuments:    r.FailedDocuments,
		UnchunkedDocuments: r.UnchunkedDocuments,
	}
	if m := r.Assessment.Metrics; m != nil {
		out.MaxScore = &m.MaxScore
		out.AvgScore = &m.AvgScore
	}

	for i := range r.Documents {
		d := &r.Documents[i]
		doc := documentJSON{ID: d.ID, Title: d.Title, Authors: d.Authors, URL: d.URL, Score: d.Score}
		if !d.Published.IsZero() {
			doc.Published = d.Published.Format("2006-01-02")
		}
		out.Documents = append(out.Documents, doc)
	}
	for i := range r.Chunks {
		c := &r.Chunks[i]
		out.Chunks = append(out.Chunks, chunkJSON{
			DocumentID:    c.DocumentID,
			DocumentTitle: c.DocumentTitle,
			SectionHeader: c.SectionHeader,
			SectionLevel:  c.SectionLevel,
			Score:         c.Score,
			Content:       c.Content,
		})
	}
	return out
}

func outputQueryJSON(cmd *cobra.Command, result *domain.RetrievalResult) error {
	data, err := json.MarshalIndent(toQueryOutput(result), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, r *domain.RetrievalResult) {
	cmd.Printf("Outcome: %s\n", r.Outcome)
	cmd.Printf("Gate: %s\n", r.Assessment.Reason)
	if len(r.FailedDocuments) > 0 {
		cmd.Printf("Failed downloads: %s\n", strings.Join(r.FailedDocuments, ", "))
	}
	if len(r.UnchunkedDocuments) > 0 {
		cmd.Printf("Not chunked: %s\n", strings.Join(r.UnchunkedDocuments, ", "))
	}
	cmd.Println()

	if !r.Outcome.HasContext() {
		cmd.Println("No usable context found.")
		return
	}

	if len(r.Chunks) > 0 {
		cmd.Println("Sections:")
		cmd.Println()
		for i := range r.Chunks {
			c := &r.Chunks[i]
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, c.SectionHeader, c.Score)
			cmd.Printf("      %s\n", c.DocumentTitle)
			cmd.Printf("      %s\n", snippet(c.Content, snippetLen))
			cmd.Println()
		}
		return
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range r.Documents {
		d := &r.Documents[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, d.Title, d.Score)
		if d.URL != "" {
			cmd.Printf("      %s\n", d.URL)
		}
		cmd.Println()
	}
}

// snippet flattens whitespace and truncates to at most n bytes on a rune boundary.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
