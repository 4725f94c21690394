package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure ContextBuilder implements the interface.
var _ driving.ContextBuilder = (*ContextBuilder)(nil)

// charsPerToken is the rough ratio used to estimate prompt size.
const charsPerToken = 4

// ContextBuilder renders retrieval results into prompts using templates
// from a PromptStore.
type ContextBuilder struct {
	prompts  driven.PromptStore
	maxChars int
}

// NewContextBuilder creates a context builder. A non-positive maxChars
// disables the size limit.
func NewContextBuilder(prompts driven.PromptStore, settings domain.ContextSettings) *ContextBuilder {
	return &ContextBuilder{prompts: prompts, maxChars: settings.MaxChars}
}

// Build renders the question with the result's chunks. Without chunks it
// falls back to document summaries, and without either it uses the
// no-context template.
func (b *ContextBuilder) Build(question string, result *domain.RetrievalResult) (string, error) {
	var blocks []string
	if result != nil && result.Outcome.HasContext() {
		if len(result.Chunks) > 0 {
			blocks = chunkBlocks(result.Chunks)
		} else {
			blocks = documentBlocks(result.Documents)
		}
	}

	if len(blocks) == 0 {
		tmpl, err := b.prompts.Load(driven.PromptNoContext)
		if err != nil {
			return "", fmt.Errorf("load no-context prompt: %w", err)
		}
		return b.report(fmt.Sprintf(tmpl, question)), nil
	}

	tmpl, err := b.prompts.Load(driven.PromptGroundedContext)
	if err != nil {
		return "", fmt.Errorf("load grounded prompt: %w", err)
	}
	return b.report(fmt.Sprintf(tmpl, b.fit(blocks), question)), nil
}

func (b *ContextBuilder) report(prompt string) string {
	logger.Info("context prompt: %d chars, ~%d tokens", len(prompt), EstimateTokens(prompt))
	return prompt
}

// fit joins blocks in order until the next one would exceed the limit.
// The first block is always included, truncated if it alone is too big.
func (b *ContextBuilder) fit(blocks []string) string {
	const sep = "\n\n"
	if b.maxChars <= 0 {
		return strings.Join(blocks, sep)
	}

	var sb strings.Builder
	for i, block := range blocks {
		if i == 0 {
			sb.WriteString(truncate(block, b.maxChars))
			continue
		}
		if sb.Len()+len(sep)+len(block) > b.maxChars {
			break
		}
		sb.WriteString(sep)
		sb.WriteString(block)
	}
	return sb.String()
}

func chunkBlocks(chunks []domain.ScoredChunk) []string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%d] %s", i+1, citation(c.DocumentTitle, c.DocumentAuthors))
		if c.SectionHeader != "" {
			fmt.Fprintf(&sb, "\nSection: %s", c.SectionHeader)
		}
		sb.WriteString("\n")
		sb.WriteString(c.Content)
		blocks[i] = sb.String()
	}
	return blocks
}

func documentBlocks(docs []domain.Document) []string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%d] %s", len(blocks)+1, citation(d.Title, d.Authors))
		if d.URL != "" {
			fmt.Fprintf(&sb, "\n%s", d.URL)
		}
		if d.Summary != "" {
			sb.WriteString("\n")
			sb.WriteString(d.Summary)
		}
		blocks = append(blocks, sb.String())
	}
	return blocks
}

func citation(title string, authors []string) string {
	if title == "" {
		title = "Untitled"
	}
	if len(authors) == 0 {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, strings.Join(authors, ", "))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}
