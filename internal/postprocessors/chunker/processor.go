// Package chunker provides a structure-aware text chunking processor.
//
// Text is split at detected section headers. Sections larger than the
// maximum size are split again at sentence boundaries, and chunks smaller
// than the minimum size are dropped. Text with no detectable headers is
// chunked at sentence boundaries under a sentinel header.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultMaxSize is the default maximum chunk size in bytes.
const DefaultMaxSize = 2000

// DefaultMinSize is the default minimum chunk size in bytes.
const DefaultMinSize = 100

// boundaryWindow is how far back from a hard cut to look for sentence punctuation.
const boundaryWindow = 100

// Sentinel section headers.
const (
	UnknownSection  = "Unknown Section"
	PreambleSection = "Preamble"
)

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("3f0c2a4e-8b1d-5c6e-9a7f-2d4b6e8c0a1f")

// Processor splits document text into section-aware chunks.
// It implements the PostProcessor interface and is safe for concurrent use.
type Processor struct {
	maxSize      int
	minSize      int
	keepPreamble bool
	rules        []headerRule
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxSize sets the maximum chunk size in bytes.
func WithMaxSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.maxSize = size
		}
	}
}

// WithMinSize sets the minimum chunk size in bytes. Zero keeps everything.
func WithMinSize(size int) Option {
	return func(p *Processor) {
		if size >= 0 {
			p.minSize = size
		}
	}
}

// WithPreamble controls whether text before the first header becomes a chunk.
func WithPreamble(keep bool) Option {
	return func(p *Processor) {
		p.keepPreamble = keep
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxSize:      DefaultMaxSize,
		minSize:      DefaultMinSize,
		keepPreamble: true,
		rules:        defaultRules,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "section_chunker"
}

// Process chunks the document text. Input chunks are ignored; this
// processor creates new chunks from the document.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.chunk(doc.ID, doc.Text), nil
}

// Chunk splits text into ordered chunks. The result is deterministic and
// empty input yields no chunks.
func (p *Processor) Chunk(text string) []domain.Chunk {
	return p.chunk("", text)
}

// Headers returns the section headers detected in text, in text order.
func (p *Processor) Headers(text string) []Header {
	return detectHeaders(p.rules, text)
}

func (p *Processor) chunk(docID, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []domain.Chunk
	headers := detectHeaders(p.rules, text)
	if len(headers) == 0 {
		// Unstructured text is never filtered, so it always yields a chunk.
		chunks = p.split(text, section{header: UnknownSection, level: 1, start: 0, end: len(text)})
	} else {
		for _, s := range p.sections(text, headers) {
			chunks = append(chunks, p.split(text, s)...)
		}
		chunks = p.filter(chunks)
	}

	for i := range chunks {
		chunks[i].DocumentID = docID
		chunks[i].ID = chunkID(docID, chunks[i].StartOffset, chunks[i].EndOffset)
	}
	return chunks
}

// section is a header-delimited span of the source text.
type section struct {
	header     string
	level      int
	start, end int
}

// sections returns the header-delimited spans of text.
func (p *Processor) sections(text string, headers []Header) []section {
	spans := make([]section, 0, len(headers)+1)
	if p.keepPreamble && headers[0].Offset > 0 {
		spans = append(spans, section{header: PreambleSection, level: 1, start: 0, end: headers[0].Offset})
	}
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1].Offset
		}
		spans = append(spans, section{header: h.Text, level: h.Level, start: h.Offset, end: end})
	}
	return spans
}

// split turns one span into chunks no larger than maxSize, preferring to
// cut just after the last sentence punctuation near the limit.
func (p *Processor) split(text string, s section) []domain.Chunk {
	whole, ok := trimmed(text, s.start, s.end)
	if !ok {
		return nil
	}
	if whole.Length() <= p.maxSize {
		whole.SectionHeader, whole.SectionLevel = s.header, s.level
		return []domain.Chunk{whole}
	}

	var chunks []domain.Chunk
	pos, end := whole.StartOffset, whole.EndOffset
	for pos < end {
		cut := p.cutPoint(text, pos, end)
		if c, ok := trimmed(text, pos, cut); ok {
			c.SectionHeader, c.SectionLevel = s.header, s.level
			chunks = append(chunks, c)
		}
		pos = cut
	}
	return chunks
}

// cutPoint returns where the piece starting at pos should end.
func (p *Processor) cutPoint(text string, pos, end int) int {
	cut := pos + p.maxSize
	if cut >= end {
		return end
	}

	// Never cut inside a multi-byte rune.
	for cut > pos && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == pos {
		_, size := utf8.DecodeRuneInString(text[pos:])
		return pos + size
	}

	searchStart := max(pos, cut-boundaryWindow)
	if i := strings.LastIndexAny(text[searchStart:cut], ".!?"); i > 0 {
		return searchStart + i + 1
	}
	return cut
}

// filter drops chunks shorter than minSize.
func (p *Processor) filter(chunks []domain.Chunk) []domain.Chunk {
	kept := chunks[:0]
	for _, c := range chunks {
		if c.Length() < p.minSize {
			logger.Debug("chunker: dropping %d-byte chunk under %q", c.Length(), c.SectionHeader)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// trimmed returns the chunk for text[start:end] with surrounding whitespace
// excluded from both the content and the offsets.
func trimmed(text string, start, end int) (domain.Chunk, bool) {
	span := text[start:end]
	lead := len(span) - len(strings.TrimLeftFunc(span, unicode.IsSpace))
	span = strings.TrimRightFunc(span[lead:], unicode.IsSpace)
	if span == "" {
		return domain.Chunk{}, false
	}
	return domain.Chunk{
		Content:     span,
		StartOffset: start + lead,
		EndOffset:   start + lead + len(span),
	}, true
}

func chunkID(docID string, start, end int) string {
	name := docID + ":" + strconv.Itoa(start) + ":" + strconv.Itoa(end)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}
