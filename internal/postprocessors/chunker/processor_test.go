package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const samplePaper = `Attention Is All You Need

Abstract
The dominant sequence transduction models are based on complex recurrent or convolutional neural networks.

1. Introduction
Recurrent neural networks have been firmly established as state of the art approaches in sequence modeling.

2.1 Neural Networks
Neural networks have been used for various tasks.
`

// requireWellFormed checks offsets, ordering and content for every chunk.
func requireWellFormed(t *testing.T, text string, chunks []domain.Chunk) {
	t.Helper()
	for i, c := range chunks {
		require.Greater(t, c.EndOffset, c.StartOffset, "chunk %d", i)
		require.Equal(t, text[c.StartOffset:c.EndOffset], c.Content, "chunk %d", i)
		require.Equal(t, len(c.Content), c.Length())
		require.NotEmpty(t, c.SectionHeader)
		if i > 0 {
			require.LessOrEqual(t, chunks[i-1].EndOffset, c.StartOffset, "chunk %d overlaps", i)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultMaxSize, p.maxSize)
		assert.Equal(t, DefaultMinSize, p.minSize)
		assert.True(t, p.keepPreamble)
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithMaxSize(500), WithMinSize(0), WithPreamble(false))
		assert.Equal(t, 500, p.maxSize)
		assert.Equal(t, 0, p.minSize)
		assert.False(t, p.keepPreamble)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithMaxSize(0), WithMinSize(-1))
		assert.Equal(t, DefaultMaxSize, p.maxSize)
		assert.Equal(t, DefaultMinSize, p.minSize)
	})
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "section_chunker", New().Name())
}

func TestChunk_EmptyInput(t *testing.T) {
	p := New()
	assert.Empty(t, p.Chunk(""))
	assert.Empty(t, p.Chunk("  \n\t\n"))
}

func TestChunk_SectionsFromHeaders(t *testing.T) {
	p := New(WithMinSize(0))

	chunks := p.Chunk(samplePaper)
	requireWellFormed(t, samplePaper, chunks)

	require.Len(t, chunks, 4)
	assert.Equal(t, "Attention Is All You Need", chunks[0].SectionHeader)
	assert.Equal(t, 2, chunks[0].SectionLevel)

	assert.Equal(t, "Abstract", chunks[1].SectionHeader)
	assert.Equal(t, 1, chunks[1].SectionLevel)
	assert.True(t, strings.HasPrefix(chunks[1].Content, "Abstract\nThe dominant"))

	assert.Equal(t, "1. Introduction", chunks[2].SectionHeader)
	assert.Equal(t, 1, chunks[2].SectionLevel)

	assert.Equal(t, "2.1 Neural Networks", chunks[3].SectionHeader)
	assert.Equal(t, 2, chunks[3].SectionLevel)
	assert.True(t, strings.HasSuffix(chunks[3].Content, "various tasks."))
}

func TestChunk_Preamble(t *testing.T) {
	text := "Some preamble text that comes before any heading.\n\n1. Introduction\nBody text goes here."

	t.Run("kept by default", func(t *testing.T) {
		chunks := New(WithMinSize(0)).Chunk(text)
		requireWellFormed(t, text, chunks)
		require.Len(t, chunks, 2)
		assert.Equal(t, PreambleSection, chunks[0].SectionHeader)
		assert.Equal(t, 1, chunks[0].SectionLevel)
		assert.Equal(t, "Some preamble text that comes before any heading.", chunks[0].Content)
		assert.Equal(t, "1. Introduction", chunks[1].SectionHeader)
	})

	t.Run("dropped when disabled", func(t *testing.T) {
		chunks := New(WithMinSize(0), WithPreamble(false)).Chunk(text)
		require.Len(t, chunks, 1)
		assert.Equal(t, "1. Introduction", chunks[0].SectionHeader)
	})
}

func TestChunk_RepeatedHeadersKeepTheirPositions(t *testing.T) {
	text := "Results\nfirst body text here\nResults\nsecond body text here"

	chunks := New(WithMinSize(0)).Chunk(text)
	requireWellFormed(t, text, chunks)

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, strings.LastIndex(text, "Results"), chunks[1].StartOffset)
	assert.Contains(t, chunks[1].Content, "second body")
}

func TestChunk_FallbackWithoutHeaders(t *testing.T) {
	text := "lowercase prose only. more text follows here! and does it end? " +
		strings.Repeat("filler words without structure ", 10)

	p := New(WithMaxSize(60), WithMinSize(1000))
	chunks := p.Chunk(text)
	requireWellFormed(t, text, chunks)

	require.NotEmpty(t, chunks, "unstructured text must not be filtered away")
	for _, c := range chunks {
		assert.Equal(t, UnknownSection, c.SectionHeader)
		assert.Equal(t, 1, c.SectionLevel)
		assert.LessOrEqual(t, c.Length(), 60)
	}
}

func TestChunk_FallbackShortText(t *testing.T) {
	chunks := New().Chunk("tiny")
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0].Content)
	assert.Equal(t, UnknownSection, chunks[0].SectionHeader)
}

func TestChunk_SentenceBoundaryCut(t *testing.T) {
	text := strings.Repeat("a", 50) + ". " + strings.Repeat("b", 60)

	chunks := New(WithMaxSize(80)).Chunk(text)
	requireWellFormed(t, text, chunks)

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 50)+".", chunks[0].Content)
	assert.Equal(t, strings.Repeat("b", 60), chunks[1].Content)
	assert.Equal(t, 52, chunks[1].StartOffset)
}

func TestChunk_HardCutWithoutPunctuation(t *testing.T) {
	text := strings.Repeat("x", 250)

	chunks := New(WithMaxSize(100)).Chunk(text)
	requireWellFormed(t, text, chunks)

	require.Len(t, chunks, 3)
	assert.Equal(t, 100, chunks[0].Length())
	assert.Equal(t, 100, chunks[1].Length())
	assert.Equal(t, 50, chunks[2].Length())
}

func TestChunk_OversizeSectionInheritsHeader(t *testing.T) {
	body := strings.Repeat("Transformers rely on attention. ", 20)
	text := "1. Introduction\n" + body + "\n2. Background\nShort background section text."

	chunks := New(WithMaxSize(100), WithMinSize(0)).Chunk(text)
	requireWellFormed(t, text, chunks)

	intro := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, c.Length(), 100)
		if c.SectionHeader == "1. Introduction" {
			intro++
			assert.Equal(t, 1, c.SectionLevel)
		}
	}
	assert.Greater(t, intro, 1, "oversize section should be split")
	assert.Equal(t, "2. Background", chunks[len(chunks)-1].SectionHeader)
}

func TestChunk_MultiByteRunesNeverSplit(t *testing.T) {
	text := strings.Repeat("é", 100)

	chunks := New(WithMaxSize(51)).Chunk(text)
	requireWellFormed(t, text, chunks)

	require.NotEmpty(t, chunks)
	total := 0
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Content))
		total += c.Length()
	}
	assert.Equal(t, len(text), total)
}

func TestChunk_Idempotent(t *testing.T) {
	p := New(WithMaxSize(80), WithMinSize(0))
	assert.Equal(t, p.Chunk(samplePaper), p.Chunk(samplePaper))
}

func TestChunk_FilterMonotonicity(t *testing.T) {
	type span struct{ start, end int }

	var prev map[span]domain.Chunk
	prevCount := -1
	for _, minSize := range []int{0, 30, 60, 100, 200} {
		chunks := New(WithMaxSize(120), WithMinSize(minSize)).Chunk(samplePaper)
		requireWellFormed(t, samplePaper, chunks)

		current := make(map[span]domain.Chunk, len(chunks))
		for _, c := range chunks {
			assert.GreaterOrEqual(t, c.Length(), minSize)
			current[span{c.StartOffset, c.EndOffset}] = c
		}

		if prevCount >= 0 {
			assert.LessOrEqual(t, len(chunks), prevCount, "min size %d", minSize)
			for k, c := range current {
				assert.Equal(t, prev[k], c, "survivor changed at min size %d", minSize)
			}
		}
		prev, prevCount = current, len(chunks)
	}
}

func TestProcess_SetsDocumentAndDeterministicIDs(t *testing.T) {
	p := New(WithMinSize(0))
	doc := &domain.Document{ID: "2401.00001", Text: samplePaper}

	first, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	seen := make(map[string]bool)
	for i, c := range first {
		assert.Equal(t, "2401.00001", c.DocumentID)
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, second[i].ID, c.ID)
		assert.False(t, seen[c.ID], "duplicate id")
		seen[c.ID] = true
	}

	other, err := p.Process(context.Background(), &domain.Document{ID: "other", Text: samplePaper}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks, err := New().Process(ctx, &domain.Document{ID: "x", Text: samplePaper}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, chunks)
}

func TestProcess_EmptyDocument(t *testing.T) {
	chunks, err := New().Process(context.Background(), &domain.Document{ID: "x"}, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
