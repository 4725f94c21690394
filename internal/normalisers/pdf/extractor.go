// Package pdf extracts text from PDF documents.
//
// Extraction runs in-process on github.com/ledongthuc/pdf and keeps one line
// per text row so that section headers stay detectable. When the library
// cannot read a file and poppler's pdftotext is installed, the extractor
// falls back to it.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Verify interface compliance.
var _ driven.TextExtractor = (*Extractor)(nil)

// ErrPDFToolNotFound is returned when the pdftotext fallback is needed
// but not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils")

// ErrNoText is returned when a PDF contains no extractable text.
var ErrNoText = errors.New("pdf contains no extractable text")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor turns PDF bytes into text with line breaks preserved.
type Extractor struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates an extractor with the pdftotext fallback enabled.
func New() *Extractor {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates an extractor whose fallback uses runner.
// A nil runner disables the fallback.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner, lookPath: exec.LookPath}
}

// SupportedMIMETypes returns the PDF MIME type.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Extract returns the text of data, one row of text per line and a blank
// line between pages.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("pdf: empty input")
	}

	text, err := extractRows(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err == nil {
		err = ErrNoText
	}
	if e.runner == nil {
		return "", fmt.Errorf("pdf: %w", err)
	}

	logger.Debug("pdf: in-process extraction failed (%v), trying pdftotext", err)
	fallback, ferr := e.pdftotext(ctx, data)
	if ferr != nil {
		return "", fmt.Errorf("pdf: %w (fallback: %w)", err, ferr)
	}
	if strings.TrimSpace(fallback) == "" {
		return "", fmt.Errorf("pdf: %w", ErrNoText)
	}
	return fallback, nil
}

func (e *Extractor) pdftotext(ctx context.Context, data []byte) (string, error) {
	if _, err := e.lookPath("pdftotext"); err != nil {
		return "", ErrPDFToolNotFound
	}

	tmp, err := os.CreateTemp("", "sercha-rag-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(out), nil
}

// extractRows reads every page row by row. The pdf library panics on some
// malformed inputs, so panics are converted to errors.
func extractRows(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}

		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		for _, row := range rows {
			line := joinRow(row.Content)
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// joinRow concatenates the fragments of one text row, inserting a space
// wherever the horizontal gap between fragments looks like a word break.
func joinRow(texts pdflib.TextHorizontal) string {
	var sb strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if t.S == "" {
			continue
		}
		if i > 0 && sb.Len() > 0 && wordGap(prevEnd, t) {
			sb.WriteString(" ")
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.TrimSpace(sb.String())
}

func wordGap(prevEnd float64, t pdflib.Text) bool {
	threshold := math.Max(t.FontSize*0.15, 0.5)
	return t.X-prevEnd > threshold
}
