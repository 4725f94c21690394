package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	chunkMaxSize int
	chunkMinSize int
	chunkJSONOut bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split a document into section chunks",
	Long: `Splits a text or PDF file into chunks at detected section headers,
the same way fetched papers are chunked during retrieval.

Size limits default to the configured chunker settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().IntVar(&chunkMaxSize, "max-size", 0, "largest chunk in bytes (default from settings)")
	chunkCmd.Flags().IntVar(&chunkMinSize, "min-size", 0, "smallest chunk kept in bytes (default from settings)")
	chunkCmd.Flags().BoolVar(&chunkJSONOut, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if chunkerFactory == nil {
		return errors.New("chunk service not configured")
	}

	settings := domain.DefaultAppSettings().Chunker
	if settingsService != nil {
		current, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		settings = current.Chunker
	}
	if cmd.Flags().Changed("max-size") {
		settings.MaxSize = chunkMaxSize
	}
	if cmd.Flags().Changed("min-size") {
		settings.MinSize = chunkMinSize
	}
	if settings.MaxSize <= 0 || settings.MinSize < 0 || settings.MinSize > settings.MaxSize {
		return fmt.Errorf("invalid sizes: min %d, max %d", settings.MinSize, settings.MaxSize)
	}

	text, err := readDocumentText(cmd, args[0])
	if err != nil {
		return err
	}

	svc, err := chunkerFactory(settings)
	if err != nil {
		return fmt.Errorf("failed to build chunker: %w", err)
	}

	chunks, err := svc.ChunkText(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	if chunkJSONOut {
		return outputChunksJSON(cmd, chunks)
	}
	outputChunksText(cmd, chunks)
	return nil
}

// readDocumentText returns the file's text, extracting PDFs first.
func readDocumentText(cmd *cobra.Command, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !isPDF(path, data) {
		return string(data), nil
	}
	if textExtractor == nil {
		return "", errors.New("pdf extraction not configured")
	}
	text, err := textExtractor.Extract(cmd.Context(), data)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", path, err)
	}
	return text, nil
}

func isPDF(path string, data []byte) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-"))
}

type spanJSON struct {
	SectionHeader string `json:"section_header"`
	SectionLevel  int    `json:"section_level"`
	StartOffset   int    `json:"start_offset"`
	EndOffset     int    `json:"end_offset"`
	Content       string `json:"content"`
}

func outputChunksJSON(cmd *cobra.Command, chunks []domain.Chunk) error {
	out := make([]spanJSON, 0, len(chunks))
	for i := range chunks {
		out = append(out, spanJSON{
			SectionHeader: chunks[i].SectionHeader,
			SectionLevel:  chunks[i].SectionLevel,
			StartOffset:   chunks[i].StartOffset,
			EndOffset:     chunks[i].EndOffset,
			Content:       chunks[i].Content,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputChunksText(cmd *cobra.Command, chunks []domain.Chunk) {
	if len(chunks) == 0 {
		cmd.Println("No chunks produced.")
		return
	}

	cmd.Printf("%d chunks:\n\n", len(chunks))
	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("  [%d] %s (level %d, %d bytes)\n", i+1, c.SectionHeader, c.SectionLevel, c.Length())
		cmd.Printf("      %s\n", snippet(c.Content, snippetLen))
		cmd.Println()
	}
}
