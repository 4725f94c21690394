// Package cli implements the sercha-rag command line on cobra.
//
// Commands talk to the core only through driving ports. main wires the
// concrete services in with SetServices before calling Execute.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via -ldflags or by SetVersion.
var version = "dev"

var verbose bool

// RetrievalFactory builds the retrieval pipeline on first use. The returned
// cleanup func releases the adapters behind it.
type RetrievalFactory func(ctx context.Context) (driving.RetrievalService, func(), error)

// ChunkServiceFactory builds a chunk service for the given chunker limits.
type ChunkServiceFactory func(settings domain.ChunkerSettings) (driving.ChunkService, error)

// EmbeddingValidator pings the embedding provider described by settings.
type EmbeddingValidator func(ctx context.Context, settings *domain.EmbeddingSettings) error

// Services holds everything the commands need.
type Services struct {
	Settings          driving.SettingsService
	Retrieval         RetrievalFactory
	Chunker           ChunkServiceFactory
	Context           driving.ContextBuilder
	Extractor         driven.TextExtractor
	ValidateEmbedding EmbeddingValidator
}

var (
	settingsService    driving.SettingsService
	retrievalFactory   RetrievalFactory
	chunkerFactory     ChunkServiceFactory
	contextBuilder     driving.ContextBuilder
	textExtractor      driven.TextExtractor
	embeddingValidator EmbeddingValidator
)

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Retrieval for question answering over arXiv papers",
	Long: `sercha-rag finds context for a question. It searches the local vector
store first and, when the cached matches are not good enough, fetches fresh
papers from arXiv, ingests them and returns the most relevant sections.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress to stderr")
}

// SetServices wires the core services into the commands.
func SetServices(s Services) {
	settingsService = s.Settings
	retrievalFactory = s.Retrieval
	chunkerFactory = s.Chunker
	contextBuilder = s.Context
	textExtractor = s.Extractor
	embeddingValidator = s.ValidateEmbedding
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. ctx is passed to every command and
// cancels in-flight retrieval when done.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
