package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, scoring, gate thresholds, the embedding
provider and the vector store backend.

Settings live in ~/.sercha-rag/config.toml. OPENAI_API_KEY and
SERCHA_RAG_POSTGRES_DSN override the file without being written to it.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "set-embedding",
	Short: "Configure embedding provider",
	Long: `Interactively choose the embedding provider and model.

Changing provider or model changes the vector space, so documents stored
under the previous model are no longer searched.`,
	RunE: runSettingsEmbedding,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "set-backend [memory|sqlite|postgres]",
	Short: "Select the vector store backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsBackend,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Max size: %d\n", s.Chunker.MaxSize)
	cmd.Printf("  Min size: %d\n", s.Chunker.MinSize)
	cmd.Printf("  Keep preamble: %t\n", s.Chunker.KeepPreamble)
	cmd.Println()

	cmd.Println("[Scorer]")
	cmd.Printf("  Header weight: %g\n", s.Scorer.HeaderWeight)
	cmd.Printf("  Content weight: %g\n", s.Scorer.ContentWeight)
	cmd.Printf("  Level weight: %g (ceiling %d)\n", s.Scorer.LevelWeight, s.Scorer.LevelCeiling)
	cmd.Printf("  Long chunk: >%d bytes x%g\n", s.Scorer.LongChunkSize, s.Scorer.LongChunkPenalty)
	cmd.Println()

	cmd.Println("[Gate]")
	cmd.Printf("  Max score: %g\n", s.Gate.MaxScore)
	cmd.Printf("  Min average score: %g\n", s.Gate.MinAvgScore)
	cmd.Printf("  Min results: %d\n", s.Gate.MinResults)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", s.Retrieval.TopK)
	cmd.Printf("  Chunk budget: %d\n", s.Retrieval.ChunkBudget)
	cmd.Printf("  Max fetch: %d (concurrency %d)\n", s.Retrieval.MaxFetch, s.Retrieval.FetchConcurrency)
	cmd.Printf("  Chunk cached documents: %t\n", s.Retrieval.ChunkCached)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", s.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", s.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", s.Embedding.Dimensions)
	if s.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.Embedding.BaseURL)
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		if s.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(s.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Println()

	cmd.Println("[Vector Store]")
	cmd.Printf("  Backend: %s\n", s.VectorStore.Backend.Description())
	switch s.VectorStore.Backend {
	case domain.VectorBackendSQLite:
		dir := s.VectorStore.DataDir
		if dir == "" {
			dir = "~/.sercha-rag/data"
		}
		cmd.Printf("  Data dir: %s\n", dir)
	case domain.VectorBackendPostgres:
		if s.VectorStore.PostgresDSN != "" {
			cmd.Printf("  DSN: %s\n", maskDSN(s.VectorStore.PostgresDSN))
		} else {
			cmd.Printf("  DSN: (not set)\n")
		}
	}
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  Search URL: %s\n", s.Source.BaseURL)
	cmd.Printf("  PDF URL: %s\n", s.Source.PDFBaseURL)
	cmd.Printf("  Requests/second: %.2f\n", s.Source.RequestsPerSecond)
	cmd.Println()

	cmd.Println("[Context]")
	cmd.Printf("  Max chars: %d\n", s.Context.MaxChars)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Edit ~/.sercha-rag/config.toml or run 'sercha-rag settings set-embedding' to fix.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsBackend(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	backend := domain.VectorBackend(strings.ToLower(args[0]))
	if err := settingsService.SetVectorBackend(backend); err != nil {
		return fmt.Errorf("failed to set backend: %w", err)
	}
	cmd.Printf("Vector store backend set to: %s\n", backend.Description())

	if backend == domain.VectorBackendPostgres {
		s, _ := settingsService.Get() //nolint:errcheck // Best-effort check
		if s != nil && s.VectorStore.PostgresDSN == "" {
			cmd.Println("\nNote: set SERCHA_RAG_POSTGRES_DSN or vector_store.postgres_dsn in config.toml.")
		}
	}
	return nil
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	if embeddingValidator != nil {
		s, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cmd.Print("Validating configuration... ")
		if err := embeddingValidator(cmd.Context(), &s.Embedding); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password in a postgres URL or key/value DSN.
func maskDSN(dsn string) string {
	if scheme, rest, ok := strings.Cut(dsn, "://"); ok {
		if creds, host, ok := strings.Cut(rest, "@"); ok {
			if user, _, hasPass := strings.Cut(creds, ":"); hasPass {
				return scheme + "://" + user + ":****@" + host
			}
		}
		return dsn
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
