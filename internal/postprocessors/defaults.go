package postprocessors

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("section_chunker", buildSectionChunker)
}

// DefaultPipeline builds the standard chunking pipeline from chunker settings.
func DefaultPipeline(settings domain.ChunkerSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return BuildPipeline(r, domain.PipelineConfigFor(settings))
}

// buildSectionChunker creates a section chunker from generic config.
// Supported config keys:
//   - max_size (int): Largest chunk in bytes (default: 2000)
//   - min_size (int): Smallest chunk kept (default: 100)
//   - keep_preamble (bool): Emit text before the first header (default: true)
func buildSectionChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "max_size"); ok {
		opts = append(opts, chunker.WithMaxSize(size))
	}
	if size, ok := getIntFromConfig(cfg, "min_size"); ok {
		opts = append(opts, chunker.WithMinSize(size))
	}
	if keep, ok := cfg["keep_preamble"].(bool); ok {
		opts = append(opts, chunker.WithPreamble(keep))
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
