package postprocessors

import (
	"fmt"
	"regexp"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/postprocessors/chunker"
	"github.com/custodia-labs/apiforge/internal/postprocessors/toc"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register(domain.ProcessorTOC, buildTOC)
	r.Register(domain.ProcessorChunker, buildChunker)
}

// buildTOC creates the heading normaliser from generic config.
// Supported config keys:
//   - annotation (string): Heading marker (default: "<heading>")
//   - extra_patterns ([]string): Additional heading regexes, in precedence order
func buildTOC(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []toc.Option

	if cfg != nil {
		if annotation, ok := cfg["annotation"].(string); ok && annotation != "" {
			opts = append(opts, toc.WithAnnotation(annotation))
		}
		patterns, err := getPatternsFromConfig(cfg, "extra_patterns")
		if err != nil {
			return nil, err
		}
		if len(patterns) > 0 {
			opts = append(opts, toc.WithExtraPatterns(patterns...))
		}
	}

	return toc.New(opts...), nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Maximum runes per section part (default: 4000)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getPatternsFromConfig(cfg map[string]any, key string) ([]*regexp.Regexp, error) {
	var raw []string
	switch v := cfg[key].(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, s := range raw {
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("%s: compile %q: %w", key, s, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}
