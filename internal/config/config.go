// Package config maps the flat key/value configuration onto typed settings.
//
// Every key can be overridden by an environment variable named after it:
// "llm.api_keys" becomes APIFORGE_LLM_API_KEYS. List values in the
// environment are comma separated.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

// Config keys.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyServerAddr          = "server.addr"
	KeyStorageBackend      = "storage.backend"
	KeyStorageDataDir      = "storage.data_dir"
	KeyStoragePostgresDSN  = "storage.postgres_dsn"
	KeyLLMProvider         = "llm.provider"
	KeyLLMModel            = "llm.model"
	KeyLLMBaseURL          = "llm.base_url"
	KeyLLMAPIKeys          = "llm.api_keys"
	KeyLLMRequestsPerSec   = "llm.requests_per_second"
	KeyLLMBurst            = "llm.burst"
	KeyEmbedProvider       = "embedding.provider"
	KeyEmbedModel          = "embedding.model"
	KeyEmbedBaseURL        = "embedding.base_url"
	KeyEmbedAPIKey         = "embedding.api_key"
	KeyEmbedDimensions     = "embedding.dimensions"
	KeyCacheTTLSeconds     = "cache.ttl_seconds"
	KeyIngestWorkers       = "ingest.workers"
	KeyIngestChunkSize     = "ingest.chunk_size"
	KeyIngestAnnotation    = "ingest.heading_annotation"
	KeyIngestRequirements  = "ingest.extract_requirements"
	KeyGenerationWorkers   = "generation.workers"
	KeyStandardizeAttempts = "generation.standardize_attempts"
	KeyPromptsDir          = "prompts.dir"
	KeyLogLevel            = "log.level"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "APIFORGE_"

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Settings is the resolved application configuration.
type Settings struct {
	ServerAddr string
	Storage    StorageSettings
	LLM        domain.LLMSettings
	Embedding  domain.EmbeddingSettings
	CacheTTL   time.Duration
	Ingest     IngestSettings
	Generation GenerationSettings
	PromptsDir string
	LogLevel   string
}

// StorageSettings selects and locates the store backend.
type StorageSettings struct {
	Backend     string
	DataDir     string
	PostgresDSN string
}

// IngestSettings controls document ingestion.
type IngestSettings struct {
	Workers             int
	ChunkSize           int
	HeadingAnnotation   string
	ExtractRequirements bool
}

// GenerationSettings controls test-case generation runs.
type GenerationSettings struct {
	Workers             int
	StandardizeAttempts int
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		ServerAddr: ":8080",
		Storage:    StorageSettings{Backend: BackendSQLite},
		LLM: domain.LLMSettings{
			Provider:          domain.AIProviderOllama,
			Model:             domain.AIProviderOllama.DefaultLLMModel(),
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    domain.AIProviderOllama.DefaultEmbeddingModel(),
		},
		CacheTTL: time.Hour,
		Ingest: IngestSettings{
			Workers:             3,
			ChunkSize:           domain.DefaultChunkSize,
			HeadingAnnotation:   domain.DefaultHeadingAnnotation,
			ExtractRequirements: true,
		},
		Generation: GenerationSettings{
			Workers:             4,
			StandardizeAttempts: 4,
		},
		LogLevel: "info",
	}
}

// Load resolves settings from store with environment overrides from the
// process environment. store may be nil.
func Load(store driven.ConfigStore) (*Settings, error) {
	return LoadWithEnv(store, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(store driven.ConfigStore, getenv func(string) string) (*Settings, error) {
	src := source{store: store, getenv: getenv}
	d := Defaults()

	s := &Settings{
		ServerAddr: src.str(KeyServerAddr, d.ServerAddr),
		Storage: StorageSettings{
			Backend:     strings.ToLower(src.str(KeyStorageBackend, d.Storage.Backend)),
			DataDir:     src.str(KeyStorageDataDir, ""),
			PostgresDSN: src.str(KeyStoragePostgresDSN, ""),
		},
		CacheTTL: time.Duration(src.integer(KeyCacheTTLSeconds, int(d.CacheTTL/time.Second))) * time.Second,
		Ingest: IngestSettings{
			Workers:             src.integer(KeyIngestWorkers, d.Ingest.Workers),
			ChunkSize:           src.integer(KeyIngestChunkSize, d.Ingest.ChunkSize),
			HeadingAnnotation:   src.str(KeyIngestAnnotation, d.Ingest.HeadingAnnotation),
			ExtractRequirements: src.boolean(KeyIngestRequirements, d.Ingest.ExtractRequirements),
		},
		Generation: GenerationSettings{
			Workers:             src.integer(KeyGenerationWorkers, d.Generation.Workers),
			StandardizeAttempts: src.integer(KeyStandardizeAttempts, d.Generation.StandardizeAttempts),
		},
		PromptsDir: src.str(KeyPromptsDir, ""),
		LogLevel:   strings.ToLower(src.str(KeyLogLevel, d.LogLevel)),
	}

	llmProvider := src.provider(KeyLLMProvider, d.LLM.Provider)
	s.LLM = domain.LLMSettings{
		Provider:          llmProvider,
		Model:             src.str(KeyLLMModel, llmProvider.DefaultLLMModel()),
		BaseURL:           src.str(KeyLLMBaseURL, ""),
		APIKeys:           src.strings(KeyLLMAPIKeys),
		RequestsPerSecond: src.float(KeyLLMRequestsPerSec, d.LLM.RequestsPerSecond),
		Burst:             src.integer(KeyLLMBurst, d.LLM.Burst),
	}

	embedProvider := src.provider(KeyEmbedProvider, d.Embedding.Provider)
	s.Embedding = domain.EmbeddingSettings{
		Provider:   embedProvider,
		Model:      src.str(KeyEmbedModel, embedProvider.DefaultEmbeddingModel()),
		BaseURL:    src.str(KeyEmbedBaseURL, ""),
		APIKey:     src.str(KeyEmbedAPIKey, ""),
		Dimensions: src.integer(KeyEmbedDimensions, 0),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects settings no component can run with.
func (s *Settings) Validate() error {
	switch s.Storage.Backend {
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if s.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: %s is required for the postgres backend",
				domain.ErrInvalidInput, KeyStoragePostgresDSN)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, s.Storage.Backend)
	}

	if s.Ingest.Workers < 1 || s.Generation.Workers < 1 {
		return fmt.Errorf("%w: worker counts must be positive", domain.ErrInvalidInput)
	}
	if s.Generation.StandardizeAttempts < 1 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, KeyStandardizeAttempts)
	}
	if strings.TrimSpace(s.Ingest.HeadingAnnotation) == "" {
		return fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidInput, KeyIngestAnnotation)
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// source reads a key from the environment first, then the store.
type source struct {
	store  driven.ConfigStore
	getenv func(string) string
}

func (s source) env(key string) (string, bool) {
	if s.getenv == nil {
		return "", false
	}
	v := strings.TrimSpace(s.getenv(EnvName(key)))
	return v, v != ""
}

func (s source) str(key, defaultVal string) string {
	if v, ok := s.env(key); ok {
		return v
	}
	if s.store != nil {
		if v := s.store.GetString(key); v != "" {
			return v
		}
	}
	return defaultVal
}

func (s source) integer(key string, defaultVal int) int {
	if v, ok := s.env(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		return defaultVal
	}
	if s.store != nil {
		if v := s.store.GetInt(key); v != 0 {
			return v
		}
	}
	return defaultVal
}

func (s source) float(key string, defaultVal float64) float64 {
	if v, ok := s.env(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return defaultVal
	}
	if s.store != nil {
		if v := s.store.GetFloat(key); v != 0 {
			return v
		}
	}
	return defaultVal
}

func (s source) boolean(key string, defaultVal bool) bool {
	if v, ok := s.env(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		return defaultVal
	}
	if s.store != nil {
		if _, exists := s.store.Get(key); exists {
			return s.store.GetBool(key)
		}
	}
	return defaultVal
}

func (s source) strings(key string) []string {
	if v, ok := s.env(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	if s.store != nil {
		if v := s.store.GetStringSlice(key); len(v) > 0 {
			return v
		}
		// A single key is often written as a plain string.
		if v := s.store.GetString(key); v != "" {
			return []string{v}
		}
	}
	return nil
}

func (s source) provider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	p := domain.AIProvider(strings.ToLower(s.str(key, "")))
	if !p.IsValid() {
		return defaultVal
	}
	return p
}
