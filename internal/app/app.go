// Package app wires configuration, storage, model clients and core services
// into the set of services the command line drives.
package app

import (
	"context"
	"fmt"

	"github.com/custodia-labs/apiforge/internal/adapters/driven/ai"
	"github.com/custodia-labs/apiforge/internal/adapters/driven/cache"
	"github.com/custodia-labs/apiforge/internal/adapters/driven/config/file"
	"github.com/custodia-labs/apiforge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/apiforge/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/apiforge/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/apiforge/internal/adapters/driving/cli"
	"github.com/custodia-labs/apiforge/internal/config"
	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/core/services"
	"github.com/custodia-labs/apiforge/internal/core/workflow"
	"github.com/custodia-labs/apiforge/internal/logger"
	"github.com/custodia-labs/apiforge/internal/normalisers"
	"github.com/custodia-labs/apiforge/internal/postprocessors"
	"github.com/custodia-labs/apiforge/internal/workerpool"
)

// Stores groups the persistence ports of one backend.
type Stores struct {
	Documents    driven.DocumentStore
	Requirements driven.RequirementStore
	TestCases    driven.TestCaseStore
	Runs         driven.RunStore
	Close        func() error
}

// Models holds the optional model clients.
type Models struct {
	LLM      driven.LLMService
	Embedder driven.EmbeddingService
}

// Bootstrap loads the configuration at configPath, connects the model
// providers and builds the services. It satisfies cli.Bootstrap.
func Bootstrap(ctx context.Context, configPath string) (*cli.Services, error) {
	var (
		store *file.ConfigStore
		err   error
	)
	if configPath != "" {
		store, err = file.NewConfigStoreAt(configPath)
	} else {
		store, err = file.NewConfigStore("")
	}
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settings, err := config.Load(store)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(settings.LogLevel); err != nil {
		logger.Warn("config: %v", err)
	}

	models := ai.Init(ctx, &settings.Embedding, &settings.LLM)
	for _, w := range models.Warnings {
		logger.Warn("ai: %s", w)
	}
	if models.LLMService != nil {
		logger.Info("ai: llm %s via %s", settings.LLM.Model, settings.LLM.Provider.Description())
	}
	if models.EmbeddingService != nil {
		logger.Info("ai: embeddings %s via %s", settings.Embedding.Model, settings.Embedding.Provider.Description())
	}

	svc, err := Build(ctx, settings, Models{LLM: models.LLMService, Embedder: models.EmbeddingService})
	if err != nil {
		models.Close()
		return nil, err
	}

	closeServices := svc.Close
	svc.Close = func() error {
		err := closeServices()
		models.Close()
		return err
	}
	return svc, nil
}

// OpenStores opens the backend selected in settings.
func OpenStores(ctx context.Context, s config.StorageSettings) (*Stores, error) {
	switch s.Backend {
	case config.BackendMemory:
		return &Stores{
			Documents:    memory.NewDocumentStore(),
			Requirements: memory.NewRequirementStore(),
			TestCases:    memory.NewTestCaseStore(),
			Runs:         memory.NewRunStore(),
			Close:        func() error { return nil },
		}, nil

	case config.BackendSQLite:
		db, err := sqlite.NewStore(s.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Debug("storage: sqlite at %s", db.Path())
		return &Stores{
			Documents:    db.DocumentStore(),
			Requirements: db.RequirementStore(),
			TestCases:    db.TestCaseStore(),
			Runs:         db.RunStore(),
			Close:        db.Close,
		}, nil

	case config.BackendPostgres:
		db, err := postgres.NewStore(ctx, s.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &Stores{
			Documents:    db.DocumentStore(),
			Requirements: db.RequirementStore(),
			TestCases:    db.TestCaseStore(),
			Runs:         db.RunStore(),
			Close:        db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, s.Backend)
	}
}

// Build assembles the services over settings and the given model clients.
// Requirement extraction and generation are unavailable without an LLM.
func Build(ctx context.Context, settings *config.Settings, models Models) (*cli.Services, error) {
	stores, err := OpenStores(ctx, settings.Storage)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*cli.Services, error) {
		_ = stores.Close()
		return nil, err
	}

	prompts, err := file.NewPromptStore(settings.PromptsDir)
	if err != nil {
		return fail(fmt.Errorf("open prompts: %w", err))
	}

	// 1. INGESTION
	pipelineCfg := domain.DefaultPipelineConfig()
	pipelineCfg.Set(domain.ProcessorTOC, "annotation", settings.Ingest.HeadingAnnotation)
	pipelineCfg.Set(domain.ProcessorChunker, "chunk_size", settings.Ingest.ChunkSize)

	ppRegistry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(ppRegistry)
	pipeline, err := ppRegistry.BuildPipeline(pipelineCfg)
	if err != nil {
		return fail(fmt.Errorf("build pipeline: %w", err))
	}

	opts := []services.IngestOption{
		services.WithWorkers(settings.Ingest.Workers),
		services.WithHeadingAnnotation(settings.Ingest.HeadingAnnotation),
	}
	if models.Embedder != nil {
		opts = append(opts, services.WithEmbedding(models.Embedder))
	}
	if models.LLM != nil && settings.Ingest.ExtractRequirements {
		opts = append(opts, services.WithRequirementExtraction(models.LLM, prompts))
	}
	ingest := services.NewIngestService(
		normalisers.NewDefaultRegistry(), pipeline, stores.Documents, stores.Requirements, opts...,
	)

	// 2. GENERATION
	pool, err := workerpool.New(settings.Generation.Workers)
	if err != nil {
		return fail(fmt.Errorf("create generation pool: %w", err))
	}

	llm := models.LLM
	if llm == nil {
		llm = unavailableLLM{}
	}
	registry := workflow.NewRegistry()
	workflow.RegisterDefaults(registry)
	graph, err := registry.Build(&workflow.Deps{
		Documents:           stores.Documents,
		Requirements:        stores.Requirements,
		TestCases:           stores.TestCases,
		LLM:                 llm,
		Prompts:             prompts,
		Embedder:            models.Embedder,
		Cache:               cache.NewMemory(),
		CacheTTL:            settings.CacheTTL,
		Annotation:          settings.Ingest.HeadingAnnotation,
		StandardizeAttempts: settings.Generation.StandardizeAttempts,
	})
	if err != nil {
		pool.Release()
		return fail(fmt.Errorf("build workflow: %w", err))
	}
	generation := services.NewGenerationService(graph, stores.Runs, stores.TestCases, pool)

	return &cli.Services{
		Ingest:       ingest,
		Requirements: services.NewRequirementService(stores.Requirements),
		Generation:   generation,
		ServerAddr:   settings.ServerAddr,
		Close: func() error {
			generation.Wait()
			pool.Release()
			return stores.Close()
		},
	}, nil
}

// unavailableLLM stands in for a missing model so generation runs fail
// with ErrLLMUnavailable instead of the service refusing to start.
type unavailableLLM struct{}

var _ driven.LLMService = unavailableLLM{}

var errNoLLM = fmt.Errorf("%w: no LLM provider configured", domain.ErrLLMUnavailable)

func (unavailableLLM) Complete(context.Context, driven.CompletionRequest) (string, error) {
	return "", errNoLLM
}

func (unavailableLLM) ModelName() string          { return "none" }
func (unavailableLLM) Ping(context.Context) error { return errNoLLM }
func (unavailableLLM) Close() error               { return nil }
