// Package workflow runs test-case generation as a small state graph:
//
//	prepare -> dispatch -[in_progress]-> collect -> standardize -> generate -> dispatch
//	                    -[completed]---> end
//
// Each run threads one domain.GenerationState through the nodes.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/logger"
)

// DefaultStandardizeAttempts is the total number of standardisation tries.
const DefaultStandardizeAttempts = 4

// cacheVersion is bumped whenever prompt handling changes cached answers.
const cacheVersion = 1

// Deps are the collaborators the nodes run against.
type Deps struct {
	Documents    driven.DocumentStore
	Requirements driven.RequirementStore
	TestCases    driven.TestCaseStore
	LLM          driven.LLMService
	Prompts      driven.PromptStore

	// Embedder enables the similarity fallback for headings that do not
	// match exactly. Optional.
	Embedder driven.EmbeddingService

	// Cache stores model answers. Optional.
	Cache    driven.Cache
	CacheTTL time.Duration

	// Annotation is the heading marker used at ingestion.
	Annotation string

	// StandardizeAttempts is the total number of standardisation tries.
	StandardizeAttempts int

	// Backoff returns the pause before retry n (1-based).
	Backoff func(retry int) time.Duration

	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() string
}

// DefaultBackoff doubles from one second: 1s, 2s, 4s.
func DefaultBackoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	return time.Second << (retry - 1)
}

// NoBackoff never waits.
func NoBackoff(int) time.Duration { return 0 }

func (d *Deps) withDefaults() *Deps {
	out := *d
	if out.Annotation == "" {
		out.Annotation = domain.DefaultHeadingAnnotation
	}
	if out.StandardizeAttempts <= 0 {
		out.StandardizeAttempts = DefaultStandardizeAttempts
	}
	if out.Backoff == nil {
		out.Backoff = DefaultBackoff
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	if out.NewID == nil {
		out.NewID = func() string { return uuid.New().String() }
	}
	if out.CacheTTL <= 0 {
		out.CacheTTL = driven.DefaultCacheTTL
	}
	return &out
}

func (d *Deps) validate() error {
	switch {
	case d.Documents == nil:
		return fmt.Errorf("%w: document store is required", domain.ErrInvalidInput)
	case d.Requirements == nil:
		return fmt.Errorf("%w: requirement store is required", domain.ErrInvalidInput)
	case d.TestCases == nil:
		return fmt.Errorf("%w: test case store is required", domain.ErrInvalidInput)
	case d.LLM == nil:
		return fmt.Errorf("%w: llm service is required", domain.ErrLLMUnavailable)
	case d.Prompts == nil:
		return fmt.Errorf("%w: prompt store is required", domain.ErrInvalidInput)
	}
	return nil
}

// complete calls the model, consulting the cache unless bypass is set.
// Every answer is written back to the cache.
func (d *Deps) complete(ctx context.Context, operation, system, input string, bypass bool) (string, error) {
	var key string
	if d.Cache != nil {
		key = driven.CacheKey(operation, cacheVersion, d.LLM.ModelName(), system, input)
		if !bypass {
			if v, ok := d.Cache.Get(key); ok {
				logger.Debug("%s: cache hit", operation)
				return v, nil
			}
		}
	}

	out, err := d.LLM.Complete(ctx, driven.CompletionRequest{SystemPrompt: system, Input: input})
	if err != nil {
		return "", err
	}

	if d.Cache != nil && key != "" {
		d.Cache.Put(key, out, d.CacheTTL)
	}
	return out, nil
}

// sleep waits for dur or until ctx is done.
func sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
