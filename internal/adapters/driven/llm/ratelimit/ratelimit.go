// Package ratelimit wraps an LLM service with an in-process token bucket.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Defaults applied when the config leaves a field at zero.
const (
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 4
	DefaultBackoff           = 30 * time.Second
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// Burst is the maximum burst size.
	Burst int
	// Backoff is how long to hold all calls after the provider reports a
	// rate limit.
	Backoff time.Duration
}

// LLMService throttles calls to an inner LLM service.
type LLMService struct {
	inner   driven.LLMService
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// New wraps inner with the given limits.
func New(inner driven.LLMService, cfg Config) *LLMService {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}

	return &LLMService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		backoff: cfg.Backoff,
	}
}

// Complete waits for a token, then delegates. A rate limit reported by the
// provider pauses every caller for the backoff period.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	out, err := s.inner.Complete(ctx, req)
	if errors.Is(err, domain.ErrRateLimited) {
		s.recordRateLimit()
	}
	return out, err
}

func (s *LLMService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}

func (s *LLMService) recordRateLimit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retryAt = time.Now().Add(s.backoff)
	logger.Warn("LLM provider rate limited, pausing calls for %s", s.backoff)
}

// ModelName returns the inner model name.
func (s *LLMService) ModelName() string {
	return s.inner.ModelName()
}

// Ping is not throttled.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *LLMService) Close() error {
	return s.inner.Close()
}
