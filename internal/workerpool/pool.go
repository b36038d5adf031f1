// Package workerpool runs independent work on bounded ants pools.
package workerpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// DefaultWidth is the pool width used when none is configured.
const DefaultWidth = 3

// Map runs fn over items with at most width calls in flight. The result for
// items[i] is stored at index i regardless of completion order. All
// submitted work finishes before Map returns; the error of the lowest
// failing index is returned.
func Map[T, R any](ctx context.Context, width int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if width > len(items) {
		width = len(items)
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(width, func(arg any) {
		idx, ok := arg.(int)
		if !ok {
			panic("workerpool: argument type error")
		}
		defer wg.Done()
		if err := ctx.Err(); err != nil {
			errs[idx] = err
			return
		}
		results[idx], errs[idx] = fn(ctx, items[idx])
	})
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	for i := range items {
		wg.Add(1)
		if err := pool.Invoke(i); err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit: %w", err)
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return results, nil
}

// Pool is a long-lived bounded pool for background tasks.
type Pool struct {
	pool *ants.Pool
}

// New creates a pool running at most size tasks at once. Submissions
// beyond that block until a worker is free.
func New(size int) (*Pool, error) {
	if size <= 0 {
		size = DefaultWidth
	}
	p, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return &Pool{pool: p}, nil
}

// Submit schedules task, blocking while the pool is saturated.
func (p *Pool) Submit(task func()) error {
	return p.pool.Submit(task)
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release stops the pool; queued submissions fail afterwards.
func (p *Pool) Release() {
	p.pool.Release()
}
