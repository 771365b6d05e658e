package concurrent

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const defaultWorkers = 10

// ErrPoolBusy is returned by TryDo when every worker slot is taken.
var ErrPoolBusy = errors.New("worker pool is at capacity")

// WorkerPool bounds the number of concurrent operations.
type WorkerPool struct {
	maxWorkers int
	sem        *semaphore.Weighted
}

// NewWorkerPool creates a new worker pool with the specified max workers
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = defaultWorkers
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		sem:        semaphore.NewWeighted(int64(maxWorkers)),
	}
}

func (wp *WorkerPool) Size() int { return wp.maxWorkers }

// Do waits for a free slot, then runs fn.
func (wp *WorkerPool) Do(ctx context.Context, fn func() error) error {
	if err := wp.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer wp.sem.Release(1)
	return fn()
}

// TryDo runs fn only if a slot is free right now.
func (wp *WorkerPool) TryDo(fn func() error) error {
	if !wp.sem.TryAcquire(1) {
		return ErrPoolBusy
	}
	defer wp.sem.Release(1)
	return fn()
}

// ParallelMap applies fn to every item with at most maxConcurrency calls in
// flight. Results keep the input order. The first error cancels the context
// passed to the remaining calls and is returned.
func ParallelMap[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), maxConcurrency int) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = defaultWorkers
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// ParallelForEach executes a function on each item in parallel
func ParallelForEach[T any](ctx context.Context, items []T, fn func(context.Context, T) error, maxConcurrency int) error {
	_, err := ParallelMap(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	}, maxConcurrency)
	return err
}
