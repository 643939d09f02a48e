package stream

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Fan runs fn(ctx, items[i]) for every index of items with at most parallelism
// in-flight at once, collecting results in input order. It aborts remaining work
// and returns the first error encountered, matching the compactor's "any error
// aborts after releasing the lock" failure semantics (spec §4.2).
//
// Adapted from the teacher's TaskRunner (errgroup + a buffered channel used as a
// semaphore), expressed directly in terms of errgroup.SetLimit.
func Fan[T, R any](ctx context.Context, parallelism int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range items {
		i := i
		g.Go(func() error {
			r, err := fn(gctx, items[i])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FanEach is Fan without a return value, for side-effecting work (e.g. deleting
// chunks of processed mutation keys).
func FanEach[T any](ctx context.Context, parallelism int, items []T, fn func(ctx context.Context, item T) error) error {
	_, err := Fan(ctx, parallelism, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return err
}

// Chunk splits items into consecutive slices of at most size n.
func Chunk[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	var chunks [][]T
	for i := 0; i < len(items); i += n {
		end := i + n
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}
