package pool

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrNoWorkers is returned when Map or MapSafe is asked to run with a
// concurrency below 1. Rejecting up front is deliberate: zero workers
// over a non-empty input could never settle.
var ErrNoWorkers = errors.New("pool: concurrency must be at least 1")

// Map runs fn over every item with at most `concurrency` in-flight
// calls and returns one result per item, in input order, regardless of
// completion order.
//
// min(concurrency, len(items)) workers claim indices from a shared
// atomic cursor and write each result into its item's slot, so no index
// is processed twice and no slot is written twice.
//
// Map is fail-fast: the first error cancels the remaining work and is
// returned unchanged, discarding completed results. Use MapSafe to keep
// going past individual failures.
//
// An empty items slice resolves immediately to an empty slice without
// invoking fn.
func Map[T any, R any](
	ctx context.Context,
	items []T,
	fn MapFunc[T, R],
	concurrency int,
) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}
	if concurrency < 1 {
		return nil, ErrNoWorkers
	}

	results := make([]R, len(items))
	var cursor atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < min(concurrency, len(items)); i++ {
		g.Go(func() error {
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= len(items) {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				res, err := fn(ctx, items[idx], idx)
				if err != nil {
					return err
				}
				results[idx] = res
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MapSafe is the best-effort counterpart of Map: every item is
// processed even when others fail, and a failed item simply leaves a
// nil slot in the output. The slice always has one entry per input
// item, in input order.
//
// The returned error only reports problems with the run itself
// (ErrNoWorkers, context cancellation), never an individual item's
// failure.
func MapSafe[T any, R any](
	ctx context.Context,
	items []T,
	fn MapFunc[T, R],
	concurrency int,
) ([]*R, error) {
	if len(items) == 0 {
		return []*R{}, nil
	}
	if concurrency < 1 {
		return nil, ErrNoWorkers
	}

	results := make([]*R, len(items))
	var cursor atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < min(concurrency, len(items)); i++ {
		g.Go(func() error {
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= len(items) {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				res, err := fn(ctx, items[idx], idx)
				if err == nil {
					results[idx] = &res
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
