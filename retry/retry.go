// Package retry runs fallible operations repeatedly until they succeed
// or a retry budget is exhausted, sleeping with configurable backoff
// between attempts.
//
// # Basic Usage
//
//	err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
//	    return callFlakyService(ctx)
//	})
//
// # Value-Returning Operations
//
//	body, err := retry.DoValue(ctx, func(ctx context.Context, attempt int) ([]byte, error) {
//	    return fetchPage(ctx, url)
//	}, retry.WithRetries(5))
//
// # Classifying Errors
//
// Non-retryable failures can be cut short with a predicate, evaluated
// before any backoff sleep is scheduled:
//
//	retry.WithShouldRetry(func(err error, attempt int) bool {
//	    return !errors.Is(err, ErrBadRequest)
//	})
//
// Budget exhaustion surfaces the last error from the operation itself,
// unchanged, so callers can branch on its type. The only entry point
// that ever swallows an error is DoValueSafe, which trades the error for
// a nil result and says so in its name.
package retry

import (
	"context"
	"time"

	"asynckit/internal/backoff"
)

// Operation is a fallible unit of work. attempt is 0-indexed and counts
// every invocation, including the first.
type Operation func(ctx context.Context, attempt int) error

// ValueOperation is an Operation that produces a value on success.
type ValueOperation[T any] func(ctx context.Context, attempt int) (T, error)

// Do invokes op until it succeeds, the retry budget runs out, the
// ShouldRetry predicate rejects the error, or ctx is cancelled.
//
// With WithRetries(n) the operation runs at most n+1 times. Between
// attempts Do sleeps for the backoff delay of the current attempt
// (exponential by default: min(delay << attempt, maxDelay)). The final
// failure is returned exactly as the operation produced it.
func Do(ctx context.Context, op Operation, opts ...Option) error {
	cfg := newConfig(opts...)
	strategy := backoff.New(cfg.backoffType, cfg.delay, cfg.maxDelay, cfg.jitterFactor)

	var lastErr error
	for attempt := 0; attempt <= cfg.retries; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		// Classify before sleeping so a non-retryable error never
		// pays for a backoff delay.
		if cfg.shouldRetry != nil && !cfg.shouldRetry(lastErr, attempt) {
			return lastErr
		}

		if attempt == cfg.retries {
			break
		}

		if cfg.onRetry != nil {
			cfg.onRetry(attempt, lastErr)
		}

		delay := strategy.NextDelay(attempt, lastErr)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// DoValue is Do for operations that return a value. On failure the zero
// value is returned alongside the final error.
func DoValue[T any](ctx context.Context, op ValueOperation[T], opts ...Option) (T, error) {
	var (
		zero T
		val  T
	)
	err := Do(ctx, func(ctx context.Context, attempt int) error {
		var opErr error
		val, opErr = op(ctx, attempt)
		return opErr
	}, opts...)
	if err != nil {
		return zero, err
	}
	return val, nil
}

// DoValueSafe is DoValue with terminal failure converted to a nil
// result. It never returns an error; callers who need the error should
// use DoValue.
func DoValueSafe[T any](ctx context.Context, op ValueOperation[T], opts ...Option) *T {
	val, err := DoValue(ctx, op, opts...)
	if err != nil {
		return nil
	}
	return &val
}
