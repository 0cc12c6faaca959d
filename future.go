package asynckit

import (
	"context"
	"sync"
)

// Future is a value that will be supplied later, settled exactly once
// from outside via Resolve or Reject. It is safe for concurrent use;
// any number of goroutines may wait on it.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture creates an unsettled future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve settles the future with a value. Calls after the first
// settlement, by either Resolve or Reject, are no-ops.
func (f *Future[T]) Resolve(val T) {
	f.once.Do(func() {
		f.val = val
		close(f.done)
	})
}

// Reject settles the future with an error. Calls after the first
// settlement, by either Resolve or Reject, are no-ops.
func (f *Future[T]) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the future settles or ctx is done. It returns the
// settled value or error; every call observes the same outcome.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the future settles, for use in
// select statements.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// TryGet returns the outcome without blocking. ok is false while the
// future is unsettled.
func (f *Future[T]) TryGet() (val T, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
