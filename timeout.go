package asynckit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is wrapped by the error Timeout returns when the deadline
// wins the race. Match it with errors.Is.
var ErrTimeout = errors.New("operation timed out")

// Timeout runs fn in its own goroutine and races its completion against
// a timer. Whichever settles first determines the outcome; the timer is
// stopped on every path. msg names the operation in the timeout error.
//
// Losing the race does not stop fn: it keeps running in the background
// and its eventual result is discarded (the result channel is buffered,
// so the abandoned goroutine does not leak blocked).
func Timeout[T any](
	ctx context.Context,
	d time.Duration,
	msg string,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	type outcome struct {
		val T
		err error
	}
	resCh := make(chan outcome, 1)
	go func() {
		val, err := fn(ctx)
		resCh <- outcome{val: val, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case out := <-resCh:
		return out.val, out.err
	case <-timer.C:
		if msg == "" {
			return zero, fmt.Errorf("%w after %v", ErrTimeout, d)
		}
		return zero, fmt.Errorf("%s: %w after %v", msg, ErrTimeout, d)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TimeoutSafe is Timeout with every failure, the deadline included,
// converted to a nil result.
func TimeoutSafe[T any](
	ctx context.Context,
	d time.Duration,
	msg string,
	fn func(ctx context.Context) (T, error),
) *T {
	val, err := Timeout(ctx, d, msg, fn)
	if err != nil {
		return nil
	}
	return &val
}
