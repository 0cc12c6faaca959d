package asynckit

import (
	"sync"
	"time"
)

// Throttler caps how often a function runs. A call arriving after the
// interval has elapsed since the last run fires immediately (leading
// edge); calls arriving inside the interval collapse into exactly one
// trailing invocation, scheduled for the remainder of the interval and
// carrying the latest argument.
type Throttler[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func(T)
	lastRun  time.Time
	trailing *time.Timer
	pending  bool
	last     T
}

// Throttle wraps fn so it runs at most roughly once per interval.
func Throttle[T any](interval time.Duration, fn func(T)) *Throttler[T] {
	return &Throttler[T]{interval: interval, fn: fn}
}

// Call either runs fn(arg) immediately or folds arg into the pending
// trailing invocation.
func (t *Throttler[T]) Call(arg T) {
	t.mu.Lock()

	now := time.Now()
	if t.trailing == nil && now.Sub(t.lastRun) >= t.interval {
		t.lastRun = now
		t.mu.Unlock()
		t.fn(arg)
		return
	}

	t.last = arg
	t.pending = true
	if t.trailing == nil {
		remaining := t.interval - now.Sub(t.lastRun)
		if remaining < 0 {
			remaining = 0
		}
		t.trailing = time.AfterFunc(remaining, t.fire)
	}
	t.mu.Unlock()
}

// Cancel clears any scheduled trailing invocation without running fn.
// The leading-edge behavior of future calls is unaffected.
func (t *Throttler[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.trailing != nil {
		t.trailing.Stop()
		t.trailing = nil
	}
	t.pending = false
}

func (t *Throttler[T]) fire() {
	t.mu.Lock()
	if !t.pending {
		t.trailing = nil
		t.mu.Unlock()
		return
	}
	arg := t.last
	t.pending = false
	t.trailing = nil
	t.lastRun = time.Now()
	t.mu.Unlock()

	t.fn(arg)
}
