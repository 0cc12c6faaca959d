package asynckit

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of calls into a single trailing-edge
// invocation. Each Call restarts the quiet window; once the window
// elapses with no further calls, fn runs exactly once with the argument
// of the most recent call.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending bool
	last    T
}

// Debounce wraps fn with a trailing-edge debounce of the given delay.
func Debounce[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Call records arg as the latest argument and restarts the quiet
// window.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = arg
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Cancel clears any pending invocation without running fn. A later Call
// starts a fresh window.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
}

// Flush runs a pending invocation immediately instead of waiting out
// the window. No-op if nothing is pending.
func (d *Debouncer[T]) Flush() {
	d.fire()
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	arg := d.last
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	// Run outside the lock so fn may call back into the debouncer.
	d.fn(arg)
}
