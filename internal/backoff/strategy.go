package backoff

import "time"

// Strategy computes the delay to wait before a retry attempt.
type Strategy interface {
	// NextDelay returns the delay before the next retry attempt.
	// attempt is 0-indexed (0 = first retry after the initial failure).
	// lastErr is available for adaptive strategies; the built-in
	// strategies ignore it.
	NextDelay(attempt int, lastErr error) time.Duration

	// Reset clears any internal state. Stateless strategies treat this
	// as a no-op; the decorrelated strategy rewinds to its initial delay.
	Reset()
}

// Type selects a backoff algorithm.
type Type int

const (
	// Exponential doubles the delay on each attempt, capped at a maximum.
	Exponential Type = iota
	// Jittered applies random jitter around the exponential delay to
	// avoid synchronized retries.
	Jittered
	// Decorrelated implements AWS-style decorrelated jitter, where each
	// delay is drawn from random(initial, prev*3) capped at the maximum.
	Decorrelated
)

// New constructs the strategy for the given type. jitterFactor is only
// consulted by the Jittered strategy and is clamped to [0, 1].
func New(t Type, initial, max time.Duration, jitterFactor float64) Strategy {
	switch t {
	case Jittered:
		return newJittered(initial, max, jitterFactor)
	case Decorrelated:
		return newDecorrelated(initial, max)
	default:
		return newExponential(initial, max)
	}
}
