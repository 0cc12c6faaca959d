package retry

import (
	"time"

	"asynckit/internal/backoff"
)

const (
	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 3
	// DefaultDelay is the base delay before the first retry.
	DefaultDelay = 500 * time.Millisecond
	// DefaultMaxDelay caps the computed backoff delay.
	DefaultMaxDelay = 5 * time.Second
)

// Backoff selects the delay-growth algorithm between attempts.
type Backoff = backoff.Type

const (
	// BackoffExponential doubles the delay each attempt, capped at the
	// maximum (default).
	BackoffExponential = backoff.Exponential
	// BackoffJittered adds random jitter around the exponential delay.
	BackoffJittered = backoff.Jittered
	// BackoffDecorrelated uses AWS-style decorrelated jitter.
	BackoffDecorrelated = backoff.Decorrelated
)

// Option is a functional option for Do, DoValue, and DoValueSafe.
type Option func(*config)

type config struct {
	retries      int
	delay        time.Duration
	maxDelay     time.Duration
	backoffType  backoff.Type
	jitterFactor float64
	shouldRetry  func(err error, attempt int) bool
	onRetry      func(attempt int, err error)
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		retries:      DefaultRetries,
		delay:        DefaultDelay,
		maxDelay:     DefaultMaxDelay,
		backoffType:  backoff.Exponential,
		jitterFactor: 0.1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxDelay < cfg.delay {
		cfg.maxDelay = cfg.delay
	}
	return cfg
}

// WithRetries sets the maximum number of retries after the first
// attempt, so the operation runs at most n+1 times. Zero disables
// retrying entirely. Negative values are ignored.
func WithRetries(n int) Option {
	return func(cfg *config) {
		if n >= 0 {
			cfg.retries = n
		}
	}
}

// WithDelay sets the base delay before the first retry. Subsequent
// delays grow according to the configured backoff. Non-positive values
// are ignored.
func WithDelay(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.delay = d
		}
	}
}

// WithMaxDelay caps the computed backoff delay. If the cap is below the
// base delay it is raised to match it. Non-positive values are ignored.
func WithMaxDelay(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.maxDelay = d
		}
	}
}

// WithBackoff selects the backoff algorithm. The default is
// BackoffExponential.
func WithBackoff(t Backoff) Option {
	return func(cfg *config) {
		cfg.backoffType = t
	}
}

// WithJitterFactor sets the jitter spread for BackoffJittered, clamped
// to [0, 1]. Ignored by the other backoff types.
func WithJitterFactor(f float64) Option {
	return func(cfg *config) {
		cfg.jitterFactor = f
	}
}

// WithShouldRetry sets a predicate consulted after every failure,
// before any sleep. Returning false stops the run immediately and the
// error is returned as-is. The default retries every error.
func WithShouldRetry(fn func(err error, attempt int) bool) Option {
	return func(cfg *config) {
		cfg.shouldRetry = fn
	}
}

// WithOnRetry sets a hook invoked before each backoff sleep with the
// 0-indexed attempt that just failed and its error. Useful for logging
// and metrics. The hook runs to completion before the sleep starts.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(cfg *config) {
		cfg.onRetry = fn
	}
}
