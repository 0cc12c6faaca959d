package pool

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"asynckit/internal/backoff"
)

// BackoffType selects the delay-growth algorithm used between retry
// attempts of a failing task.
type BackoffType = backoff.Type

const (
	// BackoffExponential doubles the delay each attempt, capped at the
	// configured maximum (default).
	BackoffExponential = backoff.Exponential
	// BackoffJittered adds random jitter to the exponential delay.
	BackoffJittered = backoff.Jittered
	// BackoffDecorrelated uses AWS-style decorrelated jitter.
	BackoffDecorrelated = backoff.Decorrelated
)

// WorkerPoolOption is a functional option for configuring the worker pool.
type WorkerPoolOption func(*workerPoolConfig)

type workerPoolConfig struct {
	workerCount    int
	taskBuffer     int
	maxAttempts    int
	initialDelay   time.Duration
	retryPolicySet bool

	backoffType         backoff.Type
	backoffInitialDelay time.Duration
	backoffMaxDelay     time.Duration
	backoffJitterFactor float64

	rateLimiter *rate.Limiter

	beforeTaskStart     func(any)
	beforeTaskStartType string
	onTaskEnd           func(any, any, error)
	onTaskEndTaskType   string
	onTaskEndResultType string
	onRetry             func(any, int, error)
	onRetryType         string
}

// WithWorkerCount sets the number of concurrent workers.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(count int) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if count > 0 {
			cfg.workerCount = count
		}
	}
}

// WithTaskBuffer sets the buffer size for the task channel.
// A larger buffer can improve throughput but uses more memory.
// If not specified, defaults to the number of workers.
func WithTaskBuffer(size int) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if size >= 0 {
			cfg.taskBuffer = size
		}
	}
}

// WithRetryPolicy enables per-task retries. maxAttempts is the total
// number of attempts for each task; initialDelay is the delay before
// the first retry, growing per the configured backoff for later ones.
// Without this option every task runs exactly once.
func WithRetryPolicy(maxAttempts int, initialDelay time.Duration) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if maxAttempts > 0 {
			cfg.maxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			cfg.initialDelay = initialDelay
			cfg.retryPolicySet = true
		}
	}
}

// WithBackoff selects the backoff algorithm and its delay bounds for
// retries. If not specified, exponential backoff between 100ms and 5s
// is used (with the initial delay overridden by WithRetryPolicy).
func WithBackoff(t BackoffType, initialDelay, maxDelay time.Duration) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		cfg.backoffType = t
		if initialDelay > 0 {
			cfg.backoffInitialDelay = initialDelay
		}
		if maxDelay > 0 {
			cfg.backoffMaxDelay = maxDelay
		}
	}
}

// WithJitterFactor sets the jitter spread for BackoffJittered, clamped
// to [0, 1]. Ignored by the other backoff types.
func WithJitterFactor(f float64) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		cfg.backoffJitterFactor = f
	}
}

// WithRateLimit sets a rate limiter for controlling task throughput.
// tasksPerSecond specifies the maximum number of tasks to process per second.
// burst specifies the maximum number of tasks that can be processed in a burst.
// This is useful for preventing overwhelming external services or APIs.
// If not specified, no rate limiting is applied.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithBeforeTaskStart registers a hook invoked just before each task is
// processed. The hook's task type must match the pool's task type;
// NewWorkerPool panics otherwise.
func WithBeforeTaskStart[T any](fn func(task T)) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		var zero T
		cfg.beforeTaskStart = func(task any) {
			fn(task.(T))
		}
		cfg.beforeTaskStartType = fmt.Sprintf("%T", zero)
	}
}

// WithOnTaskEnd registers a hook invoked after each task finishes, with
// the task, its result, and the error (nil on success). The hook's
// types must match the pool's type parameters; NewWorkerPool panics
// otherwise.
func WithOnTaskEnd[T any, R any](fn func(task T, result R, err error)) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		var zeroT T
		var zeroR R
		cfg.onTaskEnd = func(task, result any, err error) {
			fn(task.(T), result.(R), err)
		}
		cfg.onTaskEndTaskType = fmt.Sprintf("%T", zeroT)
		cfg.onTaskEndResultType = fmt.Sprintf("%T", zeroR)
	}
}

// WithOnEachAttempt registers a hook invoked before each retry of a
// failed task, with the 1-indexed attempt that failed and its error.
// The hook's task type must match the pool's task type; NewWorkerPool
// panics otherwise.
func WithOnEachAttempt[T any](fn func(task T, attempt int, err error)) WorkerPoolOption {
	return func(cfg *workerPoolConfig) {
		var zero T
		cfg.onRetry = func(task any, attempt int, err error) {
			fn(task.(T), attempt, err)
		}
		cfg.onRetryType = fmt.Sprintf("%T", zero)
	}
}
