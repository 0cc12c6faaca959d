package pool

import (
	"fmt"
	"runtime"
	"time"

	"asynckit/internal/backoff"
)

func defaultConfig() *workerPoolConfig {
	return &workerPoolConfig{
		workerCount:         runtime.GOMAXPROCS(0),
		taskBuffer:          0, // set to workerCount if not specified
		maxAttempts:         1,
		initialDelay:        0,
		backoffType:         BackoffExponential,
		backoffInitialDelay: 100 * time.Millisecond,
		backoffMaxDelay:     5 * time.Second,
		backoffJitterFactor: 0.1,
	}
}

func createConfig(opts ...WorkerPoolOption) *workerPoolConfig {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.taskBuffer == 0 {
		cfg.taskBuffer = cfg.workerCount
	}

	// WithRetryPolicy's initial delay wins over the backoff default so
	// the common single-option path behaves as documented.
	if cfg.retryPolicySet {
		cfg.backoffInitialDelay = cfg.initialDelay
	}

	return cfg
}

// checkfuncs validates user-supplied hook functions against the pool's
// type parameters and returns typed wrappers for use by the workers.
// Hooks are registered through non-generic options, so the task and
// result types they were built with can only be checked here, at pool
// construction.
//
// Panics if a hook's recorded types do not match the pool's type
// parameters; the panic message names the offending option.
func checkfuncs[T any, R any](
	cfg *workerPoolConfig,
	expectedTaskType, expectedResultType string,
) (
	beforeTaskStart func(T),
	onTaskEnd func(T, R, error),
	onRetry func(T, int, error),
) {
	if cfg.beforeTaskStart != nil {
		if cfg.beforeTaskStartType != expectedTaskType {
			panic(fmt.Sprintf("WithBeforeTaskStart hook expects task type %s, but pool processes type %s",
				cfg.beforeTaskStartType, expectedTaskType))
		}
		beforeTaskStart = func(task T) {
			cfg.beforeTaskStart(task)
		}
	}

	if cfg.onTaskEnd != nil {
		if cfg.onTaskEndTaskType != expectedTaskType {
			panic(fmt.Sprintf("WithOnTaskEnd hook expects task type %s, but pool processes type %s",
				cfg.onTaskEndTaskType, expectedTaskType))
		}
		if cfg.onTaskEndResultType != expectedResultType {
			panic(fmt.Sprintf("WithOnTaskEnd hook expects result type %s, but pool produces type %s",
				cfg.onTaskEndResultType, expectedResultType))
		}
		onTaskEnd = func(task T, result R, err error) {
			cfg.onTaskEnd(task, result, err)
		}
	}

	if cfg.onRetry != nil {
		if cfg.onRetryType != expectedTaskType {
			panic(fmt.Sprintf("WithOnEachAttempt hook expects task type %s, but pool processes type %s",
				cfg.onRetryType, expectedTaskType))
		}
		onRetry = func(task T, attempt int, err error) {
			cfg.onRetry(task, attempt, err)
		}
	}

	return beforeTaskStart, onTaskEnd, onRetry
}

func newStrategy(cfg *workerPoolConfig) backoff.Strategy {
	return backoff.New(
		cfg.backoffType,
		cfg.backoffInitialDelay,
		cfg.backoffMaxDelay,
		cfg.backoffJitterFactor,
	)
}
