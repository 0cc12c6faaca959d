package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"asynckit/internal/backoff"
)

// WorkerPool is a generic, configurable worker pool. It processes tasks
// of type T into results of type R with a bounded number of workers,
// optional per-task retries with backoff, rate limiting, lifecycle
// hooks, and panic recovery.
//
// Fail-fast and best-effort processing are separate entry points
// (Process vs ProcessSafe) so the caller's error-handling intent is
// visible at the call site.
type WorkerPool[T any, R any] struct {
	workerCount int
	taskBuffer  int
	maxAttempts int
	strategy    backoff.Strategy
	rateLimiter *rate.Limiter

	beforeTaskStart func(T)
	onTaskEnd       func(T, R, error)
	onRetry         func(T, int, error)
}

// NewWorkerPool creates a new worker pool with the given options.
// Default configuration: workers = GOMAXPROCS, buffer = worker count,
// no retries, no rate limit.
func NewWorkerPool[T any, R any](opts ...WorkerPoolOption) *WorkerPool[T, R] {
	cfg := createConfig(opts...)

	var zeroT T
	var zeroR R
	expectedTaskType := fmt.Sprintf("%T", zeroT)
	expectedResultType := fmt.Sprintf("%T", zeroR)

	beforeTaskStart, onTaskEnd, onRetry := checkfuncs[T, R](cfg, expectedTaskType, expectedResultType)

	return &WorkerPool[T, R]{
		workerCount:     cfg.workerCount,
		taskBuffer:      cfg.taskBuffer,
		maxAttempts:     cfg.maxAttempts,
		strategy:        newStrategy(cfg),
		rateLimiter:     cfg.rateLimiter,
		beforeTaskStart: beforeTaskStart,
		onTaskEnd:       onTaskEnd,
		onRetry:         onRetry,
	}
}

// Process executes tasks concurrently and returns their results in
// input order. It is fail-fast: the first task error cancels the
// remaining work and is returned unchanged; completed results are
// discarded. An empty task slice resolves immediately without spawning
// workers.
func (wp *WorkerPool[T, R]) Process(
	ctx context.Context,
	tasks []T,
	processFn ProcessFunc[T, R],
) ([]R, error) {
	if len(tasks) == 0 {
		return []R{}, nil
	}

	collected, err := wp.run(ctx, tasks, processFn, true)
	if err != nil {
		return nil, err
	}

	results := make([]R, len(tasks))
	for i, res := range collected {
		if res.Error != nil {
			return nil, res.Error
		}
		results[i] = res.Value
	}
	return results, nil
}

// ProcessSafe executes tasks concurrently with best-effort semantics:
// every task runs regardless of other tasks' failures, and each slot of
// the returned slice carries the task's value or error together with
// its original index. The returned error reports only run-level
// problems (context cancellation, rate-limiter failure), never an
// individual task's.
func (wp *WorkerPool[T, R]) ProcessSafe(
	ctx context.Context,
	tasks []T,
	processFn ProcessFunc[T, R],
) ([]Result[R], error) {
	if len(tasks) == 0 {
		return []Result[R]{}, nil
	}
	return wp.run(ctx, tasks, processFn, false)
}

// run fans tasks out to workers and collects indexed results. failFast
// selects whether a task error aborts the run; it is internal plumbing
// behind the two named entry points.
func (wp *WorkerPool[T, R]) run(
	ctx context.Context,
	tasks []T,
	processFn ProcessFunc[T, R],
	failFast bool,
) ([]Result[R], error) {
	g, ctx := errgroup.WithContext(ctx)

	taskChan := make(chan indexedTask[T], wp.taskBuffer)
	resultChan := make(chan Result[R], len(tasks))

	numWorkers := min(wp.workerCount, len(tasks))
	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			return wp.worker(ctx, taskChan, resultChan, processFn, failFast)
		})
	}

	g.Go(func() error {
		defer close(taskChan)
		for idx, task := range tasks {
			select {
			case taskChan <- indexedTask[T]{index: idx, task: task}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	results := make([]Result[R], len(tasks))
	for i := range results {
		results[i].Index = i
	}

	var collectionWg sync.WaitGroup
	collectionWg.Add(1)
	go func() {
		defer collectionWg.Done()
		for result := range resultChan {
			if result.Index >= 0 && result.Index < len(results) {
				results[result.Index] = result
			}
		}
	}()

	err := g.Wait()
	close(resultChan)
	collectionWg.Wait()

	if err != nil {
		return results, err
	}
	return results, nil
}

// ProcessMap is Process for map inputs: results carry the same keys as
// their tasks. Fail-fast, like Process.
func (wp *WorkerPool[T, R]) ProcessMap(
	ctx context.Context,
	tasks map[string]T,
	processFn ProcessFunc[T, R],
) (map[string]R, error) {
	if len(tasks) == 0 {
		return map[string]R{}, nil
	}

	type keyedTask struct {
		task T
		key  string
	}

	type keyedResult struct {
		value R
		err   error
		key   string
	}

	g, ctx := errgroup.WithContext(ctx)

	taskChan := make(chan keyedTask, wp.taskBuffer)
	resultChan := make(chan keyedResult, len(tasks))

	numWorkers := min(wp.workerCount, len(tasks))
	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			for {
				select {
				case task, ok := <-taskChan:
					if !ok {
						return nil
					}
					if wp.rateLimiter != nil {
						if err := wp.rateLimiter.Wait(ctx); err != nil {
							return err
						}
					}
					if wp.beforeTaskStart != nil {
						wp.beforeTaskStart(task.task)
					}
					result, err := wp.processWithRecovery(ctx, task.task, processFn)
					if wp.onTaskEnd != nil {
						wp.onTaskEnd(task.task, result, err)
					}
					select {
					case resultChan <- keyedResult{key: task.key, value: result, err: err}:
					case <-ctx.Done():
						return ctx.Err()
					}
					if err != nil {
						return err
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}

	g.Go(func() error {
		defer close(taskChan)
		for key, task := range tasks {
			select {
			case taskChan <- keyedTask{key: key, task: task}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	results := make(map[string]R, len(tasks))
	var collectionErr error
	var collectionWg sync.WaitGroup
	collectionWg.Add(1)

	go func() {
		defer collectionWg.Done()
		for result := range resultChan {
			if result.err != nil {
				collectionErr = result.err
				continue
			}
			results[result.key] = result.value
		}
	}()

	err := g.Wait()
	close(resultChan)
	collectionWg.Wait()

	if err != nil {
		return results, err
	}
	if collectionErr != nil {
		return results, collectionErr
	}
	return results, nil
}

// ProcessStream processes tasks arriving on a channel instead of a
// slice. The caller must close taskChan to end the stream; the result
// channel is closed once every task has been processed, and errChan
// delivers at most one error.
func (wp *WorkerPool[T, R]) ProcessStream(
	ctx context.Context,
	taskChan <-chan T,
	processFn ProcessFunc[T, R],
) (resultChan <-chan R, errChan <-chan error) {
	resChan := make(chan R, wp.taskBuffer)
	errCh := make(chan error, 1)
	workChan := make(chan T, wp.taskBuffer)

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < wp.workerCount; i++ {
		g.Go(func() error {
			for {
				select {
				case task, ok := <-workChan:
					if !ok {
						return nil
					}
					if wp.rateLimiter != nil {
						if err := wp.rateLimiter.Wait(gctx); err != nil {
							return err
						}
					}
					if wp.beforeTaskStart != nil {
						wp.beforeTaskStart(task)
					}
					result, err := wp.processWithRecovery(gctx, task, processFn)
					if wp.onTaskEnd != nil {
						wp.onTaskEnd(task, result, err)
					}
					if err != nil {
						return err
					}
					select {
					case resChan <- result:
					case <-gctx.Done():
						return gctx.Err()
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	// The feeder watches the group context so a worker failure cannot
	// strand it blocked on a send.
	go func() {
		defer close(workChan)
		for t := range taskChan {
			select {
			case <-gctx.Done():
				return
			case workChan <- t:
			}
		}
	}()

	go func() {
		defer close(resChan)
		defer close(errCh)
		if err := g.Wait(); err != nil {
			errCh <- err
		}
	}()

	return resChan, errCh
}

// worker processes tasks from the task channel until it is closed.
// With failFast a task error stops the worker and cancels the group;
// otherwise the error travels in the task's Result and the worker moves
// on.
func (wp *WorkerPool[T, R]) worker(
	ctx context.Context,
	taskChan <-chan indexedTask[T],
	resultChan chan<- Result[R],
	processFn ProcessFunc[T, R],
	failFast bool,
) error {
	for {
		select {
		case task, ok := <-taskChan:
			if !ok {
				return nil
			}
			if wp.rateLimiter != nil {
				if err := wp.rateLimiter.Wait(ctx); err != nil {
					return err
				}
			}
			if wp.beforeTaskStart != nil {
				wp.beforeTaskStart(task.task)
			}
			result, err := wp.processWithRecovery(ctx, task.task, processFn)
			if wp.onTaskEnd != nil {
				wp.onTaskEnd(task.task, result, err)
			}
			select {
			case resultChan <- Result[R]{Value: result, Error: err, Index: task.index}:
			case <-ctx.Done():
				return ctx.Err()
			}
			if err != nil && failFast {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// processWithRecovery executes a task with panic recovery and retry
// logic. A panic is converted to an error carrying the stack trace so a
// single task cannot crash the pool. Retries sleep per the pool's
// backoff strategy, under the context.
func (wp *WorkerPool[T, R]) processWithRecovery(
	ctx context.Context,
	task T,
	processFn ProcessFunc[T, R],
) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("worker panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	maxAttempts := max(wp.maxAttempts, 1)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := wp.strategy.NextDelay(attempt-1, err)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return result, ctx.Err()
				}
			}
		}

		result, err = processFn(ctx, task)
		if err == nil {
			return result, nil
		}

		if wp.onRetry != nil && attempt < maxAttempts-1 {
			wp.onRetry(task, attempt+1, err)
		}
	}

	return result, err
}
