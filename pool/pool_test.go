package pool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Process_BasicFunctionality(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(4))

	tasks := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	processFn := func(ctx context.Context, task int) (int, error) {
		return task * 2, nil
	}

	results, err := wp.Process(context.Background(), tasks, processFn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(results))
	}
	for i, task := range tasks {
		if results[i] != task*2 {
			t.Errorf("task %d: expected %d, got %d", i, task*2, results[i])
		}
	}
}

func TestWorkerPool_Process_EmptyTasks(t *testing.T) {
	wp := NewWorkerPool[int, int]()

	results, err := wp.Process(context.Background(), []int{}, func(ctx context.Context, task int) (int, error) {
		return task * 2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}

func TestWorkerPool_Process_PreservesOrder(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(8))

	tasks := make([]int, 64)
	for i := range tasks {
		tasks[i] = i
	}

	// Uneven delays scramble completion order.
	results, err := wp.Process(context.Background(), tasks, func(ctx context.Context, task int) (int, error) {
		time.Sleep(time.Duration(task%7) * time.Millisecond)
		return task, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range tasks {
		if results[i] != i {
			t.Errorf("slot %d holds %d, output order must match input order", i, results[i])
		}
	}
}

func TestWorkerPool_Process_FailFast(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(2))
	errTask := errors.New("task 3 failed")

	tasks := []int{0, 1, 2, 3, 4, 5}
	_, err := wp.Process(context.Background(), tasks, func(ctx context.Context, task int) (int, error) {
		if task == 3 {
			return 0, errTask
		}
		return task, nil
	})

	if !errors.Is(err, errTask) {
		t.Errorf("expected task error to surface unchanged, got %v", err)
	}
}

func TestWorkerPool_Process_PanicRecovery(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(2))

	_, err := wp.Process(context.Background(), []int{1}, func(ctx context.Context, task int) (int, error) {
		panic("task exploded")
	})

	if err == nil {
		t.Fatal("expected an error from the panicking task")
	}
	if !contains(err.Error(), "worker panic") || !contains(err.Error(), "task exploded") {
		t.Errorf("panic error should describe the panic, got %q", err.Error())
	}
}

func TestWorkerPool_ProcessSafe_CollectsAllOutcomes(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(4))
	errOdd := errors.New("odd task")

	tasks := []int{0, 1, 2, 3, 4, 5}
	results, err := wp.ProcessSafe(context.Background(), tasks, func(ctx context.Context, task int) (int, error) {
		if task%2 == 1 {
			return 0, errOdd
		}
		return task * 10, nil
	})

	if err != nil {
		t.Fatalf("unexpected run-level error: %v", err)
	}
	if len(results) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(results))
	}

	for i, res := range results {
		if res.Index != i {
			t.Errorf("slot %d carries index %d", i, res.Index)
		}
		if i%2 == 1 {
			if !errors.Is(res.Error, errOdd) {
				t.Errorf("slot %d: expected errOdd, got %v", i, res.Error)
			}
			continue
		}
		if res.Error != nil {
			t.Errorf("slot %d: unexpected error %v", i, res.Error)
		}
		if res.Value != i*10 {
			t.Errorf("slot %d: got %d, want %d", i, res.Value, i*10)
		}
	}
}

func TestWorkerPool_ProcessSafe_RunsEverythingDespiteErrors(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(2))

	var calls int32
	tasks := make([]int, 30)
	_, err := wp.ProcessSafe(context.Background(), tasks, func(ctx context.Context, task int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("always fails")
	})

	if err != nil {
		t.Fatalf("unexpected run-level error: %v", err)
	}
	if calls != 30 {
		t.Errorf("expected all 30 tasks attempted, got %d", calls)
	}
}

func TestWorkerPool_Retry_AttemptCount(t *testing.T) {
	wp := NewWorkerPool[int, int](
		WithWorkerCount(1),
		WithRetryPolicy(3, time.Millisecond),
	)

	var calls int32
	_, err := wp.Process(context.Background(), []int{1}, func(ctx context.Context, task int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("persistent failure")
	})

	if err == nil {
		t.Fatal("expected the final failure to surface")
	}
	if calls != 3 {
		t.Errorf("expected maxAttempts = 3 calls, got %d", calls)
	}
}

func TestWorkerPool_Retry_EventualSuccess(t *testing.T) {
	wp := NewWorkerPool[int, string](
		WithWorkerCount(1),
		WithRetryPolicy(4, time.Millisecond),
	)

	var calls int32
	results, err := wp.Process(context.Background(), []int{7}, func(ctx context.Context, task int) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errors.New("not yet")
		}
		return fmt.Sprintf("task-%d", task), nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0] != "task-7" {
		t.Errorf("got %q, want %q", results[0], "task-7")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestWorkerPool_Backoff_DelaysBetweenAttempts(t *testing.T) {
	initialDelay := 20 * time.Millisecond
	wp := NewWorkerPool[int, int](
		WithWorkerCount(1),
		WithRetryPolicy(3, initialDelay),
		WithBackoff(BackoffExponential, initialDelay, time.Second),
	)

	var mu sync.Mutex
	var stamps []time.Time
	wp.Process(context.Background(), []int{1}, func(ctx context.Context, task int) (int, error) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		return 0, errors.New("failure")
	})

	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}
	// Sleeps are 20ms then 40ms.
	if gap := stamps[1].Sub(stamps[0]); gap < initialDelay {
		t.Errorf("first retry gap %v, want >= %v", gap, initialDelay)
	}
	if gap := stamps[2].Sub(stamps[1]); gap < 2*initialDelay {
		t.Errorf("second retry gap %v, want >= %v", gap, 2*initialDelay)
	}
}

func TestWorkerPool_RateLimit_PacesTasks(t *testing.T) {
	// 10 tasks/sec with burst 1: 5 tasks need roughly 400ms+.
	wp := NewWorkerPool[int, int](
		WithWorkerCount(4),
		WithRateLimit(10, 1),
	)

	tasks := []int{1, 2, 3, 4, 5}
	start := time.Now()
	_, err := wp.Process(context.Background(), tasks, func(ctx context.Context, task int) (int, error) {
		return task, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("5 tasks at 10/sec finished in %v, rate limit not applied", elapsed)
	}
}

func TestWorkerPool_ProcessMap_KeysPreserved(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(4))

	tasks := map[string]int{"a": 1, "b": 2, "c": 3}
	results, err := wp.ProcessMap(context.Background(), tasks, func(ctx context.Context, task int) (int, error) {
		return task * 2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for key, task := range tasks {
		if results[key] != task*2 {
			t.Errorf("key %q: got %d, want %d", key, results[key], task*2)
		}
	}
}

func TestWorkerPool_ProcessMap_Empty(t *testing.T) {
	wp := NewWorkerPool[int, int]()
	results, err := wp.ProcessMap(context.Background(), map[string]int{}, func(ctx context.Context, task int) (int, error) {
		return task, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty map, got %d entries", len(results))
	}
}

func TestWorkerPool_ProcessStream_DrainsAllTasks(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(4))

	taskChan := make(chan int)
	go func() {
		defer close(taskChan)
		for i := 1; i <= 20; i++ {
			taskChan <- i
		}
	}()

	resultChan, errChan := wp.ProcessStream(context.Background(), taskChan, func(ctx context.Context, task int) (int, error) {
		return task * 2, nil
	})

	var results []int
	for r := range resultChan {
		results = append(results, r)
	}
	if err := <-errChan; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 20 {
		t.Fatalf("expected 20 results, got %d", len(results))
	}
	sort.Ints(results)
	for i, r := range results {
		if r != (i+1)*2 {
			t.Errorf("result %d: got %d, want %d", i, r, (i+1)*2)
		}
	}
}

func TestWorkerPool_ProcessStream_ErrorPropagates(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(2))
	errTask := errors.New("stream task failed")

	taskChan := make(chan int, 5)
	for i := 0; i < 5; i++ {
		taskChan <- i
	}
	close(taskChan)

	resultChan, errChan := wp.ProcessStream(context.Background(), taskChan, func(ctx context.Context, task int) (int, error) {
		if task == 3 {
			return 0, errTask
		}
		return task, nil
	})

	for range resultChan {
	}
	if err := <-errChan; !errors.Is(err, errTask) {
		t.Errorf("expected errTask, got %v", err)
	}
}

func TestWorkerPool_ContextCancellation(t *testing.T) {
	wp := NewWorkerPool[int, int](WithWorkerCount(2))
	ctx, cancel := context.WithCancel(context.Background())

	tasks := make([]int, 100)
	done := make(chan error, 1)
	go func() {
		_, err := wp.Process(ctx, tasks, func(ctx context.Context, task int) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return task, nil
		})
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Process did not return after cancellation")
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
