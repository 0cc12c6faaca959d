// Package pool provides bounded-concurrency processing of task
// collections, from a one-call ordered Map to a fully configurable
// generic worker pool.
//
// # Map and MapSafe
//
// For the common case of running a function over a slice with a
// concurrency cap, use the package-level functions:
//
//	results, err := pool.Map(ctx, urls, fetch, 8)       // fail-fast
//	slots, _ := pool.MapSafe(ctx, urls, fetch, 8)       // best-effort, nil = failed
//
// Both guarantee one output slot per input item, in input order,
// regardless of completion order. Map aborts the batch on the first
// error and returns it unchanged; MapSafe isolates each item's failure
// to its own slot. The two behaviors are separate entry points on
// purpose: the call site shows which error-handling contract is in
// effect.
//
// # WorkerPool
//
// WorkerPool[T, R] adds per-task retries with backoff, rate limiting,
// lifecycle hooks, and panic recovery, configured via functional
// options:
//
//	wp := pool.NewWorkerPool[string, Report](
//	    pool.WithWorkerCount(8),
//	    pool.WithRetryPolicy(3, 100*time.Millisecond),
//	    pool.WithRateLimit(50, 10),
//	)
//	results, err := wp.Process(ctx, tasks, build)
//
// Processing modes:
//
//   - Process: slice in, ordered results out, fail-fast
//   - ProcessSafe: slice in, one Result per task (value or error), best-effort
//   - ProcessMap: map in, map out with matching keys
//   - ProcessStream: channel in, channel out, for dynamic workloads
//
// # Degenerate Inputs
//
// Empty inputs resolve immediately without spawning workers. Map and
// MapSafe reject a concurrency below 1 with ErrNoWorkers rather than
// hang; WithWorkerCount ignores non-positive values and keeps the
// GOMAXPROCS default.
//
// # Error Handling
//
// Task errors propagate unchanged through the fail-fast entry points so
// callers can branch on error type. Worker panics are recovered and
// converted to errors carrying the stack trace.
package pool
