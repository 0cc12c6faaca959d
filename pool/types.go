package pool

import "context"

// ProcessFunc processes a single task in a WorkerPool. The context is
// the pool's processing context; returning an error fails the task (and,
// for the fail-fast entry points, the whole run).
type ProcessFunc[T any, R any] func(ctx context.Context, task T) (R, error)

// MapFunc processes one item for Map and MapSafe. index is the item's
// position in the input slice.
type MapFunc[T any, R any] func(ctx context.Context, item T, index int) (R, error)

// Result is the outcome of one task, carrying its original input
// position so ordered output can be reconstructed from any completion
// order.
type Result[R any] struct {
	Value R
	Error error
	Index int
}

type indexedTask[T any] struct {
	task  T
	index int
}
