package concurrent

import (
	"context"
	"runtime"

	"github.com/zeusync/galaxy/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// Concurrent runs action for every element in its own goroutine and returns
// the first error once all of them finished.
func Concurrent[T any](i *sequence.Iterator[T], action func(T) error) error {
	var errGroup errgroup.Group
	for value := range i.Seq() {
		errGroup.Go(func() error { return action(value) })
	}
	return errGroup.Wait()
}

// Workers starts n goroutines, each receiving its worker index, and waits for all of them.
// The context passed to action is cancelled as soon as one worker fails.
// n <= 0 means one worker per CPU.
func Workers(ctx context.Context, n int, action func(ctx context.Context, worker int) error) error {
	n = WorkerCount(n)
	errGroup, ctx := errgroup.WithContext(ctx)
	for w := 0; w < n; w++ {
		errGroup.Go(func() error {
			return action(ctx, w)
		})
	}
	return errGroup.Wait()
}

// Batch splits items into at most workers contiguous chunks and processes each chunk
// in its own goroutine. Every element belongs to exactly one chunk.
func Batch[T any](ctx context.Context, items []T, workers int, action func(ctx context.Context, chunk []T) error) error {
	if len(items) == 0 {
		return ctx.Err()
	}
	workers = min(WorkerCount(workers), len(items))
	size := (len(items) + workers - 1) / workers

	errGroup, ctx := errgroup.WithContext(ctx)
	for idx := 0; idx < len(items); idx += size {
		chunk := items[idx:min(idx+size, len(items))]
		errGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return action(ctx, chunk)
		})
	}
	return errGroup.Wait()
}

// WorkerCount normalises a configured worker count.
func WorkerCount(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
