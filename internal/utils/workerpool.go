package utils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/samber/mo"
)

// Step processes one item
type Step[T, R any] func(ctx context.Context, item T) (R, error)

// ResolveAll runs step over items with at most limit in flight and returns
// the results in input order. Items whose step failed or panicked, and items
// never started because ctx was cancelled, come back as None.
func ResolveAll[T, R any](ctx context.Context, items []T, limit int, step Step[T, R]) []mo.Option[R] {
	results := make([]mo.Option[R], len(items))
	if len(items) == 0 {
		return results
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	var (
		next int64 = -1
		wg   sync.WaitGroup
	)

	for w := 0; w < limit; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				idx := int(atomic.AddInt64(&next, 1))
				if idx >= len(items) {
					return
				}
				results[idx] = runStep(ctx, items[idx], step)
			}
		}()
	}

	wg.Wait()
	return results
}

func runStep[T, R any](ctx context.Context, item T, step Step[T, R]) (out mo.Option[R]) {
	defer func() {
		if r := recover(); r != nil {
			out = mo.None[R]()
		}
	}()
	r, err := step(ctx, item)
	if err != nil {
		return mo.None[R]()
	}
	return mo.Some(r)
}
