package tasks

import (
	"context"
	"sync"
	"sync/atomic"
)

// MapConcurrent applies fn to every element of items with at most limit calls in flight and
// returns the results in input order.
//
// Workers claim indices from a shared cursor, so each index is processed exactly once and the
// output position is fixed at claim time regardless of completion order. A limit below 1 is
// treated as 1. fn has no error return: callers fold failures into R.
func MapConcurrent[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T, index int) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	workers := max(limit, 1)
	workers = min(workers, len(items))

	var (
		cursor atomic.Int64
		wg     sync.WaitGroup
	)

	worker := func() {
		defer wg.Done()
		for {
			idx := int(cursor.Add(1) - 1)
			if idx >= len(items) {
				return
			}
			results[idx] = fn(ctx, items[idx], idx)
		}
	}

	wg.Add(workers)
	for range workers {
		go worker()
	}
	wg.Wait()

	return results
}
