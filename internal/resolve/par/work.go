// Package par runs independent work items on a bounded pool with
// fail-fast semantics.
package par

import (
	"context"
	"sync"
)

// Do runs f on every item with at most n invocations in flight. The
// first error cancels the context passed to the remaining invocations
// and is returned once all in-flight work has drained. Each item is
// processed exactly once.
func Do[T any](ctx context.Context, n int, items []T, f func(context.Context, T) error) error {
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}
	if n == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	todo := make(chan T)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range todo {
				if ctx.Err() != nil {
					continue // drain without running
				}
				if err := f(ctx, item); err != nil {
					fail(err)
				}
			}
		}()
	}

	for _, item := range items {
		todo <- item
	}
	close(todo)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
