package optimizer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// runScenarios evaluates eval(1) .. eval(n) on a bounded worker pool and
// writes each result into the returned slice at index k-1. The pool is scoped
// to a single optimizer invocation; the first failing scenario cancels the
// rest.
func runScenarios[T any](ctx context.Context, n int, eval func(ctx context.Context, k int) (T, error)) ([]T, error) {
	results := make([]T, n)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())
	for k := 1; k <= n; k++ {
		k := k
		group.Go(func() error {
			result, err := eval(ctx, k)
			if err != nil {
				return err
			}
			results[k-1] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
