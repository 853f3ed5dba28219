package concurrency

import (
	"context"
	"sync"
)

type WorkerFn func(ctx context.Context, index int)

// ForEach calls fn once for every index in [0, tasks) on at most concurrency
// goroutines. With concurrency <= 1 the indexes run in order on the caller's
// goroutine. Dispatch stops when ctx is cancelled and ctx.Err() is returned;
// indexes already handed out still finish.
func ForEach(ctx context.Context, concurrency int, tasks int, fn WorkerFn) error {
	if concurrency <= 1 {
		for i := 0; i < tasks; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(ctx, i)
		}
		return nil
	}
	if concurrency > tasks {
		concurrency = tasks
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				fn(ctx, i)
			}
		}()
	}

	var err error
dispatch:
	for i := 0; i < tasks; i++ {
		select {
		case indexes <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		}
	}
	close(indexes)
	wg.Wait()
	return err
}
