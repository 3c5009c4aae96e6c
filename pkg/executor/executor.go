// Package executor fans plan application out across a bounded worker pool
// when a batch is large enough to be worth it. Completion order is not
// guaranteed; callers re-sort results by slug afterwards.
package executor

import (
	"context"
	"sync"
)

// Defaults for the pool knobs.
const (
	DefaultWorkers   = 4
	DefaultThreshold = 10
	DefaultBatchSize = 5
)

// Config tunes the pool. Zero values pick the defaults; Workers <= 1 or a
// batch under Threshold forces sequential execution.
type Config struct {
	Workers   int
	Threshold int
	BatchSize int
}

func (c Config) withDefaults() Config {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// Process applies fn to every item. Small batches run sequentially on the
// calling goroutine; large ones are partitioned into fixed-size batches
// consumed by Workers goroutines. Results arrive in no particular order.
// Cancellation is honored between items: remaining work is skipped and only
// completed results are returned.
func Process[T, R any](ctx context.Context, cfg Config, items []T, fn func(context.Context, T) R) []R {
	cfg = cfg.withDefaults()

	if len(items) < cfg.Threshold || cfg.Workers <= 1 {
		results := make([]R, 0, len(items))
		for _, item := range items {
			if ctx.Err() != nil {
				break
			}
			results = append(results, fn(ctx, item))
		}
		return results
	}

	batches := partition(items, cfg.BatchSize)
	work := make(chan []T)

	var mu sync.Mutex
	results := make([]R, 0, len(items))

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range work {
				for _, item := range batch {
					if ctx.Err() != nil {
						return
					}
					r := fn(ctx, item)
					mu.Lock()
					results = append(results, r)
					mu.Unlock()
				}
			}
		}()
	}

dispatch:
	for _, batch := range batches {
		select {
		case <-ctx.Done():
			break dispatch
		case work <- batch:
		}
	}
	close(work)
	wg.Wait()

	return results
}

func partition[T any](items []T, size int) [][]T {
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
