package convert

import (
	"sync"

	"github.com/npillmayer/fontpack/core/font"
)

// BatchItem is one named input buffer for a batch conversion.
type BatchItem struct {
	Name  string
	Input []byte
}

// BatchResult pairs an item's name with its conversion outcome. Err is a
// normalization failure; per-output errors live inside Result.
type BatchResult struct {
	Name   string
	Result *Result
	Err    error
}

// Batch transcodes many independent font buffers in parallel. Each
// conversion is a pure computation over its own input, so items are fanned
// out across at most `workers` goroutines without any shared mutable state
// (the memoization cache, if enabled, synchronizes itself). Results come
// back in item order.
func (cv *Converter) Batch(items []BatchItem, workers int, outputs ...font.Format) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}
	results := make([]BatchResult, len(items))
	todo := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range todo {
				item := items[idx]
				res, err := cv.Transcode(item.Input, outputs...)
				results[idx] = BatchResult{Name: item.Name, Result: res, Err: err}
			}
		}()
	}
	for idx := range items {
		todo <- idx
	}
	close(todo)
	wg.Wait()
	return results
}
