package source

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FanOut fetches every selected source concurrently and returns one Result
// per key, in the same order as keys. Failures are isolated: a fetch that
// errors or exceeds timeout degrades to a Result with Used=false and Error
// set, and never affects its siblings or the overall call.
//
// The per-source timeout context is threaded into the fetch's HTTP request,
// so losing the race also aborts the underlying connection. The fan-out is
// unbounded; the selected set is at most the full registry, which is small.
func FanOut(ctx context.Context, reg *Registry, keys []Key, query string, timeout time.Duration) []Result {
	results := make([]Result, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key Key) {
			defer wg.Done()
			results[i] = fetchOne(ctx, reg, key, query, timeout)
		}(i, key)
	}
	wg.Wait()

	return results
}

func fetchOne(ctx context.Context, reg *Registry, key Key, query string, timeout time.Duration) Result {
	src, ok := reg.Lookup(key)
	if !ok {
		return Result{Key: key, Title: string(key), Used: false, Items: []Item{}, Error: "unknown source"}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := src.Fetch(fetchCtx, query)
	if err != nil {
		slog.Warn("source fetch failed", "source", key, "elapsed", time.Since(start), "error", err)
		return Result{Key: key, Title: src.Title(), Used: false, Items: []Item{}, Error: err.Error()}
	}
	slog.Debug("source fetch complete", "source", key, "elapsed", time.Since(start), "used", res.Used)
	return *res
}
