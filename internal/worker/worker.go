// Package worker holds the periodic driver and per-user fan-out shared by the
// reminder scheduler and the daily background jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Every calls fn on each interval tick until ctx is canceled. With runNow the
// first call happens immediately. fn runs synchronously, so returning after
// cancellation waits for the in-flight call to finish.
func Every(ctx context.Context, interval time.Duration, runNow bool, fn func(ctx context.Context)) {
	if runNow {
		fn(ctx)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// ForEach runs fn for every item with at most limit calls in flight.
// A failing or panicking item is reported to onErr and never affects the
// others. Once ctx is canceled no new items are started, while started ones
// run to completion on a context that ignores the cancellation.
func ForEach[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) error, onErr func(item T, err error)) {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	work := context.WithoutCancel(ctx)

	for _, it := range items {
		it := it
		if ctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				if err != nil && onErr != nil {
					onErr(it, err)
				}
			}()
			return fn(work, it)
		})
	}
	_ = g.Wait()
}
