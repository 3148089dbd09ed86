package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"reelcheck/models"
)

type probeFunc func(ctx context.Context, entry models.WatchlistEntry) ProbeResult

type commitFunc func(index int, entry models.WatchlistEntry, result ProbeResult)

// probeRunner drives probes over entries. commit is always called from the
// Run goroutine in input order, so progress stays ordered whatever the
// probing strategy. Run returns ctx.Err() when it stops early.
type probeRunner interface {
	Run(ctx context.Context, entries []models.WatchlistEntry, probe probeFunc, commit commitFunc) error
}

// sequentialRunner keeps exactly one probe in flight and pauses between probes.
type sequentialRunner struct {
	pause time.Duration
}

func (r sequentialRunner) Run(ctx context.Context, entries []models.WatchlistEntry, probe probeFunc, commit commitFunc) error {
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := probe(ctx, entry)
		// A result that lands after cancellation is discarded.
		if err := ctx.Err(); err != nil {
			return err
		}
		commit(i, entry, result)

		if i < len(entries)-1 {
			if err := sleep(ctx, r.pause); err != nil {
				return err
			}
		}
	}
	return nil
}

// pooledRunner fans probes out to a bounded worker pool. Probe starts are
// spaced by a shared limiter so total request rate matches the sequential
// pacing; results are still committed in input order.
type pooledRunner struct {
	workers int
	limiter *rate.Limiter
}

func newPooledRunner(workers int, pacing time.Duration) pooledRunner {
	limit := rate.Inf
	if pacing > 0 {
		limit = rate.Every(pacing)
	}
	return pooledRunner{workers: workers, limiter: rate.NewLimiter(limit, 1)}
}

func (r pooledRunner) Run(ctx context.Context, entries []models.WatchlistEntry, probe probeFunc, commit commitFunc) error {
	results := make([]chan ProbeResult, len(entries))
	for i := range results {
		results[i] = make(chan ProbeResult, 1)
	}

	ctx, cancel := context.WithCancel(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p := pool.New().WithMaxGoroutines(r.workers)
		for i, entry := range entries {
			if ctx.Err() != nil {
				break
			}
			p.Go(func() {
				results[i] <- r.probeOne(ctx, entry, probe)
			})
		}
		p.Wait()
	}()
	defer func() {
		cancel()
		<-done
	}()

	for i, entry := range entries {
		var result ProbeResult
		select {
		case result = <-results[i]:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		commit(i, entry, result)
	}
	return nil
}

func (r pooledRunner) probeOne(ctx context.Context, entry models.WatchlistEntry, probe probeFunc) (result ProbeResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Failed(fmt.Errorf("probe panicked: %v", rec))
		}
	}()
	if err := r.limiter.Wait(ctx); err != nil {
		return Failed(err)
	}
	return probe(ctx, entry)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
