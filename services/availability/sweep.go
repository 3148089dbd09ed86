package availability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"reelcheck/internal/metrics"
	"reelcheck/models"
)

var (
	ErrSweepInProgress   = errors.New("availability sweep already in progress")
	ErrServerUnreachable = errors.New("media server unreachable")
)

// DefaultPacing is the pause between consecutive probes.
const DefaultPacing = 200 * time.Millisecond

// Options configures a Sweeper.
type Options struct {
	Pacing      time.Duration
	Concurrency int // values above 1 select the pooled runner
	// RetryFailedSooner skips the status write for Failed probes so the entry
	// stays stale and is picked up by the next cycle.
	RetryFailedSooner bool
	Now               func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Pacing < 0 {
		o.Pacing = 0
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Sweeper reconciles one watchlist's availability annotations. At most one
// sweep runs per Sweeper at a time.
type Sweeper struct {
	gate   ConnectivityChecker
	prober EntryProber
	writer StatusWriter
	runner probeRunner
	opts   Options

	running  atomic.Bool
	progress *progressBroadcaster
}

func NewSweeper(gate ConnectivityChecker, prober EntryProber, writer StatusWriter, opts Options) *Sweeper {
	opts = opts.withDefaults()

	var runner probeRunner = sequentialRunner{pause: opts.Pacing}
	if opts.Concurrency > 1 {
		runner = newPooledRunner(opts.Concurrency, opts.Pacing)
	}

	return &Sweeper{
		gate:     gate,
		prober:   prober,
		writer:   writer,
		runner:   runner,
		opts:     opts,
		progress: newProgressBroadcaster(),
	}
}

// Progress returns the current progress snapshot.
func (s *Sweeper) Progress() models.SweepProgress {
	return s.progress.snapshot()
}

// Subscribe streams progress snapshots until cancel is called.
func (s *Sweeper) Subscribe() (<-chan models.SweepProgress, func()) {
	return s.progress.subscribe()
}

// IsRunning reports whether a sweep currently holds the guard.
func (s *Sweeper) IsRunning() bool {
	return s.running.Load()
}

// Sweep probes entries in order and records each outcome. The media server is
// checked once up front; if it is unreachable nothing is probed or written.
// Duplicate entry ids are probed once and entries without an id are skipped.
// Errors are ErrSweepInProgress,
// ErrServerUnreachable, or the context error when cancelled mid-sweep.
func (s *Sweeper) Sweep(ctx context.Context, entries []models.WatchlistEntry) (report models.SweepReport, err error) {
	entries = dedupe(entries)
	if len(entries) == 0 {
		return models.SweepReport{Outcome: models.SweepOutcomeEmpty}, nil
	}

	if !s.running.CompareAndSwap(false, true) {
		return models.SweepReport{Outcome: models.SweepOutcomeBusy, Total: len(entries)}, ErrSweepInProgress
	}

	started := s.opts.Now()
	report.Total = len(entries)

	s.progress.publish(func(p *models.SweepProgress) {
		*p = models.SweepProgress{Total: len(entries), IsRunning: true, StartedAt: &started}
	})

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[availability] sweep aborted by panic: %v", r)
			report.Outcome = models.SweepOutcomeAborted
			err = fmt.Errorf("sweep panicked: %v", r)
		}
		s.finish(started, report)
		s.running.Store(false)
	}()

	if !s.gate.CheckConnectivity(ctx) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Outcome = models.SweepOutcomeCancelled
			return report, ctxErr
		}
		log.Printf("[availability] skipping sweep of %d entries: media server unreachable", len(entries))
		report.Outcome = models.SweepOutcomeUnreachable
		return report, ErrServerUnreachable
	}

	probe := func(ctx context.Context, entry models.WatchlistEntry) ProbeResult {
		return s.prober.Probe(ctx, entry.Title, entry.ReleaseYear)
	}
	commit := func(_ int, entry models.WatchlistEntry, result ProbeResult) {
		s.commit(ctx, entry, result, &report)
	}

	if runErr := s.runner.Run(ctx, entries, probe, commit); runErr != nil {
		log.Printf("[availability] sweep stopped after %d/%d entries: %v", report.Checked, report.Total, runErr)
		report.Outcome = models.SweepOutcomeCancelled
		return report, runErr
	}

	report.Outcome = models.SweepOutcomeCompleted
	return report, nil
}

func (s *Sweeper) commit(ctx context.Context, entry models.WatchlistEntry, result ProbeResult, report *models.SweepReport) {
	checkedAt := s.opts.Now()
	itemID, available := result.Match()

	if result.Kind() == ProbeFailed {
		report.Failed++
		log.Printf("[availability] probe failed for %q (%s): %v", entry.Title, entry.ID, result.Err())
	}
	if available {
		report.Available++
	}

	// With RetryFailedSooner a failed probe leaves the entry unstamped.
	skipWrite := result.Kind() == ProbeFailed && s.opts.RetryFailedSooner
	if !skipWrite {
		if err := s.writer.UpdateAvailability(ctx, entry.ID, itemID, available, checkedAt); err != nil {
			report.WriteFailures++
			metrics.StatusWriteFailures.Inc()
			log.Printf("[availability] failed to store result for %q (%s): %v", entry.Title, entry.ID, err)
		}
	}

	report.Checked++
	s.progress.publish(func(p *models.SweepProgress) {
		p.Current++
	})
}

func (s *Sweeper) finish(started time.Time, report models.SweepReport) {
	completed := s.opts.Now()
	s.progress.publish(func(p *models.SweepProgress) {
		p.IsRunning = false
		p.CompletedAt = &completed
	})
	metrics.LastSweepCompletion.Set(float64(completed.Unix()))
	if report.Outcome == models.SweepOutcomeCompleted {
		metrics.SweepDuration.Observe(completed.Sub(started).Seconds())
	}
}

// dedupe drops repeated ids. Entries without an id cannot be stored and are
// dropped as well.
func dedupe(entries []models.WatchlistEntry) []models.WatchlistEntry {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]models.WatchlistEntry, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.ID) == "" {
			log.Printf("[availability] skipping entry %q without an id", entry.Title)
			continue
		}
		if _, ok := seen[entry.ID]; ok {
			continue
		}
		seen[entry.ID] = struct{}{}
		unique = append(unique, entry)
	}
	return unique
}
