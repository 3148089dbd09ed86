package availability

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"reelcheck/internal/metrics"
	"reelcheck/models"
)

// Trigger labels who started a sweep.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerAuto      Trigger = "auto"
	TriggerScheduled Trigger = "scheduled"
	TriggerSingle    Trigger = "single"
)

// Service owns one Sweeper per user and the lifetime of background sweeps.
type Service struct {
	gate   ConnectivityChecker
	prober EntryProber
	writer StatusWriter
	opts   Options

	mu       sync.Mutex
	sweepers map[string]*Sweeper

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(gate ConnectivityChecker, prober EntryProber, writer StatusWriter, opts Options) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		gate:     gate,
		prober:   prober,
		writer:   writer,
		opts:     opts.withDefaults(),
		sweepers: make(map[string]*Sweeper),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// sweeper returns the user's Sweeper, creating it on first use.
func (s *Service) sweeper(userID string) *Sweeper {
	userID = strings.TrimSpace(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	sw, ok := s.sweepers[userID]
	if !ok {
		sw = NewSweeper(s.gate, s.prober, s.writer, s.opts)
		s.sweepers[userID] = sw
	}
	return sw
}

// lookup returns the user's Sweeper without creating one.
func (s *Service) lookup(userID string) (*Sweeper, bool) {
	userID = strings.TrimSpace(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	sw, ok := s.sweepers[userID]
	return sw, ok
}

// CheckAllMovies sweeps every given entry regardless of staleness. It never
// returns an error: an unreachable server or a sweep already running is
// reported through the outcome.
func (s *Service) CheckAllMovies(ctx context.Context, userID string, entries []models.WatchlistEntry) models.SweepReport {
	return s.run(ctx, userID, entries, TriggerManual)
}

// CheckMovie probes and stores a single entry, typically one just added.
func (s *Service) CheckMovie(ctx context.Context, userID string, entry models.WatchlistEntry) models.SweepReport {
	return s.run(ctx, userID, []models.WatchlistEntry{entry}, TriggerSingle)
}

// Sweep runs a sweep for trigger synchronously.
func (s *Service) Sweep(ctx context.Context, userID string, entries []models.WatchlistEntry, trigger Trigger) models.SweepReport {
	return s.run(ctx, userID, entries, trigger)
}

// StartBackground runs a sweep on the service lifetime context. onDone, if
// set, is called with the report after the sweep ends. It returns false when
// the user already has a sweep running or the service is closed.
func (s *Service) StartBackground(userID string, entries []models.WatchlistEntry, trigger Trigger, onDone func(models.SweepReport)) bool {
	if s.ctx.Err() != nil || s.IsChecking(userID) {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		report := s.run(s.ctx, userID, entries, trigger)
		if onDone != nil && report.Outcome != models.SweepOutcomeBusy {
			onDone(report)
		}
	}()
	return true
}

// Progress returns the user's current sweep progress.
// Users that never swept get a zero snapshot.
func (s *Service) Progress(userID string) models.SweepProgress {
	sw, ok := s.lookup(userID)
	if !ok {
		return models.SweepProgress{}
	}
	return sw.Progress()
}

// Subscribe streams the user's sweep progress until cancel is called.
func (s *Service) Subscribe(userID string) (<-chan models.SweepProgress, func()) {
	return s.sweeper(userID).Subscribe()
}

// IsChecking reports whether a sweep is in progress for the user.
func (s *Service) IsChecking(userID string) bool {
	sw, ok := s.lookup(userID)
	return ok && sw.IsRunning()
}

// Close cancels background sweeps and waits for them to exit.
func (s *Service) Close(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) run(ctx context.Context, userID string, entries []models.WatchlistEntry, trigger Trigger) models.SweepReport {
	userID = strings.TrimSpace(userID)
	start := time.Now()

	report, err := s.sweeper(userID).Sweep(ctx, entries)
	report.Duration = time.Since(start).Round(time.Millisecond).String()
	metrics.SweepsTotal.WithLabelValues(string(trigger), string(report.Outcome)).Inc()

	switch {
	case err == nil:
		if report.Outcome == models.SweepOutcomeCompleted {
			log.Printf("[availability] %s sweep for %s: checked %d, available %d, failed %d, write failures %d (%s)",
				trigger, userID, report.Checked, report.Available, report.Failed, report.WriteFailures, report.Duration)
		}
	case errors.Is(err, ErrSweepInProgress):
		log.Printf("[availability] %s sweep for %s rejected: sweep already running", trigger, userID)
	case errors.Is(err, ErrServerUnreachable):
		// Already logged by the sweeper.
	default:
		log.Printf("[availability] %s sweep for %s ended early: %v", trigger, userID, err)
	}
	return report
}
