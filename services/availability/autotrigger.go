package availability

import (
	"context"
	"log"
	"time"

	"reelcheck/models"
)

// ReloadFunc receives a user's watchlist as re-read after a background sweep.
type ReloadFunc func(userID string, entries []models.WatchlistEntry)

// connectivityMemory exposes the last connectivity result without a new check.
type connectivityMemory interface {
	LastKnown() (reachable, known bool)
}

// AutoTrigger starts a background sweep of stale entries whenever a
// watchlist is loaded. It holds no timer of its own.
type AutoTrigger struct {
	service   *Service
	gate      connectivityMemory
	loader    EntryLoader
	threshold time.Duration
	enabled   bool
	now       func() time.Time
	onReload  ReloadFunc
}

// AutoTriggerConfig configures an AutoTrigger.
type AutoTriggerConfig struct {
	Threshold time.Duration
	Enabled   bool
	Now       func() time.Time
	OnReload  ReloadFunc
}

func NewAutoTrigger(service *Service, gate connectivityMemory, loader EntryLoader, cfg AutoTriggerConfig) *AutoTrigger {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultStaleness
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AutoTrigger{
		service:   service,
		gate:      gate,
		loader:    loader,
		threshold: cfg.Threshold,
		enabled:   cfg.Enabled,
		now:       cfg.Now,
		onReload:  cfg.OnReload,
	}
}

// OnWatchlistLoaded filters entries by staleness and, if any are stale and
// the media server was last seen reachable (or has not been checked yet),
// sweeps them in the background. It returns the number of entries queued.
func (a *AutoTrigger) OnWatchlistLoaded(userID string, entries []models.WatchlistEntry) int {
	if a == nil || !a.enabled || len(entries) == 0 {
		return 0
	}
	if reachable, known := a.gate.LastKnown(); known && !reachable {
		return 0
	}

	stale := FilterStale(entries, a.threshold, a.now())
	if len(stale) == 0 {
		return 0
	}

	started := a.service.StartBackground(userID, stale, TriggerAuto, func(report models.SweepReport) {
		if report.Outcome != models.SweepOutcomeCompleted && report.Outcome != models.SweepOutcomeCancelled {
			return
		}
		a.reload(userID)
	})
	if !started {
		return 0
	}
	return len(stale)
}

// StaleEntries returns the subset of entries due for a recheck.
func (a *AutoTrigger) StaleEntries(entries []models.WatchlistEntry) []models.WatchlistEntry {
	return FilterStale(entries, a.threshold, a.now())
}

func (a *AutoTrigger) reload(userID string) {
	if a.onReload == nil || a.loader == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := a.loader.List(ctx, userID)
	if err != nil {
		log.Printf("[availability] reload after sweep failed for %s: %v", userID, err)
		return
	}
	a.onReload(userID, entries)
}
