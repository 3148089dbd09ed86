package availability

import (
	"time"

	"reelcheck/models"
)

// DefaultStaleness is the recheck window for entries and curated lists.
const DefaultStaleness = 24 * time.Hour

// IsStale reports whether a check made at lastCheck needs redoing at now.
// A nil lastCheck has never been checked and is always stale.
func IsStale(lastCheck *time.Time, threshold time.Duration, now time.Time) bool {
	if lastCheck == nil {
		return true
	}
	return now.Sub(*lastCheck) > threshold
}

// FilterStale returns the stale entries, preserving order.
func FilterStale(entries []models.WatchlistEntry, threshold time.Duration, now time.Time) []models.WatchlistEntry {
	stale := make([]models.WatchlistEntry, 0, len(entries))
	for _, entry := range entries {
		if IsStale(entry.LastAvailabilityCheck, threshold, now) {
			stale = append(stale, entry)
		}
	}
	return stale
}
