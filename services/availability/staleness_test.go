package availability

import (
	"testing"
	"time"

	"reelcheck/models"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name      string
		lastCheck *time.Time
		threshold time.Duration
		want      bool
	}{
		{name: "never checked", lastCheck: nil, threshold: DefaultStaleness, want: true},
		{name: "never checked with huge threshold", lastCheck: nil, threshold: 1000 * time.Hour, want: true},
		{name: "25h old", lastCheck: at(25 * time.Hour), threshold: DefaultStaleness, want: true},
		{name: "23h old", lastCheck: at(23 * time.Hour), threshold: DefaultStaleness, want: false},
		{name: "exactly at threshold", lastCheck: at(24 * time.Hour), threshold: DefaultStaleness, want: false},
		{name: "just checked", lastCheck: at(0), threshold: DefaultStaleness, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.lastCheck, tt.threshold, now); got != tt.want {
				t.Fatalf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterStaleKeepsOrder(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour)
	old := now.Add(-48 * time.Hour)

	entries := []models.WatchlistEntry{
		{ID: "1", LastAvailabilityCheck: &fresh},
		{ID: "2", LastAvailabilityCheck: nil},
		{ID: "3", LastAvailabilityCheck: &fresh},
		{ID: "4", LastAvailabilityCheck: &old},
	}

	stale := FilterStale(entries, DefaultStaleness, now)
	if len(stale) != 2 || stale[0].ID != "2" || stale[1].ID != "4" {
		t.Fatalf("unexpected stale entries: %+v", stale)
	}
}
