package availability

//go:generate mockgen -source=interfaces.go -destination=mocks_test.go -package=availability

import (
	"context"
	"time"

	"reelcheck/models"
	"reelcheck/services/jellyfin"
)

// MediaServer is the part of the Jellyfin API the reconciliation process needs.
type MediaServer interface {
	Ping(ctx context.Context) error
	SearchMovies(ctx context.Context, title string, year int) ([]jellyfin.Movie, error)
}

// ConnectivityChecker gates a sweep on the media server being reachable.
type ConnectivityChecker interface {
	CheckConnectivity(ctx context.Context) bool
}

// EntryProber resolves one title against the media server library.
type EntryProber interface {
	Probe(ctx context.Context, title string, year int) ProbeResult
}

// StatusWriter persists one probe outcome. Implementations must set the item
// id, availability flag and check time in a single atomic update.
type StatusWriter interface {
	UpdateAvailability(ctx context.Context, entryID, itemID string, available bool, checkedAt time.Time) error
}

// EntryLoader reloads a user's watchlist from the record store.
type EntryLoader interface {
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
}
