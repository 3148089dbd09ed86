package lists

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"reelcheck/internal/database"
	"reelcheck/internal/metrics"
	"reelcheck/models"
	"reelcheck/services/availability"
	"reelcheck/utils/similarity"
)

const ProviderMDBList = "mdblist"

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("curated list not found")
	ErrAlreadyAdded   = errors.New("list already attached")
)

// Store persists curated lists. *database.ListRepository satisfies it.
type Store interface {
	Create(ctx context.Context, list *models.CuratedList) error
	Get(ctx context.Context, userID, id string) (*models.CuratedList, error)
	ListByUser(ctx context.Context, userID string) ([]models.CuratedList, error)
	RecordSync(ctx context.Context, id string, syncedAt time.Time, itemsSynced int, syncErr error) error
	ListUserIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// Watchlist is the slice of the watchlist service a sync writes through.
type Watchlist interface {
	Add(ctx context.Context, userID string, input models.WatchlistUpsert) (models.WatchlistEntry, bool, error)
	ListBySyncSource(ctx context.Context, userID, source string) ([]models.WatchlistEntry, error)
	Remove(ctx context.Context, userID, id string) (bool, error)
}

// Fetcher returns the items of an external list.
type Fetcher interface {
	FetchList(ctx context.Context, externalID string) ([]ListItem, error)
}

// SyncResult summarises one list sync.
type SyncResult struct {
	ListID  string `json:"listId"`
	Fetched int    `json:"fetched"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// Service mirrors curated lists into user watchlists.
type Service struct {
	store     Store
	watchlist Watchlist
	fetcher   Fetcher
	threshold time.Duration
	now       func() time.Time
}

// NewService wires a list service with the MDBList client.
func NewService(store Store, watchlist Watchlist, apiKey string, threshold time.Duration) *Service {
	return NewServiceWithFetcher(store, watchlist, newMDBListClient(apiKey, nil), threshold)
}

func NewServiceWithFetcher(store Store, watchlist Watchlist, fetcher Fetcher, threshold time.Duration) *Service {
	if threshold <= 0 {
		threshold = availability.DefaultStaleness
	}
	return &Service{
		store:     store,
		watchlist: watchlist,
		fetcher:   fetcher,
		threshold: threshold,
		now:       time.Now,
	}
}

// SetHTTPClient replaces the HTTP client of the built-in MDBList fetcher.
func (s *Service) SetHTTPClient(c *http.Client) {
	if f, ok := s.fetcher.(*mdblistClient); ok && c != nil {
		f.httpClient = c
	}
}

// Attach records a new MDBList list for the user. listURL may be a full
// mdblist.com/lists/ URL or a bare list identifier.
func (s *Service) Attach(ctx context.Context, userID, listURL, name string) (models.CuratedList, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.CuratedList{}, ErrUserIDRequired
	}
	externalID, err := ParseListURL(listURL)
	if err != nil {
		return models.CuratedList{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = externalID
	}

	list := &models.CuratedList{UserID: userID, Provider: ProviderMDBList, ExternalID: externalID, Name: name}
	if err := s.store.Create(ctx, list); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.CuratedList{}, ErrAlreadyAdded
		}
		return models.CuratedList{}, err
	}
	log.Printf("[lists] attached %s list %q for user %s", list.Provider, list.ExternalID, userID)
	return *list, nil
}

// List returns the user's curated lists.
func (s *Service) List(ctx context.Context, userID string) ([]models.CuratedList, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	lists, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []models.CuratedList{}
	}
	return lists, nil
}

// UserIDs returns every user with at least one attached list.
func (s *Service) UserIDs(ctx context.Context) ([]string, error) {
	return s.store.ListUserIDs(ctx)
}

// Detach removes a list. Entries it imported stay on the watchlist.
func (s *Service) Detach(ctx context.Context, userID, id string) (bool, error) {
	userID, id = strings.TrimSpace(userID), strings.TrimSpace(id)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	if id == "" {
		return false, ErrIDRequired
	}
	return s.store.Delete(ctx, userID, id)
}

// Sync fetches one list and mirrors its movies into the watchlist. Entries
// this list imported earlier that are gone from it and still unwatched are
// removed.
func (s *Service) Sync(ctx context.Context, userID, id string) (SyncResult, error) {
	userID, id = strings.TrimSpace(userID), strings.TrimSpace(id)
	if userID == "" {
		return SyncResult{}, ErrUserIDRequired
	}
	if id == "" {
		return SyncResult{}, ErrIDRequired
	}

	list, err := s.store.Get(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		return SyncResult{}, ErrNotFound
	}
	if err != nil {
		return SyncResult{}, err
	}

	result, syncErr := s.sync(ctx, *list)
	if err := s.store.RecordSync(ctx, list.ID, s.now().UTC(), result.Fetched, syncErr); err != nil {
		log.Printf("[lists] failed to record sync for list %s: %v", list.ID, err)
	}
	if syncErr != nil {
		metrics.ListSyncsTotal.WithLabelValues("error").Inc()
		return result, fmt.Errorf("sync list %s: %w", list.ExternalID, syncErr)
	}
	metrics.ListSyncsTotal.WithLabelValues("success").Inc()
	log.Printf("[lists] synced %q for user %s: %d fetched, %d added, %d removed",
		list.Name, userID, result.Fetched, result.Added, result.Removed)
	return result, nil
}

// SyncStale syncs every list of the user whose last successful sync is older
// than the staleness threshold. It returns how many lists were synced.
func (s *Service) SyncStale(ctx context.Context, userID string) (int, error) {
	lists, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	synced := 0
	var errs []error
	for _, list := range lists {
		if ctx.Err() != nil {
			break
		}
		if !availability.IsStale(list.LastSyncedAt, s.threshold, now) {
			continue
		}
		if _, err := s.Sync(ctx, userID, list.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}

func (s *Service) sync(ctx context.Context, list models.CuratedList) (SyncResult, error) {
	result := SyncResult{ListID: list.ID}

	items, err := s.fetcher.FetchList(ctx, list.ExternalID)
	if err != nil {
		return result, err
	}

	source := list.SyncSource()
	existing, err := s.watchlist.ListBySyncSource(ctx, list.UserID, source)
	if err != nil {
		return result, err
	}
	// Items without a TMDB id are matched on normalised title and year.
	untracked := make(map[string]struct{})
	for _, entry := range existing {
		if entry.TMDBID == 0 {
			untracked[titleKey(entry.Title, entry.ReleaseYear)] = struct{}{}
		}
	}

	keep := make(map[int64]struct{}, len(items))
	keepTitles := make(map[string]struct{})
	for _, item := range items {
		if item.MediaType != "" && item.MediaType != "movie" {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		result.Fetched++
		if item.ID > 0 {
			keep[item.ID] = struct{}{}
		} else {
			key := titleKey(title, item.ReleaseYear)
			keepTitles[key] = struct{}{}
			if _, ok := untracked[key]; ok {
				continue
			}
			untracked[key] = struct{}{}
		}

		_, created, err := s.watchlist.Add(ctx, list.UserID, models.WatchlistUpsert{
			TMDBID:      item.ID,
			Title:       title,
			ReleaseYear: item.ReleaseYear,
			SyncSource:  source,
		})
		if err != nil {
			return result, fmt.Errorf("import %q: %w", title, err)
		}
		if created {
			result.Added++
		}
	}

	for _, entry := range existing {
		if entry.Watched {
			continue
		}
		if entry.TMDBID == 0 {
			if _, ok := keepTitles[titleKey(entry.Title, entry.ReleaseYear)]; ok {
				continue
			}
		} else if _, ok := keep[entry.TMDBID]; ok {
			continue
		}
		if removed, err := s.watchlist.Remove(ctx, list.UserID, entry.ID); err != nil {
			log.Printf("[lists] failed to prune %q from %s: %v", entry.Title, source, err)
		} else if removed {
			result.Removed++
		}
	}
	return result, nil
}

func titleKey(title string, year int) string {
	return fmt.Sprintf("%s|%d", similarity.NormalizeTitle(title), year)
}
