package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelcheck/internal/database"
	"reelcheck/models"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrIDRequired     = errors.New("id is required")
	ErrTitleRequired  = errors.New("title is required")
	ErrEntryNotFound  = errors.New("watchlist entry not found")
	ErrInvalidRating  = errors.New("personal rating must be between 1 and 10")
)

// Store is the persistence the service needs. *database.WatchlistRepository
// satisfies it.
type Store interface {
	Create(ctx context.Context, entry *models.WatchlistEntry) error
	Get(ctx context.Context, userID, id string) (*models.WatchlistEntry, error)
	GetByTMDBID(ctx context.Context, userID string, tmdbID int64) (*models.WatchlistEntry, error)
	ListByUser(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	ListBySyncSource(ctx context.Context, userID, source string) ([]models.WatchlistEntry, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, entry *models.WatchlistEntry) error
	UpdateAvailability(ctx context.Context, id, itemID string, available bool, checkedAt time.Time) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// PlayURLFunc builds a playback link for a media server item id.
type PlayURLFunc func(itemID string) string

// Service manages a user's saved movies and the availability annotations on them.
type Service struct {
	store   Store
	playURL PlayURLFunc
}

// NewService creates a watchlist service over store. playURL may be nil.
func NewService(store Store, playURL PlayURLFunc) *Service {
	return &Service{store: store, playURL: playURL}
}

// List returns a user's entries oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	entries, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}
	for i := range entries {
		s.annotate(&entries[i])
	}
	return entries, nil
}

// ListBySyncSource returns the entries imported from a specific source.
func (s *Service) ListBySyncSource(ctx context.Context, userID, source string) ([]models.WatchlistEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	entries, err := s.store.ListBySyncSource(ctx, userID, source)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		s.annotate(&entries[i])
	}
	return entries, nil
}

// UserIDs returns every user that has at least one entry.
func (s *Service) UserIDs(ctx context.Context) ([]string, error) {
	return s.store.ListUserIDs(ctx)
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, userID, id string) (models.WatchlistEntry, error) {
	userID, id, err := identifiers(userID, id)
	if err != nil {
		return models.WatchlistEntry{}, err
	}

	entry, err := s.store.Get(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.WatchlistEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return models.WatchlistEntry{}, err
	}
	s.annotate(entry)
	return *entry, nil
}

// Add inserts a movie, or refreshes the metadata of the entry already holding
// the same TMDB id. The bool reports whether a new entry was created.
func (s *Service) Add(ctx context.Context, userID string, input models.WatchlistUpsert) (models.WatchlistEntry, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.WatchlistEntry{}, false, ErrUserIDRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.WatchlistEntry{}, false, ErrTitleRequired
	}

	if input.TMDBID > 0 {
		existing, err := s.store.GetByTMDBID(ctx, userID, input.TMDBID)
		switch {
		case err == nil:
			mergeMetadata(existing, input)
			if err := s.store.Update(ctx, existing); err != nil {
				return models.WatchlistEntry{}, false, fmt.Errorf("refresh watchlist entry: %w", err)
			}
			s.annotate(existing)
			return *existing, false, nil
		case !errors.Is(err, database.ErrNotFound):
			return models.WatchlistEntry{}, false, err
		}
	}

	entry := &models.WatchlistEntry{
		UserID:      userID,
		TMDBID:      input.TMDBID,
		Title:       title,
		ReleaseYear: input.ReleaseYear,
		Overview:    input.Overview,
		PosterPath:  strings.TrimSpace(input.PosterPath),
		SyncSource:  strings.TrimSpace(input.SyncSource),
	}
	if err := s.store.Create(ctx, entry); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// Lost a race with a concurrent add of the same movie.
			existing, getErr := s.store.GetByTMDBID(ctx, userID, input.TMDBID)
			if getErr == nil {
				s.annotate(existing)
				return *existing, false, nil
			}
		}
		return models.WatchlistEntry{}, false, err
	}
	return *entry, true, nil
}

// Patch applies the user-editable fields of patch to an entry.
func (s *Service) Patch(ctx context.Context, userID, id string, patch models.WatchlistPatch) (models.WatchlistEntry, error) {
	userID, id, err := identifiers(userID, id)
	if err != nil {
		return models.WatchlistEntry{}, err
	}

	entry, err := s.store.Get(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.WatchlistEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return models.WatchlistEntry{}, err
	}

	if patch.Watched != nil {
		entry.Watched = *patch.Watched
	}
	if patch.PersonalRating != nil {
		switch rating := *patch.PersonalRating; {
		case rating == 0:
			entry.PersonalRating = nil
		case rating < 1 || rating > 10:
			return models.WatchlistEntry{}, ErrInvalidRating
		default:
			entry.PersonalRating = &rating
		}
	}
	if patch.Preference != nil {
		pref := *patch.Preference
		if pref == "none" {
			pref = models.PreferenceNone
		}
		entry.Preference = pref
	}

	if err := s.store.Update(ctx, entry); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.WatchlistEntry{}, ErrEntryNotFound
		}
		return models.WatchlistEntry{}, err
	}
	s.annotate(entry)
	return *entry, nil
}

// Remove deletes an entry from the watchlist.
func (s *Service) Remove(ctx context.Context, userID, id string) (bool, error) {
	userID, id, err := identifiers(userID, id)
	if err != nil {
		return false, err
	}
	return s.store.Delete(ctx, userID, id)
}

// UpdateAvailability stores one probe outcome. A missing entry is reported
// as ErrEntryNotFound; the sweep logs it and moves on.
func (s *Service) UpdateAvailability(ctx context.Context, entryID, itemID string, available bool, checkedAt time.Time) error {
	err := s.store.UpdateAvailability(ctx, entryID, itemID, available, checkedAt)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return err
}

func (s *Service) annotate(entry *models.WatchlistEntry) {
	entry.PlayURL = ""
	if s.playURL == nil || !entry.AvailableOnServer || entry.ExternalServerItemID == "" {
		return
	}
	entry.PlayURL = s.playURL(entry.ExternalServerItemID)
}

func mergeMetadata(entry *models.WatchlistEntry, input models.WatchlistUpsert) {
	if title := strings.TrimSpace(input.Title); title != "" {
		entry.Title = title
	}
	if input.ReleaseYear != 0 {
		entry.ReleaseYear = input.ReleaseYear
	}
	if input.Overview != "" {
		entry.Overview = input.Overview
	}
	if poster := strings.TrimSpace(input.PosterPath); poster != "" {
		entry.PosterPath = poster
	}
}

func identifiers(userID, id string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", "", ErrUserIDRequired
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", ErrIDRequired
	}
	return userID, id, nil
}
