package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reelcheck/models"
)

// WatchlistRepository persists watchlist entries.
type WatchlistRepository struct {
	db *sql.DB
}

func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

const watchlistColumns = `id, user_id, tmdb_id, title, release_year, overview, poster_path,
	watched, personal_rating, preference, external_server_item_id, available_on_server,
	last_availability_check, sync_source, added_at, updated_at`

// Create inserts a new entry, assigning its ID and timestamps.
func (r *WatchlistRepository) Create(ctx context.Context, entry *models.WatchlistEntry) error {
	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = now
	}
	entry.UpdatedAt = now
	if !entry.AvailableOnServer {
		entry.ExternalServerItemID = ""
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watchlist_entries (`+watchlistColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.TMDBID, entry.Title, entry.ReleaseYear, entry.Overview, entry.PosterPath,
		entry.Watched, nullableInt(entry.PersonalRating), string(entry.Preference),
		entry.ExternalServerItemID, entry.AvailableOnServer, nullableTime(entry.LastAvailabilityCheck),
		entry.SyncSource, entry.AddedAt, entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert watchlist entry: %w", err)
	}
	return nil
}

// Get returns a single entry owned by userID.
func (r *WatchlistRepository) Get(ctx context.Context, userID, id string) (*models.WatchlistEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist_entries WHERE user_id = ? AND id = ?`, userID, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get watchlist entry: %w", err)
	}
	return entry, nil
}

// GetByTMDBID finds an entry by its metadata provider id.
func (r *WatchlistRepository) GetByTMDBID(ctx context.Context, userID string, tmdbID int64) (*models.WatchlistEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist_entries WHERE user_id = ? AND tmdb_id = ?`, userID, tmdbID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get watchlist entry by tmdb id: %w", err)
	}
	return entry, nil
}

// ListByUser returns a user's entries in insertion order.
func (r *WatchlistRepository) ListByUser(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	return r.query(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist_entries WHERE user_id = ? ORDER BY added_at ASC, rowid ASC`, userID)
}

// ListBySyncSource returns entries imported from the given source.
func (r *WatchlistRepository) ListBySyncSource(ctx context.Context, userID, source string) ([]models.WatchlistEntry, error) {
	return r.query(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist_entries WHERE user_id = ? AND sync_source = ? ORDER BY added_at ASC, rowid ASC`,
		userID, source)
}

// ListUserIDs returns every user that owns at least one entry.
func (r *WatchlistRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM watchlist_entries ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list watchlist users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan watchlist user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update writes the user-editable fields of an entry.
func (r *WatchlistRepository) Update(ctx context.Context, entry *models.WatchlistEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE watchlist_entries
		SET title = ?, release_year = ?, overview = ?, poster_path = ?,
			watched = ?, personal_rating = ?, preference = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		entry.Title, entry.ReleaseYear, entry.Overview, entry.PosterPath,
		entry.Watched, nullableInt(entry.PersonalRating), string(entry.Preference), entry.UpdatedAt,
		entry.UserID, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update watchlist entry: %w", err)
	}
	return requireAffected(res)
}

// UpdateAvailability records the result of one availability probe in a single
// statement. A non-match always clears the stored server item id.
func (r *WatchlistRepository) UpdateAvailability(ctx context.Context, id, itemID string, available bool, checkedAt time.Time) error {
	if !available {
		itemID = ""
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE watchlist_entries
		SET external_server_item_id = ?, available_on_server = ?, last_availability_check = ?, updated_at = ?
		WHERE id = ?`,
		itemID, available, checkedAt.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an entry, reporting whether it existed.
func (r *WatchlistRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watchlist_entries WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	return n > 0, nil
}

func (r *WatchlistRepository) query(ctx context.Context, query string, args ...any) ([]models.WatchlistEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list watchlist entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.WatchlistEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist entries: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.WatchlistEntry, error) {
	var (
		entry      models.WatchlistEntry
		rating     sql.NullInt64
		preference string
		lastCheck  sql.NullTime
	)
	err := s.Scan(
		&entry.ID, &entry.UserID, &entry.TMDBID, &entry.Title, &entry.ReleaseYear, &entry.Overview, &entry.PosterPath,
		&entry.Watched, &rating, &preference, &entry.ExternalServerItemID, &entry.AvailableOnServer,
		&lastCheck, &entry.SyncSource, &entry.AddedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		entry.PersonalRating = &v
	}
	if lastCheck.Valid {
		t := lastCheck.Time.UTC()
		entry.LastAvailabilityCheck = &t
	}
	entry.Preference = models.Preference(preference)
	entry.AddedAt = entry.AddedAt.UTC()
	entry.UpdatedAt = entry.UpdatedAt.UTC()
	return &entry, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
