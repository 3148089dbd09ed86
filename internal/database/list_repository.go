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

// ListRepository persists curated external lists attached to a user.
type ListRepository struct {
	db *sql.DB
}

func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{db: db}
}

const listColumns = `id, user_id, provider, external_id, name, last_synced_at, last_error, items_synced, created_at`

func (r *ListRepository) Create(ctx context.Context, list *models.CuratedList) error {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO curated_lists (`+listColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		list.ID, list.UserID, list.Provider, list.ExternalID, list.Name,
		nullableTime(list.LastSyncedAt), list.LastError, list.ItemsSynced, list.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert curated list: %w", err)
	}
	return nil
}

func (r *ListRepository) Get(ctx context.Context, userID, id string) (*models.CuratedList, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+listColumns+` FROM curated_lists WHERE user_id = ? AND id = ?`, userID, id)
	list, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get curated list: %w", err)
	}
	return list, nil
}

func (r *ListRepository) ListByUser(ctx context.Context, userID string) ([]models.CuratedList, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listColumns+` FROM curated_lists WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list curated lists: %w", err)
	}
	defer rows.Close()

	lists := make([]models.CuratedList, 0)
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan curated list: %w", err)
		}
		lists = append(lists, *list)
	}
	return lists, rows.Err()
}

// RecordSync stores the outcome of a resync. syncedAt is only advanced on success
// so a failed list stays stale and is retried next cycle.
func (r *ListRepository) RecordSync(ctx context.Context, id string, syncedAt time.Time, itemsSynced int, syncErr error) error {
	var (
		res sql.Result
		err error
	)
	if syncErr != nil {
		res, err = r.db.ExecContext(ctx, `UPDATE curated_lists SET last_error = ? WHERE id = ?`, syncErr.Error(), id)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE curated_lists SET last_synced_at = ?, last_error = '', items_synced = ? WHERE id = ?`,
			syncedAt.UTC(), itemsSynced, id)
	}
	if err != nil {
		return fmt.Errorf("record list sync: %w", err)
	}
	return requireAffected(res)
}

// ListUserIDs returns every user with at least one curated list.
func (r *ListRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM curated_lists ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list curated list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan curated list user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ListRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM curated_lists WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete curated list: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete curated list: %w", err)
	}
	return n > 0, nil
}

func scanList(s scanner) (*models.CuratedList, error) {
	var (
		list     models.CuratedList
		lastSync sql.NullTime
	)
	if err := s.Scan(&list.ID, &list.UserID, &list.Provider, &list.ExternalID, &list.Name,
		&lastSync, &list.LastError, &list.ItemsSynced, &list.CreatedAt); err != nil {
		return nil, err
	}
	if lastSync.Valid {
		t := lastSync.Time.UTC()
		list.LastSyncedAt = &t
	}
	list.CreatedAt = list.CreatedAt.UTC()
	return &list, nil
}
