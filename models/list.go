package models

import "time"

// CuratedList is an external list (MDBList) whose movies are mirrored into a watchlist.
type CuratedList struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Provider     string     `json:"provider"`
	ExternalID   string     `json:"externalId"` // numeric list id or "username/slug"
	Name         string     `json:"name"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	ItemsSynced  int        `json:"itemsSynced"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// SyncSource is the tag stored on watchlist entries imported from this list.
func (l CuratedList) SyncSource() string {
	return l.Provider + ":" + l.ID
}
