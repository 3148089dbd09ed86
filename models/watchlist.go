package models

import "time"

// Preference records whether the user liked or disliked a movie after watching it.
type Preference string

const (
	PreferenceNone     Preference = ""
	PreferenceLiked    Preference = "liked"
	PreferenceDisliked Preference = "disliked"
)

// WatchlistEntry is a single movie saved to a user's watchlist, annotated with
// whether the configured media server can currently play it.
type WatchlistEntry struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	TMDBID      int64  `json:"tmdbId,omitempty"`
	Title       string `json:"title"`
	ReleaseYear int    `json:"releaseYear,omitempty"` // 0 when unknown
	Overview    string `json:"overview,omitempty"`
	PosterPath  string `json:"posterPath,omitempty"`

	Watched        bool       `json:"watched"`
	PersonalRating *int       `json:"personalRating,omitempty"` // 1..10
	Preference     Preference `json:"preference,omitempty"`

	// Availability annotation. ExternalServerItemID is only set while AvailableOnServer is true.
	ExternalServerItemID  string     `json:"externalServerItemId,omitempty"`
	AvailableOnServer     bool       `json:"availableOnServer"`
	LastAvailabilityCheck *time.Time `json:"lastAvailabilityCheck,omitempty"`
	PlayURL               string     `json:"playUrl,omitempty"`

	SyncSource string    `json:"syncSource,omitempty"` // e.g., "mdblist:<listId>" for imported entries
	AddedAt    time.Time `json:"addedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// WatchlistUpsert captures data required to add a movie to a watchlist.
type WatchlistUpsert struct {
	TMDBID      int64  `json:"tmdbId,omitempty"`
	Title       string `json:"title" validate:"required,max=500"`
	ReleaseYear int    `json:"releaseYear,omitempty" validate:"omitempty,min=1870,max=2200"`
	Overview    string `json:"overview,omitempty"`
	PosterPath  string `json:"posterPath,omitempty"`
	SyncSource  string `json:"syncSource,omitempty"`
}

// WatchlistPatch carries the user-editable fields of an entry. Nil fields are left unchanged.
type WatchlistPatch struct {
	Watched        *bool       `json:"watched,omitempty"`
	PersonalRating *int        `json:"personalRating,omitempty" validate:"omitempty,min=0,max=10"` // 0 clears the rating
	Preference     *Preference `json:"preference,omitempty" validate:"omitempty,oneof=liked disliked none"`
}
