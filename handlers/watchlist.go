package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"reelcheck/models"
	"reelcheck/services/availability"
	"reelcheck/services/watchlist"
)

type watchlistService interface {
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	Add(ctx context.Context, userID string, input models.WatchlistUpsert) (models.WatchlistEntry, bool, error)
	Patch(ctx context.Context, userID, id string, patch models.WatchlistPatch) (models.WatchlistEntry, error)
	Remove(ctx context.Context, userID, id string) (bool, error)
}

var _ watchlistService = (*watchlist.Service)(nil)

// watchlistObserver is told about every watchlist load.
type watchlistObserver interface {
	OnWatchlistLoaded(userID string, entries []models.WatchlistEntry) int
}

var _ watchlistObserver = (*availability.AutoTrigger)(nil)

// backgroundChecker probes entries without blocking the request.
type backgroundChecker interface {
	StartBackground(userID string, entries []models.WatchlistEntry, trigger availability.Trigger, onDone func(models.SweepReport)) bool
}

var _ backgroundChecker = (*availability.Service)(nil)

type WatchlistHandler struct {
	Service  watchlistService
	Observer watchlistObserver
	Checker  backgroundChecker
}

// NewWatchlistHandler creates a watchlist handler. observer and checker may be nil.
func NewWatchlistHandler(service watchlistService, observer watchlistObserver, checker backgroundChecker) *WatchlistHandler {
	return &WatchlistHandler{Service: service, Observer: observer, Checker: checker}
}

// List returns the watchlist and hands it to the auto-trigger, which may
// start a background availability sweep of stale entries.
// GET /api/users/{userID}/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	entries, err := h.Service.List(r.Context(), userID)
	if err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}

	if h.Observer != nil {
		h.Observer.OnWatchlistLoaded(userID, entries)
	}

	writeJSON(w, http.StatusOK, entries)
}

// Add saves a movie. A newly created entry is checked against the media
// server in the background.
// POST /api/users/{userID}/watchlist
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var body models.WatchlistUpsert
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, created, err := h.Service.Add(r.Context(), userID, body)
	if err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		if h.Checker != nil {
			h.Checker.StartBackground(entry.UserID, []models.WatchlistEntry{entry}, availability.TriggerSingle, nil)
		}
	}
	writeJSON(w, status, entry)
}

// Patch updates watched state, personal rating, or preference.
// PATCH /api/users/{userID}/watchlist/{id}
func (h *WatchlistHandler) Patch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body models.WatchlistPatch
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.Service.Patch(r.Context(), vars["userID"], vars["id"], body)
	if err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Remove deletes an entry.
// DELETE /api/users/{userID}/watchlist/{id}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	removed, err := h.Service.Remove(r.Context(), vars["userID"], vars["id"])
	if err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, watchlist.ErrEntryNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func watchlistStatus(err error) int {
	switch {
	case errors.Is(err, watchlist.ErrUserIDRequired),
		errors.Is(err, watchlist.ErrIDRequired),
		errors.Is(err, watchlist.ErrTitleRequired),
		errors.Is(err, watchlist.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, watchlist.ErrEntryNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
