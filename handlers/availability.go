package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"reelcheck/internal/metrics"
	"reelcheck/models"
	"reelcheck/services/availability"
	"reelcheck/services/watchlist"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

type availabilityService interface {
	CheckAllMovies(ctx context.Context, userID string, entries []models.WatchlistEntry) models.SweepReport
	CheckMovie(ctx context.Context, userID string, entry models.WatchlistEntry) models.SweepReport
	Progress(userID string) models.SweepProgress
	Subscribe(userID string) (<-chan models.SweepProgress, func())
	IsChecking(userID string) bool
}

var _ availabilityService = (*availability.Service)(nil)

type entryReader interface {
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	Get(ctx context.Context, userID, id string) (models.WatchlistEntry, error)
}

var _ entryReader = (*watchlist.Service)(nil)

type connectivityProbe interface {
	CheckConnectivity(ctx context.Context) bool
}

var _ connectivityProbe = (*availability.Gate)(nil)

// streamMessage is one frame on the availability websocket.
type streamMessage struct {
	Type      string                  `json:"type"` // "progress" or "watchlist"
	Progress  *models.SweepProgress   `json:"progress,omitempty"`
	Watchlist []models.WatchlistEntry `json:"watchlist,omitempty"`
}

type AvailabilityHandler struct {
	Service  availabilityService
	Entries  entryReader
	Gate     connectivityProbe
	Upgrader websocket.Upgrader

	mu       sync.Mutex
	watchers map[string]map[int]chan []models.WatchlistEntry
	nextID   int
}

func NewAvailabilityHandler(service availabilityService, entries entryReader, gate connectivityProbe) *AvailabilityHandler {
	return &AvailabilityHandler{
		Service: service,
		Entries: entries,
		Gate:    gate,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
		watchers: make(map[string]map[int]chan []models.WatchlistEntry),
	}
}

// Sync runs a full manual sweep of the user's watchlist and waits for it.
// POST /api/users/{userID}/availability/sync
func (h *AvailabilityHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	entries, err := h.Entries.List(r.Context(), userID)
	if err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}

	report := h.Service.CheckAllMovies(r.Context(), userID, entries)
	h.writeReport(w, report)
	if report.Outcome == models.SweepOutcomeCompleted {
		if refreshed, err := h.Entries.List(context.WithoutCancel(r.Context()), userID); err == nil {
			h.PublishWatchlist(userID, refreshed)
		}
	}
}

// Check probes a single entry and returns it with the fresh annotation.
// POST /api/users/{userID}/availability/{id}/check
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, id := vars["userID"], vars["id"]

	entry, err := h.Entries.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}

	report := h.Service.CheckMovie(r.Context(), userID, entry)
	if status, msg := reportStatus(report); status != http.StatusOK {
		writeJSON(w, status, map[string]interface{}{"error": msg, "report": report})
		return
	}

	updated, err := h.Entries.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, watchlistStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Progress returns the user's current sweep progress.
// GET /api/users/{userID}/availability/progress
func (h *AvailabilityHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	writeJSON(w, http.StatusOK, h.Service.Progress(userID))
}

// Connectivity reports whether the media server answers right now.
// GET /api/availability/connectivity
func (h *AvailabilityHandler) Connectivity(w http.ResponseWriter, r *http.Request) {
	reachable := h.Gate.CheckConnectivity(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"reachable": reachable})
}

// Stream pushes progress snapshots, and the reloaded watchlist after a
// background sweep, over a websocket.
// GET /api/users/{userID}/availability/ws
func (h *AvailabilityHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[availability] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	metrics.ProgressSubscribers.Inc()
	defer metrics.ProgressSubscribers.Dec()

	progress, cancelProgress := h.Service.Subscribe(userID)
	defer cancelProgress()
	reloads, cancelReloads := h.watch(userID)
	defer cancelReloads()

	// The read side only services control frames and notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		var msg streamMessage
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case p, ok := <-progress:
			if !ok {
				return
			}
			msg = streamMessage{Type: "progress", Progress: &p}
		case entries := <-reloads:
			msg = streamMessage{Type: "watchlist", Watchlist: entries}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[availability] websocket write failed: %v", err)
			}
			return
		}
	}
}

// PublishWatchlist sends a reloaded watchlist to the user's open streams.
// It is the reload hook of the auto-trigger.
func (h *AvailabilityHandler) PublishWatchlist(userID string, entries []models.WatchlistEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.watchers[userID] {
		select {
		case ch <- entries:
		default:
			// Drop the stale copy and keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- entries:
			default:
			}
		}
	}
}

func (h *AvailabilityHandler) watch(userID string) (<-chan []models.WatchlistEntry, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan []models.WatchlistEntry, 1)
	if h.watchers[userID] == nil {
		h.watchers[userID] = make(map[int]chan []models.WatchlistEntry)
	}
	h.watchers[userID][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.watchers[userID], id)
		if len(h.watchers[userID]) == 0 {
			delete(h.watchers, userID)
		}
	}
}

func (h *AvailabilityHandler) writeReport(w http.ResponseWriter, report models.SweepReport) {
	status, msg := reportStatus(report)
	if status != http.StatusOK {
		writeJSON(w, status, map[string]interface{}{"error": msg, "report": report})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func reportStatus(report models.SweepReport) (int, string) {
	switch report.Outcome {
	case models.SweepOutcomeUnreachable:
		return http.StatusServiceUnavailable, "Unable to connect to the media server. Check that it is running and reachable."
	case models.SweepOutcomeBusy:
		return http.StatusConflict, availability.ErrSweepInProgress.Error()
	case models.SweepOutcomeAborted:
		return http.StatusInternalServerError, "availability check aborted"
	default:
		return http.StatusOK, ""
	}
}
