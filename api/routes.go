package api

import (
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reelcheck/handlers"
)

// localhostOnlyMiddleware restricts access to localhost requests only
func localhostOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			http.Error(w, "Debug endpoints only accessible from localhost", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Handlers groups everything Register mounts.
type Handlers struct {
	Watchlist      *handlers.WatchlistHandler
	Availability   *handlers.AvailabilityHandler
	Metadata       *handlers.MetadataHandler
	Lists          *handlers.ListsHandler
	ScheduledTasks *handlers.ScheduledTasksHandler
}

// Register mounts API endpoints onto the provided router. syncLimiter may be
// nil to leave manual syncs unthrottled.
func Register(r *mux.Router, apiKey string, syncLimiter *SyncRateLimiter, h Handlers) {
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(APIKeyMiddleware(apiKey))

	// Watchlist
	api.HandleFunc("/users/{userID}/watchlist", h.Watchlist.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/watchlist", h.Watchlist.Add).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/watchlist", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/watchlist/{id}", h.Watchlist.Patch).Methods(http.MethodPatch)
	api.HandleFunc("/users/{userID}/watchlist/{id}", h.Watchlist.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/watchlist/{id}", handleOptions).Methods(http.MethodOptions)

	// Availability
	syncHandler := h.Availability.Sync
	if syncLimiter != nil {
		syncHandler = RateLimit(syncLimiter, syncHandler)
	}
	api.HandleFunc("/users/{userID}/availability/sync", syncHandler).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/availability/sync", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/availability/progress", h.Availability.Progress).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/users/{userID}/availability/ws", h.Availability.Stream).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/availability/{id}/check", h.Availability.Check).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/availability/{id}/check", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/availability/connectivity", h.Availability.Connectivity).Methods(http.MethodGet, http.MethodOptions)

	// Metadata
	api.HandleFunc("/metadata/search", h.Metadata.Search).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/metadata/movies/{id}", h.Metadata.MovieDetails).Methods(http.MethodGet, http.MethodOptions)

	// Curated lists
	api.HandleFunc("/users/{userID}/lists", h.Lists.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/lists", h.Lists.Attach).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/lists", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/lists/{id}", h.Lists.Detach).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/lists/{id}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/lists/{id}/sync", h.Lists.Sync).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/lists/{id}/sync", handleOptions).Methods(http.MethodOptions)

	// Scheduled tasks
	api.HandleFunc("/scheduled-tasks", h.ScheduledTasks.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/scheduled-tasks", h.ScheduledTasks.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/scheduled-tasks", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/scheduled-tasks/{taskID}", h.ScheduledTasks.UpdateTask).Methods(http.MethodPatch)
	api.HandleFunc("/scheduled-tasks/{taskID}", h.ScheduledTasks.DeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/scheduled-tasks/{taskID}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/scheduled-tasks/{taskID}/run", h.ScheduledTasks.RunTaskNow).Methods(http.MethodPost)
	api.HandleFunc("/scheduled-tasks/{taskID}/run", handleOptions).Methods(http.MethodOptions)

	// Pprof debug endpoints (localhost only)
	pprofRouter := r.PathPrefix("/debug/pprof").Subrouter()
	pprofRouter.Use(localhostOnlyMiddleware)
	pprofRouter.HandleFunc("/", pprof.Index)
	pprofRouter.HandleFunc("/cmdline", pprof.Cmdline)
	pprofRouter.HandleFunc("/profile", pprof.Profile)
	pprofRouter.HandleFunc("/symbol", pprof.Symbol)
	pprofRouter.HandleFunc("/trace", pprof.Trace)
	pprofRouter.HandleFunc("/goroutine", pprof.Handler("goroutine").ServeHTTP)
	pprofRouter.HandleFunc("/heap", pprof.Handler("heap").ServeHTTP)
}
