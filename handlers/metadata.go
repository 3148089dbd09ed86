package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	metadatapkg "reelcheck/services/metadata"
)

type metadataService interface {
	SearchMovies(ctx context.Context, query string, year int) ([]metadatapkg.Movie, error)
	GetMovie(ctx context.Context, tmdbID int64) (metadatapkg.Movie, error)
}

var _ metadataService = (*metadatapkg.Client)(nil)

type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(s metadataService) *MetadataHandler {
	return &MetadataHandler{Service: s}
}

// Search looks up movies to add to a watchlist.
// GET /api/metadata/search?q=&year=
func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "year must be a number")
			return
		}
		year = parsed
	}

	movies, err := h.Service.SearchMovies(r.Context(), query, year)
	if err != nil {
		writeError(w, metadataStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// MovieDetails returns a single movie by TMDB id.
// GET /api/metadata/movies/{id}
func (h *MetadataHandler) MovieDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	movie, err := h.Service.GetMovie(r.Context(), id)
	if err != nil {
		writeError(w, metadataStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func metadataStatus(err error) int {
	switch {
	case errors.Is(err, metadatapkg.ErrMovieNotFound):
		return http.StatusNotFound
	case errors.Is(err, metadatapkg.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		// Includes ErrUnauthorized: our key was rejected upstream.
		return http.StatusBadGateway
	}
}
