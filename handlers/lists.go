package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"reelcheck/models"
	"reelcheck/services/lists"
)

type listService interface {
	List(ctx context.Context, userID string) ([]models.CuratedList, error)
	Attach(ctx context.Context, userID, listURL, name string) (models.CuratedList, error)
	Detach(ctx context.Context, userID, id string) (bool, error)
	Sync(ctx context.Context, userID, id string) (lists.SyncResult, error)
}

var _ listService = (*lists.Service)(nil)

type ListsHandler struct {
	Service listService
}

func NewListsHandler(service listService) *ListsHandler {
	return &ListsHandler{Service: service}
}

type attachListRequest struct {
	URL  string `json:"url" validate:"required,max=2048"`
	Name string `json:"name,omitempty" validate:"max=200"`
}

// List returns the user's curated lists.
// GET /api/users/{userID}/lists
func (h *ListsHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.List(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		writeError(w, listStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Attach adds an MDBList list to the user.
// POST /api/users/{userID}/lists
func (h *ListsHandler) Attach(w http.ResponseWriter, r *http.Request) {
	var body attachListRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.Service.Attach(r.Context(), mux.Vars(r)["userID"], body.URL, body.Name)
	if err != nil {
		writeError(w, listStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// Detach removes a curated list.
// DELETE /api/users/{userID}/lists/{id}
func (h *ListsHandler) Detach(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	removed, err := h.Service.Detach(r.Context(), vars["userID"], vars["id"])
	if err != nil {
		writeError(w, listStatus(err), err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, lists.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sync resyncs one list now.
// POST /api/users/{userID}/lists/{id}/sync
func (h *ListsHandler) Sync(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	result, err := h.Service.Sync(r.Context(), vars["userID"], vars["id"])
	if err != nil {
		status := listStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func listStatus(err error) int {
	switch {
	case errors.Is(err, lists.ErrUserIDRequired),
		errors.Is(err, lists.ErrIDRequired),
		errors.Is(err, lists.ErrInvalidListURL):
		return http.StatusBadRequest
	case errors.Is(err, lists.ErrNotFound), errors.Is(err, lists.ErrListNotFound):
		return http.StatusNotFound
	case errors.Is(err, lists.ErrAlreadyAdded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
