package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/canvasnest/internal/apperr"
	"github.com/starford/canvasnest/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListViews handles GET /api/views.
//
//	@Summary		List panes registered by the companion client
//	@Tags			views
//	@Produce		json
//	@Success		200	{object}	ViewListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views [get]
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Views()
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("view registry disabled"))
		return
	}
	writeJSON(w, http.StatusOK, ViewListResponse{Views: views})
}

// CreateView handles POST /api/views. The pane id is assigned by the server.
//
//	@Summary		Register a new pane
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenViewRequest	true	"Pane state"
//	@Success		201		{object}	View
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views [post]
func (h *Handler) CreateView(w http.ResponseWriter, r *http.Request) {
	h.putView(w, r, uuid.NewString(), http.StatusCreated)
}

// OpenView handles PUT /api/views/{id}.
//
//	@Summary		Register or update an open pane
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Pane id"
//	@Param			body	body		OpenViewRequest	true	"Pane state"
//	@Success		200		{object}	View
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{id} [put]
func (h *Handler) OpenView(w http.ResponseWriter, r *http.Request) {
	h.putView(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) putView(w http.ResponseWriter, r *http.Request, id string, status int) {
	if !h.svc.RegistryEnabled() {
		writeJSON(w, http.StatusNotFound, errorBody("view registry disabled"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req OpenViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("type is required"))
		return
	}
	view, err := h.svc.OpenView(View{ID: id, Type: req.Type, File: req.File})
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("view registry disabled"))
		return
	}
	writeJSON(w, status, view)
}

// CloseView handles DELETE /api/views/{id}.
//
//	@Summary		Unregister a pane
//	@Tags			views
//	@Param			id	path	string	true	"Pane id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{id} [delete]
func (h *Handler) CloseView(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseView(chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Relocate handles POST /api/relocate.
//
//	@Summary		Run the relocator for an existing note
//	@Tags			relocations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RelocateRequest	true	"Note to relocate"
//	@Success		200		{object}	RelocateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/relocate [post]
func (h *Handler) Relocate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RelocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	out, err := h.svc.Relocate(r.Context(), req.Path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("relocate failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, RelocateResponse{Outcome: out, Error: out.ErrorText()})
}

// ListRelocations handles GET /api/relocations.
//
//	@Summary		List recent relocations
//	@Tags			relocations
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum rows"
//	@Success		200		{object}	RelocationListResponse
//	@Security		BearerAuth
//	@Router			/relocations [get]
func (h *Handler) ListRelocations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.svc.History(r.Context(), limit)
	if err != nil {
		slog.Error("list relocations failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RelocationListResponse{Relocations: rows})
}
