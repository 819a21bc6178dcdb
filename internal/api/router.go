package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/canvasnest/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Open panes reported by the companion client.
	r.Get("/views", h.ListViews)
	r.Post("/views", h.CreateView)
	r.Put("/views/{id}", h.OpenView)
	r.Delete("/views/{id}", h.CloseView)

	// Relocation.
	r.Post("/relocate", h.Relocate)
	r.Get("/relocations", h.ListRelocations)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
