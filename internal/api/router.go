package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pocketpick/internal/pocket"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// publisher, if non-nil, is told about every item added through the API.
func NewRouter(svc *pocket.Service, dbPath string, authEnabled bool, token string, sseHandler http.Handler, publisher ItemPublisher) chi.Router {
	h := NewHandler(svc, dbPath, publisher)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/items", h.AddItem)
	r.Post("/items/file", h.AddFile)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
