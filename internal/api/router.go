package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andrewcz-se/homeworkhub/internal/sync"
	"github.com/andrewcz-se/homeworkhub/internal/taskservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced; userID is the
// principal requests act as. sseHandler, if non-nil, is mounted at
// GET /events inside the auth group. The feed parse endpoint sits outside
// auth with open CORS, matching its use by browser clients.
func NewRouter(svc *taskservice.Service, reconciler *sync.Reconciler, feed sync.Feed,
	authEnabled bool, token, userID string, sseHandler http.Handler) chi.Router {

	h := NewHandler(svc, reconciler, feed)

	r := chi.NewRouter()

	r.With(corsOpen).Post("/parse-ical", h.ParseFeed)
	r.With(corsOpen).Options("/parse-ical", h.ParseFeed)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token, userID))

		// Tasks CRUD.
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks/{id}", h.GetTask)
		r.Put("/tasks/{id}", h.UpdateTask)
		r.Post("/tasks/{id}/toggle", h.ToggleTask)
		r.Delete("/tasks/{id}", h.DeleteTask)

		// Calendar sync.
		r.Get("/sync/settings", h.GetSyncSettings)
		r.Put("/sync/settings", h.PutSyncSettings)
		r.Post("/sync", h.SyncNow)

		// SSE endpoint (protected by same auth middleware).
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
