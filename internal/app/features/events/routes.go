// internal/app/features/events/routes.go
package events

import (
	"net/http"

	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/limits"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes mounts the feature. throttle limits how fast one user can
// trigger fan-outs.
func Routes(h *Handler, sm *auth.SessionManager, throttle func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.With(middleware.RequestSize(limits.MaxJSONBodySize), throttle).Post("/", h.HandleCreate)
		pr.Get("/{id}", h.ServeEvent)
		pr.Get("/{id}/participants", h.ServeParticipants)
	})

	return r
}
