// internal/app/features/groups/routes.go
package groups

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

	// Everything under /groups requires authentication
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// LIST / CREATE
		pr.Get("/", h.ServeList)
		pr.With(middleware.RequestSize(limits.MaxJSONBodySize)).Post("/", h.HandleCreate)

		// VIEW
		pr.Get("/{id}", h.ServeGroup)

		// MEMBERSHIP (join / leave the forum)
		pr.Post("/{id}/membership", h.HandleJoin)
		pr.Delete("/{id}/membership", h.HandleLeave)

		// POSTS
		pr.Get("/{id}/posts", h.ServePosts)
		pr.With(middleware.RequestSize(limits.MaxPostBodySize), throttle).Post("/{id}/posts", h.HandleCreatePost)
	})

	return r
}
