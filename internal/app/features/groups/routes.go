// internal/app/features/groups/routes.go
package groups

import (
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves member management under /group. The layout shell keeps
// ungrouped users on the onboarding prompt.
func Routes(h *Handler, sm *auth.SessionManager, shell func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(shell)

		pr.Get("/", h.ServeMembers)
		pr.Post("/members", h.HandleAddMember)
		pr.Post("/members/{userID}/remove", h.HandleRemoveMember)
	})

	return r
}

// CreateRoutes serves /create-group. It sits outside the shell so a user
// without a group can reach it.
func CreateRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeCreateGroup)
		pr.Post("/", h.HandleCreateGroup)
	})

	return r
}
