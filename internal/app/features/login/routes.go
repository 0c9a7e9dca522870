// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAnonymous)
		pr.Get("/", h.ServeLogin)
		pr.Post("/", h.HandleLoginPost)
	})
	return r
}
