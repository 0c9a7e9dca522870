// internal/app/features/signup/routes.go
package signup

import (
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAnonymous)
		pr.Get("/", h.ServeSignup)
		pr.Post("/", h.HandleSignup)
	})
	return r
}
