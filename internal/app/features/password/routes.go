// internal/app/features/password/routes.go
package password

import (
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// ForgotRoutes serves /forgot-password.
func ForgotRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAnonymous)
		pr.Get("/", h.ServeForgot)
		pr.Post("/", h.HandleForgot)
	})
	return r
}

// ResetRoutes serves /reset-password.
func ResetRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAnonymous)
		pr.Get("/", h.ServeReset)
		pr.Post("/", h.HandleReset)
	})
	return r
}
