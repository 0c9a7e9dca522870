// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// Routes is unguarded: logout is idempotent, and a signed-out browser
// hitting it just lands on /login.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogout)
	r.Post("/", h.ServeLogout)
	return r
}
