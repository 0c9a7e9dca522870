// internal/app/features/dashboard/routes.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard at the application root. shell is the layout
// middleware that holds back pages until the session has a group.
func Routes(h *Handler, sm *auth.SessionManager, shell func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(shell)
		pr.Get("/", h.ServeDashboard)
		pr.Post("/expenses", h.HandleAddExpense)
		pr.Get("/summary", h.ServeSummary)
	})
	return r
}
