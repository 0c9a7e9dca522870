// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Metrics:    m,
	}
}

// ServeLogout handles GET and POST /logout. Logging out an already
// logged-out browser is harmless and ends in the same place.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if s := auth.Session(r); s != nil {
		token := s.Token()
		s.Logout()
		if token != "" {
			h.Metrics.Logout("user")
			h.AuditLog.Logout(r.Context(), r, token)
		}
	} else if err := h.SessionMgr.TokenStore(w, r).Clear(); err != nil {
		h.Log.Error("logout: clear session cookie", zap.Error(err))
	}

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
