package auth

import (
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
)

// HandleAPIError applies the session-wide 401/403 policy: if err says the
// backend no longer accepts the bearer token, the session is logged out and
// the browser is sent to /login. It returns true when it wrote a response;
// callers handle every other error themselves.
func (sm *SessionManager) HandleAPIError(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apiclient.IsUnauthorized(err) {
		return false
	}

	s := Session(r)
	if s != nil {
		token := s.Token()
		s.Logout()
		sm.metrics.Logout("unauthorized")
		sm.audit.SessionRevoked(r.Context(), r, token, "unauthorized")
	}
	sm.AddFlash(w, r, FlashError, "Your session has expired. Please log in again.")

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)
		return true
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}
