package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/session"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
)

// LoadSession builds the request's session over a clone of api, runs the
// bootstrap sequence with the token from the cookie, and stores both in
// the request context. Every page load bootstraps afresh.
func (sm *SessionManager) LoadSession(api *apiclient.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := api.Clone()
			s := session.New(sm.TokenStore(w, r), client, client, session.WithLogger(sm.log))
			token := s.Token()

			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			state := s.Bootstrap(ctx)
			cancel()

			sm.recordBootstrap(r, s, state, token)
			next.ServeHTTP(w, withSession(r, s, client))
		})
	}
}

func (sm *SessionManager) recordBootstrap(r *http.Request, s *session.Session, state session.State, token string) {
	if f := s.LastBootstrapError(); f != nil {
		sm.metrics.Bootstrap("revoked_" + string(f.Cause))
		sm.metrics.Logout("revoked")
		sm.audit.SessionRevoked(r.Context(), r, token, string(f.Cause))
		return
	}
	sm.metrics.Bootstrap(outcome(state))
}

// outcome maps a state to a metric label.
func outcome(state session.State) string {
	switch state {
	case session.StateWithGroup:
		return "authenticated_with_group"
	case session.StateNoGroup:
		return "authenticated_no_group"
	case session.StateLoading:
		return "loading"
	default:
		return "logged_out"
	}
}

// RequireSignedIn lets authenticated sessions through. Otherwise:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
//
// It does not look at the active group; the layout shell handles that.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := Session(r); s != nil && s.IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}

		dest := "/login?return=" + url.QueryEscape(currentURI(r))

		if isHTMX(r) {
			w.Header().Set("HX-Redirect", dest)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if wantsHTML(r) {
			http.Redirect(w, r, dest, http.StatusSeeOther)
			return
		}

		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// RequireAnonymous sends authenticated sessions to the application root.
// Used on login, signup and the other pre-auth pages.
func (sm *SessionManager) RequireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := Session(r)
		if s == nil || !s.IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}

		if isHTMX(r) {
			w.Header().Set("HX-Redirect", "/")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}
