// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"github.com/dalemusser/roomshare/internal/app/system/session"
	"github.com/dalemusser/roomshare/internal/app/system/tokeninfo"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// tokenKey is the single value kept in the session cookie.
const tokenKey = "auth_token"

// SessionManager owns the cookie store that durably holds the bearer token,
// and builds a session.Session for every request.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	maxAge time.Duration
	log    *zap.Logger

	audit   *auditlog.Logger
	metrics *metrics.Metrics
}

// NewSessionManager creates the cookie store. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies are Secure + SameSite=None.
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "roomshare-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{
		store:  store,
		name:   name,
		maxAge: maxAge,
		log:    logger,
	}, nil
}

// Observe wires audit and metrics reporting for session revocations.
// Either may be nil.
func (sm *SessionManager) Observe(audit *auditlog.Logger, m *metrics.Metrics) {
	sm.audit = audit
	sm.metrics = m
}

// Store exposes the underlying cookie store (for option inspection in tests).
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// Name is the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// GetSession returns the cookie session. On a decode error a fresh session
// is still returned along with the error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Cookie token store                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// cookieTokens implements session.TokenStore over one request's cookie.
type cookieTokens struct {
	sm *SessionManager
	w  http.ResponseWriter
	r  *http.Request

	// saved is set once Save has written a token cookie into w.
	saved bool
}

// TokenStore adapts the request's session cookie to session.TokenStore.
func (sm *SessionManager) TokenStore(w http.ResponseWriter, r *http.Request) session.TokenStore {
	return &cookieTokens{sm: sm, w: w, r: r}
}

func (c *cookieTokens) get() *sessions.Session {
	sess, err := c.sm.GetSession(c.r)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			c.sm.log.Debug("session cookie invalid, treating as logged out", zap.Error(err))
		} else {
			c.sm.log.Warn("session store error", zap.Error(err))
		}
	}
	return sess
}

func (c *cookieTokens) Load() string {
	sess := c.get()
	token, _ := sess.Values[tokenKey].(string)
	return token
}

func (c *cookieTokens) Save(token string) error {
	sess := c.get()
	sess.Values[tokenKey] = token
	sess.Options = c.sm.cookieOptions()
	sess.Options.MaxAge = tokeninfo.CookieMaxAge(token, c.sm.maxAge, time.Now())
	if err := sess.Save(c.r, c.w); err != nil {
		return err
	}
	c.saved = true
	return nil
}

// Clear deletes the cookie the browser sent or the one Save wrote in this
// response. With neither there is nothing to delete.
func (c *cookieTokens) Clear() error {
	if _, err := c.r.Cookie(c.sm.name); err == http.ErrNoCookie && !c.saved {
		return nil
	}
	sess := c.get()
	delete(sess.Values, tokenKey)
	sess.Options = c.sm.cookieOptions()
	sess.Options.MaxAge = -1
	if err := sess.Save(c.r, c.w); err != nil {
		return err
	}
	c.saved = false
	return nil
}

// cookieOptions copies the store options so per-save changes stay local.
func (sm *SessionManager) cookieOptions() *sessions.Options {
	o := *sm.store.Options
	return &o
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request context                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const clientKey ctxKey = "apiClient"

// Session returns the request's session, or nil outside LoadSession.
func Session(r *http.Request) *session.Session {
	return session.FromContext(r.Context())
}

// Client returns the request's API client (carrying the session's bearer).
func Client(r *http.Request) *apiclient.Client {
	c, _ := r.Context().Value(clientKey).(*apiclient.Client)
	return c
}

func withSession(r *http.Request, s *session.Session, c *apiclient.Client) *http.Request {
	ctx := session.WithSession(r.Context(), s)
	ctx = context.WithValue(ctx, clientKey, c)
	return r.WithContext(ctx)
}

// WithTestSession injects a session and client into the request context.
// Handler tests use it to bypass LoadSession.
func WithTestSession(r *http.Request, s *session.Session, c *apiclient.Client) *http.Request {
	return withSession(r, s, c)
}

// helpers

func wantsHTML(r *http.Request) bool {
	if isHTMX(r) {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
