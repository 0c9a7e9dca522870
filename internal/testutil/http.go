package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/session"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SessionKey is a 32+ character key for test session managers.
const SessionKey = "test-session-key-must-be-32-chars-long"

// NewSessionManager returns a non-secure session manager for tests.
func NewSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(SessionKey, "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// NewClient returns an API client pointed at fb.
func NewClient(fb *FakeBackend) *apiclient.Client {
	return apiclient.New(fb.URL(), 5*time.Second, nil, zap.NewNop())
}

// SignedIn returns a session logged in with DefaultToken against fb, whose
// group list is set to groups first. With no groups the session is
// authenticated but ungrouped.
func SignedIn(t *testing.T, fb *FakeBackend, groups ...models.Group) (*session.Session, *apiclient.Client) {
	t.Helper()
	fb.SetGroups(groups...)
	client := NewClient(fb)
	s := session.New(session.NewMemoryTokenStore(""), client, client)
	s.Login(context.Background(), DefaultToken)
	if !s.IsAuthenticated() {
		t.Fatalf("test login failed: state %q", s.State())
	}
	return s, client
}

// LoggedOut returns a bootstrapped session with no token.
func LoggedOut(fb *FakeBackend) (*session.Session, *apiclient.Client) {
	client := NewClient(fb)
	s := session.New(session.NewMemoryTokenStore(""), client, client)
	s.Bootstrap(context.Background())
	return s, client
}

// WithSession puts s and its client into the request context, bypassing LoadSession.
func WithSession(r *http.Request, s *session.Session, c *apiclient.Client) *http.Request {
	return auth.WithTestSession(r, s, c)
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewRequest creates an HTTP request for testing that accepts HTML.
func NewRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html")
	return req
}

// NewFormRequest creates a urlencoded POST request carrying form.
func NewFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

// NewBodyRequest creates a POST request with an arbitrary body and content type.
func NewBodyRequest(target, contentType string, body io.Reader) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/html")
	return req
}

// CarryCookies copies the Set-Cookie values from rec onto req, the way a
// browser would on its next request: the last value written for a name
// wins, and deleted cookies are dropped.
func CarryCookies(rec *httptest.ResponseRecorder, req *http.Request) *http.Request {
	var order []string
	last := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		if _, seen := last[c.Name]; !seen {
			order = append(order, c.Name)
		}
		last[c.Name] = c
	}
	for _, name := range order {
		c := last[name]
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	location := r.Header().Get("Location")
	if location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
