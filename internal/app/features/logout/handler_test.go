package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/roomshare/internal/app/features/logout"
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/dalemusser/roomshare/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// signedInRequest returns a request carrying a valid session cookie.
func signedInRequest(t *testing.T, sm *auth.SessionManager, method string) *http.Request {
	t.Helper()
	seed := httptest.NewRecorder()
	seedReq := httptest.NewRequest("GET", "/", nil)
	if err := sm.TokenStore(seed, seedReq).Save(testutil.DefaultToken); err != nil {
		t.Fatalf("seed cookie: %v", err)
	}
	req := testutil.NewRequest(method, "/logout")
	return testutil.CarryCookies(seed, req)
}

func TestServeLogout_SignedIn(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.SetGroups(models.Group{GroupID: 1, GroupName: "Flat", UserRole: models.RoleAdmin})
	sm := testutil.NewSessionManager(t)

	core, logs := observer.New(zapcore.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "all", Group: "all"})
	h := logout.NewHandler(sm, audit, nil, zap.NewNop())
	handler := sm.LoadSession(testutil.NewClient(fb))(http.HandlerFunc(h.ServeLogout))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInRequest(t, sm, "POST"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	deleted := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			deleted = true
		}
	}
	if !deleted {
		t.Error("expected session cookie to be deleted")
	}

	if logs.FilterField(zap.String("event_type", "logout")).Len() != 1 {
		t.Errorf("expected one logout audit entry, got %d", logs.FilterField(zap.String("event_type", "logout")).Len())
	}
}

func TestServeLogout_AlreadyLoggedOut(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	sm := testutil.NewSessionManager(t)
	h := logout.NewHandler(sm, nil, nil, zap.NewNop())
	handler := sm.LoadSession(testutil.NewClient(fb))(http.HandlerFunc(h.ServeLogout))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, testutil.NewRequest("GET", "/logout"))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("call %d: status = %d, want 303", i, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("call %d: Location = %q", i, loc)
		}
		if n := len(rec.Result().Cookies()); n != 0 {
			t.Errorf("call %d: expected no cookies written, got %d", i, n)
		}
	}
	if fb.CallCount("GET /groups/my-groups") != 0 {
		t.Error("logged-out logout should not reach the backend")
	}
}

func TestServeLogout_HTMX(t *testing.T) {
	sm := testutil.NewSessionManager(t)
	h := logout.NewHandler(sm, nil, nil, zap.NewNop())

	req := httptest.NewRequest("POST", "/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", got)
	}
}

func TestServeLogout_WithoutLoadSessionClearsCookie(t *testing.T) {
	sm := testutil.NewSessionManager(t)
	h := logout.NewHandler(sm, nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeLogout(rec, signedInRequest(t, sm, "GET"))

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected deletion cookie")
	}
}
