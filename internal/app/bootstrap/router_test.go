package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/dalemusser/roomshare/internal/testutil"
	"go.uber.org/zap"
)

// browser drives the full router the way a browser would: it keeps the
// cookie jar between requests and posts forms with the page's CSRF token.
type browser struct {
	t       *testing.T
	fb      *testutil.FakeBackend
	rd      *testutil.Rendered
	handler http.Handler
	jar     map[string]string
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	sm := testutil.NewSessionManager(t)
	viewdata.Init(sm)
	t.Cleanup(func() { viewdata.Init(nil) })

	rd, render := testutil.CaptureRender()
	m := metrics.New()
	r := newRouter(routerDeps{
		SessionMgr: sm,
		API:        testutil.NewClient(fb),
		AuditLog:   auditlog.New(nil, zap.NewNop(), auditlog.Config{Auth: "off", Group: "off"}),
		Metrics:    m,
		CSRFKey:    csrfKey(AppConfig{SessionKey: testutil.SessionKey}),
		Render:     render,
		Log:        zap.NewNop(),
	})
	return &browser{t: t, fb: fb, rd: rd, handler: r, jar: map[string]string{}}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for name, value := range b.jar {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.jar, c.Name)
			continue
		}
		b.jar[c.Name] = c.Value
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.send(testutil.NewRequest("GET", target))
}

// submit loads page, then posts form to action with the token it rendered.
func (b *browser) submit(page, action string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	if rec := b.get(page); rec.Code != http.StatusOK {
		b.t.Fatalf("GET %s: status %d", page, rec.Code)
	}
	form.Set("gorilla.csrf.Token", b.csrfToken())
	return b.send(testutil.NewFormRequest(action, form))
}

func (b *browser) csrfToken() string {
	b.t.Helper()
	v := reflect.ValueOf(b.rd.Data())
	if v.Kind() != reflect.Struct {
		b.t.Fatalf("last render %q carried no view model", b.rd.Name())
	}
	tok := v.FieldByName("CSRFToken")
	if !tok.IsValid() || tok.String() == "" {
		b.t.Fatalf("last render %q carried no CSRF token", b.rd.Name())
	}
	return tok.String()
}

func (b *browser) login() *httptest.ResponseRecorder {
	b.fb.AddUser("Asha", "asha@example.com", "correct-horse")
	return b.submit("/login", "/login", url.Values{
		"email":    {"asha@example.com"},
		"password": {"correct-horse"},
	})
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 to %s", rec.Code, want)
	}
	if got := rec.Header().Get("Location"); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}

func TestScenarioA_FreshLoad_GoesToLogin(t *testing.T) {
	b := newBrowser(t)

	assertRedirect(t, b.get("/"), "/login?return=%2F")

	if rec := b.get("/login"); rec.Code != http.StatusOK || b.rd.Name() != "login" {
		t.Errorf("login page: status=%d template=%q", rec.Code, b.rd.Name())
	}
	if len(b.fb.Calls()) != 0 {
		t.Errorf("no backend calls expected without a token, got %v", b.fb.Calls())
	}
}

func TestScenarioB_LoginWithGroup_ReachesDashboard(t *testing.T) {
	b := newBrowser(t)
	b.fb.SetGroups(models.Group{GroupID: 1, GroupName: "Flat A", UserRole: models.RoleAdmin})

	assertRedirect(t, b.login(), "/")

	rec := b.get("/")
	if rec.Code != http.StatusOK || b.rd.Name() != "dashboard" {
		t.Fatalf("dashboard: status=%d template=%q", rec.Code, b.rd.Name())
	}
	if b.fb.CallCount("GET /expenses/group/1/balances") != 1 {
		t.Errorf("dashboard should load group 1, calls: %v", b.fb.Calls())
	}

	// Public pages bounce a signed-in user home.
	assertRedirect(t, b.get("/signup"), "/")
}

func TestScenarioC_LoginWithoutGroup_Onboarding(t *testing.T) {
	b := newBrowser(t)

	assertRedirect(t, b.login(), "/")

	if rec := b.get("/"); rec.Code != http.StatusOK || b.rd.Name() != "layout_onboarding" {
		t.Fatalf("status=%d template=%q, want onboarding", rec.Code, b.rd.Name())
	}
	if b.get("/group"); b.rd.Name() != "layout_onboarding" {
		t.Errorf("group page should be held back, got %q", b.rd.Name())
	}
	if b.fb.CallCount("GET /expenses/group/0") != 0 {
		t.Error("no group data may be fetched without a group")
	}

	assertRedirect(t, b.submit("/create-group", "/create-group", url.Values{"name": {"Flat A"}}), "/")

	if rec := b.get("/"); rec.Code != http.StatusOK || b.rd.Name() != "dashboard" {
		t.Fatalf("after create: status=%d template=%q", rec.Code, b.rd.Name())
	}
}

func TestScenarioD_GroupFetchFails_StaysLoggedOut(t *testing.T) {
	b := newBrowser(t)
	b.fb.Fail("GET /groups/my-groups", http.StatusServiceUnavailable)

	rec := b.login()

	if rec.Code != http.StatusOK || b.rd.Name() != "login" {
		t.Fatalf("status=%d template=%q, want the login form again", rec.Code, b.rd.Name())
	}
	if _, ok := b.jar["test-session"]; ok {
		t.Error("no session cookie may survive a failed bootstrap")
	}

	// Even once the backend recovers, the browser is still anonymous.
	b.fb.Fail("GET /groups/my-groups", 0)
	assertRedirect(t, b.get("/"), "/login?return=%2F")
}

func TestReturnTo_ConsumedOnLogin(t *testing.T) {
	b := newBrowser(t)
	b.fb.SetGroups(models.Group{GroupID: 1, GroupName: "Flat A", UserRole: models.RoleMember})

	assertRedirect(t, b.get("/group"), "/login?return=%2Fgroup")

	b.fb.AddUser("Asha", "asha@example.com", "correct-horse")
	rec := b.submit("/login?return=%2Fgroup", "/login", url.Values{
		"email":    {"asha@example.com"},
		"password": {"correct-horse"},
		"return":   {"/group"},
	})
	assertRedirect(t, rec, "/group")

	if rec := b.get("/group"); rec.Code != http.StatusOK || b.rd.Name() != "group_members" {
		t.Errorf("group page: status=%d template=%q", rec.Code, b.rd.Name())
	}
}

func TestSignupVerifyLogin_Journey(t *testing.T) {
	b := newBrowser(t)

	rec := b.submit("/signup", "/signup", url.Values{
		"name":     {"Ravi"},
		"email":    {"ravi@example.com"},
		"password": {"long-enough-pw"},
	})
	assertRedirect(t, rec, "/verify-otp")

	rec = b.submit("/verify-otp", "/verify-otp", url.Values{"otp": {"123456"}})
	assertRedirect(t, rec, "/login")

	rec = b.submit("/login", "/login", url.Values{
		"email":    {"ravi@example.com"},
		"password": {"long-enough-pw"},
	})
	assertRedirect(t, rec, "/")
}

func TestLogout_EndsSession(t *testing.T) {
	b := newBrowser(t)
	b.fb.SetGroups(models.Group{GroupID: 1, GroupName: "Flat A", UserRole: models.RoleAdmin})
	assertRedirect(t, b.login(), "/")

	rec := b.submit("/", "/logout", url.Values{})
	assertRedirect(t, rec, "/login")

	assertRedirect(t, b.get("/"), "/login?return=%2F")
}

func TestPost_WithoutCSRFToken_Rejected(t *testing.T) {
	b := newBrowser(t)
	b.fb.AddUser("Asha", "asha@example.com", "correct-horse")

	rec := b.send(testutil.NewFormRequest("/login", url.Values{
		"email":    {"asha@example.com"},
		"password": {"correct-horse"},
	}))

	if rec.Code != http.StatusForbidden || b.rd.Name() != "error_forbidden" {
		t.Errorf("status=%d template=%q", rec.Code, b.rd.Name())
	}
	if b.fb.CallCount("POST /auth/login") != 0 {
		t.Error("a forged post must not reach the backend")
	}
}

func TestUnknownPath_RedirectsHome(t *testing.T) {
	b := newBrowser(t)

	assertRedirect(t, b.get("/no/such/page"), "/")
}

func TestHealthAndMetrics_SkipSession(t *testing.T) {
	b := newBrowser(t)
	b.jar["test-session"] = "garbage"

	if rec := b.get("/health"); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	rec := b.get("/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "roomshare_") {
		t.Errorf("metrics: status=%d", rec.Code)
	}
	if len(b.fb.Calls()) != 0 {
		t.Errorf("health and metrics must not call the backend, got %v", b.fb.Calls())
	}
}
