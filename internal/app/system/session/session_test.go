package session_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/session"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/dalemusser/roomshare/internal/testutil"
	"go.uber.org/zap"
)

// stubGroups returns a fixed result and counts calls.
type stubGroups struct {
	mu     sync.Mutex
	groups []models.Group
	err    error
	calls  int
}

func (s *stubGroups) MyGroups(ctx context.Context) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.groups, s.err
}

// stubBearer records the bearer as the API client would hold it.
type stubBearer struct {
	mu    sync.Mutex
	token string
	sets  int
}

func (b *stubBearer) SetBearer(token string) {
	b.mu.Lock()
	b.token = token
	b.sets++
	b.mu.Unlock()
}

func (b *stubBearer) ClearBearer() {
	b.mu.Lock()
	b.token = ""
	b.mu.Unlock()
}

func (b *stubBearer) current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

func newSession(stored string, groups *stubGroups) (*session.Session, *session.MemoryTokenStore, *stubBearer) {
	store := session.NewMemoryTokenStore(stored)
	bearer := &stubBearer{}
	return session.New(store, groups, bearer, session.WithLogger(zap.NewNop())), store, bearer
}

func TestNew_StartsLoading(t *testing.T) {
	s, _, _ := newSession("tok", &stubGroups{})
	if !s.IsLoading() {
		t.Error("new session should be loading")
	}
	if s.State() != session.StateLoading {
		t.Errorf("State = %q, want loading", s.State())
	}
}

func TestBootstrap_NoStoredToken(t *testing.T) {
	groups := &stubGroups{}
	s, store, bearer := newSession("", groups)
	bearer.SetBearer("stale")

	state := s.Bootstrap(context.Background())

	if state != session.StateLoggedOut {
		t.Errorf("state = %q, want logged-out", state)
	}
	if s.IsAuthenticated() || s.ActiveGroup() != nil || s.IsLoading() {
		t.Errorf("auth=%v group=%v loading=%v", s.IsAuthenticated(), s.ActiveGroup(), s.IsLoading())
	}
	if bearer.current() != "" {
		t.Error("bearer should be cleared")
	}
	if store.Load() != "" {
		t.Error("durable token should be empty")
	}
	if groups.calls != 0 {
		t.Errorf("group list fetched %d times without a token", groups.calls)
	}
}

func TestBootstrap_FirstGroupWins(t *testing.T) {
	groups := &stubGroups{groups: []models.Group{
		{GroupID: 9, GroupName: "Zeta", UserRole: models.RoleMember},
		{GroupID: 1, GroupName: "Alpha", UserRole: models.RoleAdmin},
	}}
	s, store, bearer := newSession("tok", groups)

	state := s.Bootstrap(context.Background())

	if state != session.StateWithGroup {
		t.Fatalf("state = %q, want authenticated-with-group", state)
	}
	g := s.ActiveGroup()
	if g == nil || g.GroupID != 9 {
		t.Fatalf("active group = %+v, want id 9", g)
	}
	if bearer.current() != "tok" {
		t.Errorf("bearer = %q, want tok", bearer.current())
	}
	if store.Load() != "tok" {
		t.Errorf("stored token = %q", store.Load())
	}
	if s.IsLoading() {
		t.Error("loading should be cleared")
	}
}

func TestBootstrap_EmptyGroupList(t *testing.T) {
	s, _, _ := newSession("tok", &stubGroups{groups: []models.Group{}})

	state := s.Bootstrap(context.Background())

	if state != session.StateNoGroup {
		t.Errorf("state = %q, want authenticated-no-group", state)
	}
	if !s.IsAuthenticated() {
		t.Error("should remain authenticated")
	}
	if s.ActiveGroup() != nil {
		t.Error("active group should be absent")
	}
}

func TestBootstrap_FailureLogsOutWhateverTheCause(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		cause session.Cause
	}{
		{"network", errors.New("dial tcp: connection refused"), session.CauseUnavailable},
		{"server", &apiclient.APIError{Op: "my_groups", Status: http.StatusInternalServerError}, session.CauseUnavailable},
		{"unauthorized", &apiclient.APIError{Op: "my_groups", Status: http.StatusUnauthorized}, session.CauseUnauthorized},
		{"forbidden", &apiclient.APIError{Op: "my_groups", Status: http.StatusForbidden}, session.CauseUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, store, bearer := newSession("tok", &stubGroups{err: tc.err})

			state := s.Bootstrap(context.Background())

			if state != session.StateLoggedOut {
				t.Errorf("state = %q, want logged-out", state)
			}
			if s.Token() != "" || store.Load() != "" {
				t.Error("token should be cleared from memory and store")
			}
			if bearer.current() != "" {
				t.Error("bearer should be cleared")
			}
			if s.IsLoading() {
				t.Error("loading should be cleared")
			}
			f := s.LastBootstrapError()
			if f == nil || f.Cause != tc.cause {
				t.Errorf("failure = %+v, want cause %q", f, tc.cause)
			}
		})
	}
}

func TestLogout_Idempotent(t *testing.T) {
	s, store, _ := newSession("", &stubGroups{})
	s.Bootstrap(context.Background())

	s.Logout()
	s.Logout()

	if s.State() != session.StateLoggedOut {
		t.Errorf("state = %q, want logged-out", s.State())
	}
	if s.ActiveGroup() != nil || store.Load() != "" {
		t.Error("logout should leave no group and no token")
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	s, store, bearer := newSession("tok", &stubGroups{groups: []models.Group{{GroupID: 1}}})
	s.Bootstrap(context.Background())

	s.Logout()

	if s.IsAuthenticated() || s.ActiveGroup() != nil {
		t.Error("expected logged-out with no group")
	}
	if store.Load() != "" || bearer.current() != "" {
		t.Error("expected durable token and bearer cleared")
	}
}

func TestLogin_RunsBootstrap(t *testing.T) {
	groups := &stubGroups{groups: []models.Group{{GroupID: 4, GroupName: "Flat", UserRole: models.RoleAdmin}}}
	s, store, _ := newSession("", groups)
	s.Bootstrap(context.Background())

	state := s.Login(context.Background(), "fresh")

	if state != session.StateWithGroup {
		t.Errorf("state = %q", state)
	}
	if store.Load() != "fresh" {
		t.Errorf("stored token = %q, want fresh", store.Load())
	}
	if groups.calls != 1 {
		t.Errorf("group fetches = %d, want 1", groups.calls)
	}
}

func TestActiveGroup_ReturnsCopy(t *testing.T) {
	s, _, _ := newSession("tok", &stubGroups{groups: []models.Group{{GroupID: 1, GroupName: "A"}}})
	s.Bootstrap(context.Background())

	g := s.ActiveGroup()
	g.GroupName = "mutated"

	if s.ActiveGroup().GroupName != "A" {
		t.Error("ActiveGroup should not expose internal state")
	}
}

// blockingGroups holds MyGroups open until release is closed.
type blockingGroups struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingGroups) MyGroups(ctx context.Context) ([]models.Group, error) {
	close(b.started)
	<-b.release
	return []models.Group{{GroupID: 1}}, nil
}

func TestLogoutDuringBootstrap_Wins(t *testing.T) {
	groups := &blockingGroups{started: make(chan struct{}), release: make(chan struct{})}
	store := session.NewMemoryTokenStore("tok")
	s := session.New(store, groups, &stubBearer{})

	done := make(chan struct{})
	go func() {
		s.Bootstrap(context.Background())
		close(done)
	}()

	<-groups.started
	s.Logout()
	close(groups.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bootstrap did not return")
	}

	if s.State() != session.StateLoggedOut {
		t.Errorf("state = %q, want logged-out", s.State())
	}
	if s.ActiveGroup() != nil {
		t.Error("late group result should be discarded")
	}
}

func TestContext_RoundTrip(t *testing.T) {
	s, _, _ := newSession("", &stubGroups{})
	ctx := session.WithSession(context.Background(), s)
	if session.FromContext(ctx) != s {
		t.Error("FromContext did not return the stored session")
	}
	if session.FromContext(context.Background()) != nil {
		t.Error("FromContext on empty context should be nil")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| end-to-end against the fake backend                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func backendSession(t *testing.T, stored string) (*session.Session, *testutil.FakeBackend, *apiclient.Client) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	client := apiclient.New(fb.URL(), 2*time.Second, nil, zap.NewNop())
	s := session.New(session.NewMemoryTokenStore(stored), client, client)
	return s, fb, client
}

func TestScenarioA_FreshLoadNoToken(t *testing.T) {
	s, fb, _ := backendSession(t, "")

	if s.Bootstrap(context.Background()) != session.StateLoggedOut {
		t.Errorf("state = %q", s.State())
	}
	if len(fb.Calls()) != 0 {
		t.Errorf("unexpected backend calls: %v", fb.Calls())
	}
}

func TestScenarioB_LoginWithGroup(t *testing.T) {
	s, fb, client := backendSession(t, "")
	fb.SetGroups(models.Group{GroupID: 1, GroupName: "Flat A", UserRole: models.RoleAdmin})
	s.Bootstrap(context.Background())

	s.Login(context.Background(), testutil.DefaultToken)

	if !s.IsAuthenticated() {
		t.Fatal("expected authenticated")
	}
	if g := s.ActiveGroup(); g == nil || g.GroupID != 1 {
		t.Errorf("active group = %+v, want id 1", g)
	}
	if client.Bearer() != testutil.DefaultToken {
		t.Errorf("client bearer = %q", client.Bearer())
	}
}

func TestScenarioC_LoginNoGroups(t *testing.T) {
	s, _, _ := backendSession(t, "")

	state := s.Login(context.Background(), testutil.DefaultToken)

	if state != session.StateNoGroup {
		t.Errorf("state = %q, want authenticated-no-group", state)
	}
}

func TestScenarioD_GroupServiceDown(t *testing.T) {
	s, fb, client := backendSession(t, "")
	fb.Server.Close()

	state := s.Login(context.Background(), testutil.DefaultToken)

	if state != session.StateLoggedOut {
		t.Errorf("state = %q, want logged-out", state)
	}
	if s.IsAuthenticated() || client.Bearer() != "" {
		t.Error("expected no token anywhere")
	}
	if f := s.LastBootstrapError(); f == nil || f.Cause != session.CauseUnavailable {
		t.Errorf("failure = %+v", f)
	}
}

func TestBootstrap_ExpiredToken(t *testing.T) {
	s, _, _ := backendSession(t, "expired-token")

	state := s.Bootstrap(context.Background())

	if state != session.StateLoggedOut {
		t.Errorf("state = %q", state)
	}
	if f := s.LastBootstrapError(); f == nil || f.Cause != session.CauseUnauthorized {
		t.Errorf("failure = %+v, want unauthorized", f)
	}
}
