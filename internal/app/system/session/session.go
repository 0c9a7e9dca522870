// Package session holds the per-browser session state: the bearer token,
// the active group, and whether bootstrap is still running.
//
// A Session is built explicitly with its collaborators (durable token store,
// group lister, bearer holder) and passed to whatever needs it through the
// request context. There is no package-level state.
package session

import (
	"context"
	"sync"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"go.uber.org/zap"
)

// State is the externally observable session state.
type State string

const (
	StateLoading   State = "loading"
	StateLoggedOut State = "logged-out"
	StateNoGroup   State = "authenticated-no-group"
	StateWithGroup State = "authenticated-with-group"
)

// TokenStore is the durable home of the bearer token. It holds exactly one value.
type TokenStore interface {
	Load() string
	Save(token string) error
	Clear() error
}

// GroupLister fetches the current user's groups.
type GroupLister interface {
	MyGroups(ctx context.Context) ([]models.Group, error)
}

// BearerSetter attaches or detaches the token on outbound API calls.
type BearerSetter interface {
	SetBearer(token string)
	ClearBearer()
}

// Cause classifies why a bootstrap was rejected.
type Cause string

const (
	// CauseUnauthorized means the backend rejected the token (401/403).
	CauseUnauthorized Cause = "unauthorized"
	// CauseUnavailable covers everything else: network, timeouts, 5xx.
	CauseUnavailable Cause = "unavailable"
)

// BootstrapFailure records the last failed group fetch. It is informational
// only; the session state after a failure is the same whatever the cause.
type BootstrapFailure struct {
	Cause Cause
	Err   error
}

// Session is one browser session. Safe for concurrent use.
type Session struct {
	tokens TokenStore
	groups GroupLister
	bearer BearerSetter
	log    *zap.Logger

	mu           sync.Mutex
	token        string
	activeGroup  *models.Group
	initializing bool
	gen          uint64
	lastFailure  *BootstrapFailure
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for bootstrap outcomes.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Session seeded with the token persisted in tokens.
// The session starts in StateLoading until Bootstrap runs.
func New(tokens TokenStore, groups GroupLister, bearer BearerSetter, opts ...Option) *Session {
	s := &Session{
		tokens:       tokens,
		groups:       groups,
		bearer:       bearer,
		log:          zap.NewNop(),
		token:        tokens.Load(),
		initializing: true,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Bootstrap turns the held token into a resolved session and returns the
// resulting state. Every branch ends with loading cleared.
func (s *Session) Bootstrap(ctx context.Context) State {
	s.mu.Lock()
	token := s.token
	gen := s.gen
	s.lastFailure = nil
	s.mu.Unlock()

	if token == "" {
		s.reset(gen)
		return s.State()
	}

	if err := s.tokens.Save(token); err != nil {
		s.log.Warn("session: persist token failed", zap.Error(err))
	}
	s.bearer.SetBearer(token)

	groups, err := s.groups.MyGroups(ctx)
	if err != nil {
		s.failClosed(gen, err)
		return s.State()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// logged out or re-logged in while the fetch was in flight
		return s.stateLocked()
	}
	if len(groups) > 0 {
		g := groups[0]
		s.activeGroup = &g
	} else {
		s.activeGroup = nil
	}
	s.initializing = false
	return s.stateLocked()
}

// failClosed is the bootstrap failure policy: any error from the group
// fetch invalidates the session, whether the backend rejected the token or
// could not be reached. The cause is kept for reporting.
func (s *Session) failClosed(gen uint64, err error) {
	cause := CauseUnavailable
	if apiclient.IsUnauthorized(err) {
		cause = CauseUnauthorized
	}
	s.log.Warn("session: bootstrap rejected, logging out",
		zap.String("cause", string(cause)),
		zap.Error(err))

	s.reset(gen)

	s.mu.Lock()
	if s.gen == gen {
		s.lastFailure = &BootstrapFailure{Cause: cause, Err: err}
	}
	s.mu.Unlock()
}

// reset moves to logged-out unless a newer Login/Logout has superseded gen.
func (s *Session) reset(gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.activeGroup = nil
	s.initializing = false
	s.mu.Unlock()

	s.clearDurable()
}

func (s *Session) clearDurable() {
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("session: clear token failed", zap.Error(err))
	}
	s.bearer.ClearBearer()
}

// Login stores token and runs the bootstrap sequence with it.
func (s *Session) Login(ctx context.Context, token string) State {
	s.mu.Lock()
	s.gen++
	s.token = token
	s.activeGroup = nil
	s.initializing = true
	s.mu.Unlock()
	return s.Bootstrap(ctx)
}

// Logout clears the token, the active group and the bearer. Calling it on
// a logged-out session leaves it logged out.
func (s *Session) Logout() {
	s.mu.Lock()
	s.gen++
	s.token = ""
	s.activeGroup = nil
	s.initializing = false
	s.lastFailure = nil
	s.mu.Unlock()

	s.clearDurable()
}

// Token returns the held bearer token, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated is true iff a token is held. It says nothing about groups.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// ActiveGroup returns a copy of the active group, or nil.
func (s *Session) ActiveGroup() *models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeGroup == nil {
		return nil
	}
	g := *s.activeGroup
	return &g
}

// IsLoading reports whether bootstrap has not yet completed.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializing
}

// LastBootstrapError returns the failure recorded by the most recent
// bootstrap, or nil if it succeeded or never ran.
func (s *Session) LastBootstrapError() *BootstrapFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailure
}

// State returns the current observable state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.initializing:
		return StateLoading
	case s.token == "":
		return StateLoggedOut
	case s.activeGroup == nil:
		return StateNoGroup
	default:
		return StateWithGroup
	}
}
