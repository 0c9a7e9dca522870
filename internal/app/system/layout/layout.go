// Package layout gates group-scoped pages on the session's state: a
// loading placeholder while bootstrap is unresolved, an onboarding prompt
// for users without a group, and the application chrome otherwise.
package layout

import (
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/session"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
)

// Branch is what the shell shows for a session.
type Branch int

const (
	BranchLoading Branch = iota
	BranchOnboarding
	BranchApp
)

func (b Branch) String() string {
	switch b {
	case BranchLoading:
		return "loading"
	case BranchOnboarding:
		return "onboarding"
	default:
		return "app"
	}
}

// Decide looks only at the session: unresolved bootstrap first, then
// whether a group is active.
func Decide(s *session.Session) Branch {
	if s == nil || s.IsLoading() {
		return BranchLoading
	}
	if s.ActiveGroup() == nil {
		return BranchOnboarding
	}
	return BranchApp
}

type pageData struct {
	viewdata.BaseVM
}

// Shell wraps group-scoped routes. Mount it behind auth.RequireSignedIn.
func Shell(render viewdata.Render) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch Decide(auth.Session(r)) {
			case BranchLoading:
				w.Header().Set("Cache-Control", "no-store")
				render(w, r, "layout_loading", pageData{BaseVM: viewdata.NewBaseVM(w, r, "Loading", "/")})
			case BranchOnboarding:
				render(w, r, "layout_onboarding", pageData{BaseVM: viewdata.NewBaseVM(w, r, "Get started", "/")})
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
