// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/session"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/csrf"
)

// Render writes the named template with data. Handlers hold one so tests
// can capture what would be rendered without booting the template engine.
type Render func(w http.ResponseWriter, r *http.Request, name string, data any)

// Templates renders through the waffle template engine.
func Templates(w http.ResponseWriter, r *http.Request, name string, data any) {
	templates.Render(w, r, name, data)
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(w, r, "Page Title", "/"),
//	}
type BaseVM struct {
	// Session context (from auth.LoadSession)
	IsLoggedIn  bool
	State       string
	ActiveGroup *models.Group
	IsAdmin     bool

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// One-shot toasts queued by the previous request
	Flashes []auth.Flash
}

// flashSource is set by Init; without it pages render no toasts.
var flashSource *auth.SessionManager

// Init wires the session manager that owns the flash cookie.
// Call this once at startup from bootstrap.
func Init(sm *auth.SessionManager) {
	flashSource = sm
}

// NewBaseVM creates a fully populated BaseVM for a page. Taking the queued
// flashes rewrites the flash cookie, so call it before the body is written.
func NewBaseVM(w http.ResponseWriter, r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		State:       string(session.StateLoggedOut),
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}

	if s := auth.Session(r); s != nil {
		vm.IsLoggedIn = s.IsAuthenticated()
		vm.State = string(s.State())
		if g := s.ActiveGroup(); g != nil {
			vm.ActiveGroup = g
			vm.IsAdmin = g.IsAdmin()
		}
	}

	if flashSource != nil {
		vm.Flashes = flashSource.TakeFlashes(w, r)
	}
	return vm
}
