package viewdata_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/session"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/dalemusser/roomshare/internal/testutil"
)

func TestNewBaseVM_NoSession(t *testing.T) {
	viewdata.Init(nil)
	req := httptest.NewRequest("GET", "/login", nil)
	vm := viewdata.NewBaseVM(httptest.NewRecorder(), req, "Login", "/")

	if vm.IsLoggedIn {
		t.Error("expected logged out")
	}
	if vm.State != string(session.StateLoggedOut) {
		t.Errorf("State = %q", vm.State)
	}
	if vm.Title != "Login" {
		t.Errorf("Title = %q", vm.Title)
	}
	if vm.ActiveGroup != nil {
		t.Error("expected no active group")
	}
}

func TestNewBaseVM_WithGroup(t *testing.T) {
	viewdata.Init(nil)
	fb := testutil.NewFakeBackend(t)
	s, c := testutil.SignedIn(t, fb, models.Group{GroupID: 7, GroupName: "Flat 4B", UserRole: models.RoleAdmin})

	req := testutil.WithSession(httptest.NewRequest("GET", "/", nil), s, c)
	vm := viewdata.NewBaseVM(httptest.NewRecorder(), req, "Dashboard", "/")

	if !vm.IsLoggedIn {
		t.Error("expected logged in")
	}
	if vm.State != string(session.StateWithGroup) {
		t.Errorf("State = %q", vm.State)
	}
	if vm.ActiveGroup == nil || vm.ActiveGroup.GroupName != "Flat 4B" {
		t.Fatalf("ActiveGroup = %+v", vm.ActiveGroup)
	}
	if !vm.IsAdmin {
		t.Error("expected admin")
	}
}

func TestNewBaseVM_TakesFlashes(t *testing.T) {
	sm := testutil.NewSessionManager(t)
	viewdata.Init(sm)
	defer viewdata.Init(nil)

	// First request queues a flash.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/create-group", nil)
	sm.AddFlash(rec, req, auth.FlashSuccess, "Group created")

	// Next request renders it.
	req2 := httptest.NewRequest("GET", "/", nil)
	testutil.CarryCookies(rec, req2)
	rec2 := httptest.NewRecorder()
	vm := viewdata.NewBaseVM(rec2, req2, "Dashboard", "/")

	if len(vm.Flashes) != 1 || vm.Flashes[0].Message != "Group created" {
		t.Fatalf("Flashes = %+v", vm.Flashes)
	}
	if vm.Flashes[0].Kind != auth.FlashSuccess {
		t.Errorf("Kind = %q", vm.Flashes[0].Kind)
	}

	// And it is gone afterwards.
	req3 := httptest.NewRequest("GET", "/", nil)
	testutil.CarryCookies(rec2, req3)
	if vm := viewdata.NewBaseVM(httptest.NewRecorder(), req3, "Dashboard", "/"); len(vm.Flashes) != 0 {
		t.Errorf("flash shown twice: %+v", vm.Flashes)
	}
}
