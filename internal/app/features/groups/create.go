// internal/app/features/groups/create.go
package groups

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/textsan"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"go.uber.org/zap"
)

const (
	msgCreateFailed = "Failed to create group."
	msgReloadFailed = "Your group was created, but your account could not be reloaded. Please log in again."
)

type createFormData struct {
	viewdata.BaseVM
	Error  string
	Errors *inputval.Result
	Name   string
}

type createInput struct {
	Name string `validate:"required,max=100" label:"Group name"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /create-group                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreateGroup(w http.ResponseWriter, r *http.Request) {
	h.renderCreate(w, r, createFormData{})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /create-group                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreateGroup creates the group, then re-runs the session bootstrap
// with the current token so the new group becomes the active one.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Log.Warn("create group: parse form", zap.Error(err))
		h.renderCreate(w, r, createFormData{Error: "Invalid form data."})
		return
	}

	in := createInput{Name: textsan.Plain(r.FormValue("name"))}
	form := createFormData{Name: in.Name}
	if res := inputval.Validate(in); res.HasErrors() {
		form.Errors = res
		h.renderCreate(w, r, form)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create group")
	defer cancel()

	sess := auth.Session(r)
	created, err := auth.Client(r).CreateGroup(ctx, in.Name)
	if err != nil {
		if h.SessionMgr.HandleAPIError(w, r, err) {
			return
		}
		h.Log.Warn("create group failed", zap.Error(err))
		form.Error = apiclient.MessageOr(err, msgCreateFailed)
		h.renderCreate(w, r, form)
		return
	}
	h.AuditLog.GroupCreated(ctx, r, sess.Token(), created.ID, in.Name)

	sess.Login(ctx, sess.Token())
	if !sess.IsAuthenticated() {
		h.Log.Warn("re-bootstrap after create group failed", zap.Int64("group_id", created.ID))
		h.SessionMgr.AddFlash(w, r, auth.FlashError, msgReloadFailed)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.SessionMgr.AddFlash(w, r, auth.FlashSuccess, fmt.Sprintf("Group %q created successfully!", in.Name))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderCreate(w http.ResponseWriter, r *http.Request, form createFormData) {
	form.BaseVM = viewdata.NewBaseVM(w, r, "Create a new group", "/welcome")
	h.Render(w, r, "create_group", form)
}
