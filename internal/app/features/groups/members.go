// internal/app/features/groups/members.go
package groups

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	msgMembersFailed = "Failed to fetch group members."
	msgAddFailed     = "Failed to add member."
	msgRemoveFailed  = "Failed to remove member."
	msgRemoved       = "Member removed successfully."
)

type membersData struct {
	viewdata.BaseVM
	Members []models.Member
	Error   string

	// Add-member form state
	Email      string
	FormErrors *inputval.Result
	FormError  string
}

type addMemberInput struct {
	Email string `validate:"required,plainemail" label:"Email"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /group                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	h.renderMembers(w, r, membersData{})
}

func (h *Handler) renderMembers(w http.ResponseWriter, r *http.Request, data membersData) {
	group := auth.Session(r).ActiveGroup()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "group members")
	defer cancel()

	members, err := auth.Client(r).GroupMembers(ctx, group.GroupID)
	if err != nil {
		if h.SessionMgr.HandleAPIError(w, r, err) {
			return
		}
		h.Log.Error("group members fetch failed", zap.Int64("group_id", group.GroupID), zap.Error(err))
		data.Error = msgMembersFailed
	}

	data.BaseVM = viewdata.NewBaseVM(w, r, "Group management", "/")
	data.Members = members
	h.Render(w, r, "group_members", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /group/members                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAddMember adds a registered user to the active group by email.
// The add form is only offered to admins; the backend enforces it.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	group := auth.Session(r).ActiveGroup()

	if err := r.ParseForm(); err != nil {
		h.Log.Warn("add member: parse form", zap.Error(err))
		h.renderMembers(w, r, membersData{FormError: "Invalid form data."})
		return
	}

	in := addMemberInput{Email: strings.TrimSpace(r.FormValue("email"))}
	if res := inputval.Validate(in); res.HasErrors() {
		h.renderMembers(w, r, membersData{Email: in.Email, FormErrors: res})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add member")
	defer cancel()

	if err := auth.Client(r).AddGroupMember(ctx, group.GroupID, in.Email); err != nil {
		if h.SessionMgr.HandleAPIError(w, r, err) {
			return
		}
		h.Log.Info("add member rejected", zap.Int64("group_id", group.GroupID), zap.Error(err))
		h.renderMembers(w, r, membersData{Email: in.Email, FormError: apiclient.MessageOr(err, msgAddFailed)})
		return
	}

	h.AuditLog.MemberAdded(ctx, r, auth.Session(r).Token(), group.GroupID, in.Email)
	h.SessionMgr.AddFlash(w, r, auth.FlashSuccess, fmt.Sprintf("User %s added to the group.", in.Email))
	http.Redirect(w, r, "/group", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /group/members/{userID}/remove                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	group := auth.Session(r).ActiveGroup()

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		h.SessionMgr.AddFlash(w, r, auth.FlashError, "Invalid member.")
		http.Redirect(w, r, "/group", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "remove member")
	defer cancel()

	if err := auth.Client(r).RemoveGroupMember(ctx, group.GroupID, userID); err != nil {
		if h.SessionMgr.HandleAPIError(w, r, err) {
			return
		}
		h.Log.Info("remove member rejected", zap.Int64("group_id", group.GroupID), zap.Int64("user_id", userID), zap.Error(err))
		h.SessionMgr.AddFlash(w, r, auth.FlashError, apiclient.MessageOr(err, msgRemoveFailed))
		http.Redirect(w, r, "/group", http.StatusSeeOther)
		return
	}

	h.AuditLog.MemberRemoved(ctx, r, auth.Session(r).Token(), group.GroupID, userID)
	h.SessionMgr.AddFlash(w, r, auth.FlashSuccess, msgRemoved)
	http.Redirect(w, r, "/group", http.StatusSeeOther)
}
