// internal/app/features/password/handler.go
package password

import (
	"net/http"
	"strings"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"github.com/dalemusser/roomshare/internal/app/system/ratelimit"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const (
	// Shown whether or not the address exists, and on backend failure too.
	msgResetLinkSent = "If an account with that email exists, a password reset link has been sent."

	msgMissingToken = "No reset token found. Please try the 'Forgot Password' process again."
	msgResetFailed  = "Failed to reset password. The token may be invalid or expired."
	msgResetDone    = "Password reset successfully!"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Limiter    *ratelimit.FormLimiter
	Render     viewdata.Render
}

type forgotFormData struct {
	viewdata.BaseVM
	Email   string
	Errors  *inputval.Result
	Error   string
	Message string // set once the request was submitted; the form is then hidden
}

type resetFormData struct {
	viewdata.BaseVM
	Token  string
	Fatal  string // no usable token: only a way back is shown
	Error  string
	Errors *inputval.Result
}

type forgotInput struct {
	Email string `validate:"required,plainemail" label:"Email"`
}

type resetInput struct {
	Password string `validate:"required,min=8,max=128" label:"New password"`
	Confirm  string `validate:"required,eqfield=Password" label:"Confirm password"`
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, m *metrics.Metrics, limiter *ratelimit.FormLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Metrics:    m,
		Limiter:    limiter,
		Render:     viewdata.Templates,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /forgot-password                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeForgot(w http.ResponseWriter, r *http.Request) {
	h.renderForgot(w, r, forgotFormData{}, http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /forgot-password                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderForgot(w, r, forgotFormData{Error: "Invalid form data."}, http.StatusBadRequest)
		return
	}

	in := forgotInput{Email: strings.TrimSpace(r.FormValue("email"))}
	form := forgotFormData{Email: in.Email}

	if res := inputval.Validate(in); res.HasErrors() {
		form.Errors = res
		h.renderForgot(w, r, form, http.StatusOK)
		return
	}

	if ok, reason := h.Limiter.Check(r, in.Email); !ok {
		h.Metrics.RateLimited("forgot_password")
		form.Error = reason
		h.renderForgot(w, r, form, http.StatusTooManyRequests)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "forgot password")
	defer cancel()

	msg, err := auth.Client(r).ForgotPassword(ctx, in.Email)
	h.AuditLog.PasswordResetRequested(ctx, r, in.Email)
	if err != nil {
		h.Log.Warn("forgot password request failed", zap.Error(err))
		msg = ""
	}
	if msg == "" {
		msg = msgResetLinkSent
	}
	form.Message = msg
	h.renderForgot(w, r, form, http.StatusOK)
}

func (h *Handler) renderForgot(w http.ResponseWriter, r *http.Request, form forgotFormData, status int) {
	form.BaseVM = viewdata.NewBaseVM(w, r, "Forgot password", "/login")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	h.Render(w, r, "forgot_password", form)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /reset-password?token=                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeReset(w http.ResponseWriter, r *http.Request) {
	token := query.Get(r, "token")
	form := resetFormData{Token: token}
	if token == "" {
		form.Fatal = msgMissingToken
	}
	h.renderReset(w, r, form)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /reset-password                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderReset(w, r, resetFormData{Fatal: msgMissingToken})
		return
	}

	token := strings.TrimSpace(r.FormValue("token"))
	if token == "" {
		h.renderReset(w, r, resetFormData{Fatal: msgMissingToken})
		return
	}

	in := resetInput{
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm_password"),
	}
	form := resetFormData{Token: token}
	if res := inputval.Validate(in); res.HasErrors() {
		form.Errors = res
		h.renderReset(w, r, form)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reset password")
	defer cancel()

	if _, err := auth.Client(r).ResetPassword(ctx, token, in.Password); err != nil {
		h.Log.Info("password reset rejected", zap.Error(err))
		h.AuditLog.PasswordReset(ctx, r, false, err.Error())
		form.Error = apiclient.MessageOr(err, msgResetFailed)
		h.renderReset(w, r, form)
		return
	}

	h.AuditLog.PasswordReset(ctx, r, true, "")
	h.SessionMgr.AddFlash(w, r, auth.FlashSuccess, msgResetDone)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) renderReset(w http.ResponseWriter, r *http.Request, form resetFormData) {
	form.BaseVM = viewdata.NewBaseVM(w, r, "Reset password", "/login")
	h.Render(w, r, "reset_password", form)
}
