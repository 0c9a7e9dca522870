// internal/app/features/signup/handler.go
package signup

import (
	"net/http"
	"strings"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"github.com/dalemusser/roomshare/internal/app/system/ratelimit"
	"github.com/dalemusser/roomshare/internal/app/system/textsan"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"go.uber.org/zap"
)

const (
	msgSignupFailed = "Signup failed. Please try again."
	msgOTPSent      = "Verification OTP sent to your email address."
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Limiter    *ratelimit.FormLimiter
	Render     viewdata.Render
}

type signupFormData struct {
	viewdata.BaseVM
	Error  string
	Errors *inputval.Result
	Name   string
	Email  string
}

type signupInput struct {
	Name     string `validate:"required,min=2,max=100" label:"Name"`
	Email    string `validate:"required,plainemail" label:"Email"`
	Password string `validate:"required,min=8,max=128" label:"Password"`
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
| GET /signup                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSignup(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, signupFormData{}, http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /signup                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Log.Warn("signup: parse form", zap.Error(err))
		h.renderForm(w, r, signupFormData{Error: "Invalid form data."}, http.StatusBadRequest)
		return
	}

	in := signupInput{
		Name:     textsan.Plain(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	form := signupFormData{Name: in.Name, Email: in.Email}

	if res := inputval.Validate(in); res.HasErrors() {
		form.Errors = res
		h.renderForm(w, r, form, http.StatusOK)
		return
	}

	if ok, reason := h.Limiter.Check(r, in.Email); !ok {
		h.Metrics.RateLimited("signup")
		form.Error = reason
		h.renderForm(w, r, form, http.StatusTooManyRequests)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "signup")
	defer cancel()

	msg, err := auth.Client(r).Signup(ctx, apiclient.SignupRequest{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		h.Log.Info("signup rejected", zap.Error(err))
		h.AuditLog.SignupSubmitted(ctx, r, in.Email, false, err.Error())
		form.Error = apiclient.MessageOr(err, msgSignupFailed)
		h.renderForm(w, r, form, http.StatusOK)
		return
	}

	h.AuditLog.SignupSubmitted(ctx, r, in.Email, true, "")
	if msg == "" {
		msg = msgOTPSent
	}
	h.SessionMgr.SetPendingEmail(w, r, in.Email)
	h.SessionMgr.AddFlash(w, r, auth.FlashSuccess, msg)
	http.Redirect(w, r, "/verify-otp", http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form signupFormData, status int) {
	form.BaseVM = viewdata.NewBaseVM(w, r, "Sign up", "/login")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	h.Render(w, r, "signup", form)
}
