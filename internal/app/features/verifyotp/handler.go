// internal/app/features/verifyotp/handler.go
package verifyotp

import (
	"net/http"
	"strings"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"go.uber.org/zap"
)

const (
	msgBadOTP       = "Please enter a valid 6-digit OTP."
	msgVerifyFailed = "Verification failed. Please try again."
	msgVerified     = "Account verified. You can now log in."
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Render     viewdata.Render
}

type otpFormData struct {
	viewdata.BaseVM
	Email string
	Error string
}

type otpInput struct {
	OTP string `validate:"required,len=6" label:"OTP"`
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Render:     viewdata.Templates,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /verify-otp                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeVerify shows the OTP form for the address that just signed up.
// Arriving without one (bookmark, expired cookie) sends the user back to signup.
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request) {
	email := h.SessionMgr.PendingEmail(r)
	if email == "" {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, otpFormData{Email: email})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /verify-otp                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	email := h.SessionMgr.PendingEmail(r)
	if email == "" {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, otpFormData{Email: email, Error: msgBadOTP})
		return
	}

	otp := strings.TrimSpace(r.FormValue("otp"))
	if inputval.Validate(otpInput{OTP: otp}).HasErrors() {
		h.renderForm(w, r, otpFormData{Email: email, Error: msgBadOTP})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "verify otp")
	defer cancel()

	msg, err := auth.Client(r).VerifyOTP(ctx, email, otp)
	if err != nil {
		h.Log.Info("otp rejected", zap.Error(err))
		h.AuditLog.OTPFailed(ctx, r, email, err.Error())
		h.renderForm(w, r, otpFormData{Email: email, Error: apiclient.MessageOr(err, msgVerifyFailed)})
		return
	}

	h.AuditLog.OTPVerified(ctx, r, email)
	if msg == "" {
		msg = msgVerified
	}
	h.SessionMgr.ClearPendingEmail(w, r)
	h.SessionMgr.AddFlash(w, r, auth.FlashSuccess, msg)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form otpFormData) {
	form.BaseVM = viewdata.NewBaseVM(w, r, "Verify your email", "/signup")
	h.Render(w, r, "verify_otp", form)
}
