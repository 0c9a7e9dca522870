// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"github.com/dalemusser/roomshare/internal/app/system/navigation"
	"github.com/dalemusser/roomshare/internal/app/system/ratelimit"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const (
	msgLoginFailed   = "Login failed. Please check your credentials."
	msgAccountLoad   = "We couldn't load your account right now. Please try again."
	msgInvalidForm   = "Invalid form data."
	msgServerFailure = "Something went wrong. Please try again."
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Limiter    *ratelimit.FormLimiter
	Render     viewdata.Render
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Errors    *inputval.Result
	Email     string
	ReturnURL string
}

type loginInput struct {
	Email    string `validate:"required,plainemail" label:"Email"`
	Password string `validate:"required" label:"Password"`
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
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Login", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Log.Warn("login: parse form", zap.Error(err))
		h.renderForm(w, r, loginFormData{Error: msgInvalidForm})
		return
	}

	in := loginInput{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	form := loginFormData{Email: in.Email, ReturnURL: r.FormValue("return")}

	if res := inputval.Validate(in); res.HasErrors() {
		form.Errors = res
		h.renderForm(w, r, form)
		return
	}

	if ok, reason := h.Limiter.Check(r, in.Email); !ok {
		h.Metrics.RateLimited("login")
		h.AuditLog.LoginRateLimited(r.Context(), r, in.Email)
		form.Error = reason
		h.renderFormStatus(w, r, form, http.StatusTooManyRequests)
		return
	}

	client, sess := auth.Client(r), auth.Session(r)
	if client == nil || sess == nil {
		h.Log.Error("login: no session in request context")
		form.Error = msgServerFailure
		h.renderForm(w, r, form)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	token, err := client.Login(ctx, in.Email, in.Password)
	if err != nil {
		h.loginFailed(ctx, w, r, form, err)
		return
	}

	// Bootstrap with the new token; a failed group fetch leaves us logged out.
	sess.Login(ctx, token)
	if !sess.IsAuthenticated() {
		reason := "bootstrap failed"
		if f := sess.LastBootstrapError(); f != nil {
			reason = "bootstrap " + string(f.Cause)
		}
		h.AuditLog.LoginFailed(ctx, r, in.Email, reason)
		form.Error = msgAccountLoad
		h.renderForm(w, r, form)
		return
	}

	h.Limiter.ResetEmail(in.Email)
	h.AuditLog.LoginSuccess(ctx, r, in.Email, token)

	dest := navigation.SafeReturn(form.ReturnURL, navigation.LoginReturn)
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) loginFailed(ctx context.Context, w http.ResponseWriter, r *http.Request, form loginFormData, err error) {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		h.Log.Info("login rejected", zap.Int("status", apiErr.Status))
	case errors.Is(err, apiclient.ErrEmptyToken):
		h.Log.Warn("login: backend returned no token")
	default:
		h.Log.Warn("login: backend unreachable", zap.Error(err))
	}
	h.AuditLog.LoginFailed(ctx, r, form.Email, err.Error())
	form.Error = apiclient.MessageOr(err, msgLoginFailed)
	h.renderForm(w, r, form)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form loginFormData) {
	h.renderFormStatus(w, r, form, http.StatusOK)
}

func (h *Handler) renderFormStatus(w http.ResponseWriter, r *http.Request, form loginFormData, status int) {
	form.BaseVM = viewdata.NewBaseVM(w, r, "Login", "/")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	h.Render(w, r, "login", form)
}
