// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

const msgCSRF = "Your form expired. Please reload the page and try again."

type pageData struct {
	viewdata.BaseVM
	Message string
}

// Handler renders the error pages the router falls back to.
type Handler struct {
	Log    *zap.Logger
	Render viewdata.Render
}

// NewHandler constructs an errors Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Render: viewdata.Templates}
}

// NotFound sends unknown paths home. The dashboard's own guards decide
// where a visitor actually lands from there.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CSRFFailure is installed as the gorilla/csrf error handler.
func (h *Handler) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	h.Log.Warn("csrf check failed",
		zap.String("path", r.URL.Path),
		zap.Error(csrf.FailureReason(r)),
	)
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(w, r, "Request rejected", "/"),
		Message: msgCSRF,
	}
	w.WriteHeader(http.StatusForbidden)
	h.Render(w, r, "error_forbidden", data)
}
