package welcome

import (
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the welcome page.
type Handler struct {
	Log    *zap.Logger
	Render viewdata.Render
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		Render: viewdata.Templates,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /welcome – first stop for a user without a group                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeWelcome(w http.ResponseWriter, r *http.Request) {
	data := struct {
		viewdata.BaseVM
	}{
		BaseVM: viewdata.NewBaseVM(w, r, "Welcome", "/"),
	}

	h.Render(w, r, "welcome", data)
}
