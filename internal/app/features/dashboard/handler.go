// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const msgFetchFailed = "Failed to fetch dashboard data."

// Handler serves the group dashboard: balances, the expense list, the
// add-expense form and the monthly summary. Every route sits behind the
// layout shell, so an active group is always present.
type Handler struct {
	Log            *zap.Logger
	SessionMgr     *auth.SessionManager
	AuditLog       *auditlog.Logger
	MaxUploadBytes int64
	Render         viewdata.Render
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, maxUploadMB int, logger *zap.Logger) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &Handler{
		Log:            logger,
		SessionMgr:     sessionMgr,
		AuditLog:       audit,
		MaxUploadBytes: int64(maxUploadMB) << 20,
		Render:         viewdata.Templates,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type expenseForm struct {
	Title    string
	Amount   string
	Category string
}

type dashboardData struct {
	viewdata.BaseVM
	Balances   []models.Balance
	Expenses   []models.Expense
	Error      string
	Categories []string
	MaxUpload  int64 // MiB, for the form hint

	// Add-expense form state, kept when a submission is rejected.
	Form        expenseForm
	FormErrors  *inputval.Result
	FormError   string
	ShowAddForm bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, dashboardData{})
}

// renderDashboard fetches balances and expenses together and renders the page.
// A 401/403 from either ends the session instead.
func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, data dashboardData) {
	group := auth.Session(r).ActiveGroup()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "dashboard fetch")
	defer cancel()

	balances, expenses, err := fetchDashboard(ctx, auth.Client(r), group.GroupID)
	if err != nil {
		if h.SessionMgr.HandleAPIError(w, r, err) {
			return
		}
		h.Log.Error("dashboard fetch failed", zap.Int64("group_id", group.GroupID), zap.Error(err))
		data.Error = msgFetchFailed
	}

	data.BaseVM = viewdata.NewBaseVM(w, r, group.GroupName, "/")
	data.Balances = balances
	data.Expenses = expenses
	data.Categories = models.ExpenseCategories
	data.MaxUpload = h.MaxUploadBytes >> 20
	h.Render(w, r, "dashboard", data)
}

// fetchDashboard loads balances and expenses concurrently; the page only
// renders once both have answered.
func fetchDashboard(ctx context.Context, c *apiclient.Client, groupID int64) ([]models.Balance, []models.Expense, error) {
	var (
		balances []models.Balance
		expenses []models.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balances, err = c.GroupBalances(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = c.GroupExpenses(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return balances, expenses, nil
}
