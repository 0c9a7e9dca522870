// internal/app/features/dashboard/summary.go
package dashboard

import (
	"net/http"
	"time"

	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const monthLayout = "2006-01"

type summaryData struct {
	viewdata.BaseVM
	Month     string
	Label     string // e.g. "March 2024"
	PrevMonth string
	NextMonth string
	Summary   models.MonthlySummary
	Error     string
}

type monthInput struct {
	Month string `validate:"month" label:"Month"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /summary?month=YYYY-MM                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	group := auth.Session(r).ActiveGroup()

	month := query.Get(r, "month")
	if month == "" {
		month = time.Now().Format(monthLayout)
	}

	data := summaryData{Month: month}
	if res := inputval.Validate(monthInput{Month: month}); res.HasErrors() {
		data.Error = res.First()
	} else {
		t, _ := time.Parse(monthLayout, month)
		data.Label = t.Format("January 2006")
		data.PrevMonth = t.AddDate(0, -1, 0).Format(monthLayout)
		data.NextMonth = t.AddDate(0, 1, 0).Format(monthLayout)

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "monthly summary")
		defer cancel()

		summary, err := auth.Client(r).MonthlySummary(ctx, group.GroupID, month)
		if err != nil {
			if h.SessionMgr.HandleAPIError(w, r, err) {
				return
			}
			h.Log.Error("monthly summary failed", zap.Int64("group_id", group.GroupID), zap.Error(err))
			data.Error = "Failed to fetch the monthly summary."
		}
		data.Summary = summary
	}

	data.BaseVM = viewdata.NewBaseVM(w, r, "Monthly summary", "/")
	h.Render(w, r, "dashboard_summary", data)
}
