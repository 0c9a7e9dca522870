// internal/app/features/dashboard/expenses.go
package dashboard

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/inputval"
	"github.com/dalemusser/roomshare/internal/app/system/textsan"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/domain/models"
	"go.uber.org/zap"
)

const (
	msgExpenseAdded  = "Expense added successfully!"
	msgExpenseFailed = "Failed to add expense."
)

type expenseInput struct {
	Title    string  `validate:"required,min=2,max=100" label:"Title"`
	Amount   float64 `validate:"gt=0" label:"Amount"`
	Category string  `validate:"required,category" label:"Category"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /expenses                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAddExpense(w http.ResponseWriter, r *http.Request) {
	group := auth.Session(r).ActiveGroup()

	// Multipart framing needs a little room beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.Log.Info("add expense: parse form", zap.Error(err))
		h.rejectExpense(w, r, expenseForm{}, nil, h.tooLarge())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	form := expenseForm{
		Title:    textsan.Plain(r.FormValue("title")),
		Amount:   strings.TrimSpace(r.FormValue("amount")),
		Category: r.FormValue("category"),
	}
	amount, perr := strconv.ParseFloat(form.Amount, 64)
	if perr != nil || math.IsInf(amount, 0) || math.IsNaN(amount) {
		amount = 0 // fails gt=0 with the usual field error
	}
	in := expenseInput{Title: form.Title, Amount: amount, Category: form.Category}
	if res := inputval.Validate(in); res.HasErrors() {
		h.rejectExpense(w, r, form, res, "")
		return
	}

	proof, file, msg := h.proofFromRequest(r)
	if msg != "" {
		h.rejectExpense(w, r, form, nil, msg)
		return
	}
	if file != nil {
		defer file.Close()
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upload(), h.Log, "add expense")
	defer cancel()

	_, err := auth.Client(r).AddExpense(ctx, models.NewExpense{
		GroupID:  group.GroupID,
		Title:    in.Title,
		Amount:   in.Amount,
		Category: in.Category,
	}, proof)
	if err != nil {
		if h.SessionMgr.HandleAPIError(w, r, err) {
			return
		}
		h.Log.Warn("add expense failed", zap.Int64("group_id", group.GroupID), zap.Error(err))
		h.rejectExpense(w, r, form, nil, apiclient.MessageOr(err, msgExpenseFailed))
		return
	}

	h.AuditLog.ExpenseAdded(ctx, r, auth.Session(r).Token(), group.GroupID, in.Title, in.Amount, proof != nil)
	h.SessionMgr.AddFlash(w, r, auth.FlashSuccess, msgExpenseAdded)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// proofFromRequest returns the optional proof upload and its open file, or
// nils when none was chosen. A non-empty message means the upload is unusable.
func (h *Handler) proofFromRequest(r *http.Request) (*apiclient.Proof, multipart.File, string) {
	file, fh, err := r.FormFile("proofFile")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, ""
	}
	if err != nil {
		h.Log.Info("add expense: read proof", zap.Error(err))
		return nil, nil, "Could not read the proof file."
	}
	if fh.Size > h.MaxUploadBytes {
		file.Close()
		return nil, nil, h.tooLarge()
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &apiclient.Proof{Filename: fh.Filename, ContentType: ct, Body: file}, file, ""
}

func (h *Handler) tooLarge() string {
	return fmt.Sprintf("Proof file must be %d MB or smaller.", h.MaxUploadBytes>>20)
}

// rejectExpense re-renders the dashboard with the add form open.
func (h *Handler) rejectExpense(w http.ResponseWriter, r *http.Request, form expenseForm, res *inputval.Result, msg string) {
	h.renderDashboard(w, r, dashboardData{
		Form:        form,
		FormErrors:  res,
		FormError:   msg,
		ShowAddForm: true,
	})
}
