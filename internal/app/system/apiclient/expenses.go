package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/dalemusser/roomshare/internal/domain/models"
)

// Proof is an optional proof-of-purchase file attached to a new expense.
type Proof struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// GroupExpenses lists a group's expenses.
func (c *Client) GroupExpenses(ctx context.Context, groupID int64) ([]models.Expense, error) {
	var out []models.Expense
	path := fmt.Sprintf("/expenses/group/%d", groupID)
	if err := c.do(ctx, call{op: "group_expenses", method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupBalances lists the backend-computed balances for a group.
func (c *Client) GroupBalances(ctx context.Context, groupID int64) ([]models.Balance, error) {
	var out []models.Balance
	path := fmt.Sprintf("/expenses/group/%d/balances", groupID)
	if err := c.do(ctx, call{op: "group_balances", method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlySummary returns the spend breakdown for month (YYYY-MM).
func (c *Client) MonthlySummary(ctx context.Context, groupID int64, month string) (models.MonthlySummary, error) {
	var out models.MonthlySummary
	path := fmt.Sprintf("/expenses/group/%d/summary?month=%s", groupID, url.QueryEscape(month))
	err := c.do(ctx, call{op: "monthly_summary", method: http.MethodGet, path: path}, &out)
	return out, err
}

// AddExpense submits a new expense as multipart/form-data: the JSON payload
// in part "expense" and, when proof is non-nil, the file in part "proofFile".
func (c *Client) AddExpense(ctx context.Context, exp models.NewExpense, proof *Proof) (models.Expense, error) {
	var out models.Expense

	body, contentType, err := encodeExpense(exp, proof)
	if err != nil {
		return out, fmt.Errorf("apiclient: add_expense: %w", err)
	}
	cl := call{
		op:          "add_expense",
		method:      http.MethodPost,
		path:        "/expenses",
		body:        body,
		contentType: contentType,
	}
	err = c.do(ctx, cl, &out)
	return out, err
}

func encodeExpense(exp models.NewExpense, proof *Proof) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="expense"`)
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(part).Encode(exp); err != nil {
		return nil, "", err
	}

	if proof != nil && proof.Body != nil {
		ct := proof.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		fh := make(textproto.MIMEHeader)
		fh.Set("Content-Disposition", fmt.Sprintf(`form-data; name="proofFile"; filename=%q`, proof.Filename))
		fh.Set("Content-Type", ct)
		fp, err := mw.CreatePart(fh)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fp, proof.Body); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
