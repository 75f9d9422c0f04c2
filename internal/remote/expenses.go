package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"expensetracker/internal/core"
)

const expensesPath = "/v1/expenses"

// expensePayload is the create body. Amounts go out as JSON numbers.
type expensePayload struct {
	Description   string             `json:"description"`
	Amount        json.Number        `json:"amount"`
	Date          string             `json:"date"`
	Category      core.Category      `json:"category"`
	PaymentMethod core.PaymentMethod `json:"paymentMethod"`
	IsRecurring   bool               `json:"isRecurring"`
}

// patchPayload carries only the fields being changed.
type patchPayload struct {
	Description   *string             `json:"description,omitempty"`
	Amount        *json.Number        `json:"amount,omitempty"`
	Date          *string             `json:"date,omitempty"`
	Category      *core.Category      `json:"category,omitempty"`
	PaymentMethod *core.PaymentMethod `json:"paymentMethod,omitempty"`
	IsRecurring   *bool               `json:"isRecurring,omitempty"`
}

func newExpensePayload(in core.ExpenseInput) expensePayload {
	return expensePayload{
		Description:   in.Description,
		Amount:        json.Number(in.Amount.String()),
		Date:          in.Date.String(),
		Category:      in.Category,
		PaymentMethod: in.PaymentMethod,
		IsRecurring:   in.IsRecurring,
	}
}

func newPatchPayload(p core.ExpensePatch) patchPayload {
	out := patchPayload{
		Description:   p.Description,
		Category:      p.Category,
		PaymentMethod: p.PaymentMethod,
		IsRecurring:   p.IsRecurring,
	}
	if p.Amount != nil {
		n := json.Number(p.Amount.String())
		out.Amount = &n
	}
	if p.Date != nil {
		d := p.Date.String()
		out.Date = &d
	}
	return out
}

func expensePath(id int64) string {
	return expensesPath + "/" + strconv.FormatInt(id, 10)
}

func localValidation(op string, err error) error {
	return newError(ErrValidation, op, 0, err.Error(), err)
}

// ListExpenses returns every expense of the signed-in user in server order.
func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return c.listExpenses(ctx, expensesPath, nil)
}

func (c *Client) listExpenses(ctx context.Context, path string, query url.Values) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.call(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Expense{}
	}
	return out, nil
}

func (c *Client) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	path := expensePath(id)
	var out *core.Expense
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return core.Expense{}, err
	}
	if out == nil {
		return core.Expense{}, newError(ErrNotFound, "GET "+path, http.StatusOK, "", nil)
	}
	return *out, nil
}

// CreateExpense validates in locally, then posts it. The returned expense
// carries the server assigned id and dates.
func (c *Client) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	op := "POST " + expensesPath
	if err := in.Validate(); err != nil {
		return core.Expense{}, localValidation(op, err)
	}
	var out *core.Expense
	if err := c.call(ctx, http.MethodPost, expensesPath, nil, newExpensePayload(in), &out); err != nil {
		return core.Expense{}, err
	}
	if out == nil {
		return core.Expense{}, newError(ErrTransport, op, http.StatusOK, "", errEmptyData)
	}
	return *out, nil
}

// UpdateExpense sends only the fields set in patch.
func (c *Client) UpdateExpense(ctx context.Context, id int64, patch core.ExpensePatch) (core.Expense, error) {
	path := expensePath(id)
	op := "PUT " + path
	if err := patch.Validate(); err != nil {
		return core.Expense{}, localValidation(op, err)
	}
	var out *core.Expense
	if err := c.call(ctx, http.MethodPut, path, nil, newPatchPayload(patch), &out); err != nil {
		return core.Expense{}, err
	}
	if out == nil {
		return core.Expense{}, newError(ErrNotFound, op, http.StatusOK, "", nil)
	}
	return *out, nil
}

// DeleteExpense removes one expense. Deleting an id that no longer exists
// yields ErrNotFound, whether the API says so by status or by data:false.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	path := expensePath(id)
	var data json.RawMessage
	if err := c.call(ctx, http.MethodDelete, path, nil, nil, &data); err != nil {
		return err
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("false")) {
		return newError(ErrNotFound, "DELETE "+path, http.StatusOK, "", nil)
	}
	return nil
}

// ExpensesBetween lists expenses dated within the calendar days start..end,
// both inclusive.
func (c *Client) ExpensesBetween(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	query, err := dayRange("GET "+expensesPath+"/between", start, end)
	if err != nil {
		return nil, err
	}
	return c.listExpenses(ctx, expensesPath+"/between", query)
}

// dayRange expands two calendar days into the API's startDate/endDate pair.
func dayRange(op string, start, end time.Time) (url.Values, error) {
	from := core.NewTimestamp(start).StartOfDay()
	to := core.NewTimestamp(end).EndOfDay()
	if to.Before(from.Time) {
		return nil, newError(ErrValidation, op, 0, "end date is before start date", nil)
	}
	return url.Values{
		"startDate": {from.String()},
		"endDate":   {to.String()},
	}, nil
}
