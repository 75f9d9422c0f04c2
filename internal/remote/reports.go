package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"expensetracker/internal/core"
)

const reportsPath = expensesPath + "/reports"

// MonthlyReport lists the expenses dated in the given month.
func (c *Client) MonthlyReport(ctx context.Context, year int, month time.Month) ([]core.Expense, error) {
	path := reportsPath + "/monthly"
	if month < time.January || month > time.December {
		return nil, newError(ErrValidation, "GET "+path, 0, "month must be between 1 and 12", nil)
	}
	return c.listExpenses(ctx, path, url.Values{
		"year":  {strconv.Itoa(year)},
		"month": {strconv.Itoa(int(month))},
	})
}

// YearlyReport lists the expenses dated in the given year.
func (c *Client) YearlyReport(ctx context.Context, year int) ([]core.Expense, error) {
	return c.listExpenses(ctx, reportsPath+"/yearly", url.Values{"year": {strconv.Itoa(year)}})
}

// CategoryReport returns per-category counts and totals over the calendar
// days start..end.
func (c *Client) CategoryReport(ctx context.Context, start, end time.Time) ([]core.CategoryReport, error) {
	path := reportsPath + "/category"
	query, err := dayRange("GET "+path, start, end)
	if err != nil {
		return nil, err
	}
	var out []core.CategoryReport
	if err := c.call(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.CategoryReport{}
	}
	return out, nil
}
