package remote

import (
	"context"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/session"
)

// Authenticator signs a session in and out.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (session.Credential, error)
	Signup(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) error
}

// ExpenseReader lists and fetches expenses.
type ExpenseReader interface {
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ExpensesBetween(ctx context.Context, start, end time.Time) ([]core.Expense, error)
}

// ExpenseWriter mutates expenses.
type ExpenseWriter interface {
	CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, patch core.ExpensePatch) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// ReportReader fetches the server side reports.
type ReportReader interface {
	MonthlyReport(ctx context.Context, year int, month time.Month) ([]core.Expense, error)
	YearlyReport(ctx context.Context, year int) ([]core.Expense, error)
	CategoryReport(ctx context.Context, start, end time.Time) ([]core.CategoryReport, error)
}

// API is everything the pages need from the expense service.
type API interface {
	Authenticator
	ExpenseReader
	ExpenseWriter
	ReportReader
}

var _ API = (*Client)(nil)
