package viewmodel

import (
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

const (
	dashboardTopCategories = 3
	dashboardRecent        = 5
)

type (
	// Dashboard is the landing page summary for the current month.
	Dashboard struct {
		Year          int
		Month         time.Month
		MonthlyTotal  decimal.Decimal
		MonthlyCount  int
		TopCategories []core.CategoryReport
		Recent        []core.Expense
	}

	CategoryRow struct {
		Category core.Category
		Count    int
		Total    decimal.Decimal
		Average  decimal.Decimal
	}

	// Report is the reports page: one month in detail plus the year by category.
	Report struct {
		Year           int
		Month          time.Month
		Monthly        []core.Expense
		MonthlyTotal   decimal.Decimal
		Categories     []CategoryRow
		YearlyTotal    decimal.Decimal
		YearlyCount    int
		MonthlyAverage decimal.Decimal
	}
)

// BuildDashboard summarises the month's expenses, its category report and the
// most recent entries of the full list.
func BuildDashboard(year int, month time.Month, monthly, all []core.Expense, categories []core.CategoryReport) Dashboard {
	return Dashboard{
		Year:          year,
		Month:         month,
		MonthlyTotal:  Total(monthly),
		MonthlyCount:  len(monthly),
		TopCategories: TopCategories(categories, dashboardTopCategories),
		Recent:        Recent(all, dashboardRecent),
	}
}

// BuildReport assembles the reports page. The monthly average is the yearly
// total over twelve, regardless of how many months have data.
func BuildReport(year int, month time.Month, monthly, yearly []core.Expense, categories []core.CategoryReport) Report {
	rows := make([]CategoryRow, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, CategoryRow{
			Category: c.Category,
			Count:    c.Count,
			Total:    c.TotalAmount,
			Average:  c.Average(),
		})
	}
	yearTotal := Total(yearly)
	return Report{
		Year:           year,
		Month:          month,
		Monthly:        SortExpenses(monthly, DefaultSort),
		MonthlyTotal:   Total(monthly),
		Categories:     rows,
		YearlyTotal:    yearTotal,
		YearlyCount:    len(yearly),
		MonthlyAverage: MonthlyAverage(yearTotal),
	}
}
