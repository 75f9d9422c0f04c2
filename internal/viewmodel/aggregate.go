package viewmodel

import (
	"slices"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

var twelve = decimal.NewFromInt(12)

// Total sums the amounts.
func Total(expenses []core.Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// ByCategory groups expenses into one report per category, in order of first
// appearance. Counts add up to len(expenses) and totals to Total(expenses).
func ByCategory(expenses []core.Expense) []core.CategoryReport {
	index := make(map[core.Category]int)
	var reports []core.CategoryReport
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(reports)
			index[e.Category] = i
			reports = append(reports, core.CategoryReport{Category: e.Category, TotalAmount: decimal.Zero})
		}
		reports[i].Count++
		reports[i].TotalAmount = reports[i].TotalAmount.Add(e.Amount)
	}
	return reports
}

// AverageFor returns the per-expense average of one category.
func AverageFor(reports []core.CategoryReport, category core.Category) (decimal.Decimal, bool) {
	for _, r := range reports {
		if r.Category == category {
			return r.Average(), true
		}
	}
	return decimal.Zero, false
}

// MonthlyAverage spreads a yearly total evenly across twelve months.
func MonthlyAverage(yearTotal decimal.Decimal) decimal.Decimal {
	return yearTotal.Div(twelve)
}

// TopCategories returns the n reports with the largest totals; ties keep
// their input order. The ranking is computed here by total rather than
// trusting the order the server returned the reports in.
func TopCategories(reports []core.CategoryReport, n int) []core.CategoryReport {
	out := slices.Clone(reports)
	slices.SortStableFunc(out, func(a, b core.CategoryReport) int {
		return b.TotalAmount.Cmp(a.TotalAmount)
	})
	if n < 0 {
		n = 0
	}
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Recent returns the first n expenses in the order given.
func Recent(expenses []core.Expense, n int) []core.Expense {
	n = max(0, min(n, len(expenses)))
	return slices.Clone(expenses[:n])
}

// ReportTotal sums the totals of category reports.
func ReportTotal(reports []core.CategoryReport) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range reports {
		sum = sum.Add(r.TotalAmount)
	}
	return sum
}
