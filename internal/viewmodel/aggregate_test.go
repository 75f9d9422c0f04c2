package viewmodel

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func TestByCategoryScenario(t *testing.T) {
	list := []core.Expense{
		expense(1, "lunch", "10", core.CategoryFood, 1),
		expense(2, "dinner", "20", core.CategoryFood, 2),
		expense(3, "garage", "5", core.CategoryRent, 3),
	}

	reports := ByCategory(list)

	require.Len(t, reports, 2)
	assert.Equal(t, core.CategoryFood, reports[0].Category)
	assert.Equal(t, 2, reports[0].Count)
	assert.True(t, reports[0].TotalAmount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, core.CategoryRent, reports[1].Category)
	assert.Equal(t, 1, reports[1].Count)
	assert.True(t, reports[1].TotalAmount.Equal(decimal.NewFromInt(5)))

	avg, ok := AverageFor(reports, core.CategoryFood)
	require.True(t, ok)
	assert.Equal(t, "15", avg.String())

	_, ok = AverageFor(reports, core.CategoryDebt)
	assert.False(t, ok)
}

func TestByCategoryConservesCountAndTotal(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		list := randomExpenses(seed, 50)
		reports := ByCategory(list)

		count := 0
		for _, r := range reports {
			count += r.Count
		}
		assert.Equal(t, len(list), count)
		assert.True(t, ReportTotal(reports).Equal(Total(list)))
	}
}

func TestMonthlyAverage(t *testing.T) {
	assert.Equal(t, "100", MonthlyAverage(decimal.NewFromInt(1200)).String())
	assert.True(t, MonthlyAverage(decimal.Zero).IsZero())
}

func TestTopCategoriesAndRecent(t *testing.T) {
	reports := []core.CategoryReport{
		{Category: core.CategoryFood, Count: 2, TotalAmount: decimal.NewFromInt(30)},
		{Category: core.CategoryRent, Count: 1, TotalAmount: decimal.NewFromInt(900)},
		{Category: core.CategoryBill, Count: 1, TotalAmount: decimal.NewFromInt(30)},
		{Category: core.CategoryDebt, Count: 1, TotalAmount: decimal.NewFromInt(1)},
	}

	top := TopCategories(reports, 3)

	require.Len(t, top, 3)
	assert.Equal(t, []core.Category{core.CategoryRent, core.CategoryFood, core.CategoryBill},
		[]core.Category{top[0].Category, top[1].Category, top[2].Category},
		"ranked by total, not by the order the server sent")
	assert.Equal(t, core.CategoryFood, reports[0].Category, "input untouched")

	list := randomExpenses(9, 8)
	assert.Equal(t, ids(list[:5]), ids(Recent(list, 5)))
	assert.Len(t, Recent(list[:2], 5), 2)
}

func TestBuildReport(t *testing.T) {
	monthly := []core.Expense{
		expense(1, "lunch", "10", core.CategoryFood, 1),
		expense(2, "garage", "5", core.CategoryRent, 3),
	}
	yearly := append(monthly, expense(3, "dinner", "1185", core.CategoryFood, 20))

	r := BuildReport(2025, time.March, monthly, yearly, ByCategory(yearly))

	assert.Equal(t, "15", r.MonthlyTotal.String())
	assert.Equal(t, "1200", r.YearlyTotal.String())
	assert.Equal(t, "100", r.MonthlyAverage.String())
	assert.Equal(t, []int64{2, 1}, ids(r.Monthly), "newest first")
	require.Len(t, r.Categories, 2)
	assert.Equal(t, "597.5", r.Categories[0].Average.String())
}

func TestBuildDashboard(t *testing.T) {
	all := randomExpenses(11, 12)
	d := BuildDashboard(2025, time.March, all[:4], all, ByCategory(all[:4]))

	assert.Equal(t, 4, d.MonthlyCount)
	assert.True(t, d.MonthlyTotal.Equal(Total(all[:4])))
	assert.LessOrEqual(t, len(d.TopCategories), 3)
	assert.Len(t, d.Recent, 5)
}
