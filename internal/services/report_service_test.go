package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
	"expensetracker/internal/store/memory"
)

type reportFixture struct {
	reports  *ReportService
	expenses *ExpenseService
}

func newReportFixture(t *testing.T) reportFixture {
	t.Helper()
	repo := memory.New()
	reports := NewReportService(repo, NewReportCache(16, time.Minute))
	expenses := NewExpenseService(repo, WithClock(func() time.Time { return testNow }), WithInvalidator(reports))
	ctx := context.Background()
	for _, f := range []core.ExpenseForm{
		{Description: "Lunch", Amount: "12.50", Category: "Food", Date: "2024-01-15"},
		{Description: "Bus", Amount: "2.75", Category: "Transportation", Date: "2024-01-17"},
		{Description: "Dinner", Amount: "30", Category: "Food", Date: "2024-02-01"},
	} {
		_, err := expenses.CreateExpense(ctx, f)
		require.NoError(t, err)
	}
	return reportFixture{reports: reports, expenses: expenses}
}

func TestReportService_All(t *testing.T) {
	fx := newReportFixture(t)

	r, err := fx.reports.Report(context.Background(), core.Filter{})
	require.NoError(t, err)

	assert.Len(t, r.Expenses, 3)
	assert.Equal(t, "45.25", r.GrandTotal.String())
	assert.Equal(t, r.GrandTotal, r.FilteredTotal)
	assert.Equal(t, []string{"Food", "Transportation"}, r.Categories)

	require.Len(t, r.CategoryTotals, 2)
	assert.Equal(t, "Food", r.CategoryTotals[0].Category)
	assert.Equal(t, "93.9", r.CategoryTotals[0].Percentage.String())
	assert.Equal(t, "#014f99", r.CategoryTotals[0].Color)

	// 2024-01-15 .. 2024-02-01 inclusive
	assert.Len(t, r.DailySeries, 18)
	assert.Equal(t, []core.MonthlyTotal{
		{Month: "2024-01", Total: core.Money{Cents: 1525}},
		{Month: "2024-02", Total: core.Money{Cents: 3000}},
	}, r.MonthlyTotals)
}

func TestReportService_Filters(t *testing.T) {
	fx := newReportFixture(t)
	ctx := context.Background()

	byCat, err := fx.reports.Report(ctx, core.Filter{Category: "Food", Start: core.NewDate(2030, 1, 1)})
	require.NoError(t, err)
	assert.Len(t, byCat.Expenses, 2, "category takes precedence over dates")
	assert.Equal(t, "42.50", byCat.FilteredTotal.String())
	assert.Equal(t, "45.25", byCat.GrandTotal.String(), "grand total ignores the filter")

	byRange, err := fx.reports.Report(ctx, core.Filter{Start: core.NewDate(2024, 1, 16), End: core.NewDate(2024, 1, 31)})
	require.NoError(t, err)
	require.Len(t, byRange.Expenses, 1)
	assert.Equal(t, "Bus", byRange.Expenses[0].Description)
	assert.Len(t, byRange.DailySeries, 1)

	_, err = fx.reports.Report(ctx, core.Filter{Start: core.NewDate(2024, 2, 1), End: core.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, core.ErrInvalidRange)
}

func TestReportService_CacheInvalidatedOnWrite(t *testing.T) {
	fx := newReportFixture(t)
	ctx := context.Background()

	before, err := fx.reports.Report(ctx, core.Filter{})
	require.NoError(t, err)

	cached := fx.reports.cache.(interface{ Size() int })
	assert.Equal(t, 1, cached.Size())

	_, err = fx.expenses.CreateExpense(ctx, core.ExpenseForm{Description: "Tea", Amount: "1", Category: "Food", Date: "2024-02-02"})
	require.NoError(t, err)
	assert.Equal(t, 0, cached.Size(), "write clears the cache")

	after, err := fx.reports.Report(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Equal(t, before.GrandTotal.Cents+100, after.GrandTotal.Cents)
}

func TestReportService_NoCache(t *testing.T) {
	reports := NewReportService(memory.New(), nil)
	r, err := reports.Report(context.Background(), core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, r.Expenses)
	assert.Empty(t, r.DailySeries)
	assert.True(t, r.GrandTotal.IsZero())
	reports.Clear()
}

// writeDuringRead runs onRead once, in the middle of a report build.
type writeDuringRead struct {
	store.ExpenseRepository
	onRead func()
}

func (w *writeDuringRead) MonthlyTotals(ctx context.Context) ([]core.MonthlyTotal, error) {
	if w.onRead != nil {
		w.onRead()
		w.onRead = nil
	}
	return w.ExpenseRepository.MonthlyTotals(ctx)
}

func TestReportService_WriteDuringBuildIsNotCached(t *testing.T) {
	repo := &writeDuringRead{ExpenseRepository: memory.New()}
	reports := NewReportService(repo, NewReportCache(16, time.Minute))
	expenses := NewExpenseService(repo, WithClock(func() time.Time { return testNow }), WithInvalidator(reports))
	ctx := context.Background()

	repo.onRead = func() {
		_, err := expenses.CreateExpense(ctx, core.ExpenseForm{Description: "Tea", Amount: "1", Category: "Food", Date: "2024-02-02"})
		require.NoError(t, err)
	}
	stale, err := reports.Report(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, stale.Expenses, "rows were listed before the write")
	assert.Equal(t, 0, reports.CacheStats().Size, "report built across a write is not cached")

	fresh, err := reports.Report(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Len(t, fresh.Expenses, 1)
	assert.Equal(t, 1, reports.CacheStats().Size)
}
