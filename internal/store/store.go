// Package store defines the persistence port for expenses.
package store

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for persistence adapters.
type (
	// ExpenseReader lists and aggregates stored expenses. Every list is ordered by date
	// desc, then creation time desc.
	ExpenseReader interface {
		ListAll(ctx context.Context) ([]core.Expense, error)
		ListByCategory(ctx context.Context, category string) ([]core.Expense, error)
		// ListByDateRange is inclusive on both ends and returns core.ErrInvalidRange
		// when start is after end.
		ListByDateRange(ctx context.Context, start, end core.Date) ([]core.Expense, error)
		// GetByID returns nil, nil when no expense has the id.
		GetByID(ctx context.Context, id int64) (*core.Expense, error)
	}

	ExpenseAggregator interface {
		SumAll(ctx context.Context) (core.Money, error)
		DistinctCategories(ctx context.Context) ([]string, error)
		CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error)
		MonthlyTotals(ctx context.Context) ([]core.MonthlyTotal, error)
	}

	ExpenseWriter interface {
		Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
		// Update overwrites every user field. It returns nil, nil when the id is unknown.
		Update(ctx context.Context, id int64, in core.ExpenseInput) (*core.Expense, error)
		// DeleteByID reports whether a row was removed. Deleting a missing id is not an error.
		DeleteByID(ctx context.Context, id int64) (bool, error)
	}

	// ExpenseRepository is the full persistence accessor.
	ExpenseRepository interface {
		ExpenseReader
		ExpenseAggregator
		ExpenseWriter
		Ping(ctx context.Context) error
		Close() error
	}
)

// List resolves a filter against a repository: category first, then date range,
// then everything.
func List(ctx context.Context, r ExpenseReader, f core.Filter) ([]core.Expense, error) {
	switch {
	case f.HasCategory():
		return r.ListByCategory(ctx, f.Category)
	case f.HasRange():
		if err := f.Validate(); err != nil {
			return nil, err
		}
		start, end := f.Bounds()
		return r.ListByDateRange(ctx, start, end)
	default:
		return r.ListAll(ctx)
	}
}
