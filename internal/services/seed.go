package services

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
)

type sampleExpense struct {
	description string
	cents       int64
	category    string
	daysAgo     int
}

var sampleExpenses = []sampleExpense{
	{"Morning coffee", 350, "Food", 0},
	{"Bus ticket", 275, "Transportation", 0},
	{"Sandwich lunch", 895, "Food", 0},
	{"Coffee at Starbucks", 450, "Food", 1},
	{"Lunch with colleagues", 1575, "Food", 2},
	{"Uber ride to downtown", 1230, "Transportation", 1},
	{"Movie tickets", 2400, "Entertainment", 3},
	{"Grocery shopping", 8540, "Food", 4},
	{"Gas for car", 4520, "Transportation", 5},
	{"New shirt", 2999, "Shopping", 6},
	{"Electricity bill", 12050, "Bills", 7},
	{"Phone bill", 8500, "Bills", 13},
	{"Internet bill", 6500, "Bills", 23},
	{"Doctor visit", 15000, "Healthcare", 8},
	{"Gym membership", 4999, "Healthcare", 12},
	{"Medication", 2500, "Healthcare", 24},
	{"Online course", 19999, "Education", 9},
	{"Books from Amazon", 4560, "Education", 14},
}

// SeedSampleData inserts demo expenses dated relative to now, only into an empty store.
// It returns how many rows were added.
func (s *ExpenseService) SeedSampleData(ctx context.Context) (int, error) {
	existing, err := s.store.SumAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("check existing expenses: %w", err)
	}
	if !existing.IsZero() {
		slog.InfoContext(ctx, "Store already has expenses, skipping sample data")
		return 0, nil
	}

	today := core.DateOf(s.now())
	for i, sample := range sampleExpenses {
		in := core.ExpenseInput{
			Description: sample.description,
			Amount:      core.Money{Cents: sample.cents},
			Category:    sample.category,
			Date:        today.AddDays(-sample.daysAgo),
		}
		if _, err := s.Create(ctx, in); err != nil {
			return i, fmt.Errorf("seed %q: %w", sample.description, err)
		}
	}

	slog.InfoContext(ctx, "Sample expenses inserted", "count", len(sampleExpenses), "as_of", today.String())
	return len(sampleExpenses), nil
}
