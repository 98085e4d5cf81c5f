package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for the spreadsheet mirror of the expenses table.
type (
	// RowWriter keeps one mirror row per expense id.
	RowWriter interface {
		// Upsert writes e into the row holding e.ID, appending a row if there is none.
		Upsert(ctx context.Context, e core.Expense) error
		// Remove clears the row holding id. A missing row is not an error.
		Remove(ctx context.Context, id int64) error
	}

	// Replacer rewrites the whole mirror.
	Replacer interface {
		ReplaceAll(ctx context.Context, expenses []core.Expense) error
	}

	Mirror interface {
		RowWriter
		Replacer
	}
)

// Header is the first row of the mirror sheet.
var Header = []string{"ID", "Date", "Description", "Category", "Amount", "Updated At"}
