package http

import (
	"errors"
	"html/template"

	"expensetracker/internal/core"
)

type dashboardView struct {
	Report      core.Report
	Filter      core.Filter
	FilterQuery template.URL
	// Raw filter inputs, echoed back into the filter form.
	Category  string
	StartDate string
	EndDate   string
	Flash     string
	Error     string
}

type formView struct {
	Title        string
	Action       string
	Submit       string
	ID           int64
	Form         core.ExpenseForm
	Errors       core.FieldErrors
	GeneralError string
	Suggestions  []string
	Today        string
}

var flashMessages = map[string]string{
	"created": "Expense added successfully",
	"updated": "Expense updated successfully",
	"deleted": "Expense deleted successfully",
}

// filterErrorMessage maps a ParseFilter error to its user-facing text.
func filterErrorMessage(err error) string {
	if errors.Is(err, core.ErrInvalidRange) {
		return msgInvalidRange
	}
	return msgBadFilterDate
}

// suggestions merges the built-in categories with the ones in use.
func suggestions(inUse []string) []string {
	seen := make(map[string]struct{}, len(core.SuggestedCategories)+len(inUse))
	out := make([]string, 0, len(core.SuggestedCategories)+len(inUse))
	for _, list := range [][]string{core.SuggestedCategories, inUse} {
		for _, c := range list {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
