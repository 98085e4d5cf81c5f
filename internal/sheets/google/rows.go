package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

func expenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.String(),
		e.Description,
		e.Category,
		e.Amount.String(),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// sheetValues is the full sheet body: header then one row per expense.
func sheetValues(expenses []core.Expense) [][]any {
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	values := make([][]any, 0, len(expenses)+1)
	values = append(values, header)
	for _, e := range expenses {
		values = append(values, expenseRow(e))
	}
	return values
}

// rowOf scans column A values for id and returns the 1-based row, or 0. Header and
// blank rows never match.
func rowOf(values [][]any, id int64) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err == nil && v == id {
			return i + 1
		}
	}
	return 0
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:F%d", sheet, row, row)
}
