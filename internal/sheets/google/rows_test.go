package google

import (
	"testing"
	"time"

	"expensetracker/internal/core"
)

func TestExpenseRow(t *testing.T) {
	e := core.Expense{
		ID:          42,
		Description: "Lunch",
		Amount:      core.Money{Cents: 1250},
		Category:    "Food",
		Date:        core.NewDate(2024, 1, 15),
		UpdatedAt:   time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC),
	}
	row := expenseRow(e)
	want := []any{int64(42), "2024-01-15", "Lunch", "Food", "12.50", "2024-01-15T12:30:00Z"}
	if len(row) != len(want) {
		t.Fatalf("row has %d cells, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d = %#v, want %#v", i, row[i], want[i])
		}
	}
}

func TestExpenseRowKeepsFormulaText(t *testing.T) {
	row := expenseRow(core.Expense{ID: 1, Description: `=HYPERLINK("http://x","y")`, Category: "+cmd"})
	if row[2] != `=HYPERLINK("http://x","y")` || row[3] != "+cmd" {
		t.Fatalf("text cells must be passed through unchanged, got %v", row)
	}
	if valueInputOption != "RAW" {
		t.Fatalf("cells must be written RAW, got %q", valueInputOption)
	}
}

func TestSheetValues(t *testing.T) {
	values := sheetValues([]core.Expense{{ID: 1}, {ID: 2}})
	if len(values) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(values))
	}
	if values[0][0] != "ID" || values[2][0] != int64(2) {
		t.Fatalf("unexpected layout %v", values)
	}
}

func TestRowOf(t *testing.T) {
	values := [][]any{
		{"ID"},
		{"7"},
		{},
		{" 12 "},
		{float64(30)},
	}
	cases := []struct {
		id   int64
		want int
	}{
		{7, 2},
		{12, 4},
		{30, 5},
		{99, 0},
	}
	for _, tc := range cases {
		if got := rowOf(values, tc.id); got != tc.want {
			t.Errorf("rowOf(%d) = %d, want %d", tc.id, got, tc.want)
		}
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Expenses", 5); got != "Expenses!A5:F5" {
		t.Fatalf("rowRange = %s", got)
	}
}
