// Package export renders expense tables as spreadsheet files.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"expensetracker/internal/core"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "Expenses"

var headers = []string{"Date", "Description", "Category", "Amount"}

// WriteXLSX writes expenses, newest first as given, followed by a total row.
func WriteXLSX(ctx context.Context, w io.Writer, expenses []core.Expense) error {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "D1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, e := range expenses {
		for col, v := range []any{e.Date.String(), e.Description, e.Category, e.Amount.Decimal().InexactFloat64()} {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(3, row)
	totalCell, _ := excelize.CoordinatesToCellName(4, row)
	if err := f.SetCellValue(SheetName, totalLabel, "Total"); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellValue(SheetName, totalCell, core.SumExpenses(expenses).Decimal().InexactFloat64()); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellStyle(SheetName, totalLabel, totalCell, bold); err != nil {
		return fmt.Errorf("style total: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "D2", totalCell, money); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}

	for _, cw := range []struct {
		col   string
		width float64
	}{{"A", 12}, {"B", 40}, {"C", 18}, {"D", 14}} {
		if err := f.SetColWidth(SheetName, cw.col, cw.col, cw.width); err != nil {
			return fmt.Errorf("column %s width: %w", cw.col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	slog.InfoContext(ctx, "Expenses exported",
		"format", "xlsx",
		"rows", len(expenses),
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// Filename names the download after the filter.
func Filename(f core.Filter, now time.Time) string {
	switch {
	case f.HasCategory():
		return fmt.Sprintf("expenses-%s-%s.xlsx", slug(f.Category), now.Format("20060102"))
	case f.HasRange():
		start, end := f.Bounds()
		return fmt.Sprintf("expenses-%s_%s.xlsx", start.Format("20060102"), end.Format("20060102"))
	default:
		return fmt.Sprintf("expenses-%s.xlsx", now.Format("20060102"))
	}
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			if len(out) > 0 && out[len(out)-1] != '-' {
				out = append(out, '-')
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "category"
	}
	return string(out)
}
