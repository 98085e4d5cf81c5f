package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the sum of amounts for one category label.
type CategoryTotal struct {
	Category string
	Total    Money
}

// DailyTotal is the sum of amounts for one calendar day.
type DailyTotal struct {
	Date  Date
	Total Money
}

// MonthlyTotal is the sum of amounts for one YYYY-MM month.
type MonthlyTotal struct {
	Month string
	Total Money
}

// CategorySlice is a chart-ready category total.
type CategorySlice struct {
	Category   string
	Total      Money
	Color      string
	Percentage decimal.Decimal
}

// Report is everything the dashboard shows for one filter.
type Report struct {
	Filter         Filter
	Expenses       []Expense
	FilteredTotal  Money
	GrandTotal     Money
	Categories     []string
	CategoryTotals []CategorySlice
	DailySeries    []DailyTotal
	MonthlyTotals  []MonthlyTotal
}

// FillDateGaps returns one entry per calendar day between the earliest and latest
// sample, inclusive, ascending. Days without a sample get a zero total. Samples that
// share a date are summed, so the result does not depend on input order.
func FillDateGaps(samples []DailyTotal) []DailyTotal {
	if len(samples) == 0 {
		return []DailyTotal{}
	}

	byDay := make(map[string]Money, len(samples))
	minDate, maxDate := DateOf(samples[0].Date.Time), DateOf(samples[0].Date.Time)
	for _, s := range samples {
		d := DateOf(s.Date.Time)
		byDay[d.String()] = byDay[d.String()].Add(s.Total)
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}

	out := make([]DailyTotal, 0, daysBetween(minDate, maxDate)+1)
	for d := minDate; !d.After(maxDate); d = d.AddDays(1) {
		out = append(out, DailyTotal{Date: d, Total: byDay[d.String()]})
	}
	return out
}

func daysBetween(a, b Date) int {
	return int(b.Sub(a.Time).Hours() / 24)
}

// PercentageOf returns part as a percentage of whole, rounded to one decimal place.
// A zero whole yields zero.
func PercentageOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(1)
}

// SumExpenses adds up the amounts of expenses.
func SumExpenses(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// SortExpenses orders newest first: date desc, then creation time desc, then id desc.
func SortExpenses(expenses []Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// GroupByCategory sums amounts per category, ordered by total desc then name asc.
func GroupByCategory(expenses []Expense) []CategoryTotal {
	sums := map[string]Money{}
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for c, t := range sums {
		out = append(out, CategoryTotal{Category: c, Total: t})
	}
	SortCategoryTotals(out)
	return out
}

// SortCategoryTotals orders by total desc, ties by category name asc.
func SortCategoryTotals(totals []CategoryTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total.Cents != totals[j].Total.Cents {
			return totals[i].Total.Cents > totals[j].Total.Cents
		}
		return totals[i].Category < totals[j].Category
	})
}

// GroupByDay sums amounts per date, ascending. No gap filling.
func GroupByDay(expenses []Expense) []DailyTotal {
	sums := map[string]Money{}
	days := map[string]Date{}
	for _, e := range expenses {
		k := e.Date.String()
		sums[k] = sums[k].Add(e.Amount)
		days[k] = e.Date
	}
	out := make([]DailyTotal, 0, len(sums))
	for k, t := range sums {
		out = append(out, DailyTotal{Date: days[k], Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// GroupByMonth sums amounts per YYYY-MM, ascending.
func GroupByMonth(expenses []Expense) []MonthlyTotal {
	sums := map[string]Money{}
	for _, e := range expenses {
		k := e.Date.MonthKey()
		sums[k] = sums[k].Add(e.Amount)
	}
	out := make([]MonthlyTotal, 0, len(sums))
	for m, t := range sums {
		out = append(out, MonthlyTotal{Month: m, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// DistinctCategories returns the sorted set of category labels.
func DistinctCategories(expenses []Expense) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, e := range expenses {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}

// ChartSlices decorates category totals with colors and their share of the sum.
func ChartSlices(totals []CategoryTotal) []CategorySlice {
	var whole Money
	for _, t := range totals {
		whole = whole.Add(t.Total)
	}
	colors := CategoryColors(len(totals))
	out := make([]CategorySlice, len(totals))
	for i, t := range totals {
		out[i] = CategorySlice{
			Category:   t.Category,
			Total:      t.Total,
			Color:      colors[i],
			Percentage: PercentageOf(t.Total.Decimal(), whole.Decimal()),
		}
	}
	return out
}
