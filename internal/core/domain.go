package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

const (
	MaxDescriptionLength = 255
	MaxCategoryLength    = 100
)

// SuggestedCategories is the list offered by the entry form. Storage accepts any label.
var SuggestedCategories = []string{
	"Food",
	"Transportation",
	"Entertainment",
	"Shopping",
	"Bills",
	"Healthcare",
	"Education",
	"Travel",
	"Other",
}

type (
	// Date is a calendar date without a time component, normalized to UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// ExpenseInput carries the user-settable fields of an expense. Create and Update
	// accept only values that went through ValidateExpenseForm.
	ExpenseInput struct {
		Description string
		Amount      Money
		Category    string
		Date        Date
	}

	Expense struct {
		ID          int64
		Description string
		Amount      Money
		Category    string
		Date        Date
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrInvalidRange     = errors.New("invalid range: start date is after end date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket of the date.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) IsZero() bool { return m.Cents == 0 }

// Validate checks the persisted-entity invariants. It is the last gate before a write;
// user-facing messages come from ValidateExpenseForm.
func (in ExpenseInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len([]rune(in.Description)) > MaxDescriptionLength {
		return fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if len([]rune(in.Category)) > MaxCategoryLength {
		return fmt.Errorf("category too long (max %d characters)", MaxCategoryLength)
	}
	return nil
}

// Input returns the mutable fields of the expense.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
	}
}

// Filter selects the rows shown on the dashboard. Category wins over a date range,
// matching the filter form: picking a category ignores the dates.
type Filter struct {
	Category string
	Start    Date
	End      Date
}

// AllCategories is the filter value meaning "no category filter".
const AllCategories = "all"

func (f Filter) HasCategory() bool {
	c := strings.TrimSpace(f.Category)
	return c != "" && c != AllCategories
}

func (f Filter) HasRange() bool {
	return !f.Start.IsZero() || !f.End.IsZero()
}

// Bounds returns the inclusive range with open ends filled in.
func (f Filter) Bounds() (Date, Date) {
	start, end := f.Start, f.End
	if start.IsZero() {
		start = NewDate(1, 1, 1)
	}
	if end.IsZero() {
		end = NewDate(9999, 12, 31)
	}
	return start, end
}

// Validate rejects a range whose start is after its end. Dates are ignored when a
// category is set.
func (f Filter) Validate() error {
	if f.HasCategory() {
		return nil
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.Start.After(f.End) {
		return ErrInvalidRange
	}
	return nil
}

// Key identifies the filter in caches.
func (f Filter) Key() string {
	if f.HasCategory() {
		return "cat:" + strings.TrimSpace(f.Category)
	}
	if f.HasRange() {
		return "range:" + f.Start.String() + ".." + f.End.String()
	}
	return "all"
}
