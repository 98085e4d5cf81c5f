package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Form field names, shared by the HTML form, the JSON API and FieldErrors.
const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
)

const (
	MsgDescriptionRequired = "Description is required"
	MsgDescriptionTooLong  = "Description must be at most 255 characters"
	MsgAmountRequired      = "Amount is required"
	MsgAmountNotPositive   = "Amount must be a positive number"
	MsgAmountTooLarge      = "Amount must be less than 100,000,000"
	MsgCategoryRequired    = "Category is required"
	MsgCategoryTooLong     = "Category must be at most 100 characters"
	MsgDateRequired        = "Date is required"
	MsgDateInvalid         = "Date must be a valid date (YYYY-MM-DD)"
	MsgDateInFuture        = "Date cannot be in the future"
)

// ExpenseForm is the raw submission, all strings as typed by the user.
type ExpenseForm struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

// FormFromExpense pre-fills an edit form.
func FormFromExpense(e Expense) ExpenseForm {
	return ExpenseForm{
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Date:        e.Date.String(),
	}
}

// FieldErrors maps a form field to its user-facing message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has an error.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// ValidateExpenseForm checks every field and reports all problems at once. now fixes
// "today": a date is in the future only when it falls after the end of now's day.
func ValidateExpenseForm(form ExpenseForm, now time.Time) (ExpenseInput, FieldErrors) {
	errs := FieldErrors{}
	var in ExpenseInput

	in.Description = strings.TrimSpace(form.Description)
	switch {
	case in.Description == "":
		errs[FieldDescription] = MsgDescriptionRequired
	case len([]rune(in.Description)) > MaxDescriptionLength:
		errs[FieldDescription] = MsgDescriptionTooLong
	}

	if amount := strings.TrimSpace(form.Amount); amount == "" {
		errs[FieldAmount] = MsgAmountRequired
	} else if cents, err := ParseDecimalToCents(amount); errors.Is(err, ErrAmountTooLarge) {
		errs[FieldAmount] = MsgAmountTooLarge
	} else if err != nil {
		errs[FieldAmount] = MsgAmountNotPositive
	} else {
		in.Amount = Money{Cents: cents}
	}

	in.Category = strings.TrimSpace(form.Category)
	switch {
	case in.Category == "":
		errs[FieldCategory] = MsgCategoryRequired
	case len([]rune(in.Category)) > MaxCategoryLength:
		errs[FieldCategory] = MsgCategoryTooLong
	}

	if raw := strings.TrimSpace(form.Date); raw == "" {
		errs[FieldDate] = MsgDateRequired
	} else if d, err := ParseDate(raw); err != nil {
		errs[FieldDate] = MsgDateInvalid
	} else if isFutureDate(d, now) {
		errs[FieldDate] = MsgDateInFuture
	} else {
		in.Date = d
	}

	if len(errs) > 0 {
		return ExpenseInput{}, errs
	}
	return in, nil
}

// isFutureDate compares the start of d against the last instant of now's calendar
// day, both in now's location.
func isFutureDate(d Date, now time.Time) bool {
	loc := now.Location()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return start.After(endOfToday)
}
