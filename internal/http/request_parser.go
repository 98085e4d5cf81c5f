package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

const maxBodyBytes = 64 << 10

var (
	errBadFilterDate = errors.New("bad filter date")
	errBadID         = errors.New("bad expense id")
)

// Messages shown for request-level problems.
const (
	msgInvalidRange   = "Start date must be on or before end date"
	msgBadFilterDate  = "Dates must use the YYYY-MM-DD format"
	msgBadID          = "A valid expense id is required"
	msgNotFound       = "Expense not found"
	msgBadRequestBody = "Invalid request format"
)

// ParseFilter reads category, startDate and endDate. A category other than "all"
// takes precedence over the dates, and a range with start after end is rejected
// with core.ErrInvalidRange.
func ParseFilter(query url.Values) (core.Filter, error) {
	f := core.Filter{Category: sanitizeInput(query.Get("category"))}
	if f.Category == core.AllCategories {
		f.Category = ""
	}

	var err error
	if f.Start, err = parseOptionalDate(query.Get("startDate")); err != nil {
		return core.Filter{}, err
	}
	if f.End, err = parseOptionalDate(query.Get("endDate")); err != nil {
		return core.Filter{}, err
	}
	if err := f.Validate(); err != nil {
		return core.Filter{}, err
	}
	return f, nil
}

func parseOptionalDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, errBadFilterDate
	}
	return d, nil
}

// FilterQuery renders f back into query parameters for links.
func FilterQuery(f core.Filter) string {
	v := url.Values{}
	if f.HasCategory() {
		v.Set("category", f.Category)
	}
	if !f.Start.IsZero() {
		v.Set("startDate", f.Start.String())
	}
	if !f.End.IsZero() {
		v.Set("endDate", f.End.String())
	}
	return v.Encode()
}

// ParseID parses a positive expense id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// RequestBodyParser reads a JSON or form-encoded body once.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object, otherwise as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(trimmed), &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the trimmed value for key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// ExpenseForm collects the expense fields from the body.
func (p *RequestBodyParser) ExpenseForm() core.ExpenseForm {
	return core.ExpenseForm{
		Description: p.Get(core.FieldDescription),
		Amount:      p.Get(core.FieldAmount),
		Category:    p.Get(core.FieldCategory),
		Date:        p.Get(core.FieldDate),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
