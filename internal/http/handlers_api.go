package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

type expenseJSON struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type categoryTotalJSON struct {
	Category   string `json:"category"`
	Total      string `json:"total"`
	Color      string `json:"color"`
	Percentage string `json:"percentage"`
}

type dailyTotalJSON struct {
	Date  string `json:"date"`
	Total string `json:"total"`
}

type monthlyTotalJSON struct {
	Month string `json:"month"`
	Total string `json:"total"`
}

type summaryJSON struct {
	GrandTotal     string              `json:"grand_total"`
	FilteredTotal  string              `json:"filtered_total"`
	Count          int                 `json:"count"`
	Categories     []string            `json:"categories"`
	CategoryTotals []categoryTotalJSON `json:"category_totals"`
	DailySeries    []dailyTotalJSON    `json:"daily_series"`
	MonthlyTotals  []monthlyTotalJSON  `json:"monthly_totals"`
}

type errorJSON struct {
	Error  string           `json:"error,omitempty"`
	Errors core.FieldErrors `json:"errors,omitempty"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Date:        e.Date.String(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toSummaryJSON(r core.Report) summaryJSON {
	out := summaryJSON{
		GrandTotal:     r.GrandTotal.String(),
		FilteredTotal:  r.FilteredTotal.String(),
		Count:          len(r.Expenses),
		Categories:     r.Categories,
		CategoryTotals: make([]categoryTotalJSON, len(r.CategoryTotals)),
		DailySeries:    make([]dailyTotalJSON, len(r.DailySeries)),
		MonthlyTotals:  make([]monthlyTotalJSON, len(r.MonthlyTotals)),
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}
	for i, c := range r.CategoryTotals {
		out.CategoryTotals[i] = categoryTotalJSON{
			Category:   c.Category,
			Total:      c.Total.String(),
			Color:      c.Color,
			Percentage: c.Percentage.StringFixed(1),
		}
	}
	for i, d := range r.DailySeries {
		out.DailySeries[i] = dailyTotalJSON{Date: d.Date.String(), Total: d.Total.String()}
	}
	for i, m := range r.MonthlyTotals {
		out.MonthlyTotals[i] = monthlyTotalJSON{Month: m.Month, Total: m.Total.String()}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError maps service errors to status codes. Persistence details stay in
// the logs.
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs core.FieldErrors
	var persistErr *services.PersistenceError
	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorJSON{Errors: fieldErrs})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorJSON{Error: msgNotFound})
	case errors.Is(err, core.ErrInvalidRange):
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: msgInvalidRange})
	case errors.Is(err, errBadFilterDate):
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: msgBadFilterDate})
	case errors.Is(err, errBadID):
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: msgBadID})
	case errors.As(err, &persistErr):
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: persistErr.UserMessage()})
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "API request failed", applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "Something went wrong. Please try again."})
	}
}

func (s *Server) handleAPIListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	expenses, err := s.reports.Expenses(r.Context(), f)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	items := make([]expenseJSON, len(expenses))
	for i, e := range expenses {
		items[i] = toExpenseJSON(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses": items,
		"total":    core.SumExpenses(expenses).String(),
	})
}

func (s *Server) handleAPICreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: msgBadRequestBody})
		return
	}
	e, err := s.expenses.CreateExpense(r.Context(), p.ExpenseForm())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	s.metrics.created.Add(1)
	w.Header().Set("Location", "/api/expenses/item?id="+strconv.FormatInt(e.ID, 10))
	writeJSON(w, http.StatusCreated, toExpenseJSON(e))
}

func (s *Server) handleAPIGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.URL.Query().Get("id"))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	e, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	if e == nil {
		writeAPIError(w, r, services.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseJSON(*e))
}

func (s *Server) handleAPIUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.URL.Query().Get("id"))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: msgBadRequestBody})
		return
	}
	e, err := s.expenses.UpdateExpense(r.Context(), id, p.ExpenseForm())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	s.metrics.updated.Add(1)
	writeJSON(w, http.StatusOK, toExpenseJSON(*e))
}

func (s *Server) handleAPIDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.URL.Query().Get("id"))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	deleted, err := s.expenses.DeleteExpense(r.Context(), id)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	if deleted {
		s.metrics.deleted.Add(1)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	report, err := s.reports.Report(r.Context(), f)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(report))
}
