package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

func (s *Server) newFormView(ctx context.Context, id int64, form core.ExpenseForm) formView {
	v := formView{
		Title:  "Add Expense",
		Action: "/expenses",
		Submit: "Add Expense",
		ID:     id,
		Form:   form,
		Today:  core.DateOf(s.now()).String(),
	}
	if id > 0 {
		v.Title, v.Action, v.Submit = "Edit Expense", "/expenses/update", "Save Changes"
	}

	inUse, err := s.reports.Categories(ctx)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Category list unavailable for form", applog.FieldError, err)
	}
	v.Suggestions = suggestions(inUse)
	return v
}

func (s *Server) handleNewExpenseForm(w http.ResponseWriter, r *http.Request) {
	form := core.ExpenseForm{Date: core.DateOf(s.now()).String()}
	s.render(w, r, http.StatusOK, "form.html", s.newFormView(r.Context(), 0, form))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequestBody).Write(w)
		return
	}
	form := p.ExpenseForm()

	e, err := s.expenses.CreateExpense(ctx, form)
	if err != nil {
		s.renderFormError(w, r, 0, form, err)
		return
	}

	s.metrics.created.Add(1)
	applog.FromContext(ctx).InfoContext(ctx, "Expense created",
		applog.NewFields().WithComponent(applog.ComponentExpense).WithOperation(applog.OpCreate).
			WithExpense(e.ID, e.Category, e.Amount.String()).Args()...)
	http.Redirect(w, r, "/?created=1", http.StatusSeeOther)
}

func (s *Server) handleEditExpenseForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := ParseID(r.URL.Query().Get("id"))
	if err != nil {
		BadRequestError(msgBadID).Write(w)
		return
	}

	e, err := s.expenses.GetExpense(ctx, id)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to load expense", applog.FieldExpenseID, id, applog.FieldError, err)
		InternalServerError("Failed to load expense. Please try again.").Write(w)
		return
	}
	if e == nil {
		NotFoundError(msgNotFound).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "form.html", s.newFormView(ctx, id, core.FormFromExpense(*e)))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequestBody).Write(w)
		return
	}
	id, err := ParseID(p.Get("id"))
	if err != nil {
		BadRequestError(msgBadID).Write(w)
		return
	}
	form := p.ExpenseForm()

	e, err := s.expenses.UpdateExpense(ctx, id, form)
	if err != nil {
		s.renderFormError(w, r, id, form, err)
		return
	}

	s.metrics.updated.Add(1)
	applog.FromContext(ctx).InfoContext(ctx, "Expense updated",
		applog.NewFields().WithComponent(applog.ComponentExpense).WithOperation(applog.OpUpdate).
			WithExpense(e.ID, e.Category, e.Amount.String()).Args()...)
	http.Redirect(w, r, "/?updated=1", http.StatusSeeOther)
}

// renderFormError re-renders the form with the user's values and the problem.
func (s *Server) renderFormError(w http.ResponseWriter, r *http.Request, id int64, form core.ExpenseForm, err error) {
	view := s.newFormView(r.Context(), id, form)

	var fieldErrs core.FieldErrors
	var persistErr *services.PersistenceError
	switch {
	case errors.As(err, &fieldErrs):
		view.Errors = fieldErrs
		s.render(w, r, http.StatusUnprocessableEntity, "form.html", view)
	case errors.Is(err, services.ErrNotFound):
		NotFoundError(msgNotFound).Write(w)
	case errors.As(err, &persistErr):
		view.GeneralError = persistErr.UserMessage()
		s.render(w, r, http.StatusInternalServerError, "form.html", view)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Unexpected expense form error", applog.FieldError, err)
		view.GeneralError = "Something went wrong. Please try again."
		s.render(w, r, http.StatusInternalServerError, "form.html", view)
	}
}

// handleDeleteExpense removes an expense. Deleting an unknown id succeeds. htmx
// callers get HX-Trigger events; plain form posts are redirected to the dashboard.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequestBody).Write(w)
		return
	}
	id, err := ParseID(p.Get("id"))
	if err != nil {
		BadRequestError(msgBadID).Write(w)
		return
	}

	deleted, err := s.expenses.DeleteExpense(ctx, id)
	if err != nil {
		msg := "Failed to delete expense. Please try again."
		var persistErr *services.PersistenceError
		if errors.As(err, &persistErr) {
			msg = persistErr.UserMessage()
		}
		resp := InternalServerError(msg)
		if isHTMX(r) {
			resp.TriggerErrorNotification(msg)
		}
		resp.Write(w)
		return
	}

	if deleted {
		s.metrics.deleted.Add(1)
		applog.FromContext(ctx).InfoContext(ctx, "Expense deleted",
			applog.FieldComponent, applog.ComponentExpense,
			applog.FieldOperation, applog.OpDelete,
			applog.FieldExpenseID, id)
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/?deleted=1", http.StatusSeeOther)
		return
	}
	message := flashMessages["deleted"]
	if !deleted {
		message = "Expense was already deleted"
	}
	NewHTMXResponse().
		TriggerExpenseDeleted(id).
		TriggerSummaryRefresh().
		TriggerSuccessNotification(message).
		Write(w)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportXLSX downloads the filtered table as a workbook.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError(filterErrorMessage(err)).Write(w)
		return
	}

	expenses, err := s.reports.Expenses(ctx, f)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to list expenses for export",
			applog.FieldComponent, applog.ComponentReport,
			applog.FieldOperation, applog.OpList,
			applog.FieldError, err,
			applog.FieldFilter, f.Key())
		InternalServerError("Failed to export expenses. Please try again.").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(ctx, &buf, expenses); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to write workbook", applog.FieldError, err, applog.FieldOperation, applog.OpExport)
		InternalServerError("Failed to export expenses. Please try again.").Write(w)
		return
	}

	s.metrics.exports.Add(1)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(f, s.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
