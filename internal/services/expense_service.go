package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// ErrNotFound is returned when an update targets an unknown id.
var ErrNotFound = errors.New("expense not found")

// PersistenceError wraps a store failure. Its detail is for logs only; users see
// UserMessage.
type PersistenceError struct {
	Op  string // create, update or delete
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + " expense: " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// UserMessage is the generic text shown instead of the underlying error.
func (e *PersistenceError) UserMessage() string {
	return fmt.Sprintf("Failed to %s expense. Please try again.", e.Op)
}

// EventPublisher announces expense changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// Invalidator is told about every successful write.
type Invalidator interface {
	Clear()
}

// ExpenseService validates input, writes to the store and then publishes a change
// event. Publishing is best effort: the store is the source of truth.
type ExpenseService struct {
	store     store.ExpenseRepository
	publisher EventPublisher
	reports   Invalidator
	now       func() time.Time
}

// ExpenseServiceOption configures an ExpenseService.
type ExpenseServiceOption func(*ExpenseService)

// WithPublisher enables change events.
func WithPublisher(p EventPublisher) ExpenseServiceOption {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithInvalidator registers a cache to clear after writes.
func WithInvalidator(inv Invalidator) ExpenseServiceOption {
	return func(s *ExpenseService) { s.reports = inv }
}

// WithClock fixes "today" for validation.
func WithClock(now func() time.Time) ExpenseServiceOption {
	return func(s *ExpenseService) { s.now = now }
}

func NewExpenseService(repo store.ExpenseRepository, opts ...ExpenseServiceOption) *ExpenseService {
	s := &ExpenseService{store: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate runs the form rules against the service clock.
func (s *ExpenseService) Validate(form core.ExpenseForm) (core.ExpenseInput, core.FieldErrors) {
	return core.ValidateExpenseForm(form, s.now())
}

// CreateExpense validates and stores a new expense. It returns core.FieldErrors for
// bad input and *PersistenceError when the store fails.
func (s *ExpenseService) CreateExpense(ctx context.Context, form core.ExpenseForm) (core.Expense, error) {
	in, errs := s.Validate(form)
	if len(errs) > 0 {
		return core.Expense{}, errs
	}
	return s.Create(ctx, in)
}

// Create stores already-validated input.
func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.store.Create(ctx, in)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create expense", "error", err, "description", in.Description)
		return core.Expense{}, &PersistenceError{Op: "create", Err: err}
	}
	s.afterWrite(ctx, e.ID, amqp.ActionCreated)
	return e, nil
}

// UpdateExpense replaces every field of an existing expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, form core.ExpenseForm) (*core.Expense, error) {
	in, errs := s.Validate(form)
	if len(errs) > 0 {
		return nil, errs
	}
	e, err := s.store.Update(ctx, id, in)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to update expense", "error", err, "id", id)
		return nil, &PersistenceError{Op: "update", Err: err}
	}
	if e == nil {
		return nil, ErrNotFound
	}
	s.afterWrite(ctx, id, amqp.ActionUpdated)
	return e, nil
}

// DeleteExpense removes an expense. A missing id is a no-op reported as false.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to delete expense", "error", err, "id", id)
		return false, &PersistenceError{Op: "delete", Err: err}
	}
	if !deleted {
		slog.InfoContext(ctx, "Delete of unknown expense ignored", "id", id)
		return false, nil
	}
	s.afterWrite(ctx, id, amqp.ActionDeleted)
	return true, nil
}

// GetExpense returns nil, nil when the id is unknown.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (s *ExpenseService) afterWrite(ctx context.Context, id int64, action amqp.Action) {
	if s.reports != nil {
		s.reports.Clear()
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "id", id, "action", action)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(id, action)); err != nil {
		// Don't fail the request - the expense is stored
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"id", id, "action", action, "error", err)
	}
}

// Close releases the store.
func (s *ExpenseService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}
