package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
	"expensetracker/internal/store/memory"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, ev *amqp.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) actions() []amqp.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.Action, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Action
	}
	return out
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Clear() { c.n++ }

// failingStore breaks every write.
type failingStore struct {
	store.ExpenseRepository
}

var errDiskFull = errors.New("database or disk is full")

func (failingStore) Create(context.Context, core.ExpenseInput) (core.Expense, error) {
	return core.Expense{}, errDiskFull
}

func (failingStore) Update(context.Context, int64, core.ExpenseInput) (*core.Expense, error) {
	return nil, errDiskFull
}

func (failingStore) DeleteByID(context.Context, int64) (bool, error) {
	return false, errDiskFull
}

func validForm() core.ExpenseForm {
	return core.ExpenseForm{Description: "Lunch", Amount: "12.50", Category: "Food", Date: "2024-01-15"}
}

func newService(t *testing.T, opts ...ExpenseServiceOption) (*ExpenseService, *recordingPublisher, *countingInvalidator) {
	t.Helper()
	pub := &recordingPublisher{}
	inv := &countingInvalidator{}
	opts = append([]ExpenseServiceOption{WithClock(func() time.Time { return testNow }), WithPublisher(pub), WithInvalidator(inv)}, opts...)
	return NewExpenseService(memory.New(), opts...), pub, inv
}

func TestExpenseService_CreateExpense(t *testing.T) {
	svc, pub, inv := newService(t)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, validForm())
	require.NoError(t, err)
	assert.Positive(t, e.ID)
	assert.Equal(t, int64(1250), e.Amount.Cents)
	assert.Equal(t, []amqp.Action{amqp.ActionCreated}, pub.actions())
	assert.Equal(t, e.ID, pub.events[0].ID)
	assert.Equal(t, 1, inv.n)
}

func TestExpenseService_CreateExpenseValidation(t *testing.T) {
	svc, pub, inv := newService(t)

	_, err := svc.CreateExpense(context.Background(), core.ExpenseForm{Amount: "-5"})

	var fe core.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe, 4)
	assert.Empty(t, pub.actions(), "nothing published for invalid input")
	assert.Zero(t, inv.n)
}

func TestExpenseService_FutureDateUsesServiceClock(t *testing.T) {
	svc, _, _ := newService(t)
	form := validForm()
	form.Date = "2024-06-16"

	_, err := svc.CreateExpense(context.Background(), form)

	var fe core.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, core.MsgDateInFuture, fe[core.FieldDate])
}

func TestExpenseService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub, _ := newService(t)
	pub.err = amqp.ErrCircuitOpen

	e, err := svc.CreateExpense(context.Background(), validForm())
	require.NoError(t, err)

	got, err := svc.GetExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestExpenseService_WithoutPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), WithClock(func() time.Time { return testNow }))
	_, err := svc.CreateExpense(context.Background(), validForm())
	assert.NoError(t, err)
}

func TestExpenseService_PersistenceFailures(t *testing.T) {
	svc := NewExpenseService(failingStore{memory.New()}, WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		msg  string
	}{
		{"create", func() error { _, err := svc.CreateExpense(ctx, validForm()); return err }, "Failed to create expense. Please try again."},
		{"update", func() error { _, err := svc.UpdateExpense(ctx, 1, validForm()); return err }, "Failed to update expense. Please try again."},
		{"delete", func() error { _, err := svc.DeleteExpense(ctx, 1); return err }, "Failed to delete expense. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			var pe *PersistenceError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.msg, pe.UserMessage())
			assert.ErrorIs(t, err, errDiskFull, "detail kept for logs")
			assert.NotContains(t, pe.UserMessage(), "disk")
		})
	}
}

func TestExpenseService_UpdateAndDelete(t *testing.T) {
	svc, pub, inv := newService(t)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, validForm())
	require.NoError(t, err)

	form := validForm()
	form.Description = "Team lunch"
	form.Amount = "40"
	updated, err := svc.UpdateExpense(ctx, e.ID, form)
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", updated.Description)
	assert.True(t, updated.UpdatedAt.After(e.UpdatedAt))

	_, err = svc.UpdateExpense(ctx, 9999, form)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := svc.DeleteExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete is a no-op")

	assert.Equal(t, []amqp.Action{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted}, pub.actions())
	assert.Equal(t, 3, inv.n)
}

func TestExpenseService_SeedSampleData(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	n, err := svc.SeedSampleData(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(sampleExpenses), n)

	total, err := svc.store.SumAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "973.42", total.String())

	all, err := svc.store.ListAll(ctx)
	require.NoError(t, err)
	for _, e := range all {
		assert.False(t, e.Date.After(core.DateOf(testNow)), "seeded %s in the future", e.Date)
	}

	n, err = svc.SeedSampleData(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "non-empty store is left alone")
}
