// Package memory is an in-process ExpenseRepository used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

var _ store.ExpenseRepository = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{nextID: 1, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ListAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(func(core.Expense) bool { return true }), nil
}

func (s *Store) ListByCategory(_ context.Context, category string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(func(e core.Expense) bool { return e.Category == category }), nil
}

func (s *Store) ListByDateRange(_ context.Context, start, end core.Date) ([]core.Expense, error) {
	if start.After(end) {
		return nil, core.ErrInvalidRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(func(e core.Expense) bool {
		return !e.Date.Before(start) && !e.Date.After(end)
	}), nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		e := s.items[i]
		return &e, nil
	}
	return nil, nil
}

// Create stores a new expense. A zero date defaults to the creation day.
func (s *Store) Create(_ context.Context, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	in = normalize(in)
	if in.Date.IsZero() {
		in.Date = core.DateOf(now)
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		ID:          s.nextID,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) Update(_ context.Context, id int64, in core.ExpenseInput) (*core.Expense, error) {
	in = normalize(in)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	e := s.items[i]
	e.Description, e.Amount, e.Category, e.Date = in.Description, in.Amount, in.Category, in.Date
	next := s.now().UTC()
	if !next.After(e.UpdatedAt) {
		next = e.UpdatedAt.Add(time.Nanosecond)
	}
	e.UpdatedAt = next
	s.items[i] = e
	return &e, nil
}

func (s *Store) DeleteByID(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true, nil
}

func (s *Store) SumAll(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.SumExpenses(s.items), nil
}

func (s *Store) DistinctCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.DistinctCategories(s.items), nil
}

func (s *Store) CategoryTotals(_ context.Context) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.GroupByCategory(s.items), nil
}

func (s *Store) MonthlyTotals(_ context.Context) ([]core.MonthlyTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.GroupByMonth(s.items), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) selectLocked(keep func(core.Expense) bool) []core.Expense {
	out := []core.Expense{}
	for _, e := range s.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	core.SortExpenses(out)
	return out
}

// indexLocked finds id by binary search; items stay sorted by id since ids only grow.
func (s *Store) indexLocked(id int64) int {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i].ID >= id })
	if i < len(s.items) && s.items[i].ID == id {
		return i
	}
	return -1
}

func normalize(in core.ExpenseInput) core.ExpenseInput {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	return in
}
