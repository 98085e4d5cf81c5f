// Package memory is an in-process sheets.Mirror used when no spreadsheet is configured
// and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu       sync.Mutex
	rows     map[int64]core.Expense
	replaces int
}

func New() *Mirror {
	return &Mirror{rows: map[int64]core.Expense{}}
}

func (m *Mirror) Upsert(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

func (m *Mirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *Mirror) ReplaceAll(_ context.Context, expenses []core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[int64]core.Expense, len(expenses))
	for _, e := range expenses {
		m.rows[e.ID] = e
	}
	m.replaces++
	return nil
}

// Rows returns the mirrored expenses ordered by id.
func (m *Mirror) Rows() []core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Expense, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the mirrored row for id.
func (m *Mirror) Get(id int64) (core.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	return e, ok
}

// Replaces counts ReplaceAll calls.
func (m *Mirror) Replaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaces
}
