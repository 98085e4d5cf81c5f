package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
	"expensetracker/internal/store/storetest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "expenses.db"))
	require.NoError(t, err)
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ExpenseRepository {
		return newTestRepo(t)
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "expenses.db")

	first, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = first.Create(context.Background(), core.ExpenseInput{
		Description: "Lunch", Amount: core.Money{Cents: 1250}, Category: "Food", Date: core.NewDate(2024, 1, 15),
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer second.Close()

	all, err := second.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1, "data survives reopen")
}

func TestAmountCheckConstraint(t *testing.T) {
	repo := newTestRepo(t)
	defer repo.Close()

	_, err := repo.db.Exec(`INSERT INTO expenses (description, amount_cents, category, date) VALUES ('x', 0, 'Food', '2024-01-01')`)
	assert.Error(t, err, "schema rejects non-positive amounts")
}

func TestUpdateWithFrozenClock(t *testing.T) {
	repo := newTestRepo(t)
	defer repo.Close()
	frozen := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return frozen }
	ctx := context.Background()

	in := core.ExpenseInput{Description: "Tea", Amount: core.Money{Cents: 120}, Category: "Food", Date: core.NewDate(2024, 5, 1)}
	e, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, e.CreatedAt.Equal(frozen))

	u, err := repo.Update(ctx, e.ID, in)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, frozen.Add(time.Nanosecond).Equal(u.UpdatedAt), "got %v", u.UpdatedAt)
}

func TestTimestampsSortAsText(t *testing.T) {
	a := time.Date(2024, 1, 1, 9, 0, 0, 5, time.UTC).Format(timestampLayout)
	b := time.Date(2024, 1, 1, 9, 0, 0, 40, time.UTC).Format(timestampLayout)
	assert.Len(t, a, len(b))
	assert.Less(t, a, b)
}

func TestRowsWrittenBySQLDefaultsAreReadable(t *testing.T) {
	repo := newTestRepo(t)
	defer repo.Close()

	res, err := repo.db.Exec(`INSERT INTO expenses (description, amount_cents, category) VALUES ('Legacy', 500, 'Other')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Date.IsZero())
	assert.False(t, got.CreatedAt.IsZero())
}
