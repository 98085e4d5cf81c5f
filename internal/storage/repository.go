// Package storage is the SQLite implementation of store.ExpenseRepository.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/store"

	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so text comparison matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, description, amount_cents, category, date, created_at, updated_at FROM expenses`

const orderNewestFirst = ` ORDER BY date DESC, created_at DESC, id DESC`

var _ store.ExpenseRepository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database file and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	// Run migrations
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection serializes statements.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	out, err := r.query(ctx, selectColumns+orderNewestFirst)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListByCategory(ctx context.Context, category string) ([]core.Expense, error) {
	out, err := r.query(ctx, selectColumns+` WHERE category = ?`+orderNewestFirst, category)
	if err != nil {
		return nil, fmt.Errorf("list expenses by category %q: %w", category, err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListByDateRange(ctx context.Context, start, end core.Date) ([]core.Expense, error) {
	if start.After(end) {
		return nil, core.ErrInvalidRange
	}
	out, err := r.query(ctx, selectColumns+` WHERE date BETWEEN ? AND ?`+orderNewestFirst,
		start.Format(core.DateLayout), end.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list expenses by date range: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense %d: %w", id, err)
	}
	return &e, nil
}

// Create inserts a new expense. A zero date defaults to the creation day.
func (r *SQLiteRepository) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	now := r.now().UTC()
	in = normalize(in)
	if in.Date.IsZero() {
		in.Date = core.DateOf(now)
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	ts := now.Format(timestampLayout)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (description, amount_cents, category, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.Description, in.Amount.Cents, in.Category, in.Date.String(), ts, ts)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("read inserted id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"description", in.Description,
		"amount_cents", in.Amount.Cents,
		"category", in.Category,
		"date", in.Date.String())

	created, err := parseTimestamp(ts)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          id,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   created,
		UpdatedAt:   created,
	}, nil
}

// Update overwrites the user fields. updated_at is bumped past its previous value even
// when the clock has not advanced.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, in core.ExpenseInput) (*core.Expense, error) {
	in = normalize(in)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var prevRaw string
	err = tx.QueryRowContext(ctx, `SELECT updated_at FROM expenses WHERE id = ?`, id).Scan(&prevRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read expense %d: %w", id, err)
	}
	prev, err := parseTimestamp(prevRaw)
	if err != nil {
		return nil, err
	}
	next := r.now().UTC()
	if !next.After(prev) {
		next = prev.Add(time.Nanosecond)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount_cents = ?, category = ?, date = ?, updated_at = ? WHERE id = ?`,
		in.Description, in.Amount.Cents, in.Category, in.Date.String(), next.Format(timestampLayout), id); err != nil {
		return nil, fmt.Errorf("update expense %d: %w", id, err)
	}

	e, err := scanExpense(tx.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("reload expense %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	slog.InfoContext(ctx, "Expense updated in SQLite", "id", id)
	return &e, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) SumAll(ctx context.Context) (core.Money, error) {
	var cents int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses`).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM expenses ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents) AS total
		FROM expenses
		GROUP BY category
		ORDER BY total DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryTotal{}
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MonthlyTotals(ctx context.Context) ([]core.MonthlyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(date, 1, 7) AS month, SUM(amount_cents) AS total
		FROM expenses
		GROUP BY month
		ORDER BY month ASC`)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	defer rows.Close()

	out := []core.MonthlyTotal{}
	for rows.Next() {
		var mt core.MonthlyTotal
		if err := rows.Scan(&mt.Month, &mt.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                          core.Expense
		date, createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &e.Description, &e.Amount.Cents, &e.Category, &date, &createdAt, &updatedAt); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Date = d
	if e.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	return e, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func normalize(in core.ExpenseInput) core.ExpenseInput {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	return in
}
