// Package worker keeps the spreadsheet mirror in step with the store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"expensetracker/internal/amqp"
	"expensetracker/internal/sheets"
	"expensetracker/internal/store"
)

// DefaultReconcileSchedule rewrites the mirror every night at 03:00.
const DefaultReconcileSchedule = "0 3 * * *"

// MirrorWorker applies change events to the mirror and periodically rewrites it in
// full, which also repairs rows missed while the consumer was down.
type MirrorWorker struct {
	store  store.ExpenseReader
	mirror sheets.Mirror

	mu   sync.Mutex // serializes event handling against reconciles
	cron *cron.Cron
}

func NewMirrorWorker(repo store.ExpenseReader, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{store: repo, mirror: mirror}
}

// HandleEvent mirrors one change. Created and updated events re-read the row, so an
// event for an expense deleted in the meantime clears the mirror row.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch ev.Action {
	case amqp.ActionDeleted:
		if err := w.mirror.Remove(ctx, ev.ID); err != nil {
			return fmt.Errorf("remove mirror row %d: %w", ev.ID, err)
		}
		return nil
	case amqp.ActionCreated, amqp.ActionUpdated:
		e, err := w.store.GetByID(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("get expense %d: %w", ev.ID, err)
		}
		if e == nil {
			slog.InfoContext(ctx, "Expense gone before mirroring, clearing row", "id", ev.ID, "action", ev.Action)
			return w.mirror.Remove(ctx, ev.ID)
		}
		if err := w.mirror.Upsert(ctx, *e); err != nil {
			return fmt.Errorf("upsert mirror row %d: %w", ev.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}
}

// Reconcile rewrites the whole mirror from the store.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	expenses, err := w.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	if err := w.mirror.ReplaceAll(ctx, expenses); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}

	slog.InfoContext(ctx, "Mirror reconciled", "rows", len(expenses), "duration", time.Since(start))
	return nil
}

// StartSchedule runs Reconcile on the cron schedule until ctx is done. Overlapping
// runs are skipped.
func (w *MirrorWorker) StartSchedule(ctx context.Context, schedule string) error {
	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(schedule, func() {
		if err := w.Reconcile(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled reconcile failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("add reconcile job %q: %w", schedule, err)
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()

	c.Start()
	slog.InfoContext(ctx, "Reconcile scheduled", "schedule", schedule)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// NextReconcile reports when the scheduled reconcile runs next.
func (w *MirrorWorker) NextReconcile() (time.Time, bool) {
	w.mu.Lock()
	c := w.cron
	w.mu.Unlock()
	if c == nil {
		return time.Time{}, false
	}
	entries := c.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}

// cronLogger routes cron's logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
