package backend

import (
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/storage"
	"expensetracker/internal/store"
	"expensetracker/internal/store/memory"
)

// Backend is an opened store plus the publisher for its change events.
type Backend struct {
	Store store.ExpenseRepository
	// Publisher is nil when AMQP is not configured or could not be reached.
	Publisher *amqp.Client
}

// Close releases the publisher and the store.
func (b *Backend) Close() error {
	var errs []error
	if b.Publisher != nil {
		if err := b.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp client: %w", err))
		}
	}
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

type Factory struct {
	logger *slog.Logger
	// newClient is swapped in tests.
	newClient func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger, newClient: amqp.NewClient}
}

// Open creates the store for cfg. An AMQP failure is logged and leaves the backend
// without a publisher; the store is the source of truth.
func (f *Factory) Open(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var repo store.ExpenseRepository
	switch cfg.Type {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		repo = sqliteRepo
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		repo = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	b := &Backend{Store: repo}
	if cfg.AMQPURL == "" {
		return b, nil
	}

	client, err := f.newClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		return b, nil
	}
	b.Publisher = client
	f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return b, nil
}
