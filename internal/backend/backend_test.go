package backend

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
	"expensetracker/internal/store/memory"
)

func quietFactory() *Factory {
	return NewFactory(applog.New(&bytes.Buffer{}, applog.Config{}))
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.ErrorContains(t, err, "invalid backend type")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFactory_OpenMemory(t *testing.T) {
	b, err := quietFactory().Open(Config{Type: MemoryBackend})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.Store{}, b.Store)
	assert.Nil(t, b.Publisher)
}

func TestFactory_OpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")
	b, err := quietFactory().Open(Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &storage.SQLiteRepository{}, b.Store)

	ctx := context.Background()
	_, err = b.Store.Create(ctx, core.ExpenseInput{
		Description: "Coffee",
		Amount:      core.Money{Cents: 350},
		Category:    "Food",
		Date:        core.NewDate(2024, 1, 2),
	})
	require.NoError(t, err)
	total, err := b.Store.SumAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3.50", total.String())
}

func TestFactory_AMQPFailureIsNotFatal(t *testing.T) {
	f := quietFactory()
	f.newClient = func(string, string, string) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}

	b, err := f.Open(Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "e", AMQPQueue: "q"})
	require.NoError(t, err)
	assert.Nil(t, b.Publisher)
	assert.NoError(t, b.Close())
}
