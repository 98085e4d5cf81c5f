package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"expensetracker/internal/backend"
	"expensetracker/internal/cache"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	be, err := openBackend(cfg, logger)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	reportCache := services.NewReportCache(cfg.ReportCacheSize, cfg.ReportCacheTTL)
	reports := services.NewReportService(be.Store, reportCache)

	opts := []services.ExpenseServiceOption{services.WithInvalidator(reports)}
	if be.Publisher != nil {
		opts = append(opts, services.WithPublisher(be.Publisher))
	}
	expenses := services.NewExpenseService(be.Store, opts...)

	if cfg.SeedSampleData {
		n, err := expenses.SeedSampleData(context.Background())
		if err != nil {
			logger.Error("Failed to seed sample data", "error", err)
		} else if n > 0 {
			logger.Info("Seeded sample data", "count", n)
		}
	}

	caches := cache.NewManager()
	caches.Register(reportCache)
	caches.StartCleanup(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, expenses, reports, be.Store,
		apphttp.WithLogger(logger),
		apphttp.WithCurrencySymbol(cfg.CurrencySymbol),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithTrustedProxies(cfg.TrustedProxies),
	)

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := be.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	})

	logger.Info("Starting expense tracker",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", be.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}

// openBackend builds the store and optional publisher selected by cfg.
func openBackend(cfg *config.Config, logger *slog.Logger) (*backend.Backend, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid backend configuration: %w", err)
	}
	return backend.NewFactory(logger).Open(bcfg)
}
