package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bookkeeper/internal/cache"
	"bookkeeper/internal/cli"
	"bookkeeper/internal/config"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/services"
	"bookkeeper/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker, os.Stdout)

	logger.Info("Starting bookkeeper-worker")

	cli.MustValidateConfig(logger, cfg)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = applog.WithContext(ctx, logger)

	result := cli.MustInitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Cleanup failed", applog.FieldError, err)
		}
	}()

	svc := result.ReportService(services.ReportServiceConfig{Workers: cfg.TransformWorkers})
	refreshWorker := worker.NewRefreshWorker(svc)

	// Produce a report right away instead of waiting for the first tick.
	logger.Info("Performing startup refresh...")
	if err := refreshWorker.Refresh(ctx); err != nil {
		logger.Error("Startup refresh failed", applog.FieldError, err)
		// Don't exit - the next tick or request may succeed
	}

	if result.Publisher != nil {
		go func() {
			if err := result.Publisher.ConsumeRefreshRequests(ctx, refreshWorker.HandleRefresh); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", applog.FieldError, err)
				}
				cancel()
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP client available")
	}

	if cfg.VendorCacheTTL > 0 {
		janitor := cache.NewJanitor(result.Normalizer.Cache())
		go janitor.Run(ctx, cfg.VendorCacheTTL)
	}

	go refreshLoop(ctx, logger, refreshWorker, result.Normalizer.Cache(), cfg)

	cli.WaitForShutdown(ctx, logger)

	logger.Info("Shutting down worker...")
	cancel()
}

type statser interface {
	Stats() cache.Stats
}

func refreshLoop(ctx context.Context, logger *applog.Logger, w *worker.RefreshWorker, vendorCache statser, cfg *config.Config) {
	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				logger.Error("Periodic refresh failed", applog.FieldError, err)
			}
			stats := vendorCache.Stats()
			logger.Debug("Vendor cache stats",
				"size", stats.Size,
				"hits", stats.Hits,
				"misses", stats.Misses)
		}
	}
}
