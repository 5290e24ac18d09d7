package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/cli"
	"bookkeeper/internal/config"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/report"
	"bookkeeper/internal/services"
)

// options holds the command-line flags.
type options struct {
	filePath       string
	storePath      string
	publish        bool
	recompute      string
	requestRefresh bool
}

func main() {
	var opts options
	flag.StringVar(&opts.filePath, "file", "", "read transactions from a JSON file instead of the configured source")
	flag.StringVar(&opts.storePath, "store", "", "persist the run to this SQLite database (overrides SQLITE_DB_PATH)")
	flag.BoolVar(&opts.publish, "publish", false, "announce the stored run over AMQP (requires -store or SQLITE_DB_PATH)")
	flag.StringVar(&opts.recompute, "recompute", "", "re-aggregate a stored run by ID, or \"latest\", without fetching")
	flag.BoolVar(&opts.requestRefresh, "request-refresh", false, "ask bookkeeper-worker for a new run and exit")
	flag.Parse()

	cli.LoadEnvFile()

	cfg := config.Load()
	flagErr := applyFlags(cfg, opts)

	// Logs go to stderr so the report can be piped.
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp, os.Stderr)
	if flagErr != nil {
		logger.Error("Invalid flags", applog.FieldError, flagErr)
		os.Exit(2)
	}
	cli.MustValidateConfig(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = applog.WithContext(ctx, logger)

	if opts.requestRefresh {
		if err := sendRefreshRequest(ctx, cfg); err != nil {
			logger.Error("Failed to request refresh", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Refresh request sent", "queue", cfg.AMQPQueue)
		return
	}

	if err := run(ctx, logger, cfg, opts.recompute); err != nil {
		logger.Error("Report failed", applog.FieldError, err)
		os.Exit(1)
	}
}

// applyFlags overrides cfg with command-line options. Reports are only
// announced for stored runs, so -publish needs a run store.
func applyFlags(cfg *config.Config, opts options) error {
	if opts.filePath != "" {
		cfg.SourceBackend = config.BackendFile
		cfg.SourceFile = opts.filePath
	}
	if opts.storePath != "" {
		cfg.SQLiteDBPath = opts.storePath
	}
	if opts.publish && cfg.SQLiteDBPath == "" {
		return errors.New("-publish requires -store or SQLITE_DB_PATH")
	}
	if opts.publish && cfg.AMQPURL == "" {
		return errors.New("-publish requires AMQP_URL")
	}
	if !opts.publish && !opts.requestRefresh {
		cfg.AMQPURL = ""
	}
	return nil
}

func run(ctx context.Context, logger *applog.Logger, cfg *config.Config, recompute string) error {
	result := cli.MustInitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Cleanup failed", applog.FieldError, err)
		}
	}()

	svc := result.ReportService(services.ReportServiceConfig{Workers: cfg.TransformWorkers})

	var (
		res services.RunResult
		err error
	)
	switch recompute {
	case "":
		res, err = svc.Run(ctx)
	case "latest":
		res, err = svc.RecomputeLatest(ctx)
	default:
		res, err = svc.Recompute(ctx, recompute)
	}
	if err != nil {
		return err
	}

	if res.Stored {
		logger.Info("Report stored", applog.FieldRunID, res.Run.ID)
	}

	return report.Write(os.Stdout, res.Report)
}

func sendRefreshRequest(ctx context.Context, cfg *config.Config) error {
	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is required to request a refresh")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPReportQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.PublishRefreshRequest(ctx, amqp.NewRefreshRequest("bookkeeper-cli"))
}
