package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bookkeeper/internal/amqp"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/source"
	"bookkeeper/internal/source/file"
	"bookkeeper/internal/source/httpapi"
	"bookkeeper/internal/source/sheets"
	"bookkeeper/internal/storage"
	"bookkeeper/internal/vendor"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	src, err := f.createSource(ctx, config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{
		Source:     src,
		SourceType: config.Type,
		Normalizer: vendor.NewCachingNormalizer(config.VendorCacheSize, config.VendorCacheTTL),
	}

	if config.SQLiteDBPath != "" {
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		result.Store = repo
		f.logger.Info("Initialized SQLite run store", "db_path", config.SQLiteDBPath)
	}

	// AMQP is optional; a broker outage must not prevent reporting.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.AMQPReportQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without messaging", applog.FieldError, err)
		} else {
			result.Publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue,
				"report_queue", config.AMQPReportQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if result.Store != nil {
			if err := result.Store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
		}
		if result.Publisher != nil {
			if err := result.Publisher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		return errors.Join(errs...)
	}

	return result, nil
}

func (f *DefaultFactory) createSource(ctx context.Context, config Config) (source.TransactionSource, error) {
	switch config.Type {
	case HTTPSource:
		f.logger.Info("Using HTTP transaction source", "url", config.SourceURL)
		return httpapi.New(config.SourceURL, config.HTTPTimeout), nil
	case FileSource:
		f.logger.Info("Using file transaction source", "path", config.SourceFile)
		return file.New(config.SourceFile), nil
	case SheetsSource:
		cli, err := sheets.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetRange)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets source: %w", err)
		}
		f.logger.Info("Using Google Sheets transaction source", "spreadsheet_id", config.GoogleSpreadsheetID)
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
}
