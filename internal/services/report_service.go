package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/core"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/source"
	"bookkeeper/internal/storage"
)

// ErrNoStore is returned by operations that need a configured run store.
var ErrNoStore = errors.New("run store not configured")

// RunStore persists ingest runs and their transactions.
type RunStore interface {
	SaveRun(ctx context.Context, run storage.Run, txns []core.Transaction) error
	GetRun(ctx context.Context, id string) (storage.Run, error)
	LatestRun(ctx context.Context) (storage.Run, error)
	ListTransactions(ctx context.Context, runID string) ([]core.Transaction, error)
}

// ReportPublisher announces stored runs.
type ReportPublisher interface {
	PublishReportReady(ctx context.Context, msg *amqp.ReportReady) error
}

// ReportServiceConfig holds configuration for the report service
type ReportServiceConfig struct {
	// Workers bounds concurrent transforms (default: 4)
	Workers int

	// SourceName is recorded on stored runs (default: "http")
	SourceName string
}

// DefaultReportServiceConfig returns sensible defaults
func DefaultReportServiceConfig() ReportServiceConfig {
	return ReportServiceConfig{
		Workers:    4,
		SourceName: "http",
	}
}

// RunResult is the outcome of one fetch-and-aggregate cycle.
type RunResult struct {
	Run          storage.Run
	Stored       bool
	Transactions []core.Transaction
	Report       core.Report
}

// ReportService fetches transactions, aggregates them and optionally stores
// and announces the result. Store and publisher may be nil.
type ReportService struct {
	source    source.TransactionSource
	normalize core.NormalizeFunc
	store     RunStore
	publisher ReportPublisher
	config    ReportServiceConfig
}

func NewReportService(
	src source.TransactionSource,
	normalize core.NormalizeFunc,
	store RunStore,
	publisher ReportPublisher,
	config ReportServiceConfig,
) *ReportService {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &ReportService{
		source:    src,
		normalize: normalize,
		store:     store,
		publisher: publisher,
		config:    config,
	}
}

// Run fetches the source, transforms every record and builds the report.
// A transform or aggregation failure aborts the run before anything is stored.
func (s *ReportService) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()

	raws, err := s.source.Fetch(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("fetch transactions: %w", err)
	}

	txns, err := s.transform(ctx, raws)
	if err != nil {
		return RunResult{}, err
	}

	report, err := core.BuildReport(txns)
	if err != nil {
		return RunResult{}, fmt.Errorf("build report: %w", err)
	}

	result := RunResult{Transactions: txns, Report: report}

	if s.store != nil {
		run := storage.NewRun(s.config.SourceName, report.Total, len(txns))
		if err := s.store.SaveRun(ctx, run, txns); err != nil {
			return RunResult{}, fmt.Errorf("save run: %w", err)
		}
		result.Run = run
		result.Stored = true

		s.publishReportReady(ctx, result)
	}

	slog.InfoContext(ctx, "Report run completed",
		applog.FieldRunID, result.Run.ID,
		applog.FieldTransactions, len(txns),
		applog.FieldCategories, report.Categories.Len(),
		applog.FieldDays, len(report.Daily),
		applog.FieldTotalCents, report.Total.Cents,
		applog.FieldDuration, time.Since(start).Milliseconds())

	return result, nil
}

// Recompute rebuilds the report of a stored run without touching the source.
func (s *ReportService) Recompute(ctx context.Context, runID string) (RunResult, error) {
	if s.store == nil {
		return RunResult{}, ErrNoStore
	}

	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return RunResult{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return s.recompute(ctx, run)
}

// RecomputeLatest rebuilds the report of the most recent stored run.
func (s *ReportService) RecomputeLatest(ctx context.Context) (RunResult, error) {
	if s.store == nil {
		return RunResult{}, ErrNoStore
	}

	run, err := s.store.LatestRun(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("get latest run: %w", err)
	}
	return s.recompute(ctx, run)
}

func (s *ReportService) recompute(ctx context.Context, run storage.Run) (RunResult, error) {
	txns, err := s.store.ListTransactions(ctx, run.ID)
	if err != nil {
		return RunResult{}, fmt.Errorf("list transactions of run %s: %w", run.ID, err)
	}

	report, err := core.BuildReport(txns)
	if err != nil {
		return RunResult{}, fmt.Errorf("build report: %w", err)
	}

	slog.DebugContext(ctx, "Recomputed stored run",
		applog.FieldRunID, run.ID,
		applog.FieldTransactions, len(txns))

	return RunResult{Run: run, Stored: true, Transactions: txns, Report: report}, nil
}

// transform parses records concurrently. Output order matches input order and
// the first failure cancels the remaining work.
func (s *ReportService) transform(ctx context.Context, raws []core.RawTransaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := core.Transform(raw, s.normalize)
			if err != nil {
				return fmt.Errorf("transaction %d: %w", i, err)
			}
			out[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transform transactions: %w", err)
	}
	return out, nil
}

func (s *ReportService) publishReportReady(ctx context.Context, result RunResult) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping report ready message")
		return
	}

	msg := &amqp.ReportReady{
		RunID:        result.Run.ID,
		TotalCents:   result.Report.Total.Cents,
		Transactions: len(result.Transactions),
		Days:         len(result.Report.Daily),
		Categories:   result.Report.Categories.Len(),
		Timestamp:    time.Now(),
	}
	if err := s.publisher.PublishReportReady(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish report ready message",
			applog.FieldRunID, result.Run.ID, applog.FieldError, err)
		// The run is stored; consumers can still find it through LatestRun.
	}
}
