package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/core"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/services"
)

// Runner produces a fresh report run.
type Runner interface {
	Run(ctx context.Context) (services.RunResult, error)
}

// RefreshWorker turns refresh requests and timer ticks into report runs.
// Runs never overlap; a request arriving during a run is coalesced into it.
type RefreshWorker struct {
	runner Runner

	mu      sync.Mutex
	running bool
}

func NewRefreshWorker(runner Runner) *RefreshWorker {
	return &RefreshWorker{runner: runner}
}

// HandleRefresh processes a single refresh request from AMQP
func (w *RefreshWorker) HandleRefresh(ctx context.Context, msg *amqp.RefreshRequest) error {
	slog.InfoContext(ctx, "Processing refresh request",
		"requested_by", msg.RequestedBy,
		"timestamp", msg.Timestamp)

	err := w.Refresh(ctx)
	if isDataError(err) {
		// Redelivery would refetch the same bad records; the ticker retries
		// once the source has been corrected.
		return amqp.Permanent(err)
	}
	return err
}

// isDataError reports failures caused by the transaction data itself.
func isDataError(err error) bool {
	var pe *core.ParseError
	return errors.As(err, &pe) || errors.Is(err, core.ErrMissingLedger)
}

// Refresh runs the report service unless a run is already in progress.
func (w *RefreshWorker) Refresh(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		slog.InfoContext(ctx, "Refresh already in progress, skipping")
		return nil
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	result, err := w.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("refresh report: %w", err)
	}

	slog.InfoContext(ctx, "Refresh completed",
		applog.FieldRunID, result.Run.ID,
		"stored", result.Stored,
		applog.FieldTransactions, len(result.Transactions))
	return nil
}
