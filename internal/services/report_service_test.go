package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/core"
	"bookkeeper/internal/storage"
	"bookkeeper/internal/vendor"
)

type staticSource struct {
	raws []core.RawTransaction
	err  error
}

func (s staticSource) Fetch(context.Context) ([]core.RawTransaction, error) {
	return s.raws, s.err
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ReportReady
	err  error
}

func (p *recordingPublisher) PublishReportReady(_ context.Context, msg *amqp.ReportReady) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type failingStore struct {
	*storage.SQLiteRepository
}

func (failingStore) SaveRun(context.Context, storage.Run, []core.Transaction) error {
	return errors.New("disk full")
}

func raw(date, ledger, amount, company string) core.RawTransaction {
	r := core.RawTransaction{Date: date, Amount: core.FlexText(amount), Company: company}
	if ledger != "" {
		r.Ledger = &ledger
	}
	return r
}

func sampleRaws() []core.RawTransaction {
	return []core.RawTransaction{
		raw("2013-12-22", "Phone & Internet Expense", "-110.5", "SHAW CABLESYSTEMS CALGARY AB"),
		raw("2013-12-21", "Travel Expense, Nonlocal", "-8.25", "BLACK TOP CABS VANCOUVER BC"),
		raw("2013-12-20", "", "5000", "PAYMENT - THANK YOU"),
		raw("2013-12-20", "Travel Expense, Nonlocal", "-4.75", "  VANCOUVER CABS  #1023 "),
	}
}

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewReportServiceClampsWorkers(t *testing.T) {
	svc := NewReportService(staticSource{}, vendor.Normalize, nil, nil, ReportServiceConfig{Workers: 0})
	if svc.config.Workers != 1 {
		t.Fatalf("expected workers clamped to 1, got %d", svc.config.Workers)
	}
}

func TestDefaultReportServiceConfig(t *testing.T) {
	config := DefaultReportServiceConfig()
	if config.Workers != 4 {
		t.Errorf("expected Workers 4, got %d", config.Workers)
	}
	if config.SourceName != "http" {
		t.Errorf("expected SourceName http, got %q", config.SourceName)
	}
}

func TestReportService_RunWithoutStore(t *testing.T) {
	svc := NewReportService(staticSource{raws: sampleRaws()}, vendor.Normalize, nil, nil, DefaultReportServiceConfig())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stored {
		t.Error("result should not be stored without a store")
	}
	if got := result.Report.Total.Cents; got != 500000-11050-825-475 {
		t.Errorf("unexpected total %d", got)
	}
	if got := result.Report.Categories.Len(); got != 2 {
		t.Errorf("expected 2 categories, got %d", got)
	}
	if got := len(result.Report.Daily); got != 3 {
		t.Errorf("expected 3 daily balances, got %d", got)
	}
	if got := result.Transactions[3].CleanCompany; got != "CABS" {
		t.Errorf("expected normalized CABS, got %q", got)
	}
	if got := result.Transactions[2].CleanCompany; got != vendor.NoVendorName {
		t.Errorf("expected %q, got %q", vendor.NoVendorName, got)
	}
}

func TestReportService_TransformPreservesOrder(t *testing.T) {
	var raws []core.RawTransaction
	for i := 0; i < 200; i++ {
		raws = append(raws, raw("2014-01-01", "Office", fmt.Sprintf("-%d", i), fmt.Sprintf("VENDOR %d", i)))
	}
	svc := NewReportService(staticSource{raws: raws}, vendor.Normalize, nil, nil, ReportServiceConfig{Workers: 8})

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, txn := range result.Transactions {
		if txn.Amount.Cents != int64(-i*100) {
			t.Fatalf("transaction %d out of order: %+v", i, txn)
		}
	}
}

func TestReportService_RunTransformError(t *testing.T) {
	raws := sampleRaws()
	raws[1].Amount = "abc"
	pub := &recordingPublisher{}
	store := newTestStore(t)
	svc := NewReportService(staticSource{raws: raws}, vendor.Normalize, store, pub, DefaultReportServiceConfig())

	_, err := svc.Run(context.Background())
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	var pe *core.ParseError
	if !errors.As(err, &pe) || pe.Field != "Amount" {
		t.Fatalf("expected Amount ParseError, got %v", err)
	}
	if _, err := store.LatestRun(context.Background()); !errors.Is(err, storage.ErrRunNotFound) {
		t.Fatalf("nothing should be stored on failure, got %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("nothing should be published on failure, got %d messages", len(pub.msgs))
	}
}

func TestReportService_RunMissingLedger(t *testing.T) {
	raws := sampleRaws()
	raws[0].Ledger = nil
	svc := NewReportService(staticSource{raws: raws}, vendor.Normalize, nil, nil, DefaultReportServiceConfig())

	if _, err := svc.Run(context.Background()); !errors.Is(err, core.ErrMissingLedger) {
		t.Fatalf("expected ErrMissingLedger, got %v", err)
	}
}

func TestReportService_RunFetchError(t *testing.T) {
	svc := NewReportService(staticSource{err: errors.New("boom")}, vendor.Normalize, nil, nil, DefaultReportServiceConfig())

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestReportService_RunStoresAndPublishes(t *testing.T) {
	store := newTestStore(t)
	pub := &recordingPublisher{}
	config := DefaultReportServiceConfig()
	config.SourceName = "file"
	svc := NewReportService(staticSource{raws: sampleRaws()}, vendor.Normalize, store, pub, config)

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Stored || result.Run.ID == "" {
		t.Fatalf("expected stored run, got %+v", result.Run)
	}
	if result.Run.Source != "file" || result.Run.Count != 4 {
		t.Errorf("unexpected run metadata %+v", result.Run)
	}

	if len(pub.msgs) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.RunID != result.Run.ID || msg.TotalCents != result.Report.Total.Cents || msg.Days != 3 || msg.Transactions != 4 {
		t.Errorf("unexpected message %+v", msg)
	}

	again, err := svc.Recompute(context.Background(), result.Run.ID)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if again.Report.Total != result.Report.Total || len(again.Report.Daily) != len(result.Report.Daily) {
		t.Errorf("recomputed report differs: %+v vs %+v", again.Report, result.Report)
	}
	for i, item := range result.Report.Categories.Items {
		if again.Report.Categories.Items[i] != item {
			t.Errorf("category %d differs: %+v vs %+v", i, again.Report.Categories.Items[i], item)
		}
	}

	latest, err := svc.RecomputeLatest(context.Background())
	if err != nil {
		t.Fatalf("RecomputeLatest() error = %v", err)
	}
	if latest.Run.ID != result.Run.ID {
		t.Errorf("expected latest run %s, got %s", result.Run.ID, latest.Run.ID)
	}
}

func TestReportService_PublishFailureDoesNotFailRun(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewReportService(staticSource{raws: sampleRaws()}, vendor.Normalize, newTestStore(t), pub, DefaultReportServiceConfig())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Stored {
		t.Error("run should be stored even if publishing fails")
	}
}

func TestReportService_SaveFailure(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewReportService(staticSource{raws: sampleRaws()}, vendor.Normalize, failingStore{}, pub, DefaultReportServiceConfig())

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if len(pub.msgs) != 0 {
		t.Errorf("nothing should be published when saving fails")
	}
}

func TestReportService_RecomputeWithoutStore(t *testing.T) {
	svc := NewReportService(staticSource{}, vendor.Normalize, nil, nil, DefaultReportServiceConfig())

	if _, err := svc.Recompute(context.Background(), "x"); !errors.Is(err, ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
	if _, err := svc.RecomputeLatest(context.Background()); !errors.Is(err, ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestReportService_RecomputeUnknownRun(t *testing.T) {
	svc := NewReportService(staticSource{}, vendor.Normalize, newTestStore(t), nil, DefaultReportServiceConfig())

	if _, err := svc.Recompute(context.Background(), "missing"); !errors.Is(err, storage.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
