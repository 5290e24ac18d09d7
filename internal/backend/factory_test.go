package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookkeeper/internal/config"
	"bookkeeper/internal/services"
)

const fixture = `{"totalCount": 2, "page": 1, "transactions": [
  {"Date": "2013-12-13", "Ledger": "Insurance Expense", "Amount": "-117.25", "Company": "LONDON DRUGS 78 POSTAL VANCOUVER BC"},
  {"Date": "2013-12-15", "Ledger": "", "Amount": "5000", "Company": "PAYMENT RECEIVED - THANK YOU"}
]}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.json")
	if err := os.WriteFile(path, []byte(fixture), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestSourceType_IsValid(t *testing.T) {
	for _, st := range GetSourceTypes() {
		if !st.IsValid() {
			t.Errorf("%s should be valid", st)
		}
	}
	if SourceType("ftp").IsValid() {
		t.Error("ftp should not be valid")
	}
	if got := GetSourceTypes(); len(got) != 3 || got[0] != HTTPSource {
		t.Errorf("unexpected source types %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	appConfig := &config.Config{
		SourceBackend:   config.BackendFile,
		SourceFile:      "tx.json",
		SQLiteDBPath:    "runs.db",
		AMQPReportQueue: "report_ready",
		VendorCacheSize: 10,
		VendorCacheTTL:  time.Minute,
	}
	cfg, err := FromAppConfig(appConfig)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != FileSource || cfg.SourceFile != "tx.json" || cfg.SQLiteDBPath != "runs.db" || cfg.AMQPReportQueue != "report_ready" {
		t.Errorf("unexpected backend config %+v", cfg)
	}

	appConfig.SourceBackend = "ftp"
	if _, err := FromAppConfig(appConfig); err == nil {
		t.Error("expected error for invalid source backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"http", Config{Type: HTTPSource, SourceURL: "http://x", VendorCacheSize: 1}, false},
		{"http without url", Config{Type: HTTPSource, VendorCacheSize: 1}, true},
		{"file without path", Config{Type: FileSource, VendorCacheSize: 1}, true},
		{"sheets without id", Config{Type: SheetsSource, GoogleSheetRange: "A1:D", VendorCacheSize: 1}, true},
		{"zero cache", Config{Type: FileSource, SourceFile: "x", VendorCacheSize: 0}, true},
		{"unknown type", Config{Type: "ftp", VendorCacheSize: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateListsSourceTypes(t *testing.T) {
	err := Config{Type: "ftp", VendorCacheSize: 1}.Validate()
	if err == nil {
		t.Fatal("expected error for unknown source type")
	}
	for _, st := range GetSourceTypes() {
		if !strings.Contains(err.Error(), string(st)) {
			t.Errorf("error %q does not list source type %q", err, st)
		}
	}
}

func TestCreateBackend_FileWithStore(t *testing.T) {
	cfg := Config{
		Type:            FileSource,
		SourceFile:      writeFixture(t),
		SQLiteDBPath:    filepath.Join(t.TempDir(), "runs.db"),
		VendorCacheSize: 16,
		VendorCacheTTL:  time.Minute,
	}

	result, err := NewFactory(nil).CreateBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	}()

	if result.Store == nil {
		t.Fatal("expected a run store")
	}
	if result.Publisher != nil {
		t.Fatal("expected no publisher without AMQP URL")
	}

	run, err := result.ReportService(services.ReportServiceConfig{Workers: 2}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !run.Stored || run.Run.Source != "file" {
		t.Errorf("unexpected run %+v", run.Run)
	}
	if run.Report.Total.Cents != 500000-11725 {
		t.Errorf("unexpected total %d", run.Report.Total.Cents)
	}
	if got := run.Transactions[0].CleanCompany; got != "LONDON DRUGS 78 POSTAL" {
		t.Errorf("unexpected clean company %q", got)
	}
}

func TestCreateBackend_WithoutStore(t *testing.T) {
	cfg := Config{Type: FileSource, SourceFile: writeFixture(t), VendorCacheSize: 16}

	result, err := NewFactory(nil).CreateBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer result.Cleanup()

	run, err := result.ReportService(services.DefaultReportServiceConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Stored {
		t.Error("run should not be stored without a store")
	}
}
