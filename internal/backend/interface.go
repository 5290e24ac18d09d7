package backend

import (
	"context"
	"time"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/services"
	"bookkeeper/internal/source"
	"bookkeeper/internal/storage"
	"bookkeeper/internal/vendor"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds everything a report run needs. Store and Publisher are
// nil when persistence or messaging is disabled.
type BackendResult struct {
	Source     source.TransactionSource
	SourceType SourceType
	Store      *storage.SQLiteRepository
	Publisher  *amqp.Client
	Normalizer *vendor.CachingNormalizer
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Transaction source
	Type        SourceType
	SourceURL   string
	SourceFile  string
	HTTPTimeout time.Duration

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetRange    string

	// Optional run store
	SQLiteDBPath string

	// Optional messaging
	AMQPURL         string
	AMQPExchange    string
	AMQPQueue       string
	AMQPReportQueue string

	// Vendor name cache
	VendorCacheSize int
	VendorCacheTTL  time.Duration
}

// SourceType represents where transactions are read from
type SourceType string

const (
	HTTPSource   SourceType = "http"
	FileSource   SourceType = "file"
	SheetsSource SourceType = "sheets"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is valid
func (st SourceType) IsValid() bool {
	switch st {
	case HTTPSource, FileSource, SheetsSource:
		return true
	default:
		return false
	}
}

// ReportService wires the backend into a report service. Disabled
// components are passed as untyped nils so the service can detect them.
func (r *BackendResult) ReportService(config services.ReportServiceConfig) *services.ReportService {
	var (
		store     services.RunStore
		publisher services.ReportPublisher
	)
	if r.Store != nil {
		store = r.Store
	}
	if r.Publisher != nil {
		publisher = r.Publisher
	}
	if config.SourceName == "" {
		config.SourceName = r.SourceType.String()
	}
	return services.NewReportService(r.Source, r.Normalizer.Normalize, store, publisher, config)
}
