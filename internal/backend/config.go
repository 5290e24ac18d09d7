package backend

import (
	"fmt"

	"bookkeeper/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(appConfig.SourceBackend)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid source type in config: %s", appConfig.SourceBackend)
	}

	return Config{
		Type:        sourceType,
		SourceURL:   appConfig.SourceURL,
		SourceFile:  appConfig.SourceFile,
		HTTPTimeout: appConfig.HTTPTimeout,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetRange:    appConfig.GoogleSheetRange,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:         appConfig.AMQPURL,
		AMQPExchange:    appConfig.AMQPExchange,
		AMQPQueue:       appConfig.AMQPQueue,
		AMQPReportQueue: appConfig.AMQPReportQueue,

		VendorCacheSize: appConfig.VendorCacheSize,
		VendorCacheTTL:  appConfig.VendorCacheTTL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type %q: must be one of %v", c.Type, GetSourceTypes())
	}

	switch c.Type {
	case HTTPSource:
		if c.SourceURL == "" {
			return fmt.Errorf("source URL is required for http source")
		}
	case FileSource:
		if c.SourceFile == "" {
			return fmt.Errorf("source file is required for file source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
		if c.GoogleSheetRange == "" {
			return fmt.Errorf("Google sheet range is required for sheets source")
		}
	}

	if c.VendorCacheSize < 1 {
		return fmt.Errorf("vendor cache size must be at least 1")
	}

	return nil
}

// GetSourceTypes returns all valid source types
func GetSourceTypes() []SourceType {
	return []SourceType{HTTPSource, FileSource, SheetsSource}
}
