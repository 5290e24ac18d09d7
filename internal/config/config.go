package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	BackendHTTP   = "http"
	BackendFile   = "file"
	BackendSheets = "sheets"
)

type Config struct {
	// Transaction source
	SourceBackend string
	SourceURL     string
	SourceFile    string
	HTTPTimeout   time.Duration

	// Google Sheets source
	GoogleSpreadsheetID string
	GoogleSheetRange    string

	// Snapshot store; empty disables persistence
	SQLiteDBPath string

	// AMQP; empty URL disables messaging
	AMQPURL         string
	AMQPExchange    string
	AMQPQueue       string
	AMQPReportQueue string

	// Processing
	TransformWorkers int
	VendorCacheSize  int
	VendorCacheTTL   time.Duration
	RefreshInterval  time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		SourceBackend: getEnv("SOURCE_BACKEND", BackendHTTP),
		SourceURL:     getEnv("SOURCE_URL", "http://resttest.bench.co/transactions"),
		SourceFile:    getEnv("SOURCE_FILE", ""),
		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetRange:    getEnv("GOOGLE_SHEET_RANGE", "Transactions!A1:D"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", ""),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "bookkeeper"),
		AMQPQueue:       getEnv("AMQP_QUEUE", "report_refresh"),
		AMQPReportQueue: getEnv("AMQP_REPORT_QUEUE", "report_ready"),

		TransformWorkers: getEnvInt("TRANSFORM_WORKERS", 4),
		VendorCacheSize:  getEnvInt("VENDOR_CACHE_SIZE", 1024),
		VendorCacheTTL:   getEnvDuration("VENDOR_CACHE_TTL", time.Hour),
		RefreshInterval:  getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	switch c.SourceBackend {
	case BackendHTTP:
		if u, err := url.Parse(c.SourceURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid source URL '%s': %v", c.SourceURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid source URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		} else if u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid source URL '%s': missing host", c.SourceURL))
		}
		if c.HTTPTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be positive", c.HTTPTimeout))
		}
	case BackendFile:
		if c.SourceFile == "" {
			errors = append(errors, "SOURCE_FILE is required when using file backend")
		} else if _, err := os.Stat(c.SourceFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("source file does not exist: %s", c.SourceFile))
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetRange == "" {
			errors = append(errors, "Google sheet range is required when using sheets backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid source backend '%s': must be one of %v",
			c.SourceBackend, []string{BackendHTTP, BackendFile, BackendSheets}))
	}

	if c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPReportQueue == "" {
			errors = append(errors, "AMQP report queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.TransformWorkers < 1 || c.TransformWorkers > 256 {
		errors = append(errors, fmt.Sprintf("invalid transform workers %d: must be between 1 and 256", c.TransformWorkers))
	}
	if c.VendorCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid vendor cache size %d: must be at least 1", c.VendorCacheSize))
	}
	if c.VendorCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid vendor cache TTL %v: must not be negative", c.VendorCacheTTL))
	}
	if c.RefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
