package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bookkeeper/internal/core"
	applog "bookkeeper/internal/log"

	_ "modernc.org/sqlite"
)

// timeLayout keeps created_at lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var ErrRunNotFound = errors.New("run not found")

// Run describes one ingest of the transaction source.
type Run struct {
	ID        string
	Source    string
	CreatedAt time.Time
	Total     core.Money
	Count     int
}

// NewRun creates run metadata with a fresh random ID.
func NewRun(source string, total core.Money, count int) Run {
	return Run{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Total:     total,
		Count:     count,
	}
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveRun stores a run and its transactions in a single database transaction.
func (r *SQLiteRepository) SaveRun(ctx context.Context, run Run, txns []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, created_at, total_cents, txn_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.CreatedAt.UTC().Format(timeLayout), run.Total.Cents, run.Count)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (run_id, position, txn_date, amount_cents, ledger, company, clean_company)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert transaction: %w", err)
	}
	defer stmt.Close()

	for i, t := range txns {
		var ledger sql.NullString
		if t.HasLedger {
			ledger = sql.NullString{String: t.Ledger, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, t.Date.String(), t.Amount.Cents, ledger, t.Company, t.CleanCompany); err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	slog.InfoContext(ctx, "Run saved to SQLite",
		applog.FieldRunID, run.ID,
		applog.FieldTransactions, len(txns),
		applog.FieldTotalCents, run.Total.Cents)
	return nil
}

// GetRun returns the metadata of a stored run.
func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source, created_at, total_cents, txn_count FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun returns the most recently created run.
func (r *SQLiteRepository) LatestRun(ctx context.Context) (Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source, created_at, total_cents, txn_count FROM runs ORDER BY created_at DESC LIMIT 1`)
	return scanRun(row)
}

func scanRun(row *sql.Row) (Run, error) {
	var (
		run       Run
		createdAt string
	)
	if err := row.Scan(&run.ID, &run.Source, &createdAt, &run.Total.Cents, &run.Count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse run created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = t
	return run, nil
}

// ListTransactions returns the transactions of a run in their original order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, runID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT txn_date, amount_cents, ledger, company, clean_company
		 FROM transactions WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t      core.Transaction
			date   string
			ledger sql.NullString
		)
		if err := rows.Scan(&date, &t.Amount.Cents, &ledger, &t.Company, &t.CleanCompany); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored transaction date %q: %w", date, err)
		}
		t.Ledger, t.HasLedger = ledger.String, ledger.Valid
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
