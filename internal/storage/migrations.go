package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version the application
// expects. Failing to migrate to it is fatal.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS invoices (
					hash TEXT PRIMARY KEY,
					invoice_id TEXT NOT NULL,
					client_id TEXT NOT NULL,
					client_name TEXT,
					amount_excl_tax REAL,
					tax_amount REAL,
					other_tax REAL,
					amount_incl_tax REAL NOT NULL,
					credit_limit REAL,
					issue_date DATETIME NOT NULL,
					due_date DATETIME NOT NULL,
					collected INTEGER NOT NULL DEFAULT 0,
					collection_date DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_invoices_client ON invoices(client_id)`,
				`CREATE INDEX idx_invoices_issue_date ON invoices(issue_date)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 1 failed: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Model artifacts",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS model_artifacts (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					schema_json TEXT NOT NULL,
					model_blob BLOB NOT NULL,
					accuracy REAL,
					diagnostics_json TEXT
				)`,
				`CREATE INDEX idx_model_artifacts_created ON model_artifacts(created_at)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 2 failed: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Prediction runs",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS prediction_runs (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					artifact_id TEXT NOT NULL,
					invoice_count INTEGER NOT NULL,
					total_at_risk REAL NOT NULL
				)`,
				`CREATE INDEX idx_prediction_runs_created ON prediction_runs(created_at)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 3 failed: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
			m.Version, m.Description); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
