package storage

import (
	"context"
	"fmt"
	"time"
)

// PredictionRun records one prediction pass over a dataset: which artifact
// served it and the total exposure it reported.
type PredictionRun struct {
	CreatedAt    time.Time
	ID           string
	ArtifactID   string
	InvoiceCount int
	TotalAtRisk  float64
}

// SaveRun appends a prediction run record.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run PredictionRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(run.ID, "run.ID"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO prediction_runs
		(id, created_at, artifact_id, invoice_count, total_at_risk)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.ArtifactID, run.InvoiceCount, run.TotalAtRisk,
	); err != nil {
		return fmt.Errorf("failed to save prediction run %s: %w", run.ID, err)
	}
	return nil
}

// RecentRuns returns the newest prediction runs, most recent first.
func (s *SQLiteStorage) RecentRuns(ctx context.Context, limit int) ([]PredictionRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, artifact_id, invoice_count, total_at_risk
		FROM prediction_runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []PredictionRun
	for rows.Next() {
		var run PredictionRun
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.ArtifactID, &run.InvoiceCount, &run.TotalAtRisk); err != nil {
			return nil, fmt.Errorf("failed to scan prediction run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prediction runs: %w", err)
	}
	return runs, nil
}
