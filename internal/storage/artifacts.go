package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MohaMazouz/latewatch/internal/boost"
	"github.com/MohaMazouz/latewatch/internal/common"
	"github.com/MohaMazouz/latewatch/internal/predictor"
)

// SaveArtifact persists a trained model artifact alongside its feature
// schema and diagnostics. Artifacts are append-only; the newest wins.
func (s *SQLiteStorage) SaveArtifact(ctx context.Context, artifact *predictor.Artifact, diag predictor.Diagnostics) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if artifact == nil || artifact.Model == nil {
		return fmt.Errorf("%w: artifact", ErrNilParameter)
	}

	modelBlob, err := artifact.Model.Marshal()
	if err != nil {
		return err
	}
	schemaJSON, err := json.Marshal(artifact.Schema)
	if err != nil {
		return fmt.Errorf("failed to serialize feature schema: %w", err)
	}
	diagJSON, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("failed to serialize diagnostics: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO model_artifacts
		(id, created_at, schema_json, model_blob, accuracy, diagnostics_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		artifact.ID, artifact.CreatedAt, string(schemaJSON), modelBlob, diag.Accuracy, string(diagJSON),
	); err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", artifact.ID, err)
	}
	return nil
}

// GetLatestArtifact loads the most recently trained artifact. Returns
// common.ErrModelUnavailable when none has been stored yet.
func (s *SQLiteStorage) GetLatestArtifact(ctx context.Context) (*predictor.Artifact, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	artifact := &predictor.Artifact{}
	var schemaJSON string
	var modelBlob []byte

	err := s.db.QueryRowContext(ctx, `SELECT id, created_at, schema_json, model_blob
		FROM model_artifacts ORDER BY created_at DESC, id DESC LIMIT 1`).
		Scan(&artifact.ID, &artifact.CreatedAt, &schemaJSON, &modelBlob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrModelUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}

	if err := json.Unmarshal([]byte(schemaJSON), &artifact.Schema); err != nil {
		return nil, fmt.Errorf("failed to parse feature schema: %w", err)
	}
	ensemble, err := boost.Unmarshal(modelBlob)
	if err != nil {
		return nil, err
	}
	artifact.Model = ensemble
	return artifact, nil
}
