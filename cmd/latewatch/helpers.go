package main

import (
	"context"
	"fmt"

	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/engine"
	"github.com/MohaMazouz/latewatch/internal/ingest"
	"github.com/MohaMazouz/latewatch/internal/model"
	"github.com/MohaMazouz/latewatch/internal/rules"
	"github.com/MohaMazouz/latewatch/internal/storage"
)

// setup builds the pipeline and opens storage from the bound configuration.
func setup(ctx context.Context) (*engine.Pipeline, *storage.SQLiteStorage, config.Pipeline, error) {
	cfg, err := config.FromViper()
	if err != nil {
		return nil, nil, cfg, err
	}

	dbPath, err := config.DatabasePath()
	if err != nil {
		return nil, nil, cfg, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, cfg, fmt.Errorf("failed to migrate storage: %w", err)
	}

	return engine.New(cfg, store), store, cfg, nil
}

// loadInvoices prepares classified invoices from a file path, or from
// storage when the path is empty.
func loadInvoices(ctx context.Context, pipeline *engine.Pipeline, store *storage.SQLiteStorage, cfg config.Pipeline, path string) ([]model.Invoice, error) {
	if path != "" {
		table, err := ingest.ReadFile(path)
		if err != nil {
			return nil, err
		}
		invoices, _, err := pipeline.Prepare(table)
		return invoices, err
	}

	invoices, err := store.GetInvoices(ctx)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, fmt.Errorf("no invoices in storage; pass a file to import")
	}

	// Derived fields are not persisted; reclassify for this run's date.
	classifier := rules.NewClassifier(cfg.Delay, cfg.Now())
	classifier.Apply(invoices)
	return invoices, nil
}
