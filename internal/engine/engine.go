// Package engine orchestrates the batch pipeline: raw table → normalize →
// delay rules → risk aggregation → features → model → merged predictions.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MohaMazouz/latewatch/internal/common"
	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/ingest"
	"github.com/MohaMazouz/latewatch/internal/merge"
	"github.com/MohaMazouz/latewatch/internal/model"
	"github.com/MohaMazouz/latewatch/internal/normalize"
	"github.com/MohaMazouz/latewatch/internal/predictor"
	"github.com/MohaMazouz/latewatch/internal/risk"
	"github.com/MohaMazouz/latewatch/internal/rules"
)

// ArtifactSource loads a persisted model artifact, typically from sqlite.
type ArtifactSource interface {
	GetLatestArtifact(ctx context.Context) (*predictor.Artifact, error)
}

// Pipeline runs the analysis stages over in-memory datasets. One Pipeline
// is safe for concurrent prediction calls; retraining swaps the model
// artifact atomically.
type Pipeline struct {
	cfg       config.Pipeline
	modelRepo ArtifactSource
	models    *predictor.Store
	cache     *datasetCache
}

// New creates a pipeline. modelRepo may be nil when persistence is not
// wired (predictions then require an in-process trained model).
func New(cfg config.Pipeline, modelRepo ArtifactSource) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		modelRepo: modelRepo,
		models:    predictor.NewStore(),
		cache:     newDatasetCache(),
	}
}

// AnalysisResult is the rule-side output of one run.
type AnalysisResult struct {
	Invoices []model.Invoice
	Profiles []model.ClientProfile
	Actions  risk.Actions
	KPIs     risk.KPIs
	Stats    normalize.Stats
}

// Prepare normalizes a raw table and applies the delay rules, memoizing the
// result by input content hash and evaluation date.
func (p *Pipeline) Prepare(table *ingest.RawTable) ([]model.Invoice, normalize.Stats, error) {
	key := table.ContentHash() + ":" + p.cfg.Now().Format("2006-01-02")
	if cached, ok := p.cache.get(key); ok {
		slog.Debug("Using cached cleaned dataset", "rows", len(cached))
		return cached, normalize.Stats{RowsIn: len(cached), RowsKept: len(cached)}, nil
	}

	invoices, stats, err := normalize.Normalize(table)
	if err != nil {
		return nil, stats, err
	}

	classifier := rules.NewClassifier(p.cfg.Delay, p.cfg.Now())
	classifier.Apply(invoices)

	p.cache.set(key, invoices)
	return invoices, stats, nil
}

// Analyze runs the rule-based half of the pipeline on a raw table.
func (p *Pipeline) Analyze(table *ingest.RawTable) (*AnalysisResult, error) {
	invoices, stats, err := p.Prepare(table)
	if err != nil {
		return nil, err
	}

	profiles := risk.Aggregate(invoices, p.cfg.Delay, p.cfg.Risk)
	return &AnalysisResult{
		Invoices: invoices,
		Profiles: profiles,
		Actions:  risk.PriorityActions(invoices, profiles, p.cfg.Delay, p.cfg.Risk),
		KPIs:     risk.ComputeKPIs(invoices),
		Stats:    stats,
	}, nil
}

// Train fits a new model on classified invoices and atomically installs it
// as the pipeline's current artifact.
func (p *Pipeline) Train(ctx context.Context, invoices []model.Invoice) (*predictor.Artifact, predictor.Diagnostics, error) {
	artifact, diag, err := predictor.Train(ctx, invoices, p.cfg)
	if err != nil {
		return nil, diag, err
	}

	p.models.Swap(artifact)
	slog.Info("Installed trained model", "artifact_id", artifact.ID, "accuracy", diag.Accuracy)
	return artifact, diag, nil
}

// Predict classifies invoices with the current model, lazily restoring the
// latest persisted artifact when the in-process store is empty.
func (p *Pipeline) Predict(ctx context.Context, invoices []model.Invoice) ([]model.PredictionResult, merge.Summary, error) {
	artifact, err := p.models.LoadOrInit(func() (*predictor.Artifact, error) {
		if p.modelRepo == nil {
			return nil, common.ErrModelUnavailable
		}
		return p.modelRepo.GetLatestArtifact(ctx)
	})
	if err != nil {
		return nil, merge.Summary{}, fmt.Errorf("model lookup failed: %w", err)
	}

	results, err := predictor.Predict(ctx, invoices, artifact, p.cfg)
	if err != nil {
		return nil, merge.Summary{}, err
	}
	return results, merge.Summarize(results, p.cfg.TopN), nil
}

// CurrentArtifact returns the artifact serving predictions, or nil when none
// has been loaded or trained yet.
func (p *Pipeline) CurrentArtifact() *predictor.Artifact {
	return p.models.Load()
}
