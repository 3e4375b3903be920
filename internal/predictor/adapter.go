// Package predictor is the model adapter: it turns classified invoices into
// a trained multiclass model plus its feature schema, and runs predictions
// against a previously trained artifact.
package predictor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/MohaMazouz/latewatch/internal/boost"
	"github.com/MohaMazouz/latewatch/internal/common"
	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/features"
	"github.com/MohaMazouz/latewatch/internal/model"
)

const numClasses = 3

// Artifact pairs a trained model with the exact feature schema it was
// trained on. The schema is the train/serve compatibility contract: predict
// reconciles every batch to it before calling the model.
type Artifact struct {
	CreatedAt time.Time       `json:"created_at"`
	ID        string          `json:"id"`
	Schema    []string        `json:"schema"`
	Model     *boost.Ensemble `json:"model"`
}

// Train builds the 3-class target from the rule-engine booleans, engineers
// features, rebalances classes and fits the classifier. It returns the new
// artifact and advisory diagnostics.
func Train(ctx context.Context, invoices []model.Invoice, cfg config.Pipeline) (*Artifact, Diagnostics, error) {
	var diag Diagnostics
	if len(invoices) == 0 {
		return nil, diag, common.ErrNoInvoices
	}

	y := buildTarget(invoices)

	encoded := engineer(invoices, cfg)
	schema := append([]string(nil), encoded.Columns...)

	rng := rand.New(rand.NewSource(cfg.Training.Seed))
	trainIdx, testIdx := stratifiedSplit(y, cfg.Training.TestFraction, rng)

	trainX := gather(encoded.Rows, trainIdx)
	trainY := gatherInts(y, trainIdx)

	balancedX, balancedY, added := borderlineOversample(trainX, trainY, numClasses, cfg.Training.OversampleK, rng)
	diag.TrainRows = len(balancedX)
	diag.Oversample = added

	slog.Info("Training delay classifier",
		"rows", len(invoices),
		"train_rows", len(balancedX),
		"oversampled", added,
		"features", len(schema))

	var bar *progressbar.ProgressBar
	if cfg.Training.ShowProgress {
		bar = progressbar.Default(int64(cfg.Training.Rounds), "boosting")
	}

	params := boost.Params{
		Rounds:       cfg.Training.Rounds,
		LearningRate: cfg.Training.LearningRate,
		MaxDepth:     cfg.Training.MaxDepth,
		MinLeafSize:  cfg.Training.MinLeafSize,
		Lambda:       1.0,
		Classes:      numClasses,
	}
	ensemble, err := boost.Train(balancedX, balancedY, params, func(int) {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	if err != nil {
		return nil, diag, fmt.Errorf("failed to fit classifier: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, diag, err
	}

	if len(testIdx) > 0 {
		testX := gather(encoded.Rows, testIdx)
		testY := gatherInts(y, testIdx)
		eval := evaluate(testY, ensemble.PredictAll(testX), numClasses)
		eval.TrainRows = diag.TrainRows
		eval.Oversample = diag.Oversample
		diag = eval
	}

	artifact := &Artifact{
		ID:        uuid.New().String(),
		CreatedAt: cfg.Now(),
		Schema:    schema,
		Model:     ensemble,
	}
	return artifact, diag, nil
}

// Predict runs the feature pipeline against the artifact's schema and maps
// each invoice to a predicted class and amount at risk.
func Predict(ctx context.Context, invoices []model.Invoice, artifact *Artifact, cfg config.Pipeline) ([]model.PredictionResult, error) {
	if artifact == nil || artifact.Model == nil {
		return nil, common.ErrModelUnavailable
	}
	if len(artifact.Schema) == 0 {
		return nil, common.ErrSchemaEmpty
	}
	if len(invoices) == 0 {
		return nil, common.ErrNoInvoices
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded := engineer(invoices, cfg).Reconcile(artifact.Schema)

	results := make([]model.PredictionResult, len(invoices))
	for i := range invoices {
		class := model.PredictedClass(artifact.Model.PredictClass(encoded.Rows[i]))
		factor := cfg.RiskFactors[int(class)]
		inv := &invoices[i]
		results[i] = model.PredictionResult{
			InvoiceID:     inv.ID,
			ClientID:      inv.ClientID,
			ClientName:    inv.ClientName,
			Class:         class,
			Label:         class.Label(),
			AmountAtRisk:  inv.AmountInclTax * factor,
			AmountInclTax: inv.AmountInclTax,
			DaysLate:      inv.DaysLate,
			RuleCategory:  inv.DelayCategory,
		}
	}
	return results, nil
}

// engineer runs the shared feature pipeline: build, impute, encode.
func engineer(invoices []model.Invoice, cfg config.Pipeline) *features.Encoded {
	frame := features.Build(invoices, features.Config{
		Now:               cfg.Now(),
		Window:            cfg.RollingWindow,
		PaymentRegularity: cfg.PaymentRegularity,
		ClientRiskTrend:   cfg.ClientRiskTrend,
	})
	frame.ImputeMissing()
	return frame.Encode()
}

// buildTarget derives the training label from the rule engine's booleans.
func buildTarget(invoices []model.Invoice) []int {
	y := make([]int, len(invoices))
	for i := range invoices {
		switch {
		case invoices[i].IsExcessivelyLate:
			y[i] = int(model.ClassExcessivelyLate)
		case invoices[i].IsLate:
			y[i] = int(model.ClassLate)
		default:
			y[i] = int(model.ClassNoDelay)
		}
	}
	return y
}

// stratifiedSplit shuffles within each class and carves off the test
// fraction, keeping at least one training sample per represented class.
func stratifiedSplit(y []int, testFraction float64, rng *rand.Rand) (train, test []int) {
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	for _, members := range byClass {
		rng.Shuffle(len(members), func(a, b int) {
			members[a], members[b] = members[b], members[a]
		})
		testN := int(float64(len(members)) * testFraction)
		if testN >= len(members) {
			testN = len(members) - 1
		}
		test = append(test, members[:testN]...)
		train = append(train, members[testN:]...)
	}
	return train, test
}

func gather(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func gatherInts(values []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}
