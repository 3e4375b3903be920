package predictor

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohaMazouz/latewatch/internal/common"
	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/model"
)

var asOf = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func newTestRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func trainingConfig() config.Pipeline {
	cfg := config.Default()
	cfg.AsOf = asOf
	cfg.Training.ShowProgress = false
	cfg.Training.Rounds = 30
	return cfg
}

// trainingInvoices builds perClass invoices in each delay class. The delay
// signal flows into days_to_due and the per-client rolling stats, so a
// shallow model separates the classes cleanly.
func trainingInvoices(perClass int) []model.Invoice {
	var invoices []model.Invoice
	classes := []struct {
		baseDays  int
		late      bool
		excessive bool
	}{
		{baseDays: 5},
		{baseDays: 35, late: true},
		{baseDays: 65, late: true, excessive: true},
	}

	for ci, c := range classes {
		for i := 0; i < perClass; i++ {
			daysLate := c.baseDays + i
			due := asOf.AddDate(0, 0, -daysLate)
			invoices = append(invoices, model.Invoice{
				ID:                fmt.Sprintf("F%d-%d", ci, i),
				ClientID:          fmt.Sprintf("C%d-%d", ci, i),
				ClientName:        "Client",
				AmountInclTax:     1000,
				AmountExclTax:     833.33,
				TaxAmount:         166.67,
				IssueDate:         due.AddDate(0, -1, 0),
				DueDate:           due,
				DaysLate:          daysLate,
				IsLate:            c.late,
				IsExcessivelyLate: c.excessive,
			})
		}
	}
	return invoices
}

func TestTrainThenPredict(t *testing.T) {
	ctx := context.Background()
	cfg := trainingConfig()
	invoices := trainingInvoices(20)

	artifact, diag, err := Train(ctx, invoices, cfg)
	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.NotEmpty(t, artifact.ID)
	assert.NotEmpty(t, artifact.Schema)
	assert.True(t, asOf.Equal(artifact.CreatedAt))
	assert.Greater(t, diag.TestRows, 0)
	assert.GreaterOrEqual(t, diag.Accuracy, 0.9)

	results, err := Predict(ctx, invoices, artifact, cfg)
	require.NoError(t, err)
	require.Len(t, results, len(invoices))

	for i, r := range results {
		inv := &invoices[i]
		assert.Equal(t, inv.ID, r.InvoiceID)

		want := model.ClassNoDelay
		if inv.IsExcessivelyLate {
			want = model.ClassExcessivelyLate
		} else if inv.IsLate {
			want = model.ClassLate
		}
		assert.Equal(t, want, r.Class, "invoice %s", inv.ID)
	}
}

func TestPredict_AmountAtRiskFactors(t *testing.T) {
	ctx := context.Background()
	cfg := trainingConfig()
	invoices := trainingInvoices(20)

	artifact, _, err := Train(ctx, invoices, cfg)
	require.NoError(t, err)

	results, err := Predict(ctx, invoices, artifact, cfg)
	require.NoError(t, err)

	// Amount at risk is the invoice amount scaled by the class factor.
	factors := map[model.PredictedClass]float64{
		model.ClassNoDelay:         0.05,
		model.ClassLate:            0.20,
		model.ClassExcessivelyLate: 0.50,
	}
	for _, r := range results {
		assert.InDelta(t, 1000*factors[r.Class], r.AmountAtRisk, 1e-9)
		assert.Equal(t, r.Class.Label(), r.Label)
	}
}

func TestPredict_ReconcilesUnseenClients(t *testing.T) {
	ctx := context.Background()
	cfg := trainingConfig()

	artifact, _, err := Train(ctx, trainingInvoices(20), cfg)
	require.NoError(t, err)

	// Entirely new client ids: the one-hot columns differ from training, so
	// this only works through schema reconciliation.
	fresh := trainingInvoices(3)
	for i := range fresh {
		fresh[i].ClientID = "NEW-" + fresh[i].ClientID
	}

	results, err := Predict(ctx, fresh, artifact, cfg)
	require.NoError(t, err)
	assert.Len(t, results, len(fresh))
}

func TestPredict_NoModel(t *testing.T) {
	ctx := context.Background()
	cfg := trainingConfig()
	invoices := trainingInvoices(2)

	_, err := Predict(ctx, invoices, nil, cfg)
	assert.ErrorIs(t, err, common.ErrModelUnavailable)

	_, err = Predict(ctx, invoices, &Artifact{}, cfg)
	assert.ErrorIs(t, err, common.ErrModelUnavailable)
}

func TestPredict_EmptySchema(t *testing.T) {
	ctx := context.Background()
	cfg := trainingConfig()

	artifact, _, err := Train(ctx, trainingInvoices(20), cfg)
	require.NoError(t, err)
	artifact.Schema = nil

	_, err = Predict(ctx, trainingInvoices(2), artifact, cfg)
	assert.ErrorIs(t, err, common.ErrSchemaEmpty)
}

func TestPredict_NoInvoices(t *testing.T) {
	ctx := context.Background()
	cfg := trainingConfig()

	artifact, _, err := Train(ctx, trainingInvoices(20), cfg)
	require.NoError(t, err)

	_, err = Predict(ctx, nil, artifact, cfg)
	assert.ErrorIs(t, err, common.ErrNoInvoices)
}

func TestTrain_NoInvoices(t *testing.T) {
	_, _, err := Train(context.Background(), nil, trainingConfig())
	assert.ErrorIs(t, err, common.ErrNoInvoices)
}

func TestTrain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := trainingConfig()
	cfg.Training.Rounds = 1

	_, _, err := Train(ctx, trainingInvoices(20), cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildTarget(t *testing.T) {
	invoices := []model.Invoice{
		{},
		{IsLate: true},
		{IsLate: true, IsExcessivelyLate: true},
	}
	assert.Equal(t, []int{0, 1, 2}, buildTarget(invoices))
}

func TestStratifiedSplit(t *testing.T) {
	y := make([]int, 0, 30)
	for i := 0; i < 20; i++ {
		y = append(y, 0)
	}
	for i := 0; i < 10; i++ {
		y = append(y, 1)
	}

	rng := newTestRNG()
	train, test := stratifiedSplit(y, 0.2, rng)

	assert.Len(t, train, 24)
	assert.Len(t, test, 6)

	seen := make(map[int]bool)
	for _, i := range append(append([]int(nil), train...), test...) {
		assert.False(t, seen[i], "index %d assigned twice", i)
		seen[i] = true
	}
}

func TestStratifiedSplit_TinyClassKeptInTraining(t *testing.T) {
	y := []int{0, 0, 0, 1}

	train, _ := stratifiedSplit(y, 0.9, newTestRNG())

	classesInTrain := make(map[int]bool)
	for _, i := range train {
		classesInTrain[y[i]] = true
	}
	assert.True(t, classesInTrain[0])
	assert.True(t, classesInTrain[1])
}
