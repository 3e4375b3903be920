package storage

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohaMazouz/latewatch/internal/boost"
	"github.com/MohaMazouz/latewatch/internal/common"
	"github.com/MohaMazouz/latewatch/internal/model"
	"github.com/MohaMazouz/latewatch/internal/predictor"
)

func testStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestNewSQLiteStorage_Validation(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = NewSQLiteStorage("   ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := testStorage(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func testInvoice(id string) model.Invoice {
	return model.Invoice{
		ID:            id,
		ClientID:      "C1",
		ClientName:    "Acme",
		AmountExclTax: 1000,
		TaxAmount:     200,
		OtherTax:      math.NaN(),
		AmountInclTax: 1200,
		CreditLimit:   5000,
		IssueDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndGetInvoices(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	invoices := []model.Invoice{testInvoice("F001"), testInvoice("F002")}
	require.NoError(t, s.SaveInvoices(ctx, invoices))

	got, err := s.GetInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	inv := got[0]
	assert.Equal(t, "F001", inv.ID)
	assert.InDelta(t, 1200.0, inv.AmountInclTax, 1e-9)
	assert.InDelta(t, 5000.0, inv.CreditLimit, 1e-9)

	// NULL columns come back as the missing sentinels.
	assert.True(t, math.IsNaN(inv.OtherTax))
	assert.True(t, inv.CollectionDate.IsZero())
	assert.False(t, inv.Collected)
}

func TestSaveInvoices_UpsertUpdatesCollection(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	inv := testInvoice("F001")
	require.NoError(t, s.SaveInvoices(ctx, []model.Invoice{inv}))

	// Same invoice re-imported after payment landed.
	inv.Collected = true
	inv.CollectionDate = time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveInvoices(ctx, []model.Invoice{inv}))

	got, err := s.GetInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Collected)
	assert.True(t, inv.CollectionDate.Equal(got[0].CollectionDate))
}

func TestSaveInvoices_EmptySlice(t *testing.T) {
	s := testStorage(t)
	err := s.SaveInvoices(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptySlice)
}

func TestGetLatestArtifact_Empty(t *testing.T) {
	s := testStorage(t)
	_, err := s.GetLatestArtifact(context.Background())
	assert.ErrorIs(t, err, common.ErrModelUnavailable)
}

func trainedArtifact(t *testing.T, id string, createdAt time.Time) *predictor.Artifact {
	t.Helper()

	x := [][]float64{{0}, {1}, {2}, {10}, {11}, {12}}
	y := []int{0, 0, 0, 1, 1, 1}
	params := boost.DefaultParams(2)
	params.Rounds = 5
	params.MinLeafSize = 1

	ensemble, err := boost.Train(x, y, params, nil)
	require.NoError(t, err)

	return &predictor.Artifact{
		ID:        id,
		CreatedAt: createdAt,
		Schema:    []string{"days_to_due"},
		Model:     ensemble,
	}
}

func TestSaveAndGetLatestArtifact(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	older := trainedArtifact(t, "older", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	newer := trainedArtifact(t, "newer", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	diag := predictor.Diagnostics{Accuracy: 0.95, TestRows: 12}
	require.NoError(t, s.SaveArtifact(ctx, older, diag))
	require.NoError(t, s.SaveArtifact(ctx, newer, diag))

	got, err := s.GetLatestArtifact(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer", got.ID)
	assert.Equal(t, []string{"days_to_due"}, got.Schema)
	require.NotNil(t, got.Model)

	// The restored model scores identically to the saved one.
	for _, x := range [][]float64{{0}, {11}} {
		assert.InDeltaSlice(t, newer.Model.Scores(x), got.Model.Scores(x), 1e-12)
	}
}

func TestSaveAndListRuns(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	for i, day := range []int{1, 3, 2} {
		run := PredictionRun{
			ID:           fmt.Sprintf("run-%d", i),
			CreatedAt:    time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC),
			ArtifactID:   "artifact-1",
			InvoiceCount: 10 + i,
			TotalAtRisk:  float64(100 * (i + 1)),
		}
		require.NoError(t, s.SaveRun(ctx, run))
	}

	runs, err := s.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Most recent first.
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, 11, runs[0].InvoiceCount)
	assert.InDelta(t, 200.0, runs[0].TotalAtRisk, 1e-9)
}

func TestSaveRun_Validation(t *testing.T) {
	s := testStorage(t)
	err := s.SaveRun(context.Background(), PredictionRun{})
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestRecentRuns_Empty(t *testing.T) {
	s := testStorage(t)
	runs, err := s.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveArtifact_NilModel(t *testing.T) {
	s := testStorage(t)

	err := s.SaveArtifact(context.Background(), nil, predictor.Diagnostics{})
	assert.ErrorIs(t, err, ErrNilParameter)

	err = s.SaveArtifact(context.Background(), &predictor.Artifact{}, predictor.Diagnostics{})
	assert.ErrorIs(t, err, ErrNilParameter)
}
