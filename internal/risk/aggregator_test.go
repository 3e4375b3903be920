package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/model"
)

func testConfig() (config.Delay, config.Risk) {
	cfg := config.Default()
	return cfg.Delay, cfg.Risk
}

func lateInvoice(clientID string, daysLate int, amount, limit float64) model.Invoice {
	inv := model.Invoice{
		ClientID:      clientID,
		ClientName:    clientID + " SA",
		AmountInclTax: amount,
		CreditLimit:   limit,
		IssueDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DaysLate:      daysLate,
	}
	switch {
	case daysLate > 60:
		inv.DelayCategory = model.CategoryExcessivelyLate
		inv.IsLate = true
		inv.IsExcessivelyLate = true
	case daysLate > 30:
		inv.DelayCategory = model.CategoryLate
		inv.IsLate = true
	default:
		inv.DelayCategory = model.CategoryOnTime
	}
	return inv
}

func TestAggregate_ImmediateBlock(t *testing.T) {
	delay, riskCfg := testConfig()

	// Average 65 days late with an overrun above a real caution: 5+4=9.
	invoices := []model.Invoice{
		lateInvoice("C1", 65, 6000, 5000),
	}

	profiles := Aggregate(invoices, delay, riskCfg)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, 9, p.RiskScore)
	assert.Equal(t, model.RiskImmediateBlock, p.Risk)
	assert.InDelta(t, 1000.0, p.Overrun, 1e-9)
}

func TestAggregate_ScoreMatrix(t *testing.T) {
	delay, riskCfg := testConfig()

	tests := []struct {
		name      string
		daysLate  int
		amount    float64
		limit     float64
		wantScore int
		wantRisk  model.RiskLevel
	}{
		{name: "clean client", daysLate: 5, amount: 100, limit: 1000, wantScore: 0, wantRisk: model.RiskNormal},
		{name: "moderate delay only", daysLate: 45, amount: 100, limit: 1000, wantScore: 3, wantRisk: model.RiskWatch},
		{name: "severe delay only", daysLate: 70, amount: 100, limit: 1000, wantScore: 5, wantRisk: model.RiskHigh},
		{name: "overrun with caution", daysLate: 5, amount: 2000, limit: 1000, wantScore: 4, wantRisk: model.RiskWatch},
		{name: "overrun without caution", daysLate: 5, amount: 2000, limit: 0, wantScore: 2, wantRisk: model.RiskNormal},
		{name: "moderate delay plus overrun", daysLate: 45, amount: 2000, limit: 1000, wantScore: 7, wantRisk: model.RiskImmediateBlock},
		{name: "severe delay no overrun boundary", daysLate: 61, amount: 1000, limit: 1000, wantScore: 5, wantRisk: model.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := Aggregate([]model.Invoice{lateInvoice("C1", tt.daysLate, tt.amount, tt.limit)}, delay, riskCfg)
			require.Len(t, profiles, 1)
			assert.Equal(t, tt.wantScore, profiles[0].RiskScore)
			assert.Equal(t, tt.wantRisk, profiles[0].Risk)
		})
	}
}

func TestAggregate_GroupsByClientID(t *testing.T) {
	delay, riskCfg := testConfig()

	// Same display name, different ids: two distinct clients.
	a := lateInvoice("C1", 10, 100, 1000)
	b := lateInvoice("C2", 10, 200, 1000)
	a.ClientName = "Twin"
	b.ClientName = "Twin"

	profiles := Aggregate([]model.Invoice{a, b}, delay, riskCfg)
	assert.Len(t, profiles, 2)
}

func TestAggregate_ProfileFields(t *testing.T) {
	delay, riskCfg := testConfig()

	jan := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	first := lateInvoice("C1", 40, 300, 1000)
	first.IssueDate = mar
	second := lateInvoice("C1", 80, 200, 1000)
	second.IssueDate = jan

	profiles := Aggregate([]model.Invoice{first, second}, delay, riskCfg)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, 2, p.InvoiceCount)
	assert.Equal(t, 2, p.LateCount)
	assert.InDelta(t, 500.0, p.TotalOutstanding, 1e-9)
	assert.InDelta(t, 60.0, p.AverageDaysLate, 1e-9)
	assert.True(t, jan.Equal(p.EarliestInvoiceDate))
	assert.ElementsMatch(t, []model.DelayCategory{model.CategoryLate, model.CategoryExcessivelyLate}, p.Categories)
}

func TestAggregate_IndeterminateExcludedFromAverage(t *testing.T) {
	delay, riskCfg := testConfig()

	classified := lateInvoice("C1", 50, 100, 1000)
	indeterminate := model.Invoice{
		ClientID:      "C1",
		AmountInclTax: 100,
		CreditLimit:   1000,
		DelayCategory: model.CategoryIndeterminate,
	}

	profiles := Aggregate([]model.Invoice{classified, indeterminate}, delay, riskCfg)
	require.Len(t, profiles, 1)
	// The indeterminate invoice's zero days must not dilute the average.
	assert.InDelta(t, 50.0, profiles[0].AverageDaysLate, 1e-9)
}

func TestAggregate_MissingCreditLimit(t *testing.T) {
	delay, riskCfg := testConfig()

	inv := lateInvoice("C1", 5, 500, math.NaN())
	profiles := Aggregate([]model.Invoice{inv}, delay, riskCfg)
	require.Len(t, profiles, 1)

	// No caution on file behaves like a zero limit: full outstanding is overrun.
	assert.InDelta(t, 500.0, profiles[0].Overrun, 1e-9)
	assert.Equal(t, riskCfg.NoCautionPoints, profiles[0].RiskScore)
}

func TestAggregate_SortedBySeverity(t *testing.T) {
	delay, riskCfg := testConfig()

	invoices := []model.Invoice{
		lateInvoice("CLEAN", 5, 100, 1000),
		lateInvoice("BLOCK", 65, 6000, 5000),
		lateInvoice("WATCH", 45, 100, 1000),
	}

	profiles := Aggregate(invoices, delay, riskCfg)
	require.Len(t, profiles, 3)
	assert.Equal(t, "BLOCK", profiles[0].ClientID)
	assert.Equal(t, "WATCH", profiles[1].ClientID)
	assert.Equal(t, "CLEAN", profiles[2].ClientID)
}
