package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayCategory_IsLate(t *testing.T) {
	assert.False(t, CategoryIndeterminate.IsLate())
	assert.False(t, CategoryPaidEarly.IsLate())
	assert.False(t, CategoryOnTime.IsLate())
	assert.True(t, CategoryLate.IsLate())
	assert.True(t, CategoryExcessivelyLate.IsLate())
}

func TestDelayCategory_String(t *testing.T) {
	assert.Equal(t, "ExcessivelyLate", CategoryExcessivelyLate.String())
	assert.Equal(t, "DelayCategory(42)", DelayCategory(42).String())
}

func TestPredictedClass_Label(t *testing.T) {
	assert.Equal(t, "No delay (ML)", ClassNoDelay.Label())
	assert.Equal(t, "Late (ML)", ClassLate.Label())
	assert.Equal(t, "Excessive delay (ML)", ClassExcessivelyLate.Label())
	assert.Equal(t, "Unknown (ML)", PredictedClass(9).Label())
}

func TestRiskLevel_String(t *testing.T) {
	assert.Equal(t, "Normal", RiskNormal.String())
	assert.Equal(t, "ImmediateBlock", RiskImmediateBlock.String())
}

func TestInvoice_HasDueDate(t *testing.T) {
	inv := Invoice{}
	assert.False(t, inv.HasDueDate())

	inv.DueDate = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, inv.HasDueDate())
}

func TestInvoice_HasCreditLimit(t *testing.T) {
	inv := Invoice{CreditLimit: math.NaN()}
	assert.False(t, inv.HasCreditLimit())

	inv.CreditLimit = 0
	assert.False(t, inv.HasCreditLimit())

	inv.CreditLimit = 5000
	assert.True(t, inv.HasCreditLimit())
}

func TestGenerateHash(t *testing.T) {
	issue := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Invoice{ID: "F001", ClientID: "C1", AmountInclTax: 1200, IssueDate: issue}
	b := Invoice{ID: "F001", ClientID: "C1", AmountInclTax: 1200, IssueDate: issue}
	assert.Equal(t, a.GenerateHash(), b.GenerateHash())

	// Collection status does not participate: the same invoice re-imported
	// after payment must hash identically so the upsert matches.
	b.Collected = true
	b.CollectionDate = issue.AddDate(0, 2, 0)
	assert.Equal(t, a.GenerateHash(), b.GenerateHash())

	c := b
	c.AmountInclTax = 1300
	assert.NotEqual(t, a.GenerateHash(), c.GenerateHash())
}
