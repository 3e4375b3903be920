package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/model"
)

var evalTime = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func defaultThresholds() config.Delay {
	return config.Delay{OnTimeMaxDays: 30, LateMaxDays: 60}
}

func TestClassifier_Boundaries(t *testing.T) {
	tests := []struct {
		name         string
		daysPastDue  int
		wantCategory model.DelayCategory
		wantStatus   model.DelayStatus
	}{
		{name: "paid early", daysPastDue: -5, wantCategory: model.CategoryPaidEarly, wantStatus: model.StatusPaidEarly},
		{name: "due today", daysPastDue: 0, wantCategory: model.CategoryOnTime, wantStatus: model.StatusOnTime},
		{name: "exactly 30 is on time", daysPastDue: 30, wantCategory: model.CategoryOnTime, wantStatus: model.StatusOnTime},
		{name: "31 is late", daysPastDue: 31, wantCategory: model.CategoryLate, wantStatus: model.StatusLate},
		{name: "exactly 60 is late", daysPastDue: 60, wantCategory: model.CategoryLate, wantStatus: model.StatusLate},
		{name: "61 is excessive", daysPastDue: 61, wantCategory: model.CategoryExcessivelyLate, wantStatus: model.StatusExcessivelyLate},
		{name: "90 is excessive", daysPastDue: 90, wantCategory: model.CategoryExcessivelyLate, wantStatus: model.StatusExcessivelyLate},
	}

	c := NewClassifier(defaultThresholds(), evalTime)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := model.Invoice{
				DueDate: evalTime.AddDate(0, 0, -tt.daysPastDue),
			}
			got := c.Classify(&inv)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.daysPastDue, got.DaysLate)
		})
	}
}

func TestClassifier_MissingDueDate(t *testing.T) {
	c := NewClassifier(defaultThresholds(), evalTime)

	got := c.Classify(&model.Invoice{})

	assert.Equal(t, model.CategoryIndeterminate, got.Category)
	assert.Equal(t, model.StatusMissingDueDate, got.Status)
	assert.Equal(t, 0, got.DaysLate)
	assert.False(t, got.IsLate)
	assert.False(t, got.IsExcessivelyLate)
}

func TestClassifier_CollectedUsesCollectionDate(t *testing.T) {
	c := NewClassifier(defaultThresholds(), evalTime)

	due := evalTime.AddDate(0, 0, -120)
	inv := model.Invoice{
		DueDate:        due,
		Collected:      true,
		CollectionDate: due.AddDate(0, 0, 45),
	}

	got := c.Classify(&inv)

	// 45 days between due and collection, not the 120 to the eval time.
	assert.Equal(t, 45, got.DaysLate)
	assert.Equal(t, model.CategoryLate, got.Category)
}

func TestClassifier_CollectedWithoutDateFallsBackToNow(t *testing.T) {
	c := NewClassifier(defaultThresholds(), evalTime)

	inv := model.Invoice{
		DueDate:   evalTime.AddDate(0, 0, -10),
		Collected: true,
	}

	got := c.Classify(&inv)
	assert.Equal(t, 10, got.DaysLate)
	assert.Equal(t, model.CategoryOnTime, got.Category)
}

func TestClassifier_DerivedBooleans(t *testing.T) {
	c := NewClassifier(defaultThresholds(), evalTime)

	late := c.Classify(&model.Invoice{DueDate: evalTime.AddDate(0, 0, -45)})
	assert.True(t, late.IsLate)
	assert.False(t, late.IsExcessivelyLate)

	excessive := c.Classify(&model.Invoice{DueDate: evalTime.AddDate(0, 0, -90)})
	assert.True(t, excessive.IsLate)
	assert.True(t, excessive.IsExcessivelyLate)

	onTime := c.Classify(&model.Invoice{DueDate: evalTime.AddDate(0, 0, -5)})
	assert.False(t, onTime.IsLate)
	assert.False(t, onTime.IsExcessivelyLate)
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(defaultThresholds(), evalTime)

	invoices := []model.Invoice{
		{DueDate: evalTime.AddDate(0, 0, -10)},
		{DueDate: evalTime.AddDate(0, 0, -45)},
		{DueDate: evalTime.AddDate(0, 0, -90)},
		{},
	}

	first := append([]model.Invoice(nil), invoices...)
	second := append([]model.Invoice(nil), invoices...)
	c.Apply(first)
	c.Apply(second)

	require.Equal(t, first, second)

	// Re-applying to already classified invoices changes nothing.
	c.Apply(first)
	assert.Equal(t, second, first)
}

func TestClassifier_CustomThresholds(t *testing.T) {
	c := NewClassifier(config.Delay{OnTimeMaxDays: 10, LateMaxDays: 20}, evalTime)

	got := c.Classify(&model.Invoice{DueDate: evalTime.AddDate(0, 0, -15)})
	assert.Equal(t, model.CategoryLate, got.Category)

	got = c.Classify(&model.Invoice{DueDate: evalTime.AddDate(0, 0, -21)})
	assert.Equal(t, model.CategoryExcessivelyLate, got.Category)
}

func TestCivilDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	b := time.Date(2025, 6, 2, 0, 10, 0, 0, time.UTC)
	assert.Equal(t, 1, civilDaysBetween(a, b))
	assert.Equal(t, -1, civilDaysBetween(b, a))
}
