// Package rules implements the deterministic payment-delay classification
// applied to every invoice before any learned model runs.
package rules

import (
	"time"

	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/model"
)

// Result is the outcome of classifying one invoice.
type Result struct {
	Status            model.DelayStatus
	Category          model.DelayCategory
	DaysLate          int
	IsLate            bool
	IsExcessivelyLate bool
}

// Classifier derives delay status from an invoice's dates and collection
// state. The evaluation timestamp is injected; the classifier never reads
// the wall clock itself.
type Classifier struct {
	thresholds config.Delay
	now        time.Time
}

// NewClassifier creates a classifier evaluating delays as of the given time.
func NewClassifier(thresholds config.Delay, now time.Time) *Classifier {
	return &Classifier{thresholds: thresholds, now: now}
}

// Classify computes the delay status for a single invoice. It is a total
// function: every invoice gets a result, with missing due dates mapping to
// the indeterminate category.
func (c *Classifier) Classify(inv *model.Invoice) Result {
	if !inv.HasDueDate() {
		return Result{
			Status:   model.StatusMissingDueDate,
			Category: model.CategoryIndeterminate,
			DaysLate: 0,
		}
	}

	reference := c.now
	if inv.Collected && !inv.CollectionDate.IsZero() {
		reference = inv.CollectionDate
	}

	daysLate := civilDaysBetween(inv.DueDate, reference)

	var status model.DelayStatus
	var category model.DelayCategory
	switch {
	case daysLate < 0:
		status, category = model.StatusPaidEarly, model.CategoryPaidEarly
	case daysLate <= c.thresholds.OnTimeMaxDays:
		status, category = model.StatusOnTime, model.CategoryOnTime
	case daysLate <= c.thresholds.LateMaxDays:
		status, category = model.StatusLate, model.CategoryLate
	default:
		status, category = model.StatusExcessivelyLate, model.CategoryExcessivelyLate
	}

	return Result{
		Status:            status,
		Category:          category,
		DaysLate:          daysLate,
		IsLate:            category.IsLate(),
		IsExcessivelyLate: category == model.CategoryExcessivelyLate,
	}
}

// Apply classifies every invoice in place, filling the derived fields.
func (c *Classifier) Apply(invoices []model.Invoice) {
	for i := range invoices {
		r := c.Classify(&invoices[i])
		invoices[i].DelayStatus = r.Status
		invoices[i].DelayCategory = r.Category
		invoices[i].DaysLate = r.DaysLate
		invoices[i].IsLate = r.IsLate
		invoices[i].IsExcessivelyLate = r.IsExcessivelyLate
	}
}

// civilDaysBetween returns the signed number of whole calendar days from a
// to b, ignoring time of day.
func civilDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	at := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bt := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bt.Sub(at).Hours() / 24)
}
