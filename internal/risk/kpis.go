package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/MohaMazouz/latewatch/internal/model"
)

// KPIs summarizes the portfolio for reporting.
type KPIs struct {
	// General.
	InvoiceCount int
	TotalInclTax float64
	ClientCount  int
	MeanInvoice  float64

	// Delay mix.
	OnTimeCount    int
	LateCount      int
	ExcessiveCount int
	GlobalLateRate float64 // share of non-indeterminate invoices that are late

	// Unpaid subset.
	UnpaidCount       int
	UnpaidOutstanding float64
	UnpaidMeanDays    float64
	OldestUnpaidDays  int
}

// ComputeKPIs derives the portfolio KPIs from classified invoices.
func ComputeKPIs(invoices []model.Invoice) KPIs {
	var k KPIs
	clients := make(map[string]bool)
	amounts := make([]float64, 0, len(invoices))
	unpaidDays := make([]float64, 0)

	lateEligible := 0
	for i := range invoices {
		inv := &invoices[i]
		k.InvoiceCount++
		clients[inv.ClientID] = true
		if !math.IsNaN(inv.AmountInclTax) {
			k.TotalInclTax += inv.AmountInclTax
			amounts = append(amounts, inv.AmountInclTax)
		}

		switch inv.DelayCategory {
		case model.CategoryPaidEarly, model.CategoryOnTime:
			k.OnTimeCount++
		case model.CategoryLate:
			k.LateCount++
		case model.CategoryExcessivelyLate:
			k.ExcessiveCount++
		}
		if inv.DelayCategory != model.CategoryIndeterminate {
			lateEligible++
		}

		if !inv.Collected {
			k.UnpaidCount++
			if !math.IsNaN(inv.AmountInclTax) {
				k.UnpaidOutstanding += inv.AmountInclTax
			}
			unpaidDays = append(unpaidDays, float64(inv.DaysLate))
			if inv.DaysLate > k.OldestUnpaidDays {
				k.OldestUnpaidDays = inv.DaysLate
			}
		}
	}

	k.ClientCount = len(clients)
	if len(amounts) > 0 {
		k.MeanInvoice = stat.Mean(amounts, nil)
	}
	if lateEligible > 0 {
		k.GlobalLateRate = float64(k.LateCount+k.ExcessiveCount) / float64(lateEligible)
	}
	if len(unpaidDays) > 0 {
		k.UnpaidMeanDays = stat.Mean(unpaidDays, nil)
	}
	return k
}
