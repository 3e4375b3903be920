// Package merge combines rule-engine output and model predictions into the
// aggregated views consumers report on: per-client majority class, the
// highest-exposure invoices, and per-category descriptive statistics.
package merge

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/MohaMazouz/latewatch/internal/model"
)

// ClientPrediction is the per-client majority view of model output.
type ClientPrediction struct {
	ClientID      string
	ClientName    string
	MajorityClass model.PredictedClass
	MajorityLabel string
	InvoiceCount  int
	TotalAtRisk   float64
}

// CategoryStats describes all invoices sharing one predicted class.
type CategoryStats struct {
	Label        string
	Class        model.PredictedClass
	Count        int
	MeanAmount   float64
	MaxAmount    float64
	MeanDaysLate float64
	TotalAtRisk  float64
}

// Summary is the merged reporting view over one prediction run.
type Summary struct {
	Clients    []ClientPrediction
	TopAtRisk  []model.PredictionResult
	ByCategory []CategoryStats
}

// Summarize aggregates prediction results. Pure grouping, sorting and
// summarizing; no additional business logic.
func Summarize(results []model.PredictionResult, topN int) Summary {
	return Summary{
		Clients:    clientMajorities(results),
		TopAtRisk:  topAtRisk(results, topN),
		ByCategory: categoryStats(results),
	}
}

// clientMajorities computes each client's most frequent predicted class.
// Ties resolve toward the more severe class.
func clientMajorities(results []model.PredictionResult) []ClientPrediction {
	type tally struct {
		counts      [3]int
		name        string
		invoices    int
		totalAtRisk float64
	}
	tallies := make(map[string]*tally)
	order := make([]string, 0)

	for i := range results {
		r := &results[i]
		t, seen := tallies[r.ClientID]
		if !seen {
			t = &tally{name: r.ClientName}
			tallies[r.ClientID] = t
			order = append(order, r.ClientID)
		}
		if r.Class >= 0 && int(r.Class) < len(t.counts) {
			t.counts[r.Class]++
		}
		t.invoices++
		t.totalAtRisk += r.AmountAtRisk
	}

	out := make([]ClientPrediction, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		majority := 0
		for k := 1; k < len(t.counts); k++ {
			if t.counts[k] >= t.counts[majority] {
				majority = k
			}
		}
		class := model.PredictedClass(majority)
		out = append(out, ClientPrediction{
			ClientID:      id,
			ClientName:    t.name,
			MajorityClass: class,
			MajorityLabel: class.Label(),
			InvoiceCount:  t.invoices,
			TotalAtRisk:   t.totalAtRisk,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalAtRisk > out[j].TotalAtRisk })
	return out
}

// topAtRisk returns the n results with the highest amount at risk.
func topAtRisk(results []model.PredictionResult, n int) []model.PredictionResult {
	sorted := append([]model.PredictionResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AmountAtRisk > sorted[j].AmountAtRisk })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// categoryStats summarizes each predicted class present in the results.
func categoryStats(results []model.PredictionResult) []CategoryStats {
	grouped := make(map[model.PredictedClass][]int)
	for i := range results {
		grouped[results[i].Class] = append(grouped[results[i].Class], i)
	}

	classes := make([]model.PredictedClass, 0, len(grouped))
	for class := range grouped {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	out := make([]CategoryStats, 0, len(classes))
	for _, class := range classes {
		rows := grouped[class]
		amounts := make([]float64, 0, len(rows))
		days := make([]float64, 0, len(rows))
		cs := CategoryStats{Class: class, Label: class.Label(), Count: len(rows)}
		for _, i := range rows {
			r := &results[i]
			amounts = append(amounts, r.AmountInclTax)
			days = append(days, float64(r.DaysLate))
			if r.AmountInclTax > cs.MaxAmount {
				cs.MaxAmount = r.AmountInclTax
			}
			cs.TotalAtRisk += r.AmountAtRisk
		}
		cs.MeanAmount = stat.Mean(amounts, nil)
		cs.MeanDaysLate = stat.Mean(days, nil)
		out = append(out, cs)
	}
	return out
}
