package features

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/MohaMazouz/latewatch/internal/model"
)

// Config controls the feature pipeline. Now is the injected evaluation
// timestamp; Window is the trailing per-client rolling window size.
type Config struct {
	Now               time.Time
	Window            int
	PaymentRegularity float64
	ClientRiskTrend   float64
}

// Build derives the full feature frame from classified invoices. The steps
// are order-sensitive: date features, per-client rolling statistics, caution
// features, behavioral placeholders, then numeric passthrough and
// categorical carry-over. Imputation and encoding are separate calls so the
// training path can capture the schema in between.
func Build(invoices []model.Invoice, cfg Config) *Frame {
	n := len(invoices)
	f := NewFrame(n)

	daysSince := make([]float64, n)
	daysToDue := make([]float64, n)
	month := make([]float64, n)
	dueWeekday := make([]float64, n)
	for i := range invoices {
		inv := &invoices[i]
		daysSince[i] = float64(civilDays(inv.IssueDate, cfg.Now))
		daysToDue[i] = float64(civilDays(cfg.Now, inv.DueDate))
		month[i] = float64(inv.IssueDate.Month())
		// Monday = 0, matching the convention the model was built on.
		dueWeekday[i] = float64((int(inv.DueDate.Weekday()) + 6) % 7)
	}
	f.AddNumeric("days_since_invoice", daysSince)
	f.AddNumeric("days_to_due", daysToDue)
	f.AddNumeric("invoice_month", month)
	f.AddNumeric("due_day_of_week", dueWeekday)

	addRollingFeatures(f, invoices, cfg.Window)

	utilization := make([]float64, n)
	buffer := make([]float64, n)
	for i := range invoices {
		inv := &invoices[i]
		switch {
		case math.IsNaN(inv.CreditLimit):
			utilization[i] = math.NaN()
			buffer[i] = math.NaN()
		case inv.CreditLimit == 0:
			// No caution means an infinite denominator, not an error.
			utilization[i] = 0
			buffer[i] = -inv.AmountInclTax
		default:
			utilization[i] = inv.AmountInclTax / inv.CreditLimit
			buffer[i] = inv.CreditLimit - inv.AmountInclTax
		}
	}
	f.AddNumeric("caution_utilization_rate", utilization)
	f.AddNumeric("caution_buffer", buffer)

	// Behavioral placeholders: constants today, extension points for richer
	// signals later. They flow through the schema so replacing them is not
	// a schema break.
	f.AddNumeric("payment_regularity", constant(n, cfg.PaymentRegularity))
	f.AddNumeric("client_risk_trend", constant(n, cfg.ClientRiskTrend))

	f.AddNumeric("amount_incl_tax", column(invoices, func(inv *model.Invoice) float64 { return inv.AmountInclTax }))
	f.AddNumeric("amount_excl_tax", column(invoices, func(inv *model.Invoice) float64 { return inv.AmountExclTax }))
	f.AddNumeric("tax_amount", column(invoices, func(inv *model.Invoice) float64 { return inv.TaxAmount }))
	f.AddNumeric("other_tax", column(invoices, func(inv *model.Invoice) float64 { return inv.OtherTax }))

	f.AddCategorical("client_id", categorical(invoices, func(inv *model.Invoice) string { return inv.ClientID }))
	f.AddCategorical("client_name", categorical(invoices, func(inv *model.Invoice) string { return inv.ClientName }))

	return f
}

// addRollingFeatures computes trailing per-client statistics over the
// window of the client's most recent invoices up to and including the
// current row. Invoices are ordered by (client id, issue date) first; rows
// with less history than the window use whatever is available, and a
// standard deviation over fewer than two observations is missing.
func addRollingFeatures(f *Frame, invoices []model.Invoice, window int) {
	n := len(invoices)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := &invoices[order[a]], &invoices[order[b]]
		if ia.ClientID != ib.ClientID {
			return ia.ClientID < ib.ClientID
		}
		return ia.IssueDate.Before(ib.IssueDate)
	})

	type series struct {
		name  string
		value func(inv *model.Invoice) float64
		stats map[string][]float64
	}
	stats := []string{"mean", "std", "max", "sum"}
	serieses := []series{
		{name: "late", value: func(inv *model.Invoice) float64 {
			if inv.IsLate {
				return 1
			}
			return 0
		}},
		{name: "delay", value: func(inv *model.Invoice) float64 { return float64(inv.DaysLate) }},
		{name: "amount", value: func(inv *model.Invoice) float64 { return inv.AmountInclTax }},
	}
	for si := range serieses {
		serieses[si].stats = make(map[string][]float64, len(stats))
		for _, s := range stats {
			serieses[si].stats[s] = make([]float64, n)
		}
	}

	start := 0
	for start < n {
		end := start
		client := invoices[order[start]].ClientID
		for end < n && invoices[order[end]].ClientID == client {
			end++
		}

		for pos := start; pos < end; pos++ {
			lo := pos - window + 1
			if lo < start {
				lo = start
			}
			for si := range serieses {
				s := &serieses[si]
				values := make([]float64, 0, pos-lo+1)
				for k := lo; k <= pos; k++ {
					values = append(values, s.value(&invoices[order[k]]))
				}
				row := order[pos]
				s.stats["mean"][row] = stat.Mean(values, nil)
				s.stats["std"][row] = sampleStd(values)
				s.stats["max"][row] = maxOf(values)
				s.stats["sum"][row] = sumOf(values)
			}
		}
		start = end
	}

	for _, s := range serieses {
		for _, st := range stats {
			f.AddNumeric(fmt.Sprintf("client_%s_%s_%d", s.name, st, window), s.stats[st])
		}
	}
}

// sampleStd is the n-1 standard deviation; missing with fewer than two
// observations.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func sumOf(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v
	}
	return s
}

func constant(n int, v float64) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = v
	}
	return col
}

func column(invoices []model.Invoice, get func(*model.Invoice) float64) []float64 {
	col := make([]float64, len(invoices))
	for i := range invoices {
		col[i] = get(&invoices[i])
	}
	return col
}

func categorical(invoices []model.Invoice, get func(*model.Invoice) string) []string {
	col := make([]string, len(invoices))
	for i := range invoices {
		col[i] = get(&invoices[i])
	}
	return col
}

// civilDays returns whole calendar days from a to b, ignoring time of day.
func civilDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	at := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bt := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bt.Sub(at).Hours() / 24)
}
