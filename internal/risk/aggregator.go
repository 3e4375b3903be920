// Package risk computes client-level exposure from classified invoices:
// outstanding balance against caution, a four-level risk classification,
// prioritized action lists and portfolio KPIs.
package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/model"
)

// Aggregate groups invoices by client id and computes one profile per
// client. Profiles are sorted by descending severity, then descending
// outstanding balance. The result is a pure projection of the input.
func Aggregate(invoices []model.Invoice, delay config.Delay, cfg config.Risk) []model.ClientProfile {
	groups := make(map[string][]int)
	order := make([]string, 0)
	for i := range invoices {
		id := invoices[i].ClientID
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}

	profiles := make([]model.ClientProfile, 0, len(order))
	for _, id := range order {
		profiles = append(profiles, buildProfile(id, groups[id], invoices, delay, cfg))
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Risk != profiles[j].Risk {
			return profiles[i].Risk > profiles[j].Risk
		}
		return profiles[i].TotalOutstanding > profiles[j].TotalOutstanding
	})
	return profiles
}

func buildProfile(id string, rows []int, invoices []model.Invoice, delay config.Delay, cfg config.Risk) model.ClientProfile {
	p := model.ClientProfile{
		ClientID:    id,
		CreditLimit: math.NaN(),
	}

	delays := make([]float64, 0, len(rows))
	seen := make(map[model.DelayCategory]bool)
	for _, i := range rows {
		inv := &invoices[i]
		if p.ClientName == "" {
			p.ClientName = inv.ClientName
		}
		if math.IsNaN(p.CreditLimit) && !math.IsNaN(inv.CreditLimit) {
			p.CreditLimit = inv.CreditLimit
		}
		if !math.IsNaN(inv.AmountInclTax) {
			p.TotalOutstanding += inv.AmountInclTax
		}
		if p.EarliestInvoiceDate.IsZero() || inv.IssueDate.Before(p.EarliestInvoiceDate) {
			p.EarliestInvoiceDate = inv.IssueDate
		}
		if inv.IsLate {
			p.LateCount++
		}
		if !seen[inv.DelayCategory] {
			seen[inv.DelayCategory] = true
			p.Categories = append(p.Categories, inv.DelayCategory)
		}
		// Indeterminate invoices carry no delay signal.
		if inv.DelayCategory != model.CategoryIndeterminate {
			delays = append(delays, float64(inv.DaysLate))
		}
		p.InvoiceCount++
	}

	if len(delays) > 0 {
		p.AverageDaysLate = stat.Mean(delays, nil)
	}

	limit := p.CreditLimit
	if math.IsNaN(limit) {
		limit = 0
	}
	p.Overrun = math.Max(0, p.TotalOutstanding-limit)

	p.RiskScore = score(p.AverageDaysLate, p.Overrun, limit, delay, cfg)
	p.Risk = classify(p.RiskScore, cfg)
	return p
}

// score applies the additive point system: chronic delays first, then
// caution overrun. A client over limit with no caution on file scores lower
// than one exceeding a real caution.
func score(avgDaysLate, overrun, creditLimit float64, delay config.Delay, cfg config.Risk) int {
	points := 0
	switch {
	case avgDaysLate > float64(delay.LateMaxDays):
		points += cfg.SevereDelayPoints
	case avgDaysLate > float64(delay.OnTimeMaxDays):
		points += cfg.ModerateDelayPoints
	}
	if overrun > 0 {
		if creditLimit > 0 {
			points += cfg.OverrunPoints
		} else {
			points += cfg.NoCautionPoints
		}
	}
	return points
}

func classify(points int, cfg config.Risk) model.RiskLevel {
	switch {
	case points >= cfg.BlockThreshold:
		return model.RiskImmediateBlock
	case points >= cfg.HighRiskThreshold:
		return model.RiskHigh
	case points >= cfg.WatchThreshold:
		return model.RiskWatch
	default:
		return model.RiskNormal
	}
}
