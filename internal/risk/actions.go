package risk

import (
	"sort"

	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/model"
)

// ClientAction is a recommended action against a whole client account.
type ClientAction struct {
	ClientID    string
	ClientName  string
	Action      string
	Outstanding float64
	Overrun     float64
}

// InvoiceAction is a recommended action against a single invoice.
type InvoiceAction struct {
	InvoiceID  string
	ClientName string
	Action     string
	Amount     float64
	DaysLate   int
}

// Actions holds the prioritized collection worklist.
type Actions struct {
	Urgent    []ClientAction  // immediate-block clients
	Important []InvoiceAction // uncollected excessively late invoices
	Watch     []InvoiceAction // uncollected invoices nearing escalation
}

// PriorityActions derives the collection worklist from classified invoices
// and client profiles. Each bucket is capped at cfg.MaxActionsPerBucket,
// worst cases first.
func PriorityActions(invoices []model.Invoice, profiles []model.ClientProfile, delay config.Delay, cfg config.Risk) Actions {
	var actions Actions

	for _, p := range profiles {
		if p.Risk != model.RiskImmediateBlock {
			continue
		}
		actions.Urgent = append(actions.Urgent, ClientAction{
			ClientID:    p.ClientID,
			ClientName:  p.ClientName,
			Outstanding: p.TotalOutstanding,
			Overrun:     p.Overrun,
			Action:      "BLOCK - suspend deliveries immediately",
		})
		if len(actions.Urgent) >= cfg.MaxActionsPerBucket {
			break
		}
	}

	important := make([]model.Invoice, 0)
	watch := make([]model.Invoice, 0)
	for i := range invoices {
		inv := invoices[i]
		if inv.Collected {
			continue
		}
		switch {
		case inv.DelayCategory == model.CategoryExcessivelyLate:
			important = append(important, inv)
		case inv.DaysLate >= cfg.WatchWindowMinDays && inv.DaysLate <= delay.LateMaxDays:
			watch = append(watch, inv)
		}
	}

	sort.SliceStable(important, func(i, j int) bool { return important[i].DaysLate > important[j].DaysLate })
	sort.SliceStable(watch, func(i, j int) bool { return watch[i].DaysLate > watch[j].DaysLate })

	for _, inv := range capInvoices(important, cfg.MaxActionsPerBucket) {
		actions.Important = append(actions.Important, InvoiceAction{
			InvoiceID:  inv.ID,
			ClientName: inv.ClientName,
			Amount:     inv.AmountInclTax,
			DaysLate:   inv.DaysLate,
			Action:     "DIRECT FOLLOW-UP - call client management",
		})
	}
	for _, inv := range capInvoices(watch, cfg.MaxActionsPerBucket) {
		actions.Watch = append(actions.Watch, InvoiceAction{
			InvoiceID:  inv.ID,
			ClientName: inv.ClientName,
			Amount:     inv.AmountInclTax,
			DaysLate:   inv.DaysLate,
			Action:     "PREVENTIVE - reminder before escalation",
		})
	}
	return actions
}

func capInvoices(invoices []model.Invoice, n int) []model.Invoice {
	if n > 0 && len(invoices) > n {
		return invoices[:n]
	}
	return invoices
}
