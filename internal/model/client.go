package model

import "time"

// RiskLevel is the four-level client risk classification.
type RiskLevel int

const (
	// RiskNormal means no action is needed.
	RiskNormal RiskLevel = iota
	// RiskWatch means the client is approaching risk thresholds.
	RiskWatch
	// RiskHigh means the client needs active follow-up.
	RiskHigh
	// RiskImmediateBlock means deliveries should be suspended immediately.
	RiskImmediateBlock
)

// String returns the human-readable risk level name.
func (r RiskLevel) String() string {
	switch r {
	case RiskNormal:
		return "Normal"
	case RiskWatch:
		return "Watch"
	case RiskHigh:
		return "HighRisk"
	case RiskImmediateBlock:
		return "ImmediateBlock"
	default:
		return "Unknown"
	}
}

// ClientProfile aggregates one client's invoices into a risk view. It is a
// pure projection recomputed from the full invoice set on each call.
type ClientProfile struct {
	EarliestInvoiceDate time.Time
	ClientID            string
	ClientName          string
	Categories          []DelayCategory
	TotalOutstanding    float64
	CreditLimit         float64
	Overrun             float64
	AverageDaysLate     float64
	LateCount           int
	InvoiceCount        int
	RiskScore           int
	Risk                RiskLevel
}
