package model

// PredictedClass is the model's numeric delay class.
type PredictedClass int

const (
	// ClassNoDelay predicts payment within terms.
	ClassNoDelay PredictedClass = 0
	// ClassLate predicts a 31-60 day delay.
	ClassLate PredictedClass = 1
	// ClassExcessivelyLate predicts a delay beyond 60 days.
	ClassExcessivelyLate PredictedClass = 2
)

// Label returns the display label for a predicted class.
func (c PredictedClass) Label() string {
	switch c {
	case ClassNoDelay:
		return "No delay (ML)"
	case ClassLate:
		return "Late (ML)"
	case ClassExcessivelyLate:
		return "Excessive delay (ML)"
	default:
		return "Unknown (ML)"
	}
}

// PredictionResult is the per-invoice output of a prediction run.
type PredictionResult struct {
	InvoiceID    string
	ClientID     string
	ClientName   string
	Label        string
	Class        PredictedClass
	AmountAtRisk float64

	// Carried along for reporting.
	AmountInclTax float64
	DaysLate      int
	RuleCategory  DelayCategory
}
