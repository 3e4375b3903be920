// Package model defines the core domain types shared across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"math"
	"time"
)

// DelayStatus is the detailed per-invoice payment delay status.
type DelayStatus string

const (
	// StatusMissingDueDate means the invoice has no due date on file.
	StatusMissingDueDate DelayStatus = "missing due date"
	// StatusPaidEarly means the invoice was settled before its due date.
	StatusPaidEarly DelayStatus = "paid before due date"
	// StatusOnTime means payment landed within the contractual grace window.
	StatusOnTime DelayStatus = "within terms"
	// StatusLate means payment is between 31 and 60 days past due.
	StatusLate DelayStatus = "late"
	// StatusExcessivelyLate means payment is more than 60 days past due.
	StatusExcessivelyLate DelayStatus = "excessively late"
)

// DelayCategory is the rule-engine classification of an invoice.
type DelayCategory int

const (
	// CategoryIndeterminate marks invoices that cannot be classified (no due date).
	CategoryIndeterminate DelayCategory = iota
	// CategoryPaidEarly marks invoices collected before their due date.
	CategoryPaidEarly
	// CategoryOnTime marks invoices at most 30 days past due.
	CategoryOnTime
	// CategoryLate marks invoices 31-60 days past due.
	CategoryLate
	// CategoryExcessivelyLate marks invoices more than 60 days past due.
	CategoryExcessivelyLate
)

// String returns the human-readable category name.
func (c DelayCategory) String() string {
	switch c {
	case CategoryIndeterminate:
		return "Indeterminate"
	case CategoryPaidEarly:
		return "PaidEarly"
	case CategoryOnTime:
		return "OnTime"
	case CategoryLate:
		return "Late"
	case CategoryExcessivelyLate:
		return "ExcessivelyLate"
	default:
		return fmt.Sprintf("DelayCategory(%d)", int(c))
	}
}

// IsLate reports whether the category counts as a delay. Indeterminate
// invoices are excluded from delay statistics entirely.
func (c DelayCategory) IsLate() bool {
	return c == CategoryLate || c == CategoryExcessivelyLate
}

// Invoice is a single billing document after normalization. Monetary fields
// use NaN for missing values; date fields use the zero time.
type Invoice struct {
	IssueDate      time.Time
	DueDate        time.Time
	CollectionDate time.Time
	ID             string
	ClientID       string
	ClientName     string
	AmountExclTax  float64
	TaxAmount      float64
	OtherTax       float64
	AmountInclTax  float64
	CreditLimit    float64

	// Derived by the delay rules engine.
	DelayStatus       DelayStatus
	DaysLate          int
	DelayCategory     DelayCategory
	Collected         bool
	IsLate            bool
	IsExcessivelyLate bool
}

// HasDueDate reports whether a due date is on file.
func (inv *Invoice) HasDueDate() bool {
	return !inv.DueDate.IsZero()
}

// HasCreditLimit reports whether a caution amount is on file.
func (inv *Invoice) HasCreditLimit() bool {
	return !math.IsNaN(inv.CreditLimit) && inv.CreditLimit > 0
}

// GenerateHash creates a stable hash for duplicate detection.
func (inv *Invoice) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s",
		inv.ID,
		inv.ClientID,
		inv.AmountInclTax,
		inv.IssueDate.Format("2006-01-02"))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
