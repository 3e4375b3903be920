// Package normalize converts heterogeneous raw invoice tables into the
// canonical invoice schema. Individual malformed cells never fail a run;
// they become missing values that downstream stages know how to handle.
package normalize

import "strings"

// Canonical column names. Every downstream component assumes these exist
// (possibly with missing values) once normalization has run.
const (
	ColInvoiceID      = "invoice_id"
	ColClientID       = "client_id"
	ColClientName     = "client_name"
	ColAmountExclTax  = "amount_excl_tax"
	ColTaxAmount      = "tax_amount"
	ColOtherTax       = "other_tax"
	ColAmountInclTax  = "amount_incl_tax"
	ColCreditLimit    = "credit_limit"
	ColIssueDate      = "issue_date"
	ColDueDate        = "due_date"
	ColCollected      = "collected"
	ColCollectionDate = "collection_date"
)

// columnAliases maps known header variants (trimmed, lowercased) to
// canonical names. Legacy exports use FR accounting headers; newer ones use
// English. Unknown headers pass through untouched — never an error.
var columnAliases = map[string]string{
	"n° facture":        ColInvoiceID,
	"no facture":        ColInvoiceID,
	"facture":           ColInvoiceID,
	"invoice":           ColInvoiceID,
	"invoice id":        ColInvoiceID,
	"invoice number":    ColInvoiceID,
	"code client":       ColClientID,
	"client code":       ColClientID,
	"client id":         ColClientID,
	"client":            ColClientName,
	"client name":       ColClientName,
	"nom client":        ColClientName,
	"h.t":               ColAmountExclTax,
	"ht":                ColAmountExclTax,
	"montant ht":        ColAmountExclTax,
	"amount ht":         ColAmountExclTax,
	"t.v.a":             ColTaxAmount,
	"tva":               ColTaxAmount,
	"vat":               ColTaxAmount,
	"t.r":               ColOtherTax,
	"tr":                ColOtherTax,
	"t.t.c":             ColAmountInclTax,
	"ttc":               ColAmountInclTax,
	"montant ttc":       ColAmountInclTax,
	"amount ttc":        ColAmountInclTax,
	"montant":           ColAmountInclTax,
	"caution":           ColCreditLimit,
	"credit limit":      ColCreditLimit,
	"date d'emission":   ColIssueDate,
	"date d'émission":   ColIssueDate,
	"date emission":     ColIssueDate,
	"issue date":        ColIssueDate,
	"échéance":          ColDueDate,
	"echeance":          ColDueDate,
	"date d'échéance":   ColDueDate,
	"due date":          ColDueDate,
	"encaissement":      ColCollected,
	"collected":         ColCollected,
	"paid":              ColCollected,
	"date encaissement": ColCollectionDate,
	"collection date":   ColCollectionDate,
	"payment date":      ColCollectionDate,
}

// CanonicalColumn maps a raw header to its canonical name, or returns the
// trimmed header unchanged when no alias matches.
func CanonicalColumn(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := columnAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// RegisterAlias extends the mapping table at runtime, letting callers teach
// the normalizer about new source formats without a code change.
func RegisterAlias(raw, canonical string) {
	columnAliases[strings.ToLower(strings.TrimSpace(raw))] = canonical
}
