package normalize

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/MohaMazouz/latewatch/internal/common"
	"github.com/MohaMazouz/latewatch/internal/ingest"
	"github.com/MohaMazouz/latewatch/internal/model"
)

// Stats reports what happened to the raw rows during normalization.
type Stats struct {
	RowsIn           int
	RowsKept         int
	DroppedNoAmount  int
	DroppedNoDates   int
	DroppedDateOrder int
}

// Normalize converts a raw table into canonical invoices. Rows are dropped
// when amount_incl_tax is missing or non-positive, when either date is
// missing, or when the issue date is after the due date. Malformed cells
// within retained rows become missing values and propagate downstream.
func Normalize(table *ingest.RawTable) ([]model.Invoice, Stats, error) {
	var stats Stats

	if err := table.Validate(); err != nil {
		return nil, stats, err
	}

	idx := columnIndexes(table)
	stats.RowsIn = table.NumRows()

	invoices := make([]model.Invoice, 0, table.NumRows())
	for row := 0; row < table.NumRows(); row++ {
		inv := model.Invoice{
			ID:             strings.TrimSpace(table.Cell(row, idx[ColInvoiceID])),
			ClientID:       strings.TrimSpace(table.Cell(row, idx[ColClientID])),
			ClientName:     strings.TrimSpace(table.Cell(row, idx[ColClientName])),
			AmountExclTax:  ParseAmount(table.Cell(row, idx[ColAmountExclTax])),
			TaxAmount:      ParseAmount(table.Cell(row, idx[ColTaxAmount])),
			OtherTax:       ParseAmount(table.Cell(row, idx[ColOtherTax])),
			AmountInclTax:  ParseAmount(table.Cell(row, idx[ColAmountInclTax])),
			CreditLimit:    ParseAmount(table.Cell(row, idx[ColCreditLimit])),
			IssueDate:      ParseDate(table.Cell(row, idx[ColIssueDate])),
			DueDate:        ParseDate(table.Cell(row, idx[ColDueDate])),
			Collected:      ParseCollected(table.Cell(row, idx[ColCollected])),
			CollectionDate: ParseDate(table.Cell(row, idx[ColCollectionDate])),
		}

		switch {
		case math.IsNaN(inv.AmountInclTax) || inv.AmountInclTax <= 0:
			stats.DroppedNoAmount++
		case inv.IssueDate.IsZero() || inv.DueDate.IsZero():
			stats.DroppedNoDates++
		case inv.IssueDate.After(inv.DueDate):
			stats.DroppedDateOrder++
		default:
			invoices = append(invoices, inv)
		}
	}
	stats.RowsKept = len(invoices)

	slog.Info("Normalized raw invoice table",
		"rows_in", stats.RowsIn,
		"rows_kept", stats.RowsKept,
		"dropped_no_amount", stats.DroppedNoAmount,
		"dropped_no_dates", stats.DroppedNoDates,
		"dropped_date_order", stats.DroppedDateOrder)

	if len(invoices) == 0 {
		return nil, stats, fmt.Errorf("%w: all %d rows were filtered out", common.ErrEmptyResult, stats.RowsIn)
	}
	return invoices, stats, nil
}

// columnIndexes resolves each canonical column to its position in the raw
// header, -1 when the source has no such column.
func columnIndexes(table *ingest.RawTable) map[string]int {
	idx := map[string]int{
		ColInvoiceID:      -1,
		ColClientID:       -1,
		ColClientName:     -1,
		ColAmountExclTax:  -1,
		ColTaxAmount:      -1,
		ColOtherTax:       -1,
		ColAmountInclTax:  -1,
		ColCreditLimit:    -1,
		ColIssueDate:      -1,
		ColDueDate:        -1,
		ColCollected:      -1,
		ColCollectionDate: -1,
	}

	for i, raw := range table.Columns {
		canonical := CanonicalColumn(raw)
		if existing, known := idx[canonical]; known && existing == -1 {
			idx[canonical] = i
		}
	}
	return idx
}
