package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/MohaMazouz/latewatch/internal/model"
)

// SaveInvoices upserts normalized invoices, keyed by their content hash so
// re-importing the same file is idempotent. Derived rule fields are not
// persisted; they are recomputed on read for whatever evaluation time the
// caller uses.
func (s *SQLiteStorage) SaveInvoices(ctx context.Context, invoices []model.Invoice) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(invoices) == 0 {
		return fmt.Errorf("%w: invoices", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO invoices
		(hash, invoice_id, client_id, client_name, amount_excl_tax, tax_amount,
		 other_tax, amount_incl_tax, credit_limit, issue_date, due_date,
		 collected, collection_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			collected = excluded.collected,
			collection_date = excluded.collection_date`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i := range invoices {
		inv := &invoices[i]
		if _, err := stmt.ExecContext(ctx,
			inv.GenerateHash(),
			inv.ID,
			inv.ClientID,
			inv.ClientName,
			nullFloat(inv.AmountExclTax),
			nullFloat(inv.TaxAmount),
			nullFloat(inv.OtherTax),
			inv.AmountInclTax,
			nullFloat(inv.CreditLimit),
			inv.IssueDate,
			inv.DueDate,
			inv.Collected,
			nullTime(inv.CollectionDate),
		); err != nil {
			return fmt.Errorf("failed to save invoice %s: %w", inv.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoices: %w", err)
	}
	return nil
}

// GetInvoices returns all stored invoices, ordered by issue date.
func (s *SQLiteStorage) GetInvoices(ctx context.Context) ([]model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		invoice_id, client_id, client_name, amount_excl_tax, tax_amount,
		other_tax, amount_incl_tax, credit_limit, issue_date, due_date,
		collected, collection_date
		FROM invoices ORDER BY issue_date, invoice_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var invoices []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		var exclTax, taxAmount, otherTax, creditLimit sql.NullFloat64
		var collectionDate sql.NullTime

		if err := rows.Scan(
			&inv.ID, &inv.ClientID, &inv.ClientName,
			&exclTax, &taxAmount, &otherTax, &inv.AmountInclTax, &creditLimit,
			&inv.IssueDate, &inv.DueDate, &inv.Collected, &collectionDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}

		inv.AmountExclTax = floatOrNaN(exclTax)
		inv.TaxAmount = floatOrNaN(taxAmount)
		inv.OtherTax = floatOrNaN(otherTax)
		inv.CreditLimit = floatOrNaN(creditLimit)
		if collectionDate.Valid {
			inv.CollectionDate = collectionDate.Time
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return invoices, nil
}

func nullFloat(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
