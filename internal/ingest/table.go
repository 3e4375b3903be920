// Package ingest reads raw tabular invoice data from spreadsheet and CSV
// files into an in-memory table. It performs no interpretation beyond
// splitting cells; all typing and cleanup happens in the normalizer.
package ingest

import (
	"crypto/sha256"
	"fmt"

	"github.com/MohaMazouz/latewatch/internal/common"
)

// RawTable is an untyped tabular dataset: a header row and string cells.
// Short rows are padded with empty cells on access.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// NumRows returns the number of data rows.
func (t *RawTable) NumRows() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, col index), or "" when the row is short.
func (t *RawTable) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row]
	if col >= len(cells) {
		return ""
	}
	return cells[col]
}

// Validate checks that the table has a usable tabular structure.
func (t *RawTable) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("%w: no header row", common.ErrNotTabular)
	}
	if len(t.Rows) == 0 {
		return fmt.Errorf("%w: no data rows", common.ErrEmptyResult)
	}
	return nil
}

// ContentHash returns a stable hash of the full table, used to key the
// cleaned-dataset cache.
func (t *RawTable) ContentHash() string {
	h := sha256.New()
	for _, c := range t.Columns {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, row := range t.Rows {
		for _, cell := range row {
			h.Write([]byte(cell))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
