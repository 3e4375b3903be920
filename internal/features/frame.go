// Package features builds the model-ready feature table from classified
// invoices. The same pipeline runs at training and inference time; the
// schema reconciliation step guarantees both paths produce identically
// shaped inputs.
package features

import (
	"math"
	"sort"
)

// Frame is a small columnar table with numeric and categorical columns.
// Numeric missing values are NaN; categorical missing values are "".
type Frame struct {
	numeric  map[string][]float64
	cats     map[string][]string
	numOrder []string
	catOrder []string
	rows     int
}

// NewFrame creates an empty frame with the given row count.
func NewFrame(rows int) *Frame {
	return &Frame{
		numeric: make(map[string][]float64),
		cats:    make(map[string][]string),
		rows:    rows,
	}
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return f.rows
}

// AddNumeric adds a numeric column. Column order is insertion order.
func (f *Frame) AddNumeric(name string, values []float64) {
	if _, exists := f.numeric[name]; !exists {
		f.numOrder = append(f.numOrder, name)
	}
	f.numeric[name] = values
}

// AddCategorical adds a categorical column.
func (f *Frame) AddCategorical(name string, values []string) {
	if _, exists := f.cats[name]; !exists {
		f.catOrder = append(f.catOrder, name)
	}
	f.cats[name] = values
}

// Numeric returns a numeric column, or nil.
func (f *Frame) Numeric(name string) []float64 {
	return f.numeric[name]
}

// NumericColumns returns the numeric column names in order.
func (f *Frame) NumericColumns() []string {
	return append([]string(nil), f.numOrder...)
}

// ImputeMissing fills numeric NaNs with the column median of this batch and
// categorical blanks with the literal "Missing" category. No imputation
// statistics persist across batches.
func (f *Frame) ImputeMissing() {
	for _, name := range f.numOrder {
		col := f.numeric[name]
		med := median(col)
		if math.IsNaN(med) {
			med = 0 // entirely missing column
		}
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = med
			}
		}
	}
	for _, name := range f.catOrder {
		col := f.cats[name]
		for i, v := range col {
			if v == "" {
				col[i] = "Missing"
			}
		}
	}
}

// Encoded is a fully numeric feature matrix with named columns.
type Encoded struct {
	Columns []string
	Rows    [][]float64
}

// Encode one-hot expands categorical columns into indicator columns named
// "<column>_<value>" and returns the dense matrix. Numeric columns keep
// their insertion order; indicator columns follow, values sorted per column
// for determinism.
func (f *Frame) Encode() *Encoded {
	columns := append([]string(nil), f.numOrder...)

	type dummy struct {
		col   string
		value string
	}
	dummies := make([]dummy, 0)
	for _, name := range f.catOrder {
		distinct := make(map[string]bool)
		for _, v := range f.cats[name] {
			distinct[v] = true
		}
		values := make([]string, 0, len(distinct))
		for v := range distinct {
			values = append(values, v)
		}
		sort.Strings(values)
		for _, v := range values {
			columns = append(columns, name+"_"+v)
			dummies = append(dummies, dummy{col: name, value: v})
		}
	}

	rows := make([][]float64, f.rows)
	for i := 0; i < f.rows; i++ {
		row := make([]float64, 0, len(columns))
		for _, name := range f.numOrder {
			row = append(row, f.numeric[name][i])
		}
		for _, d := range dummies {
			if f.cats[d.col][i] == d.value {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
		rows[i] = row
	}

	return &Encoded{Columns: columns, Rows: rows}
}

// Reconcile reindexes the encoded matrix to the reference schema: columns
// absent from the schema are dropped, columns absent from this batch are
// zero-filled, and the schema's order is preserved exactly. This is the
// train/serve consistency contract.
func (e *Encoded) Reconcile(schema []string) *Encoded {
	pos := make(map[string]int, len(e.Columns))
	for i, c := range e.Columns {
		pos[c] = i
	}

	rows := make([][]float64, len(e.Rows))
	for i, src := range e.Rows {
		row := make([]float64, len(schema))
		for j, c := range schema {
			if k, ok := pos[c]; ok {
				row[j] = src[k]
			}
		}
		rows[i] = row
	}
	return &Encoded{Columns: append([]string(nil), schema...), Rows: rows}
}

// median returns the median of the non-NaN values, NaN when none exist.
func median(values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	n := len(clean)
	if n%2 == 1 {
		return clean[n/2]
	}
	return (clean[n/2-1] + clean[n/2]) / 2
}
