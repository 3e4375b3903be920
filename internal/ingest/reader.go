package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/MohaMazouz/latewatch/internal/common"
)

// ReadFile loads a tabular file, dispatching on extension. Supported:
// .xlsx, .xlsm, .csv.
func ReadFile(path string) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	case ".csv":
		return ReadCSVFile(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", common.ErrNotTabular, filepath.Ext(path))
	}
}

// ReadXLSX reads the first sheet of a workbook into a RawTable.
func ReadXLSX(path string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", common.ErrNotTabular)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", common.ErrNotTabular, sheets[0])
	}

	table := &RawTable{
		Columns: rows[0],
		Rows:    rows[1:],
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// ReadCSVFile reads a CSV file into a RawTable. The delimiter is sniffed
// from the header line; semicolon-delimited exports are common in FR locales.
func ReadCSVFile(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadCSV(f)
}

// ReadCSV reads CSV data from a reader into a RawTable.
func ReadCSV(r io.Reader) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = sniffDelimiter(string(data))
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNotTabular, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no rows", common.ErrNotTabular)
	}

	table := &RawTable{
		Columns: records[0],
		Rows:    records[1:],
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// sniffDelimiter picks the delimiter with the most occurrences in the
// header line.
func sniffDelimiter(data string) rune {
	header := data
	if i := strings.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}

	best, bestCount := ',', strings.Count(header, ",")
	for _, cand := range []rune{';', '\t'} {
		if n := strings.Count(header, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}
