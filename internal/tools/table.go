// Package tools performs numeric computations over tabular data extracted
// during ingestion, feeding precomputed metrics into the reasoning step.
package tools

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownOperation = errors.New("tools: unsupported operation")
	ErrUnknownColumn    = errors.New("tools: column not found")
	ErrInsufficientData = errors.New("tools: not enough values")
	ErrZeroBaseline     = errors.New("tools: first value is zero")
)

// Table is an ordered columnar dataset with string cells, as parsed from a
// CSV file. Row order is the file's row order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// column returns the index of the named column or ErrUnknownColumn.
func (t *Table) column(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (available: %s)",
		ErrUnknownColumn, name, strings.Join(t.Columns, ", "))
}

// NumericValues returns the parseable numeric values of a column in row
// order. Empty and null-like cells are skipped, mirroring a dropna.
func (t *Table) NumericValues(name string) ([]float64, error) {
	idx, err := t.column(name)
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" || strings.EqualFold(cell, "null") || strings.EqualFold(cell, "nan") {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// NumericColumns returns the columns whose non-empty cells all parse as
// numbers, with at least one value present.
func (t *Table) NumericColumns() []string {
	var cols []string
	for i, name := range t.Columns {
		numeric := 0
		ok := true
		for _, row := range t.Rows {
			if i >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if cell == "" || strings.EqualFold(cell, "null") || strings.EqualFold(cell, "nan") {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				ok = false
				break
			}
			numeric++
		}
		if ok && numeric > 0 {
			cols = append(cols, name)
		}
	}
	return cols
}
