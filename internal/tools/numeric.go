package tools

import (
	"fmt"
	"math"
)

// Metric is the structured result of one numeric operation. First, Last and
// ResultPct are only set for growth_rate.
type Metric struct {
	Operation string   `json:"operation"`
	Column    string   `json:"column"`
	Result    *float64 `json:"result,omitempty"`
	First     *float64 `json:"first,omitempty"`
	Last      *float64 `json:"last,omitempty"`
	ResultPct *float64 `json:"result_pct,omitempty"`
}

// Execute dispatches a numeric operation on a table column. Supported
// operations: average, sum, growth_rate.
func Execute(t *Table, operation, column string) (Metric, error) {
	switch operation {
	case "average":
		return Average(t, column)
	case "sum":
		return Sum(t, column)
	case "growth_rate":
		return GrowthRate(t, column)
	default:
		return Metric{}, fmt.Errorf("%w: %q (supported: average, sum, growth_rate)",
			ErrUnknownOperation, operation)
	}
}

// Average computes the mean of a numeric column.
func Average(t *Table, column string) (Metric, error) {
	values, err := t.NumericValues(column)
	if err != nil {
		return Metric{}, err
	}
	if len(values) == 0 {
		return Metric{}, fmt.Errorf("%w: no numeric values in %q", ErrInsufficientData, column)
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Metric{
		Operation: "average",
		Column:    column,
		Result:    round4(sum / float64(len(values))),
	}, nil
}

// Sum computes the total of a numeric column.
func Sum(t *Table, column string) (Metric, error) {
	values, err := t.NumericValues(column)
	if err != nil {
		return Metric{}, err
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Metric{
		Operation: "sum",
		Column:    column,
		Result:    round4(sum),
	}, nil
}

// GrowthRate computes the percentage change between the first and last
// non-null values of a column: ((last - first) / first) * 100. It needs at
// least two values and a nonzero first value.
func GrowthRate(t *Table, column string) (Metric, error) {
	values, err := t.NumericValues(column)
	if err != nil {
		return Metric{}, err
	}
	if len(values) < 2 {
		return Metric{}, fmt.Errorf("%w: growth rate needs at least 2 non-null values in %q",
			ErrInsufficientData, column)
	}
	first, last := values[0], values[len(values)-1]
	if first == 0 {
		return Metric{}, fmt.Errorf("%w: cannot compute growth rate for %q",
			ErrZeroBaseline, column)
	}
	rate := ((last - first) / first) * 100
	return Metric{
		Operation: "growth_rate",
		Column:    column,
		First:     round4(first),
		Last:      round4(last),
		ResultPct: round4(rate),
	}, nil
}

func round4(v float64) *float64 {
	r := math.Round(v*10000) / 10000
	return &r
}
