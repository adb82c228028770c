// Package contract applies caller-supplied filter criteria to per-symbol
// summary rows and ranks results for presentation.
package contract

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"PatternScreener/internal/model"
)

// ErrUnknownCondition is returned for a criterion whose condition is not supported.
var ErrUnknownCondition = errors.New("unknown filter condition")

// Metric names exposed by RowsFromResults.
const (
	MetricReversalScore  = "reversal_score"
	MetricBreakoutScore  = "breakout_score"
	MetricCompositeScore = "composite_score"
	MetricRSI            = "rsi"
	MetricATRPercent     = "atr_percent"
	MetricVolumeRatio    = "volume_ratio"
)

// Row is one symbol's summary. A metric absent from Values is null for that row.
type Row struct {
	Symbol string
	Values map[string]float64
}

// RowsFromResults flattens scored results into rows, in input order.
func RowsFromResults(results []model.CompositeResult) []Row {
	rows := make([]Row, len(results))
	for i, r := range results {
		values := map[string]float64{
			MetricReversalScore:  r.ReversalScore,
			MetricBreakoutScore:  r.BreakoutScore,
			MetricCompositeScore: r.CompositeScore,
		}
		if r.RSI != nil {
			values[MetricRSI] = *r.RSI
		}
		if r.ATRPercent != nil {
			values[MetricATRPercent] = *r.ATRPercent
		}
		if r.VolumeRatio != nil {
			values[MetricVolumeRatio] = *r.VolumeRatio
		}
		rows[i] = Row{Symbol: r.Symbol, Values: values}
	}
	return rows
}

// Apply runs the criteria strictly in order. Each adaptive cutoff is the
// median of the rows that survived the previous criteria, so reordering the
// criteria can change the outcome. A criterion on a metric no row carries is
// skipped. Row order is preserved and the input slice is not modified.
func Apply(rows []Row, criteria []model.FilterCriterion) ([]Row, error) {
	if err := Validate(criteria); err != nil {
		return nil, err
	}
	out := rows
	for _, c := range criteria {
		if !hasMetric(out, c.Metric) {
			continue
		}
		var keep func(v float64) bool
		switch c.Condition {
		case model.GreaterThan:
			cut := threshold(out, c)
			keep = func(v float64) bool { return v > cut }
		case model.LessThan:
			cut := threshold(out, c)
			keep = func(v float64) bool { return v < cut }
		case model.Equals:
			if c.Value == nil {
				keep = func(float64) bool { return false }
			} else {
				want := *c.Value
				keep = func(v float64) bool { return v == want }
			}
		}
		out = filter(out, c.Metric, keep)
	}
	return out, nil
}

// Validate checks every criterion's condition.
func Validate(criteria []model.FilterCriterion) error {
	for i, c := range criteria {
		switch c.Condition {
		case model.GreaterThan, model.LessThan, model.Equals:
		default:
			return fmt.Errorf("criterion %d (%s %q): %w", i, c.Metric, c.Condition, ErrUnknownCondition)
		}
	}
	return nil
}

func hasMetric(rows []Row, metric string) bool {
	for _, r := range rows {
		if _, ok := r.Values[metric]; ok {
			return true
		}
	}
	return false
}

func threshold(rows []Row, c model.FilterCriterion) float64 {
	if c.Value != nil {
		return *c.Value
	}
	return Median(rows, c.Metric)
}

func filter(rows []Row, metric string, keep func(float64) bool) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		v, ok := r.Values[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if keep(v) {
			out = append(out, r)
		}
	}
	return out
}

// Median returns the median of metric over rows, skipping nulls. It is NaN
// when no row has a value.
func Median(rows []Row, metric string) float64 {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Values[metric]; ok && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}
