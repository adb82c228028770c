package calculator

import (
	"fmt"
	"math"

	"PatternScreener/internal/model"
)

// Column names of the derived indicator fields.
const (
	ColSMA20         = "sma_20"
	ColSMA50         = "sma_50"
	ColSMA200        = "sma_200"
	ColEMA12         = "ema_12"
	ColEMA26         = "ema_26"
	ColMACD          = "macd"
	ColSignalLine    = "signal_line"
	ColMACDHistogram = "macd_histogram"
	ColRSI           = "rsi"
	ColATR           = "atr"
	ColATRPercent    = "atr_percent"
	ColBBMiddle      = "bb_middle"
	ColBBUpper       = "bb_upper"
	ColBBLower       = "bb_lower"
	ColBBWidth       = "bb_width"
	ColVolumeSMA20   = "volume_sma_20"
	ColVolumeRatio   = "volume_ratio"
	ColVWAP          = "vwap"
	ColPriceVsVWAP   = "price_vs_vwap"
)

// EnrichedSeries is a bar series plus one contiguous column per indicator.
// Columns have the same length as Bars; NaN marks a value that is undefined
// because the window has not filled yet or a denominator was zero.
// It is built once by Enrich and must be treated as read-only.
type EnrichedSeries struct {
	model.Series
	columns map[string][]float64
}

func newEnrichedSeries(s model.Series) *EnrichedSeries {
	return &EnrichedSeries{Series: s, columns: make(map[string][]float64, 19)}
}

// Len returns the number of bars.
func (e *EnrichedSeries) Len() int { return len(e.Bars) }

// Column returns the named indicator column, or nil when unknown.
func (e *EnrichedSeries) Column(name string) []float64 { return e.columns[name] }

// Value returns the named indicator at bar i and whether it is defined.
func (e *EnrichedSeries) Value(name string, i int) (float64, bool) {
	col := e.columns[name]
	if i < 0 || i >= len(col) || math.IsNaN(col[i]) {
		return math.NaN(), false
	}
	return col[i], true
}

// Latest returns the named indicator at the last bar. Undefined values come
// back as NaN so that every comparison against them is false.
func (e *EnrichedSeries) Latest(name string) float64 {
	v, _ := e.Value(name, e.Len()-1)
	return v
}

// At is Value without the ok flag.
func (e *EnrichedSeries) At(name string, i int) float64 {
	v, _ := e.Value(name, i)
	return v
}

func (e *EnrichedSeries) set(name string, col []float64) { e.columns[name] = col }

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// ratio divides element-wise, yielding NaN for undefined operands or a zero denominator.
func ratio(num, den []float64, scale float64) []float64 {
	out := nanSlice(len(num))
	for i := range num {
		if math.IsNaN(num[i]) || math.IsNaN(den[i]) || den[i] == 0 {
			continue
		}
		out[i] = scale * num[i] / den[i]
	}
	return out
}

// FromColumns builds an EnrichedSeries from columns computed elsewhere, so
// the detectors can be driven with exact indicator values. Every column must
// match the series length and is copied.
func FromColumns(s model.Series, columns map[string][]float64) (*EnrichedSeries, error) {
	e := newEnrichedSeries(s)
	for name, col := range columns {
		if len(col) != len(s.Bars) {
			return nil, fmt.Errorf("column %s has %d values, want %d", name, len(col), len(s.Bars))
		}
		e.set(name, append([]float64(nil), col...))
	}
	return e, nil
}
