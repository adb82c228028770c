package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"PatternScreener/internal/model"
)

// ErrNotChronological is returned when frame timestamps are not strictly increasing.
var ErrNotChronological = errors.New("timestamps not strictly increasing")

// DataCoercionError reports a value that could not be read as a number.
type DataCoercionError struct {
	Field string
	Index int
	Value any
}

func (e *DataCoercionError) Error() string {
	return fmt.Sprintf("field %q bar %d: cannot coerce %v (%T) to float", e.Field, e.Index, e.Value, e.Value)
}

// Coerce converts a raw frame into typed bars using the resolved schema.
// The frame is only read.
func Coerce(f model.Frame, schema Schema) (model.Series, error) {
	n := f.Len()
	cols := make(map[Capability][]any, len(schema))
	for c, name := range schema {
		col := f.Fields[name]
		if len(col) != n {
			return model.Series{}, fmt.Errorf("field %q has %d values, want %d", name, len(col), n)
		}
		cols[c] = col
	}

	bars := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		if i > 0 && !f.Times[i].After(f.Times[i-1]) {
			return model.Series{}, fmt.Errorf("bar %d at %s: %w", i, f.Times[i].Format("2006-01-02 15:04:05"), ErrNotChronological)
		}
		var vals [5]float64
		for j, c := range RequiredCapabilities {
			v, ok := toFloat(cols[c][i])
			if !ok {
				return model.Series{}, &DataCoercionError{Field: schema[c], Index: i, Value: cols[c][i]}
			}
			vals[j] = v
		}
		bars[i] = model.Bar{
			Time:   f.Times[i],
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		}
	}
	return model.Series{Symbol: f.Symbol, Bars: bars}, nil
}

// toFloat reads a finite number. NaN and Inf are rejected because every
// rolling scan would carry them forward for the rest of the series.
func toFloat(v any) (float64, bool) {
	f, ok := rawFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
