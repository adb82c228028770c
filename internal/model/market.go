package model

import "time"

// Bar is a single OHLCV candlestick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is an ordered bar sequence for one symbol, oldest first.
type Series struct {
	Symbol string
	Bars   []Bar
}

// Closes returns the close column of the series.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Frame is a raw column set as delivered by a data provider. Field names are
// whatever the provider uses ("Close", "adj close", "VOLUME", ...) and values
// have not been coerced yet.
type Frame struct {
	Symbol string
	Times  []time.Time
	Fields map[string][]any
}

// Len returns the number of rows in the frame.
func (f Frame) Len() int { return len(f.Times) }

// FieldNames returns the frame's field names in no particular order.
func (f Frame) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	return names
}

// FrameFromBars builds a frame with lower-case OHLCV field names.
func FrameFromBars(symbol string, bars []Bar) Frame {
	f := Frame{
		Symbol: symbol,
		Times:  make([]time.Time, len(bars)),
		Fields: map[string][]any{
			"open":   make([]any, len(bars)),
			"high":   make([]any, len(bars)),
			"low":    make([]any, len(bars)),
			"close":  make([]any, len(bars)),
			"volume": make([]any, len(bars)),
		},
	}
	for i, b := range bars {
		f.Times[i] = b.Time
		f.Fields["open"][i] = b.Open
		f.Fields["high"][i] = b.High
		f.Fields["low"][i] = b.Low
		f.Fields["close"][i] = b.Close
		f.Fields["volume"][i] = b.Volume
	}
	return f
}
