package calculator

import (
	talib "github.com/markcheno/go-talib"
)

// RollingMean returns the trailing simple mean of values at every index.
// The first period-1 entries are NaN.
func RollingMean(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sma := talib.Sma(values, period)
	copy(out[period-1:], sma[period-1:])
	return out
}

// EMA returns the exponential moving average with alpha = 2/(span+1), seeded
// with the first value and never looking ahead.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns the MACD line, its signal line and histogram.
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = EMA(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, hist
}
