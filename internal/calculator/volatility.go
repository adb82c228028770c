package calculator

import (
	"math"

	"PatternScreener/internal/model"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func TrueRange(bars []model.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		r := b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			r = math.Max(r, math.Abs(b.High-prev))
			r = math.Max(r, math.Abs(b.Low-prev))
		}
		tr[i] = r
	}
	return tr
}

// ATR is the plain rolling mean of true range over period bars (not Wilder-smoothed).
func ATR(bars []model.Bar, period int) []float64 {
	return RollingMean(TrueRange(bars), period)
}

// RollingStdDev returns the trailing sample standard deviation (n-1) of values.
func RollingStdDev(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 2 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)
		ss := 0.0
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

// Bollinger returns the middle, upper and lower bands and the relative width.
func Bollinger(closes []float64, period int, k float64) (middle, upper, lower, width []float64) {
	middle = RollingMean(closes, period)
	dev := RollingStdDev(closes, period)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(middle[i]) || math.IsNaN(dev[i]) {
			continue
		}
		upper[i] = middle[i] + k*dev[i]
		lower[i] = middle[i] - k*dev[i]
	}
	spread := make([]float64, len(closes))
	for i := range closes {
		spread[i] = upper[i] - lower[i]
	}
	width = ratio(spread, middle, 1)
	return middle, upper, lower, width
}

// VWAP is the cumulative volume-weighted mean of (high+low)/2 from the first
// bar. It is NaN while cumulative volume is zero.
func VWAP(bars []model.Bar) []float64 {
	out := nanSlice(len(bars))
	var cumPV, cumVol float64
	for i, b := range bars {
		typical := (b.High + b.Low) / 2
		cumPV += typical * b.Volume
		cumVol += b.Volume
		if cumVol != 0 {
			out[i] = cumPV / cumVol
		}
	}
	return out
}
