package calculator

import (
	"errors"
	"math"
)

// TrailingRange scans the most recent window values and returns the high and low.
// A window larger than the input scans everything.
func TrailingRange(values []float64, window int) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	if window <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	n := len(values)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if values[i] > high {
			high = values[i]
		}
		if values[i] < low {
			low = values[i]
		}
	}
	return high, low, nil
}
