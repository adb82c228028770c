package model

// PatternType selects which score gates a screening run.
type PatternType string

const (
	PatternReversal PatternType = "reversal"
	PatternBreakout PatternType = "breakout"
	PatternBoth     PatternType = "both"
)

// Valid reports whether p is a known pattern type.
func (p PatternType) Valid() bool {
	switch p {
	case PatternReversal, PatternBreakout, PatternBoth:
		return true
	}
	return false
}

// Signal is one rule that fired during pattern detection.
type Signal struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Detail string  `json:"detail,omitempty"`
}

// SignalScore is the output of a single detector.
type SignalScore struct {
	Score   float64  `json:"score"`
	Signals []Signal `json:"signals"`
}

// Recommendation is the actionability tier derived from the composite score.
type Recommendation string

const (
	StrongSetup Recommendation = "Strong Setup"
	GoodSetup   Recommendation = "Good Setup"
	Monitor     Recommendation = "Monitor"
	WeakSetup   Recommendation = "Weak Setup"
)

// CompositeResult is the per-symbol output of the pattern scorer.
type CompositeResult struct {
	Symbol          string         `json:"symbol"`
	ReversalScore   float64        `json:"reversal_score"`
	BreakoutScore   float64        `json:"breakout_score"`
	CompositeScore  float64        `json:"composite_score"`
	Recommendation  Recommendation `json:"recommendation"`
	ReversalSignals []Signal       `json:"reversal_signals"`
	BreakoutSignals []Signal       `json:"breakout_signals"`
	RSI             *float64       `json:"rsi"`
	ATRPercent      *float64       `json:"atr_percent"`
	VolumeRatio     *float64       `json:"volume_ratio"`
}

// PatternScore returns the score that gates the given pattern type.
func (r CompositeResult) PatternScore(p PatternType) float64 {
	switch p {
	case PatternReversal:
		return r.ReversalScore
	case PatternBreakout:
		return r.BreakoutScore
	default:
		return r.CompositeScore
	}
}
