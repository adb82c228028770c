package strategy

import (
	"math"

	"PatternScreener/internal/calculator"
	"PatternScreener/internal/model"
)

// Composite weights.
const (
	ReversalWeight = 0.4
	BreakoutWeight = 0.6
)

// Tiers maps composite score lower bounds to recommendations, highest first.
var Tiers = []struct {
	MinScore       float64
	Recommendation model.Recommendation
}{
	{75, model.StrongSetup},
	{60, model.GoodSetup},
	{45, model.Monitor},
}

// DefaultRecommendation applies below the lowest tier.
var DefaultRecommendation = model.WeakSetup

// MapRecommendation maps a composite score to its tier. Bounds are inclusive.
func MapRecommendation(score float64) model.Recommendation {
	for _, t := range Tiers {
		if score >= t.MinScore {
			return t.Recommendation
		}
	}
	return DefaultRecommendation
}

// Score runs both detectors on an enriched series and blends them.
func Score(e *calculator.EnrichedSeries) model.CompositeResult {
	r := Combine(DetectTrendReversal(e, DefaultLookback), DetectBreakout(e, DefaultLookback))
	r.Symbol = e.Symbol
	r.RSI = latestPtr(e, calculator.ColRSI)
	r.ATRPercent = latestPtr(e, calculator.ColATRPercent)
	r.VolumeRatio = latestPtr(e, calculator.ColVolumeRatio)
	return r
}

// Combine blends a reversal and a breakout score into a composite result.
func Combine(reversal, breakout model.SignalScore) model.CompositeResult {
	composite := clamp(ReversalWeight*reversal.Score + BreakoutWeight*breakout.Score)
	return model.CompositeResult{
		ReversalScore:   reversal.Score,
		BreakoutScore:   breakout.Score,
		CompositeScore:  composite,
		Recommendation:  MapRecommendation(composite),
		ReversalSignals: reversal.Signals,
		BreakoutSignals: breakout.Signals,
	}
}

func latestPtr(e *calculator.EnrichedSeries, col string) *float64 {
	v, ok := e.Value(col, e.Len()-1)
	if !ok || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(MaxScore, score))
}
