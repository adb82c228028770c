package strategy

import (
	"fmt"

	"PatternScreener/internal/calculator"
	"PatternScreener/internal/model"
)

const (
	// DefaultLookback is the minimum history a detector needs to score.
	DefaultLookback = 20
	// YearBars approximates one trading year of daily bars.
	YearBars = 252
	// MaxScore caps every detector.
	MaxScore = 100.0
)

// scorer accumulates fired rules in evaluation order.
type scorer struct {
	total   float64
	signals []model.Signal
}

func (s *scorer) add(name string, points float64, detail string) {
	s.total += points
	s.signals = append(s.signals, model.Signal{Name: name, Points: points, Detail: detail})
}

func (s *scorer) result() model.SignalScore {
	signals := s.signals
	if signals == nil {
		signals = []model.Signal{}
	}
	return model.SignalScore{Score: clamp(s.total), Signals: signals}
}

func empty() model.SignalScore {
	return model.SignalScore{Score: 0, Signals: []model.Signal{}}
}

// DetectTrendReversal scores oversold, band, momentum, support and volume
// conditions on the latest bar. Fewer than lookback bars scores zero.
func DetectTrendReversal(e *calculator.EnrichedSeries, lookback int) model.SignalScore {
	n := e.Len()
	if n < lookback || n == 0 {
		return empty()
	}
	last := n - 1
	price := e.Bars[last].Close
	var s scorer

	if rsi := e.Latest(calculator.ColRSI); rsi < 30 {
		s.add("RSI oversold", 20, fmt.Sprintf("RSI=%.1f", rsi))
	}
	if lower := e.Latest(calculator.ColBBLower); price <= lower {
		s.add("price at lower band", 15, fmt.Sprintf("price %.2f <= %.2f", price, lower))
	}
	if n >= 2 {
		prev := e.At(calculator.ColMACDHistogram, last-1)
		curr := e.At(calculator.ColMACDHistogram, last)
		if prev < 0 && curr > 0 {
			s.add("MACD bullish crossover", 25, fmt.Sprintf("hist %.3f -> %.3f", prev, curr))
		}
	}
	if _, low, err := calculator.TrailingRange(e.Closes(), lookback); err == nil && low > 0 {
		bounce := (price - low) / low
		if price > low && bounce > 0.02 && price/low < 1.05 {
			s.add("bounce from support", 15, fmt.Sprintf("%.1f%% above %.2f", bounce*100, low))
		}
	}
	if atrPct := e.Latest(calculator.ColATRPercent); atrPct > 2.0 {
		s.add("high volatility", 10, fmt.Sprintf("ATR=%.1f%%", atrPct))
	}
	if vr := e.Latest(calculator.ColVolumeRatio); vr > 1.2 {
		s.add("above-average volume", 15, fmt.Sprintf("%.2fx", vr))
	}
	return s.result()
}

// DetectBreakout scores trend alignment, band breakout, volume surge, 52-week
// proximity and momentum on the latest bar. Fewer than lookback bars scores zero.
func DetectBreakout(e *calculator.EnrichedSeries, lookback int) model.SignalScore {
	n := e.Len()
	if n < lookback || n == 0 {
		return empty()
	}
	price := e.Bars[n-1].Close
	var s scorer

	sma20 := e.Latest(calculator.ColSMA20)
	sma50 := e.Latest(calculator.ColSMA50)
	if price > sma20 && sma20 > sma50 {
		s.add("uptrend alignment", 20, fmt.Sprintf("%.2f > %.2f > %.2f", price, sma20, sma50))
	}
	if upper := e.Latest(calculator.ColBBUpper); price > upper {
		s.add("band breakout", 20, fmt.Sprintf("price %.2f > %.2f", price, upper))
	}
	if vr := e.Latest(calculator.ColVolumeRatio); vr > 1.5 {
		s.add("volume surge", 25, fmt.Sprintf("%.2fx", vr))
	}
	if n >= YearBars {
		if high, _, err := calculator.TrailingRange(e.Closes(), YearBars); err == nil && price > 0.95*high {
			s.add("near 52-week high", 20, fmt.Sprintf("high %.2f", high))
		}
	}
	macd := e.Latest(calculator.ColMACD)
	signal := e.Latest(calculator.ColSignalLine)
	if macd > 0 && macd > signal {
		s.add("MACD positive, above signal", 15, fmt.Sprintf("%.3f > %.3f", macd, signal))
	}
	if rsi := e.Latest(calculator.ColRSI); rsi < 70 {
		s.add("room to run", 10, fmt.Sprintf("RSI=%.1f", rsi))
	}
	return s.result()
}
