package calculator

import (
	"fmt"

	"PatternScreener/internal/model"
)

// Indicator windows.
const (
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	RSIPeriod       = 14
	ATRPeriod       = 14
	BollingerPeriod = 20
	BollingerK      = 2.0
	VolumePeriod    = 20
)

// Enrich resolves the frame's OHLCV fields, coerces them to float64 and
// computes every indicator column. It fails with *MissingFieldError,
// *DataCoercionError or ErrNotChronological; it never returns a partially
// enriched series. The frame is not modified.
func Enrich(f model.Frame) (*EnrichedSeries, error) {
	schema, err := Resolve(f.FieldNames())
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", f.Symbol, err)
	}
	series, err := Coerce(f, schema)
	if err != nil {
		return nil, fmt.Errorf("coerce %s: %w", f.Symbol, err)
	}
	return EnrichSeries(series), nil
}

// EnrichSeries computes the indicator columns for an already typed series.
// Bars are copied so the result never aliases caller memory.
func EnrichSeries(s model.Series) *EnrichedSeries {
	bars := append([]model.Bar(nil), s.Bars...)
	e := newEnrichedSeries(model.Series{Symbol: s.Symbol, Bars: bars})

	closes := e.Closes()
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}

	e.set(ColSMA20, RollingMean(closes, 20))
	e.set(ColSMA50, RollingMean(closes, 50))
	e.set(ColSMA200, RollingMean(closes, 200))

	e.set(ColEMA12, EMA(closes, MACDFast))
	e.set(ColEMA26, EMA(closes, MACDSlow))
	macd, signal, hist := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	e.set(ColMACD, macd)
	e.set(ColSignalLine, signal)
	e.set(ColMACDHistogram, hist)

	e.set(ColRSI, RSI(closes, RSIPeriod))

	atr := ATR(bars, ATRPeriod)
	e.set(ColATR, atr)
	e.set(ColATRPercent, ratio(atr, closes, 100))

	middle, upper, lower, width := Bollinger(closes, BollingerPeriod, BollingerK)
	e.set(ColBBMiddle, middle)
	e.set(ColBBUpper, upper)
	e.set(ColBBLower, lower)
	e.set(ColBBWidth, width)

	volSMA := RollingMean(volumes, VolumePeriod)
	e.set(ColVolumeSMA20, volSMA)
	e.set(ColVolumeRatio, ratio(volumes, volSMA, 1))

	vwap := VWAP(bars)
	e.set(ColVWAP, vwap)
	diff := make([]float64, len(bars))
	for i := range bars {
		diff[i] = closes[i] - vwap[i]
	}
	e.set(ColPriceVsVWAP, ratio(diff, vwap, 100))

	return e
}
