package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"PatternScreener/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (diff=%.6f)", label, got, want, math.Abs(got-want))
	}
}

func makeBars(closes []float64, volume float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

func TestResolve_CaseInsensitive(t *testing.T) {
	schema, err := Resolve([]string{"OPEN", "High", "low", "Close", "Adj Close", "Volume"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Schema{CapOpen: "OPEN", CapHigh: "High", CapLow: "low", CapClose: "Close", CapVolume: "Volume"}
	for c, name := range want {
		if schema[c] != name {
			t.Errorf("%s: got %q, want %q", c, schema[c], name)
		}
	}
}

func TestResolve_AdjustedCloseSynonym(t *testing.T) {
	schema, err := Resolve([]string{"open", "high", "low", "adj close", "volume"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema[CapClose] != "adj close" {
		t.Errorf("expected adj close to resolve close, got %q", schema[CapClose])
	}
}

func TestResolve_MissingCapability(t *testing.T) {
	_, err := Resolve([]string{"open", "high", "low", "close"})
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if mfe.Capability != CapVolume {
		t.Errorf("expected volume to be unresolved, got %s", mfe.Capability)
	}
}

func TestCoerce_MixedNumericTypes(t *testing.T) {
	f := model.Frame{
		Symbol: "MIX",
		Times:  []time.Time{time.Unix(1, 0), time.Unix(2, 0)},
		Fields: map[string][]any{
			"open":   {1, int64(2)},
			"high":   {float32(3), "4.5"},
			"low":    {uint(1), 1.5},
			"close":  {" 2 ", 3.0},
			"volume": {100, "200"},
		},
	}
	schema, err := Resolve(f.FieldNames())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	s, err := Coerce(f, schema)
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if s.Bars[0].Close != 2 || s.Bars[1].High != 4.5 || s.Bars[1].Volume != 200 {
		t.Errorf("unexpected bars: %+v", s.Bars)
	}
}

func TestEnrich_CoercionError(t *testing.T) {
	f := model.FrameFromBars("BAD", makeBars([]float64{10, 11, 12, 13}, 100))
	f.Fields["close"][2] = "n/a"

	_, err := Enrich(f)
	var dce *DataCoercionError
	if !errors.As(err, &dce) {
		t.Fatalf("expected DataCoercionError, got %v", err)
	}
	if dce.Field != "close" || dce.Index != 2 {
		t.Errorf("expected close@2, got %s@%d", dce.Field, dce.Index)
	}
}

func TestEnrich_RejectsNonFiniteValues(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"NaN string close", "close", "NaN"},
		{"Inf string high", "high", "+Inf"},
		{"NaN float volume", "volume", math.NaN()},
		{"Inf float low", "low", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := model.FrameFromBars("NAN", makeBars(closes, 100))
			f.Fields[tt.field][5] = tt.value

			e, err := Enrich(f)
			var dce *DataCoercionError
			if !errors.As(err, &dce) {
				t.Fatalf("expected DataCoercionError, got series=%v err=%v", e != nil, err)
			}
			if dce.Field != tt.field || dce.Index != 5 {
				t.Errorf("expected %s@5, got %s@%d", tt.field, dce.Field, dce.Index)
			}
		})
	}

	// Without the bad value, every rolling column is defined at the last bar.
	e, err := Enrich(model.FrameFromBars("OK", makeBars(closes, 100)))
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	for _, col := range []string{ColSMA20, ColSMA50, ColBBUpper, ColATR, ColRSI, ColEMA12, ColMACD} {
		if _, ok := e.Value(col, 79); !ok {
			t.Errorf("%s undefined at last bar", col)
		}
	}
}

func TestEnrich_MissingField(t *testing.T) {
	f := model.FrameFromBars("NOVOL", makeBars([]float64{10, 11}, 100))
	delete(f.Fields, "volume")

	e, err := Enrich(f)
	if e != nil {
		t.Error("expected no series on missing field")
	}
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
}

func TestEnrich_NotChronological(t *testing.T) {
	bars := makeBars([]float64{10, 11, 12}, 100)
	bars[2].Time = bars[1].Time
	_, err := Enrich(model.FrameFromBars("DUP", bars))
	if !errors.Is(err, ErrNotChronological) {
		t.Fatalf("expected ErrNotChronological, got %v", err)
	}
}

func TestRollingMean(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("index %d: expected NaN, got %f", i, got[i])
		}
	}
	for i, want := range []float64{2, 3, 4} {
		assertClose(t, "SMA(3)", got[i+2], want, 1e-9)
	}
	if short := RollingMean([]float64{1, 2}, 3); !math.IsNaN(short[1]) {
		t.Error("expected NaN when the window never fills")
	}
}

func TestEMA_SeededFromFirstValue(t *testing.T) {
	// span 3 → alpha 0.5
	got := EMA([]float64{1, 2, 3}, 3)
	for i, want := range []float64{1, 1.5, 2.25} {
		assertClose(t, "EMA(3)", got[i], want, 1e-12)
	}
}

func TestMACD_HistogramIdentity(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 13, 14, 12, 15, 16, 15}
	macd, signal, hist := MACD(closes, 12, 26, 9)
	for i := range closes {
		assertClose(t, "hist", hist[i], macd[i]-signal[i], 1e-12)
	}
	if macd[0] != 0 {
		t.Errorf("expected zero spread on first bar, got %f", macd[0])
	}
}

func TestRSI_KnownValues(t *testing.T) {
	// deltas +1, -1, +1; seed (period 2) → 0.5/0.5 → 50
	// then gain 1: avgGain=(0.5+1)/2=0.75, avgLoss=0.25 → rs=3 → 75
	got := RSI([]float64{1, 2, 1, 2}, 2)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("expected undefined RSI before seed, got %v", got[:2])
	}
	assertClose(t, "RSI seed", got[2], 50, 1e-9)
	assertClose(t, "RSI smoothed", got[3], 75, 1e-9)
}

func TestRSI_MonotonicIncreaseIsHundred(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got := RSI(closes, 14)
	for i := 14; i < len(got); i++ {
		if got[i] != 100 {
			t.Errorf("index %d: expected 100, got %f", i, got[i])
		}
	}
}

func TestTrueRange_UsesPreviousClose(t *testing.T) {
	bars := []model.Bar{
		{High: 11, Low: 9, Close: 10},
		{High: 15, Low: 14, Close: 14.5}, // gap up: |15-10| = 5
		{High: 13, Low: 12, Close: 12.5}, // gap down: |12-14.5| = 2.5
	}
	got := TrueRange(bars)
	for i, want := range []float64{2, 5, 2.5} {
		assertClose(t, "TR", got[i], want, 1e-12)
	}
	atr := ATR(bars, 3)
	assertClose(t, "ATR(3)", atr[2], 9.5/3, 1e-9)
}

func TestBollinger_ConstantSeriesHasZeroWidth(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	middle, upper, lower, width := Bollinger(closes, 20, 2)
	if !math.IsNaN(middle[18]) {
		t.Error("expected undefined band before 20 bars")
	}
	assertClose(t, "middle", middle[24], 100, 1e-9)
	assertClose(t, "upper", upper[24], 100, 1e-9)
	assertClose(t, "lower", lower[24], 100, 1e-9)
	assertClose(t, "width", width[24], 0, 1e-9)
}

func TestRollingStdDev_Sample(t *testing.T) {
	// sample std of 2,4,4,4,5,5,7,9 is sqrt(32/7)
	got := RollingStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	assertClose(t, "stddev", got[7], math.Sqrt(32.0/7.0), 1e-12)
}

func TestVWAP_ZeroVolumePrefixIsUndefined(t *testing.T) {
	bars := []model.Bar{
		{High: 11, Low: 9, Close: 10, Volume: 0},
		{High: 12, Low: 10, Close: 11, Volume: 0},
		{High: 13, Low: 11, Close: 12, Volume: 10},
		{High: 15, Low: 13, Close: 14, Volume: 30},
	}
	got := VWAP(bars)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("expected NaN VWAP while cumulative volume is zero, got %v", got[:2])
	}
	assertClose(t, "VWAP[2]", got[2], 12, 1e-12)
	assertClose(t, "VWAP[3]", got[3], (12*10+14*30)/40.0, 1e-12)
}

func TestEnrich_ColumnsAndImmutability(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/3)*5
	}
	bars := makeBars(closes, 1000)
	f := model.FrameFromBars("AAA", bars)
	before := f.Fields["close"][10]

	e, err := Enrich(f)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if f.Fields["close"][10] != before {
		t.Error("frame was modified")
	}
	if e.Len() != 60 {
		t.Fatalf("expected 60 bars, got %d", e.Len())
	}
	for _, col := range []string{ColSMA20, ColSMA50, ColSMA200, ColEMA12, ColEMA26, ColMACD, ColSignalLine,
		ColMACDHistogram, ColRSI, ColATR, ColATRPercent, ColBBMiddle, ColBBUpper, ColBBLower, ColBBWidth,
		ColVolumeSMA20, ColVolumeRatio, ColVWAP, ColPriceVsVWAP} {
		if len(e.Column(col)) != 60 {
			t.Errorf("column %s: expected 60 values, got %d", col, len(e.Column(col)))
		}
	}
	if _, ok := e.Value(ColSMA20, 18); ok {
		t.Error("sma_20 should be undefined at bar 18")
	}
	if _, ok := e.Value(ColSMA20, 19); !ok {
		t.Error("sma_20 should be defined at bar 19")
	}
	if _, ok := e.Value(ColSMA200, 59); ok {
		t.Error("sma_200 should be undefined with 60 bars")
	}
	assertClose(t, "volume_ratio", e.Latest(ColVolumeRatio), 1, 1e-9)
	assertClose(t, "bb_middle", e.Latest(ColBBMiddle), e.Latest(ColSMA20), 1e-12)

	// mutating the caller's bars afterwards must not leak into the series
	bars[59].Close = -1
	if e.Bars[59].Close == -1 {
		t.Error("enriched series aliases caller bars")
	}
}
