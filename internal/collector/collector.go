package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"time"

	"PatternScreener/internal/calculator"
	"PatternScreener/internal/model"
)

// MockFetcher returns deterministic synthetic data for development and testing.
type MockFetcher struct {
	BasePrice float64
	Frames    map[string]model.Frame
	Err       map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchFrame(_ context.Context, symbol string, days int) (model.Frame, error) {
	if err, ok := m.Err[symbol]; ok {
		return model.Frame{}, err
	}
	if f, ok := m.Frames[symbol]; ok {
		return f, nil
	}
	base := m.BasePrice
	if base == 0 {
		base = 100
	}
	return model.FrameFromBars(symbol, generateMockBars(symbol, base, days)), nil
}

// generateMockBars produces a symbol-specific oscillating trend so different
// symbols score differently.
func generateMockBars(symbol string, basePrice float64, count int) []model.Bar {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	seed := float64(h.Sum32()%1000) / 1000

	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + (seed-0.5)*0.002*x + 0.05*math.Sin(x/(5+seed*10)))
		bars[i] = model.Bar{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1_000_000 * (1 + 0.5*math.Cos(x/(3+seed))),
		}
	}
	return bars
}

// BarStore caches typed bar history between runs.
type BarStore interface {
	LoadBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error)
	SaveBars(ctx context.Context, symbol string, bars []model.Bar) error
}

// Collector fetches raw frames for a symbol universe.
type Collector struct {
	Fetcher Fetcher
	Store   BarStore // optional history cache
	Days    int
	Delay   time.Duration // pause between provider requests
	// MaxStaleness is how old the newest cached bar may be before the
	// provider is asked again.
	MaxStaleness time.Duration
	now          func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, store BarStore, days int) *Collector {
	return &Collector{
		Fetcher:      fetcher,
		Store:        store,
		Days:         days,
		MaxStaleness: 4 * 24 * time.Hour,
		now:          time.Now,
	}
}

// Collect fetches every symbol in order. Per-symbol failures are logged and
// returned alongside the frames that did arrive; only cancellation aborts.
func (c *Collector) Collect(ctx context.Context, symbols []string) ([]model.Frame, []model.Failure, error) {
	frames := make([]model.Frame, 0, len(symbols))
	var failed []model.Failure
	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return frames, failed, err
		}
		f, err := c.fetch(ctx, symbol)
		if err != nil {
			log.Printf("[WARN] fetch %s: %v", symbol, err)
			failed = append(failed, model.Failure{Symbol: symbol, Stage: "fetch", Error: err.Error()})
			continue
		}
		frames = append(frames, f)
		if c.Delay > 0 && i < len(symbols)-1 {
			select {
			case <-ctx.Done():
				return frames, failed, ctx.Err()
			case <-time.After(c.Delay):
			}
		}
	}
	return frames, failed, nil
}

func (c *Collector) fetch(ctx context.Context, symbol string) (model.Frame, error) {
	now := c.now()
	from := now.AddDate(0, 0, -c.Days)

	if c.Store != nil {
		bars, err := c.Store.LoadBars(ctx, symbol, from, now)
		if err != nil {
			log.Printf("[WARN] load cached bars %s: %v", symbol, err)
		} else if len(bars) > 0 && now.Sub(bars[len(bars)-1].Time) <= c.MaxStaleness {
			return model.FrameFromBars(symbol, bars), nil
		}
	}

	f, err := c.Fetcher.FetchFrame(ctx, symbol, c.Days)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%s: %w", c.Fetcher.Name(), err)
	}
	if c.Store != nil {
		c.cache(ctx, f)
	}
	return f, nil
}

// cache stores the typed bars of a freshly fetched frame. A frame that does
// not coerce is left to fail in the screening step.
func (c *Collector) cache(ctx context.Context, f model.Frame) {
	schema, err := calculator.Resolve(f.FieldNames())
	if err != nil {
		return
	}
	series, err := calculator.Coerce(f, schema)
	if err != nil {
		return
	}
	if err := c.Store.SaveBars(ctx, f.Symbol, series.Bars); err != nil {
		log.Printf("[WARN] cache bars %s: %v", f.Symbol, err)
	}
}
