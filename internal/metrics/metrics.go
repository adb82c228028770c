package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for screening runs.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: pattern
	RunDuration     prometheus.Histogram
	SymbolsTotal    *prometheus.CounterVec // labels: outcome=matched|unmatched|failed
	SymbolDuration  prometheus.Histogram
	LastRunMatched  prometheus.Gauge
	LastRunFailures prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_runs_total",
			Help: "Screening runs executed",
		}, []string{"pattern"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_run_duration_seconds",
			Help:    "Wall time of a full screening run including fetch",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		SymbolsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_symbols_total",
			Help: "Symbols processed by outcome",
		}, []string{"outcome"}),
		SymbolDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_symbol_compute_seconds",
			Help:    "Indicator and scoring time per symbol",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		LastRunMatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_run_matched",
			Help: "Matched symbols in the most recent run",
		}),
		LastRunFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_run_failures",
			Help: "Failed symbols in the most recent run",
		}),
	}
	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.SymbolsTotal,
		m.SymbolDuration,
		m.LastRunMatched,
		m.LastRunFailures,
	)
	return m
}
