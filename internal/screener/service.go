package screener

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"PatternScreener/internal/collector"
	"PatternScreener/internal/contract"
	"PatternScreener/internal/metrics"
	"PatternScreener/internal/model"
	"PatternScreener/internal/recorder"
)

// Request describes one screening run.
type Request struct {
	Pattern  model.PatternType
	MinScore float64
	Limit    int
	Criteria []model.FilterCriterion
	Symbols  []string // overrides the configured universe when set
	// Ephemeral runs are neither recorded nor counted in the run metrics.
	Ephemeral bool
}

// Report is a run plus its presentation ranking. A cancelled run still
// yields a Report covering the symbols finished before cancellation.
type Report struct {
	Run    model.ScreenRun
	Ranked []model.CompositeResult
}

// Service wires the collector, screener and recorder into a full run.
type Service struct {
	Collector *collector.Collector
	Screener  *Screener
	Recorder  recorder.Recorder
	Universe  func() ([]string, error)
	Metrics   *metrics.Metrics // optional
}

// Run fetches the universe, screens it and ranks the results. Without
// criteria the ranking covers the matched symbols; with criteria they are
// applied in order to every scored symbol, matched or not, before ranking.
// When ctx is cancelled mid-run the partial report is recorded and returned
// together with an error wrapping ctx.Err().
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	if err := contract.Validate(req.Criteria); err != nil {
		return nil, err
	}
	symbols := req.Symbols
	if len(symbols) == 0 {
		if s.Universe == nil {
			return nil, fmt.Errorf("no symbols requested and no universe configured")
		}
		var err error
		if symbols, err = s.Universe(); err != nil {
			return nil, fmt.Errorf("load universe: %w", err)
		}
	}

	run := model.ScreenRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Pattern:   req.Pattern,
		MinScore:  req.MinScore,
		Criteria:  req.Criteria,
	}
	log.Printf("[INFO] run %s: screening %d symbols for %s >= %.1f", run.ID, len(symbols), req.Pattern, req.MinScore)

	frames, fetchFailed, collectErr := s.Collector.Collect(ctx, symbols)
	res, screenErr := s.Screener.Screen(ctx, frames, req.Pattern, req.MinScore)
	if res == nil {
		return nil, fmt.Errorf("screen: %w", screenErr)
	}
	run.Matched = res.Matched
	run.Unmatched = res.Unmatched
	run.Failed = append(fetchFailed, res.Failed...)
	runErr := screenErr
	if collectErr != nil {
		run.Failed = append(run.Failed, unreached(symbols, frames, fetchFailed, collectErr)...)
		runErr = collectErr
	}
	run.Duration = time.Since(run.StartedAt)

	ranked := contract.Rank(run.Matched, req.Limit)
	if len(req.Criteria) > 0 {
		all := append(append([]model.CompositeResult(nil), run.Matched...), run.Unmatched...)
		rows, err := contract.Apply(contract.RowsFromResults(all), req.Criteria)
		if err != nil {
			return nil, err
		}
		ranked = contract.Rank(contract.Select(all, rows), req.Limit)
	}

	if !req.Ephemeral {
		s.record(&run)
	}
	log.Printf("[INFO] run %s: %d matched, %d unmatched, %d failed in %s",
		run.ID, len(run.Matched), len(run.Unmatched), len(run.Failed), run.Duration.Round(time.Millisecond))

	rep := &Report{Run: run, Ranked: ranked}
	if runErr != nil {
		log.Printf("[WARN] run %s interrupted: %v", run.ID, runErr)
		return rep, fmt.Errorf("run %s interrupted: %w", run.ID, runErr)
	}
	return rep, nil
}

func (s *Service) record(run *model.ScreenRun) {
	if s.Recorder != nil {
		if err := s.Recorder.RecordRun(run); err != nil {
			log.Printf("[ERROR] record run %s: %v", run.ID, err)
		}
	}
	if m := s.Metrics; m != nil {
		m.RunsTotal.WithLabelValues(string(run.Pattern)).Inc()
		m.RunDuration.Observe(run.Duration.Seconds())
		m.LastRunMatched.Set(float64(len(run.Matched)))
		m.LastRunFailures.Set(float64(len(run.Failed)))
	}
}

// unreached lists the symbols the collector never got to before cancellation.
func unreached(symbols []string, frames []model.Frame, failed []model.Failure, cause error) []model.Failure {
	seen := make(map[string]bool, len(frames)+len(failed))
	for _, f := range frames {
		seen[f.Symbol] = true
	}
	for _, f := range failed {
		seen[f.Symbol] = true
	}
	var out []model.Failure
	for _, sym := range symbols {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, model.Failure{Symbol: sym, Stage: "cancelled", Error: cause.Error()})
		}
	}
	return out
}
