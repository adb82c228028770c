package screener

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"PatternScreener/internal/calculator"
	"PatternScreener/internal/contract"
	"PatternScreener/internal/metrics"
	"PatternScreener/internal/model"
	"PatternScreener/internal/strategy"
)

// DefaultWorkers bounds per-symbol parallelism when Workers is unset.
const DefaultWorkers = 8

// Result is the outcome of screening a batch of symbols.
type Result struct {
	Matched   []model.CompositeResult // composite score, highest first
	Unmatched []model.CompositeResult // input order
	Failed    []model.Failure
}

// Screener enriches and scores symbols in parallel. Each symbol is an
// independent unit of work with no shared state.
type Screener struct {
	Workers int
	Metrics *metrics.Metrics // optional

	// score replaces Enrich+Score in tests.
	score func(model.Frame) (model.CompositeResult, error)
}

type outcome struct {
	result  *model.CompositeResult
	failure *model.Failure
}

// Screen scores every frame and routes it to Matched when the score for
// pattern is at least minScore, otherwise to Unmatched. A symbol that fails
// enrichment is logged and listed in Failed without affecting the others.
// When ctx is cancelled no new symbols start; the partial result is returned
// together with ctx.Err().
func (s *Screener) Screen(ctx context.Context, frames []model.Frame, pattern model.PatternType, minScore float64) (*Result, error) {
	if !pattern.Valid() {
		return nil, fmt.Errorf("unknown pattern type %q", pattern)
	}
	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	outcomes := make([]outcome, len(frames))
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range frames {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = s.scoreOne(frames[i])
			return nil
		})
	}
	g.Wait()

	res := &Result{}
	for i, o := range outcomes {
		switch {
		case o.failure != nil:
			res.Failed = append(res.Failed, *o.failure)
		case o.result == nil:
			res.Failed = append(res.Failed, model.Failure{Symbol: frames[i].Symbol, Stage: "cancelled", Error: ctx.Err().Error()})
		case o.result.PatternScore(pattern) >= minScore:
			res.Matched = append(res.Matched, *o.result)
		default:
			res.Unmatched = append(res.Unmatched, *o.result)
		}
	}
	res.Matched = contract.Rank(res.Matched, 0)

	if m := s.Metrics; m != nil {
		m.SymbolsTotal.WithLabelValues("matched").Add(float64(len(res.Matched)))
		m.SymbolsTotal.WithLabelValues("unmatched").Add(float64(len(res.Unmatched)))
		m.SymbolsTotal.WithLabelValues("failed").Add(float64(len(res.Failed)))
	}
	return res, ctx.Err()
}

func (s *Screener) scoreOne(f model.Frame) outcome {
	start := time.Now()
	score := s.score
	if score == nil {
		score = enrichAndScore
	}
	r, err := score(f)
	if err != nil {
		log.Printf("[WARN] screen %s: %v", f.Symbol, err)
		return outcome{failure: &model.Failure{Symbol: f.Symbol, Stage: "enrich", Error: err.Error()}}
	}
	if s.Metrics != nil {
		s.Metrics.SymbolDuration.Observe(time.Since(start).Seconds())
	}
	return outcome{result: &r}
}

func enrichAndScore(f model.Frame) (model.CompositeResult, error) {
	e, err := calculator.Enrich(f)
	if err != nil {
		return model.CompositeResult{}, err
	}
	return strategy.Score(e), nil
}
