package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"PatternScreener/internal/model"
	"PatternScreener/internal/screener"
)

type fakeRunner struct {
	reqs []screener.Request
	rep  *screener.Report
	err  error
}

func (f *fakeRunner) Run(_ context.Context, req screener.Request) (*screener.Report, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.rep, nil
}

func newTestScheduler(r *fakeRunner) *Scheduler {
	return NewScheduler(context.Background(), r, nil, screener.Request{
		Pattern: model.PatternBoth, MinScore: 50, Limit: 10,
	})
}

func TestHandleCommand_Help(t *testing.T) {
	s := newTestScheduler(&fakeRunner{})
	for _, cmd := range []string{"", "/help", "hello"} {
		if got := s.HandleCommand(cmd); got != helpText {
			t.Errorf("HandleCommand(%q) = %q, want help", cmd, got)
		}
	}
}

func TestHandleCommand_ScreenOverrides(t *testing.T) {
	r := &fakeRunner{rep: &screener.Report{}}
	s := newTestScheduler(r)

	tests := []struct {
		cmd      string
		pattern  model.PatternType
		minScore float64
	}{
		{"/screen", model.PatternBoth, 50},
		{"/screen breakout 70", model.PatternBreakout, 70},
		{"/reversal", model.PatternReversal, 50},
		{"/breakout@ScreenerBot 65.5", model.PatternBreakout, 65.5},
	}
	for _, tt := range tests {
		r.reqs = nil
		reply := s.HandleCommand(tt.cmd)
		if len(r.reqs) != 1 {
			t.Fatalf("%s: runner called %d times", tt.cmd, len(r.reqs))
		}
		if got := r.reqs[0]; got.Pattern != tt.pattern || got.MinScore != tt.minScore || got.Limit != 10 {
			t.Errorf("%s: request = %+v", tt.cmd, got)
		}
		if !strings.Contains(reply, "No stocks matched the criteria.") {
			t.Errorf("%s: unexpected reply %q", tt.cmd, reply)
		}
	}
}

func TestHandleCommand_RejectsBadArguments(t *testing.T) {
	r := &fakeRunner{rep: &screener.Report{}}
	s := newTestScheduler(r)

	for _, cmd := range []string{"/screen sideways", "/reversal abc", "/breakout 150", "/signals"} {
		s.HandleCommand(cmd)
	}
	if len(r.reqs) != 0 {
		t.Errorf("runner should not be called for invalid commands, got %d calls", len(r.reqs))
	}
}

func TestHandleCommand_RunError(t *testing.T) {
	s := newTestScheduler(&fakeRunner{err: errors.New("universe missing")})
	if got := s.HandleCommand("/screen"); !strings.Contains(got, "universe missing") {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestHandleCommand_Signals(t *testing.T) {
	r := &fakeRunner{rep: &screener.Report{Run: model.ScreenRun{
		Unmatched: []model.CompositeResult{{
			Symbol: "AAPL", ReversalScore: 25,
			ReversalSignals: []model.Signal{{Name: "RSI oversold", Points: 25, Detail: "RSI=27.4"}},
		}},
	}}}
	s := newTestScheduler(r)

	got := s.HandleCommand("/signals aapl")
	if !strings.Contains(got, "RSI oversold") {
		t.Errorf("unexpected reply %q", got)
	}
	if req := r.reqs[0]; len(req.Symbols) != 1 || req.Symbols[0] != "AAPL" || req.MinScore != 0 || !req.Ephemeral {
		t.Errorf("unexpected request %+v", req)
	}
}
