package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"PatternScreener/internal/model"
)

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	rsi := 28.5
	v := 10.0
	run := &model.ScreenRun{
		ID:        "run-1",
		StartedAt: time.Unix(1700000000, 0),
		Duration:  1500 * time.Millisecond,
		Pattern:   model.PatternBoth,
		MinScore:  50,
		Criteria:  []model.FilterCriterion{{Metric: "rsi", Condition: model.LessThan, Value: &v}},
		Matched: []model.CompositeResult{{
			Symbol: "AAA", ReversalScore: 80, BreakoutScore: 50, CompositeScore: 62,
			Recommendation: model.GoodSetup, RSI: &rsi,
			ReversalSignals: []model.Signal{{Name: "RSI oversold", Points: 25}},
		}},
		Unmatched: []model.CompositeResult{{Symbol: "BBB", Recommendation: model.WeakSetup}},
		Failed:    []model.Failure{{Symbol: "CCC", Stage: "enrich", Error: "missing close"}},
	}
	if err := r.RecordRun(run); err != nil {
		t.Fatalf("record: %v", err)
	}

	var results, failures int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM screen_results WHERE run_id = ?`, "run-1").Scan(&results); err != nil {
		t.Fatal(err)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM screen_failures WHERE run_id = ?`, "run-1").Scan(&failures); err != nil {
		t.Fatal(err)
	}
	if results != 2 || failures != 1 {
		t.Errorf("results=%d failures=%d, want 2 and 1", results, failures)
	}

	var nullRSI any
	if err := r.db.QueryRow(`SELECT rsi FROM screen_results WHERE symbol = 'BBB'`).Scan(&nullRSI); err != nil {
		t.Fatal(err)
	}
	if nullRSI != nil {
		t.Errorf("undefined rsi stored as %v, want NULL", nullRSI)
	}

	runs, err := r.RecentRuns(5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" || runs[0].Matched != 1 || runs[0].Failed != 1 {
		t.Errorf("unexpected summary: %+v", runs)
	}

	// Duplicate run IDs are rejected and leave no partial rows behind.
	if err := r.RecordRun(run); err == nil {
		t.Error("expected duplicate run id to fail")
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM screen_results`).Scan(&results); err != nil {
		t.Fatal(err)
	}
	if results != 2 {
		t.Errorf("results after rollback = %d, want 2", results)
	}
}
