package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"

	_ "modernc.org/sqlite"

	"PatternScreener/internal/model"
)

// SQLiteRecorder persists screening runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screen_runs (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			duration_ms   INTEGER,
			pattern       TEXT,
			min_score     REAL,
			criteria      TEXT,
			matched       INTEGER,
			unmatched     INTEGER,
			failed        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON screen_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS screen_results (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL,
			symbol          TEXT NOT NULL,
			matched         INTEGER,
			reversal_score  REAL,
			breakout_score  REAL,
			composite_score REAL,
			recommendation  TEXT,
			rsi             REAL,
			atr_percent     REAL,
			volume_ratio    REAL,
			signals         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON screen_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_symbol ON screen_results(symbol)`,

		`CREATE TABLE IF NOT EXISTS screen_failures (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			stage  TEXT,
			error  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON screen_failures(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run header, every scored symbol and every failure
// in a single transaction.
func (r *SQLiteRecorder) RecordRun(run *model.ScreenRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	criteria, err := json.Marshal(run.Criteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO screen_runs
		(id, timestamp, duration_ms, pattern, min_score, criteria, matched, unmatched, failed)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Duration.Milliseconds(),
		string(run.Pattern), run.MinScore, string(criteria),
		len(run.Matched), len(run.Unmatched), len(run.Failed),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO screen_results
		(run_id, symbol, matched, reversal_score, breakout_score, composite_score,
		 recommendation, rsi, atr_percent, volume_ratio, signals)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer stmt.Close()

	insert := func(res model.CompositeResult, matched bool) error {
		signals, err := json.Marshal(append(append([]model.Signal(nil), res.ReversalSignals...), res.BreakoutSignals...))
		if err != nil {
			return err
		}
		_, err = stmt.Exec(run.ID, res.Symbol, matched,
			res.ReversalScore, res.BreakoutScore, res.CompositeScore, string(res.Recommendation),
			nullable(res.RSI), nullable(res.ATRPercent), nullable(res.VolumeRatio), string(signals))
		return err
	}
	for _, res := range run.Matched {
		if err := insert(res, true); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Symbol, err)
		}
	}
	for _, res := range run.Unmatched {
		if err := insert(res, false); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Symbol, err)
		}
	}

	for _, f := range run.Failed {
		if _, err := tx.Exec(`INSERT INTO screen_failures (run_id, symbol, stage, error) VALUES (?,?,?,?)`,
			run.ID, f.Symbol, f.Stage, f.Error); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Symbol, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of screen_runs.
type RunSummary struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
	Pattern   string  `json:"pattern"`
	MinScore  float64 `json:"min_score"`
	Matched   int     `json:"matched"`
	Unmatched int     `json:"unmatched"`
	Failed    int     `json:"failed"`
}

// RecentRuns returns the latest runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, pattern, min_score, matched, unmatched, failed
		FROM screen_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.Pattern, &s.MinScore, &s.Matched, &s.Unmatched, &s.Failed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func nullable(v *float64) any {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return *v
}
