package model

import "time"

// Failure records a symbol that dropped out of a screening run.
type Failure struct {
	Symbol string `json:"symbol"`
	Stage  string `json:"stage"` // "fetch", "enrich" or "cancelled"
	Error  string `json:"error"`
}

// ScreenRun summarizes one screening run for recording and reporting.
type ScreenRun struct {
	ID        string            `json:"id"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
	Pattern   PatternType       `json:"pattern"`
	MinScore  float64           `json:"min_score"`
	Criteria  []FilterCriterion `json:"criteria,omitempty"`
	Matched   []CompositeResult `json:"matched"`
	Unmatched []CompositeResult `json:"unmatched"`
	Failed    []Failure         `json:"failed"`
}
