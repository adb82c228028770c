package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"PatternScreener/internal/model"
)

// FormatScreenReport formats the top of a screening run as a Telegram
// message. ranked is the presentation order; at most limit rows are shown.
func FormatScreenReport(run *model.ScreenRun, ranked []model.CompositeResult, limit int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Pattern Screener</b> | %s\n", run.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Pattern: %s | min score %.1f\n", run.Pattern, run.MinScore))
	if len(run.Criteria) > 0 {
		b.WriteString("Contract: " + html.EscapeString(FormatCriteria(run.Criteria)) + "\n")
	}
	b.WriteString(fmt.Sprintf("Matched %d | unmatched %d | failed %d | %s\n\n",
		len(run.Matched), len(run.Unmatched), len(run.Failed), run.Duration.Round(time.Millisecond)))

	if len(ranked) == 0 {
		b.WriteString("No stocks matched the criteria.")
		return b.String()
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-12s %6s %6s %6s  %s\n", "Symbol", "Comp", "Rev", "Brk", "Recommendation"))
	for _, r := range ranked {
		b.WriteString(fmt.Sprintf("%-12s %6.1f %6.1f %6.1f  %s\n",
			html.EscapeString(truncate(r.Symbol, 12)), r.CompositeScore, r.ReversalScore, r.BreakoutScore, r.Recommendation))
	}
	b.WriteString("</pre>")

	if len(run.Failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d symbols failed: %s", len(run.Failed), html.EscapeString(failedList(run.Failed, 10))))
	}
	return b.String()
}

// FormatSignals lists the signals that fired for one symbol.
func FormatSignals(r *model.CompositeResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b> %.1f (%s)\n", html.EscapeString(r.Symbol), r.CompositeScore, r.Recommendation))
	for _, group := range []struct {
		title   string
		score   float64
		signals []model.Signal
	}{
		{"Reversal", r.ReversalScore, r.ReversalSignals},
		{"Breakout", r.BreakoutScore, r.BreakoutSignals},
	} {
		b.WriteString(fmt.Sprintf("%s %.0f\n", group.title, group.score))
		for _, s := range group.signals {
			b.WriteString(fmt.Sprintf("  +%.0f %s (%s)\n", s.Points, s.Name, html.EscapeString(s.Detail)))
		}
	}
	return b.String()
}

// FormatCriteria renders a contract as "metric condition value" clauses.
func FormatCriteria(criteria []model.FilterCriterion) string {
	parts := make([]string, len(criteria))
	for i, c := range criteria {
		v := "median"
		if c.Value != nil {
			v = fmt.Sprintf("%g", *c.Value)
		}
		parts[i] = fmt.Sprintf("%s %s %s", c.Metric, c.Condition, v)
	}
	return strings.Join(parts, ", ")
}

func failedList(failed []model.Failure, max int) string {
	names := make([]string, 0, max)
	for i, f := range failed {
		if i == max {
			names = append(names, fmt.Sprintf("+%d more", len(failed)-max))
			break
		}
		names = append(names, f.Symbol)
	}
	return strings.Join(names, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
