package contract

import (
	"sort"

	"PatternScreener/internal/model"
)

// Rank returns a copy of results sorted by composite score, highest first,
// truncated to limit when limit > 0. Ties keep input order.
func Rank(results []model.CompositeResult, limit int) []model.CompositeResult {
	out := append([]model.CompositeResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompositeScore > out[j].CompositeScore
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Select returns the results whose symbols appear in rows, in rows order.
func Select(results []model.CompositeResult, rows []Row) []model.CompositeResult {
	bySymbol := make(map[string]model.CompositeResult, len(results))
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}
	out := make([]model.CompositeResult, 0, len(rows))
	for _, row := range rows {
		if r, ok := bySymbol[row.Symbol]; ok {
			out = append(out, r)
		}
	}
	return out
}
