package contract

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternScreener/internal/model"
)

func ptr(v float64) *float64 { return &v }

func xyRows() []Row {
	// A..E with (x, y)
	data := []struct {
		sym  string
		x, y float64
	}{
		{"A", 1, 1},
		{"B", 2, 5},
		{"C", 3, 2},
		{"D", 4, 6},
		{"E", 5, 3},
	}
	rows := make([]Row, len(data))
	for i, d := range data {
		rows[i] = Row{Symbol: d.sym, Values: map[string]float64{"x": d.x, "y": d.y}}
	}
	return rows
}

func symbols(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Symbol
	}
	return out
}

func TestApply_AdaptiveGreaterThanUsesMedian(t *testing.T) {
	rows := xyRows()
	assert.Equal(t, 3.0, Median(rows, "x"))

	got, err := Apply(rows, []model.FilterCriterion{{Metric: "x", Condition: model.GreaterThan}})
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "E"}, symbols(got))
}

func TestApply_CriteriaOrderChangesOutcome(t *testing.T) {
	gtX := model.FilterCriterion{Metric: "x", Condition: model.GreaterThan}
	ltY := model.FilterCriterion{Metric: "y", Condition: model.LessThan}

	// x > 3 → {D(4,6), E(5,3)}; median y of those is 4.5 → {E}
	forward, err := Apply(xyRows(), []model.FilterCriterion{gtX, ltY})
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, symbols(forward))

	// y < 3 → {A(1,1), C(3,2)}; median x of those is 2 → {C}
	reversed, err := Apply(xyRows(), []model.FilterCriterion{ltY, gtX})
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, symbols(reversed))
}

func TestApply_ExplicitThreshold(t *testing.T) {
	got, err := Apply(xyRows(), []model.FilterCriterion{{Metric: "y", Condition: model.LessThan, Value: ptr(3)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, symbols(got))
}

func TestApply_Equals(t *testing.T) {
	got, err := Apply(xyRows(), []model.FilterCriterion{{Metric: "x", Condition: model.Equals, Value: ptr(4)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, symbols(got))

	none, err := Apply(xyRows(), []model.FilterCriterion{{Metric: "x", Condition: model.Equals}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestApply_UnknownMetricIsNoop(t *testing.T) {
	rows := xyRows()
	got, err := Apply(rows, []model.FilterCriterion{{Metric: "pe_ratio", Condition: model.GreaterThan}})
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	assert.Same(t, &rows[0], &got[0], "unknown metric should pass the same rows through")
}

func TestApply_UnknownCondition(t *testing.T) {
	_, err := Apply(xyRows(), []model.FilterCriterion{{Metric: "x", Condition: "between"}})
	assert.ErrorIs(t, err, ErrUnknownCondition)
}

func TestApply_NullValuesAreDropped(t *testing.T) {
	rows := []Row{
		{Symbol: "A", Values: map[string]float64{"rsi": 20}},
		{Symbol: "B", Values: map[string]float64{}},
		{Symbol: "C", Values: map[string]float64{"rsi": 40}},
		{Symbol: "D", Values: map[string]float64{"rsi": math.NaN()}},
	}
	assert.Equal(t, 30.0, Median(rows, "rsi"))
	got, err := Apply(rows, []model.FilterCriterion{{Metric: "rsi", Condition: model.LessThan}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, symbols(got))
	assert.Len(t, rows, 4, "input must not be modified")
}

func TestRowsFromResults(t *testing.T) {
	results := []model.CompositeResult{
		{Symbol: "AAA", ReversalScore: 10, BreakoutScore: 20, CompositeScore: 16, RSI: ptr(45)},
	}
	rows := RowsFromResults(results)
	require.Len(t, rows, 1)
	assert.Equal(t, 45.0, rows[0].Values[MetricRSI])
	_, ok := rows[0].Values[MetricVolumeRatio]
	assert.False(t, ok)
}

func TestRank_SortsAndLimits(t *testing.T) {
	results := []model.CompositeResult{
		{Symbol: "A", CompositeScore: 40},
		{Symbol: "B", CompositeScore: 80},
		{Symbol: "C", CompositeScore: 60},
		{Symbol: "D", CompositeScore: 80},
	}
	got := Rank(results, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "B", got[0].Symbol)
	assert.Equal(t, "D", got[1].Symbol)
	assert.Equal(t, "C", got[2].Symbol)
	assert.Equal(t, "A", results[0].Symbol, "input must not be reordered")

	assert.Len(t, Rank(results, 0), 4)
}

func TestSelect_FollowsRowOrder(t *testing.T) {
	results := []model.CompositeResult{{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"}}
	got := Select(results, []Row{{Symbol: "C"}, {Symbol: "A"}})
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Symbol)
	assert.Equal(t, "A", got[1].Symbol)
}
