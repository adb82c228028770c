package model

// Condition is the comparison applied by a filter criterion.
type Condition string

const (
	GreaterThan Condition = "greater_than"
	LessThan    Condition = "less_than"
	Equals      Condition = "equals"
)

// FilterCriterion narrows a row set on one metric. A nil Value on
// greater_than/less_than means the cutoff is the median of the rows still in play.
type FilterCriterion struct {
	Metric    string    `json:"metric" yaml:"metric"`
	Condition Condition `json:"condition" yaml:"condition"`
	Value     *float64  `json:"value,omitempty" yaml:"value,omitempty"`
}
