package api

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"PatternScreener/internal/model"
	"PatternScreener/internal/screener"
)

// MaxLimit caps the number of ranked rows a request may ask for.
const MaxLimit = 500

// Validator checks screening parameters before they reach the service.
type Validator struct {
	symbolRegex *regexp.Regexp
}

func NewValidator() *Validator {
	return &Validator{
		symbolRegex: regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-_&^=]{0,19}$`),
	}
}

// ValidateQuery applies query string overrides to defaults.
func (v *Validator) ValidateQuery(defaults screener.Request, pattern, minScore, limit string) (screener.Request, error) {
	req := defaults
	if pattern = strings.TrimSpace(pattern); pattern != "" {
		req.Pattern = model.PatternType(strings.ToLower(pattern))
	}
	if minScore = strings.TrimSpace(minScore); minScore != "" {
		s, err := strconv.ParseFloat(minScore, 64)
		if err != nil {
			return req, errors.New("min_score must be a number")
		}
		req.MinScore = s
	}
	if limit = strings.TrimSpace(limit); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return req, errors.New("limit must be an integer")
		}
		req.Limit = n
	}
	return req, v.ValidateRequest(req)
}

// ValidateRunsLimit parses the limit of GET /runs, defaulting to 20.
func (v *Validator) ValidateRunsLimit(limit string) (int, error) {
	limit = strings.TrimSpace(limit)
	if limit == "" {
		return 20, nil
	}
	n, err := strconv.Atoi(limit)
	if err != nil || n < 1 || n > MaxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	return n, nil
}

// ValidateRequest checks a fully populated request.
func (v *Validator) ValidateRequest(req screener.Request) error {
	if !req.Pattern.Valid() {
		return fmt.Errorf("invalid pattern %q, expected reversal, breakout or both", req.Pattern)
	}
	if req.MinScore < 0 || req.MinScore > 100 {
		return errors.New("min_score must be between 0 and 100")
	}
	if req.Limit < 0 || req.Limit > MaxLimit {
		return fmt.Errorf("limit must be between 0 and %d (0 means no limit)", MaxLimit)
	}
	for _, s := range req.Symbols {
		if !v.symbolRegex.MatchString(s) {
			return fmt.Errorf("invalid symbol %q", s)
		}
	}
	for i, c := range req.Criteria {
		if strings.TrimSpace(c.Metric) == "" {
			return fmt.Errorf("criterion %d: metric is required", i)
		}
	}
	return nil
}
