package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"PatternScreener/internal/contract"
	"PatternScreener/internal/model"
	"PatternScreener/internal/recorder"
	"PatternScreener/internal/screener"
)

// ContractRequest is the body of POST /screen/contract. Omitted fields
// fall back to the configured defaults.
type ContractRequest struct {
	Pattern  model.PatternType       `json:"pattern"`
	MinScore *float64                `json:"min_score"`
	Limit    *int                    `json:"limit"`
	Symbols  []string                `json:"symbols"`
	Criteria []model.FilterCriterion `json:"criteria"`
}

// ScreenResponse is the JSON view of a completed run.
type ScreenResponse struct {
	RunID      string                  `json:"run_id"`
	StartedAt  time.Time               `json:"started_at"`
	DurationMs int64                   `json:"duration_ms"`
	Pattern    model.PatternType       `json:"pattern"`
	MinScore   float64                 `json:"min_score"`
	Criteria   []model.FilterCriterion `json:"criteria,omitempty"`
	Matched    int                     `json:"matched"`
	Unmatched  int                     `json:"unmatched"`
	Failed     []model.Failure         `json:"failed"`
	Results    []model.CompositeResult `json:"results"`
}

func newScreenResponse(rep *screener.Report) ScreenResponse {
	resp := ScreenResponse{
		RunID:      rep.Run.ID,
		StartedAt:  rep.Run.StartedAt,
		DurationMs: rep.Run.Duration.Milliseconds(),
		Pattern:    rep.Run.Pattern,
		MinScore:   rep.Run.MinScore,
		Criteria:   rep.Run.Criteria,
		Matched:    len(rep.Run.Matched),
		Unmatched:  len(rep.Run.Unmatched),
		Failed:     rep.Run.Failed,
		Results:    rep.Ranked,
	}
	if resp.Failed == nil {
		resp.Failed = []model.Failure{}
	}
	if resp.Results == nil {
		resp.Results = []model.CompositeResult{}
	}
	return resp
}

// HealthCheck handles GET /health requests.
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   ServiceVersion,
	})
}

// Screen handles GET /screen?pattern=&min_score=&limit= requests.
func (h *APIHandler) Screen(c *gin.Context) {
	req, err := h.validator.ValidateQuery(h.defaults, c.Query("pattern"), c.Query("min_score"), c.Query("limit"))
	if err != nil {
		h.handleError(c, err, http.StatusBadRequest, err.Error())
		return
	}
	h.run(c, req)
}

// ScreenContract handles POST /screen/contract requests.
func (h *APIHandler) ScreenContract(c *gin.Context) {
	var body ContractRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.handleError(c, err, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := h.defaults
	req.Criteria = body.Criteria
	req.Symbols = body.Symbols
	if body.Pattern != "" {
		req.Pattern = body.Pattern
	}
	if body.MinScore != nil {
		req.MinScore = *body.MinScore
	}
	if body.Limit != nil {
		req.Limit = *body.Limit
	}
	if err := h.validator.ValidateRequest(req); err != nil {
		h.handleError(c, err, http.StatusBadRequest, err.Error())
		return
	}
	h.run(c, req)
}

// Runs handles GET /runs?limit= requests, newest first.
func (h *APIHandler) Runs(c *gin.Context) {
	limit, err := h.validator.ValidateRunsLimit(c.Query("limit"))
	if err != nil {
		h.handleError(c, err, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := h.history.RecentRuns(limit)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	if runs == nil {
		runs = []recorder.RunSummary{}
	}
	c.JSON(http.StatusOK, runs)
}

func (h *APIHandler) run(c *gin.Context, req screener.Request) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	rep, err := h.service.Run(ctx, req)
	switch {
	case errors.Is(err, contract.ErrUnknownCondition):
		h.handleError(c, err, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.handleError(c, err, http.StatusGatewayTimeout, "screening timed out")
		return
	case err != nil:
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, newScreenResponse(rep))
}

// handleError logs the error and sends the JSON error response.
func (h *APIHandler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	requestID := c.GetString(RequestIDContextKey)
	if requestID == "" {
		requestID = "unknown"
	}
	log.Printf("[ERROR] %s %s request_id=%s status=%d: %v",
		c.Request.Method, c.Request.URL.Path, requestID, statusCode, err)

	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": requestID,
	})
}
