package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PatternScreener/internal/recorder"
	"PatternScreener/internal/screener"
)

const (
	// DefaultTimeout bounds a screening request, fetch included.
	DefaultTimeout      = 5 * time.Minute
	ServiceName         = "pattern-screener"
	ServiceVersion      = "1.0.0"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// ScreenService runs screening requests.
type ScreenService interface {
	Run(ctx context.Context, req screener.Request) (*screener.Report, error)
}

// RunHistory lists recorded screening runs.
type RunHistory interface {
	RecentRuns(limit int) ([]recorder.RunSummary, error)
}

// APIHandler serves the screening API over gin.
type APIHandler struct {
	service   ScreenService
	defaults  screener.Request
	validator *Validator
	gatherer  prometheus.Gatherer
	history   RunHistory
}

// NewAPIHandler creates a handler. defaults fills fields a request leaves
// out. gatherer backs /metrics and may be nil.
func NewAPIHandler(service ScreenService, defaults screener.Request, gatherer prometheus.Gatherer) *APIHandler {
	return &APIHandler{
		service:   service,
		defaults:  defaults,
		validator: NewValidator(),
		gatherer:  gatherer,
	}
}

// WithHistory enables GET /runs.
func (h *APIHandler) WithHistory(history RunHistory) *APIHandler {
	h.history = history
	return h
}

// SetupRoutes configures all API routes.
func (h *APIHandler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(ginLoggerMiddleware())
	router.Use(gin.Recovery())

	router.GET("/health", h.HealthCheck)
	router.GET("/screen", h.Screen)
	router.POST("/screen/contract", h.ScreenContract)
	if h.history != nil {
		router.GET("/runs", h.Runs)
	}
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func (h *APIHandler) StartServer(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Println("[INFO] HTTP API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
