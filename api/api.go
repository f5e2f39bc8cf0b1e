// Package api serves signals, snapshots and settings over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/tradesense/history"
	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/metrics"
	"github.com/rustyeddy/tradesense/scanner"
	"github.com/rustyeddy/tradesense/settings"
)

const (
	DefaultTimeout      = 30 * time.Second
	ServiceName         = "tradesense"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// Version is reported by /health; the CLI overrides it at build time.
var Version = "dev"

// Scanner is the part of scanner.Scanner the API drives.
type Scanner interface {
	Run(ctx context.Context, pairs []market.Pair) (scanner.Result, error)
	Snapshot(ctx context.Context, pair market.Pair) (indicators.Snapshot, bool, error)
}

type Deps struct {
	Scanner  Scanner
	History  history.Repository
	Settings settings.Repository
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// APIHandler handles HTTP requests using gin.
type APIHandler struct {
	scanner  Scanner
	history  history.Repository
	settings settings.Repository
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewAPIHandler(d Deps) *APIHandler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return &APIHandler{
		scanner:  d.Scanner,
		history:  d.History,
		settings: d.Settings,
		metrics:  d.Metrics,
		logger:   d.Logger,
	}
}

// SetupRoutes configures all API routes.
func (h *APIHandler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(h.loggerMiddleware())
	router.Use(h.metricsMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", h.HealthCheck)

	router.GET("/signals", h.ListSignals)
	router.GET("/signals/:id", h.GetSignal)
	router.POST("/signals/refresh", h.RefreshSignals)

	router.GET("/snapshot", h.GetSnapshot)

	router.GET("/settings", h.GetSettings)
	router.PUT("/settings", h.UpdateSettings)
	router.POST("/settings/reset", h.ResetSettings)

	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	return router
}

// Serve runs the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (h *APIHandler) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
