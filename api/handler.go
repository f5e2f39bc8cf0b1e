package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/tradesense/history"
	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/settings"
)

const maxLimit = 500

// HealthCheck handles GET /health.
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ListSignals handles GET /signals?pair=EUR/USD&limit=20.
func (h *APIHandler) ListSignals(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	if p := c.Query("pair"); p != "" {
		pair, err := market.ParsePair(p)
		if err != nil {
			h.handleValidationError(c, err)
			return
		}
		sigs, err := h.history.ByPair(ctx, pair, limit)
		if err != nil {
			h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, sigs)
		return
	}

	sigs, err := h.history.Recent(ctx, limit)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, sigs)
}

// GetSignal handles GET /signals/:id.
func (h *APIHandler) GetSignal(c *gin.Context) {
	sig, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, history.ErrNotFound) {
		h.handleError(c, err, http.StatusNotFound, "signal not found")
		return
	}
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, sig)
}

type refreshRequest struct {
	Pairs []market.Pair `json:"pairs"`
}

// RefreshSignals handles POST /signals/refresh. The body is optional; an
// empty pair list refreshes the preferred pairs.
func (h *APIHandler) RefreshSignals(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.handleValidationError(c, err)
		return
	}

	res, err := h.scanner.Run(ctx, req.Pairs)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "refresh failed")
		return
	}

	failures := make([]gin.H, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, gin.H{"pair": f.Pair.String(), "error": f.Err.Error()})
	}

	c.JSON(http.StatusOK, gin.H{
		"cycle_id": res.CycleID,
		"signals":  res.Signals,
		"failures": failures,
	})
}

// GetSnapshot handles GET /snapshot?pair=EUR/USD.
func (h *APIHandler) GetSnapshot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	pair, err := market.ParsePair(c.Query("pair"))
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	snap, ok, err := h.scanner.Snapshot(ctx, pair)
	if err != nil {
		h.handleError(c, err, http.StatusBadGateway, "market data unavailable")
		return
	}

	resp := gin.H{"pair": pair.String(), "ready": ok}
	if ok {
		resp["snapshot"] = snap
	} else {
		resp["snapshot"] = (*indicators.Snapshot)(nil)
	}
	c.JSON(http.StatusOK, resp)
}

// GetSettings handles GET /settings.
func (h *APIHandler) GetSettings(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSettings handles PUT /settings with a partial settings document.
func (h *APIHandler) UpdateSettings(c *gin.Context) {
	var p settings.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.handleValidationError(c, err)
		return
	}

	s, err := h.settings.Update(c.Request.Context(), p)
	if errors.Is(err, settings.ErrInvalid) {
		h.handleValidationError(c, err)
		return
	}
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, s)
}

// ResetSettings handles POST /settings/reset.
func (h *APIHandler) ResetSettings(c *gin.Context) {
	s, err := h.settings.Reset(c.Request.Context())
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, s)
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return history.DefaultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}

// handleError logs the error and sends the HTTP response.
func (h *APIHandler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	requestIDStr := "unknown"
	if v, ok := c.Get(RequestIDContextKey); ok {
		if id, ok := v.(string); ok {
			requestIDStr = id
		}
	}

	h.logger.Error("API error",
		slog.String("request_id", requestIDStr),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
	)

	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": requestIDStr,
	})
}

func (h *APIHandler) handleValidationError(c *gin.Context, err error) {
	h.handleError(c, err, http.StatusBadRequest, err.Error())
}
