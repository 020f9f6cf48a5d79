package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chenglin1712/deming-rollcall/internal/service"
)

type healthChecker interface {
	DatabaseVersion(ctx context.Context) (string, error)
	Ready(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	health  healthChecker
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, health healthChecker) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, health: health}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 until the database and cache answer.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if err := h.health.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// CheckConnection godoc
// @Summary Database connectivity
// @Description Report whether the database answers and its engine version
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/check-connection [get]
func (h *MetricsHandler) CheckConnection(c *gin.Context) {
	version, err := h.health.DatabaseVersion(c.Request.Context())
	c.Header("Cache-Control", "no-store")
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"connected": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "version": version})
}
