package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker reports the availability of the service dependencies.
type HealthChecker struct {
	infra Infrastructure
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{infra: infra}
}

// Handler responds with per-dependency status, 503 when any is down.
func (h *HealthChecker) Handler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if err := h.infra.Postgres().Ping(); err != nil {
		checks["postgres"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["postgres"] = "up"
	}

	if err := h.infra.Redis().Ping(ctx); err != nil {
		checks["redis"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["redis"] = "up"
	}

	if err := h.infra.Broker().Ping(ctx); err != nil {
		checks["rabbitmq"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["rabbitmq"] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}
