package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/trafficstat/internal/shared/logger"
	"github.com/orris-inc/trafficstat/internal/shared/version"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type healthCheck struct {
	name  string
	check CheckFunc
}

// HealthHandler serves GET /healthz. The process is healthy when every
// registered check passes within the timeout.
type HealthHandler struct {
	checks  []healthCheck
	timeout time.Duration
	logger  logger.Interface
}

func NewHealthHandler(timeout time.Duration, logger logger.Interface) *HealthHandler {
	return &HealthHandler{timeout: timeout, logger: logger}
}

// AddCheck registers a dependency probe. Checks run in registration order.
func (h *HealthHandler) AddCheck(name string, check CheckFunc) {
	h.checks = append(h.checks, healthCheck{name: name, check: check})
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(gin.H, len(h.checks))
	for _, hc := range h.checks {
		if err := hc.check(ctx); err != nil {
			h.logger.Warnw("health check failed", "check", hc.name, "error", err)
			results[hc.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[hc.name] = "ok"
	}

	body := gin.H{
		"status":  "healthy",
		"version": version.String(),
		"checks":  results,
	}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}
	c.JSON(status, body)
}
