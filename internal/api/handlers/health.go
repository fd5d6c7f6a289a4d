package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]ReadinessCheck
	timeout time.Duration
	now     func() time.Time
}

func NewHealthHandler(checks map[string]ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

// GetHealth returns basic health status - always returns 200 if server is running
// This is used for basic liveness probes
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"service":   "golf-prize-engine",
	})
}

// GetReady runs every readiness check and returns 503 if any fails.
func (h *HealthHandler) GetReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	results := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			ready = false
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": results})
}
