package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/circuitbreaker"
	"github.com/isaacmuchunu/poam-sub001/internal/healthcheck"
)

// SystemHandler serves operational endpoints: health and the quota store breaker.
type SystemHandler struct {
	checker *healthcheck.Checker
	breaker *circuitbreaker.CircuitBreaker
	version string
}

func NewSystemHandler(checker *healthcheck.Checker, breaker *circuitbreaker.CircuitBreaker, version string) *SystemHandler {
	return &SystemHandler{
		checker: checker,
		breaker: breaker,
		version: version,
	}
}

func (h *SystemHandler) Health(c *gin.Context) {
	overall := h.checker.OverallHealth()

	statusCode := http.StatusOK
	if overall == healthcheck.Unhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":  overall.String(),
		"service": "poamd",
		"version": h.version,
		"checks":  h.checker.GetAllStatus(),
	})
}

// BreakerStatus returns the quota store circuit breaker state
func (h *SystemHandler) BreakerStatus(c *gin.Context) {
	metrics := h.breaker.Metrics()

	c.JSON(http.StatusOK, gin.H{
		"state":             metrics.State.String(),
		"failure_count":     metrics.FailureCount,
		"success_count":     metrics.SuccessCount,
		"last_failure_time": metrics.LastFailureTime,
		"last_state_change": metrics.LastStateChange,
	})
}

// Manually closes the quota store circuit breaker
func (h *SystemHandler) ResetBreaker(c *gin.Context) {
	h.breaker.Reset()

	c.JSON(http.StatusOK, gin.H{
		"message": "Circuit breaker reset",
		"state":   h.breaker.State().String(),
	})
}
