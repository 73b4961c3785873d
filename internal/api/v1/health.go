package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/ratelimit"
	"github.com/billforge/billforge/internal/service"
)

type HealthHandler struct {
	deadLetter service.DeadLetterService
	limiter    *ratelimit.Limiter
	logger     *logger.Logger
}

func NewHealthHandler(
	deadLetter service.DeadLetterService,
	limiter *ratelimit.Limiter,
	logger *logger.Logger,
) *HealthHandler {
	return &HealthHandler{
		deadLetter: deadLetter,
		limiter:    limiter,
		logger:     logger,
	}
}

// unresolvedBacklogThreshold is the dead letter backlog above which the
// service reports itself degraded
const unresolvedBacklogThreshold = 100

// Health reports service liveness plus the operational signals worth
// watching between runs: remaining rate limit tokens and the unresolved
// dead letter backlog.
func (h *HealthHandler) Health(c *gin.Context) {
	unresolved, err := h.deadLetter.CountUnresolved(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to count unresolved dead letter entries", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
		})
		return
	}

	status := "ok"
	code := http.StatusOK
	if unresolved > unresolvedBacklogThreshold {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"rate_limits": gin.H{
			"api_tokens":     h.limiter.APITokens(),
			"payment_tokens": h.limiter.PaymentTokens(),
			"job_tokens":     h.limiter.JobTokens(),
		},
		"dead_letter": gin.H{
			"unresolved": unresolved,
		},
	})
}
