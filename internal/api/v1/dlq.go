package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/billforge/billforge/internal/api/dto"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/service"
)

type DeadLetterHandler struct {
	service service.DeadLetterService
	log     *logger.Logger
}

func NewDeadLetterHandler(service service.DeadLetterService, log *logger.Logger) *DeadLetterHandler {
	return &DeadLetterHandler{service: service, log: log}
}

// ListUnresolved returns unresolved dead letter entries, oldest first,
// optionally scoped to one billing run via the run_id query parameter
func (h *DeadLetterHandler) ListUnresolved(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	runID := c.Query("run_id")

	entries, err := h.service.ListUnresolved(c.Request.Context(), runID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	count, err := h.service.CountUnresolved(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": entries,
		"total": count,
	})
}

// Resolve marks one dead letter entry as handled
func (h *DeadLetterHandler) Resolve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Dead letter entry ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.ResolveDeadLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind resolve request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.service.Resolve(c.Request.Context(), id, req.ResolvedBy, req.Notes); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
