package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/billforge/billforge/internal/api/dto"
	"github.com/billforge/billforge/internal/domain/history"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/service"
	"github.com/billforge/billforge/internal/types"
)

type BillingHandler struct {
	service service.RunService
	log     *logger.Logger
}

func NewBillingHandler(service service.RunService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{service: service, log: log}
}

// TriggerRun starts a billing run for the requested date and mode
func (h *BillingHandler) TriggerRun(c *gin.Context) {
	var req dto.TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind trigger request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	params, err := req.ToParams(types.GetCorrelationID(c.Request.Context()))
	if err != nil {
		c.Error(err)
		return
	}

	run, err := h.service.Trigger(c.Request.Context(), params)
	if err != nil {
		h.log.Errorw("failed to trigger billing run", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewRunResponse(run))
}

// GetRun returns a billing run by ID
func (h *BillingHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Billing run ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	run, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRunResponse(run))
}

// GetRunSummary returns the terminal summary of a billing run
func (h *BillingHandler) GetRunSummary(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Billing run ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetRunHistory returns the most recent history records of a run
func (h *BillingHandler) GetRunHistory(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Billing run ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	records, err := h.service.GetHistory(c.Request.Context(), id, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": lo.Map(records, func(r *history.Record, _ int) *dto.HistoryResponse {
			return dto.NewHistoryResponse(r)
		}),
	})
}
