package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fqms/fees-queue-api/internal/service"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
	"github.com/fqms/fees-queue-api/pkg/response"
)

// QueueHandler serves the accountant-facing queue endpoints.
type QueueHandler struct {
	queue    *service.QueueService
	payments *service.PaymentService
}

// NewQueueHandler creates a new handler.
func NewQueueHandler(queue *service.QueueService, payments *service.PaymentService) *QueueHandler {
	return &QueueHandler{queue: queue, payments: payments}
}

// CounterQueue godoc
// @Summary Counter queue
// @Description List active entries for a counter in serving order
// @Tags Queue
// @Produce json
// @Security BearerAuth
// @Param id path string true "Counter ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /queue/counter/{id} [get]
func (h *QueueHandler) CounterQueue(c *gin.Context) {
	entries, err := h.queue.QueueForCounter(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	current, err := h.queue.CurrentOfCounter(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := gin.H{"queue": entries, "current": current, "queue_count": len(entries)}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Stats godoc
// @Summary Counter statistics
// @Description Waiting count, processed count and revenue for today
// @Tags Queue
// @Produce json
// @Security BearerAuth
// @Param id path string true "Counter ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /queue/stats/{id} [get]
func (h *QueueHandler) Stats(c *gin.Context) {
	stats, cached, err := h.queue.StatsForCounter(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil, map[string]interface{}{"cache_hit": cached})
}

// Skip godoc
// @Summary Skip queue entry
// @Description Move an entry to the back of its counter's queue
// @Tags Queue
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SkipRequest true "Skip payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /queue/skip [post]
func (h *QueueHandler) Skip(c *gin.Context) {
	var req service.SkipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid skip payload"))
		return
	}

	result, err := h.payments.Skip(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Remove godoc
// @Summary Remove queue entry
// @Description Drop an entry from the queue with a reason
// @Tags Queue
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RemoveRequest true "Remove payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /queue/remove [post]
func (h *QueueHandler) Remove(c *gin.Context) {
	var req service.RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid remove payload"))
		return
	}

	if err := h.payments.Remove(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
