package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fqms/fees-queue-api/internal/service"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
	"github.com/fqms/fees-queue-api/pkg/response"
)

// StudentHandler serves the student-facing queue endpoints.
type StudentHandler struct {
	queue *service.QueueService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(queue *service.QueueService) *StudentHandler {
	return &StudentHandler{queue: queue}
}

// Dashboard godoc
// @Summary Student dashboard
// @Description Aggregate payment totals and current queue standing
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *StudentHandler) Dashboard(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dashboard, cached, err := h.queue.StudentDashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil, map[string]interface{}{"cache_hit": cached})
}

// Enqueue godoc
// @Summary Join a payment queue
// @Description Create a payment request and enter the counter's queue
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EnqueueRequest true "Enqueue payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/payments [post]
func (h *StudentHandler) Enqueue(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enqueue payload"))
		return
	}

	result, err := h.queue.Enqueue(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// MyQueue godoc
// @Summary Student queue entries
// @Description List the student's active and recent queue entries
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/payments/queue [get]
func (h *StudentHandler) MyQueue(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entries, err := h.queue.QueueForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}
