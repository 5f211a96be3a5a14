package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fqms/fees-queue-api/internal/service"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
	"github.com/fqms/fees-queue-api/pkg/response"
)

// CounterHandler serves counter and fee-type administration.
type CounterHandler struct {
	counters *service.CounterService
}

// NewCounterHandler creates a new handler.
func NewCounterHandler(counters *service.CounterService) *CounterHandler {
	return &CounterHandler{counters: counters}
}

// List godoc
// @Summary List counters
// @Description All counters with their assigned accountants
// @Tags Counters
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /counters [get]
func (h *CounterHandler) List(c *gin.Context) {
	counters, err := h.counters.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, counters, nil)
}

// Get godoc
// @Summary Counter detail
// @Tags Counters
// @Produce json
// @Security BearerAuth
// @Param id path string true "Counter ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /counters/{id} [get]
func (h *CounterHandler) Get(c *gin.Context) {
	counter, err := h.counters.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, counter, nil)
}

// Create godoc
// @Summary Create counter
// @Tags Counters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateCounterRequest true "Counter payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /counters [post]
func (h *CounterHandler) Create(c *gin.Context) {
	var req service.CreateCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid counter payload"))
		return
	}

	counter, err := h.counters.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, counter)
}

// SetActive godoc
// @Summary Open or close counter
// @Tags Counters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Counter ID"
// @Param payload body service.SetCounterActiveRequest true "Active flag"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /counters/{id}/active [patch]
func (h *CounterHandler) SetActive(c *gin.Context) {
	var req service.SetCounterActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.counters.SetActive(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// AssignAccountant godoc
// @Summary Assign accountant to counter
// @Tags Counters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Counter ID"
// @Param payload body service.AssignAccountantRequest true "Assignment payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /counters/{id}/accountant [patch]
func (h *CounterHandler) AssignAccountant(c *gin.Context) {
	var req service.AssignAccountantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	if err := h.counters.AssignAccountant(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// FeeTypes godoc
// @Summary List fee types
// @Tags Counters
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /fee-types [get]
func (h *CounterHandler) FeeTypes(c *gin.Context) {
	feeTypes, err := h.counters.ListFeeTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, feeTypes, nil)
}

// AccountantMe godoc
// @Summary Current accountant profile
// @Tags Counters
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accountants/me [get]
func (h *CounterHandler) AccountantMe(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.counters.AccountantProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}
