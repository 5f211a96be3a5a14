package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fqms/fees-queue-api/internal/models"
	"github.com/fqms/fees-queue-api/internal/service"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
	"github.com/fqms/fees-queue-api/pkg/response"
)

// PaymentHandler serves payment completion and receipts.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Process godoc
// @Summary Process payment
// @Description Complete the payment for a queue entry and issue a receipt
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ProcessRequest true "Process payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/process [post]
func (h *PaymentHandler) Process(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid process payload"))
		return
	}

	receipt, err := h.payments.Process(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, receipt, nil)
}

// Receipt godoc
// @Summary Payment receipt
// @Description Return the receipt for a completed payment
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	receipt, err := h.payments.Receipt(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role == models.RoleStudent)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, receipt, nil)
}

// ReceiptPDF godoc
// @Summary Payment receipt PDF
// @Description Download the receipt for a completed payment as a PDF
// @Tags Payments
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/{id}/receipt.pdf [get]
func (h *PaymentHandler) ReceiptPDF(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdf, receiptNumber, err := h.payments.ReceiptPDF(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role == models.RoleStudent)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", receiptNumber))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
