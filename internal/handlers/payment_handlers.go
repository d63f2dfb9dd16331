package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes payment registration and status changes.
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(s services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: s}
}

// ApplyPayment registers a payment against the order in the path.
func (h *PaymentHandler) ApplyPayment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ApplyPaymentRequest
	if !bindJSON(c, "ApplyPayment", &req) {
		return
	}
	result, err := h.paymentService.ApplyPayment(c.Request.Context(), orderID, req)
	if err != nil {
		respondServiceError(c, err, "ApplyPayment: Error from paymentService.ApplyPayment", "Failed to apply payment.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *PaymentHandler) GetPayments(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payments, err := h.paymentService.ListPayments(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "GetPayments: Error from paymentService.ListPayments", "Failed to fetch payments.")
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) GetPaymentByID(c *gin.Context) {
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		respondServiceError(c, err, "GetPaymentByID: Error from paymentService.GetPayment", "Failed to fetch payment.")
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePaymentStatusRequest
	if !bindJSON(c, "UpdatePaymentStatus", &req) {
		return
	}
	result, err := h.paymentService.UpdatePaymentStatus(c.Request.Context(), paymentID, req)
	if err != nil {
		respondServiceError(c, err, "UpdatePaymentStatus: Error from paymentService.UpdatePaymentStatus", "Failed to update payment status.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.paymentService.DeletePayment(c.Request.Context(), paymentID)
	if err != nil {
		respondServiceError(c, err, "DeletePayment: Error from paymentService.DeletePayment", "Failed to delete payment.")
		return
	}
	c.JSON(http.StatusOK, order)
}
