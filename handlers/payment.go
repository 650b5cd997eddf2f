package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"tripnest/services/payment"
	"tripnest/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes payment initiation, verification, and status.
type PaymentHandler struct {
	Svc payment.Service
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{Svc: svc}
}

type initiatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// InitiatePayment handles POST /api/payments/initiate.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	userID := c.GetString("userID")
	res, err := h.Svc.Initiate(c.Request.Context(), req.BookingID, userID)
	if err != nil {
		writePaymentError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":               "Payment initiated successfully",
		"payment_id":            res.PaymentID,
		"checkout_url":          res.CheckoutURL,
		"transaction_reference": res.TxRef,
	})
}

// VerifyPayment handles GET|POST /api/payments/verify. It is the gateway's
// callback and therefore unauthenticated; the tx_ref comes from the query
// string or the JSON body.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	txRef := c.Query("tx_ref")
	if txRef == "" {
		var body struct {
			TxRef string `json:"tx_ref"`
		}
		// Body may legitimately be absent on GET callbacks.
		_ = c.ShouldBindJSON(&body)
		txRef = body.TxRef
	}

	outcome, err := h.Svc.Verify(c.Request.Context(), txRef)
	if err != nil {
		// Gateway refusals surface as 400 with the provider payload attached.
		writePaymentError(c, err, http.StatusBadRequest)
		return
	}

	if !outcome.Completed {
		c.JSON(http.StatusBadRequest, gin.H{
			"message":        "Payment verification failed",
			"payment_status": outcome.Status,
			"details":        outcome.Details,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Payment verified and completed successfully",
		"payment_status": outcome.Status,
		"booking_id":     outcome.BookingID,
		"amount":         fmt.Sprintf("%.2f", outcome.Amount),
	})
}

// PaymentStatus handles GET /api/payments/:payment_id/status.
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	paymentID := c.Param("payment_id")
	userID := c.GetString("userID")

	pay, err := h.Svc.Status(c.Request.Context(), paymentID, userID)
	if err != nil {
		writePaymentError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":     pay.ID,
		"booking_id":     pay.BookingID,
		"amount":         fmt.Sprintf("%.2f", pay.Amount),
		"currency":       pay.Currency,
		"status":         pay.Status,
		"transaction_id": pay.TxRef,
		"created_at":     pay.CreatedAt,
		"updated_at":     pay.UpdatedAt,
	})
}

// writePaymentError maps the payment error taxonomy onto HTTP statuses.
// gatewayStatus decides where gateway failures land: 500 on initiation,
// 400 on verification callbacks.
func writePaymentError(c *gin.Context, err error, gatewayStatus int) {
	var pe *payment.Error
	if !errors.As(err, &pe) {
		utils.JSONError(c, http.StatusInternalServerError, "unexpected error", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch pe.Code {
	case payment.CodeNotFound:
		status = http.StatusNotFound
	case payment.CodeUnauthorized:
		status = http.StatusForbidden
	case payment.CodeDuplicatePayment, payment.CodeInvalidRequest:
		status = http.StatusBadRequest
	case payment.CodeConflict:
		status = http.StatusConflict
	case payment.CodeGateway:
		status = gatewayStatus
	}

	utils.JSONError(c, status, pe.Message, pe.Details)
}
