package handlers

import (
	"net/http"

	"medislot/models"
	"medislot/services/payment"
	"medislot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Service payment.PaymentService
}

func NewPaymentHandler(svc payment.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: svc}
}

func (h *PaymentHandler) CreateOrderHandler(c *gin.Context) {
	patientID, ok := callerID(c)
	if !ok {
		return
	}

	order, err := h.Service.CreateOrder(c.Request.Context(), patientID, c.Param("appointmentId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// VerifyPaymentHandler checks the checkout signature. A mismatch marks the payment
// Failed and answers 400.
func (h *PaymentHandler) VerifyPaymentHandler(c *gin.Context) {
	patientID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	appointmentID := c.Param("appointmentId")
	if err := h.Service.Verify(c.Request.Context(), patientID, appointmentID, req); err != nil {
		if utils.IsKind(err, utils.KindSignatureMismatch) {
			utils.GetLogger().Warn("Payment signature mismatch", zap.String("appointmentID", appointmentID))
		}
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PaymentHandler) PaymentStatusHandler(c *gin.Context) {
	patientID, ok := callerID(c)
	if !ok {
		return
	}

	view, err := h.Service.Status(c.Request.Context(), patientID, c.Param("appointmentId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *PaymentHandler) RefundPaymentHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	appt, err := h.Service.Refund(c.Request.Context(), userID, c.Param("appointmentId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment refunded", "appointment": appt})
}
