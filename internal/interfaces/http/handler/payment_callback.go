package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	billingapp "github.com/renovate/backend/internal/application/billing"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/renovate/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// PaymentCallbackHandler handles card processor webhook endpoints.
// These are called by the processor, not by users, and carry their own
// signature-based authentication.
type PaymentCallbackHandler struct {
	BaseHandler
	paymentSvc *billingapp.PaymentService
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler
func NewPaymentCallbackHandler(paymentSvc *billingapp.PaymentService) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{paymentSvc: paymentSvc}
}

// RegisterRoutes registers the callback routes
func (h *PaymentCallbackHandler) RegisterRoutes(rg *gin.RouterGroup) {
	callbacks := rg.Group("/payment/callback")
	{
		callbacks.POST("/stripe", h.HandleStripeCallback)
	}
}

// HandleStripeCallback receives and processes a Stripe webhook.
// The processor retries on any non-2xx response, so verification failures
// return 400 and everything after successful verification returns 200 even
// when the event is a replay.
func (h *PaymentCallbackHandler) HandleStripeCallback(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		h.BadRequest(c, "failed to read request body")
		return
	}
	signature := c.GetHeader("Stripe-Signature")

	if err := h.paymentSvc.HandlePaymentCallback(c.Request.Context(), payload, signature); err != nil {
		logger.GetGinLogger(c).Warn("stripe callback rejected", zap.Error(err))
		status := http.StatusBadRequest
		if errors.Is(err, shared.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"received": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
