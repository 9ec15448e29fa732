package transport

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/courtsidehq/booking-server/internal/payments"
	"github.com/courtsidehq/booking-server/internal/service"
)

// Stripe caps webhook payloads well below this; anything larger is junk.
const maxWebhookBodyBytes = 64 * 1024

type WebhookHandler struct {
	gateway        payments.Gateway
	webhookService service.WebhookService
	logger         *logrus.Logger
}

func NewWebhookHandler(gateway payments.Gateway, webhookService service.WebhookService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		gateway:        gateway,
		webhookService: webhookService,
		logger:         logger,
	}
}

// HandlePaymentWebhook verifies the gateway signature over the raw body
// before anything else touches the payload. Processing failures answer 500
// so the gateway redelivers; unrecognized event types are acknowledged.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}

	event, err := h.gateway.VerifyWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.WithError(err).Warn("webhook signature verification failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "signature verification failed"})
		return
	}

	if err := h.webhookService.Process(c.Request.Context(), event); err != nil {
		h.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).WithError(err).Error("webhook processing failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
