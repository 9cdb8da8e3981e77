package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"checkoutbridge/internal/service"
)

const (
	stripeSignatureHeader = "Stripe-Signature"

	// maxWebhookBody is the largest event payload accepted.
	maxWebhookBody = 64 << 10
)

// WebhookHandler receives payment provider notifications.
type WebhookHandler struct {
	webhookService *service.WebhookService
	logger         *logrus.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookService *service.WebhookService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService, logger: logger}
}

// HandleStripe handles POST /webhooks/stripe
//
// The body is read unparsed since the signature covers the exact bytes.
// Any verified event is acknowledged, even if applying it failed.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("unreadable webhook body")
		c.String(http.StatusBadRequest, "Webhook Error: unreadable body")
		return
	}

	event, err := h.webhookService.Verify(payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("webhook verification failed")
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	outcome := h.webhookService.HandleEvent(ctx, event)
	h.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"outcome":    outcome,
	}).Info("webhook handled")

	c.JSON(http.StatusOK, gin.H{"received": true})
}
