package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/dto"
)

// Event types the payment provider is expected to send. Anything else is
// rejected so a misconfigured provider shows up as 400s instead of silent
// acks.
var recognizedPaymentEvents = map[string]bool{
	"payment.succeeded":      true,
	"payment.failed":         true,
	"subscription.created":   true,
	"subscription.updated":   true,
	"subscription.cancelled": true,
}

// WebhookHandler acknowledges payment-provider callbacks. Billing itself
// lives outside this service; the endpoint only has to exist and accept
// recognized events.
type WebhookHandler struct{}

func NewWebhookHandler() *WebhookHandler {
	return &WebhookHandler{}
}

func (h *WebhookHandler) HandlePayment(c *fiber.Ctx) error {
	var webhook dto.PaymentWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return badRequest(c, "Invalid webhook payload")
	}

	if !recognizedPaymentEvents[webhook.Type] {
		return badRequest(c, "Unrecognized event type")
	}

	slog.Info("payment webhook received", "event_type", webhook.Type, "event_id", webhook.ID)
	return c.JSON(fiber.Map{"received": true})
}
