package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"momopay/internal/services"
	"momopay/internal/signature"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler handles provider payment notifications.
//
// Order of operations matters: the signature is verified over the raw
// body before anything touches the database, so unauthenticated payloads
// never reach the state machine.
type WebhookHandler struct {
	verifier *signature.Verifier
	service  *services.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier *signature.Verifier, service *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, service: service}
}

// RegisterRoutes registers the webhook routes with the Fiber app.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhooks/momo", h.HandleMomoWebhook)
}

// HandleMomoWebhook processes a MoMo payment notification.
func (h *WebhookHandler) HandleMomoWebhook(c *fiber.Ctx) error {
	rawBody := c.Body()
	presented := c.Get("X-Momo-Signature")

	if err := h.verifier.Verify(rawBody, presented); err != nil {
		if errors.Is(err, signature.ErrMalformedPayload) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON payload",
			})
		}
		log.Printf("Invalid signature on momo webhook: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid signature",
		})
	}

	var notification services.WebhookNotification
	if err := json.Unmarshal(rawBody, &notification); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON payload",
		})
	}
	if notification.ProviderReference == "" {
		log.Printf("Missing provider_reference in momo webhook payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing provider_reference",
		})
	}

	processed, err := h.service.ProcessNotification(notification)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			log.Printf("Payment record not found for order %s", notification.OrderID)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Payment record not found",
			})
		case errors.Is(err, services.ErrUnknownProviderStatus):
			log.Printf("Unknown provider status %q in momo webhook", notification.Status)
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Unknown provider status",
			})
		default:
			log.Printf("Error processing momo webhook: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not process webhook",
			})
		}
	}

	if !processed {
		// Redelivery of an already-applied transaction: acknowledge so
		// the provider stops retrying.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Payment already processed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Payment webhook processed successfully",
	})
}
