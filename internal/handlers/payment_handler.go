package handlers

import (
	"errors"
	"log"

	"momopay/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles HTTP requests for payment intents.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the payment routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/charge", h.HandleCharge)
}

// ChargeRequest is the body of a payment intent creation call. Any
// client-supplied amount is deliberately absent: the amount always comes
// from the order.
type ChargeRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
}

// HandleCharge creates a payment intent for an order. The Idempotency-Key
// header is required; replays with the same key return the existing
// payment with 200 instead of creating another row.
func (h *PaymentHandler) HandleCharge(c *fiber.Ctx) error {
	idempotencyKey := c.Get("Idempotency-Key")
	if idempotencyKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Idempotency-Key header is required",
		})
	}

	var req ChargeRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing charge request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	payment, created, err := h.service.CreateCharge(req.OrderID, idempotencyKey)
	if err != nil {
		log.Printf("Error creating charge for order %s: %v", req.OrderID, err)
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create charge",
			"error":   err.Error(),
		})
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(payment)
}
