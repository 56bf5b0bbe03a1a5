package handlers

import (
	"time"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles the PayPal checkout endpoints.
type PaymentHandler struct {
	service   *services.PaymentService
	rateLimit int
}

// NewPaymentHandler creates a new PaymentHandler allowing rateLimit requests
// per minute and client IP. A non-positive rateLimit disables limiting.
func NewPaymentHandler(service *services.PaymentService, rateLimit int) *PaymentHandler {
	return &PaymentHandler{service: service, rateLimit: rateLimit}
}

// RegisterRoutes registers the payment routes. router must already require
// authentication.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paypalRoutes := router.Group("/payments/paypal")
	if h.rateLimit > 0 {
		paypalRoutes.Use(limiter.New(limiter.Config{
			Max:        h.rateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"status":  "fail",
					"message": "Too many payment requests, please try again later",
				})
			},
		}))
	}
	paypalRoutes.Post("/orders", h.HandleCreatePayPalOrder)
	paypalRoutes.Post("/capture", h.HandleCapturePayment)
}

type createPayPalOrderRequest struct {
	OrderTotal decimal.Decimal `json:"orderTotal"`
}

// HandleCreatePayPalOrder opens a PayPal order for the cart total.
func (h *PaymentHandler) HandleCreatePayPalOrder(c *fiber.Ctx) error {
	var req createPayPalOrderRequest
	if err := parseBody(c, &req); err != nil {
		return sendError(c, err)
	}
	order, err := h.service.CreatePaymentOrder(c.UserContext(), middleware.Requester(c).UserID, req.OrderTotal)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   order,
	})
}

type capturePaymentRequest struct {
	OrderID string `json:"orderID" validate:"required"`
}

// HandleCapturePayment captures an approved PayPal order.
func (h *PaymentHandler) HandleCapturePayment(c *fiber.Ctx) error {
	var req capturePaymentRequest
	if err := parseBody(c, &req); err != nil {
		return sendError(c, err)
	}
	capture, err := h.service.CapturePayment(c.UserContext(), middleware.Requester(c).UserID, req.OrderID)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   capture,
	})
}
