package handlers

import (
	"storefront/internal/apperrors"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. router must already require
// authentication.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	adminOnly := middleware.RestrictTo(models.RoleAdmin)

	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", adminOnly, h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/mine", h.HandleGetMyOrders)
	orderRoutes.Get("/stats", adminOnly, h.HandleGetOrderStats)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id", adminOnly, h.HandleUpdateOrder)
	orderRoutes.Patch("/:id/accept", adminOnly, h.HandleAcceptOrder)
	orderRoutes.Patch("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Patch("/:id/complete", adminOnly, h.HandleCompleteOrder)
}

func listQuery(c *fiber.Ctx) services.ListQuery {
	return services.ListQuery{
		Status:        c.Query("orderStatus"),
		PaymentMethod: c.Query("paymentMethod"),
		Sort:          c.Query("sort"),
		Page:          c.QueryInt("page", 0),
		Limit:         c.QueryInt("limit", 0),
	}
}

func sendPage(c *fiber.Ctx, page *services.OrderPage) error {
	return c.JSON(fiber.Map{
		"status":      "success",
		"results":     len(page.Orders),
		"totalPages":  page.TotalPages,
		"currentPage": page.CurrentPage,
		"data":        fiber.Map{"data": page.Orders},
	})
}

// HandleGetOrders lists all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	page, err := h.service.ListOrders(c.UserContext(), listQuery(c))
	if err != nil {
		return sendError(c, err)
	}
	return sendPage(c, page)
}

// HandleGetMyOrders lists the orders of the caller.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	requester := middleware.Requester(c)
	page, err := h.service.ListOrdersForUser(c.UserContext(), requester.UserID, listQuery(c))
	if err != nil {
		return sendError(c, err)
	}
	return sendPage(c, page)
}

// HandleGetOrderByID retrieves a single order. Customers only see their own.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	requester := middleware.Requester(c)
	if !requester.IsAdmin() && order.UserID != requester.UserID {
		return sendError(c, apperrors.New(apperrors.ErrForbidden, "You do not have permission to view this order"))
	}
	return sendData(c, fiber.StatusOK, order)
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.CreateOrderInput
	if err := parseBody(c, &input); err != nil {
		return sendError(c, err)
	}
	order, err := h.service.CreateOrder(c.UserContext(), middleware.Requester(c).UserID, input)
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusCreated, order)
}

type updateOrderRequest struct {
	ShippingAddress *string               `json:"shippingAddress" validate:"omitempty,max=500"`
	Phone           *string               `json:"phone" validate:"omitempty,max=32"`
	PaymentResult   *models.PaymentResult `json:"paymentResult"`
}

// HandleUpdateOrder applies a generic patch to an order.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var req updateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return sendError(c, err)
	}
	order, err := h.service.UpdateOrder(c.UserContext(), c.Params("id"), repositories.OrderPatch{
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
		PaymentResult:   req.PaymentResult,
	})
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, order)
}

// HandleAcceptOrder moves an order to processing.
func (h *OrderHandler) HandleAcceptOrder(c *fiber.Ctx) error {
	order, err := h.service.AcceptOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, order)
}

// HandleCancelOrder marks an order failed.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.service.CancelOrder(c.UserContext(), c.Params("id"), middleware.Requester(c))
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, order)
}

// HandleCompleteOrder marks an order done.
func (h *OrderHandler) HandleCompleteOrder(c *fiber.Ctx) error {
	order, err := h.service.CompleteOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, order)
}

// HandleGetOrderStats returns the admin dashboard aggregation.
func (h *OrderHandler) HandleGetOrderStats(c *fiber.Ctx) error {
	stats, err := h.service.GetOrderStats(c.UserContext())
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   stats,
	})
}
