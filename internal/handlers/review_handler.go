package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service *services.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers the review routes, both top level and nested
// under a product. router must already require authentication.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router) {
	adminOnly := middleware.RestrictTo(models.RoleAdmin)

	reviewRoutes := router.Group("/reviews")
	reviewRoutes.Get("/", h.HandleGetReviews)
	reviewRoutes.Post("/", h.HandleCreateReview)
	reviewRoutes.Get("/:id", h.HandleGetReview)
	reviewRoutes.Patch("/:id", adminOnly, h.HandleUpdateReview)
	reviewRoutes.Delete("/:id", adminOnly, h.HandleDeleteReview)

	productReviews := router.Group("/products/:productId/reviews")
	productReviews.Get("/", h.HandleGetReviews)
	productReviews.Post("/", h.HandleCreateReview)
}

// HandleGetReviews lists reviews, scoped to the product in the path and the
// optional product and user query parameters.
func (h *ReviewHandler) HandleGetReviews(c *fiber.Ctx) error {
	filter := repositories.ReviewFilter{
		ProductID: c.Params("productId", c.Query("product")),
		UserID:    c.Query("user"),
	}
	reviews, err := h.service.ListReviews(c.UserContext(), filter)
	if err != nil {
		return sendError(c, err)
	}
	return sendList(c, len(reviews), reviews)
}

// HandleCreateReview stores a review written by the caller.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var input services.ReviewInput
	if err := parseBody(c, &input); err != nil {
		return sendError(c, err)
	}
	review, err := h.service.CreateReview(c.UserContext(), middleware.Requester(c), c.Params("productId"), input)
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusCreated, review)
}

// HandleGetReview retrieves a single review.
func (h *ReviewHandler) HandleGetReview(c *fiber.Ctx) error {
	review, err := h.service.GetReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, review)
}

// HandleUpdateReview overwrites a review's rating and content.
func (h *ReviewHandler) HandleUpdateReview(c *fiber.Ctx) error {
	var input services.ReviewInput
	if err := parseBody(c, &input); err != nil {
		return sendError(c, err)
	}
	review, err := h.service.UpdateReview(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, review)
}

// HandleDeleteReview removes a review.
func (h *ReviewHandler) HandleDeleteReview(c *fiber.Ctx) error {
	if err := h.service.DeleteReview(c.UserContext(), c.Params("id")); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
