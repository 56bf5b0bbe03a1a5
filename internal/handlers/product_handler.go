package handlers

import (
	"storefront/internal/apperrors"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers the product routes. Reads are open to every
// signed in user, writes to admins.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	adminOnly := middleware.RestrictTo(models.RoleAdmin)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", adminOnly, h.HandleCreateProduct)
	productRoutes.Put("/:id", adminOnly, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", adminOnly, h.HandleDeleteProduct)
}

// HandleGetProducts lists the catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return sendError(c, err)
	}
	return sendList(c, len(products), products)
}

// HandleGetProductByID retrieves a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, product)
}

// HandleCreateProduct adds a product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := parseBody(c, &product); err != nil {
		return sendError(c, err)
	}
	product.ID = ""
	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusCreated, product)
}

// HandleUpdateProduct replaces a product's catalog fields.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := parseBody(c, &product); err != nil {
		return sendError(c, err)
	}
	product.ID = c.Params("id")
	if product.ID == "" {
		return sendError(c, apperrors.New(apperrors.ErrValidation, "Product ID is required"))
	}
	if err := h.service.UpdateProduct(c.UserContext(), &product); err != nil {
		return sendError(c, err)
	}
	updated, err := h.service.GetProductByID(c.UserContext(), product.ID)
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, updated)
}

// HandleDeleteProduct removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
