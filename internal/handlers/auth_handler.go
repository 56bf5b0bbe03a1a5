package handlers

import (
	"log"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the authentication routes. Register and login are
// public; logout and the profile need a valid token.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)

	protected := authRoutes.Group("", middleware.AuthRequired(h.authService))
	protected.Post("/logout", h.HandleLogout)
	protected.Get("/me", h.HandleMe)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := parseBody(c, &user); err != nil {
		return sendError(c, err)
	}
	user.ID = ""

	if err := h.authService.RegisterUser(c.UserContext(), &user); err != nil {
		log.Printf("Error registering user: %v", err)
		return sendError(c, err)
	}

	// For security, do not return the password hash
	user.Password = ""
	return sendData(c, fiber.StatusCreated, user)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return sendError(c, err)
	}

	result, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for %s: %v", req.Email, err)
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"token":  result.Token,
		"data":   fiber.Map{"user": result.User},
	})
}

// HandleLogout revokes the token that authenticated the request.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	tokenID, expiresAt := middleware.TokenID(c)
	if err := h.authService.Logout(c.UserContext(), tokenID, expiresAt); err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// HandleMe returns the caller's profile.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(c.UserContext(), middleware.Requester(c).UserID)
	if err != nil {
		return sendError(c, err)
	}
	return sendData(c, fiber.StatusOK, user)
}
