package handler

import (
	"go-shop-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a seller or admin.
// POST /api/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Username and password are required"})
	}

	response, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(response)
}

// Me returns the authenticated user; the frontend calls this at startup to
// check whether the stored token is still valid.
// GET /api/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, ok := getUserID(c)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	user, err := h.userService.GetByID(id)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

// Ping is an unauthenticated liveness probe.
// GET /api/ping
func (h *AuthHandler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}
