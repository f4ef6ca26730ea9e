package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// getUserID reads the authenticated user id set by the auth middleware.
func getUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

func isAdmin(c *fiber.Ctx) bool {
	admin, ok := c.Locals("is_admin").(bool)
	return ok && admin
}

// parseID parses a positive integer route parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
