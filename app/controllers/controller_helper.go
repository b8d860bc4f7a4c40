package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// USER_ID is the request-local key the upstream auth layer sets.
const USER_ID = "user_id"

// currentUserID resolves the acting user from request locals, falling back to
// the X-User-ID header the edge proxy injects. Zero means unauthenticated.
func currentUserID(c *fiber.Ctx) uint {
	if v := c.Locals(USER_ID); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	if raw := c.Get("X-User-ID"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			return uint(id)
		}
	}
	return 0
}

// jsonError is the uniform error envelope for the JSON API.
func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
