package middleware

import (
	"strconv"

	"github.com/crafthaven/crafthaven/app/controllers"
	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware resolves the acting user for every request. The edge
// proxy terminates authentication and forwards the identity as X-User-ID; this
// middleware parses it once into request locals so handlers never touch the
// header themselves. An absent or unparsable header leaves the request
// anonymous, it never rejects.
func UserContextMiddleware(c *fiber.Ctx) error {
	if raw := c.Get("X-User-ID"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil && id > 0 {
			c.Locals(controllers.USER_ID, uint(id))
		}
	}
	return c.Next()
}
