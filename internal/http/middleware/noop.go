package middleware

import "github.com/gofiber/fiber/v2"

// Noop calls the next handler unchanged. Useful as a placeholder when a
// middleware slot is conditionally disabled.
func Noop() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
