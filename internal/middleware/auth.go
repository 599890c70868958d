package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/compliance-registry/internal/services"
	"github.com/localnerve/compliance-registry/internal/types"
)

// AuthRequired validates the Authorization bearer token against the session
// store and attaches the resolved identity to the request context.
func AuthRequired(sessions *services.SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: "Missing bearer token",
				Type:    "auth.authorization",
			}
		}

		user, ok := sessions.Get(token)
		if !ok {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: "Invalid or expired session",
				Type:    "auth.authorization",
			}
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// BearerToken extracts the bearer token from the Authorization header, or ""
func BearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
