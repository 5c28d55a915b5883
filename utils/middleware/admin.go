package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/learnloop/api/utils/response"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader carries the back-office API key
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey gates back-office routes behind a static API key, checked
// against a bcrypt hash from configuration. User authentication is handled by
// the external identity provider; this is only the admin gate.
func RequireAdminKey(keyHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if keyHash == "" {
			return response.Forbidden(c, "Admin access is not configured")
		}

		key := c.Get(AdminKeyHeader)
		if key == "" {
			return response.Unauthorized(c, "Admin key required")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			return response.Forbidden(c, "Invalid admin key")
		}

		return c.Next()
	}
}
