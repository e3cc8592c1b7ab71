package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yuleihq/branchsite/internal/pkg/identity"
	"github.com/yuleihq/branchsite/internal/pkg/tenantcontext"
)

// AdminAuthMiddleware authenticates administrative requests through the
// injected identity resolver. The token is opaque; only the resolved subject
// id is kept for the request.
func AdminAuthMiddleware(resolver identity.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing token"})
		}

		subject, err := resolver.Verify(c.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid token"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Token verification failed"})
		}

		c.Locals(tenantcontext.KeySubjectID, subject)
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(c.Get("X-Admin-Token"))
}
