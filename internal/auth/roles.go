package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ticketd/ticketd/pkg/util"
)

// RequireUser ensures the caller is authenticated. The user-facing
// ticket routes are owner-scoped in the handlers.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller has the admin flag.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Admin() {
			return apperrors.NewForbidden("admin access required")
		}
		return c.Next()
	}
}
