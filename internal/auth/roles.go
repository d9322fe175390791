package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportec/triage-service/internal/domain"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// RequireRole ensures the principal has one of the allowed roles. With
// no arguments it only requires authentication.
func RequireRole(allowed ...domain.TechnicianRole) fiber.Handler {
	allowedSet := make(map[domain.TechnicianRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Technician.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin restricts the route to administrators.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
