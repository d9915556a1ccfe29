package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/debtcleaner/debtcleaner-api/internal/utils"
)

// Auth role constants used by the WithRole helper.
const (
	AuthRoleAny       = "any"
	AuthRoleStudent   = "student"
	AuthRoleProfessor = "professor"
	AuthRoleAdmin     = "admin"
)

// WithRole wraps a handler with a role guard. Admins pass every professor
// check; role checks assume Authenticate already ran.
func WithRole(handler fiber.Handler, role string) fiber.Handler {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = AuthRoleAny
	}

	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if role == AuthRoleAny {
			return handler(c)
		}

		currentRole := UserRole(c)
		switch role {
		case AuthRoleProfessor:
			if currentRole != AuthRoleProfessor && currentRole != AuthRoleAdmin {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		case AuthRoleAdmin:
			if currentRole != AuthRoleAdmin {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		default:
			if currentRole != role {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		}

		return handler(c)
	}
}
