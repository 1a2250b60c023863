package middleware

import (
	"birthpad-backend/internal/constants"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizeAction checks the verified actor's role against ActionRoles.
// Unconfigured action -> 500 "Permission configuration error"; role too low -> 403.
func AuthorizeAction(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		if !ok {
			return response.Fail(c, domain.ErrUnauthenticated)
		}
		if _, ok := constants.ActionRoles[action]; !ok {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if !constants.AllowedRole(action, actor.Role) {
			return response.Fail(c, domain.ErrInsufficientRole)
		}
		return c.Next()
	}
}
