// Authorization policies. Each policy is an independent fiber.Handler that
// reads the verified Identity (and, for ownership, a loaded resource) and
// either passes the request on or fails with 403. Routes attach policies as
// an ordered list after Auth; the first failing policy short-circuits the
// chain, so no mutation runs for a denied request. A route with no attached
// policy is open to any authenticated caller.
package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fflapi/fantasy-league/internal/models"
)

// RequireRole allows only callers whose role matches one of the given roles.
// It must run after Auth, which populates the identity it reads.
func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "access denied")
		}

		for _, role := range roles {
			if identity.Role == role {
				return c.Next()
			}
		}

		return fiber.NewError(fiber.StatusForbidden, "Access denied. Admins only.")
	}
}

// RequireSelf allows only callers whose identity matches the :id path
// parameter. Users may modify their own account and nobody else's.
func RequireSelf() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok || identity.ID.String() != c.Params("id") {
			return fiber.NewError(fiber.StatusForbidden, "You cannot modify another user's data.")
		}
		return c.Next()
	}
}

// RequireFantasyTeamOwner allows only the owner of the loaded fantasy team.
// It must run after LoadFantasyTeam, which attaches the resource it checks.
func RequireFantasyTeamOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "access denied")
		}

		team, ok := FantasyTeamFromContext(c)
		if !ok || team.OwnerID != identity.ID {
			return fiber.NewError(fiber.StatusForbidden, "You cannot modify another user's fantasy team.")
		}

		return c.Next()
	}
}
