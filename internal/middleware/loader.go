// Resource loaders. A loader fetches the entity named by the :id path
// parameter and attaches it to the request context under a type-specific key,
// where ownership policies and handlers pick it up. A malformed or unknown id
// yields 404. Loaders are the only data-access indirection in the pipeline
// and never enforce authorization.
package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/models"
)

// Locals keys for loaded resources, one per entity type.
const (
	userKey        = "loadedUser"
	teamKey        = "loadedTeam"
	playerKey      = "loadedPlayer"
	fantasyTeamKey = "loadedFantasyTeam"
	leagueKey      = "loadedLeague"
	webhookKey     = "loadedWebhook"
)

// load fetches a record of type T by the :id path parameter and stores a
// pointer to it under the given locals key. Both a malformed uuid and a
// missing row surface as 404 with the entity-specific message.
func load[T any](db *gorm.DB, key, notFound string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, notFound)
		}

		var record T
		if err := db.First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, notFound)
			}
			return err
		}

		c.Locals(key, &record)
		return c.Next()
	}
}

// LoadUser attaches the user identified by :id to the request context.
func LoadUser(db *gorm.DB) fiber.Handler {
	return load[models.User](db, userKey, "The user you requested does not exist.")
}

// LoadTeam attaches the team identified by :id to the request context.
func LoadTeam(db *gorm.DB) fiber.Handler {
	return load[models.Team](db, teamKey, "Team not found")
}

// LoadPlayer attaches the player identified by :id to the request context.
func LoadPlayer(db *gorm.DB) fiber.Handler {
	return load[models.Player](db, playerKey, "The player you requested does not exist.")
}

// LoadFantasyTeam attaches the fantasy team identified by :id to the request context.
func LoadFantasyTeam(db *gorm.DB) fiber.Handler {
	return load[models.FantasyTeam](db, fantasyTeamKey, "Fantasy team not found")
}

// LoadLeague attaches the league identified by :id to the request context.
func LoadLeague(db *gorm.DB) fiber.Handler {
	return load[models.League](db, leagueKey, "The league you requested does not exist.")
}

// LoadWebhook attaches the webhook identified by :id to the request context.
func LoadWebhook(db *gorm.DB) fiber.Handler {
	return load[models.Webhook](db, webhookKey, "Webhook not found.")
}

// Typed accessors for handlers and policies.

// UserFromContext returns the user attached by LoadUser.
func UserFromContext(c *fiber.Ctx) (*models.User, bool) {
	u, ok := c.Locals(userKey).(*models.User)
	return u, ok
}

// TeamFromContext returns the team attached by LoadTeam.
func TeamFromContext(c *fiber.Ctx) (*models.Team, bool) {
	t, ok := c.Locals(teamKey).(*models.Team)
	return t, ok
}

// PlayerFromContext returns the player attached by LoadPlayer.
func PlayerFromContext(c *fiber.Ctx) (*models.Player, bool) {
	p, ok := c.Locals(playerKey).(*models.Player)
	return p, ok
}

// FantasyTeamFromContext returns the fantasy team attached by LoadFantasyTeam.
func FantasyTeamFromContext(c *fiber.Ctx) (*models.FantasyTeam, bool) {
	f, ok := c.Locals(fantasyTeamKey).(*models.FantasyTeam)
	return f, ok
}

// LeagueFromContext returns the league attached by LoadLeague.
func LeagueFromContext(c *fiber.Ctx) (*models.League, bool) {
	l, ok := c.Locals(leagueKey).(*models.League)
	return l, ok
}

// WebhookFromContext returns the webhook attached by LoadWebhook.
func WebhookFromContext(c *fiber.Ctx) (*models.Webhook, bool) {
	w, ok := c.Locals(webhookKey).(*models.Webhook)
	return w, ok
}
