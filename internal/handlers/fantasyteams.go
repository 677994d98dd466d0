package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
	"github.com/fflapi/fantasy-league/internal/webhook"
)

const fantasyTeamsBase = "/fantasyTeams"

type fantasyTeamResponse struct {
	models.FantasyTeam
	Links Links `json:"links"`
}

// CreateFantasyTeamRequest is the JSON body for POST /fantasyTeams. The owner
// is always the authenticated caller; it cannot be set through the payload.
type CreateFantasyTeamRequest struct {
	TeamName string      `json:"teamName"`
	Players  []uuid.UUID `json:"players"`
}

// UpdateFantasyTeamRequest is the JSON body for PATCH /fantasyTeams/:id.
type UpdateFantasyTeamRequest struct {
	TeamName *string      `json:"teamName"`
	Players  *[]uuid.UUID `json:"players"`
}

// ScoreUpdatePayload is the body delivered to fantasyTeamScoreUpdate webhook
// subscribers.
type ScoreUpdatePayload struct {
	FantasyTeamID string `json:"fantasyTeamId"`
	NewTotalScore int    `json:"newTotalScore"`
}

// validateSquadRefs checks that ids form a valid squad and that every
// referenced player exists.
func validateSquadRefs(db *gorm.DB, ids []uuid.UUID) error {
	if !models.ValidSquad(ids) {
		return fiber.NewError(fiber.StatusBadRequest, "11 distinct players are required for the fantasy team.")
	}
	var count int64
	if err := db.Model(&models.Player{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(models.SquadSize) {
		return fiber.NewError(fiber.StatusBadRequest, "One or more referenced players do not exist.")
	}
	return nil
}

func playerRefs(ids []uuid.UUID) []models.Player {
	refs := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.Player{ID: id})
	}
	return refs
}

// GetAllFantasyTeams returns the handler for GET /fantasyTeams.
func GetAllFantasyTeams(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var teams []models.FantasyTeam
		if err := db.Find(&teams).Error; err != nil {
			return err
		}

		response := make([]fantasyTeamResponse, 0, len(teams))
		for _, t := range teams {
			response = append(response, fantasyTeamResponse{FantasyTeam: t, Links: resourceLinks(fantasyTeamsBase, t.ID)})
		}
		return c.JSON(response)
	}
}

// GetFantasyTeamByID returns the handler for GET /fantasyTeams/:id.
func GetFantasyTeamByID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.FantasyTeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		ref := fantasyTeamsBase + "/" + team.ID.String()
		return c.JSON(fantasyTeamResponse{FantasyTeam: *team, Links: Links{Update: ref, Delete: ref}})
	}
}

// GetFantasyTeamPlayers returns the handler for GET /fantasyTeams/:id/players.
func GetFantasyTeamPlayers(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.FantasyTeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var players []models.Player
		if err := db.Model(team).Association("Players").Find(&players); err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"teamName": team.TeamName,
			"players":  summarizePlayers(players),
		})
	}
}

// CreateFantasyTeam returns the handler for POST /fantasyTeams. Any
// authenticated user may create a team; it is owned by its creator and must
// reference exactly eleven distinct existing players.
func CreateFantasyTeam(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := middleware.CurrentIdentity(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		var req CreateFantasyTeamRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if req.TeamName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Fantasy team name is required.")
		}
		if err := validateSquadRefs(db, req.Players); err != nil {
			return err
		}

		team := models.FantasyTeam{
			TeamName: req.TeamName,
			OwnerID:  identity.ID,
		}
		if err := db.Omit("Players").Create(&team).Error; err != nil {
			return translateDBError(err, "Fantasy team already exists.")
		}
		// Omit("Players.*") keeps the append to the join table only; the
		// referenced players already exist and must not be upserted.
		if err := db.Model(&team).Omit("Players.*").Association("Players").Append(playerRefs(req.Players)); err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      team.ID,
			"message": "Fantasy team successfully created.",
			"links":   selfLink(fantasyTeamsBase, team.ID),
		})
	}
}

// UpdateFantasyTeam returns the handler for PATCH /fantasyTeams/:id (owner
// only). A provided players array replaces the whole squad and must itself
// be a valid eleven.
func UpdateFantasyTeam(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.FantasyTeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var req UpdateFantasyTeamRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}

		if req.TeamName != nil {
			if *req.TeamName == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Fantasy team name is required.")
			}
			team.TeamName = *req.TeamName
		}
		if req.Players != nil {
			if err := validateSquadRefs(db, *req.Players); err != nil {
				return err
			}
			if err := db.Model(team).Omit("Players.*").Association("Players").Replace(playerRefs(*req.Players)); err != nil {
				return err
			}
		}

		if err := db.Omit("Players").Save(team).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Fantasy team successfully updated."})
	}
}

// DeleteFantasyTeam returns the handler for DELETE /fantasyTeams/:id (owner
// only).
func DeleteFantasyTeam(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.FantasyTeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		if err := db.Select("Players").Delete(team).Error; err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UpdateFantasyTeamScore returns the handler for PATCH /fantasyTeams/:id/points
// (admin only). It folds the players' recent points into the team's total
// score, then resets each player's recent points to zero so a repeated run
// with no intervening point changes adds nothing.
//
// The sequence — team save, then one save per player — is deliberately not
// wrapped in a transaction, matching the documented at-most-once contract of
// the whole update path. A crash mid-loop leaves some players reset and
// others not; the team's score itself is never double-counted because each
// player contributed exactly once before the save.
func UpdateFantasyTeamScore(db *gorm.DB, dispatcher *webhook.Dispatcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.FantasyTeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var players []models.Player
		if err := db.Model(team).Association("Players").Find(&players); err != nil {
			return err
		}

		scoreToAdd := 0
		for _, p := range players {
			scoreToAdd += p.RecentPoints
		}

		team.TotalScore += scoreToAdd
		if err := db.Omit("Players").Save(team).Error; err != nil {
			return err
		}

		for i := range players {
			players[i].RecentPoints = 0
			if err := db.Save(&players[i]).Error; err != nil {
				return err
			}
		}

		dispatcher.Notify(models.EventFantasyTeamScoreUpdate, ScoreUpdatePayload{
			FantasyTeamID: team.ID.String(),
			NewTotalScore: team.TotalScore,
		})

		return c.JSON(fiber.Map{"message": "Fantasy Team points updated"})
	}
}
