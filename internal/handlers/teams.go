package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
)

const teamsBase = "/teams"

type teamResponse struct {
	models.Team
	Links Links `json:"links"`
}

// CreateTeamRequest is the JSON body for POST /teams.
type CreateTeamRequest struct {
	Name string `json:"name"`
}

// UpdateTeamRequest is the JSON body for PATCH /teams/:id.
type UpdateTeamRequest struct {
	Name *string `json:"name"`
}

// playerSummary is the per-player shape used by the team and fantasy team
// player listings.
type playerSummary struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Position     models.PlayerPosition `json:"position"`
	GoalsScored  int                   `json:"goalsScored"`
	CleanSheets  int                   `json:"cleanSheets"`
	TotalPoints  int                   `json:"totalPoints"`
	RecentPoints int                   `json:"recentPoints"`
}

func summarizePlayers(players []models.Player) []playerSummary {
	out := make([]playerSummary, 0, len(players))
	for _, p := range players {
		out = append(out, playerSummary{
			ID:           p.ID.String(),
			Name:         p.Name,
			Position:     p.Position,
			GoalsScored:  p.GoalsScored,
			CleanSheets:  p.CleanSheets,
			TotalPoints:  p.TotalPoints,
			RecentPoints: p.RecentPoints,
		})
	}
	return out
}

// GetAllTeams returns the handler for GET /teams.
func GetAllTeams(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var teams []models.Team
		if err := db.Find(&teams).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Server error retrieving teams")
		}

		response := make([]teamResponse, 0, len(teams))
		for _, t := range teams {
			response = append(response, teamResponse{Team: t, Links: resourceLinks(teamsBase, t.ID)})
		}
		return c.JSON(response)
	}
}

// GetTeamByID returns the handler for GET /teams/:id.
func GetTeamByID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.TeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		ref := teamsBase + "/" + team.ID.String()
		return c.JSON(teamResponse{Team: *team, Links: Links{Update: ref, Delete: ref}})
	}
}

// GetTeamPlayers returns the handler for GET /teams/:id/players, listing the
// real-world players belonging to the team.
func GetTeamPlayers(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.TeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var players []models.Player
		if err := db.Where("team_id = ?", team.ID).Find(&players).Error; err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"teamName": team.Name,
			"players":  summarizePlayers(players),
		})
	}
}

// CreateTeam returns the handler for POST /teams (admin only).
func CreateTeam(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateTeamRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Team name is required.")
		}

		team := models.Team{Name: req.Name}
		if err := db.Create(&team).Error; err != nil {
			return translateDBError(err, "A team with that name already exists.")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      team.ID,
			"message": "Team successfully created.",
			"links":   selfLink(teamsBase, team.ID),
		})
	}
}

// UpdateTeam returns the handler for PATCH /teams/:id (admin only).
func UpdateTeam(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.TeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var req UpdateTeamRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if req.Name != nil {
			if *req.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Team name is required.")
			}
			team.Name = *req.Name
		}

		if err := db.Save(team).Error; err != nil {
			return translateDBError(err, "A team with that name already exists.")
		}
		return c.JSON(fiber.Map{"message": "Team successfully updated."})
	}
}

// DeleteTeam returns the handler for DELETE /teams/:id (admin only). Players
// referencing the team are not cleaned up.
func DeleteTeam(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, ok := middleware.TeamFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		if err := db.Delete(team).Error; err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
