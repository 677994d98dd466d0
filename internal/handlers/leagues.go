package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
)

const leaguesBase = "/leagues"

type leagueResponse struct {
	models.League
	Links Links `json:"links"`
}

// CreateLeagueRequest is the JSON body for POST /leagues.
type CreateLeagueRequest struct {
	Name string `json:"name"`
}

// standingsEntry is one row of the league standings table.
type standingsEntry struct {
	TeamName      string `json:"teamName"`
	OwnerUsername string `json:"ownerUsername"`
	TotalScore    int    `json:"totalScore"`
}

// GetLeagueByID returns the handler for GET /leagues/:id.
func GetLeagueByID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		l, ok := middleware.LeagueFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(leagueResponse{League: *l, Links: selfLink(leaguesBase, l.ID)})
	}
}

// GetLeagueStandings returns the handler for GET /leagues/standings: every
// fantasy team with its owner's username, sorted strictly descending by
// total score.
func GetLeagueStandings(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var teams []models.FantasyTeam
		if err := db.Preload("Owner").Order("total_score DESC").Find(&teams).Error; err != nil {
			return err
		}

		standings := make([]standingsEntry, 0, len(teams))
		for _, t := range teams {
			standings = append(standings, standingsEntry{
				TeamName:      t.TeamName,
				OwnerUsername: t.Owner.Username,
				TotalScore:    t.TotalScore,
			})
		}
		return c.JSON(standings)
	}
}

// CreateLeague returns the handler for POST /leagues (admin only).
func CreateLeague(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateLeagueRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "League name is required.")
		}

		l := models.League{Name: req.Name}
		if err := db.Create(&l).Error; err != nil {
			return translateDBError(err, "A league with that name already exists.")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      l.ID,
			"message": "League successfully created.",
			"links":   selfLink(leaguesBase, l.ID),
		})
	}
}
