package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
	"github.com/fflapi/fantasy-league/internal/webhook"
)

const playersBase = "/players"

type playerResponse struct {
	models.Player
	Links Links `json:"links"`
}

// PlayerRequest is the JSON body for POST /players and PUT /players/:id.
// PUT discards every stored field except the identifier, so all fields of
// the replacement record come from here.
type PlayerRequest struct {
	Name         string                `json:"name"`
	Position     models.PlayerPosition `json:"position"`
	Team         uuid.UUID             `json:"team"`
	GoalsScored  int                   `json:"goalsScored"`
	CleanSheets  int                   `json:"cleanSheets"`
	TotalPoints  int                   `json:"totalPoints"`
	RecentPoints int                   `json:"recentPoints"`
}

// UpdatePlayerRequest is the JSON body for PATCH /players/:id. Only provided
// fields are merged.
type UpdatePlayerRequest struct {
	Name         *string                `json:"name"`
	Position     *models.PlayerPosition `json:"position"`
	Team         *uuid.UUID             `json:"team"`
	GoalsScored  *int                   `json:"goalsScored"`
	CleanSheets  *int                   `json:"cleanSheets"`
	TotalPoints  *int                   `json:"totalPoints"`
	RecentPoints *int                   `json:"recentPoints"`
}

// UpdatePlayerPointsRequest is the JSON body for PATCH /players/points/:id.
type UpdatePlayerPointsRequest struct {
	AddedPoints int `json:"addedPoints"`
}

// PointsUpdatePayload is the body delivered to pointsUpdate webhook
// subscribers.
type PointsUpdatePayload struct {
	PlayerID    string `json:"playerId"`
	AddedPoints int    `json:"addedPoints"`
	TotalPoints int    `json:"totalPoints"`
}

// validate checks the full-player payload against the player invariants.
func (r PlayerRequest) validate(db *gorm.DB) error {
	if r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Player name is required.")
	}
	if !r.Position.Valid() {
		return fiber.NewError(fiber.StatusBadRequest,
			"Position must be one of Goalkeeper, Defender, Midfielder, Forward.")
	}
	if r.Team == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "Associated team is required.")
	}
	// The team reference must resolve at write time. Later team deletions may
	// still leave it dangling; that is an accepted limitation.
	var team models.Team
	if err := db.First(&team, "id = ?", r.Team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "Associated team does not exist.")
		}
		return err
	}
	return nil
}

// GetAllPlayers returns the handler for GET /players.
func GetAllPlayers(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var players []models.Player
		if err := db.Find(&players).Error; err != nil {
			return err
		}

		response := make([]playerResponse, 0, len(players))
		for _, p := range players {
			response = append(response, playerResponse{Player: p, Links: resourceLinks(playersBase, p.ID)})
		}
		return c.JSON(response)
	}
}

// GetPlayerByID returns the handler for GET /players/:id.
func GetPlayerByID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		player, ok := middleware.PlayerFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(playerResponse{Player: *player, Links: resourceLinks(playersBase, player.ID)})
	}
}

// CreatePlayer returns the handler for POST /players (admin only).
func CreatePlayer(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req PlayerRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if err := req.validate(db); err != nil {
			return err
		}

		player := models.Player{
			Name:         req.Name,
			Position:     req.Position,
			TeamID:       req.Team,
			GoalsScored:  req.GoalsScored,
			CleanSheets:  req.CleanSheets,
			TotalPoints:  req.TotalPoints,
			RecentPoints: req.RecentPoints,
		}
		if err := db.Create(&player).Error; err != nil {
			return translateDBError(err, "Player already exists.")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      player.ID,
			"team":    player.TeamID,
			"message": "Player successfully created.",
			"links":   resourceLinks(playersBase, player.ID),
		})
	}
}

// ReplacePlayer returns the handler for PUT /players/:id (admin only). The
// stored record is replaced wholesale: every field except the identifier is
// taken from the payload, including zero values for fields left out.
func ReplacePlayer(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		player, ok := middleware.PlayerFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var req PlayerRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if err := req.validate(db); err != nil {
			return err
		}

		replacement := models.Player{
			ID:           player.ID,
			Name:         req.Name,
			Position:     req.Position,
			TeamID:       req.Team,
			GoalsScored:  req.GoalsScored,
			CleanSheets:  req.CleanSheets,
			TotalPoints:  req.TotalPoints,
			RecentPoints: req.RecentPoints,
			CreatedAt:    player.CreatedAt,
		}
		if err := db.Save(&replacement).Error; err != nil {
			return err
		}

		return c.JSON(fiber.Map{"message": "Player successfully updated."})
	}
}

// UpdatePlayer returns the handler for PATCH /players/:id (admin only).
func UpdatePlayer(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		player, ok := middleware.PlayerFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var req UpdatePlayerRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}

		if req.Name != nil {
			if *req.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Player name is required.")
			}
			player.Name = *req.Name
		}
		if req.Position != nil {
			if !req.Position.Valid() {
				return fiber.NewError(fiber.StatusBadRequest,
					"Position must be one of Goalkeeper, Defender, Midfielder, Forward.")
			}
			player.Position = *req.Position
		}
		if req.Team != nil {
			var team models.Team
			if err := db.First(&team, "id = ?", *req.Team).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusBadRequest, "Associated team does not exist.")
				}
				return err
			}
			player.TeamID = *req.Team
		}
		if req.GoalsScored != nil {
			player.GoalsScored = *req.GoalsScored
		}
		if req.CleanSheets != nil {
			player.CleanSheets = *req.CleanSheets
		}
		if req.TotalPoints != nil {
			player.TotalPoints = *req.TotalPoints
		}
		if req.RecentPoints != nil {
			player.RecentPoints = *req.RecentPoints
		}

		if err := db.Save(player).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Player successfully updated."})
	}
}

// UpdatePlayerPoints returns the handler for PATCH /players/points/:id
// (admin only). The added points accumulate into totalPoints, while
// recentPoints is overwritten — not accumulated — with the latest delta, to
// be consumed by the next fantasy team score update. Every pointsUpdate
// webhook subscriber is then notified, fire-and-forget.
func UpdatePlayerPoints(db *gorm.DB, dispatcher *webhook.Dispatcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		player, ok := middleware.PlayerFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var req UpdatePlayerPointsRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}

		player.TotalPoints += req.AddedPoints
		player.RecentPoints = req.AddedPoints
		if err := db.Save(player).Error; err != nil {
			return err
		}

		dispatcher.Notify(models.EventPointsUpdate, PointsUpdatePayload{
			PlayerID:    player.ID.String(),
			AddedPoints: req.AddedPoints,
			TotalPoints: player.TotalPoints,
		})

		return c.JSON(fiber.Map{"message": "Player points updated"})
	}
}

// DeletePlayer returns the handler for DELETE /players/:id (admin only).
// Fantasy team references to the player are not cleaned up.
func DeletePlayer(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		player, ok := middleware.PlayerFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		if err := db.Delete(player).Error; err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
