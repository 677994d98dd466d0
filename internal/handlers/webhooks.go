package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
	"github.com/fflapi/fantasy-league/internal/webhook"
)

// RegisterWebhookRequest is the JSON body for POST /webhooks.
type RegisterWebhookRequest struct {
	URL   string              `json:"url"`
	Event models.WebhookEvent `json:"event"`
}

// RegisterWebhook returns the handler for POST /webhooks. The signing secret
// is generated server-side and included in this response only; no endpoint
// ever echoes it again, and it is never regenerated.
func RegisterWebhook(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterWebhookRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if req.URL == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Webhook URL is required.")
		}
		if !req.Event.Valid() {
			return fiber.NewError(fiber.StatusBadRequest,
				"Event must be either \"pointsUpdate\" or \"fantasyTeamScoreUpdate\".")
		}

		secret, err := webhook.NewSecretToken()
		if err != nil {
			return err
		}

		hook := models.Webhook{
			URL:         req.URL,
			Event:       req.Event,
			SecretToken: secret,
		}
		if err := db.Create(&hook).Error; err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":     "Webhook registered successfully.",
			"secretToken": secret,
			"id":          hook.ID,
		})
	}
}

// DeleteWebhook returns the handler for DELETE /webhooks/:id.
func DeleteWebhook(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hook, ok := middleware.WebhookFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		if err := db.Delete(hook).Error; err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
