package webhook

import (
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/models"
)

// Store is the database-backed SubscriberSource used in production.
type Store struct {
	db *gorm.DB
}

// NewStore wraps the shared GORM handle as a SubscriberSource.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ByEvent returns every webhook registered for the given event.
func (s *Store) ByEvent(event models.WebhookEvent) ([]models.Webhook, error) {
	var hooks []models.Webhook
	if err := s.db.Where("event = ?", event).Find(&hooks).Error; err != nil {
		return nil, err
	}
	return hooks, nil
}
