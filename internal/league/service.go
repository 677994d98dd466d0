// Package league holds membership logic shared by registration and the
// league endpoints.
package league

import (
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/models"
)

// GlobalLeagueName is the league every new user is joined to at registration.
const GlobalLeagueName = "Global League"

// EnsureGlobalLeague returns the global league, creating it the first time a
// user registers.
func EnsureGlobalLeague(db *gorm.DB) (*models.League, error) {
	var l models.League
	if err := db.Where(models.League{Name: GlobalLeagueName}).FirstOrCreate(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// AddUserToLeague adds the user to the league's membership set if they are
// not already a member. Adding an existing member is a no-op, so repeated
// calls never create duplicate membership rows.
func AddUserToLeague(db *gorm.DB, l *models.League, user *models.User) error {
	count := db.Model(l).Where("users.id = ?", user.ID).Association("Users").Count()
	if count > 0 {
		return nil
	}
	return db.Model(l).Association("Users").Append(user)
}
