package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/config"
	"github.com/fflapi/fantasy-league/internal/league"
	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
)

// RegisterRequest is the JSON body for POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"` // optional; defaults to "user"
}

// LoginRequest is the JSON body for POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// validate checks the registration payload against the account rules and
// returns a 400 error naming the first violated rule.
func (r RegisterRequest) validate() error {
	if !models.ValidUsername(r.Username) {
		return fiber.NewError(fiber.StatusBadRequest,
			"Username must start with a letter, may contain letters, digits and underscores, and be 3-256 characters long.")
	}
	if !models.ValidPassword(r.Password) {
		return fiber.NewError(fiber.StatusBadRequest, "Password must be 10-256 characters long.")
	}
	if !models.ValidEmail(r.Email) {
		return fiber.NewError(fiber.StatusBadRequest, "A valid email address is required.")
	}
	if r.Role != "" && r.Role != string(models.UserRoleUser) && r.Role != string(models.UserRoleAdmin) {
		return fiber.NewError(fiber.StatusBadRequest, "Role must be either \"user\" or \"admin\".")
	}
	return nil
}

// Register returns the handler for POST /register. It creates the account
// with a bcrypt-hashed password and joins the new user to the global league.
// A duplicate username or email yields 409; an invalid payload yields 400.
func Register(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if err := req.validate(); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		role := models.UserRoleUser
		if req.Role == string(models.UserRoleAdmin) {
			role = models.UserRoleAdmin
		}

		user := models.User{
			Username: req.Username,
			Password: string(hash),
			Email:    req.Email,
			Role:     role,
		}
		if err := db.Create(&user).Error; err != nil {
			return translateDBError(err, "Username or email already exists.")
		}

		// Every new account starts out as a member of the global league. The
		// join runs after the account insert without a transaction: if it
		// fails, the account exists outside the league and the request
		// reports 500, like the other non-transactional write sequences.
		global, err := league.EnsureGlobalLeague(db)
		if err != nil {
			return err
		}
		if err := league.AddUserToLeague(db, global, &user); err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      user.ID,
			"message": "User successfully created.",
		})
	}
}

// Login returns the handler for POST /login. It verifies the credentials and
// responds with a signed access token encoding the user's identity claims.
// Wrong username and wrong password are indistinguishable in the response.
func Login(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}

		var user models.User
		err := db.Where("username = ?", req.Username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password.")
		}
		if err != nil {
			return err
		}

		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password.")
		}

		token, err := middleware.NewAccessToken(cfg, &user)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"access_token": token,
		})
	}
}
