package handlers

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
)

const usersBase = "/users"

// userResponse wraps a user with its hypermedia links. Embedding keeps the
// model's JSON fields at the top level of the serialized object.
type userResponse struct {
	models.User
	Links Links `json:"links"`
}

// UpdateUserRequest is the JSON body for PATCH /users/:id. Pointer fields
// distinguish "not provided" from an explicit empty value; only provided
// fields are merged into the record.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
}

// GetAllUsers returns the handler for GET /users (admin only).
func GetAllUsers(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.Find(&users).Error; err != nil {
			return err
		}

		response := make([]userResponse, 0, len(users))
		for _, u := range users {
			response = append(response, userResponse{User: u, Links: resourceLinks(usersBase, u.ID)})
		}
		return c.JSON(response)
	}
}

// GetUserByID returns the handler for GET /users/:id (admin only). The user
// record comes from the resource loader earlier in the chain.
func GetUserByID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := middleware.UserFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		ref := usersBase + "/" + user.ID.String()
		return c.JSON(userResponse{User: *user, Links: Links{Update: ref, Delete: ref}})
	}
}

// UpdateUser returns the handler for PATCH /users/:id. Provided fields are
// merged into the loaded record, re-validated, and persisted. A new password
// is re-hashed before it is stored.
func UpdateUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := middleware.UserFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		var req UpdateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}

		if req.Username != nil {
			if !models.ValidUsername(*req.Username) {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid username.")
			}
			user.Username = *req.Username
		}
		if req.Email != nil {
			if !models.ValidEmail(*req.Email) {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid email address.")
			}
			user.Email = *req.Email
		}
		if req.Password != nil {
			if !models.ValidPassword(*req.Password) {
				return fiber.NewError(fiber.StatusBadRequest, "Password must be 10-256 characters long.")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.Password = string(hash)
		}
		if req.Role != nil {
			role := models.UserRole(*req.Role)
			if role != models.UserRoleUser && role != models.UserRoleAdmin {
				return fiber.NewError(fiber.StatusBadRequest, "Role must be either \"user\" or \"admin\".")
			}
			user.Role = role
		}

		if err := db.Save(user).Error; err != nil {
			return translateDBError(err, "Username or email already exists.")
		}

		return c.JSON(fiber.Map{"message": "User successfully updated."})
	}
}

// DeleteUser returns the handler for DELETE /users/:id. References to the
// user held by leagues and fantasy teams are not cleaned up.
func DeleteUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := middleware.UserFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		if err := db.Delete(user).Error; err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
