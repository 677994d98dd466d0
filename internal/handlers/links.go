// Package handlers contains the HTTP route handler functions for the Fantasy
// Football League API. Each exported function follows the handler factory
// pattern: it takes its dependencies (the *gorm.DB handle, and where needed
// the webhook dispatcher) and returns a fiber.Handler, so nothing reaches for
// globals.
//
// Handlers assume the route's middleware chain has already run: the verified
// identity and any loaded resource are read from the request context via the
// middleware package accessors.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Links is the hypermedia block attached to resource responses, pointing the
// client at the related actions for the resource.
type Links struct {
	Self   string `json:"self,omitempty"`
	Update string `json:"update,omitempty"`
	Delete string `json:"delete,omitempty"`
}

// resourceLinks builds the full self/update/delete link set for a resource
// mounted under base (e.g. "/players").
func resourceLinks(base string, id uuid.UUID) Links {
	ref := base + "/" + id.String()
	return Links{Self: ref, Update: ref, Delete: ref}
}

// selfLink builds a link set carrying only the self reference.
func selfLink(base string, id uuid.UUID) Links {
	return Links{Self: base + "/" + id.String()}
}

// translateDBError maps GORM's portable errors onto the HTTP error taxonomy:
// duplicate key → 409, broken reference → 400, missing row → 404. Anything
// else passes through and surfaces as 500 at the outer error handler.
func translateDBError(err error, duplicateMsg string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.NewError(fiber.StatusConflict, duplicateMsg)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fiber.NewError(fiber.StatusBadRequest, "Referenced resource does not exist.")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Resource not found.")
	default:
		return err
	}
}

// errInvalidBody is returned whenever the JSON payload cannot be parsed.
var errInvalidBody = fiber.NewError(fiber.StatusBadRequest, "Invalid request body.")
