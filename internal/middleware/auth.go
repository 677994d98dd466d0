// Package middleware contains the HTTP middleware that forms the request
// pipeline of the Fantasy Football League API. Every route composes an
// ordered chain out of three building blocks:
//
//	Auth (credential verifier) → policies (authorization guard) → loaders (resource loader)
//
// Auth must come first: it verifies the bearer token and attaches the caller
// identity to the request context. Policies read that identity (and, for
// ownership checks, a previously loaded resource) and short-circuit with 403
// on the first failure. Loaders fetch the entity named by the :id path
// parameter and never enforce authorization themselves.
package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fflapi/fantasy-league/internal/config"
	"github.com/fflapi/fantasy-league/internal/models"
)

// Claims is the payload carried inside an access token. The registered
// Subject holds the user id; the custom claims carry the rest of the
// identity so it can be reconstructed without a database read.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Identity is the verified caller attached to the request context by Auth.
// It is rebuilt from the signed token on every request — no session state is
// kept server-side.
type Identity struct {
	ID       uuid.UUID
	Username string
	Email    string
	Role     models.UserRole
}

// identityKey is the c.Locals key under which Auth stores the Identity.
const identityKey = "identity"

// Auth returns the credential-verifier middleware. It extracts the token from
// the "Authorization: Bearer <token>" header, verifies its HS256 signature
// and expiry against the configured secret, and stores the resulting Identity
// in the request context for policies and handlers downstream.
//
// Any failure — missing header, wrong scheme, bad signature, expired token,
// malformed subject — yields 401 before any data access happens.
func Auth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid authorization header")
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			// Restricting the accepted algorithm prevents tokens signed with
			// a different method from being accepted.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "token missing subject")
		}

		c.Locals(identityKey, Identity{
			ID:       userID,
			Username: claims.Username,
			Email:    claims.Email,
			Role:     models.UserRole(claims.Role),
		})

		return c.Next()
	}
}

// CurrentIdentity returns the Identity stored by Auth, or false if the route
// was reached without the Auth middleware.
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(identityKey).(Identity)
	return id, ok
}

// NewAccessToken signs an HS256 access token for the given user with the
// configured lifetime. The claims mirror what Auth later reconstructs.
func NewAccessToken(cfg *config.Config, user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenLife)),
		},
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}
