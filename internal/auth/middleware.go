package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/blog-service/internal/domain"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

const (
	userKey  = "auth_user"
	tokenKey = "auth_token"
)

// UserLoader is the slice of the user store the guard needs.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Middleware validates bearer tokens and loads the authenticated user.
type Middleware struct {
	tokens    *TokenManager
	blacklist *Blacklist
	users     UserLoader
}

// NewMiddleware constructs the authentication guard.
func NewMiddleware(tokens *TokenManager, blacklist *Blacklist, users UserLoader) *Middleware {
	return &Middleware{tokens: tokens, blacklist: blacklist, users: users}
}

// Handle returns a guard for routes expecting the given token kind. On
// success the user and the raw token land in the request locals; every
// failure maps to the standard error envelope without touching state.
func (m *Middleware) Handle(kind TokenKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return apperrors.NewUnauthorized("missing bearer token")
		}

		// Revocation is checked before signature so a blacklisted token
		// reports as revoked even once it also expires.
		if m.blacklist.IsRevoked(c.Context(), token) {
			return apperrors.NewUnauthorized("token revoked")
		}

		claims, err := m.tokens.Verify(kind, token)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				return apperrors.NewUnauthorized("token expired")
			case errors.Is(err, ErrTokenNotYetValid):
				return apperrors.NewUnauthorized("token not yet valid")
			default:
				return apperrors.NewUnauthorized("token malformed")
			}
		}

		user, err := m.users.GetByID(c.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Reported as an invalid session, not a missing resource.
				return apperrors.NewUnauthorized("user not found")
			}
			return apperrors.MapError(err)
		}
		user.PasswordHash = ""

		c.Locals(userKey, user)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

// RequirePermission gates a route on one capability. Must run after Handle.
func RequirePermission(capability string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !Allows(user, capability) {
			return apperrors.NewForbidden("permission denied")
		}
		return c.Next()
	}
}

// UserFromContext retrieves the authenticated user set by Handle.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(userKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}

// TokenFromContext retrieves the raw bearer token set by Handle.
func TokenFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(tokenKey)
	if val == nil {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
