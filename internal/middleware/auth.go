package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/authcore/internal/apperror"
	"github.com/example/authcore/internal/utils"
)

const sessionClaimsKey = "sessionClaims"

// Authenticator verifies session tokens.
type Authenticator interface {
	Authenticate(token string) (*utils.Claims, error)
}

// RequireSession validates the bearer session token and stores its claims in context.
func RequireSession(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := auth.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, apperror.ErrExpiredToken) {
				return fiber.NewError(fiber.StatusUnauthorized, "token expired")
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(sessionClaimsKey, claims)
		return c.Next()
	}
}

// GetSessionClaims extracts the authenticated session claims from context.
func GetSessionClaims(c *fiber.Ctx) (*utils.Claims, bool) {
	claims, ok := c.Locals(sessionClaimsKey).(*utils.Claims)
	return claims, ok && claims != nil
}
