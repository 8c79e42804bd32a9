package httpserver

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vibecircles/realtime-core/modules/auth"
)

const (
	// ClaimsContextKey is the key used to store token claims in the Fiber context.
	ClaimsContextKey = "claims"
	// UserIDContextKey is the key used to store the authenticated user ID.
	UserIDContextKey = "userID"
)

// AuthMiddleware creates a middleware that validates bearer tokens.
func AuthMiddleware(jwtManager *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Access token required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Access token required",
			})
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Error:   "forbidden",
				Message: "Invalid token",
			})
		}

		c.Locals(ClaimsContextKey, claims)
		c.Locals(UserIDContextKey, claims.UserID)

		return c.Next()
	}
}
