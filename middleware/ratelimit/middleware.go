package ratelimit

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter configuration.
type Config struct {
	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Window is the time window for the rate limit.
	Window time.Duration

	// KeyPrefix is the prefix for Redis keys.
	KeyPrefix string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Limit:     100,
		Window:    15 * time.Minute,
		KeyPrefix: "ratelimit:",
	}
}

// maxKeyLength limits caller key length to prevent abuse.
const maxKeyLength = 128

// New returns a Fiber middleware enforcing the configured limit per caller.
// The caller key is the authenticated user ID when present, the client IP
// otherwise. On Redis errors the request is allowed (fail-open).
func New(client *redis.Client, config Config, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := NewLimiter(client, config.KeyPrefix)

	return func(c *fiber.Ctx) error {
		key := c.IP()
		if userID, ok := c.Locals("userID").(string); ok && userID != "" {
			key = userID
		}
		if len(key) > maxKeyLength {
			key = key[:maxKeyLength]
		}

		result, err := limiter.Allow(c.UserContext(), key, config.Limit, config.Window)
		if err != nil {
			logger.Error("Rate limit check failed", "key", key, "error", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			logger.Warn("Rate limit exceeded", "key", key, "reset_at", result.ResetAt)
			c.Set("Retry-After", strconv.FormatInt(int64(time.Until(result.ResetAt).Seconds())+1, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many requests",
			})
		}

		return c.Next()
	}
}
