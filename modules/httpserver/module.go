// Package httpserver exposes the REST and WebSocket surface over Fiber.
package httpserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/vibecircles/realtime-core/domain/social"
	"github.com/vibecircles/realtime-core/middleware/ratelimit"
	"github.com/vibecircles/realtime-core/modules/auth"
	"github.com/vibecircles/realtime-core/modules/chat"
	"github.com/vibecircles/realtime-core/modules/prefs"
)

// Module implements the HTTP server module using the Fiber framework.
type Module struct {
	app      *fiber.App
	handlers *Handlers
	addr     string

	chatModule  *chat.Module
	prefsModule *prefs.Module
	feed        social.FeedSource
	profiles    social.ProfileStore
	jwtManager  *auth.JWTManager
	redisClient *redis.Client
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new HTTP server module listening on addr.
func NewModule(addr string, jwtManager *auth.JWTManager) *Module {
	return &Module{
		addr:       addr,
		jwtManager: jwtManager,
	}
}

// SetCollaborators injects the modules the HTTP surface fronts (called from
// main.go once the other modules are constructed). The redis client is
// optional; without it the API group runs unlimited.
func (m *Module) SetCollaborators(
	chatModule *chat.Module,
	prefsModule *prefs.Module,
	feed social.FeedSource,
	profiles social.ProfileStore,
	redisClient *redis.Client,
) {
	m.chatModule = chatModule
	m.prefsModule = prefsModule
	m.feed = feed
	m.profiles = profiles
	m.redisClient = redisClient
}

// Name returns the module name.
func (m *Module) Name() string {
	return "http-server"
}

// Start initializes and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.chatModule == nil || m.prefsModule == nil || m.feed == nil || m.profiles == nil {
		return fmt.Errorf("http-server collaborators not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "VibeCircles Realtime Core",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.handlers = NewHandlers(m.chatModule, m.prefsModule.Store(), m.feed, m.profiles, m.jwtManager)
	m.registerRoutes()

	// Start server in goroutine with startup error detection.
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[http-server] Module started on %s", m.addr)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	log.Println("[http-server] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "listening on " + m.addr,
	}
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.handlers.HealthCheck)

	// WebSocket upgrade middleware; token auth happens inside the handler so
	// failures produce a close frame, not an HTTP error.
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handlers.HandleWebSocket))

	// The API routes live at the root, so the auth and rate-limit chain is
	// attached per route rather than on a group.
	chain := []fiber.Handler{AuthMiddleware(m.jwtManager)}
	if m.redisClient != nil {
		chain = append(chain, ratelimit.New(m.redisClient, ratelimit.DefaultConfig(), nil))
	}
	protected := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, chain...), handler)
	}

	m.app.Post("/rank-feed", protected(m.handlers.RankFeed)...)
	m.app.Get("/feed/:userId", protected(m.handlers.GetFeed)...)
	m.app.Post("/track-interaction", protected(m.handlers.TrackInteraction)...)
	m.app.Get("/recommendations/:userId", protected(m.handlers.GetRecommendations)...)
	m.app.Get("/online-users", protected(m.handlers.OnlineUsers)...)
	m.app.Get("/user-status/:userId", protected(m.handlers.UserStatus)...)
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("[http-server] HTTP error %d: %v", code, err)

	return c.Status(code).JSON(ErrorResponse{
		Error:   message,
		Message: err.Error(),
	})
}
