package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/vibecircles/realtime-core/modules/auth"
	"github.com/vibecircles/realtime-core/modules/cache"
	"github.com/vibecircles/realtime-core/modules/chat"
	"github.com/vibecircles/realtime-core/modules/httpserver"
	"github.com/vibecircles/realtime-core/modules/notify"
	"github.com/vibecircles/realtime-core/modules/prefs"
	"github.com/vibecircles/realtime-core/modules/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== VibeCircles Realtime Core ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	addr := ":" + getEnv("PORT", "3003")
	dbPath := getEnv("DATABASE_PATH", "vibecircles.db")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	natsURL := os.Getenv("NATS_URL") // empty selects direct notification writes
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	cacheTTL := getEnvDuration("PREFS_CACHE_TTL", time.Hour)

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:     jwtSecret,
		TokenDuration: 24 * time.Hour,
		Issuer:        "vibecircles",
	})

	// Create modules
	storeModule, err := store.NewModule(dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	cacheModule := cache.NewModuleWithConfig(redisAddr, "prefs:", cacheTTL)
	notifyModule := notify.NewModule(natsURL)
	prefsModule := prefs.NewModule()
	chatModule := chat.NewModule()
	httpModule := httpserver.NewModule(addr, jwtManager)

	// Wire collaborators (done manually because the repositories are not
	// exposed via ServiceContainer)
	notifyModule.SetStore(storeModule.Notifications())
	prefsModule.SetCollaborators(
		storeModule.Settings(),
		storeModule.Interactions(),
		storeModule.Posts(),
		cacheModule.GetCache(),
	)
	chatModule.SetCollaborators(
		storeModule.Profiles(),
		storeModule.Profiles(),
		storeModule.Messages(),
		notifyModule,
	)
	httpModule.SetCollaborators(
		chatModule,
		prefsModule,
		storeModule.Posts(),
		storeModule.Profiles(),
		cacheModule.GetCache().Client(),
	)

	// Register modules with the framework.
	// Order: storage and queue first, then domain modules, then the HTTP
	// surface that fronts them.
	app.Register(storeModule)
	app.Register(cacheModule)
	app.Register(notifyModule)
	app.Register(prefsModule)
	app.Register(chatModule)
	app.Register(httpModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(addr, natsURL, redisAddr)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(addr, natsURL, redisAddr string) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Printf("  - Store: SQLite via GORM")
	log.Printf("  - Preference cache + rate limiting: Redis at %s", redisAddr)
	if natsURL != "" {
		log.Printf("  - Notification queue: NATS JetStream at %s", natsURL)
	} else {
		log.Println("  - Notification queue: disabled (direct store writes)")
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", addr)
	log.Println("  GET    /health                    - Health check")
	log.Println("  POST   /rank-feed                 - Rank a batch of posts")
	log.Println("  GET    /feed/:userId              - Paginated ranked feed")
	log.Println("  POST   /track-interaction         - Record an interaction")
	log.Println("  GET    /recommendations/:userId   - Favorite-author recommendations")
	log.Println("  GET    /online-users              - Connected users")
	log.Println("  GET    /user-status/:userId       - Per-user presence")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost%s/ws):", addr)
	log.Println("  Connect with: ws://localhost:3003/ws?token=<jwt>")
	log.Println("  Message types: send_message, typing_start, typing_stop,")
	log.Println("                 read_messages, join_room, leave_room")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
