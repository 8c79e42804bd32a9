// Package store implements the external data-access layer over SQLite.
package store

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vibecircles/realtime-core/domain/social"
)

// Module owns the database connection and the repositories.
type Module struct {
	dbPath string
	db     *gorm.DB

	profiles      *ProfileRepository
	messages      *MessageRepository
	notifications *NotificationRepository
	settings      *SettingsRepository
	interactions  *InteractionRepository
	posts         *PostRepository
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule opens the database, migrates the schema and builds the
// repositories. The connection is opened eagerly so other modules can be
// wired to the repositories before the application starts.
func NewModule(dbPath string) (*Module, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&social.Profile{},
		&social.Friendship{},
		&social.ChatMessage{},
		&social.Notification{},
		&social.UserSettings{},
		&social.Interaction{},
		&social.Post{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Module{
		dbPath:        dbPath,
		db:            db,
		profiles:      NewProfileRepository(db),
		messages:      NewMessageRepository(db),
		notifications: NewNotificationRepository(db),
		settings:      NewSettingsRepository(db),
		interactions:  NewInteractionRepository(db),
		posts:         NewPostRepository(db),
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// Start verifies connectivity.
func (m *Module) Start(_ context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Printf("[store] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if sqlDB, err := m.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("[store] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	healthy := false
	if sqlDB, err := m.db.DB(); err == nil {
		healthy = sqlDB.Ping() == nil
	}
	return mono.HealthStatus{
		Healthy: healthy,
		Message: "sqlite",
	}
}

// Profiles returns the profile repository (profile lookup + friend graph).
func (m *Module) Profiles() *ProfileRepository { return m.profiles }

// Messages returns the message repository.
func (m *Module) Messages() *MessageRepository { return m.messages }

// Notifications returns the notification repository.
func (m *Module) Notifications() *NotificationRepository { return m.notifications }

// Settings returns the user-settings repository.
func (m *Module) Settings() *SettingsRepository { return m.settings }

// Interactions returns the interaction repository.
func (m *Module) Interactions() *InteractionRepository { return m.interactions }

// Posts returns the post repository (feed source).
func (m *Module) Posts() *PostRepository { return m.posts }
