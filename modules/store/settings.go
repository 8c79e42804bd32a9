package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vibecircles/realtime-core/domain/social"
)

// SettingsRepository reads and writes persisted user settings.
type SettingsRepository struct {
	db *gorm.DB
}

var _ social.SettingsStore = (*SettingsRepository)(nil)

// NewSettingsRepository creates a settings repository.
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetUserSettings returns the persisted settings for a user, or
// social.ErrSettingsNotFound when the user never configured any.
func (r *SettingsRepository) GetUserSettings(ctx context.Context, userID string) (*social.UserSettings, error) {
	var settings social.UserSettings
	err := r.db.WithContext(ctx).First(&settings, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, social.ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveUserSettings upserts a user's settings.
func (r *SettingsRepository) SaveUserSettings(ctx context.Context, settings *social.UserSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
}
