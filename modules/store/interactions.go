package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibecircles/realtime-core/domain/social"
)

// InteractionRepository durably records observed interactions.
type InteractionRepository struct {
	db *gorm.DB
}

var _ social.InteractionStore = (*InteractionRepository)(nil)

// NewInteractionRepository creates an interaction repository.
func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// RecordInteraction stores an interaction, assigning an ID and timestamp
// when missing.
func (r *InteractionRepository) RecordInteraction(ctx context.Context, interaction *social.Interaction) error {
	if interaction.ID == "" {
		interaction.ID = uuid.NewString()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(interaction).Error
}

// CountByUser returns the number of interactions recorded for a user.
func (r *InteractionRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&social.Interaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
