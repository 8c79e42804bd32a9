package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibecircles/realtime-core/domain/social"
)

// NotificationRepository persists notification records.
type NotificationRepository struct {
	db *gorm.DB
}

var _ social.NotificationSink = (*NotificationRepository)(nil)

// NewNotificationRepository creates a notification repository.
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification stores a notification, assigning an ID and timestamp
// when the caller left them empty.
func (r *NotificationRepository) CreateNotification(ctx context.Context, n social.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&n).Error
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]social.Notification, error) {
	var notifications []social.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
