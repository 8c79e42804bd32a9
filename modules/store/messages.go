package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibecircles/realtime-core/domain/social"
)

// MessageRepository persists direct messages.
type MessageRepository struct {
	db *gorm.DB
}

var _ social.MessageStore = (*MessageRepository)(nil)

// NewMessageRepository creates a message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// SendMessage persists a new message and returns the stored record.
func (r *MessageRepository) SendMessage(ctx context.Context, senderID, receiverID, content, mediaURL string) (*social.ChatMessage, error) {
	message := &social.ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		MediaURL:   mediaURL,
		Read:       false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// MarkAsRead marks all unread messages from counterpartID to userID as read.
func (r *MessageRepository) MarkAsRead(ctx context.Context, userID, counterpartID string) error {
	return r.db.WithContext(ctx).
		Model(&social.ChatMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND read = ?", userID, counterpartID, false).
		Update("read", true).Error
}

// GetConversation returns the most recent messages between two users in
// chronological order.
func (r *MessageRepository) GetConversation(ctx context.Context, userID, counterpartID string, limit int) ([]social.ChatMessage, error) {
	var messages []social.ChatMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, counterpartID, counterpartID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
