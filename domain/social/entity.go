// Package social defines the entities and ports of the VibeCircles realtime core.
package social

import "time"

// Profile represents a user's public profile.
type Profile struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	FullName  string    `gorm:"size:100" json:"full_name"`
	AvatarURL string    `gorm:"size:500" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// Friendship is one edge of the (symmetric) friend graph.
type Friendship struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"size:36;index:idx_friendship,unique" json:"user_id"`
	FriendID  string    `gorm:"size:36;index:idx_friendship,unique" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Friendship model.
func (Friendship) TableName() string {
	return "friendships"
}

// ChatMessage represents one delivered direct message.
type ChatMessage struct {
	ID         string    `gorm:"primarykey;size:36" json:"id"`
	SenderID   string    `gorm:"size:36;index" json:"sender_id"`
	ReceiverID string    `gorm:"size:36;index" json:"receiver_id"`
	Content    string    `gorm:"size:5000" json:"content"`
	MediaURL   string    `gorm:"size:500" json:"media_url,omitempty"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the table name for ChatMessage model.
func (ChatMessage) TableName() string {
	return "messages"
}

// Post is a feed candidate as served by the feed source.
type Post struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	UserID       string    `gorm:"size:36;index" json:"user_id"`
	Content      string    `gorm:"size:5000" json:"content"`
	ContentType  string    `gorm:"size:20;index" json:"content_type"`
	Topics       []string  `gorm:"serializer:json" json:"topics,omitempty"`
	LikeCount    int       `gorm:"not null;default:0" json:"like_count"`
	CommentCount int       `gorm:"not null;default:0" json:"comment_count"`
	ShareCount   int       `gorm:"not null;default:0" json:"share_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the table name for Post model.
func (Post) TableName() string {
	return "posts"
}

// RankedPost is a post with its transient ranking score attached for one
// ranking pass. The score is never persisted.
type RankedPost struct {
	Post
	RankingScore float64 `json:"ranking_score"`
}

// Notification is a pending notification record for a user.
type Notification struct {
	ID        string           `gorm:"primarykey;size:36" json:"id"`
	UserID    string           `gorm:"size:36;index" json:"user_id"`
	Type      string           `gorm:"size:50" json:"type"`
	Title     string           `gorm:"size:100" json:"title"`
	Message   string           `gorm:"size:500" json:"message"`
	Data      NotificationData `gorm:"serializer:json" json:"data"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationData carries the structured payload of a notification.
type NotificationData struct {
	SenderID  string `json:"sender_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// TableName returns the table name for Notification model.
func (Notification) TableName() string {
	return "notifications"
}

// UserSettings holds the persisted base preferences a user configured.
// Zero-valued fields fall back to the hard-coded defaults.
type UserSettings struct {
	UserID          string             `gorm:"primarykey;size:36" json:"user_id"`
	ContentTypes    map[string]float64 `gorm:"serializer:json" json:"content_types,omitempty"`
	FavoriteAuthors []string           `gorm:"serializer:json" json:"favorite_authors,omitempty"`
	Topics          []string           `gorm:"serializer:json" json:"topics,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// TableName returns the table name for UserSettings model.
func (UserSettings) TableName() string {
	return "user_settings"
}

// Interaction is one observed user interaction with a post.
type Interaction struct {
	ID              string    `gorm:"primarykey;size:36" json:"id"`
	UserID          string    `gorm:"size:36;index" json:"user_id"`
	PostID          string    `gorm:"size:36;index" json:"post_id"`
	InteractionType string    `gorm:"size:20" json:"interaction_type"`
	Duration        float64   `gorm:"not null;default:0" json:"duration"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the table name for Interaction model.
func (Interaction) TableName() string {
	return "interactions"
}
