package social

import "context"

// ProfileStore looks up user profiles.
type ProfileStore interface {
	GetProfileByID(ctx context.Context, userID string) (*Profile, error)
}

// FriendGraph resolves a user's friend list.
type FriendGraph interface {
	GetFriends(ctx context.Context, userID string) ([]Profile, error)
}

// MessageStore persists direct messages and their read state.
type MessageStore interface {
	SendMessage(ctx context.Context, senderID, receiverID, content, mediaURL string) (*ChatMessage, error)
	MarkAsRead(ctx context.Context, userID, counterpartID string) error
}

// NotificationSink accepts notification records for delivery. Implementations
// may persist directly or enqueue for asynchronous processing.
type NotificationSink interface {
	CreateNotification(ctx context.Context, n Notification) error
}

// FeedSource serves candidate posts for ranking.
type FeedSource interface {
	GetFeedCandidates(ctx context.Context, userID string, limit, offset int) ([]Post, error)
	GetPostByID(ctx context.Context, postID string) (*Post, error)
	GetRecentByAuthors(ctx context.Context, authorIDs []string, limit int) ([]Post, error)
}

// SettingsStore reads a user's persisted base settings.
type SettingsStore interface {
	GetUserSettings(ctx context.Context, userID string) (*UserSettings, error)
}

// InteractionStore durably records observed interactions.
type InteractionStore interface {
	RecordInteraction(ctx context.Context, interaction *Interaction) error
}
