package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vibecircles/realtime-core/domain/social"
)

// PostRepository serves feed candidates and post lookups.
type PostRepository struct {
	db *gorm.DB
}

var _ social.FeedSource = (*PostRepository)(nil)

// NewPostRepository creates a post repository.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// GetFeedCandidates returns posts authored by the user or their friends,
// newest first, with limit/offset pagination.
func (r *PostRepository) GetFeedCandidates(ctx context.Context, userID string, limit, offset int) ([]social.Post, error) {
	friendIDs := r.db.Model(&social.Friendship{}).
		Select("friend_id").
		Where("user_id = ?", userID)

	var posts []social.Post
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR user_id IN (?)", userID, friendIDs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostByID returns a post, or social.ErrPostNotFound if it does not exist.
func (r *PostRepository) GetPostByID(ctx context.Context, postID string) (*social.Post, error) {
	var post social.Post
	err := r.db.WithContext(ctx).First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, social.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetRecentByAuthors returns the most recent posts by the given authors,
// newest first. An empty author list yields no posts.
func (r *PostRepository) GetRecentByAuthors(ctx context.Context, authorIDs []string, limit int) ([]social.Post, error) {
	if len(authorIDs) == 0 {
		return []social.Post{}, nil
	}
	var posts []social.Post
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost inserts a new post.
func (r *PostRepository) CreatePost(ctx context.Context, post *social.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}
