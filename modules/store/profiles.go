package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vibecircles/realtime-core/domain/social"
)

// ProfileRepository serves profile lookups and the friend graph.
type ProfileRepository struct {
	db *gorm.DB
}

var _ social.ProfileStore = (*ProfileRepository)(nil)
var _ social.FriendGraph = (*ProfileRepository)(nil)

// NewProfileRepository creates a profile repository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfileByID returns the profile with the given ID, or
// social.ErrProfileNotFound if no such user exists.
func (r *ProfileRepository) GetProfileByID(ctx context.Context, userID string) (*social.Profile, error) {
	var profile social.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, social.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetFriends returns the profiles of all users the given user has a
// friendship edge to.
func (r *ProfileRepository) GetFriends(ctx context.Context, userID string) ([]social.Profile, error) {
	var friends []social.Profile
	err := r.db.WithContext(ctx).
		Model(&social.Profile{}).
		Joins("JOIN friendships ON friendships.friend_id = profiles.id").
		Where("friendships.user_id = ?", userID).
		Find(&friends).Error
	if err != nil {
		return nil, err
	}
	return friends, nil
}

// AddFriendship inserts both edges of a symmetric friendship.
func (r *ProfileRepository) AddFriendship(ctx context.Context, userID, friendID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edges := []social.Friendship{
			{UserID: userID, FriendID: friendID},
			{UserID: friendID, FriendID: userID},
		}
		return tx.Create(&edges).Error
	})
}

// CreateProfile inserts a new profile.
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *social.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}
