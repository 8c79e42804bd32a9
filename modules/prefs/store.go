// Package prefs manages cached per-user preference profiles.
package prefs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vibecircles/realtime-core/domain/social"
)

// Feedback increments applied to content-type affinities.
const (
	// rankedFeedbackIncrement is added for every content type appearing in a
	// rendered feed.
	rankedFeedbackIncrement = 0.01

	viewIncrement    = 0.005
	likeIncrement    = 0.01
	commentIncrement = 0.02
	shareIncrement   = 0.03
)

// maxFavoriteAuthors bounds the favorite-author set; the oldest entry is
// evicted first so long-running processes don't grow without limit.
const maxFavoriteAuthors = 100

// ProfileCache is the write-back cache the store persists profiles to
// between restarts. Satisfied by the redis cache module; nil disables it.
type ProfileCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Store is the in-process preference store with lazy fallback to the
// settings store. Mutations renormalize content-type weights so they remain
// a valid convex combination.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*social.PreferenceProfile

	settings     social.SettingsStore
	interactions social.InteractionStore
	feed         social.FeedSource
	cache        ProfileCache
	sf           singleflight.Group
}

// NewStore creates a preference store. cache may be nil.
func NewStore(settings social.SettingsStore, interactions social.InteractionStore, feed social.FeedSource, cache ProfileCache) *Store {
	return &Store{
		profiles:     make(map[string]*social.PreferenceProfile),
		settings:     settings,
		interactions: interactions,
		feed:         feed,
		cache:        cache,
	}
}

// Get returns the user's preference profile, loading it on first access:
// in-process cache, then write-back cache, then persisted settings merged
// onto defaults. On a settings-store failure the defaults are returned
// without caching, so the next call retries the fetch.
func (s *Store) Get(ctx context.Context, userID string) *social.PreferenceProfile {
	s.mu.RLock()
	profile, ok := s.profiles[userID]
	s.mu.RUnlock()
	if ok {
		return profile.Clone()
	}

	// Deduplicate concurrent loads for the same user.
	v, _, _ := s.sf.Do(userID, func() (any, error) {
		return s.load(ctx, userID), nil
	})
	return v.(*social.PreferenceProfile).Clone()
}

func (s *Store) load(ctx context.Context, userID string) *social.PreferenceProfile {
	s.mu.RLock()
	profile, ok := s.profiles[userID]
	s.mu.RUnlock()
	if ok {
		return profile
	}

	if s.cache != nil {
		var cached social.PreferenceProfile
		hit, err := s.cache.Get(ctx, userID, &cached)
		if err != nil {
			log.Printf("[prefs] cache read for %s failed: %v", userID, err)
		} else if hit && len(cached.ContentTypes) > 0 {
			s.put(userID, &cached)
			return &cached
		}
	}

	profile = social.DefaultPreferences()
	settings, err := s.settings.GetUserSettings(ctx, userID)
	switch {
	case err == nil:
		mergeSettings(profile, settings)
	case errors.Is(err, social.ErrSettingsNotFound):
		// First access for a user with no persisted settings: defaults are
		// the profile, and they are cacheable.
	default:
		// Store failure: serve defaults but do not cache, so the fetch is
		// retried on the next call.
		log.Printf("[prefs] settings fetch for %s failed, serving defaults: %v", userID, err)
		return profile
	}

	s.put(userID, profile)
	return profile
}

func mergeSettings(profile *social.PreferenceProfile, settings *social.UserSettings) {
	for contentType, weight := range settings.ContentTypes {
		if weight > 0 {
			profile.ContentTypes[contentType] = weight
		}
	}
	for _, author := range settings.FavoriteAuthors {
		addFavoriteAuthor(profile, author)
	}
	if len(settings.Topics) > 0 {
		profile.Topics = append([]string(nil), settings.Topics...)
	}
}

// put stores the profile in memory and best-effort writes it back to the
// cache so it survives a restart.
func (s *Store) put(userID string, profile *social.PreferenceProfile) {
	s.mu.Lock()
	s.profiles[userID] = profile
	s.mu.Unlock()

	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, userID, profile); err != nil {
			log.Printf("[prefs] cache write for %s failed: %v", userID, err)
		}
	}
}

// UpdateFromRanked applies the unconditional positive-feedback update after
// a feed render: every content type shown gains a fixed increment, every
// author shown is promoted to the (bounded) favorite set, then content-type
// weights are renormalized to sum to 1.
func (s *Store) UpdateFromRanked(ctx context.Context, userID string, ranked []social.RankedPost) {
	profile := s.Get(ctx, userID)

	for _, post := range ranked {
		if w, ok := profile.ContentTypes[post.ContentType]; ok && w > 0 {
			profile.ContentTypes[post.ContentType] += rankedFeedbackIncrement
		}
		addFavoriteAuthor(profile, post.UserID)
	}
	renormalize(profile)

	s.put(userID, profile)
}

// RecordInteraction durably persists a raw interaction record.
func (s *Store) RecordInteraction(ctx context.Context, userID, postID, interactionType string, duration float64) error {
	return s.interactions.RecordInteraction(ctx, &social.Interaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		PostID:          postID,
		InteractionType: interactionType,
		Duration:        duration,
		CreatedAt:       time.Now(),
	})
}

// interactionIncrement maps an interaction type to its affinity increment:
// sharing carries the strongest signal, viewing the weakest.
func interactionIncrement(interactionType string) (float64, bool) {
	switch interactionType {
	case "view":
		return viewIncrement, true
	case "like":
		return likeIncrement, true
	case "comment":
		return commentIncrement, true
	case "share":
		return shareIncrement, true
	default:
		return 0, false
	}
}

// UpdateFromInteraction differentially adjusts the profile by interaction
// type, weighting the interacted post's content type. Best-effort: a failed
// post lookup leaves the profile untouched.
func (s *Store) UpdateFromInteraction(ctx context.Context, userID, postID, interactionType string) {
	increment, ok := interactionIncrement(interactionType)
	if !ok {
		return
	}

	post, err := s.feed.GetPostByID(ctx, postID)
	if err != nil {
		log.Printf("[prefs] post lookup for interaction on %s failed: %v", postID, err)
		return
	}

	profile := s.Get(ctx, userID)
	if _, ok := profile.ContentTypes[post.ContentType]; ok {
		profile.ContentTypes[post.ContentType] += increment
	} else {
		profile.ContentTypes[post.ContentType] = increment
	}
	if interactionType == "share" {
		addFavoriteAuthor(profile, post.UserID)
	}
	renormalize(profile)

	s.put(userID, profile)
}

// CachedUsers returns the number of profiles held in memory.
func (s *Store) CachedUsers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// ValidInteractionType reports whether the type is one the store tracks.
func ValidInteractionType(interactionType string) bool {
	_, ok := interactionIncrement(interactionType)
	return ok
}

func addFavoriteAuthor(profile *social.PreferenceProfile, authorID string) {
	if authorID == "" || profile.HasFavoriteAuthor(authorID) {
		return
	}
	profile.FavoriteAuthors = append(profile.FavoriteAuthors, authorID)
	if len(profile.FavoriteAuthors) > maxFavoriteAuthors {
		profile.FavoriteAuthors = profile.FavoriteAuthors[len(profile.FavoriteAuthors)-maxFavoriteAuthors:]
	}
}

// renormalize divides content-type weights by their sum so they stay a valid
// convex combination.
func renormalize(profile *social.PreferenceProfile) {
	sum := 0.0
	for _, w := range profile.ContentTypes {
		sum += w
	}
	if sum <= 0 {
		return
	}
	for k, w := range profile.ContentTypes {
		profile.ContentTypes[k] = w / sum
	}
}
