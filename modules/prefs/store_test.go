package prefs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/vibecircles/realtime-core/domain/social"
)

type fakeSettings struct {
	settings map[string]*social.UserSettings
	err      error
	fetches  int
}

func (s *fakeSettings) GetUserSettings(_ context.Context, userID string) (*social.UserSettings, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	if settings, ok := s.settings[userID]; ok {
		return settings, nil
	}
	return nil, social.ErrSettingsNotFound
}

type fakeInteractions struct {
	recorded []*social.Interaction
	err      error
}

func (s *fakeInteractions) RecordInteraction(_ context.Context, in *social.Interaction) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, in)
	return nil
}

type fakeFeed struct {
	posts map[string]*social.Post
}

func (s *fakeFeed) GetFeedCandidates(context.Context, string, int, int) ([]social.Post, error) {
	return nil, nil
}

func (s *fakeFeed) GetPostByID(_ context.Context, postID string) (*social.Post, error) {
	if p, ok := s.posts[postID]; ok {
		return p, nil
	}
	return nil, social.ErrPostNotFound
}

func (s *fakeFeed) GetRecentByAuthors(context.Context, []string, int) ([]social.Post, error) {
	return nil, nil
}

func newTestStore() (*Store, *fakeSettings, *fakeInteractions, *fakeFeed) {
	settings := &fakeSettings{settings: map[string]*social.UserSettings{}}
	interactions := &fakeInteractions{}
	feed := &fakeFeed{posts: map[string]*social.Post{}}
	return NewStore(settings, interactions, feed, nil), settings, interactions, feed
}

func weightSum(profile *social.PreferenceProfile) float64 {
	sum := 0.0
	for _, w := range profile.ContentTypes {
		sum += w
	}
	return sum
}

func TestStore_GetDefaults(t *testing.T) {
	store, settings, _, _ := newTestStore()
	ctx := context.Background()

	profile := store.Get(ctx, "alice")

	if got := profile.ContentTypes["image"]; got != 0.8 {
		t.Errorf("default image affinity = %v, want 0.8", got)
	}
	if got := profile.ContentTypes["link"]; got != 0.3 {
		t.Errorf("default link affinity = %v, want 0.3", got)
	}
	if len(profile.FavoriteAuthors) != 0 || len(profile.Topics) != 0 {
		t.Error("default profile should have empty author and topic sets")
	}
	if profile.EngagementWeight != 0.4 || profile.RelevanceWeight != 0.4 || profile.RecencyWeight != 0.2 {
		t.Errorf("default blend = %v/%v/%v, want 0.4/0.4/0.2",
			profile.EngagementWeight, profile.RelevanceWeight, profile.RecencyWeight)
	}

	// Second access hits the in-process cache, not the settings store.
	store.Get(ctx, "alice")
	if settings.fetches != 1 {
		t.Errorf("settings fetched %d times, want 1", settings.fetches)
	}
}

func TestStore_GetMergesPersistedSettings(t *testing.T) {
	store, settings, _, _ := newTestStore()
	settings.settings["bob"] = &social.UserSettings{
		UserID:          "bob",
		ContentTypes:    map[string]float64{"video": 0.9},
		FavoriteAuthors: []string{"carol"},
		Topics:          []string{"music"},
	}

	profile := store.Get(context.Background(), "bob")

	if got := profile.ContentTypes["video"]; got != 0.9 {
		t.Errorf("merged video affinity = %v, want 0.9", got)
	}
	if got := profile.ContentTypes["image"]; got != 0.8 {
		t.Errorf("unmerged image affinity = %v, want default 0.8", got)
	}
	if !profile.HasFavoriteAuthor("carol") {
		t.Error("merged profile should include persisted favorite authors")
	}
	if len(profile.Topics) != 1 || profile.Topics[0] != "music" {
		t.Errorf("merged topics = %v, want [music]", profile.Topics)
	}
}

func TestStore_GetStoreFailureNotCached(t *testing.T) {
	store, settings, _, _ := newTestStore()
	settings.err = errors.New("store down")
	ctx := context.Background()

	profile := store.Get(ctx, "alice")
	if got := profile.ContentTypes["image"]; got != 0.8 {
		t.Errorf("fallback profile image affinity = %v, want default", got)
	}

	// The failure is not cached: the next call retries the fetch.
	settings.err = nil
	store.Get(ctx, "alice")
	if settings.fetches != 2 {
		t.Errorf("settings fetched %d times, want 2 (retry after failure)", settings.fetches)
	}
}

func TestStore_GetReturnsCopies(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	first := store.Get(ctx, "alice")
	first.ContentTypes["image"] = 99
	first.FavoriteAuthors = append(first.FavoriteAuthors, "mallory")

	second := store.Get(ctx, "alice")
	if second.ContentTypes["image"] != 0.8 {
		t.Error("mutating a returned profile must not affect the cached one")
	}
	if len(second.FavoriteAuthors) != 0 {
		t.Error("mutating a returned author set must not affect the cached one")
	}
}

func TestStore_UpdateFromRankedRenormalizes(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	ranked := []social.RankedPost{
		{Post: social.Post{UserID: "author-1", ContentType: "image"}},
		{Post: social.Post{UserID: "author-2", ContentType: "image"}},
		{Post: social.Post{UserID: "author-1", ContentType: "text"}},
	}
	store.UpdateFromRanked(ctx, "alice", ranked)

	profile := store.Get(ctx, "alice")
	if sum := weightSum(profile); math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("content-type weight sum = %v, want 1.0", sum)
	}
	// image (+0.02) gained on text (+0.01) relative to the defaults.
	if profile.ContentTypes["image"] <= profile.ContentTypes["text"]*1.5 {
		t.Errorf("image affinity %v should stay well above text %v",
			profile.ContentTypes["image"], profile.ContentTypes["text"])
	}
	if !profile.HasFavoriteAuthor("author-1") || !profile.HasFavoriteAuthor("author-2") {
		t.Error("shown authors should be added to the favorite set")
	}
	if len(profile.FavoriteAuthors) != 2 {
		t.Errorf("favorite set size = %d, want 2 (no duplicates)", len(profile.FavoriteAuthors))
	}
}

func TestStore_FavoriteAuthorsBounded(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	ranked := make([]social.RankedPost, 0, maxFavoriteAuthors+20)
	for i := 0; i < maxFavoriteAuthors+20; i++ {
		ranked = append(ranked, social.RankedPost{
			Post: social.Post{UserID: fmt.Sprintf("author-%03d", i), ContentType: "text"},
		})
	}
	store.UpdateFromRanked(ctx, "alice", ranked)

	profile := store.Get(ctx, "alice")
	if len(profile.FavoriteAuthors) != maxFavoriteAuthors {
		t.Fatalf("favorite set size = %d, want capped at %d", len(profile.FavoriteAuthors), maxFavoriteAuthors)
	}
	// Oldest entries are evicted first.
	if profile.HasFavoriteAuthor("author-000") {
		t.Error("oldest author should have been evicted")
	}
	if !profile.HasFavoriteAuthor(fmt.Sprintf("author-%03d", maxFavoriteAuthors+19)) {
		t.Error("newest author should be retained")
	}
}

func TestStore_RecordInteraction(t *testing.T) {
	store, _, interactions, _ := newTestStore()
	ctx := context.Background()

	if err := store.RecordInteraction(ctx, "alice", "post-1", "like", 12.5); err != nil {
		t.Fatalf("RecordInteraction() error: %v", err)
	}
	if len(interactions.recorded) != 1 {
		t.Fatalf("recorded %d interactions, want 1", len(interactions.recorded))
	}
	rec := interactions.recorded[0]
	if rec.UserID != "alice" || rec.PostID != "post-1" || rec.InteractionType != "like" || rec.Duration != 12.5 {
		t.Errorf("recorded interaction = %+v", rec)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Error("recorded interaction should carry an ID and timestamp")
	}

	interactions.err = errors.New("store down")
	if err := store.RecordInteraction(ctx, "alice", "post-1", "like", 0); err == nil {
		t.Error("RecordInteraction() should surface persistence errors")
	}
}

func TestStore_UpdateFromInteraction(t *testing.T) {
	store, _, _, feed := newTestStore()
	ctx := context.Background()
	feed.posts["post-1"] = &social.Post{ID: "post-1", UserID: "author-9", ContentType: "video", CreatedAt: time.Now()}

	base := store.Get(ctx, "alice")
	// Compare relative shares: the raw defaults are not yet normalized.
	baseline := base.ContentTypes["video"] / weightSum(base)

	tests := []struct {
		interactionType string
		wantFavorite    bool
	}{
		{interactionType: "view"},
		{interactionType: "like"},
		{interactionType: "comment"},
		{interactionType: "share", wantFavorite: true},
	}

	prev := baseline
	for _, tt := range tests {
		t.Run(tt.interactionType, func(t *testing.T) {
			store.UpdateFromInteraction(ctx, "alice", "post-1", tt.interactionType)
			profile := store.Get(ctx, "alice")

			if sum := weightSum(profile); math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("weight sum after %s = %v, want 1.0", tt.interactionType, sum)
			}
			if profile.ContentTypes["video"] <= prev {
				t.Errorf("video affinity after %s = %v, want > %v", tt.interactionType, profile.ContentTypes["video"], prev)
			}
			if got := profile.HasFavoriteAuthor("author-9"); got != tt.wantFavorite {
				t.Errorf("favorite author after %s = %v, want %v", tt.interactionType, got, tt.wantFavorite)
			}
			prev = profile.ContentTypes["video"]
		})
	}
}

func TestStore_UpdateFromInteractionUnknownTypeOrPost(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	before := store.Get(ctx, "alice")
	store.UpdateFromInteraction(ctx, "alice", "post-1", "hover")   // unknown type
	store.UpdateFromInteraction(ctx, "alice", "missing", "like")   // unknown post
	after := store.Get(ctx, "alice")

	for k, w := range before.ContentTypes {
		if after.ContentTypes[k] != w {
			t.Errorf("affinity %q changed from %v to %v, want untouched", k, w, after.ContentTypes[k])
		}
	}
}

func TestValidInteractionType(t *testing.T) {
	for _, valid := range []string{"view", "like", "comment", "share"} {
		if !ValidInteractionType(valid) {
			t.Errorf("ValidInteractionType(%q) = false, want true", valid)
		}
	}
	if ValidInteractionType("hover") || ValidInteractionType("") {
		t.Error("unknown interaction types should be invalid")
	}
}
