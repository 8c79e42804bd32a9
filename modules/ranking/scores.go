// Package ranking scores and orders feed candidates.
package ranking

import (
	"math"
	"time"

	"github.com/vibecircles/realtime-core/domain/social"
)

// Relevance contribution weights. Absent preference data contributes zero,
// never a penalty; the maximum possible relevance is 1.0.
const (
	contentTypeContribution = 0.3
	favoriteAuthorBonus     = 0.4
	topicContribution       = 0.3
)

// recencyDecayHours controls the exponential decay of the recency score.
// exp(-h/24) halves roughly every 16.6 hours.
const recencyDecayHours = 24.0

// hoursSince returns the elapsed hours between the post's creation and now.
func hoursSince(post social.Post, now time.Time) float64 {
	return now.Sub(post.CreatedAt).Hours()
}

// EngagementScore is ln(1 + (likes + 2*comments + 3*shares) / max(1, hours)).
// The log dampens viral outliers; dividing by elapsed time rewards the rate
// of engagement rather than raw counts. max(1, hours) guards posts created
// within the last hour or in the future.
func EngagementScore(post social.Post, now time.Time) float64 {
	raw := float64(post.LikeCount) + 2*float64(post.CommentCount) + 3*float64(post.ShareCount)
	rate := raw / math.Max(1, hoursSince(post, now))
	return math.Log(1 + rate)
}

// RelevanceScore sums three independent contributions against the user's
// preference profile, each added only when the corresponding data is present.
func RelevanceScore(post social.Post, prefs *social.PreferenceProfile) float64 {
	score := 0.0

	if w, ok := prefs.ContentTypes[post.ContentType]; ok && w > 0 {
		score += w * contentTypeContribution
	}

	if prefs.HasFavoriteAuthor(post.UserID) {
		score += favoriteAuthorBonus
	}

	if len(prefs.Topics) > 0 && len(post.Topics) > 0 {
		matching := 0
		for _, topic := range post.Topics {
			for _, preferred := range prefs.Topics {
				if topic == preferred {
					matching++
					break
				}
			}
		}
		score += float64(matching) / float64(len(post.Topics)) * topicContribution
	}

	return score
}

// RecencyScore is exp(-hours/24): strictly decreasing in elapsed time,
// asymptotic to zero, never negative.
func RecencyScore(post social.Post, now time.Time) float64 {
	return math.Exp(-hoursSince(post, now) / recencyDecayHours)
}

// HybridScore blends the three signals with the fixed default weights.
// Deliberately independent of the per-user blending weights; see
// PersonalizedScore for the profile-driven blend.
func HybridScore(post social.Post, prefs *social.PreferenceProfile, now time.Time) float64 {
	return social.DefaultEngagementWeight*EngagementScore(post, now) +
		social.DefaultRelevanceWeight*RelevanceScore(post, prefs) +
		social.DefaultRecencyWeight*RecencyScore(post, now)
}

// PersonalizedScore blends the three signals with the per-user weights
// stored in the preference profile.
func PersonalizedScore(post social.Post, prefs *social.PreferenceProfile, now time.Time) float64 {
	return prefs.EngagementWeight*EngagementScore(post, now) +
		prefs.RelevanceWeight*RelevanceScore(post, prefs) +
		prefs.RecencyWeight*RecencyScore(post, now)
}
