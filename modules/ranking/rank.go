package ranking

import (
	"sort"
	"time"

	"github.com/vibecircles/realtime-core/domain/social"
)

// Algorithm selects a ranking strategy by name.
type Algorithm string

const (
	AlgorithmEngagement   Algorithm = "engagement"
	AlgorithmRelevance    Algorithm = "relevance"
	AlgorithmRecency      Algorithm = "recency"
	AlgorithmHybrid       Algorithm = "hybrid"
	AlgorithmPersonalized Algorithm = "personalized"
)

// ParseAlgorithm maps a request parameter to an Algorithm. Anything
// unrecognized (including empty) falls back to the hybrid default.
func ParseAlgorithm(name string) Algorithm {
	switch Algorithm(name) {
	case AlgorithmEngagement, AlgorithmRelevance, AlgorithmRecency, AlgorithmPersonalized:
		return Algorithm(name)
	default:
		return AlgorithmHybrid
	}
}

// Rank scores posts with the selected algorithm and returns them in
// descending score order. The sort is stable: equal-score posts retain their
// input relative order, which upstream serves reverse-chronologically.
func Rank(posts []social.Post, prefs *social.PreferenceProfile, now time.Time, algorithm Algorithm) []social.RankedPost {
	score := scorer(algorithm)

	ranked := make([]social.RankedPost, len(posts))
	for i, post := range posts {
		ranked[i] = social.RankedPost{
			Post:         post,
			RankingScore: score(post, prefs, now),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RankingScore > ranked[j].RankingScore
	})
	return ranked
}

func scorer(algorithm Algorithm) func(social.Post, *social.PreferenceProfile, time.Time) float64 {
	switch algorithm {
	case AlgorithmEngagement:
		return func(p social.Post, _ *social.PreferenceProfile, now time.Time) float64 {
			return EngagementScore(p, now)
		}
	case AlgorithmRelevance:
		return func(p social.Post, prefs *social.PreferenceProfile, _ time.Time) float64 {
			return RelevanceScore(p, prefs)
		}
	case AlgorithmRecency:
		return func(p social.Post, _ *social.PreferenceProfile, now time.Time) float64 {
			return RecencyScore(p, now)
		}
	case AlgorithmPersonalized:
		return PersonalizedScore
	default:
		return HybridScore
	}
}
