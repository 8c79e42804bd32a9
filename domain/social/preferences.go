package social

// Default content-type affinities for a user with no history.
const (
	DefaultTextAffinity  = 0.5
	DefaultImageAffinity = 0.8
	DefaultVideoAffinity = 0.6
	DefaultLinkAffinity  = 0.3
)

// Default blending weights for the hybrid score.
const (
	DefaultEngagementWeight = 0.4
	DefaultRelevanceWeight  = 0.4
	DefaultRecencyWeight    = 0.2
)

// PreferenceProfile is a user's cached content affinity profile. Content-type
// weights form a convex combination after every renormalization; blending
// weights conceptually sum to 1.0.
type PreferenceProfile struct {
	ContentTypes        map[string]float64 `json:"content_types"`
	FavoriteAuthors     []string           `json:"favorite_authors"`
	Topics              []string           `json:"topics"`
	EngagementThreshold float64            `json:"engagement_threshold"`
	EngagementWeight    float64            `json:"engagement_weight"`
	RelevanceWeight     float64            `json:"relevance_weight"`
	RecencyWeight       float64            `json:"recency_weight"`
}

// DefaultPreferences returns the hard-coded default profile.
func DefaultPreferences() *PreferenceProfile {
	return &PreferenceProfile{
		ContentTypes: map[string]float64{
			"text":  DefaultTextAffinity,
			"image": DefaultImageAffinity,
			"video": DefaultVideoAffinity,
			"link":  DefaultLinkAffinity,
		},
		FavoriteAuthors:     []string{},
		Topics:              []string{},
		EngagementThreshold: 0.5,
		EngagementWeight:    DefaultEngagementWeight,
		RelevanceWeight:     DefaultRelevanceWeight,
		RecencyWeight:       DefaultRecencyWeight,
	}
}

// HasFavoriteAuthor reports whether authorID is in the favorite set.
func (p *PreferenceProfile) HasFavoriteAuthor(authorID string) bool {
	for _, id := range p.FavoriteAuthors {
		if id == authorID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand profiles across goroutines.
func (p *PreferenceProfile) Clone() *PreferenceProfile {
	cp := *p
	cp.ContentTypes = make(map[string]float64, len(p.ContentTypes))
	for k, v := range p.ContentTypes {
		cp.ContentTypes[k] = v
	}
	cp.FavoriteAuthors = append([]string(nil), p.FavoriteAuthors...)
	cp.Topics = append([]string(nil), p.Topics...)
	return &cp
}
