package httpserver

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vibecircles/realtime-core/domain/social"
	"github.com/vibecircles/realtime-core/modules/auth"
	"github.com/vibecircles/realtime-core/modules/chat"
	"github.com/vibecircles/realtime-core/modules/prefs"
	"github.com/vibecircles/realtime-core/modules/ranking"
)

const (
	defaultFeedLimit            = 20
	maxFeedLimit                = 100
	defaultRecommendationsLimit = 10
)

// Handlers contains the REST and WebSocket handlers of the realtime core.
type Handlers struct {
	chat     *chat.Module
	prefs    *prefs.Store
	feed     social.FeedSource
	profiles social.ProfileStore
	jwt      *auth.JWTManager
	logger   *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	chatModule *chat.Module,
	prefStore *prefs.Store,
	feed social.FeedSource,
	profiles social.ProfileStore,
	jwtManager *auth.JWTManager,
) *Handlers {
	return &Handlers{
		chat:     chatModule,
		prefs:    prefStore,
		feed:     feed,
		profiles: profiles,
		jwt:      jwtManager,
		logger:   slog.Default(),
	}
}

// RankFeed ranks a caller-supplied batch of posts (POST /rank-feed).
func (h *Handlers) RankFeed(c *fiber.Ctx) error {
	var req RankFeedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid request body",
		})
	}
	if req.Posts == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Posts array required",
		})
	}

	userID := c.Locals(UserIDContextKey).(string)
	ctx := c.UserContext()

	preferences := h.prefs.Get(ctx, userID)
	algorithm := ranking.ParseAlgorithm(req.Algorithm)
	ranked := ranking.Rank(req.Posts, preferences, time.Now(), algorithm)

	h.prefs.UpdateFromRanked(ctx, userID, ranked)

	return c.JSON(SuccessResponse{
		Success: true,
		Data: fiber.Map{
			"posts":            ranked,
			"algorithm":        string(algorithm),
			"user_preferences": preferences,
		},
	})
}

// GetFeed returns one ranked page of a user's feed (GET /feed/:userId).
func (h *Handlers) GetFeed(c *fiber.Ctx) error {
	userID := c.Params("userId")

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultFeedLimit)
	if limit < 1 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	algorithm := ranking.ParseAlgorithm(c.Query("algorithm"))

	ctx := c.UserContext()
	posts, err := h.feed.GetFeedCandidates(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		h.logger.Error("Failed to load feed candidates", "userID", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Failed to get feed",
			Message: err.Error(),
		})
	}

	preferences := h.prefs.Get(ctx, userID)
	ranked := ranking.Rank(posts, preferences, time.Now(), algorithm)

	return c.JSON(SuccessResponse{
		Success: true,
		Data: fiber.Map{
			"posts": ranked,
			"pagination": Pagination{
				Page:  page,
				Limit: limit,
				Total: len(posts),
			},
			"algorithm": string(algorithm),
		},
	})
}

// TrackInteraction records an interaction and folds it into the caller's
// preference profile (POST /track-interaction).
func (h *Handlers) TrackInteraction(c *fiber.Ctx) error {
	var req TrackInteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid request body",
		})
	}
	if req.PostID == "" || req.InteractionType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Post ID and interaction type required",
		})
	}
	if !prefs.ValidInteractionType(req.InteractionType) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Unknown interaction type: " + req.InteractionType,
		})
	}

	userID := c.Locals(UserIDContextKey).(string)
	ctx := c.UserContext()

	if err := h.prefs.RecordInteraction(ctx, userID, req.PostID, req.InteractionType, req.Duration); err != nil {
		h.logger.Error("Failed to record interaction", "userID", userID, "postID", req.PostID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Failed to track interaction",
			Message: err.Error(),
		})
	}

	h.prefs.UpdateFromInteraction(ctx, userID, req.PostID, req.InteractionType)

	return c.JSON(SuccessResponse{
		Success: true,
		Message: "Interaction tracked successfully",
	})
}

// GetRecommendations returns recent posts by a user's favorite authors
// (GET /recommendations/:userId).
func (h *Handlers) GetRecommendations(c *fiber.Ctx) error {
	userID := c.Params("userId")

	limit := c.QueryInt("limit", defaultRecommendationsLimit)
	if limit < 1 {
		limit = defaultRecommendationsLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	ctx := c.UserContext()
	preferences := h.prefs.Get(ctx, userID)

	recommendations, err := h.feed.GetRecentByAuthors(ctx, preferences.FavoriteAuthors, limit)
	if err != nil {
		h.logger.Error("Failed to load recommendations", "userID", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Failed to get recommendations",
			Message: err.Error(),
		})
	}

	return c.JSON(SuccessResponse{
		Success: true,
		Data: fiber.Map{
			"recommendations":  recommendations,
			"user_preferences": preferences,
		},
	})
}

// OnlineUsers lists the currently connected users (GET /online-users).
func (h *Handlers) OnlineUsers(c *fiber.Ctx) error {
	users := h.chat.Registry().OnlineUsers()
	return c.JSON(SuccessResponse{
		Success: true,
		Data: fiber.Map{
			"users": users,
			"count": len(users),
		},
	})
}

// UserStatus reports whether a user is connected (GET /user-status/:userId).
func (h *Handlers) UserStatus(c *fiber.Ctx) error {
	userID := c.Params("userId")
	return c.JSON(SuccessResponse{
		Success: true,
		Data: fiber.Map{
			"userId": userID,
			"online": h.chat.Registry().IsOnline(userID),
		},
	})
}

// HealthCheck handles health check requests (GET /health).
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":            "healthy",
		"service":           "realtime-core",
		"connected_clients": h.chat.Registry().Count(),
		"cached_users":      h.prefs.CachedUsers(),
	})
}
