package httpserver

import "github.com/vibecircles/realtime-core/domain/social"

// RankFeedRequest is the body of POST /rank-feed.
type RankFeedRequest struct {
	Posts     []social.Post `json:"posts"`
	Algorithm string        `json:"algorithm,omitempty"`
}

// TrackInteractionRequest is the body of POST /track-interaction.
type TrackInteractionRequest struct {
	PostID          string  `json:"postId"`
	InteractionType string  `json:"interactionType"`
	Duration        float64 `json:"duration,omitempty"`
}

// ErrorResponse is the error body returned by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse wraps successful endpoint payloads.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Pagination describes one page of a paginated response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
