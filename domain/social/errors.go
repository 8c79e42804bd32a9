package social

import "errors"

var (
	// ErrProfileNotFound is returned when a profile lookup misses.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrPostNotFound is returned when a post lookup misses.
	ErrPostNotFound = errors.New("post not found")
	// ErrSettingsNotFound is returned when a user has no persisted settings.
	ErrSettingsNotFound = errors.New("user settings not found")
)
