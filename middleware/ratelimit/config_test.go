package ratelimit

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Limit != 100 {
		t.Errorf("Limit = %d, want 100", config.Limit)
	}
	if config.Window != 15*time.Minute {
		t.Errorf("Window = %v, want 15m", config.Window)
	}
	if config.KeyPrefix != "ratelimit:" {
		t.Errorf("KeyPrefix = %q, want %q", config.KeyPrefix, "ratelimit:")
	}
}

func TestNewLimiter(t *testing.T) {
	limiter := NewLimiter(nil, "test:")
	if limiter == nil {
		t.Fatal("NewLimiter() returned nil")
	}
	if limiter.keyPrefix != "test:" {
		t.Errorf("keyPrefix = %q, want %q", limiter.keyPrefix, "test:")
	}
}
