package cache

import (
	"context"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis client and exposes the cache.
type Module struct {
	redisAddr string
	prefix    string
	ttl       time.Duration
	cache     *Cache
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModuleWithConfig creates a cache module for the given Redis address.
// The client is created eagerly so other modules can be wired to the cache
// before the application starts; connectivity is probed in Start.
func NewModuleWithConfig(redisAddr, prefix string, ttl time.Duration) *Module {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	return &Module{
		redisAddr: redisAddr,
		prefix:    prefix,
		ttl:       ttl,
		cache:     New(client, prefix, ttl),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start probes Redis. A failed ping is logged but not fatal: the cache
// degrades to a pass-through and callers fall back to their source of truth.
func (m *Module) Start(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.cache.Ping(pingCtx); err != nil {
		log.Printf("[cache] Redis at %s unreachable, operating degraded: %v", m.redisAddr, err)
	} else {
		log.Printf("[cache] Connected to Redis at %s (ttl %s)", m.redisAddr, m.ttl)
	}
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			return err
		}
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	healthy := m.cache != nil && m.cache.Ping(ctx) == nil
	return mono.HealthStatus{
		Healthy: healthy,
		Message: "redis",
		Details: map[string]any{
			"stats": m.cache.GetStats(),
		},
	}
}

// GetCache returns the cache instance.
func (m *Module) GetCache() *Cache {
	return m.cache
}
