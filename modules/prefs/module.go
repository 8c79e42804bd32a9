package prefs

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"

	"github.com/vibecircles/realtime-core/domain/social"
)

// Module wraps the preference store in a lifecycle.
type Module struct {
	store *Store
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the prefs module. Collaborators are injected with
// SetCollaborators before Start.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "prefs"
}

// SetCollaborators injects the settings store, interaction store, feed
// source and (optionally nil) the profile write-back cache.
func (m *Module) SetCollaborators(settings social.SettingsStore, interactions social.InteractionStore, feed social.FeedSource, cache ProfileCache) {
	m.store = NewStore(settings, interactions, feed, cache)
}

// Start verifies wiring.
func (m *Module) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("prefs collaborators not set")
	}
	log.Println("[prefs] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[prefs] Module stopped - %d profiles cached", m.store.CachedUsers())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"cached_users": m.store.CachedUsers(),
		},
	}
}

// Store returns the preference store.
func (m *Module) Store() *Store {
	return m.store
}
