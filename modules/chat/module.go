// Package chat owns the realtime chat subsystem: the connection registry,
// the presence fan-out engine and the message relay.
package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"

	"github.com/vibecircles/realtime-core/domain/social"
	"github.com/vibecircles/realtime-core/modules/presence"
	"github.com/vibecircles/realtime-core/modules/registry"
	"github.com/vibecircles/realtime-core/modules/relay"
)

// Module wires the registry, presence engine and relay into one lifecycle.
type Module struct {
	registry *registry.Registry
	presence *presence.Engine
	relay    *relay.Relay
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the chat module with an empty registry. Collaborators
// must be injected with SetCollaborators before Start.
func NewModule() *Module {
	return &Module{
		registry: registry.New(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetCollaborators injects the external boundary collaborators (called from
// main.go once the store module is constructed).
func (m *Module) SetCollaborators(
	profiles social.ProfileStore,
	friends social.FriendGraph,
	messages social.MessageStore,
	notify social.NotificationSink,
) {
	m.presence = presence.NewEngine(m.registry, friends)
	m.relay = relay.New(m.registry, profiles, messages, notify)
}

// Start verifies wiring.
func (m *Module) Start(_ context.Context) error {
	if m.relay == nil || m.presence == nil {
		return fmt.Errorf("chat collaborators not set")
	}
	log.Println("[chat] Module started")
	return nil
}

// Stop closes every live connection.
func (m *Module) Stop(_ context.Context) error {
	count := m.registry.Count()
	m.registry.CloseAll()
	log.Printf("[chat] Module stopped - %d connections closed", count)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.registry.Count(),
		},
	}
}

// Registry exposes the connection registry for the HTTP surface
// (online-users, user-status).
func (m *Module) Registry() *registry.Registry {
	return m.registry
}

// HandleConnect registers an authenticated connection, confirms the
// handshake and broadcasts the online transition. A prior connection for the
// same user is replaced and closed (last-writer-wins).
func (m *Module) HandleConnect(profile *social.Profile, conn registry.Conn) {
	if replaced := m.registry.Register(profile.ID, conn); replaced != nil {
		_ = replaced.Close()
	}

	m.registry.Send(profile.ID, relay.ConnectionEstablished{
		Type:      relay.TypeConnectionEstablished,
		UserID:    profile.ID,
		Timestamp: time.Now(),
	})

	m.presence.NotifyOnline(profile.ID)
	log.Printf("[chat] User %s connected", profile.ID)
}

// HandleDisconnect removes the connection and broadcasts the offline
// transition. The removal and broadcast happen exactly once per connection:
// a stale connection's teardown after a replacement is a no-op.
func (m *Module) HandleDisconnect(userID string, conn registry.Conn) {
	if !m.registry.Remove(userID, conn) {
		return
	}
	m.presence.NotifyOffline(userID)
	log.Printf("[chat] User %s disconnected", userID)
}

// HandleFrame forwards one inbound frame to the relay.
func (m *Module) HandleFrame(ctx context.Context, sender *social.Profile, data []byte) {
	m.relay.HandleFrame(ctx, sender, data)
}
