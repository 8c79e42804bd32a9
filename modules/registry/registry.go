// Package registry tracks live realtime connections by user identity.
package registry

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the transport handle the registry writes to. Satisfied by
// *websocket.Conn; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live connection with its joined room set. Owned exclusively
// by the Registry.
type Client struct {
	UserID string
	conn   Conn
	rooms  map[string]struct{}
	// Serializes writes: presence fan-out and relay handlers may push to the
	// same connection from different goroutines.
	writeMu sync.Mutex
}

// Send marshals payload to JSON and writes it to the connection.
func (c *Client) Send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Registry maps user identities to their live connections. At most one
// connection per user: a new registration silently replaces any prior entry
// (last-writer-wins, no multi-device fan-out).
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register stores the connection for userID with a fresh empty room set,
// overwriting any previous entry. The replaced connection, if any, is
// returned so the caller may close it.
func (r *Registry) Register(userID string, conn Conn) (replaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.clients[userID]; ok {
		replaced = prev.conn
	}
	r.clients[userID] = &Client{
		UserID: userID,
		conn:   conn,
		rooms:  make(map[string]struct{}),
	}
	return replaced
}

// Lookup returns the live client for userID, if any.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[userID]
	return client, ok
}

// Remove deletes the entry for userID only if conn is still the registered
// connection, and reports whether an entry was removed. The conn check keeps
// a stale connection's teardown from evicting a replacement that registered
// in the meantime.
func (r *Registry) Remove(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[userID]
	if !ok || client.conn != conn {
		return false
	}
	delete(r.clients, userID)
	return true
}

// Send pushes payload to userID's connection if one is registered. Reports
// whether a delivery was attempted; an unregistered user is a silent drop.
func (r *Registry) Send(userID string, payload any) bool {
	r.mu.RLock()
	client, ok := r.clients[userID]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	if err := client.Send(payload); err != nil {
		log.Printf("[registry] send to %s failed: %v", userID, err)
		return false
	}
	return true
}

// IsOnline reports whether userID has a registered connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}

// OnlineUsers returns the identities of all registered users.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.clients))
	for userID := range r.clients {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// JoinRoom adds roomID to userID's room set. No-op if the user is not
// registered.
func (r *Registry) JoinRoom(userID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[userID]; ok {
		client.rooms[roomID] = struct{}{}
	}
}

// LeaveRoom removes roomID from userID's room set. Leaving a room never
// joined is a no-op.
func (r *Registry) LeaveRoom(userID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[userID]; ok {
		delete(client.rooms, roomID)
	}
}

// Rooms returns a copy of userID's joined room set.
func (r *Registry) Rooms(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[userID]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(client.rooms))
	for roomID := range client.rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// CloseAll closes every registered connection and clears the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		_ = client.conn.Close()
	}
	r.clients = make(map[string]*Client)
}
