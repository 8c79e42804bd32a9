// Package presence pushes online/offline transitions to a user's friends.
package presence

import (
	"context"
	"log"
	"time"

	"github.com/vibecircles/realtime-core/domain/social"
	"github.com/vibecircles/realtime-core/modules/registry"
	"github.com/vibecircles/realtime-core/modules/relay"
)

// fetchTimeout bounds the friend-list fetch for one broadcast.
const fetchTimeout = 5 * time.Second

// Engine fans presence events out to the friends currently registered.
// Broadcasts are best-effort: a failed friend-list fetch is logged and
// swallowed, never surfaced to the connection that triggered it.
type Engine struct {
	registry *registry.Registry
	friends  social.FriendGraph
	clock    func() time.Time
}

// NewEngine creates a presence engine over the given registry and friend graph.
func NewEngine(reg *registry.Registry, friends social.FriendGraph) *Engine {
	return &Engine{
		registry: reg,
		friends:  friends,
		clock:    time.Now,
	}
}

// NotifyOnline asynchronously broadcasts a user_online event to userID's
// online friends. Registration is never rolled back on failure.
func (e *Engine) NotifyOnline(userID string) {
	go e.broadcastWithTimeout(userID, relay.TypeUserOnline)
}

// NotifyOffline asynchronously broadcasts a user_offline event to userID's
// online friends.
func (e *Engine) NotifyOffline(userID string) {
	go e.broadcastWithTimeout(userID, relay.TypeUserOffline)
}

func (e *Engine) broadcastWithTimeout(userID, eventType string) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	e.broadcast(ctx, userID, eventType)
}

// broadcast fetches the friend list and pushes the event to every friend
// with a registered connection.
func (e *Engine) broadcast(ctx context.Context, userID, eventType string) {
	friends, err := e.friends.GetFriends(ctx, userID)
	if err != nil {
		log.Printf("[presence] friend fetch for %s failed, skipping %s broadcast: %v", userID, eventType, err)
		return
	}

	event := relay.PresenceEvent{
		Type:      eventType,
		UserID:    userID,
		Timestamp: e.clock(),
	}

	delivered := 0
	for _, friend := range friends {
		if e.registry.Send(friend.ID, event) {
			delivered++
		}
	}
	log.Printf("[presence] %s for %s delivered to %d/%d friends", eventType, userID, delivered, len(friends))
}
