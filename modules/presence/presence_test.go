package presence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/vibecircles/realtime-core/domain/social"
	"github.com/vibecircles/realtime-core/modules/registry"
	"github.com/vibecircles/realtime-core/modules/relay"
)

type fakeConn struct {
	frames [][]byte
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeConn) Close() error { return nil }

type fakeFriendGraph struct {
	friends map[string][]social.Profile
	err     error
}

func (g *fakeFriendGraph) GetFriends(_ context.Context, userID string) ([]social.Profile, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.friends[userID], nil
}

func newTestEngine(graph *fakeFriendGraph) (*Engine, *registry.Registry) {
	reg := registry.New()
	e := NewEngine(reg, graph)
	e.clock = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return e, reg
}

func decodeEvents(t *testing.T, frames [][]byte) []relay.PresenceEvent {
	t.Helper()
	events := make([]relay.PresenceEvent, 0, len(frames))
	for _, frame := range frames {
		var ev relay.PresenceEvent
		if err := json.Unmarshal(frame, &ev); err != nil {
			t.Fatalf("frame is not a presence event: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func TestEngine_BroadcastReachesOnlineFriendsOnly(t *testing.T) {
	graph := &fakeFriendGraph{friends: map[string][]social.Profile{
		"alice": {{ID: "bob"}, {ID: "carol"}},
	}}
	e, reg := newTestEngine(graph)

	bobConn := &fakeConn{}
	strangerConn := &fakeConn{}
	reg.Register("bob", bobConn)
	reg.Register("stranger", strangerConn)
	// carol is a friend but offline.

	e.broadcast(context.Background(), "alice", relay.TypeUserOnline)

	events := decodeEvents(t, bobConn.frames)
	if len(events) != 1 {
		t.Fatalf("bob received %d events, want exactly 1", len(events))
	}
	if events[0].Type != relay.TypeUserOnline || events[0].UserID != "alice" {
		t.Errorf("bob received %+v, want user_online for alice", events[0])
	}

	if len(strangerConn.frames) != 0 {
		t.Errorf("non-friend received %d events, want 0", len(strangerConn.frames))
	}
}

func TestEngine_BroadcastOffline(t *testing.T) {
	graph := &fakeFriendGraph{friends: map[string][]social.Profile{
		"alice": {{ID: "bob"}},
	}}
	e, reg := newTestEngine(graph)

	bobConn := &fakeConn{}
	reg.Register("bob", bobConn)

	e.broadcast(context.Background(), "alice", relay.TypeUserOffline)

	events := decodeEvents(t, bobConn.frames)
	if len(events) != 1 || events[0].Type != relay.TypeUserOffline {
		t.Fatalf("bob received %v, want one user_offline event", events)
	}
}

func TestEngine_FriendFetchFailureIsSwallowed(t *testing.T) {
	graph := &fakeFriendGraph{err: errors.New("graph unavailable")}
	e, reg := newTestEngine(graph)

	bobConn := &fakeConn{}
	reg.Register("bob", bobConn)

	// Must not panic and must not deliver anything.
	e.broadcast(context.Background(), "alice", relay.TypeUserOnline)

	if len(bobConn.frames) != 0 {
		t.Errorf("received %d events after failed fetch, want 0", len(bobConn.frames))
	}
}
