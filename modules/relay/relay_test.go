package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vibecircles/realtime-core/domain/social"
	"github.com/vibecircles/realtime-core/modules/registry"
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

// eventTypes decodes the type field of every frame written to the connection.
func (f *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	types := make([]string, 0, len(f.frames))
	for _, frame := range f.frames {
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("frame is not valid JSON: %v", err)
		}
		types = append(types, env.Type)
	}
	return types
}

type fakeProfiles struct {
	profiles map[string]*social.Profile
}

func (s *fakeProfiles) GetProfileByID(_ context.Context, userID string) (*social.Profile, error) {
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return nil, social.ErrProfileNotFound
}

type fakeMessages struct {
	sent     []*social.ChatMessage
	sendErr  error
	readErr  error
	readFrom []string
}

func (s *fakeMessages) SendMessage(_ context.Context, senderID, receiverID, content, mediaURL string) (*social.ChatMessage, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	msg := &social.ChatMessage{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		MediaURL:   mediaURL,
		CreatedAt:  time.Now(),
	}
	s.sent = append(s.sent, msg)
	return msg, nil
}

func (s *fakeMessages) MarkAsRead(_ context.Context, _, counterpartID string) error {
	if s.readErr != nil {
		return s.readErr
	}
	s.readFrom = append(s.readFrom, counterpartID)
	return nil
}

type fakeNotify struct {
	created []social.Notification
	err     error
}

func (s *fakeNotify) CreateNotification(_ context.Context, n social.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

type fixture struct {
	relay    *Relay
	registry *registry.Registry
	messages *fakeMessages
	notify   *fakeNotify
	alice    *social.Profile
	aliceC   *fakeConn
	bobC     *fakeConn
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	alice := &social.Profile{ID: "alice", Username: "alice", FullName: "Alice A"}
	bob := &social.Profile{ID: "bob", Username: "bob"}

	reg := registry.New()
	messages := &fakeMessages{}
	notify := &fakeNotify{}
	profiles := &fakeProfiles{profiles: map[string]*social.Profile{
		"alice": alice,
		"bob":   bob,
	}}

	r := New(reg, profiles, messages, notify)
	r.clock = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	f := &fixture{relay: r, registry: reg, messages: messages, notify: notify, alice: alice}
	f.aliceC = &fakeConn{}
	reg.Register("alice", f.aliceC)
	f.bobC = &fakeConn{}
	return f
}

func (f *fixture) handle(t *testing.T, frame string) {
	t.Helper()
	f.relay.HandleFrame(context.Background(), f.alice, []byte(frame))
}

func TestRelay_SendMessage_UnknownReceiver(t *testing.T) {
	f := newFixture(t)

	f.handle(t, `{"type":"send_message","receiverId":"nobody","content":"hi"}`)

	if len(f.messages.sent) != 0 {
		t.Errorf("persistence called %d times for unknown receiver, want 0", len(f.messages.sent))
	}
	types := f.aliceC.eventTypes(t)
	if len(types) != 1 || types[0] != TypeError {
		t.Fatalf("sender received %v, want exactly one error event", types)
	}
}

func TestRelay_SendMessage_OfflineReceiverStillPersists(t *testing.T) {
	f := newFixture(t)
	// bob exists but is not registered.

	f.handle(t, `{"type":"send_message","receiverId":"bob","content":"hello bob"}`)

	if len(f.messages.sent) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(f.messages.sent))
	}
	types := f.aliceC.eventTypes(t)
	if len(types) != 1 || types[0] != TypeMessageSent {
		t.Fatalf("sender received %v, want [message_sent]", types)
	}
	// Delivery is best-effort; the offline receiver gets nothing and no
	// retry happens.
	if len(f.bobC.frames) != 0 {
		t.Errorf("offline receiver got %d frames, want 0", len(f.bobC.frames))
	}
	if len(f.notify.created) != 1 {
		t.Fatalf("enqueued %d notifications, want 1", len(f.notify.created))
	}
	if n := f.notify.created[0]; n.UserID != "bob" || n.Type != "new_message" {
		t.Errorf("notification = %+v, want new_message for bob", n)
	}
}

func TestRelay_SendMessage_OnlineReceiverGetsNewMessage(t *testing.T) {
	f := newFixture(t)
	f.registry.Register("bob", f.bobC)

	f.handle(t, `{"type":"send_message","receiverId":"bob","content":"hello"}`)

	types := f.bobC.eventTypes(t)
	if len(types) != 1 || types[0] != TypeNewMessage {
		t.Fatalf("receiver got %v, want [new_message]", types)
	}

	var ev MessageEvent
	if err := json.Unmarshal(f.bobC.frames[0], &ev); err != nil {
		t.Fatalf("new_message frame: %v", err)
	}
	if ev.Sender == nil || ev.Sender.Username != "alice" {
		t.Errorf("new_message sender = %+v, want alice's public profile", ev.Sender)
	}
	if ev.Message == nil || ev.Message.Content != "hello" {
		t.Errorf("new_message message = %+v, want content %q", ev.Message, "hello")
	}
}

func TestRelay_SendMessage_PersistErrorYieldsErrorEvent(t *testing.T) {
	f := newFixture(t)
	f.registry.Register("bob", f.bobC)
	f.messages.sendErr = errors.New("store down")

	f.handle(t, `{"type":"send_message","receiverId":"bob","content":"hi"}`)

	types := f.aliceC.eventTypes(t)
	if len(types) != 1 || types[0] != TypeError {
		t.Fatalf("sender received %v, want one error event", types)
	}
	if len(f.bobC.frames) != 0 {
		t.Error("receiver should get nothing when persistence fails")
	}
}

func TestRelay_SendMessage_NotificationPreviewTruncated(t *testing.T) {
	f := newFixture(t)

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	f.handle(t, `{"type":"send_message","receiverId":"bob","content":"`+string(long)+`"}`)

	if len(f.notify.created) != 1 {
		t.Fatalf("enqueued %d notifications, want 1", len(f.notify.created))
	}
	if got := len(f.notify.created[0].Data.Content); got != notificationPreviewLength {
		t.Errorf("notification preview length = %d, want %d", got, notificationPreviewLength)
	}
}

func TestRelay_Typing(t *testing.T) {
	f := newFixture(t)
	f.registry.Register("bob", f.bobC)

	f.handle(t, `{"type":"typing_start","receiverId":"bob"}`)
	f.handle(t, `{"type":"typing_stop","receiverId":"bob"}`)

	types := f.bobC.eventTypes(t)
	if len(types) != 2 || types[0] != TypeTypingStart || types[1] != TypeTypingStop {
		t.Fatalf("receiver got %v, want [typing_start typing_stop]", types)
	}
	// Typing is pure forwarding: no acknowledgment to the sender.
	if len(f.aliceC.frames) != 0 {
		t.Errorf("sender got %d frames, want 0", len(f.aliceC.frames))
	}
}

func TestRelay_Typing_OfflineReceiverSilentDrop(t *testing.T) {
	f := newFixture(t)

	f.handle(t, `{"type":"typing_start","receiverId":"bob"}`)

	if len(f.aliceC.frames) != 0 {
		t.Errorf("sender got %d frames for dropped typing event, want 0", len(f.aliceC.frames))
	}
}

func TestRelay_ReadMessages(t *testing.T) {
	f := newFixture(t)
	f.registry.Register("bob", f.bobC)

	f.handle(t, `{"type":"read_messages","senderId":"bob"}`)

	if len(f.messages.readFrom) != 1 || f.messages.readFrom[0] != "bob" {
		t.Fatalf("MarkAsRead counterparts = %v, want [bob]", f.messages.readFrom)
	}
	types := f.bobC.eventTypes(t)
	if len(types) != 1 || types[0] != TypeMessagesRead {
		t.Fatalf("counterpart got %v, want [messages_read]", types)
	}

	var ev PresenceEvent
	if err := json.Unmarshal(f.bobC.frames[0], &ev); err != nil {
		t.Fatal(err)
	}
	if ev.UserID != "alice" {
		t.Errorf("messages_read userId = %q, want alice (the reader)", ev.UserID)
	}
}

func TestRelay_ReadMessages_StoreFailureIsSilent(t *testing.T) {
	f := newFixture(t)
	f.registry.Register("bob", f.bobC)
	f.messages.readErr = errors.New("store down")

	f.handle(t, `{"type":"read_messages","senderId":"bob"}`)

	// Fire-and-forget: no error to the caller, no event to the counterpart.
	if len(f.aliceC.frames) != 0 || len(f.bobC.frames) != 0 {
		t.Error("read_messages failure should produce no events")
	}
}

func TestRelay_Rooms(t *testing.T) {
	f := newFixture(t)

	f.handle(t, `{"type":"join_room","roomId":"general"}`)
	f.handle(t, `{"type":"leave_room","roomId":"general"}`)
	// Leaving a room never joined is an idempotent no-op with an ack.
	f.handle(t, `{"type":"leave_room","roomId":"random"}`)

	types := f.aliceC.eventTypes(t)
	want := []string{TypeRoomJoined, TypeRoomLeft, TypeRoomLeft}
	if len(types) != len(want) {
		t.Fatalf("acks = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("ack[%d] = %q, want %q", i, types[i], want[i])
		}
	}
	if rooms := f.registry.Rooms("alice"); len(rooms) != 0 {
		t.Errorf("room set = %v, want empty", rooms)
	}
}

func TestRelay_UnknownTypeAndMalformedFrames(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		frame string
	}{
		{name: "unknown type", frame: `{"type":"subscribe_feed"}`},
		{name: "missing type", frame: `{"receiverId":"bob"}`},
		{name: "not json", frame: `not-json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(f.aliceC.frames)
			f.handle(t, tt.frame)
			types := f.aliceC.eventTypes(t)
			if len(types) != before+1 || types[before] != TypeError {
				t.Errorf("got %v, want one more error event", types[before:])
			}
			// The connection stays registered; unknown frames never close it.
			if !f.registry.IsOnline("alice") {
				t.Error("connection should remain registered")
			}
		})
	}
}
