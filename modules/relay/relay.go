package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/vibecircles/realtime-core/domain/social"
	"github.com/vibecircles/realtime-core/modules/registry"
)

const (
	maxMessageLength = 5000
	// Notification bodies carry a truncated preview of the message.
	notificationPreviewLength = 100
)

// Relay dispatches inbound frames to their handlers. All handler errors are
// converted to error events scoped to the sending connection; nothing
// propagates far enough to crash the process.
type Relay struct {
	registry *registry.Registry
	profiles social.ProfileStore
	messages social.MessageStore
	notify   social.NotificationSink
	clock    func() time.Time
	logger   *slog.Logger
}

// New creates a relay over the given registry and external collaborators.
func New(reg *registry.Registry, profiles social.ProfileStore, messages social.MessageStore, notify social.NotificationSink) *Relay {
	return &Relay{
		registry: reg,
		profiles: profiles,
		messages: messages,
		notify:   notify,
		clock:    time.Now,
		logger:   slog.Default(),
	}
}

// HandleFrame processes one inbound frame from sender's connection. Frames
// from one connection are handled in arrival order by the caller's read loop.
func (r *Relay) HandleFrame(ctx context.Context, sender *social.Profile, data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		r.registry.Send(sender.ID, NewErrorEvent("Invalid message format"))
		return
	}

	frame, err := Decode(env)
	if err != nil {
		r.registry.Send(sender.ID, NewErrorEvent(err.Error()))
		return
	}

	switch f := frame.(type) {
	case SendMessageFrame:
		r.handleSendMessage(ctx, sender, f)
	case TypingFrame:
		r.handleTyping(sender, f)
	case ReadMessagesFrame:
		r.handleReadMessages(ctx, sender, f)
	case RoomFrame:
		r.handleRoom(sender, f)
	}
}

func (r *Relay) handleSendMessage(ctx context.Context, sender *social.Profile, f SendMessageFrame) {
	if f.ReceiverID == "" || f.Content == "" {
		r.registry.Send(sender.ID, NewErrorEvent("receiverId and content are required"))
		return
	}
	if len(f.Content) > maxMessageLength {
		r.registry.Send(sender.ID, NewErrorEvent("Message exceeds maximum length"))
		return
	}

	// Verify the receiver exists before touching the message store.
	if _, err := r.profiles.GetProfileByID(ctx, f.ReceiverID); err != nil {
		r.registry.Send(sender.ID, NewErrorEvent("Receiver not found"))
		return
	}

	saved, err := r.messages.SendMessage(ctx, sender.ID, f.ReceiverID, f.Content, f.MediaURL)
	if err != nil {
		r.logger.Error("message persist failed", "senderID", sender.ID, "error", err)
		r.registry.Send(sender.ID, NewErrorEvent("Failed to save message"))
		return
	}

	now := r.clock()
	r.registry.Send(sender.ID, MessageEvent{
		Type:      TypeMessageSent,
		Message:   saved,
		Timestamp: now,
	})

	// Real-time delivery is at-most-once and best-effort: an offline
	// receiver simply misses the event and recovers via persisted fetch.
	r.registry.Send(f.ReceiverID, MessageEvent{
		Type:      TypeNewMessage,
		Message:   saved,
		Sender:    sender,
		Timestamp: now,
	})

	r.enqueueNotification(ctx, f.ReceiverID, sender.ID, saved.ID, f.Content)
}

// enqueueNotification hands a new_message notification to the sink.
// Best-effort: sink failures are logged, never reported to the sender.
func (r *Relay) enqueueNotification(ctx context.Context, receiverID, senderID, messageID, content string) {
	preview := content
	if len(preview) > notificationPreviewLength {
		preview = preview[:notificationPreviewLength]
	}

	err := r.notify.CreateNotification(ctx, social.Notification{
		UserID:  receiverID,
		Type:    "new_message",
		Title:   "New Message",
		Message: preview,
		Data: social.NotificationData{
			SenderID:  senderID,
			MessageID: messageID,
			Content:   preview,
		},
	})
	if err != nil {
		r.logger.Warn("notification enqueue failed", "receiverID", receiverID, "error", err)
	}
}

// handleTyping forwards typing state to the receiver. No persistence, no
// acknowledgment to the sender, silent drop when the receiver is offline.
func (r *Relay) handleTyping(sender *social.Profile, f TypingFrame) {
	if f.ReceiverID == "" {
		r.registry.Send(sender.ID, NewErrorEvent("receiverId is required"))
		return
	}
	r.registry.Send(f.ReceiverID, PresenceEvent{
		Type:      f.frameType(),
		UserID:    sender.ID,
		Timestamp: r.clock(),
	})
}

// handleReadMessages marks messages from the counterpart as read, then
// notifies the counterpart if connected. Fire-and-forget.
func (r *Relay) handleReadMessages(ctx context.Context, sender *social.Profile, f ReadMessagesFrame) {
	if f.SenderID == "" {
		r.registry.Send(sender.ID, NewErrorEvent("senderId is required"))
		return
	}

	if err := r.messages.MarkAsRead(ctx, sender.ID, f.SenderID); err != nil {
		r.logger.Warn("mark-as-read failed", "userID", sender.ID, "counterpartID", f.SenderID, "error", err)
		return
	}

	r.registry.Send(f.SenderID, PresenceEvent{
		Type:      TypeMessagesRead,
		UserID:    sender.ID,
		Timestamp: r.clock(),
	})
}

// handleRoom mutates the caller's room set and acknowledges to the caller
// only. Rooms are tracked but never used for fan-out.
func (r *Relay) handleRoom(sender *social.Profile, f RoomFrame) {
	if f.RoomID == "" {
		r.registry.Send(sender.ID, NewErrorEvent("roomId is required"))
		return
	}

	ack := TypeRoomLeft
	if f.Join {
		r.registry.JoinRoom(sender.ID, f.RoomID)
		ack = TypeRoomJoined
	} else {
		r.registry.LeaveRoom(sender.ID, f.RoomID)
	}
	r.registry.Send(sender.ID, RoomEvent{
		Type:      ack,
		RoomID:    f.RoomID,
		Timestamp: r.clock(),
	})
}
