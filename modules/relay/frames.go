// Package relay implements the message relay protocol: a duplex, typed
// channel per connection with six inbound frame kinds.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vibecircles/realtime-core/domain/social"
)

// Inbound frame types.
const (
	TypeSendMessage  = "send_message"
	TypeTypingStart  = "typing_start"
	TypeTypingStop   = "typing_stop"
	TypeReadMessages = "read_messages"
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
)

// Outbound event types.
const (
	TypeConnectionEstablished = "connection_established"
	TypeMessageSent           = "message_sent"
	TypeNewMessage            = "new_message"
	TypeUserOnline            = "user_online"
	TypeUserOffline           = "user_offline"
	TypeMessagesRead          = "messages_read"
	TypeRoomJoined            = "room_joined"
	TypeRoomLeft              = "room_left"
	TypeError                 = "error"
)

// ErrEmptyFrame is returned when an inbound frame has no type field.
var ErrEmptyFrame = errors.New("frame has no type")

// Envelope is the raw inbound frame before payload decoding.
type Envelope struct {
	Type string `json:"type"`
	raw  []byte
}

// DecodeEnvelope parses one inbound frame into its envelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed frame: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrEmptyFrame
	}
	env.raw = data
	return env, nil
}

// Frame is an inbound frame payload. The concrete type is determined by the
// envelope's type field; Decode performs the exhaustive dispatch.
type Frame interface {
	frameType() string
}

// SendMessageFrame asks the relay to deliver a direct message.
type SendMessageFrame struct {
	ReceiverID  string `json:"receiverId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType,omitempty"`
	MediaURL    string `json:"mediaUrl,omitempty"`
}

func (SendMessageFrame) frameType() string { return TypeSendMessage }

// TypingFrame signals typing start or stop toward a receiver.
type TypingFrame struct {
	// Start distinguishes typing_start from typing_stop.
	Start      bool   `json:"-"`
	ReceiverID string `json:"receiverId"`
}

func (f TypingFrame) frameType() string {
	if f.Start {
		return TypeTypingStart
	}
	return TypeTypingStop
}

// ReadMessagesFrame marks messages from SenderID to the caller as read.
type ReadMessagesFrame struct {
	SenderID string `json:"senderId"`
}

func (ReadMessagesFrame) frameType() string { return TypeReadMessages }

// RoomFrame joins or leaves a room.
type RoomFrame struct {
	// Join distinguishes join_room from leave_room.
	Join   bool   `json:"-"`
	RoomID string `json:"roomId"`
}

func (f RoomFrame) frameType() string {
	if f.Join {
		return TypeJoinRoom
	}
	return TypeLeaveRoom
}

// ErrUnknownFrameType is returned for frame types outside the protocol. The
// protocol is unversioned: unknown types produce an error event echoed to the
// sender only and never close the connection.
type ErrUnknownFrameType struct {
	Type string
}

func (e ErrUnknownFrameType) Error() string {
	return "unknown message type: " + e.Type
}

// Decode turns an envelope into its typed frame. Every inbound kind is
// matched explicitly; anything else falls through to ErrUnknownFrameType.
func Decode(env Envelope) (Frame, error) {
	switch env.Type {
	case TypeSendMessage:
		var f SendMessageFrame
		if err := json.Unmarshal(env.raw, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", env.Type, err)
		}
		return f, nil
	case TypeTypingStart, TypeTypingStop:
		var f TypingFrame
		if err := json.Unmarshal(env.raw, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", env.Type, err)
		}
		f.Start = env.Type == TypeTypingStart
		return f, nil
	case TypeReadMessages:
		var f ReadMessagesFrame
		if err := json.Unmarshal(env.raw, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", env.Type, err)
		}
		return f, nil
	case TypeJoinRoom, TypeLeaveRoom:
		var f RoomFrame
		if err := json.Unmarshal(env.raw, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", env.Type, err)
		}
		f.Join = env.Type == TypeJoinRoom
		return f, nil
	default:
		return nil, ErrUnknownFrameType{Type: env.Type}
	}
}

// Outbound events. Timestamps are RFC 3339 per the wire convention.

// ConnectionEstablished confirms a successful handshake.
type ConnectionEstablished struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageEvent carries a delivered message to sender or receiver.
type MessageEvent struct {
	Type      string              `json:"type"`
	Message   *social.ChatMessage `json:"message"`
	Sender    *social.Profile     `json:"sender,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// PresenceEvent signals an online/offline transition or typing state.
type PresenceEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomEvent acknowledges a room join or leave to the caller only.
type RoomEvent struct {
	Type      string    `json:"type"`
	RoomID    string    `json:"roomId"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent is echoed to the sender when a frame cannot be handled.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorEvent builds an error frame with a human-readable message.
func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}
