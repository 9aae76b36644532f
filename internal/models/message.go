package models

import "time"

// MessageType is the kind of content carried by a message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}

// MessageStatus tracks delivery of a message. It only moves forward.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Rank orders statuses; a stored status is never replaced by a lower rank.
func (s MessageStatus) Rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

// Message represents a message between exactly two participants.
type Message struct {
	ID         string        `db:"id" json:"id"`
	RoomID     string        `db:"room_id" json:"room_id"`
	SenderID   string        `db:"sender_id" json:"sender_id"`
	ReceiverID string        `db:"receiver_id" json:"receiver_id"`
	Content    string        `db:"content" json:"content"`
	Type       MessageType   `db:"message_type" json:"message_type"`
	Status     MessageStatus `db:"status" json:"status"`
	Timestamp  time.Time     `db:"created_at" json:"timestamp"`
}

// RoomSummary is the latest message of a room together with the caller's unread count.
type RoomSummary struct {
	Message
	UnreadCount int `db:"unread_count" json:"unread_count"`
}

// Outbound chat event types.
const (
	EventMessageReceived = "message_received"
	EventStatusUpdated   = "message_status_updated"
	EventMessagesRead    = "messages_read"
	EventUserOnline      = "user_online"
	EventUserOffline     = "user_offline"
	EventUserTyping      = "user_typing"
	EventError           = "error"
)

// ChatEvent is pushed to connections joined to a room.
type ChatEvent struct {
	Type      string        `json:"type"`
	Message   *Message      `json:"message,omitempty"`
	MessageID string        `json:"message_id,omitempty"`
	Status    MessageStatus `json:"status,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	RoomID    string        `json:"room_id,omitempty"`
	IsTyping  *bool         `json:"is_typing,omitempty"`
	Error     string        `json:"error,omitempty"`
}
