package chat

import (
	"context"
	"errors"

	"clinic-service/internal/models"
)

// ErrMessageNotFound is returned by a MessageStore for an unknown message id.
var ErrMessageNotFound = errors.New("message not found")

// MessageStore persists chat messages.
type MessageStore interface {
	Save(ctx context.Context, msg models.Message) (models.Message, error)
	FindByID(ctx context.Context, messageID string) (models.Message, error)
	// FindByRoom returns messages newest-first.
	FindByRoom(ctx context.Context, roomID string, limit, offset int) ([]models.Message, error)
	// UpdateStatus never lowers a message's status; it returns the stored row either way.
	UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) (models.Message, error)
	CountUnread(ctx context.Context, roomID, participantID string) (int, error)
	MarkRoomRead(ctx context.Context, roomID, senderID string) (int64, error)
	RecentRooms(ctx context.Context, userID string, limit int) ([]models.RoomSummary, error)
}

// Presence tracks which participants have a live connection.
type Presence interface {
	Register(participantID, handle string)
	UnregisterHandle(participantID, handle string) bool
	IsOnline(participantID string) bool
	Count() int
}

// Connection is the transport a Session writes events to.
type Connection interface {
	ID() string
	Send(evt models.ChatEvent) error
	Close() error
}
