package chat

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"clinic-service/internal/apperr"
	"clinic-service/internal/models"
	"clinic-service/internal/observability"
)

// Inbound event types.
const (
	InboundJoinRoom    = "join_room"
	InboundSendMessage = "send_message"
	InboundTyping      = "typing"
	InboundMarkAsRead  = "mark_as_read"
	InboundLeave       = "leave"
)

// InboundEvent is a command received from a connection.
type InboundEvent struct {
	Type        string             `json:"type"`
	UserID      string             `json:"user_id,omitempty"`
	OtherUserID string             `json:"other_user_id,omitempty"`
	SenderID    string             `json:"sender_id,omitempty"`
	ReceiverID  string             `json:"receiver_id,omitempty"`
	Content     string             `json:"content,omitempty"`
	MessageType models.MessageType `json:"message_type,omitempty"`
	IsTyping    bool               `json:"is_typing,omitempty"`
	RoomID      string             `json:"room_id,omitempty"`
	MessageID   string             `json:"message_id,omitempty"`
}

// Dispatch routes an inbound event. Failures are reported back to this
// connection as an error event and also returned.
func (s *Session) Dispatch(ctx context.Context, in InboundEvent) error {
	observability.IncWSEvent("chat", in.Type)

	var err error
	switch in.Type {
	case InboundJoinRoom:
		err = s.Join(ctx, in.UserID, in.OtherUserID)
	case InboundSendMessage:
		senderID := in.SenderID
		if senderID == "" {
			senderID = s.UserID()
		}
		_, err = s.engine.Send(ctx, SendRequest{
			SenderID:   senderID,
			ReceiverID: in.ReceiverID,
			Content:    in.Content,
			Type:       in.MessageType,
		})
	case InboundTyping:
		err = s.Typing(ctx, in.UserID, in.IsTyping, in.RoomID)
	case InboundMarkAsRead:
		userID := in.UserID
		if userID == "" {
			userID = s.UserID()
		}
		_, err = s.engine.MarkRead(ctx, in.MessageID, userID)
	case InboundLeave:
		s.Disconnect()
	default:
		err = apperr.Validation("unknown event type %q", in.Type)
	}

	if err != nil {
		s.reportError(in.Type, err)
	}
	return err
}

func (s *Session) reportError(eventType string, err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrConflict):
		msg = err.Error()
	case errors.Is(err, apperr.ErrPersistence):
		msg = "failed to persist message"
		zap.S().Errorw("chat event failed", "event", eventType, "conn_id", s.conn.ID(), "error", err)
	}
	s.deliver(models.ChatEvent{Type: models.EventError, Error: msg})
}
