package chat

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"clinic-service/internal/apperr"
	"clinic-service/internal/models"
	"clinic-service/internal/observability"
)

// Session is one connection's view of the engine. It starts unjoined, joins
// at most one room at a time and ends after Disconnect.
type Session struct {
	engine *Engine
	conn   Connection

	mu     sync.Mutex
	userID string
	roomID string
	closed bool

	once sync.Once
}

// UserID returns the participant the session last joined as.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// RoomID returns the room the session is joined to, or "".
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Join binds the session to userID and the room shared with otherUserID.
func (s *Session) Join(ctx context.Context, userID, otherUserID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(otherUserID) == "" {
		return apperr.Validation("user id and other user id are required")
	}
	roomID := RoomID(userID, otherUserID)
	e := s.engine
	handle := s.conn.ID()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.Validation("session is closed")
	}
	prevRoom, prevUser := s.roomID, s.userID
	if prevRoom != "" && prevRoom != roomID {
		e.rooms.remove(prevRoom, s)
	}
	if prevUser != "" && prevUser != userID {
		e.presence.UnregisterHandle(prevUser, handle)
	}
	e.rooms.add(roomID, s)
	e.presence.Register(userID, handle)
	s.userID, s.roomID = userID, roomID
	s.mu.Unlock()

	observability.SetPresenceOnline(e.presence.Count())
	zap.S().Infow("chat join",
		"user_id", userID,
		"room_id", roomID,
		"conn_id", handle,
	)
	e.broadcast(roomID, s, models.ChatEvent{Type: models.EventUserOnline, UserID: userID, RoomID: roomID})
	return nil
}

// Typing forwards a typing indicator to the other members of the room.
// The session's own room is used when roomID is empty.
func (s *Session) Typing(ctx context.Context, userID string, isTyping bool, roomID string) error {
	s.mu.Lock()
	joinedRoom := s.roomID
	if userID == "" {
		userID = s.userID
	}
	s.mu.Unlock()

	if roomID == "" {
		roomID = joinedRoom
	}
	if roomID == "" {
		return apperr.Validation("typing requires a joined room")
	}
	if userID == "" {
		return apperr.Validation("user id is required")
	}
	s.engine.broadcast(roomID, s, models.ChatEvent{
		Type:     models.EventUserTyping,
		UserID:   userID,
		RoomID:   roomID,
		IsTyping: &isTyping,
	})
	return nil
}

// Disconnect releases presence, leaves the room and closes the connection.
// user_offline is broadcast only when this connection still owned the
// user's presence entry. Only the first call has any effect.
func (s *Session) Disconnect() {
	s.once.Do(func() {
		e := s.engine
		handle := s.conn.ID()

		s.mu.Lock()
		s.closed = true
		userID, roomID := s.userID, s.roomID
		s.roomID = ""
		s.mu.Unlock()

		if roomID != "" {
			e.rooms.remove(roomID, s)
		}
		released := false
		if userID != "" {
			released = e.presence.UnregisterHandle(userID, handle)
			observability.SetPresenceOnline(e.presence.Count())
		}
		// Skipped when a newer connection for the same user still holds presence.
		if roomID != "" && released {
			e.broadcast(roomID, s, models.ChatEvent{Type: models.EventUserOffline, UserID: userID, RoomID: roomID})
		}
		if err := s.conn.Close(); err != nil {
			zap.S().Debugw("close connection", "conn_id", handle, "error", err)
		}
		zap.S().Infow("chat disconnect", "user_id", userID, "room_id", roomID, "conn_id", handle)
	})
}

// deliver writes evt to the connection. A failed write tears the session down
// without affecting the caller's fan-out.
func (s *Session) deliver(evt models.ChatEvent) {
	if err := s.conn.Send(evt); err != nil {
		observability.IncWSEvent("chat", "ws_error")
		zap.S().Warnw("chat delivery failed",
			"conn_id", s.conn.ID(),
			"event", evt.Type,
			"error", err,
		)
		go s.Disconnect()
	}
}
