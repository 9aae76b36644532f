package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"clinic-service/internal/apperr"
	"clinic-service/internal/lockmap"
	"clinic-service/internal/models"
	"clinic-service/internal/observability"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	defaultRecentLimit  = 20
)

var tracer = otel.Tracer("clinic-service/chat")

// SendRequest is the payload of a send-message command.
type SendRequest struct {
	SenderID   string
	ReceiverID string
	Content    string
	Type       models.MessageType
}

// Engine routes messages between two participants and keeps delivery status in sync.
type Engine struct {
	store     MessageStore
	presence  Presence
	rooms     *rooms
	roomLocks *lockmap.Map
	now       func() time.Time
	newID     func() string
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine builds an Engine over a message store and a presence registry.
func NewEngine(store MessageStore, presence Presence, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		presence:  presence,
		rooms:     newRooms(),
		roomLocks: lockmap.New(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connect wraps a new connection in an unjoined Session.
func (e *Engine) Connect(conn Connection) *Session {
	return &Session{engine: e, conn: conn}
}

// Send persists a message and fans it out to the room. When the receiver is
// online the message is promoted to delivered before Send returns.
func (e *Engine) Send(ctx context.Context, req SendRequest) (models.Message, error) {
	if req.Type == "" {
		req.Type = models.MessageTypeText
	}
	if err := validateSend(req); err != nil {
		observability.IncChatMessage("invalid")
		return models.Message{}, err
	}

	roomID := RoomID(req.SenderID, req.ReceiverID)
	ctx, span := tracer.Start(ctx, "chat.send")
	defer span.End()
	span.SetAttributes(attribute.String("chat.room_id", roomID))

	// Held across save and fan-out so delivery order matches persistence order.
	unlock := e.roomLocks.Lock(roomID)
	defer unlock()

	saved, err := e.store.Save(ctx, models.Message{
		ID:         e.newID(),
		RoomID:     roomID,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Type:       req.Type,
		Status:     models.StatusSent,
		Timestamp:  e.now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		observability.IncChatMessage("failed")
		span.RecordError(err)
		return models.Message{}, apperr.Persistence("save message", err)
	}
	observability.IncChatMessage("sent")

	e.broadcast(roomID, nil, models.ChatEvent{Type: models.EventMessageReceived, Message: &saved})

	if e.presence.IsOnline(saved.ReceiverID) {
		delivered, err := e.store.UpdateStatus(ctx, saved.ID, models.StatusDelivered)
		if err != nil {
			observability.IncStatusUpdate(string(models.StatusDelivered), "failed")
			zap.S().Warnw("mark delivered failed",
				"message_id", saved.ID,
				"room_id", roomID,
				"error", err,
			)
		} else {
			observability.IncStatusUpdate(string(models.StatusDelivered), "ok")
			saved.Status = delivered.Status
			e.broadcast(roomID, nil, models.ChatEvent{
				Type:      models.EventStatusUpdated,
				MessageID: saved.ID,
				Status:    delivered.Status,
				RoomID:    roomID,
			})
		}
	}

	_ = observability.PublishEvent(ctx, "chat.message_sent", observability.EventEnvelope{
		EventType: "chat_events",
		EventName: "message_sent",
		Payload: map[string]interface{}{
			"message_id": saved.ID,
			"room_id":    roomID,
			"sender_id":  saved.SenderID,
			"status":     saved.Status,
		},
	})
	return saved, nil
}

// MarkRead promotes a message to read and notifies its room. It reports
// whether the status changed; unknown or already-read messages are a no-op.
func (e *Engine) MarkRead(ctx context.Context, messageID, userID string) (bool, error) {
	if strings.TrimSpace(messageID) == "" {
		return false, apperr.Validation("message id is required")
	}

	msg, err := e.store.FindByID(ctx, messageID)
	if errors.Is(err, ErrMessageNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Persistence("load message", err)
	}
	if msg.Status == models.StatusRead {
		return false, nil
	}

	updated, err := e.store.UpdateStatus(ctx, messageID, models.StatusRead)
	if errors.Is(err, ErrMessageNotFound) {
		return false, nil
	}
	if err != nil {
		observability.IncStatusUpdate(string(models.StatusRead), "failed")
		return false, apperr.Persistence("mark read", err)
	}
	observability.IncStatusUpdate(string(models.StatusRead), "ok")

	zap.S().Debugw("message read", "message_id", messageID, "user_id", userID)
	e.broadcast(updated.RoomID, nil, models.ChatEvent{
		Type:      models.EventStatusUpdated,
		MessageID: updated.ID,
		Status:    models.StatusRead,
		RoomID:    updated.RoomID,
	})
	return true, nil
}

// MarkConversationRead marks every unread message from senderID to receiverID as read.
func (e *Engine) MarkConversationRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	if senderID == "" || receiverID == "" {
		return 0, apperr.Validation("sender id and receiver id are required")
	}
	roomID := RoomID(senderID, receiverID)
	n, err := e.store.MarkRoomRead(ctx, roomID, senderID)
	if err != nil {
		return 0, apperr.Persistence("mark conversation read", err)
	}
	if n > 0 {
		e.broadcast(roomID, nil, models.ChatEvent{
			Type:   models.EventMessagesRead,
			UserID: receiverID,
			RoomID: roomID,
			Status: models.StatusRead,
		})
	}
	return n, nil
}

// History returns one page of the conversation between a and b, oldest first.
func (e *Engine) History(ctx context.Context, a, b string, limit, offset int) ([]models.Message, error) {
	if a == "" || b == "" {
		return nil, apperr.Validation("both participant ids are required")
	}
	if offset < 0 {
		return nil, apperr.Validation("offset must not be negative")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = lo.Min([]int{limit, maxHistoryLimit})

	msgs, err := e.store.FindByRoom(ctx, RoomID(a, b), limit, offset)
	if err != nil {
		return nil, apperr.Persistence("load history", err)
	}
	return lo.Reverse(msgs), nil
}

// UnreadCount counts messages addressed to userID from otherUserID that are not read yet.
func (e *Engine) UnreadCount(ctx context.Context, userID, otherUserID string) (int, error) {
	if userID == "" || otherUserID == "" {
		return 0, apperr.Validation("both participant ids are required")
	}
	n, err := e.store.CountUnread(ctx, RoomID(userID, otherUserID), userID)
	if err != nil {
		return 0, apperr.Persistence("count unread", err)
	}
	return n, nil
}

// RecentChats returns the latest message of each of userID's rooms, newest first.
func (e *Engine) RecentChats(ctx context.Context, userID string, limit int) ([]models.RoomSummary, error) {
	if userID == "" {
		return nil, apperr.Validation("user id is required")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	summaries, err := e.store.RecentRooms(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Persistence("load recent chats", err)
	}
	return summaries, nil
}

// SystemMessage pushes a server-authored message to a room without storing it.
func (e *Engine) SystemMessage(roomID, content string) {
	msg := models.Message{
		RoomID:     roomID,
		SenderID:   "system",
		ReceiverID: "all",
		Content:    content,
		Type:       models.MessageTypeText,
		Status:     models.StatusSent,
		Timestamp:  e.now().UTC(),
	}
	e.broadcast(roomID, nil, models.ChatEvent{Type: models.EventMessageReceived, Message: &msg})
}

// OnlineCount returns the number of participants with a live connection.
func (e *Engine) OnlineCount() int {
	return e.presence.Count()
}

// IsOnline reports whether userID has a live connection.
func (e *Engine) IsOnline(userID string) bool {
	return e.presence.IsOnline(userID)
}

func (e *Engine) broadcast(roomID string, except *Session, evt models.ChatEvent) {
	for _, s := range e.rooms.snapshot(roomID) {
		if s == except {
			continue
		}
		s.deliver(evt)
	}
}

func validateSend(req SendRequest) error {
	switch {
	case strings.TrimSpace(req.SenderID) == "":
		return apperr.Validation("sender id is required")
	case strings.TrimSpace(req.ReceiverID) == "":
		return apperr.Validation("receiver id is required")
	case req.SenderID == req.ReceiverID:
		return apperr.Validation("cannot send a message to yourself")
	case strings.TrimSpace(req.Content) == "":
		return apperr.Validation("content is required")
	case !req.Type.Valid():
		return apperr.Validation("unknown message type %q", req.Type)
	}
	return nil
}
