package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"clinic-service/internal/chat"
	"clinic-service/internal/models"
)

const messageColumns = `id, room_id, sender_id, receiver_id, content, message_type, status, created_at`

// statusRank mirrors models.MessageStatus.Rank so the monotonic check happens in one statement.
const statusRank = `CASE status WHEN 'sent' THEN 0 WHEN 'delivered' THEN 1 ELSE 2 END`

// MessageRepo is a sqlx-backed message store.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Save inserts a message and returns the stored row.
func (r *MessageRepo) Save(ctx context.Context, msg models.Message) (models.Message, error) {
	var saved models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, room_id, sender_id, receiver_id, content, message_type, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+messageColumns,
		msg.ID, msg.RoomID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Type, msg.Status, msg.Timestamp).
		StructScan(&saved)
	return saved, err
}

// FindByID returns chat.ErrMessageNotFound when the message does not exist.
func (r *MessageRepo) FindByID(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, chat.ErrMessageNotFound
	}
	return msg, err
}

// FindByRoom returns a page of a room's messages, newest first.
func (r *MessageRepo) FindByRoom(ctx context.Context, roomID string, limit, offset int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+`
        FROM messages
        WHERE room_id=$1
        ORDER BY created_at DESC, seq DESC
        LIMIT $2 OFFSET $3`,
		roomID, limit, offset)
	return msgs, err
}

// UpdateStatus raises a message's status. A lower or equal status leaves the
// row untouched; the stored row is returned in both cases.
func (r *MessageRepo) UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`UPDATE messages SET status=$2
        WHERE id=$1 AND `+statusRank+` < $3
        RETURNING `+messageColumns,
		messageID, status, status.Rank()).
		StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindByID(ctx, messageID)
	}
	return msg, err
}

// CountUnread counts messages in the room addressed to participantID that are not read.
func (r *MessageRepo) CountUnread(ctx context.Context, roomID, participantID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM messages WHERE room_id=$1 AND receiver_id=$2 AND status<>'read'`,
		roomID, participantID)
	return n, err
}

// MarkRoomRead marks every unread message sent by senderID in the room as read.
func (r *MessageRepo) MarkRoomRead(ctx context.Context, roomID, senderID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status='read' WHERE room_id=$1 AND sender_id=$2 AND status<>'read'`,
		roomID, senderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecentRooms returns the latest message of every room userID takes part in,
// with userID's unread count, newest first.
func (r *MessageRepo) RecentRooms(ctx context.Context, userID string, limit int) ([]models.RoomSummary, error) {
	query := `SELECT latest.*, (
            SELECT COUNT(*) FROM messages u
            WHERE u.room_id = latest.room_id AND u.receiver_id = $1 AND u.status <> 'read'
        ) AS unread_count
        FROM (
            SELECT DISTINCT ON (room_id) ` + messageColumns + `
            FROM messages
            WHERE sender_id=$1 OR receiver_id=$1
            ORDER BY room_id, created_at DESC, seq DESC
        ) latest
        ORDER BY latest.created_at DESC
        LIMIT $2`
	summaries := []models.RoomSummary{}
	err := r.db.SelectContext(ctx, &summaries, query, userID, limit)
	return summaries, err
}
