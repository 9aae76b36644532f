package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clinic-service/internal/chat"
	"clinic-service/internal/models"
)

// ChatService is the request/response side of the messaging engine.
type ChatService interface {
	History(ctx context.Context, a, b string, limit, offset int) ([]models.Message, error)
	UnreadCount(ctx context.Context, userID, otherUserID string) (int, error)
	MarkRead(ctx context.Context, messageID, userID string) (bool, error)
	MarkConversationRead(ctx context.Context, senderID, receiverID string) (int64, error)
	RecentChats(ctx context.Context, userID string, limit int) ([]models.RoomSummary, error)
	Send(ctx context.Context, req chat.SendRequest) (models.Message, error)
	OnlineCount() int
	IsOnline(userID string) bool
}

// Roster lists connected participants.
type Roster interface {
	Online() []string
}

// ChatHandler serves chat history, read receipts and presence over HTTP.
type ChatHandler struct {
	chat   ChatService
	roster Roster
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chat ChatService, roster Roster) *ChatHandler {
	return &ChatHandler{chat: chat, roster: roster}
}

// GetHistory returns the conversation between two users, oldest first.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	msgs, err := h.chat.History(c.Request.Context(), c.Param("userId1"), c.Param("userId2"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id":  chat.RoomID(c.Param("userId1"), c.Param("userId2")),
		"messages": msgs,
	})
}

// GetUnreadCount returns how many messages from otherUserId userId has not read.
func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	n, err := h.chat.UnreadCount(c.Request.Context(), c.Param("userId"), c.Param("otherUserId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": n})
}

// MarkRead marks one message read, or a whole conversation when message_id is omitted.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	var req struct {
		MessageID  string `json:"message_id"`
		UserID     string `json:"user_id"`
		SenderID   string `json:"sender_id"`
		ReceiverID string `json:"receiver_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MessageID != "" {
		changed, err := h.chat.MarkRead(c.Request.Context(), req.MessageID, req.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": changed})
		return
	}

	n, err := h.chat.MarkConversationRead(c.Request.Context(), req.SenderID, req.ReceiverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_count": n})
}

// GetRecentChats returns the latest message of each of the user's rooms.
func (h *ChatHandler) GetRecentChats(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	summaries, err := h.chat.RecentChats(c.Request.Context(), c.Param("userId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": summaries})
}

// PostMessage sends a message through the engine, for clients without a socket.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		SenderID    string             `json:"sender_id" binding:"required"`
		ReceiverID  string             `json:"receiver_id" binding:"required"`
		Content     string             `json:"content" binding:"required"`
		MessageType models.MessageType `json:"message_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), chat.SendRequest{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Type:       req.MessageType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetOnline reports the connected participants, or one user's status with ?userId=.
func (h *ChatHandler) GetOnline(c *gin.Context) {
	if userID := c.Query("userId"); userID != "" {
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_online": h.chat.IsOnline(userID)})
		return
	}
	users := []string{}
	if h.roster != nil {
		users = h.roster.Online()
	}
	c.JSON(http.StatusOK, gin.H{"count": h.chat.OnlineCount(), "users": users})
}

func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return v, true
}
