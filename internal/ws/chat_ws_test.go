package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-service/internal/chat"
	"clinic-service/internal/models"
	"clinic-service/internal/presence"
)

type memStore struct {
	mu   sync.Mutex
	msgs map[string]models.Message
}

func (m *memStore) Save(_ context.Context, msg models.Message) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs[msg.ID] = msg
	return msg, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[id]
	if !ok {
		return models.Message{}, chat.ErrMessageNotFound
	}
	return msg, nil
}

func (m *memStore) FindByRoom(context.Context, string, int, int) ([]models.Message, error) {
	return nil, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status models.MessageStatus) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[id]
	if !ok {
		return models.Message{}, chat.ErrMessageNotFound
	}
	if status.Rank() > msg.Status.Rank() {
		msg.Status = status
		m.msgs[id] = msg
	}
	return msg, nil
}

func (m *memStore) CountUnread(context.Context, string, string) (int, error) { return 0, nil }

func (m *memStore) MarkRoomRead(context.Context, string, string) (int64, error) { return 0, nil }

func (m *memStore) RecentRooms(context.Context, string, int) ([]models.RoomSummary, error) {
	return nil, nil
}

func setupServer(t *testing.T) (*httptest.Server, *presence.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := presence.NewRegistry()
	engine := chat.NewEngine(&memStore{msgs: map[string]models.Message{}}, reg)
	r := gin.New()
	r.GET("/ws/chat", NewChatWebSocketHandler(engine).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, reg
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, eventType string) models.ChatEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var evt models.ChatEvent
		require.NoError(t, conn.ReadJSON(&evt))
		if evt.Type == eventType {
			return evt
		}
	}
}

func TestChatRoundTrip(t *testing.T) {
	srv, reg := setupServer(t)

	a := dial(t, srv, "?userId=A&otherUserId=B")
	require.Eventually(t, func() bool { return reg.IsOnline("A") }, time.Second, 5*time.Millisecond)
	b := dial(t, srv, "")
	require.NoError(t, b.WriteJSON(chat.InboundEvent{Type: chat.InboundJoinRoom, UserID: "B", OtherUserID: "A"}))

	online := readUntil(t, a, models.EventUserOnline)
	assert.Equal(t, "B", online.UserID)

	require.NoError(t, a.WriteJSON(chat.InboundEvent{
		Type: chat.InboundSendMessage, SenderID: "A", ReceiverID: "B", Content: "hello doctor",
	}))

	got := readUntil(t, b, models.EventMessageReceived)
	require.NotNil(t, got.Message)
	assert.Equal(t, "hello doctor", got.Message.Content)
	assert.Equal(t, "chat_A_B", got.Message.RoomID)

	status := readUntil(t, b, models.EventStatusUpdated)
	assert.Equal(t, models.StatusDelivered, status.Status)

	require.NoError(t, b.Close())
	offline := readUntil(t, a, models.EventUserOffline)
	assert.Equal(t, "B", offline.UserID)
}

func TestMalformedFrameReportsError(t *testing.T) {
	srv, _ := setupServer(t)
	conn := dial(t, srv, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	evt := readUntil(t, conn, models.EventError)
	assert.Equal(t, "malformed event", evt.Error)

	require.NoError(t, conn.WriteJSON(chat.InboundEvent{Type: "dance"}))
	evt = readUntil(t, conn, models.EventError)
	assert.Contains(t, evt.Error, "unknown event type")
}
