package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"clinic-service/internal/chat"
	"clinic-service/internal/models"
	"clinic-service/internal/observability"
)

const maxMessageSize = 64 * 1024

// ChatWebSocketHandler upgrades requests and feeds inbound frames to a chat session.
type ChatWebSocketHandler struct {
	engine   *chat.Engine
	upgrader websocket.Upgrader
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(engine *chat.Engine) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades the connection. When userId and otherUserId query
// parameters are present the session joins that room straight away.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("clinic-service/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.S().Debugw("websocket upgrade failed", "error", err)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	info := ConnInfo{
		ClientInfo:  observability.ClientInfoFromRequest(c.Request),
		ConnID:      newConnID(),
		UserID:      c.Query("userId"),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	conn := newConn(info.ConnID, ws)
	session := h.engine.Connect(conn)

	observability.IncWSActive("chat")
	observability.IncWSEvent("chat", "ws_connect")
	publishWSEvent(ctx, "ws_connect", "", info)

	if other := c.Query("otherUserId"); info.UserID != "" && other != "" {
		_ = session.Dispatch(ctx, chat.InboundEvent{Type: chat.InboundJoinRoom, UserID: info.UserID, OtherUserID: other})
	}

	// Detached from the request so the loop outlives the handler.
	loopCtx := context.WithoutCancel(ctx)
	go h.readLoop(loopCtx, ws, conn, session, info)
}

func (h *ChatWebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, conn *Conn, session *chat.Session, info ConnInfo) {
	var closeReason string
	defer func() {
		session.Disconnect()
		observability.DecWSActive("chat")
		observability.IncWSEvent("chat", "ws_disconnect")
		info.UserID = session.UserID()
		publishWSEvent(ctx, "ws_disconnect", closeReason, info)
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("chat", "ws_error")
				publishWSEvent(ctx, "ws_error", closeReason, info)
			}
			return
		}

		var in chat.InboundEvent
		if err := json.Unmarshal(data, &in); err != nil {
			if sendErr := conn.Send(models.ChatEvent{Type: models.EventError, Error: "malformed event"}); sendErr != nil {
				closeReason = sendErr.Error()
				return
			}
			continue
		}
		if err := session.Dispatch(ctx, in); err != nil {
			zap.S().Debugw("chat event rejected", "conn_id", info.ConnID, "event", in.Type, "error", err)
		}
		if in.Type == chat.InboundLeave {
			closeReason = "leave"
			return
		}
	}
}
