package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"clinic-service/internal/models"
)

const writeWait = 10 * time.Second

// Conn adapts a gorilla websocket to chat.Connection. gorilla allows one
// concurrent writer, so writes are serialised.
type Conn struct {
	id string
	ws *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func newConn(id string, ws *websocket.Conn) *Conn {
	return &Conn{id: id, ws: ws}
}

func (c *Conn) ID() string { return c.id }

// Send writes evt as one JSON text frame.
func (c *Conn) Send(evt models.ChatEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(evt)
}

// Close sends a normal closure frame and closes the socket. Repeated calls are no-ops.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
