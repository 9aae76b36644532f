package ws

import (
	"time"

	"clinic-service/internal/observability"
)

// ConnInfo describes one websocket connection for lifecycle events.
type ConnInfo struct {
	observability.ClientInfo

	ConnID      string
	UserID      string
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) identity() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   i.UserID,
		"device_id": i.DeviceID,
		"ip":        i.IP,
	}
}
