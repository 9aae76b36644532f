package ws

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinic-service/internal/observability"
)

func newConnID() string {
	return uuid.NewString()
}

func publishWSEvent(ctx context.Context, event, reason string, info ConnInfo) {
	_ = observability.PublishEvent(ctx, "ws_events.chat", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Headers:   observability.BuildHeaders(info.RequestID, info.TraceID),
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        "chat",
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": info.identity(),
		},
	})
}
