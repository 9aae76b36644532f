package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func statusOf(t *testing.T, h *HealthServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestRefreshAllHealthy(t *testing.T) {
	h := NewHealthServer(map[string]Checker{
		ChatService:  func(context.Context) error { return nil },
		QueueService: func(context.Context) error { return nil },
	})
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, statusOf(t, h, ChatService))

	h.Refresh(context.Background())

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, statusOf(t, h, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, statusOf(t, h, ChatService))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, statusOf(t, h, QueueService))
}

func TestRefreshOneFailing(t *testing.T) {
	h := NewHealthServer(map[string]Checker{
		ChatService:  func(context.Context) error { return nil },
		QueueService: func(context.Context) error { return errors.New("postgres unreachable") },
	})

	h.Refresh(context.Background())

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, statusOf(t, h, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, statusOf(t, h, ChatService))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, statusOf(t, h, QueueService))
}
