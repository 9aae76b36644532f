package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := new(publisherMock)
	emitter := NewAuditEmitter(pub, "audit.clinic", "clinic-service", "test")
	emitter.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	var got AuditEnvelope
	pub.On("Publish", mock.Anything, "audit.clinic", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) { got = args.Get(2).(AuditEnvelope) }).
		Return(nil).Once()

	emitter.Emit(context.Background(), AuditRecord{
		Action:    "consultation.booked",
		Text:      "patient p1 booked with doctor doc-1",
		RequestID: "req-1",
		Fields:    map[string]string{"doctor_id": "doc-1"},
	})

	pub.AssertExpectations(t)
	require.Equal(t, "audit_log", got.EventType)
	assert.Equal(t, "INFO", got.Payload.Level)
	assert.Equal(t, "consultation.booked", got.Payload.Action)
	assert.Equal(t, "2024-06-01T09:00:00Z", got.OccurredAt)
	assert.Equal(t, "req-1", got.RequestID)
}

func TestEmitNilEmitterIsNoop(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), AuditRecord{Action: "x"})
	})
}

func TestEmitSwallowsPublishError(t *testing.T) {
	pub := new(publisherMock)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError).Once()

	NewAuditEmitter(pub, "audit.clinic", "clinic-service", "test").
		Emit(context.Background(), AuditRecord{Action: "consultation.cancelled"})

	pub.AssertExpectations(t)
}
