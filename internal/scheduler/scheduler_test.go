package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"clinic-service/internal/models"
)

type statsMock struct {
	mock.Mock
}

func (m *statsMock) StatsByStatus(ctx context.Context, doctorID string) (models.QueueStats, error) {
	args := m.Called(ctx, doctorID)
	return args.Get(0).(models.QueueStats), args.Error(1)
}

type presenceStub int

func (p presenceStub) OnlineCount() int { return int(p) }

func TestRefreshGaugesQueriesAllDoctors(t *testing.T) {
	stats := new(statsMock)
	stats.On("StatsByStatus", mock.Anything, "").
		Return(models.QueueStats{Waiting: 3, InProgress: 1, Total: 4}, nil).Once()

	NewScheduler(stats, presenceStub(2), "@every 1m").refreshGauges()

	stats.AssertExpectations(t)
}

func TestRefreshGaugesToleratesStoreError(t *testing.T) {
	stats := new(statsMock)
	stats.On("StatsByStatus", mock.Anything, "").Return(models.QueueStats{}, assert.AnError).Once()

	assert.NotPanics(t, func() {
		NewScheduler(stats, nil, "@every 1m").refreshGauges()
	})
	stats.AssertExpectations(t)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(new(statsMock), nil, "every now and then")
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(new(statsMock), nil, "@every 1h")
	assert.NoError(t, s.Start())
	s.Stop()
}
