package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clinic-service/internal/chat"
	"clinic-service/internal/models"
	"clinic-service/internal/queue"
)

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) History(ctx context.Context, a, b string, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, a, b, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *ChatServiceMock) UnreadCount(ctx context.Context, userID, otherUserID string) (int, error) {
	args := m.Called(ctx, userID, otherUserID)
	return args.Int(0), args.Error(1)
}

func (m *ChatServiceMock) MarkRead(ctx context.Context, messageID, userID string) (bool, error) {
	args := m.Called(ctx, messageID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatServiceMock) MarkConversationRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ChatServiceMock) RecentChats(ctx context.Context, userID string, limit int) ([]models.RoomSummary, error) {
	args := m.Called(ctx, userID, limit)
	var list []models.RoomSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.RoomSummary)
	}
	return list, args.Error(1)
}

func (m *ChatServiceMock) Send(ctx context.Context, req chat.SendRequest) (models.Message, error) {
	args := m.Called(ctx, req)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) OnlineCount() int {
	return m.Called().Int(0)
}

func (m *ChatServiceMock) IsOnline(userID string) bool {
	return m.Called(userID).Bool(0)
}

type RosterMock struct {
	mock.Mock
}

func (m *RosterMock) Online() []string {
	args := m.Called()
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids
}

type ConsultationServiceMock struct {
	mock.Mock
}

func (m *ConsultationServiceMock) Book(ctx context.Context, req queue.BookingRequest) (models.Visit, error) {
	args := m.Called(ctx, req)
	var visit models.Visit
	if val := args.Get(0); val != nil {
		visit = val.(models.Visit)
	}
	return visit, args.Error(1)
}

func (m *ConsultationServiceMock) ListForDoctor(ctx context.Context, doctorID string) (models.DoctorQueue, error) {
	args := m.Called(ctx, doctorID)
	var q models.DoctorQueue
	if val := args.Get(0); val != nil {
		q = val.(models.DoctorQueue)
	}
	return q, args.Error(1)
}

func (m *ConsultationServiceMock) VisitsByStatus(ctx context.Context, doctorID string, status models.VisitStatus) ([]models.Visit, error) {
	args := m.Called(ctx, doctorID, status)
	var visits []models.Visit
	if val := args.Get(0); val != nil {
		visits = val.([]models.Visit)
	}
	return visits, args.Error(1)
}

func (m *ConsultationServiceMock) UpdateStatus(ctx context.Context, upd queue.StatusUpdate) (models.Visit, error) {
	args := m.Called(ctx, upd)
	var visit models.Visit
	if val := args.Get(0); val != nil {
		visit = val.(models.Visit)
	}
	return visit, args.Error(1)
}

func (m *ConsultationServiceMock) Cancel(ctx context.Context, doctorID, patientID string) (models.Visit, error) {
	args := m.Called(ctx, doctorID, patientID)
	var visit models.Visit
	if val := args.Get(0); val != nil {
		visit = val.(models.Visit)
	}
	return visit, args.Error(1)
}

func (m *ConsultationServiceMock) NextInQueue(ctx context.Context, doctorID string) (*models.Visit, error) {
	args := m.Called(ctx, doctorID)
	var visit *models.Visit
	if val := args.Get(0); val != nil {
		visit = val.(*models.Visit)
	}
	return visit, args.Error(1)
}

func (m *ConsultationServiceMock) HistoryForPatient(ctx context.Context, patientID string) ([]models.PatientHistory, error) {
	args := m.Called(ctx, patientID)
	var history []models.PatientHistory
	if val := args.Get(0); val != nil {
		history = val.([]models.PatientHistory)
	}
	return history, args.Error(1)
}

func (m *ConsultationServiceMock) StatsByStatus(ctx context.Context, doctorID string) (models.QueueStats, error) {
	args := m.Called(ctx, doctorID)
	var stats models.QueueStats
	if val := args.Get(0); val != nil {
		stats = val.(models.QueueStats)
	}
	return stats, args.Error(1)
}
