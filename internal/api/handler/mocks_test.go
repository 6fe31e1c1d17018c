package handler_test

import (
	"brokerdesk/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage mocks storage.Storage for the HTTP layer tests.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetOrCreateUser(email, name string) (*models.User, error) {
	args := m.Called(email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) AppendMessage(rec *models.MessageRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *MockStorage) GetHistory(conversationID string) ([]models.MessageRecord, error) {
	args := m.Called(conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MessageRecord), args.Error(1)
}

func (m *MockStorage) GetConversationSummaries() ([]models.ConversationSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationSummary), args.Error(1)
}

func (m *MockStorage) PublishMessage(msg models.ChatMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) SetOnline(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) SetOffline(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) IsOnline(userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}
