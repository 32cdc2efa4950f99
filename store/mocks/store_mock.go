package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sketchflow/sketchflow/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) GetUser(ctx context.Context, provider string, providerId string) (models.User, error) {
	args := m.Called(ctx, provider, providerId)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) DeleteUser(ctx context.Context, provider string, providerId string) error {
	args := m.Called(ctx, provider, providerId)
	return args.Error(0)
}

func (m *MockStore) GetEditRecords(ctx context.Context, roomId string) ([]models.Edit, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).([]models.Edit), args.Error(1)
}

func (m *MockStore) WriteEditBatch(ctx context.Context, records []models.EditRecord) ([]models.EditRecord, error) {
	args := m.Called(ctx, records)
	return args.Get(0).([]models.EditRecord), args.Error(1)
}

func (m *MockStore) DeleteRoomEdits(ctx context.Context, roomId string) error {
	args := m.Called(ctx, roomId)
	return args.Error(0)
}

func (m *MockStore) DeleteUserEdits(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}

func (m *MockStore) GetUserRooms(ctx context.Context, userId string) ([]string, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) GetUserEditCount(ctx context.Context, userId string) (int, error) {
	args := m.Called(ctx, userId)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) IncrementUserEditCount(ctx context.Context, provider string, providerId string, count int) error {
	args := m.Called(ctx, provider, providerId, count)
	return args.Error(0)
}
