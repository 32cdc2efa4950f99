package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sketchflow/sketchflow/cache"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Publish(ctx context.Context, channel string, message []byte) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *MockCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

func (m *MockCache) AddEdit(ctx context.Context, roomId string, editId string, score int64, editData []byte) error {
	args := m.Called(ctx, roomId, editId, score, editData)
	return args.Error(0)
}

func (m *MockCache) AddEditsBatch(ctx context.Context, roomId string, edits []cache.EditCacheItem) error {
	args := m.Called(ctx, roomId, edits)
	return args.Error(0)
}

func (m *MockCache) GetEdits(ctx context.Context, roomId string) ([][]byte, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).([][]byte), args.Error(1)
}

func (m *MockCache) GetRoomEditCountFromZCard(ctx context.Context, roomId string) (int64, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) SetRoomComplete(ctx context.Context, roomId string) error {
	args := m.Called(ctx, roomId)
	return args.Error(0)
}

func (m *MockCache) IsRoomComplete(ctx context.Context, roomId string) (bool, error) {
	args := m.Called(ctx, roomId)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) InvalidateRooms(ctx context.Context, roomIds []string) error {
	args := m.Called(ctx, roomIds)
	return args.Error(0)
}

func (m *MockCache) IncrementUserEditCount(ctx context.Context, userId string) (int64, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) SeedUserEditCount(ctx context.Context, userId string, count int) error {
	args := m.Called(ctx, userId, count)
	return args.Error(0)
}

func (m *MockCache) GetUserEditCount(ctx context.Context, userId string) (int, error) {
	args := m.Called(ctx, userId)
	return args.Int(0), args.Error(1)
}
