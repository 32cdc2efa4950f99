package store

import (
	"context"
	"errors"

	"github.com/sketchflow/sketchflow/models"
)

type EditStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, provider string, providerId string) (models.User, error)
	DeleteUser(ctx context.Context, provider string, providerId string) error

	GetEditRecords(ctx context.Context, roomId string) ([]models.Edit, error)
	WriteEditBatch(ctx context.Context, records []models.EditRecord) ([]models.EditRecord, error)
	DeleteRoomEdits(ctx context.Context, roomId string) error
	DeleteUserEdits(ctx context.Context, userId string) error
	GetUserRooms(ctx context.Context, userId string) ([]string, error)
	GetUserEditCount(ctx context.Context, userId string) (int, error)

	IncrementUserEditCount(ctx context.Context, provider string, providerId string, count int) error
}

var (
	ErrItemNotFound    = errors.New("item does not exist")
	ErrConditionFailed = errors.New("condition not met")
)
