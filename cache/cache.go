package cache

import "context"

type EditCacheItem struct {
	EditId string
	Score  int64
	Data   []byte
}

type RoomCache interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error

	AddEdit(ctx context.Context, roomId string, editId string, score int64, editData []byte) error
	AddEditsBatch(ctx context.Context, roomId string, edits []EditCacheItem) error
	GetEdits(ctx context.Context, roomId string) ([][]byte, error)
	GetRoomEditCountFromZCard(ctx context.Context, roomId string) (int64, error)

	SetRoomComplete(ctx context.Context, roomId string) error
	IsRoomComplete(ctx context.Context, roomId string) (bool, error)
	InvalidateRooms(ctx context.Context, roomIds []string) error

	IncrementUserEditCount(ctx context.Context, userId string) (int64, error)
	SeedUserEditCount(ctx context.Context, userId string, count int) error
	GetUserEditCount(ctx context.Context, userId string) (int, error)
}
