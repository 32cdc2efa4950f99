package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/sketchflow/sketchflow/cache"
	"github.com/sketchflow/sketchflow/models"
	"github.com/sketchflow/sketchflow/worker"
)

const (
	maxUserEdits = 100000
	maxRoomEdits = 1000
)

func (s *Service) enforceUserAndRoomQuota(ctx context.Context, user models.User, roomId string) error {
	// Check user quota
	userEditCount, err := s.Cache.GetUserEditCount(ctx, user.Id)
	if err == nil && userEditCount == -1 {
		// Cache miss: seed from the store profile
		user, err = s.Store.GetUser(ctx, user.Provider, user.ProviderId)
		if err != nil {
			return err
		}
		s.Cache.SeedUserEditCount(ctx, user.Id, user.EditCount)
		userEditCount = user.EditCount
	} else if err != nil {
		return err
	}
	if userEditCount >= maxUserEdits {
		log.Printf("User %s exceeded edit quota (%d)", user.Id, userEditCount)
		return errors.New("user edit quota exceeded")
	}

	// Check room quota using ZCard. If the room is not cached yet, load it
	// first so the count reflects the stored log.
	isComplete, _ := s.Cache.IsRoomComplete(ctx, roomId)
	if !isComplete {
		if _, err := s.LoadRoom(ctx, roomId); err != nil {
			log.Printf("Failed to load room %s for quota check: %v", roomId, err)
			// Continue anyway; an unloadable room counts as empty
		}
	}

	roomEditCount, err := s.Cache.GetRoomEditCountFromZCard(ctx, roomId)
	if err != nil {
		roomEditCount = 0
	}
	if roomEditCount >= maxRoomEdits {
		log.Printf("Room %s exceeded edit quota (%d)", roomId, roomEditCount)
		return errors.New("room edit quota exceeded")
	}
	return nil
}

type RecordParams struct {
	User    models.User
	RoomId  string
	Message string
}

// RecordEdit appends one chat message body to the room's edit log. It
// returns as soon as the edit id is assigned; persistence, cache write and
// counter update run asynchronously.
func (s *Service) RecordEdit(ctx context.Context, params RecordParams) (string, error) {
	if err := ValidateRoomId(params.RoomId); err != nil {
		return "", err
	}
	if err := ValidateEditMessage(params.Message); err != nil {
		return "", err
	}

	if err := s.enforceUserAndRoomQuota(ctx, params.User, params.RoomId); err != nil {
		return "", err
	}

	editUUID, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	edit := models.Edit{
		Id:      editUUID.String(),
		UserId:  params.User.Id,
		Payload: params.Message,
	}

	go func() {
		s.Cache.IncrementUserEditCount(context.Background(), params.User.Id)
		// Room counts come from ZCard, no separate increment needed

		s.EditBatcher.WriteCh <- worker.BatchedEdit{
			Record: models.EditRecord{
				RoomId: params.RoomId,
				Edit:   edit,
			},
			UserProvider:   params.User.Provider,
			UserProviderId: params.User.ProviderId,
		}

		if editBytes, err := json.Marshal(edit); err == nil {
			t, _ := getTimeFromUUIDv7(edit.Id)
			s.Cache.AddEdit(context.Background(), params.RoomId, edit.Id, t.UnixMilli(), editBytes)
		}
	}()

	return edit.Id, nil
}

// LoadRoom returns the room's edit log in chronological order, serving from
// the cache when it is complete and falling back to the store otherwise.
func (s *Service) LoadRoom(ctx context.Context, roomId string) ([]models.Edit, error) {
	if err := ValidateRoomId(roomId); err != nil {
		return nil, err
	}

	redisEditsRaw, err := s.Cache.GetEdits(ctx, roomId)
	redisEdits := []models.Edit{}
	if err == nil {
		for _, b := range redisEditsRaw {
			var edit models.Edit
			if err := json.Unmarshal(b, &edit); err == nil {
				redisEdits = append(redisEdits, edit)
			}
		}
	}

	isComplete, _ := s.Cache.IsRoomComplete(ctx, roomId)
	if isComplete && err == nil {
		return redisEdits, nil
	}

	// Fallback to DynamoDB, merged with whatever the cache already had
	dbEdits, err := s.Store.GetEditRecords(ctx, roomId)
	if err != nil {
		return nil, err
	}

	finalEdits := mergeEdits(dbEdits, redisEdits)
	if len(finalEdits) > maxRoomEdits+100 {
		finalEdits = finalEdits[len(finalEdits)-(maxRoomEdits+100):]
	}

	batchItems := make([]cache.EditCacheItem, 0, len(dbEdits))
	for _, edit := range dbEdits {
		editBytes, _ := json.Marshal(edit)
		t, _ := getTimeFromUUIDv7(edit.Id)
		batchItems = append(batchItems, cache.EditCacheItem{
			EditId: edit.Id,
			Score:  t.UnixMilli(),
			Data:   editBytes,
		})
	}

	if len(batchItems) > 0 {
		s.Cache.AddEditsBatch(ctx, roomId, batchItems)
	} else {
		// Mark as complete even if currently empty
		s.Cache.SetRoomComplete(ctx, roomId)
	}

	return finalEdits, nil
}

// PurgeRoom enqueues deletion of a room's entire edit log. The consumer
// deletes from the store and invalidates the cache.
func (s *Service) PurgeRoom(ctx context.Context, roomId string) error {
	if err := ValidateRoomId(roomId); err != nil {
		return err
	}

	msg := worker.PurgeMessage{Kind: worker.PurgeKindRoom, RoomId: roomId}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.MQ.Send(ctx, string(msgBytes))
}

// mergeEdits merges two id-ordered edit lists, preferring the cached copy on
// ties. UUIDv7 ids sort chronologically, so the merge stays ordered.
func mergeEdits(dbEdits []models.Edit, redisEdits []models.Edit) []models.Edit {
	finalEdits := make([]models.Edit, 0, len(dbEdits)+len(redisEdits))
	i, j := 0, 0
	for i < len(dbEdits) && j < len(redisEdits) {
		dbId := dbEdits[i].Id
		redisId := redisEdits[j].Id

		if dbId == redisId {
			finalEdits = append(finalEdits, redisEdits[j])
			i++
			j++
		} else if dbId < redisId {
			finalEdits = append(finalEdits, dbEdits[i])
			i++
		} else {
			finalEdits = append(finalEdits, redisEdits[j])
			j++
		}
	}
	if i < len(dbEdits) {
		finalEdits = append(finalEdits, dbEdits[i:]...)
	}
	if j < len(redisEdits) {
		finalEdits = append(finalEdits, redisEdits[j:]...)
	}
	return finalEdits
}

func getTimeFromUUIDv7(editId string) (time.Time, error) {
	id, err := uuid.FromString(editId)
	if err != nil || id.Version() != uuid.V7 {
		return time.Time{}, err
	}
	ts, err := uuid.TimestampFromV7(id)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Time()
}
