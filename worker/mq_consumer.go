package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/sketchflow/sketchflow/cache"
	"github.com/sketchflow/sketchflow/mq"
	"github.com/sketchflow/sketchflow/store"
)

const (
	PurgeKindRoom = "purge_room"
	PurgeKindUser = "purge_user"
)

// PurgeMessage asks the consumer to delete either one room's edit log or
// every edit a deleted account ever made.
type PurgeMessage struct {
	Kind   string `json:"kind"`
	RoomId string `json:"roomId,omitempty"`
	UserId string `json:"userId,omitempty"`
}

type MQConsumer struct {
	purgeQueue mq.MessageQueue
	editStore  store.EditStore
	roomCache  cache.RoomCache
}

func NewMQConsumer(purgeQueue mq.MessageQueue, editStore store.EditStore, roomCache cache.RoomCache) *MQConsumer {
	return &MQConsumer{
		purgeQueue: purgeQueue,
		editStore:  editStore,
		roomCache:  roomCache,
	}
}

// Allow up to 5 minutes for the throttled batch deletion
const visibilityTimeout = 300

func (mqConsumer *MQConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := mqConsumer.purgeQueue.Receive(shutdownCtx, visibilityTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("mqConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var purgeMsg PurgeMessage
		if err := json.Unmarshal([]byte(msg.Body), &purgeMsg); err != nil {
			log.Printf("mqConsumer invalid message body: %v", err)
			continue
		}

		if err := mqConsumer.handlePurge(purgeMsg); err != nil {
			log.Printf("mqConsumer purge error: %v", err)
			continue
		}

		if err := mqConsumer.purgeQueue.Delete(context.Background(), msg); err != nil {
			log.Printf("mqConsumer delete error: %v", err)
		}
	}
}

func (mqConsumer *MQConsumer) handlePurge(purgeMsg PurgeMessage) error {
	// Timeout slightly below the queue visibility timeout so a retried
	// message never runs concurrently with its first attempt
	ctx, cancel := context.WithTimeout(context.Background(), (visibilityTimeout-1)*time.Second)
	defer cancel()

	switch purgeMsg.Kind {
	case PurgeKindRoom:
		if err := mqConsumer.editStore.DeleteRoomEdits(ctx, purgeMsg.RoomId); err != nil {
			return err
		}
		if err := mqConsumer.roomCache.InvalidateRooms(ctx, []string{purgeMsg.RoomId}); err != nil {
			log.Printf("Failed to invalidate room %s: %v", purgeMsg.RoomId, err)
		}
		return nil

	case PurgeKindUser:
		// Need the affected rooms before the edits disappear from the GSI
		rooms, err := mqConsumer.editStore.GetUserRooms(ctx, purgeMsg.UserId)
		if err != nil {
			log.Printf("Failed to get rooms for user %s: %v", purgeMsg.UserId, err)
		}

		if err := mqConsumer.editStore.DeleteUserEdits(ctx, purgeMsg.UserId); err != nil {
			return err
		}

		// Invalidate so the rooms reload without the purged edits
		if len(rooms) > 0 {
			if err := mqConsumer.roomCache.InvalidateRooms(ctx, rooms); err != nil {
				log.Printf("Failed to invalidate rooms: %v", err)
			}
		}
		return nil

	default:
		return errors.New("unknown purge kind: " + purgeMsg.Kind)
	}
}
