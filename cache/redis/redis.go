package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sketchflow/sketchflow/cache"
)

type RedisRoomCache struct {
	client redis.UniversalClient
}

func NewRedisRoomCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisRoomCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisRoomCache{client: client}, nil
}

func (roomCache *RedisRoomCache) Publish(ctx context.Context, channel string, message []byte) error {
	return roomCache.client.Publish(ctx, channel, message).Err()
}

func (roomCache *RedisRoomCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	pubsub := roomCache.client.Subscribe(ctx, channel)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Pubsub channel closed: %s", channel)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

// Redis keys carry hash tags so all three keys of a room land on the same
// cluster slot.
func buildRoomKey(roomId string) string {
	return "room:{" + roomId + "}"
}

func buildRoomDataKey(roomId string) string {
	return "room:{" + roomId + "}:data"
}

func buildRoomCompleteKey(roomId string) string {
	return "room:{" + roomId + "}:complete"
}

const cacheTTL = 10 * time.Minute

// Split index/data pattern: the ZSet ("room:{id}") orders edit ids by
// timestamp score, and the hash ("room:{id}:data") maps edit id to the
// serialized edit. Payloads are stored once and fetched with a single HMGET
// after reading the ids from the ZSet.
func (roomCache *RedisRoomCache) AddEdit(ctx context.Context, roomId string, editId string, score int64, editData []byte) error {
	key := buildRoomKey(roomId)
	dataKey := buildRoomDataKey(roomId)
	completeKey := buildRoomCompleteKey(roomId)

	pipe := roomCache.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: editId})
	pipe.HSet(ctx, dataKey, editId, editData)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (roomCache *RedisRoomCache) AddEditsBatch(ctx context.Context, roomId string, edits []cache.EditCacheItem) error {
	if len(edits) == 0 {
		return nil
	}

	key := buildRoomKey(roomId)
	dataKey := buildRoomDataKey(roomId)
	completeKey := buildRoomCompleteKey(roomId)

	zMembers := make([]redis.Z, len(edits))
	// HSet takes alternating field/value pairs
	hValues := make([]interface{}, len(edits)*2)

	for i, e := range edits {
		zMembers[i] = redis.Z{
			Score:  float64(e.Score),
			Member: e.EditId,
		}
		hValues[i*2] = e.EditId
		hValues[i*2+1] = e.Data
	}

	pipe := roomCache.client.Pipeline()
	pipe.ZAdd(ctx, key, zMembers...)
	pipe.HSet(ctx, dataKey, hValues...)
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

const maxCachedEdits = 1000

func (roomCache *RedisRoomCache) GetEdits(ctx context.Context, roomId string) ([][]byte, error) {
	key := buildRoomKey(roomId)
	dataKey := buildRoomDataKey(roomId)
	completeKey := buildRoomCompleteKey(roomId)

	// 1. Newest ids from the ZSet, ordered by score
	ids, err := roomCache.client.ZRange(ctx, key, -maxCachedEdits, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return [][]byte{}, nil
	}

	// 2. Fetch payloads from the hash
	dataMap, err := roomCache.client.HMGet(ctx, dataKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	edits := make([][]byte, 0, len(ids))
	for _, item := range dataMap {
		if item == nil {
			continue // index and data drifted, skip the orphan id
		}
		if s, ok := item.(string); ok {
			edits = append(edits, []byte(s))
		}
	}

	// Refresh TTL
	pipe := roomCache.client.Pipeline()
	pipe.Expire(ctx, completeKey, cacheTTL)
	pipe.Expire(ctx, key, cacheTTL)
	pipe.Expire(ctx, dataKey, cacheTTL)
	_, _ = pipe.Exec(ctx)

	return edits, nil
}

// GetRoomEditCountFromZCard is the source of truth for room edit counts;
// there is no separate counter to drift.
func (roomCache *RedisRoomCache) GetRoomEditCountFromZCard(ctx context.Context, roomId string) (int64, error) {
	return roomCache.client.ZCard(ctx, buildRoomKey(roomId)).Result()
}

func (roomCache *RedisRoomCache) SetRoomComplete(ctx context.Context, roomId string) error {
	return roomCache.client.Set(ctx, buildRoomCompleteKey(roomId), "true", cacheTTL).Err()
}

func (roomCache *RedisRoomCache) IsRoomComplete(ctx context.Context, roomId string) (bool, error) {
	val, err := roomCache.client.Exists(ctx, buildRoomCompleteKey(roomId)).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

func (roomCache *RedisRoomCache) InvalidateRooms(ctx context.Context, roomIds []string) error {
	if len(roomIds) == 0 {
		return nil
	}

	// Different rooms hash to different cluster slots, so each room is
	// deleted separately; the three keys per room share a slot.
	for _, roomId := range roomIds {
		key := buildRoomKey(roomId)
		dataKey := buildRoomDataKey(roomId)
		completeKey := buildRoomCompleteKey(roomId)

		if err := roomCache.client.Del(ctx, key, dataKey, completeKey).Err(); err != nil {
			return err
		}
	}

	return nil
}

// User edit count

func buildUserCountKey(userId string) string {
	return "user:" + userId + ":edit_count"
}

func (roomCache *RedisRoomCache) IncrementUserEditCount(ctx context.Context, userId string) (int64, error) {
	key := buildUserCountKey(userId)
	count, err := roomCache.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	roomCache.client.Expire(ctx, key, cacheTTL)
	return count, nil
}

func (roomCache *RedisRoomCache) SeedUserEditCount(ctx context.Context, userId string, count int) error {
	return roomCache.client.SetNX(ctx, buildUserCountKey(userId), count, cacheTTL).Err()
}

func (roomCache *RedisRoomCache) GetUserEditCount(ctx context.Context, userId string) (int, error) {
	val, err := roomCache.client.Get(ctx, buildUserCountKey(userId)).Int()
	if err != nil {
		if err == redis.Nil {
			return -1, nil // not cached
		}
		return 0, err
	}
	return val, nil
}
