package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/sketchflow/sketchflow/cache"
	"github.com/sketchflow/sketchflow/service"
)

type roomEventKind int

const (
	roomEventJoin roomEventKind = iota
	roomEventLeave
	roomEventRelay
)

// roomEvent is a join, leave or chat relay from one connection. All three
// share a channel so the hub sees them in the order the connection sent
// them; a chat right after a join can never outrun it.
type roomEvent struct {
	kind    roomEventKind
	client  *Client
	roomId  string
	payload []byte
}

// relayEnvelope is the Redis wire format between gateway instances. The
// chat body inside Payload is forwarded to members byte for byte.
type relayEnvelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// delivery is a relayEnvelope received from Redis, handed to the hub
// goroutine so fan-out never touches the membership maps concurrently.
type delivery struct {
	roomId  string
	origin  string
	payload []byte
}

// Hub owns room membership for this gateway instance. Messages travel
// through Redis pub/sub even between two members on the same instance, so
// multi-instance delivery has a single code path.
type Hub struct {
	roomCache              cache.RoomCache
	OpenCh                 chan *Client
	CloseCh                chan *Client
	RoomCh                 chan roomEvent
	UserDeletedCh          chan string
	deliverCh              chan delivery
	userToClients          map[string]map[*Client]struct{}
	roomToClients          map[string]map[*Client]struct{}
	roomToSubscriberCancel map[string]context.CancelFunc
}

func NewHub(roomCache cache.RoomCache) *Hub {
	return &Hub{
		roomCache:              roomCache,
		OpenCh:                 make(chan *Client, 256),
		CloseCh:                make(chan *Client, 256),
		RoomCh:                 make(chan roomEvent, 1024),
		UserDeletedCh:          make(chan string, 64),
		deliverCh:              make(chan delivery, 1024),
		userToClients:          make(map[string]map[*Client]struct{}),
		roomToClients:          make(map[string]map[*Client]struct{}),
		roomToSubscriberCancel: make(map[string]context.CancelFunc),
	}
}

const (
	maxConnectionsPerUser = 3
	maxRoomsPerConnection = 50
)

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.OpenCh:
			if _, ok := h.userToClients[client.user.Id]; !ok {
				h.userToClients[client.user.Id] = make(map[*Client]struct{})
			}

			if len(h.userToClients[client.user.Id]) >= maxConnectionsPerUser {
				log.Printf("User %s reached max connections (%d)", client.user.Id, maxConnectionsPerUser)
				close(client.Send)
				continue
			}

			h.userToClients[client.user.Id][client] = struct{}{}

		case client := <-h.CloseCh:
			for roomId := range client.joinedRooms {
				h.removeMember(client, roomId)
			}
			delete(h.userToClients[client.user.Id], client)
			if len(h.userToClients[client.user.Id]) == 0 {
				delete(h.userToClients, client.user.Id)
			}

		case ev := <-h.RoomCh:
			switch ev.kind {
			case roomEventJoin:
				h.handleJoin(ev.client, ev.roomId)
			case roomEventLeave:
				h.removeMember(ev.client, ev.roomId)
			case roomEventRelay:
				h.handleRelay(ev.client, ev.roomId, ev.payload)
			}

		case d := <-h.deliverCh:
			h.handleDelivery(d)

		case userId := <-h.UserDeletedCh:
			if clients, ok := h.userToClients[userId]; ok {
				for client := range clients {
					for roomId := range client.joinedRooms {
						h.removeMember(client, roomId)
					}
					close(client.Send)
					delete(h.userToClients[userId], client)
				}
				delete(h.userToClients, userId)
			}
		}
	}
}

// Join joins a client to a room. Leave and Relay are the matching
// operations; all three preserve the connection's send order.
func (h *Hub) Join(client *Client, roomId string) {
	h.RoomCh <- roomEvent{kind: roomEventJoin, client: client, roomId: roomId}
}

func (h *Hub) Leave(client *Client, roomId string) {
	h.RoomCh <- roomEvent{kind: roomEventLeave, client: client, roomId: roomId}
}

func (h *Hub) Relay(client *Client, roomId string, payload []byte) {
	h.RoomCh <- roomEvent{kind: roomEventRelay, client: client, roomId: roomId, payload: payload}
}

func (h *Hub) handleJoin(client *Client, roomId string) {
	if len(client.joinedRooms) >= maxRoomsPerConnection {
		log.Printf("Connection by user %s reached max rooms (%d)", client.user.Id, maxRoomsPerConnection)
		return
	}
	if h.roomToClients[roomId] == nil {
		// First member on this instance: open the Redis subscription
		ctx, cancel := context.WithCancel(context.Background())
		channel := "room:" + roomId
		subRoomId := roomId

		err := h.roomCache.Subscribe(ctx, channel, func(messageBytes []byte) {
			var env relayEnvelope
			if err := json.Unmarshal(messageBytes, &env); err != nil {
				log.Printf("Dropping malformed relay on channel %s: %v", channel, err)
				return
			}
			h.deliverCh <- delivery{roomId: subRoomId, origin: env.Origin, payload: env.Payload}
		})
		if err != nil {
			log.Printf("Failed to create redis sub for channel %s: %v", channel, err)
			cancel()
			return
		}

		h.roomToClients[roomId] = make(map[*Client]struct{})
		h.roomToSubscriberCancel[roomId] = cancel
	}
	h.roomToClients[roomId][client] = struct{}{}
	client.joinedRooms[roomId] = struct{}{}
}

// removeMember drops a client from a room and tears down the Redis
// subscription when the room's last local member leaves.
func (h *Hub) removeMember(client *Client, roomId string) {
	delete(h.roomToClients[roomId], client)
	delete(client.joinedRooms, roomId)
	if len(h.roomToClients[roomId]) == 0 {
		if cancel, ok := h.roomToSubscriberCancel[roomId]; ok {
			cancel()
			delete(h.roomToSubscriberCancel, roomId)
		}
		delete(h.roomToClients, roomId)
	}
}

func (h *Hub) handleRelay(client *Client, roomId string, payload []byte) {
	// Senders must be members of the room they address
	if _, ok := client.joinedRooms[roomId]; !ok {
		log.Printf("Dropping relay to room %s from non-member connection of user %s", roomId, client.user.Id)
		return
	}

	env := relayEnvelope{Origin: client.connId, Payload: payload}
	envBytes, err := json.Marshal(env)
	if err != nil {
		log.Printf("Failed to marshal relay envelope: %v", err)
		return
	}
	if err := h.roomCache.Publish(context.Background(), "room:"+roomId, envBytes); err != nil {
		log.Printf("Failed to publish to room %s: %v", roomId, err)
	}
}

// handleDelivery fans a message out to the room's local members, skipping
// the originating connection. A member whose send buffer is full misses the
// message; one slow consumer never stalls the room.
func (h *Hub) handleDelivery(d delivery) {
	for client := range h.roomToClients[d.roomId] {
		if client.connId == d.origin {
			continue
		}
		select {
		case client.Send <- d.payload:
		default:
			log.Printf("Send buffer full for user %s in room %s, dropping message", client.user.Id, d.roomId)
		}
	}
}

func (h *Hub) InitSubscriptions(shutdownCtx context.Context) error {
	err := h.roomCache.Subscribe(shutdownCtx, "user-deleted", func(message []byte) {
		var userDeletedMsg service.UserDeletedMessage
		if err := json.Unmarshal(message, &userDeletedMsg); err == nil {
			h.UserDeletedCh <- userDeletedMsg.UserId
		}
	})
	if err != nil {
		log.Printf("WS hub failed to subscribe to user-deleted: %v", err)
		return err
	}

	return nil
}
