package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sketchflow/sketchflow/models"
)

const (
	syncWriteWait  = 10 * time.Second
	syncSendBuffer = 128
	// Inbound buffer between the read pump and the session loop.
	syncIncomingBuffer = 256
)

// SyncClient bridges a session to the room gateway. Outbound sends never
// block the interaction loop; when the buffer is full the edit is dropped
// and logged, and the local optimistic state stands (divergence from peers
// is accepted rather than hidden behind retries).
type SyncClient struct {
	conn   *websocket.Conn
	roomId string

	send     chan []byte
	incoming chan string
	// closing is signalled by Close; done by the read pump when the
	// connection dies. send is never closed, so a send racing Close is
	// dropped instead of panicking.
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the gateway, authenticating with the token as a query
// parameter, and joins the given room. The returned client's Incoming
// channel carries chat message bodies for that room and is closed when the
// connection dies.
func Dial(ctx context.Context, gatewayURL, roomId, token string) (*SyncClient, error) {
	u, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &SyncClient{
		conn:     conn,
		roomId:   roomId,
		send:     make(chan []byte, syncSendBuffer),
		incoming: make(chan string, syncIncomingBuffer),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}

	if err := c.enqueueEnvelope(models.Envelope{Type: models.EnvelopeJoinRoom, RoomId: roomId}); err != nil {
		conn.Close()
		return nil, err
	}

	go c.writePump()
	go c.readPump()

	return c, nil
}

// Incoming yields chat message bodies addressed to the joined room.
func (c *SyncClient) Incoming() <-chan string {
	return c.incoming
}

// SendShape broadcasts a committed shape. Implements Broadcaster.
func (c *SyncClient) SendShape(s models.Shape) {
	message, err := models.EncodeShapeEdit(s)
	if err != nil {
		log.Printf("Encode shape edit failed: %v", err)
		return
	}
	c.sendChat(message)
}

// SendErase broadcasts a shape removal. Implements Broadcaster.
func (c *SyncClient) SendErase(shapeId string) {
	message, err := models.EncodeEraseEdit(shapeId)
	if err != nil {
		log.Printf("Encode erase edit failed: %v", err)
		return
	}
	c.sendChat(message)
}

func (c *SyncClient) sendChat(message string) {
	err := c.enqueueEnvelope(models.Envelope{
		Type:    models.EnvelopeChat,
		RoomId:  c.roomId,
		Message: message,
	})
	if err != nil {
		log.Printf("Dropping outbound edit for room %s: %v", c.roomId, err)
	}
}

var errSendBufferFull = errors.New("send buffer full")

func (c *SyncClient) enqueueEnvelope(env models.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case <-c.closing:
		return websocket.ErrCloseSent
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return websocket.ErrCloseSent
	default:
		return errSendBufferFull
	}
}

// Close leaves the room and tears down the connection. Safe to call more
// than once and concurrently with sends.
func (c *SyncClient) Close() error {
	c.enqueueEnvelope(models.Envelope{Type: models.EnvelopeLeaveRoom, RoomId: c.roomId})
	c.closeOnce.Do(func() { close(c.closing) })
	return nil
}

func (c *SyncClient) writePump() {
	defer c.conn.Close()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(syncWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Sync send error: %v", err)
				return
			}

		case <-c.closing:
			// Drain what was enqueued before Close (the leave_room
			// envelope in particular), then close the connection.
			for {
				select {
				case message := <-c.send:
					c.conn.SetWriteDeadline(time.Now().Add(syncWriteWait))
					if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
						return
					}
				default:
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}

		case <-c.done:
			return
		}
	}
}

// readPump delivers chat bodies for the joined room. A malformed message is
// logged and dropped; it never ends the session.
func (c *SyncClient) readPump() {
	defer func() {
		close(c.done)
		close(c.incoming)
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Sync connection closed: %v", err)
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("Dropping malformed room message: %v", err)
			continue
		}
		if env.Type != models.EnvelopeChat || env.RoomId != c.roomId {
			continue
		}

		select {
		case c.incoming <- env.Message:
		default:
			log.Printf("Inbound edit buffer full for room %s, dropping", c.roomId)
		}
	}
}
