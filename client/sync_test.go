package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchflow/sketchflow/models"
)

type wsTestServer struct {
	*httptest.Server
	envelopes chan models.Envelope
}

// newWsTestServer runs a gateway stand-in that records every envelope it
// receives.
func newWsTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	upgrader := websocket.Upgrader{}
	envelopes := make(chan models.Envelope, 256)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env models.Envelope
			if json.Unmarshal(data, &env) == nil {
				envelopes <- env
			}
		}
	}))
	return &wsTestServer{Server: server, envelopes: envelopes}
}

func (s *wsTestServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *wsTestServer) expectEnvelope(t *testing.T, envType string) models.Envelope {
	t.Helper()
	for {
		select {
		case env := <-s.envelopes:
			if env.Type == envType {
				return env
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for %s envelope", envType)
			return models.Envelope{}
		}
	}
}

func TestSyncClient_DialJoinsRoom(t *testing.T) {
	server := newWsTestServer(t)
	defer server.Close()

	c, err := Dial(context.Background(), server.wsURL(), "room-1", "tok")
	require.NoError(t, err)
	defer c.Close()

	env := server.expectEnvelope(t, models.EnvelopeJoinRoom)
	assert.Equal(t, "room-1", env.RoomId)
}

func TestSyncClient_CloseSendsLeaveRoom(t *testing.T) {
	server := newWsTestServer(t)
	defer server.Close()

	c, err := Dial(context.Background(), server.wsURL(), "room-1", "tok")
	require.NoError(t, err)

	require.NoError(t, c.Close())

	env := server.expectEnvelope(t, models.EnvelopeLeaveRoom)
	assert.Equal(t, "room-1", env.RoomId)
}

func TestSyncClient_CloseRacingSends(t *testing.T) {
	server := newWsTestServer(t)
	defer server.Close()

	c, err := Dial(context.Background(), server.wsURL(), "room-1", "tok")
	require.NoError(t, err)

	// Sends from other goroutines racing Close must be dropped, never
	// panic on a closed channel.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SendShape(&models.Rect{ShapeID: "s", Width: 1, Height: 1})
		}()
	}

	require.NoError(t, c.Close())
	require.NoError(t, c.Close()) // idempotent
	wg.Wait()

	// Sends after Close are dropped too.
	c.SendErase("s")
}
