package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sketchflow/sketchflow/models"
	"github.com/sketchflow/sketchflow/service"
)

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

func (h *Handler) NewWsUpgrader(requiredOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if requiredOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == requiredOrigin
		},
	}
}

// ServeWS handles websocket requests from the peer. The JWT arrives as a
// token query parameter; an invalid one gets the handshake completed and
// the connection closed immediately with a policy violation, so the client
// can tell auth failure from a network error.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	token := r.URL.Query().Get("token")

	user, authErr := h.Service.AuthenticateToken(r.Context(), token)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	if authErr != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthenticated"),
		)
		conn.Close()
		return
	}

	client := NewClient(h.Hub, conn, user, h.HandleWsMessage)

	// Seed the user's edit quota counter in Redis
	h.Service.Cache.SeedUserEditCount(context.Background(), user.Id, user.EditCount)

	h.Hub.OpenCh <- client

	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

// HandleWsMessage dispatches one inbound envelope. Chat bodies are relayed
// to the room byte for byte; the gateway never rewrites what peers see.
// Recording the edit can fail (quota, malformed payload) and then nothing
// is relayed, so peers never see an edit the log rejected.
func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var env models.Envelope
	if err := json.Unmarshal(messageBytes, &env); err != nil {
		log.Printf("Invalid JSON from user %s: %v", client.user.Id, err)
		return
	}

	switch env.Type {
	case models.EnvelopeJoinRoom:
		if err := service.ValidateRoomId(env.RoomId); err != nil {
			log.Printf("Join room validation failed: %v", err)
			return
		}
		h.Hub.Join(client, env.RoomId)

	case models.EnvelopeLeaveRoom:
		h.Hub.Leave(client, env.RoomId)

	case models.EnvelopeChat:
		h.handleChat(client, env, messageBytes)

	default:
		log.Printf("Unknown message type: %v", env.Type)
	}
}

func (h *Handler) handleChat(client *Client, env models.Envelope, messageBytes []byte) {
	_, err := h.Service.RecordEdit(context.Background(), service.RecordParams{
		User:    client.user,
		RoomId:  env.RoomId,
		Message: env.Message,
	})
	if err != nil {
		log.Printf("RecordEdit failed for user %s in room %s: %v", client.user.Id, env.RoomId, err)
		return
	}

	h.Hub.Relay(client, env.RoomId, messageBytes)
}
