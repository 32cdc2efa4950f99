package models

import (
	"encoding/json"
	"errors"
)

// Room channel envelope types.
const (
	EnvelopeJoinRoom  = "join_room"
	EnvelopeLeaveRoom = "leave_room"
	EnvelopeChat      = "chat"
)

// Envelope is the wire unit on the room channel. For chat envelopes Message
// is itself a JSON-encoded EditPayload; the gateway relays it verbatim.
type Envelope struct {
	Type    string `json:"type"`
	RoomId  string `json:"roomId,omitempty"`
	Message string `json:"message,omitempty"`
}

// EditPayload is the body of a chat message: exactly one of Shape or EraseId
// is set. Shape stays raw here because only clients interpret geometry.
type EditPayload struct {
	Shape   json.RawMessage `json:"shape,omitempty"`
	EraseId string          `json:"eraseId,omitempty"`
}

var ErrEmptyEdit = errors.New("edit payload carries neither shape nor eraseId")

// DecodeEditPayload parses a chat message body into either a shape or an
// erase ID. Exactly one of the returned shape / eraseId is non-zero.
func DecodeEditPayload(message string) (Shape, string, error) {
	var payload EditPayload
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		return nil, "", err
	}
	if payload.EraseId != "" {
		return nil, payload.EraseId, nil
	}
	if len(payload.Shape) == 0 {
		return nil, "", ErrEmptyEdit
	}
	shape, err := UnmarshalShape(payload.Shape)
	if err != nil {
		return nil, "", err
	}
	return shape, "", nil
}

// EncodeShapeEdit builds the chat message body announcing a committed shape.
func EncodeShapeEdit(s Shape) (string, error) {
	shapeJSON, err := MarshalShape(s)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(EditPayload{Shape: shapeJSON})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeEraseEdit builds the chat message body announcing a removal.
func EncodeEraseEdit(shapeId string) (string, error) {
	b, err := json.Marshal(EditPayload{EraseId: shapeId})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
