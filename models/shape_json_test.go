package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalShape_WireFormat(t *testing.T) {
	rect := &Rect{ShapeID: "s1", X: 10, Y: 20, Width: 50, Height: -40}

	b, err := MarshalShape(rect)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "rect", m["type"])
	assert.Equal(t, "s1", m["id"])
	assert.Equal(t, float64(-40), m["height"])
}

func TestUnmarshalShape_RoundTrip(t *testing.T) {
	shapes := []Shape{
		&Circle{ShapeID: "c", CenterX: 1, CenterY: 2, Radius: 3},
		&Pencil{ShapeID: "p", Points: []Point{{X: 0, Y: 0}, {X: 5, Y: 5}}},
		&Text{ShapeID: "t", X: 4, Y: 8, Content: "hello", FontSize: 16},
	}

	for _, in := range shapes {
		b, err := MarshalShape(in)
		require.NoError(t, err)

		out, err := UnmarshalShape(b)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestUnmarshalShape_UnknownType(t *testing.T) {
	_, err := UnmarshalShape([]byte(`{"type":"hexagon","x":1}`))
	assert.Error(t, err)
}

func TestDecodeEditPayload(t *testing.T) {
	shape, eraseId, err := DecodeEditPayload(`{"shape":{"type":"line","startX":0,"startY":0,"endX":9,"endY":9}}`)
	require.NoError(t, err)
	assert.Empty(t, eraseId)
	assert.Equal(t, &Line{EndX: 9, EndY: 9}, shape)

	shape, eraseId, err = DecodeEditPayload(`{"eraseId":"s1"}`)
	require.NoError(t, err)
	assert.Nil(t, shape)
	assert.Equal(t, "s1", eraseId)

	_, _, err = DecodeEditPayload(`{}`)
	assert.ErrorIs(t, err, ErrEmptyEdit)

	_, _, err = DecodeEditPayload(`not json`)
	assert.Error(t, err)
}

func TestEncodeEdits(t *testing.T) {
	msg, err := EncodeShapeEdit(&Diamond{ShapeID: "d", CenterX: 5, CenterY: 5, Width: 10, Height: 6})
	require.NoError(t, err)

	shape, _, err := DecodeEditPayload(msg)
	require.NoError(t, err)
	assert.Equal(t, "d", shape.ID())

	msg, err = EncodeEraseEdit("d")
	require.NoError(t, err)
	_, eraseId, err := DecodeEditPayload(msg)
	require.NoError(t, err)
	assert.Equal(t, "d", eraseId)
}
