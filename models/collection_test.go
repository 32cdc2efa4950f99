package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeCollection_AppendDeduplicates(t *testing.T) {
	c := NewShapeCollection()

	assert.True(t, c.Append(&Rect{ShapeID: "a", Width: 1, Height: 1}))
	assert.True(t, c.Append(&Circle{ShapeID: "b", Radius: 1}))
	// Same ID again must be ignored
	assert.False(t, c.Append(&Rect{ShapeID: "a", Width: 99, Height: 99}))

	shapes := c.Shapes()
	assert.Len(t, shapes, 2)
	assert.Equal(t, "a", shapes[0].ID())
	assert.Equal(t, float64(1), shapes[0].(*Rect).Width)
}

func TestShapeCollection_RemoveByIDIdempotent(t *testing.T) {
	c := NewShapeCollection()
	c.Append(&Rect{ShapeID: "a", Width: 1, Height: 1})

	assert.True(t, c.RemoveByID("a"))
	assert.False(t, c.RemoveByID("a"))
	assert.False(t, c.RemoveByID("never-existed"))
	assert.Empty(t, c.Shapes())

	// Removed IDs may be re-added (a redo is a fresh edit)
	assert.True(t, c.Append(&Rect{ShapeID: "a", Width: 2, Height: 2}))
	assert.True(t, c.ContainsID("a"))
}

func TestShapeCollection_ShapesReturnsCopy(t *testing.T) {
	c := NewShapeCollection()
	c.Append(&Rect{ShapeID: "a", Width: 1, Height: 1})

	shapes := c.Shapes()
	shapes[0] = &Circle{ShapeID: "x", Radius: 1}

	assert.Equal(t, "a", c.Shapes()[0].ID())
}
