package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sketchflow/sketchflow/models"
)

func hit(t *testing.T, s models.Shape, x, y float64, opts HitTestOptions) bool {
	t.Helper()
	return HitTest(models.Point{X: x, Y: y}, []models.Shape{s}, opts) != nil
}

func TestHitTest_Rect(t *testing.T) {
	r := &models.Rect{ShapeID: "r", X: 10, Y: 10, Width: 30, Height: 20}

	assert.True(t, hit(t, r, 25, 15, HitTestOptions{}))
	assert.True(t, hit(t, r, 10, 10, HitTestOptions{})) // edge is inside
	assert.False(t, hit(t, r, 41, 15, HitTestOptions{}))
}

func TestHitTest_RectNegativeExtent(t *testing.T) {
	// Dragged backwards: anchor bottom-right, negative width/height.
	r := &models.Rect{ShapeID: "r", X: 40, Y: 30, Width: -30, Height: -20}

	assert.True(t, hit(t, r, 25, 15, HitTestOptions{}))
	assert.False(t, hit(t, r, 5, 15, HitTestOptions{}))
}

func TestHitTest_Circle(t *testing.T) {
	c := &models.Circle{ShapeID: "c", CenterX: 0, CenterY: 0, Radius: 10}

	assert.True(t, hit(t, c, 6, 8, HitTestOptions{})) // on the boundary
	assert.False(t, hit(t, c, 8, 8, HitTestOptions{}))
}

func TestHitTest_Diamond(t *testing.T) {
	d := &models.Diamond{ShapeID: "d", CenterX: 0, CenterY: 0, Width: 20, Height: 10}

	assert.True(t, hit(t, d, 0, 0, HitTestOptions{}))
	assert.True(t, hit(t, d, 10, 0, HitTestOptions{}))  // right vertex
	assert.True(t, hit(t, d, 5, 2.5, HitTestOptions{})) // on an edge
	// Inside the bounding box but outside the diamond.
	assert.False(t, hit(t, d, 8, 4, HitTestOptions{}))
}

func TestHitTest_DiamondZeroExtent(t *testing.T) {
	d := &models.Diamond{ShapeID: "d", CenterX: 5, CenterY: 5, Width: 0, Height: 10}
	assert.False(t, hit(t, d, 5, 5, HitTestOptions{}))
}

func TestHitTest_Line(t *testing.T) {
	l := &models.Line{ShapeID: "l", StartX: 0, StartY: 0, EndX: 100, EndY: 0}

	assert.True(t, hit(t, l, 50, 4, HitTestOptions{}))
	assert.False(t, hit(t, l, 50, 6, HitTestOptions{}))
	// Beyond the endpoints the projection clamps; only the endpoint disc hits.
	assert.True(t, hit(t, l, 103, 0, HitTestOptions{}))
	assert.False(t, hit(t, l, 106, 0, HitTestOptions{}))
}

func TestHitTest_ZeroLengthLine(t *testing.T) {
	l := &models.Line{ShapeID: "l", StartX: 10, StartY: 10, EndX: 10, EndY: 10}

	assert.True(t, hit(t, l, 13, 10, HitTestOptions{}))
	assert.False(t, hit(t, l, 16, 10, HitTestOptions{}))
}

func TestHitTest_ToleranceScalesWithZoom(t *testing.T) {
	l := &models.Line{ShapeID: "l", StartX: 0, StartY: 0, EndX: 100, EndY: 0}

	// At 2x zoom the canvas-space tolerance shrinks to 2.5.
	assert.False(t, hit(t, l, 50, 4, HitTestOptions{Zoom: 2}))
	assert.True(t, hit(t, l, 50, 2, HitTestOptions{Zoom: 2}))
	// At 0.5x it grows to 10.
	assert.True(t, hit(t, l, 50, 8, HitTestOptions{Zoom: 0.5}))
}

func TestHitTest_Pencil(t *testing.T) {
	p := &models.Pencil{ShapeID: "p", Points: []models.Point{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50},
	}}

	assert.True(t, hit(t, p, 25, 3, HitTestOptions{}))
	assert.True(t, hit(t, p, 53, 25, HitTestOptions{}))
	assert.False(t, hit(t, p, 25, 25, HitTestOptions{}))

	single := &models.Pencil{ShapeID: "p", Points: []models.Point{{X: 1, Y: 1}}}
	assert.False(t, hit(t, single, 1, 1, HitTestOptions{}))
}

func TestHitTest_Text(t *testing.T) {
	txt := &models.Text{ShapeID: "t", X: 10, Y: 100, Content: "hi", FontSize: 20}
	measure := func(content string, fontSize float64) (float64, float64) {
		return float64(len(content)) * 10, fontSize
	}

	opts := HitTestOptions{MeasureText: measure}
	assert.True(t, hit(t, txt, 20, 90, opts)) // inside the box above the baseline
	assert.True(t, hit(t, txt, 30, 100, opts))
	assert.False(t, hit(t, txt, 31, 90, opts))
	assert.False(t, hit(t, txt, 20, 101, opts)) // below the baseline

	// Without a measurer the approximation still gives a usable box.
	assert.True(t, hit(t, txt, 12, 95, HitTestOptions{}))
}

func TestHitTest_TopmostWins(t *testing.T) {
	bottom := &models.Rect{ShapeID: "bottom", X: 0, Y: 0, Width: 100, Height: 100}
	top := &models.Circle{ShapeID: "top", CenterX: 50, CenterY: 50, Radius: 10}
	shapes := []models.Shape{bottom, top}

	got := HitTest(models.Point{X: 50, Y: 50}, shapes, HitTestOptions{})
	assert.Equal(t, "top", got.ID())

	got = HitTest(models.Point{X: 5, Y: 5}, shapes, HitTestOptions{})
	assert.Equal(t, "bottom", got.ID())
}

func TestHitTest_Miss(t *testing.T) {
	shapes := []models.Shape{&models.Rect{ShapeID: "r", X: 0, Y: 0, Width: 10, Height: 10}}
	assert.Nil(t, HitTest(models.Point{X: 500, Y: 500}, shapes, HitTestOptions{}))
	assert.Nil(t, HitTest(models.Point{X: 5, Y: 5}, nil, HitTestOptions{}))
}
