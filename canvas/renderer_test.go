package canvas

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchflow/sketchflow/geometry"
	"github.com/sketchflow/sketchflow/models"
)

func renderImage(t *testing.T, f Frame, vp Viewport, th Theme) image.Image {
	t.Helper()
	r, err := NewRenderer(100, 100)
	require.NoError(t, err)
	require.NoError(t, r.RenderFrame(f, vp, th))
	return r.Image()
}

func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a.At(x, y) != b.At(x, y) {
				return false
			}
		}
	}
	return true
}

// backgroundAt compares against the top-left corner, which every test keeps
// free of shapes.
func backgroundAt(img image.Image, x, y int) bool {
	return img.At(x, y) == img.At(0, 0)
}

func TestRenderer_BackgroundFill(t *testing.T) {
	img := renderImage(t, Frame{}, NewViewport(), DarkTheme)
	r, g, b, _ := img.At(50, 50).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)

	img = renderImage(t, Frame{}, NewViewport(), LightTheme)
	r, g, b, _ = img.At(50, 50).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestRenderer_NegativeExtentRectMatchesNormalized(t *testing.T) {
	forward := renderImage(t, Frame{Shapes: []models.Shape{
		&models.Rect{ShapeID: "a", X: 20.5, Y: 20.5, Width: 40, Height: 30},
	}}, NewViewport(), DarkTheme)

	// Same rect dragged backwards: anchor at the opposite corner
	backward := renderImage(t, Frame{Shapes: []models.Shape{
		&models.Rect{ShapeID: "a", X: 60.5, Y: 50.5, Width: -40, Height: -30},
	}}, NewViewport(), DarkTheme)

	assert.True(t, samePixels(forward, backward))
}

func TestRenderer_DrawnRectIsHitTestable(t *testing.T) {
	rect := &models.Rect{ShapeID: "r", X: 60.5, Y: 50.5, Width: -40, Height: -30}
	img := renderImage(t, Frame{Shapes: []models.Shape{rect}}, NewViewport(), DarkTheme)

	// The outline lands where the normalized edges are; the interior is
	// stroke-free.
	assert.False(t, backgroundAt(img, 40, 20))
	assert.True(t, backgroundAt(img, 40, 35))

	hit := geometry.HitTest(models.Point{X: 40, Y: 35}, []models.Shape{rect}, geometry.HitTestOptions{})
	require.NotNil(t, hit)
	assert.Equal(t, "r", hit.ID())
}

func TestRenderer_ShapePixelsFollowViewport(t *testing.T) {
	vp := Viewport{OffsetX: 15, OffsetY: 10, Zoom: 2}
	rect := &models.Rect{ShapeID: "r", X: 10, Y: 10, Width: 20, Height: 15}
	img := renderImage(t, Frame{Shapes: []models.Shape{rect}}, vp, DarkTheme)

	// Midpoint of the top edge, mapped through the viewport
	onEdge := vp.ToScreen(models.Point{X: 20, Y: 10})
	assert.False(t, backgroundAt(img, int(onEdge.X), int(onEdge.Y)))

	// The rect interior is only stroked, not filled
	inside := vp.ToScreen(models.Point{X: 20, Y: 17.5})
	assert.True(t, backgroundAt(img, int(inside.X), int(inside.Y)))

	assert.True(t, backgroundAt(img, 5, 5))
}

func TestRenderer_ThemeAndHighlightColors(t *testing.T) {
	rect := &models.Rect{ShapeID: "r", X: 10.5, Y: 10.5, Width: 30, Height: 20}
	frame := Frame{Shapes: []models.Shape{rect}}

	// Dark theme strokes light
	dark := renderImage(t, frame, NewViewport(), DarkTheme)
	r, g, b, _ := dark.At(25, 10).RGBA()
	assert.Greater(t, r, uint32(0x8000))
	assert.Greater(t, g, uint32(0x8000))
	assert.Greater(t, b, uint32(0x8000))

	// Light theme strokes dark at the same pixels; geometry is unchanged
	light := renderImage(t, frame, NewViewport(), LightTheme)
	r, g, b, _ = light.At(25, 10).RGBA()
	assert.Less(t, r, uint32(0x4000))
	assert.Less(t, g, uint32(0x4000))
	assert.Less(t, b, uint32(0x4000))

	// Hover highlight turns the stroke red
	highlighted := renderImage(t, Frame{Shapes: []models.Shape{rect}, HighlightId: "r"}, NewViewport(), DarkTheme)
	r, g, b, _ = highlighted.At(25, 10).RGBA()
	assert.Greater(t, r, uint32(0x8000))
	assert.Less(t, g, uint32(0x4000))
	assert.Less(t, b, uint32(0x4000))
}

func TestRenderer_InsertionOrderDrawsOnTop(t *testing.T) {
	bottom := &models.Rect{ShapeID: "b", X: 10.5, Y: 10.5, Width: 40, Height: 40}
	// The line retraces the rect's top edge and is drawn after it
	top := &models.Line{ShapeID: "l", StartX: 10.5, StartY: 10.5, EndX: 50.5, EndY: 10.5}

	img := renderImage(t, Frame{Shapes: []models.Shape{bottom, top}, HighlightId: "l"}, NewViewport(), DarkTheme)

	// On the shared pixels the later, highlighted shape wins
	r, g, b, _ := img.At(30, 10).RGBA()
	assert.Greater(t, r, uint32(0x8000))
	assert.Less(t, g, uint32(0x4000))
	assert.Less(t, b, uint32(0x4000))
}
