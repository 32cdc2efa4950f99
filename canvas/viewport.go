// Package canvas renders a shape collection onto a raster surface and owns
// the purely local pan/zoom presentation state. Nothing here is synchronized
// between clients.
package canvas

import "github.com/sketchflow/sketchflow/models"

const (
	MinZoom = 0.1
	MaxZoom = 10.0
)

// Viewport maps canvas-space coordinates to screen-space pixels:
// screen = canvas*zoom + offset.
type Viewport struct {
	OffsetX float64
	OffsetY float64
	Zoom    float64
}

// NewViewport returns the identity viewport (no pan, zoom 1).
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

func (v *Viewport) Reset() {
	*v = NewViewport()
}

// ToCanvas inverse-transforms a screen point through the current offset and
// zoom.
func (v Viewport) ToCanvas(screen models.Point) models.Point {
	return models.Point{
		X: (screen.X - v.OffsetX) / v.Zoom,
		Y: (screen.Y - v.OffsetY) / v.Zoom,
	}
}

func (v Viewport) ToScreen(canvas models.Point) models.Point {
	return models.Point{
		X: canvas.X*v.Zoom + v.OffsetX,
		Y: canvas.Y*v.Zoom + v.OffsetY,
	}
}

// Pan shifts the viewport by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// ZoomAt adjusts zoom by delta, clamped to [MinZoom, MaxZoom], and
// recomputes the offset so the canvas point under the cursor stays fixed on
// screen.
func (v *Viewport) ZoomAt(cursor models.Point, delta float64) {
	oldZoom := v.Zoom
	newZoom := clampZoom(oldZoom + delta)
	if newZoom == oldZoom {
		return
	}

	v.OffsetX = cursor.X - (cursor.X-v.OffsetX)*(newZoom/oldZoom)
	v.OffsetY = cursor.Y - (cursor.Y-v.OffsetY)*(newZoom/oldZoom)
	v.Zoom = newZoom
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
