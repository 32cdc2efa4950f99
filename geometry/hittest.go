// Package geometry holds the pure shape math: hit-testing against a
// collection and shape ID generation. Nothing here has side effects.
package geometry

import (
	"math"

	"github.com/sketchflow/sketchflow/models"
)

// LineHitTolerance is the screen-space touch target, in pixels, around
// line and pencil segments. Hit-testing divides it by the current zoom so
// the target stays constant on screen regardless of zoom level.
const LineHitTolerance = 5.0

const defaultFontSize = 16.0

// MeasureTextFunc reports the rendered width and height of a text shape.
type MeasureTextFunc func(content string, fontSize float64) (w, h float64)

type HitTestOptions struct {
	// Zoom is the current viewport zoom. Values <= 0 are treated as 1.
	Zoom float64
	// MeasureText sizes text bounding boxes. When nil a rough
	// width-per-rune approximation is used.
	MeasureText MeasureTextFunc
}

// HitTest returns the topmost shape containing or within tolerance of pt,
// or nil. Shapes are scanned from most-recently-added backward so the shape
// drawn on top wins ties.
func HitTest(pt models.Point, shapes []models.Shape, opts HitTestOptions) models.Shape {
	zoom := opts.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	tolerance := LineHitTolerance / zoom

	for i := len(shapes) - 1; i >= 0; i-- {
		if shapeContains(shapes[i], pt, tolerance, opts.MeasureText) {
			return shapes[i]
		}
	}
	return nil
}

func shapeContains(s models.Shape, pt models.Point, tolerance float64, measure MeasureTextFunc) bool {
	switch v := s.(type) {
	case *models.Rect:
		return rectContains(v, pt)
	case *models.Circle:
		return circleContains(v, pt)
	case *models.Line:
		return segmentNear(pt, models.Point{X: v.StartX, Y: v.StartY}, models.Point{X: v.EndX, Y: v.EndY}, tolerance)
	case *models.Pencil:
		return pencilNear(v, pt, tolerance)
	case *models.Diamond:
		return diamondContains(v, pt)
	case *models.Text:
		return textContains(v, pt, measure)
	default:
		return false
	}
}

// rectContains normalizes the signed width/height so rects dragged
// "backwards" hit-test the same as their normalized twin.
func rectContains(r *models.Rect, pt models.Point) bool {
	x0, x1 := ordered(r.X, r.X+r.Width)
	y0, y1 := ordered(r.Y, r.Y+r.Height)
	return pt.X >= x0 && pt.X <= x1 && pt.Y >= y0 && pt.Y <= y1
}

// circleContains compares squared distances, avoiding a square root.
func circleContains(c *models.Circle, pt models.Point) bool {
	dx := pt.X - c.CenterX
	dy := pt.Y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// diamondContains uses the taxicab inequality |dx|/halfW + |dy|/halfH <= 1.
func diamondContains(d *models.Diamond, pt models.Point) bool {
	halfW := math.Abs(d.Width) / 2
	halfH := math.Abs(d.Height) / 2
	if halfW == 0 || halfH == 0 {
		return false
	}
	dx := math.Abs(pt.X - d.CenterX)
	dy := math.Abs(pt.Y - d.CenterY)
	return dx/halfW+dy/halfH <= 1
}

func pencilNear(p *models.Pencil, pt models.Point, tolerance float64) bool {
	for i := 1; i < len(p.Points); i++ {
		if segmentNear(pt, p.Points[i-1], p.Points[i], tolerance) {
			return true
		}
	}
	return false
}

// segmentNear projects pt onto the segment a-b with the parameter clamped to
// [0,1] and checks the perpendicular distance against the tolerance.
func segmentNear(pt, a, b models.Point, tolerance float64) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return math.Hypot(pt.X-a.X, pt.Y-a.Y) <= tolerance
	}

	t := ((pt.X-a.X)*dx + (pt.Y-a.Y)*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))
	projX := a.X + t*dx
	projY := a.Y + t*dy
	return math.Hypot(pt.X-projX, pt.Y-projY) <= tolerance
}

// textContains tests the axis-aligned box spanning one line height above the
// baseline at (x, y).
func textContains(t *models.Text, pt models.Point, measure MeasureTextFunc) bool {
	fontSize := t.FontSize
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}

	var w, h float64
	if measure != nil {
		w, h = measure(t.Content, fontSize)
	} else {
		// Rough average glyph width; good enough without a font.
		w = 0.6 * fontSize * float64(len([]rune(t.Content)))
		h = fontSize
	}

	return pt.X >= t.X && pt.X <= t.X+w && pt.Y >= t.Y-h && pt.Y <= t.Y
}

func ordered(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
