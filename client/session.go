// Package client implements the drawing-side of a room: the pointer/tool
// interaction state machine, the websocket synchronization client, and the
// initial history fetch.
package client

import (
	"log"
	"math"

	"github.com/sketchflow/sketchflow/canvas"
	"github.com/sketchflow/sketchflow/geometry"
	"github.com/sketchflow/sketchflow/models"
)

type Tool int

const (
	ToolRect Tool = iota
	ToolCircle
	ToolLine
	ToolPencil
	ToolDiamond
	ToolText
	ToolEraser
	ToolPan
)

type State int

const (
	StateIdle State = iota
	StatePanning
	StateDrawing
	StateTextEditing
)

type PointerButton int

const (
	ButtonPrimary PointerButton = iota
	ButtonMiddle
	ButtonSecondary
)

// PointerEvent carries screen-space coordinates; the session converts them
// to canvas space through the current viewport.
type PointerEvent struct {
	X      float64
	Y      float64
	Button PointerButton
	Shift  bool
}

type WheelEvent struct {
	X            float64
	Y            float64
	DeltaX       float64
	DeltaY       float64
	ZoomModifier bool
}

const wheelZoomStep = 0.1

// Broadcaster carries committed edits toward the room. Sends must never
// block the caller.
type Broadcaster interface {
	SendShape(s models.Shape)
	SendErase(shapeId string)
}

// Surface is the rendering target. *canvas.Renderer satisfies it.
type Surface interface {
	RenderFrame(f canvas.Frame, vp canvas.Viewport, th canvas.Theme) error
	MeasureText(content string, fontSize float64) (w, h float64)
}

// Session owns one client's view of a room: the shape collection, the
// viewport, the selected tool and the interaction state. All mutation goes
// through its methods, which must be called from a single goroutine (see
// Loop). Nothing is captured in closures, so re-wiring input sources cannot
// duplicate state.
type Session struct {
	roomId   string
	shapes   *models.ShapeCollection
	viewport canvas.Viewport
	theme    canvas.Theme
	surface  Surface
	out      Broadcaster

	tool  Tool
	state State

	// Drawing state, valid while state == StateDrawing.
	anchor    models.Point
	cursor    models.Point
	pencilPts []models.Point

	// Panning state, screen coordinates of the last pointer position.
	panX, panY float64

	editor  *TextEditor
	hoverId string
}

func NewSession(roomId string, surface Surface, out Broadcaster, theme canvas.Theme) *Session {
	return &Session{
		roomId:   roomId,
		shapes:   models.NewShapeCollection(),
		viewport: canvas.NewViewport(),
		theme:    theme,
		surface:  surface,
		out:      out,
		tool:     ToolRect,
	}
}

// Seed installs the room history fetched before any live message was
// processed, then draws the first frame.
func (s *Session) Seed(shapes []models.Shape) {
	for _, sh := range shapes {
		s.shapes.Append(sh)
	}
	s.redraw()
}

func (s *Session) SetTool(t Tool) {
	s.tool = t
	if t != ToolEraser {
		s.hoverId = ""
	}
}

func (s *Session) Tool() Tool                { return s.tool }
func (s *Session) State() State              { return s.state }
func (s *Session) Viewport() canvas.Viewport { return s.viewport }
func (s *Session) Shapes() []models.Shape    { return s.shapes.Shapes() }
func (s *Session) RoomId() string            { return s.roomId }

// ResetView restores the identity viewport.
func (s *Session) ResetView() {
	s.viewport.Reset()
	s.redraw()
}

func (s *Session) PointerDown(ev PointerEvent) {
	pos := s.viewport.ToCanvas(models.Point{X: ev.X, Y: ev.Y})

	if s.state == StateTextEditing {
		// Only one text entry surface at a time: a new interaction
		// commits the previous one.
		s.CommitText()
	}

	if ev.Button == ButtonMiddle || (ev.Shift && ev.Button == ButtonPrimary) || s.tool == ToolPan {
		s.state = StatePanning
		s.panX, s.panY = ev.X, ev.Y
		return
	}

	if ev.Button != ButtonPrimary {
		return
	}

	switch s.tool {
	case ToolText:
		s.editor = newTextEditor(pos, s.viewport.Zoom)
		s.state = StateTextEditing

	case ToolEraser:
		if hit := s.hitTest(pos); hit != nil {
			s.eraseShape(hit.ID())
		}

	case ToolRect, ToolCircle, ToolLine, ToolPencil, ToolDiamond:
		s.state = StateDrawing
		s.anchor = pos
		s.cursor = pos
		if s.tool == ToolPencil {
			s.pencilPts = []models.Point{pos}
		}

	case ToolPan:
		// Handled above.
	}
}

func (s *Session) PointerMove(ev PointerEvent) {
	if s.state == StatePanning {
		s.viewport.Pan(ev.X-s.panX, ev.Y-s.panY)
		s.panX, s.panY = ev.X, ev.Y
		s.redraw()
		return
	}

	pos := s.viewport.ToCanvas(models.Point{X: ev.X, Y: ev.Y})

	if s.tool == ToolEraser && s.state == StateIdle {
		s.hoverId = ""
		if hit := s.hitTest(pos); hit != nil {
			s.hoverId = hit.ID()
		}
		s.redraw()
		return
	}

	if s.state != StateDrawing {
		return
	}

	s.cursor = pos
	if s.tool == ToolPencil {
		s.pencilPts = append(s.pencilPts, pos)
	}
	s.redraw()
}

func (s *Session) PointerUp(ev PointerEvent) {
	switch s.state {
	case StatePanning:
		s.state = StateIdle

	case StateDrawing:
		s.state = StateIdle
		s.cursor = s.viewport.ToCanvas(models.Point{X: ev.X, Y: ev.Y})
		if s.tool == ToolPencil {
			s.pencilPts = append(s.pencilPts, s.cursor)
		}
		s.commitShape()

	case StateIdle, StateTextEditing:
	}
}

// PointerLeave is an implicit pointer-up for pencil strokes so a stroke that
// runs off the surface is still committed. Panning stops; other tools keep
// their in-progress state.
func (s *Session) PointerLeave() {
	if s.state == StatePanning {
		s.state = StateIdle
		return
	}
	if s.state == StateDrawing && s.tool == ToolPencil {
		s.state = StateIdle
		s.commitShape()
	}
}

// Wheel pans by default; with the zoom modifier held it zooms toward the
// cursor, clamped to the viewport's zoom range.
func (s *Session) Wheel(ev WheelEvent) {
	if ev.ZoomModifier {
		delta := wheelZoomStep
		if ev.DeltaY > 0 {
			delta = -wheelZoomStep
		}
		s.viewport.ZoomAt(models.Point{X: ev.X, Y: ev.Y}, delta)
	} else {
		s.viewport.Pan(-ev.DeltaX, -ev.DeltaY)
	}
	s.redraw()
}

// ApplyEdit applies one remote chat message body to the local collection.
// Malformed payloads are returned as errors for the caller to log; they
// never affect subsequent messages.
func (s *Session) ApplyEdit(message string) error {
	shape, eraseId, err := models.DecodeEditPayload(message)
	if err != nil {
		return err
	}

	if eraseId != "" {
		s.shapes.RemoveByID(eraseId)
	} else {
		s.shapes.Append(shape)
	}
	s.redraw()
	return nil
}

func (s *Session) hitTest(pos models.Point) models.Shape {
	return geometry.HitTest(pos, s.shapes.Shapes(), geometry.HitTestOptions{
		Zoom:        s.viewport.Zoom,
		MeasureText: s.surface.MeasureText,
	})
}

func (s *Session) eraseShape(id string) {
	if !s.shapes.RemoveByID(id) {
		return
	}
	if s.hoverId == id {
		s.hoverId = ""
	}
	s.out.SendErase(id)
	s.redraw()
}

// commitShape finalizes the in-progress shape. Degenerate geometry (a
// single-point pencil stroke, a zero-length line) is discarded rather than
// committed or broadcast.
func (s *Session) commitShape() {
	shape := s.buildShape()
	s.pencilPts = nil
	if shape == nil {
		s.redraw()
		return
	}

	shape.SetID(geometry.NewShapeID())
	s.shapes.Append(shape)
	s.out.SendShape(shape)
	s.redraw()
}

func (s *Session) buildShape() models.Shape {
	width := s.cursor.X - s.anchor.X
	height := s.cursor.Y - s.anchor.Y

	switch s.tool {
	case ToolRect:
		if width == 0 && height == 0 {
			return nil
		}
		return &models.Rect{X: s.anchor.X, Y: s.anchor.Y, Width: width, Height: height}

	case ToolCircle:
		// Center at the midpoint of the drag's bounding box. The
		// anchor-as-center formula would render divergently on peers,
		// so only this construction exists.
		radius := math.Max(math.Abs(width), math.Abs(height)) / 2
		if radius == 0 {
			return nil
		}
		return &models.Circle{
			CenterX: s.anchor.X + width/2,
			CenterY: s.anchor.Y + height/2,
			Radius:  radius,
		}

	case ToolLine:
		if width == 0 && height == 0 {
			return nil
		}
		return &models.Line{
			StartX: s.anchor.X, StartY: s.anchor.Y,
			EndX: s.cursor.X, EndY: s.cursor.Y,
		}

	case ToolPencil:
		pts := dedupAdjacent(s.pencilPts)
		if len(pts) < 2 {
			return nil
		}
		return &models.Pencil{Points: pts}

	case ToolDiamond:
		if width == 0 || height == 0 {
			return nil
		}
		return &models.Diamond{
			CenterX: s.anchor.X + width/2,
			CenterY: s.anchor.Y + height/2,
			Width:   width,
			Height:  height,
		}

	case ToolText, ToolEraser, ToolPan:
		return nil
	}
	return nil
}

// previewShape mirrors buildShape but without validity checks; it is drawn
// live and never committed.
func (s *Session) previewShape() models.Shape {
	if s.state != StateDrawing {
		return nil
	}
	if s.tool == ToolPencil {
		return &models.Pencil{Points: s.pencilPts}
	}
	return s.buildShape()
}

func (s *Session) redraw() {
	frame := canvas.Frame{
		Shapes:      s.shapes.Shapes(),
		Preview:     s.previewShape(),
		HighlightId: s.hoverId,
	}
	if err := s.surface.RenderFrame(frame, s.viewport, s.theme); err != nil {
		log.Printf("Render failed: %v", err)
	}
}

func dedupAdjacent(pts []models.Point) []models.Point {
	if len(pts) == 0 {
		return nil
	}
	out := pts[:1]
	for _, p := range pts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
