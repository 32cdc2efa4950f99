package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchflow/sketchflow/canvas"
	"github.com/sketchflow/sketchflow/models"
)

type fakeSurface struct {
	frames []canvas.Frame
}

func (f *fakeSurface) RenderFrame(fr canvas.Frame, vp canvas.Viewport, th canvas.Theme) error {
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSurface) MeasureText(content string, fontSize float64) (float64, float64) {
	return float64(len(content)) * fontSize * 0.6, fontSize
}

type fakeBroadcaster struct {
	shapes []models.Shape
	erases []string
}

func (b *fakeBroadcaster) SendShape(s models.Shape) { b.shapes = append(b.shapes, s) }
func (b *fakeBroadcaster) SendErase(id string)      { b.erases = append(b.erases, id) }

func newTestSession() (*Session, *fakeSurface, *fakeBroadcaster) {
	surface := &fakeSurface{}
	out := &fakeBroadcaster{}
	return NewSession("room-1", surface, out, canvas.DarkTheme), surface, out
}

func drag(s *Session, x0, y0, x1, y1 float64) {
	s.PointerDown(PointerEvent{X: x0, Y: y0})
	s.PointerMove(PointerEvent{X: x1, Y: y1})
	s.PointerUp(PointerEvent{X: x1, Y: y1})
}

func TestSession_CommitRect(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolRect)

	drag(s, 10, 20, 60, 50)

	require.Len(t, out.shapes, 1)
	rect, ok := out.shapes[0].(*models.Rect)
	require.True(t, ok)
	assert.NotEmpty(t, rect.ID())
	assert.Equal(t, 10.0, rect.X)
	assert.Equal(t, 50.0, rect.Width)
	assert.Equal(t, 30.0, rect.Height)

	assert.Len(t, s.Shapes(), 1)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_CommitCircleCenteredOnDragBox(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolCircle)

	drag(s, 0, 0, 40, 20)

	require.Len(t, out.shapes, 1)
	c := out.shapes[0].(*models.Circle)
	assert.Equal(t, 20.0, c.CenterX)
	assert.Equal(t, 10.0, c.CenterY)
	assert.Equal(t, 20.0, c.Radius)
}

func TestSession_DegenerateShapesDiscarded(t *testing.T) {
	s, _, out := newTestSession()

	for _, tool := range []Tool{ToolRect, ToolCircle, ToolLine, ToolDiamond} {
		s.SetTool(tool)
		drag(s, 30, 30, 30, 30)
	}

	assert.Empty(t, out.shapes)
	assert.Empty(t, s.Shapes())
}

func TestSession_PencilDedupsAdjacentPoints(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolPencil)

	s.PointerDown(PointerEvent{X: 0, Y: 0})
	s.PointerMove(PointerEvent{X: 5, Y: 5})
	s.PointerMove(PointerEvent{X: 5, Y: 5})
	s.PointerMove(PointerEvent{X: 9, Y: 3})
	s.PointerUp(PointerEvent{X: 9, Y: 3})

	require.Len(t, out.shapes, 1)
	p := out.shapes[0].(*models.Pencil)
	assert.Equal(t, []models.Point{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 9, Y: 3}}, p.Points)
}

func TestSession_SinglePointPencilDiscarded(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolPencil)

	s.PointerDown(PointerEvent{X: 7, Y: 7})
	s.PointerUp(PointerEvent{X: 7, Y: 7})

	assert.Empty(t, out.shapes)
}

func TestSession_PointerLeaveCommitsPencil(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolPencil)

	s.PointerDown(PointerEvent{X: 0, Y: 0})
	s.PointerMove(PointerEvent{X: 10, Y: 10})
	s.PointerLeave()

	assert.Len(t, out.shapes, 1)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_DrawingAccountsForViewport(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolRect)

	// Pan with the middle button, then draw; the committed rect must be in
	// canvas coordinates.
	s.PointerDown(PointerEvent{X: 0, Y: 0, Button: ButtonMiddle})
	s.PointerMove(PointerEvent{X: 100, Y: 0, Button: ButtonMiddle})
	s.PointerUp(PointerEvent{X: 100, Y: 0, Button: ButtonMiddle})
	assert.Empty(t, out.shapes)

	drag(s, 100, 0, 150, 40)

	require.Len(t, out.shapes, 1)
	rect := out.shapes[0].(*models.Rect)
	assert.Equal(t, 0.0, rect.X)
	assert.Equal(t, 50.0, rect.Width)
}

func TestSession_ShiftPrimaryPans(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolRect)

	s.PointerDown(PointerEvent{X: 10, Y: 10, Shift: true})
	assert.Equal(t, StatePanning, s.State())
	s.PointerMove(PointerEvent{X: 40, Y: 10, Shift: true})
	s.PointerUp(PointerEvent{X: 40, Y: 10, Shift: true})

	assert.Empty(t, out.shapes)
	assert.Equal(t, 30.0, s.Viewport().OffsetX)
}

func TestSession_EraserRemovesAndBroadcasts(t *testing.T) {
	s, _, out := newTestSession()
	s.Seed([]models.Shape{&models.Rect{ShapeID: "victim", X: 0, Y: 0, Width: 50, Height: 50}})

	s.SetTool(ToolEraser)
	s.PointerDown(PointerEvent{X: 25, Y: 25})

	assert.Equal(t, []string{"victim"}, out.erases)
	assert.Empty(t, s.Shapes())

	// Clicking empty space broadcasts nothing.
	s.PointerDown(PointerEvent{X: 25, Y: 25})
	assert.Len(t, out.erases, 1)
}

func TestSession_TextCommitViaEnter(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolText)

	s.PointerDown(PointerEvent{X: 30, Y: 40})
	require.Equal(t, StateTextEditing, s.State())

	s.TypeText("hello")
	s.KeyEnter(true) // shift+Enter inserts a newline, no commit
	s.TypeText("world")
	assert.Equal(t, StateTextEditing, s.State())

	s.KeyEnter(false)

	require.Len(t, out.shapes, 1)
	txt := out.shapes[0].(*models.Text)
	assert.Equal(t, "hello\nworld", txt.Content)
	assert.Equal(t, 30.0, txt.X)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_TextEscapeDiscards(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolText)

	s.PointerDown(PointerEvent{X: 0, Y: 0})
	s.TypeText("never shown")
	s.KeyEscape()

	assert.Empty(t, out.shapes)
	assert.Empty(t, s.Shapes())
	assert.Nil(t, s.Editor())
}

func TestSession_WhitespaceTextDiscarded(t *testing.T) {
	s, _, out := newTestSession()
	s.SetTool(ToolText)

	s.PointerDown(PointerEvent{X: 0, Y: 0})
	s.TypeText("   \n ")
	s.Blur()

	assert.Empty(t, out.shapes)
}

func TestSession_TextFontSizeScalesWithZoom(t *testing.T) {
	s, _, _ := newTestSession()
	s.Wheel(WheelEvent{X: 0, Y: 0, DeltaY: -1, ZoomModifier: true})
	require.InDelta(t, 1.1, s.Viewport().Zoom, 1e-9)

	s.SetTool(ToolText)
	s.PointerDown(PointerEvent{X: 0, Y: 0})

	require.NotNil(t, s.Editor())
	assert.InDelta(t, editorBaseFontSize/1.1, s.Editor().FontSize, 1e-9)
}

func TestSession_ApplyEdit(t *testing.T) {
	s, _, out := newTestSession()

	require.NoError(t, s.ApplyEdit(`{"shape":{"type":"rect","id":"remote","x":0,"y":0,"width":10,"height":10}}`))
	assert.Len(t, s.Shapes(), 1)

	require.NoError(t, s.ApplyEdit(`{"eraseId":"remote"}`))
	assert.Empty(t, s.Shapes())

	// Remote edits are never re-broadcast.
	assert.Empty(t, out.shapes)
	assert.Empty(t, out.erases)

	assert.Error(t, s.ApplyEdit("not json"))
	assert.Error(t, s.ApplyEdit(`{}`))
}

func TestSession_PreviewInFrames(t *testing.T) {
	s, surface, _ := newTestSession()
	s.SetTool(ToolLine)

	s.PointerDown(PointerEvent{X: 0, Y: 0})
	s.PointerMove(PointerEvent{X: 30, Y: 30})

	last := surface.frames[len(surface.frames)-1]
	require.NotNil(t, last.Preview)
	assert.Empty(t, last.Preview.ID())
	assert.Empty(t, last.Shapes)

	s.PointerUp(PointerEvent{X: 30, Y: 30})
	last = surface.frames[len(surface.frames)-1]
	assert.Nil(t, last.Preview)
	assert.Len(t, last.Shapes, 1)
}

func TestSession_EraserHoverHighlights(t *testing.T) {
	s, surface, _ := newTestSession()
	s.Seed([]models.Shape{&models.Rect{ShapeID: "r", X: 0, Y: 0, Width: 50, Height: 50}})
	s.SetTool(ToolEraser)

	s.PointerMove(PointerEvent{X: 25, Y: 25})
	assert.Equal(t, "r", surface.frames[len(surface.frames)-1].HighlightId)

	s.PointerMove(PointerEvent{X: 500, Y: 500})
	assert.Empty(t, surface.frames[len(surface.frames)-1].HighlightId)
}
