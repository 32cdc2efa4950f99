package client

import (
	"strings"

	"github.com/sketchflow/sketchflow/geometry"
	"github.com/sketchflow/sketchflow/models"
)

const editorBaseFontSize = 16.0

// TextEditor is the single active text-entry surface. It lives in canvas
// space; callers position any on-screen widget by running the position
// through the viewport transform.
type TextEditor struct {
	Pos      models.Point
	FontSize float64
	content  strings.Builder
}

func newTextEditor(pos models.Point, zoom float64) *TextEditor {
	if zoom <= 0 {
		zoom = 1
	}
	return &TextEditor{
		Pos: pos,
		// Entered at a fixed on-screen size; stored in canvas units so
		// the committed shape scales with the drawing.
		FontSize: editorBaseFontSize / zoom,
	}
}

func (e *TextEditor) Content() string {
	return e.content.String()
}

// Editor returns the active text editor, or nil when not text-editing.
func (s *Session) Editor() *TextEditor {
	return s.editor
}

// TypeText appends input to the active editor. Ignored outside text editing.
func (s *Session) TypeText(input string) {
	if s.state != StateTextEditing || s.editor == nil {
		return
	}
	s.editor.content.WriteString(input)
}

// KeyEnter commits the text unless shift is held (shift+Enter is a literal
// newline).
func (s *Session) KeyEnter(shift bool) {
	if s.state != StateTextEditing {
		return
	}
	if shift {
		s.TypeText("\n")
		return
	}
	s.CommitText()
}

// KeyEscape discards the editor without committing.
func (s *Session) KeyEscape() {
	if s.state != StateTextEditing {
		return
	}
	s.editor = nil
	s.state = StateIdle
	s.redraw()
}

// Blur commits the editor, matching losing focus on the entry surface.
func (s *Session) Blur() {
	if s.state == StateTextEditing {
		s.CommitText()
	}
}

// CommitText turns non-empty entered text into a text shape, appends it to
// the collection and broadcasts it. Whitespace-only input is discarded.
func (s *Session) CommitText() {
	editor := s.editor
	s.editor = nil
	s.state = StateIdle
	if editor == nil {
		return
	}

	content := strings.TrimSpace(editor.Content())
	if content == "" {
		s.redraw()
		return
	}

	shape := &models.Text{
		X:        editor.Pos.X,
		Y:        editor.Pos.Y,
		Content:  content,
		FontSize: editor.FontSize,
	}
	shape.SetID(geometry.NewShapeID())
	s.shapes.Append(shape)
	s.out.SendShape(shape)
	s.redraw()
}
