package canvas

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/sketchflow/sketchflow/models"
)

const defaultFontSize = 16.0

// Frame is one full redraw: the committed shapes, an optional in-progress
// preview shape, and an optional shape to highlight (eraser hover).
type Frame struct {
	Shapes      []models.Shape
	Preview     models.Shape
	HighlightId string
}

// Renderer redraws the whole visible surface from scratch on every call.
// There is no dirty-rectangle tracking; at the shape counts a room holds
// (hundreds) a full redraw is cheap and keeps the renderer stateless with
// respect to the collection.
type Renderer struct {
	dc     *gg.Context
	source *text.FontSource
	faces  map[float64]text.Face
}

func NewRenderer(width, height int) (*Renderer, error) {
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	return &Renderer{
		dc:     gg.NewContext(width, height),
		source: source,
		faces:  make(map[float64]text.Face),
	}, nil
}

// Render clears the surface, fills the themed background, applies the
// viewport transform (translate then scale, so zoom originates from the pan
// position), and strokes every shape in insertion order. It never mutates
// the shapes or the viewport.
func (r *Renderer) Render(shapes []models.Shape, vp Viewport, th Theme) error {
	return r.RenderFrame(Frame{Shapes: shapes}, vp, th)
}

func (r *Renderer) RenderFrame(f Frame, vp Viewport, th Theme) error {
	dc := r.dc

	dc.Push()
	defer dc.Pop()

	dc.Identity()
	dc.SetHexColor(th.Background)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()

	dc.Translate(vp.OffsetX, vp.OffsetY)
	dc.Scale(vp.Zoom, vp.Zoom)
	dc.SetLineWidth(1)

	for _, s := range f.Shapes {
		color := th.Stroke
		if f.HighlightId != "" && s.ID() == f.HighlightId {
			color = th.Highlight
		}
		if err := r.drawShape(s, color); err != nil {
			return err
		}
	}

	if f.Preview != nil {
		if err := r.drawShape(f.Preview, th.Stroke); err != nil {
			return err
		}
	}

	return nil
}

// Image exposes the rendered surface.
func (r *Renderer) Image() image.Image {
	return r.dc.Image()
}

// MeasureText reports the rendered width and height of a text shape; it
// satisfies geometry.MeasureTextFunc.
func (r *Renderer) MeasureText(content string, fontSize float64) (w, h float64) {
	r.dc.SetFont(r.faceFor(fontSize))
	return r.dc.MeasureString(content)
}

func (r *Renderer) faceFor(size float64) text.Face {
	if size <= 0 {
		size = defaultFontSize
	}
	if face, ok := r.faces[size]; ok {
		return face
	}
	face := r.source.Face(size)
	r.faces[size] = face
	return face
}

func (r *Renderer) drawShape(s models.Shape, color string) error {
	dc := r.dc
	dc.SetHexColor(color)

	switch v := s.(type) {
	case *models.Rect:
		x, y, w, h := normalizeRect(v)
		dc.DrawRectangle(x, y, w, h)
		dc.Stroke()
		return nil

	case *models.Circle:
		dc.DrawCircle(v.CenterX, v.CenterY, v.Radius)
		dc.Stroke()
		return nil

	case *models.Line:
		dc.DrawLine(v.StartX, v.StartY, v.EndX, v.EndY)
		dc.Stroke()
		return nil

	case *models.Pencil:
		if len(v.Points) < 2 {
			return nil
		}
		dc.MoveTo(v.Points[0].X, v.Points[0].Y)
		for _, p := range v.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
		return nil

	case *models.Diamond:
		halfW := math.Abs(v.Width) / 2
		halfH := math.Abs(v.Height) / 2
		dc.MoveTo(v.CenterX, v.CenterY-halfH)
		dc.LineTo(v.CenterX+halfW, v.CenterY)
		dc.LineTo(v.CenterX, v.CenterY+halfH)
		dc.LineTo(v.CenterX-halfW, v.CenterY)
		dc.ClosePath()
		dc.Stroke()
		return nil

	case *models.Text:
		size := v.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		dc.SetFont(r.faceFor(size))
		dc.DrawString(v.Content, v.X, v.Y)
		return nil

	default:
		return fmt.Errorf("unknown shape variant %T", s)
	}
}

// normalizeRect folds negative width/height into an equivalent top-left
// anchored rect so rendering matches hit-testing for rects drawn backwards.
func normalizeRect(r *models.Rect) (x, y, w, h float64) {
	x, y, w, h = r.X, r.Y, r.Width, r.Height
	if w < 0 {
		x += w
		w = -w
	}
	if h < 0 {
		y += h
		h = -h
	}
	return x, y, w, h
}
