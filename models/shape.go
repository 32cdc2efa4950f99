package models

// ShapeType tags the variants of the Shape union. The set is closed: the
// codec, hit-testing and rendering all switch exhaustively over it and
// reject anything else.
type ShapeType string

const (
	ShapeRect    ShapeType = "rect"
	ShapeCircle  ShapeType = "circle"
	ShapeLine    ShapeType = "line"
	ShapePencil  ShapeType = "pencil"
	ShapeDiamond ShapeType = "diamond"
	ShapeText    ShapeType = "text"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is a sealed union of the drawable variants. A shape's ID is optional
// while it is being constructed; once committed to a shared collection it is
// mandatory and unique within the room.
//
// Geometry fields alone determine rendering and hit-testing; no shape
// references another.
type Shape interface {
	Kind() ShapeType
	ID() string
	SetID(id string)
}

type Rect struct {
	ShapeID string  `json:"id,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	// Width/Height are signed deltas from the drawing anchor and may be
	// negative when the rect was dragged "backwards".
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Circle struct {
	ShapeID string  `json:"id,omitempty"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Radius  float64 `json:"radius"`
}

type Line struct {
	ShapeID string  `json:"id,omitempty"`
	StartX  float64 `json:"startX"`
	StartY  float64 `json:"startY"`
	EndX    float64 `json:"endX"`
	EndY    float64 `json:"endY"`
}

type Pencil struct {
	ShapeID string  `json:"id,omitempty"`
	Points  []Point `json:"points"`
}

type Diamond struct {
	ShapeID string  `json:"id,omitempty"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

type Text struct {
	ShapeID  string  `json:"id,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Content  string  `json:"content"`
	FontSize float64 `json:"fontSize,omitempty"`
}

func (s *Rect) Kind() ShapeType    { return ShapeRect }
func (s *Circle) Kind() ShapeType  { return ShapeCircle }
func (s *Line) Kind() ShapeType    { return ShapeLine }
func (s *Pencil) Kind() ShapeType  { return ShapePencil }
func (s *Diamond) Kind() ShapeType { return ShapeDiamond }
func (s *Text) Kind() ShapeType    { return ShapeText }

func (s *Rect) ID() string    { return s.ShapeID }
func (s *Circle) ID() string  { return s.ShapeID }
func (s *Line) ID() string    { return s.ShapeID }
func (s *Pencil) ID() string  { return s.ShapeID }
func (s *Diamond) ID() string { return s.ShapeID }
func (s *Text) ID() string    { return s.ShapeID }

func (s *Rect) SetID(id string)    { s.ShapeID = id }
func (s *Circle) SetID(id string)  { s.ShapeID = id }
func (s *Line) SetID(id string)    { s.ShapeID = id }
func (s *Pencil) SetID(id string)  { s.ShapeID = id }
func (s *Diamond) SetID(id string) { s.ShapeID = id }
func (s *Text) SetID(id string)    { s.ShapeID = id }
