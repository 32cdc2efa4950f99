package models

import (
	"encoding/json"
	"fmt"
)

// MarshalShape encodes a shape as the flat tagged object used on the wire,
// e.g. {"type":"rect","id":"...","x":10,"y":10,"width":50,"height":50}.
func MarshalShape(s Shape) ([]byte, error) {
	switch v := s.(type) {
	case *Rect:
		return json.Marshal(struct {
			Type ShapeType `json:"type"`
			*Rect
		}{ShapeRect, v})
	case *Circle:
		return json.Marshal(struct {
			Type ShapeType `json:"type"`
			*Circle
		}{ShapeCircle, v})
	case *Line:
		return json.Marshal(struct {
			Type ShapeType `json:"type"`
			*Line
		}{ShapeLine, v})
	case *Pencil:
		return json.Marshal(struct {
			Type ShapeType `json:"type"`
			*Pencil
		}{ShapePencil, v})
	case *Diamond:
		return json.Marshal(struct {
			Type ShapeType `json:"type"`
			*Diamond
		}{ShapeDiamond, v})
	case *Text:
		return json.Marshal(struct {
			Type ShapeType `json:"type"`
			*Text
		}{ShapeText, v})
	default:
		return nil, fmt.Errorf("unknown shape variant %T", s)
	}
}

// UnmarshalShape decodes a flat tagged shape object. Unknown tags are an
// error so callers can drop them without touching the collection.
func UnmarshalShape(data []byte) (Shape, error) {
	var probe struct {
		Type ShapeType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	var s Shape
	switch probe.Type {
	case ShapeRect:
		s = &Rect{}
	case ShapeCircle:
		s = &Circle{}
	case ShapeLine:
		s = &Line{}
	case ShapePencil:
		s = &Pencil{}
	case ShapeDiamond:
		s = &Diamond{}
	case ShapeText:
		s = &Text{}
	default:
		return nil, fmt.Errorf("unknown shape type %q", probe.Type)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
