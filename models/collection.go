package models

// ShapeCollection is an ordered set of committed shapes. Insertion order is
// z-order: later entries draw on top and are hit-tested first.
//
// A collection is owned by exactly one session and is not safe for
// concurrent use; sessions reconcile through messages, never by sharing a
// collection.
type ShapeCollection struct {
	shapes []Shape
	byID   map[string]struct{}
}

func NewShapeCollection() *ShapeCollection {
	return &ShapeCollection{
		byID: make(map[string]struct{}),
	}
}

func (c *ShapeCollection) Len() int {
	return len(c.shapes)
}

// Append adds a shape at the top of the z-order. A shape whose ID is already
// present is skipped, which makes replaying an echoed or double-delivered
// shape_added message harmless. Returns whether the shape was added.
func (c *ShapeCollection) Append(s Shape) bool {
	id := s.ID()
	if id != "" {
		if _, ok := c.byID[id]; ok {
			return false
		}
		c.byID[id] = struct{}{}
	}
	c.shapes = append(c.shapes, s)
	return true
}

// RemoveByID removes the shape with the given ID. Removing an absent ID is a
// no-op, so applying the same shape_removed message twice converges.
func (c *ShapeCollection) RemoveByID(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, s := range c.shapes {
		if s.ID() == id {
			c.shapes = append(c.shapes[:i], c.shapes[i+1:]...)
			return true
		}
	}
	return false
}

func (c *ShapeCollection) ContainsID(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Shapes returns the shapes in insertion order. The returned slice is a
// copy; mutating it does not affect the collection.
func (c *ShapeCollection) Shapes() []Shape {
	out := make([]Shape, len(c.shapes))
	copy(out, c.shapes)
	return out
}
