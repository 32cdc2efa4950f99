package geometry

import (
	"fmt"

	"github.com/gofrs/uuid/v5"
)

// NewShapeID returns a fresh shape identifier. UUIDv7 combines a
// millisecond timestamp with random bits, which keeps IDs unique enough for
// a room's shape set without coordination; the format is opaque to callers.
func NewShapeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// semantics via Must so commits never stall on ID generation.
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}

// SyntheticID labels historical shapes that arrived without an identifier.
func SyntheticID(index int) string {
	return fmt.Sprintf("existing-%d", index)
}
