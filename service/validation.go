package service

import (
	"errors"
	"math"
	"regexp"

	"github.com/sketchflow/sketchflow/models"
)

var roomIdRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var ErrInvalidRoomId = errors.New("invalid room id")

func ValidateRoomId(roomId string) error {
	if !roomIdRegex.MatchString(roomId) {
		return ErrInvalidRoomId
	}
	return nil
}

const (
	maxEditMessageBytes = 16 * 1024
	maxEraseIdLength    = 128
	maxPencilPoints     = 1000
	maxTextLength       = 4096
	maxFontSize         = 512
)

// ValidateEditMessage checks an edit payload before it is persisted. The
// gateway relays chat bodies verbatim; this gate only protects the edit log
// from oversized or non-finite geometry.
func ValidateEditMessage(message string) error {
	if len(message) == 0 {
		return errors.New("empty edit message")
	}
	if len(message) > maxEditMessageBytes {
		return errors.New("edit message too large")
	}

	shape, eraseId, err := models.DecodeEditPayload(message)
	if err != nil {
		return err
	}

	if eraseId != "" {
		if len(eraseId) > maxEraseIdLength {
			return errors.New("erase id too long")
		}
		return nil
	}

	return validateShape(shape)
}

func validateShape(shape models.Shape) error {
	switch sh := shape.(type) {
	case *models.Rect:
		return finite(sh.X, sh.Y, sh.Width, sh.Height)

	case *models.Circle:
		if sh.Radius < 0 {
			return errors.New("negative radius")
		}
		return finite(sh.CenterX, sh.CenterY, sh.Radius)

	case *models.Line:
		return finite(sh.StartX, sh.StartY, sh.EndX, sh.EndY)

	case *models.Pencil:
		if len(sh.Points) > maxPencilPoints {
			return errors.New("pencil stroke too long")
		}
		for _, p := range sh.Points {
			if err := finite(p.X, p.Y); err != nil {
				return err
			}
		}
		return nil

	case *models.Diamond:
		return finite(sh.CenterX, sh.CenterY, sh.Width, sh.Height)

	case *models.Text:
		if len(sh.Content) > maxTextLength {
			return errors.New("text content too long")
		}
		// fontSize is optional; zero means the renderer default
		if sh.FontSize < 0 || sh.FontSize > maxFontSize {
			return errors.New("invalid font size")
		}
		return finite(sh.X, sh.Y)
	}
	return errors.New("unknown shape type")
}

func finite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite coordinate")
		}
	}
	return nil
}
