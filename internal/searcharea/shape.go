package searcharea

import (
	"errors"
	"fmt"
)

// ErrUnknownShape is returned when parsing an unsupported shape name.
var ErrUnknownShape = errors.New("unknown shape")

// Shape is the kind of region a drawing gesture produces. ShapeNone doubles
// as the "not drawing" drawing mode.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeRectangle
	ShapeCircle
)

// String returns the string representation of a Shape
func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeRectangle:
		return "rectangle"
	case ShapeCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// ParseShape converts a name back into a Shape. The empty string is none.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "", "none":
		return ShapeNone, nil
	case "rectangle":
		return ShapeRectangle, nil
	case "circle":
		return ShapeCircle, nil
	default:
		return ShapeNone, fmt.Errorf("%w: %q", ErrUnknownShape, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(text []byte) error {
	parsed, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
