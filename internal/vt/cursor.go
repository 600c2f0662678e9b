package vt

import (
	"fmt"
	"image/color"
	"strings"
)

// CursorShape is the shape the cursor is drawn with. The zero value means
// "use the configured default".
type CursorShape int

const (
	CursorDefault CursorShape = iota
	CursorBlock
	CursorBeam
	CursorUnderline
)

func (s CursorShape) String() string {
	switch s {
	case CursorBlock:
		return "block"
	case CursorBeam:
		return "beam"
	case CursorUnderline:
		return "underline"
	default:
		return "default"
	}
}

// ParseCursorShape parses the configuration name of a cursor shape.
func ParseCursorShape(s string) (CursorShape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block":
		return CursorBlock, nil
	case "beam", "bar":
		return CursorBeam, nil
	case "underline":
		return CursorUnderline, nil
	}
	return CursorDefault, fmt.Errorf("unknown cursor shape %q", s)
}

// Cursor is an immutable snapshot of the cursor state. A nil Color means the
// configured cursor colour applies.
type Cursor struct {
	X, Y   int
	Hidden bool
	Shape  CursorShape
	Color  color.Color
	Blink  bool
}

func (c Cursor) equal(o Cursor) bool {
	return c.X == o.X && c.Y == o.Y && c.Hidden == o.Hidden &&
		c.Shape == o.Shape && c.Blink == o.Blink && sameColor(c.Color, o.Color)
}

func sameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}
