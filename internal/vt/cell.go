package vt

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Attribute bits stored in uv.Style.Attrs.
const (
	attrBold          = 1 << 0
	attrFaint         = 1 << 1
	attrItalic        = 1 << 2
	attrReverse       = 1 << 5
	attrStrikethrough = 1 << 7
)

// Underline styles. Curly, dotted and dashed underlines render with the
// single underline sprite.
const (
	UnderlineNone = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineCurly
	UnderlineDotted
	UnderlineDashed
)

// Cell is a single grid cell: the ultraviolet cell carrying content, width,
// colours and attributes, plus the decoration state SGR can set.
type Cell struct {
	uv.Cell

	Underline      int
	UnderlineColor color.Color
}

// blankCell returns an empty cell painted with the background of pen.
func blankCell(pen Cell) Cell {
	c := Cell{Cell: uv.EmptyCell}
	c.Style.Bg = pen.Style.Bg
	return c
}

func (c Cell) bold() bool    { return c.Style.Attrs&attrBold != 0 }
func (c Cell) italic() bool  { return c.Style.Attrs&attrItalic != 0 }
func (c Cell) reverse() bool { return c.Style.Attrs&attrReverse != 0 }
func (c Cell) strike() bool  { return c.Style.Attrs&attrStrikethrough != 0 }

// Rune returns the first rune of the cell's content, or a space for empty
// and continuation cells.
func (c Cell) Rune() rune {
	for _, r := range c.Content {
		return r
	}
	return ' '
}
