package vt

import (
	"image/color"

	"github.com/Gaurav-Gosain/cellgrid/internal/cell"
	"github.com/charmbracelet/x/ansi"
)

// ColorProfile resolves terminal colours to packed 0xRRGGBB values using a
// 256 entry ANSI colour table.
type ColorProfile struct {
	table [256]uint32
}

// NewColorProfile returns a profile initialised with the xterm palette.
func NewColorProfile() *ColorProfile {
	p := new(ColorProfile)
	for i := range p.table {
		p.table[i] = ColorToRGB(ansi.IndexedColor(uint8(i)))
	}
	return p
}

// UpdateANSIColorTable replaces the leading entries of the colour table. Nil
// entries keep their previous value.
func (p *ColorProfile) UpdateANSIColorTable(colors []color.Color) {
	for i, c := range colors {
		if i >= len(p.table) {
			break
		}
		if c != nil {
			p.table[i] = ColorToRGB(c)
		}
	}
}

// Indexed returns the packed colour at index i of the table.
func (p *ColorProfile) Indexed(i uint8) uint32 {
	return p.table[i]
}

// Resolve packs c, looking up palette colours in the table. A nil colour
// resolves to def.
func (p *ColorProfile) Resolve(c color.Color, def uint32) uint32 {
	switch c := c.(type) {
	case nil:
		return def
	case ansi.BasicColor:
		return p.table[uint8(c)]
	case ansi.IndexedColor:
		return p.table[uint8(c)]
	}
	return ColorToRGB(c)
}

// ColorToRGB packs any colour into 0xRRGGBB, ignoring alpha.
func ColorToRGB(c color.Color) uint32 {
	if c == nil {
		return 0
	}
	r, g, b, _ := c.RGBA()
	return cell.PackRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
