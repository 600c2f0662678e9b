package vt

import (
	"image/color"

	"github.com/charmbracelet/x/ansi"
)

// handleSgr handles Select Graphic Rendition (SGR) escape sequences.
// Palette colours are stored unresolved so the colour profile in effect at
// sync time decides their final value.
func (s *Screen) handleSgr(params ansi.Params) {
	pen := &s.pen
	if len(params) == 0 {
		*pen = Cell{}
		return
	}

	for i := 0; i < len(params); i++ {
		param, hasMore, _ := params.Param(i, 0)
		switch param {
		case 0: // Reset
			*pen = Cell{}
		case 1: // Bold
			pen.Style.Attrs |= attrBold
		case 2: // Dim/Faint
			pen.Style.Attrs |= attrFaint
		case 3: // Italic
			pen.Style.Attrs |= attrItalic
		case 4: // Underline, optionally with a style sub-parameter
			pen.Underline = UnderlineSingle
			if next, _, ok := params.Param(i+1, 0); hasMore && ok {
				i++
				if next >= UnderlineNone && next <= UnderlineDashed {
					pen.Underline = next
				}
			}
		case 7: // Reverse
			pen.Style.Attrs |= attrReverse
		case 9: // Crossed-out/Strikethrough
			pen.Style.Attrs |= attrStrikethrough
		case 21: // Double underline
			pen.Underline = UnderlineDouble
		case 22: // Normal Intensity
			pen.Style.Attrs &^= attrBold | attrFaint
		case 23: // Not italic
			pen.Style.Attrs &^= attrItalic
		case 24: // Not underlined
			pen.Underline = UnderlineNone
		case 27: // Positive (not reverse)
			pen.Style.Attrs &^= attrReverse
		case 29: // Not crossed out
			pen.Style.Attrs &^= attrStrikethrough
		case 30, 31, 32, 33, 34, 35, 36, 37:
			pen.Style.Fg = ansi.BasicColor(param - 30)
		case 38: // Set foreground 256 or truecolor
			var c color.Color
			if n := ansi.ReadStyleColor(params[i:], &c); n > 0 {
				pen.Style.Fg = c
				i += n - 1
			}
		case 39: // Default foreground
			pen.Style.Fg = nil
		case 40, 41, 42, 43, 44, 45, 46, 47:
			pen.Style.Bg = ansi.BasicColor(param - 40)
		case 48: // Set background 256 or truecolor
			var c color.Color
			if n := ansi.ReadStyleColor(params[i:], &c); n > 0 {
				pen.Style.Bg = c
				i += n - 1
			}
		case 49: // Default Background
			pen.Style.Bg = nil
		case 58: // Set underline color
			var c color.Color
			if n := ansi.ReadStyleColor(params[i:], &c); n > 0 {
				pen.UnderlineColor = c
				i += n - 1
			}
		case 59: // Default underline color
			pen.UnderlineColor = nil
		case 90, 91, 92, 93, 94, 95, 96, 97: // 8-15 are bright colors
			pen.Style.Fg = ansi.BasicColor(param - 90 + 8)
		case 100, 101, 102, 103, 104, 105, 106, 107:
			pen.Style.Bg = ansi.BasicColor(param - 100 + 8)
		}
	}
}
