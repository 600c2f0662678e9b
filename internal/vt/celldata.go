package vt

import (
	"github.com/Gaurav-Gosain/cellgrid/internal/cell"
	"github.com/Gaurav-Gosain/cellgrid/internal/sprites"
)

// UpdateCellData writes the render records of the live screen into dest.
// Only lines changed since the previous call are rewritten unless force is
// set. The atlas must be locked by the caller. It reports whether the cursor
// changed and how many lines entered history since the previous call.
func (s *Screen) UpdateCellData(atlas *sprites.Atlas, profile *ColorProfile, dest cell.SpriteMap, defaultFg, defaultBg uint32, force bool) (cursorChanged bool, historyAdded int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for y := range min(s.rows, dest.YNum()) {
		if force || s.lineDirty[y] {
			writeLine(atlas, profile, dest, y, s.lines[y], defaultFg, defaultBg)
		}
	}
	clear(s.lineDirty)
	s.dirty = false

	historyAdded, s.historyAdded = s.historyAdded, 0
	cursorChanged = !s.cursorSynced || !s.cursor.equal(s.reported)
	s.reported, s.cursorSynced = s.cursor, true
	return cursorChanged, historyAdded
}

// SetScrollCellData composes the scrolled view into dest: the top scrolledBy
// rows come from history, the rest are the leading rows of live. The atlas
// must be locked by the caller.
func (s *Screen) SetScrollCellData(atlas *sprites.Atlas, profile *ColorProfile, live cell.SpriteMap, defaultFg, defaultBg uint32, scrolledBy int, dest cell.SpriteMap) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for y := range dest.YNum() {
		if y < scrolledBy {
			writeLine(atlas, profile, dest, y, s.history.Line(scrolledBy-y), defaultFg, defaultBg)
			continue
		}
		copy(dest.Row(y), live.Row(y-scrolledBy))
	}
}

// ApplySelection recolours the cells of buf between (x0, y0) and (x1, y1)
// inclusive, in reading order. Rows outside buf are skipped. A colour equal
// to cell.NoColor leaves that channel alone; when both are unset foreground
// and background are swapped.
func (s *Screen) ApplySelection(buf cell.SpriteMap, x0, y0, x1, y1 int, selFg, selBg uint32) {
	last := buf.XNum() - 1
	for y := max(y0, 0); y <= min(y1, buf.YNum()-1); y++ {
		start, end := 0, last
		if y == y0 {
			start = max(x0, 0)
		}
		if y == y1 {
			end = min(x1, last)
		}
		for x := start; x <= end; x++ {
			r := buf.At(x, y)
			switch {
			case selFg == cell.NoColor && selBg == cell.NoColor:
				r.Fg, r.Bg = r.Bg, r.Fg
			default:
				if selFg != cell.NoColor {
					r.Fg = selFg
				}
				if selBg != cell.NoColor {
					r.Bg = selBg
				}
			}
			buf.Set(x, y, r)
		}
	}
}

func writeLine(atlas *sprites.Atlas, profile *ColorProfile, dest cell.SpriteMap, y int, line Line, defaultFg, defaultBg uint32) {
	for x := range dest.XNum() {
		c := Cell{}
		if x < len(line) {
			c = line[x]
		}
		dest.Set(x, y, record(atlas, profile, c, defaultFg, defaultBg))
	}
}

func record(atlas *sprites.Atlas, profile *ColorProfile, c Cell, defaultFg, defaultBg uint32) cell.Record {
	fg := profile.Resolve(c.Style.Fg, defaultFg)
	bg := profile.Resolve(c.Style.Bg, defaultBg)
	if c.reverse() {
		fg, bg = bg, fg
	}

	pos := atlas.PositionFor(sprites.Glyph{Text: c.Content, Bold: c.bold(), Italic: c.italic()})

	var underline, strike uint32
	switch c.Underline {
	case UnderlineNone:
	case UnderlineDouble:
		underline = sprites.UnderlineDouble
	default:
		underline = sprites.UnderlineSingle
	}
	if c.strike() {
		strike = sprites.Strikethrough
	}

	return cell.Record{
		SpriteX:    pos.X,
		SpriteY:    pos.Y,
		SpriteZ:    pos.Z,
		Fg:         fg,
		Bg:         bg,
		Decoration: cell.PackDecoration(profile.Resolve(c.UnderlineColor, fg), underline, strike),
	}
}
