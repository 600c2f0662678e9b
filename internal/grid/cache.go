package grid

import (
	"github.com/Gaurav-Gosain/cellgrid/internal/cell"
	"github.com/Gaurav-Gosain/cellgrid/internal/render"
	"github.com/Gaurav-Gosain/cellgrid/internal/vt"
)

// Uploader receives the sprite map to draw. *sprites.Atlas implements it.
type Uploader interface {
	SetSpriteMap(buf cell.SpriteMap)
}

// PrepareForRender hands the current frame to up when the cell data or the
// selection changed since the previous call, compositing the selection if
// there is one. It returns the geometry to draw with, or false when no cell
// data has been synchronised since the last resize.
func (g *Grid) PrepareForRender(up Uploader) (render.Geometry, bool) {
	g.uploadMu.Lock()
	defer g.uploadMu.Unlock()

	frame, geom, ok := g.snapshot()
	if !ok {
		return render.Geometry{}, false
	}
	if frame.Cells() > 0 {
		up.SetSpriteMap(frame)
	}
	return geom, true
}

// snapshot copies the buffer to upload into the frame buffer under the
// buffer lock. The returned map is empty when nothing changed.
func (g *Grid) snapshot() (cell.SpriteMap, render.Geometry, bool) {
	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	if !g.hasRenderData {
		return cell.SpriteMap{}, render.Geometry{}, false
	}

	sel := g.sel.Limits(g.ScrolledBy())
	changed := g.renderDirty || sel != g.lastRendered
	if !changed {
		return cell.SpriteMap{}, g.renderData, true
	}

	buf := g.renderBuf
	if !sel.Empty() {
		buf = g.selectionBuf
		buf.CopyFrom(g.renderBuf)
		g.screen.ApplySelection(buf, sel.Start.X, sel.Start.Y, sel.End.X, sel.End.Y, g.selFg, g.selBg)
	}
	g.frame.CopyFrom(buf)
	g.renderDirty = false
	g.lastRendered = sel
	return g.frame, g.renderData, true
}

// RenderBuffer returns a copy of the synchronised cell data, without the
// selection applied.
func (g *Grid) RenderBuffer() cell.SpriteMap {
	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	return g.renderBuf.Clone()
}

// RenderCells draws the cell grid.
func (g *Grid) RenderCells(geom render.Geometry, prog render.Program, atlas render.Atlas) {
	render.Cells(prog, geom, atlas)
}

// RenderCursor draws the cursor unless it is hidden or the view is scrolled.
func (g *Grid) RenderCursor(geom render.Geometry, prog render.Program) {
	if g.ScrolledBy() > 0 {
		return
	}

	g.bufferMu.Lock()
	cur, def, view := g.cursor, g.defaultCursor, g.view
	g.bufferMu.Unlock()
	if cur.Hidden {
		return
	}

	col := cur.Color
	if col == nil {
		col = def.Color
	}
	shape := cur.Shape
	if shape == vt.CursorDefault {
		shape = def.Shape
	}
	r, gr, b := cell.UnpackRGB(vt.ColorToRGB(col))

	render.Cursor(prog, geom, render.CursorQuad{
		X:               cur.X,
		Y:               cur.Y,
		Shape:           shape,
		R:               float32(r) / 255,
		G:               float32(gr) / 255,
		B:               float32(b) / 255,
		Alpha:           float32(g.cursorOpacity),
		CharWidth:       g.screen.CurrentCharWidth(),
		BeamWidth:       ptToNDC(1.5, g.dpiX, view.width),
		UnderlineHeight: ptToNDC(2, g.dpiY, view.height),
	})
}

// ptToNDC converts a length in points to normalised device units along an
// axis spanning pixels.
func ptToNDC(pt, dpi float64, pixels int) float32 {
	if pixels <= 0 {
		return 0
	}
	return float32(pt * dpi / 72 * 2 / float64(pixels))
}
