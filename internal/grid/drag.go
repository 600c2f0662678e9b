package grid

import (
	"math"
	"strings"

	"github.com/Gaurav-Gosain/cellgrid/internal/scroll"
	"github.com/Gaurav-Gosain/cellgrid/internal/selection"
)

// DragAction is the phase of a mouse drag.
type DragAction int

const (
	// DragPress starts a new selection.
	DragPress DragAction = iota
	// DragMotion extends the selection in progress.
	DragMotion
	// DragRelease extends and finishes the selection in progress.
	DragRelease
)

// cellForPos maps a pixel position relative to the grid's top left corner
// to a cell. The caller holds bufferMu.
func (g *Grid) cellForPos(px, py float64) (int, int) {
	return int(math.Floor(px / float64(g.view.cellWidth))), int(math.Floor(py / float64(g.view.cellHeight)))
}

// UpdateDrag feeds a mouse drag event at pixel (px, py). Positions outside
// the screen are ignored. A release that finishes a selection publishes its
// text as the primary selection unless it is blank.
func (g *Grid) UpdateDrag(action DragAction, px, py float64) {
	var text string

	g.bufferMu.Lock()
	if g.view.cellWidth == 0 {
		g.bufferMu.Unlock()
		return
	}
	x, y := g.cellForPos(px, py)
	if x < 0 || y < 0 || x >= g.screen.Columns() || y >= g.screen.Lines() {
		g.bufferMu.Unlock()
		return
	}
	offset := g.ScrolledBy()
	switch action {
	case DragPress:
		g.sel.Begin(x, y, offset)
	case DragMotion, DragRelease:
		if g.sel.Extend(x, y, offset, action == DragRelease) {
			text = g.textForSelection(offset)
		}
	}
	g.bufferMu.Unlock()

	if strings.TrimSpace(text) == "" {
		return
	}
	if err := g.setPrimarySelection(text); err != nil {
		g.logger.Debug("setting primary selection", "err", err)
	}
}

// MultiClick selects the word (count 2) or line (count 3) under pixel
// (px, py). Other counts are ignored.
func (g *Grid) MultiClick(count int, px, py float64) {
	if count != 2 && count != 3 {
		return
	}

	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	if g.view.cellWidth == 0 {
		return
	}
	x, y := g.cellForPos(px, py)
	offset := g.ScrolledBy()
	columns := g.screen.Columns()
	line := g.screenLine(y, offset)
	if line == nil || x < 0 || x >= columns {
		return
	}
	if count == 3 {
		g.sel.SelectLine(line, columns, y, offset)
		return
	}
	g.sel.SelectWord(line, columns, x, y, offset)
}

// TextForSelection returns the selected text as currently displayed.
func (g *Grid) TextForSelection() string {
	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	return g.textForSelection(g.ScrolledBy())
}

// Selection returns the normalised selection in the current view.
func (g *Grid) Selection() selection.Range {
	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	return g.sel.Limits(g.ScrolledBy())
}

// ClearSelection drops the selection.
func (g *Grid) ClearSelection() {
	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	g.sel.Clear()
}

// Select sets the selection to the cells between (x0, y0) and (x1, y1) in
// the current view, as a finished drag would.
func (g *Grid) Select(x0, y0, x1, y1 int) {
	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	offset := g.ScrolledBy()
	g.sel.Begin(x0, y0, offset)
	g.sel.Extend(x1, y1, offset, true)
}

func (g *Grid) textForSelection(offset int) string {
	return selection.Text(lineSource{g: g, offset: offset}, g.sel.Limits(offset))
}

// screenLine returns displayed row y in a view scrolled by offset.
func (g *Grid) screenLine(y, offset int) selection.Line {
	src, index, ok := scroll.ResolveLine(y, offset, g.screen.Lines())
	if !ok {
		return nil
	}
	if src == scroll.History {
		if l := g.screen.HistoryLine(index); l != nil {
			return l
		}
		return nil
	}
	if l := g.screen.Line(index); l != nil {
		return l
	}
	return nil
}

// lineSource adapts a grid to selection.LineSource for a fixed offset.
type lineSource struct {
	g      *Grid
	offset int
}

func (s lineSource) Columns() int { return s.g.screen.Columns() }

func (s lineSource) ScreenLine(y int) selection.Line { return s.g.screenLine(y, s.offset) }
