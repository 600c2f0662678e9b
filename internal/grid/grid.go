// Package grid keeps the renderable state of a terminal's visible cells in
// step with a continuously updated screen.
//
// Two paths use a Grid concurrently. The update path (UpdateCellData, Scroll,
// Resize, ChangeColors) copies cell data out of the screen; the render path
// (PrepareForRender, RenderCells, RenderCursor) hands the latest complete
// buffer to the renderer. Mouse selection runs on either.
//
// Lock order: uploadMu, then syncMu, then bufferMu, then the sprite atlas,
// then the screen. scrollMu is a leaf. The update path releases the atlas
// before taking bufferMu.
package grid

import (
	"errors"
	"image/color"
	"math"
	"sync"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/cellgrid/internal/cell"
	"github.com/Gaurav-Gosain/cellgrid/internal/render"
	"github.com/Gaurav-Gosain/cellgrid/internal/scroll"
	"github.com/Gaurav-Gosain/cellgrid/internal/selection"
	"github.com/Gaurav-Gosain/cellgrid/internal/sprites"
	"github.com/Gaurav-Gosain/cellgrid/internal/vt"
	"github.com/atotto/clipboard"
	"github.com/google/uuid"
)

// Screen is the text buffer a Grid mirrors. *vt.Screen implements it.
type Screen interface {
	IsDirty() bool
	UpdateCellData(atlas *sprites.Atlas, profile *vt.ColorProfile, dest cell.SpriteMap, defaultFg, defaultBg uint32, force bool) (cursorChanged bool, historyAdded int)
	SetScrollCellData(atlas *sprites.Atlas, profile *vt.ColorProfile, live cell.SpriteMap, defaultFg, defaultBg uint32, scrolledBy int, dest cell.SpriteMap)
	ApplySelection(buf cell.SpriteMap, x0, y0, x1, y1 int, selFg, selBg uint32)
	Line(y int) vt.Line
	HistoryLine(depth int) vt.Line
	HistoryCount() int
	Cursor() vt.Cursor
	Columns() int
	Lines() int
	CurrentCharWidth() int
	MarkAsDirty()
}

// WindowGeometry places a grid inside the viewport, in pixels.
type WindowGeometry struct {
	Left, Top                     int
	XNum, YNum                    int
	ViewportWidth, ViewportHeight int
	CellWidth, CellHeight         int
}

// Options configures a Grid. Nil colours take the documented defaults.
type Options struct {
	Foreground color.Color
	Background color.Color
	// Selection colours; when both are nil selected cells swap fg and bg.
	SelectionForeground color.Color
	SelectionBackground color.Color

	CursorColor   color.Color
	CursorShape   vt.CursorShape
	CursorBlink   bool
	CursorOpacity float64

	// Palette overrides the leading entries of the 256 colour table.
	Palette []color.Color

	DPIX, DPIY float64

	// RecordSize defaults to cell.RecordSize.
	RecordSize int

	// SetPrimarySelection receives the text of finished drag selections.
	// Defaults to the system clipboard.
	SetPrimarySelection func(string) error

	Logger *log.Logger
}

var (
	defaultForeground = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	defaultBackground = color.RGBA{A: 0xff}
	defaultCursor     = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
)

// ErrNilScreen is returned by New without a screen or atlas.
var ErrNilScreen = errors.New("grid needs a screen and a sprite atlas")

// viewport is the pixel geometry the render path needs.
type viewport struct {
	cellWidth, cellHeight int
	width, height         int
}

// Grid is the render state of one terminal window.
type Grid struct {
	id      string
	logger  *log.Logger
	screen  Screen
	atlas   *sprites.Atlas
	profile *vt.ColorProfile

	setPrimarySelection func(string) error
	dpiX, dpiY          float64
	cursorOpacity       float64

	// uploadMu serialises PrepareForRender so the frame buffer is never
	// copied into while it is being uploaded.
	uploadMu sync.Mutex

	// syncMu guards the update path state.
	syncMu                 sync.Mutex
	geometry               render.Geometry
	main, scrolled         cell.SpriteMap
	defaultFg, defaultBg   uint32
	originalFg, originalBg uint32
	fullRefresh            bool

	scrollMu sync.Mutex
	scroll   scroll.Mapper

	// bufferMu guards everything the render path reads.
	bufferMu       sync.Mutex
	renderBuf      cell.SpriteMap
	selectionBuf   cell.SpriteMap
	frame          cell.SpriteMap
	renderDirty    bool
	renderData     render.Geometry
	hasRenderData  bool
	sel            selection.Selection
	lastRendered   selection.Range
	cursor         vt.Cursor
	defaultCursor  vt.Cursor
	originalCursor uint32
	selFg, selBg   uint32
	originalSelFg  uint32
	originalSelBg  uint32
	view           viewport
}

// New creates a grid mirroring screen. Call Resize before use.
func New(screen Screen, atlas *sprites.Atlas, opts Options) (*Grid, error) {
	size := opts.RecordSize
	if size == 0 {
		size = cell.RecordSize
	}
	if err := cell.CheckLayout(size); err != nil {
		return nil, err
	}
	if screen == nil || atlas == nil {
		return nil, ErrNilScreen
	}

	g := &Grid{
		id:                  uuid.New().String(),
		screen:              screen,
		atlas:               atlas,
		profile:             vt.NewColorProfile(),
		setPrimarySelection: opts.SetPrimarySelection,
		dpiX:                orDefault(opts.DPIX, 96),
		dpiY:                orDefault(opts.DPIY, 96),
		cursorOpacity:       orDefault(opts.CursorOpacity, 1),
		renderDirty:         true,
	}
	if g.setPrimarySelection == nil {
		g.setPrimarySelection = clipboard.WriteAll
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	g.logger = logger.With("grid", g.id[:8])

	g.profile.UpdateANSIColorTable(opts.Palette)

	g.originalFg = vt.ColorToRGB(colorOr(opts.Foreground, defaultForeground))
	g.originalBg = vt.ColorToRGB(colorOr(opts.Background, defaultBackground))
	g.defaultFg, g.defaultBg = g.originalFg, g.originalBg

	g.originalSelFg, g.originalSelBg = optionalColor(opts.SelectionForeground), optionalColor(opts.SelectionBackground)
	g.selFg, g.selBg = g.originalSelFg, g.originalSelBg

	shape := opts.CursorShape
	if shape == vt.CursorDefault {
		shape = vt.CursorBlock
	}
	g.originalCursor = vt.ColorToRGB(colorOr(opts.CursorColor, defaultCursor))
	g.defaultCursor = vt.Cursor{Shape: shape, Blink: opts.CursorBlink, Color: rgbColor(g.originalCursor)}
	g.cursor = g.defaultCursor
	g.lastRendered = g.sel.Limits(0)

	return g, nil
}

// ID returns the grid's unique identifier.
func (g *Grid) ID() string { return g.id }

// Resize recomputes the geometry for wg and reallocates every buffer. The
// selection is dropped. Nothing renders until the next UpdateCellData.
func (g *Grid) Resize(wg WindowGeometry) {
	wg = normalize(wg)
	geom := geometryFor(wg)

	g.syncMu.Lock()
	defer g.syncMu.Unlock()

	g.geometry = geom
	g.main = cell.NewSpriteMap(wg.XNum, wg.YNum)
	g.scrolled = cell.NewSpriteMap(wg.XNum, wg.YNum)
	g.fullRefresh = true

	g.bufferMu.Lock()
	g.renderBuf = cell.NewSpriteMap(wg.XNum, wg.YNum)
	g.selectionBuf = cell.NewSpriteMap(wg.XNum, wg.YNum)
	g.frame = cell.NewSpriteMap(wg.XNum, wg.YNum)
	g.renderDirty = true
	g.hasRenderData = false
	g.sel.Clear()
	g.view = viewport{
		cellWidth:  wg.CellWidth,
		cellHeight: wg.CellHeight,
		width:      wg.ViewportWidth,
		height:     wg.ViewportHeight,
	}
	g.bufferMu.Unlock()

	g.logger.Debug("resized", "cols", wg.XNum, "rows", wg.YNum)
}

func normalize(wg WindowGeometry) WindowGeometry {
	wg.XNum, wg.YNum = max(wg.XNum, 0), max(wg.YNum, 0)
	wg.CellWidth, wg.CellHeight = max(wg.CellWidth, 1), max(wg.CellHeight, 1)
	if wg.ViewportWidth <= 0 {
		wg.ViewportWidth = wg.Left + wg.XNum*wg.CellWidth
	}
	if wg.ViewportHeight <= 0 {
		wg.ViewportHeight = wg.Top + wg.YNum*wg.CellHeight
	}
	wg.ViewportWidth, wg.ViewportHeight = max(wg.ViewportWidth, 1), max(wg.ViewportHeight, 1)
	return wg
}

func geometryFor(wg WindowGeometry) render.Geometry {
	vw, vh := float32(wg.ViewportWidth), float32(wg.ViewportHeight)
	return render.Geometry{
		XStart: -1 + 2*float32(wg.Left)/vw,
		YStart: 1 - 2*float32(wg.Top)/vh,
		DX:     2 * float32(wg.CellWidth) / vw,
		DY:     2 * float32(wg.CellHeight) / vh,
		XNum:   wg.XNum,
		YNum:   wg.YNum,
	}
}

// UpdateCellData pulls the screen's cell data into the render buffer. When
// the view is scrolled the history composite is rebuilt too. A dirty screen
// drops the selection.
func (g *Grid) UpdateCellData(force bool) {
	g.syncMu.Lock()
	defer g.syncMu.Unlock()
	if g.main.Cells() == 0 {
		return
	}

	dirty := g.screen.IsDirty()
	force = force || g.fullRefresh
	g.fullRefresh = false

	g.atlas.Lock()
	cursorChanged, added := g.screen.UpdateCellData(g.atlas, g.profile, g.main, g.defaultFg, g.defaultBg, force)
	history := g.screen.HistoryCount()
	g.scrollMu.Lock()
	g.scroll.Follow(added, history)
	offset := g.scroll.Offset()
	g.scrollMu.Unlock()
	if offset > 0 {
		g.screen.SetScrollCellData(g.atlas, g.profile, g.main, g.defaultFg, g.defaultBg, offset, g.scrolled)
	}
	g.atlas.Unlock()

	data := g.main
	if offset > 0 {
		data = g.scrolled
	}

	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	if dirty && g.sel != (selection.Selection{}) {
		g.sel.Clear()
		g.logger.Debug("selection cleared by screen update")
	}
	g.renderBuf.CopyFrom(data)
	g.renderData = g.geometry
	g.hasRenderData = true
	g.renderDirty = true
	if cursorChanged {
		g.cursor = g.screen.Cursor()
	}
}

// Scroll moves the view by amount, towards history when upwards is set. It
// reports whether the view moved; if it did the cell data is resynchronised.
func (g *Grid) Scroll(amount scroll.Amount, upwards bool) bool {
	rows, history := g.screen.Lines(), g.screen.HistoryCount()

	g.scrollMu.Lock()
	changed := g.scroll.ScrollBy(amount, upwards, rows, history)
	offset := g.scroll.Offset()
	g.scrollMu.Unlock()

	if changed {
		g.logger.Debug("scrolled", "amount", amount, "up", upwards, "offset", offset)
		g.UpdateCellData(false)
	}
	return changed
}

// ScrolledBy returns the number of history lines shown above the live screen.
func (g *Grid) ScrolledBy() int {
	g.scrollMu.Lock()
	defer g.scrollMu.Unlock()
	return g.scroll.Offset()
}

// Cursor returns the cursor snapshot taken at the last change.
func (g *Grid) Cursor() vt.Cursor {
	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	return g.cursor
}

// Geometry returns the geometry computed by the last Resize.
func (g *Grid) Geometry() render.Geometry {
	g.syncMu.Lock()
	defer g.syncMu.Unlock()
	return g.geometry
}

func orDefault(v, def float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return def
	}
	return v
}

func colorOr(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

func optionalColor(c color.Color) uint32 {
	if c == nil {
		return cell.NoColor
	}
	return vt.ColorToRGB(c)
}

func rgbColor(c uint32) color.Color {
	r, g, b := cell.UnpackRGB(c)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
