package grid

import (
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/cellgrid/internal/cell"
	"github.com/Gaurav-Gosain/cellgrid/internal/render"
	"github.com/Gaurav-Gosain/cellgrid/internal/scroll"
	"github.com/Gaurav-Gosain/cellgrid/internal/sprites"
	"github.com/Gaurav-Gosain/cellgrid/internal/vt"
	"github.com/charmbracelet/x/ansi"
)

const (
	cellW = 10
	cellH = 20
)

type countingUploader struct {
	mu      sync.Mutex
	uploads int
	last    cell.SpriteMap
}

func (u *countingUploader) SetSpriteMap(buf cell.SpriteMap) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads++
	u.last = buf.Clone()
}

func newTestGrid(t *testing.T, cols, rows int, opts Options) (*Grid, *vt.Screen, *sprites.Atlas) {
	t.Helper()
	screen := vt.NewScreen(cols, rows, 1000)
	atlas := sprites.New(0, 0)
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.SetPrimarySelection == nil {
		opts.SetPrimarySelection = func(string) error { return nil }
	}
	g, err := New(screen, atlas, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.Resize(WindowGeometry{XNum: cols, YNum: rows, CellWidth: cellW, CellHeight: cellH})
	return g, screen, atlas
}

// =============================================================================
// Construction and geometry
// =============================================================================

func TestNewRejectsBadRecordSize(t *testing.T) {
	_, err := New(vt.NewScreen(2, 2, 10), sprites.New(0, 0), Options{RecordSize: 7})
	if !errors.Is(err, cell.ErrRecordSize) {
		t.Fatalf("expected ErrRecordSize, got %v", err)
	}
	if _, err := New(nil, sprites.New(0, 0), Options{}); !errors.Is(err, ErrNilScreen) {
		t.Errorf("expected ErrNilScreen, got %v", err)
	}
}

func TestGeometry(t *testing.T) {
	g, _, _ := newTestGrid(t, 4, 2, Options{})
	g.Resize(WindowGeometry{
		Left: 80, Top: 60,
		XNum: 72, YNum: 27,
		ViewportWidth: 800, ViewportHeight: 600,
		CellWidth: 10, CellHeight: 20,
	})

	geom := g.Geometry()
	want := render.Geometry{XStart: -0.8, YStart: 0.8, DX: 0.025, DY: 2 * 20.0 / 600, XNum: 72, YNum: 27}
	near := func(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-6 }
	if !near(geom.XStart, want.XStart) || !near(geom.YStart, want.YStart) ||
		!near(geom.DX, want.DX) || !near(geom.DY, want.DY) ||
		geom.XNum != want.XNum || geom.YNum != want.YNum {
		t.Errorf("Geometry() = %+v, want %+v", geom, want)
	}
}

func TestResizeAllocatesZeroedBuffers(t *testing.T) {
	g, _, _ := newTestGrid(t, 10, 4, Options{})

	buf := g.RenderBuffer()
	if buf.Cells() != 40 || len(buf.Words()) != 40*cell.RecordSize {
		t.Fatalf("render buffer has %d cells", buf.Cells())
	}
	for i, w := range buf.Words() {
		if w != 0 {
			t.Fatalf("word %d = %d before the first sync", i, w)
		}
	}

	up := &countingUploader{}
	if _, ok := g.PrepareForRender(up); ok {
		t.Error("nothing should render before the first sync")
	}

	g.UpdateCellData(false)
	if got := g.RenderBuffer().Cells(); got != 40 {
		t.Errorf("synchronised buffer has %d cells, want 40", got)
	}
	if _, ok := g.PrepareForRender(up); !ok {
		t.Error("PrepareForRender should succeed after a sync")
	}
	if up.last.Cells() != 40 {
		t.Errorf("uploaded %d cells", up.last.Cells())
	}
}

func TestResizeClearsSelection(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 2, Options{})
	screen.WriteString("hello")
	g.UpdateCellData(false)
	g.Select(0, 0, 4, 0)

	g.Resize(WindowGeometry{XNum: 12, YNum: 3, CellWidth: cellW, CellHeight: cellH})
	if !g.Selection().Empty() {
		t.Error("resize should clear the selection")
	}
}

// =============================================================================
// Render cache
// =============================================================================

func TestPrepareForRenderIdempotent(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 3, Options{})
	screen.WriteString("hello")
	g.UpdateCellData(false)

	up := &countingUploader{}
	g.PrepareForRender(up)
	g.PrepareForRender(up)
	if up.uploads != 1 {
		t.Fatalf("two prepares without change uploaded %d times", up.uploads)
	}

	g.Select(0, 0, 2, 0)
	g.PrepareForRender(up)
	g.PrepareForRender(up)
	if up.uploads != 2 {
		t.Errorf("selection change should upload once, have %d uploads", up.uploads)
	}

	g.UpdateCellData(false)
	g.PrepareForRender(up)
	if up.uploads != 3 {
		t.Errorf("sync should upload once, have %d uploads", up.uploads)
	}
}

func TestSelectionComposited(t *testing.T) {
	fg, _ := ParseColor("#ff0000")
	bg, _ := ParseColor("#0000ff")
	g, screen, _ := newTestGrid(t, 6, 2, Options{SelectionForeground: fg, SelectionBackground: bg})
	screen.WriteString("abcdef")
	g.UpdateCellData(false)
	g.Select(1, 0, 2, 0)

	up := &countingUploader{}
	g.PrepareForRender(up)
	for x := range 6 {
		r := up.last.At(x, 0)
		selected := x == 1 || x == 2
		if got := r.Fg == 0xff0000 && r.Bg == 0x0000ff; got != selected {
			t.Errorf("cell %d selected = %v, want %v", x, got, selected)
		}
	}

	// The plain buffer is untouched.
	if r := g.RenderBuffer().At(1, 0); r.Fg == 0xff0000 {
		t.Error("selection leaked into the render buffer")
	}

	g.ClearSelection()
	g.PrepareForRender(up)
	if r := up.last.At(1, 0); r.Fg == 0xff0000 {
		t.Error("cleared selection still rendered")
	}
}

func TestSelectionSwapsColorsWhenUnset(t *testing.T) {
	g, screen, _ := newTestGrid(t, 4, 1, Options{})
	screen.WriteString("ab")
	g.UpdateCellData(false)
	fg, bg := g.DefaultColors()

	g.Select(0, 0, 1, 0)
	up := &countingUploader{}
	g.PrepareForRender(up)
	if r := up.last.At(0, 0); r.Fg != bg || r.Bg != fg {
		t.Errorf("selected cell = %#x on %#x, want swapped defaults", r.Fg, r.Bg)
	}
}

// =============================================================================
// Synchronisation and scrolling
// =============================================================================

func writeLines(screen *vt.Screen, n int) {
	var sb strings.Builder
	for i := range n {
		sb.WriteString("line")
		if i < n-1 {
			sb.WriteString("\r\n")
		}
	}
	screen.WriteString(sb.String())
}

func TestScrollFullClamps(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 5, Options{})
	writeLines(screen, 505)
	g.UpdateCellData(false)
	if screen.HistoryCount() != 500 {
		t.Fatalf("HistoryCount() = %d, want 500", screen.HistoryCount())
	}

	if !g.Scroll(scroll.Full, true) {
		t.Fatal("Scroll(full, up) reported no change")
	}
	if g.ScrolledBy() != 500 {
		t.Errorf("ScrolledBy() = %d, want 500", g.ScrolledBy())
	}
	if g.Scroll(scroll.Full, true) || g.Scroll(scroll.Line, true) {
		t.Error("scrolling past the top should be a no-op")
	}
	if g.ScrolledBy() != 500 {
		t.Errorf("ScrolledBy() = %d after extra scroll, want 500", g.ScrolledBy())
	}

	g.Scroll(scroll.Page, false)
	if g.ScrolledBy() != 496 {
		t.Errorf("page down = %d, want 496", g.ScrolledBy())
	}
}

func TestScrollSelectionRebase(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 4, Options{})
	writeLines(screen, 10)
	g.UpdateCellData(false)

	g.Select(0, 1, 3, 2)
	before := g.Selection()
	if !g.Scroll(scroll.Cells(2), true) {
		t.Fatal("scroll did not move")
	}
	after := g.Selection()
	if after.Start.Y != before.Start.Y+2 || after.End.Y != before.End.Y+2 {
		t.Errorf("selection %+v -> %+v, want rows shifted by 2", before, after)
	}
	if after.Start.X != before.Start.X || after.End.X != before.End.X {
		t.Error("scrolling changed selection columns")
	}
}

func TestScrolledViewComposite(t *testing.T) {
	g, screen, atlas := newTestGrid(t, 4, 2, Options{})
	screen.WriteString("aaaa\r\nbbbb\r\ncccc")
	g.UpdateCellData(false)

	g.Scroll(scroll.Line, true)
	buf := g.RenderBuffer()
	glyph := func(x, y int) string {
		r := buf.At(x, y)
		atlas.Lock()
		defer atlas.Unlock()
		gl, _ := atlas.Glyph(sprites.Pos{X: r.SpriteX, Y: r.SpriteY, Z: r.SpriteZ})
		return gl.Text
	}
	if glyph(0, 0) != "a" || glyph(0, 1) != "b" {
		t.Errorf("scrolled view shows %q/%q, want a/b", glyph(0, 0), glyph(0, 1))
	}
}

func TestScrolledViewFollowsHistory(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 3, Options{})
	writeLines(screen, 6)
	g.UpdateCellData(false)
	g.Scroll(scroll.Line, true)

	screen.WriteString("\r\nmore\r\nmore")
	g.UpdateCellData(false)
	if got := g.ScrolledBy(); got != 3 {
		t.Errorf("ScrolledBy() = %d, want 3 after two new history lines", got)
	}

	// A live view stays live.
	g.Scroll(scroll.Full, false)
	screen.WriteString("\r\nagain")
	g.UpdateCellData(false)
	if got := g.ScrolledBy(); got != 0 {
		t.Errorf("live view moved to %d", got)
	}
}

func TestScrollOffsetClampedWhenHistoryCleared(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 3, Options{})
	writeLines(screen, 10)
	g.UpdateCellData(false)
	g.Scroll(scroll.Full, true)

	screen.WriteString("\x1b[3J")
	g.UpdateCellData(false)
	if got := g.ScrolledBy(); got != 0 {
		t.Errorf("offset %d exceeds empty history", got)
	}
}

func TestDirtyScreenClearsSelection(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 2, Options{})
	screen.WriteString("hello")
	g.UpdateCellData(false)
	g.Select(0, 0, 3, 0)

	g.UpdateCellData(false)
	if g.Selection().Empty() {
		t.Fatal("clean sync cleared the selection")
	}

	screen.WriteString("!")
	g.UpdateCellData(false)
	if !g.Selection().Empty() {
		t.Error("dirty screen should clear the selection")
	}
}

// =============================================================================
// Mouse selection
// =============================================================================

func TestTextForSelection(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 3, Options{})
	screen.WriteString("hello\r\nworld")
	g.UpdateCellData(false)

	g.Select(0, 0, 4, 1)
	if got := g.TextForSelection(); got != "hello\nworld" {
		t.Errorf("TextForSelection() = %q", got)
	}

	g.Select(2, 1, 2, 1)
	if got := g.TextForSelection(); got != "" {
		t.Errorf("empty selection yielded %q", got)
	}
}

func TestTextForSelectionScrolled(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 2, Options{})
	screen.WriteString("first\r\nsecond\r\nthird")
	g.UpdateCellData(false)
	g.Scroll(scroll.Line, true)

	g.Select(0, 0, 9, 1)
	if got := g.TextForSelection(); got != "first\nsecond" {
		t.Errorf("scrolled selection = %q", got)
	}
}

func TestTextForSelectionWide(t *testing.T) {
	g, screen, _ := newTestGrid(t, 6, 2, Options{})
	screen.WriteString("中文a")
	g.UpdateCellData(false)

	g.Select(0, 0, 4, 0)
	if got := g.TextForSelection(); got != "中文a" {
		t.Errorf("TextForSelection() = %q, want %q", got, "中文a")
	}
}

func TestUpdateDrag(t *testing.T) {
	var published []string
	g, screen, _ := newTestGrid(t, 10, 3, Options{
		SetPrimarySelection: func(s string) error {
			published = append(published, s)
			return nil
		},
	})
	screen.WriteString("hello\r\nworld")
	g.UpdateCellData(false)

	g.UpdateDrag(DragPress, 5, 5)
	g.UpdateDrag(DragMotion, 25, 25)
	if r := g.Selection(); r.End.X != 2 || r.End.Y != 1 {
		t.Errorf("motion extent = %+v", r.End)
	}
	g.UpdateDrag(DragRelease, 45, 35)

	if len(published) != 1 || published[0] != "hello\nworld" {
		t.Fatalf("published %q", published)
	}

	// Further motion without a press does nothing.
	g.UpdateDrag(DragMotion, 0, 0)
	if r := g.Selection(); r.Start.X != 0 || r.End.X != 4 {
		t.Errorf("motion after release changed selection: %+v", r)
	}

	// Blank selections are not published.
	g.UpdateDrag(DragPress, 85, 45)
	g.UpdateDrag(DragRelease, 95, 45)
	if len(published) != 1 {
		t.Errorf("blank selection published: %q", published)
	}
}

func TestUpdateDragOutOfBounds(t *testing.T) {
	g, _, _ := newTestGrid(t, 10, 3, Options{})
	g.UpdateCellData(false)

	tests := []struct {
		name   string
		px, py float64
	}{
		{"left of grid", -1, 5},
		{"above grid", 5, -0.5},
		{"right of grid", 100, 5},
		{"below grid", 5, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.UpdateDrag(DragPress, tt.px, tt.py)
			if g.sel.InProgress {
				t.Error("out of bounds press started a selection")
			}
		})
	}
}

func TestMultiClick(t *testing.T) {
	g, screen, _ := newTestGrid(t, 10, 2, Options{})
	screen.WriteString("foo bar\r\n  hi  ")
	g.UpdateCellData(false)

	tests := []struct {
		name       string
		count      int
		px, py     float64
		start, end int
		row        int
	}{
		{"double click word", 2, 15, 5, 0, 2, 0},
		{"double click space", 2, 35, 5, 3, 3, 0},
		{"double click second word", 2, 45, 5, 4, 6, 0},
		{"triple click", 3, 5, 25, 2, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.MultiClick(tt.count, tt.px, tt.py)
			r := g.Selection()
			if r.Start.X != tt.start || r.End.X != tt.end || r.Start.Y != tt.row || r.End.Y != tt.row {
				t.Errorf("selection = %+v, want (%d..%d) on row %d", r, tt.start, tt.end, tt.row)
			}
		})
	}

	before := g.Selection()
	g.MultiClick(4, 5, 5)
	if g.Selection() != before {
		t.Error("quadruple click should be ignored")
	}
}

func TestTripleClickNarrowHistoryLine(t *testing.T) {
	g, screen, _ := newTestGrid(t, 4, 2, Options{})
	screen.WriteString("\r\n\r\nab")
	screen.Resize(8, 2)
	g.Resize(WindowGeometry{XNum: 8, YNum: 2, CellWidth: cellW, CellHeight: cellH})
	g.UpdateCellData(false)
	if !g.Scroll(scroll.Line, true) {
		t.Fatal("expected a history line to scroll to")
	}

	// The blank history line is four cells wide but spans the whole row.
	g.MultiClick(3, 5, 5)
	r := g.Selection()
	if r.Start.X != 0 || r.End.X != 7 || r.Start.Y != 0 || r.End.Y != 0 {
		t.Errorf("selection = %+v, want (0..7) on row 0", r)
	}
}

// =============================================================================
// Frame emission
// =============================================================================

func renderFrame(t *testing.T, g *Grid, atlas *sprites.Atlas) *render.TextProgram {
	t.Helper()
	prog := render.NewTextProgram(atlas)
	geom, ok := g.PrepareForRender(atlas)
	if !ok {
		t.Fatal("PrepareForRender() not ready")
	}
	g.RenderCells(geom, prog, atlas)
	g.RenderCursor(geom, prog)
	return prog
}

func TestRenderFrame(t *testing.T) {
	g, screen, atlas := newTestGrid(t, 5, 2, Options{})
	screen.WriteString("hi\r\nthere")
	g.UpdateCellData(false)

	prog := renderFrame(t, g, atlas)
	if got := prog.PlainText(); got != "hi   \nthere" {
		t.Errorf("PlainText() = %q", got)
	}
	if prog.Draws != 2 {
		t.Errorf("expected cell and cursor draws, got %d", prog.Draws)
	}
	// The cursor recolours the cell it covers, splitting "there" into two
	// styled runs.
	if got := ansi.Strip(prog.Frame()); got != prog.PlainText() {
		t.Errorf("styled frame text = %q, want %q", got, prog.PlainText())
	}
}

func TestRenderCursorSkipped(t *testing.T) {
	g, screen, atlas := newTestGrid(t, 5, 2, Options{})
	screen.WriteString("a\r\nb\r\nc\x1b[?25l")
	g.UpdateCellData(false)
	if prog := renderFrame(t, g, atlas); prog.Draws != 1 {
		t.Errorf("hidden cursor drawn: %d draws", prog.Draws)
	}

	screen.WriteString("\x1b[?25h")
	g.UpdateCellData(false)
	g.Scroll(scroll.Line, true)
	if prog := renderFrame(t, g, atlas); prog.Draws != 1 {
		t.Errorf("cursor drawn while scrolled: %d draws", prog.Draws)
	}
}

func TestRenderCursorBlend(t *testing.T) {
	g, _, atlas := newTestGrid(t, 5, 2, Options{CursorOpacity: 0.5})
	g.UpdateCellData(false)

	prog := render.NewTextProgram(atlas)
	geom, _ := g.PrepareForRender(atlas)
	g.RenderCursor(geom, prog)
	if prog.Blending() {
		t.Error("blending should be disabled again after the cursor draw")
	}
}

// =============================================================================
// Colours
// =============================================================================

func TestChangeColors(t *testing.T) {
	g, screen, _ := newTestGrid(t, 4, 1, Options{})
	screen.WriteString("x")
	g.UpdateCellData(false)
	origFg, _ := g.DefaultColors()

	if !g.ChangeColors(map[string]string{ColorForeground: "#ff0000"}) {
		t.Fatal("valid override reported no change")
	}
	if !screen.IsDirty() {
		t.Error("colour change should mark the screen dirty")
	}
	g.UpdateCellData(false)
	if r := g.RenderBuffer().At(0, 0); r.Fg != 0xff0000 {
		t.Errorf("fg = %#x after override", r.Fg)
	}

	if g.ChangeColors(map[string]string{ColorBackground: "not a colour", "bogus": "#fff"}) {
		t.Error("invalid overrides should be ignored")
	}

	g.ChangeColors(map[string]string{ColorForeground: ""})
	g.UpdateCellData(false)
	if r := g.RenderBuffer().At(0, 0); r.Fg != origFg {
		t.Errorf("fg = %#x after reset, want %#x", r.Fg, origFg)
	}

	g.ChangeColors(map[string]string{ColorSelectionBackground: "#00ff00"})
	if _, bg := g.SelectionColors(); bg != 0x00ff00 {
		t.Errorf("selection bg = %#x", bg)
	}
	g.ChangeColors(map[string]string{ColorSelectionBackground: ""})
	if _, bg := g.SelectionColors(); bg != cell.NoColor {
		t.Errorf("selection bg reset = %#x, want unset", bg)
	}
}

// =============================================================================
// Concurrency
// =============================================================================

// uniformChecker verifies every uploaded frame shows a single glyph, i.e.
// that no frame mixes two screen states.
type uniformChecker struct {
	t      *testing.T
	frames int
}

func (u *uniformChecker) SetSpriteMap(buf cell.SpriteMap) {
	u.frames++
	first := buf.At(0, 0)
	for y := range buf.YNum() {
		for x := range buf.XNum() {
			if r := buf.At(x, y); r.SpriteX != first.SpriteX || r.SpriteY != first.SpriteY {
				u.t.Errorf("torn frame at (%d, %d)", x, y)
				return
			}
		}
	}
}

func TestConcurrentUpdateAndRender(t *testing.T) {
	g, screen, _ := newTestGrid(t, 8, 4, Options{})
	fill := func(r rune) string {
		return "\x1b[H" + strings.Repeat(string(r), 8*4)
	}
	screen.WriteString(fill('a'))
	g.UpdateCellData(false)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 200 {
			screen.WriteString(fill(rune('a' + i%2)))
			g.UpdateCellData(false)
		}
		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 200 {
			if i%2 == 0 {
				g.Scroll(scroll.Line, true)
			} else {
				g.Scroll(scroll.Line, false)
			}
			g.UpdateDrag(DragPress, 1, 1)
			g.UpdateDrag(DragRelease, 1, 1)
		}
	}()

	checker := &uniformChecker{t: t}
	for {
		select {
		case <-done:
			wg.Wait()
			if checker.frames == 0 {
				t.Error("no frames rendered")
			}
			return
		default:
			g.PrepareForRender(checker)
		}
	}
}
