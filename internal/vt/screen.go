package vt

import (
	"image/color"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Logger is the minimal logger the screen reports unhandled sequences to.
type Logger interface {
	Printf(format string, v ...any)
}

// Screen is a terminal screen: a grid of live lines fed by an ANSI parser,
// the history that scrolled off its top, and the cursor. It is safe for
// concurrent use; output may be written while the grid reads cell data.
type Screen struct {
	mu sync.Mutex

	cols, rows int
	lines      []Line
	lineDirty  []bool
	history    *Scrollback

	// dirty is set by any content change and reset by UpdateCellData.
	dirty bool
	// historyAdded counts lines pushed to history since the last sync.
	historyAdded int

	cursor       Cursor
	savedCursor  Cursor
	reported     Cursor
	cursorSynced bool
	pen          Cell
	atPhantom    bool

	parser *ansi.Parser
	logger Logger
}

// NewScreen creates a screen of cols by rows cells keeping at most
// scrollback lines of history.
func NewScreen(cols, rows, scrollback int) *Screen {
	s := &Screen{
		cols:    max(cols, 1),
		rows:    max(rows, 1),
		history: NewScrollback(scrollback),
	}
	s.lines = make([]Line, s.rows)
	s.lineDirty = make([]bool, s.rows)
	for y := range s.lines {
		s.lines[y] = s.blankLine()
		s.lineDirty[y] = true
	}
	s.initParser()
	return s
}

// SetLogger sets the logger used for unhandled sequences.
func (s *Screen) SetLogger(l Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

func (s *Screen) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

// Columns returns the screen width in cells.
func (s *Screen) Columns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols
}

// Lines returns the screen height in cells.
func (s *Screen) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Line returns a copy of live row y, or nil when y is off screen.
func (s *Screen) Line(y int) Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	if y < 0 || y >= s.rows {
		return nil
	}
	return s.lines[y].clone()
}

// HistoryLine returns a copy of the history line at depth, where depth 1 is
// the line directly above the screen.
func (s *Screen) HistoryLine(depth int) Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Line(depth).clone()
}

// HistoryCount returns the number of lines in history.
func (s *Screen) HistoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Cursor returns a snapshot of the cursor.
func (s *Screen) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// SetCursorColor overrides the cursor colour; nil restores the default.
func (s *Screen) SetCursorColor(c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Color = c
}

// CurrentCharWidth returns the width in cells of the character under the
// cursor, at least 1.
func (s *Screen) CurrentCharWidth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.lines[s.cursor.Y][s.cursor.X]
	if w := runewidth.StringWidth(c.Content); w > 1 {
		return w
	}
	return 1
}

// IsDirty reports whether the content changed since the last UpdateCellData.
func (s *Screen) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkAsDirty forces the next UpdateCellData to rebuild every line.
func (s *Screen) MarkAsDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchAll()
}

// Resize changes the screen size. Rows cut from the top when shrinking are
// moved to history so the cursor row stays visible.
func (s *Screen) Resize(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cols == s.cols && rows == s.rows {
		return
	}

	if excess := s.cursor.Y + 1 - rows; excess > 0 {
		for _, l := range s.lines[:excess] {
			s.pushHistory(l)
		}
		s.lines = s.lines[excess:]
		s.cursor.Y -= excess
	}
	for y, l := range s.lines {
		s.lines[y] = resizeLine(l, cols)
	}
	s.cols = cols
	for len(s.lines) < rows {
		s.lines = append(s.lines, s.blankLine())
	}
	s.lines = s.lines[:rows]
	s.rows = rows
	s.lineDirty = make([]bool, rows)

	s.cursor.X = min(s.cursor.X, cols-1)
	s.cursor.Y = min(s.cursor.Y, rows-1)
	s.atPhantom = false
	s.touchAll()
}

// Text returns the live screen as plain text, one line per row.
func (s *Screen) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, 0, s.rows*(s.cols+1))
	for y, l := range s.lines {
		if y > 0 {
			out = append(out, '\n')
		}
		out = append(out, l.String()...)
	}
	return string(out)
}

func resizeLine(l Line, cols int) Line {
	if len(l) >= cols {
		return l[:cols]
	}
	out := make(Line, cols)
	copy(out, l)
	for x := len(l); x < cols; x++ {
		out[x] = blankCell(Cell{})
	}
	return out
}

func (s *Screen) blankLine() Line {
	l := make(Line, s.cols)
	for x := range l {
		l[x] = blankCell(s.pen)
	}
	return l
}

func (s *Screen) touch(y int) {
	s.dirty = true
	if y >= 0 && y < len(s.lineDirty) {
		s.lineDirty[y] = true
	}
}

func (s *Screen) touchAll() {
	s.dirty = true
	for y := range s.lineDirty {
		s.lineDirty[y] = true
	}
}

func (s *Screen) pushHistory(l Line) {
	s.history.PushLine(l)
	s.historyAdded++
}

// scrollUp moves the screen contents up n lines, pushing the lines that leave
// the top into history.
func (s *Screen) scrollUp(n int) {
	n = min(n, s.rows)
	for i := range n {
		s.pushHistory(s.lines[i])
	}
	copy(s.lines, s.lines[n:])
	for y := s.rows - n; y < s.rows; y++ {
		s.lines[y] = s.blankLine()
	}
	s.touchAll()
}

// scrollDown moves the contents down n lines; lines leaving the bottom are lost.
func (s *Screen) scrollDown(n int) {
	n = min(n, s.rows)
	copy(s.lines[n:], s.lines[:s.rows-n])
	for y := range n {
		s.lines[y] = s.blankLine()
	}
	s.touchAll()
}

func (s *Screen) clearLine(y, from, to int) {
	if y < 0 || y >= s.rows {
		return
	}
	from, to = max(from, 0), min(to, s.cols)
	for x := from; x < to; x++ {
		s.lines[y][x] = blankCell(s.pen)
	}
	s.touch(y)
}
