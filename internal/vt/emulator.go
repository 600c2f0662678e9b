package vt

import (
	"io"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/ansi/parser"
	"github.com/mattn/go-runewidth"
)

var (
	_ io.Writer       = (*Screen)(nil)
	_ io.StringWriter = (*Screen)(nil)
)

func (s *Screen) initParser() {
	s.parser = ansi.NewParser()
	s.parser.SetParamsSize(parser.MaxParamsSize)
	s.parser.SetDataSize(64 * 1024)
	s.parser.SetHandler(ansi.Handler{
		Print:     s.handlePrint,
		Execute:   s.handleControl,
		HandleCsi: s.handleCsi,
		HandleEsc: s.handleEsc,
	})
}

// Write feeds terminal output to the screen.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range p {
		s.parser.Advance(p[i])
	}
	return len(p), nil
}

// WriteString writes a string to the screen.
func (s *Screen) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

func (s *Screen) handlePrint(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		s.combine(r)
		return
	}

	if s.atPhantom {
		s.carriageReturn()
		s.lineFeed()
	}
	if w == 2 && s.cursor.X == s.cols-1 {
		if s.cols == 1 {
			w = 1
		} else {
			s.lines[s.cursor.Y][s.cursor.X] = blankCell(s.pen)
			s.carriageReturn()
			s.lineFeed()
		}
	}

	y, x := s.cursor.Y, s.cursor.X
	c := s.pen
	c.Content = string(r)
	c.Width = w
	s.lines[y][x] = c
	if w == 2 {
		cont := s.pen
		cont.Cell = uv.Cell{Style: s.pen.Style}
		s.lines[y][x+1] = cont
	}
	s.touch(y)

	s.cursor.X += w
	if s.cursor.X >= s.cols {
		s.cursor.X = s.cols - 1
		s.atPhantom = true
	}
}

// combine attaches a zero width rune to the previously printed cell.
func (s *Screen) combine(r rune) {
	y, x := s.cursor.Y, s.cursor.X
	if !s.atPhantom {
		x--
	}
	for x > 0 && s.lines[y][x].Width == 0 {
		x--
	}
	if x < 0 {
		return
	}
	s.lines[y][x].Content += string(r)
	s.touch(y)
}

func (s *Screen) handleControl(b byte) {
	switch b {
	case ansi.LF, ansi.VT, ansi.FF:
		s.lineFeed()
	case ansi.CR:
		s.carriageReturn()
	case ansi.BS:
		if s.cursor.X > 0 && !s.atPhantom {
			s.cursor.X--
		}
		s.atPhantom = false
	case ansi.HT:
		s.cursor.X = min((s.cursor.X/8+1)*8, s.cols-1)
	case ansi.BEL:
	default:
		s.logf("unhandled control %#x", b)
	}
}

func (s *Screen) carriageReturn() {
	s.cursor.X = 0
	s.atPhantom = false
}

func (s *Screen) lineFeed() {
	s.atPhantom = false
	if s.cursor.Y == s.rows-1 {
		s.scrollUp(1)
		return
	}
	s.cursor.Y++
}

func (s *Screen) reverseIndex() {
	s.atPhantom = false
	if s.cursor.Y == 0 {
		s.scrollDown(1)
		return
	}
	s.cursor.Y--
}

func (s *Screen) moveTo(x, y int) {
	s.cursor.X = max(0, min(x, s.cols-1))
	s.cursor.Y = max(0, min(y, s.rows-1))
	s.atPhantom = false
}

func (s *Screen) handleEsc(cmd ansi.Cmd) {
	if cmd.Intermediate() != 0 {
		return
	}
	switch cmd.Final() {
	case '7':
		s.savedCursor = s.cursor
	case '8':
		s.moveTo(s.savedCursor.X, s.savedCursor.Y)
	case 'D':
		s.lineFeed()
	case 'E':
		s.carriageReturn()
		s.lineFeed()
	case 'M':
		s.reverseIndex()
	case 'c':
		s.reset()
	default:
		s.logf("unhandled ESC %q", cmd.Final())
	}
}

func (s *Screen) reset() {
	s.pen = Cell{}
	s.cursor = Cursor{Color: s.cursor.Color}
	s.atPhantom = false
	for y := range s.lines {
		s.lines[y] = s.blankLine()
	}
	s.touchAll()
}

func (s *Screen) handleCsi(cmd ansi.Cmd, params ansi.Params) {
	param := func(i, def int) int {
		p, _, ok := params.Param(i, def)
		if !ok {
			return def
		}
		return p
	}
	count := func() int { return max(param(0, 1), 1) }

	switch cmd.Prefix() {
	case '?':
		s.handlePrivateMode(cmd.Final(), params)
		return
	case 0:
	default:
		s.logf("unhandled CSI %c%c", cmd.Prefix(), cmd.Final())
		return
	}

	if cmd.Intermediate() == ' ' && cmd.Final() == 'q' {
		s.setCursorStyle(param(0, 0))
		return
	}
	if cmd.Intermediate() != 0 {
		s.logf("unhandled CSI %c%c", cmd.Intermediate(), cmd.Final())
		return
	}

	x, y := s.cursor.X, s.cursor.Y
	switch cmd.Final() {
	case 'm':
		s.handleSgr(params)
	case 'A':
		s.moveTo(x, y-count())
	case 'B', 'e':
		s.moveTo(x, y+count())
	case 'C', 'a':
		s.moveTo(x+count(), y)
	case 'D':
		s.moveTo(x-count(), y)
	case 'E':
		s.moveTo(0, y+count())
	case 'F':
		s.moveTo(0, y-count())
	case 'G', '`':
		s.moveTo(count()-1, y)
	case 'd':
		s.moveTo(x, count()-1)
	case 'H', 'f':
		s.moveTo(max(param(1, 1), 1)-1, max(param(0, 1), 1)-1)
	case 'J':
		s.eraseDisplay(param(0, 0))
	case 'K':
		switch param(0, 0) {
		case 0:
			s.clearLine(y, x, s.cols)
		case 1:
			s.clearLine(y, 0, x+1)
		case 2:
			s.clearLine(y, 0, s.cols)
		}
	case 'S':
		s.scrollUp(count())
	case 'T':
		s.scrollDown(count())
	case 'L':
		s.insertLines(count())
	case 'M':
		s.deleteLines(count())
	case '@':
		s.insertChars(count())
	case 'P':
		s.deleteChars(count())
	case 'X':
		s.clearLine(y, x, x+count())
	case 's':
		s.savedCursor = s.cursor
	case 'u':
		s.moveTo(s.savedCursor.X, s.savedCursor.Y)
	default:
		s.logf("unhandled CSI %c", cmd.Final())
	}
}

func (s *Screen) handlePrivateMode(final byte, params ansi.Params) {
	if final != 'h' && final != 'l' {
		s.logf("unhandled CSI ?%c", final)
		return
	}
	for i := range params {
		mode, _, ok := params.Param(i, -1)
		if !ok {
			continue
		}
		switch mode {
		case 25:
			s.cursor.Hidden = final == 'l'
		case 12:
			s.cursor.Blink = final == 'h'
		}
	}
}

// setCursorStyle applies DECSCUSR.
func (s *Screen) setCursorStyle(n int) {
	switch n {
	case 0, 1:
		s.cursor.Shape, s.cursor.Blink = CursorBlock, true
	case 2:
		s.cursor.Shape, s.cursor.Blink = CursorBlock, false
	case 3:
		s.cursor.Shape, s.cursor.Blink = CursorUnderline, true
	case 4:
		s.cursor.Shape, s.cursor.Blink = CursorUnderline, false
	case 5:
		s.cursor.Shape, s.cursor.Blink = CursorBeam, true
	case 6:
		s.cursor.Shape, s.cursor.Blink = CursorBeam, false
	}
}

func (s *Screen) eraseDisplay(mode int) {
	x, y := s.cursor.X, s.cursor.Y
	switch mode {
	case 0:
		s.clearLine(y, x, s.cols)
		for r := y + 1; r < s.rows; r++ {
			s.clearLine(r, 0, s.cols)
		}
	case 1:
		for r := range y {
			s.clearLine(r, 0, s.cols)
		}
		s.clearLine(y, 0, x+1)
	case 2:
		for r := range s.rows {
			s.clearLine(r, 0, s.cols)
		}
	case 3:
		s.history.Clear()
		s.touchAll()
	}
}

func (s *Screen) insertLines(n int) {
	y := s.cursor.Y
	n = min(n, s.rows-y)
	copy(s.lines[y+n:], s.lines[y:s.rows-n])
	for r := y; r < y+n; r++ {
		s.lines[r] = s.blankLine()
	}
	s.cursor.X = 0
	s.atPhantom = false
	s.touchAll()
}

func (s *Screen) deleteLines(n int) {
	y := s.cursor.Y
	n = min(n, s.rows-y)
	copy(s.lines[y:], s.lines[y+n:])
	for r := s.rows - n; r < s.rows; r++ {
		s.lines[r] = s.blankLine()
	}
	s.cursor.X = 0
	s.atPhantom = false
	s.touchAll()
}

func (s *Screen) insertChars(n int) {
	line, x := s.lines[s.cursor.Y], s.cursor.X
	n = min(n, s.cols-x)
	copy(line[x+n:], line[x:s.cols-n])
	for i := x; i < x+n; i++ {
		line[i] = blankCell(s.pen)
	}
	s.touch(s.cursor.Y)
}

func (s *Screen) deleteChars(n int) {
	line, x := s.lines[s.cursor.Y], s.cursor.X
	n = min(n, s.cols-x)
	copy(line[x:], line[x+n:])
	for i := s.cols - n; i < s.cols; i++ {
		line[i] = blankCell(s.pen)
	}
	s.touch(s.cursor.Y)
}
