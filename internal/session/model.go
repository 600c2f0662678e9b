// Package session runs an interactive viewer: a child shell whose output is
// mirrored through a grid and drawn with the text backend.
package session

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/cellgrid/internal/config"
	"github.com/Gaurav-Gosain/cellgrid/internal/grid"
	"github.com/Gaurav-Gosain/cellgrid/internal/logging"
	"github.com/Gaurav-Gosain/cellgrid/internal/render"
	"github.com/Gaurav-Gosain/cellgrid/internal/scroll"
	"github.com/Gaurav-Gosain/cellgrid/internal/sprites"
	"github.com/Gaurav-Gosain/cellgrid/internal/theme"
	"github.com/Gaurav-Gosain/cellgrid/internal/vt"
	"github.com/charmbracelet/colorprofile"
)

const (
	// FPS is the rate at which the screen is synchronised and redrawn.
	FPS = 30
	// wheelLines is how far one wheel notch scrolls.
	wheelLines = 3
	// clickInterval is the longest gap between clicks of a multi-click.
	clickInterval = 400 * time.Millisecond
)

// Options configures a viewer.
type Options struct {
	Config *config.Config
	Logger *log.Logger
	// Environ is the environment of the terminal the viewer draws on. It
	// decides the TERM advertised to the shell. Defaults to os.Environ().
	Environ []string
	// Width and Height are the initial size in cells.
	Width, Height int
}

type (
	tickMsg        time.Time
	shellExitedMsg struct{}
	configMsg      struct{ cfg *config.Config }
)

// Model is the bubbletea model of a viewer.
type Model struct {
	cfg      *config.Config
	registry *config.KeybindRegistry
	logger   *log.Logger
	environ  []string

	screen *vt.Screen
	atlas  *sprites.Atlas
	grid   *grid.Grid
	prog   *render.TextProgram
	shell  *Shell

	cols, rows int
	frame      string
	uploads    int
	lastCursor vt.Cursor
	lastBlink  bool
	blinkStart time.Time

	dragging   bool
	clicks     int
	lastClick  time.Time
	clickCell  [2]int
	primaryOut string

	events chan tea.Msg
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a viewer without a shell. Call StartShell to attach one.
func New(opts Options) (*Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	if err := theme.Initialize(cfg.Appearance.Theme); err != nil {
		logger.Warn("theme", "err", err)
	}

	cols, rows := max(opts.Width, 1), max(opts.Height, 1)
	screen := vt.NewScreen(cols, rows, cfg.Terminal.ScrollbackLines)
	screen.SetLogger(logging.Printf{Logger: logger})
	atlas := sprites.New(0, 0)

	m := &Model{
		cfg:        cfg,
		registry:   config.NewKeybindRegistry(cfg),
		logger:     logger,
		environ:    environ,
		screen:     screen,
		atlas:      atlas,
		prog:       render.NewTextProgram(atlas),
		cols:       cols,
		rows:       rows,
		blinkStart: time.Now(),
		events:     make(chan tea.Msg, 8),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	gopts := GridOptions(cfg, logger)
	gopts.SetPrimarySelection = func(text string) error {
		m.primaryOut = text
		return nil
	}
	g, err := grid.New(screen, atlas, gopts)
	if err != nil {
		return nil, fmt.Errorf("creating grid: %w", err)
	}
	m.grid = g
	m.grid.Resize(m.geometry())
	return m, nil
}

// GridOptions maps cfg and the active theme to grid options. Colours left
// empty in cfg come from the theme, then from the grid's defaults.
func GridOptions(cfg *config.Config, logger *log.Logger) grid.Options {
	a := cfg.Appearance
	tc := theme.GridColors()
	return grid.Options{
		Foreground:          colorSetting(a.Foreground, tc.Foreground),
		Background:          colorSetting(a.Background, tc.Background),
		SelectionForeground: colorSetting(a.SelectionForeground, nil),
		SelectionBackground: colorSetting(a.SelectionBackground, nil),
		CursorColor:         colorSetting(a.Cursor, tc.Cursor),
		CursorShape:         cfg.CursorShape(),
		CursorBlink:         a.CursorBlinkInterval > 0,
		CursorOpacity:       a.CursorOpacity,
		Palette:             tc.Palette,
		DPIX:                cfg.Display.DPIX,
		DPIY:                cfg.Display.DPIY,
		Logger:              logger,
	}
}

// colorSetting parses a configured colour, falling back when it is empty or
// invalid.
func colorSetting(s string, fallback color.Color) color.Color {
	if s == "" {
		return fallback
	}
	c, err := grid.ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func (m *Model) geometry() grid.WindowGeometry {
	return grid.WindowGeometry{
		XNum:       m.cols,
		YNum:       m.rows,
		CellWidth:  m.cfg.Display.CellWidth,
		CellHeight: m.cfg.Display.CellHeight,
	}
}

// StartShell starts the configured shell and feeds its output to the screen.
func (m *Model) StartShell() error {
	profile := colorprofile.Env(m.environ)
	termType, colorTerm := TerminalEnv(profile, envValue(m.environ, "TERM"))
	env := []string{"TERM=" + termType, "CELLGRID_WINDOW_ID=" + m.grid.ID()}
	if colorTerm != "" {
		env = append(env, "COLORTERM="+colorTerm)
	}

	sh, err := StartShell(m.cfg.Terminal.Shell, m.cols, m.rows, env)
	if err != nil {
		return err
	}
	m.shell = sh
	m.logger.Debug("shell started", "term", termType, "profile", profile)

	go func() {
		if err := sh.Pump(m.screen); err != nil {
			m.logger.Debug("shell output", "err", err)
		}
	}()
	go func() {
		select {
		case <-sh.Done():
			m.send(shellExitedMsg{})
		case <-m.ctx.Done():
		}
	}()
	return nil
}

// WatchConfig applies colour changes from the config file at path live.
func (m *Model) WatchConfig(path string) error {
	return config.Watch(m.ctx, path,
		func(cfg *config.Config) { m.send(configMsg{cfg: cfg}) },
		func(err error) { m.logger.Warn("config reload", "err", err) },
	)
}

func (m *Model) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.ctx.Done():
	}
}

// Close stops the shell and the config watcher.
func (m *Model) Close() error {
	m.cancel()
	if m.shell != nil {
		return m.shell.Close()
	}
	return nil
}

// Frame returns the last rendered frame.
func (m *Model) Frame() string { return m.frame }

func tick() tea.Cmd {
	return tea.Tick(time.Second/FPS, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForEvent())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.grid.UpdateCellData(false)
		m.render(time.Time(msg))
		return m, tick()

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)

	case tea.MouseClickMsg:
		return m, m.handleClick(msg.Mouse())

	case tea.MouseMotionMsg:
		mouse := msg.Mouse()
		if m.dragging && mouse.Button == tea.MouseLeft {
			px, py := m.pixel(mouse.X, mouse.Y)
			m.grid.UpdateDrag(grid.DragMotion, px, py)
		}
		return m, nil

	case tea.MouseReleaseMsg:
		if !m.dragging {
			return m, nil
		}
		m.dragging = false
		mouse := msg.Mouse()
		px, py := m.pixel(mouse.X, mouse.Y)
		m.grid.UpdateDrag(grid.DragRelease, px, py)
		return m, m.publishPrimary()

	case tea.MouseWheelMsg:
		switch msg.Mouse().Button {
		case tea.MouseWheelUp:
			m.grid.Scroll(scroll.Cells(wheelLines), true)
		case tea.MouseWheelDown:
			m.grid.Scroll(scroll.Cells(wheelLines), false)
		}
		return m, nil

	case configMsg:
		m.applyConfig(msg.cfg)
		return m, m.waitForEvent()

	case shellExitedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) View() tea.View {
	var view tea.View
	view.SetContent(m.frame)
	view.AltScreen = true
	view.MouseMode = tea.MouseModeAllMotion
	return view
}

// handleKey runs the bound viewer action or forwards the key to the shell.
// Forwarded keys return the view to the live screen.
func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch m.registry.GetAction(msg.String()) {
	case config.ActionScrollLineUp:
		m.grid.Scroll(scroll.Line, true)
	case config.ActionScrollLineDown:
		m.grid.Scroll(scroll.Line, false)
	case config.ActionScrollPageUp:
		m.grid.Scroll(scroll.Page, true)
	case config.ActionScrollPageDown:
		m.grid.Scroll(scroll.Page, false)
	case config.ActionScrollToTop:
		m.grid.Scroll(scroll.Full, true)
	case config.ActionScrollToBottom:
		m.grid.Scroll(scroll.Full, false)
	case config.ActionCopySelection:
		if text := m.grid.TextForSelection(); text != "" {
			return tea.SetClipboard(text)
		}
	case config.ActionClearSelection:
		m.grid.ClearSelection()
	case config.ActionQuit:
		return tea.Quit
	default:
		m.blinkStart = time.Now()
		if m.grid.ScrolledBy() > 0 {
			m.grid.Scroll(scroll.Full, false)
		}
		if b := keyBytes(msg); len(b) > 0 && m.shell != nil {
			if _, err := m.shell.Write(b); err != nil {
				m.logger.Debug("writing to shell", "err", err)
			}
		}
	}
	return nil
}

// handleClick starts a drag on a single click and selects a word or line on
// a double or triple click at the same cell.
func (m *Model) handleClick(mouse tea.Mouse) tea.Cmd {
	if mouse.Button != tea.MouseLeft {
		return nil
	}
	now := time.Now()
	cell := [2]int{mouse.X, mouse.Y}
	if cell == m.clickCell && now.Sub(m.lastClick) <= clickInterval && m.clicks < 3 {
		m.clicks++
	} else {
		m.clicks = 1
	}
	m.lastClick, m.clickCell = now, cell

	px, py := m.pixel(mouse.X, mouse.Y)
	if m.clicks > 1 {
		m.dragging = false
		m.grid.MultiClick(m.clicks, px, py)
		return nil
	}
	m.dragging = true
	m.grid.UpdateDrag(grid.DragPress, px, py)
	return nil
}

// publishPrimary sends text the grid published on the last drag release to
// the terminal's primary selection.
func (m *Model) publishPrimary() tea.Cmd {
	text := m.primaryOut
	m.primaryOut = ""
	if text == "" {
		return nil
	}
	return tea.SetPrimaryClipboard(text)
}

// pixel returns the pixel position of the centre of a cell.
func (m *Model) pixel(x, y int) (float64, float64) {
	cw, ch := float64(m.cfg.Display.CellWidth), float64(m.cfg.Display.CellHeight)
	return float64(x)*cw + cw/2, float64(y)*ch + ch/2
}

func (m *Model) resize(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)
	if cols == m.cols && rows == m.rows {
		return
	}
	m.cols, m.rows = cols, rows
	m.screen.Resize(cols, rows)
	m.grid.Resize(m.geometry())
	if m.shell != nil {
		if err := m.shell.Resize(cols, rows); err != nil {
			m.logger.Debug("resizing pty", "err", err)
		}
	}
	m.grid.UpdateCellData(true)
	m.frame = ""
}

// applyConfig applies a reloaded config. Colours change live; other
// settings apply to the next viewer.
func (m *Model) applyConfig(cfg *config.Config) {
	m.registry = config.NewKeybindRegistry(cfg)
	m.cfg.Appearance = cfg.Appearance
	m.cfg.Keybindings = cfg.Keybindings
	if m.grid.ChangeColors(cfg.ColorOverrides()) {
		m.logger.Info("colors reloaded")
	}
}

// render redraws the frame when the cell data, the cursor or the blink
// phase changed.
func (m *Model) render(now time.Time) {
	geom, ok := m.grid.PrepareForRender(m.atlas)
	if !ok {
		return
	}

	cur := m.grid.Cursor()
	blink := m.cursorOn(cur, now)
	uploads := m.atlas.Uploads()
	if m.frame != "" && uploads == m.uploads && blink == m.lastBlink &&
		cur.X == m.lastCursor.X && cur.Y == m.lastCursor.Y && cur.Hidden == m.lastCursor.Hidden {
		return
	}
	m.uploads, m.lastBlink, m.lastCursor = uploads, blink, cur

	m.grid.RenderCells(geom, m.prog, m.atlas)
	if blink {
		m.grid.RenderCursor(geom, m.prog)
	}
	m.frame = m.prog.Frame()
}

func (m *Model) cursorOn(cur vt.Cursor, now time.Time) bool {
	interval := time.Duration(m.cfg.Appearance.CursorBlinkInterval * float64(time.Second))
	if !cur.Blink || interval <= 0 {
		return true
	}
	return (now.Sub(m.blinkStart)/interval)%2 == 0
}

func envValue(environ []string, key string) string {
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			return v
		}
	}
	return ""
}
