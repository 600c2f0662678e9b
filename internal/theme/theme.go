// Package theme provides the colour themes a grid can be created with.
package theme

import (
	"fmt"
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"
	tint "github.com/lrstanley/bubbletint/v2"
)

var (
	mu      sync.RWMutex
	enabled bool
	once    sync.Once
)

// Initialize selects the theme with the given bubbletint id. An empty name
// disables theming so the built in colours apply. Unknown names select the
// default tint and return an error.
func Initialize(themeName string) error {
	mu.Lock()
	defer mu.Unlock()

	if themeName == "" {
		enabled = false
		return nil
	}

	once.Do(func() { tint.NewDefaultRegistry() })
	enabled = true
	if !tint.SetTintID(themeName) {
		tint.SetTintID("default")
		return fmt.Errorf("unknown theme %q, using default", themeName)
	}
	return nil
}

// IsEnabled returns true if theming is enabled
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Current returns the active tint, or nil when theming is disabled.
func Current() *tint.Tint {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return nil
	}
	return tint.Current()
}

// xterm is the palette used without a theme.
var xterm = [16]color.Color{
	lipgloss.Color("#000000"), lipgloss.Color("#cd0000"), lipgloss.Color("#00cd00"), lipgloss.Color("#cdcd00"),
	lipgloss.Color("#0000ee"), lipgloss.Color("#cd00cd"), lipgloss.Color("#00cdcd"), lipgloss.Color("#e5e5e5"),
	lipgloss.Color("#7f7f7f"), lipgloss.Color("#ff0000"), lipgloss.Color("#00ff00"), lipgloss.Color("#ffff00"),
	lipgloss.Color("#5c5cff"), lipgloss.Color("#ff00ff"), lipgloss.Color("#00ffff"), lipgloss.Color("#ffffff"),
}

// GetANSIPalette returns the 16 ANSI colors (0-15) from the current theme.
func GetANSIPalette() [16]color.Color {
	t := Current()
	if t == nil {
		return xterm
	}
	return [16]color.Color{
		t.Black, t.Red, t.Green, t.Yellow,
		t.Blue, t.Purple, t.Cyan, t.White,
		t.BrightBlack, t.BrightRed, t.BrightGreen, t.BrightYellow,
		t.BrightBlue, t.BrightPurple, t.BrightCyan, t.BrightWhite,
	}
}

// Colors is what a theme contributes to a grid. Nil members leave the
// grid's built in default in place.
type Colors struct {
	Palette    []color.Color
	Foreground color.Color
	Background color.Color
	Cursor     color.Color
}

// GridColors returns the palette and default colours of the current theme.
func GridColors() Colors {
	palette := GetANSIPalette()
	c := Colors{Palette: palette[:]}
	if t := Current(); t != nil {
		c.Foreground, c.Background, c.Cursor = t.Fg, t.Bg, t.Cursor
	}
	return c
}

// ColorToString converts a color.Color to a hex string
func ColorToString(c color.Color) string {
	if c == nil {
		return ""
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
