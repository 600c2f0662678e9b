// Package config loads, validates and persists the cellgrid configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gaurav-Gosain/cellgrid/internal/grid"
	"github.com/Gaurav-Gosain/cellgrid/internal/vt"
	"github.com/adrg/xdg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// Validation errors.
var (
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidCursorShape = errors.New("invalid cursor shape")
)

// Config is the user configuration.
type Config struct {
	Appearance  AppearanceConfig    `toml:"appearance"`
	Terminal    TerminalConfig      `toml:"terminal"`
	Display     DisplayConfig       `toml:"display"`
	Keybindings map[string][]string `toml:"keybindings"`
}

// AppearanceConfig holds colours and cursor settings. Empty colours fall back
// to the theme, then to the built in defaults.
type AppearanceConfig struct {
	Foreground          string  `toml:"foreground"`
	Background          string  `toml:"background"`
	SelectionForeground string  `toml:"selection_foreground"`
	SelectionBackground string  `toml:"selection_background"`
	Cursor              string  `toml:"cursor"`
	CursorShape         string  `toml:"cursor_shape"`
	CursorBlinkInterval float64 `toml:"cursor_blink_interval"`
	CursorOpacity       float64 `toml:"cursor_opacity"`
	Theme               string  `toml:"theme"`
}

// TerminalConfig controls the child shell and its screen.
type TerminalConfig struct {
	ScrollbackLines int    `toml:"scrollback_lines"`
	Shell           string `toml:"shell"`
}

// DisplayConfig describes the output surface in pixels.
type DisplayConfig struct {
	DPIX       float64 `toml:"dpi_x"`
	DPIY       float64 `toml:"dpi_y"`
	CellWidth  int     `toml:"cell_width"`
	CellHeight int     `toml:"cell_height"`
}

const (
	// MinScrollbackLines is the smallest accepted history size.
	MinScrollbackLines = 100
	// MaxScrollbackLines is the largest accepted history size.
	MaxScrollbackLines = 1000000
)

// DefaultConfig returns the built in configuration.
func DefaultConfig() *Config {
	return &Config{
		Appearance: AppearanceConfig{
			CursorShape:         vt.CursorBlock.String(),
			CursorBlinkInterval: 0.5,
			CursorOpacity:       1,
		},
		Terminal: TerminalConfig{
			ScrollbackLines: vt.DefaultScrollback,
		},
		Display: DisplayConfig{
			DPIX:       96,
			DPIY:       96,
			CellWidth:  8,
			CellHeight: 16,
		},
		Keybindings: DefaultKeybindings(),
	}
}

// GetConfigPath returns the path of the user config file.
func GetConfigPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join("cellgrid", "config.toml"))
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return path, nil
}

// LoadUserConfig loads the user config file, writing the defaults there
// first if it does not exist.
func LoadUserConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

// Load reads and validates the config at path. Settings missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML with a short header.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# cellgrid configuration\n")
	sb.WriteString("# Colours are #rgb or #rrggbb. Leave a colour empty to use the theme.\n")
	sb.WriteString("# Location: " + path + "\n\n")
	sb.Write(data)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks colours and the cursor shape and clamps numeric settings
// into range.
func (c *Config) Validate() error {
	a := &c.Appearance
	for name, val := range map[string]string{
		"foreground":           a.Foreground,
		"background":           a.Background,
		"selection_foreground": a.SelectionForeground,
		"selection_background": a.SelectionBackground,
		"cursor":               a.Cursor,
	} {
		if val == "" {
			continue
		}
		if _, err := colorful.Hex(strings.TrimSpace(val)); err != nil {
			return fmt.Errorf("%s %q: %w", name, val, ErrInvalidColor)
		}
	}
	if a.CursorShape != "" {
		if _, err := vt.ParseCursorShape(a.CursorShape); err != nil {
			return fmt.Errorf("%q: %w", a.CursorShape, ErrInvalidCursorShape)
		}
	}
	a.CursorOpacity = clamp(a.CursorOpacity, 0, 1)
	if a.CursorBlinkInterval < 0 {
		a.CursorBlinkInterval = 0
	}

	c.Terminal.ScrollbackLines = max(MinScrollbackLines, min(c.Terminal.ScrollbackLines, MaxScrollbackLines))

	d := &c.Display
	if d.DPIX <= 0 {
		d.DPIX = 96
	}
	if d.DPIY <= 0 {
		d.DPIY = 96
	}
	d.CellWidth, d.CellHeight = max(d.CellWidth, 1), max(d.CellHeight, 1)
	return nil
}

// CursorShape returns the configured cursor shape, block when unset.
func (c *Config) CursorShape() vt.CursorShape {
	shape, err := vt.ParseCursorShape(c.Appearance.CursorShape)
	if err != nil || shape == vt.CursorDefault {
		return vt.CursorBlock
	}
	return shape
}

// ColorOverrides returns the colour settings keyed for grid.ChangeColors.
// Empty values restore the colours the grid was created with.
func (c *Config) ColorOverrides() map[string]string {
	a := c.Appearance
	return map[string]string{
		grid.ColorForeground:          a.Foreground,
		grid.ColorBackground:          a.Background,
		grid.ColorSelectionForeground: a.SelectionForeground,
		grid.ColorSelectionBackground: a.SelectionBackground,
		grid.ColorCursor:              a.Cursor,
	}
}

// Overrides holds command line settings that take precedence over the file.
// Zero values leave the config untouched.
type Overrides struct {
	ThemeName       string
	Shell           string
	ScrollbackLines int
	CursorShape     string
}

// ApplyOverrides copies the non-zero fields of o into cfg.
func ApplyOverrides(o Overrides, cfg *Config) {
	if o.ThemeName != "" {
		cfg.Appearance.Theme = o.ThemeName
	}
	if o.Shell != "" {
		cfg.Terminal.Shell = o.Shell
	}
	if o.ScrollbackLines > 0 {
		cfg.Terminal.ScrollbackLines = max(MinScrollbackLines, min(o.ScrollbackLines, MaxScrollbackLines))
	}
	if o.CursorShape != "" {
		cfg.Appearance.CursorShape = o.CursorShape
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
