package grid

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/Gaurav-Gosain/cellgrid/internal/vt"
	"github.com/lucasb-eyer/go-colorful"
)

// Keys accepted by ChangeColors.
const (
	ColorForeground          = "fg"
	ColorBackground          = "bg"
	ColorSelectionForeground = "selection_fg"
	ColorSelectionBackground = "selection_bg"
	ColorCursor              = "cursor"
)

// ParseColor parses a #rgb or #rrggbb colour.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// ChangeColors applies colour overrides keyed by the Color* constants. An
// empty value restores the configured colour; unparsable values and unknown
// keys are ignored. Any change marks the screen dirty so the next sync
// repaints every cell. It reports whether anything changed.
func (g *Grid) ChangeColors(overrides map[string]string) bool {
	g.syncMu.Lock()
	g.bufferMu.Lock()

	dirtied := false
	for key, val := range overrides {
		var target *uint32
		var original uint32
		switch key {
		case ColorForeground:
			target, original = &g.defaultFg, g.originalFg
		case ColorBackground:
			target, original = &g.defaultBg, g.originalBg
		case ColorSelectionForeground:
			target, original = &g.selFg, g.originalSelFg
		case ColorSelectionBackground:
			target, original = &g.selBg, g.originalSelBg
		case ColorCursor:
			if val == "" {
				g.defaultCursor.Color = rgbColor(g.originalCursor)
				dirtied = true
			} else if c, err := ParseColor(val); err == nil {
				g.defaultCursor.Color = rgbColor(vt.ColorToRGB(c))
				dirtied = true
			}
			continue
		default:
			g.logger.Debug("ignoring unknown color key", "key", key)
			continue
		}

		if val == "" {
			*target = original
			dirtied = true
			continue
		}
		c, err := ParseColor(val)
		if err != nil {
			g.logger.Debug("ignoring color override", "key", key, "err", err)
			continue
		}
		*target = vt.ColorToRGB(c)
		dirtied = true
	}
	if dirtied {
		g.renderDirty = true
	}

	g.bufferMu.Unlock()
	g.syncMu.Unlock()

	if dirtied {
		g.screen.MarkAsDirty()
		g.logger.Debug("colors changed", "overrides", len(overrides))
	}
	return dirtied
}

// DefaultColors returns the packed default foreground and background.
func (g *Grid) DefaultColors() (fg, bg uint32) {
	g.syncMu.Lock()
	defer g.syncMu.Unlock()
	return g.defaultFg, g.defaultBg
}

// SelectionColors returns the packed selection colours; cell.NoColor marks
// an unset channel.
func (g *Grid) SelectionColors() (fg, bg uint32) {
	g.bufferMu.Lock()
	defer g.bufferMu.Unlock()
	return g.selFg, g.selBg
}
