package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/Gaurav-Gosain/cellgrid/internal/cell"
	"github.com/Gaurav-Gosain/cellgrid/internal/pool"
	"github.com/Gaurav-Gosain/cellgrid/internal/sprites"
	"github.com/mattn/go-runewidth"
)

type textCell struct {
	glyph     sprites.Glyph
	fg, bg    uint32
	underline bool
	strike    bool
}

func (c textCell) sameStyle(o textCell) bool {
	return c.fg == o.fg && c.bg == o.bg && c.underline == o.underline && c.strike == o.strike &&
		c.glyph.Bold == o.glyph.Bold && c.glyph.Italic == o.glyph.Italic
}

// TextProgram is a Program that rasterises draw calls into a grid of styled
// characters. The cell draw decodes the sprite map last uploaded to the atlas;
// the cursor draw recolours the cell under the cursor quad.
type TextProgram struct {
	atlas *sprites.Atlas

	locations map[string]int
	uints     map[int][2]uint32
	floats2   map[int][2]float32
	floats4   map[int][4]float32
	ints      map[int]int32

	rows     [][]textCell
	blending bool
	// Draws counts draw calls since creation.
	Draws int
}

// NewTextProgram creates a text backend reading glyphs from atlas.
func NewTextProgram(atlas *sprites.Atlas) *TextProgram {
	return &TextProgram{
		atlas:     atlas,
		locations: make(map[string]int),
		uints:     make(map[int][2]uint32),
		floats2:   make(map[int][2]float32),
		floats4:   make(map[int][4]float32),
		ints:      make(map[int]int32),
	}
}

func (p *TextProgram) UniformLocation(name string) int {
	loc, ok := p.locations[name]
	if !ok {
		loc = len(p.locations)
		p.locations[name] = loc
	}
	return loc
}

func (p *TextProgram) Uniform2ui(loc int, x, y uint32)       { p.uints[loc] = [2]uint32{x, y} }
func (p *TextProgram) Uniform4f(loc int, x, y, z, w float32) { p.floats4[loc] = [4]float32{x, y, z, w} }
func (p *TextProgram) Uniform1i(loc int, v int32)            { p.ints[loc] = v }
func (p *TextProgram) Uniform2f(loc int, x, y float32)       { p.floats2[loc] = [2]float32{x, y} }
func (p *TextProgram) Enable(c Capability)                   { p.blending = p.blending || c == Blend }
func (p *TextProgram) Disable(c Capability)                  { p.blending = p.blending && c != Blend }

// Blending reports whether blending is currently enabled.
func (p *TextProgram) Blending() bool { return p.blending }

// DrawArraysInstanced decodes one cell per instance from the atlas sprite map.
func (p *TextProgram) DrawArraysInstanced(_ Mode, _, _, instances int) {
	p.Draws++
	dims := p.uints[p.UniformLocation(UniformDimensions)]
	xnum, ynum := int(dims[0]), int(dims[1])
	if xnum == 0 || ynum == 0 {
		p.rows = nil
		return
	}

	sm := p.atlas.SpriteMap()
	p.rows = make([][]textCell, ynum)

	p.atlas.Lock()
	defer p.atlas.Unlock()
	for y := range ynum {
		row := make([]textCell, xnum)
		for x := range xnum {
			if y*xnum+x >= instances {
				break
			}
			r := sm.At(x, y)
			g, ok := p.atlas.Glyph(sprites.Pos{X: r.SpriteX, Y: r.SpriteY, Z: r.SpriteZ})
			if !ok {
				g = sprites.Glyph{Text: " "}
			}
			_, ul, strike := cell.UnpackDecoration(r.Decoration)
			row[x] = textCell{
				glyph:     g,
				fg:        r.Fg,
				bg:        r.Bg,
				underline: ul != 0,
				strike:    strike != 0,
			}
		}
		p.rows[y] = row
	}
}

// DrawArrays paints the cursor quad described by the color, xpos and ypos
// uniforms onto the decoded grid.
func (p *TextProgram) DrawArrays(_ Mode, _, _ int) {
	p.Draws++
	steps := p.floats4[p.UniformLocation(UniformSteps)]
	xpos := p.floats2[p.UniformLocation(UniformXPos)]
	ypos := p.floats2[p.UniformLocation(UniformYPos)]
	col := p.floats4[p.UniformLocation(UniformColor)]
	xstart, ystart, dx, dy := steps[0], steps[1], steps[2], steps[3]
	if dx == 0 || dy == 0 {
		return
	}

	left, right := xpos[0], xpos[1]
	top, bottom := ypos[0], ypos[1]
	x := int(math.Round(float64((left - xstart) / dx)))
	y := int(math.Round(float64((ystart-bottom)/dy))) - 1
	if y < 0 || y >= len(p.rows) || x < 0 || x >= len(p.rows[y]) {
		return
	}

	rgb := cell.PackRGB(unit(col[0]), unit(col[1]), unit(col[2]))
	c := &p.rows[y][x]
	switch {
	case top-bottom < dy*0.75:
		c.underline = true
		c.fg = rgb
	case right-left < dx*0.75:
		c.fg, c.bg = c.bg, rgb
	default:
		c.fg, c.bg = c.bg, rgb
		if span := int(math.Round(float64((right - left) / dx))); span > 1 && x+1 < len(p.rows[y]) {
			p.rows[y][x+1].bg = rgb
		}
	}
}

func unit(f float32) uint8 {
	return uint8(max(0, min(255, math.Round(float64(f)*255))))
}

// PlainText returns the decoded frame without styling.
func (p *TextProgram) PlainText() string {
	lines := make([]string, len(p.rows))
	for y, row := range p.rows {
		var sb strings.Builder
		for x := 0; x < len(row); x++ {
			sb.WriteString(row[x].glyph.Text)
			x += skipContinuation(row[x])
		}
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// Frame returns the decoded frame as ANSI styled text, one line per row.
func (p *TextProgram) Frame() string {
	out := pool.GetStringBuilder()
	defer pool.PutStringBuilder(out)

	run := pool.GetStringBuilder()
	defer pool.PutStringBuilder(run)

	for y, row := range p.rows {
		if y > 0 {
			out.WriteByte('\n')
		}
		for x := 0; x < len(row); {
			start := row[x]
			run.Reset()
			for x < len(row) && row[x].sameStyle(start) {
				run.WriteString(row[x].glyph.Text)
				x += 1 + skipContinuation(row[x])
			}
			out.WriteString(styled(start, run.String()))
		}
	}
	return out.String()
}

// skipContinuation returns the number of trailing cells a wide glyph covers.
func skipContinuation(c textCell) int {
	return max(runewidth.StringWidth(c.glyph.Text)-1, 0)
}

func styled(c textCell, s string) string {
	st := pool.GetStyle()
	defer pool.PutStyle(st)
	*st = st.
		Foreground(rgbColor(c.fg)).
		Background(rgbColor(c.bg)).
		Bold(c.glyph.Bold).
		Italic(c.glyph.Italic).
		Underline(c.underline).
		Strikethrough(c.strike)
	return st.Render(s)
}

func rgbColor(c uint32) color.Color {
	r, g, b := cell.UnpackRGB(c)
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
