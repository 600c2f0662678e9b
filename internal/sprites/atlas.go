// Package sprites tracks where glyphs live in the sprite atlas and holds the
// sprite map most recently uploaded for rendering.
package sprites

import (
	"sync"

	"github.com/Gaurav-Gosain/cellgrid/internal/cell"
)

// Reserved columns on row 0 of layer 0. Decoration words refer to these by
// column, so they must stay below four.
const (
	Blank           = 0
	UnderlineSingle = 1
	UnderlineDouble = 2
	Strikethrough   = 3

	firstGlyph = 4
)

// DefaultColumns and DefaultRows describe one atlas layer.
const (
	DefaultColumns = 64
	DefaultRows    = 32
)

// Pos is the location of a sprite in the atlas.
type Pos struct {
	X, Y, Z uint32
}

// Glyph identifies a rendered glyph. Bold and italic variants are distinct
// sprites.
type Glyph struct {
	Text   string
	Bold   bool
	Italic bool
}

// Atlas assigns sprite positions to glyphs. Position lookups must happen with
// the atlas locked; the same lock serialises sprite map uploads.
type Atlas struct {
	mu sync.Mutex

	columns, rows int
	next          Pos
	glyphs        map[Glyph]Pos
	byPos         map[Pos]Glyph

	spriteMap cell.SpriteMap
	uploads   int

	samplerNum       int
	bufferSamplerNum int
}

// New creates an atlas with layers of columns by rows sprites. Non-positive
// sizes fall back to the defaults.
func New(columns, rows int) *Atlas {
	if columns <= firstGlyph {
		columns = DefaultColumns
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	return &Atlas{
		columns:          columns,
		rows:             rows,
		next:             Pos{X: firstGlyph},
		glyphs:           make(map[Glyph]Pos),
		byPos:            make(map[Pos]Glyph),
		samplerNum:       0,
		bufferSamplerNum: 1,
	}
}

// Lock acquires the atlas lock.
func (a *Atlas) Lock() { a.mu.Lock() }

// Unlock releases the atlas lock.
func (a *Atlas) Unlock() { a.mu.Unlock() }

// PositionFor returns the sprite for g, allocating one on first use. Blank
// glyphs map to the reserved blank sprite. The caller holds the lock.
func (a *Atlas) PositionFor(g Glyph) Pos {
	if g.Text == "" || g.Text == " " {
		return Pos{X: Blank}
	}
	if p, ok := a.glyphs[g]; ok {
		return p
	}
	p := a.next
	a.glyphs[g] = p
	a.byPos[p] = g

	a.next.X++
	if int(a.next.X) >= a.columns {
		a.next.X = 0
		a.next.Y++
		if int(a.next.Y) >= a.rows {
			a.next.Y = 0
			a.next.Z++
		}
	}
	return p
}

// Glyph returns the glyph stored at p. The caller holds the lock.
func (a *Atlas) Glyph(p Pos) (Glyph, bool) {
	if p == (Pos{X: Blank}) {
		return Glyph{Text: " "}, true
	}
	g, ok := a.byPos[p]
	return g, ok
}

// Len returns the number of glyph sprites allocated so far.
func (a *Atlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.glyphs)
}

// Layout returns the size of one sprite in normalised atlas coordinates.
func (a *Atlas) Layout() (dx, dy float32) {
	return 1 / float32(a.columns), 1 / float32(a.rows)
}

// SamplerNum is the texture unit of the glyph array.
func (a *Atlas) SamplerNum() int { return a.samplerNum }

// BufferSamplerNum is the texture unit of the sprite map buffer.
func (a *Atlas) BufferSamplerNum() int { return a.bufferSamplerNum }

// SetSpriteMap uploads buf as the sprite map to draw from.
func (a *Atlas) SetSpriteMap(buf cell.SpriteMap) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.spriteMap.XNum() != buf.XNum() || a.spriteMap.YNum() != buf.YNum() {
		a.spriteMap = cell.NewSpriteMap(buf.XNum(), buf.YNum())
	}
	a.spriteMap.CopyFrom(buf)
	a.uploads++
}

// SpriteMap returns a copy of the last uploaded sprite map.
func (a *Atlas) SpriteMap() cell.SpriteMap {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spriteMap.Clone()
}

// Uploads returns how many times SetSpriteMap has been called.
func (a *Atlas) Uploads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uploads
}
