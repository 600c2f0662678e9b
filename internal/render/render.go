// Package render turns a synchronised sprite map into draw calls.
//
// Draw calls go through Program, a narrow view of a GL shader program. The
// package ships a text backend implementing Program that paints frames as
// ANSI text, used by the terminal viewer and for testing.
package render

import "github.com/Gaurav-Gosain/cellgrid/internal/vt"

// Mode is a primitive topology.
type Mode int

const (
	TriangleFan Mode = iota
)

// Capability is a toggleable pipeline state.
type Capability int

const (
	Blend Capability = iota
)

// Uniform names used by the cell and cursor programs.
const (
	UniformDimensions   = "dimensions"
	UniformSteps        = "steps"
	UniformSprites      = "sprites"
	UniformSpriteMap    = "sprite_map"
	UniformSpriteLayout = "sprite_layout"
	UniformColor        = "color"
	UniformXPos         = "xpos"
	UniformYPos         = "ypos"
)

// Program is the subset of a shader program the emitter drives.
type Program interface {
	UniformLocation(name string) int
	Uniform2ui(loc int, x, y uint32)
	Uniform4f(loc int, x, y, z, w float32)
	Uniform1i(loc int, v int32)
	Uniform2f(loc int, x, y float32)
	DrawArraysInstanced(mode Mode, first, count, instances int)
	DrawArrays(mode Mode, first, count int)
	Enable(c Capability)
	Disable(c Capability)
}

// Atlas describes where the cell program samples sprites from.
type Atlas interface {
	SamplerNum() int
	BufferSamplerNum() int
	Layout() (dx, dy float32)
}

// Geometry places the grid in normalised device coordinates: (XStart,
// YStart) is the top left corner, DX and DY the size of one cell.
type Geometry struct {
	XStart, YStart float32
	DX, DY         float32
	XNum, YNum     int
}

// CursorQuad is a resolved cursor ready to draw.
type CursorQuad struct {
	X, Y      int
	Shape     vt.CursorShape
	R, G, B   float32
	Alpha     float32
	CharWidth int
	// BeamWidth and UnderlineHeight are in normalised device units.
	BeamWidth       float32
	UnderlineHeight float32
}

// Cells issues the instanced draw covering every cell of g.
func Cells(prog Program, g Geometry, atlas Atlas) {
	ul := prog.UniformLocation
	prog.Uniform2ui(ul(UniformDimensions), uint32(g.XNum), uint32(g.YNum))
	prog.Uniform4f(ul(UniformSteps), g.XStart, g.YStart, g.DX, g.DY)
	prog.Uniform1i(ul(UniformSprites), int32(atlas.SamplerNum()))
	prog.Uniform1i(ul(UniformSpriteMap), int32(atlas.BufferSamplerNum()))
	dx, dy := atlas.Layout()
	prog.Uniform2f(ul(UniformSpriteLayout), dx, dy)
	prog.DrawArraysInstanced(TriangleFan, 0, 4, g.XNum*g.YNum)
}

// Cursor draws the cursor quad. A block cursor spans CharWidth cells, a beam
// is BeamWidth wide and an underline is a strip UnderlineHeight tall at the
// bottom of the cell. Translucent block cursors are blended.
func Cursor(prog Program, g Geometry, c CursorQuad) {
	ul := prog.UniformLocation
	left := g.XStart + float32(c.X)*g.DX
	top := g.YStart - float32(c.Y)*g.DY

	blend := c.Alpha < 1 && c.Shape == vt.CursorBlock
	if blend {
		prog.Enable(Blend)
	}

	right := left + g.DX*float32(max(c.CharWidth, 1))
	if c.Shape == vt.CursorBeam {
		right = left + c.BeamWidth
	}
	bottom := top - g.DY
	if c.Shape == vt.CursorUnderline {
		top = bottom + c.UnderlineHeight
	}

	prog.Uniform4f(ul(UniformColor), c.R, c.G, c.B, c.Alpha)
	prog.Uniform2f(ul(UniformXPos), left, right)
	prog.Uniform2f(ul(UniformYPos), top, bottom)
	prog.DrawArrays(TriangleFan, 0, 4)

	if blend {
		prog.Disable(Blend)
	}
}
