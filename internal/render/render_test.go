package render

import (
	"math"
	"testing"

	"github.com/Gaurav-Gosain/cellgrid/internal/vt"
)

type call struct {
	name string
	args []float64
}

// recorder is a Program that logs every call by uniform name.
type recorder struct {
	names map[int]string
	calls []call
}

func newRecorder() *recorder { return &recorder{names: make(map[int]string)} }

func (r *recorder) UniformLocation(name string) int {
	loc := len(r.names)
	r.names[loc] = name
	return loc
}

func (r *recorder) add(name string, args ...float64) { r.calls = append(r.calls, call{name, args}) }

func (r *recorder) Uniform2ui(loc int, x, y uint32) { r.add(r.names[loc], float64(x), float64(y)) }
func (r *recorder) Uniform4f(loc int, x, y, z, w float32) {
	r.add(r.names[loc], float64(x), float64(y), float64(z), float64(w))
}
func (r *recorder) Uniform1i(loc int, v int32)      { r.add(r.names[loc], float64(v)) }
func (r *recorder) Uniform2f(loc int, x, y float32) { r.add(r.names[loc], float64(x), float64(y)) }
func (r *recorder) DrawArraysInstanced(_ Mode, first, count, instances int) {
	r.add("instanced", float64(first), float64(count), float64(instances))
}
func (r *recorder) DrawArrays(_ Mode, first, count int) { r.add("draw", float64(first), float64(count)) }
func (r *recorder) Enable(Capability)                   { r.add("enable") }
func (r *recorder) Disable(Capability)                  { r.add("disable") }

func (r *recorder) find(name string) (call, bool) {
	for _, c := range r.calls {
		if c.name == name {
			return c, true
		}
	}
	return call{}, false
}

type fakeAtlas struct{}

func (fakeAtlas) SamplerNum() int            { return 3 }
func (fakeAtlas) BufferSamplerNum() int      { return 4 }
func (fakeAtlas) Layout() (float32, float32) { return 0.5, 0.25 }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestCells(t *testing.T) {
	r := newRecorder()
	g := Geometry{XStart: -1, YStart: 1, DX: 0.1, DY: 0.2, XNum: 20, YNum: 10}
	Cells(r, g, fakeAtlas{})

	want := map[string][]float64{
		UniformDimensions:   {20, 10},
		UniformSprites:      {3},
		UniformSpriteMap:    {4},
		UniformSpriteLayout: {0.5, 0.25},
		"instanced":         {0, 4, 200},
	}
	for name, args := range want {
		c, ok := r.find(name)
		if !ok {
			t.Errorf("%s not set", name)
			continue
		}
		for i := range args {
			if !near(c.args[i], args[i]) {
				t.Errorf("%s = %v, want %v", name, c.args, args)
				break
			}
		}
	}
	if last := r.calls[len(r.calls)-1]; last.name != "instanced" {
		t.Errorf("draw must come last, got %s", last.name)
	}
}

func TestCursorShapes(t *testing.T) {
	g := Geometry{XStart: -1, YStart: 1, DX: 0.1, DY: 0.2, XNum: 20, YNum: 10}
	tests := []struct {
		name      string
		quad      CursorQuad
		xpos      [2]float64
		ypos      [2]float64
		wantBlend bool
	}{
		{
			name: "block",
			quad: CursorQuad{X: 2, Y: 1, Shape: vt.CursorBlock, Alpha: 1, CharWidth: 1},
			xpos: [2]float64{-0.8, -0.7},
			ypos: [2]float64{0.8, 0.6},
		},
		{
			name: "wide block",
			quad: CursorQuad{X: 2, Y: 1, Shape: vt.CursorBlock, Alpha: 1, CharWidth: 2},
			xpos: [2]float64{-0.8, -0.6},
			ypos: [2]float64{0.8, 0.6},
		},
		{
			name: "beam",
			quad: CursorQuad{X: 0, Y: 0, Shape: vt.CursorBeam, Alpha: 1, BeamWidth: 0.01},
			xpos: [2]float64{-1, -0.99},
			ypos: [2]float64{1, 0.8},
		},
		{
			name: "underline",
			quad: CursorQuad{X: 0, Y: 0, Shape: vt.CursorUnderline, Alpha: 1, UnderlineHeight: 0.02},
			xpos: [2]float64{-1, -0.9},
			ypos: [2]float64{0.82, 0.8},
		},
		{
			name:      "translucent block blends",
			quad:      CursorQuad{Shape: vt.CursorBlock, Alpha: 0.5, CharWidth: 1},
			xpos:      [2]float64{-1, -0.9},
			ypos:      [2]float64{1, 0.8},
			wantBlend: true,
		},
		{
			name: "translucent beam does not blend",
			quad: CursorQuad{Shape: vt.CursorBeam, Alpha: 0.5, BeamWidth: 0.01},
			xpos: [2]float64{-1, -0.99},
			ypos: [2]float64{1, 0.8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecorder()
			Cursor(r, g, tt.quad)

			x, _ := r.find(UniformXPos)
			y, _ := r.find(UniformYPos)
			if !near(x.args[0], tt.xpos[0]) || !near(x.args[1], tt.xpos[1]) {
				t.Errorf("xpos = %v, want %v", x.args, tt.xpos)
			}
			if !near(y.args[0], tt.ypos[0]) || !near(y.args[1], tt.ypos[1]) {
				t.Errorf("ypos = %v, want %v", y.args, tt.ypos)
			}
			_, enabled := r.find("enable")
			_, disabled := r.find("disable")
			if enabled != tt.wantBlend || disabled != tt.wantBlend {
				t.Errorf("blend enable/disable = %v/%v, want %v", enabled, disabled, tt.wantBlend)
			}
			if _, ok := r.find("draw"); !ok {
				t.Error("cursor not drawn")
			}
		})
	}
}
