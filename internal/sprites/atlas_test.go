package sprites

import (
	"sync"
	"testing"

	"github.com/Gaurav-Gosain/cellgrid/internal/cell"
)

func TestPositionFor(t *testing.T) {
	a := New(6, 2)
	a.Lock()
	defer a.Unlock()

	if p := a.PositionFor(Glyph{Text: " "}); p != (Pos{}) {
		t.Errorf("space should map to the blank sprite, got %+v", p)
	}
	if p := a.PositionFor(Glyph{}); p != (Pos{}) {
		t.Errorf("empty glyph should map to the blank sprite, got %+v", p)
	}

	first := a.PositionFor(Glyph{Text: "a"})
	if first.X != firstGlyph {
		t.Errorf("first glyph at column %d, want %d", first.X, firstGlyph)
	}
	if again := a.PositionFor(Glyph{Text: "a"}); again != first {
		t.Errorf("repeated lookup moved sprite: %+v vs %+v", again, first)
	}
	bold := a.PositionFor(Glyph{Text: "a", Bold: true})
	if bold == first {
		t.Error("bold variant shares the regular sprite")
	}

	// Columns 4 and 5 are used; the next glyph wraps to row 1.
	wrapped := a.PositionFor(Glyph{Text: "b"})
	if wrapped != (Pos{X: 0, Y: 1}) {
		t.Errorf("expected wrap to row 1, got %+v", wrapped)
	}

	g, ok := a.Glyph(bold)
	if !ok || g.Text != "a" || !g.Bold {
		t.Errorf("Glyph(%+v) = %+v, %v", bold, g, ok)
	}
}

func TestPositionForLayers(t *testing.T) {
	a := New(5, 1)
	a.Lock()
	defer a.Unlock()

	p1 := a.PositionFor(Glyph{Text: "x"})
	p2 := a.PositionFor(Glyph{Text: "y"})
	if p1 != (Pos{X: 4}) {
		t.Fatalf("p1 = %+v", p1)
	}
	if p2.Z != 1 {
		t.Errorf("full layer should spill into the next one, got %+v", p2)
	}
}

func TestLayout(t *testing.T) {
	a := New(64, 32)
	dx, dy := a.Layout()
	if dx != 1.0/64 || dy != 1.0/32 {
		t.Errorf("Layout() = %v, %v", dx, dy)
	}
	if a.SamplerNum() == a.BufferSamplerNum() {
		t.Error("glyph and buffer samplers must differ")
	}
}

func TestSetSpriteMap(t *testing.T) {
	a := New(0, 0)
	buf := cell.NewSpriteMap(3, 2)
	buf.Set(2, 1, cell.Record{SpriteX: 7})

	a.SetSpriteMap(buf)
	if a.Uploads() != 1 {
		t.Fatalf("Uploads() = %d", a.Uploads())
	}

	// The upload is a snapshot.
	buf.Set(2, 1, cell.Record{SpriteX: 8})
	if got := a.SpriteMap().At(2, 1).SpriteX; got != 7 {
		t.Errorf("uploaded map changed with source: %d", got)
	}
}

func TestAtlasConcurrent(t *testing.T) {
	a := New(0, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, r := range "abcdefgh" {
				a.Lock()
				a.PositionFor(Glyph{Text: string(r)})
				a.Unlock()
			}
		}()
	}
	wg.Wait()
	if a.Len() != 8 {
		t.Errorf("Len() = %d, want 8", a.Len())
	}
}
