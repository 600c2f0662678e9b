package selection

import "testing"

type grid []string

func (g grid) Columns() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g grid) ScreenLine(y int) Line {
	if y < 0 || y >= len(g) {
		return nil
	}
	return strLine(g[y])
}

func TestText(t *testing.T) {
	g := grid{
		"hello     ",
		"world     ",
		"  a  b    ",
	}
	tests := []struct {
		name string
		r    Range
		want string
	}{
		{"two rows", Range{Point{0, 0}, Point{4, 1}}, "hello\nworld"},
		{"clipped first and last", Range{Point{2, 0}, Point{2, 1}}, "llo\nwor"},
		{"interior row in full", Range{Point{3, 0}, Point{0, 2}}, "lo\nworld\n"},
		{"interior spaces kept", Range{Point{0, 2}, Point{9, 2}}, "  a  b"},
		{"empty range", Range{Point{3, 1}, Point{3, 1}}, ""},
		{"columns past the edge", Range{Point{0, 1}, Point{40, 1}}, "world"},
		{"rows off screen skipped", Range{Point{0, -2}, Point{4, 0}}, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(g, tt.r); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

// cellLine is a row of cells; an empty string marks the trailing half of a
// wide character.
type cellLine []string

func (l cellLine) CharAt(x int) rune {
	if x < 0 || x >= len(l) || l[x] == "" {
		return ' '
	}
	return []rune(l[x])[0]
}

func (l cellLine) Continuation(x int) bool { return x >= 0 && x < len(l) && l[x] == "" }

type cellGrid []cellLine

func (g cellGrid) Columns() int { return len(g[0]) }

func (g cellGrid) ScreenLine(y int) Line {
	if y < 0 || y >= len(g) {
		return nil
	}
	return g[y]
}

func TestTextWideCharacters(t *testing.T) {
	g := cellGrid{
		{"中", "", "文", "", "a", " "},
		{"x", "世", "", " ", " ", " "},
	}
	tests := []struct {
		name string
		r    Range
		want string
	}{
		{"wide pair", Range{Point{0, 0}, Point{3, 0}}, "中文"},
		{"ends on lead cell", Range{Point{0, 0}, Point{2, 0}}, "中文"},
		{"across rows", Range{Point{2, 0}, Point{2, 1}}, "文a\nx世"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(g, tt.r); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}
