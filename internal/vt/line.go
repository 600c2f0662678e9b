package vt

import "strings"

// Line is a snapshot of one row of cells. Lines handed out by Screen are
// copies and stay valid after the screen changes.
type Line []Cell

// Width returns the number of columns in the line.
func (l Line) Width() int { return len(l) }

// CharAt returns the character displayed at column x. Columns past the end of
// the line read as spaces.
func (l Line) CharAt(x int) rune {
	if x < 0 || x >= len(l) {
		return ' '
	}
	return l[x].Rune()
}

// Continuation reports whether column x holds the trailing half of a wide
// character.
func (l Line) Continuation(x int) bool {
	return x >= 0 && x < len(l) && l[x].Width == 0 && l[x].Content == ""
}

// String returns the line's text. Continuation cells of wide characters are
// skipped; trailing blanks are kept.
func (l Line) String() string {
	var sb strings.Builder
	for _, c := range l {
		if c.Width == 0 && c.Content == "" {
			continue
		}
		if c.Content == "" {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(c.Content)
	}
	return sb.String()
}

func (l Line) clone() Line {
	if l == nil {
		return nil
	}
	c := make(Line, len(l))
	copy(c, l)
	return c
}
