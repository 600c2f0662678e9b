// Package selection tracks a mouse selection over the visible grid.
//
// Endpoints remember the scroll offset active when they were set, so a
// selection stays attached to the same text while the view scrolls.
package selection

// Point is a grid position.
type Point struct {
	X, Y int
}

// Less orders points in reading order: by row, then column.
func (p Point) Less(o Point) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.X < o.X
}

// Range is a normalised selection, Start never after End.
type Range struct {
	Start, End Point
}

// Empty reports whether the range selects nothing.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Endpoint is one end of a selection and the scroll offset it was recorded at.
type Endpoint struct {
	X, Y       int
	ScrolledBy int
}

// rebase maps the endpoint into a view scrolled by offset.
func (e Endpoint) rebase(offset int) Point {
	return Point{X: e.X, Y: e.Y - e.ScrolledBy + offset}
}

// Line is a row of characters. Columns past the end of a line read as
// spaces.
type Line interface {
	CharAt(x int) rune
	// Continuation reports whether column x is the trailing half of a wide
	// character.
	Continuation(x int) bool
}

// Selection is an anchor and an extent in recording order.
type Selection struct {
	Start, End Endpoint
	InProgress bool
}

// Begin starts a new selection at (x, y).
func (s *Selection) Begin(x, y, offset int) {
	s.Start = Endpoint{X: x, Y: y, ScrolledBy: offset}
	s.End = s.Start
	s.InProgress = true
}

// Extend moves the extent to (x, y) while a selection is in progress. With
// finalize set the selection stops tracking the pointer. It reports whether
// the selection was finalized by this call.
func (s *Selection) Extend(x, y, offset int, finalize bool) bool {
	if !s.InProgress {
		return false
	}
	s.End = Endpoint{X: x, Y: y, ScrolledBy: offset}
	if finalize {
		s.InProgress = false
	}
	return finalize
}

// Clear drops the selection.
func (s *Selection) Clear() {
	*s = Selection{}
}

// Limits returns the selection in a view scrolled by offset, ordered by row
// then column.
func (s *Selection) Limits(offset int) Range {
	a, b := s.Start.rebase(offset), s.End.rebase(offset)
	if b.Less(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// IsWordChar reports whether r belongs to a word for double-click selection.
func IsWordChar(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// SelectWord selects the run of word characters touching column x of line,
// displayed at row y of a grid columns wide. When x is not a word character
// the selection collapses to x.
func (s *Selection) SelectWord(line Line, columns, x, y, offset int) {
	start, end := x, x
	for start > 0 && IsWordChar(line.CharAt(start)) && IsWordChar(line.CharAt(start-1)) {
		start--
	}
	for end < columns-1 && IsWordChar(line.CharAt(end)) && IsWordChar(line.CharAt(end+1)) {
		end++
	}
	s.set(start, end, y, offset)
}

// SelectLine selects the non-blank extent of line, displayed at row y of a
// grid columns wide. A blank line is selected in full. Lines narrower than
// the grid, such as history kept from before a resize, are padded with
// blanks.
func (s *Selection) SelectLine(line Line, columns, y, offset int) {
	start, end := 0, columns-1
	for start < columns && line.CharAt(start) == ' ' {
		start++
	}
	if start == columns {
		s.set(0, max(columns-1, 0), y, offset)
		return
	}
	for end > start && line.CharAt(end) == ' ' {
		end--
	}
	s.set(start, end, y, offset)
}

func (s *Selection) set(x0, x1, y, offset int) {
	s.Start = Endpoint{X: x0, Y: y, ScrolledBy: offset}
	s.End = Endpoint{X: x1, Y: y, ScrolledBy: offset}
	s.InProgress = false
}
