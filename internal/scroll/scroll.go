// Package scroll maps a scroll offset onto the rows of the visible grid.
//
// An offset of n shows the newest n history lines above the first
// len(screen)-n live rows. The offset is bounded by the history length.
package scroll

import (
	"fmt"
	"strconv"
	"strings"
)

type unit int

const (
	cells unit = iota
	line
	page
	full
)

// Amount is how far to scroll: a number of rows, or a named step.
type Amount struct {
	unit unit
	n    int
}

// Named amounts.
var (
	Line = Amount{unit: line}
	Page = Amount{unit: page}
	Full = Amount{unit: full}
)

// Cells scrolls by n rows. Negative n reverses the direction.
func Cells(n int) Amount {
	return Amount{unit: cells, n: n}
}

// ParseAmount parses "line", "page", "full" or a row count.
func ParseAmount(s string) (Amount, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line":
		return Line, nil
	case "page":
		return Page, nil
	case "full":
		return Full, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("invalid scroll amount %q", s)
	}
	return Cells(n), nil
}

func (a Amount) String() string {
	switch a.unit {
	case line:
		return "line"
	case page:
		return "page"
	case full:
		return "full"
	}
	return strconv.Itoa(a.n)
}

// Rows resolves the amount to a row count for a grid of visibleRows with
// historyLen lines of history.
func (a Amount) Rows(visibleRows, historyLen int) int {
	switch a.unit {
	case line:
		return 1
	case page:
		return max(visibleRows-1, 0)
	case full:
		return historyLen
	}
	return a.n
}

// Mapper holds the current scroll offset. The zero value shows the live
// screen. It is not safe for concurrent use.
type Mapper struct {
	offset int
}

// Offset returns the number of history lines shown above the live rows.
func (m *Mapper) Offset() int {
	return m.offset
}

// ScrollBy moves the offset by amount, towards history when upwards is set,
// clamped to [0, historyLen]. It reports whether the offset changed.
func (m *Mapper) ScrollBy(amount Amount, upwards bool, visibleRows, historyLen int) bool {
	delta := amount.Rows(visibleRows, historyLen)
	if !upwards {
		delta = -delta
	}
	next := max(0, min(m.offset+delta, historyLen))
	if next == m.offset {
		return false
	}
	m.offset = next
	return true
}

// Follow keeps a scrolled view on the same history lines after added lines
// entered history. A view at offset 0 keeps following the live screen.
func (m *Mapper) Follow(added, historyLen int) {
	if m.offset > 0 {
		m.offset += added
	}
	m.offset = max(0, min(m.offset, historyLen))
}

// Reset returns to the live screen.
func (m *Mapper) Reset() {
	m.offset = 0
}

// Source says where a visible row comes from.
type Source int

const (
	Live Source = iota
	History
)

// ResolveLine maps visible row to its backing line for a view scrolled by
// offset. For History the index is a depth (1 is the newest history line);
// for Live it is the live row. ok is false for rows outside the grid.
func ResolveLine(row, offset, visibleRows int) (src Source, index int, ok bool) {
	if row < 0 || row >= visibleRows {
		return Live, 0, false
	}
	if offset > 0 && row < offset {
		return History, offset - row, true
	}
	return Live, row - offset, true
}
