package selection

import (
	"strings"

	"github.com/Gaurav-Gosain/cellgrid/internal/pool"
)

// LineSource yields the rows of the visible grid.
type LineSource interface {
	Columns() int
	// ScreenLine returns displayed row y, or nil when y is not visible.
	ScreenLine(y int) Line
}

// Text returns the plain text covered by r. The first and last rows are
// clipped to the selected columns, trailing spaces are trimmed from every
// row and rows are joined with newlines. An empty range yields "".
func Text(src LineSource, r Range) string {
	if r.Empty() {
		return ""
	}

	sb := pool.GetStringBuilder()
	defer pool.PutStringBuilder(sb)

	last := src.Columns() - 1
	first := true
	for y := r.Start.Y; y <= r.End.Y; y++ {
		line := src.ScreenLine(y)
		if line == nil {
			continue
		}
		startX, endX := 0, last
		if y == r.Start.Y {
			startX = max(0, min(r.Start.X, last))
		}
		if y == r.End.Y {
			endX = max(0, min(r.End.X, last))
		}

		row := make([]rune, 0, endX-startX+1)
		for x := startX; x <= endX; x++ {
			if line.Continuation(x) {
				continue
			}
			row = append(row, line.CharAt(x))
		}
		if !first {
			sb.WriteByte('\n')
		}
		first = false
		sb.WriteString(strings.TrimRight(string(row), " "))
	}
	return sb.String()
}
