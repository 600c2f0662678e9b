package vt

// DefaultScrollback is the history size used when none is configured.
const DefaultScrollback = 10000

// Scrollback stores lines that have scrolled off the top of the screen.
// Lines live in a ring buffer so pushing is O(1) once the buffer is full.
type Scrollback struct {
	lines    []Line
	maxLines int
	// head is the oldest line, tail the slot the next push writes to.
	head, tail int
	full       bool
}

// NewScrollback creates a scrollback holding at most maxLines lines. A
// non-positive maxLines selects DefaultScrollback.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines <= 0 {
		maxLines = DefaultScrollback
	}
	return &Scrollback{
		lines:    make([]Line, maxLines),
		maxLines: maxLines,
	}
}

// PushLine appends a copy of line as the newest history line, evicting the
// oldest one when the buffer is full.
func (sb *Scrollback) PushLine(line Line) {
	sb.lines[sb.tail] = line.clone()
	sb.tail = (sb.tail + 1) % sb.maxLines
	if sb.full {
		sb.head = (sb.head + 1) % sb.maxLines
	}
	if sb.tail == sb.head {
		sb.full = true
	}
}

// Len returns the number of lines in the scrollback.
func (sb *Scrollback) Len() int {
	if sb.full {
		return sb.maxLines
	}
	if sb.tail >= sb.head {
		return sb.tail - sb.head
	}
	return sb.maxLines - sb.head + sb.tail
}

// Line returns the history line depth lines above the top of the screen:
// depth 1 is the most recently scrolled off line and Len() the oldest.
// Out of range depths return nil.
func (sb *Scrollback) Line(depth int) Line {
	n := sb.Len()
	if depth < 1 || depth > n {
		return nil
	}
	return sb.lines[(sb.head+n-depth)%sb.maxLines]
}

// Clear drops all history.
func (sb *Scrollback) Clear() {
	sb.head, sb.tail, sb.full = 0, 0, false
	clear(sb.lines)
}

// MaxLines returns the capacity of the scrollback.
func (sb *Scrollback) MaxLines() int {
	return sb.maxLines
}

// SetMaxLines changes the capacity, keeping the newest lines when shrinking.
func (sb *Scrollback) SetMaxLines(maxLines int) {
	if maxLines <= 0 {
		maxLines = DefaultScrollback
	}
	if maxLines == sb.maxLines {
		return
	}

	oldLen := sb.Len()
	keep := min(oldLen, maxLines)
	lines := make([]Line, maxLines)
	for i := range keep {
		lines[i] = sb.lines[(sb.head+oldLen-keep+i)%sb.maxLines]
	}

	sb.lines = lines
	sb.maxLines = maxLines
	sb.head = 0
	sb.tail = keep % maxLines
	sb.full = keep == maxLines
}
