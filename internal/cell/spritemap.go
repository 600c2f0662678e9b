package cell

import "slices"

// SpriteMap is a row-major array of records covering an xnum by ynum grid.
// Copies of a SpriteMap share storage; use Clone or CopyFrom to duplicate it.
type SpriteMap struct {
	xnum, ynum int
	data       []uint32
}

// NewSpriteMap allocates a zeroed map for the given grid size.
func NewSpriteMap(xnum, ynum int) SpriteMap {
	xnum, ynum = max(xnum, 0), max(ynum, 0)
	return SpriteMap{
		xnum: xnum,
		ynum: ynum,
		data: make([]uint32, xnum*ynum*RecordSize),
	}
}

// XNum returns the number of columns.
func (m SpriteMap) XNum() int { return m.xnum }

// YNum returns the number of rows.
func (m SpriteMap) YNum() int { return m.ynum }

// Cells returns the number of records in the map.
func (m SpriteMap) Cells() int { return m.xnum * m.ynum }

// Words exposes the raw words, e.g. for upload to a texture buffer.
func (m SpriteMap) Words() []uint32 { return m.data }

// Contains reports whether (x, y) lies inside the grid.
func (m SpriteMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.xnum && y < m.ynum
}

func (m SpriteMap) offset(x, y int) int {
	return (y*m.xnum + x) * RecordSize
}

// At returns the record at (x, y). Out of range positions yield a zero record.
func (m SpriteMap) At(x, y int) Record {
	if !m.Contains(x, y) {
		return Record{}
	}
	w := m.data[m.offset(x, y):]
	return Record{
		SpriteX:    w[SpriteX],
		SpriteY:    w[SpriteY],
		SpriteZ:    w[SpriteZ],
		Fg:         w[Foreground],
		Bg:         w[Background],
		Decoration: w[Decoration],
	}
}

// Set stores r at (x, y). Out of range positions are ignored.
func (m SpriteMap) Set(x, y int, r Record) {
	if !m.Contains(x, y) {
		return
	}
	w := m.data[m.offset(x, y):]
	w[SpriteX] = r.SpriteX
	w[SpriteY] = r.SpriteY
	w[SpriteZ] = r.SpriteZ
	w[Foreground] = r.Fg
	w[Background] = r.Bg
	w[Decoration] = r.Decoration
}

// Row returns the words of row y, or nil when y is out of range.
func (m SpriteMap) Row(y int) []uint32 {
	if y < 0 || y >= m.ynum {
		return nil
	}
	start := m.offset(0, y)
	return m.data[start : start+m.xnum*RecordSize]
}

// CopyFrom overwrites m with the contents of src. Both maps must have the
// same dimensions; otherwise the overlapping prefix is copied.
func (m SpriteMap) CopyFrom(src SpriteMap) {
	copy(m.data, src.data)
}

// Clone returns a deep copy of m.
func (m SpriteMap) Clone() SpriteMap {
	c := SpriteMap{xnum: m.xnum, ynum: m.ynum, data: make([]uint32, len(m.data))}
	copy(c.data, m.data)
	return c
}

// Equal reports whether both maps have the same size and contents.
func (m SpriteMap) Equal(o SpriteMap) bool {
	if m.xnum != o.xnum || m.ynum != o.ynum {
		return false
	}
	return slices.Equal(m.data, o.data)
}
