// Package pool provides sync.Pool backed buffers for hot render paths.
package pool

import (
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
)

const byteSliceSize = 32 * 1024

var (
	stringBuilderPool = sync.Pool{
		New: func() any { return new(strings.Builder) },
	}

	byteSlicePool = sync.Pool{
		New: func() any {
			b := make([]byte, byteSliceSize)
			return &b
		},
	}

	stylePool = sync.Pool{
		New: func() any {
			s := lipgloss.NewStyle()
			return &s
		},
	}
)

// GetStringBuilder returns an empty string builder.
func GetStringBuilder() *strings.Builder {
	return stringBuilderPool.Get().(*strings.Builder)
}

// PutStringBuilder resets sb and returns it to the pool.
func PutStringBuilder(sb *strings.Builder) {
	sb.Reset()
	stringBuilderPool.Put(sb)
}

// GetByteSlice returns a 32KiB read buffer.
func GetByteSlice() *[]byte {
	return byteSlicePool.Get().(*[]byte)
}

// PutByteSlice returns buf to the pool. Buffers of the wrong size are dropped.
func PutByteSlice(buf *[]byte) {
	if buf == nil || len(*buf) != byteSliceSize {
		return
	}
	byteSlicePool.Put(buf)
}

// GetStyle returns a blank lipgloss style.
func GetStyle() *lipgloss.Style {
	return stylePool.Get().(*lipgloss.Style)
}

// PutStyle resets s and returns it to the pool.
func PutStyle(s *lipgloss.Style) {
	*s = lipgloss.NewStyle()
	stylePool.Put(s)
}
