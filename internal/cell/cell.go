// Package cell defines the fixed-stride record layout shared by the screen
// model, the render cache and the frame emitter.
//
// Every grid position is described by RecordSize consecutive uint32 words:
//
//	0..2  sprite position (x, y, z) in the glyph atlas
//	3     foreground colour, 0xRRGGBB
//	4     background colour, 0xRRGGBB
//	5     decoration word
//
// The decoration word packs the decoration colour in bits 0-23, the
// underline sprite column in bits 24-25 and the strikethrough sprite column
// in bits 26-27. Shaders fetch records as vec3 triples, so RecordSize must
// stay a multiple of three.
package cell

import (
	"errors"
	"fmt"
)

// Word offsets inside a record.
const (
	SpriteX = iota
	SpriteY
	SpriteZ
	Foreground
	Background
	Decoration

	// RecordSize is the number of uint32 words per cell.
	RecordSize
)

// Stride is the number of vec3 texels a single record spans.
const Stride = RecordSize / 3

// Fails to compile when RecordSize is not a multiple of three.
var _ = [1]struct{}{}[RecordSize%3]

const (
	colorMask     = 0xFFFFFF
	underlineBits = 24
	strikeBits    = 26
	spriteMask    = 0x3
)

// NoColor marks an unset colour argument. Packed colours never use bits above 23.
const NoColor uint32 = 1 << 24

// ErrRecordSize is returned by CheckLayout for a record size the shaders
// cannot address.
var ErrRecordSize = errors.New("incorrect data cell size, must be a multiple of 3")

// CheckLayout validates a record size at startup.
func CheckLayout(size int) error {
	if size <= 0 || size%3 != 0 {
		return fmt.Errorf("record size %d: %w", size, ErrRecordSize)
	}
	return nil
}

// PackRGB packs an 8-bit colour triple into 0xRRGGBB.
func PackRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackRGB is the inverse of PackRGB.
func UnpackRGB(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// PackDecoration builds a decoration word.
func PackDecoration(color uint32, underline, strike uint32) uint32 {
	return color&colorMask | (underline&spriteMask)<<underlineBits | (strike&spriteMask)<<strikeBits
}

// UnpackDecoration splits a decoration word into its colour and the two
// decoration sprite columns.
func UnpackDecoration(d uint32) (color, underline, strike uint32) {
	return d & colorMask, (d >> underlineBits) & spriteMask, (d >> strikeBits) & spriteMask
}

// Record is the unpacked form of one cell.
type Record struct {
	SpriteX, SpriteY, SpriteZ uint32
	Fg, Bg                    uint32
	Decoration                uint32
}
