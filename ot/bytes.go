package ot

import (
	"fmt"
	"math"
)

// Reading bytes from a font's binary representation

func u16(b []byte) uint16 {
	_ = b[1] // bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])
}

func i16(b []byte) int16 {
	return int16(u16(b))
}

func u24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func u32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func u64(b []byte) uint64 {
	_ = b[7]
	return uint64(u32(b))<<32 | uint64(u32(b[4:]))
}

// F2Dot14 is a signed 2.14 fixed-point number.
type F2Dot14 int16

// Float returns f as a floating point value.
func (f F2Dot14) Float() float64 {
	return float64(f) / 16384
}

// Fixed is a signed 16.16 fixed-point number.
type Fixed int32

// Float returns f as a floating point value.
func (f Fixed) Float() float64 {
	return float64(f) / 65536
}

// FixedFromFloat converts a float to a 16.16 fixed-point number.
func FixedFromFloat(x float64) Fixed {
	return Fixed(math.Round(x * 65536))
}

// --- Binary segments -------------------------------------------------------

// binarySegm is a segment of byte data.
// We use it throughout this module to navigate the font's binary data.
// All accessors are bounds-checked; out-of-range access yields ErrUnexpectedEnd.
type binarySegm []byte

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset > len(b) || n > len(b)-offset {
		return nil, ErrUnexpectedEnd
	}
	return b[offset : offset+n], nil
}

// from returns the tail of b starting at offset.
func (b binarySegm) from(offset int) (binarySegm, error) {
	if offset < 0 || offset > len(b) {
		return nil, ErrUnexpectedEnd
	}
	return b[offset:], nil
}

func (b binarySegm) u8(i int) (uint8, error) {
	if i < 0 || i >= len(b) {
		return 0, ErrUnexpectedEnd
	}
	return b[i], nil
}

func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

func (b binarySegm) i16(i int) (int16, error) {
	n, err := b.u16(i)
	return int16(n), err
}

func (b binarySegm) u24(i int) (uint32, error) {
	buf, err := b.view(i, 3)
	if err != nil {
		return 0, err
	}
	return u24(buf), nil
}

func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// offset16 follows a 16-bit offset stored at position i, relative to b.
// A NULL offset yields a nil segment without error.
func (b binarySegm) offset16(i int) (binarySegm, error) {
	off, err := b.u16(i)
	if err != nil || off == 0 {
		return nil, err
	}
	return b.from(int(off))
}

// offset24 follows a 24-bit offset stored at position i, relative to b.
func (b binarySegm) offset24(i int) (binarySegm, error) {
	off, err := b.u24(i)
	if err != nil || off == 0 {
		return nil, err
	}
	return b.from(int(off))
}

// offset32 follows a 32-bit offset stored at position i, relative to b.
func (b binarySegm) offset32(i int) (binarySegm, error) {
	off, err := b.u32(i)
	if err != nil || off == 0 {
		return nil, err
	}
	if off > math.MaxInt32 {
		return nil, ErrUnexpectedEnd
	}
	return b.from(int(off))
}

// glyphs reads count glyph indices starting at offset.
func (b binarySegm) glyphs(offset, count int) ([]GlyphIndex, error) {
	buf, err := b.view(offset, count*2)
	if err != nil {
		return nil, err
	}
	g := make([]GlyphIndex, count)
	for i := range g {
		g[i] = GlyphIndex(u16(buf[2*i:]))
	}
	return g, nil
}

// u16s reads count uint16 values starting at offset.
func (b binarySegm) u16s(offset, count int) ([]uint16, error) {
	buf, err := b.view(offset, count*2)
	if err != nil {
		return nil, err
	}
	v := make([]uint16, count)
	for i := range v {
		v[i] = u16(buf[2*i:])
	}
	return v, nil
}

// --- Checked arithmetic ----------------------------------------------------

func checkedMulInt(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a < 0 || b < 0 || a > math.MaxInt32/b {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	return a * b, nil
}

func checkedAddInt(a, b int) (int, error) {
	if b > 0 && a > math.MaxInt-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	if b < 0 && a < math.MinInt-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	return a + b, nil
}

func checkedAddUint32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	return a + b, nil
}
