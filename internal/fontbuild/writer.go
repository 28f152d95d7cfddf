package fontbuild

import (
	"encoding/binary"
	"math"
)

// writer appends big-endian values to a byte slice.
type writer struct {
	b []byte
}

func (w *writer) u8(v uint8)   { w.b = append(w.b, v) }
func (w *writer) u16(v uint16) { w.b = binary.BigEndian.AppendUint16(w.b, v) }
func (w *writer) i16(v int16)  { w.u16(uint16(v)) }
func (w *writer) u24(v uint32) { w.b = append(w.b, byte(v>>16), byte(v>>8), byte(v)) }
func (w *writer) u32(v uint32) { w.b = binary.BigEndian.AppendUint32(w.b, v) }
func (w *writer) tag(t string) { w.b = append(w.b, (t + "    ")[:4]...) }
func (w *writer) bytes(b []byte) {
	w.b = append(w.b, b...)
}
func (w *writer) f2dot14(f float64) {
	w.i16(int16(math.Round(f * 16384)))
}
func (w *writer) fixed(f float64) {
	w.u32(uint32(int32(math.Round(f * 65536))))
}

func (w *writer) len() int { return len(w.b) }

// reserve16 writes a placeholder and returns its position, for offsets filled in later.
func (w *writer) reserve16() int {
	pos := len(w.b)
	w.u16(0)
	return pos
}

func (w *writer) reserve32() int {
	pos := len(w.b)
	w.u32(0)
	return pos
}

func (w *writer) put16(pos int, v uint16) { binary.BigEndian.PutUint16(w.b[pos:], v) }
func (w *writer) put32(pos int, v uint32) { binary.BigEndian.PutUint32(w.b[pos:], v) }

// append16 appends a sub-structure and patches an offset16 at pos, relative to base.
func (w *writer) append16(pos, base int, sub []byte) {
	w.put16(pos, uint16(len(w.b)-base))
	w.b = append(w.b, sub...)
}

func (w *writer) append32(pos, base int, sub []byte) {
	w.put32(pos, uint32(len(w.b)-base))
	w.b = append(w.b, sub...)
}

func (w *writer) pad4() {
	for len(w.b)%4 != 0 {
		w.b = append(w.b, 0)
	}
}
