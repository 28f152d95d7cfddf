package ot

import (
	"fmt"
	"io"
)

// Reader is a big-endian reader over a font's bytes.
//
// A Reader records the start position of the stream it reads from.
// Seeking is relative to that start, not to the beginning of the underlying data,
// as members of font collections and sub-tables store offsets relative to
// their own base. Reads past the end of data fail with ErrUnexpectedEnd; primitive
// reads never return zero-filled values.
type Reader struct {
	data  []byte
	start int // stream start within data
	pos   int // absolute read position within data
}

var _ io.ReadSeeker = (*Reader)(nil)

// NewReader creates a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt creates a reader whose stream starts at offset start within data.
func NewReaderAt(data []byte, start int) (*Reader, error) {
	if start < 0 || start > len(data) {
		return nil, fmt.Errorf("reader start %d: %w", start, ErrUnexpectedEnd)
	}
	return &Reader{data: data, start: start, pos: start}, nil
}

// Sub returns a new reader whose stream starts at offset relative to r's start.
func (r *Reader) Sub(offset int) (*Reader, error) {
	return NewReaderAt(r.data, r.start+offset)
}

// Pos returns the current read position relative to the stream start.
func (r *Reader) Pos() int {
	return r.pos - r.start
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Seek implements io.Seeker. io.SeekStart is relative to the stream start.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = int64(r.start) + offset
	case io.SeekCurrent:
		abs = int64(r.pos) + offset
	case io.SeekEnd:
		abs = int64(len(r.data)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < int64(r.start) || abs > int64(len(r.data)) {
		return 0, fmt.Errorf("seek to %d: %w", abs-int64(r.start), ErrUnexpectedEnd)
	}
	r.pos = int(abs)
	return abs - int64(r.start), nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || n > len(r.data)-r.pos {
		return nil, fmt.Errorf("read %d bytes at %d: %w", n, r.Pos(), ErrUnexpectedEnd)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U8 reads an unsigned 8-bit integer.
func (r *Reader) U8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I8 reads a signed 8-bit integer.
func (r *Reader) I8() (int8, error) {
	n, err := r.U8()
	return int8(n), err
}

// U16 reads an unsigned 16-bit integer.
func (r *Reader) U16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return u16(b), nil
}

// I16 reads a signed 16-bit integer.
func (r *Reader) I16() (int16, error) {
	n, err := r.U16()
	return int16(n), err
}

// U24 reads an unsigned 24-bit integer.
func (r *Reader) U24() (uint32, error) {
	b, err := r.next(3)
	if err != nil {
		return 0, err
	}
	return u24(b), nil
}

// U32 reads an unsigned 32-bit integer.
func (r *Reader) U32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return u32(b), nil
}

// I32 reads a signed 32-bit integer.
func (r *Reader) I32() (int32, error) {
	n, err := r.U32()
	return int32(n), err
}

// U64 reads an unsigned 64-bit integer.
func (r *Reader) U64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return u64(b), nil
}

// I64 reads a signed 64-bit integer, e.g. a LONGDATETIME.
func (r *Reader) I64() (int64, error) {
	n, err := r.U64()
	return int64(n), err
}

// F2Dot14 reads a signed 2.14 fixed-point number.
func (r *Reader) F2Dot14() (F2Dot14, error) {
	n, err := r.U16()
	return F2Dot14(n), err
}

// Fixed reads a signed 16.16 fixed-point number.
func (r *Reader) Fixed() (Fixed, error) {
	n, err := r.U32()
	return Fixed(n), err
}

// Tag reads a 4-byte tag.
func (r *Reader) Tag() (Tag, error) {
	n, err := r.U32()
	return Tag(n), err
}

// Bytes reads n raw bytes. The result aliases the underlying data.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.next(n)
}

// BytesTruncated reads up to n raw bytes. If fewer than n bytes are left,
// the remaining bytes are returned without error.
func (r *Reader) BytesTruncated(n int) []byte {
	if n < 0 {
		return nil
	}
	if rest := len(r.data) - r.pos; n > rest {
		n = rest
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.next(n)
	return err
}
