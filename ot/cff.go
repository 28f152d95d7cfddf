package ot

import (
	"fmt"
	"math"
	"strconv"
)

// CFFTable holds Compact Font Format outlines, either from a 'CFF ' table (version 1)
// or a 'CFF2' table (version 2).
//
// Only the structures needed for outline extraction are interpreted: the charstrings,
// global and local subroutines, private dictionary widths, FDSelect/FDArray for
// CID-keyed fonts and the item variation store of CFF2.
// See https://adobe-type-tools.github.io/font-tech-notes/pdfs/5176.CFF.pdf and
// https://docs.microsoft.com/en-us/typography/opentype/spec/cff2.
type CFFTable struct {
	tableBase
	Version     int
	IsCID       bool
	FontMatrix  [6]float64
	GlobalSubrs CFFIndex
	CharStrings CFFIndex
	FontDicts   []CFFFontDict // one entry for non-CID CFF fonts
	VarStore    *ItemVariationStore
	fdSelect    []uint16 // FD index per glyph; nil if only one font dict
	charset     []uint16 // SID per glyph (CFF1 non-CID only), nil if not available
}

// CFFFontDict holds the data of a Private DICT.
type CFFFontDict struct {
	LocalSubrs    CFFIndex
	DefaultWidthX float64
	NominalWidthX float64
	VSIndex       int // CFF2 default item variation data index
}

// CFFIndex is a CFF INDEX structure: an array of variable-sized objects.
type CFFIndex struct {
	data    binarySegm
	offsets []uint32 // count+1 offsets relative to data
}

// Len returns the number of objects in the index.
func (x CFFIndex) Len() int {
	if len(x.offsets) == 0 {
		return 0
	}
	return len(x.offsets) - 1
}

// At returns object #i of the index.
func (x CFFIndex) At(i int) ([]byte, error) {
	if i < 0 || i >= x.Len() {
		return nil, fmt.Errorf("CFF INDEX entry %d of %d: %w", i, x.Len(), ErrUnexpectedEnd)
	}
	from, to := x.offsets[i], x.offsets[i+1]
	if from > to || to > uint32(len(x.data)) {
		return nil, fmt.Errorf("CFF INDEX entry %d corrupt: %w", i, ErrInvalidFont)
	}
	return x.data[from:to], nil
}

// SubrBias returns the bias for subroutine numbers of an index of subroutines.
func (x CFFIndex) SubrBias() int {
	switch n := x.Len(); {
	case n < 1240:
		return 107
	case n < 33900:
		return 1131
	}
	return 32768
}

// NumGlyphs returns the number of charstrings.
func (t *CFFTable) NumGlyphs() int {
	if t == nil {
		return 0
	}
	return t.CharStrings.Len()
}

// CharString returns the charstring program of glyph g.
func (t *CFFTable) CharString(g GlyphIndex) ([]byte, error) {
	if t == nil {
		return nil, ErrNoSuchGlyph
	}
	if int(g) >= t.CharStrings.Len() {
		return nil, ErrNoSuchGlyph
	}
	return t.CharStrings.At(int(g))
}

// FontDict returns the font dictionary applying to glyph g.
func (t *CFFTable) FontDict(g GlyphIndex) *CFFFontDict {
	if t == nil || len(t.FontDicts) == 0 {
		return &CFFFontDict{}
	}
	fd := 0
	if t.fdSelect != nil && int(g) < len(t.fdSelect) {
		fd = int(t.fdSelect[g])
	}
	if fd >= len(t.FontDicts) {
		fd = 0
	}
	return &t.FontDicts[fd]
}

// StandardEncodingGlyph returns the glyph for a character code of the Adobe standard
// encoding. It is used for 'seac'-style accented characters in Type 2 charstrings.
func (t *CFFTable) StandardEncodingGlyph(code int) (GlyphIndex, bool) {
	if t == nil || code < 0 || code > 255 || t.charset == nil {
		return 0, false
	}
	sid := standardEncodingSID(code)
	if sid == 0 {
		return 0, false
	}
	for g, s := range t.charset {
		if s == sid {
			return GlyphIndex(g), true
		}
	}
	return 0, false
}

// --- Parsing ---------------------------------------------------------------

func parseCFF(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &CFFTable{FontMatrix: [6]float64{0.001, 0, 0, 0.001, 0, 0}}
	t.init(t, tag, b, offset, size)
	if len(b) < 4 {
		return nil, ec.critical(tag, "Header", "table too small", offset)
	}
	var err error
	switch major := b[0]; {
	case tag == T("CFF ") && major == 1:
		t.Version = 1
		err = parseCFF1(t, b)
	case tag == T("CFF2") && major == 2:
		t.Version = 2
		err = parseCFF2(t, b)
	default:
		return nil, ec.critical(tag, "Header", fmt.Sprintf("unsupported CFF major version %d", major), offset)
	}
	if err != nil {
		return nil, ec.critical(tag, "Structure", err.Error(), offset)
	}
	tracer().Debugf("%s: %d charstrings, %d font dicts, CID-keyed = %v", tag,
		t.CharStrings.Len(), len(t.FontDicts), t.IsCID)
	return t, nil
}

func parseCFF1(t *CFFTable, b binarySegm) error {
	r := NewReader(b)
	if _, err := r.Seek(int64(b[2]), 0); err != nil { // hdrSize
		return err
	}
	if _, err := readCFFIndex(r, false); err != nil { // Name INDEX
		return fmt.Errorf("name index: %w", err)
	}
	topDicts, err := readCFFIndex(r, false)
	if err != nil || topDicts.Len() == 0 {
		return fmt.Errorf("top DICT index: %v", err)
	}
	if _, err := readCFFIndex(r, false); err != nil { // String INDEX
		return fmt.Errorf("string index: %w", err)
	}
	if t.GlobalSubrs, err = readCFFIndex(r, false); err != nil {
		return fmt.Errorf("global subrs: %w", err)
	}
	td, _ := topDicts.At(0)
	top, err := parseCFFDict(td, false)
	if err != nil {
		return fmt.Errorf("top DICT: %w", err)
	}
	if ct := top.int(cffOpCharstringType, 2); ct != 2 {
		return fmt.Errorf("unsupported charstring type %d", ct)
	}
	if m := top[cffOpFontMatrix]; len(m) == 6 {
		copy(t.FontMatrix[:], m)
	}
	if t.CharStrings, err = cffIndexAt(b, top.int(cffOpCharStrings, 0), false); err != nil || t.CharStrings.Len() == 0 {
		return fmt.Errorf("charstrings: %v", err)
	}
	if _, ok := top[cffOpROS]; ok {
		t.IsCID = true
		fds, err := cffIndexAt(b, top.int(cffOpFDArray, 0), false)
		if err != nil {
			return fmt.Errorf("FDArray: %w", err)
		}
		if t.FontDicts, err = parseFDArray(b, fds, false); err != nil {
			return err
		}
		if t.fdSelect, err = parseFDSelect(b, top.int(cffOpFDSelect, 0), t.CharStrings.Len(), len(t.FontDicts)); err != nil {
			return err
		}
	} else {
		fd, err := parsePrivateDict(b, top[cffOpPrivate], false)
		if err != nil {
			return err
		}
		t.FontDicts = []CFFFontDict{fd}
		t.charset = parseCharset(b, top.int(cffOpCharset, 0), t.CharStrings.Len())
	}
	return nil
}

func parseCFF2(t *CFFTable, b binarySegm) error {
	if len(b) < 5 {
		return ErrUnexpectedEnd
	}
	hdrSize, topLen := int(b[2]), int(u16(b[3:]))
	td, err := b.view(hdrSize, topLen)
	if err != nil {
		return fmt.Errorf("top DICT: %w", err)
	}
	top, err := parseCFFDict(td, true)
	if err != nil {
		return fmt.Errorf("top DICT: %w", err)
	}
	r, err := NewReaderAt(b, hdrSize+topLen)
	if err != nil {
		return err
	}
	if t.GlobalSubrs, err = readCFFIndex(r, true); err != nil {
		return fmt.Errorf("global subrs: %w", err)
	}
	if m := top[cffOpFontMatrix]; len(m) == 6 {
		copy(t.FontMatrix[:], m)
	}
	if t.CharStrings, err = cffIndexAt(b, top.int(cffOpCharStrings, 0), true); err != nil || t.CharStrings.Len() == 0 {
		return fmt.Errorf("charstrings: %v", err)
	}
	if off := top.int(cffOpVStore, 0); off > 0 {
		// the store is preceded by a uint16 length
		vb, err := b.from(off + 2)
		if err != nil {
			return fmt.Errorf("vstore: %w", err)
		}
		if t.VarStore, err = parseItemVariationStore(vb); err != nil {
			return fmt.Errorf("vstore: %w", err)
		}
	}
	fds, err := cffIndexAt(b, top.int(cffOpFDArray, 0), true)
	if err != nil {
		return fmt.Errorf("FDArray: %w", err)
	}
	if t.FontDicts, err = parseFDArray(b, fds, true); err != nil {
		return err
	}
	if off := top.int(cffOpFDSelect, 0); off > 0 && len(t.FontDicts) > 1 {
		if t.fdSelect, err = parseFDSelect(b, off, t.CharStrings.Len(), len(t.FontDicts)); err != nil {
			return err
		}
	}
	return nil
}

func cffIndexAt(b binarySegm, off int, cff2 bool) (CFFIndex, error) {
	if off <= 0 {
		return CFFIndex{}, fmt.Errorf("missing offset")
	}
	r, err := NewReaderAt(b, off)
	if err != nil {
		return CFFIndex{}, err
	}
	return readCFFIndex(r, cff2)
}

// readCFFIndex reads an INDEX at the current position of r and advances r past it.
func readCFFIndex(r *Reader, cff2 bool) (CFFIndex, error) {
	var count int
	if cff2 {
		n, err := r.U32()
		if err != nil {
			return CFFIndex{}, err
		}
		if n > MaxGlyphCount*2 {
			return CFFIndex{}, fmt.Errorf("INDEX count too large: %d", n)
		}
		count = int(n)
	} else {
		n, err := r.U16()
		if err != nil {
			return CFFIndex{}, err
		}
		count = int(n)
	}
	if count == 0 {
		return CFFIndex{}, nil
	}
	offSize, err := r.U8()
	if err != nil {
		return CFFIndex{}, err
	}
	if offSize < 1 || offSize > 4 {
		return CFFIndex{}, fmt.Errorf("invalid INDEX offset size %d", offSize)
	}
	raw, err := r.Bytes((count + 1) * int(offSize))
	if err != nil {
		return CFFIndex{}, err
	}
	x := CFFIndex{offsets: make([]uint32, count+1)}
	for i := range x.offsets {
		var v uint32
		for _, c := range raw[i*int(offSize) : (i+1)*int(offSize)] {
			v = v<<8 | uint32(c)
		}
		if v == 0 || (i > 0 && v < x.offsets[i-1]+1) {
			return CFFIndex{}, fmt.Errorf("INDEX offsets corrupt")
		}
		x.offsets[i] = v - 1 // offsets are 1-based
	}
	if x.data, err = r.Bytes(int(x.offsets[count])); err != nil {
		return CFFIndex{}, err
	}
	return x, nil
}

// --- DICT data ---------------------------------------------------------------

// DICT operators (escaped operators are 1200 + second byte).
const (
	cffOpCharset        = 15
	cffOpCharStrings    = 17
	cffOpPrivate        = 18
	cffOpSubrs          = 19
	cffOpDefaultWidthX  = 20
	cffOpNominalWidthX  = 21
	cffOpVSIndex        = 22
	cffOpBlend          = 23
	cffOpVStore         = 24
	cffOpCharstringType = 1206
	cffOpFontMatrix     = 1207
	cffOpROS            = 1230
	cffOpFDArray        = 1236
	cffOpFDSelect       = 1237
	maxDictOperands     = 513
)

type cffDict map[int][]float64

func (d cffDict) int(op int, dflt int) int {
	if v, ok := d[op]; ok && len(v) > 0 {
		return int(v[len(v)-1])
	}
	return dflt
}

func (d cffDict) float(op int, dflt float64) float64 {
	if v, ok := d[op]; ok && len(v) > 0 {
		return v[len(v)-1]
	}
	return dflt
}

// parseCFFDict decodes a DICT. For CFF2 blend operators, the default values are
// kept and the deltas dropped.
func parseCFFDict(b []byte, cff2 bool) (cffDict, error) {
	d := make(cffDict)
	var operands []float64
	for i := 0; i < len(b); {
		b0 := b[i]
		switch {
		case b0 <= 21 || (cff2 && (b0 == 22 || b0 == 23 || b0 == 24)):
			op := int(b0)
			i++
			if b0 == 12 {
				if i >= len(b) {
					return nil, ErrUnexpectedEnd
				}
				op = 1200 + int(b[i])
				i++
			}
			if op == cffOpBlend {
				if len(operands) < 1 {
					return nil, fmt.Errorf("DICT blend: stack underflow")
				}
				n := int(operands[len(operands)-1])
				operands = operands[:len(operands)-1]
				if n < 0 || n > len(operands) {
					return nil, fmt.Errorf("DICT blend: invalid count")
				}
				// operands: n defaults followed by n*k deltas
				k := 0
				if n > 0 {
					k = (len(operands) - n) / n
				}
				base := len(operands) - n*(k+1)
				if base < 0 {
					return nil, fmt.Errorf("DICT blend: stack underflow")
				}
				operands = operands[:base+n]
				continue
			}
			d[op] = operands
			operands = nil
		case b0 == 28:
			if i+3 > len(b) {
				return nil, ErrUnexpectedEnd
			}
			operands = append(operands, float64(int16(u16(b[i+1:]))))
			i += 3
		case b0 == 29:
			if i+5 > len(b) {
				return nil, ErrUnexpectedEnd
			}
			operands = append(operands, float64(int32(u32(b[i+1:]))))
			i += 5
		case b0 == 30:
			v, n, err := parseCFFReal(b[i+1:])
			if err != nil {
				return nil, err
			}
			operands = append(operands, v)
			i += 1 + n
		case b0 >= 32 && b0 <= 246:
			operands = append(operands, float64(int(b0)-139))
			i++
		case b0 >= 247 && b0 <= 250:
			if i+2 > len(b) {
				return nil, ErrUnexpectedEnd
			}
			operands = append(operands, float64((int(b0)-247)*256+int(b[i+1])+108))
			i += 2
		case b0 >= 251 && b0 <= 254:
			if i+2 > len(b) {
				return nil, ErrUnexpectedEnd
			}
			operands = append(operands, float64(-(int(b0)-251)*256-int(b[i+1])-108))
			i += 2
		default:
			return nil, fmt.Errorf("DICT: reserved byte %d", b0)
		}
		if len(operands) > maxDictOperands {
			return nil, fmt.Errorf("DICT: too many operands")
		}
	}
	return d, nil
}

// parseCFFReal decodes a BCD-encoded real number, returning the value and the
// number of bytes consumed.
func parseCFFReal(b []byte) (float64, int, error) {
	const digits = "0123456789.EE?-"
	var s []byte
	for i, c := range b {
		for _, nib := range [2]byte{c >> 4, c & 0xf} {
			switch {
			case nib == 0xf:
				v, err := strconv.ParseFloat(string(s), 64)
				if err != nil {
					return 0, 0, fmt.Errorf("DICT real: %w", err)
				}
				return v, i + 1, nil
			case nib == 0xc:
				s = append(s, 'E', '-')
			case nib == 0xd:
				return 0, 0, fmt.Errorf("DICT real: reserved nibble")
			default:
				s = append(s, digits[nib])
			}
		}
	}
	return 0, 0, ErrUnexpectedEnd
}

func parsePrivateDict(b binarySegm, sizeOffset []float64, cff2 bool) (CFFFontDict, error) {
	fd := CFFFontDict{}
	if len(sizeOffset) != 2 {
		return fd, nil // no private dict: no local subrs, widths default to 0
	}
	size, off := int(sizeOffset[0]), int(sizeOffset[1])
	pb, err := b.view(off, size)
	if err != nil {
		return fd, fmt.Errorf("private DICT: %w", err)
	}
	priv, err := parseCFFDict(pb, cff2)
	if err != nil {
		return fd, fmt.Errorf("private DICT: %w", err)
	}
	fd.DefaultWidthX = priv.float(cffOpDefaultWidthX, 0)
	fd.NominalWidthX = priv.float(cffOpNominalWidthX, 0)
	fd.VSIndex = priv.int(cffOpVSIndex, 0)
	if subrs := priv.int(cffOpSubrs, 0); subrs > 0 {
		// offset relative to the start of the private dict
		if fd.LocalSubrs, err = cffIndexAt(b, off+subrs, cff2); err != nil {
			return fd, fmt.Errorf("local subrs: %w", err)
		}
	}
	return fd, nil
}

func parseFDArray(b binarySegm, fds CFFIndex, cff2 bool) ([]CFFFontDict, error) {
	if fds.Len() == 0 || fds.Len() > 256 {
		return nil, fmt.Errorf("FDArray: invalid count %d", fds.Len())
	}
	dicts := make([]CFFFontDict, fds.Len())
	for i := range dicts {
		fb, err := fds.At(i)
		if err != nil {
			return nil, err
		}
		fd, err := parseCFFDict(fb, cff2)
		if err != nil {
			return nil, fmt.Errorf("font DICT %d: %w", i, err)
		}
		if dicts[i], err = parsePrivateDict(b, fd[cffOpPrivate], cff2); err != nil {
			return nil, err
		}
	}
	return dicts, nil
}

func parseFDSelect(b binarySegm, off, numGlyphs, numFDs int) ([]uint16, error) {
	if off <= 0 {
		return nil, fmt.Errorf("FDSelect missing")
	}
	r, err := NewReaderAt(b, off)
	if err != nil {
		return nil, err
	}
	format, err := r.U8()
	if err != nil {
		return nil, err
	}
	sel := make([]uint16, numGlyphs)
	check := func(fd int) error {
		if fd >= numFDs {
			return fmt.Errorf("FDSelect: font dict %d out of range", fd)
		}
		return nil
	}
	switch format {
	case 0:
		raw, err := r.Bytes(numGlyphs)
		if err != nil {
			return nil, err
		}
		for g, fd := range raw {
			if err := check(int(fd)); err != nil {
				return nil, err
			}
			sel[g] = uint16(fd)
		}
	case 3, 4:
		readFirst := func() (int, error) {
			if format == 3 {
				v, err := r.U16()
				return int(v), err
			}
			v, err := r.U32()
			return int(v), err
		}
		nRanges, err := readFirst()
		if err != nil || nRanges > MaxGlyphCount {
			return nil, fmt.Errorf("FDSelect: invalid range count")
		}
		first, err := readFirst()
		if err != nil {
			return nil, err
		}
		for i := 0; i < nRanges; i++ {
			var fd int
			if format == 3 {
				v, err := r.U8()
				if err != nil {
					return nil, err
				}
				fd = int(v)
			} else {
				v, err := r.U16()
				if err != nil {
					return nil, err
				}
				fd = int(v)
			}
			if err := check(fd); err != nil {
				return nil, err
			}
			next, err := readFirst() // next range's first, or sentinel
			if err != nil {
				return nil, err
			}
			if next < first {
				return nil, fmt.Errorf("FDSelect: ranges unsorted")
			}
			for g := first; g < next && g < numGlyphs; g++ {
				sel[g] = uint16(fd)
			}
			first = next
		}
	default:
		return nil, fmt.Errorf("FDSelect: unsupported format %d", format)
	}
	return sel, nil
}

// parseCharset returns the SID of every glyph. Predefined charsets other than
// ISOAdobe are not supported and yield nil.
func parseCharset(b binarySegm, off, numGlyphs int) []uint16 {
	sids := make([]uint16, numGlyphs)
	if off == 0 { // ISOAdobe: glyph i has SID i
		for i := range sids {
			sids[i] = uint16(min(i, math.MaxUint16))
		}
		return sids
	}
	if off <= 2 {
		return nil
	}
	r, err := NewReaderAt(b, off)
	if err != nil {
		return nil
	}
	format, err := r.U8()
	if err != nil {
		return nil
	}
	g := 1
	switch format {
	case 0:
		for ; g < numGlyphs; g++ {
			sid, err := r.U16()
			if err != nil {
				return nil
			}
			sids[g] = sid
		}
	case 1, 2:
		for g < numGlyphs {
			first, err := r.U16()
			if err != nil {
				return nil
			}
			var left int
			if format == 1 {
				n, err := r.U8()
				if err != nil {
					return nil
				}
				left = int(n)
			} else {
				n, err := r.U16()
				if err != nil {
					return nil
				}
				left = int(n)
			}
			for k := 0; k <= left && g < numGlyphs; k++ {
				sids[g] = first + uint16(k)
				g++
			}
		}
	default:
		return nil
	}
	return sids
}

// standardEncodingSID maps codes of the Adobe standard encoding to string IDs.
func standardEncodingSID(code int) uint16 {
	switch {
	case code >= 32 && code <= 126:
		return uint16(code - 31)
	case code >= 161 && code <= 255:
		return standardEncodingHigh[code-161]
	}
	return 0
}

var standardEncodingHigh = [95]uint16{
	96, 97, 98, 99, 100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 0, // 161–176
	111, 112, 113, 114, 0, 115, 116, 117, 118, 119, 120, 121, 122, 0, 123, 0, // 177–192
	124, 125, 126, 127, 128, 129, 130, 131, 0, 132, 133, 0, 134, 135, 136, 137, // 193–208
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 209–224
	138, 0, 139, 0, 0, 0, 0, 140, 141, 142, 143, 0, 0, 0, 0, 0, // 225–240
	144, 0, 0, 0, 145, 0, 0, 146, 147, 148, 149, 0, 0, 0, 0, // 241–255
}
