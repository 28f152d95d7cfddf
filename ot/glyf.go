package ot

import (
	"fmt"
)

// --- Loca table ------------------------------------------------------------

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
//
// Dependencies (taken from Apple Developer page about TrueType):
// The size of entries in the 'loca' table must be appropriate for the value of the
// indexToLocFormat field of the 'head' table. The number of entries must be the same
// as the numGlyphs field of the 'maxp' table, plus one.
type LocaTable struct {
	tableBase
	short     bool // indexToLocFormat = 0
	numGlyphs int
}

func parseLoca(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &LocaTable{}
	t.init(t, tag, b, offset, size)
	return t, nil
}

func (t *LocaTable) link(indexToLocFormat int16, numGlyphs int) error {
	t.short = indexToLocFormat == 0
	t.numGlyphs = numGlyphs
	entry := 4
	if t.short {
		entry = 2
	}
	need, err := checkedMulInt(numGlyphs+1, entry)
	if err != nil {
		return err
	}
	if len(t.data) < need {
		return fmt.Errorf("loca table has %d bytes, need %d for %d glyphs", len(t.data), need, numGlyphs)
	}
	return nil
}

// GlyphRange returns the byte range of a glyph within the glyf table.
func (t *LocaTable) GlyphRange(g GlyphIndex) (uint32, uint32, error) {
	if t == nil || int(g) >= t.numGlyphs {
		return 0, 0, ErrNoSuchGlyph
	}
	var from, to uint32
	if t.short {
		from, to = uint32(u16(t.data[2*int(g):]))*2, uint32(u16(t.data[2*int(g)+2:]))*2
	} else {
		from, to = u32(t.data[4*int(g):]), u32(t.data[4*int(g)+4:])
	}
	if to < from {
		return 0, 0, fmt.Errorf("glyph %d: loca offsets decreasing: %w", g, ErrInvalidFont)
	}
	return from, to, nil
}

// --- Glyf table ------------------------------------------------------------

// GlyfTable holds TrueType glyph outline data.
type GlyfTable struct {
	tableBase
	loca *LocaTable
}

func parseGlyf(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &GlyfTable{}
	t.init(t, tag, b, offset, size)
	return t, nil
}

// GlyphHeader is the header of a glyph description.
type GlyphHeader struct {
	NumberOfContours int16 // negative for composite glyphs
	XMin, YMin       int16
	XMax, YMax       int16
}

// GlyphPoint is a point of a simple glyph outline, in font units.
type GlyphPoint struct {
	X, Y    int32
	OnCurve bool
}

// GlyphComponent is a component of a composite glyph.
type GlyphComponent struct {
	Glyph GlyphIndex
	Flags uint16
	// If ArgsAreXY, Arg1/Arg2 are offsets, otherwise point numbers of parent/child
	// to match.
	Arg1, Arg2 int32
	// Transform is a 2×2 matrix {xx, xy, yx, yy} (xy: x contribution to y).
	Transform [4]float64
}

// Flags of composite glyph components.
const (
	CompArgsAreWords    uint16 = 0x0001
	CompArgsAreXY       uint16 = 0x0002
	CompRoundXYToGrid   uint16 = 0x0004
	CompHaveScale       uint16 = 0x0008
	CompMoreComponents  uint16 = 0x0020
	CompHaveXYScale     uint16 = 0x0040
	CompHave2x2         uint16 = 0x0080
	CompHaveInstr       uint16 = 0x0100
	CompUseMyMetrics    uint16 = 0x0200
	CompOverlapCompound uint16 = 0x0400
	CompScaledOffset    uint16 = 0x0800
	CompUnscaledOffset  uint16 = 0x1000
)

// ArgsAreXY is true if the component arguments are offsets, not point indices.
func (c GlyphComponent) ArgsAreXY() bool {
	return c.Flags&CompArgsAreXY != 0
}

// Glyph is a decoded glyph description. Simple glyphs have EndPoints and
// Points, composite glyphs have Components. Empty glyphs have neither.
type Glyph struct {
	GlyphHeader
	EndPoints  []int // index of the last point of each contour
	Points     []GlyphPoint
	Components []GlyphComponent
}

// IsComposite is true for composite glyphs.
func (g *Glyph) IsComposite() bool {
	return len(g.Components) > 0
}

// NumGlyphs returns the number of glyphs covered by loca.
func (t *GlyfTable) NumGlyphs() int {
	if t == nil || t.loca == nil {
		return 0
	}
	return t.loca.numGlyphs
}

// GlyphData returns the raw glyph description bytes for glyph g.
// An empty slice denotes a glyph without outline (e.g., space).
func (t *GlyfTable) GlyphData(g GlyphIndex) ([]byte, error) {
	if t == nil || t.loca == nil {
		return nil, ErrNoSuchGlyph
	}
	from, to, err := t.loca.GlyphRange(g)
	if err != nil {
		return nil, err
	}
	if to > uint32(len(t.data)) {
		return nil, fmt.Errorf("glyph %d: data beyond glyf table: %w", g, ErrUnexpectedEnd)
	}
	return t.data[from:to], nil
}

// Glyph decodes the glyph description of glyph g. Components of composite
// glyphs are not resolved.
func (t *GlyfTable) Glyph(g GlyphIndex) (*Glyph, error) {
	data, err := t.GlyphData(g)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return &Glyph{}, nil
	}
	return decodeGlyph(data)
}

func decodeGlyph(data []byte) (*Glyph, error) {
	r := NewReader(data)
	hdr, err := r.Bytes(10)
	if err != nil {
		return nil, fmt.Errorf("glyph header: %w", err)
	}
	gl := &Glyph{GlyphHeader: GlyphHeader{
		NumberOfContours: i16(hdr),
		XMin:             i16(hdr[2:]), YMin: i16(hdr[4:]),
		XMax: i16(hdr[6:]), YMax: i16(hdr[8:]),
	}}
	if gl.NumberOfContours >= 0 {
		return gl, decodeSimpleGlyph(gl, r)
	}
	return gl, decodeCompositeGlyph(gl, r)
}

// Flags of simple glyph points.
const (
	flagOnCurve      = 0x01
	flagXShort       = 0x02
	flagYShort       = 0x04
	flagRepeat       = 0x08
	flagXSameOrPos   = 0x10
	flagYSameOrPos   = 0x20
)

func decodeSimpleGlyph(gl *Glyph, r *Reader) error {
	n := int(gl.NumberOfContours)
	gl.EndPoints = make([]int, n)
	last := -1
	for i := range gl.EndPoints {
		e, err := r.U16()
		if err != nil {
			return fmt.Errorf("glyph end points: %w", err)
		}
		if int(e) < last {
			return fmt.Errorf("glyph end points not increasing: %w", ErrInvalidFont)
		}
		gl.EndPoints[i] = int(e)
		last = int(e)
	}
	if n == 0 {
		return nil
	}
	numPoints := last + 1
	instrLen, err := r.U16()
	if err != nil {
		return err
	}
	if err := r.Skip(int(instrLen)); err != nil {
		return fmt.Errorf("glyph instructions: %w", err)
	}
	flags := make([]byte, 0, numPoints)
	for len(flags) < numPoints {
		f, err := r.U8()
		if err != nil {
			return fmt.Errorf("glyph flags: %w", err)
		}
		flags = append(flags, f)
		if f&flagRepeat != 0 {
			cnt, err := r.U8()
			if err != nil {
				return fmt.Errorf("glyph flags: %w", err)
			}
			if len(flags)+int(cnt) > numPoints {
				return fmt.Errorf("glyph flag repeat overflows point count: %w", ErrInvalidFont)
			}
			for k := 0; k < int(cnt); k++ {
				flags = append(flags, f)
			}
		}
	}
	gl.Points = make([]GlyphPoint, numPoints)
	readCoords := func(short, same byte, set func(i int, v int32)) error {
		var v int32
		for i, f := range flags {
			switch {
			case f&short != 0:
				d, err := r.U8()
				if err != nil {
					return err
				}
				if f&same != 0 {
					v += int32(d)
				} else {
					v -= int32(d)
				}
			case f&same == 0:
				d, err := r.I16()
				if err != nil {
					return err
				}
				v += int32(d)
			}
			set(i, v)
		}
		return nil
	}
	if err := readCoords(flagXShort, flagXSameOrPos, func(i int, v int32) { gl.Points[i].X = v }); err != nil {
		return fmt.Errorf("glyph x coordinates: %w", err)
	}
	if err := readCoords(flagYShort, flagYSameOrPos, func(i int, v int32) { gl.Points[i].Y = v }); err != nil {
		return fmt.Errorf("glyph y coordinates: %w", err)
	}
	for i, f := range flags {
		gl.Points[i].OnCurve = f&flagOnCurve != 0
	}
	return nil
}

func decodeCompositeGlyph(gl *Glyph, r *Reader) error {
	for {
		flags, err := r.U16()
		if err != nil {
			return fmt.Errorf("component flags: %w", err)
		}
		gid, err := r.U16()
		if err != nil {
			return fmt.Errorf("component glyph: %w", err)
		}
		c := GlyphComponent{Glyph: GlyphIndex(gid), Flags: flags, Transform: [4]float64{1, 0, 0, 1}}
		if flags&CompArgsAreWords != 0 {
			a1, err1 := r.I16()
			a2, err2 := r.I16()
			if err1 != nil || err2 != nil {
				return fmt.Errorf("component arguments: %w", ErrUnexpectedEnd)
			}
			c.Arg1, c.Arg2 = int32(a1), int32(a2)
		} else {
			a1, err1 := r.U8()
			a2, err2 := r.U8()
			if err1 != nil || err2 != nil {
				return fmt.Errorf("component arguments: %w", ErrUnexpectedEnd)
			}
			if flags&CompArgsAreXY != 0 {
				c.Arg1, c.Arg2 = int32(int8(a1)), int32(int8(a2))
			} else {
				c.Arg1, c.Arg2 = int32(a1), int32(a2)
			}
		}
		readF := func() (float64, error) {
			f, err := r.F2Dot14()
			return f.Float(), err
		}
		switch {
		case flags&CompHaveScale != 0:
			s, err := readF()
			if err != nil {
				return err
			}
			c.Transform = [4]float64{s, 0, 0, s}
		case flags&CompHaveXYScale != 0:
			sx, err1 := readF()
			sy, err2 := readF()
			if err1 != nil || err2 != nil {
				return ErrUnexpectedEnd
			}
			c.Transform = [4]float64{sx, 0, 0, sy}
		case flags&CompHave2x2 != 0:
			for k := range c.Transform {
				if c.Transform[k], err = readF(); err != nil {
					return err
				}
			}
		}
		gl.Components = append(gl.Components, c)
		if flags&CompMoreComponents == 0 {
			break
		}
		if len(gl.Components) > MaxSequenceLength {
			return fmt.Errorf("too many glyph components: %w", ErrInvalidFont)
		}
	}
	return nil
}
