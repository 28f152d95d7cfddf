package fontbuild

import "math"

func (b *Builder) buildGlyf() (glyf, loca []byte) {
	gw, lw := &writer{}, &writer{}
	offsets := make([]int, 0, len(b.glyphs)+1)
	for _, g := range b.glyphs {
		offsets = append(offsets, gw.len())
		switch {
		case len(g.Components) > 0:
			writeCompositeGlyph(gw, g, b)
		case len(g.Contours) > 0:
			writeSimpleGlyph(gw, g)
		}
		gw.pad4()
	}
	offsets = append(offsets, gw.len())
	for _, off := range offsets {
		if b.LongLoca {
			lw.u32(uint32(off))
		} else {
			lw.u16(uint16(off / 2))
		}
	}
	return gw.b, lw.b
}

func glyphBounds(contours [][]Point) (xmin, ymin, xmax, ymax int16) {
	first := true
	for _, c := range contours {
		for _, p := range c {
			if first {
				xmin, ymin, xmax, ymax = p.X, p.Y, p.X, p.Y
				first = false
			}
			xmin, ymin = min(xmin, p.X), min(ymin, p.Y)
			xmax, ymax = max(xmax, p.X), max(ymax, p.Y)
		}
	}
	return
}

// writeSimpleGlyph writes all coordinates as 16-bit deltas, without flag repetition.
func writeSimpleGlyph(w *writer, g Glyph) {
	w.i16(int16(len(g.Contours)))
	xmin, ymin, xmax, ymax := glyphBounds(g.Contours)
	w.i16(xmin)
	w.i16(ymin)
	w.i16(xmax)
	w.i16(ymax)
	end := -1
	for _, c := range g.Contours {
		end += len(c)
		w.u16(uint16(end))
	}
	w.u16(0) // no instructions
	for _, c := range g.Contours {
		for _, p := range c {
			if p.OnCurve {
				w.u8(1)
			} else {
				w.u8(0)
			}
		}
	}
	var last int16
	for _, c := range g.Contours {
		for _, p := range c {
			w.i16(p.X - last)
			last = p.X
		}
	}
	last = 0
	for _, c := range g.Contours {
		for _, p := range c {
			w.i16(p.Y - last)
			last = p.Y
		}
	}
}

const (
	compArgsAreWords   = 0x0001
	compArgsAreXY      = 0x0002
	compHaveScale      = 0x0008
	compMoreComponents = 0x0020
)

func writeCompositeGlyph(w *writer, g Glyph, b *Builder) {
	w.i16(-1)
	var all [][]Point
	for _, c := range g.Components {
		if int(c.Glyph) < len(b.glyphs) {
			for _, cont := range b.glyphs[c.Glyph].Contours {
				moved := make([]Point, len(cont))
				for i, p := range cont {
					moved[i] = Point{X: p.X + c.DX, Y: p.Y + c.DY}
				}
				all = append(all, moved)
			}
		}
	}
	xmin, ymin, xmax, ymax := glyphBounds(all)
	w.i16(xmin)
	w.i16(ymin)
	w.i16(xmax)
	w.i16(ymax)
	for i, c := range g.Components {
		flags := uint16(compArgsAreWords | compArgsAreXY)
		if i < len(g.Components)-1 {
			flags |= compMoreComponents
		}
		if c.Scale != 0 {
			flags |= compHaveScale
		}
		w.u16(flags)
		w.u16(c.Glyph)
		w.i16(c.DX)
		w.i16(c.DY)
		if c.Scale != 0 {
			w.f2dot14(c.Scale)
		}
	}
}

// --- CFF -------------------------------------------------------------------

// buildCFF writes a CFF table with one charstring per glyph. Contours are drawn
// with straight lines between on-curve points; off-curve points are treated as
// quadratic controls and converted to cubic curves. Composite glyphs are not
// supported and result in empty charstrings.
func (b *Builder) buildCFF() []byte {
	charstrings := make([][]byte, len(b.glyphs))
	for i, g := range b.glyphs {
		charstrings[i] = charstring(g)
	}
	name := []byte(b.FamilyName)
	// Top DICT with fixed-size operands, so offsets can be computed upfront
	topDict := func(charStringsOff, privSize, privOff int) []byte {
		w := &writer{}
		dictInt(w, charStringsOff)
		w.u8(17) // CharStrings
		dictInt(w, privSize)
		dictInt(w, privOff)
		w.u8(18) // Private
		return w.b
	}
	header := []byte{1, 0, 4, 4}
	nameIndex := cffIndex([][]byte{name})
	topLen := len(cffIndex([][]byte{topDict(0, 0, 0)}))
	stringIndex := cffIndex(nil)
	gsubrIndex := cffIndex(nil)
	csOff := len(header) + len(nameIndex) + topLen + len(stringIndex) + len(gsubrIndex)
	csIndex := cffIndex(charstrings)
	private := []byte{139, 20} // defaultWidthX 0
	privOff := csOff + len(csIndex)
	w := &writer{}
	w.bytes(header)
	w.bytes(nameIndex)
	w.bytes(cffIndex([][]byte{topDict(csOff, len(private), privOff)}))
	w.bytes(stringIndex)
	w.bytes(gsubrIndex)
	w.bytes(csIndex)
	w.bytes(private)
	return w.b
}

func dictInt(w *writer, v int) {
	w.u8(29)
	w.u32(uint32(int32(v)))
}

func cffIndex(items [][]byte) []byte {
	w := &writer{}
	w.u16(uint16(len(items)))
	if len(items) == 0 {
		return w.b
	}
	w.u8(4)
	off := 1
	w.u32(uint32(off))
	for _, it := range items {
		off += len(it)
		w.u32(uint32(off))
	}
	for _, it := range items {
		w.bytes(it)
	}
	return w.b
}

func csInt(w *writer, v int) {
	if v >= -107 && v <= 107 {
		w.u8(uint8(v + 139))
		return
	}
	w.u8(28)
	w.i16(int16(v))
}

// charstring writes a Type 2 charstring: width, then rmoveto/rlineto/rrcurveto per contour.
func charstring(g Glyph) []byte {
	w := &writer{}
	csInt(w, int(g.Advance))
	var cx, cy int
	moveTo := func(x, y int) {
		csInt(w, x-cx)
		csInt(w, y-cy)
		w.u8(21) // rmoveto
		cx, cy = x, y
	}
	lineTo := func(x, y int) {
		csInt(w, x-cx)
		csInt(w, y-cy)
		w.u8(5) // rlineto
		cx, cy = x, y
	}
	curveTo := func(x1, y1, x2, y2, x, y int) {
		csInt(w, x1-cx)
		csInt(w, y1-cy)
		csInt(w, x2-x1)
		csInt(w, y2-y1)
		csInt(w, x-x2)
		csInt(w, y-y2)
		w.u8(8) // rrcurveto
		cx, cy = x, y
	}
	for _, c := range g.Contours {
		if len(c) == 0 || !c[0].OnCurve {
			continue
		}
		moveTo(int(c[0].X), int(c[0].Y))
		for i := 1; i <= len(c); i++ {
			p := c[i%len(c)]
			if p.OnCurve {
				if i < len(c) {
					lineTo(int(p.X), int(p.Y))
				}
				continue
			}
			next := c[(i+1)%len(c)]
			// quadratic control p up to the next on-curve point
			x0, y0 := float64(cx), float64(cy)
			qx, qy := float64(p.X), float64(p.Y)
			x3, y3 := float64(next.X), float64(next.Y)
			curveTo(round(x0+2.0/3*(qx-x0)), round(y0+2.0/3*(qy-y0)),
				round(x3+2.0/3*(qx-x3)), round(y3+2.0/3*(qy-y3)), int(next.X), int(next.Y))
			i++
		}
	}
	w.u8(14) // endchar
	return w.b
}

func round(f float64) int {
	return int(math.Round(f))
}
