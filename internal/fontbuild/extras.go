package fontbuild

import "image/color"

// Layer is a layer of a COLR version 0 glyph.
type Layer struct {
	Glyph        uint16
	PaletteIndex uint16
}

// COLR builds a version 0 COLR table.
func COLR(glyphs map[uint16][]Layer) []byte {
	bases := make([]uint16, 0, len(glyphs))
	for g := range glyphs {
		bases = append(bases, g)
	}
	bases = sortedGlyphs(bases)
	w := &writer{}
	w.u16(0)
	w.u16(uint16(len(bases)))
	w.u32(14)
	w.u32(uint32(14 + 6*len(bases)))
	n := 0
	for _, g := range bases {
		n += len(glyphs[g])
	}
	w.u16(uint16(n))
	first := 0
	for _, g := range bases {
		w.u16(g)
		w.u16(uint16(first))
		w.u16(uint16(len(glyphs[g])))
		first += len(glyphs[g])
	}
	for _, g := range bases {
		for _, l := range glyphs[g] {
			w.u16(l.Glyph)
			w.u16(l.PaletteIndex)
		}
	}
	return w.b
}

// COLRv1Solid builds a version 1 COLR table in which base glyph is painted as
// shape glyph filled with a solid palette color, translated by (dx, dy).
func COLRv1Solid(base, shape, paletteIndex uint16, dx, dy int16) []byte {
	w := &writer{}
	w.u16(1)
	w.u16(0) // no v0 base glyphs
	w.u32(0) // base glyph records
	w.u32(0) // layer records
	w.u16(0) // numLayerRecords
	blPos := w.reserve32()
	w.u32(0) // layer list
	w.u32(0) // clip list
	w.u32(0) // var index map
	w.u32(0) // item variation store
	// BaseGlyphList with one record
	bl := &writer{}
	bl.u32(1)
	bl.u16(base)
	bl.u32(10)
	// PaintTranslate → PaintGlyph → PaintSolid
	bl.u8(14)
	bl.u24(8)
	bl.i16(dx)
	bl.i16(dy)
	bl.u8(10)
	bl.u24(6)
	bl.u16(shape)
	bl.u8(2)
	bl.u16(paletteIndex)
	bl.f2dot14(1)
	w.append32(blPos, 0, bl.b)
	return w.b
}

// CPAL builds a CPAL table. All palettes must have the same number of entries.
func CPAL(palettes ...[]color.NRGBA) []byte {
	entries := 0
	if len(palettes) > 0 {
		entries = len(palettes[0])
	}
	w := &writer{}
	w.u16(0)
	w.u16(uint16(entries))
	w.u16(uint16(len(palettes)))
	w.u16(uint16(entries * len(palettes)))
	w.u32(uint32(12 + 2*len(palettes)))
	for i := range palettes {
		w.u16(uint16(i * entries))
	}
	for _, p := range palettes {
		for _, c := range p {
			w.u8(c.B)
			w.u8(c.G)
			w.u8(c.R)
			w.u8(c.A)
		}
	}
	return w.b
}

// Axis is a variation axis of a variable font.
type Axis struct {
	Tag               string
	Min, Default, Max float64
}

// FVar builds an fvar table without named instances.
func FVar(axes ...Axis) []byte {
	w := &writer{}
	w.u16(1)
	w.u16(0)
	w.u16(16) // axesArrayOffset
	w.u16(2)
	w.u16(uint16(len(axes)))
	w.u16(20)
	w.u16(0)
	w.u16(uint16(4 + 4*len(axes)))
	for _, a := range axes {
		w.tag(a.Tag)
		w.fixed(a.Min)
		w.fixed(a.Default)
		w.fixed(a.Max)
		w.u16(0)
		w.u16(256)
	}
	return w.b
}

// TupleDeltas are the deltas of one tuple variation applying to all points of
// a glyph, including the four phantom points.
type TupleDeltas struct {
	Peak   []float64
	DX, DY []int16
}

// GVar builds a gvar table with long offsets. Tuples use embedded peak
// coordinates and apply to all points.
func GVar(numGlyphs, axisCount int, glyphs map[uint16][]TupleDeltas) []byte {
	data := &writer{}
	offsets := make([]uint32, 0, numGlyphs+1)
	for g := 0; g < numGlyphs; g++ {
		offsets = append(offsets, uint32(data.len()))
		tuples := glyphs[uint16(g)]
		if len(tuples) == 0 {
			continue
		}
		base := data.len()
		data.u16(uint16(len(tuples)))
		dataOffPos := data.reserve16()
		var serial [][]byte
		for _, t := range tuples {
			s := &writer{}
			s.u8(0) // private point numbers: all points
			packDeltas(s, t.DX)
			packDeltas(s, t.DY)
			serial = append(serial, s.b)
			data.u16(uint16(len(s.b)))
			data.u16(0x8000 | 0x2000) // embedded peak, private points
			for _, p := range t.Peak {
				data.f2dot14(p)
			}
		}
		data.put16(dataOffPos, uint16(data.len()-base))
		for _, s := range serial {
			data.bytes(s)
		}
		data.pad4()
	}
	offsets = append(offsets, uint32(data.len()))
	w := &writer{}
	w.u16(1)
	w.u16(0)
	w.u16(uint16(axisCount))
	w.u16(0) // sharedTupleCount
	hdr := 20 + 4*len(offsets)
	w.u32(uint32(hdr))
	w.u16(uint16(numGlyphs))
	w.u16(1) // long offsets
	w.u32(uint32(hdr))
	for _, off := range offsets {
		w.u32(off)
	}
	w.bytes(data.b)
	return w.b
}

// packDeltas writes deltas as runs of words, at most 64 per run.
func packDeltas(w *writer, deltas []int16) {
	for i := 0; i < len(deltas); i += 64 {
		run := deltas[i:min(i+64, len(deltas))]
		w.u8(0x40 | uint8(len(run)-1))
		for _, d := range run {
			w.i16(d)
		}
	}
}
