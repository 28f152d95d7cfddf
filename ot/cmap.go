package ot

import (
	"fmt"
	"sort"
)

// CMapTable maps character codes to glyph indices.
//
// From all the encoding records of a cmap, the one with the widest supported Unicode
// coverage is selected as GlyphIndexMap. A format 14 subtable, if present, is used
// for Unicode variation sequences.
type CMapTable struct {
	tableBase
	GlyphIndexMap GlyphIndexMap       // selected Unicode subtable
	Variations    *VariationSelectors // format 14 subtable, optional
	Encoding      CMapEncoding        // encoding of the selected subtable
	numGlyphs     int
}

// CMapEncoding identifies a cmap subtable by platform, encoding and format.
type CMapEncoding struct {
	PlatformID uint16
	EncodingID uint16
	Format     uint16
}

// GlyphIndexMap maps codepoints to glyph indices.
type GlyphIndexMap interface {
	// Lookup returns the glyph index for a codepoint, or 0 if the codepoint is not mapped.
	Lookup(rune) GlyphIndex
	// ReverseLookup returns a codepoint mapped to a glyph, or 0.
	ReverseLookup(GlyphIndex) rune
}

// Lookup returns the glyph index for a codepoint, or 0. Glyph indices beyond the
// font's glyph count map to 0.
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	if t == nil || t.GlyphIndexMap == nil {
		return 0
	}
	g := t.GlyphIndexMap.Lookup(r)
	if t.numGlyphs > 0 && int(g) >= t.numGlyphs {
		return 0
	}
	return g
}

// LookupVariant looks up a variation sequence (codepoint, variation selector).
// If the font maps the sequence to a specific glyph, that glyph is returned.
// If the sequence is listed as a default variation, the glyph from the base cmap
// is returned. found is false if the font does not know the sequence at all.
func (t *CMapTable) LookupVariant(r, selector rune) (g GlyphIndex, found bool) {
	if t == nil || t.Variations == nil {
		return 0, false
	}
	g, isDefault, found := t.Variations.Lookup(r, selector)
	if !found {
		return 0, false
	}
	if isDefault {
		return t.Lookup(r), true
	}
	if t.numGlyphs > 0 && int(g) >= t.numGlyphs {
		return 0, false
	}
	return g, true
}

// IsVariationSelector reports whether r is one of the Unicode variation selectors
// (VS1–VS16, VS17–VS256, Mongolian free variation selectors).
func IsVariationSelector(r rune) bool {
	return (r >= 0xFE00 && r <= 0xFE0F) || (r >= 0xE0100 && r <= 0xE01EF) || (r >= 0x180B && r <= 0x180D) || r == 0x180F
}

func parseCMap(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &CMapTable{}
	t.init(t, tag, b, offset, size)
	n, err := b.u16(2)
	if err != nil {
		return nil, ec.critical(tag, "Header", "table too small", offset)
	}
	type candidate struct {
		enc  CMapEncoding
		rank int
		data binarySegm
	}
	var best candidate
	for i := 0; i < int(n); i++ {
		rec, err := b.view(4+i*8, 8)
		if err != nil {
			return nil, ec.critical(tag, "EncodingRecords", "encoding records truncated", offset)
		}
		pid, eid, off := u16(rec), u16(rec[2:]), u32(rec[4:])
		sub, err := b.from(int(off))
		if err != nil {
			ec.addError(tag, "EncodingRecords", fmt.Sprintf("subtable offset %d out of bounds", off), SeverityMinor, offset)
			continue
		}
		format, err := sub.u16(0)
		if err != nil {
			continue
		}
		if format == 14 {
			if vs, err := parseCMapFormat14(sub); err == nil {
				t.Variations = vs
			} else {
				ec.addError(tag, "Format14", err.Error(), SeverityMinor, offset+off)
			}
			continue
		}
		rank := cmapRank(pid, eid, format)
		if rank > best.rank {
			best = candidate{enc: CMapEncoding{pid, eid, format}, rank: rank, data: sub}
		}
	}
	if best.rank == 0 {
		return nil, ec.critical(tag, "Subtables", "no supported Unicode cmap subtable", offset)
	}
	t.Encoding = best.enc
	if t.GlyphIndexMap, err = parseCMapSubtable(best.enc.Format, best.data); err != nil {
		return nil, ec.critical(tag, fmt.Sprintf("Format%d", best.enc.Format), err.Error(), offset)
	}
	tracer().Debugf("cmap: selected platform %d, encoding %d, format %d",
		best.enc.PlatformID, best.enc.EncodingID, best.enc.Format)
	return t, nil
}

// cmapRank ranks supported subtables; 0 means unsupported.
// Full-repertoire Unicode subtables are preferred over BMP-only ones.
func cmapRank(pid, eid, format uint16) int {
	full := (pid == 3 && eid == 10) || (pid == 0 && (eid == 4 || eid == 6))
	bmp := (pid == 3 && eid == 1) || (pid == 0 && eid <= 3)
	switch {
	case full && format == 12:
		return 12
	case full && format == 13:
		return 11
	case full && format == 10:
		return 10
	case bmp && format == 4:
		return 8
	case bmp && format == 6:
		return 7
	case (pid == 3 && eid == 0) && format == 4: // symbol fonts
		return 5
	case pid == 1 && eid == 0 && (format == 0 || format == 6):
		return 2
	case (full || bmp) && format == 0:
		return 1
	}
	return 0
}

func parseCMapSubtable(format uint16, b binarySegm) (GlyphIndexMap, error) {
	switch format {
	case 0:
		return parseCMapFormat0(b)
	case 4:
		return parseCMapFormat4(b)
	case 6:
		return parseCMapFormat6(b)
	case 10:
		return parseCMapFormat10(b)
	case 12, 13:
		return parseCMapFormat12(b, format == 13)
	}
	return nil, fmt.Errorf("unsupported cmap format %d", format)
}

// --- Format 0: byte encoding table -----------------------------------------

type cmapFormat0 struct {
	glyphs binarySegm // 256 bytes
}

func parseCMapFormat0(b binarySegm) (GlyphIndexMap, error) {
	g, err := b.view(6, 256)
	if err != nil {
		return nil, fmt.Errorf("cmap format 0 truncated")
	}
	return cmapFormat0{glyphs: g}, nil
}

func (m cmapFormat0) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 255 {
		return 0
	}
	return GlyphIndex(m.glyphs[r])
}

func (m cmapFormat0) ReverseLookup(g GlyphIndex) rune {
	for i, x := range m.glyphs {
		if GlyphIndex(x) == g {
			return rune(i)
		}
	}
	return 0
}

// --- Format 4: segment mapping to delta values -----------------------------

type cmapFormat4 struct {
	segments []cmapSegment4
	glyphIDs binarySegm // glyphIdArray, addressed relative to idRangeOffset positions
	idRange  int        // byte position of the idRangeOffset array within the subtable
	data     binarySegm
}

type cmapSegment4 struct {
	start, end    uint16
	delta         uint16
	idRangeOffset uint16
}

func parseCMapFormat4(b binarySegm) (GlyphIndexMap, error) {
	segX2, err := b.u16(6)
	if err != nil || segX2%2 != 0 || segX2 == 0 {
		return nil, fmt.Errorf("cmap format 4: invalid segment count")
	}
	n := int(segX2 / 2)
	// endCode[n] at 14, reservedPad, startCode[n], idDelta[n], idRangeOffset[n]
	endAt, startAt := 14, 16+2*n
	deltaAt, rangeAt := startAt+2*n, startAt+4*n
	if _, err := b.view(0, rangeAt+2*n); err != nil {
		return nil, fmt.Errorf("cmap format 4: segment arrays truncated")
	}
	m := &cmapFormat4{segments: make([]cmapSegment4, n), idRange: rangeAt, data: b}
	prevEnd := -1
	for i := 0; i < n; i++ {
		s := cmapSegment4{
			end:           u16(b[endAt+2*i:]),
			start:         u16(b[startAt+2*i:]),
			delta:         u16(b[deltaAt+2*i:]),
			idRangeOffset: u16(b[rangeAt+2*i:]),
		}
		if s.start > s.end || int(s.start) <= prevEnd {
			return nil, fmt.Errorf("cmap format 4: segments unsorted or overlapping")
		}
		prevEnd = int(s.end)
		m.segments[i] = s
	}
	return m, nil
}

func (m *cmapFormat4) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xffff {
		return 0
	}
	c := uint16(r)
	i := sort.Search(len(m.segments), func(i int) bool { return m.segments[i].end >= c })
	if i == len(m.segments) || m.segments[i].start > c {
		return 0
	}
	s := m.segments[i]
	if s.idRangeOffset == 0 {
		return GlyphIndex(c + s.delta)
	}
	// "glyphId = *(idRangeOffset[i]/2 + (c - startCode[i]) + &idRangeOffset[i])"
	at := m.idRange + 2*i + int(s.idRangeOffset) + 2*int(c-s.start)
	g, err := m.data.u16(at)
	if err != nil || g == 0 {
		return 0
	}
	return GlyphIndex(g + s.delta)
}

func (m *cmapFormat4) ReverseLookup(g GlyphIndex) rune {
	for _, s := range m.segments {
		for c := uint32(s.start); c <= uint32(s.end); c++ {
			if c == 0xffff {
				break
			}
			if m.Lookup(rune(c)) == g {
				return rune(c)
			}
		}
	}
	return 0
}

// --- Format 6: trimmed table mapping ---------------------------------------

type cmapFormat6 struct {
	first  uint32
	glyphs []GlyphIndex
}

func parseCMapFormat6(b binarySegm) (GlyphIndexMap, error) {
	first, err1 := b.u16(6)
	count, err2 := b.u16(8)
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("cmap format 6 truncated")
	}
	glyphs, err := b.glyphs(10, int(count))
	if err != nil {
		return nil, fmt.Errorf("cmap format 6: glyph array truncated")
	}
	return cmapFormat6{first: uint32(first), glyphs: glyphs}, nil
}

func (m cmapFormat6) Lookup(r rune) GlyphIndex {
	if r < 0 || uint32(r) < m.first || uint32(r)-m.first >= uint32(len(m.glyphs)) {
		return 0
	}
	return m.glyphs[uint32(r)-m.first]
}

func (m cmapFormat6) ReverseLookup(g GlyphIndex) rune {
	for i, x := range m.glyphs {
		if x == g {
			return rune(m.first + uint32(i))
		}
	}
	return 0
}

// --- Format 10: trimmed array ----------------------------------------------

func parseCMapFormat10(b binarySegm) (GlyphIndexMap, error) {
	first, err1 := b.u32(12)
	count, err2 := b.u32(16)
	if err1 != nil || err2 != nil || count > MaxGlyphCount {
		return nil, fmt.Errorf("cmap format 10 truncated or too large")
	}
	glyphs, err := b.glyphs(20, int(count))
	if err != nil {
		return nil, fmt.Errorf("cmap format 10: glyph array truncated")
	}
	return cmapFormat6{first: first, glyphs: glyphs}, nil
}

// --- Formats 12 and 13: segmented coverage / many-to-one -------------------

type cmapGroup struct {
	start, end, glyph uint32
}

type cmapFormat12 struct {
	groups   []cmapGroup
	constant bool // format 13: all codepoints of a group map to the same glyph
}

func parseCMapFormat12(b binarySegm, constant bool) (GlyphIndexMap, error) {
	n, err := b.u32(12)
	if err != nil {
		return nil, fmt.Errorf("cmap format 12 truncated")
	}
	size, err := checkedMulInt(int(n), 12)
	if err != nil {
		return nil, fmt.Errorf("cmap format 12: %v", err)
	}
	buf, err := b.view(16, size)
	if err != nil {
		return nil, fmt.Errorf("cmap format 12: groups truncated")
	}
	m := &cmapFormat12{groups: make([]cmapGroup, n), constant: constant}
	var prevEnd int64 = -1
	for i := range m.groups {
		g := cmapGroup{start: u32(buf[12*i:]), end: u32(buf[12*i+4:]), glyph: u32(buf[12*i+8:])}
		if g.start > g.end || int64(g.start) <= prevEnd || g.end > 0x10FFFF {
			return nil, fmt.Errorf("cmap format 12: groups unsorted or overlapping")
		}
		prevEnd = int64(g.end)
		m.groups[i] = g
	}
	return m, nil
}

func (m *cmapFormat12) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	c := uint32(r)
	i := sort.Search(len(m.groups), func(i int) bool { return m.groups[i].end >= c })
	if i == len(m.groups) || m.groups[i].start > c {
		return 0
	}
	g := m.groups[i].glyph
	if !m.constant {
		g += c - m.groups[i].start
	}
	if g > 0xffff {
		return 0
	}
	return GlyphIndex(g)
}

func (m *cmapFormat12) ReverseLookup(g GlyphIndex) rune {
	for _, grp := range m.groups {
		if m.constant {
			if grp.glyph == uint32(g) {
				return rune(grp.start)
			}
			continue
		}
		if uint32(g) >= grp.glyph && uint32(g)-grp.glyph <= grp.end-grp.start {
			return rune(grp.start + uint32(g) - grp.glyph)
		}
	}
	return 0
}

// --- Format 14: Unicode variation sequences --------------------------------

// VariationSelectors holds the Unicode variation sequences of a font (cmap format 14).
type VariationSelectors struct {
	records []varSelectorRecord
}

type varSelectorRecord struct {
	selector   rune
	defaults   []unicodeRange  // default UVS table
	nonDefault []uvsMapping    // non-default UVS table
}

type unicodeRange struct {
	start rune
	count uint8 // additional values in range
}

type uvsMapping struct {
	r rune
	g GlyphIndex
}

func parseCMapFormat14(b binarySegm) (*VariationSelectors, error) {
	n, err := b.u32(6)
	if err != nil {
		return nil, fmt.Errorf("cmap format 14 truncated")
	}
	if n > 256 {
		return nil, fmt.Errorf("cmap format 14: too many selector records: %d", n)
	}
	vs := &VariationSelectors{records: make([]varSelectorRecord, n)}
	for i := range vs.records {
		rec, err := b.view(10+11*i, 11)
		if err != nil {
			return nil, fmt.Errorf("cmap format 14: selector records truncated")
		}
		vr := varSelectorRecord{selector: rune(u24(rec))}
		if off := u32(rec[3:]); off != 0 {
			d, err := b.from(int(off))
			if err != nil {
				return nil, fmt.Errorf("cmap format 14: default UVS offset out of bounds")
			}
			cnt, err := d.u32(0)
			if err != nil || cnt > 0x10FFFF {
				return nil, fmt.Errorf("cmap format 14: default UVS table truncated")
			}
			buf, err := d.view(4, int(cnt)*4)
			if err != nil {
				return nil, fmt.Errorf("cmap format 14: default UVS ranges truncated")
			}
			vr.defaults = make([]unicodeRange, cnt)
			for j := range vr.defaults {
				vr.defaults[j] = unicodeRange{start: rune(u24(buf[4*j:])), count: buf[4*j+3]}
			}
		}
		if off := u32(rec[7:]); off != 0 {
			d, err := b.from(int(off))
			if err != nil {
				return nil, fmt.Errorf("cmap format 14: non-default UVS offset out of bounds")
			}
			cnt, err := d.u32(0)
			if err != nil || cnt > 0x10FFFF {
				return nil, fmt.Errorf("cmap format 14: non-default UVS table truncated")
			}
			buf, err := d.view(4, int(cnt)*5)
			if err != nil {
				return nil, fmt.Errorf("cmap format 14: UVS mappings truncated")
			}
			vr.nonDefault = make([]uvsMapping, cnt)
			for j := range vr.nonDefault {
				vr.nonDefault[j] = uvsMapping{r: rune(u24(buf[5*j:])), g: GlyphIndex(u16(buf[5*j+3:]))}
			}
		}
		vs.records[i] = vr
	}
	return vs, nil
}

// Lookup searches for a variation sequence. If the sequence maps to the default glyph
// of r, isDefault is true and g is undefined.
func (vs *VariationSelectors) Lookup(r, selector rune) (g GlyphIndex, isDefault bool, found bool) {
	i := sort.Search(len(vs.records), func(i int) bool { return vs.records[i].selector >= selector })
	if i == len(vs.records) || vs.records[i].selector != selector {
		return 0, false, false
	}
	rec := vs.records[i]
	d := sort.Search(len(rec.defaults), func(j int) bool {
		return rec.defaults[j].start+rune(rec.defaults[j].count) >= r
	})
	if d < len(rec.defaults) && rec.defaults[d].start <= r {
		return 0, true, true
	}
	n := sort.Search(len(rec.nonDefault), func(j int) bool { return rec.nonDefault[j].r >= r })
	if n < len(rec.nonDefault) && rec.nonDefault[n].r == r {
		return rec.nonDefault[n].g, false, true
	}
	return 0, false, false
}
