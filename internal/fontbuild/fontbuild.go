/*
Package fontbuild synthesizes small OpenType fonts in memory.

Fonts produced by this package contain just enough structure to exercise font
parsing, shaping and layout: glyphs with rectangular or hand-made outlines, a
Unicode cmap, metrics, names and optional layout tables. They are used by tests
and by the demo commands of otcli, so that no binary font files have to be shipped.

	b := fontbuild.New()
	a := b.AddGlyph(fontbuild.Glyph{Name: "A", Advance: 600, Contours: fontbuild.Rect(50, 0, 550, 700)})
	b.Map('A', a)
	data := b.Build()

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontbuild

import (
	"sort"
	"unicode/utf16"
)

// Point is an outline point in font units.
type Point struct {
	X, Y    int16
	OnCurve bool
}

// Component is a component of a composite glyph.
type Component struct {
	Glyph  uint16
	DX, DY int16
	Scale  float64 // 0 means no scaling
}

// Glyph describes a glyph to include in a font.
type Glyph struct {
	Name       string
	Advance    uint16
	VAdvance   uint16 // vertical advance, used if the builder is Vertical
	TopBearing int16  // top side bearing, used if the builder is Vertical
	Contours   [][]Point
	Components []Component
}

// Rect returns a single rectangular contour with on-curve points.
func Rect(x0, y0, x1, y1 int16) [][]Point {
	return [][]Point{{
		{X: x0, Y: y0, OnCurve: true},
		{X: x0, Y: y1, OnCurve: true},
		{X: x1, Y: y1, OnCurve: true},
		{X: x1, Y: y0, OnCurve: true},
	}}
}

// Builder collects the ingredients of a font.
type Builder struct {
	UnitsPerEm         uint16
	Ascender           int16
	Descender          int16
	LineGap            int16
	XHeight, CapHeight int16
	UnderlinePosition  int16
	UnderlineThickness int16
	StrikeoutPosition  int16
	StrikeoutSize      int16
	FamilyName         string
	SubfamilyName      string
	CFF                bool // CFF outlines instead of glyf/loca
	LongLoca           bool
	Vertical           bool // include vhea/vmtx
	WeightClass        uint16
	glyphs             []Glyph
	cmap               map[rune]uint16
	variants           map[[2]rune]uint16
	defaultVariants    map[[2]rune]bool
	tables             map[string][]byte
}

// New creates a builder for a font with a .notdef glyph and default metrics
// (1000 units per em, ascender 800, descender -200).
func New() *Builder {
	b := &Builder{
		UnitsPerEm:         1000,
		Ascender:           800,
		Descender:          -200,
		XHeight:            500,
		CapHeight:          700,
		UnderlinePosition:  -100,
		UnderlineThickness: 50,
		StrikeoutPosition:  300,
		StrikeoutSize:      50,
		FamilyName:         "Synthetic",
		SubfamilyName:      "Regular",
		WeightClass:        400,
		cmap:               make(map[rune]uint16),
		variants:           make(map[[2]rune]uint16),
		defaultVariants:    make(map[[2]rune]bool),
		tables:             make(map[string][]byte),
	}
	b.AddGlyph(Glyph{Name: ".notdef", Advance: 500, Contours: Rect(50, 0, 450, 700)})
	return b
}

// AddGlyph appends a glyph and returns its glyph index.
func (b *Builder) AddGlyph(g Glyph) uint16 {
	b.glyphs = append(b.glyphs, g)
	return uint16(len(b.glyphs) - 1)
}

// NumGlyphs returns the number of glyphs added so far, including .notdef.
func (b *Builder) NumGlyphs() int {
	return len(b.glyphs)
}

// Map maps a codepoint to a glyph.
func (b *Builder) Map(r rune, g uint16) {
	b.cmap[r] = g
}

// MapVariant maps a variation sequence to a glyph (non-default UVS).
func (b *Builder) MapVariant(base, selector rune, g uint16) {
	b.variants[[2]rune{base, selector}] = g
}

// DefaultVariant declares a variation sequence to use the default glyph of base.
func (b *Builder) DefaultVariant(base, selector rune) {
	b.defaultVariants[[2]rune{base, selector}] = true
}

// Table adds a raw table, e.g. a GSUB table created with LayoutTable.
func (b *Builder) Table(tag string, data []byte) {
	b.tables[(tag + "    ")[:4]] = data
}

// Build assembles the font.
func (b *Builder) Build() []byte {
	tables := make(map[string][]byte)
	for tag, data := range b.tables {
		tables[tag] = data
	}
	if b.CFF {
		tables["CFF "] = b.buildCFF()
	} else {
		glyf, loca := b.buildGlyf()
		tables["glyf"], tables["loca"] = glyf, loca
	}
	tables["head"] = b.buildHead()
	tables["hhea"] = b.buildHHea()
	tables["hmtx"] = b.buildHMtx(false)
	tables["maxp"] = b.buildMaxP()
	tables["cmap"] = b.buildCMap()
	tables["OS/2"] = b.buildOS2()
	tables["post"] = b.buildPost()
	tables["name"] = b.buildName()
	if b.Vertical {
		tables["vhea"] = b.buildVHea()
		tables["vmtx"] = b.buildHMtx(true)
	}
	version := uint32(0x00010000)
	if b.CFF {
		version = 0x4f54544f
	}
	return Assemble(version, tables)
}

// Assemble writes an sfnt container for a set of tables.
func Assemble(version uint32, tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	w := &writer{}
	w.u32(version)
	n := uint16(len(tags))
	w.u16(n)
	sr, es := uint16(1), uint16(0)
	for sr*2 <= n {
		sr *= 2
		es++
	}
	w.u16(sr * 16)
	w.u16(es)
	w.u16(n*16 - sr*16)
	offset := uint32(12 + 16*len(tags))
	for _, tag := range tags {
		data := tables[tag]
		w.tag(tag)
		w.u32(checksum(data))
		w.u32(offset)
		w.u32(uint32(len(data)))
		offset += uint32((len(data) + 3) &^ 3)
	}
	for _, tag := range tags {
		w.bytes(tables[tag])
		w.pad4()
	}
	return w.b
}

// Collection wraps fonts into a 'ttcf' font collection. Table offsets of the
// member fonts are rewritten.
func Collection(fonts ...[]byte) []byte {
	w := &writer{}
	w.tag("ttcf")
	w.u32(0x00010000)
	w.u32(uint32(len(fonts)))
	offPos := make([]int, len(fonts))
	for i := range fonts {
		offPos[i] = w.reserve32()
	}
	for i, f := range fonts {
		w.pad4()
		base := uint32(w.len())
		w.put32(offPos[i], base)
		member := append([]byte(nil), f...)
		n := int(uint16(member[4])<<8 | uint16(member[5]))
		for k := 0; k < n; k++ {
			rec := member[12+16*k:]
			off := uint32(rec[8])<<24 | uint32(rec[9])<<16 | uint32(rec[10])<<8 | uint32(rec[11])
			off += base
			rec[8], rec[9], rec[10], rec[11] = byte(off>>24), byte(off>>16), byte(off>>8), byte(off)
		}
		w.bytes(member)
	}
	return w.b
}

func checksum(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		var v uint32
		for k := 0; k < 4; k++ {
			v <<= 8
			if i+k < len(data) {
				v |= uint32(data[i+k])
			}
		}
		sum += v
	}
	return sum
}

func (b *Builder) bounds() (xmin, ymin, xmax, ymax int16) {
	first := true
	for _, g := range b.glyphs {
		for _, c := range g.Contours {
			for _, p := range c {
				if first {
					xmin, ymin, xmax, ymax = p.X, p.Y, p.X, p.Y
					first = false
				}
				xmin, ymin = min(xmin, p.X), min(ymin, p.Y)
				xmax, ymax = max(xmax, p.X), max(ymax, p.Y)
			}
		}
	}
	return
}

func (b *Builder) buildHead() []byte {
	w := &writer{}
	w.u32(0x00010000) // version
	w.u32(0x00010000) // fontRevision
	w.u32(0)          // checksumAdjustment
	w.u32(0x5F0F3CF5) // magic
	w.u16(0)          // flags
	w.u16(b.UnitsPerEm)
	w.u32(0) // created
	w.u32(0)
	w.u32(0) // modified
	w.u32(0)
	xmin, ymin, xmax, ymax := b.bounds()
	w.i16(xmin)
	w.i16(ymin)
	w.i16(xmax)
	w.i16(ymax)
	w.u16(0) // macStyle
	w.u16(8) // lowestRecPPEM
	w.i16(2) // fontDirectionHint
	if b.LongLoca {
		w.i16(1)
	} else {
		w.i16(0)
	}
	w.i16(0) // glyphDataFormat
	return w.b
}

func (b *Builder) buildHHea() []byte {
	w := &writer{}
	w.u32(0x00010000)
	w.i16(b.Ascender)
	w.i16(b.Descender)
	w.i16(b.LineGap)
	var maxAdv uint16
	for _, g := range b.glyphs {
		maxAdv = max(maxAdv, g.Advance)
	}
	w.u16(maxAdv)
	w.i16(0) // minLeftSideBearing
	w.i16(0) // minRightSideBearing
	_, _, xmax, _ := b.bounds()
	w.i16(xmax)
	w.i16(1) // caretSlopeRise
	w.i16(0) // caretSlopeRun
	w.i16(0) // caretOffset
	for i := 0; i < 4; i++ {
		w.i16(0)
	}
	w.i16(0) // metricDataFormat
	w.u16(uint16(len(b.glyphs)))
	return w.b
}

func (b *Builder) buildVHea() []byte {
	w := &writer{}
	w.u32(0x00011000)
	w.i16(int16(b.UnitsPerEm / 2))
	w.i16(-int16(b.UnitsPerEm / 2))
	w.i16(0)
	w.u16(b.UnitsPerEm)
	// minTop/BottomSideBearing, yMaxExtent, caret slope and offset,
	// 4 reserved, metricDataFormat
	for i := 0; i < 11; i++ {
		w.i16(0)
	}
	w.u16(uint16(len(b.glyphs))) // numOfLongVerMetrics
	return w.b
}

func (b *Builder) buildHMtx(vertical bool) []byte {
	w := &writer{}
	for _, g := range b.glyphs {
		if vertical {
			adv := g.VAdvance
			if adv == 0 {
				adv = b.UnitsPerEm
			}
			w.u16(adv)
			w.i16(g.TopBearing)
			continue
		}
		w.u16(g.Advance)
		var lsb int16
		for i, c := range g.Contours {
			for k, p := range c {
				if (i == 0 && k == 0) || p.X < lsb {
					lsb = p.X
				}
			}
		}
		w.i16(lsb)
	}
	return w.b
}

func (b *Builder) buildMaxP() []byte {
	w := &writer{}
	if b.CFF {
		w.u32(0x00005000)
		w.u16(uint16(len(b.glyphs)))
		return w.b
	}
	w.u32(0x00010000)
	w.u16(uint16(len(b.glyphs)))
	var maxPts, maxCont uint16
	for _, g := range b.glyphs {
		n := 0
		for _, c := range g.Contours {
			n += len(c)
		}
		maxPts = max(maxPts, uint16(n))
		maxCont = max(maxCont, uint16(len(g.Contours)))
	}
	w.u16(maxPts)
	w.u16(maxCont)
	w.u16(0) // maxCompositePoints
	w.u16(0) // maxCompositeContours
	w.u16(2) // maxZones
	for i := 0; i < 6; i++ {
		w.u16(0) // twilight points, storage, fdefs, idefs, stack, instructions
	}
	w.u16(0) // maxComponentElements
	w.u16(4) // maxComponentDepth
	return w.b
}

func (b *Builder) buildOS2() []byte {
	w := &writer{}
	w.u16(4)   // version
	w.i16(500) // xAvgCharWidth
	w.u16(b.WeightClass)
	w.u16(5) // widthClass
	w.u16(0) // fsType
	for i := 0; i < 8; i++ {
		w.i16(0) // sub/superscript metrics
	}
	w.i16(b.StrikeoutSize)
	w.i16(b.StrikeoutPosition)
	w.i16(0)                  // familyClass
	w.bytes(make([]byte, 10)) // panose
	w.bytes(make([]byte, 16)) // unicode ranges
	w.tag("NONE")             // achVendID
	w.u16(1 << 6)             // fsSelection: REGULAR
	w.u16(0x20)               // firstCharIndex
	w.u16(0xffff)             // lastCharIndex
	w.i16(b.Ascender)
	w.i16(b.Descender)
	w.i16(b.LineGap)
	w.u16(uint16(b.Ascender))
	w.u16(uint16(-b.Descender))
	w.u32(1) // code page ranges
	w.u32(0)
	w.i16(b.XHeight)
	w.i16(b.CapHeight)
	w.u16(0) // defaultChar
	w.u16(0x20)
	w.u16(0) // maxContext
	return w.b
}

func (b *Builder) buildPost() []byte {
	w := &writer{}
	named := true
	for _, g := range b.glyphs {
		named = named && g.Name != ""
	}
	if named {
		w.u32(0x00020000)
	} else {
		w.u32(0x00030000)
	}
	w.u32(0) // italicAngle
	w.i16(b.UnderlinePosition)
	w.i16(b.UnderlineThickness)
	w.u32(0) // isFixedPitch
	w.u32(0)
	w.u32(0)
	w.u32(0)
	w.u32(0)
	if !named {
		return w.b
	}
	w.u16(uint16(len(b.glyphs)))
	var strings []string
	for i, g := range b.glyphs {
		if i == 0 && g.Name == ".notdef" {
			w.u16(0)
			continue
		}
		w.u16(uint16(258 + len(strings)))
		strings = append(strings, g.Name)
	}
	for _, s := range strings {
		w.u8(uint8(len(s)))
		w.bytes([]byte(s))
	}
	return w.b
}

func (b *Builder) buildName() []byte {
	type rec struct {
		platform, encoding, language, id uint16
		data                             []byte
	}
	utf16be := func(s string) []byte {
		var out []byte
		for _, u := range utf16.Encode([]rune(s)) {
			out = append(out, byte(u>>8), byte(u))
		}
		return out
	}
	full := b.FamilyName + " " + b.SubfamilyName
	recs := []rec{
		{1, 0, 0, 1, []byte(b.FamilyName)},
		{3, 1, 0x409, 1, utf16be(b.FamilyName)},
		{3, 1, 0x409, 2, utf16be(b.SubfamilyName)},
		{3, 1, 0x409, 4, utf16be(full)},
		{3, 1, 0x409, 6, utf16be(b.FamilyName + "-" + b.SubfamilyName)},
	}
	w := &writer{}
	w.u16(0)
	w.u16(uint16(len(recs)))
	w.u16(uint16(6 + 12*len(recs)))
	var storage []byte
	for _, r := range recs {
		w.u16(r.platform)
		w.u16(r.encoding)
		w.u16(r.language)
		w.u16(r.id)
		w.u16(uint16(len(r.data)))
		w.u16(uint16(len(storage)))
		storage = append(storage, r.data...)
	}
	w.bytes(storage)
	return w.b
}

func (b *Builder) buildCMap() []byte {
	runes := make([]rune, 0, len(b.cmap))
	for r := range b.cmap {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	sub4 := b.cmapFormat4(runes)
	sub12 := b.cmapFormat12(runes)
	sub14 := b.cmapFormat14()
	n := 2
	if sub14 != nil {
		n = 3
	}
	w := &writer{}
	w.u16(0)
	w.u16(uint16(n))
	hdr := 4 + 8*n
	if sub14 != nil {
		w.u16(0)
		w.u16(5)
		w.u32(uint32(hdr + len(sub4) + len(sub12)))
	}
	w.u16(3)
	w.u16(1)
	w.u32(uint32(hdr))
	w.u16(3)
	w.u16(10)
	w.u32(uint32(hdr + len(sub4)))
	w.bytes(sub4)
	w.bytes(sub12)
	w.bytes(sub14)
	return w.b
}

// cmapFormat4 writes one segment per BMP codepoint.
func (b *Builder) cmapFormat4(runes []rune) []byte {
	var bmp []rune
	for _, r := range runes {
		if r < 0xffff {
			bmp = append(bmp, r)
		}
	}
	segs := len(bmp) + 1
	w := &writer{}
	w.u16(4)
	w.u16(uint16(16 + 8*segs))
	w.u16(0)
	w.u16(uint16(2 * segs))
	sr, es := 1, 0
	for sr*2 <= segs {
		sr *= 2
		es++
	}
	w.u16(uint16(2 * sr))
	w.u16(uint16(es))
	w.u16(uint16(2*segs - 2*sr))
	for _, r := range bmp {
		w.u16(uint16(r))
	}
	w.u16(0xffff)
	w.u16(0) // reservedPad
	for _, r := range bmp {
		w.u16(uint16(r))
	}
	w.u16(0xffff)
	for _, r := range bmp {
		w.u16(b.cmap[r] - uint16(r))
	}
	w.u16(1)
	for i := 0; i < segs; i++ {
		w.u16(0)
	}
	return w.b
}

func (b *Builder) cmapFormat12(runes []rune) []byte {
	w := &writer{}
	w.u16(12)
	w.u16(0)
	w.u32(uint32(16 + 12*len(runes)))
	w.u32(0)
	w.u32(uint32(len(runes)))
	for _, r := range runes {
		w.u32(uint32(r))
		w.u32(uint32(r))
		w.u32(uint32(b.cmap[r]))
	}
	return w.b
}

func (b *Builder) cmapFormat14() []byte {
	if len(b.variants) == 0 && len(b.defaultVariants) == 0 {
		return nil
	}
	type uvsEntry struct {
		dflt    []rune
		nondflt [][2]rune // base, glyph
	}
	bySel := make(map[rune]*uvsEntry)
	var sels []rune
	entry := func(sel rune) *uvsEntry {
		if e, ok := bySel[sel]; ok {
			return e
		}
		sels = append(sels, sel)
		bySel[sel] = &uvsEntry{}
		return bySel[sel]
	}
	for k, g := range b.variants {
		e := entry(k[1])
		e.nondflt = append(e.nondflt, [2]rune{k[0], rune(g)})
	}
	for k := range b.defaultVariants {
		e := entry(k[1])
		e.dflt = append(e.dflt, k[0])
	}
	sort.Slice(sels, func(i, j int) bool { return sels[i] < sels[j] })
	w := &writer{}
	w.u16(14)
	lenPos := w.reserve32()
	w.u32(uint32(len(sels)))
	type patch struct{ dflt, nondflt int }
	patches := make([]patch, len(sels))
	for i, sel := range sels {
		w.u24(uint32(sel))
		patches[i] = patch{w.reserve32(), w.reserve32()}
	}
	for i, sel := range sels {
		e := bySel[sel]
		if len(e.dflt) > 0 {
			sort.Slice(e.dflt, func(i, j int) bool { return e.dflt[i] < e.dflt[j] })
			w.put32(patches[i].dflt, uint32(w.len()))
			w.u32(uint32(len(e.dflt)))
			for _, r := range e.dflt {
				w.u24(uint32(r))
				w.u8(0)
			}
		}
		if len(e.nondflt) > 0 {
			sort.Slice(e.nondflt, func(i, j int) bool { return e.nondflt[i][0] < e.nondflt[j][0] })
			w.put32(patches[i].nondflt, uint32(w.len()))
			w.u32(uint32(len(e.nondflt)))
			for _, m := range e.nondflt {
				w.u24(uint32(m[0]))
				w.u16(uint16(m[1]))
			}
		}
	}
	w.put32(lenPos, uint32(w.len()))
	return w.b
}
