package ot

import (
	"sort"
)

// Font represents the internal structure of an OpenType font.
// It is used to navigate properties of a font for shaping, outline resolution
// and text layout.
//
// A Font is immutable after Parse returns and may be shared between goroutines.
// It needs ongoing access to the font's byte data, which must not be modified
// while the Font remains in use.
type Font struct {
	Header    *FontHeader
	Binary    []byte        // font bytes; for collection members the complete collection
	Directory []TableRecord // table records, sorted by offset
	tables    map[Tag]Table
	CMap      *CMapTable  // required
	Head      *HeadTable  // required
	HHea      *HHeaTable  // required
	HMtx      *HMtxTable  // required
	MaxP      *MaxPTable  // required
	OS2       *OS2Table   // optional
	VHea      *VHeaTable  // optional
	VMtx      *HMtxTable  // optional, vertical metrics share the hmtx layout
	Post      *PostTable  // optional
	Name      *NameTable  // optional
	Kern      *KernTable  // optional
	Glyf      *GlyfTable  // TrueType outlines, with loca
	CFF       *CFFTable   // CFF or CFF2 outlines
	COLR      *COLRTable  // optional
	CPAL      *CPALTable  // optional
	SVG       *SVGTable   // optional
	Variation struct {    // font variations, all optional
		FVar *FVarTable
		AVar *AVarTable
		GVar *GVarTable
		HVar *HVarTable
	}
	Layout struct { // OpenType core layout tables, all optional
		GSub         *GSubTable
		GPos         *GPosTable
		GDef         *GDefTable
		Requirements LayoutRequirements
	}
	parseErrors   []FontError
	parseWarnings []FontWarning
}

// FontHeader is the offset table at the start of an sfnt.
//
// OpenType fonts that contain TrueType outlines use the value of 0x00010000
// for the FontType. OpenType fonts containing CFF data (version 1 or 2)
// use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
// Apple's 'true' is accepted as TrueType as well.
type FontHeader struct {
	FontType      uint32
	TableCount    uint16
	SearchRange   uint16
	EntrySelector uint16
	RangeShift    uint16
}

// Known sfnt version tags.
const (
	SFNTVersionTrueType uint32 = 0x00010000
	SFNTVersionOTTO     uint32 = 0x4f54544f // OTTO
	SFNTVersionApple    uint32 = 0x74727565 // true
	ttcTag              uint32 = 0x74746366 // ttcf
)

// IsCFF returns true if the font header announces CFF outlines.
func (h *FontHeader) IsCFF() bool {
	return h != nil && h.FontType == SFNTVersionOTTO
}

// TableRecord is an entry of the table directory.
type TableRecord struct {
	Tag      Tag
	Checksum uint32
	Offset   uint32
	Length   uint32
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// Tables which have been loaded but are not interpreted by this package
// are returned as generic tables, i.e. no table information is dropped.
// Table tag names are case-sensitive, following the names in the OpenType specification.
func (otf *Font) Table(tag Tag) Table {
	if otf == nil {
		return nil
	}
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// TableTags returns a list of tags, one for each table loaded, in alphabetical order.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// NumGlyphs returns the number of glyphs in the font, as stated by table maxp.
func (otf *Font) NumGlyphs() int {
	if otf == nil || otf.MaxP == nil {
		return 0
	}
	return otf.MaxP.NumGlyphs
}

// HasTrueTypeOutlines is true for fonts with glyf/loca tables.
func (otf *Font) HasTrueTypeOutlines() bool {
	return otf.Glyf != nil
}

// IsVariable is true for fonts with an fvar table.
func (otf *Font) IsVariable() bool {
	return otf.Variation.FVar != nil && len(otf.Variation.FVar.Axes) > 0
}

// Errors returns all errors encountered during font parsing.
// These errors represent issues that were found but did not prevent parsing from completing.
func (otf *Font) Errors() []FontError {
	if otf.parseErrors == nil {
		return []FontError{}
	}
	return otf.parseErrors
}

// Warnings returns all warnings encountered during font parsing.
func (otf *Font) Warnings() []FontWarning {
	if otf.parseWarnings == nil {
		return []FontWarning{}
	}
	return otf.parseWarnings
}

// GlyphIndex is a glyph index in a font. Glyph 0 is '.notdef'.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the OpenType specification as an
// array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline.
type Tag uint32

// Frequently used tags.
var (
	DFLT = T("DFLT")
	dflt = T("dflt")
)

// MakeTag creates a Tag from 4 bytes, e.g.,
//
//	MakeTag([]byte("cmap"))
//
// If b is shorter or longer, it will be silently extended or cut as appropriate.
func MakeTag(b []byte) Tag {
	var t [4]byte
	copy(t[:], b)
	if len(b) < 4 {
		for i := len(b); i < 4; i++ {
			t[i] = ' '
		}
	}
	return Tag(u32(t[:]))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	return string([]byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	})
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various OpenType font tables.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; to be treated as read-only
	Self() TableSelf          // reference to itself
}

// tableBase is a common parent for all kinds of OpenType tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag
	offset uint32
	length uint32
	self   any
}

func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

func (tb *tableBase) init(self any, tag Tag, b binarySegm, offset, size uint32) {
	tb.data = b
	tb.name = tag
	tb.offset = offset
	tb.length = size
	tb.self = self
}

type genericTable struct {
	tableBase
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{}
	t.init(t, tag, b, offset, size)
	return t
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	if tself.tableBase == nil {
		return 0
	}
	return tself.tableBase.name
}

func as[T any](tself TableSelf) T {
	var zero T
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return zero
	}
	if t, ok := tself.tableBase.self.(T); ok {
		return t
	}
	return zero
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable { return as[*HeadTable](tself) }

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable { return as[*HHeaTable](tself) }

// AsVHea returns this table as a vhea table, or nil.
func (tself TableSelf) AsVHea() *VHeaTable { return as[*VHeaTable](tself) }

// AsHMtx returns this table as a hmtx or vmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable { return as[*HMtxTable](tself) }

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable { return as[*MaxPTable](tself) }

// AsOS2 returns this table as an OS/2 table, or nil.
func (tself TableSelf) AsOS2() *OS2Table { return as[*OS2Table](tself) }

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable { return as[*CMapTable](tself) }

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable { return as[*LocaTable](tself) }

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable { return as[*GlyfTable](tself) }

// AsCFF returns this table as a CFF or CFF2 table, or nil.
func (tself TableSelf) AsCFF() *CFFTable { return as[*CFFTable](tself) }

// AsKern returns this table as a kern table, or nil.
func (tself TableSelf) AsKern() *KernTable { return as[*KernTable](tself) }

// AsPost returns this table as a post table, or nil.
func (tself TableSelf) AsPost() *PostTable { return as[*PostTable](tself) }

// AsName returns this table as a name table, or nil.
func (tself TableSelf) AsName() *NameTable { return as[*NameTable](tself) }

// AsGSub returns this table as a GSUB table, or nil.
func (tself TableSelf) AsGSub() *GSubTable { return as[*GSubTable](tself) }

// AsGPos returns this table as a GPOS table, or nil.
func (tself TableSelf) AsGPos() *GPosTable { return as[*GPosTable](tself) }

// AsGDef returns this table as a GDEF table, or nil.
func (tself TableSelf) AsGDef() *GDefTable { return as[*GDefTable](tself) }

// AsCOLR returns this table as a COLR table, or nil.
func (tself TableSelf) AsCOLR() *COLRTable { return as[*COLRTable](tself) }

// AsCPAL returns this table as a CPAL table, or nil.
func (tself TableSelf) AsCPAL() *CPALTable { return as[*CPALTable](tself) }

// AsSVG returns this table as an SVG table, or nil.
func (tself TableSelf) AsSVG() *SVGTable { return as[*SVGTable](tself) }

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font.
type HeadTable struct {
	tableBase
	Flags            uint16
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	Created          int64  // seconds since 1904-01-01
	Modified         int64
	XMin, YMin       int16 // bounding box over all glyphs
	XMax, YMax       int16
	MacStyle         uint16
	LowestRecPPEM    uint16
	IndexToLocFormat int16 // 0 for short offsets, 1 for long
}

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	NumberOfHMetrics    int
}

// VHeaTable contains information for vertical layout.
// Its layout is identical to hhea.
type VHeaTable struct {
	tableBase
	VertTypoAscender     int16
	VertTypoDescender    int16
	VertTypoLineGap      int16
	AdvanceHeightMax     uint16
	MinTopSideBearing    int16
	MinBottomSideBearing int16
	YMaxExtent           int16
	NumOfLongVerMetrics  int
}

// MaxPTable establishes the memory requirements for this font.
type MaxPTable struct {
	tableBase
	Version           uint32
	NumGlyphs         int
	MaxPoints         uint16 // version 1.0 only
	MaxContours       uint16
	MaxComponentDepth uint16
}

// HMtxTable contains metric information for the horizontal layout each of the glyphs in
// the font. The vmtx table has the same structure and is represented by this type, too.
//
// Each element in the contained hMetrics-array is a record containing an advance width
// and a left side bearing (lsb). The value numOfHMetrics comes from the 'hhea' table.
// If the font is monospaced, only one entry need be in the array but that entry is
// required. The last entry applies to all subsequent glyphs.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
	numGlyphs        int
}

// HMetrics returns the advance and the side bearing for a glyph.
// For vmtx these are advance height and top side bearing.
func (t *HMtxTable) HMetrics(g GlyphIndex) (uint16, int16, bool) {
	if t == nil || t.NumberOfHMetrics == 0 || int(g) >= t.numGlyphs {
		return 0, 0, false
	}
	n := t.NumberOfHMetrics
	if int(g) < n {
		rec, err := t.data.view(int(g)*4, 4)
		if err != nil {
			return 0, 0, false
		}
		return u16(rec), i16(rec[2:]), true
	}
	last, err := t.data.view((n-1)*4, 2)
	if err != nil {
		return 0, 0, false
	}
	lsb, err := t.data.i16(n*4 + (int(g)-n)*2)
	if err != nil {
		return u16(last), 0, true
	}
	return u16(last), lsb, true
}

// OS2Table contains metrics required in OpenType fonts. Version 0 tables
// (68 bytes) carry no typographic metrics; these are zero then.
type OS2Table struct {
	tableBase
	Version            uint16
	XAvgCharWidth      int16
	WeightClass        uint16
	WidthClass         uint16
	FsType             uint16
	SubscriptYSize     int16
	SuperscriptYSize   int16
	StrikeoutSize      int16
	StrikeoutPosition  int16
	FamilyClass        int16
	FsSelection        uint16
	FirstCharIndex     uint16
	LastCharIndex      uint16
	TypoAscender       int16
	TypoDescender      int16
	TypoLineGap        int16
	WinAscent          uint16
	WinDescent         uint16
	XHeight            int16 // version ≥ 2
	CapHeight          int16 // version ≥ 2
	UseTypoMetricsFlag bool
}
