package ot

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Code comments often cite passages from the OpenType specification version 1.9;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Maximum reasonable counts for OpenType table structures.
// These limits prevent malicious fonts from claiming unreasonably large counts
// that could lead to excessive memory allocation or out-of-bounds reads.
const (
	MaxTableCount     = 512   // Table directory entries
	MaxScriptCount    = 200   // Scripts: typically < 10
	MaxLangSysCount   = 300   // Language systems per script
	MaxFeatureCount   = 1000  // Features: typically < 200
	MaxLookupCount    = 4000  // Lookups: typically < 500
	MaxSubtableCount  = 2000  // Subtables per lookup
	MaxGlyphCount     = 65536 // Maximum glyph count (uint16 index)
	MaxCoverageCount  = 65535 // Coverage entries
	MaxClassDefCount  = 65535 // Class definition entries
	MaxSequenceLength = 256   // Glyphs in a context rule or ligature
	MaxFontsInTTC     = 256   // Members of a font collection
)

// Maximum recursion/nesting depths.
const (
	MaxExtensionDepth = 16 // Extension lookups pointing to extension lookups
	MaxPaintDepth     = 64 // COLRv1 paint graph nesting
	MaxCompositeDepth = 16 // Composite glyphs referencing composite glyphs
	MaxSubrDepth      = 10 // CFF charstring subroutine calls
)

// MaxCompositeComponents limits the number of components of a fully resolved
// composite glyph.
const MaxCompositeComponents = 1024

// ---------------------------------------------------------------------------

// LoadOption influences the loading of a font.
type LoadOption func(*loadConfig)

type loadConfig struct {
	tables map[Tag]bool // nil: load all tables
}

// WithTables restricts loading to the given tables. Required tables are always loaded.
// Tables not requested remain absent from the Font, as if the font did not contain them.
func WithTables(tags ...Tag) LoadOption {
	return func(c *loadConfig) {
		if c.tables == nil {
			c.tables = make(map[Tag]bool)
		}
		for _, t := range tags {
			c.tables[t] = true
		}
	}
}

func (c *loadConfig) wants(tag Tag) bool {
	if c.tables == nil || isRequiredTable(tag) {
		return true
	}
	if c.tables[tag] {
		return true
	}
	// outline tables travel in pairs
	switch tag {
	case T("loca"):
		return c.tables[T("glyf")]
	case T("glyf"):
		return c.tables[T("loca")]
	}
	return false
}

// RequiredTables lists the tables a font must contain to be usable for shaping and
// layout. Additionally, a font must contain either glyf+loca or CFF/CFF2.
var RequiredTables = []string{
	"cmap", "head", "hhea", "hmtx", "maxp",
}

func isRequiredTable(tag Tag) bool {
	for _, t := range RequiredTables {
		if T(t) == tag {
			return true
		}
	}
	switch tag {
	case T("glyf"), T("loca"), T("CFF "), T("CFF2"):
		return true
	}
	return false
}

// ---------------------------------------------------------------------------

// Parse parses an OpenType font from a byte slice.
// An ot.Font needs ongoing access to the font's byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
//
// If data contains a font collection, the first font of the collection is parsed.
// Use ParseCollection to get all of them.
func Parse(data []byte, opts ...LoadOption) (*Font, error) {
	if len(data) >= 4 && u32(data) == ttcTag {
		offsets, err := collectionOffsets(data)
		if err != nil {
			return nil, err
		}
		return parseAt(data, int(offsets[0]), opts)
	}
	return parseAt(data, 0, opts)
}

// parseAt parses the font whose offset table starts at start within data.
// Table offsets are relative to the beginning of data.
func parseAt(data []byte, start int, opts []LoadOption) (*Font, error) {
	cfg := &loadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	ec := &errorCollector{}
	r, err := NewReaderAt(data, start)
	if err != nil {
		return nil, errFontFormat("font offset beyond end of data")
	}
	h, err := readFontHeader(r)
	if err != nil {
		return nil, errFontFormat(fmt.Sprintf("header: %v", err))
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == SFNTVersionOTTO || h.FontType == SFNTVersionTrueType || h.FontType == SFNTVersionApple) {
		return nil, ec.critical(0, "Header", fmt.Sprintf("font type not supported: %x", h.FontType), 0)
	}
	if int(h.TableCount) > MaxTableCount {
		return nil, ec.critical(0, "TableRecords", fmt.Sprintf("table count too large: %d", h.TableCount), 4)
	}
	otf := &Font{Header: h, Binary: data, tables: make(map[Tag]Table)}
	// "The Offset Table is followed immediately by the Table Record entries",
	// 16 bytes each.
	records := make([]TableRecord, 0, h.TableCount)
	seen := make(map[Tag]bool, h.TableCount)
	for i := 0; i < int(h.TableCount); i++ {
		rec, err := readTableRecord(r)
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("table record entries: %v", err))
		}
		if seen[rec.Tag] {
			return nil, ec.critical(rec.Tag, "TableRecords", "duplicate table record", uint32(r.Pos()))
		}
		seen[rec.Tag] = true
		end, err := checkedAddUint32(rec.Offset, rec.Length)
		if err != nil || end > uint32(len(data)) {
			return nil, ec.critical(rec.Tag, "Bounds",
				fmt.Sprintf("bounds [%d:%d] exceed font size %d", rec.Offset, end, len(data)), rec.Offset)
		}
		if rec.Offset&3 != 0 { // "all tables must begin on four byte boundaries"
			ec.addWarning(rec.Tag, "table does not start at a 4-byte boundary", rec.Offset)
		}
		records = append(records, rec)
	}
	// Tables are consumed in ascending offset order, regardless of the order of the
	// directory. We never seek backwards.
	sort.SliceStable(records, func(i, j int) bool { return records[i].Offset < records[j].Offset })
	otf.Directory = records
	tr := NewReader(data)
	for _, rec := range records {
		if !cfg.wants(rec.Tag) {
			continue
		}
		if _, err := tr.Seek(int64(rec.Offset), io.SeekStart); err != nil {
			return nil, errFontFormat(fmt.Sprintf("table %s: %v", rec.Tag, err))
		}
		b, err := tr.Bytes(int(rec.Length))
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("table %s: %v", rec.Tag, err))
		}
		table, err := parseTable(rec.Tag, b, rec.Offset, rec.Length, ec)
		if err != nil {
			if isRequiredTable(rec.Tag) {
				return nil, wrapInvalid(rec.Tag, err)
			}
			ec.addError(rec.Tag, "Table", err.Error(), SeverityMajor, rec.Offset)
			tracer().Infof("table %s cannot be interpreted, will be ignored: %v", rec.Tag, err)
			continue
		}
		otf.tables[rec.Tag] = table
	}
	if err := linkTables(otf, ec); err != nil {
		return nil, err
	}
	if err := validateCrossTableConsistency(otf, ec); err != nil {
		return nil, err
	}
	extractLayoutInfo(otf, ec)
	otf.parseErrors = ec.errors
	otf.parseWarnings = ec.warnings
	return otf, nil
}

func wrapInvalid(tag Tag, err error) error {
	if errors.Is(err, ErrInvalidFont) {
		return err
	}
	return fmt.Errorf("%w: table %s: %v", ErrInvalidFont, tag, err)
}

func readFontHeader(r *Reader) (*FontHeader, error) {
	h := &FontHeader{}
	var err error
	if h.FontType, err = r.U32(); err != nil {
		return nil, err
	}
	if h.TableCount, err = r.U16(); err != nil {
		return nil, err
	}
	if h.SearchRange, err = r.U16(); err != nil {
		return nil, err
	}
	if h.EntrySelector, err = r.U16(); err != nil {
		return nil, err
	}
	h.RangeShift, err = r.U16()
	return h, err
}

func readTableRecord(r *Reader) (TableRecord, error) {
	b, err := r.Bytes(16)
	if err != nil {
		return TableRecord{}, err
	}
	return TableRecord{
		Tag:      Tag(u32(b)),
		Checksum: u32(b[4:]),
		Offset:   u32(b[8:]),
		Length:   u32(b[12:]),
	}, nil
}

// parseTable dispatches to the table parsers. Tables without a parser are kept as
// generic tables.
func parseTable(t Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	switch t {
	case T("head"):
		return parseHead(t, b, offset, size, ec)
	case T("hhea"):
		return parseHHea(t, b, offset, size, ec)
	case T("vhea"):
		return parseVHea(t, b, offset, size, ec)
	case T("maxp"):
		return parseMaxP(t, b, offset, size, ec)
	case T("hmtx"), T("vmtx"):
		return parseHMtx(t, b, offset, size, ec)
	case T("OS/2"):
		return parseOS2(t, b, offset, size, ec)
	case T("cmap"):
		return parseCMap(t, b, offset, size, ec)
	case T("loca"):
		return parseLoca(t, b, offset, size, ec)
	case T("glyf"):
		return parseGlyf(t, b, offset, size, ec)
	case T("CFF "), T("CFF2"):
		return parseCFF(t, b, offset, size, ec)
	case T("kern"):
		return parseKern(t, b, offset, size, ec)
	case T("post"):
		return parsePost(t, b, offset, size, ec)
	case T("name"):
		return parseName(t, b, offset, size, ec)
	case T("GDEF"):
		return parseGDef(t, b, offset, size, ec)
	case T("GSUB"):
		return parseGSub(t, b, offset, size, ec)
	case T("GPOS"):
		return parseGPos(t, b, offset, size, ec)
	case T("COLR"):
		return parseCOLR(t, b, offset, size, ec)
	case T("CPAL"):
		return parseCPAL(t, b, offset, size, ec)
	case T("SVG "):
		return parseSVG(t, b, offset, size, ec)
	case T("fvar"):
		return parseFVar(t, b, offset, size, ec)
	case T("avar"):
		return parseAVar(t, b, offset, size, ec)
	case T("gvar"):
		return parseGVar(t, b, offset, size, ec)
	case T("HVAR"):
		return parseHVar(t, b, offset, size, ec)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// linkTables checks for required tables, stores shortcuts to typed tables and
// resolves dependencies between tables (e.g., hmtx needs hhea and maxp).
func linkTables(otf *Font, ec *errorCollector) error {
	for _, tag := range RequiredTables {
		if otf.tables[T(tag)] == nil {
			return ec.critical(T(tag), "Missing", "missing required table "+tag, 0)
		}
	}
	otf.Head = otf.tables[T("head")].Self().AsHead()
	otf.HHea = otf.tables[T("hhea")].Self().AsHHea()
	otf.HMtx = otf.tables[T("hmtx")].Self().AsHMtx()
	otf.MaxP = otf.tables[T("maxp")].Self().AsMaxP()
	otf.CMap = otf.tables[T("cmap")].Self().AsCMap()
	numGlyphs := otf.MaxP.NumGlyphs
	otf.HMtx.NumberOfHMetrics = otf.HHea.NumberOfHMetrics
	otf.HMtx.numGlyphs = numGlyphs
	otf.CMap.numGlyphs = numGlyphs
	//
	loca, glyf := otf.Table(T("loca")), otf.Table(T("glyf"))
	cff := otf.Table(T("CFF "))
	if cff == nil {
		cff = otf.Table(T("CFF2"))
	}
	switch {
	case loca != nil && glyf != nil:
		l := loca.Self().AsLoca()
		if err := l.link(otf.Head.IndexToLocFormat, numGlyphs); err != nil {
			return ec.critical(T("loca"), "Size", err.Error(), 0)
		}
		otf.Glyf = glyf.Self().AsGlyf()
		otf.Glyf.loca = l
	case cff != nil:
		otf.CFF = cff.Self().AsCFF()
		if otf.CFF.NumGlyphs() != numGlyphs {
			ec.addWarning(cff.Self().NameTag(), fmt.Sprintf("CFF has %d charstrings, maxp states %d glyphs",
				otf.CFF.NumGlyphs(), numGlyphs), 0)
		}
	case glyf != nil:
		return ec.critical(T("loca"), "Missing", "missing required table loca", 0)
	default:
		return ec.critical(T("glyf"), "Missing", "missing outline tables: need glyf+loca or CFF", 0)
	}
	//
	if t := otf.Table(T("OS/2")); t != nil {
		otf.OS2 = t.Self().AsOS2()
	}
	if vh, vm := otf.Table(T("vhea")), otf.Table(T("vmtx")); vh != nil && vm != nil {
		otf.VHea = vh.Self().AsVHea()
		otf.VMtx = vm.Self().AsHMtx()
		otf.VMtx.NumberOfHMetrics = otf.VHea.NumOfLongVerMetrics
		otf.VMtx.numGlyphs = numGlyphs
	}
	if t := otf.Table(T("post")); t != nil {
		otf.Post = t.Self().AsPost()
		otf.Post.link(numGlyphs, ec)
	}
	if t := otf.Table(T("name")); t != nil {
		otf.Name = t.Self().AsName()
	}
	if t := otf.Table(T("kern")); t != nil {
		otf.Kern = t.Self().AsKern()
	}
	if t := otf.Table(T("COLR")); t != nil {
		otf.COLR = t.Self().AsCOLR()
	}
	if t := otf.Table(T("CPAL")); t != nil {
		otf.CPAL = t.Self().AsCPAL()
	}
	if t := otf.Table(T("SVG ")); t != nil {
		otf.SVG = t.Self().AsSVG()
	}
	if t := otf.Table(T("fvar")); t != nil {
		otf.Variation.FVar = as[*FVarTable](t.Self())
	}
	if t := otf.Table(T("avar")); t != nil {
		otf.Variation.AVar = as[*AVarTable](t.Self())
	}
	if t := otf.Table(T("gvar")); t != nil {
		otf.Variation.GVar = as[*GVarTable](t.Self())
	}
	if t := otf.Table(T("HVAR")); t != nil {
		otf.Variation.HVar = as[*HVarTable](t.Self())
	}
	if otf.Variation.FVar != nil {
		n := len(otf.Variation.FVar.Axes)
		if g := otf.Variation.GVar; g != nil && g.AxisCount != n {
			ec.addError(T("gvar"), "Header", "axis count does not match fvar", SeverityMajor, 0)
			otf.Variation.GVar = nil
		}
		if a := otf.Variation.AVar; a != nil && len(a.SegmentMaps) != n {
			ec.addError(T("avar"), "Header", "axis count does not match fvar", SeverityMajor, 0)
			otf.Variation.AVar = nil
		}
	}
	return nil
}

// validateCrossTableConsistency performs cross-table validation to ensure
// internal consistency between related tables.
func validateCrossTableConsistency(otf *Font, ec *errorCollector) error {
	numGlyphs := otf.MaxP.NumGlyphs
	if numGlyphs == 0 {
		return ec.critical(T("maxp"), "NumGlyphs", "font contains no glyphs", 0)
	}
	// hmtx contains NumberOfHMetrics longHorMetrics (4 bytes each) +
	// (numGlyphs - NumberOfHMetrics) leftSideBearings (2 bytes each)
	nhm := otf.HHea.NumberOfHMetrics
	if nhm == 0 || nhm > numGlyphs {
		return ec.critical(T("hhea"), "NumberOfHMetrics",
			fmt.Sprintf("value %d invalid for %d glyphs", nhm, numGlyphs), 0)
	}
	longMetricsSize, err := checkedMulInt(nhm, 4)
	if err != nil {
		return ec.critical(T("hmtx"), "Size", err.Error(), 0)
	}
	lsbSize, err := checkedMulInt(numGlyphs-nhm, 2)
	if err != nil {
		return ec.critical(T("hmtx"), "Size", err.Error(), 0)
	}
	if int(otf.HMtx.length) < longMetricsSize {
		return ec.critical(T("hmtx"), "Size",
			fmt.Sprintf("table size %d insufficient for %d metrics", otf.HMtx.length, nhm), 0)
	}
	if int(otf.HMtx.length) < longMetricsSize+lsbSize {
		ec.addError(T("hmtx"), "Size", "table truncated, side bearings missing", SeverityMinor, 0)
	}
	if otf.VMtx != nil {
		if n := otf.VHea.NumOfLongVerMetrics; n == 0 || n > numGlyphs || int(otf.VMtx.length) < n*4 {
			ec.addError(T("vmtx"), "Size", "vertical metrics inconsistent, ignored", SeverityMajor, 0)
			otf.VMtx, otf.VHea = nil, nil
		}
	}
	if upem := otf.Head.UnitsPerEm; upem < 16 || upem > 16384 {
		ec.addError(T("head"), "UnitsPerEm", fmt.Sprintf("unusual units per em: %d", upem), SeverityMinor, 0)
		if upem == 0 {
			return ec.critical(T("head"), "UnitsPerEm", "units per em must not be 0", 0)
		}
	}
	return nil
}

// extractLayoutInfo stores shortcuts to the advanced layout tables and checks
// layout requirements. Missing GDEF data makes lookups degrade, but is no fatal error.
func extractLayoutInfo(otf *Font, ec *errorCollector) {
	if t := otf.Table(T("GSUB")); t != nil {
		otf.Layout.GSub = t.Self().AsGSub()
		otf.Layout.Requirements.merge(otf.Layout.GSub.Requirements)
	}
	if t := otf.Table(T("GPOS")); t != nil {
		otf.Layout.GPos = t.Self().AsGPos()
		otf.Layout.Requirements.merge(otf.Layout.GPos.Requirements)
	}
	if t := otf.Table(T("GDEF")); t != nil {
		otf.Layout.GDef = t.Self().AsGDef()
	}
	req := otf.Layout.Requirements
	if req.NeedGlyphClassDef || req.NeedMarkAttachClassDef || req.NeedMarkGlyphSets {
		gdef := otf.Layout.GDef
		switch {
		case gdef == nil:
			ec.addError(T("GDEF"), "Missing", "lookup flags require a GDEF table", SeverityMajor, 0)
		case req.NeedMarkAttachClassDef && gdef.MarkAttachClassDef == nil:
			ec.addError(T("GDEF"), "MarkAttachClassDef", "missing required mark attachment classes", SeverityMajor, 0)
		case req.NeedMarkGlyphSets && len(gdef.MarkGlyphSets) == 0:
			ec.addError(T("GDEF"), "MarkGlyphSetsDef", "missing required mark glyph sets", SeverityMajor, 0)
		}
	}
}

// --- Metrics tables --------------------------------------------------------

func parseHead(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 54 {
		return nil, ec.critical(tag, "Size", "table too small", offset)
	}
	t := &HeadTable{}
	t.init(t, tag, b, offset, size)
	if magic := u32(b[12:]); magic != 0x5F0F3CF5 {
		ec.addWarning(tag, fmt.Sprintf("bad magic number %x", magic), offset+12)
	}
	t.Flags = u16(b[16:])
	t.UnitsPerEm = u16(b[18:])
	t.Created = int64(u64(b[20:]))
	t.Modified = int64(u64(b[28:]))
	t.XMin, t.YMin = i16(b[36:]), i16(b[38:])
	t.XMax, t.YMax = i16(b[40:]), i16(b[42:])
	t.MacStyle = u16(b[44:])
	t.LowestRecPPEM = u16(b[46:])
	t.IndexToLocFormat = i16(b[50:])
	if t.IndexToLocFormat != 0 && t.IndexToLocFormat != 1 {
		return nil, ec.critical(tag, "IndexToLocFormat",
			fmt.Sprintf("invalid value: %d (must be 0 or 1)", t.IndexToLocFormat), offset+50)
	}
	return t, nil
}

func parseHHea(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 36 {
		return nil, ec.critical(tag, "Size", "table too small", offset)
	}
	t := &HHeaTable{}
	t.init(t, tag, b, offset, size)
	t.Ascender = i16(b[4:])
	t.Descender = i16(b[6:])
	t.LineGap = i16(b[8:])
	t.AdvanceWidthMax = u16(b[10:])
	t.MinLeftSideBearing = i16(b[12:])
	t.MinRightSideBearing = i16(b[14:])
	t.XMaxExtent = i16(b[16:])
	t.CaretSlopeRise = i16(b[18:])
	t.CaretSlopeRun = i16(b[20:])
	t.CaretOffset = i16(b[22:])
	t.NumberOfHMetrics = int(u16(b[34:]))
	return t, nil
}

func parseVHea(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 36 {
		return nil, fmt.Errorf("vhea table too small: %d", size)
	}
	t := &VHeaTable{}
	t.init(t, tag, b, offset, size)
	t.VertTypoAscender = i16(b[4:])
	t.VertTypoDescender = i16(b[6:])
	t.VertTypoLineGap = i16(b[8:])
	t.AdvanceHeightMax = u16(b[10:])
	t.MinTopSideBearing = i16(b[12:])
	t.MinBottomSideBearing = i16(b[14:])
	t.YMaxExtent = i16(b[16:])
	t.NumOfLongVerMetrics = int(u16(b[34:]))
	return t, nil
}

func parseMaxP(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 6 {
		return nil, ec.critical(tag, "Size", "table too small", offset)
	}
	t := &MaxPTable{}
	t.init(t, tag, b, offset, size)
	t.Version = u32(b)
	t.NumGlyphs = int(u16(b[4:]))
	if t.Version == 0x00010000 && size >= 32 {
		t.MaxPoints = u16(b[6:])
		t.MaxContours = u16(b[8:])
		t.MaxComponentDepth = u16(b[30:])
	}
	return t, nil
}

func parseHMtx(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &HMtxTable{}
	t.init(t, tag, b, offset, size)
	return t, nil
}

func parseOS2(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 68 {
		return nil, fmt.Errorf("OS/2 table too small: %d", size)
	}
	t := &OS2Table{}
	t.init(t, tag, b, offset, size)
	t.Version = u16(b)
	t.XAvgCharWidth = i16(b[2:])
	t.WeightClass = u16(b[4:])
	t.WidthClass = u16(b[6:])
	t.FsType = u16(b[8:])
	t.SubscriptYSize = i16(b[12:])
	t.SuperscriptYSize = i16(b[20:])
	t.StrikeoutSize = i16(b[26:])
	t.StrikeoutPosition = i16(b[28:])
	t.FamilyClass = i16(b[30:])
	t.FsSelection = u16(b[62:])
	t.FirstCharIndex = u16(b[64:])
	t.LastCharIndex = u16(b[66:])
	t.UseTypoMetricsFlag = t.FsSelection&(1<<7) != 0
	if size >= 78 {
		t.TypoAscender = i16(b[68:])
		t.TypoDescender = i16(b[70:])
		t.TypoLineGap = i16(b[72:])
		t.WinAscent = u16(b[74:])
		t.WinDescent = u16(b[76:])
	}
	if t.Version >= 2 && size >= 90 {
		t.XHeight = i16(b[86:])
		t.CapHeight = i16(b[88:])
	}
	return t, nil
}
