package ot

/*
From https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2:

OpenType Layout consists of five tables: the Glyph Substitution table (GSUB),
the Glyph Positioning table (GPOS), the Baseline table (BASE),
the Justification table (JSTF), and the Glyph Definition table (GDEF).
These tables use some of the same data formats.
*/

import (
	"fmt"
	"iter"
	"sort"
	"sync"
)

// --- Layout tables ---------------------------------------------------------

// LayoutTable is a base type for layout tables.
// OpenType specifies two such tables–GPOS and GSUB–which share some of their
// structure.
type LayoutTable struct {
	Major, Minor uint16
	Scripts      *ScriptList
	Features     *FeatureList
	Lookups      *LookupList
	Requirements LayoutRequirements
}

// GSubTable is a type representing an OpenType GSUB table
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/gsub).
type GSubTable struct {
	tableBase
	LayoutTable
}

// GPosTable is a type representing an OpenType GPOS table
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/gpos).
type GPosTable struct {
	tableBase
	LayoutTable
}

var _ Table = &GSubTable{}
var _ Table = &GPosTable{}

// LayoutRequirements collects GDEF subtable requirements implied by lookup flags.
// Requirements are aggregated during the parse of GSUB/GPOS lookup lists.
type LayoutRequirements struct {
	NeedGlyphClassDef      bool
	NeedMarkAttachClassDef bool
	NeedMarkGlyphSets      bool
}

func (r *LayoutRequirements) addFromLookupFlag(flag LayoutTableLookupFlag) {
	if flag&(LOOKUP_FLAG_IGNORE_BASE_GLYPHS|LOOKUP_FLAG_IGNORE_LIGATURES|LOOKUP_FLAG_IGNORE_MARKS) != 0 {
		r.NeedGlyphClassDef = true
	}
	if flag&LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		r.NeedMarkGlyphSets = true
	}
	if flag&LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK != 0 {
		r.NeedMarkAttachClassDef = true
	}
}

func (r *LayoutRequirements) merge(other LayoutRequirements) {
	r.NeedGlyphClassDef = r.NeedGlyphClassDef || other.NeedGlyphClassDef
	r.NeedMarkAttachClassDef = r.NeedMarkAttachClassDef || other.NeedMarkAttachClassDef
	r.NeedMarkGlyphSets = r.NeedMarkGlyphSets || other.NeedMarkGlyphSets
}

// LayoutTableLookupFlag is a flag type for layout tables (GPOS and GSUB).
type LayoutTableLookupFlag uint16

// Lookup flags of layout tables (GPOS and GSUB)
const ( // LookupFlag bit enumeration
	// Note that the RIGHT_TO_LEFT flag is used only for GPOS type 3 lookups and is ignored
	// otherwise. It is not used by client software in determining text direction.
	LOOKUP_FLAG_RIGHT_TO_LEFT             LayoutTableLookupFlag = 0x0001
	LOOKUP_FLAG_IGNORE_BASE_GLYPHS        LayoutTableLookupFlag = 0x0002 // If set, skips over base glyphs
	LOOKUP_FLAG_IGNORE_LIGATURES          LayoutTableLookupFlag = 0x0004 // If set, skips over ligatures
	LOOKUP_FLAG_IGNORE_MARKS              LayoutTableLookupFlag = 0x0008 // If set, skips over all combining marks
	LOOKUP_FLAG_USE_MARK_FILTERING_SET    LayoutTableLookupFlag = 0x0010 // If set, the lookup is followed by a MarkFilteringSet field
	LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK LayoutTableLookupFlag = 0xFF00 // If not zero, skips over all marks of attachment type different from specified
)

// MarkAttachmentType returns the mark attachment class a lookup is restricted to, or 0.
func (f LayoutTableLookupFlag) MarkAttachmentType() int {
	return int(f&LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK) >> 8
}

// LayoutTableLookupType is a type identifier for layout lookup records (GPOS and GSUB).
// Enum values are different for GPOS and GSUB.
type LayoutTableLookupType uint16

// GSUB Lookup Type Enumeration
const (
	GSubLookupTypeSingle          LayoutTableLookupType = 1 // Replace one glyph with one glyph
	GSubLookupTypeMultiple        LayoutTableLookupType = 2 // Replace one glyph with more than one glyph
	GSubLookupTypeAlternate       LayoutTableLookupType = 3 // Replace one glyph with one of many glyphs
	GSubLookupTypeLigature        LayoutTableLookupType = 4 // Replace multiple glyphs with one glyph
	GSubLookupTypeContext         LayoutTableLookupType = 5 // Replace one or more glyphs in context
	GSubLookupTypeChainingContext LayoutTableLookupType = 6 // Replace one or more glyphs in chained context
	GSubLookupTypeExtensionSubs   LayoutTableLookupType = 7 // Extension mechanism for other substitutions
	GSubLookupTypeReverseChaining LayoutTableLookupType = 8 // Applied in reverse order, replace single glyph in chaining context
)

// GPOS Lookup Type Enumeration
const (
	GPosLookupTypeSingle            LayoutTableLookupType = 1 // Adjust position of a single glyph
	GPosLookupTypePair              LayoutTableLookupType = 2 // Adjust position of a pair of glyphs
	GPosLookupTypeCursive           LayoutTableLookupType = 3 // Attach cursive glyphs
	GPosLookupTypeMarkToBase        LayoutTableLookupType = 4 // Attach a combining mark to a base glyph
	GPosLookupTypeMarkToLigature    LayoutTableLookupType = 5 // Attach a combining mark to a ligature
	GPosLookupTypeMarkToMark        LayoutTableLookupType = 6 // Attach a combining mark to another mark
	GPosLookupTypeContextPos        LayoutTableLookupType = 7 // Position one or more glyphs in context
	GPosLookupTypeChainedContextPos LayoutTableLookupType = 8 // Position one or more glyphs in chained context
	GPosLookupTypeExtensionPos      LayoutTableLookupType = 9 // Extension mechanism for other positionings
)

var gsubTypeNames = []string{"?", "Single", "Multiple", "Alternate", "Ligature", "Context", "Chaining", "Extension", "Reverse"}
var gposTypeNames = []string{"?", "Single", "Pair", "Cursive", "MarkToBase", "MarkToLigature", "MarkToMark",
	"ContextPos", "ChainedContextPos", "Extension"}

// GSubString interprets a layout table lookup type as a GSUB table type.
func (lt LayoutTableLookupType) GSubString() string {
	if int(lt) < len(gsubTypeNames) {
		return gsubTypeNames[lt]
	}
	return fmt.Sprintf("GSUB-%d", lt)
}

// GPosString interprets a layout table lookup type as a GPOS table type.
func (lt LayoutTableLookupType) GPosString() string {
	if int(lt) < len(gposTypeNames) {
		return gposTypeNames[lt]
	}
	return fmt.Sprintf("GPOS-%d", lt)
}

func parseGSub(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &GSubTable{}
	t.init(t, tag, b, offset, size)
	lt, err := parseLayoutTable(tag, b, false, ec)
	if err != nil {
		return nil, err
	}
	t.LayoutTable = lt
	return t, nil
}

func parseGPos(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &GPosTable{}
	t.init(t, tag, b, offset, size)
	lt, err := parseLayoutTable(tag, b, true, ec)
	if err != nil {
		return nil, err
	}
	t.LayoutTable = lt
	return t, nil
}

// parseLayoutTable reads the GSUB/GPOS header and the script, feature and lookup lists.
// Lookup subtables are instantiated lazily.
func parseLayoutTable(tag Tag, b binarySegm, isGPos bool, ec *errorCollector) (LayoutTable, error) {
	lt := LayoutTable{}
	if len(b) < 10 {
		return lt, fmt.Errorf("%s header too small", tag)
	}
	lt.Major, lt.Minor = u16(b), u16(b[2:])
	if lt.Major != 1 || lt.Minor > 1 {
		return lt, fmt.Errorf("%s: unsupported version %d.%d", tag, lt.Major, lt.Minor)
	}
	var err error
	if lt.Lookups, err = parseLookupList(tag, b, isGPos, ec); err != nil {
		return lt, err
	}
	if lt.Features, err = parseFeatureList(tag, b, lt.Lookups.Len(), ec); err != nil {
		return lt, err
	}
	if lt.Scripts, err = parseScriptList(tag, b, lt.Features.Len(), ec); err != nil {
		return lt, err
	}
	for _, lookup := range lt.Lookups.lookups {
		lt.Requirements.addFromLookupFlag(lookup.Flag)
	}
	tracer().Debugf("%s has %d scripts, %d features, %d lookups", tag,
		lt.Scripts.Len(), lt.Features.Len(), lt.Lookups.Len())
	return lt, nil
}

// --- Script list -----------------------------------------------------------

// ScriptList is a container for the scripts of a GSUB/GPOS ScriptList.
type ScriptList struct {
	order   []Tag
	scripts map[Tag]*Script
}

// Script is one OpenType Script table, containing language systems.
type Script struct {
	DefaultLangSys *LangSys
	langOrder      []Tag
	langs          map[Tag]*LangSys
}

// LangSys is a language system table. It links to the features of the
// enclosing FeatureList by index.
type LangSys struct {
	RequiredFeature int // index into the feature list, -1 if not set
	FeatureIndices  []uint16
}

func parseScriptList(tag Tag, b binarySegm, featureCount int, ec *errorCollector) (*ScriptList, error) {
	sl := &ScriptList{scripts: make(map[Tag]*Script)}
	list, err := b.offset16(4)
	if err != nil {
		return nil, fmt.Errorf("%s: script list offset out of bounds", tag)
	}
	if list == nil {
		return sl, nil
	}
	n, err := list.u16(0)
	if err != nil {
		return nil, fmt.Errorf("%s: script list truncated", tag)
	}
	if n > MaxScriptCount {
		return nil, fmt.Errorf("%s: script count too large: %d", tag, n)
	}
	for i := 0; i < int(n); i++ {
		rec, err := list.view(2+i*6, 6)
		if err != nil {
			return nil, fmt.Errorf("%s: script records truncated", tag)
		}
		stag := Tag(u32(rec))
		sb, err := list.offset16(2 + i*6 + 4)
		if err != nil || sb == nil {
			ec.addError(tag, "ScriptList", fmt.Sprintf("script %s: bad offset", stag), SeverityMinor, 0)
			continue
		}
		script, err := parseScript(sb, featureCount)
		if err != nil {
			ec.addError(tag, "ScriptList", fmt.Sprintf("script %s: %v", stag, err), SeverityMinor, 0)
			continue
		}
		if _, dup := sl.scripts[stag]; !dup {
			sl.order = append(sl.order, stag)
		}
		sl.scripts[stag] = script
	}
	return sl, nil
}

func parseScript(b binarySegm, featureCount int) (*Script, error) {
	s := &Script{langs: make(map[Tag]*LangSys)}
	n, err := b.u16(2)
	if err != nil {
		return nil, err
	}
	if n > MaxLangSysCount {
		return nil, fmt.Errorf("too many language systems: %d", n)
	}
	if d, err := b.offset16(0); err != nil {
		return nil, err
	} else if d != nil {
		if s.DefaultLangSys, err = parseLangSys(d, featureCount); err != nil {
			return nil, err
		}
	}
	for i := 0; i < int(n); i++ {
		rec, err := b.view(4+i*6, 6)
		if err != nil {
			return nil, err
		}
		ltag := Tag(u32(rec))
		lb, err := b.offset16(4 + i*6 + 4)
		if err != nil || lb == nil {
			continue
		}
		ls, err := parseLangSys(lb, featureCount)
		if err != nil {
			return nil, err
		}
		s.langOrder = append(s.langOrder, ltag)
		s.langs[ltag] = ls
	}
	return s, nil
}

func parseLangSys(b binarySegm, featureCount int) (*LangSys, error) {
	req, err := b.u16(2)
	if err != nil {
		return nil, err
	}
	n, err := b.u16(4)
	if err != nil {
		return nil, err
	}
	indices, err := b.u16s(6, int(n))
	if err != nil {
		return nil, err
	}
	ls := &LangSys{RequiredFeature: -1}
	if req != 0xffff && int(req) < featureCount {
		ls.RequiredFeature = int(req)
	}
	ls.FeatureIndices = indices[:0]
	for _, inx := range indices {
		if int(inx) < featureCount {
			ls.FeatureIndices = append(ls.FeatureIndices, inx)
		}
	}
	return ls, nil
}

// Len returns the number of scripts in the list.
func (sl *ScriptList) Len() int {
	if sl == nil {
		return 0
	}
	return len(sl.order)
}

// Script returns a script by tag, or nil.
func (sl *ScriptList) Script(tag Tag) *Script {
	if sl == nil {
		return nil
	}
	return sl.scripts[tag]
}

// Tags returns the script tags in declaration order.
func (sl *ScriptList) Tags() []Tag {
	if sl == nil {
		return nil
	}
	return append([]Tag(nil), sl.order...)
}

// Range iterates scripts in declaration order.
func (sl *ScriptList) Range() iter.Seq2[Tag, *Script] {
	return func(yield func(Tag, *Script) bool) {
		if sl == nil {
			return
		}
		for _, tag := range sl.order {
			if !yield(tag, sl.scripts[tag]) {
				return
			}
		}
	}
}

// LangSys returns a language system by tag. DFLT and dflt select the default
// language system. Returns nil if the script has no such language system.
func (s *Script) LangSys(tag Tag) *LangSys {
	if s == nil {
		return nil
	}
	if tag == DFLT || tag == dflt || tag == 0 {
		return s.DefaultLangSys
	}
	return s.langs[tag]
}

// LanguageTags returns the tags of the non-default language systems.
func (s *Script) LanguageTags() []Tag {
	if s == nil {
		return nil
	}
	return append([]Tag(nil), s.langOrder...)
}

// SelectLangSys selects a script and language system from a script list, falling
// back to the default language system of the script, then to script DFLT, then to
// script 'latn'. It returns nil if none applies.
func (sl *ScriptList) SelectLangSys(script, lang Tag) *LangSys {
	if sl == nil {
		return nil
	}
	for _, stag := range []Tag{script, DFLT, T("latn")} {
		s := sl.Script(stag)
		if s == nil {
			continue
		}
		if ls := s.LangSys(lang); ls != nil {
			return ls
		}
		if s.DefaultLangSys != nil {
			return s.DefaultLangSys
		}
	}
	return nil
}

// --- Feature list ----------------------------------------------------------

// FeatureList is a container for the features of a GSUB/GPOS FeatureList.
// Duplicate feature tags are preserved; language systems reference features by index.
type FeatureList struct {
	tags     []Tag
	features []*Feature
}

// Feature is one OpenType Feature table.
type Feature struct {
	Tag           Tag
	LookupIndices []uint16 // indices into the lookup list, in application order
}

func parseFeatureList(tag Tag, b binarySegm, lookupCount int, ec *errorCollector) (*FeatureList, error) {
	fl := &FeatureList{}
	list, err := b.offset16(6)
	if err != nil {
		return nil, fmt.Errorf("%s: feature list offset out of bounds", tag)
	}
	if list == nil {
		return fl, nil
	}
	n, err := list.u16(0)
	if err != nil {
		return nil, fmt.Errorf("%s: feature list truncated", tag)
	}
	if n > MaxFeatureCount {
		return nil, fmt.Errorf("%s: feature count too large: %d", tag, n)
	}
	fl.tags = make([]Tag, n)
	fl.features = make([]*Feature, n)
	for i := 0; i < int(n); i++ {
		rec, err := list.view(2+i*6, 6)
		if err != nil {
			return nil, fmt.Errorf("%s: feature records truncated", tag)
		}
		ftag := Tag(u32(rec))
		fl.tags[i] = ftag
		fl.features[i] = &Feature{Tag: ftag}
		fb, err := list.offset16(2 + i*6 + 4)
		if err != nil || fb == nil {
			ec.addError(tag, "FeatureList", fmt.Sprintf("feature %s: bad offset", ftag), SeverityMinor, 0)
			continue
		}
		cnt, err := fb.u16(2)
		if err != nil {
			continue
		}
		indices, err := fb.u16s(4, int(cnt))
		if err != nil {
			ec.addError(tag, "FeatureList", fmt.Sprintf("feature %s: lookup indices truncated", ftag), SeverityMinor, 0)
			continue
		}
		for _, inx := range indices {
			if int(inx) >= lookupCount {
				ec.addError(tag, "FeatureList", fmt.Sprintf("feature %s: lookup index %d out of range", ftag, inx),
					SeverityMinor, 0)
				continue
			}
			fl.features[i].LookupIndices = append(fl.features[i].LookupIndices, inx)
		}
	}
	return fl, nil
}

// Len returns the number of features in the feature list.
func (fl *FeatureList) Len() int {
	if fl == nil {
		return 0
	}
	return len(fl.features)
}

// At returns feature #i, or nil.
func (fl *FeatureList) At(i int) *Feature {
	if fl == nil || i < 0 || i >= len(fl.features) {
		return nil
	}
	return fl.features[i]
}

// Indices returns all indices matching a feature tag.
func (fl *FeatureList) Indices(tag Tag) []int {
	if fl == nil {
		return nil
	}
	var out []int
	for i, t := range fl.tags {
		if t == tag {
			out = append(out, i)
		}
	}
	return out
}

// Range iterates features in declaration order and preserves duplicate tags.
func (fl *FeatureList) Range() iter.Seq2[int, *Feature] {
	return func(yield func(int, *Feature) bool) {
		if fl == nil {
			return
		}
		for i, f := range fl.features {
			if !yield(i, f) {
				return
			}
		}
	}
}

// --- Lookup list -----------------------------------------------------------

// LookupList holds the lookups of a GSUB or GPOS table. Lookup headers are read
// at load time; lookup subtables are instantiated on first use.
type LookupList struct {
	lookups []*LookupTable
	isGPos  bool
}

// LookupTable is a lookup: a sequence of subtables of a common lookup type.
// A LookupTable is safe for concurrent use.
type LookupTable struct {
	Type             LayoutTableLookupType // as declared, may be an extension type
	Flag             LayoutTableLookupFlag
	MarkFilteringSet int // -1 if not set
	subtableOffsets  []uint16
	subtables        []*LookupNode
	once             []sync.Once
	raw              binarySegm
	isGPos           bool
}

// LookupNode is an instantiated lookup subtable. Extension subtables are resolved,
// LookupType is the type of the effective subtable.
type LookupNode struct {
	LookupType LayoutTableLookupType
	Format     uint16
	Coverage   *Coverage
	GSub       *GSubLookupPayload      // GSUB types 1–4 and 8
	GPos       *GPosLookupPayload      // GPOS types 1–6
	Context    *SequenceContext        // GSUB 5, GPOS 7
	Chained    *ChainedSequenceContext // GSUB 6, GPOS 8
	err        error
}

func parseLookupList(tag Tag, b binarySegm, isGPos bool, ec *errorCollector) (*LookupList, error) {
	ll := &LookupList{isGPos: isGPos}
	list, err := b.offset16(8)
	if err != nil {
		return nil, fmt.Errorf("%s: lookup list offset out of bounds", tag)
	}
	if list == nil {
		return ll, nil
	}
	n, err := list.u16(0)
	if err != nil {
		return nil, fmt.Errorf("%s: lookup list truncated", tag)
	}
	if n > MaxLookupCount {
		return nil, fmt.Errorf("%s: lookup count too large: %d", tag, n)
	}
	ll.lookups = make([]*LookupTable, n)
	for i := range ll.lookups {
		lb, err := list.offset16(2 + i*2)
		if err != nil || lb == nil {
			ec.addError(tag, "LookupList", fmt.Sprintf("lookup %d: bad offset", i), SeverityMajor, 0)
			ll.lookups[i] = &LookupTable{MarkFilteringSet: -1, isGPos: isGPos}
			continue
		}
		lookup, err := parseLookupHeader(lb, isGPos)
		if err != nil {
			ec.addError(tag, "LookupList", fmt.Sprintf("lookup %d: %v", i, err), SeverityMajor, 0)
			lookup = &LookupTable{MarkFilteringSet: -1, isGPos: isGPos}
		}
		ll.lookups[i] = lookup
	}
	return ll, nil
}

func parseLookupHeader(b binarySegm, isGPos bool) (*LookupTable, error) {
	if len(b) < 6 {
		return nil, ErrUnexpectedEnd
	}
	lt := &LookupTable{
		Type:             LayoutTableLookupType(u16(b)),
		Flag:             LayoutTableLookupFlag(u16(b[2:])),
		MarkFilteringSet: -1,
		raw:              b,
		isGPos:           isGPos,
	}
	n := int(u16(b[4:]))
	if n > MaxSubtableCount {
		return nil, fmt.Errorf("subtable count too large: %d", n)
	}
	var err error
	if lt.subtableOffsets, err = b.u16s(6, n); err != nil {
		return nil, err
	}
	if lt.Flag&LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		mfs, err := b.u16(6 + 2*n)
		if err != nil {
			return nil, err
		}
		lt.MarkFilteringSet = int(mfs)
	}
	maxType := GSubLookupTypeReverseChaining
	if isGPos {
		maxType = GPosLookupTypeExtensionPos
	}
	if lt.Type == 0 || lt.Type > maxType {
		return nil, fmt.Errorf("unknown lookup type %d", lt.Type)
	}
	lt.subtables = make([]*LookupNode, n)
	lt.once = make([]sync.Once, n)
	return lt, nil
}

// Len returns the number of lookups.
func (ll *LookupList) Len() int {
	if ll == nil {
		return 0
	}
	return len(ll.lookups)
}

// Lookup returns lookup #i, or nil.
func (ll *LookupList) Lookup(i int) *LookupTable {
	if ll == nil || i < 0 || i >= len(ll.lookups) {
		return nil
	}
	return ll.lookups[i]
}

// SubtableCount returns the number of subtables of a lookup.
func (lt *LookupTable) SubtableCount() int {
	if lt == nil {
		return 0
	}
	return len(lt.subtableOffsets)
}

// Subtable returns subtable #i of a lookup, instantiating it on first access.
// Subtables which failed to parse carry an error, see LookupNode.Error.
func (lt *LookupTable) Subtable(i int) *LookupNode {
	if lt == nil || i < 0 || i >= len(lt.subtableOffsets) {
		return nil
	}
	lt.once[i].Do(func() {
		sb, err := lt.raw.from(int(lt.subtableOffsets[i]))
		if err != nil || lt.subtableOffsets[i] == 0 {
			lt.subtables[i] = &LookupNode{LookupType: lt.Type, err: ErrUnexpectedEnd}
			return
		}
		lt.subtables[i] = parseLookupNode(sb, lt.Type, lt.isGPos, 0)
		if err := lt.subtables[i].err; err != nil {
			tracer().Infof("lookup subtable #%d (type %d) cannot be used: %v", i, lt.Type, err)
		}
	})
	return lt.subtables[i]
}

// Range iterates lookup subtables in declaration order.
func (lt *LookupTable) Range() iter.Seq2[int, *LookupNode] {
	return func(yield func(int, *LookupNode) bool) {
		for i := 0; i < lt.SubtableCount(); i++ {
			if !yield(i, lt.Subtable(i)) {
				return
			}
		}
	}
}

// EffectiveType returns the lookup type after resolving extension subtables.
func (lt *LookupTable) EffectiveType() LayoutTableLookupType {
	if lt == nil {
		return 0
	}
	isExt := (lt.isGPos && lt.Type == GPosLookupTypeExtensionPos) ||
		(!lt.isGPos && lt.Type == GSubLookupTypeExtensionSubs)
	if isExt && lt.SubtableCount() > 0 {
		if node := lt.Subtable(0); node != nil && node.err == nil {
			return node.LookupType
		}
	}
	return lt.Type
}

// Error returns the parse error of this subtable, if any.
func (ln *LookupNode) Error() error {
	if ln == nil {
		return nil
	}
	return ln.err
}

func parseLookupNode(b binarySegm, ltype LayoutTableLookupType, isGPos bool, depth int) *LookupNode {
	node := &LookupNode{LookupType: ltype}
	if len(b) < 4 {
		node.err = ErrUnexpectedEnd
		return node
	}
	node.Format = u16(b)
	isExt := (isGPos && ltype == GPosLookupTypeExtensionPos) || (!isGPos && ltype == GSubLookupTypeExtensionSubs)
	if isExt {
		// Extension subtable: format, extensionLookupType, Offset32 extensionOffset.
		if depth >= MaxExtensionDepth {
			node.err = fmt.Errorf("extension lookups nested too deeply")
			return node
		}
		if node.Format != 1 || len(b) < 8 {
			node.err = fmt.Errorf("invalid extension subtable")
			return node
		}
		etype := LayoutTableLookupType(u16(b[2:]))
		if etype == ltype {
			node.err = fmt.Errorf("extension subtable must not reference an extension")
			return node
		}
		target, err := b.offset32(4)
		if err != nil || target == nil {
			node.err = fmt.Errorf("extension offset out of bounds")
			return node
		}
		return parseLookupNode(target, etype, isGPos, depth+1)
	}
	var err error
	switch {
	case !isGPos && ltype == GSubLookupTypeContext, isGPos && ltype == GPosLookupTypeContextPos:
		node.Context, node.Coverage, err = parseSequenceContext(b, node.Format)
	case !isGPos && ltype == GSubLookupTypeChainingContext, isGPos && ltype == GPosLookupTypeChainedContextPos:
		node.Chained, node.Coverage, err = parseChainedSequenceContext(b, node.Format)
	case isGPos:
		err = parseGPosNode(node, b)
	default:
		err = parseGSubNode(node, b)
	}
	node.err = err
	return node
}

// --- Coverage tables -------------------------------------------------------

// Coverage denotes an indexed set of glyphs.
// Each LookupSubtable (except an Extension LookupType subtable) in a lookup references
// a Coverage table (Coverage), which specifies all the glyphs affected by a
// substitution or positioning operation described in the subtable.
// The GSUB, GPOS, and GDEF tables rely on this notion of coverage. If a glyph does
// not appear in a Coverage table, the client can skip that subtable and move
// immediately to the next subtable.
type Coverage struct {
	glyphs []GlyphIndex     // format 1
	ranges []coverageRange  // format 2
	sorted bool
}

type coverageRange struct {
	start, end GlyphIndex
	startIndex int
}

func parseCoverage(b binarySegm) (*Coverage, error) {
	format, err := b.u16(0)
	if err != nil {
		return nil, err
	}
	n, err := b.u16(2)
	if err != nil {
		return nil, err
	}
	cov := &Coverage{sorted: true}
	switch format {
	case 1:
		if cov.glyphs, err = b.glyphs(4, int(n)); err != nil {
			return nil, fmt.Errorf("coverage format 1 truncated")
		}
		for i := 1; i < len(cov.glyphs); i++ {
			if cov.glyphs[i] <= cov.glyphs[i-1] {
				cov.sorted = false
				break
			}
		}
	case 2:
		buf, err := b.view(4, int(n)*6)
		if err != nil {
			return nil, fmt.Errorf("coverage format 2 truncated")
		}
		cov.ranges = make([]coverageRange, n)
		for i := range cov.ranges {
			r := coverageRange{
				start:      GlyphIndex(u16(buf[6*i:])),
				end:        GlyphIndex(u16(buf[6*i+2:])),
				startIndex: int(u16(buf[6*i+4:])),
			}
			if r.start > r.end {
				return nil, fmt.Errorf("coverage range %d: start > end", i)
			}
			if i > 0 && r.start <= cov.ranges[i-1].end {
				cov.sorted = false
			}
			cov.ranges[i] = r
		}
	default:
		return nil, fmt.Errorf("unknown coverage format %d", format)
	}
	return cov, nil
}

// coverageAt follows an Offset16 at position i of b to a coverage table.
func coverageAt(b binarySegm, i int) (*Coverage, error) {
	cb, err := b.offset16(i)
	if err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, fmt.Errorf("NULL coverage offset")
	}
	return parseCoverage(cb)
}

// coveragesAt reads count Offset16s starting at position i of b, each pointing to a
// coverage table.
func coveragesAt(b binarySegm, i, count int) ([]*Coverage, error) {
	if count > MaxSequenceLength {
		return nil, fmt.Errorf("coverage sequence too long: %d", count)
	}
	covs := make([]*Coverage, count)
	for j := range covs {
		var err error
		if covs[j], err = coverageAt(b, i+2*j); err != nil {
			return nil, err
		}
	}
	return covs, nil
}

// Match returns the Coverage Index for a glyph, and true if present.
func (c *Coverage) Match(g GlyphIndex) (int, bool) {
	if c == nil {
		return 0, false
	}
	if c.glyphs != nil {
		if c.sorted {
			i := sort.Search(len(c.glyphs), func(i int) bool { return c.glyphs[i] >= g })
			if i < len(c.glyphs) && c.glyphs[i] == g {
				return i, true
			}
			return 0, false
		}
		for i, x := range c.glyphs {
			if x == g {
				return i, true
			}
		}
		return 0, false
	}
	if c.sorted {
		i := sort.Search(len(c.ranges), func(i int) bool { return c.ranges[i].end >= g })
		if i < len(c.ranges) && c.ranges[i].start <= g {
			return c.ranges[i].startIndex + int(g-c.ranges[i].start), true
		}
		return 0, false
	}
	for _, r := range c.ranges {
		if g >= r.start && g <= r.end {
			return r.startIndex + int(g-r.start), true
		}
	}
	return 0, false
}

// Contains reports whether a glyph is present in the coverage.
func (c *Coverage) Contains(g GlyphIndex) bool {
	_, ok := c.Match(g)
	return ok
}

// Len returns the number of glyphs covered.
func (c *Coverage) Len() int {
	if c == nil {
		return 0
	}
	if c.glyphs != nil {
		return len(c.glyphs)
	}
	n := 0
	for _, r := range c.ranges {
		n += int(r.end-r.start) + 1
	}
	return n
}

// Glyphs iterates over the covered glyphs together with their coverage indices.
func (c *Coverage) Glyphs() iter.Seq2[int, GlyphIndex] {
	return func(yield func(int, GlyphIndex) bool) {
		if c == nil {
			return
		}
		for i, g := range c.glyphs {
			if !yield(i, g) {
				return
			}
		}
		for _, r := range c.ranges {
			for g := int(r.start); g <= int(r.end); g++ {
				if !yield(r.startIndex+g-int(r.start), GlyphIndex(g)) {
					return
				}
			}
		}
	}
}

// --- Class definition tables -----------------------------------------------

// GlyphClassDefEnum lists the glyph classes for ClassDefinitions
// ('GlyphClassDef'-table).
type GlyphClassDefEnum uint16

// Glyph classes of GDEF. Class 0 is unassigned.
const (
	BaseGlyph      GlyphClassDefEnum = 1 // single character, spacing glyph
	LigatureGlyph  GlyphClassDefEnum = 2 // multiple character, spacing glyph
	MarkGlyph      GlyphClassDefEnum = 3 // non-spacing combining glyph
	ComponentGlyph GlyphClassDefEnum = 4 // part of single character, spacing glyph
)

// ClassDefinitions groups glyphs into classes, denoted as integer values.
//
// From the OpenType specification:
// For efficiency and ease of representation, a font developer can group glyph indices
// to form glyph classes. Class assignments vary in meaning from one lookup subtable
// to another. For example, in the GSUB and GPOS tables, classes are used to describe
// glyph contexts. GDEF tables also use the idea of glyph classes.
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#class-definition-table)
type ClassDefinitions struct {
	start  GlyphIndex   // format 1
	values []uint16     // format 1
	ranges []classRange // format 2, ordered by start glyph
}

type classRange struct {
	start, end GlyphIndex
	class      uint16
}

func parseClassDef(b binarySegm) (*ClassDefinitions, error) {
	format, err := b.u16(0)
	if err != nil {
		return nil, err
	}
	cd := &ClassDefinitions{}
	switch format {
	case 1:
		start, err1 := b.u16(2)
		n, err2 := b.u16(4)
		if err1 != nil || err2 != nil {
			return nil, ErrUnexpectedEnd
		}
		cd.start = GlyphIndex(start)
		if cd.values, err = b.u16s(6, int(n)); err != nil {
			return nil, fmt.Errorf("class definitions format 1 truncated")
		}
	case 2:
		n, err := b.u16(2)
		if err != nil {
			return nil, err
		}
		buf, err := b.view(4, int(n)*6)
		if err != nil {
			return nil, fmt.Errorf("class definitions format 2 truncated")
		}
		cd.ranges = make([]classRange, n)
		for i := range cd.ranges {
			cd.ranges[i] = classRange{
				start: GlyphIndex(u16(buf[6*i:])),
				end:   GlyphIndex(u16(buf[6*i+2:])),
				class: u16(buf[6*i+4:]),
			}
		}
		sort.SliceStable(cd.ranges, func(i, j int) bool { return cd.ranges[i].start < cd.ranges[j].start })
	default:
		return nil, fmt.Errorf("unknown class definition format %d", format)
	}
	return cd, nil
}

// classDefAt follows an Offset16 at position i of b to a class definition table.
// A NULL offset yields an empty class definition, assigning class 0 to every glyph.
func classDefAt(b binarySegm, i int) (*ClassDefinitions, error) {
	cb, err := b.offset16(i)
	if err != nil {
		return nil, err
	}
	if cb == nil {
		return &ClassDefinitions{}, nil
	}
	return parseClassDef(cb)
}

// Class returns the class defined for a glyph, or 0 (= default class).
func (cd *ClassDefinitions) Class(g GlyphIndex) int {
	if cd == nil {
		return 0
	}
	if cd.values != nil {
		if g < cd.start || int(g-cd.start) >= len(cd.values) {
			return 0
		}
		return int(cd.values[g-cd.start])
	}
	i := sort.Search(len(cd.ranges), func(i int) bool { return cd.ranges[i].end >= g })
	if i < len(cd.ranges) && cd.ranges[i].start <= g {
		return int(cd.ranges[i].class)
	}
	return 0
}

// Lookup returns the class defined for a glyph, or 0 (= default class).
func (cd *ClassDefinitions) Lookup(g GlyphIndex) int {
	return cd.Class(g)
}

// --- Sequence context ------------------------------------------------------

// SequenceLookupRecord identifies a nested lookup to apply at a position
// within a matched input sequence.
type SequenceLookupRecord struct {
	SequenceIndex   uint16
	LookupListIndex uint16
}

// SequenceRule is a context rule. Input holds glyph IDs (format 1) or classes
// (format 2), starting with the second glyph of the input sequence.
type SequenceRule struct {
	Input   []uint16
	Records []SequenceLookupRecord
}

// SequenceContext is the shared payload of GSUB type 5 and GPOS type 7.
type SequenceContext struct {
	RuleSets       [][]SequenceRule // format 1: per coverage index; format 2: per class
	ClassDef       *ClassDefinitions
	InputCoverages []*Coverage // format 3
	Records        []SequenceLookupRecord
}

// ChainedSequenceRule is a chained context rule. Backtrack is stored in
// logical order from the glyph preceding the input backwards.
type ChainedSequenceRule struct {
	Backtrack []uint16
	Input     []uint16 // starting with the second input glyph
	Lookahead []uint16
	Records   []SequenceLookupRecord
}

// ChainedSequenceContext is the shared payload of GSUB type 6 and GPOS type 8.
type ChainedSequenceContext struct {
	RuleSets           [][]ChainedSequenceRule
	BacktrackClassDef  *ClassDefinitions
	InputClassDef      *ClassDefinitions
	LookaheadClassDef  *ClassDefinitions
	BacktrackCoverages []*Coverage // format 3
	InputCoverages     []*Coverage
	LookaheadCoverages []*Coverage
	Records            []SequenceLookupRecord
}

func parseLookupRecords(b binarySegm, i, count int) ([]SequenceLookupRecord, error) {
	buf, err := b.view(i, count*4)
	if err != nil {
		return nil, err
	}
	recs := make([]SequenceLookupRecord, count)
	for j := range recs {
		recs[j] = SequenceLookupRecord{SequenceIndex: u16(buf[4*j:]), LookupListIndex: u16(buf[4*j+2:])}
	}
	return recs, nil
}

// ruleSetsAt reads count Offset16s at position i, each pointing to a rule set,
// and parses every rule set with parse. NULL rule sets are kept as nil.
func ruleSetsAt[R any](b binarySegm, i, count int, parse func(binarySegm) (R, error)) ([][]R, error) {
	sets := make([][]R, count)
	for s := range sets {
		sb, err := b.offset16(i + 2*s)
		if err != nil {
			return nil, err
		}
		if sb == nil {
			continue
		}
		n, err := sb.u16(0)
		if err != nil {
			return nil, err
		}
		rules := make([]R, 0, n)
		for r := 0; r < int(n); r++ {
			rb, err := sb.offset16(2 + 2*r)
			if err != nil || rb == nil {
				return nil, fmt.Errorf("rule offset out of bounds")
			}
			rule, err := parse(rb)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		sets[s] = rules
	}
	return sets, nil
}

func parseSequenceRule(b binarySegm) (SequenceRule, error) {
	glyphCount, err1 := b.u16(0)
	recCount, err2 := b.u16(2)
	if err1 != nil || err2 != nil || glyphCount == 0 || glyphCount > MaxSequenceLength {
		return SequenceRule{}, fmt.Errorf("invalid sequence rule")
	}
	input, err := b.u16s(4, int(glyphCount)-1)
	if err != nil {
		return SequenceRule{}, err
	}
	recs, err := parseLookupRecords(b, 4+2*(int(glyphCount)-1), int(recCount))
	return SequenceRule{Input: input, Records: recs}, err
}

func parseChainedSequenceRule(b binarySegm) (ChainedSequenceRule, error) {
	rule := ChainedSequenceRule{}
	r := NewReader(b)
	readSeq := func(adjust int) ([]uint16, error) {
		n, err := r.U16()
		if err != nil {
			return nil, err
		}
		cnt := int(n) + adjust
		if cnt < 0 || cnt > MaxSequenceLength {
			return nil, fmt.Errorf("invalid chained sequence rule")
		}
		seq := make([]uint16, cnt)
		for i := range seq {
			if seq[i], err = r.U16(); err != nil {
				return nil, err
			}
		}
		return seq, nil
	}
	var err error
	if rule.Backtrack, err = readSeq(0); err != nil {
		return rule, err
	}
	if rule.Input, err = readSeq(-1); err != nil {
		return rule, err
	}
	if rule.Lookahead, err = readSeq(0); err != nil {
		return rule, err
	}
	n, err := r.U16()
	if err != nil {
		return rule, err
	}
	rule.Records, err = parseLookupRecords(b, r.Pos(), int(n))
	return rule, err
}

func parseSequenceContext(b binarySegm, format uint16) (*SequenceContext, *Coverage, error) {
	ctx := &SequenceContext{}
	switch format {
	case 1, 2:
		cov, err := coverageAt(b, 2)
		if err != nil {
			return nil, nil, err
		}
		at := 4
		if format == 2 {
			if ctx.ClassDef, err = classDefAt(b, 4); err != nil {
				return nil, nil, err
			}
			at = 6
		}
		n, err := b.u16(at)
		if err != nil {
			return nil, nil, err
		}
		if ctx.RuleSets, err = ruleSetsAt(b, at+2, int(n), parseSequenceRule); err != nil {
			return nil, nil, err
		}
		return ctx, cov, nil
	case 3:
		glyphCount, err1 := b.u16(2)
		recCount, err2 := b.u16(4)
		if err1 != nil || err2 != nil || glyphCount == 0 {
			return nil, nil, fmt.Errorf("invalid sequence context format 3")
		}
		var err error
		if ctx.InputCoverages, err = coveragesAt(b, 6, int(glyphCount)); err != nil {
			return nil, nil, err
		}
		if ctx.Records, err = parseLookupRecords(b, 6+2*int(glyphCount), int(recCount)); err != nil {
			return nil, nil, err
		}
		return ctx, ctx.InputCoverages[0], nil
	}
	return nil, nil, fmt.Errorf("unknown sequence context format %d", format)
}

func parseChainedSequenceContext(b binarySegm, format uint16) (*ChainedSequenceContext, *Coverage, error) {
	ctx := &ChainedSequenceContext{}
	switch format {
	case 1, 2:
		cov, err := coverageAt(b, 2)
		if err != nil {
			return nil, nil, err
		}
		at := 4
		if format == 2 {
			if ctx.BacktrackClassDef, err = classDefAt(b, 4); err != nil {
				return nil, nil, err
			}
			if ctx.InputClassDef, err = classDefAt(b, 6); err != nil {
				return nil, nil, err
			}
			if ctx.LookaheadClassDef, err = classDefAt(b, 8); err != nil {
				return nil, nil, err
			}
			at = 10
		}
		n, err := b.u16(at)
		if err != nil {
			return nil, nil, err
		}
		if ctx.RuleSets, err = ruleSetsAt(b, at+2, int(n), parseChainedSequenceRule); err != nil {
			return nil, nil, err
		}
		return ctx, cov, nil
	case 3:
		r := NewReader(b)
		_ = r.Skip(2)
		readCoverages := func() ([]*Coverage, error) {
			n, err := r.U16()
			if err != nil {
				return nil, err
			}
			covs, err := coveragesAt(b, r.Pos(), int(n))
			if err != nil {
				return nil, err
			}
			return covs, r.Skip(2 * int(n))
		}
		var err error
		if ctx.BacktrackCoverages, err = readCoverages(); err != nil {
			return nil, nil, err
		}
		if ctx.InputCoverages, err = readCoverages(); err != nil {
			return nil, nil, err
		}
		if len(ctx.InputCoverages) == 0 {
			return nil, nil, fmt.Errorf("chained context format 3 without input")
		}
		if ctx.LookaheadCoverages, err = readCoverages(); err != nil {
			return nil, nil, err
		}
		n, err := r.U16()
		if err != nil {
			return nil, nil, err
		}
		if ctx.Records, err = parseLookupRecords(b, r.Pos(), int(n)); err != nil {
			return nil, nil, err
		}
		return ctx, ctx.InputCoverages[0], nil
	}
	return nil, nil, fmt.Errorf("unknown chained context format %d", format)
}
