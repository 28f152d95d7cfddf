package otlayout

import (
	"github.com/npillmayer/opentext/ot"
)

// FeatureMask selects the features which may apply to a glyph. Shapers
// allocate one or more bits per feature.
type FeatureMask uint32

// GlobalMask is set on every glyph by default and is used for features which
// apply to all glyphs of a run.
const GlobalMask FeatureMask = 1

// AllFeatures matches every feature mask.
const AllFeatures FeatureMask = 0xffffffff

// GlyphFlags record what happened to a glyph during shaping.
type GlyphFlags uint16

const (
	FlagSubstituted GlyphFlags = 1 << iota // glyph replaced by GSUB
	FlagLigated                            // glyph is a ligature
	FlagMultiplied                         // glyph is one of the results of a multiple substitution
	FlagPositioned                         // GPOS adjusted position or attachment
	FlagDirty                              // glyph outline and bounds have to be resolved again
)

// AttachKind describes how a glyph is attached to another glyph.
type AttachKind uint8

const (
	AttachNone AttachKind = iota
	AttachMarkToBase
	AttachMarkToLigature
	AttachMarkToMark
	AttachCursive
)

func (k AttachKind) String() string {
	switch k {
	case AttachMarkToBase:
		return "mark-to-base"
	case AttachMarkToLigature:
		return "mark-to-ligature"
	case AttachMarkToMark:
		return "mark-to-mark"
	case AttachCursive:
		return "cursive"
	}
	return "none"
}

// Attachment links a glyph to the glyph it is attached to. To is the index
// of that glyph in the collection and is valid only if Kind is not AttachNone.
type Attachment struct {
	Kind AttachKind
	To   int
}

// Position holds positioning adjustments of GPOS, in font units. Advances are
// deltas to the glyph's advance from hmtx. For attached glyphs, offsets are
// relative to the origin of the glyph attached to.
type Position struct {
	XAdvance, YAdvance int32
	XOffset, YOffset   int32
}

// GlyphShapingData is the shaping state of a single glyph.
type GlyphShapingData struct {
	Glyph         ot.GlyphIndex
	CodePoints    []rune      // source code-points; ligatures hold the code-points of all components
	Offset        int         // index of the first source code-point in the input text
	Mask          FeatureMask // features enabled for this glyph
	Class         ot.GlyphClassDefEnum
	LigatureID    uint16 // non-zero for ligatures and for marks belonging to ligature components
	LigComponent  uint16 // 1-based ligature component a mark belongs to
	LigComponents uint16 // number of components of a ligature
	Pos           Position
	Attach        Attachment
	Features      []ot.Tag // features which changed this glyph
	Flags         GlyphFlags
	// Shaper-private data, kept across substitutions.
	Category uint8
	Place    uint8
	Syllable uint16
}

func (g *GlyphShapingData) markApplied(tag ot.Tag) {
	if tag == 0 {
		return
	}
	for _, t := range g.Features {
		if t == tag {
			return
		}
	}
	g.Features = append(g.Features, tag)
}

// IsMark reports whether a glyph is classified as a mark.
func (g *GlyphShapingData) IsMark() bool {
	return g.Class == ot.MarkGlyph
}

// SubstitutionCollection is an ordered sequence of glyphs, which is mutated by
// GSUB lookups and annotated by GPOS lookups. The offsets of the glyphs are
// non-decreasing. Multiple glyphs may share an offset, and offsets of
// code-points which have been merged into ligatures are absent.
//
// A SubstitutionCollection is not safe for concurrent use.
type SubstitutionCollection struct {
	glyphs    []GlyphShapingData
	inputLen  int
	nextLigID uint16
	err       error
}

// NewSubstitutionCollection creates an empty collection with room for n glyphs.
func NewSubstitutionCollection(n int) *SubstitutionCollection {
	return &SubstitutionCollection{glyphs: make([]GlyphShapingData, 0, max(n, 0))}
}

// Append adds a glyph for code-points cps, which start at offset within the
// input text. The glyph's mask is set to GlobalMask.
// Appending a glyph with an offset smaller than the offset of the last glyph
// violates the ordering of the collection and is ignored.
func (c *SubstitutionCollection) Append(gid ot.GlyphIndex, offset int, cps ...rune) *GlyphShapingData {
	if n := len(c.glyphs); n > 0 && c.glyphs[n-1].Offset > offset {
		tracer().Errorf("glyph %d appended at offset %d < %d", gid, offset, c.glyphs[n-1].Offset)
		return nil
	}
	c.glyphs = append(c.glyphs, GlyphShapingData{
		Glyph:      gid,
		CodePoints: cps,
		Offset:     offset,
		Mask:       GlobalMask,
	})
	c.inputLen++
	return &c.glyphs[len(c.glyphs)-1]
}

// Insert inserts a glyph before glyph #i, sharing its offset. With i equal to
// Len, the glyph is appended at the offset of the last glyph.
func (c *SubstitutionCollection) Insert(i int, gid ot.GlyphIndex, cps ...rune) *GlyphShapingData {
	if i < 0 || i > len(c.glyphs) {
		return nil
	}
	offset := 0
	if i < len(c.glyphs) {
		offset = c.glyphs[i].Offset
	} else if i > 0 {
		offset = c.glyphs[i-1].Offset
	}
	g := GlyphShapingData{Glyph: gid, CodePoints: cps, Offset: offset, Mask: GlobalMask}
	if i < len(c.glyphs) {
		g.Mask = c.glyphs[i].Mask
		g.Syllable = c.glyphs[i].Syllable
	}
	c.glyphs = append(c.glyphs, GlyphShapingData{})
	copy(c.glyphs[i+1:], c.glyphs[i:])
	c.glyphs[i] = g
	return &c.glyphs[i]
}

// Len returns the number of glyphs.
func (c *SubstitutionCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.glyphs)
}

// At returns the shaping data of glyph #i. It panics for invalid indices.
func (c *SubstitutionCollection) At(i int) *GlyphShapingData {
	return &c.glyphs[i]
}

// Glyphs returns the glyphs of the collection. The slice is owned by the
// collection and is invalidated by substitutions.
func (c *SubstitutionCollection) Glyphs() []GlyphShapingData {
	if c == nil {
		return nil
	}
	return c.glyphs
}

// GlyphIndices returns the glyph indices of the collection.
func (c *SubstitutionCollection) GlyphIndices() []ot.GlyphIndex {
	gids := make([]ot.GlyphIndex, len(c.glyphs))
	for i := range c.glyphs {
		gids[i] = c.glyphs[i].Glyph
	}
	return gids
}

// Err returns the error which aborted the last pass over the collection, if any.
func (c *SubstitutionCollection) Err() error {
	return c.err
}

// SetMask sets mask bits of all glyphs whose offsets lie within the range of
// code-points [start, end). value is or-ed in after clearing mask.
func (c *SubstitutionCollection) SetMask(start, end int, mask, value FeatureMask) {
	for i := range c.glyphs {
		if o := c.glyphs[i].Offset; o >= start && o < end {
			c.glyphs[i].Mask = c.glyphs[i].Mask&^mask | value&mask
		}
	}
}

// SetClasses assigns GDEF glyph classes to all glyphs. Without GDEF, classes
// assigned by a shaper are kept.
func (c *SubstitutionCollection) SetClasses(gdef *ot.GDefTable) {
	if gdef == nil || gdef.GlyphClassDef == nil {
		return
	}
	for i := range c.glyphs {
		c.glyphs[i].Class = gdef.GlyphClass(c.glyphs[i].Glyph)
	}
}

// ResetPositions clears all positioning information.
func (c *SubstitutionCollection) ResetPositions() {
	for i := range c.glyphs {
		c.glyphs[i].Pos = Position{}
		c.glyphs[i].Attach = Attachment{}
		c.glyphs[i].Flags &^= FlagPositioned
	}
}

// MergeClusters sets the offsets of glyphs [from, to) to the smallest offset
// among them. Shapers call it before moving glyphs within that range.
func (c *SubstitutionCollection) MergeClusters(from, to int) {
	if from < 0 || to > len(c.glyphs) || to-from < 2 {
		return
	}
	least := c.glyphs[from].Offset
	for i := from + 1; i < to; i++ {
		least = min(least, c.glyphs[i].Offset)
	}
	for i := from; i < to; i++ {
		c.glyphs[i].Offset = least
	}
}

// Move moves glyph #from to position to, shifting the glyphs in between.
// Clusters of the affected range are merged.
func (c *SubstitutionCollection) Move(from, to int) {
	if from == to || from < 0 || to < 0 || from >= len(c.glyphs) || to >= len(c.glyphs) {
		return
	}
	c.MergeClusters(min(from, to), max(from, to)+1)
	g := c.glyphs[from]
	if from < to {
		copy(c.glyphs[from:to], c.glyphs[from+1:to+1])
	} else {
		copy(c.glyphs[to+1:from+1], c.glyphs[to:from])
	}
	c.glyphs[to] = g
}

// Sorted checks the ordering of the offsets of the collection.
func (c *SubstitutionCollection) Sorted() bool {
	for i := 1; i < len(c.glyphs); i++ {
		if c.glyphs[i].Offset < c.glyphs[i-1].Offset {
			return false
		}
	}
	return true
}

// --- Mutations by GSUB -----------------------------------------------------

func (c *SubstitutionCollection) substitute(i int, gid ot.GlyphIndex, gdef *ot.GDefTable) {
	g := &c.glyphs[i]
	g.Glyph = gid
	g.Flags |= FlagSubstituted | FlagDirty
	if gdef != nil && gdef.GlyphClassDef != nil {
		g.Class = gdef.GlyphClass(gid)
	}
}

// multiply replaces glyph #i by a sequence of glyphs. All of them share the
// offset of glyph #i; the first one keeps its code-points.
func (c *SubstitutionCollection) multiply(i int, gids []ot.GlyphIndex, gdef *ot.GDefTable) {
	if len(gids) == 0 {
		c.glyphs = append(c.glyphs[:i], c.glyphs[i+1:]...)
		return
	}
	orig := c.glyphs[i]
	repl := make([]GlyphShapingData, len(gids))
	for k, gid := range gids {
		repl[k] = orig
		repl[k].Glyph = gid
		repl[k].Flags |= FlagSubstituted | FlagDirty
		if len(gids) > 1 {
			repl[k].Flags |= FlagMultiplied
			repl[k].LigComponent = uint16(k + 1)
		}
		if k > 0 {
			repl[k].CodePoints = nil
			repl[k].Features = append([]ot.Tag(nil), orig.Features...)
		}
		if gdef != nil && gdef.GlyphClassDef != nil {
			repl[k].Class = gdef.GlyphClass(gid)
		}
	}
	tail := append([]GlyphShapingData(nil), c.glyphs[i+1:]...)
	c.glyphs = append(append(c.glyphs[:i], repl...), tail...)
}

// ligate replaces the glyphs at positions (ascending) by a ligature glyph at
// positions[0]. Glyphs between the components, which have been skipped during
// matching, stay behind the ligature and are linked to their preceding
// component.
func (c *SubstitutionCollection) ligate(positions []int, lig ot.GlyphIndex, gdef *ot.GDefTable) {
	first := &c.glyphs[positions[0]]
	c.nextLigID++
	if c.nextLigID == 0 {
		c.nextLigID = 1
	}
	id := c.nextLigID
	isMarkLig := true
	for _, p := range positions {
		if !c.glyphs[p].IsMark() {
			isMarkLig = false
		}
	}
	for k := 1; k < len(positions); k++ {
		first.CodePoints = append(first.CodePoints, c.glyphs[positions[k]].CodePoints...)
		for j := positions[k-1] + 1; j < positions[k]; j++ {
			if m := &c.glyphs[j]; m.IsMark() && !isMarkLig {
				m.LigatureID, m.LigComponent = id, uint16(k)
			}
		}
	}
	first.Glyph = lig
	first.Flags |= FlagSubstituted | FlagLigated | FlagDirty
	if isMarkLig {
		first.LigatureID, first.LigComponents = 0, 0
	} else {
		first.LigatureID, first.LigComponents = id, uint16(len(positions))
	}
	switch {
	case gdef != nil && gdef.GlyphClassDef != nil:
		first.Class = gdef.GlyphClass(lig)
	case !isMarkLig:
		first.Class = ot.LigatureGlyph
	}
	last := positions[len(positions)-1]
	// marks following the last component belong to it
	for j := last + 1; j < len(c.glyphs) && c.glyphs[j].IsMark(); j++ {
		if !isMarkLig && c.glyphs[j].LigatureID == 0 {
			c.glyphs[j].LigatureID, c.glyphs[j].LigComponent = id, uint16(len(positions))
		}
	}
	// remove components, back to front
	for k := len(positions) - 1; k > 0; k-- {
		p := positions[k]
		c.glyphs = append(c.glyphs[:p], c.glyphs[p+1:]...)
	}
}
