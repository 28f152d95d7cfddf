package otlayout

import (
	"github.com/npillmayer/opentext/ot"
)

// gposAt applies a GPOS lookup subtable at glyph #i. It returns the position to
// continue with and true, or false if the subtable did not apply.
func (ctx *applyCtx) gposAt(node *ot.LookupNode, i int) (int, bool) {
	switch node.LookupType {
	case ot.GPosLookupTypeSingle:
		return ctx.gposSingle(node, i)
	case ot.GPosLookupTypePair:
		return ctx.gposPair(node, i)
	case ot.GPosLookupTypeCursive:
		return ctx.gposCursive(node, i)
	case ot.GPosLookupTypeMarkToBase:
		return ctx.gposMarkToBase(node, i)
	case ot.GPosLookupTypeMarkToLigature:
		return ctx.gposMarkToLigature(node, i)
	case ot.GPosLookupTypeMarkToMark:
		return ctx.gposMarkToMark(node, i)
	case ot.GPosLookupTypeContextPos:
		return ctx.sequenceContext(node, i)
	case ot.GPosLookupTypeChainedContextPos:
		return ctx.chainedSequenceContext(node, i)
	}
	tracer().Debugf("GPOS lookup type %d not applicable", node.LookupType)
	return i, false
}

// addValue adds the adjustments of a value record to glyph #i.
func (ctx *applyCtx) addValue(i int, v ot.ValueRecord) {
	g := ctx.coll.At(i)
	g.Pos.XOffset += int32(v.XPlacement)
	g.Pos.YOffset += int32(v.YPlacement)
	g.Pos.XAdvance += int32(v.XAdvance)
	g.Pos.YAdvance += int32(v.YAdvance)
	g.Flags |= FlagPositioned
	g.markApplied(ctx.cur.tag)
}

// GPOS LookupType 1: Single Adjustment Positioning Subtable
//
// A single adjustment positioning subtable (SinglePos) is used to adjust the placement or
// advance of a single glyph, such as a subscript or superscript.
func (ctx *applyCtx) gposSingle(node *ot.LookupNode, i int) (int, bool) {
	inx, ok := node.Coverage.Match(ctx.coll.At(i).Glyph)
	if !ok || node.GPos == nil {
		return i, false
	}
	switch node.Format {
	case 1:
		ctx.addValue(i, node.GPos.SingleValue)
	case 2:
		if inx >= len(node.GPos.SingleValues) {
			return i, false
		}
		ctx.addValue(i, node.GPos.SingleValues[inx])
	default:
		return i, false
	}
	return i + 1, true
}

// GPOS LookupType 2: Pair Adjustment Positioning Subtable
//
// A pair adjustment positioning subtable (PairPos) is used to adjust the placement or
// advances of two glyphs in relation to one another, for instance, to specify kerning
// data for pairs of glyphs.
//
// If the second glyph has no value record, it may start another pair.
func (ctx *applyCtx) gposPair(node *ot.LookupNode, i int) (int, bool) {
	p := node.GPos
	inx, ok := node.Coverage.Match(ctx.coll.At(i).Glyph)
	if !ok || p == nil {
		return i, false
	}
	j := ctx.nextMatchable(i, true)
	if j < 0 {
		return i, false
	}
	second := ctx.coll.At(j).Glyph
	var v1, v2 ot.ValueRecord
	switch node.Format {
	case 1:
		rec, ok := p.PairValue(inx, second)
		if !ok {
			return i, false
		}
		v1, v2 = rec.Value1, rec.Value2
	case 2:
		c1, c2 := p.ClassDef1.Class(ctx.coll.At(i).Glyph), p.ClassDef2.Class(second)
		if c1 >= p.Class1Count || c2 >= p.Class2Count || c1*p.Class2Count+c2 >= len(p.ClassValues) {
			return i, false
		}
		vals := p.ClassValues[c1*p.Class2Count+c2]
		v1, v2 = vals[0], vals[1]
	default:
		return i, false
	}
	tracer().Debugf("GPOS pair (%d,%d): %v %v", ctx.coll.At(i).Glyph, second, v1, v2)
	ctx.addValue(i, v1)
	if p.ValueFormat2 != 0 {
		ctx.addValue(j, v2)
		return j + 1, true
	}
	return j, true
}

// GPOS LookupType 3: Cursive Attachment Positioning Subtable
//
// Some cursive fonts are designed so that adjacent glyphs join when rendered with their
// default positioning. However, if positioning adjustments are needed to join the glyphs,
// a cursive attachment positioning (CursivePos) subtable can describe how to connect the
// glyphs by aligning two anchor points: the designated exit point of a glyph, and the
// designated entry point of the following glyph.
//
// The exit anchor of the preceding glyph is connected to the entry anchor of glyph #i.
// Advances are adjusted in the direction of the run; the cross-stream offset is
// recorded for the child glyph, which is the preceding glyph for lookups with flag
// RIGHT_TO_LEFT, and glyph #i otherwise.
func (ctx *applyCtx) gposCursive(node *ot.LookupNode, i int) (int, bool) {
	p := node.GPos
	inx, ok := node.Coverage.Match(ctx.coll.At(i).Glyph)
	if !ok || p == nil || inx >= len(p.EntryExits) || p.EntryExits[inx].Entry == nil {
		return i, false
	}
	entry := p.EntryExits[inx].Entry
	prev := ctx.prevMatchable(i)
	if prev < 0 {
		return i, false
	}
	pinx, ok := node.Coverage.Match(ctx.coll.At(prev).Glyph)
	if !ok || pinx >= len(p.EntryExits) || p.EntryExits[pinx].Exit == nil {
		return i, false
	}
	exit := p.EntryExits[pinx].Exit
	gp, gi := ctx.coll.At(prev), ctx.coll.At(i)
	advPrev, advCur := ctx.opts.Advance(gp.Glyph), ctx.opts.Advance(gi.Glyph)
	exitX, entryX := int32(exit.X), int32(entry.X)
	if !ctx.opts.RightToLeft {
		gp.Pos.XAdvance = exitX + gp.Pos.XOffset - advPrev
		d := entryX + gi.Pos.XOffset
		gi.Pos.XAdvance -= d
		gi.Pos.XOffset -= d
	} else {
		d := exitX + gp.Pos.XOffset
		gp.Pos.XAdvance -= d
		gp.Pos.XOffset -= d
		gi.Pos.XAdvance = entryX + gi.Pos.XOffset - advCur
	}
	child, parent := prev, i
	yOffset := int32(entry.Y) - int32(exit.Y)
	if ctx.cur.flag&ot.LOOKUP_FLAG_RIGHT_TO_LEFT == 0 {
		child, parent = parent, child
		yOffset = -yOffset
	}
	ctx.reverseCursiveChain(child, parent, ctx.coll.Len())
	c := ctx.coll.At(child)
	c.Attach = Attachment{Kind: AttachCursive, To: parent}
	c.Pos.YOffset = yOffset
	gp.Flags |= FlagPositioned
	gi.Flags |= FlagPositioned
	gp.markApplied(ctx.cur.tag)
	gi.markApplied(ctx.cur.tag)
	return i + 1, true
}

// reverseCursiveChain reverses an existing cursive attachment of glyph #i, as
// glyph #i becomes the child of a new parent.
func (ctx *applyCtx) reverseCursiveChain(i, newParent, limit int) {
	g := ctx.coll.At(i)
	if g.Attach.Kind != AttachCursive || limit <= 0 {
		return
	}
	j := g.Attach.To
	g.Attach = Attachment{}
	if j == newParent || j < 0 || j >= ctx.coll.Len() {
		return
	}
	ctx.reverseCursiveChain(j, newParent, limit-1)
	pj := ctx.coll.At(j)
	pj.Pos.YOffset = -g.Pos.YOffset
	pj.Attach = Attachment{Kind: AttachCursive, To: i}
}

// attachMark positions mark #i relative to glyph #base, aligning the mark's
// anchor with the base anchor.
func (ctx *applyCtx) attachMark(i, base int, kind AttachKind, markAnchor, baseAnchor *ot.Anchor) {
	m := ctx.coll.At(i)
	m.Pos.XOffset = int32(baseAnchor.X) - int32(markAnchor.X)
	m.Pos.YOffset = int32(baseAnchor.Y) - int32(markAnchor.Y)
	m.Attach = Attachment{Kind: kind, To: base}
	m.Flags |= FlagPositioned
	m.markApplied(ctx.cur.tag)
	tracer().Debugf("GPOS %s: glyph %d attached to %d at (%d,%d)", kind, i, base, m.Pos.XOffset, m.Pos.YOffset)
}

// markRecord returns the mark record of glyph #i if it is covered by the mark
// coverage of a subtable.
func markRecord(node *ot.LookupNode, g *GlyphShapingData) (ot.MarkRecord, bool) {
	inx, ok := node.Coverage.Match(g.Glyph)
	if !ok || node.GPos == nil || inx >= len(node.GPos.Marks) || node.GPos.Marks[inx].Anchor == nil {
		return ot.MarkRecord{}, false
	}
	rec := node.GPos.Marks[inx]
	if rec.Class < 0 || rec.Class >= node.GPos.MarkClassCount {
		return ot.MarkRecord{}, false
	}
	return rec, true
}

// prevNonMark finds the closest preceding glyph which is not a mark.
func (ctx *applyCtx) prevNonMark(i int) int {
	for j := i - 1; j >= 0; j-- {
		if !ctx.coll.At(j).IsMark() {
			return j
		}
	}
	return -1
}

// GPOS LookupType 4: Mark-to-Base Attachment Positioning Subtable
//
// The MarkToBase attachment (MarkBasePos) subtable is used to position combining mark
// glyphs with respect to base glyphs.
func (ctx *applyCtx) gposMarkToBase(node *ot.LookupNode, i int) (int, bool) {
	rec, ok := markRecord(node, ctx.coll.At(i))
	if !ok {
		return i, false
	}
	base := ctx.prevNonMark(i)
	if base < 0 {
		return i, false
	}
	binx, ok := node.GPos.BaseCoverage.Match(ctx.coll.At(base).Glyph)
	if !ok || binx >= len(node.GPos.BaseAnchors) || rec.Class >= len(node.GPos.BaseAnchors[binx]) {
		return i, false
	}
	anchor := node.GPos.BaseAnchors[binx][rec.Class]
	if anchor == nil {
		return i, false
	}
	ctx.attachMark(i, base, AttachMarkToBase, rec.Anchor, anchor)
	return i + 1, true
}

// GPOS LookupType 5: Mark-to-Ligature Attachment Positioning Subtable
//
// The MarkToLigature attachment (MarkLigPos) subtable is used to position combining mark
// glyphs with respect to ligature base glyphs.
//
// The ligature component is the one the mark has been attached to during ligature
// substitution; marks not belonging to the ligature attach to its last component.
func (ctx *applyCtx) gposMarkToLigature(node *ot.LookupNode, i int) (int, bool) {
	mark := ctx.coll.At(i)
	rec, ok := markRecord(node, mark)
	if !ok {
		return i, false
	}
	l := ctx.prevNonMark(i)
	if l < 0 {
		return i, false
	}
	lig := ctx.coll.At(l)
	linx, ok := node.GPos.BaseCoverage.Match(lig.Glyph)
	if !ok || linx >= len(node.GPos.LigatureAnchors) {
		return i, false
	}
	comps := node.GPos.LigatureAnchors[linx]
	if len(comps) == 0 {
		return i, false
	}
	comp := len(comps) - 1
	if lig.LigatureID != 0 && lig.LigatureID == mark.LigatureID && mark.LigComponent > 0 {
		comp = min(int(mark.LigComponent), len(comps)) - 1
	}
	if rec.Class >= len(comps[comp]) || comps[comp][rec.Class] == nil {
		return i, false
	}
	ctx.attachMark(i, l, AttachMarkToLigature, rec.Anchor, comps[comp][rec.Class])
	return i + 1, true
}

// GPOS LookupType 6: Mark-to-Mark Attachment Positioning Subtable
//
// The MarkToMark attachment (MarkMarkPos) subtable is identical in form to the MarkToBase
// attachment subtable, although its function is different. MarkToMark attachment defines
// the position of one mark relative to another mark as when, for example, positioning
// tone marks with respect to vowel diacritical marks in Vietnamese.
//
// Both marks have to belong to the same base glyph or to the same ligature component.
func (ctx *applyCtx) gposMarkToMark(node *ot.LookupNode, i int) (int, bool) {
	mark1 := ctx.coll.At(i)
	rec, ok := markRecord(node, mark1)
	if !ok {
		return i, false
	}
	j := ctx.prevMatchable(i)
	if j < 0 || !ctx.coll.At(j).IsMark() {
		return i, false
	}
	mark2 := ctx.coll.At(j)
	id1, id2 := mark1.LigatureID, mark2.LigatureID
	c1, c2 := mark1.LigComponent, mark2.LigComponent
	var good bool
	if id1 == id2 {
		good = id1 == 0 || c1 == c2
	} else {
		good = (id1 > 0 && c1 == 0) || (id2 > 0 && c2 == 0)
	}
	if !good {
		return i, false
	}
	m2inx, ok := node.GPos.BaseCoverage.Match(mark2.Glyph)
	if !ok || m2inx >= len(node.GPos.BaseAnchors) || rec.Class >= len(node.GPos.BaseAnchors[m2inx]) {
		return i, false
	}
	anchor := node.GPos.BaseAnchors[m2inx][rec.Class]
	if anchor == nil {
		return i, false
	}
	ctx.attachMark(i, j, AttachMarkToMark, rec.Anchor, anchor)
	return i + 1, true
}
