package otlayout

import (
	"github.com/npillmayer/opentext/ot"
)

// gsubAt applies a GSUB lookup subtable at glyph #i. It returns the position after
// the glyphs affected and true, or false if the subtable did not apply.
func (ctx *applyCtx) gsubAt(node *ot.LookupNode, i int) (int, bool) {
	switch node.LookupType {
	case ot.GSubLookupTypeSingle:
		return ctx.gsubSingle(node, i)
	case ot.GSubLookupTypeMultiple:
		return ctx.gsubMultiple(node, i)
	case ot.GSubLookupTypeAlternate:
		return ctx.gsubAlternate(node, i)
	case ot.GSubLookupTypeLigature:
		return ctx.gsubLigature(node, i)
	case ot.GSubLookupTypeContext:
		return ctx.sequenceContext(node, i)
	case ot.GSubLookupTypeChainingContext:
		return ctx.chainedSequenceContext(node, i)
	case ot.GSubLookupTypeReverseChaining:
		return ctx.gsubReverseChaining(node, i)
	}
	tracer().Debugf("GSUB lookup type %d not applicable", node.LookupType)
	return i, false
}

// GSUB LookupType 1: Single Substitution Subtable
//
// Single substitution (SingleSubst) subtables tell a client to replace a single glyph with
// another glyph.
func (ctx *applyCtx) gsubSingle(node *ot.LookupNode, i int) (int, bool) {
	g := ctx.coll.At(i)
	inx, ok := node.Coverage.Match(g.Glyph)
	if !ok || node.GSub == nil {
		return i, false
	}
	var gid ot.GlyphIndex
	switch node.Format {
	case 1: // arithmetic is modulo 65536
		gid = ot.GlyphIndex(uint16(int(g.Glyph) + int(node.GSub.DeltaGlyphID)))
	case 2:
		if inx >= len(node.GSub.Substitutes) {
			return i, false
		}
		gid = node.GSub.Substitutes[inx]
	default:
		return i, false
	}
	tracer().Debugf("GSUB single: %d -> %d", g.Glyph, gid)
	ctx.coll.substitute(i, gid, ctx.gdef)
	ctx.coll.At(i).markApplied(ctx.cur.tag)
	return i + 1, true
}

// GSUB LookupType 2: Multiple Substitution Subtable
//
// A Multiple Substitution (MultipleSubst) subtable replaces a single glyph with more than
// one glyph, as when multiple glyphs replace a single ligature.
func (ctx *applyCtx) gsubMultiple(node *ot.LookupNode, i int) (int, bool) {
	g := ctx.coll.At(i)
	inx, ok := node.Coverage.Match(g.Glyph)
	if !ok || node.GSub == nil || inx >= len(node.GSub.Sequences) {
		return i, false
	}
	seq := node.GSub.Sequences[inx]
	if ctx.coll.Len()+len(seq)-1 > ctx.maxLen {
		tracer().Errorf("multiple substitution exceeds maximum length of %d glyphs", ctx.maxLen)
		ctx.coll.err = ErrShapingLimit
		return i, false
	}
	tracer().Debugf("GSUB multiple: %d -> %v", g.Glyph, seq)
	ctx.coll.multiply(i, seq, ctx.gdef)
	for k := range seq {
		ctx.coll.At(i + k).markApplied(ctx.cur.tag)
	}
	return i + len(seq), true
}

// GSUB LookupType 3: Alternate Substitution Subtable
//
// An Alternate Substitution (AlternateSubst) subtable identifies any number of aesthetic
// alternatives from which a user can choose a glyph variant to replace the input glyph.
// The alternate of the current lookup step is selected; it is clamped to the
// alternates available.
func (ctx *applyCtx) gsubAlternate(node *ot.LookupNode, i int) (int, bool) {
	g := ctx.coll.At(i)
	inx, ok := node.Coverage.Match(g.Glyph)
	if !ok || node.GSub == nil || inx >= len(node.GSub.Alternates) {
		return i, false
	}
	alts := node.GSub.Alternates[inx]
	if len(alts) == 0 {
		return i, false
	}
	alt := min(max(ctx.cur.alt, 0), len(alts)-1)
	ctx.coll.substitute(i, alts[alt], ctx.gdef)
	ctx.coll.At(i).markApplied(ctx.cur.tag)
	return i + 1, true
}

// GSUB LookupType 4: Ligature Substitution Subtable
//
// A Ligature Substitution (LigatureSubst) subtable identifies ligature substitutions where
// a single glyph replaces multiple glyphs. One LigatureSubst subtable can specify any
// number of ligature substitutions.
// Of the ligatures matching, the one with the most components wins. Between
// ligatures of equal length, the first one declared wins.
func (ctx *applyCtx) gsubLigature(node *ot.LookupNode, i int) (int, bool) {
	g := ctx.coll.At(i)
	inx, ok := node.Coverage.Match(g.Glyph)
	if !ok || node.GSub == nil || inx >= len(node.GSub.LigatureSets) {
		return i, false
	}
	var best []int
	var lig ot.GlyphIndex
	for _, rule := range node.GSub.LigatureSets[inx] {
		if best != nil && len(rule.Components)+1 <= len(best) {
			continue
		}
		positions, ok := ctx.matchInput(i, len(rule.Components), func(k int, g *GlyphShapingData) bool {
			return g.Glyph == rule.Components[k]
		})
		if ok {
			best, lig = positions, rule.Ligature
		}
	}
	if best == nil {
		return i, false
	}
	tracer().Debugf("GSUB ligature: %d components -> %d", len(best), lig)
	ctx.coll.ligate(best, lig, ctx.gdef)
	ctx.coll.At(i).markApplied(ctx.cur.tag)
	return i + 1, true
}

// GSUB LookupType 8: Reverse Chaining Contextual Single Substitution Subtable
//
// Reverse Chaining Contextual Single Substitution (ReverseChainSingleSubst) subtable
// describes single glyph substitutions in context with an ability to look back and/or
// look ahead in the sequence of glyphs. The lookup is applied from the end of the
// glyph sequence to its start.
func (ctx *applyCtx) gsubReverseChaining(node *ot.LookupNode, i int) (int, bool) {
	g := ctx.coll.At(i)
	inx, ok := node.Coverage.Match(g.Glyph)
	if !ok || node.GSub == nil || inx >= len(node.GSub.Substitutes) {
		return i, false
	}
	p := node.GSub
	if !ctx.matchBacktrack(i, len(p.BacktrackCoverages), matchCoverages(p.BacktrackCoverages)) {
		return i, false
	}
	if !ctx.matchLookahead(i, len(p.LookaheadCoverages), matchCoverages(p.LookaheadCoverages)) {
		return i, false
	}
	ctx.coll.substitute(i, p.Substitutes[inx], ctx.gdef)
	ctx.coll.At(i).markApplied(ctx.cur.tag)
	return i - 1, true
}
