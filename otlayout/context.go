package otlayout

import (
	"github.com/npillmayer/opentext/ot"
)

// Contextual lookups (GSUB types 5 and 6, GPOS types 7 and 8) match a sequence of
// input glyphs, optionally surrounded by backtrack and lookahead glyphs, and then
// apply nested lookups at positions within the input sequence.

// sequenceContext applies a sequence context subtable at glyph #i.
func (ctx *applyCtx) sequenceContext(node *ot.LookupNode, i int) (int, bool) {
	c := node.Context
	if c == nil {
		return i, false
	}
	g := ctx.coll.At(i).Glyph
	switch node.Format {
	case 1:
		inx, ok := node.Coverage.Match(g)
		if !ok || inx >= len(c.RuleSets) {
			return i, false
		}
		for _, rule := range c.RuleSets[inx] {
			if positions, ok := ctx.matchInput(i, len(rule.Input), matchGlyphIDs(rule.Input)); ok {
				return ctx.applyRecords(positions, rule.Records), true
			}
		}
	case 2:
		if !node.Coverage.Contains(g) {
			return i, false
		}
		cls := c.ClassDef.Class(g)
		if cls >= len(c.RuleSets) {
			return i, false
		}
		for _, rule := range c.RuleSets[cls] {
			if positions, ok := ctx.matchInput(i, len(rule.Input), matchClasses(rule.Input, c.ClassDef)); ok {
				return ctx.applyRecords(positions, rule.Records), true
			}
		}
	case 3:
		covs := c.InputCoverages
		if len(covs) == 0 || !covs[0].Contains(g) {
			return i, false
		}
		if positions, ok := ctx.matchInput(i, len(covs)-1, matchCoverages(covs[1:])); ok {
			return ctx.applyRecords(positions, c.Records), true
		}
	}
	return i, false
}

// chainedSequenceContext applies a chained sequence context subtable at glyph #i.
func (ctx *applyCtx) chainedSequenceContext(node *ot.LookupNode, i int) (int, bool) {
	c := node.Chained
	if c == nil {
		return i, false
	}
	g := ctx.coll.At(i).Glyph
	switch node.Format {
	case 1:
		inx, ok := node.Coverage.Match(g)
		if !ok || inx >= len(c.RuleSets) {
			return i, false
		}
		for _, rule := range c.RuleSets[inx] {
			if end, ok := ctx.chainRule(i, rule, matchGlyphIDs(rule.Backtrack),
				matchGlyphIDs(rule.Input), matchGlyphIDs(rule.Lookahead)); ok {
				return end, true
			}
		}
	case 2:
		if !node.Coverage.Contains(g) {
			return i, false
		}
		cls := c.InputClassDef.Class(g)
		if cls >= len(c.RuleSets) {
			return i, false
		}
		for _, rule := range c.RuleSets[cls] {
			if end, ok := ctx.chainRule(i, rule, matchClasses(rule.Backtrack, c.BacktrackClassDef),
				matchClasses(rule.Input, c.InputClassDef),
				matchClasses(rule.Lookahead, c.LookaheadClassDef)); ok {
				return end, true
			}
		}
	case 3:
		covs := c.InputCoverages
		if len(covs) == 0 || !covs[0].Contains(g) {
			return i, false
		}
		positions, ok := ctx.matchInput(i, len(covs)-1, matchCoverages(covs[1:]))
		if !ok {
			return i, false
		}
		if !ctx.matchBacktrack(i, len(c.BacktrackCoverages), matchCoverages(c.BacktrackCoverages)) ||
			!ctx.matchLookahead(positions[len(positions)-1], len(c.LookaheadCoverages),
				matchCoverages(c.LookaheadCoverages)) {
			return i, false
		}
		return ctx.applyRecords(positions, c.Records), true
	}
	return i, false
}

func (ctx *applyCtx) chainRule(i int, rule ot.ChainedSequenceRule, back, input, ahead glyphMatcher) (int, bool) {
	positions, ok := ctx.matchInput(i, len(rule.Input), input)
	if !ok {
		return i, false
	}
	if !ctx.matchBacktrack(i, len(rule.Backtrack), back) ||
		!ctx.matchLookahead(positions[len(positions)-1], len(rule.Lookahead), ahead) {
		return i, false
	}
	return ctx.applyRecords(positions, rule.Records), true
}

// applyRecords applies nested lookups to a matched input sequence. Nested
// lookups may change the length of the collection; positions of the input sequence
// following a nested lookup's position are moved accordingly.
// It returns the position after the input sequence.
func (ctx *applyCtx) applyRecords(matched []int, records []ot.SequenceLookupRecord) int {
	positions := make([]int, MaxContextLen)
	count := copy(positions, matched)
	end := positions[count-1] + 1
	for _, rec := range records {
		idx := int(rec.SequenceIndex)
		if idx >= count {
			continue
		}
		if ctx.coll.err != nil {
			break
		}
		origLen := ctx.coll.Len()
		if !ctx.recurse(int(rec.LookupListIndex), positions[idx]) {
			continue
		}
		delta := ctx.coll.Len() - origLen
		if delta == 0 {
			continue
		}
		end += delta
		if end < positions[idx] {
			delta += positions[idx] - end
			end = positions[idx]
		}
		next := idx + 1
		if delta > 0 {
			if count+delta > MaxContextLen {
				break
			}
		} else {
			delta = max(delta, next-count)
			next -= delta
		}
		copy(positions[next+delta:], positions[next:count])
		next += delta
		count += delta
		for j := idx + 1; j < next; j++ {
			positions[j] = positions[j-1] + 1
		}
		for ; next < count; next++ {
			positions[next] += delta
		}
	}
	return end
}
