package otindic

import (
	"cmp"
	"slices"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/internal/syllable"
)

var (
	joiners        = syllable.Of(catZWJ, catZWNJ)
	consonants     = syllable.Of(catC, catCS, catRa, catCM, catV, catPlaceholder, catDottedCircle)
	matraOrHalant  = syllable.Of(catM, catMPst, catH)
	nuktaOrHalant  = syllable.Of(catN, catH)
	miscAttachable = syllable.Of(catZWJ, catZWNJ, catN, catRS, catCM, catH)
)

// isOneOf checks the category of a glyph. Ligatures are of no category.
func isOneOf(g *otlayout.GlyphShapingData, set syllable.Set) bool {
	return g.Flags&otlayout.FlagLigated == 0 && set.Has(g.Category)
}

func isHalant(g *otlayout.GlyphShapingData) bool {
	return isOneOf(g, syllable.Of(catH))
}

func ligatedNotMultiplied(g *otlayout.GlyphShapingData) bool {
	return g.Flags&otlayout.FlagLigated != 0 && g.Flags&otlayout.FlagMultiplied == 0
}

// shift moves glyph #from to position to. Clusters are left alone.
func shift(run otshape.RunContext, from, to int) {
	g := *run.Info(from)
	for i := from; i < to; i++ {
		*run.Info(i) = *run.Info(i + 1)
	}
	for i := from; i > to; i-- {
		*run.Info(i) = *run.Info(i - 1)
	}
	*run.Info(to) = g
}

// --- Initial reordering ----------------------------------------------------

func (s *Shaper) initialReordering(ctx otshape.PauseContext) error {
	run := ctx.Run()
	s.updateConsonantPositions(run)
	syllable.InsertDottedCircles(run, s.dotted, brokenCluster, catRepha, catDottedCircle, posBaseC)
	for start := 0; start < run.Len(); {
		end := syllable.End(run, start)
		switch syllable.Type(run.Info(start).Syllable) {
		case consonantSyllable, vowelSyllable, standaloneCluster, brokenCluster:
			s.reorderSyllable(run, start, end)
		}
		start = end
	}
	return nil
}

func (s *Shaper) updateConsonantPositions(run otshape.RunContext) {
	if s.virama == 0 {
		return
	}
	for i := 0; i < run.Len(); i++ {
		if g := run.Info(i); g.Place == posBaseC {
			g.Place = s.consonantPosition(g.Glyph)
		}
	}
}

// formsReph checks if a syllable starts with a Ra,H sequence forming a reph.
func (s *Shaper) formsReph(run otshape.RunContext, start int) bool {
	ra, h, next := run.Info(start), run.Info(start+1), run.Info(start+2)
	if ra.Category != catRa || h.Category != catH {
		return false
	}
	seq := []ot.GlyphIndex{ra.Glyph, h.Glyph}
	switch s.cfg.rephMode {
	case rephImplicit:
		return !isJoiner(next.Category) && s.wouldSubstitute(tagRphf, seq)
	case rephExplicit:
		return next.Category == catZWJ &&
			s.wouldSubstitute(tagRphf, seq, []ot.GlyphIndex{ra.Glyph, h.Glyph, next.Glyph})
	}
	return false
}

// reorderSyllable finds the base consonant of a syllable, sorts the syllable
// by position and sets the masks of the basic shaping features.
func (s *Shaper) reorderSyllable(run otshape.RunContext, start, end int) {
	info := run.Info
	if s.cfg.script == scriptKnda && start+3 <= end && info(start).Category == catRa &&
		info(start+1).Category == catH && info(start+2).Category == catZWJ {
		run.MergeClusters(start+1, start+3)
		shift(run, start+2, start+1)
	}
	base, limit, hasReph := end, start, false
	if s.masks[fRphf] != 0 && start+3 <= end && s.formsReph(run, start) {
		limit += 2
		for limit < end && isJoiner(info(limit).Category) {
			limit++
		}
		base, hasReph = start, true
	} else if s.cfg.rephMode == rephLogRepha && info(start).Category == catRepha {
		limit++
		for limit < end && isJoiner(info(limit).Category) {
			limit++
		}
		base, hasReph = start, true
	}
	seenBelow := false
	for i := end - 1; i >= limit; i-- {
		g := info(i)
		if isOneOf(g, consonants) {
			if g.Place != posBelowC && (g.Place != posPostC || seenBelow) {
				base = i
				break
			}
			if g.Place == posBelowC {
				seenBelow = true
			}
			base = i
		} else if start < i && g.Category == catZWJ && info(i-1).Category == catH {
			break // explicit half form requested
		}
	}
	if hasReph && base == start && limit-base <= 2 {
		hasReph = false // Ra is the only consonant
	}
	for i := start; i < base; i++ {
		info(i).Place = min(posPreC, info(i).Place)
	}
	if base < end {
		info(base).Place = posBaseC
	}
	if hasReph {
		info(start).Place = posRaToBecomeReph
	}
	if s.oldSpec {
		s.moveOldSpecHalant(run, base, end)
	}
	attachMiscMarks(run, start, end)
	last := base
	for i := base + 1; i < end; i++ {
		if isOneOf(info(i), consonants) {
			for j := last + 1; j < i; j++ {
				if info(j).Place < posSMVD {
					info(j).Place = info(i).Place
				}
			}
			last = i
		} else if c := info(i).Category; c == catM || c == catMPst {
			last = i
		}
	}
	base = s.sortSyllable(run, start, end)
	s.setupSyllableMasks(run, start, end, base)
}

// moveOldSpecHalant moves the first post-base halant after the last
// consonant.
func (s *Shaper) moveOldSpecHalant(run otshape.RunContext, base, end int) {
	noDoubleHalants := s.cfg.script == scriptKnda
	for i := base + 1; i < end; i++ {
		if run.Info(i).Category != catH {
			continue
		}
		j := end - 1
		for ; j > i; j-- {
			g := run.Info(j)
			if isOneOf(g, consonants) || noDoubleHalants && g.Category == catH {
				break
			}
		}
		if run.Info(j).Category != catH && j > i {
			shift(run, i, j)
		}
		return
	}
}

// attachMiscMarks gives joiners, nuktas and halants the position of the
// preceding character, so they move along with it.
func attachMiscMarks(run otshape.RunContext, start, end int) {
	lastPos := posStart
	for i := start; i < end; i++ {
		g := run.Info(i)
		if miscAttachable.Has(g.Category) {
			g.Place = lastPos
			if g.Category == catH && g.Place == posPreM {
				for j := i; j > start; j-- {
					if p := run.Info(j - 1).Place; p != posPreM {
						g.Place = p
						break
					}
				}
			}
		} else if g.Place != posSMVD {
			if g.Category == catMPst && i > start && run.Info(i-1).Category == catSM {
				run.Info(i - 1).Place = g.Place
			}
			lastPos = g.Place
		}
	}
}

// sortSyllable sorts a syllable by position and returns the new index of the
// base. Clusters of glyphs moving across the base are merged.
func (s *Shaper) sortSyllable(run otshape.RunContext, start, end int) int {
	type entry struct {
		g    otlayout.GlyphShapingData
		orig int
	}
	entries := make([]entry, end-start)
	for k := range entries {
		entries[k] = entry{*run.Info(start + k), k}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.g.Place, b.g.Place)
	})
	base := end
	for k, e := range entries {
		*run.Info(start + k) = e.g
		if base == end && e.g.Place == posBaseC {
			base = start + k
		}
	}
	if s.oldSpec {
		run.MergeClusters(base, end)
		return base
	}
	done := make([]bool, len(entries))
	for i := base; i < end; i++ {
		k := i - start
		if done[k] {
			continue
		}
		lo, hi := i, i
		for j := entries[k].orig; j != k; j = entries[j].orig {
			lo, hi = min(lo, start+j), max(hi, start+j)
			done[j] = true
		}
		run.MergeClusters(max(base, lo), hi+1)
	}
	return base
}

func (s *Shaper) setupSyllableMasks(run otshape.RunContext, start, end, base int) {
	info := run.Info
	for i := start; i < end && info(i).Place == posRaToBecomeReph; i++ {
		info(i).Mask |= s.masks[fRphf]
	}
	mask := s.masks[fHalf]
	if !s.oldSpec && s.cfg.blwfMode == blwfPreAndPost {
		mask |= s.masks[fBlwf]
	}
	for i := start; i < base; i++ {
		info(i).Mask |= mask
	}
	mask = s.masks[fBlwf] | s.masks[fAbvf] | s.masks[fPstf]
	for i := base + 1; i < end; i++ {
		info(i).Mask |= mask
	}
	if s.oldSpec && s.cfg.script == scriptDeva {
		// eyelash Ra
		for i := start; i+1 < base; i++ {
			if info(i).Category == catRa && info(i+1).Category == catH &&
				(i+2 == base || info(i+2).Category != catZWJ) {
				info(i).Mask |= s.masks[fBlwf]
				info(i+1).Mask |= s.masks[fBlwf]
			}
		}
	}
	if s.masks[fPref] != 0 && base+2 < end {
		for i := base + 1; i+1 < end; i++ {
			if s.wouldSubstitute(tagPref, []ot.GlyphIndex{info(i).Glyph, info(i + 1).Glyph}) {
				info(i).Mask |= s.masks[fPref]
				info(i + 1).Mask |= s.masks[fPref]
				break
			}
		}
	}
	for i := start + 1; i < end; i++ {
		if info(i).Category != catZWNJ {
			continue
		}
		for j := i - 1; j >= start; j-- {
			info(j).Mask &^= s.masks[fHalf]
			if j == start || isOneOf(info(j), consonants) {
				break
			}
		}
	}
}

// --- Final reordering ------------------------------------------------------

func (s *Shaper) finalReordering(ctx otshape.PauseContext) error {
	run := ctx.Run()
	for start := 0; start < run.Len(); {
		end := syllable.End(run, start)
		s.finalizeSyllable(run, start, end)
		start = end
	}
	return nil
}

// finalizeSyllable moves pre-base matras, reph and pre-base-reordering
// consonants to their visual positions.
func (s *Shaper) finalizeSyllable(run otshape.RunContext, start, end int) {
	if s.virama != 0 {
		for i := start; i < end; i++ {
			g := run.Info(i)
			if g.Glyph == s.virama && g.Flags&otlayout.FlagLigated != 0 && g.Flags&otlayout.FlagMultiplied != 0 {
				g.Category = catH
				g.Flags &^= otlayout.FlagLigated | otlayout.FlagMultiplied
			}
		}
	}
	base, tryPref := s.findFinalBase(run, start, end)
	base = s.movePreBaseMatras(run, start, end, base)
	base = s.moveReph(run, start, end, base)
	if tryPref {
		s.movePref(run, start, end, base)
	}
	if g := run.Info(start); g.Place == posPreM {
		if start == 0 || !isWordCharacter(run.Codepoint(start-1)) {
			g.Mask |= s.masks[fInit]
		}
	}
}

func (s *Shaper) findFinalBase(run otshape.RunContext, start, end int) (int, bool) {
	info := run.Info
	tryPref := s.masks[fPref] != 0
	base := end
	for i := start; i < end; i++ {
		if info(i).Place < posBaseC {
			continue
		}
		base = i
		if tryPref && base+1 < end {
			for j := base + 1; j < end; j++ {
				g := info(j)
				if g.Mask&s.masks[fPref] == 0 {
					continue
				}
				if g.Flags&otlayout.FlagSubstituted == 0 || !ligatedNotMultiplied(g) {
					// a pref candidate which did not form
					base = j
					for base < end && isHalant(info(base)) {
						base++
					}
					if base < end {
						info(base).Place = posBaseC
					}
					tryPref = false
				}
				break
			}
			if base == end {
				break
			}
		}
		if s.cfg.script == scriptMlym {
			base = skipUnformedBelowForms(run, base, end)
		}
		if start < base && info(base).Place > posBaseC {
			base--
		}
		break
	}
	if base == end && start < base && isOneOf(info(base-1), syllable.Of(catZWJ)) {
		base--
	}
	if base < end {
		for start < base && isOneOf(info(base), nuktaOrHalant) {
			base--
		}
	}
	return base, tryPref
}

// skipUnformedBelowForms moves the base of a Malayalam syllable over
// below-base consonants the font has no forms for.
func skipUnformedBelowForms(run otshape.RunContext, base, end int) int {
	info := run.Info
	for i := base + 1; i < end; i++ {
		for i < end && isOneOf(info(i), joiners) {
			i++
		}
		if i == end || !isHalant(info(i)) {
			break
		}
		i++
		for i < end && isOneOf(info(i), joiners) {
			i++
		}
		if i < end && isOneOf(info(i), consonants) && info(i).Place == posBelowC {
			base = i
			info(base).Place = posBaseC
		}
	}
	return base
}

func (s *Shaper) halfFormsSkipped() bool {
	return s.cfg.script == scriptMlym || s.cfg.script == scriptTaml
}

// movePreBaseMatras moves pre-base matras after the last explicit halant
// before the base.
func (s *Shaper) movePreBaseMatras(run otshape.RunContext, start, end, base int) int {
	if start+1 >= end || start >= base {
		return base
	}
	info := run.Info
	newPos := base - 1
	if base == end {
		newPos = base - 2
	}
	if !s.halfFormsSkipped() {
		for {
			for newPos > start && !isOneOf(info(newPos), matraOrHalant) {
				newPos--
			}
			if g := info(newPos); isHalant(g) && g.Place != posPreM {
				if newPos+1 < end && info(newPos+1).Category == catZWJ && newPos > start {
					newPos--
					continue
				}
			} else {
				newPos = start
			}
			break
		}
	}
	if start < newPos && info(newPos).Place != posPreM {
		for i := newPos; i > start; i-- {
			if info(i-1).Place != posPreM {
				continue
			}
			old := i - 1
			if old < base && base <= newPos {
				base--
			}
			shift(run, old, newPos)
			run.MergeClusters(newPos, min(end, base+1))
			newPos--
		}
		return base
	}
	for i := start; i < base; i++ {
		if info(i).Place == posPreM {
			run.MergeClusters(i, min(end, base+1))
			break
		}
	}
	return base
}

// moveReph moves a reph formed at the start of a syllable to the position
// its script requires.
func (s *Shaper) moveReph(run otshape.RunContext, start, end, base int) int {
	g := run.Info(start)
	if start+1 >= end || g.Place != posRaToBecomeReph {
		return base
	}
	if (g.Category == catRepha) == ligatedNotMultiplied(g) {
		return base
	}
	pos := s.rephTarget(run, start, end, base)
	run.MergeClusters(start, pos+1)
	shift(run, start, pos)
	if start < base && base <= pos {
		base--
	}
	return base
}

func (s *Shaper) rephTarget(run otshape.RunContext, start, end, base int) int {
	info := run.Info
	// after the first explicit halant between reph and base
	pos := start + 1
	for pos < base && !isHalant(info(pos)) {
		pos++
	}
	if pos < base {
		if pos+1 < base && isOneOf(info(pos+1), joiners) {
			pos++
		}
		return pos
	}
	switch s.cfg.rephPos {
	case posAfterMain:
		pos = base
		for pos+1 < end && info(pos+1).Place <= posAfterMain {
			pos++
		}
		if pos < end {
			return pos
		}
	case posAfterSub:
		pos = base
		for pos+1 < end {
			if p := info(pos + 1).Place; p == posPostC || p == posAfterPost || p == posSMVD {
				break
			}
			pos++
		}
		if pos < end {
			return pos
		}
	}
	// end of the syllable
	pos = end - 1
	for pos > start && info(pos).Place == posSMVD {
		pos--
	}
	if isHalant(info(pos)) {
		for i := base + 1; i < pos; i++ {
			if c := info(i).Category; c == catM || c == catMPst {
				pos--
			}
		}
	}
	return pos
}

// movePref moves a consonant formed by 'pref' before the base.
func (s *Shaper) movePref(run otshape.RunContext, start, end, base int) {
	info := run.Info
	for i := base + 1; i < end; i++ {
		g := info(i)
		if g.Mask&s.masks[fPref] == 0 {
			continue
		}
		if ligatedNotMultiplied(g) {
			pos := base
			if !s.halfFormsSkipped() {
				for pos > start && !isOneOf(info(pos-1), matraOrHalant) {
					pos--
				}
			}
			if pos > start && isHalant(info(pos-1)) && pos < end && isOneOf(info(pos), joiners) {
				pos++
			}
			run.MergeClusters(pos, i+1)
			shift(run, i, pos)
		}
		return
	}
}
