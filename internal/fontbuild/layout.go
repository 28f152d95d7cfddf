package fontbuild

import "sort"

// Lookup types.
const (
	GSubSingle        = 1
	GSubMultiple      = 2
	GSubAlternate     = 3
	GSubLigature      = 4
	GSubContext       = 5
	GSubChaining      = 6
	GSubExtension     = 7
	GSubReverse       = 8
	GPosSingle        = 1
	GPosPair          = 2
	GPosCursive       = 3
	GPosMarkToBase    = 4
	GPosMarkToLig     = 5
	GPosMarkToMark    = 6
	GPosContext       = 7
	GPosChaining      = 8
	GPosExtension     = 9
	FlagRightToLeft   = 0x0001
	FlagIgnoreBase    = 0x0002
	FlagIgnoreLigs    = 0x0004
	FlagIgnoreMarks   = 0x0008
	FlagUseMarkFilter = 0x0010
)

// Lookup is a lookup of a GSUB or GPOS table with pre-built subtables.
type Lookup struct {
	Type             uint16
	Flag             uint16
	MarkFilteringSet uint16
	Subtables        [][]byte
}

// Feature assigns lookups to a feature tag.
type Feature struct {
	Tag     string
	Lookups []uint16
}

// Script is a script of a layout table. All features are enabled for the default
// language system; Languages lists additional language systems with a subset of
// features (by feature index). Required is the index+1 of the required feature of
// all language systems, 0 for none.
type Script struct {
	Tag       string
	Languages map[string][]uint16
	Required  uint16
}

// LayoutTable builds a GSUB or GPOS table. If scripts is empty, a single DFLT
// script is created. Every script's default language system references all features.
func LayoutTable(scripts []Script, features []Feature, lookups []Lookup) []byte {
	if len(scripts) == 0 {
		scripts = []Script{{Tag: "DFLT"}}
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Tag < scripts[j].Tag })
	w := &writer{}
	w.u16(1)
	w.u16(0)
	sPos, fPos, lPos := w.reserve16(), w.reserve16(), w.reserve16()
	w.append16(sPos, 0, scriptList(scripts, len(features)))
	w.append16(fPos, 0, featureList(features))
	w.append16(lPos, 0, lookupList(lookups))
	return w.b
}

func langSys(indices []uint16, required uint16) []byte {
	w := &writer{}
	w.u16(0)            // lookupOrderOffset
	w.u16(required - 1) // 0xffff for no required feature
	w.u16(uint16(len(indices)))
	for _, i := range indices {
		w.u16(i)
	}
	return w.b
}

func scriptList(scripts []Script, featureCount int) []byte {
	all := make([]uint16, featureCount)
	for i := range all {
		all[i] = uint16(i)
	}
	w := &writer{}
	w.u16(uint16(len(scripts)))
	pos := make([]int, len(scripts))
	for i, s := range scripts {
		w.tag(s.Tag)
		pos[i] = w.reserve16()
	}
	for i, s := range scripts {
		sw := &writer{}
		dPos := sw.reserve16()
		langs := make([]string, 0, len(s.Languages))
		for l := range s.Languages {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		sw.u16(uint16(len(langs)))
		lpos := make([]int, len(langs))
		for k, l := range langs {
			sw.tag(l)
			lpos[k] = sw.reserve16()
		}
		sw.append16(dPos, 0, langSys(all, s.Required))
		for k, l := range langs {
			sw.append16(lpos[k], 0, langSys(s.Languages[l], s.Required))
		}
		w.append16(pos[i], 0, sw.b)
	}
	return w.b
}

func featureList(features []Feature) []byte {
	w := &writer{}
	w.u16(uint16(len(features)))
	pos := make([]int, len(features))
	for i, f := range features {
		w.tag(f.Tag)
		pos[i] = w.reserve16()
	}
	for i, f := range features {
		fw := &writer{}
		fw.u16(0) // featureParams
		fw.u16(uint16(len(f.Lookups)))
		for _, l := range f.Lookups {
			fw.u16(l)
		}
		w.append16(pos[i], 0, fw.b)
	}
	return w.b
}

func lookupList(lookups []Lookup) []byte {
	w := &writer{}
	w.u16(uint16(len(lookups)))
	pos := make([]int, len(lookups))
	for i := range lookups {
		pos[i] = w.reserve16()
	}
	for i, l := range lookups {
		lw := &writer{}
		lw.u16(l.Type)
		lw.u16(l.Flag)
		lw.u16(uint16(len(l.Subtables)))
		spos := make([]int, len(l.Subtables))
		for k := range l.Subtables {
			spos[k] = lw.reserve16()
		}
		if l.Flag&FlagUseMarkFilter != 0 {
			lw.u16(l.MarkFilteringSet)
		}
		for k, st := range l.Subtables {
			lw.append16(spos[k], 0, st)
		}
		w.append16(pos[i], 0, lw.b)
	}
	return w.b
}

// --- Common structures -----------------------------------------------------

func sortedGlyphs(glyphs []uint16) []uint16 {
	s := append([]uint16(nil), glyphs...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}

// Coverage builds a format 1 coverage table. Glyphs are sorted.
func Coverage(glyphs ...uint16) []byte {
	w := &writer{}
	w.u16(1)
	s := sortedGlyphs(glyphs)
	w.u16(uint16(len(s)))
	for _, g := range s {
		w.u16(g)
	}
	return w.b
}

// CoverageRanges builds a format 2 coverage table from ranges {start, end}.
func CoverageRanges(ranges ...[2]uint16) []byte {
	w := &writer{}
	w.u16(2)
	w.u16(uint16(len(ranges)))
	inx := 0
	for _, r := range ranges {
		w.u16(r[0])
		w.u16(r[1])
		w.u16(uint16(inx))
		inx += int(r[1]-r[0]) + 1
	}
	return w.b
}

// ClassDef builds a format 2 class definition with one range per glyph.
func ClassDef(classes map[uint16]uint16) []byte {
	glyphs := make([]uint16, 0, len(classes))
	for g := range classes {
		glyphs = append(glyphs, g)
	}
	glyphs = sortedGlyphs(glyphs)
	w := &writer{}
	w.u16(2)
	w.u16(uint16(len(glyphs)))
	for _, g := range glyphs {
		w.u16(g)
		w.u16(g)
		w.u16(classes[g])
	}
	return w.b
}

// SeqLookup is a sequence lookup record of a contextual rule.
type SeqLookup struct {
	SequenceIndex uint16
	LookupIndex   uint16
}

// Extension wraps a subtable into an extension subtable (GSUB type 7 / GPOS type 9).
func Extension(lookupType uint16, subtable []byte) []byte {
	w := &writer{}
	w.u16(1)
	w.u16(lookupType)
	w.u32(8)
	w.bytes(subtable)
	return w.b
}

// ContextFormat3 builds a coverage-based sequence context subtable (GSUB 5 / GPOS 7).
func ContextFormat3(input [][]uint16, records []SeqLookup) []byte {
	w := &writer{}
	w.u16(3)
	w.u16(uint16(len(input)))
	w.u16(uint16(len(records)))
	pos := make([]int, len(input))
	for i := range input {
		pos[i] = w.reserve16()
	}
	for _, r := range records {
		w.u16(r.SequenceIndex)
		w.u16(r.LookupIndex)
	}
	for i, cov := range input {
		w.append16(pos[i], 0, Coverage(cov...))
	}
	return w.b
}

// ContextFormat1 builds a glyph-based sequence context subtable with one rule
// per first glyph.
func ContextFormat1(rules map[uint16][]uint16, records []SeqLookup) []byte {
	firsts := make([]uint16, 0, len(rules))
	for g := range rules {
		firsts = append(firsts, g)
	}
	firsts = sortedGlyphs(firsts)
	w := &writer{}
	w.u16(1)
	covPos := w.reserve16()
	w.u16(uint16(len(firsts)))
	pos := make([]int, len(firsts))
	for i := range firsts {
		pos[i] = w.reserve16()
	}
	for i, g := range firsts {
		rs := &writer{}
		rs.u16(1)
		rPos := rs.reserve16()
		rule := &writer{}
		rule.u16(uint16(len(rules[g]) + 1))
		rule.u16(uint16(len(records)))
		for _, in := range rules[g] {
			rule.u16(in)
		}
		for _, r := range records {
			rule.u16(r.SequenceIndex)
			rule.u16(r.LookupIndex)
		}
		rs.append16(rPos, 0, rule.b)
		w.append16(pos[i], 0, rs.b)
	}
	w.append16(covPos, 0, Coverage(firsts...))
	return w.b
}

// ChainContextFormat3 builds a coverage-based chained context subtable (GSUB 6 / GPOS 8).
// Backtrack coverages are given in logical order and written in reverse.
func ChainContextFormat3(backtrack, input, lookahead [][]uint16, records []SeqLookup) []byte {
	w := &writer{}
	w.u16(3)
	var pos []int
	w.u16(uint16(len(backtrack)))
	for range backtrack {
		pos = append(pos, w.reserve16())
	}
	w.u16(uint16(len(input)))
	for range input {
		pos = append(pos, w.reserve16())
	}
	w.u16(uint16(len(lookahead)))
	for range lookahead {
		pos = append(pos, w.reserve16())
	}
	w.u16(uint16(len(records)))
	for _, r := range records {
		w.u16(r.SequenceIndex)
		w.u16(r.LookupIndex)
	}
	var covs [][]uint16
	for i := len(backtrack) - 1; i >= 0; i-- {
		covs = append(covs, backtrack[i])
	}
	covs = append(covs, input...)
	covs = append(covs, lookahead...)
	for i, c := range covs {
		w.append16(pos[i], 0, Coverage(c...))
	}
	return w.b
}

// --- GSUB subtables --------------------------------------------------------

func keys(m map[uint16][]uint16) []uint16 {
	ks := make([]uint16, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return sortedGlyphs(ks)
}

// SingleSubst builds a format 2 single substitution.
func SingleSubst(subst map[uint16]uint16) []byte {
	from := make([]uint16, 0, len(subst))
	for g := range subst {
		from = append(from, g)
	}
	from = sortedGlyphs(from)
	w := &writer{}
	w.u16(2)
	covPos := w.reserve16()
	w.u16(uint16(len(from)))
	for _, g := range from {
		w.u16(subst[g])
	}
	w.append16(covPos, 0, Coverage(from...))
	return w.b
}

// SingleSubstDelta builds a format 1 single substitution adding delta to glyph ids.
func SingleSubstDelta(glyphs []uint16, delta int16) []byte {
	w := &writer{}
	w.u16(1)
	covPos := w.reserve16()
	w.i16(delta)
	w.append16(covPos, 0, Coverage(glyphs...))
	return w.b
}

func sequenceSubst(format uint16, m map[uint16][]uint16) []byte {
	from := keys(m)
	w := &writer{}
	w.u16(format)
	covPos := w.reserve16()
	w.u16(uint16(len(from)))
	pos := make([]int, len(from))
	for i := range from {
		pos[i] = w.reserve16()
	}
	for i, g := range from {
		sw := &writer{}
		sw.u16(uint16(len(m[g])))
		for _, s := range m[g] {
			sw.u16(s)
		}
		w.append16(pos[i], 0, sw.b)
	}
	w.append16(covPos, 0, Coverage(from...))
	return w.b
}

// MultipleSubst builds a multiple substitution (one glyph to a sequence).
func MultipleSubst(m map[uint16][]uint16) []byte {
	return sequenceSubst(1, m)
}

// AlternateSubst builds an alternate substitution.
func AlternateSubst(m map[uint16][]uint16) []byte {
	return sequenceSubst(1, m)
}

// Ligature is a ligature rule: Components (including the first) form Glyph.
type Ligature struct {
	Components []uint16
	Glyph      uint16
}

// LigatureSubst builds a ligature substitution. Rules with the same first
// component are kept in the given order.
func LigatureSubst(ligs []Ligature) []byte {
	byFirst := make(map[uint16][]Ligature)
	for _, l := range ligs {
		byFirst[l.Components[0]] = append(byFirst[l.Components[0]], l)
	}
	firsts := make([]uint16, 0, len(byFirst))
	for g := range byFirst {
		firsts = append(firsts, g)
	}
	firsts = sortedGlyphs(firsts)
	w := &writer{}
	w.u16(1)
	covPos := w.reserve16()
	w.u16(uint16(len(firsts)))
	pos := make([]int, len(firsts))
	for i := range firsts {
		pos[i] = w.reserve16()
	}
	for i, g := range firsts {
		set := &writer{}
		set.u16(uint16(len(byFirst[g])))
		lpos := make([]int, len(byFirst[g]))
		for k := range byFirst[g] {
			lpos[k] = set.reserve16()
		}
		for k, l := range byFirst[g] {
			lw := &writer{}
			lw.u16(l.Glyph)
			lw.u16(uint16(len(l.Components)))
			for _, c := range l.Components[1:] {
				lw.u16(c)
			}
			set.append16(lpos[k], 0, lw.b)
		}
		w.append16(pos[i], 0, set.b)
	}
	w.append16(covPos, 0, Coverage(firsts...))
	return w.b
}

// ReverseChainSubst builds a reverse chaining single substitution (GSUB 8).
// substitutes align with the sorted input glyphs.
func ReverseChainSubst(input []uint16, backtrack, lookahead [][]uint16, substitutes []uint16) []byte {
	w := &writer{}
	w.u16(1)
	covPos := w.reserve16()
	var pos []int
	w.u16(uint16(len(backtrack)))
	for range backtrack {
		pos = append(pos, w.reserve16())
	}
	w.u16(uint16(len(lookahead)))
	for range lookahead {
		pos = append(pos, w.reserve16())
	}
	w.u16(uint16(len(substitutes)))
	for _, s := range substitutes {
		w.u16(s)
	}
	w.append16(covPos, 0, Coverage(input...))
	var covs [][]uint16
	for i := len(backtrack) - 1; i >= 0; i-- {
		covs = append(covs, backtrack[i])
	}
	covs = append(covs, lookahead...)
	for i, c := range covs {
		w.append16(pos[i], 0, Coverage(c...))
	}
	return w.b
}

// --- GPOS subtables --------------------------------------------------------

// Value is a GPOS value record; only non-zero fields are written.
type Value struct {
	XPlacement, YPlacement, XAdvance, YAdvance int16
}

func (v Value) format() uint16 {
	var f uint16
	if v.XPlacement != 0 {
		f |= 1
	}
	if v.YPlacement != 0 {
		f |= 2
	}
	if v.XAdvance != 0 {
		f |= 4
	}
	if v.YAdvance != 0 {
		f |= 8
	}
	return f
}

func (v Value) write(w *writer, format uint16) {
	if format&1 != 0 {
		w.i16(v.XPlacement)
	}
	if format&2 != 0 {
		w.i16(v.YPlacement)
	}
	if format&4 != 0 {
		w.i16(v.XAdvance)
	}
	if format&8 != 0 {
		w.i16(v.YAdvance)
	}
}

func unionFormat(vs ...Value) uint16 {
	var f uint16
	for _, v := range vs {
		f |= v.format()
	}
	return f
}

// SinglePos builds a format 1 single adjustment applying v to all glyphs.
func SinglePos(glyphs []uint16, v Value) []byte {
	w := &writer{}
	w.u16(1)
	covPos := w.reserve16()
	f := v.format()
	w.u16(f)
	v.write(w, f)
	w.append16(covPos, 0, Coverage(glyphs...))
	return w.b
}

// PairPos builds a format 1 pair adjustment from (first, second) → value of first glyph.
func PairPos(pairs map[[2]uint16]Value) []byte {
	bySecond := make(map[uint16][][2]uint16)
	var vals []Value
	for p, v := range pairs {
		bySecond[p[0]] = append(bySecond[p[0]], p)
		vals = append(vals, v)
	}
	firsts := make([]uint16, 0, len(bySecond))
	for g := range bySecond {
		firsts = append(firsts, g)
	}
	firsts = sortedGlyphs(firsts)
	f := unionFormat(vals...)
	w := &writer{}
	w.u16(1)
	covPos := w.reserve16()
	w.u16(f)
	w.u16(0)
	w.u16(uint16(len(firsts)))
	pos := make([]int, len(firsts))
	for i := range firsts {
		pos[i] = w.reserve16()
	}
	for i, g := range firsts {
		ps := bySecond[g]
		sort.Slice(ps, func(a, b int) bool { return ps[a][1] < ps[b][1] })
		set := &writer{}
		set.u16(uint16(len(ps)))
		for _, p := range ps {
			set.u16(p[1])
			pairs[p].write(set, f)
		}
		w.append16(pos[i], 0, set.b)
	}
	w.append16(covPos, 0, Coverage(firsts...))
	return w.b
}

// PairPosClasses builds a format 2 class pair adjustment. values[c1][c2] is the
// value of the first glyph for classes c1 and c2.
func PairPosClasses(coverage []uint16, class1, class2 map[uint16]uint16, values [][]Value) []byte {
	var all []Value
	for _, row := range values {
		all = append(all, row...)
	}
	f := unionFormat(all...)
	class2Count := 0
	for _, row := range values {
		class2Count = max(class2Count, len(row))
	}
	w := &writer{}
	w.u16(2)
	covPos := w.reserve16()
	w.u16(f)
	w.u16(0)
	c1Pos, c2Pos := w.reserve16(), w.reserve16()
	w.u16(uint16(len(values)))
	w.u16(uint16(class2Count))
	for _, row := range values {
		for c2 := 0; c2 < class2Count; c2++ {
			var v Value
			if c2 < len(row) {
				v = row[c2]
			}
			v.write(w, f)
		}
	}
	w.append16(covPos, 0, Coverage(coverage...))
	w.append16(c1Pos, 0, ClassDef(class1))
	w.append16(c2Pos, 0, ClassDef(class2))
	return w.b
}

// Anchor is an anchor point, format 1.
type Anchor struct {
	X, Y int16
}

func anchor(a Anchor) []byte {
	w := &writer{}
	w.u16(1)
	w.i16(a.X)
	w.i16(a.Y)
	return w.b
}

// EntryExit holds cursive attachment anchors; nil means no anchor.
type EntryExit struct {
	Entry, Exit *Anchor
}

// CursivePos builds a cursive attachment subtable.
func CursivePos(anchors map[uint16]EntryExit) []byte {
	glyphs := make([]uint16, 0, len(anchors))
	for g := range anchors {
		glyphs = append(glyphs, g)
	}
	glyphs = sortedGlyphs(glyphs)
	w := &writer{}
	w.u16(1)
	covPos := w.reserve16()
	w.u16(uint16(len(glyphs)))
	type patch struct {
		pos int
		a   *Anchor
	}
	var patches []patch
	for _, g := range glyphs {
		ee := anchors[g]
		patches = append(patches, patch{w.reserve16(), ee.Entry}, patch{w.reserve16(), ee.Exit})
	}
	for _, p := range patches {
		if p.a != nil {
			w.append16(p.pos, 0, anchor(*p.a))
		}
	}
	w.append16(covPos, 0, Coverage(glyphs...))
	return w.b
}

// Mark is a mark glyph with its class and anchor.
type Mark struct {
	Class  uint16
	Anchor Anchor
}

func markArray(w *writer, marks map[uint16]Mark, glyphs []uint16) {
	base := w.len()
	w.u16(uint16(len(glyphs)))
	pos := make([]int, len(glyphs))
	for i, g := range glyphs {
		w.u16(marks[g].Class)
		pos[i] = w.reserve16()
	}
	for i, g := range glyphs {
		w.append16(pos[i], base, anchor(marks[g].Anchor))
	}
}

func markGlyphs(marks map[uint16]Mark) ([]uint16, int) {
	glyphs := make([]uint16, 0, len(marks))
	classes := 0
	for g, m := range marks {
		glyphs = append(glyphs, g)
		classes = max(classes, int(m.Class)+1)
	}
	return sortedGlyphs(glyphs), classes
}

// MarkAttachPos builds a mark-to-base (GPOS 4) or mark-to-mark (GPOS 6) subtable.
// bases maps a base glyph to one anchor per mark class (nil for none).
func MarkAttachPos(marks map[uint16]Mark, bases map[uint16][]*Anchor) []byte {
	mglyphs, classCount := markGlyphs(marks)
	bglyphs := make([]uint16, 0, len(bases))
	for g := range bases {
		bglyphs = append(bglyphs, g)
	}
	bglyphs = sortedGlyphs(bglyphs)
	w := &writer{}
	w.u16(1)
	mcPos, bcPos := w.reserve16(), w.reserve16()
	w.u16(uint16(classCount))
	maPos, baPos := w.reserve16(), w.reserve16()
	w.append16(mcPos, 0, Coverage(mglyphs...))
	w.append16(bcPos, 0, Coverage(bglyphs...))
	w.put16(maPos, uint16(w.len()))
	markArray(w, marks, mglyphs)
	// base array
	ba := &writer{}
	ba.u16(uint16(len(bglyphs)))
	var patches [][2]int // position, base glyph index and class packed
	for i := range bglyphs {
		for c := 0; c < classCount; c++ {
			patches = append(patches, [2]int{ba.reserve16(), i*classCount + c})
		}
	}
	for _, p := range patches {
		g, c := bglyphs[p[1]/classCount], p[1]%classCount
		if as := bases[g]; c < len(as) && as[c] != nil {
			ba.append16(p[0], 0, anchor(*as[c]))
		}
	}
	w.append16(baPos, 0, ba.b)
	return w.b
}

// MarkLigPos builds a mark-to-ligature subtable. ligs maps a ligature glyph to
// anchors per component and mark class.
func MarkLigPos(marks map[uint16]Mark, ligs map[uint16][][]*Anchor) []byte {
	mglyphs, classCount := markGlyphs(marks)
	lglyphs := make([]uint16, 0, len(ligs))
	for g := range ligs {
		lglyphs = append(lglyphs, g)
	}
	lglyphs = sortedGlyphs(lglyphs)
	w := &writer{}
	w.u16(1)
	mcPos, lcPos := w.reserve16(), w.reserve16()
	w.u16(uint16(classCount))
	maPos, laPos := w.reserve16(), w.reserve16()
	w.append16(mcPos, 0, Coverage(mglyphs...))
	w.append16(lcPos, 0, Coverage(lglyphs...))
	w.put16(maPos, uint16(w.len()))
	markArray(w, marks, mglyphs)
	la := &writer{}
	la.u16(uint16(len(lglyphs)))
	attPos := make([]int, len(lglyphs))
	for i := range lglyphs {
		attPos[i] = la.reserve16()
	}
	for i, g := range lglyphs {
		at := &writer{}
		comps := ligs[g]
		at.u16(uint16(len(comps)))
		var patches [][3]int
		for k := range comps {
			for c := 0; c < classCount; c++ {
				patches = append(patches, [3]int{at.reserve16(), k, c})
			}
		}
		for _, p := range patches {
			if as := comps[p[1]]; p[2] < len(as) && as[p[2]] != nil {
				at.append16(p[0], 0, anchor(*as[p[2]]))
			}
		}
		la.append16(attPos[i], 0, at.b)
	}
	w.append16(laPos, 0, la.b)
	return w.b
}

// --- GDEF, kern --------------------------------------------------------------

// GDEF builds a GDEF table, version 1.2 if mark glyph sets are given.
func GDEF(glyphClasses, markAttachClasses map[uint16]uint16, markSets [][]uint16) []byte {
	w := &writer{}
	w.u16(1)
	if len(markSets) > 0 {
		w.u16(2)
	} else {
		w.u16(0)
	}
	gcPos := w.reserve16()
	w.u16(0) // attachList
	w.u16(0) // ligCaretList
	maPos := w.reserve16()
	msPos := -1
	if len(markSets) > 0 {
		msPos = w.reserve16()
	}
	if len(glyphClasses) > 0 {
		w.append16(gcPos, 0, ClassDef(glyphClasses))
	}
	if len(markAttachClasses) > 0 {
		w.append16(maPos, 0, ClassDef(markAttachClasses))
	}
	if msPos >= 0 {
		ms := &writer{}
		ms.u16(1)
		ms.u16(uint16(len(markSets)))
		pos := make([]int, len(markSets))
		for i := range markSets {
			pos[i] = ms.reserve32()
		}
		for i, set := range markSets {
			ms.append32(pos[i], 0, Coverage(set...))
		}
		w.append16(msPos, 0, ms.b)
	}
	return w.b
}

// Kern builds a version 0 (Microsoft) kern table with one format 0 subtable.
func Kern(pairs map[[2]uint16]int16) []byte {
	ks := make([][2]uint16, 0, len(pairs))
	for k := range pairs {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool {
		return ks[i][0] < ks[j][0] || (ks[i][0] == ks[j][0] && ks[i][1] < ks[j][1])
	})
	w := &writer{}
	w.u16(0)
	w.u16(1)
	w.u16(0)
	w.u16(uint16(14 + 6*len(ks)))
	w.u16(0x0001) // horizontal, format 0
	w.u16(uint16(len(ks)))
	w.u16(0)
	w.u16(0)
	w.u16(0)
	for _, k := range ks {
		w.u16(k[0])
		w.u16(k[1])
		w.i16(pairs[k])
	}
	return w.b
}
