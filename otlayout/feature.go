package otlayout

import (
	"fmt"
	"sort"

	"github.com/npillmayer/opentext/ot"
)

// Feature is a type for OpenType layout features.
// From the OpenType specification website
// https://docs.microsoft.com/en-us/typography/opentype/spec/featuretags :
//
// “Features provide information about how to use the glyphs in a font to render a script or
// language. For example, an Arabic font might have a feature for substituting initial glyph
// forms, and a Kanji font might have a feature for positioning glyphs vertically. All
// OpenType Layout features define data for glyph substitution, glyph positioning, or both.
//
// Each OpenType Layout feature has a feature tag that identifies its typographic function
// and effects. By examining a feature’s tag, a text-processing client can determine what a
// feature does and decide whether to implement it.”
//
// A feature uses ‘lookups’ to do operations on glyphs. GSUB and GPOS tables store lookups in a
// LookupList, into which Features link by maintaining a list of indices into the LookupList.
// The order of the lookup indices matters.
type Feature interface {
	Tag() ot.Tag         // e.g., 'liga'
	Type() LayoutTagType // GSUB or GPOS ?
	LookupCount() int    // number of Lookups for this feature
	LookupIndex(int) int // get index of lookup #i
}

// feature is the default implementation of Feature.
type feature struct {
	typ           LayoutTagType
	tag           ot.Tag
	lookupIndices []int
}

// FontFeatures looks up OpenType layout features in OpenType font otf, i.e. it trys to
// find features in table GSUB as well as in table GPOS.
// In OpenType, features may be specific for script/language combinations, or DFLT.
// Also, some (few) features may have a GSUB part as well as a GPOS part.
// Setting script to 0 will look for a DFLT feature set. Unknown scripts fall
// back to DFLT, unknown languages to the default language system of the script.
//
// Returns GSUB features, GPOS features and a possible error condition.
// The features at index 0 of each slice are the mandatory features (for a script), and may
// be nil.
func FontFeatures(otf *ot.Font, script, lang ot.Tag) ([]Feature, []Feature, error) {
	lytTables, err := getLayoutTables(otf) // get GSUB and GPOS table for font otf
	if err != nil {
		return nil, nil, err
	}
	if script == 0 {
		script = ot.DFLT
	}
	var feats = make([][]Feature, 2)
	for i, t := range lytTables { // collect features from GSUB and GPOS
		typ := GSubFeatureType
		if i == 1 {
			typ = GPosFeatureType
		}
		feats[i] = []Feature{nil} // mandatory feature slot
		if t == nil {
			continue
		}
		lsys := t.Scripts.SelectLangSys(script, lang)
		if lsys == nil {
			tracer().Infof("font %s has no feature-links from script %s", fontName(otf), script)
			continue
		}
		if lsys.RequiredFeature >= 0 {
			feats[i][0] = wrapFeature(t.Features.At(lsys.RequiredFeature), typ)
		}
		for _, inx := range lsys.FeatureIndices {
			f := wrapFeature(t.Features.At(int(inx)), typ)
			if f == nil {
				continue
			}
			feats[i] = append(feats[i], f)
			tracer().Debugf("%2d: feat[%v] ", len(feats[i])-1, f.Tag())
		}
	}
	return feats[0], feats[1], nil
}

func wrapFeature(f *ot.Feature, typ LayoutTagType) Feature {
	if f == nil {
		return nil
	}
	lookups := make([]int, len(f.LookupIndices))
	for i, inx := range f.LookupIndices {
		lookups[i] = int(inx)
	}
	return feature{typ: typ, tag: f.Tag, lookupIndices: lookups}
}

// Tag returns the identifying tag of this feature.
func (f feature) Tag() ot.Tag {
	return f.tag
}

// Type returns wether this is a GSUB-feature or a GPOS-feature.
func (f feature) Type() LayoutTagType {
	return f.typ
}

// LookupCount returns the number of lookup entries for a feature.
func (f feature) LookupCount() int {
	return len(f.lookupIndices)
}

// LookupIndex gets the index-position of lookup number i.
func (f feature) LookupIndex(i int) int {
	if i < 0 || i >= len(f.lookupIndices) {
		return -1
	}
	return f.lookupIndices[i]
}

func (f feature) String() string {
	return fmt.Sprintf("%s(%s)", f.tag, f.typ)
}

// --- Lookup scheduling -----------------------------------------------------

// FeatureRequest asks for a feature to be applied to glyphs with mask bits of Mask.
// Alternate selects the alternate glyph of alternate substitutions, starting at 0.
// Lookups of per-syllable features match only glyphs of a single syllable.
type FeatureRequest struct {
	Tag         ot.Tag
	Mask        FeatureMask
	Alternate   int
	PerSyllable bool
}

// LookupStep is a lookup scheduled for application, together with the mask of
// glyphs it applies to.
type LookupStep struct {
	Index       int         // index into the lookup list
	Mask        FeatureMask // union of the masks of all features referencing the lookup
	Feature     ot.Tag      // first feature referencing the lookup
	Alternate   int
	PerSyllable bool
}

// CollectLookups selects the features of a layout table for a script and language,
// and returns the lookups of the features requested, in lookup-list order.
// A lookup shared by several features is scheduled once, with the union of their
// masks. The required feature of the language system is always included and
// applies to all glyphs.
func CollectLookups(otf *ot.Font, typ LayoutTagType, script, lang ot.Tag, requests []FeatureRequest) []LookupStep {
	lyt := layoutTable(otf, typ)
	if lyt == nil {
		return nil
	}
	if script == 0 {
		script = ot.DFLT
	}
	lsys := lyt.Scripts.SelectLangSys(script, lang)
	if lsys == nil {
		return nil
	}
	byIndex := make(map[int]*LookupStep)
	schedule := func(f *ot.Feature, mask FeatureMask, alt int, syl bool) {
		for _, inx := range f.LookupIndices {
			if int(inx) >= lyt.Lookups.Len() {
				continue
			}
			if step, ok := byIndex[int(inx)]; ok {
				step.Mask |= mask
				continue
			}
			byIndex[int(inx)] = &LookupStep{Index: int(inx), Mask: mask, Feature: f.Tag,
				Alternate: alt, PerSyllable: syl}
		}
	}
	if lsys.RequiredFeature >= 0 {
		if f := lyt.Features.At(lsys.RequiredFeature); f != nil {
			schedule(f, AllFeatures, 0, false)
		}
	}
	for _, req := range requests {
		for _, inx := range lsys.FeatureIndices {
			if f := lyt.Features.At(int(inx)); f != nil && f.Tag == req.Tag {
				schedule(f, req.Mask, req.Alternate, req.PerSyllable)
			}
		}
	}
	steps := make([]LookupStep, 0, len(byIndex))
	for _, step := range byIndex {
		steps = append(steps, *step)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Index < steps[j].Index })
	return steps
}

// --- Feature application ---------------------------------------------------

// Options control the application of lookups.
type Options struct {
	RightToLeft bool                      // direction of the run, used by cursive attachment
	Advance     func(ot.GlyphIndex) int32 // advance of a glyph in font units; defaults to hmtx
}

// ApplyLookups applies scheduled lookups of a layout table to the glyphs of a
// collection, one lookup at a time over the whole collection.
// If the budget of operations is exceeded, application stops and ErrShapingLimit is
// returned; all modifications made so far are kept.
func ApplyLookups(otf *ot.Font, typ LayoutTagType, coll *SubstitutionCollection, steps []LookupStep, opts Options) error {
	ctx, err := newApplyCtx(otf, typ, coll, opts)
	if err != nil || ctx == nil {
		return err
	}
	for _, step := range steps {
		if err := ctx.applyStep(step); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFeature applies all lookups of a feature to all glyphs of a collection.
// It returns true if any lookup has been applied.
// Alternate selects the glyph for alternate substitutions.
func ApplyFeature(otf *ot.Font, feat Feature, coll *SubstitutionCollection, alt int) (bool, error) {
	if feat == nil { // this is legal for unused mandatory feature slots
		return false, nil
	}
	ctx, err := newApplyCtx(otf, feat.Type(), coll, Options{})
	if err != nil || ctx == nil {
		return false, err
	}
	for i := 0; i < feat.LookupCount(); i++ { // lookups have to be applied in sequence
		step := LookupStep{Index: feat.LookupIndex(i), Mask: AllFeatures, Feature: feat.Tag(), Alternate: alt}
		tracer().Debugf("feature %s lookup #%d => index %d", feat.Tag(), i, step.Index)
		if err := ctx.applyStep(step); err != nil {
			return ctx.applied, err
		}
	}
	return ctx.applied, nil
}

// WouldSubstitute checks if GSUB feature tag of a script and language changes
// a sequence of glyphs.
func WouldSubstitute(otf *ot.Font, tag, script, lang ot.Tag, glyphs []ot.GlyphIndex) bool {
	if len(glyphs) == 0 || otf.Layout.GSub == nil {
		return false
	}
	steps := CollectLookups(otf, GSubFeatureType, script, lang, []FeatureRequest{{Tag: tag, Mask: GlobalMask}})
	if len(steps) == 0 {
		return false
	}
	coll := NewSubstitutionCollection(len(glyphs))
	for i, gid := range glyphs {
		coll.Append(gid, i)
	}
	if err := ApplyLookups(otf, GSubFeatureType, coll, steps, Options{}); err != nil {
		return false
	}
	if coll.Len() != len(glyphs) {
		return true
	}
	for i := range coll.Glyphs() {
		if coll.At(i).Flags&FlagSubstituted != 0 {
			return true
		}
	}
	return false
}

// lookupState is the lookup currently applied.
type lookupState struct {
	lookup   *ot.LookupTable
	flag     ot.LayoutTableLookupFlag
	mask     FeatureMask
	tag      ot.Tag
	alt      int
	syllable bool // restrict matching to the syllable of the current glyph
}

// applyCtx bundles the state of a pass of lookups over a collection.
type applyCtx struct {
	otf     *ot.Font
	typ     LayoutTagType
	lookups *ot.LookupList
	gdef    *ot.GDefTable
	coll    *SubstitutionCollection
	opts    Options
	cur     lookupState
	ops     int
	maxOps  int
	maxLen  int
	nesting int
	applied bool
}

func newApplyCtx(otf *ot.Font, typ LayoutTagType, coll *SubstitutionCollection, opts Options) (*applyCtx, error) {
	if coll == nil || coll.Len() == 0 {
		return nil, nil
	}
	lyt := layoutTable(otf, typ)
	if lyt == nil {
		return nil, errFontFormat(fmt.Sprintf("font %s has no %s table", fontName(otf), typ))
	}
	coll.err = nil
	coll.SetClasses(otf.Layout.GDef)
	if coll.inputLen == 0 {
		coll.inputLen = coll.Len()
	}
	ctx := &applyCtx{
		otf:     otf,
		typ:     typ,
		lookups: lyt.Lookups,
		gdef:    otf.Layout.GDef,
		coll:    coll,
		opts:    opts,
		maxOps:  MaxOperations(coll.Len()),
		maxLen:  MaxLength(coll.inputLen),
	}
	if ctx.opts.Advance == nil {
		ctx.opts.Advance = func(gid ot.GlyphIndex) int32 {
			adv, _, _ := otf.HMtx.HMetrics(gid)
			return int32(adv)
		}
	}
	return ctx, nil
}

// tick accounts for one lookup operation.
func (ctx *applyCtx) tick() bool {
	ctx.ops++
	if ctx.ops > ctx.maxOps {
		if ctx.coll.err == nil {
			tracer().Errorf("lookup application stopped after %d operations", ctx.maxOps)
			ctx.coll.err = ErrShapingLimit
		}
		return false
	}
	return true
}

func (ctx *applyCtx) applyStep(step LookupStep) error {
	lookup := ctx.lookups.Lookup(step.Index)
	if lookup == nil {
		tracer().Infof("feature %s references missing lookup %d", step.Feature, step.Index)
		return nil
	}
	ctx.cur = lookupState{
		lookup:   lookup,
		flag:     lookup.Flag,
		mask:     step.Mask,
		tag:      step.Feature,
		alt:      step.Alternate,
		syllable: step.PerSyllable,
	}
	if ctx.typ == GSubFeatureType && lookup.EffectiveType() == ot.GSubLookupTypeReverseChaining {
		for i := ctx.coll.Len() - 1; i >= 0; i-- {
			if !ctx.applicable(i) {
				continue
			}
			ctx.applyAt(i)
			if ctx.coll.err != nil {
				return ctx.coll.err
			}
		}
		return nil
	}
	for i := 0; i < ctx.coll.Len(); {
		if !ctx.applicable(i) {
			i++
			continue
		}
		n := ctx.coll.Len()
		next, ok := ctx.applyAt(i)
		if ctx.coll.err != nil {
			return ctx.coll.err
		}
		switch {
		case ok && next > i:
			i = next
		case ok && ctx.coll.Len() < n: // glyph #i deleted
		default:
			i++
		}
	}
	return nil
}

// applicable checks if the current lookup is to be tried at glyph #i.
func (ctx *applyCtx) applicable(i int) bool {
	g := ctx.coll.At(i)
	return g.Mask&ctx.cur.mask != 0 && !ctx.skip(g)
}

// applyAt tries the subtables of the current lookup at glyph #i, until one of
// them applies. It returns the position to continue with.
func (ctx *applyCtx) applyAt(i int) (int, bool) {
	lookup := ctx.cur.lookup
	for k := 0; k < lookup.SubtableCount(); k++ {
		if !ctx.tick() {
			return i, false
		}
		node := lookup.Subtable(k)
		if node == nil || node.Error() != nil {
			continue
		}
		var next int
		var ok bool
		if ctx.typ == GSubFeatureType {
			next, ok = ctx.gsubAt(node, i)
		} else {
			next, ok = ctx.gposAt(node, i)
		}
		if ok {
			ctx.applied = true
			return next, true
		}
	}
	return i, false
}

// recurse applies a nested lookup at glyph #i, ignoring glyph masks.
func (ctx *applyCtx) recurse(lookupIndex int, i int) bool {
	if ctx.nesting >= MaxNestingLevel {
		tracer().Infof("nested lookup %d exceeds nesting level", lookupIndex)
		return false
	}
	lookup := ctx.lookups.Lookup(lookupIndex)
	if lookup == nil || i < 0 || i >= ctx.coll.Len() {
		return false
	}
	saved := ctx.cur
	ctx.cur.lookup, ctx.cur.flag = lookup, lookup.Flag
	ctx.nesting++
	_, ok := ctx.applyAt(i)
	ctx.nesting--
	ctx.cur = saved
	return ok
}

// --- Glyph skipping and matching -------------------------------------------

// skip checks if a glyph is to be ignored by the current lookup, according to its
// lookup flags.
func (ctx *applyCtx) skip(g *GlyphShapingData) bool {
	flag := ctx.cur.flag
	switch g.Class {
	case ot.BaseGlyph:
		return flag&ot.LOOKUP_FLAG_IGNORE_BASE_GLYPHS != 0
	case ot.LigatureGlyph:
		return flag&ot.LOOKUP_FLAG_IGNORE_LIGATURES != 0
	case ot.MarkGlyph:
		if flag&ot.LOOKUP_FLAG_IGNORE_MARKS != 0 {
			return true
		}
		if flag&ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
			return !ctx.gdef.InMarkGlyphSet(ctx.cur.lookup.MarkFilteringSet, g.Glyph)
		}
		if t := flag.MarkAttachmentType(); t != 0 {
			return ctx.gdef.MarkAttachClass(g.Glyph) != t
		}
	}
	return false
}

// nextMatchable returns the index of the next glyph after #i which is not skipped,
// or -1. If withMask is set, a glyph outside the mask of the current lookup
// terminates the search.
func (ctx *applyCtx) nextMatchable(i int, withMask bool) int {
	for j := i + 1; j < ctx.coll.Len(); j++ {
		g := ctx.coll.At(j)
		if !ctx.sameSyllable(i, j) {
			return -1
		}
		if ctx.skip(g) {
			continue
		}
		if withMask && g.Mask&ctx.cur.mask == 0 {
			return -1
		}
		return j
	}
	return -1
}

// prevMatchable returns the index of the closest glyph before #i which is not
// skipped, or -1.
func (ctx *applyCtx) prevMatchable(i int) int {
	for j := i - 1; j >= 0; j-- {
		if !ctx.sameSyllable(i, j) {
			return -1
		}
		if !ctx.skip(ctx.coll.At(j)) {
			return j
		}
	}
	return -1
}

func (ctx *applyCtx) sameSyllable(i, j int) bool {
	return !ctx.cur.syllable || ctx.coll.At(i).Syllable == ctx.coll.At(j).Syllable
}

// glyphMatcher matches glyph #k of a sequence.
type glyphMatcher func(k int, g *GlyphShapingData) bool

func matchGlyphIDs(ids []uint16) glyphMatcher {
	return func(k int, g *GlyphShapingData) bool {
		return g.Glyph == ot.GlyphIndex(ids[k])
	}
}

func matchClasses(classes []uint16, cd *ot.ClassDefinitions) glyphMatcher {
	return func(k int, g *GlyphShapingData) bool {
		return cd.Class(g.Glyph) == int(classes[k])
	}
}

func matchCoverages(covs []*ot.Coverage) glyphMatcher {
	return func(k int, g *GlyphShapingData) bool {
		return covs[k].Contains(g.Glyph)
	}
}

// matchInput matches n glyphs following glyph #i. It returns the positions of
// the input sequence, including i.
func (ctx *applyCtx) matchInput(i, n int, match glyphMatcher) ([]int, bool) {
	if n+1 > MaxContextLen {
		return nil, false
	}
	positions := make([]int, 1, n+1)
	positions[0] = i
	j := i
	for k := 0; k < n; k++ {
		if j = ctx.nextMatchable(j, true); j < 0 || !match(k, ctx.coll.At(j)) {
			return nil, false
		}
		positions = append(positions, j)
	}
	return positions, true
}

// matchBacktrack matches n glyphs before glyph #i, in logical order backwards.
func (ctx *applyCtx) matchBacktrack(i, n int, match glyphMatcher) bool {
	j := i
	for k := 0; k < n; k++ {
		if j = ctx.prevMatchable(j); j < 0 || !match(k, ctx.coll.At(j)) {
			return false
		}
	}
	return true
}

// matchLookahead matches n glyphs after glyph #last.
func (ctx *applyCtx) matchLookahead(last, n int, match glyphMatcher) bool {
	j := last
	for k := 0; k < n; k++ {
		if j = ctx.nextMatchable(j, false); j < 0 || !match(k, ctx.coll.At(j)) {
			return false
		}
	}
	return true
}
