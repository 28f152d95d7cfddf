package otshape

import (
	"math"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
)

// Features every run gets, unless switched off by the client.
var (
	directionFeaturesLTR = []ot.Tag{ot.T("ltra"), ot.T("ltrm")}
	directionFeaturesRTL = []ot.Tag{ot.T("rtla"), ot.T("rtlm")}
	commonFeatures       = []ot.Tag{
		ot.T("abvm"), ot.T("blwm"), ot.T("ccmp"), ot.T("locl"), ot.T("mark"), ot.T("mkmk"), ot.T("rlig"),
	}
	horizontalFeatures = []ot.Tag{
		ot.T("calt"), ot.T("clig"), ot.T("curs"), ot.T("dist"), ot.T("kern"), ot.T("liga"), ot.T("rclt"),
	}
	verticalFeatures = []ot.Tag{ot.T("vert")}
	tagRvrn          = ot.T("rvrn")
	tagKern          = ot.T("kern")
	tagMark          = ot.T("mark")
)

// --- Feature planning ------------------------------------------------------

// featureInfo is a feature requested for a plan.
type featureInfo struct {
	tag    ot.Tag
	flags  FeatureFlags
	value  uint32 // 0 switches the feature off, except for ranges
	alt    int
	stage  int
	ranges []FeatureRange
	mask   otlayout.FeatureMask
}

func (f *featureInfo) enabled() bool {
	if f.value != 0 {
		return true
	}
	for _, r := range f.ranges {
		if r.On {
			return true
		}
	}
	return false
}

type pause struct {
	stage int
	hook  PauseHook
}

// featurePlanner collects features in the order they are added. Every feature
// belongs to the stage it has been added in first.
type featurePlanner struct {
	features []*featureInfo
	byTag    map[ot.Tag]*featureInfo
	stage    int
	pauses   []pause
}

var _ FeaturePlanner = (*featurePlanner)(nil)

func newFeaturePlanner() *featurePlanner {
	return &featurePlanner{byTag: make(map[ot.Tag]*featureInfo)}
}

func (fp *featurePlanner) feature(tag ot.Tag) *featureInfo {
	if f, ok := fp.byTag[tag]; ok {
		return f
	}
	f := &featureInfo{tag: tag, stage: fp.stage}
	fp.features = append(fp.features, f)
	fp.byTag[tag] = f
	return f
}

func (fp *featurePlanner) EnableFeature(tag ot.Tag) {
	fp.AddFeature(tag, FeatureGlobal, 1)
}

func (fp *featurePlanner) AddFeature(tag ot.Tag, flags FeatureFlags, value uint32) {
	f := fp.feature(tag)
	f.flags |= flags
	f.value = value
}

func (fp *featurePlanner) DisableFeature(tag ot.Tag) {
	f := fp.feature(tag)
	f.value, f.ranges = 0, nil
}

func (fp *featurePlanner) AddGSUBPause(fn PauseHook) {
	fp.pauses = append(fp.pauses, pause{stage: fp.stage, hook: fn})
	fp.stage++
}

func (fp *featurePlanner) HasFeature(tag ot.Tag) bool {
	f, ok := fp.byTag[tag]
	return ok && f.enabled()
}

// addUserFeature merges a feature range of the client into the plan.
func (fp *featurePlanner) addUserFeature(fr FeatureRange) {
	if fr.global() {
		if !fr.On {
			fp.DisableFeature(fr.Feature)
			return
		}
		fp.AddFeature(fr.Feature, FeatureGlobal, uint32(max(fr.Arg, 1)))
		fp.byTag[fr.Feature].alt = max(fr.Arg, 1) - 1
		return
	}
	f := fp.feature(fr.Feature)
	f.ranges = append(f.ranges, fr)
	if fr.On && fr.Arg > 0 {
		f.alt = fr.Arg - 1
	}
}

// --- Plan ------------------------------------------------------------------

type gsubStage struct {
	steps []otlayout.LookupStep
	pause PauseHook
}

// plan is a compiled shaping plan for a run.
type plan struct {
	otf          *ot.Font
	params       Params
	sel          SelectionContext
	engine       ShapingEngine
	features     []*featureInfo // enabled features with masks
	byTag        map[ot.Tag]*featureInfo
	fallback     map[ot.Tag]bool
	stages       []gsubStage
	gpos         []otlayout.LookupStep
	applyGPOS    bool
	kernFallback bool
	norm         NormalizationMode
	hasGposMark  bool
}

var _ PlanContext = (*plan)(nil)

// compilePlan collects the features for a run, allocates feature masks and
// schedules the lookups of the font.
func compilePlan(params Params, sel SelectionContext, engine ShapingEngine) *plan {
	otf := params.Face.Font()
	p := &plan{
		otf:       otf,
		params:    params,
		sel:       sel,
		engine:    engine,
		byTag:     make(map[ot.Tag]*featureInfo),
		fallback:  make(map[ot.Tag]bool),
		applyGPOS: true,
	}
	if policy, ok := engine.(ShapingEnginePolicy); ok {
		p.norm = policy.NormalizationPreference()
		p.applyGPOS = policy.ApplyGPOS()
	}
	fp := newFeaturePlanner()
	fp.EnableFeature(tagRvrn)
	fp.AddGSUBPause(nil)
	dirFeatures := directionFeaturesLTR
	if params.rightToLeft() {
		dirFeatures = directionFeaturesRTL
	}
	for _, tag := range dirFeatures {
		fp.EnableFeature(tag)
	}
	hooks, hasHooks := engine.(ShapingEnginePlanHooks)
	if hasHooks {
		hooks.CollectFeatures(fp, sel)
	}
	for _, tag := range commonFeatures {
		fp.EnableFeature(tag)
	}
	if params.Vertical {
		for _, tag := range verticalFeatures {
			fp.EnableFeature(tag)
		}
	} else {
		for _, tag := range horizontalFeatures {
			fp.EnableFeature(tag)
		}
	}
	for _, fr := range params.Features {
		fp.addUserFeature(fr)
	}
	if hasHooks {
		hooks.OverrideFeatures(fp)
	}
	p.allocateMasks(fp)
	p.schedule(fp)
	if hasHooks {
		hooks.InitPlan(p)
	}
	return p
}

// allocateMasks assigns a mask bit to every enabled feature which does not
// apply to all glyphs. Bit 0 is the global mask.
func (p *plan) allocateMasks(fp *featurePlanner) {
	bit := 1
	for _, f := range fp.features {
		if !f.enabled() {
			continue
		}
		if f.flags&FeatureGlobal != 0 && len(f.ranges) == 0 {
			f.mask = otlayout.GlobalMask
		} else if bit < 32 {
			f.mask = otlayout.FeatureMask(1) << bit
			bit++
		} else {
			tracer().Errorf("no feature mask left for feature %s, dropped", f.tag)
			continue
		}
		p.features = append(p.features, f)
		p.byTag[f.tag] = f
		if f.flags&FeatureHasFallback != 0 && !p.fontHasFeature(otlayout.GSubFeatureType, f.tag) {
			p.fallback[f.tag] = true
		}
	}
}

func (p *plan) schedule(fp *featurePlanner) {
	script, lang := p.sel.ScriptTag, p.sel.LangTag
	p.stages = make([]gsubStage, fp.stage+1)
	for _, ps := range fp.pauses {
		p.stages[ps.stage].pause = ps.hook
	}
	if p.otf.Layout.GSub != nil {
		required := make(map[int]bool)
		for s := range p.stages {
			var reqs []otlayout.FeatureRequest
			for _, f := range p.features {
				if f.stage == s && hasType(f.tag, otlayout.GSubFeatureType) {
					reqs = append(reqs, f.request())
				}
			}
			for _, step := range otlayout.CollectLookups(p.otf, otlayout.GSubFeatureType, script, lang, reqs) {
				if step.Mask == otlayout.AllFeatures { // required feature, scheduled once
					if required[step.Index] {
						continue
					}
					required[step.Index] = true
				}
				p.stages[s].steps = append(p.stages[s].steps, step)
			}
		}
	}
	var reqs []otlayout.FeatureRequest
	for _, f := range p.features {
		if hasType(f.tag, otlayout.GPosFeatureType) {
			reqs = append(reqs, f.request())
		}
	}
	if p.otf.Layout.GPos != nil {
		p.gpos = otlayout.CollectLookups(p.otf, otlayout.GPosFeatureType, script, lang, reqs)
	}
	p.hasGposMark = p.fontHasFeature(otlayout.GPosFeatureType, tagMark)
	if _, ok := p.byTag[tagKern]; ok && p.otf.Kern != nil {
		p.kernFallback = !p.fontHasFeature(otlayout.GPosFeatureType, tagKern)
	}
}

func (f *featureInfo) request() otlayout.FeatureRequest {
	return otlayout.FeatureRequest{
		Tag:         f.tag,
		Mask:        f.mask,
		Alternate:   f.alt,
		PerSyllable: f.flags&FeaturePerSyllable != 0,
	}
}

// hasType checks if a feature belongs to a layout table. Unregistered
// features are looked up in both tables.
func hasType(tag ot.Tag, typ otlayout.LayoutTagType) bool {
	t := otlayout.IdentifyFeatureTag(tag)
	return t == 0 || t&typ != 0
}

func (p *plan) fontHasFeature(typ otlayout.LayoutTagType, tag ot.Tag) bool {
	gsub, gpos, err := otlayout.FontFeatures(p.otf, p.sel.ScriptTag, p.sel.LangTag)
	if err != nil {
		return false
	}
	feats := gsub
	if typ == otlayout.GPosFeatureType {
		feats = gpos
	}
	for _, f := range feats {
		if f != nil && f.Tag() == tag {
			return true
		}
	}
	return false
}

// setupMasks sets the mask bits of features with ranges of the client.
func (p *plan) setupMasks(coll *otlayout.SubstitutionCollection, textLen int) {
	for _, f := range p.features {
		if len(f.ranges) == 0 || f.mask == otlayout.GlobalMask {
			continue
		}
		if f.value != 0 && f.flags&FeatureGlobal != 0 {
			coll.SetMask(0, math.MaxInt, f.mask, f.mask)
		}
		for _, r := range f.ranges {
			end := r.End
			if end <= 0 {
				end = textLen
			}
			value := otlayout.FeatureMask(0)
			if r.On {
				value = f.mask
			}
			coll.SetMask(r.Start, end, f.mask, value)
		}
	}
}

// --- PlanContext -----------------------------------------------------------

func (p *plan) Font() *ot.Font {
	return p.otf
}

func (p *plan) Selection() SelectionContext {
	return p.sel
}

// FeatureMask returns the mask of an enabled feature, or 0.
func (p *plan) FeatureMask(tag ot.Tag) otlayout.FeatureMask {
	if f, ok := p.byTag[tag]; ok {
		return f.mask
	}
	return 0
}

// FeatureNeedsFallback reports whether an enabled feature with a fallback is
// missing from the font.
func (p *plan) FeatureNeedsFallback(tag ot.Tag) bool {
	return p.fallback[tag]
}
