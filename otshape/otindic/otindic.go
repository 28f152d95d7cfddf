package otindic

import (
	"unicode"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
	"github.com/npillmayer/opentext/otquery"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
)

// tracer writes to trace with key 'opentype.shaper'
func tracer() tracing.Trace {
	return tracing.Select("opentype.shaper")
}

type rephMode uint8

const (
	rephImplicit rephMode = iota // Ra,H forms reph
	rephExplicit                 // Ra,H,ZWJ forms reph
	rephLogRepha                 // encoded as a dedicated repha character
)

type blwfMode uint8

const (
	blwfPreAndPost blwfMode = iota // below-forms before and after the base
	blwfPostOnly
)

type config struct {
	script   language.Script
	virama   rune
	rephPos  uint8
	rephMode rephMode
	blwfMode blwfMode
}

var configs = []config{
	{scriptDeva, 0x094D, posBeforePost, rephImplicit, blwfPreAndPost},
	{scriptBeng, 0x09CD, posAfterSub, rephImplicit, blwfPreAndPost},
	{scriptGuru, 0x0A4D, posBeforeSub, rephImplicit, blwfPreAndPost},
	{scriptGujr, 0x0ACD, posBeforePost, rephImplicit, blwfPreAndPost},
	{scriptOrya, 0x0B4D, posAfterMain, rephImplicit, blwfPreAndPost},
	{scriptTaml, 0x0BCD, posAfterPost, rephImplicit, blwfPreAndPost},
	{scriptTelu, 0x0C4D, posAfterPost, rephExplicit, blwfPostOnly},
	{scriptKnda, 0x0CCD, posAfterPost, rephImplicit, blwfPostOnly},
	{scriptMlym, 0x0D4D, posAfterMain, rephLogRepha, blwfPreAndPost},
}

func configFor(script language.Script) *config {
	for i := range configs {
		if configs[i].script == script {
			return &configs[i]
		}
	}
	return nil
}

var (
	tagLocl = ot.T("locl")
	tagCcmp = ot.T("ccmp")
	tagLiga = ot.T("liga")
	tagRphf = ot.T("rphf")
	tagPref = ot.T("pref")
	tagBlwf = ot.T("blwf")
	tagPstf = ot.T("pstf")
	tagVatu = ot.T("vatu")
)

// Indices of the Indic features.
const (
	fNukt = iota
	fAkhn
	fRphf
	fRkrf
	fPref
	fBlwf
	fAbvf
	fHalf
	fPstf
	fVatu
	fCjct
	fInit // first of the presentation features
	fPres
	fAbvs
	fBlws
	fPsts
	fHaln
	numFeatures
)

const (
	global = otshape.FeatureGlobal | otshape.FeaturePerSyllable
	manual = otshape.FeaturePerSyllable
)

var features = [numFeatures]struct {
	tag   ot.Tag
	flags otshape.FeatureFlags
}{
	{ot.T("nukt"), global},
	{ot.T("akhn"), global},
	{tagRphf, manual},
	{ot.T("rkrf"), global},
	{tagPref, manual},
	{tagBlwf, manual},
	{ot.T("abvf"), manual},
	{ot.T("half"), manual},
	{tagPstf, manual},
	{tagVatu, global},
	{ot.T("cjct"), global},
	{ot.T("init"), manual},
	{ot.T("pres"), global},
	{ot.T("abvs"), global},
	{ot.T("blws"), global},
	{ot.T("psts"), global},
	{ot.T("haln"), global},
}

// Shaper is the Indic shaping engine.
type Shaper struct {
	cfg       *config
	font      *ot.Font
	scriptTag ot.Tag
	langTag   ot.Tag
	oldSpec   bool
	masks     [numFeatures]otlayout.FeatureMask
	virama    ot.GlyphIndex
	dotted    ot.GlyphIndex
	positions map[ot.GlyphIndex]uint8 // consonant positions by glyph
}

var _ otshape.ShapingEngine = (*Shaper)(nil)
var _ otshape.ShapingEnginePolicy = (*Shaper)(nil)
var _ otshape.ShapingEnginePlanHooks = (*Shaper)(nil)
var _ otshape.ShapingEnginePreGSUBHook = (*Shaper)(nil)
var _ otshape.ShapingEngineDecomposeHook = (*Shaper)(nil)
var _ otshape.ShapingEngineComposeHook = (*Shaper)(nil)

// New returns the Indic shaping engine.
func New() otshape.ShapingEngine {
	return &Shaper{}
}

func (Shaper) Name() string {
	return "indic"
}

func (Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	if ctx.Direction != bidi.LeftToRight || configFor(ctx.Script) == nil {
		return otshape.ShaperConfidenceNone
	}
	return otshape.ShaperConfidenceCertain
}

func (Shaper) New() otshape.ShapingEngine {
	return &Shaper{}
}

func (Shaper) NormalizationPreference() otshape.NormalizationMode {
	return otshape.NormalizationComposed
}

func (Shaper) ApplyGPOS() bool {
	return true
}

// Decompose splits all characters, except for a few letters which fonts
// support in composed form only.
func (Shaper) Decompose(ctx otshape.NormalizeContext, r rune) ([]rune, bool) {
	switch r {
	case 0x0931, 0x09DC, 0x09DD, 0x0B94:
		return nil, false
	}
	d := []rune(norm.NFD.String(string(r)))
	return d, len(d) > 1
}

// Compose keeps split matras apart.
func (Shaper) Compose(ctx otshape.NormalizeContext, a, b rune) (rune, bool) {
	if unicode.Is(unicode.M, a) {
		return 0, false
	}
	if a == 0x09AF && b == 0x09BC { // Bengali yya
		return 0x09DF, true
	}
	return ctx.ComposeUnicode(a, b)
}

// CollectFeatures stages the Indic features. The basic shaping features are
// applied one at a time, with the reorderings around them.
func (s *Shaper) CollectFeatures(plan otshape.FeaturePlanner, ctx otshape.SelectionContext) {
	s.cfg = configFor(ctx.Script)
	if s.cfg == nil {
		s.cfg = &config{script: ctx.Script, rephPos: posBeforePost}
	}
	plan.AddFeature(tagLocl, global, 1)
	plan.AddFeature(tagCcmp, global, 1)
	plan.AddGSUBPause(s.initialReordering)
	for i := 0; i < fInit; i++ {
		plan.AddFeature(features[i].tag, features[i].flags, 1)
		if i == fInit-1 {
			plan.AddGSUBPause(s.finalReordering)
		} else {
			plan.AddGSUBPause(nil)
		}
	}
	for i := fInit; i < numFeatures; i++ {
		plan.AddFeature(features[i].tag, features[i].flags, 1)
	}
}

func (Shaper) OverrideFeatures(plan otshape.FeaturePlanner) {
	plan.DisableFeature(tagLiga)
}

func (s *Shaper) InitPlan(plan otshape.PlanContext) {
	sel := plan.Selection()
	s.font = plan.Font()
	s.scriptTag, s.langTag = sel.ScriptTag, sel.LangTag
	s.oldSpec = byte(sel.ScriptTag) != '2'
	for i := range features {
		s.masks[i] = plan.FeatureMask(features[i].tag)
	}
	if s.cfg.virama != 0 {
		s.virama = otquery.GlyphIndex(s.font, s.cfg.virama)
	}
	s.dotted = otquery.GlyphIndex(s.font, 0x25CC)
	s.positions = make(map[ot.GlyphIndex]uint8)
	tracer().Debugf("indic plan for %s, old spec = %v", sel.ScriptTag, s.oldSpec)
}

// PrepareGSUB sets the categories and positions of all glyphs and finds the
// syllables of a run.
func (s *Shaper) PrepareGSUB(run otshape.RunContext) {
	for i := 0; i < run.Len(); i++ {
		g := run.Info(i)
		g.Category, g.Place = category(run.Codepoint(i))
		if isConsonant(g.Category) {
			g.Place = posBaseC
		}
	}
	findSyllables(run)
}

// wouldSubstitute checks if feature tag of the font substitutes any of the
// glyph sequences.
func (s *Shaper) wouldSubstitute(tag ot.Tag, seqs ...[]ot.GlyphIndex) bool {
	for _, gids := range seqs {
		if otlayout.WouldSubstitute(s.font, tag, s.scriptTag, s.langTag, gids) {
			return true
		}
	}
	return false
}

// consonantPosition classifies a consonant by the forms the font has for it.
func (s *Shaper) consonantPosition(gid ot.GlyphIndex) uint8 {
	if p, ok := s.positions[gid]; ok {
		return p
	}
	pre, post := []ot.GlyphIndex{s.virama, gid}, []ot.GlyphIndex{gid, s.virama}
	p := posBaseC
	switch {
	case s.wouldSubstitute(tagBlwf, pre, post), s.wouldSubstitute(tagVatu, pre, post):
		p = posBelowC
	case s.wouldSubstitute(tagPstf, pre, post), s.wouldSubstitute(tagPref, pre, post):
		p = posPostC
	}
	s.positions[gid] = p
	return p
}

// isWordCharacter checks if a glyph with code-point r prevents a following
// left matra from taking the 'init' form.
func isWordCharacter(r rune) bool {
	return unicode.In(r, unicode.L, unicode.M, unicode.Cf, unicode.Co, unicode.Cs)
}
