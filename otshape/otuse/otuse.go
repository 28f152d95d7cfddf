package otuse

import (
	"unicode"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
	"github.com/npillmayer/opentext/otquery"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/internal/syllable"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
)

// tracer writes to trace with key 'opentype.shaper'
func tracer() tracing.Trace {
	return tracing.Select("opentype.shaper")
}

// scripts shaped by this engine.
var scripts = map[language.Script]bool{}

func init() {
	for _, s := range []string{
		"Bali", "Batk", "Bhks", "Brah", "Bugi", "Buhd", "Cakm", "Cham", "Dogr", "Gong",
		"Gonm", "Gran", "Hano", "Java", "Kali", "Khar", "Khmr", "Khoj", "Kthi", "Lana",
		"Lepc", "Limb", "Mahj", "Modi", "Mtei", "Mult", "Mymr", "Newa", "Rjng", "Saur",
		"Shrd", "Sidd", "Sind", "Sinh", "Sund", "Sylo", "Tagb", "Takr", "Tglg", "Tibt",
		"Tirh",
	} {
		scripts[language.MustParseScript(s)] = true
	}
}

const (
	global = otshape.FeatureGlobal | otshape.FeaturePerSyllable
	manual = otshape.FeaturePerSyllable
)

var (
	tagRphf = ot.T("rphf")
	tagPref = ot.T("pref")

	preprocessingFeatures = []ot.Tag{ot.T("locl"), ot.T("ccmp"), ot.T("nukt"), ot.T("akhn")}
	basicFeatures         = []ot.Tag{ot.T("rkrf"), ot.T("abvf"), ot.T("blwf"), ot.T("half"),
		ot.T("pstf"), ot.T("vatu"), ot.T("cjct")}
	// in the order of joining forms isol, init, medi, fina
	topographicalFeatures = []ot.Tag{ot.T("isol"), ot.T("init"), ot.T("medi"), ot.T("fina")}
	otherFeatures         = []ot.Tag{ot.T("abvs"), ot.T("blws"), ot.T("haln"), ot.T("pres"), ot.T("psts")}
)

// Joining forms of clusters.
const (
	formIsol = iota
	formInit
	formMedi
	formFina
	formNone
)

// Shaper is the universal shaping engine.
type Shaper struct {
	rphf   otlayout.FeatureMask
	topo   [4]otlayout.FeatureMask
	dotted ot.GlyphIndex
}

var _ otshape.ShapingEngine = (*Shaper)(nil)
var _ otshape.ShapingEnginePolicy = (*Shaper)(nil)
var _ otshape.ShapingEnginePlanHooks = (*Shaper)(nil)
var _ otshape.ShapingEnginePreGSUBHook = (*Shaper)(nil)
var _ otshape.ShapingEngineMaskHook = (*Shaper)(nil)
var _ otshape.ShapingEngineDecomposeHook = (*Shaper)(nil)
var _ otshape.ShapingEngineComposeHook = (*Shaper)(nil)

// New returns the universal shaping engine.
func New() otshape.ShapingEngine {
	return &Shaper{}
}

func (Shaper) Name() string {
	return "use"
}

func (Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	if ctx.Direction != bidi.LeftToRight && ctx.Direction != bidi.RightToLeft {
		return otshape.ShaperConfidenceNone
	}
	if scripts[ctx.Script] {
		return otshape.ShaperConfidenceHigh
	}
	return otshape.ShaperConfidenceNone
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

// Decompose splits vowel signs consisting of several parts.
func (Shaper) Decompose(ctx otshape.NormalizeContext, r rune) ([]rune, bool) {
	if !unicode.Is(unicode.M, r) {
		return nil, false
	}
	d := []rune(norm.NFD.String(string(r)))
	return d, len(d) > 1
}

// Compose keeps split vowel signs apart.
func (Shaper) Compose(ctx otshape.NormalizeContext, a, b rune) (rune, bool) {
	if unicode.Is(unicode.M, a) {
		return 0, false
	}
	return ctx.ComposeUnicode(a, b)
}

func (s *Shaper) CollectFeatures(plan otshape.FeaturePlanner, ctx otshape.SelectionContext) {
	for _, tag := range preprocessingFeatures {
		plan.AddFeature(tag, global, 1)
	}
	plan.AddGSUBPause(clearSubstitutionFlags)
	plan.AddFeature(tagRphf, manual, 1)
	plan.AddGSUBPause(s.recordRphf)
	plan.AddGSUBPause(clearSubstitutionFlags)
	plan.AddFeature(tagPref, global, 1)
	plan.AddGSUBPause(recordPref)
	for _, tag := range basicFeatures {
		plan.AddFeature(tag, global, 1)
	}
	plan.AddGSUBPause(s.reorder)
	for _, tag := range topographicalFeatures {
		plan.AddFeature(tag, otshape.FeatureNone, 1)
	}
	plan.AddGSUBPause(nil)
	for _, tag := range otherFeatures {
		plan.AddFeature(tag, global, 1)
	}
}

func (Shaper) OverrideFeatures(plan otshape.FeaturePlanner) {}

func (s *Shaper) InitPlan(plan otshape.PlanContext) {
	s.rphf = plan.FeatureMask(tagRphf)
	for i, tag := range topographicalFeatures {
		s.topo[i] = plan.FeatureMask(tag)
	}
	s.dotted = otquery.GlyphIndex(plan.Font(), 0x25CC)
	tracer().Debugf("use plan for %s", plan.Selection().ScriptTag)
}

// PrepareGSUB classifies the characters of a run and finds its clusters.
func (s *Shaper) PrepareGSUB(run otshape.RunContext) {
	for i := 0; i < run.Len(); i++ {
		run.Info(i).Category = category(run.Codepoint(i))
	}
	findSyllables(run)
}

// SetupMasks enables 'rphf' for the start of clusters, and the topographical
// features by the position of a cluster within a sequence of clusters.
func (s *Shaper) SetupMasks(run otshape.RunContext) {
	syllable.ForEach(run, func(start, end int) {
		limit := min(3, end-start)
		if run.Info(start).Category == catR {
			limit = 1
		}
		for i := start; i < start+limit; i++ {
			run.Info(i).Mask |= s.rphf
		}
	})
	var all otlayout.FeatureMask
	for _, m := range s.topo {
		all |= m
	}
	if all == 0 {
		return
	}
	setForm := func(start, end, form int) {
		for i := start; i < end; i++ {
			g := run.Info(i)
			g.Mask = g.Mask&^all | s.topo[form]
		}
	}
	lastStart, lastForm := 0, formNone
	syllable.ForEach(run, func(start, end int) {
		if syllable.Type(run.Info(start).Syllable) == nonCluster {
			lastStart, lastForm = start, formNone
			return
		}
		join := lastForm == formFina || lastForm == formIsol
		if join {
			if lastForm == formFina {
				setForm(lastStart, start, formMedi)
			} else {
				setForm(lastStart, start, formInit)
			}
			setForm(start, end, formFina)
			lastForm = formFina
		} else {
			setForm(start, end, formIsol)
			lastForm = formIsol
		}
		lastStart = start
	})
}

func clearSubstitutionFlags(ctx otshape.PauseContext) error {
	run := ctx.Run()
	for i := 0; i < run.Len(); i++ {
		run.Info(i).Flags &^= otlayout.FlagSubstituted
	}
	return nil
}

// recordRphf marks glyphs substituted by 'rphf' as repha.
func (s *Shaper) recordRphf(ctx otshape.PauseContext) error {
	run := ctx.Run()
	if s.rphf == 0 {
		return nil
	}
	syllable.ForEach(run, func(start, end int) {
		for i := start; i < end && run.Info(i).Mask&s.rphf != 0; i++ {
			if g := run.Info(i); g.Flags&otlayout.FlagSubstituted != 0 {
				g.Category = catR
				break
			}
		}
	})
	return nil
}

// recordPref marks glyphs substituted by 'pref' as pre-base vowels.
func recordPref(ctx otshape.PauseContext) error {
	run := ctx.Run()
	syllable.ForEach(run, func(start, end int) {
		for i := start; i < end; i++ {
			if g := run.Info(i); g.Flags&otlayout.FlagSubstituted != 0 {
				g.Category = catVPre
				break
			}
		}
	})
	return nil
}

// reorder inserts dotted circles into broken clusters and reorders all
// clusters.
func (s *Shaper) reorder(ctx otshape.PauseContext) error {
	run := ctx.Run()
	syllable.InsertDottedCircles(run, s.dotted, brokenCluster, catR, catB, 0)
	syllable.ForEach(run, func(start, end int) {
		switch syllable.Type(run.Info(start).Syllable) {
		case viramaTerminatedCluster, sakotTerminatedCluster, standardCluster, symbolCluster, brokenCluster:
			reorderCluster(run, start, end)
		}
	})
	return nil
}

func isHalantGlyph(g *otlayout.GlyphShapingData) bool {
	return isHalant(g.Category) && g.Flags&otlayout.FlagLigated == 0
}

// reorderCluster moves a repha forward, before the first post-base glyph,
// and pre-base glyphs back, after the last halant.
func reorderCluster(run otshape.RunContext, start, end int) {
	if run.Info(start).Category == catR && end-start > 1 {
		for i := start + 1; i < end; i++ {
			g := run.Info(i)
			post := isPostBase(g.Category) || isHalantGlyph(g)
			if post || i == end-1 {
				if post {
					i--
				}
				run.MergeClusters(start, i+1)
				shift(run, start, i)
				break
			}
		}
	}
	j := start
	for i := start; i < end; i++ {
		g := run.Info(i)
		if isHalantGlyph(g) {
			j = i + 1
		} else if (g.Category == catVPre || g.Category == catVMPre) && j < i &&
			(g.Flags&otlayout.FlagMultiplied == 0 || g.LigComponent <= 1) {
			run.MergeClusters(j, i+1)
			shift(run, i, j)
		}
	}
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
