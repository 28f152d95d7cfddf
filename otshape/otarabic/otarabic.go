package otarabic

import (
	"strings"
	"sync"
	"unicode"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
	"github.com/npillmayer/opentext/otquery"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// tracer writes to trace with key 'opentype.shaper'
func tracer() tracing.Trace {
	return tracing.Select("opentype.shaper")
}

var scriptArabic = language.MustParseScript("Arab")

// confidence is the bid of the engine per script. Scripts other than Arabic
// and Syriac join the same way but may have other conventions.
var confidence = map[language.Script]otshape.ShaperConfidence{
	scriptArabic:                      otshape.ShaperConfidenceCertain,
	language.MustParseScript("Syrc"): otshape.ShaperConfidenceHigh,
	language.MustParseScript("Adlm"): otshape.ShaperConfidenceMedium,
	language.MustParseScript("Mand"): otshape.ShaperConfidenceMedium,
	language.MustParseScript("Mong"): otshape.ShaperConfidenceMedium,
	language.MustParseScript("Nkoo"): otshape.ShaperConfidenceMedium,
	language.MustParseScript("Phag"): otshape.ShaperConfidenceMedium,
}

var (
	tagStch = ot.T("stch")
	tagCcmp = ot.T("ccmp")
	tagLocl = ot.T("locl")
	tagRlig = ot.T("rlig")
	tagCalt = ot.T("calt")
	tagRclt = ot.T("rclt")
	tagLiga = ot.T("liga")
	tagClig = ot.T("clig")
	tagMset = ot.T("mset")
	tagInit = ot.T("init")
)

// Joining forms, in the order of their features in a plan.
const (
	formNone = iota - 1
	formIsol
	formFina
	formFin2
	formFin3
	formMedi
	formMed2
	formInit
	formCount
)

var formFeatures = [formCount]ot.Tag{
	ot.T("isol"), ot.T("fina"), ot.T("fin2"), ot.T("fin3"), ot.T("medi"), ot.T("med2"), tagInit,
}

// arabicPlan is what the engine learns about a font when a plan is compiled.
type arabicPlan struct {
	font         *ot.Font
	formMasks    [formCount]otlayout.FeatureMask
	allForms     otlayout.FeatureMask
	stch         otlayout.FeatureMask
	fallback     bool                // font lacks 'rlig' or a form feature
	emulated     [formCount]bool     // form features the font lacks
	presentation map[rune]formGlyphs // presentation form glyphs by letter
}

// Shaper is the Arabic/Syriac shaping engine.
//
// Joining forms are resolved from the code-points of a run before GSUB and
// stored as feature masks. Fonts without form features get presentation form
// glyphs from the cmap, if available.
type Shaper struct {
	plan  arabicPlan
	forms []int // joining forms of the current run
}

var _ otshape.ShapingEngine = (*Shaper)(nil)
var _ otshape.ShapingEnginePolicy = (*Shaper)(nil)
var _ otshape.ShapingEnginePlanHooks = (*Shaper)(nil)
var _ otshape.ShapingEnginePreGSUBHook = (*Shaper)(nil)
var _ otshape.ShapingEngineReorderHook = (*Shaper)(nil)
var _ otshape.ShapingEngineMaskHook = (*Shaper)(nil)
var _ otshape.ShapingEnginePostprocessHook = (*Shaper)(nil)

// New returns the Arabic shaping engine.
func New() otshape.ShapingEngine {
	return &Shaper{}
}

func (Shaper) Name() string {
	return "arabic"
}

func (Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	if ctx.Direction != bidi.LeftToRight && ctx.Direction != bidi.RightToLeft {
		return otshape.ShaperConfidenceNone
	}
	if c, ok := confidence[ctx.Script]; ok {
		return c
	}
	switch ctx.ScriptTag {
	case ot.T("arab"):
		return otshape.ShaperConfidenceCertain
	case ot.T("syrc"):
		return otshape.ShaperConfidenceHigh
	}
	return otshape.ShaperConfidenceNone
}

func (Shaper) New() otshape.ShapingEngine {
	return &Shaper{}
}

func (Shaper) NormalizationPreference() otshape.NormalizationMode {
	return otshape.NormalizationAuto
}

func (Shaper) ApplyGPOS() bool {
	return true
}

// CollectFeatures stages the Arabic features. Every form feature gets a
// stage of its own, as forms must not interact.
func (s *Shaper) CollectFeatures(plan otshape.FeaturePlanner, ctx otshape.SelectionContext) {
	arabic := ctx.Script == scriptArabic
	plan.AddFeature(tagStch, otshape.FeatureNone, 1)
	plan.AddGSUBPause(nil)
	plan.AddFeature(tagCcmp, otshape.FeatureGlobal, 1)
	plan.AddFeature(tagLocl, otshape.FeatureGlobal, 1)
	plan.AddGSUBPause(nil)
	for form, tag := range formFeatures {
		flags := otshape.FeatureNone
		if arabic && !isSyriacForm(form) {
			flags = otshape.FeatureHasFallback
		}
		plan.AddFeature(tag, flags, 1)
		plan.AddGSUBPause(nil)
	}
	plan.AddFeature(tagRlig, otshape.FeatureGlobal|otshape.FeatureHasFallback, 1)
	if arabic {
		plan.AddGSUBPause(nil)
	}
	plan.AddFeature(tagCalt, otshape.FeatureGlobal, 1)
	if !plan.HasFeature(tagRclt) {
		plan.AddGSUBPause(nil)
		plan.AddFeature(tagRclt, otshape.FeatureGlobal, 1)
	}
	for _, tag := range []ot.Tag{tagLiga, tagClig, tagMset} {
		plan.AddFeature(tag, otshape.FeatureGlobal, 1)
	}
}

// isSyriacForm is true for the forms only Syriac Alaph takes.
func isSyriacForm(form int) bool {
	return form == formFin2 || form == formFin3 || form == formMed2
}

func (Shaper) OverrideFeatures(plan otshape.FeaturePlanner) {}

func (s *Shaper) InitPlan(plan otshape.PlanContext) {
	s.plan = arabicPlan{
		font:     plan.Font(),
		stch:     plan.FeatureMask(tagStch),
		fallback: planNeedsArabicFallback(plan),
	}
	for form, tag := range formFeatures {
		s.plan.formMasks[form] = plan.FeatureMask(tag)
		s.plan.allForms |= s.plan.formMasks[form]
		s.plan.emulated[form] = plan.FeatureNeedsFallback(tag)
	}
	if s.plan.fallback {
		s.plan.presentation = presentationGlyphs(s.plan.font)
		tracer().Debugf("arabic fallback shaping with %d presentation forms", len(s.plan.presentation))
	}
}

// planNeedsArabicFallback is true if the font lacks 'rlig' or one of the
// Arabic form features.
func planNeedsArabicFallback(plan otshape.PlanContext) bool {
	if plan.FeatureNeedsFallback(tagRlig) {
		return true
	}
	for _, tag := range formFeatures {
		if plan.FeatureNeedsFallback(tag) {
			return true
		}
	}
	return false
}

func (s *Shaper) PrepareGSUB(run otshape.RunContext) {
	s.forms = s.forms[:0]
	if run.Len() > 0 {
		s.forms = append(s.forms, resolveJoiningForms(runCodepoints(run, s.plan.font))...)
	}
}

// formsFor returns the joining forms of run. Runs changed in length since
// PrepareGSUB are resolved again.
func (s *Shaper) formsFor(run otshape.RunContext) []int {
	if len(s.forms) == run.Len() {
		return s.forms
	}
	return resolveJoiningForms(runCodepoints(run, s.plan.font))
}

func (s *Shaper) SetupMasks(run otshape.RunContext) {
	if s.plan.allForms == 0 || run.Len() == 0 {
		return
	}
	for i, form := range s.formsFor(run) {
		mask := run.Mask(i) &^ s.plan.allForms
		if form != formNone {
			mask |= s.plan.formMasks[form]
		}
		run.SetMask(i, mask)
	}
}

// ReorderMarks moves modifier combining marks of classes 220 and 230 to the
// front of their mark sequence, below marks first.
func (s *Shaper) ReorderMarks(run otshape.RunContext, start, end int) {
	start, end = max(start, 0), min(end, run.Len())
	if end-start < 2 {
		return
	}
	i := start
	for _, cc := range [...]uint8{220, 230} {
		for i < end && combiningClass(run.Codepoint(i)) < cc {
			i++
		}
		j := i
		for j < end && combiningClass(run.Codepoint(j)) == cc && isModifierCombiningMark(run.Codepoint(j)) {
			j++
		}
		if j == i {
			continue
		}
		run.MergeClusters(start, j)
		for k := i; k < j; k++ {
			run.Move(k, start+k-i)
		}
		start, i = start+j-i, j
	}
}

// isModifierCombiningMark is true for marks which modify the letter they
// follow rather than being placed on it.
func isModifierCombiningMark(cp rune) bool {
	switch cp {
	case 0x0654, 0x0655, 0x0658, 0x06DC, 0x06E3, 0x06E7, 0x06E8,
		0x08CA, 0x08CB, 0x08CD, 0x08CE, 0x08CF, 0x08D3, 0x08F3:
		return true
	}
	return false
}

func combiningClass(cp rune) uint8 {
	if cp == 0 {
		return 0
	}
	return norm.NFD.PropertiesString(string(cp)).CCC()
}

// PostprocessRun substitutes presentation forms for glyphs the font did not
// shape and stretches tatweel for 'stch'.
func (s *Shaper) PostprocessRun(run otshape.RunContext) {
	defer func() { s.forms = s.forms[:0] }()
	if s.plan.fallback && len(s.plan.presentation) > 0 && run.Len() > 0 {
		for i, form := range s.formsFor(run) {
			unshaped := form != formNone && s.plan.emulated[form] &&
				run.Info(i).Flags&otlayout.FlagSubstituted == 0
			if run.Glyph(i) != otshape.NOTDEF && !unshaped {
				continue
			}
			if gid, ok := s.plan.presentation[run.Codepoint(i)].glyph(form); ok {
				run.SetGlyph(i, gid)
			}
		}
	}
	if s.plan.stch != 0 && s.plan.font != nil {
		if tatweel := otquery.GlyphIndex(s.plan.font, '\u0640'); tatweel != otshape.NOTDEF {
			expandTatweelForStch(run, tatweel, s.plan.stch)
		}
	}
}

// expandTatweelForStch doubles every tatweel which is subject to 'stch' and
// returns the number of glyphs inserted.
func expandTatweelForStch(run otshape.RunContext, tatweel ot.GlyphIndex, stch otlayout.FeatureMask) int {
	n := 0
	for i := run.Len() - 1; i >= 0; i-- {
		if run.Glyph(i) == tatweel && (stch == 0 || run.Mask(i)&stch != 0) {
			run.InsertGlyphCopies(i+1, i, 1)
			n++
		}
	}
	return n
}

// runCodepoints returns the code-points of a run. Glyphs without one are
// mapped back through the cmap.
func runCodepoints(run otshape.RunContext, font *ot.Font) []rune {
	cps := make([]rune, run.Len())
	for i := range cps {
		if cps[i] = run.Codepoint(i); cps[i] == 0 && font != nil {
			cps[i] = otquery.CodePointForGlyph(font, run.Glyph(i))
		}
	}
	return cps
}

// --- Presentation forms ------------------------------------------------

// formGlyphs are the glyphs of the presentation forms of a letter, by form.
type formGlyphs [formCount]ot.GlyphIndex

// presentationOf maps the forms of Syriac Alaph to the forms encoded for
// Arabic letters.
var presentationOf = [formCount]int{formIsol, formFina, formFina, formFina, formMedi, formMedi, formInit}

// glyph returns the glyph for a joining form, or the isolated form if the
// font has no glyph for it.
func (fg formGlyphs) glyph(form int) (ot.GlyphIndex, bool) {
	if form == formNone {
		form = formIsol
	}
	for _, f := range [2]int{presentationOf[form], formIsol} {
		if fg[f] != otshape.NOTDEF {
			return fg[f], true
		}
	}
	return otshape.NOTDEF, false
}

// presentationGlyphs collects the presentation form glyphs of a font.
func presentationGlyphs(font *ot.Font) map[rune]formGlyphs {
	if font == nil {
		return nil
	}
	table := make(map[rune]formGlyphs)
	for letter, cps := range presentationForms() {
		var fg formGlyphs
		for form, cp := range cps {
			if cp != 0 {
				fg[form] = otquery.GlyphIndex(font, cp)
			}
		}
		if fg != (formGlyphs{}) {
			table[letter] = fg
		}
	}
	return table
}

// presentationForms maps Arabic letters to the code-points of their
// presentation forms, derived from the character names of the Arabic
// Presentation Forms blocks.
var presentationForms = sync.OnceValue(func() map[rune][formCount]rune {
	table := make(map[rune][formCount]rune, 256)
	for _, block := range [...][2]rune{{0xFB50, 0xFDFF}, {0xFE70, 0xFEFF}} {
		for cp := block[0]; cp <= block[1]; cp++ {
			form, letter := formOfName(runenames.Name(cp)), presentationBaseRune(cp)
			if form == formNone || letter == 0 {
				continue
			}
			if forms := table[letter]; forms[form] == 0 {
				forms[form] = cp
				table[letter] = forms
			}
		}
	}
	return table
})

var formSuffixes = [...]struct {
	suffix string
	form   int
}{
	{" ISOLATED FORM", formIsol},
	{" FINAL FORM", formFina},
	{" INITIAL FORM", formInit},
	{" MEDIAL FORM", formMedi},
}

// formOfName returns the joining form a character name denotes, or formNone.
func formOfName(name string) int {
	if strings.HasPrefix(name, "ARABIC LETTER ") {
		for _, s := range formSuffixes {
			if strings.HasSuffix(name, s.suffix) {
				return s.form
			}
		}
	}
	return formNone
}

// presentationBaseRune returns the letter a presentation form is a form of.
// Ligatures yield 0.
func presentationBaseRune(cp rune) rune {
	letter := []rune(norm.NFC.String(norm.NFKD.String(string(cp))))
	if len(letter) != 1 || !unicode.In(letter[0], unicode.Arabic) {
		return 0
	}
	return letter[0]
}
