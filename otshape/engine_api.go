package otshape

import (
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// SelectionContext describes a segment of text to the engines bidding for it.
type SelectionContext struct {
	Direction bidi.Direction
	Script    language.Script // ISO 15924
	Language  language.Tag
	ScriptTag ot.Tag // script tag selected for the font
	LangTag   ot.Tag
}

// NormalizationMode selects how text is normalized before glyph mapping.
type NormalizationMode uint8

const (
	NormalizationAuto NormalizationMode = iota
	NormalizationNone
	NormalizationComposed
	NormalizationDecomposed
)

// FeatureFlags guide feature resolution in plan compilation.
type FeatureFlags uint16

const FeatureNone FeatureFlags = 0

const (
	FeatureGlobal      FeatureFlags = 1 << iota // applies to all glyphs, shares the global mask
	FeatureHasFallback                          // the engine emulates the feature if the font lacks it
	FeaturePerSyllable                          // lookups match within a syllable only
)

// FeaturePlanner collects the features of a shaping plan.
// Features are applied in stages; a pause ends the current stage.
type FeaturePlanner interface {
	EnableFeature(tag ot.Tag)
	AddFeature(tag ot.Tag, flags FeatureFlags, value uint32)
	DisableFeature(tag ot.Tag)
	AddGSUBPause(fn PauseHook)
	HasFeature(tag ot.Tag) bool
}

// PlanContext gives engines access to a compiled plan.
type PlanContext interface {
	Font() *ot.Font
	Selection() SelectionContext
	FeatureMask(tag ot.Tag) otlayout.FeatureMask
	FeatureNeedsFallback(tag ot.Tag) bool
}

// RunContext is the narrow runtime view available to shaper hooks. Glyphs are
// in logical order.
type RunContext interface {
	Len() int
	Glyph(i int) ot.GlyphIndex
	SetGlyph(i int, gid ot.GlyphIndex)
	Codepoint(i int) rune // first code-point of glyph #i, or 0
	Info(i int) *otlayout.GlyphShapingData
	Mask(i int) otlayout.FeatureMask
	SetMask(i int, mask otlayout.FeatureMask)
	MergeClusters(start, end int)
	Move(from, to int)
	Swap(i, j int)
	InsertGlyph(index int, gid ot.GlyphIndex, cps ...rune)
	InsertGlyphCopies(index int, source int, count int)
}

// NormalizeContext is handed to the composition and decomposition hooks.
type NormalizeContext interface {
	Font() *ot.Font
	Selection() SelectionContext
	ComposeUnicode(a, b rune) (rune, bool)
	HasGposMark() bool
}

// PauseContext is handed to functions running between GSUB stages.
type PauseContext interface {
	Font() *ot.Font
	Run() RunContext
}

// PauseHook runs between two GSUB stages and may change the run.
type PauseHook func(ctx PauseContext) error

// ShaperConfidence is the bid of an engine for a segment.
type ShaperConfidence int

const (
	ShaperConfidenceNone ShaperConfidence = iota
	ShaperConfidenceLow
	ShaperConfidenceMedium
	ShaperConfidenceHigh
	ShaperConfidenceCertain
)

// ShapingEngine is implemented by all engines. Everything else is optional.
// New returns a fresh instance; engines may keep per-run state in it.
type ShapingEngine interface {
	Name() string
	Match(ctx SelectionContext) ShaperConfidence
	New() ShapingEngine
}

// ShapingEnginePolicy lets an engine choose normalization and switch off GPOS.
type ShapingEnginePolicy interface {
	NormalizationPreference() NormalizationMode
	ApplyGPOS() bool
}

// ShapingEnginePlanHooks takes part in compiling a plan.
type ShapingEnginePlanHooks interface {
	CollectFeatures(plan FeaturePlanner, ctx SelectionContext)
	OverrideFeatures(plan FeaturePlanner)
	InitPlan(plan PlanContext)
}

// ShapingEnginePreGSUBHook sees a run after normalization, before any substitution.
type ShapingEnginePreGSUBHook interface {
	PrepareGSUB(run RunContext)
}

// ShapingEngineComposeHook replaces canonical composition of pairs.
type ShapingEngineComposeHook interface {
	Compose(ctx NormalizeContext, a, b rune) (rune, bool)
}

// ShapingEngineDecomposeHook replaces canonical decomposition.
// Decompose returns the parts to use for r, or false to keep r. Parts are used
// regardless of font support for r, as long as the font supports all of them.
type ShapingEngineDecomposeHook interface {
	Decompose(ctx NormalizeContext, r rune) ([]rune, bool)
}

// ShapingEngineReorderHook reorders marks before GSUB. It is called
// for every sequence [start, end) of combining marks.
type ShapingEngineReorderHook interface {
	ReorderMarks(run RunContext, start, end int)
}

// ShapingEngineMaskHook sets feature masks of glyphs before GSUB.
type ShapingEngineMaskHook interface {
	SetupMasks(run RunContext)
}

// ShapingEnginePostprocessHook sees a run after all GSUB stages.
type ShapingEnginePostprocessHook interface {
	PostprocessRun(run RunContext)
}

// selectShapingEngine returns the engine with the highest confidence for ctx.
// Ties are broken by name, to keep the selection independent of the order of
// registration.
func selectShapingEngine(engines []ShapingEngine, ctx SelectionContext) (ShapingEngine, error) {
	if len(engines) == 0 {
		return nil, ErrNoShaper
	}
	var best ShapingEngine
	bestScore := ShaperConfidenceNone
	for _, e := range engines {
		if e == nil {
			continue
		}
		score := e.Match(ctx)
		if score <= ShaperConfidenceNone {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && e.Name() < best.Name()) {
			best, bestScore = e, score
		}
	}
	if best == nil {
		return nil, ErrNoMatchingShaper
	}
	tracer().Debugf("selected shaping engine %q for script %s", best.Name(), ctx.Script)
	return best.New(), nil
}
