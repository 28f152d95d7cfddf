package otshape

import (
	"errors"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
)

// Shaper shapes runs of text with a set of shaping engines.
// A Shaper is safe for concurrent use, as long as its engines are.
type Shaper struct {
	engines []ShapingEngine
}

// NewShaper creates a shaper which selects from engines.
func NewShaper(engines ...ShapingEngine) *Shaper {
	return &Shaper{engines: engines}
}

// Engines returns the engines of the shaper.
func (s *Shaper) Engines() []ShapingEngine {
	return s.engines
}

// Shape shapes a run of text. It substitutes glyphs (see Substitute) and
// positions them (see Position).
func (s *Shaper) Shape(params Params, text []rune) (*PositioningCollection, error) {
	coll, p, err := s.substitute(params, text)
	if err != nil {
		return nil, err
	}
	return p.position(coll), nil
}

// Substitute maps a run of text to glyphs and applies the GSUB features of
// the font. Running out of the budget of lookup operations is not an error:
// the substitutions made so far are kept and the collection's Err reports
// otlayout.ErrShapingLimit.
func (s *Shaper) Substitute(params Params, text []rune) (*otlayout.SubstitutionCollection, error) {
	coll, _, err := s.substitute(params, text)
	return coll, err
}

// Position positions the glyphs of a collection, which has been produced by
// Substitute with the same parameters.
func (s *Shaper) Position(params Params, coll *otlayout.SubstitutionCollection) (*PositioningCollection, error) {
	p, err := s.plan(params)
	if err != nil {
		return nil, err
	}
	return p.position(coll), nil
}

func (s *Shaper) plan(params Params) (*plan, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	sel := selection(params)
	engine, err := selectShapingEngine(s.engines, sel)
	if err != nil {
		return nil, err
	}
	return compilePlan(params, sel, engine), nil
}

// selection derives the selection context of a run.
func selection(params Params) SelectionContext {
	dir := params.Direction
	if dir != bidi.RightToLeft && dir != bidi.Mixed {
		dir = bidi.LeftToRight
	}
	return SelectionContext{
		Direction: dir,
		Script:    params.Script,
		Language:  params.Language,
		ScriptTag: scriptTagForFont(params.Face.Font(), params.Script),
		LangTag:   LanguageTagForLanguage(params.Language, language.High),
	}
}

func (s *Shaper) substitute(params Params, text []rune) (*otlayout.SubstitutionCollection, *plan, error) {
	p, err := s.plan(params)
	if err != nil {
		return nil, nil, err
	}
	tracer().Debugf("shaping %d code-points with engine %q, script %s, language %s",
		len(text), p.engine.Name(), p.sel.ScriptTag, p.sel.LangTag)
	nrs := newNormalizer(p).normalize(text)
	coll := p.mapGlyphs(nrs)
	run := runContext{coll: coll}
	if h, ok := p.engine.(ShapingEngineReorderHook); ok {
		markSequences(coll, func(start, end int) {
			h.ReorderMarks(run, start, end)
		})
	}
	p.setupMasks(coll, len(text))
	if h, ok := p.engine.(ShapingEnginePreGSUBHook); ok {
		h.PrepareGSUB(run)
	}
	if h, ok := p.engine.(ShapingEngineMaskHook); ok {
		h.SetupMasks(run)
	}
	if err := p.applyGSUB(coll); err != nil {
		return nil, nil, err
	}
	if h, ok := p.engine.(ShapingEnginePostprocessHook); ok {
		h.PostprocessRun(run)
	}
	return coll, p, nil
}

// mapGlyphs creates a substitution collection for normalized text. Variation
// selectors are consumed together with their base character.
func (p *plan) mapGlyphs(nrs []normRune) *otlayout.SubstitutionCollection {
	face := p.params.Face
	coll := otlayout.NewSubstitutionCollection(len(nrs))
	for i := 0; i < len(nrs); i++ {
		var next rune
		if i+1 < len(nrs) {
			next = nrs[i+1].r
		}
		_, gid, skip := face.TryGetGlyphID(nrs[i].r, next)
		cps := []rune{nrs[i].r}
		if skip {
			cps = append(cps, next)
		}
		g := coll.Append(gid, nrs[i].off, cps...)
		if skip {
			i++
		}
		if g != nil && p.otf.Layout.GDef == nil {
			g.Class = unicodeGlyphClass(cps[0])
		}
	}
	coll.SetClasses(p.otf.Layout.GDef)
	return coll
}

// unicodeGlyphClass classifies glyphs of fonts without GDEF.
func unicodeGlyphClass(r rune) ot.GlyphClassDefEnum {
	if unicode.In(r, unicode.Mn, unicode.Me) {
		return ot.MarkGlyph
	}
	return ot.BaseGlyph
}

// applyGSUB applies the GSUB stages of the plan, calling the pause hooks
// between stages.
func (p *plan) applyGSUB(coll *otlayout.SubstitutionCollection) error {
	ctx := pauseContext{otf: p.otf, run: runContext{coll: coll}}
	for i, stage := range p.stages {
		if len(stage.steps) > 0 {
			err := otlayout.ApplyLookups(p.otf, otlayout.GSubFeatureType, coll, stage.steps, otlayout.Options{
				RightToLeft: p.params.rightToLeft(),
			})
			if errors.Is(err, otlayout.ErrShapingLimit) {
				tracer().Errorf("GSUB stage %d aborted: %v", i, err)
				return nil
			} else if err != nil {
				return errShaper(err.Error())
			}
		}
		if stage.pause != nil {
			if err := stage.pause(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

type pauseContext struct {
	otf *ot.Font
	run RunContext
}

func (pc pauseContext) Font() *ot.Font {
	return pc.otf
}

func (pc pauseContext) Run() RunContext {
	return pc.run
}
