package otarabic_test

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/otarabic"
	"github.com/npillmayer/opentext/otshape/otcore"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

func TestShaperMatchArabicAndSyriac(t *testing.T) {
	s := otarabic.Shaper{}
	arab := otshape.SelectionContext{Script: language.MustParseScript("Arab"), Direction: bidi.RightToLeft}
	assert.Equal(t, otshape.ShaperConfidenceCertain, s.Match(arab))
	syrc := otshape.SelectionContext{Script: language.MustParseScript("Syrc"), Direction: bidi.RightToLeft}
	assert.Equal(t, otshape.ShaperConfidenceHigh, s.Match(syrc))
	nko := otshape.SelectionContext{Script: language.MustParseScript("Nkoo"), Direction: bidi.RightToLeft}
	assert.Equal(t, otshape.ShaperConfidenceMedium, s.Match(nko))
	mixed := otshape.SelectionContext{Script: language.MustParseScript("Arab"), Direction: bidi.Mixed}
	assert.Equal(t, otshape.ShaperConfidenceNone, s.Match(mixed))
	latn := otshape.SelectionContext{Script: language.MustParseScript("Latn"), Direction: bidi.LeftToRight}
	assert.Equal(t, otshape.ShaperConfidenceNone, s.Match(latn))
}

func TestShaperHookSurface(t *testing.T) {
	engine := otarabic.New()
	assert.Equal(t, "arabic", engine.Name())
	assert.Implements(t, (*otshape.ShapingEnginePolicy)(nil), engine)
	assert.Implements(t, (*otshape.ShapingEnginePlanHooks)(nil), engine)
	assert.Implements(t, (*otshape.ShapingEnginePreGSUBHook)(nil), engine)
	assert.Implements(t, (*otshape.ShapingEngineReorderHook)(nil), engine)
	assert.Implements(t, (*otshape.ShapingEngineMaskHook)(nil), engine)
	assert.Implements(t, (*otshape.ShapingEnginePostprocessHook)(nil), engine)
}

type plannerProbe struct {
	hasByTag map[ot.Tag]bool
	pauses   int
}

func (p *plannerProbe) EnableFeature(tag ot.Tag) {
	p.AddFeature(tag, otshape.FeatureGlobal, 1)
}

func (p *plannerProbe) AddFeature(tag ot.Tag, _ otshape.FeatureFlags, value uint32) {
	if p.hasByTag == nil {
		p.hasByTag = map[ot.Tag]bool{}
	}
	p.hasByTag[tag] = value != 0
}

func (p *plannerProbe) DisableFeature(tag ot.Tag)         { delete(p.hasByTag, tag) }
func (p *plannerProbe) AddGSUBPause(fn otshape.PauseHook) { p.pauses++ }
func (p *plannerProbe) HasFeature(tag ot.Tag) bool        { return p.hasByTag[tag] }

func TestCollectFeaturesAddsArabicPipelineFeatures(t *testing.T) {
	engine := otarabic.New().(*otarabic.Shaper)
	probe := &plannerProbe{}
	engine.CollectFeatures(probe, otshape.SelectionContext{
		Script:    language.MustParseScript("Arab"),
		Direction: bidi.RightToLeft,
	})
	for _, tag := range []string{"stch", "ccmp", "locl", "isol", "fina", "fin2", "fin3", "medi",
		"med2", "init", "rlig", "calt", "rclt", "liga", "clig", "mset"} {
		assert.True(t, probe.hasByTag[ot.T(tag)], "feature %s", tag)
	}
	assert.Equal(t, 11, probe.pauses)
}

type arabicGlyphs struct {
	beh, behInit, behMedi, behFina, alef, alefFina uint16
}

// arabicFace builds a font for beh and alef. With gsub set, forms are
// substituted by features 'init', 'medi' and 'fina'; otherwise the forms are
// only reachable as presentation forms through the cmap.
func arabicFace(t *testing.T, gsub bool) (*otface.Face, arabicGlyphs) {
	t.Helper()
	b := fontbuild.New()
	glyph := func(name string) uint16 {
		return b.AddGlyph(fontbuild.Glyph{Name: name, Advance: 400, Contours: fontbuild.Rect(0, 0, 400, 300)})
	}
	g := arabicGlyphs{
		beh: glyph("beh"), behInit: glyph("beh.init"), behMedi: glyph("beh.medi"),
		behFina: glyph("beh.fina"), alef: glyph("alef"), alefFina: glyph("alef.fina"),
	}
	b.Map('\u0628', g.beh)
	b.Map('\u0627', g.alef)
	if !gsub {
		b.Map('\uFE91', g.behInit)
		b.Map('\uFE92', g.behMedi)
		b.Map('\uFE90', g.behFina)
		b.Map('\uFE8E', g.alefFina)
	} else {
		single := func(m map[uint16]uint16) fontbuild.Lookup {
			return fontbuild.Lookup{Type: fontbuild.GSubSingle, Subtables: [][]byte{fontbuild.SingleSubst(m)}}
		}
		b.Table("GSUB", fontbuild.LayoutTable(
			[]fontbuild.Script{{Tag: "arab"}},
			[]fontbuild.Feature{
				{Tag: "fina", Lookups: []uint16{0}},
				{Tag: "init", Lookups: []uint16{1}},
				{Tag: "medi", Lookups: []uint16{2}},
			},
			[]fontbuild.Lookup{
				single(map[uint16]uint16{g.beh: g.behFina, g.alef: g.alefFina}),
				single(map[uint16]uint16{g.beh: g.behInit}),
				single(map[uint16]uint16{g.beh: g.behMedi}),
			}))
	}
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	face, err := otface.New(otf)
	require.NoError(t, err)
	return face, g
}

func shapeArabic(t *testing.T, face *otface.Face, text string) []ot.GlyphIndex {
	t.Helper()
	params := otshape.Params{
		Face:      face,
		Direction: bidi.RightToLeft,
		Script:    language.MustParseScript("Arab"),
		Language:  language.Arabic,
		PointSize: 12,
	}
	shaper := otshape.NewShaper(otcore.New(), otarabic.New())
	pc, err := shaper.Shape(params, []rune(text))
	require.NoError(t, err)
	gids := make([]ot.GlyphIndex, pc.Len())
	for i, g := range pc.Glyphs {
		gids[i] = g.Glyph
	}
	return gids
}

func gids(g ...uint16) []ot.GlyphIndex {
	r := make([]ot.GlyphIndex, len(g))
	for i := range g {
		r[i] = ot.GlyphIndex(g[i])
	}
	return r
}

func TestShapeJoiningForms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := arabicFace(t, true)
	assert.Equal(t, gids(g.behInit, g.behMedi, g.alefFina), shapeArabic(t, face, "\u0628\u0628\u0627"))
	assert.Equal(t, gids(g.alef, g.beh), shapeArabic(t, face, "\u0627\u0628"), "alef does not join")
	assert.Equal(t, gids(g.beh), shapeArabic(t, face, "\u0628"), "font has no 'isol'")
}

func TestShapeFallbackForms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := arabicFace(t, false)
	assert.Equal(t, gids(g.behInit, g.behMedi, g.alefFina), shapeArabic(t, face, "\u0628\u0628\u0627"))
	assert.Equal(t, gids(g.behInit, g.behFina), shapeArabic(t, face, "\u0628\u0628"))
}
