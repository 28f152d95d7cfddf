package otshape

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/bidi"
)

// glyphs of the test font
type glyphs struct {
	a, b, e, eacute, f, i, fi, acute, space uint16
}

type fontSetup struct {
	gsub, gpos, kern bool
	scripts          []fontbuild.Script
}

// testFace builds a latin test face. GSUB has 'liga' (f i → fi), GPOS has
// 'kern' (a b: -50) and 'mark' (acute on a and e); the kern table has b a: -30.
func testFace(t *testing.T, setup fontSetup) (*otface.Face, glyphs) {
	t.Helper()
	b := fontbuild.New()
	b.FamilyName = "Shapetest"
	glyph := func(name string, adv uint16) uint16 {
		return b.AddGlyph(fontbuild.Glyph{Name: name, Advance: adv, Contours: fontbuild.Rect(10, 0, int16(adv)-10, 500)})
	}
	g := glyphs{
		a: glyph("a", 500), b: glyph("b", 500), e: glyph("e", 500), eacute: glyph("eacute", 500),
		f: glyph("f", 300), i: glyph("i", 250), fi: glyph("fi", 520),
		acute: b.AddGlyph(fontbuild.Glyph{Name: "acutecomb", Advance: 200, Contours: fontbuild.Rect(20, 600, 180, 700)}),
		space: b.AddGlyph(fontbuild.Glyph{Name: "space", Advance: 250}),
	}
	for r, gid := range map[rune]uint16{'a': g.a, 'b': g.b, 'e': g.e, 0xe9: g.eacute,
		'f': g.f, 'i': g.i, 0x301: g.acute, ' ': g.space} {
		b.Map(r, gid)
	}
	b.Table("GDEF", fontbuild.GDEF(map[uint16]uint16{
		g.a: 1, g.b: 1, g.e: 1, g.eacute: 1, g.f: 1, g.i: 1, g.space: 1, g.fi: 2, g.acute: 3,
	}, nil, nil))
	if setup.gsub {
		b.Table("GSUB", fontbuild.LayoutTable(setup.scripts,
			[]fontbuild.Feature{{Tag: "liga", Lookups: []uint16{0}}},
			[]fontbuild.Lookup{{Type: fontbuild.GSubLigature, Subtables: [][]byte{
				fontbuild.LigatureSubst([]fontbuild.Ligature{{Components: []uint16{g.f, g.i}, Glyph: g.fi}}),
			}}}))
	}
	if setup.gpos {
		b.Table("GPOS", fontbuild.LayoutTable(setup.scripts,
			[]fontbuild.Feature{{Tag: "kern", Lookups: []uint16{0}}, {Tag: "mark", Lookups: []uint16{1}}},
			[]fontbuild.Lookup{
				{Type: fontbuild.GPosPair, Flag: fontbuild.FlagIgnoreMarks, Subtables: [][]byte{
					fontbuild.PairPos(map[[2]uint16]fontbuild.Value{{g.a, g.b}: {XAdvance: -50}}),
				}},
				{Type: fontbuild.GPosMarkToBase, Subtables: [][]byte{
					fontbuild.MarkAttachPos(
						map[uint16]fontbuild.Mark{g.acute: {Class: 0, Anchor: fontbuild.Anchor{X: 100, Y: 500}}},
						map[uint16][]*fontbuild.Anchor{
							g.a: {{X: 250, Y: 600}},
							g.e: {{X: 260, Y: 600}},
						}),
				}},
			}))
	}
	if setup.kern {
		b.Table("kern", fontbuild.Kern(map[[2]uint16]int16{{g.b, g.a}: -30}))
	}
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	face, err := otface.New(otf)
	require.NoError(t, err)
	return face, g
}

// testEngine is a neutral engine which records the hooks called.
type testEngine struct {
	name       string
	confidence ShaperConfidence
	features   func(plan FeaturePlanner)
	calls      *[]string
}

func (e testEngine) Name() string                                { return e.name }
func (e testEngine) Match(ctx SelectionContext) ShaperConfidence { return e.confidence }
func (e testEngine) New() ShapingEngine                          { return e }

func (e testEngine) CollectFeatures(plan FeaturePlanner, ctx SelectionContext) {
	if e.features != nil {
		e.features(plan)
	}
}

func (e testEngine) OverrideFeatures(plan FeaturePlanner) {}

func (e testEngine) InitPlan(plan PlanContext) {
	e.record("init")
}

func (e testEngine) PrepareGSUB(run RunContext) {
	e.record("prepare")
}

func (e testEngine) SetupMasks(run RunContext) {
	e.record("masks")
}

func (e testEngine) PostprocessRun(run RunContext) {
	e.record("postprocess")
}

func (e testEngine) record(call string) {
	if e.calls != nil {
		*e.calls = append(*e.calls, call)
	}
}

func ltr(face *otface.Face, features ...FeatureRange) Params {
	return Params{Face: face, Direction: bidi.LeftToRight, Features: features, PointSize: 10}
}

func glyphIDs(pc *PositioningCollection) []ot.GlyphIndex {
	gids := make([]ot.GlyphIndex, pc.Len())
	for i, g := range pc.Glyphs {
		gids[i] = g.Glyph
	}
	return gids
}

func ids(gids ...uint16) []ot.GlyphIndex {
	r := make([]ot.GlyphIndex, len(gids))
	for i, g := range gids {
		r[i] = ot.GlyphIndex(g)
	}
	return r
}
