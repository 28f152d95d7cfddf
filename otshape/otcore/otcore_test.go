package otcore_test

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/otcore"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

func TestMatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	core := otcore.New()
	assert.Equal(t, "core", core.Name())
	latn := otshape.SelectionContext{Direction: bidi.LeftToRight, Script: language.MustParseScript("Latn")}
	assert.Equal(t, otshape.ShaperConfidenceHigh, core.Match(latn))
	grek := otshape.SelectionContext{Direction: bidi.LeftToRight, Script: language.MustParseScript("Grek")}
	assert.Equal(t, otshape.ShaperConfidenceHigh, core.Match(grek))
	syrc := otshape.SelectionContext{Direction: bidi.RightToLeft, Script: language.MustParseScript("Syrc")}
	assert.Equal(t, otshape.ShaperConfidenceLow, core.Match(syrc))
	mixed := otshape.SelectionContext{Direction: bidi.Mixed, Script: language.MustParseScript("Latn")}
	assert.Equal(t, otshape.ShaperConfidenceNone, core.Match(mixed))
}

// testFace builds a font with glyphs for 'a' and 'b' and a feature 'test',
// which substitutes 'a' by an alternate glyph, for script latn.
func testFace(t *testing.T) (*otface.Face, uint16, uint16) {
	t.Helper()
	b := fontbuild.New()
	a := b.AddGlyph(fontbuild.Glyph{Name: "a", Advance: 500, Contours: fontbuild.Rect(10, 0, 490, 500)})
	bb := b.AddGlyph(fontbuild.Glyph{Name: "b", Advance: 500, Contours: fontbuild.Rect(10, 0, 490, 700)})
	alt := b.AddGlyph(fontbuild.Glyph{Name: "a.alt", Advance: 520, Contours: fontbuild.Rect(10, 0, 510, 500)})
	b.Map('a', a)
	b.Map('b', bb)
	b.Table("GSUB", fontbuild.LayoutTable(
		[]fontbuild.Script{{Tag: "latn"}},
		[]fontbuild.Feature{{Tag: "test", Lookups: []uint16{0}}},
		[]fontbuild.Lookup{{Type: fontbuild.GSubSingle, Subtables: [][]byte{
			fontbuild.SingleSubst(map[uint16]uint16{a: alt}),
		}}}))
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	face, err := otface.New(otf)
	require.NoError(t, err)
	return face, a, alt
}

func TestShapeAppliesGSUBFromCoreShaper(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, a, alt := testFace(t)
	params := otshape.Params{
		Face:      face,
		Direction: bidi.LeftToRight,
		Script:    language.MustParseScript("Latn"),
		Language:  language.English,
		PointSize: 12,
	}
	shaper := otshape.NewShaper(otcore.New())
	pc, err := shaper.Shape(params, []rune("ab"))
	require.NoError(t, err)
	require.Equal(t, 2, pc.Len())
	assert.Equal(t, ot.GlyphIndex(a), pc.Glyphs[0].Glyph, "feature 'test' is off by default")
	//
	params.Features = []otshape.FeatureRange{{Feature: ot.T("test"), On: true}}
	pc, err = shaper.Shape(params, []rune("ab"))
	require.NoError(t, err)
	require.Equal(t, 2, pc.Len())
	assert.Equal(t, ot.GlyphIndex(alt), pc.Glyphs[0].Glyph)
	assert.Equal(t, float32(1020), pc.Advance())
}

func TestShapeRightToLeft(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, a, _ := testFace(t)
	params := otshape.Params{
		Face:      face,
		Direction: bidi.RightToLeft,
		Script:    language.MustParseScript("Syrc"),
		PointSize: 12,
	}
	pc, err := otshape.NewShaper(otcore.New()).Shape(params, []rune("ab"))
	require.NoError(t, err)
	assert.True(t, pc.RightToLeft)
	assert.Equal(t, ot.GlyphIndex(a), pc.Glyphs[0].Glyph, "glyphs are kept in logical order")
	assert.Equal(t, 1, pc.Glyphs[1].Offset)
}
