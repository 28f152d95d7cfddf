package otindic_test

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/otcore"
	"github.com/npillmayer/opentext/otshape/otindic"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

var deva = language.MustParseScript("Deva")

func TestShaperMatch(t *testing.T) {
	s := otindic.Shaper{}
	assert.Equal(t, otshape.ShaperConfidenceCertain, s.Match(otshape.SelectionContext{
		Script: deva, Direction: bidi.LeftToRight}))
	assert.Equal(t, otshape.ShaperConfidenceCertain, s.Match(otshape.SelectionContext{
		Script: language.MustParseScript("Mlym"), Direction: bidi.LeftToRight}))
	assert.Equal(t, otshape.ShaperConfidenceNone, s.Match(otshape.SelectionContext{
		Script: language.MustParseScript("Sinh"), Direction: bidi.LeftToRight}))
	assert.Equal(t, otshape.ShaperConfidenceNone, s.Match(otshape.SelectionContext{
		Script: language.MustParseScript("Latn"), Direction: bidi.LeftToRight}))
}

type devaGlyphs struct {
	ka, ra, virama, iMatra, dotted, kaHalf, reph uint16
}

// devanagariFace builds a font with 'half' forming half ka and 'rphf'
// forming reph, for script tag 'dev2'.
func devanagariFace(t *testing.T) (*otface.Face, devaGlyphs) {
	t.Helper()
	b := fontbuild.New()
	glyph := func(name string, width int16) uint16 {
		return b.AddGlyph(fontbuild.Glyph{Name: name, Advance: uint16(width), Contours: fontbuild.Rect(0, 0, width, 500)})
	}
	g := devaGlyphs{
		ka: glyph("ka", 500), ra: glyph("ra", 400), virama: glyph("virama", 100),
		iMatra: glyph("iMatra", 200), dotted: glyph("dottedcircle", 450),
		kaHalf: glyph("ka.half", 300), reph: glyph("reph", 150),
	}
	b.Map('क', g.ka)
	b.Map('र', g.ra)
	b.Map('्', g.virama)
	b.Map('ि', g.iMatra)
	b.Map('◌', g.dotted)
	ligature := func(first, second, lig uint16) fontbuild.Lookup {
		return fontbuild.Lookup{Type: fontbuild.GSubLigature, Subtables: [][]byte{
			fontbuild.LigatureSubst([]fontbuild.Ligature{{Components: []uint16{first, second}, Glyph: lig}}),
		}}
	}
	b.Table("GSUB", fontbuild.LayoutTable(
		[]fontbuild.Script{{Tag: "dev2"}},
		[]fontbuild.Feature{
			{Tag: "half", Lookups: []uint16{0}},
			{Tag: "rphf", Lookups: []uint16{1}},
		},
		[]fontbuild.Lookup{
			ligature(g.ka, g.virama, g.kaHalf),
			ligature(g.ra, g.virama, g.reph),
		}))
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	face, err := otface.New(otf)
	require.NoError(t, err)
	return face, g
}

func shape(t *testing.T, face *otface.Face, text string) *otshape.PositioningCollection {
	t.Helper()
	params := otshape.Params{
		Face:      face,
		Direction: bidi.LeftToRight,
		Script:    deva,
		Language:  language.Hindi,
		PointSize: 12,
	}
	pc, err := otshape.NewShaper(otcore.New(), otindic.New()).Shape(params, []rune(text))
	require.NoError(t, err)
	return pc
}

func glyphsOf(pc *otshape.PositioningCollection) []ot.GlyphIndex {
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

func TestPreBaseMatra(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := devanagariFace(t)
	pc := shape(t, face, "कि")
	assert.Equal(t, gids(g.iMatra, g.ka), glyphsOf(pc))
	assert.Equal(t, 0, pc.Glyphs[0].Offset)
	assert.Equal(t, 0, pc.Glyphs[1].Offset)
}

func TestHalfForm(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := devanagariFace(t)
	assert.Equal(t, gids(g.kaHalf, g.ka), glyphsOf(shape(t, face, "क्क")))
	// the matra goes before the whole conjunct
	assert.Equal(t, gids(g.iMatra, g.kaHalf, g.ka), glyphsOf(shape(t, face, "क्कि")))
	// ZWNJ ends the conjunct
	assert.Equal(t, gids(g.ka, g.virama, g.ka), glyphsOf(shape(t, face, "क्\u200cक")))
}

func TestReph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := devanagariFace(t)
	pc := shape(t, face, "र्क")
	assert.Equal(t, gids(g.ka, g.reph), glyphsOf(pc))
	assert.Equal(t, pc.Glyphs[0].Offset, pc.Glyphs[1].Offset)
	// a lone Ra,H does not form a reph
	assert.Equal(t, gids(g.ra, g.virama), glyphsOf(shape(t, face, "र्")))
}

func TestBrokenClusterGetsDottedCircle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := devanagariFace(t)
	assert.Equal(t, gids(g.iMatra, g.dotted), glyphsOf(shape(t, face, "ि")))
	gs := glyphsOf(shape(t, face, "क ि"))
	require.Len(t, gs, 4)
	assert.Equal(t, gids(g.iMatra, g.dotted), gs[2:])
}

func TestNormalizationHooks(t *testing.T) {
	s := otindic.Shaper{}
	d, ok := s.Decompose(nil, 'क़') // qa
	assert.True(t, ok)
	assert.Equal(t, []rune{0x0915, 0x093C}, d)
	_, ok = s.Decompose(nil, 'ऱ')
	assert.False(t, ok)
	_, ok = s.Compose(nil, 0x093F, 0x093C)
	assert.False(t, ok)
}
