package otuse_test

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/otcore"
	"github.com/npillmayer/opentext/otshape/otuse"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

var bali = language.MustParseScript("Bali")

func TestShaperMatch(t *testing.T) {
	s := otuse.Shaper{}
	assert.Equal(t, otshape.ShaperConfidenceHigh, s.Match(otshape.SelectionContext{
		Script: bali, Direction: bidi.LeftToRight}))
	assert.Equal(t, otshape.ShaperConfidenceHigh, s.Match(otshape.SelectionContext{
		Script: language.MustParseScript("Sinh"), Direction: bidi.LeftToRight}))
	assert.Equal(t, otshape.ShaperConfidenceNone, s.Match(otshape.SelectionContext{
		Script: language.MustParseScript("Deva"), Direction: bidi.LeftToRight}))
}

type baliGlyphs struct {
	ka, ra, adeg, taling, dotted, repha uint16
}

// balineseFace builds a font with 'rphf' forming a repha from ra and adeg adeg.
func balineseFace(t *testing.T) (*otface.Face, baliGlyphs) {
	t.Helper()
	b := fontbuild.New()
	glyph := func(name string, width int16) uint16 {
		return b.AddGlyph(fontbuild.Glyph{Name: name, Advance: uint16(width), Contours: fontbuild.Rect(0, 0, width, 500)})
	}
	g := baliGlyphs{
		ka: glyph("ka", 500), ra: glyph("ra", 450), adeg: glyph("adeg", 150),
		taling: glyph("taling", 200), dotted: glyph("dottedcircle", 450), repha: glyph("repha", 120),
	}
	b.Map(0x1B13, g.ka)
	b.Map(0x1B2D, g.ra)
	b.Map(0x1B44, g.adeg)
	b.Map(0x1B3E, g.taling)
	b.Map(0x25CC, g.dotted)
	b.Table("GSUB", fontbuild.LayoutTable(
		[]fontbuild.Script{{Tag: "bali"}},
		[]fontbuild.Feature{{Tag: "rphf", Lookups: []uint16{0}}},
		[]fontbuild.Lookup{{Type: fontbuild.GSubLigature, Subtables: [][]byte{
			fontbuild.LigatureSubst([]fontbuild.Ligature{{Components: []uint16{g.ra, g.adeg}, Glyph: g.repha}}),
		}}}))
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	face, err := otface.New(otf)
	require.NoError(t, err)
	return face, g
}

func shape(t *testing.T, face *otface.Face, text string) []ot.GlyphIndex {
	t.Helper()
	params := otshape.Params{
		Face:      face,
		Direction: bidi.LeftToRight,
		Script:    bali,
		Language:  language.Make("ban"),
		PointSize: 12,
	}
	pc, err := otshape.NewShaper(otcore.New(), otuse.New()).Shape(params, []rune(text))
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

func TestPreBaseVowel(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := balineseFace(t)
	assert.Equal(t, gids(g.taling, g.ka), shape(t, face, "ᬓᬾ"))
	// the vowel goes behind the last halant
	assert.Equal(t, gids(g.ka, g.adeg, g.taling, g.ka), shape(t, face, "ᬓ᭄ᬓᬾ"))
}

func TestRephaMovesBehindBase(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := balineseFace(t)
	assert.Equal(t, gids(g.ka, g.repha), shape(t, face, "ᬭ᭄ᬓ"))
}

func TestBrokenCluster(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	face, g := balineseFace(t)
	assert.Equal(t, gids(g.taling, g.dotted), shape(t, face, "ᬾ"))
}
