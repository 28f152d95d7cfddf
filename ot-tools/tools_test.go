package main

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/textlayout"
)

func testFace(t *testing.T) *otface.Face {
	t.Helper()
	b := fontbuild.New()
	a := b.AddGlyph(fontbuild.Glyph{Name: "a", Advance: 500, Contours: fontbuild.Rect(0, 0, 500, 500)})
	bb := b.AddGlyph(fontbuild.Glyph{Name: "b", Advance: 600, Contours: fontbuild.Rect(0, 0, 600, 700)})
	b.Map('a', a)
	b.Map('b', bb)
	otf, err := ot.ParseAt(b.Build(), 0)
	require.NoError(t, err)
	face, err := otface.New(otf)
	require.NoError(t, err)
	return face
}

func TestParseFeatureItem(t *testing.T) {
	f, err := parseFeatureItem("+liga")
	require.NoError(t, err)
	assert.Equal(t, otshape.FeatureRange{Feature: ot.T("liga"), Arg: 1, On: true}, f)
	f, err = parseFeatureItem("-kern")
	require.NoError(t, err)
	assert.False(t, f.On)
	f, err = parseFeatureItem("salt=2")
	require.NoError(t, err)
	assert.Equal(t, 2, f.Arg)
	assert.True(t, f.On)
	f, err = parseFeatureItem("calt=0")
	require.NoError(t, err)
	assert.False(t, f.On)
	_, err = parseFeatureItem("lig")
	assert.Error(t, err)
	_, err = parseFeatureItem("liga=x")
	assert.Error(t, err)
}

func TestParseFeatureList(t *testing.T) {
	fs, err := parseFeatureList("liga=1, kern=0 +smcp")
	require.NoError(t, err)
	require.Len(t, fs, 3)
	assert.Equal(t, ot.T("smcp"), fs[2].Feature)
	fs, err = parseFeatureList("-")
	require.NoError(t, err)
	assert.Nil(t, fs)
}

func TestParseCodepoints(t *testing.T) {
	rs, err := parseCodepoints("U+0627,u+0644 0x41 42")
	require.NoError(t, err)
	assert.Equal(t, []rune{0x0627, 0x0644, 'A', 'B'}, rs)
	_, err = parseCodepoints("U+110000")
	assert.Error(t, err)
	_, err = parseCodepoints("xyz")
	assert.Error(t, err)
	s, err := parseShapeInput("ignored", "U+0061 U+0062")
	require.NoError(t, err)
	assert.Equal(t, "ab", s)
	s, err = parseShapeInput("text", "-")
	require.NoError(t, err)
	assert.Equal(t, "text", s)
}

func TestParseSelection(t *testing.T) {
	scr, err := parseScript("Arab")
	require.NoError(t, err)
	assert.Equal(t, language.MustParseScript("Arab"), scr)
	_, err = parseScript("Qq")
	assert.Error(t, err)
	tag, err := parseLanguage("")
	require.NoError(t, err)
	assert.Equal(t, language.English, tag)
	dir, err := parseDirection("RTL")
	require.NoError(t, err)
	assert.Equal(t, bidi.RightToLeft, dir)
	assert.Equal(t, textlayout.DirectionRTL, directionFor(dir))
	_, err = parseDirection("ttb")
	assert.Error(t, err)
}

func TestShapeText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	params := otshape.Params{
		Face:      testFace(t),
		Direction: bidi.LeftToRight,
		Script:    language.MustParseScript("Latn"),
		Language:  language.English,
		PointSize: 12,
	}
	out, err := shapeText(textlayout.DefaultShaper(), params, "ab")
	require.NoError(t, err)
	assert.Equal(t, "[1=0+500|2=1+600]", out)
}

func TestRenderText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "text.layout")
	defer teardown()
	//
	opts := textlayout.DefaultOptions()
	opts.Font = testFace(t)
	opts.PointSize = 100 // 0.1 pixel per font unit
	img, err := renderText("a", opts, 120, 120, false)
	require.NoError(t, err)
	// the glyph is a square of 50 pixels, its baseline 80 pixels below the margin
	assert.Equal(t, color.RGBA{A: 0xff}, img.RGBAAt(35, 65))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.RGBAAt(80, 65))
	img, err = renderText("a", opts, 120, 120, true)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, img.RGBAAt(35, 40)) // top edge of the box
}

func TestPrintFontInfo(t *testing.T) {
	face := testFace(t)
	var buf bytes.Buffer
	printFontInfo(&buf, face.Font(), "head,XXXX", false)
	out := buf.String()
	assert.Contains(t, out, "Type: TrueType")
	assert.Contains(t, out, "Family: Synthetic")
	assert.Contains(t, out, "table head: offset=")
	assert.Contains(t, out, "table XXXX: missing")
	assert.Contains(t, out, "Issues: errors=0")
	assert.Contains(t, out, "Glyphs: 3")
	buf.Reset()
	printNames(&buf, face.Font())
	assert.Contains(t, buf.String(), ": Synthetic")
}
