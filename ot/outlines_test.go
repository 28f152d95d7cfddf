package ot

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf, g := parseTestFont(t)
	require.NotNil(t, otf.Glyf)
	assert.Equal(t, otf.NumGlyphs(), otf.Glyf.NumGlyphs())
	gl, err := otf.Glyf.Glyph(GlyphIndex(g.A))
	require.NoError(t, err)
	assert.False(t, gl.IsComposite())
	assert.Equal(t, int16(1), gl.NumberOfContours)
	assert.Equal(t, []int{3}, gl.EndPoints)
	assert.Equal(t, []GlyphPoint{
		{X: 50, Y: 0, OnCurve: true},
		{X: 50, Y: 700, OnCurve: true},
		{X: 550, Y: 700, OnCurve: true},
		{X: 550, Y: 0, OnCurve: true},
	}, gl.Points)
	assert.Equal(t, GlyphHeader{NumberOfContours: 1, XMin: 50, YMin: 0, XMax: 550, YMax: 700}, gl.GlyphHeader)
	//
	space, err := otf.Glyf.Glyph(GlyphIndex(g.Space))
	require.NoError(t, err)
	assert.Empty(t, space.Points, "space has no outline")
	_, err = otf.Glyf.Glyph(GlyphIndex(otf.NumGlyphs()))
	assert.Error(t, err)
}

func TestCompositeGlyph(t *testing.T) {
	b, g := buildTestFont()
	aacute := b.AddGlyph(fontbuild.Glyph{Name: "Aacute", Advance: 600, Components: []fontbuild.Component{
		{Glyph: g.A},
		{Glyph: g.Acute, DX: 400, DY: 10, Scale: 0.5},
	}})
	b.LongLoca = true
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	assert.Equal(t, int16(1), otf.Head.IndexToLocFormat)
	gl, err := otf.Glyf.Glyph(GlyphIndex(aacute))
	require.NoError(t, err)
	require.True(t, gl.IsComposite())
	require.Len(t, gl.Components, 2)
	assert.Equal(t, GlyphIndex(g.A), gl.Components[0].Glyph)
	assert.True(t, gl.Components[0].ArgsAreXY())
	assert.Equal(t, [4]float64{1, 0, 0, 1}, gl.Components[0].Transform)
	c := gl.Components[1]
	assert.Equal(t, GlyphIndex(g.Acute), c.Glyph)
	assert.Equal(t, int32(400), c.Arg1)
	assert.Equal(t, int32(10), c.Arg2)
	assert.InDelta(t, 0.5, c.Transform[0], 1e-4)
	assert.InDelta(t, 0.5, c.Transform[3], 1e-4)
	assert.NotZero(t, c.Flags&CompHaveScale)
}

func TestHorizontalAndVerticalMetrics(t *testing.T) {
	b, g := buildTestFont()
	b.Vertical = true
	tall := b.AddGlyph(fontbuild.Glyph{Name: "tall", Advance: 500, VAdvance: 1200, TopBearing: 80,
		Contours: fontbuild.Rect(0, -200, 500, 900)})
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.VHea)
	require.NotNil(t, otf.VMtx)
	assert.Equal(t, otf.MaxP.NumGlyphs, otf.VHea.NumOfLongVerMetrics)
	adv, lsb, ok := otf.HMtx.HMetrics(GlyphIndex(g.B))
	require.True(t, ok)
	assert.Equal(t, uint16(550), adv)
	assert.Equal(t, int16(60), lsb)
	vadv, tsb, ok := otf.VMtx.HMetrics(GlyphIndex(tall))
	require.True(t, ok)
	assert.Equal(t, uint16(1200), vadv)
	assert.Equal(t, int16(80), tsb)
	vadv, _, _ = otf.VMtx.HMetrics(GlyphIndex(g.B))
	assert.Equal(t, uint16(1000), vadv, "default vertical advance is one em")
}

func TestCFFOutlines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b := fontbuild.New()
	b.CFF = true
	o := b.AddGlyph(fontbuild.Glyph{Name: "o", Advance: 500, Contours: [][]fontbuild.Point{{
		{X: 250, Y: 0, OnCurve: true}, {X: 500, Y: 0}, {X: 500, Y: 250, OnCurve: true},
		{X: 500, Y: 500}, {X: 250, Y: 500, OnCurve: true}, {X: 0, Y: 500},
		{X: 0, Y: 250, OnCurve: true}, {X: 0, Y: 0},
	}}})
	b.Map('o', o)
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	assert.True(t, otf.Header.IsCFF())
	assert.False(t, otf.HasTrueTypeOutlines())
	require.NotNil(t, otf.CFF)
	cff := otf.CFF
	assert.False(t, cff.IsCID)
	assert.Equal(t, 2, cff.NumGlyphs())
	assert.Equal(t, [6]float64{0.001, 0, 0, 0.001, 0, 0}, cff.FontMatrix)
	cs, err := cff.CharString(GlyphIndex(o))
	require.NoError(t, err)
	require.NotEmpty(t, cs)
	assert.Equal(t, byte(14), cs[len(cs)-1], "charstring ends with endchar")
	fd := cff.FontDict(GlyphIndex(o))
	require.NotNil(t, fd)
	assert.Equal(t, 0.0, fd.DefaultWidthX)
	assert.Equal(t, 0, fd.LocalSubrs.Len())
	assert.Equal(t, 107, cff.GlobalSubrs.SubrBias())
	_, err = cff.CharString(GlyphIndex(5))
	assert.Error(t, err)
}

func TestKernTable(t *testing.T) {
	b, g := buildTestFont()
	b.Table("kern", fontbuild.Kern(map[[2]uint16]int16{{g.A, g.B}: -50, {g.F, g.I}: 20}))
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.Kern)
	assert.Equal(t, 2, otf.Kern.Len())
	assert.Equal(t, int16(-50), otf.Kern.Kerning(GlyphIndex(g.A), GlyphIndex(g.B)))
	assert.Equal(t, int16(20), otf.Kern.Kerning(GlyphIndex(g.F), GlyphIndex(g.I)))
	assert.Equal(t, int16(0), otf.Kern.Kerning(GlyphIndex(g.B), GlyphIndex(g.A)))
}
