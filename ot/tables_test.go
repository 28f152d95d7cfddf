package ot

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"image/color"
	"io"
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostAndNameTables(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf, g := parseTestFont(t)
	require.NotNil(t, otf.Post)
	assert.True(t, otf.Post.HasGlyphNames())
	assert.Equal(t, ".notdef", otf.Post.GlyphName(0))
	assert.Equal(t, "fi", otf.Post.GlyphName(GlyphIndex(g.FI)))
	assert.Equal(t, "acutecomb", otf.Post.GlyphName(GlyphIndex(g.Acute)))
	assert.Equal(t, "", otf.Post.GlyphName(GlyphIndex(otf.NumGlyphs())))
	assert.Equal(t, int16(-100), otf.Post.UnderlinePosition)
	assert.Equal(t, int16(50), otf.Post.UnderlineThickness)
	//
	require.NotNil(t, otf.Name)
	assert.Len(t, otf.Name.Records, 5)
	assert.Equal(t, "Synthetic", otf.Name.Name(NameFontFamily))
	assert.Equal(t, "Regular", otf.Name.Name(NameFontSubfamily))
	assert.Equal(t, "Synthetic Regular", otf.Name.Name(NameFull))
	assert.Equal(t, "Synthetic-Regular", otf.Name.Name(NamePostScript))
	assert.Equal(t, "", otf.Name.Name(NameID(200)))
	for _, rec := range otf.Name.Records {
		if rec.PlatformID == 1 {
			assert.Equal(t, "Synthetic", rec.Value, "Mac Roman record decoded")
		}
	}
}

func TestPostWithoutGlyphNames(t *testing.T) {
	b := fontbuild.New()
	b.AddGlyph(fontbuild.Glyph{Advance: 300}) // unnamed glyph forces post version 3
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	assert.False(t, otf.Post.HasGlyphNames())
	assert.Equal(t, "", otf.Post.GlyphName(0))
}

func TestColorTables(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, g := buildTestFont()
	b.Table("COLR", fontbuild.COLR(map[uint16][]fontbuild.Layer{
		g.A: {{Glyph: g.B, PaletteIndex: 0}, {Glyph: g.Acute, PaletteIndex: 0xFFFF}},
	}))
	b.Table("CPAL", fontbuild.CPAL(
		[]color.NRGBA{{R: 255, A: 255}, {B: 255, A: 128}},
		[]color.NRGBA{{G: 255, A: 255}, {R: 10, G: 20, B: 30, A: 255}},
	))
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.COLR)
	layers := otf.COLR.Layers(GlyphIndex(g.A))
	require.Len(t, layers, 2)
	assert.Equal(t, LayerRecord{Glyph: GlyphIndex(g.B), PaletteIndex: 0}, layers[0])
	assert.Equal(t, uint16(ForegroundPaletteIndex), layers[1].PaletteIndex)
	assert.Nil(t, otf.COLR.Layers(GlyphIndex(g.B)))
	assert.False(t, otf.COLR.HasPaint(GlyphIndex(g.A)))
	//
	require.NotNil(t, otf.CPAL)
	assert.Equal(t, 2, otf.CPAL.NumPalettes())
	assert.Equal(t, 2, otf.CPAL.NumPaletteEntries)
	assert.Equal(t, color.NRGBA{B: 255, A: 128}, otf.CPAL.Palette(0)[1])
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, otf.CPAL.Palette(1)[1])
	assert.Nil(t, otf.CPAL.Palette(2))
}

func TestColorPaintGraph(t *testing.T) {
	b, g := buildTestFont()
	b.Table("COLR", fontbuild.COLRv1Solid(g.A, g.B, 1, 15, -5))
	b.Table("CPAL", fontbuild.CPAL([]color.NRGBA{{A: 255}, {R: 200, A: 255}}))
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	require.True(t, otf.COLR.HasPaint(GlyphIndex(g.A)))
	paint, err := otf.COLR.Paint(GlyphIndex(g.A))
	require.NoError(t, err)
	require.NotNil(t, paint)
	assert.Equal(t, PaintTransform, paint.Format)
	assert.Equal(t, Affine{XX: 1, YY: 1, DX: 15, DY: -5}, paint.Transform)
	x, y := paint.Transform.Apply(10, 10)
	assert.Equal(t, 25.0, x)
	assert.Equal(t, 5.0, y)
	glyph := paint.Child
	require.NotNil(t, glyph)
	assert.Equal(t, PaintGlyph, glyph.Format)
	assert.Equal(t, GlyphIndex(g.B), glyph.Glyph)
	solid := glyph.Child
	require.NotNil(t, solid)
	assert.Equal(t, PaintSolid, solid.Format)
	assert.Equal(t, uint16(1), solid.Color.PaletteIndex)
	assert.Equal(t, 1.0, solid.Color.Alpha)
	none, err := otf.COLR.Paint(GlyphIndex(g.B))
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestAffineMul(t *testing.T) {
	scale := Affine{XX: 2, YY: 2}
	move := Affine{XX: 1, YY: 1, DX: 10}
	x, y := scale.Mul(move).Apply(1, 1) // move first, then scale
	assert.Equal(t, 22.0, x)
	assert.Equal(t, 2.0, y)
	x, y = Identity.Apply(3, 4)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}

func svgTable(docs ...[]byte) []byte {
	var buf bytes.Buffer
	be := func(v any) { _ = binary.Write(&buf, binary.BigEndian, v) }
	be(uint16(0))
	be(uint32(10))
	be(uint32(0))
	be(uint16(len(docs)))
	off := 2 + 12*len(docs)
	for i, d := range docs {
		be(uint16(i + 1)) // glyph i+1
		be(uint16(i + 1))
		be(uint32(off))
		be(uint32(len(d)))
		off += len(d)
	}
	for _, d := range docs {
		buf.Write(d)
	}
	return buf.Bytes()
}

func TestSVGTable(t *testing.T) {
	plain := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><g id="glyph1"/></svg>`)
	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	_, _ = zw.Write([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><g id="glyph2"/></svg>`))
	require.NoError(t, zw.Close())
	b, _ := buildTestFont()
	b.Table("SVG", svgTable(plain, zipped.Bytes()))
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	require.NotNil(t, otf.SVG)
	assert.Equal(t, 2, otf.SVG.Len())
	doc, err := otf.SVG.Document(1)
	require.NoError(t, err)
	assert.Equal(t, plain, doc)
	doc, err = otf.SVG.Document(2)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `id="glyph2"`)
	doc, err = otf.SVG.Document(3)
	assert.NoError(t, err)
	assert.Nil(t, doc)
}

func TestVariationTables(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, g := buildTestFont()
	b.Table("fvar", fontbuild.FVar(fontbuild.Axis{Tag: "wght", Min: 100, Default: 400, Max: 900}))
	dx := []int16{10, 10, 10, 10, 0, 20, 0, 0} // four outline points, four phantom points
	b.Table("gvar", fontbuild.GVar(b.NumGlyphs(), 1, map[uint16][]fontbuild.TupleDeltas{
		g.A: {{Peak: []float64{1}, DX: dx, DY: make([]int16, 8)}},
	}))
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	require.True(t, otf.IsVariable())
	fvar := otf.Variation.FVar
	require.Len(t, fvar.Axes, 1)
	assert.Equal(t, T("wght"), fvar.Axes[0].Tag)
	assert.Equal(t, []float64{0.5}, fvar.Normalize([]float64{650}))
	assert.Equal(t, []float64{-1}, fvar.Normalize([]float64{50}), "clamped to axis minimum")
	assert.Equal(t, []float64{0}, fvar.Normalize([]float64{400}))
	assert.Equal(t, []float64{0}, fvar.Normalize(nil))
	//
	gvar := otf.Variation.GVar
	require.NotNil(t, gvar)
	tuples, err := gvar.GlyphVariations(GlyphIndex(g.A), 8)
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, []float64{1}, tuples[0].Peak)
	assert.Nil(t, tuples[0].Points, "deltas for all points")
	assert.Equal(t, dx, tuples[0].DX)
	assert.InDelta(t, 0.5, tuples[0].Scalar([]float64{0.5}), 1e-9)
	assert.Equal(t, 0.0, tuples[0].Scalar([]float64{-0.5}))
	none, err := gvar.GlyphVariations(GlyphIndex(g.B), 8)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTupleRegionScalar(t *testing.T) {
	r := TupleRegion{Peak: []float64{0.5}, Start: []float64{0}, End: []float64{1}}
	assert.InDelta(t, 1.0, r.Scalar([]float64{0.5}), 1e-9)
	assert.InDelta(t, 0.5, r.Scalar([]float64{0.25}), 1e-9)
	assert.InDelta(t, 0.5, r.Scalar([]float64{0.75}), 1e-9)
	assert.Equal(t, 0.0, r.Scalar([]float64{1}))
	twoAxes := TupleRegion{Peak: []float64{1, -1}}
	assert.InDelta(t, 0.25, twoAxes.Scalar([]float64{0.5, -0.5}), 1e-9)
	assert.Equal(t, 0.0, twoAxes.Scalar([]float64{0.5, 0.5}))
}

func TestAxisVariations(t *testing.T) {
	f2 := func(v float64) uint16 { return uint16(int16(v * 16384)) }
	var buf bytes.Buffer
	for _, v := range []uint16{1, 0, 0, 1, 4,
		f2(-1), f2(-1), f2(0), f2(0), f2(0.5), f2(0.25), f2(1), f2(1)} {
		_ = binary.Write(&buf, binary.BigEndian, v)
	}
	b, _ := buildTestFont()
	b.Table("fvar", fontbuild.FVar(fontbuild.Axis{Tag: "wdth", Min: 50, Default: 100, Max: 200}))
	b.Table("avar", buf.Bytes())
	otf, err := Parse(b.Build())
	require.NoError(t, err)
	avar := otf.Variation.AVar
	require.NotNil(t, avar)
	norm := otf.Variation.FVar.Normalize([]float64{150})
	avar.Map(norm)
	assert.InDelta(t, 0.25, norm[0], 1e-3)
	norm = []float64{0.75}
	avar.Map(norm)
	assert.InDelta(t, 0.625, norm[0], 1e-3)
}

func TestReader(t *testing.T) {
	data := []byte{0xff, 0x00, 0x01, 0x00, 0x02, 0x80, 0x00, 'c', 'm', 'a', 'p'}
	r, err := NewReaderAt(data, 1)
	require.NoError(t, err)
	v16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), v16)
	i16v, err := r.I16()
	require.NoError(t, err)
	assert.Equal(t, int16(2), i16v)
	f, err := r.F2Dot14()
	require.NoError(t, err)
	assert.Equal(t, -2.0, f.Float())
	tag, err := r.Tag()
	require.NoError(t, err)
	assert.Equal(t, T("cmap"), tag)
	_, err = r.U8()
	assert.True(t, errors.Is(err, ErrUnexpectedEnd), "read past end")
	pos, err := r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
	assert.Equal(t, 0, r.Pos())
	_, err = r.Seek(-1, io.SeekStart)
	assert.Error(t, err, "seek before stream start")
	sub, err := r.Sub(2)
	require.NoError(t, err)
	v16, _ = sub.U16()
	assert.Equal(t, uint16(2), v16)
	assert.Equal(t, []byte("map"), NewReader(data[8:]).BytesTruncated(10))
	_, err = NewReaderAt(data, 20)
	assert.Error(t, err)
}

func TestFixedPoint(t *testing.T) {
	assert.Equal(t, 1.0, F2Dot14(0x4000).Float())
	assert.Equal(t, -0.5, F2Dot14(-0x2000).Float())
	assert.Equal(t, 1.5, Fixed(0x00018000).Float())
	assert.Equal(t, Fixed(0x00018000), FixedFromFloat(1.5))
}
