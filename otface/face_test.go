package otface

import (
	"errors"
	"image/color"
	"sync"
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type glyphs struct {
	A, B, Acute, Aacute, Space, O uint16
}

func buildFont() (*fontbuild.Builder, glyphs) {
	b := fontbuild.New()
	var g glyphs
	g.A = b.AddGlyph(fontbuild.Glyph{Name: "A", Advance: 600, Contours: fontbuild.Rect(50, 0, 550, 700)})
	g.B = b.AddGlyph(fontbuild.Glyph{Name: "B", Advance: 550, Contours: fontbuild.Rect(60, 0, 500, 700)})
	g.Acute = b.AddGlyph(fontbuild.Glyph{Name: "acutecomb", Contours: fontbuild.Rect(-150, 750, -50, 850)})
	g.Aacute = b.AddGlyph(fontbuild.Glyph{Name: "Aacute", Advance: 600, Components: []fontbuild.Component{
		{Glyph: g.A},
		{Glyph: g.Acute, DX: 400, DY: 10, Scale: 0.5},
	}})
	g.Space = b.AddGlyph(fontbuild.Glyph{Name: "space", Advance: 250})
	g.O = b.AddGlyph(fontbuild.Glyph{Name: "o", Advance: 500, Contours: [][]fontbuild.Point{{
		{X: 250, Y: 0, OnCurve: true}, {X: 500, Y: 0}, {X: 500, Y: 250, OnCurve: true},
		{X: 500, Y: 500}, {X: 250, Y: 500, OnCurve: true}, {X: 0, Y: 500},
		{X: 0, Y: 250, OnCurve: true}, {X: 0, Y: 0},
	}}})
	b.Map('A', g.A)
	b.Map('B', g.B)
	b.Map(0x301, g.Acute)
	b.Map(0xC1, g.Aacute)
	b.Map(' ', g.Space)
	b.Map('o', g.O)
	return b, g
}

func newFace(t *testing.T, b *fontbuild.Builder) *Face {
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	face, err := New(otf)
	require.NoError(t, err)
	return face
}

func TestNewFace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	_, err := New(nil)
	assert.True(t, errors.Is(err, ot.ErrInvalidArgument))
	b, _ := buildFont()
	face := newFace(t, b)
	assert.Equal(t, TrueType, face.Kind())
	assert.Equal(t, float32(1000), face.UnitsPerEm())
	assert.Equal(t, "A", face.GlyphName(1))
	b.CFF = true
	assert.Equal(t, CompactFont, newFace(t, b).Kind())
}

func TestTryGetGlyphID(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, g := buildFont()
	emoji := b.AddGlyph(fontbuild.Glyph{Name: "A.alt", Advance: 600, Contours: fontbuild.Rect(0, 0, 600, 700)})
	b.MapVariant('A', 0xFE01, emoji)
	face := newFace(t, b)
	found, gid, skip := face.TryGetGlyphID('A', 'B')
	assert.True(t, found)
	assert.Equal(t, ot.GlyphIndex(g.A), gid)
	assert.False(t, skip)
	found, gid, skip = face.TryGetGlyphID('A', 0xFE01)
	assert.True(t, found)
	assert.Equal(t, ot.GlyphIndex(emoji), gid)
	assert.True(t, skip, "variation selector is consumed")
	found, gid, skip = face.TryGetGlyphID('A', 0xFE02)
	assert.True(t, found)
	assert.Equal(t, ot.GlyphIndex(g.A), gid, "unknown sequence falls back to base code-point")
	assert.True(t, skip)
	found, gid, _ = face.TryGetGlyphID('Z', 0)
	assert.False(t, found)
	assert.Equal(t, ot.GlyphIndex(0), gid)
	// cached results are stable
	for i := 0; i < 3; i++ {
		_, again, _ := face.TryGetGlyphID('A', 0xFE01)
		assert.Equal(t, ot.GlyphIndex(emoji), again)
	}
}

func TestSimpleOutline(t *testing.T) {
	b, g := buildFont()
	face := newFace(t, b)
	o, err := face.Outline(ot.GlyphIndex(g.A))
	require.NoError(t, err)
	require.Len(t, o.Segments, 5)
	assert.Equal(t, Segment{Op: MoveTo, Args: [3]Point{{50, 0}}}, o.Segments[0])
	assert.Equal(t, LineTo, o.Segments[3].Op)
	assert.Equal(t, Point{50, 0}, o.Segments[4].End(), "figure is closed")
	assert.Equal(t, Rect{50, 0, 550, 700}, o.Bounds)
	assert.Equal(t, 1, o.Figures())
	o, err = face.Outline(ot.GlyphIndex(g.Space))
	require.NoError(t, err)
	assert.Empty(t, o.Segments)
	assert.True(t, o.Bounds.Empty())
	_, err = face.Outline(ot.GlyphIndex(face.NumGlyphs()))
	assert.True(t, errors.Is(err, ot.ErrNoSuchGlyph))
}

func TestQuadraticOutline(t *testing.T) {
	b, g := buildFont()
	face := newFace(t, b)
	o, err := face.Outline(ot.GlyphIndex(g.O))
	require.NoError(t, err)
	require.Len(t, o.Segments, 5)
	assert.Equal(t, MoveTo, o.Segments[0].Op)
	for _, s := range o.Segments[1:] {
		assert.Equal(t, QuadTo, s.Op)
	}
	assert.Equal(t, Point{500, 0}, o.Segments[1].Args[0])
	assert.Equal(t, Point{500, 250}, o.Segments[1].Args[1])
	assert.Equal(t, Point{250, 0}, o.Segments[4].End())
	assert.Equal(t, Rect{0, 0, 500, 500}, o.Bounds)
}

func TestImpliedOnCurvePoints(t *testing.T) {
	buf := &pointBuffer{
		pts: []glyphPoint{{0, 0, false}, {100, 0, false}, {100, 100, false}, {0, 100, false}},
		ends: []int{3},
	}
	segs := buf.segments()
	require.Len(t, segs, 5)
	assert.Equal(t, Point{0, 50}, segs[0].Args[0], "start between last and first control point")
	assert.Equal(t, Segment{Op: QuadTo, Args: [3]Point{{0, 0}, {50, 0}}}, segs[1])
	assert.Equal(t, Segment{Op: QuadTo, Args: [3]Point{{0, 100}, {0, 50}}}, segs[4])
}

func TestCompositeOutline(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, g := buildFont()
	face := newFace(t, b)
	o, err := face.Outline(ot.GlyphIndex(g.Aacute))
	require.NoError(t, err)
	assert.Equal(t, 2, o.Figures())
	assert.Equal(t, Rect{50, 0, 550, 700}, o.Bounds)
	var second Segment
	for i, s := range o.Segments {
		if i > 0 && s.Op == MoveTo {
			second = s
		}
	}
	// acute scaled by 0.5 around the origin, offset is not scaled
	assert.Equal(t, Point{325, 385}, second.Args[0])
}

func TestCompositeCycle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, g := buildFont()
	self := uint16(b.NumGlyphs())
	b.AddGlyph(fontbuild.Glyph{Name: "self", Advance: 500, Components: []fontbuild.Component{{Glyph: g.A}, {Glyph: self}}})
	x := uint16(b.NumGlyphs())
	b.AddGlyph(fontbuild.Glyph{Name: "x", Advance: 500, Components: []fontbuild.Component{{Glyph: x + 1}}})
	b.AddGlyph(fontbuild.Glyph{Name: "y", Advance: 500, Components: []fontbuild.Component{{Glyph: g.B}, {Glyph: x}}})
	face := newFace(t, b)
	_, err := face.Outline(ot.GlyphIndex(self))
	assert.True(t, errors.Is(err, ErrCompositeCycle), "error is %v", err)
	_, err = face.Outline(ot.GlyphIndex(x))
	assert.True(t, errors.Is(err, ErrCompositeCycle), "error is %v", err)
	_, err = face.Outline(ot.GlyphIndex(g.Aacute))
	assert.NoError(t, err, "other glyphs are not affected")
	m := face.GlyphMetrics(0, ot.GlyphIndex(self), 0, false, false)
	require.Len(t, m, 1)
	assert.Equal(t, float32(500), m[0].AdvanceWidth)
	assert.True(t, m[0].Bounds.Empty())
}

func TestCompositeDepth(t *testing.T) {
	b, g := buildFont()
	prev := g.A
	chain := make([]uint16, 0, 20)
	for i := 0; i < 20; i++ {
		prev = b.AddGlyph(fontbuild.Glyph{Name: "nested", Advance: 600, Components: []fontbuild.Component{{Glyph: prev, DX: 1}}})
		chain = append(chain, prev)
	}
	face := newFace(t, b)
	o, err := face.Outline(ot.GlyphIndex(chain[9]))
	require.NoError(t, err)
	assert.Equal(t, float32(60), o.Bounds.XMin, "ten offsets of one unit")
	_, err = face.Outline(ot.GlyphIndex(chain[19]))
	assert.True(t, errors.Is(err, ErrCompositeDepth), "error is %v", err)
}

func TestCFFOutline(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, g := buildFont()
	b.CFF = true
	face := newFace(t, b)
	require.Equal(t, CompactFont, face.Kind())
	o, err := face.Outline(ot.GlyphIndex(g.O))
	require.NoError(t, err)
	require.Len(t, o.Segments, 5)
	assert.Equal(t, Segment{Op: MoveTo, Args: [3]Point{{250, 0}}}, o.Segments[0])
	for _, s := range o.Segments[1:] {
		assert.Equal(t, CubicTo, s.Op)
	}
	assert.Equal(t, Point{500, 250}, o.Segments[1].End())
	assert.Equal(t, Point{250, 0}, o.Segments[4].End())
	assert.Equal(t, Rect{0, 0, 500, 500}, o.Bounds)
	o, err = face.Outline(ot.GlyphIndex(g.A))
	require.NoError(t, err)
	assert.Equal(t, Rect{50, 0, 550, 700}, o.Bounds)
	assert.Equal(t, 1, o.Figures())
	m := face.GlyphMetrics('A', ot.GlyphIndex(g.A), 0, false, false)
	assert.Equal(t, float32(600), m[0].AdvanceWidth)
}

func TestGlyphMetrics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b, g := buildFont()
	face := newFace(t, b)
	m := face.GlyphMetrics('A', ot.GlyphIndex(g.A), 0, false, false)
	require.Len(t, m, 1)
	assert.Equal(t, GlyphStandard, m[0].Type)
	assert.Equal(t, float32(600), m[0].AdvanceWidth)
	assert.Equal(t, float32(50), m[0].LeftSideBearing)
	assert.Equal(t, float32(50), m[0].RightSideBearing)
	assert.Equal(t, float32(0.001), m[0].Scale)
	assert.Equal(t, float32(0), m[0].AdvanceHeight)
	missing := face.GlyphMetrics('Z', 0, 0, false, false)
	assert.Equal(t, GlyphFallback, missing[0].Type)
	assert.Equal(t, float32(500), missing[0].AdvanceWidth)
	bold := face.GlyphMetrics('A', ot.GlyphIndex(g.A), FauxBold, false, false)
	strength := float32(1000) * DefaultEmboldenRatio
	assert.InDelta(t, 600+2*strength, bold[0].AdvanceWidth, 1e-3)
	assert.InDelta(t, 50-strength, bold[0].Bounds.XMin, 1e-3)
	italic := face.GlyphMetrics('A', ot.GlyphIndex(g.A), FauxItalic, false, false)
	assert.InDelta(t, 550+700*DefaultSlant, italic[0].Bounds.XMax, 1e-3)
	vert := face.GlyphMetrics('A', ot.GlyphIndex(g.A), 0, false, true)
	assert.Equal(t, float32(1000), vert[0].AdvanceHeight, "ascender to descender without vmtx")
	assert.Equal(t, float32(100), vert[0].TopSideBearing)
}

func TestVerticalMetrics(t *testing.T) {
	b, g := buildFont()
	b.Vertical = true
	tall := b.AddGlyph(fontbuild.Glyph{Name: "tall", Advance: 500, VAdvance: 1300, TopBearing: 70,
		Contours: fontbuild.Rect(0, -200, 500, 900)})
	face := newFace(t, b)
	require.NotNil(t, face.Font().VMtx)
	m := face.GlyphMetrics(0, ot.GlyphIndex(tall), 0, false, true)
	assert.Equal(t, float32(1300), m[0].AdvanceHeight, "advance height from vmtx")
	assert.Equal(t, float32(70), m[0].TopSideBearing)
	m = face.GlyphMetrics('A', ot.GlyphIndex(g.A), 0, false, true)
	assert.Equal(t, float32(1000), m[0].AdvanceHeight)
	assert.Zero(t, m[0].TopSideBearing, "vmtx bearing, not ascender minus yMax")
}

func TestColorLayers(t *testing.T) {
	b, g := buildFont()
	b.Table("COLR", fontbuild.COLR(map[uint16][]fontbuild.Layer{
		g.A: {{Glyph: g.B, PaletteIndex: 1}, {Glyph: g.Acute, PaletteIndex: ot.ForegroundPaletteIndex}},
	}))
	red := color.NRGBA{R: 255, A: 255}
	b.Table("CPAL", fontbuild.CPAL([]color.NRGBA{{A: 255}, red}))
	face := newFace(t, b)
	m := face.GlyphMetrics('A', ot.GlyphIndex(g.A), 0, true, false)
	require.Len(t, m, 2)
	for _, l := range m {
		assert.Equal(t, GlyphColorLayer, l.Type)
		assert.Equal(t, float32(600), l.AdvanceWidth, "layers carry the base advance")
	}
	assert.Equal(t, ot.GlyphIndex(g.B), m[0].Glyph)
	assert.True(t, m[0].HasColor)
	assert.Equal(t, red, m[0].Color)
	assert.False(t, m[1].HasColor, "foreground layer")
	plain := face.GlyphMetrics('A', ot.GlyphIndex(g.A), 0, false, false)
	require.Len(t, plain, 1)
	assert.Equal(t, GlyphStandard, plain[0].Type)
}

func TestFaceMetrics(t *testing.T) {
	b, _ := buildFont()
	face := newFace(t, b)
	m := face.Metrics()
	assert.Equal(t, float32(800), m.Ascender)
	assert.Equal(t, float32(-200), m.Descender)
	assert.Equal(t, float32(500), m.XHeight)
	assert.Equal(t, float32(700), m.CapHeight)
	assert.Equal(t, float32(-100), m.UnderlinePosition)
	assert.Equal(t, float32(50), m.UnderlineThickness)
	assert.Equal(t, float32(300), m.StrikeoutPosition)
}

func TestKerningTable(t *testing.T) {
	b, g := buildFont()
	b.Table("kern", fontbuild.Kern(map[[2]uint16]int16{{g.A, g.B}: -50}))
	face := newFace(t, b)
	assert.Equal(t, float32(-50), face.Kerning(ot.GlyphIndex(g.A), ot.GlyphIndex(g.B)))
	assert.Equal(t, float32(0), face.Kerning(ot.GlyphIndex(g.B), ot.GlyphIndex(g.A)))
}

func TestConcurrentFaceAccess(t *testing.T) {
	b, g := buildFont()
	face := newFace(t, b)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, gid := range []uint16{g.A, g.B, g.Aacute, g.O} {
				if _, err := face.Outline(ot.GlyphIndex(gid)); err != nil {
					t.Errorf("outline of %d: %v", gid, err)
				}
				face.GlyphMetrics(0, ot.GlyphIndex(gid), 0, true, false)
				face.TryGetGlyphID('A', 0)
			}
		}()
	}
	wg.Wait()
}
