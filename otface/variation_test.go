package otface

import (
	"errors"
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variableFace(t *testing.T) (*Face, glyphs) {
	b, g := buildFont()
	b.Table("fvar", fontbuild.FVar(fontbuild.Axis{Tag: "wght", Min: 100, Default: 400, Max: 900}))
	// four outline points of A move right by 100 at full weight; phantom point 2 widens the advance
	dx := []int16{100, 100, 100, 100, 0, 100, 0, 0}
	dy := []int16{0, 40, 40, 0, 0, 0, 0, 0}
	b.Table("gvar", fontbuild.GVar(b.NumGlyphs(), 1, map[uint16][]fontbuild.TupleDeltas{
		g.A:      {{Peak: []float64{1}, DX: dx, DY: dy}},
		g.Aacute: {{Peak: []float64{1}, DX: []int16{0, 20, 0, 0, 0, 0}, DY: make([]int16, 6)}},
	}))
	return newFace(t, b), g
}

func TestWithVariation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	face, g := variableFace(t)
	A := ot.GlyphIndex(g.A)
	o, err := face.Outline(A)
	require.NoError(t, err)
	assert.Equal(t, Rect{50, 0, 550, 700}, o.Bounds, "default instance")
	assert.Equal(t, float32(600), face.Advance(A))
	//
	bold, err := face.WithVariation(Variation{Tag: ot.T("wght"), Value: 650})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, bold.Coords())
	o, err = bold.Outline(A)
	require.NoError(t, err)
	assert.Equal(t, Rect{100, 0, 600, 720}, o.Bounds)
	assert.Equal(t, float32(650), bold.Advance(A), "advance from phantom points")
	m := bold.GlyphMetrics('A', A, 0, false, false)
	assert.Equal(t, float32(650), m[0].AdvanceWidth)
	// composite: second component offset moves by 10 units
	o, err = bold.Outline(ot.GlyphIndex(g.Aacute))
	require.NoError(t, err)
	var accent Point
	for i, s := range o.Segments {
		if i > 0 && s.Op == MoveTo {
			accent = s.Args[0]
		}
	}
	assert.Equal(t, Point{335, 385}, accent)
	//
	def, err := bold.WithVariation()
	require.NoError(t, err)
	assert.Nil(t, def.Coords())
	o, err = def.Outline(A)
	require.NoError(t, err)
	assert.Equal(t, Rect{50, 0, 550, 700}, o.Bounds, "back to default instance")
}

func TestWithVariationLeavesFaceUnchanged(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	face, g := variableFace(t)
	A := ot.GlyphIndex(g.A)
	assert.Equal(t, float32(600), face.Advance(A)) // populate the caches
	light, err := face.WithVariation(Variation{Tag: ot.T("wght"), Value: 400})
	require.NoError(t, err)
	heavy, err := face.WithVariation(Variation{Tag: ot.T("wght"), Value: 900})
	require.NoError(t, err)
	assert.NotSame(t, face, heavy)
	assert.Nil(t, face.Coords())
	assert.Nil(t, light.Coords())
	assert.Equal(t, []float64{1}, heavy.Coords())
	o, err := face.Outline(A)
	require.NoError(t, err)
	assert.Equal(t, Rect{50, 0, 550, 700}, o.Bounds)
	assert.Equal(t, float32(600), face.Advance(A))
	assert.Equal(t, float32(700), heavy.Advance(A))
	// both instances read the same glyph indices
	_, gid, _ := heavy.TryGetGlyphID('A', 0)
	assert.Equal(t, A, gid)
}

func TestWithVariationErrors(t *testing.T) {
	face, _ := variableFace(t)
	inst, err := face.WithVariation(Variation{Tag: ot.T("wght"), Value: 1000})
	assert.True(t, errors.Is(err, ErrAxisOutOfRange), "error is %v", err)
	assert.Nil(t, inst)
	assert.Nil(t, face.Coords(), "face unchanged")
	_, err = face.WithVariation(Variation{Tag: ot.T("wdth"), Value: 100})
	assert.True(t, errors.Is(err, ot.ErrInvalidArgument))
	b, _ := buildFont()
	static := newFace(t, b)
	inst, err = static.WithVariation()
	assert.NoError(t, err)
	assert.Same(t, static, inst)
	_, err = static.WithVariation(Variation{Tag: ot.T("wght"), Value: 400})
	assert.True(t, errors.Is(err, ot.ErrInvalidArgument))
}

func TestInferDeltas(t *testing.T) {
	pts := []glyphPoint{{0, 0, true}, {50, 0, true}, {100, 0, true}, {100, 100, true}, {0, 100, true}}
	touched := []bool{true, false, true, false, false}
	dx := []float64{10, 0, 30, 0, 0}
	dy := []float64{0, 0, 0, 0, 0}
	inferDeltas(pts, []int{4}, touched, dx, dy)
	assert.Equal(t, 20.0, dx[1], "interpolated between neighbors")
	assert.Equal(t, 30.0, dx[3], "beyond the range of reference coordinates")
	assert.Equal(t, 10.0, dx[4])
	//
	touched = []bool{false, false, true, false, false}
	dx = []float64{0, 0, 7, 0, 0}
	inferDeltas(pts, []int{4}, touched, dx, dy)
	assert.Equal(t, []float64{7, 7, 7, 7, 7}, dx, "single touched point shifts the contour")
	//
	touched = make([]bool, 5)
	dx = make([]float64, 5)
	inferDeltas(pts, []int{4}, touched, dx, dy)
	assert.Equal(t, make([]float64, 5), dx)
}

func TestInterpolateDelta(t *testing.T) {
	assert.Equal(t, 5.0, interpolateDelta(10, 10, 10, 5, 5))
	assert.Equal(t, 0.0, interpolateDelta(10, 10, 10, 5, 6))
	assert.Equal(t, 15.0, interpolateDelta(50, 100, 0, 20, 10))
}
