package othebrew_test

import (
	"testing"

	"github.com/npillmayer/opentext/internal/fontbuild"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otlayout"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/otcore"
	"github.com/npillmayer/opentext/otshape/othebrew"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

func TestShaperMatchHebrew(t *testing.T) {
	s := othebrew.Shaper{}
	assert.Equal(t, "hebrew", s.Name())
	assert.Equal(t, otshape.ShaperConfidenceCertain, s.Match(otshape.SelectionContext{Script: language.MustParseScript("Hebr")}))
	assert.Equal(t, otshape.ShaperConfidenceNone, s.Match(otshape.SelectionContext{Script: language.MustParseScript("Arab")}))
	engine := othebrew.New()
	assert.Implements(t, (*otshape.ShapingEnginePolicy)(nil), engine)
	assert.Implements(t, (*otshape.ShapingEngineComposeHook)(nil), engine)
	assert.Implements(t, (*otshape.ShapingEngineReorderHook)(nil), engine)
}

type normalizeProbe struct {
	hasGposMark bool
	composed    rune
	ok          bool
}

func (p normalizeProbe) Font() *ot.Font                      { return nil }
func (p normalizeProbe) Selection() otshape.SelectionContext { return otshape.SelectionContext{} }
func (p normalizeProbe) HasGposMark() bool                   { return p.hasGposMark }

func (p normalizeProbe) ComposeUnicode(a, b rune) (rune, bool) {
	if p.ok {
		return p.composed, true
	}
	return 0, false
}

func TestCompose(t *testing.T) {
	s := othebrew.Shaper{}
	got, ok := s.Compose(normalizeProbe{composed: 'X', ok: true}, 'a', 'b')
	assert.True(t, ok)
	assert.Equal(t, 'X', got, "canonical composition first")
	got, ok = s.Compose(normalizeProbe{}, 0x05D9, 0x05B4) // YOD + HIRIQ
	assert.True(t, ok)
	assert.Equal(t, rune(0xFB1D), got)
	got, _ = s.Compose(normalizeProbe{}, 0x05D1, 0x05BC) // BET + DAGESH
	assert.Equal(t, rune(0xFB31), got)
	_, ok = s.Compose(normalizeProbe{}, 0x05D7, 0x05BC) // HET + DAGESH
	assert.False(t, ok, "no presentation form for het with dagesh")
	_, ok = s.Compose(normalizeProbe{hasGposMark: true}, 0x05D9, 0x05B4)
	assert.False(t, ok, "fonts with mark positioning get no presentation forms")
}

// runProbe is a run of marks, identified by their code-points.
type runProbe struct {
	glyphs []otlayout.GlyphShapingData
}

func newRunProbe(cps ...rune) *runProbe {
	p := &runProbe{}
	for i, cp := range cps {
		p.glyphs = append(p.glyphs, otlayout.GlyphShapingData{CodePoints: []rune{cp}, Offset: i})
	}
	return p
}

func (p *runProbe) Len() int                                              { return len(p.glyphs) }
func (p *runProbe) Glyph(i int) ot.GlyphIndex                             { return p.glyphs[i].Glyph }
func (p *runProbe) SetGlyph(i int, gid ot.GlyphIndex)                     { p.glyphs[i].Glyph = gid }
func (p *runProbe) Codepoint(i int) rune                                  { return p.glyphs[i].CodePoints[0] }
func (p *runProbe) Info(i int) *otlayout.GlyphShapingData                 { return &p.glyphs[i] }
func (p *runProbe) Mask(i int) otlayout.FeatureMask                       { return p.glyphs[i].Mask }
func (p *runProbe) SetMask(i int, m otlayout.FeatureMask)                 { p.glyphs[i].Mask = m }
func (p *runProbe) Move(from, to int)                                     {}
func (p *runProbe) InsertGlyph(index int, gid ot.GlyphIndex, cps ...rune) {}
func (p *runProbe) InsertGlyphCopies(index int, source int, count int)    {}
func (p *runProbe) Swap(i, j int)                                         { p.glyphs[i], p.glyphs[j] = p.glyphs[j], p.glyphs[i] }

func (p *runProbe) MergeClusters(start, end int) {
	for i := start; i < end; i++ {
		p.glyphs[i].Offset = p.glyphs[start].Offset
	}
}

func (p *runProbe) codepoints() []rune {
	cps := make([]rune, p.Len())
	for i := range cps {
		cps[i] = p.Codepoint(i)
	}
	return cps
}

func TestReorderMarks(t *testing.T) {
	s := othebrew.Shaper{}
	run := newRunProbe(0x05B7, 0x05B0, 0x05BD) // PATAH, SHEVA, METEG
	s.ReorderMarks(run, 0, run.Len())
	assert.Equal(t, []rune{0x05B7, 0x05BD, 0x05B0}, run.codepoints())
	assert.Equal(t, run.glyphs[1].Offset, run.glyphs[2].Offset, "reordered pair shares a cluster")
	//
	run = newRunProbe(0x05B0, 0x05B7, 0x05BD) // SHEVA, PATAH, METEG
	s.ReorderMarks(run, 0, run.Len())
	assert.Equal(t, []rune{0x05B0, 0x05B7, 0x05BD}, run.codepoints())
}

func TestShapePresentationForms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "opentype.shaper")
	defer teardown()
	//
	b := fontbuild.New()
	yod := b.AddGlyph(fontbuild.Glyph{Name: "yod", Advance: 300, Contours: fontbuild.Rect(0, 300, 250, 600)})
	hiriq := b.AddGlyph(fontbuild.Glyph{Name: "hiriq", Advance: 0, Contours: fontbuild.Rect(100, -150, 150, -100)})
	yodHiriq := b.AddGlyph(fontbuild.Glyph{Name: "yodhiriq", Advance: 300, Contours: fontbuild.Rect(0, -150, 250, 600)})
	b.Map(0x05D9, yod)
	b.Map(0x05B4, hiriq)
	b.Map(0xFB1D, yodHiriq)
	otf, err := ot.Parse(b.Build())
	require.NoError(t, err)
	face, err := otface.New(otf)
	require.NoError(t, err)
	//
	params := otshape.Params{
		Face:      face,
		Direction: bidi.RightToLeft,
		Script:    language.MustParseScript("Hebr"),
		PointSize: 10,
	}
	pc, err := otshape.NewShaper(otcore.New(), othebrew.New()).Shape(params, []rune{0x05D9, 0x05B4, 0x05D9})
	require.NoError(t, err)
	require.Equal(t, 2, pc.Len())
	assert.Equal(t, ot.GlyphIndex(yodHiriq), pc.Glyphs[0].Glyph)
	assert.Equal(t, []rune{0xFB1D}, pc.Glyphs[0].CodePoints)
	assert.Equal(t, ot.GlyphIndex(yod), pc.Glyphs[1].Glyph)
	assert.Equal(t, 2, pc.Glyphs[1].Offset)
}
