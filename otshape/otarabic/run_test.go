package otarabic

import (
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
	"github.com/npillmayer/opentext/otshape"
)

// testRun is a minimal run context over a slice of glyphs.
type testRun struct {
	glyphs []otlayout.GlyphShapingData
}

var _ otshape.RunContext = (*testRun)(nil)

func newTestRun(gids []ot.GlyphIndex, cps []rune) *testRun {
	r := &testRun{}
	for i, gid := range gids {
		g := otlayout.GlyphShapingData{Glyph: gid, Offset: i, Mask: otlayout.GlobalMask}
		if i < len(cps) {
			g.CodePoints = []rune{cps[i]}
		}
		r.glyphs = append(r.glyphs, g)
	}
	return r
}

func (r *testRun) Len() int                              { return len(r.glyphs) }
func (r *testRun) Glyph(i int) ot.GlyphIndex             { return r.glyphs[i].Glyph }
func (r *testRun) SetGlyph(i int, gid ot.GlyphIndex)     { r.glyphs[i].Glyph = gid }
func (r *testRun) Info(i int) *otlayout.GlyphShapingData { return &r.glyphs[i] }
func (r *testRun) Mask(i int) otlayout.FeatureMask       { return r.glyphs[i].Mask }
func (r *testRun) SetMask(i int, m otlayout.FeatureMask) {
	r.glyphs[i].Mask = m
}

func (r *testRun) Codepoint(i int) rune {
	if len(r.glyphs[i].CodePoints) == 0 {
		return 0
	}
	return r.glyphs[i].CodePoints[0]
}

func (r *testRun) MergeClusters(start, end int) {
	least := r.glyphs[start].Offset
	for i := start; i < end; i++ {
		least = min(least, r.glyphs[i].Offset)
	}
	for i := start; i < end; i++ {
		r.glyphs[i].Offset = least
	}
}

func (r *testRun) Move(from, to int) {
	g := r.glyphs[from]
	r.glyphs = append(r.glyphs[:from], r.glyphs[from+1:]...)
	r.glyphs = append(r.glyphs[:to], append([]otlayout.GlyphShapingData{g}, r.glyphs[to:]...)...)
}

func (r *testRun) Swap(i, j int) {
	r.glyphs[i], r.glyphs[j] = r.glyphs[j], r.glyphs[i]
}

func (r *testRun) InsertGlyph(index int, gid ot.GlyphIndex, cps ...rune) {
	g := otlayout.GlyphShapingData{Glyph: gid, CodePoints: cps, Mask: otlayout.GlobalMask}
	r.glyphs = append(r.glyphs[:index], append([]otlayout.GlyphShapingData{g}, r.glyphs[index:]...)...)
}

func (r *testRun) InsertGlyphCopies(index int, source int, count int) {
	for range count {
		g := r.glyphs[source]
		g.CodePoints = nil
		r.glyphs = append(r.glyphs[:index], append([]otlayout.GlyphShapingData{g}, r.glyphs[index:]...)...)
	}
}

func (r *testRun) glyphIDs() []ot.GlyphIndex {
	gids := make([]ot.GlyphIndex, len(r.glyphs))
	for i, g := range r.glyphs {
		gids[i] = g.Glyph
	}
	return gids
}

func (r *testRun) codepoints() []rune {
	cps := make([]rune, len(r.glyphs))
	for i := range r.glyphs {
		cps[i] = r.Codepoint(i)
	}
	return cps
}
