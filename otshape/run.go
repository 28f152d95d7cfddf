package otshape

import (
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
)

// runContext gives shaping engines access to the glyphs of a substitution
// collection.
type runContext struct {
	coll *otlayout.SubstitutionCollection
}

var _ RunContext = runContext{}

func (r runContext) Len() int {
	return r.coll.Len()
}

func (r runContext) valid(i int) bool {
	return i >= 0 && i < r.coll.Len()
}

func (r runContext) Glyph(i int) ot.GlyphIndex {
	if !r.valid(i) {
		return NOTDEF
	}
	return r.coll.At(i).Glyph
}

func (r runContext) SetGlyph(i int, gid ot.GlyphIndex) {
	if r.valid(i) {
		r.coll.At(i).Glyph = gid
		r.coll.At(i).Flags |= otlayout.FlagSubstituted | otlayout.FlagDirty
	}
}

func (r runContext) Codepoint(i int) rune {
	if !r.valid(i) || len(r.coll.At(i).CodePoints) == 0 {
		return 0
	}
	return r.coll.At(i).CodePoints[0]
}

func (r runContext) Info(i int) *otlayout.GlyphShapingData {
	if !r.valid(i) {
		return nil
	}
	return r.coll.At(i)
}

func (r runContext) Mask(i int) otlayout.FeatureMask {
	if !r.valid(i) {
		return 0
	}
	return r.coll.At(i).Mask
}

func (r runContext) SetMask(i int, mask otlayout.FeatureMask) {
	if r.valid(i) {
		r.coll.At(i).Mask = mask
	}
}

func (r runContext) MergeClusters(start, end int) {
	r.coll.MergeClusters(max(start, 0), min(end, r.coll.Len()))
}

func (r runContext) Move(from, to int) {
	r.coll.Move(from, to)
}

// Swap exchanges two glyphs, merging the clusters in between.
func (r runContext) Swap(i, j int) {
	if !r.valid(i) || !r.valid(j) || i == j {
		return
	}
	if i > j {
		i, j = j, i
	}
	r.coll.MergeClusters(i, j+1)
	a, b := r.coll.At(i), r.coll.At(j)
	*a, *b = *b, *a
}

func (r runContext) InsertGlyph(index int, gid ot.GlyphIndex, cps ...rune) {
	if g := r.coll.Insert(index, gid, cps...); g != nil {
		g.Flags |= otlayout.FlagDirty
	}
}

// InsertGlyphCopies inserts count copies of glyph #source before glyph #index.
// The copies carry no code-points.
func (r runContext) InsertGlyphCopies(index int, source int, count int) {
	if !r.valid(source) {
		return
	}
	src := *r.coll.At(source)
	for k := 0; k < count; k++ {
		g := r.coll.Insert(index, src.Glyph)
		if g == nil {
			return
		}
		offset := g.Offset
		*g = src
		g.Offset, g.CodePoints = offset, nil
		g.Features = append([]ot.Tag(nil), src.Features...)
	}
}
