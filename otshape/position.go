package otshape

import (
	"errors"
	"unicode"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otlayout"
)

// PosDelta is the positioning adjustment of a glyph, in font units. Advance
// deltas are added to the advance of the glyph metrics; offsets move the glyph
// away from the current pen position without moving the pen.
type PosDelta struct {
	XAdvance, YAdvance float32
	XOffset, YOffset   float32
}

// PositionedGlyph is a glyph of a shaped run.
type PositionedGlyph struct {
	Glyph      ot.GlyphIndex
	Offset     int    // index of the first code-point of the glyph in the input text
	CodePoints []rune // code-points the glyph has been mapped from, if any
	Class      ot.GlyphClassDefEnum
	Metrics    []otface.GlyphMetrics // one entry, or one per color layer
	Delta      PosDelta
}

// AdvanceWidth returns the horizontal advance of a glyph including its
// positioning delta, in font units.
func (g PositionedGlyph) AdvanceWidth() float32 {
	if len(g.Metrics) == 0 {
		return g.Delta.XAdvance
	}
	return g.Metrics[0].AdvanceWidth + g.Delta.XAdvance
}

// AdvanceHeight returns the vertical advance of a glyph including its
// positioning delta, in font units.
func (g PositionedGlyph) AdvanceHeight() float32 {
	if len(g.Metrics) == 0 {
		return g.Delta.YAdvance
	}
	return g.Metrics[0].AdvanceHeight + g.Delta.YAdvance
}

// Fallback reports whether the font has no glyph for the code-points of g.
func (g PositionedGlyph) Fallback() bool {
	return len(g.Metrics) > 0 && g.Metrics[0].Type == otface.GlyphFallback
}

// PositioningCollection is a shaped run of glyphs in logical order. Offsets of
// marks and cursively attached glyphs are resolved: they are relative to the
// pen position of the glyph itself, with glyphs of right-to-left runs placed
// in reverse order.
type PositioningCollection struct {
	Glyphs      []PositionedGlyph
	PointSize   float32
	RightToLeft bool
	Vertical    bool
	Limited     bool // shaping exceeded its budget of lookup operations
}

// Len returns the number of glyphs.
func (pc *PositioningCollection) Len() int {
	if pc == nil {
		return 0
	}
	return len(pc.Glyphs)
}

// Advance returns the total advance of the run in font units.
func (pc *PositioningCollection) Advance() float32 {
	var adv float32
	for _, g := range pc.Glyphs {
		if pc.Vertical {
			adv += g.AdvanceHeight()
		} else {
			adv += g.AdvanceWidth()
		}
	}
	return adv
}

// Scale returns the factor to convert font units to points.
func (pc *PositioningCollection) Scale() float32 {
	if len(pc.Glyphs) == 0 || len(pc.Glyphs[0].Metrics) == 0 {
		return 0
	}
	return pc.Glyphs[0].Metrics[0].Scale * pc.PointSize
}

// position resolves glyph metrics and applies GPOS, or kerning of the kern
// table, to a collection.
func (p *plan) position(coll *otlayout.SubstitutionCollection) *PositioningCollection {
	params := p.params
	face := params.Face
	pc := &PositioningCollection{
		PointSize:   params.PointSize,
		RightToLeft: params.rightToLeft(),
		Vertical:    params.Vertical,
		Limited:     coll.Err() != nil,
	}
	coll.ResetPositions()
	if p.applyGPOS && len(p.gpos) > 0 && coll.Len() > 0 {
		err := otlayout.ApplyLookups(p.otf, otlayout.GPosFeatureType, coll, p.gpos, otlayout.Options{
			RightToLeft: pc.RightToLeft,
			Advance:     func(gid ot.GlyphIndex) int32 { return int32(face.Advance(gid)) },
		})
		if errors.Is(err, otlayout.ErrShapingLimit) {
			pc.Limited = true
		}
		if err != nil {
			tracer().Errorf("GPOS aborted: %v", err)
		}
	}
	pc.Glyphs = make([]PositionedGlyph, 0, coll.Len())
	for i := range coll.Glyphs() {
		g := coll.At(i)
		var cp rune
		if len(g.CodePoints) > 0 {
			cp = g.CodePoints[0]
		}
		pg := PositionedGlyph{
			Glyph:      g.Glyph,
			Offset:     g.Offset,
			CodePoints: g.CodePoints,
			Class:      g.Class,
			Metrics:    face.GlyphMetrics(cp, g.Glyph, params.Attributes, params.ColorFonts, params.Vertical),
			Delta: PosDelta{
				XAdvance: float32(g.Pos.XAdvance),
				YAdvance: float32(g.Pos.YAdvance),
				XOffset:  float32(g.Pos.XOffset),
				YOffset:  float32(g.Pos.YOffset),
			},
		}
		if g.IsMark() && g.Attach.Kind != otlayout.AttachCursive {
			pg.Delta.XAdvance = -pg.Metrics[0].AdvanceWidth + float32(g.Pos.XAdvance)
			if params.Vertical {
				pg.Delta.YAdvance = -pg.Metrics[0].AdvanceHeight + float32(g.Pos.YAdvance)
			}
		}
		pc.Glyphs = append(pc.Glyphs, pg)
	}
	if p.kernFallback {
		applyKernTable(pc, face)
	}
	resolveAttachments(pc, coll)
	purgeDefaultIgnorables(pc)
	return pc
}

// applyKernTable adds pair kerning of the kern table between adjacent glyphs
// which are not marks.
func applyKernTable(pc *PositioningCollection, face *otface.Face) {
	prev := -1
	for i := range pc.Glyphs {
		if pc.Glyphs[i].Class == ot.MarkGlyph {
			continue
		}
		if prev >= 0 {
			pc.Glyphs[prev].Delta.XAdvance += face.Kerning(pc.Glyphs[prev].Glyph, pc.Glyphs[i].Glyph)
		}
		prev = i
	}
}

// resolveAttachments makes the offsets of attached glyphs relative to their own
// pen positions. Glyphs are resolved after the glyph they are attached to,
// using an explicit stack.
func resolveAttachments(pc *PositioningCollection, coll *otlayout.SubstitutionCollection) {
	n := len(pc.Glyphs)
	resolved := make([]bool, n)
	var stack []int
	for i := range n {
		for j := i; j >= 0 && !resolved[j]; {
			stack = append(stack, j)
			a := coll.At(j).Attach
			if a.Kind == otlayout.AttachNone || a.To < 0 || a.To >= n || a.To == j {
				break
			}
			if containsIndex(stack, a.To) { // cycle
				break
			}
			j = a.To
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			resolveAttachment(pc, coll.At(j).Attach, j)
			resolved[j] = true
		}
	}
}

func containsIndex(stack []int, k int) bool {
	for _, s := range stack {
		if s == k {
			return true
		}
	}
	return false
}

func resolveAttachment(pc *PositioningCollection, a otlayout.Attachment, j int) {
	if a.Kind == otlayout.AttachNone || a.To < 0 || a.To >= len(pc.Glyphs) || a.To == j {
		return
	}
	g, parent := &pc.Glyphs[j], pc.Glyphs[a.To]
	if a.Kind == otlayout.AttachCursive {
		if pc.Vertical {
			g.Delta.XOffset += parent.Delta.XOffset
		} else {
			g.Delta.YOffset += parent.Delta.YOffset
		}
		return
	}
	g.Delta.XOffset += parent.Delta.XOffset
	g.Delta.YOffset += parent.Delta.YOffset
	if pc.Vertical {
		return
	}
	if pc.RightToLeft {
		for k := a.To + 1; k <= j && k < len(pc.Glyphs); k++ {
			g.Delta.XOffset += pc.Glyphs[k].AdvanceWidth()
		}
		return
	}
	for k := a.To; k < j; k++ {
		g.Delta.XOffset -= pc.Glyphs[k].AdvanceWidth()
	}
}

// purgeDefaultIgnorables removes glyphs of default ignorable code-points
// which the font does not support.
func purgeDefaultIgnorables(pc *PositioningCollection) {
	glyphs := pc.Glyphs[:0]
	for _, g := range pc.Glyphs {
		if g.Fallback() && len(g.CodePoints) > 0 && isDefaultIgnorable(g.CodePoints[0]) {
			continue
		}
		glyphs = append(glyphs, g)
	}
	pc.Glyphs = glyphs
}

func isDefaultIgnorable(r rune) bool {
	if unicode.Is(unicode.Prepended_Concatenation_Mark, r) {
		return false
	}
	return unicode.In(r, unicode.Cf, unicode.Variation_Selector, unicode.Other_Default_Ignorable_Code_Point)
}
