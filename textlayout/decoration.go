package textlayout

import (
	"golang.org/x/image/math/fixed"

	"github.com/npillmayer/opentext/otface"
)

// DecorationLine is an underline, strikeout or overline of a sequence of
// glyphs. From and To are on the center line of the stroke.
type DecorationLine struct {
	Kind      Decoration
	From, To  fixed.Point26_6
	Thickness fixed.Int26_6
}

// Decorations returns the decoration lines of a horizontal line. Neighbouring
// glyphs with the same font and decoration share a line.
func (l TextLine) Decorations() []DecorationLine {
	if l.Vertical {
		return nil
	}
	var lines []DecorationLine
	for _, kind := range []Decoration{Underline, Strikeout, Overline} {
		var cur *DecorationLine
		var face *otface.Face
		for _, g := range l.Glyphs {
			if g.Decorations&kind == 0 {
				cur = nil
				continue
			}
			x0, x1 := g.PenLocation.X, g.PenLocation.X+g.Advance
			if cur != nil && face == g.Font && cur.To.X == x0 {
				cur.To.X = x1
				continue
			}
			y, thickness := decorationMetrics(kind, g, l.Origin.Y)
			lines = append(lines, DecorationLine{
				Kind:      kind,
				From:      fixed.Point26_6{X: x0, Y: y},
				To:        fixed.Point26_6{X: x1, Y: y},
				Thickness: thickness,
			})
			cur, face = &lines[len(lines)-1], g.Font
		}
	}
	return lines
}

// decorationMetrics returns the position and thickness of a decoration from
// the metrics of the glyph's font.
func decorationMetrics(kind Decoration, g GlyphLayout, baseline fixed.Int26_6) (fixed.Int26_6, fixed.Int26_6) {
	fm := g.Font.Metrics()
	s := g.Scale
	switch kind {
	case Strikeout:
		return baseline - toFixed(fm.StrikeoutPosition*s), toFixed(fm.StrikeoutSize * s)
	case Overline:
		return baseline - toFixed(fm.Ascender*s), toFixed(fm.UnderlineThickness * s)
	}
	return baseline - toFixed(fm.UnderlinePosition*s), toFixed(fm.UnderlineThickness * s)
}
