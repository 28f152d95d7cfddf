package textlayout

import (
	"image/color"

	"golang.org/x/image/math/fixed"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
)

// GlyphRenderer receives the outlines of laid out text. Figures are closed
// implicitly by EndFigure.
type GlyphRenderer interface {
	BeginText(bounds fixed.Rectangle26_6)
	BeginGlyph(g GlyphLayout)
	BeginFigure()
	MoveTo(p fixed.Point26_6)
	LineTo(p fixed.Point26_6)
	QuadTo(c, p fixed.Point26_6)
	CubicTo(c1, c2, p fixed.Point26_6)
	EndFigure()
	EndGlyph()
	EndText()
}

// ColorGlyphRenderer is implemented by renderers of color glyphs. SetColor is
// called before every layer of a color glyph; foreground is set for layers
// painted with the text color.
type ColorGlyphRenderer interface {
	SetColor(c color.NRGBA, foreground bool)
}

// DecorationRenderer is implemented by renderers drawing text decorations.
type DecorationRenderer interface {
	DrawDecoration(d DecorationLine)
}

// Render sends the outlines of lines to r. Glyphs whose outline cannot be
// resolved are drawn with the outline of .notdef.
func Render(lines []TextLine, r GlyphRenderer) {
	r.BeginText(bounds(lines))
	cr, colored := r.(ColorGlyphRenderer)
	for _, l := range lines {
		for _, g := range l.Glyphs {
			if g.Font == nil || isInvisible(g.CodePoint) {
				continue
			}
			r.BeginGlyph(g)
			if colored && len(g.Metrics) > 1 {
				for _, layer := range g.Metrics {
					cr.SetColor(layer.Color, !layer.HasColor)
					drawOutline(r, g, layer.Glyph)
				}
			} else {
				drawOutline(r, g, g.Glyph)
			}
			r.EndGlyph()
		}
	}
	if dr, ok := r.(DecorationRenderer); ok {
		for _, l := range lines {
			for _, d := range l.Decorations() {
				dr.DrawDecoration(d)
			}
		}
	}
	r.EndText()
}

func isInvisible(r rune) bool {
	return r == tab || r == ' '
}

func drawOutline(r GlyphRenderer, g GlyphLayout, gid ot.GlyphIndex) {
	o, err := g.Font.StyledOutline(gid, g.Attributes)
	if err != nil {
		tracer().Errorf("glyph %d: %v", gid, err)
		if o, err = g.Font.Outline(0); err != nil {
			return
		}
	}
	pt := func(p otface.Point) fixed.Point26_6 {
		if g.Sideways {
			return fixed.Point26_6{X: g.PenLocation.X + toFixed(p.Y*g.Scale), Y: g.PenLocation.Y + toFixed(p.X*g.Scale)}
		}
		return fixed.Point26_6{X: g.PenLocation.X + toFixed(p.X*g.Scale), Y: g.PenLocation.Y - toFixed(p.Y*g.Scale)}
	}
	open := false
	for _, s := range o.Segments {
		switch s.Op {
		case otface.MoveTo:
			if open {
				r.EndFigure()
			}
			r.BeginFigure()
			r.MoveTo(pt(s.Args[0]))
			open = true
		case otface.LineTo:
			r.LineTo(pt(s.Args[0]))
		case otface.QuadTo:
			r.QuadTo(pt(s.Args[0]), pt(s.Args[1]))
		case otface.CubicTo:
			r.CubicTo(pt(s.Args[0]), pt(s.Args[1]), pt(s.Args[2]))
		}
	}
	if open {
		r.EndFigure()
	}
}
