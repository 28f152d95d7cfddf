package otquery

import "golang.org/x/image/font/sfnt"

// FontMetricsInfo contains selected metric information for a font.
type FontMetricsInfo struct {
	UnitsPerEm      sfnt.Units // ad-hoc units per em
	Ascent, Descent sfnt.Units // ascender and descender
	MaxAdvance      sfnt.Units // maximum advance width value in 'hmtx' table
	LineGap         sfnt.Units // typographic line gap
	XHeight         sfnt.Units // from OS/2 version ≥ 2, else 0
	CapHeight       sfnt.Units
}

// LineHeight returns ascent - descent + line gap.
func (m FontMetricsInfo) LineHeight() sfnt.Units {
	return m.Ascent - m.Descent + m.LineGap
}

// GlyphMetricsInfo contains all metric information for a glyph.
type GlyphMetricsInfo struct {
	Advance  sfnt.Units  // advance width
	LSB, RSB sfnt.Units  // side bearings
	BBox     BoundingBox // bounding box
}

// BoundingBox describes the bounding box of a glyph.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

// Empty reports whether this box has zero area.
func (bbox BoundingBox) Empty() bool {
	return bbox.MaxX-bbox.MinX == 0 || bbox.MaxY-bbox.MinY == 0
}

// Dx returns the horizontal extent of this box.
func (bbox BoundingBox) Dx() sfnt.Units {
	return bbox.MaxX - bbox.MinX
}

// Dy returns the vertical extent of this box.
func (bbox BoundingBox) Dy() sfnt.Units {
	return bbox.MaxY - bbox.MinY
}

// GlyphClass is the GDEF glyph class of a glyph. Class 0 means the font does
// not classify the glyph.
type GlyphClass uint16

// GDEF glyph classes.
const (
	UnclassifiedGlyph GlyphClass = iota
	BaseGlyph
	LigatureGlyph
	MarkGlyph
	ComponentGlyph
)

func (c GlyphClass) String() string {
	switch c {
	case BaseGlyph:
		return "base"
	case LigatureGlyph:
		return "ligature"
	case MarkGlyph:
		return "mark"
	case ComponentGlyph:
		return "component"
	}
	return "unclassified"
}

// GlyphClasses collects the GDEF classifications of a glyph.
type GlyphClasses struct {
	Class           GlyphClass
	MarkAttachClass int
}
