package otface

import (
	"image/color"

	"github.com/npillmayer/opentext/ot"
)

// GlyphType classifies the glyphs of GlyphMetrics.
type GlyphType uint8

const (
	GlyphStandard   GlyphType = iota // regular glyph
	GlyphFallback                    // .notdef, the code-point is not supported
	GlyphColorLayer                  // layer of a COLR color glyph
)

func (t GlyphType) String() string {
	switch t {
	case GlyphFallback:
		return "fallback"
	case GlyphColorLayer:
		return "color-layer"
	}
	return "standard"
}

// GlyphMetrics are the metrics of a glyph in font units. They are immutable;
// positioning adjustments of shaping are kept separately.
type GlyphMetrics struct {
	Glyph            ot.GlyphIndex
	CodePoint        rune
	Type             GlyphType
	Attributes       Attributes
	Bounds           Rect
	AdvanceWidth     float32
	AdvanceHeight    float32
	LeftSideBearing  float32
	TopSideBearing   float32
	RightSideBearing float32
	Scale            float32 // 1/units per em; multiply by the font size to get output units
	HasColor         bool    // false for layers painted with the foreground color
	Color            color.NRGBA
	PaletteIndex     uint16
}

// GlyphMetrics returns the metrics of glyph gid, which has been mapped from
// code-point cp (cp may be 0 for glyphs produced by substitutions).
// If colorSupport is set and the glyph is a COLR version 0 color glyph,
// one entry per color layer is returned, each carrying the advance of the base glyph.
// Otherwise the result has exactly one entry.
func (f *Face) GlyphMetrics(cp rune, gid ot.GlyphIndex, attrs Attributes, colorSupport, vertical bool) []GlyphMetrics {
	key := metricsKey{cp: cp, gid: gid, attrs: attrs, color: colorSupport, vertical: vertical}
	return f.gmetr.LoadOrCompute(key, func() []GlyphMetrics {
		base := f.glyphMetrics(cp, gid, attrs, vertical)
		if !colorSupport {
			return []GlyphMetrics{base}
		}
		layers := f.otf.COLR.Layers(gid)
		if len(layers) == 0 {
			return []GlyphMetrics{base}
		}
		palette := f.otf.CPAL.Palette(f.opts.Palette)
		m := make([]GlyphMetrics, len(layers))
		for i, l := range layers {
			lm := f.glyphMetrics(cp, l.Glyph, attrs, vertical)
			lm.Type = GlyphColorLayer
			lm.AdvanceWidth, lm.AdvanceHeight = base.AdvanceWidth, base.AdvanceHeight
			lm.RightSideBearing = lm.AdvanceWidth - lm.Bounds.XMax
			lm.PaletteIndex = l.PaletteIndex
			if l.PaletteIndex != ot.ForegroundPaletteIndex && int(l.PaletteIndex) < len(palette) {
				lm.HasColor = true
				lm.Color = palette[l.PaletteIndex]
			}
			m[i] = lm
		}
		return m
	})
}

func (f *Face) glyphMetrics(cp rune, gid ot.GlyphIndex, attrs Attributes, vertical bool) GlyphMetrics {
	m := GlyphMetrics{Glyph: gid, CodePoint: cp, Attributes: attrs, Scale: 1 / f.upem}
	if gid == 0 {
		m.Type = GlyphFallback
	}
	if o, err := f.StyledOutline(gid, attrs); err == nil {
		m.Bounds = o.Bounds
	}
	m.AdvanceWidth = f.Advance(gid)
	if attrs&FauxBold != 0 {
		m.AdvanceWidth += 2 * f.emboldenStrength()
	}
	m.LeftSideBearing = m.Bounds.XMin
	if !m.Bounds.Empty() {
		m.RightSideBearing = m.AdvanceWidth - m.Bounds.XMax
	}
	if vertical {
		m.AdvanceHeight, m.TopSideBearing = f.verticalMetrics(gid, m.Bounds)
	}
	return m
}

// Advance returns the horizontal advance of glyph gid in font units, including
// variation deltas.
func (f *Face) Advance(gid ot.GlyphIndex) float32 {
	adv, _, ok := f.otf.HMtx.HMetrics(gid)
	if !ok {
		return 0
	}
	return float32(adv) + f.varAdvance(gid)
}

// verticalMetrics returns advance height and top side bearing. Without
// vmtx, the advance height spans ascender to descender.
func (f *Face) verticalMetrics(gid ot.GlyphIndex, bounds Rect) (float32, float32) {
	if adv, tsb, ok := f.otf.VMtx.HMetrics(gid); ok {
		return float32(adv), float32(tsb)
	}
	fm := f.Metrics()
	tsb := float32(0)
	if !bounds.Empty() {
		tsb = fm.Ascender - bounds.YMax
	}
	return fm.Ascender - fm.Descender, tsb
}

// FaceMetrics are font-wide metrics in font units. The descender is negative.
type FaceMetrics struct {
	UnitsPerEm         float32
	Ascender           float32
	Descender          float32
	LineGap            float32
	XHeight            float32
	CapHeight          float32
	UnderlinePosition  float32
	UnderlineThickness float32
	StrikeoutPosition  float32
	StrikeoutSize      float32
	ItalicAngle        float32 // degrees, counter-clockwise from vertical
}

// Metrics returns the font-wide metrics. Typographic metrics of OS/2 are
// used if the font requests it, otherwise hhea.
func (f *Face) Metrics() FaceMetrics {
	otf := f.otf
	m := FaceMetrics{UnitsPerEm: f.upem}
	if hhea := otf.HHea; hhea != nil {
		m.Ascender, m.Descender, m.LineGap = float32(hhea.Ascender), float32(hhea.Descender), float32(hhea.LineGap)
	}
	if os2 := otf.OS2; os2 != nil {
		if os2.UseTypoMetricsFlag || (m.Ascender == 0 && m.Descender == 0) {
			m.Ascender, m.Descender = float32(os2.TypoAscender), float32(os2.TypoDescender)
			m.LineGap = float32(os2.TypoLineGap)
		}
		m.XHeight, m.CapHeight = float32(os2.XHeight), float32(os2.CapHeight)
		m.StrikeoutPosition, m.StrikeoutSize = float32(os2.StrikeoutPosition), float32(os2.StrikeoutSize)
	}
	if post := otf.Post; post != nil {
		m.UnderlinePosition = float32(post.UnderlinePosition)
		m.UnderlineThickness = float32(post.UnderlineThickness)
		m.ItalicAngle = float32(post.ItalicAngle.Float())
	}
	if m.UnderlineThickness == 0 {
		m.UnderlineThickness = f.upem / 20
		m.UnderlinePosition = -f.upem / 10
	}
	if m.StrikeoutSize == 0 {
		m.StrikeoutSize = m.UnderlineThickness
		m.StrikeoutPosition = m.Ascender / 3
	}
	if m.XHeight == 0 {
		m.XHeight = m.Ascender / 2
	}
	if m.CapHeight == 0 {
		m.CapHeight = m.Ascender * 0.7
	}
	return m
}

// Kerning returns the kerning between two glyphs from the kern table, in font units.
func (f *Face) Kerning(left, right ot.GlyphIndex) float32 {
	if f.otf.Kern == nil {
		return 0
	}
	return float32(f.otf.Kern.Kerning(left, right))
}

// ColorPaint returns the COLR version 1 paint graph of a glyph, or nil.
func (f *Face) ColorPaint(gid ot.GlyphIndex) (*ot.Paint, error) {
	return f.otf.COLR.Paint(gid)
}

// Palette returns the colors of the selected CPAL palette.
func (f *Face) Palette() []color.NRGBA {
	return f.otf.CPAL.Palette(f.opts.Palette)
}
