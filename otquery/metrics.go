package otquery

import (
	"github.com/npillmayer/opentext/ot"
	"golang.org/x/image/font/sfnt"
)

// --- Font Information -------------------------------------------------

// FontSupportsScript returns a tuple (script-tag, language-tag) for a given input
// of a script tag and a language tag. If the language has no special support in the
// font, DFLT will be returned. If the script has no support in the font,
// DFLT will be returned for the script.
//
// GSUB is consulted first. Fonts without GSUB, or with a GSUB which does not
// know the script, are checked against GPOS.
func FontSupportsScript(otf *ot.Font, scr ot.Tag, lang ot.Tag) (ot.Tag, ot.Tag) {
	if otf == nil {
		return 0, 0
	}
	var script *ot.Script
	for _, sl := range scriptLists(otf) {
		if script = sl.Script(scr); script != nil {
			break
		}
	}
	if script == nil {
		tracer().Infof("cannot find script %s in font", scr)
		return ot.DFLT, ot.DFLT
	}
	tracer().Debugf("script %s is supported by font", scr)
	if script.LangSys(lang) != nil {
		return scr, lang
	}
	return scr, ot.DFLT
}

// Scripts returns the script tags of GSUB and GPOS, each mapped to the language
// tags of its language systems. Scripts present in both tables are merged.
func Scripts(otf *ot.Font) map[ot.Tag][]ot.Tag {
	scripts := make(map[ot.Tag][]ot.Tag)
	for _, sl := range scriptLists(otf) {
		for tag, script := range sl.Range() {
			langs := scripts[tag]
		next:
			for _, lang := range script.LanguageTags() {
				for _, l := range langs {
					if l == lang {
						continue next
					}
				}
				langs = append(langs, lang)
			}
			scripts[tag] = langs
		}
	}
	return scripts
}

func scriptLists(otf *ot.Font) []*ot.ScriptList {
	if otf == nil {
		return nil
	}
	var lists []*ot.ScriptList
	if gsub := otf.Layout.GSub; gsub != nil && gsub.Scripts != nil {
		lists = append(lists, gsub.Scripts)
	}
	if gpos := otf.Layout.GPos; gpos != nil && gpos.Scripts != nil {
		lists = append(lists, gpos.Scripts)
	}
	return lists
}

// FontMetrics retrieves selected metrics of a font.
// If table hhea does not state ascender and descender, the typographic values
// of OS/2 are used.
func FontMetrics(otf *ot.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if hhea := otf.HHea; hhea != nil {
		metrics.Ascent = sfnt.Units(hhea.Ascender)
		metrics.Descent = sfnt.Units(hhea.Descender)
		metrics.LineGap = sfnt.Units(hhea.LineGap)
		metrics.MaxAdvance = sfnt.Units(hhea.AdvanceWidthMax)
	}
	if os2 := otf.OS2; os2 != nil {
		if metrics.Ascent == 0 && metrics.Descent == 0 {
			tracer().Debugf("font metrics from OS/2")
			metrics.Ascent = sfnt.Units(os2.TypoAscender)
			metrics.Descent = sfnt.Units(os2.TypoDescender)
			metrics.LineGap = sfnt.Units(os2.TypoLineGap)
		}
		metrics.XHeight = sfnt.Units(os2.XHeight)
		metrics.CapHeight = sfnt.Units(os2.CapHeight)
	}
	if otf.Head != nil {
		metrics.UnitsPerEm = sfnt.Units(otf.Head.UnitsPerEm)
	}
	return metrics
}

// --- Glyph Routines --------------------------------------------------------

// GlyphIndex returns the glyph index for a give code-point.
// If the code-point cannot be found, 0 is returned.
//
// From the OpenType specification: character codes that do not correspond to any glyph in
// the font should be mapped to glyph index 0. The glyph at this location must be a special
// glyph representing a missing character, commonly known as '.notdef'.
func GlyphIndex(otf *ot.Font, codepoint rune) ot.GlyphIndex {
	if otf == nil {
		return 0
	}
	return otf.CMap.Lookup(codepoint)
}

// CodePointForGlyph returns the code-point for a given glyph index.
//
// Depending on the cmap subtable format, this may be an inefficient operation.
// If the glyph index does not correspond to a code-point, 0 is returned.
func CodePointForGlyph(otf *ot.Font, gid ot.GlyphIndex) rune {
	if gid == 0 || otf == nil || otf.CMap == nil || otf.CMap.GlyphIndexMap == nil {
		return 0
	}
	return otf.CMap.GlyphIndexMap.ReverseLookup(gid)
}

// GlyphMetrics retrieves metrics for a given glyph.
// Bounding boxes are taken from the glyph headers of table glyf; for CFF fonts
// they are left empty (package otface computes them from the outlines).
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) GlyphMetricsInfo {
	metrics := GlyphMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if aw, lsb, ok := otf.HMtx.HMetrics(gid); ok {
		metrics.Advance = sfnt.Units(aw)
		metrics.LSB = sfnt.Units(lsb)
	}
	if otf.Glyf != nil {
		if g, err := otf.Glyf.Glyph(gid); err == nil && g != nil {
			metrics.BBox = BoundingBox{
				MinX: sfnt.Units(g.XMin),
				MinY: sfnt.Units(g.YMin),
				MaxX: sfnt.Units(g.XMax),
				MaxY: sfnt.Units(g.YMax),
			}
		} else if err != nil {
			tracer().Debugf("glyph %d: %v", gid, err)
		}
	}
	// From the OpenType specification:
	// If a glyph has no contours, xMax/xMin are not defined. The left side bearing indicated
	// in the 'hmtx' table for such glyphs should be zero.
	if !metrics.BBox.Empty() { // leave RSB for empty bboxes
		metrics.RSB = metrics.Advance - (metrics.LSB + metrics.BBox.Dx())
	}
	return metrics
}

// ClassesForGlyph returns the GDEF classes of a glyph. Fonts without GDEF
// leave every glyph unclassified.
func ClassesForGlyph(otf *ot.Font, gid ot.GlyphIndex) GlyphClasses {
	var clz GlyphClasses
	if otf == nil || otf.Layout.GDef == nil {
		return clz
	}
	gdef := otf.Layout.GDef
	clz.Class = GlyphClass(gdef.GlyphClass(gid))
	clz.MarkAttachClass = gdef.MarkAttachClass(gid)
	return clz
}
