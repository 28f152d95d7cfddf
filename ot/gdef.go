package ot

import "fmt"

// GDefTable, the Glyph Definition (GDEF) table, provides various glyph properties
// used in OpenType Layout processing.
//
// See also
// https://docs.microsoft.com/en-us/typography/opentype/spec/gdef
type GDefTable struct {
	tableBase
	Major, Minor       uint16
	GlyphClassDef      *ClassDefinitions // nil if not present
	MarkAttachClassDef *ClassDefinitions // nil if not present
	MarkGlyphSets      []*Coverage       // version 1.2 and up
	LigatureCarets     map[GlyphIndex][]int16
}

// GlyphClass returns the GDEF glyph class of a glyph, or 0 if GDEF has no classes.
func (t *GDefTable) GlyphClass(g GlyphIndex) GlyphClassDefEnum {
	if t == nil {
		return 0
	}
	return GlyphClassDefEnum(t.GlyphClassDef.Class(g))
}

// MarkAttachClass returns the mark attachment class of a glyph, or 0.
func (t *GDefTable) MarkAttachClass(g GlyphIndex) int {
	if t == nil {
		return 0
	}
	return t.MarkAttachClassDef.Class(g)
}

// InMarkGlyphSet reports whether glyph g is contained in mark glyph set #set.
func (t *GDefTable) InMarkGlyphSet(set int, g GlyphIndex) bool {
	if t == nil || set < 0 || set >= len(t.MarkGlyphSets) {
		return false
	}
	return t.MarkGlyphSets[set].Contains(g)
}

// The GDEF table begins with a header that starts with a version number. Three
// versions are defined. Version 1.0 contains an offset to a Glyph Class Definition
// table (GlyphClassDef), an offset to an Attachment List table (AttachList), an offset
// to a Ligature Caret List table (LigCaretList), and an offset to a Mark Attachment
// Class Definition table (MarkAttachClassDef). Version 1.2 also includes an offset to
// a Mark Glyph Sets Definition table (MarkGlyphSetsDef). Version 1.3 also includes an
// offset to an Item Variation Store table, which we do not interpret.
func parseGDef(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 12 {
		return nil, fmt.Errorf("GDEF header too small: %d bytes", len(b))
	}
	t := &GDefTable{}
	t.init(t, tag, b, offset, size)
	t.Major, t.Minor = u16(b), u16(b[2:])
	if t.Major != 1 || t.Minor > 3 {
		return nil, fmt.Errorf("unsupported GDEF version %d.%d", t.Major, t.Minor)
	}
	var err error
	if cb, err := b.offset16(4); err != nil {
		return nil, fmt.Errorf("GDEF glyph class definitions: %w", err)
	} else if cb != nil {
		if t.GlyphClassDef, err = parseClassDef(cb); err != nil {
			return nil, fmt.Errorf("GDEF glyph class definitions: %w", err)
		}
	}
	if err = parseLigCaretList(t, b); err != nil {
		ec.addError(tag, "LigCaretList", err.Error(), SeverityMinor, offset+8)
	}
	if cb, err := b.offset16(10); err != nil {
		return nil, fmt.Errorf("GDEF mark attachment classes: %w", err)
	} else if cb != nil {
		if t.MarkAttachClassDef, err = parseClassDef(cb); err != nil {
			return nil, fmt.Errorf("GDEF mark attachment classes: %w", err)
		}
	}
	if t.Minor >= 2 {
		sb, err := b.offset16(12)
		if err != nil {
			return nil, fmt.Errorf("GDEF mark glyph sets: %w", err)
		}
		if sb != nil {
			if t.MarkGlyphSets, err = parseMarkGlyphSets(sb); err != nil {
				return nil, fmt.Errorf("GDEF mark glyph sets: %w", err)
			}
		}
	}
	tracer().Debugf("GDEF table has version %d.%d", t.Major, t.Minor)
	return t, nil
}

func parseMarkGlyphSets(b binarySegm) ([]*Coverage, error) {
	format, err1 := b.u16(0)
	n, err2 := b.u16(2)
	if err1 != nil || err2 != nil || format != 1 {
		return nil, fmt.Errorf("invalid mark glyph sets table")
	}
	sets := make([]*Coverage, n)
	for i := range sets {
		cb, err := b.offset32(4 + 4*i)
		if err != nil || cb == nil {
			return nil, fmt.Errorf("mark glyph set %d: offset out of bounds", i)
		}
		if sets[i], err = parseCoverage(cb); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

// parseLigCaretList reads caret positions (format 1, design units) of ligatures.
// Carets given as contour points (format 2) or device tables are read as their
// coordinate or skipped.
func parseLigCaretList(t *GDefTable, b binarySegm) error {
	lb, err := b.offset16(8)
	if err != nil || lb == nil {
		return err
	}
	cov, err := coverageAt(lb, 0)
	if err != nil {
		return err
	}
	n, err := lb.u16(2)
	if err != nil {
		return err
	}
	t.LigatureCarets = make(map[GlyphIndex][]int16)
	for inx, g := range cov.Glyphs() {
		if inx >= int(n) {
			continue
		}
		gb, err := lb.offset16(4 + 2*inx)
		if err != nil || gb == nil {
			return fmt.Errorf("ligature glyph offset out of bounds")
		}
		cnt, err := gb.u16(0)
		if err != nil {
			return err
		}
		carets := make([]int16, 0, cnt)
		for c := 0; c < int(cnt); c++ {
			cb, err := gb.offset16(2 + 2*c)
			if err != nil || cb == nil {
				return fmt.Errorf("caret offset out of bounds")
			}
			format, err := cb.u16(0)
			if err != nil {
				return err
			}
			if format == 1 || format == 3 {
				x, err := cb.i16(2)
				if err != nil {
					return err
				}
				carets = append(carets, x)
			}
		}
		t.LigatureCarets[g] = carets
	}
	return nil
}
