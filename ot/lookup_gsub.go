package ot

import "fmt"

// GSubLookupPayload holds the data of a GSUB lookup subtable of type 1–4 or 8.
// Which fields are set depends on lookup type and format.
type GSubLookupPayload struct {
	DeltaGlyphID       int16            // type 1 format 1
	Substitutes        []GlyphIndex     // type 1 format 2, type 8; indexed by coverage index
	Sequences          [][]GlyphIndex   // type 2
	Alternates         [][]GlyphIndex   // type 3
	LigatureSets       [][]LigatureRule // type 4
	BacktrackCoverages []*Coverage      // type 8, in logical order backwards from the input glyph
	LookaheadCoverages []*Coverage      // type 8
}

// LigatureRule is one ligature of a ligature set. Components lists the
// component glyphs following the first one, which is given by the coverage.
type LigatureRule struct {
	Components []GlyphIndex
	Ligature   GlyphIndex
}

func parseGSubNode(node *LookupNode, b binarySegm) error {
	p := &GSubLookupPayload{}
	node.GSub = p
	var err error
	if node.Coverage, err = coverageAt(b, 2); err != nil {
		return fmt.Errorf("GSUB %s: %w", node.LookupType.GSubString(), err)
	}
	switch node.LookupType {
	case GSubLookupTypeSingle:
		switch node.Format {
		case 1:
			d, err := b.i16(4)
			p.DeltaGlyphID = d
			return err
		case 2:
			n, err := b.u16(4)
			if err != nil {
				return err
			}
			p.Substitutes, err = b.glyphs(6, int(n))
			return err
		}
	case GSubLookupTypeMultiple, GSubLookupTypeAlternate:
		if node.Format != 1 {
			break
		}
		n, err := b.u16(4)
		if err != nil {
			return err
		}
		seqs := make([][]GlyphIndex, n)
		for i := range seqs {
			sb, err := b.offset16(6 + 2*i)
			if err != nil || sb == nil {
				return fmt.Errorf("GSUB %s: sequence offset out of bounds", node.LookupType.GSubString())
			}
			cnt, err := sb.u16(0)
			if err != nil {
				return err
			}
			if cnt > MaxSequenceLength {
				return fmt.Errorf("GSUB %s: sequence too long", node.LookupType.GSubString())
			}
			if seqs[i], err = sb.glyphs(2, int(cnt)); err != nil {
				return err
			}
		}
		if node.LookupType == GSubLookupTypeMultiple {
			p.Sequences = seqs
		} else {
			p.Alternates = seqs
		}
		return nil
	case GSubLookupTypeLigature:
		if node.Format != 1 {
			break
		}
		n, err := b.u16(4)
		if err != nil {
			return err
		}
		p.LigatureSets, err = ruleSetsAt(b, 6, int(n), parseLigatureRule)
		return err
	case GSubLookupTypeReverseChaining:
		if node.Format != 1 {
			break
		}
		r := NewReader(b)
		_ = r.Skip(4)
		readCoverages := func() ([]*Coverage, error) {
			n, err := r.U16()
			if err != nil {
				return nil, err
			}
			covs, err := coveragesAt(b, r.Pos(), int(n))
			if err != nil {
				return nil, err
			}
			return covs, r.Skip(2 * int(n))
		}
		if p.BacktrackCoverages, err = readCoverages(); err != nil {
			return err
		}
		if p.LookaheadCoverages, err = readCoverages(); err != nil {
			return err
		}
		n, err := r.U16()
		if err != nil {
			return err
		}
		p.Substitutes, err = b.glyphs(r.Pos(), int(n))
		return err
	}
	return fmt.Errorf("GSUB %s: unsupported format %d", node.LookupType.GSubString(), node.Format)
}

func parseLigatureRule(b binarySegm) (LigatureRule, error) {
	lig, err1 := b.u16(0)
	n, err2 := b.u16(2)
	if err1 != nil || err2 != nil || n == 0 || n > MaxSequenceLength {
		return LigatureRule{}, fmt.Errorf("invalid ligature table")
	}
	comps, err := b.glyphs(4, int(n)-1)
	return LigatureRule{Components: comps, Ligature: GlyphIndex(lig)}, err
}
