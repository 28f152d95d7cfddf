package ot

import (
	"fmt"
	"math/bits"
)

// ValueFormat is a bitmask that describes which fields are present in a ValueRecord.
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#value-record
type ValueFormat uint16

const (
	ValueFormatXPlacement ValueFormat = 0x0001 // Includes horizontal adjustment for placement
	ValueFormatYPlacement ValueFormat = 0x0002 // Includes vertical adjustment for placement
	ValueFormatXAdvance   ValueFormat = 0x0004 // Includes horizontal adjustment for advance
	ValueFormatYAdvance   ValueFormat = 0x0008 // Includes vertical adjustment for advance
	ValueFormatXPlaDevice ValueFormat = 0x0010 // Includes Device table for horizontal placement
	ValueFormatYPlaDevice ValueFormat = 0x0020 // Includes Device table for vertical placement
	ValueFormatXAdvDevice ValueFormat = 0x0040 // Includes Device table for horizontal advance
	ValueFormatYAdvDevice ValueFormat = 0x0080 // Includes Device table for vertical advance
)

// size returns the byte size of a value record in this format.
func (f ValueFormat) size() int {
	return 2 * bits.OnesCount16(uint16(f&0xff))
}

// ValueRecord represents a positioning adjustment for a glyph, in design units.
// Device table adjustments are not applied.
type ValueRecord struct {
	XPlacement int16
	YPlacement int16
	XAdvance   int16
	YAdvance   int16
}

// IsZero is true if the record does not adjust anything.
func (v ValueRecord) IsZero() bool {
	return v == ValueRecord{}
}

func readValueRecord(b binarySegm, at int, f ValueFormat) (ValueRecord, error) {
	var v ValueRecord
	buf, err := b.view(at, f.size())
	if err != nil {
		return v, err
	}
	i := 0
	next := func() int16 {
		x := i16(buf[i:])
		i += 2
		return x
	}
	if f&ValueFormatXPlacement != 0 {
		v.XPlacement = next()
	}
	if f&ValueFormatYPlacement != 0 {
		v.YPlacement = next()
	}
	if f&ValueFormatXAdvance != 0 {
		v.XAdvance = next()
	}
	if f&ValueFormatYAdvance != 0 {
		v.YAdvance = next()
	}
	return v, nil
}

// Anchor represents an attachment point on a glyph.
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#anchor-tables
type Anchor struct {
	Format      uint16
	X, Y        int16
	AnchorPoint int // contour point index (format 2), -1 otherwise
}

func anchorAt(b binarySegm, i int) (*Anchor, error) {
	ab, err := b.offset16(i)
	if err != nil || ab == nil {
		return nil, err // NULL anchors are legal
	}
	format, err := ab.u16(0)
	if err != nil {
		return nil, err
	}
	if format < 1 || format > 3 {
		return nil, fmt.Errorf("unknown anchor format %d", format)
	}
	buf, err := ab.view(2, 4)
	if err != nil {
		return nil, err
	}
	a := &Anchor{Format: format, X: i16(buf), Y: i16(buf[2:]), AnchorPoint: -1}
	if format == 2 {
		if p, err := ab.u16(6); err == nil {
			a.AnchorPoint = int(p)
		}
	}
	return a, nil
}

// PairValueRecord represents a kerning pair with positioning adjustments.
// Used in GPOS Lookup Type 2 (Pair Adjustment).
type PairValueRecord struct {
	SecondGlyph GlyphIndex
	Value1      ValueRecord // positioning for first glyph
	Value2      ValueRecord // positioning for second glyph
}

// MarkRecord associates a mark glyph with a class and anchor point.
// Used in GPOS Lookup Types 4, 5, and 6 (Mark attachment).
type MarkRecord struct {
	Class  int
	Anchor *Anchor
}

// EntryExit holds the cursive attachment anchors of a glyph; either may be nil.
type EntryExit struct {
	Entry, Exit *Anchor
}

// GPosLookupPayload holds the data of a GPOS lookup subtable of type 1–6.
// Which fields are set depends on lookup type and format.
type GPosLookupPayload struct {
	ValueFormat1, ValueFormat2 ValueFormat
	SingleValue                ValueRecord         // 1/1
	SingleValues               []ValueRecord       // 1/2, by coverage index
	PairSets                   [][]PairValueRecord // 2/1, by coverage index, sorted by second glyph
	ClassDef1, ClassDef2       *ClassDefinitions   // 2/2
	Class1Count, Class2Count   int
	ClassValues                [][2]ValueRecord // 2/2, index class1*Class2Count+class2
	EntryExits                 []EntryExit      // 3, by coverage index
	// Mark attachment (4, 5, 6): Coverage of the node is the mark coverage
	// (mark1 for type 6).
	BaseCoverage    *Coverage     // base, ligature or mark2 coverage
	MarkClassCount  int           //
	Marks           []MarkRecord  // by mark coverage index
	BaseAnchors     [][]*Anchor   // 4 and 6: [base index][mark class]
	LigatureAnchors [][][]*Anchor // 5: [ligature index][component][mark class]
}

// PairValue returns the pair adjustment for a glyph pair from a format 1 pair set.
func (p *GPosLookupPayload) PairValue(inx int, second GlyphIndex) (PairValueRecord, bool) {
	if p == nil || inx < 0 || inx >= len(p.PairSets) {
		return PairValueRecord{}, false
	}
	set := p.PairSets[inx]
	lo, hi := 0, len(set)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case set[mid].SecondGlyph == second:
			return set[mid], true
		case set[mid].SecondGlyph < second:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return PairValueRecord{}, false
}

func parseGPosNode(node *LookupNode, b binarySegm) error {
	p := &GPosLookupPayload{}
	node.GPos = p
	var err error
	if node.Coverage, err = coverageAt(b, 2); err != nil {
		return fmt.Errorf("GPOS %s: %w", node.LookupType.GPosString(), err)
	}
	switch node.LookupType {
	case GPosLookupTypeSingle:
		f, err := b.u16(4)
		if err != nil {
			return err
		}
		p.ValueFormat1 = ValueFormat(f)
		switch node.Format {
		case 1:
			p.SingleValue, err = readValueRecord(b, 6, p.ValueFormat1)
			return err
		case 2:
			n, err := b.u16(6)
			if err != nil {
				return err
			}
			p.SingleValues = make([]ValueRecord, n)
			for i := range p.SingleValues {
				if p.SingleValues[i], err = readValueRecord(b, 8+i*p.ValueFormat1.size(), p.ValueFormat1); err != nil {
					return err
				}
			}
			return nil
		}
	case GPosLookupTypePair:
		return parsePairPos(node, p, b)
	case GPosLookupTypeCursive:
		if node.Format != 1 {
			break
		}
		n, err := b.u16(4)
		if err != nil {
			return err
		}
		p.EntryExits = make([]EntryExit, n)
		for i := range p.EntryExits {
			if p.EntryExits[i].Entry, err = anchorAt(b, 6+4*i); err != nil {
				return err
			}
			if p.EntryExits[i].Exit, err = anchorAt(b, 8+4*i); err != nil {
				return err
			}
		}
		return nil
	case GPosLookupTypeMarkToBase, GPosLookupTypeMarkToLigature, GPosLookupTypeMarkToMark:
		if node.Format != 1 {
			break
		}
		return parseMarkAttachment(node, p, b)
	}
	return fmt.Errorf("GPOS %s: unsupported format %d", node.LookupType.GPosString(), node.Format)
}

func parsePairPos(node *LookupNode, p *GPosLookupPayload, b binarySegm) error {
	f1, err1 := b.u16(4)
	f2, err2 := b.u16(6)
	if err1 != nil || err2 != nil {
		return ErrUnexpectedEnd
	}
	p.ValueFormat1, p.ValueFormat2 = ValueFormat(f1), ValueFormat(f2)
	s1, s2 := p.ValueFormat1.size(), p.ValueFormat2.size()
	switch node.Format {
	case 1:
		n, err := b.u16(8)
		if err != nil {
			return err
		}
		p.PairSets = make([][]PairValueRecord, n)
		for i := range p.PairSets {
			sb, err := b.offset16(10 + 2*i)
			if err != nil || sb == nil {
				return fmt.Errorf("GPOS pair set offset out of bounds")
			}
			cnt, err := sb.u16(0)
			if err != nil {
				return err
			}
			recSize := 2 + s1 + s2
			if _, err := sb.view(2, int(cnt)*recSize); err != nil {
				return fmt.Errorf("GPOS pair set truncated")
			}
			set := make([]PairValueRecord, cnt)
			for j := range set {
				at := 2 + j*recSize
				set[j].SecondGlyph = GlyphIndex(u16(sb[at:]))
				set[j].Value1, _ = readValueRecord(sb, at+2, p.ValueFormat1)
				set[j].Value2, _ = readValueRecord(sb, at+2+s1, p.ValueFormat2)
			}
			p.PairSets[i] = set
		}
		return nil
	case 2:
		var err error
		if p.ClassDef1, err = classDefAt(b, 8); err != nil {
			return err
		}
		if p.ClassDef2, err = classDefAt(b, 10); err != nil {
			return err
		}
		c1, err1 := b.u16(12)
		c2, err2 := b.u16(14)
		if err1 != nil || err2 != nil {
			return ErrUnexpectedEnd
		}
		p.Class1Count, p.Class2Count = int(c1), int(c2)
		total, err := checkedMulInt(p.Class1Count, p.Class2Count)
		if err != nil {
			return err
		}
		size, err := checkedMulInt(total, s1+s2)
		if err != nil {
			return err
		}
		if _, err := b.view(16, size); err != nil {
			return fmt.Errorf("GPOS pair class records truncated")
		}
		p.ClassValues = make([][2]ValueRecord, total)
		for i := range p.ClassValues {
			at := 16 + i*(s1+s2)
			p.ClassValues[i][0], _ = readValueRecord(b, at, p.ValueFormat1)
			p.ClassValues[i][1], _ = readValueRecord(b, at+s1, p.ValueFormat2)
		}
		return nil
	}
	return fmt.Errorf("GPOS Pair: unsupported format %d", node.Format)
}

// parseMarkAttachment reads MarkBasePos, MarkLigPos and MarkMarkPos subtables,
// which share their layout up to the base/ligature/mark2 array.
func parseMarkAttachment(node *LookupNode, p *GPosLookupPayload, b binarySegm) error {
	var err error
	if p.BaseCoverage, err = coverageAt(b, 4); err != nil {
		return err
	}
	cc, err := b.u16(6)
	if err != nil {
		return err
	}
	p.MarkClassCount = int(cc)
	markArray, err := b.offset16(8)
	if err != nil || markArray == nil {
		return fmt.Errorf("GPOS mark array offset out of bounds")
	}
	n, err := markArray.u16(0)
	if err != nil {
		return err
	}
	p.Marks = make([]MarkRecord, n)
	for i := range p.Marks {
		class, err := markArray.u16(2 + 4*i)
		if err != nil {
			return err
		}
		if int(class) >= p.MarkClassCount {
			return fmt.Errorf("GPOS mark class %d out of range", class)
		}
		p.Marks[i].Class = int(class)
		if p.Marks[i].Anchor, err = anchorAt(markArray, 4+4*i); err != nil {
			return err
		}
	}
	array, err := b.offset16(10)
	if err != nil || array == nil {
		return fmt.Errorf("GPOS base array offset out of bounds")
	}
	cnt, err := array.u16(0)
	if err != nil {
		return err
	}
	if node.LookupType != GPosLookupTypeMarkToLigature {
		p.BaseAnchors, err = anchorMatrix(array, 2, int(cnt), p.MarkClassCount)
		return err
	}
	p.LigatureAnchors = make([][][]*Anchor, cnt)
	for i := range p.LigatureAnchors {
		attach, err := array.offset16(2 + 2*i)
		if err != nil || attach == nil {
			return fmt.Errorf("GPOS ligature attach offset out of bounds")
		}
		comps, err := attach.u16(0)
		if err != nil {
			return err
		}
		if p.LigatureAnchors[i], err = anchorMatrix(attach, 2, int(comps), p.MarkClassCount); err != nil {
			return err
		}
	}
	return nil
}

// anchorMatrix reads rows×cols anchor offsets starting at position at, all
// relative to b.
func anchorMatrix(b binarySegm, at, rows, cols int) ([][]*Anchor, error) {
	size, err := checkedMulInt(rows, cols*2)
	if err != nil {
		return nil, err
	}
	if _, err := b.view(at, size); err != nil {
		return nil, fmt.Errorf("GPOS anchor records truncated")
	}
	m := make([][]*Anchor, rows)
	for r := range m {
		m[r] = make([]*Anchor, cols)
		for c := range m[r] {
			if m[r][c], err = anchorAt(b, at+2*(r*cols+c)); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}
