package ot

import (
	"fmt"
	"sort"
)

// KernTable holds horizontal kerning pairs from format 0 kern subtables.
// It is used as a fallback for fonts without a GPOS 'kern' feature.
type KernTable struct {
	tableBase
	pairs []kernPair // sorted by key
}

type kernPair struct {
	key   uint32 // left<<16 | right
	value int16
}

// TrueType and OpenType slightly differ on formats of kern tables:
// see https://developer.apple.com/fonts/TrueType-Reference-Manual/RM06/Chap6kern.html
// and https://docs.microsoft.com/en-us/typography/opentype/spec/kern

// parseKern parses the kern table. There is significant confusion with this table
// concerning format differences between OpenType, TrueType, and fonts in the wild.
// We only support horizontal kern subtables of format 0, which should be supported on any
// platform. In the real world, fonts usually have just one kern sub-table, and
// older Windows versions cannot handle more than one.
func parseKern(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &KernTable{}
	t.init(t, tag, b, offset, size)
	if len(b) < 4 {
		return nil, fmt.Errorf("kern table too small")
	}
	var n, pos, subheaderlen int
	if version := u32(b); version == 0x00010000 {
		tracer().Debugf("font has Apple TTF kern table format")
		n, pos, subheaderlen = int(u32(b[4:])), 8, 8
	} else {
		tracer().Debugf("font has OTF (MS) kern table format")
		n, pos, subheaderlen = int(u16(b[2:])), 4, 6
	}
	if n > MaxSubtableCount {
		return nil, fmt.Errorf("kern: too many sub-tables: %d", n)
	}
	for i := 0; i < n; i++ {
		hdr, err := b.view(pos, subheaderlen)
		if err != nil {
			ec.addError(tag, "Subtable", fmt.Sprintf("sub-table %d header exceeds table size", i), SeverityMinor, offset+uint32(pos))
			break
		}
		var length int
		var format uint8
		var horizontal, crossStream bool
		if subheaderlen == 8 { // Apple: u32 length, u16 coverage, u16 tupleIndex
			length = int(u32(hdr))
			cov := u16(hdr[4:])
			format, horizontal, crossStream = uint8(cov), cov&0x8000 == 0, cov&0x4000 != 0
		} else { // MS: u16 version, u16 length, u16 coverage
			length = int(u16(hdr[2:]))
			cov := u16(hdr[4:])
			format, horizontal, crossStream = uint8(cov>>8), cov&1 != 0, cov&4 != 0
		}
		body := pos + subheaderlen
		if format == 0 && horizontal && !crossStream {
			cnt, err := b.u16(body)
			if err != nil {
				ec.addError(tag, "Subtable", "format 0 header truncated", SeverityMinor, offset+uint32(body))
				break
			}
			// For some fonts, the length of kern sub-tables is off; see
			// https://github.com/fonttools/fonttools/issues/314#issuecomment-118116527.
			// We trust the pair count and truncate to the table size.
			if want := subheaderlen + 8 + int(cnt)*6; want != length {
				ec.addWarning(tag, fmt.Sprintf("kern sub-table size mismatch: expected %d, got %d", want, length),
					offset+uint32(pos))
				length = want
			}
			buf := NewReader(b[min(body+8, len(b)):]).BytesTruncated(int(cnt) * 6)
			for j := 0; j+6 <= len(buf); j += 6 {
				t.pairs = append(t.pairs, kernPair{key: u32(buf[j:]), value: i16(buf[j+4:])})
			}
		} else {
			tracer().Infof("kern sub-table format %d not supported, ignoring sub-table", format)
		}
		if length <= 0 {
			break
		}
		pos += length
	}
	sort.SliceStable(t.pairs, func(i, j int) bool { return t.pairs[i].key < t.pairs[j].key })
	tracer().Debugf("table kern has %d pairs", len(t.pairs))
	return t, nil
}

// Kerning returns the kerning value for a pair of glyphs, in font units.
func (t *KernTable) Kerning(left, right GlyphIndex) int16 {
	if t == nil {
		return 0
	}
	key := uint32(left)<<16 | uint32(right)
	i := sort.Search(len(t.pairs), func(i int) bool { return t.pairs[i].key >= key })
	if i < len(t.pairs) && t.pairs[i].key == key {
		return t.pairs[i].value
	}
	return 0
}

// Len returns the number of kerning pairs.
func (t *KernTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pairs)
}
