package ot

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"sort"
)

// SVGTable is an index of SVG documents for ranges of glyphs.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/svg
type SVGTable struct {
	tableBase
	docs []svgDocRecord // sorted by glyph range
}

type svgDocRecord struct {
	start, end GlyphIndex
	data       binarySegm
}

// maxSVGDocumentSize bounds decompressed SVG documents.
const maxSVGDocumentSize = 16 << 20

// Document returns the SVG document containing glyph g, or nil if there is none.
// Gzip-compressed documents are decompressed.
func (t *SVGTable) Document(g GlyphIndex) ([]byte, error) {
	if t == nil {
		return nil, nil
	}
	i := sort.Search(len(t.docs), func(i int) bool { return t.docs[i].end >= g })
	if i >= len(t.docs) || t.docs[i].start > g {
		return nil, nil
	}
	doc := t.docs[i].data
	if len(doc) < 2 || doc[0] != 0x1f || doc[1] != 0x8b {
		return doc, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("SVG document for glyph %d: %w", g, err)
	}
	defer zr.Close()
	plain, err := io.ReadAll(io.LimitReader(zr, maxSVGDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("SVG document for glyph %d: %w", g, err)
	}
	if len(plain) > maxSVGDocumentSize {
		return nil, fmt.Errorf("SVG document for glyph %d too large", g)
	}
	return plain, nil
}

// Len returns the number of SVG document records.
func (t *SVGTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.docs)
}

func parseSVG(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &SVGTable{}
	t.init(t, tag, b, offset, size)
	list, err := b.offset32(2)
	if err != nil || list == nil {
		return nil, fmt.Errorf("SVG document list missing: %w", ErrInvalidFont)
	}
	n, err := list.u16(0)
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		rec, err := list.view(2+12*i, 12)
		if err != nil {
			ec.addError(tag, "DocumentRecord", fmt.Sprintf("record %d exceeds table size", i), SeverityMinor, offset)
			break
		}
		doc, err := list.view(int(u32(rec[4:])), int(u32(rec[8:])))
		if err != nil {
			ec.addError(tag, "DocumentRecord", fmt.Sprintf("document %d out of bounds", i), SeverityMinor, offset)
			continue
		}
		start, end := GlyphIndex(u16(rec)), GlyphIndex(u16(rec[2:]))
		if end < start || (len(t.docs) > 0 && start <= t.docs[len(t.docs)-1].end) {
			ec.addError(tag, "DocumentRecord", fmt.Sprintf("record %d: glyph ranges unsorted", i), SeverityMinor, offset)
			continue
		}
		t.docs = append(t.docs, svgDocRecord{start: start, end: end, data: doc})
	}
	return t, nil
}
