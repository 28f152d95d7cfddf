package ot

import "fmt"

// IsCollection returns true if data starts with a TrueType Collection header.
func IsCollection(data []byte) bool {
	return len(data) >= 4 && u32(data) == ttcTag
}

// collectionOffsets reads the offsets of the member fonts from a 'ttcf' header.
// Versions 1.0 and 2.0 share the offset table; the DSIG fields of version 2 are ignored.
func collectionOffsets(data []byte) ([]uint32, error) {
	r := NewReader(data)
	tag, err := r.U32()
	if err != nil || tag != ttcTag {
		return nil, errFontFormat("not a font collection")
	}
	major, err := r.U16()
	if err != nil {
		return nil, errFontFormat("collection header truncated")
	}
	if major != 1 && major != 2 {
		return nil, errFontFormat(fmt.Sprintf("unsupported collection version %d", major))
	}
	if err = r.Skip(2); err != nil {
		return nil, errFontFormat("collection header truncated")
	}
	n, err := r.U32()
	if err != nil {
		return nil, errFontFormat("collection header truncated")
	}
	if n == 0 || n > MaxFontsInTTC {
		return nil, errFontFormat(fmt.Sprintf("collection font count out of range: %d", n))
	}
	offsets := make([]uint32, n)
	for i := range offsets {
		if offsets[i], err = r.U32(); err != nil {
			return nil, errFontFormat("collection offset table truncated")
		}
		if offsets[i] >= uint32(len(data)) {
			return nil, errFontFormat(fmt.Sprintf("collection member %d beyond end of data", i))
		}
	}
	return offsets, nil
}

// CollectionSize returns the number of fonts contained in data.
// For plain sfnt data it returns 1.
func CollectionSize(data []byte) (int, error) {
	if !IsCollection(data) {
		return 1, nil
	}
	offsets, err := collectionOffsets(data)
	if err != nil {
		return 0, err
	}
	return len(offsets), nil
}

// ParseAt parses member i of a font collection. For plain sfnt data,
// only i = 0 is valid.
func ParseAt(data []byte, i int, opts ...LoadOption) (*Font, error) {
	if !IsCollection(data) {
		if i != 0 {
			return nil, fmt.Errorf("font index %d: not a collection", i)
		}
		return parseAt(data, 0, opts)
	}
	offsets, err := collectionOffsets(data)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(offsets) {
		return nil, fmt.Errorf("font index %d out of range [0…%d]", i, len(offsets)-1)
	}
	return parseAt(data, int(offsets[i]), opts)
}

// ParseCollection parses all fonts of a font collection. If data is a plain sfnt,
// a single font is returned. If any member fails to parse, no fonts are returned.
func ParseCollection(data []byte, opts ...LoadOption) ([]*Font, error) {
	if !IsCollection(data) {
		otf, err := parseAt(data, 0, opts)
		if err != nil {
			return nil, err
		}
		return []*Font{otf}, nil
	}
	offsets, err := collectionOffsets(data)
	if err != nil {
		return nil, err
	}
	fonts := make([]*Font, len(offsets))
	for i, off := range offsets {
		if fonts[i], err = parseAt(data, int(off), opts); err != nil {
			return nil, fmt.Errorf("collection member %d: %w", i, err)
		}
	}
	return fonts, nil
}
