package ot

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// NameID identifies a name record, e.g. the font family name.
type NameID uint16

// Frequently used name IDs.
const (
	NameCopyright          NameID = 0
	NameFontFamily         NameID = 1
	NameFontSubfamily      NameID = 2
	NameUniqueID           NameID = 3
	NameFull               NameID = 4
	NameVersion            NameID = 5
	NamePostScript         NameID = 6
	NameTypographicFamily  NameID = 16
	NameTypographicSubfam  NameID = 17
	NameVariationsPSPrefix NameID = 25
)

// NameRecord is an entry of the name table, with its string decoded to UTF-8.
type NameRecord struct {
	PlatformID, EncodingID, LanguageID uint16
	NameID                             NameID
	Value                              string
}

// NameTable holds human-readable names for features and settings, copyright
// notices, font names, style names, and other information related to the font.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/name
type NameTable struct {
	tableBase
	Records []NameRecord
}

// Name returns the best string for a name ID. Windows English (US) records are
// preferred, then any Unicode or Windows record, then Macintosh Roman records.
func (t *NameTable) Name(id NameID) string {
	if t == nil {
		return ""
	}
	best, rank := "", 0
	for _, rec := range t.Records {
		if rec.NameID != id || rec.Value == "" {
			continue
		}
		r := 1
		switch {
		case rec.PlatformID == 3 && rec.LanguageID == 0x0409:
			r = 4
		case rec.PlatformID == 3 || rec.PlatformID == 0:
			r = 3
		case rec.PlatformID == 1 && rec.LanguageID == 0:
			r = 2
		}
		if r > rank {
			best, rank = rec.Value, r
		}
	}
	return best
}

func parseName(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 6 {
		return nil, fmt.Errorf("name table too small: %d bytes", len(b))
	}
	t := &NameTable{}
	t.init(t, tag, b, offset, size)
	count, storage := int(u16(b[2:])), int(u16(b[4:]))
	if count > 4*1024 {
		return nil, fmt.Errorf("name table has too many records: %d", count)
	}
	for i := 0; i < count; i++ {
		rec, err := b.view(6+12*i, 12)
		if err != nil {
			ec.addError(tag, "NameRecord", fmt.Sprintf("record %d exceeds table size", i), SeverityMinor, offset)
			break
		}
		nr := NameRecord{
			PlatformID: u16(rec),
			EncodingID: u16(rec[2:]),
			LanguageID: u16(rec[4:]),
			NameID:     NameID(u16(rec[6:])),
		}
		raw, err := b.view(storage+int(u16(rec[10:])), int(u16(rec[8:])))
		if err != nil {
			ec.addError(tag, "NameRecord", fmt.Sprintf("string of record %d out of bounds", i), SeverityMinor, offset)
			continue
		}
		if nr.Value, err = decodeName(nr.PlatformID, nr.EncodingID, raw); err != nil {
			tracer().Debugf("name record %d: %v", i, err)
			continue
		}
		t.Records = append(t.Records, nr)
	}
	return t, nil
}

func decodeName(platform, encoding uint16, raw []byte) (string, error) {
	switch {
	case platform == 0 || (platform == 3 && (encoding == 0 || encoding == 1 || encoding == 10)):
		s, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
		return string(s), err
	case platform == 1 && encoding == 0:
		s, err := charmap.Macintosh.NewDecoder().Bytes(raw)
		return string(s), err
	}
	return "", fmt.Errorf("unsupported name encoding %d/%d", platform, encoding)
}
