package otquery

import (
	"iter"

	"github.com/npillmayer/opentext/ot"
	"golang.org/x/image/font/sfnt"
)

// PlatformID is the platform of a name record.
type PlatformID uint16

// Platforms of name records.
const (
	PlatformIDUnicode   PlatformID = 0
	PlatformIDMacintosh PlatformID = 1
	PlatformIDWindows   PlatformID = 3
)

// NamesRange yields decoded `(nameID, value)` pairs from a font's OpenType
// `name` table, in table order. Records which could not be decoded, and records
// for languages other than English, are skipped.
func NamesRange(otf *ot.Font) iter.Seq2[sfnt.NameID, string] {
	return func(yield func(sfnt.NameID, string) bool) {
		if otf == nil || otf.Name == nil {
			tracer().Debugf("no name table found in font")
			return
		}
		for _, rec := range otf.Name.Records {
			if rec.Value == "" || !isEnglish(rec) {
				continue
			}
			if !yield(sfnt.NameID(rec.NameID), rec.Value) {
				return
			}
		}
	}
}

func isEnglish(rec ot.NameRecord) bool {
	switch PlatformID(rec.PlatformID) {
	case PlatformIDUnicode:
		return true
	case PlatformIDMacintosh:
		return rec.LanguageID == 0
	case PlatformIDWindows:
		return rec.LanguageID&0xff == 0x09 // any English sub-language
	}
	return false
}

var nameKeys = []struct {
	key string
	id  ot.NameID
}{
	{"copyright", ot.NameCopyright},
	{"family", ot.NameFontFamily},
	{"subfamily", ot.NameFontSubfamily},
	{"id", ot.NameUniqueID},
	{"fullname", ot.NameFull},
	{"version", ot.NameVersion},
	{"postscript", ot.NamePostScript},
	{"typographic-family", ot.NameTypographicFamily},
	{"typographic-subfamily", ot.NameTypographicSubfam},
}

// NameInfo returns the well-known names of a font as a map with keys
// "family", "subfamily", "fullname", "version", "postscript", "copyright",
// "id", "typographic-family" and "typographic-subfamily". Names absent from
// the font are missing from the map.
//
// lang selects a language by its OpenType language tag. Currently only
// English names are supported; lang is accepted for DFLT and ENG and otherwise
// falls back to English with a trace message.
func NameInfo(otf *ot.Font, lang ot.Tag) map[string]string {
	info := make(map[string]string)
	if otf == nil || otf.Name == nil {
		return info
	}
	if lang != ot.DFLT && lang != ot.T("ENG") && lang != 0 {
		tracer().Infof("names for language %s not supported, using English", lang)
	}
	for _, k := range nameKeys {
		if v := otf.Name.Name(k.id); v != "" {
			info[k.key] = v
		}
	}
	return info
}

// FontType returns a description of the outline format of a font: "TrueType",
// "CFF" or "CFF2".
func FontType(otf *ot.Font) string {
	if otf == nil {
		return ""
	}
	switch {
	case otf.Glyf != nil:
		return "TrueType"
	case otf.CFF != nil && otf.CFF.Version == 2:
		return "CFF2"
	case otf.CFF != nil:
		return "CFF"
	}
	return "unknown"
}

// LayoutTables returns the names of the advanced layout tables present in a font,
// in the order GDEF, GSUB, GPOS, kern.
func LayoutTables(otf *ot.Font) []string {
	var tables []string
	if otf == nil {
		return tables
	}
	if otf.Layout.GDef != nil {
		tables = append(tables, "GDEF")
	}
	if otf.Layout.GSub != nil {
		tables = append(tables, "GSUB")
	}
	if otf.Layout.GPos != nil {
		tables = append(tables, "GPOS")
	}
	if otf.Kern != nil {
		tables = append(tables, "kern")
	}
	return tables
}
