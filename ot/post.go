package ot

import (
	"fmt"
	"strings"
)

// PostTable contains additional information needed to use TrueType or OpenType
// fonts on PostScript printers, including glyph names and underline metrics.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/post
type PostTable struct {
	tableBase
	Version            uint32
	ItalicAngle        Fixed
	UnderlinePosition  int16
	UnderlineThickness int16
	IsFixedPitch       bool
	names              []string // glyph names, if present
}

// GlyphName returns the PostScript name of a glyph, if the table carries glyph names.
func (t *PostTable) GlyphName(g GlyphIndex) string {
	if t == nil || int(g) >= len(t.names) {
		return ""
	}
	return t.names[g]
}

// HasGlyphNames is true if glyph names are available.
func (t *PostTable) HasGlyphNames() bool {
	return t != nil && len(t.names) > 0
}

func parsePost(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 32 {
		return nil, fmt.Errorf("post table too small: %d bytes", len(b))
	}
	t := &PostTable{}
	t.init(t, tag, b, offset, size)
	t.Version = u32(b)
	t.ItalicAngle = Fixed(u32(b[4:]))
	t.UnderlinePosition = i16(b[8:])
	t.UnderlineThickness = i16(b[10:])
	t.IsFixedPitch = u32(b[12:]) != 0
	return t, nil
}

// link decodes glyph names, as their number depends on maxp.
// Corrupt name data is reported and leaves the table without glyph names.
func (t *PostTable) link(numGlyphs int, ec *errorCollector) {
	switch t.Version {
	case 0x00010000:
		if numGlyphs <= len(macGlyphNames) {
			t.names = macGlyphNames[:numGlyphs]
		}
	case 0x00020000:
		names, err := parsePostNames(t.data[32:], numGlyphs)
		if err != nil {
			ec.addError(t.name, "GlyphNames", err.Error(), SeverityMinor, t.offset+32)
			return
		}
		t.names = names
	}
}

func parsePostNames(b binarySegm, numGlyphs int) ([]string, error) {
	r := NewReader(b)
	n, err := r.U16()
	if err != nil {
		return nil, err
	}
	if int(n) != numGlyphs {
		return nil, fmt.Errorf("post has %d glyph names, maxp states %d glyphs", n, numGlyphs)
	}
	indices := make([]uint16, n)
	for i := range indices {
		if indices[i], err = r.U16(); err != nil {
			return nil, err
		}
	}
	var custom []string
	for r.Len() > 0 {
		l, _ := r.U8()
		s, err := r.Bytes(int(l))
		if err != nil {
			return nil, fmt.Errorf("glyph name string truncated: %w", err)
		}
		custom = append(custom, string(s))
	}
	names := make([]string, n)
	for g, inx := range indices {
		switch {
		case int(inx) < len(macGlyphNames):
			names[g] = macGlyphNames[inx]
		case int(inx)-len(macGlyphNames) < len(custom):
			names[g] = custom[int(inx)-len(macGlyphNames)]
		default:
			return nil, fmt.Errorf("glyph %d: name index %d out of range", g, inx)
		}
	}
	return names, nil
}

// macGlyphNames is the standard Macintosh ordering of 258 glyph names.
var macGlyphNames = strings.Fields(`
.notdef .null nonmarkingreturn space exclam quotedbl numbersign dollar percent ampersand
quotesingle parenleft parenright asterisk plus comma hyphen period slash zero one two three four
five six seven eight nine colon semicolon less equal greater question at A B C D E F G H I J K L
M N O P Q R S T U V W X Y Z bracketleft backslash bracketright asciicircum underscore grave
a b c d e f g h i j k l m n o p q r s t u v w x y z braceleft bar braceright asciitilde
Adieresis Aring Ccedilla Eacute Ntilde Odieresis Udieresis aacute agrave acircumflex adieresis
atilde aring ccedilla eacute egrave ecircumflex edieresis iacute igrave icircumflex idieresis
ntilde oacute ograve ocircumflex odieresis otilde uacute ugrave ucircumflex udieresis dagger
degree cent sterling section bullet paragraph germandbls registered copyright trademark acute
dieresis notequal AE Oslash infinity plusminus lessequal greaterequal yen mu partialdiff
summation product pi integral ordfeminine ordmasculine Omega ae oslash questiondown exclamdown
logicalnot radical florin approxequal Delta guillemotleft guillemotright ellipsis
nonbreakingspace Agrave Atilde Otilde OE oe endash emdash quotedblleft quotedblright quoteleft
quoteright divide lozenge ydieresis Ydieresis fraction currency guilsinglleft guilsinglright fi
fl daggerdbl periodcentered quotesinglbase quotedblbase perthousand Acircumflex Ecircumflex
Aacute Edieresis Egrave Iacute Icircumflex Idieresis Igrave Oacute Ocircumflex apple Ograve
Uacute Ucircumflex Ugrave dotlessi circumflex tilde macron breve dotaccent ring cedilla
hungarumlaut ogonek caron Lslash lslash Scaron scaron Zcaron zcaron brokenbar Eth eth Yacute
yacute Thorn thorn minus multiply onesuperior twosuperior threesuperior onehalf onequarter
threequarters franc Gbreve gbreve Idotaccent Scedilla scedilla Cacute cacute Ccaron ccaron
dcroat
`)
