package otuse

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// Character categories of the cluster grammar.
const (
	catO    uint8 = iota // other
	catB                 // base
	catN                 // number base
	catGB                // generic base
	catCGJ               // joiners, invisible to the grammar
	catSUB               // subjoined consonant
	catH                 // halant
	catHN                // number joiner
	catZWNJ
	catWJ                // word joiner
	catR                 // repha
	catCS                // consonant with stacker
	catIS                // invisible stacker
	catSk                // sakot
	catHVM               // halant or vowel modifier
	catSMAbv
	catSMBlw
	catVPre
	catVAbv
	catVBlw
	catVPst
	catVMPre
	catVMAbv
	catVMBlw
	catVMPst
	catMPre
	catMAbv
	catMBlw
	catMPst
	catFAbv
	catFBlw
	catFPst
	catFMAbv
	catFMBlw
	catFMPst
	catCMAbv
	catCMBlw
)

// Characters whose category cannot be derived from their names.
var exceptions = map[rune]uint8{
	0x0DCA: catH,    // Sinhala al-lakuna
	0x0DD9: catVPre, // Sinhala kombuva
	0x0DDA: catVPre, // Sinhala kombuva with al-lakuna
	0x0DDB: catVPre, // Sinhala kombuva haa
	0x1031: catVPre, // Myanmar e
	0x1039: catIS,   // Myanmar virama
	0x103C: catMPre, // Myanmar medial ra
	0x17C1: catVPre, // Khmer e
	0x17C2: catVPre, // Khmer ae
	0x17C3: catVPre, // Khmer ai
	0x17CC: catR,    // Khmer robat
	0x17D2: catIS,   // Khmer coeng
	0x1A19: catVPre, // Buginese e
	0x1A55: catMPre, // Tai Tham medial ra
	0x1A60: catSk,   // Tai Tham sakot
	0x1A6E: catVPre, // Tai Tham e
	0x1B3E: catVPre, // Balinese taling
	0x1B3F: catVPre, // Balinese taling repa
	0x1BA6: catVPre, // Sundanese panaelaeng
	0x1BAB: catIS,   // Sundanese virama
	0xA9BA: catVPre, // Javanese taling
	0xA9BB: catVPre, // Javanese dirga mure
	0xAA2F: catVPre, // Cham o
	0xAA30: catVPre, // Cham ai
	0xAA34: catMPre, // Cham medial ra
}

// category classifies a code-point.
func category(r rune) uint8 {
	if c, ok := exceptions[r]; ok {
		return c
	}
	switch r {
	case 0x200C:
		return catZWNJ
	case 0x200D, 0x034F:
		return catCGJ
	case 0x2060:
		return catWJ
	case 0x25CC, 0x00A0, 0x00D7, 0x2022, 0x2010, 0x2011, 0x2012, 0x2013, 0x2014, 0x2015:
		return catGB
	}
	if unicode.Is(unicode.Variation_Selector, r) {
		return catCGJ
	}
	name := runenames.Name(r)
	switch {
	case unicode.IsLetter(r):
		if containsAny(name, "REPHA") {
			return catR
		}
		return catB
	case unicode.Is(unicode.Nd, r):
		return catB
	case !unicode.Is(unicode.M, r):
		return catO
	}
	spacing := unicode.Is(unicode.Mc, r)
	ccc := norm.NFD.PropertiesString(string(r)).CCC()
	switch {
	case containsAny(name, "VIRAMA", "PANGKON", "ADEG ADEG", "PAMAAEH", "KILLER", "ASAT", "HALANTA"):
		return catH
	case ccc == 7 || containsAny(name, "NUKTA"):
		return catCMBlw
	case containsAny(name, "REPHA", "ROBAT"):
		return catR
	case containsAny(name, "CONSONANT SIGN", "MEDIAL"):
		if spacing {
			return catMPst
		} else if containsAny(name, "ABOVE") {
			return catMAbv
		}
		return catMBlw
	case containsAny(name, "VOWEL SIGN"):
		if spacing {
			return catVPst
		} else if isBelow(name, ccc) {
			return catVBlw
		}
		return catVAbv
	case spacing:
		return catVMPst
	case isBelow(name, ccc):
		return catVMBlw
	}
	return catVMAbv
}

func containsAny(name string, parts ...string) bool {
	for _, p := range parts {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// isBelow guesses if a non-spacing mark is placed below the base.
func isBelow(name string, ccc uint8) bool {
	if ccc == 220 || strings.HasSuffix(name, " U") || strings.HasSuffix(name, " UU") {
		return true
	}
	return containsAny(name, "BELOW", "SUKU", "VOCALIC R", "VOCALIC L", "PAA-PILLA")
}

// isHalant checks for categories which end a cluster or join consonants.
func isHalant(cat uint8) bool {
	return cat == catH || cat == catHVM || cat == catIS
}

// isPostBase checks for categories of marks which follow the base in visual
// order, except for halants.
func isPostBase(cat uint8) bool {
	switch cat {
	case catFAbv, catFBlw, catFPst, catFMAbv, catFMBlw, catFMPst,
		catMAbv, catMBlw, catMPst, catMPre,
		catVAbv, catVBlw, catVPst, catVPre,
		catVMAbv, catVMBlw, catVMPst, catVMPre:
		return true
	}
	return false
}
