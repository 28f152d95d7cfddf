package otindic

import (
	"unicode"

	"golang.org/x/text/language"
)

// Character categories of the syllable machine.
const (
	catX uint8 = iota
	catC
	catV
	catN // nukta
	catH // halant
	catZWNJ
	catZWJ
	catM // matra
	catSM
	catA // vedic accent
	catPlaceholder
	catDottedCircle
	catRS
	catMPst
	catRepha
	catRa
	catCM
	catSymbol
	catCS
	catSMPst
)

// Positions of characters within a syllable. Initial reordering sorts
// syllables by position.
const (
	posStart uint8 = iota
	posRaToBecomeReph
	posPreM
	posPreC
	posBaseC
	posAfterMain
	posAboveC
	posBeforeSub
	posBelowC
	posAfterSub
	posBeforePost
	posPostC
	posAfterPost
	posSMVD
	posEnd
)

// Sides of matras, as of the Indic positional category.
const (
	sideRight = iota
	sideLeft
	sideTop
	sideBottom
)

func isConsonant(cat uint8) bool {
	switch cat {
	case catC, catCS, catRa, catCM, catV, catPlaceholder, catDottedCircle:
		return true
	}
	return false
}

func isJoiner(cat uint8) bool {
	return cat == catZWJ || cat == catZWNJ
}

type blockScript struct {
	base   rune
	script language.Script
	left   []rune // offsets of matras placed left of the base
	top    []rune
	bottom []rune
}

var (
	scriptDeva = language.MustParseScript("Deva")
	scriptBeng = language.MustParseScript("Beng")
	scriptGuru = language.MustParseScript("Guru")
	scriptGujr = language.MustParseScript("Gujr")
	scriptOrya = language.MustParseScript("Orya")
	scriptTaml = language.MustParseScript("Taml")
	scriptTelu = language.MustParseScript("Telu")
	scriptKnda = language.MustParseScript("Knda")
	scriptMlym = language.MustParseScript("Mlym")
)

// The nine main Indic scripts share the block layout of ISCII.
var blocks = []blockScript{
	{base: 0x0900, script: scriptDeva,
		left:   []rune{0x3F, 0x4E},
		top:    []rune{0x3A, 0x45, 0x46, 0x47, 0x48, 0x55},
		bottom: []rune{0x41, 0x42, 0x43, 0x44, 0x56, 0x57, 0x62, 0x63}},
	{base: 0x0980, script: scriptBeng,
		left:   []rune{0x3F, 0x47, 0x48},
		bottom: []rune{0x41, 0x42, 0x43, 0x44, 0x62, 0x63}},
	{base: 0x0A00, script: scriptGuru,
		left:   []rune{0x3F},
		top:    []rune{0x47, 0x48, 0x4B, 0x4C},
		bottom: []rune{0x41, 0x42}},
	{base: 0x0A80, script: scriptGujr,
		left:   []rune{0x3F},
		top:    []rune{0x45, 0x47, 0x48},
		bottom: []rune{0x41, 0x42, 0x43, 0x44, 0x62, 0x63}},
	{base: 0x0B00, script: scriptOrya,
		left:   []rune{0x47},
		top:    []rune{0x3F, 0x56},
		bottom: []rune{0x41, 0x42, 0x43, 0x44, 0x62, 0x63}},
	{base: 0x0B80, script: scriptTaml,
		left: []rune{0x46, 0x47, 0x48},
		top:  []rune{0x40}},
	{base: 0x0C00, script: scriptTelu,
		top:    []rune{0x3E, 0x3F, 0x40, 0x46, 0x47, 0x48, 0x4A, 0x4B, 0x4C, 0x55},
		bottom: []rune{0x56, 0x62, 0x63}},
	{base: 0x0C80, script: scriptKnda,
		top:    []rune{0x3F, 0x46, 0x4C},
		bottom: []rune{0x62, 0x63}},
	{base: 0x0D00, script: scriptMlym,
		left:   []rune{0x46, 0x47, 0x48},
		bottom: []rune{0x43, 0x44, 0x62, 0x63}},
}

func blockFor(r rune) *blockScript {
	if r < 0x0900 || r > 0x0D7F {
		return nil
	}
	return &blocks[(r-0x0900)>>7]
}

func (b *blockScript) side(r rune) int {
	off := r - b.base
	for _, x := range b.left {
		if x == off {
			return sideLeft
		}
	}
	for _, x := range b.top {
		if x == off {
			return sideTop
		}
	}
	for _, x := range b.bottom {
		if x == off {
			return sideBottom
		}
	}
	return sideRight
}

// category returns the category and initial position of a code-point.
func category(r rune) (cat, pos uint8) {
	switch r {
	case 0x200C:
		return catZWNJ, posEnd
	case 0x200D:
		return catZWJ, posEnd
	case 0x25CC:
		return catDottedCircle, posEnd
	case 0x00A0, 0x00D7, 0x2010, 0x2011, 0x2012, 0x2013, 0x2014, 0x2015, 0x2022,
		0x25FB, 0x25FC, 0x25FD, 0x25FE:
		return catPlaceholder, posEnd
	case 0x0D4E: // Malayalam dot reph
		return catRepha, posEnd
	case 0x0CF1, 0x0CF2: // Kannada jihvamuliya, upadhmaniya
		return catCS, posEnd
	case 0x09F0: // Assamese ra
		return catRa, posBaseC
	case 0x0A71: // Gurmukhi addak
		return catSM, posSMVD
	}
	if r >= 0x1CD0 && r <= 0x1CFF || r >= 0x0951 && r <= 0x0954 {
		if unicode.Is(unicode.M, r) {
			return catA, posSMVD
		}
		return catSymbol, posEnd
	}
	b := blockFor(r)
	if b == nil {
		return catX, posEnd
	}
	off := r - b.base
	isMark := unicode.Is(unicode.M, r)
	switch {
	case off <= 0x03 && isMark:
		return catSM, posSMVD
	case off == 0x3C && isMark:
		return catN, posEnd
	case off == 0x3D:
		return catSymbol, posEnd
	case off == 0x4D && isMark:
		return catH, posEnd
	case off >= 0x66 && off <= 0x6F:
		return catPlaceholder, posEnd
	case isMark && off >= 0x70:
		return catSM, posSMVD
	case isMark:
		return catM, matraPosition(b, r)
	case !unicode.IsLetter(r):
		return catX, posEnd
	case off >= 0x04 && off <= 0x14, off == 0x60, off == 0x61:
		return catV, posEnd
	case off == 0x30:
		return catRa, posBaseC
	}
	return catC, posBaseC
}

// matraPosition maps the side of a matra to its position in the syllable.
func matraPosition(b *blockScript, r rune) uint8 {
	s := b.script
	switch b.side(r) {
	case sideLeft:
		return posPreM
	case sideRight:
		switch s {
		case scriptDeva:
			return posAfterSub
		case scriptTelu:
			if r <= 0x0C42 {
				return posBeforeSub
			}
			return posAfterSub
		case scriptKnda:
			if r < 0x0CC3 || r > 0x0CD6 {
				return posBeforeSub
			}
			return posAfterSub
		}
		return posAfterPost
	case sideBottom:
		switch s {
		case scriptDeva, scriptBeng, scriptOrya:
			return posAfterSub
		case scriptTelu, scriptKnda:
			return posBeforeSub
		}
		return posAfterPost
	}
	switch s { // top
	case scriptGuru:
		return posAfterPost
	case scriptOrya:
		return posAfterMain
	case scriptTelu, scriptKnda:
		return posBeforeSub
	}
	return posAfterSub
}
