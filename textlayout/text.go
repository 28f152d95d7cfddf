package textlayout

import (
	"unicode"

	glang "github.com/go-text/typesetting/language"
	"github.com/rivo/uniseg"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// CodePoint is a character of the text together with its Unicode properties.
type CodePoint struct {
	Rune     rune
	Script   glang.Script // resolved: Common and Inherited take the script of their neighbours
	Category string       // general category, e.g. "Lu"
	Class    bidi.Class
	Grapheme int // index of the grapheme containing the code-point
}

// Grapheme is a user-perceived character, the code-points [Start, End).
type Grapheme struct {
	Start, End int
}

var categories = []string{"Lu", "Ll", "Lt", "Lm", "Lo", "Mn", "Mc", "Me", "Nd", "Nl", "No",
	"Pc", "Pd", "Ps", "Pe", "Pi", "Pf", "Po", "Sm", "Sc", "Sk", "So", "Zs", "Zl", "Zp",
	"Cc", "Cf", "Co", "Cs"}

func generalCategory(r rune) string {
	for _, c := range categories {
		if unicode.Is(unicode.Categories[c], r) {
			return c
		}
	}
	return "Cn"
}

// analyze returns the code-points and graphemes of text.
func analyze(text string) ([]CodePoint, []Grapheme) {
	cps := make([]CodePoint, 0, len(text))
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		cps = append(cps, CodePoint{
			Rune:     r,
			Script:   glang.LookupScript(r),
			Category: generalCategory(r),
			Class:    props.Class(),
		})
	}
	resolveScripts(cps)
	var graphemes []Grapheme
	gr := uniseg.NewGraphemes(text)
	pos := 0
	for gr.Next() {
		n := len(gr.Runes())
		for i := pos; i < pos+n; i++ {
			cps[i].Grapheme = len(graphemes)
		}
		graphemes = append(graphemes, Grapheme{Start: pos, End: pos + n})
		pos += n
	}
	return cps, graphemes
}

// resolveScripts replaces Inherited by the script of the preceding
// code-point and Common by the script of the preceding code-point, or the
// following one at the start of the text.
func resolveScripts(cps []CodePoint) {
	last := glang.Common
	for i := range cps {
		switch s := cps[i].Script; s {
		case glang.Inherited, glang.Common, glang.Unknown:
			cps[i].Script = last
		default:
			last = s
		}
	}
	next := glang.Common
	for i := len(cps) - 1; i >= 0; i-- {
		if cps[i].Script == glang.Common {
			cps[i].Script = next
		} else if cps[i].Script != glang.Inherited {
			next = cps[i].Script
		}
	}
}

// isoScript converts a script to the ISO 15924 identifier of x/text.
func isoScript(s glang.Script) language.Script {
	code := string([]byte{byte(s >> 24), byte(s >> 16), byte(s >> 8), byte(s)})
	if sc, err := language.ParseScript(code); err == nil {
		return sc
	}
	return zyyy
}

var zyyy = language.MustParseScript("Zyyy")

// isCJK checks for scripts which keep-all wrapping does not break.
func isCJK(s glang.Script) bool {
	switch s {
	case glang.Han, glang.Hiragana, glang.Katakana, glang.Hangul, glang.Bopomofo:
		return true
	}
	return false
}

// line controls
const (
	lineFeed       = '\n'
	carriageReturn = '\r'
	tab            = '\t'
)

// endsLine checks for characters ending a line.
func endsLine(r rune) bool {
	switch r {
	case lineFeed, '\v', '\f', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// isControl checks for characters handled by the layout instead of the
// shaper.
func isControl(r rune) bool {
	return r == tab || r == carriageReturn || endsLine(r)
}
