package othebrew

import (
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otshape"
)

// Shaper is the Hebrew shaping engine. It keeps no state.
type Shaper struct{}

var _ otshape.ShapingEngine = Shaper{}
var _ otshape.ShapingEnginePolicy = Shaper{}
var _ otshape.ShapingEngineComposeHook = Shaper{}
var _ otshape.ShapingEngineReorderHook = Shaper{}

var scriptHebrew = language.MustParseScript("Hebr")

// New returns the Hebrew shaping engine.
func New() otshape.ShapingEngine {
	return Shaper{}
}

func (Shaper) Name() string {
	return "hebrew"
}

func (Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	if ctx.Script == scriptHebrew || ctx.ScriptTag == ot.T("hebr") {
		return otshape.ShaperConfidenceCertain
	}
	return otshape.ShaperConfidenceNone
}

func (Shaper) New() otshape.ShapingEngine {
	return Shaper{}
}

func (Shaper) NormalizationPreference() otshape.NormalizationMode {
	return otshape.NormalizationAuto
}

func (Shaper) ApplyGPOS() bool {
	return true
}

// Compose composes canonically. For fonts without GPOS mark positioning,
// a letter and its point may also compose to one of the presentation forms,
// which canonical composition excludes.
func (Shaper) Compose(ctx otshape.NormalizeContext, a, b rune) (rune, bool) {
	if ab, ok := ctx.ComposeUnicode(a, b); ok {
		return ab, true
	}
	if ctx.HasGposMark() {
		return 0, false
	}
	return presentationForm(a, b)
}

// Hebrew points
const (
	sheva   = 0x05B0
	hiriq   = 0x05B4
	patah   = 0x05B7
	qamats  = 0x05B8
	holam   = 0x05B9
	dagesh  = 0x05BC
	meteg   = 0x05BD
	rafe    = 0x05BF
	shinDot = 0x05C1
	sinDot  = 0x05C2
)

// pointedForms maps a letter and a point to its presentation form, except
// for the letters with dagesh.
var pointedForms = map[[2]rune]rune{
	{0x05D9, hiriq}:   0xFB1D, // yod
	{0x05F2, patah}:   0xFB1F, // yiddish double yod
	{0x05D0, patah}:   0xFB2E, // alef
	{0x05D0, qamats}:  0xFB2F,
	{0x05D5, holam}:   0xFB4B, // vav
	{0x05D1, rafe}:    0xFB4C, // bet
	{0x05DB, rafe}:    0xFB4D, // kaf
	{0x05E4, rafe}:    0xFB4E, // pe
	{0x05E9, shinDot}: 0xFB2A, // shin
	{0x05E9, sinDot}:  0xFB2B,
	{0xFB49, shinDot}: 0xFB2C, // shin with dagesh
	{0xFB49, sinDot}:  0xFB2D,
	{0xFB2A, dagesh}:  0xFB2C, // shin with shin dot
	{0xFB2B, dagesh}:  0xFB2D, // shin with sin dot
}

// presentationForm composes a and b to a character of the Alphabetic
// Presentation Forms block. Letters alef to tav with dagesh are encoded in
// alphabetical order from U+FB30, with gaps for letters which have no such form.
func presentationForm(a, b rune) (rune, bool) {
	if b == dagesh && a >= 0x05D0 && a <= 0x05EA {
		switch a {
		case 0x05D7, 0x05DD, 0x05DF, 0x05E2, 0x05E5: // het, final mem, final nun, ayin, final tsadi
			return 0, false
		}
		return 0xFB30 + a - 0x05D0, true
	}
	ab, ok := pointedForms[[2]rune{a, b}]
	return ab, ok
}

// ReorderMarks moves meteg, or a mark below, in front of a sheva or hiriq
// which follows patah or qamats. The first such sequence of a cluster is
// reordered.
func (Shaper) ReorderMarks(run otshape.RunContext, start, end int) {
	start, end = max(start, 0), min(end, run.Len())
	for i := start; i+2 < end; i++ {
		if !isOneOf(markClass(run.Codepoint(i)), patah, qamats) ||
			!isOneOf(markClass(run.Codepoint(i+1)), sheva, hiriq) {
			continue
		}
		if c := markClass(run.Codepoint(i + 2)); c == meteg || c == ccBelow {
			run.MergeClusters(i+1, i+3)
			run.Swap(i+1, i+2)
			return
		}
	}
}

const ccBelow = 220 // canonical combining class of marks below

// markClass returns a point's own code-point for the points involved in
// reordering, and the canonical combining class for all other characters.
// Combining classes are below 256 and never collide with the points.
func markClass(r rune) rune {
	switch r {
	case sheva, hiriq, patah, qamats, meteg:
		return r
	}
	return rune(norm.NFD.PropertiesString(string(r)).CCC())
}

func isOneOf(c rune, cs ...rune) bool {
	for _, x := range cs {
		if c == x {
			return true
		}
	}
	return false
}
