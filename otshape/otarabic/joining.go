package otarabic

import "unicode"

// Joining classes of characters, as columns of the joining state table.
const (
	joinNone       = iota // U, non-joining
	joinLeft              // L
	joinRight             // R
	joinDual              // D, and join-causing characters
	joinAlaph             // Syriac Alaph
	joinDalathRish        // Syriac Dalath, Rish and their variants
	joinClassCount

	joinTransparent = -1 // marks and formatting characters, skipped
)

// joinStep is a transition of the joining state machine. prev is the form of
// the preceding non-transparent character, if the transition changes it.
type joinStep struct {
	prev, cur int8
	next      uint8
}

// joinStates are the states of joining, after
//
//	0: a non-joining character
//	1: a character which does not join on its left
//	2: an isolated character which may join on its left
//	3: a final form which may join on its left
//	4: a final Alaph
//	5: an Alaph in form fin2 or fin3
//	6: a Dalath or Rish
var joinStates = [7][joinClassCount]joinStep{
	{{formNone, formNone, 0}, {formNone, formIsol, 2}, {formNone, formIsol, 1}, {formNone, formIsol, 2}, {formNone, formIsol, 1}, {formNone, formIsol, 6}},
	{{formNone, formNone, 0}, {formNone, formIsol, 2}, {formNone, formIsol, 1}, {formNone, formIsol, 2}, {formNone, formFin2, 5}, {formNone, formIsol, 6}},
	{{formNone, formNone, 0}, {formNone, formIsol, 2}, {formInit, formFina, 1}, {formInit, formFina, 3}, {formInit, formFina, 4}, {formInit, formFina, 6}},
	{{formNone, formNone, 0}, {formNone, formIsol, 2}, {formMedi, formFina, 1}, {formMedi, formFina, 3}, {formMedi, formFina, 4}, {formMedi, formFina, 6}},
	{{formNone, formNone, 0}, {formNone, formIsol, 2}, {formMed2, formIsol, 1}, {formMed2, formIsol, 2}, {formMed2, formFin2, 5}, {formMed2, formIsol, 6}},
	{{formNone, formNone, 0}, {formNone, formIsol, 2}, {formIsol, formIsol, 1}, {formIsol, formIsol, 2}, {formIsol, formFin2, 5}, {formIsol, formIsol, 6}},
	{{formNone, formNone, 0}, {formNone, formIsol, 2}, {formNone, formIsol, 1}, {formNone, formIsol, 2}, {formNone, formFin3, 5}, {formNone, formIsol, 6}},
}

// resolveJoiningForms returns the joining form of every code-point of a run,
// or formNone. Join-causing characters make their neighbours join, but take
// no form themselves.
func resolveJoiningForms(cps []rune) []int {
	forms := make([]int, len(cps))
	state, prev := uint8(0), -1
	for i, cp := range cps {
		forms[i] = formNone
		class := joiningClass(cp)
		if class == joinTransparent {
			continue
		}
		step := joinStates[state][class]
		if prev >= 0 && step.prev != formNone {
			forms[prev] = int(step.prev)
		}
		forms[i] = int(step.cur)
		state, prev = step.next, i
	}
	for i, cp := range cps {
		if isJoinCausing(cp) {
			forms[i] = formNone
		}
	}
	return forms
}

func isJoinCausing(cp rune) bool {
	return cp == '\u200D' || cp == '\u0640' || cp == '\u07FA' // ZWJ, tatweel, NKo lajanyalan
}

func joiningClass(cp rune) int {
	switch {
	case cp == '\u200C': // ZWNJ
		return joinNone
	case isJoinCausing(cp):
		return joinDual
	case cp == '\u0710':
		return joinAlaph
	case cp == '\u0715', cp == '\u0716', cp == '\u072A', cp == '\u072F':
		return joinDalathRish
	case unicode.In(cp, unicode.Mn, unicode.Me, unicode.Cf):
		return joinTransparent
	case cp == '\uA872': // Phags-pa superfixed letter ra
		return joinLeft
	}
	if _, ok := rightJoining[cp]; ok {
		return joinRight
	}
	if unicode.IsLetter(cp) && unicode.In(cp, joiningScriptTables...) {
		return joinDual
	}
	return joinNone
}

var joiningScriptTables = []*unicode.RangeTable{
	unicode.Arabic, unicode.Syriac, unicode.Nko, unicode.Mandaic, unicode.Mongolian,
	unicode.Phags_Pa, unicode.Adlam,
}

// rightJoining are the letters of joining scripts which join on their right
// side only.
var rightJoining = map[rune]struct{}{
	'\u0622': {}, '\u0623': {}, '\u0624': {}, '\u0625': {}, '\u0627': {}, '\u0629': {},
	'\u062F': {}, '\u0630': {}, '\u0631': {}, '\u0632': {}, '\u0648': {},
	'\u0671': {}, '\u0672': {}, '\u0673': {}, '\u0675': {}, '\u0676': {}, '\u0677': {},
	'\u0688': {}, '\u0689': {}, '\u068A': {}, '\u068B': {}, '\u068C': {}, '\u068D': {}, '\u068E': {}, '\u068F': {},
	'\u0690': {}, '\u0691': {}, '\u0692': {}, '\u0693': {}, '\u0694': {}, '\u0695': {}, '\u0696': {}, '\u0697': {},
	'\u0698': {}, '\u0699': {}, '\u06C0': {}, '\u06C3': {}, '\u06C4': {}, '\u06C5': {}, '\u06C6': {}, '\u06C7': {},
	'\u06C8': {}, '\u06C9': {}, '\u06CA': {}, '\u06CB': {}, '\u06CD': {}, '\u06CF': {}, '\u06D2': {}, '\u06D3': {},
	'\u06D5': {}, '\u06EE': {}, '\u06EF': {},
	'\u0717': {}, '\u0718': {}, '\u0719': {}, '\u071E': {}, '\u0728': {}, '\u072C': {}, '\u074D': {},
	'\u0847': {}, '\u0849': {}, // Mandaic it, ksa
}
