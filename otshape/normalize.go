package otshape

import (
	"sort"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otlayout"
)

// maxCombiningMarks limits the length of a sequence of marks to sort.
const maxCombiningMarks = 32

// normRune is a code-point of the normalized text, with the position of the
// code-point of the input it originates from.
type normRune struct {
	r   rune
	off int
}

// normalizer normalizes text to the form preferred by a plan. Characters are
// decomposed if the font lacks a glyph for them, marks are put into canonical
// order, and characters are composed again if the font has a glyph for the
// composition.
type normalizer struct {
	plan    *plan
	compose ShapingEngineComposeHook
	decomp  ShapingEngineDecomposeHook
}

var _ NormalizeContext = (*normalizer)(nil)

func newNormalizer(p *plan) *normalizer {
	n := &normalizer{plan: p}
	n.compose, _ = p.engine.(ShapingEngineComposeHook)
	n.decomp, _ = p.engine.(ShapingEngineDecomposeHook)
	return n
}

func (n *normalizer) Font() *ot.Font {
	return n.plan.otf
}

func (n *normalizer) Selection() SelectionContext {
	return n.plan.sel
}

func (n *normalizer) HasGposMark() bool {
	return n.plan.hasGposMark
}

// ComposeUnicode composes a pair of code-points canonically.
func (n *normalizer) ComposeUnicode(a, b rune) (rune, bool) {
	rs := []rune(norm.NFC.String(string([]rune{a, b})))
	if len(rs) == 1 {
		return rs[0], true
	}
	return 0, false
}

func (n *normalizer) hasGlyph(r rune) bool {
	return n.plan.params.Face.GlyphIndex(r) != NOTDEF
}

func (n *normalizer) normalize(text []rune) []normRune {
	out := make([]normRune, 0, len(text))
	mode := n.plan.norm
	for i, r := range text {
		if mode == NormalizationNone || ot.IsVariationSelector(r) {
			out = append(out, normRune{r, i})
			continue
		}
		out = n.decompose(out, r, i, mode == NormalizationDecomposed)
	}
	if mode == NormalizationNone {
		return out
	}
	reorderMarks(out)
	if mode == NormalizationDecomposed {
		return out
	}
	return n.composeMarks(out)
}

// decompose appends the canonical decomposition of r, if the font does not
// support r itself (or if always is set) and supports all parts of the
// decomposition. Engines with a decomposition hook decide themselves.
func (n *normalizer) decompose(out []normRune, r rune, off int, always bool) []normRune {
	var d []rune
	if n.decomp != nil {
		var ok bool
		if d, ok = n.decomp.Decompose(n, r); !ok {
			return append(out, normRune{r, off})
		}
	} else if !always && n.hasGlyph(r) {
		return append(out, normRune{r, off})
	} else {
		d = []rune(norm.NFD.String(string(r)))
	}
	if len(d) < 2 {
		return append(out, normRune{r, off})
	}
	for _, x := range d {
		if !n.hasGlyph(x) {
			return append(out, normRune{r, off})
		}
	}
	for _, x := range d {
		out = append(out, normRune{x, off})
	}
	return out
}

// composeMarks composes a starter with following marks, if the result is
// supported by the font. Marks blocked by a preceding mark of the same or
// higher combining class are left alone.
func (n *normalizer) composeMarks(in []normRune) []normRune {
	out := in[:0]
	starter := -1
	lastClass := uint8(0)
	for _, nr := range in {
		if starter >= 0 && isComposableMark(nr.r) {
			ccc := combiningClass(nr.r)
			blocked := len(out)-1 > starter && (lastClass == 0 || lastClass >= ccc)
			if !blocked {
				if c, ok := n.composePair(out[starter].r, nr.r); ok && n.hasGlyph(c) {
					out[starter].r = c
					continue
				}
			}
			lastClass = ccc
			out = append(out, nr)
			continue
		}
		out = append(out, nr)
		starter, lastClass = -1, 0
		if combiningClass(nr.r) == 0 {
			starter = len(out) - 1
		}
	}
	return out
}

func (n *normalizer) composePair(a, b rune) (rune, bool) {
	if n.compose != nil {
		return n.compose.Compose(n, a, b)
	}
	return n.ComposeUnicode(a, b)
}

func isComposableMark(r rune) bool {
	return unicode.Is(unicode.M, r) && !ot.IsVariationSelector(r)
}

func combiningClass(r rune) uint8 {
	return norm.NFD.PropertiesString(string(r)).CCC()
}

// reorderMarks sorts sequences of marks by combining class. The offsets of
// sorted sequences are merged.
func reorderMarks(rs []normRune) {
	for i := 0; i < len(rs); {
		if combiningClass(rs[i].r) == 0 {
			i++
			continue
		}
		j := i + 1
		for j < len(rs) && combiningClass(rs[j].r) != 0 {
			j++
		}
		if j-i > 1 && j-i <= maxCombiningMarks {
			seq := rs[i:j]
			if !sort.SliceIsSorted(seq, func(a, b int) bool {
				return combiningClass(seq[a].r) < combiningClass(seq[b].r)
			}) {
				sort.SliceStable(seq, func(a, b int) bool {
					return combiningClass(seq[a].r) < combiningClass(seq[b].r)
				})
				least := seq[0].off
				for _, nr := range seq {
					least = min(least, nr.off)
				}
				for k := range seq {
					seq[k].off = least
				}
			}
		}
		i = j
	}
}

// markSequences calls fn for every sequence of glyphs whose code-points are
// marks with a non-zero combining class.
func markSequences(coll *otlayout.SubstitutionCollection, fn func(start, end int)) {
	for i := 0; i < coll.Len(); {
		if !hasCombiningClass(coll.At(i)) {
			i++
			continue
		}
		j := i + 1
		for j < coll.Len() && hasCombiningClass(coll.At(j)) {
			j++
		}
		fn(i, j)
		i = j
	}
}

func hasCombiningClass(g *otlayout.GlyphShapingData) bool {
	return len(g.CodePoints) > 0 && combiningClass(g.CodePoints[0]) != 0
}
