package textlayout

import (
	"github.com/benoitkugler/textprocessing/fribidi"
	"golang.org/x/text/unicode/bidi"
)

// BidiRun is a range [Start, End) of code-points with one embedding level.
type BidiRun struct {
	Start, End int
	Level      uint8
	ParaLevel  uint8 // level of the paragraph containing the run
}

// Direction returns the direction of the run.
func (r BidiRun) Direction() bidi.Direction {
	if r.Level&1 == 1 {
		return bidi.RightToLeft
	}
	return bidi.LeftToRight
}

// paragraphs splits the code-points into paragraphs at line-ending
// characters and carriage returns. The separator belongs to the paragraph it
// ends.
func paragraphs(cps []CodePoint) [][2]int {
	var paras [][2]int
	start := 0
	for i, cp := range cps {
		if endsLine(cp.Rune) || cp.Rune == carriageReturn {
			paras = append(paras, [2]int{start, i + 1})
			start = i + 1
		}
	}
	if start < len(cps) {
		paras = append(paras, [2]int{start, len(cps)})
	}
	return paras
}

// resolveBidi runs the bidi algorithm for every paragraph and returns the
// runs of equal level in logical order. An explicit direction overrides
// the paragraph level detected from the text.
func resolveBidi(cps []CodePoint, dir Direction) []BidiRun {
	var runs []BidiRun
	for _, para := range paragraphs(cps) {
		runs = append(runs, resolveParagraph(cps, para[0], para[1], dir)...)
	}
	return coalesce(runs)
}

// resolveParagraph computes the embedding levels of a paragraph. Brackets
// are paired for rule N0.
func resolveParagraph(cps []CodePoint, start, end int, dir Direction) []BidiRun {
	para := cps[start:end]
	types := make([]fribidi.CharType, len(para))
	brackets := make([]fribidi.BracketType, len(para))
	for i, cp := range para {
		types[i] = fribidi.GetBidiType(cp.Rune)
		if types[i] == fribidi.ON {
			brackets[i] = fribidi.GetBracket(cp.Rune)
		}
	}
	base := fribidi.ParType(fribidi.ON)
	switch dir {
	case DirectionLTR:
		base = fribidi.LTR
	case DirectionRTL:
		base = fribidi.RTL
	}
	levels, _ := fribidi.GetParEmbeddingLevels(types, brackets, &base)
	paraLevel := uint8(0)
	if base.IsRtl() {
		paraLevel = 1
	}
	runs := make([]BidiRun, 0, 8)
	for i, l := range levels {
		runs = append(runs, BidiRun{Start: start + i, End: start + i + 1, Level: uint8(l), ParaLevel: paraLevel})
	}
	return coalesce(runs)
}

// coalesce merges neighbouring runs of equal level within a paragraph.
func coalesce(runs []BidiRun) []BidiRun {
	out := runs[:0]
	for _, r := range runs {
		if r.Start == r.End {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Level == r.Level && out[n-1].ParaLevel == r.ParaLevel &&
			out[n-1].End == r.Start {
			out[n-1].End = r.End
			continue
		}
		out = append(out, r)
	}
	return out
}

// visualOrder returns the visual order of items with the given levels,
// reversing sequences at or above each odd level.
func visualOrder(levels []uint8) []int {
	order := make([]int, len(levels))
	var highest, lowestOdd uint8 = 0, 255
	for i, l := range levels {
		order[i] = i
		highest = max(highest, l)
		if l&1 == 1 {
			lowestOdd = min(lowestOdd, l)
		}
	}
	for level := highest; level >= lowestOdd && level > 0; level-- {
		for i := 0; i < len(order); {
			if levels[order[i]] < level {
				i++
				continue
			}
			j := i
			for j < len(order) && levels[order[j]] >= level {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				order[a], order[b] = order[b], order[a]
			}
			i = j
		}
	}
	return order
}
