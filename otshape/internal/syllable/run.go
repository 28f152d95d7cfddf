package syllable

import (
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otshape"
)

// End returns the end of the syllable which starts at glyph #start of a run.
func End(run otshape.RunContext, start int) int {
	serial := run.Info(start).Syllable
	end := start + 1
	for end < run.Len() && run.Info(end).Syllable == serial {
		end++
	}
	return end
}

// ForEach calls fn for every syllable [start, end) of a run. fn must not
// change the number of glyphs.
func ForEach(run otshape.RunContext, fn func(start, end int)) {
	for start := 0; start < run.Len(); {
		end := End(run, start)
		fn(start, end)
		start = end
	}
}

// Assign stores the syllable numbers of the syllables of cats in a run, where
// glyph #index[k] has category cats[k]. Glyphs without a category join the
// syllable of the glyph before them.
func (m *Machine) Assign(run otshape.RunContext, cats []uint8, index []int) {
	serials := make([]uint16, len(cats))
	for k, syl := range m.Find(cats) {
		serial := Serial(k, syl.Type)
		for j := syl.Start; j < syl.End; j++ {
			serials[j] = serial
		}
	}
	last, k := Serial(0xffe, m.Fallback), 0
	for i := 0; i < run.Len(); i++ {
		if k < len(index) && index[k] == i {
			last = serials[k]
			k++
		}
		run.Info(i).Syllable = last
	}
}

// InsertDottedCircles inserts glyph gid for U+25CC at the start of every
// syllable of type broken, after leading glyphs of category repha. Inserted
// glyphs get category cat and position place.
func InsertDottedCircles(run otshape.RunContext, gid ot.GlyphIndex, broken, repha, cat, place uint8) {
	if gid == 0 {
		return
	}
	for start := 0; start < run.Len(); {
		end := End(run, start)
		first := *run.Info(start)
		if Type(first.Syllable) == broken {
			i := start
			for i < end && run.Info(i).Category == repha {
				i++
			}
			run.InsertGlyph(i, gid, 0x25CC)
			g := run.Info(i)
			g.Category, g.Place = cat, place
			g.Class = ot.BaseGlyph
			g.Offset, g.Mask, g.Syllable = first.Offset, first.Mask, first.Syllable
			end++
		}
		start = end
	}
}
