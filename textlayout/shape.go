package textlayout

import (
	"math"

	glang "github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/unicodedata"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otshape"
)

// item is a range of code-points shaped as a unit.
type item struct {
	start, end int
	level      uint8
	paraLevel  uint8
	script     glang.Script
	run        TextRun // effective override, Font nil for the primary font
	sideways   bool    // rotated in vertical layout
	control    bool    // a single control character
}

// cell is a glyph of the text, or a control character, in logical order.
type cell struct {
	glyph     otshape.PositionedGlyph
	face      *otface.Face
	scale     float32
	start     int // first code-point
	grapheme  int
	level     uint8
	paraLevel uint8
	advance   fixed.Int26_6
	offset    fixed.Point26_6 // y-axis down
	control   rune
	space     bool
	sideways  bool
	attrs     otface.Attributes
	decos     Decoration
}

func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(float64(v) * 64))
}

// effectiveRuns returns the text-run override of every code-point.
func effectiveRuns(n int, runs []TextRun) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = -1
	}
	for k, r := range runs {
		for i := r.Start; i < r.End && i < n; i++ {
			idx[i] = k
		}
	}
	return idx
}

// itemize splits bidi runs at changes of script, text-run override and
// vertical orientation. Control characters form items of their own.
func itemize(cps []CodePoint, runs []BidiRun, opts *Options) []item {
	overrides := effectiveRuns(len(cps), opts.Runs)
	paraLevels := make([]uint8, len(cps))
	for _, para := range paragraphs(cps) {
		level := paragraphLevel(runs, para[0], para[1])
		for i := para[0]; i < para[1]; i++ {
			paraLevels[i] = level
		}
	}
	var items []item
	for _, br := range runs {
		var cur *item
		for i := br.Start; i < br.End; i++ {
			cp := cps[i]
			it := item{start: i, end: i + 1, level: br.Level, paraLevel: paraLevels[i], script: cp.Script}
			if k := overrides[i]; k >= 0 {
				it.run = opts.Runs[k]
			}
			if opts.Mode == Vertical {
				it.sideways = unicodedata.LookupVerticalOrientation(cp.Script).Orientation(cp.Rune)
			}
			it.control = isControl(cp.Rune)
			if cur != nil && !it.control && !cur.control && cur.script == it.script &&
				cur.run == it.run && cur.sideways == it.sideways && cur.paraLevel == it.paraLevel {
				cur.end = i + 1
				continue
			}
			items = append(items, it)
			cur = &items[len(items)-1]
		}
	}
	return items
}

// paragraphLevel returns the level of the paragraph [start, end).
func paragraphLevel(runs []BidiRun, start, end int) uint8 {
	for _, r := range runs {
		if r.End > start && r.Start < end {
			return r.ParaLevel
		}
	}
	return 0
}

// shaping holds the state of the font-run substitution of a layout call.
type shaping struct {
	opts      *Options
	cps       []CodePoint
	graphemes []Grapheme
}

// shapeItems shapes all items and returns the cells of the text in logical
// order.
func (sh *shaping) shapeItems(items []item) []cell {
	var cells []cell
	for _, it := range items {
		cells = append(cells, sh.shapeItem(it)...)
	}
	return cells
}

func (sh *shaping) shapeItem(it item) []cell {
	face := sh.opts.Font
	if it.run.Font != nil {
		face = it.run.Font
	}
	if it.control {
		return []cell{sh.controlCell(it, face)}
	}
	glyphs := sh.shape(it, face, it.start, it.end)
	byGrapheme := sh.groupByGrapheme(glyphs)
	faces := make(map[int]*otface.Face)
	unresolved := sh.unresolved(it, byGrapheme)
	for _, fb := range sh.opts.FallbackFonts {
		if len(unresolved) == 0 {
			break
		}
		unresolved = sh.tryFallback(it, fb, unresolved, byGrapheme, faces)
	}
	if len(unresolved) > 0 {
		tracer().Debugf("%d graphemes without glyphs in any font", len(unresolved))
	}
	first, last := sh.cps[it.start].Grapheme, sh.cps[it.end-1].Grapheme
	var cells []cell
	for g := first; g <= last; g++ {
		f := face
		if fb, ok := faces[g]; ok {
			f = fb
		}
		scale := sh.opts.scale(f)
		for _, pg := range byGrapheme[g] {
			cells = append(cells, sh.glyphCell(it, f, scale, pg))
		}
	}
	return cells
}

// shape shapes code-points [start, end) of an item with face. Offsets of the
// resulting glyphs are absolute. Right-to-left text is mirrored.
func (sh *shaping) shape(it item, face *otface.Face, start, end int) []otshape.PositionedGlyph {
	text := make([]rune, end-start)
	for i := start; i < end; i++ {
		text[i-start] = sh.cps[i].Rune
		if it.level&1 == 1 {
			if m, ok := unicodedata.LookupMirrorChar(text[i-start]); ok {
				text[i-start] = m
			}
		}
	}
	params := otshape.Params{
		Face:       face,
		Direction:  bidi.LeftToRight,
		Script:     isoScript(it.script),
		Language:   sh.opts.Language,
		Features:   featuresFor(sh.opts, start, end),
		Attributes: it.run.Attributes,
		ColorFonts: sh.opts.ColorFonts,
		Vertical:   sh.opts.Mode == Vertical && !it.sideways,
		PointSize:  sh.opts.PointSize,
	}
	if it.level&1 == 1 {
		params.Direction = bidi.RightToLeft
	}
	pc, err := sh.opts.shaper().Shape(params, text)
	if err != nil {
		tracer().Errorf("shaping [%d:%d] failed: %v", start, end, err)
		return notdefGlyphs(face, text, start, params)
	}
	if pc.Limited {
		tracer().Infof("shaping [%d:%d] exceeded its operation budget", start, end)
	}
	glyphs := pc.Glyphs
	for i := range glyphs {
		glyphs[i].Offset += start
	}
	return glyphs
}

// notdefGlyphs stands in for text which could not be shaped.
func notdefGlyphs(face *otface.Face, text []rune, start int, params otshape.Params) []otshape.PositionedGlyph {
	glyphs := make([]otshape.PositionedGlyph, len(text))
	for i, r := range text {
		glyphs[i] = otshape.PositionedGlyph{
			Offset:     start + i,
			CodePoints: []rune{r},
			Metrics:    face.GlyphMetrics(r, 0, params.Attributes, false, params.Vertical),
		}
	}
	return glyphs
}

// featuresFor translates the feature ranges of the options to a range of
// code-points.
func featuresFor(opts *Options, start, end int) []otshape.FeatureRange {
	var frs []otshape.FeatureRange
	for _, fr := range opts.Features {
		if fr.Start <= 0 && fr.End <= 0 {
			frs = append(frs, fr)
			continue
		}
		s, e := max(fr.Start, start), end
		if fr.End > 0 {
			e = min(fr.End, end)
		}
		if s >= e {
			continue
		}
		fr.Start, fr.End = s-start, e-start
		if fr.Start == 0 && e == end {
			fr.End = 0
		}
		frs = append(frs, fr)
	}
	if opts.Kerning == KerningNone {
		frs = append(frs, otshape.FeatureRange{Feature: ot.T("kern"), On: false})
	}
	return frs
}

func (sh *shaping) groupByGrapheme(glyphs []otshape.PositionedGlyph) map[int][]otshape.PositionedGlyph {
	m := make(map[int][]otshape.PositionedGlyph)
	for _, g := range glyphs {
		k := sh.cps[g.Offset].Grapheme
		m[k] = append(m[k], g)
	}
	return m
}

// unresolved lists the graphemes of an item with a fallback glyph, in
// logical order.
func (sh *shaping) unresolved(it item, byGrapheme map[int][]otshape.PositionedGlyph) []int {
	var gs []int
	for g := sh.cps[it.start].Grapheme; g <= sh.cps[it.end-1].Grapheme; g++ {
		for _, pg := range byGrapheme[g] {
			if pg.Fallback() {
				gs = append(gs, g)
				break
			}
		}
	}
	return gs
}

// tryFallback shapes spans of unresolved graphemes with a fallback font.
// Graphemes the font covers completely take its glyphs; the others are
// returned.
func (sh *shaping) tryFallback(it item, face *otface.Face, unresolved []int,
	byGrapheme map[int][]otshape.PositionedGlyph, faces map[int]*otface.Face) []int {
	//
	var still []int
	for i := 0; i < len(unresolved); {
		j := i + 1
		for j < len(unresolved) && unresolved[j] == unresolved[j-1]+1 {
			j++
		}
		start := max(sh.graphemes[unresolved[i]].Start, it.start)
		end := min(sh.graphemes[unresolved[j-1]].End, it.end)
		span := sh.groupByGrapheme(sh.shape(it, face, start, end))
		for _, g := range unresolved[i:j] {
			glyphs, ok := span[g]
			for _, pg := range glyphs {
				if pg.Fallback() {
					ok = false
				}
			}
			if ok {
				byGrapheme[g] = glyphs
				faces[g] = face
			} else {
				still = append(still, g)
			}
		}
		i = j
	}
	return still
}

func (sh *shaping) glyphCell(it item, face *otface.Face, scale float32, pg otshape.PositionedGlyph) cell {
	c := cell{
		glyph:     pg,
		face:      face,
		scale:     scale,
		start:     pg.Offset,
		grapheme:  sh.cps[pg.Offset].Grapheme,
		level:     it.level,
		paraLevel: it.paraLevel,
		space:     sh.cps[pg.Offset].Category == "Zs",
		sideways:  it.sideways,
		attrs:     it.run.Attributes,
		decos:     it.run.Decorations,
	}
	c.advance = toFixed(pg.AdvanceWidth() * scale)
	if sh.opts.Mode == Vertical && !it.sideways {
		c.advance = toFixed(pg.AdvanceHeight() * scale)
	}
	c.offset = fixed.Point26_6{X: toFixed(pg.Delta.XOffset * scale), Y: toFixed(-pg.Delta.YOffset * scale)}
	return c
}

// controlCell creates the cell of a control character. Tabs are displayed
// with the space glyph; their advance is set by the line breaker.
func (sh *shaping) controlCell(it item, face *otface.Face) cell {
	r := sh.cps[it.start].Rune
	c := cell{
		face:      face,
		scale:     sh.opts.scale(face),
		start:     it.start,
		grapheme:  sh.cps[it.start].Grapheme,
		level:     it.paraLevel,
		paraLevel: it.paraLevel,
		control:   r,
		space:     true,
		attrs:     it.run.Attributes,
		decos:     it.run.Decorations,
	}
	if r == tab {
		gid := face.GlyphIndex(' ')
		c.glyph = otshape.PositionedGlyph{
			Glyph:      gid,
			Offset:     it.start,
			CodePoints: []rune{r},
			Metrics:    face.GlyphMetrics(' ', gid, it.run.Attributes, false, sh.opts.Mode == Vertical),
		}
	}
	return c
}

// spaceAdvance returns the advance of the space glyph of face in output
// units, or a quarter em if the font has no space.
func spaceAdvance(opts *Options, face *otface.Face) fixed.Int26_6 {
	scale := opts.scale(face)
	if gid := face.GlyphIndex(' '); gid != 0 {
		if opts.Mode == Vertical {
			m := face.GlyphMetrics(' ', gid, 0, false, true)
			return toFixed(m[0].AdvanceHeight * scale)
		}
		return toFixed(face.Advance(gid) * scale)
	}
	return toFixed(face.UnitsPerEm() / 4 * scale)
}
