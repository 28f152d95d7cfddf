package textlayout

import (
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
)

// tracer writes to trace with key 'text.layout'
func tracer() tracing.Trace {
	return tracing.Select("text.layout")
}

// GlyphLayout is a placed glyph.
type GlyphLayout struct {
	Glyph         ot.GlyphIndex
	Font          *otface.Face
	Metrics       []otface.GlyphMetrics // one entry, or one per color layer
	Scale         float32               // font units to output units
	Attributes    otface.Attributes
	PenLocation   fixed.Point26_6     // origin of the glyph, on the baseline
	BoxLocation   fixed.Rectangle26_6 // ink box
	Advance       fixed.Int26_6
	LineStart     bool
	Line          int
	StringIndex   int // index of the first code-point of the glyph in the text
	GraphemeIndex int
	CodePoint     rune
	Level         uint8 // bidi embedding level
	Sideways      bool  // rotated by 90 degrees clockwise in vertical layout
	Decorations   Decoration
}

// Fallback reports whether no font had a glyph for the code-points of g.
func (g GlyphLayout) Fallback() bool {
	return len(g.Metrics) > 0 && g.Metrics[0].Type == otface.GlyphFallback
}

// TextLine is a line of laid out glyphs in visual order.
type TextLine struct {
	Glyphs   []GlyphLayout
	Origin   fixed.Point26_6 // start of the baseline, before alignment
	Advance  fixed.Int26_6   // without trailing white space
	Ascent   fixed.Int26_6
	Descent  fixed.Int26_6 // positive
	Wrapped  bool          // ended by wrapping
	Vertical bool
}

// Layout lays out text and returns its glyphs, line by line in visual order.
// Line-ending characters and carriage returns produce no glyphs.
func Layout(text string, opts *Options) ([]GlyphLayout, error) {
	lines, err := LayoutLines(text, opts)
	if err != nil {
		return nil, err
	}
	var glyphs []GlyphLayout
	for _, l := range lines {
		glyphs = append(glyphs, l.Glyphs...)
	}
	return glyphs, nil
}

// LayoutLines lays out text and returns its lines. If the options request
// normalization, string indices refer to the NFC form of text.
func LayoutLines(text string, opts *Options) ([]TextLine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Normalize {
		text = norm.NFC.String(text)
	}
	cps, graphemes := analyze(text)
	runs := resolveBidi(cps, opts.Direction)
	items := itemize(cps, runs, opts)
	sh := &shaping{opts: opts, cps: cps, graphemes: graphemes}
	cells := sh.shapeItems(items)
	lines := breakLines(cells, opts, breakOpportunities(cps, opts.WordBreaking))
	tracer().Debugf("layout of %d code-points: %d bidi runs, %d items, %d lines",
		len(cps), len(runs), len(items), len(lines))
	return place(lines, cps, opts), nil
}

// Measure returns the bounding box of laid out text, including the ink of
// all glyphs and the advances of all lines.
func Measure(text string, opts *Options) (fixed.Rectangle26_6, error) {
	lines, err := LayoutLines(text, opts)
	if err != nil {
		return fixed.Rectangle26_6{}, err
	}
	return bounds(lines), nil
}

func bounds(lines []TextLine) fixed.Rectangle26_6 {
	var r fixed.Rectangle26_6
	first := true
	add := func(s fixed.Rectangle26_6) {
		if first {
			r, first = s, false
			return
		}
		r = r.Union(s)
	}
	for _, l := range lines {
		for _, g := range l.Glyphs {
			if !g.BoxLocation.Empty() {
				add(g.BoxLocation)
			}
			end := g.PenLocation.Add(fixed.Point26_6{X: g.Advance})
			if l.Vertical {
				end = g.PenLocation.Add(fixed.Point26_6{Y: g.Advance})
			}
			add(fixed.Rectangle26_6{Min: g.PenLocation, Max: end})
		}
	}
	return r
}

// lineMetrics are the vertical metrics of the primary font in output units.
type lineMetrics struct {
	ascent, descent, height fixed.Int26_6
}

func metricsOf(opts *Options) lineMetrics {
	fm := opts.Font.Metrics()
	scale := opts.scale(opts.Font)
	asc, desc := toFixed(fm.Ascender*scale), toFixed(-fm.Descender*scale)
	height := toFixed((fm.Ascender - fm.Descender + fm.LineGap) * scale * opts.LineSpacing)
	return lineMetrics{ascent: asc, descent: desc, height: height}
}

// place positions the cells of every line in visual order.
func place(lines []line, cps []CodePoint, opts *Options) []TextLine {
	lm := metricsOf(opts)
	vertical := opts.Mode == Vertical
	measure := opts.WrapLength
	if measure == 0 {
		for _, l := range lines {
			measure = max(measure, contentAdvance(l.cells))
		}
	}
	out := make([]TextLine, len(lines))
	var shift fixed.Int26_6
	total := lm.height * fixed.Int26_6(len(lines))
	switch opts.VAlignment {
	case AlignBaseline:
		shift = -lm.ascent
	case AlignMiddle:
		shift = -total / 2
	case AlignBottom:
		shift = -total
	}
	for i, l := range lines {
		tl := TextLine{Ascent: lm.ascent, Descent: lm.descent, Wrapped: i+1 < len(lines) && lines[i+1].wrapped,
			Vertical: vertical}
		if vertical {
			tl.Origin = fixed.Point26_6{X: -lm.height*fixed.Int26_6(i) - lm.height/2}
		} else {
			tl.Origin = fixed.Point26_6{Y: lm.ascent + lm.height*fixed.Int26_6(i) + shift}
		}
		cells := l.cells
		tl.Advance = contentAdvance(cells)
		if opts.Justify && tl.Wrapped && opts.WrapLength > 0 {
			justify(cells, opts.WrapLength-tl.Advance)
			tl.Advance = contentAdvance(cells)
		}
		indent := alignment(opts.Alignment, paraLevel(l), measure, tl.Advance)
		tl.Glyphs = placeLine(cells, cps, tl.Origin, indent, i, opts, lm)
		out[i] = tl
	}
	return out
}

func paraLevel(l line) uint8 {
	if len(l.cells) == 0 {
		return 0
	}
	return l.cells[0].paraLevel
}

// contentAdvance is the advance of a line without trailing white space.
// Carriage returns restart the measurement.
func contentAdvance(cells []cell) fixed.Int26_6 {
	end := len(cells)
	for end > 0 && cells[end-1].space {
		end--
	}
	var x, w fixed.Int26_6
	for _, c := range cells[:end] {
		if c.control == carriageReturn {
			x = 0
			continue
		}
		x += c.advance
		w = max(w, x)
	}
	return w
}

// justify distributes extra space over the inner spaces of a line.
func justify(cells []cell, extra fixed.Int26_6) {
	end := len(cells)
	for end > 0 && cells[end-1].space {
		end--
	}
	var spaces []int
	for i, c := range cells[:end] {
		if c.space && c.control == 0 {
			spaces = append(spaces, i)
		}
	}
	if len(spaces) == 0 || extra <= 0 {
		return
	}
	n := fixed.Int26_6(len(spaces))
	for k, i := range spaces {
		cells[i].advance += extra / n
		if fixed.Int26_6(k) < extra%n {
			cells[i].advance++
		}
	}
}

func alignment(a Alignment, level uint8, measure, advance fixed.Int26_6) fixed.Int26_6 {
	free := measure - advance
	if free <= 0 {
		return 0
	}
	rtl := level&1 == 1
	switch {
	case a == AlignCenter:
		return free / 2
	case a == AlignRight, a == AlignStart && rtl, a == AlignEnd && !rtl:
		return free
	}
	return 0
}

// placeLine places the cells of a line. Carriage returns split a line into
// segments, each starting at the line origin; within a segment cells are
// reordered visually.
func placeLine(cells []cell, cps []CodePoint, origin fixed.Point26_6, indent fixed.Int26_6,
	lineNo int, opts *Options, lm lineMetrics) []GlyphLayout {
	//
	var glyphs []GlyphLayout
	start := 0
	for i := 0; i <= len(cells); i++ {
		if i < len(cells) && cells[i].control != carriageReturn {
			continue
		}
		seg := cells[start:i]
		levels := make([]uint8, len(seg))
		trailing := true
		for k := len(seg) - 1; k >= 0; k-- {
			levels[k] = seg[k].level
			if trailing && seg[k].space {
				levels[k] = seg[k].paraLevel
			} else {
				trailing = false
			}
		}
		pos := indent
		for _, k := range visualOrder(levels) {
			c := seg[k]
			g := glyphLayout(c, cps, origin, pos, opts, lm)
			g.Line, g.LineStart = lineNo, len(glyphs) == 0
			glyphs = append(glyphs, g)
			pos += c.advance
		}
		start = i + 1
	}
	return glyphs
}

// glyphLayout creates the record of a cell at position pos along the line.
func glyphLayout(c cell, cps []CodePoint, origin fixed.Point26_6, pos fixed.Int26_6,
	opts *Options, lm lineMetrics) GlyphLayout {
	//
	g := GlyphLayout{
		Glyph:         c.glyph.Glyph,
		Font:          c.face,
		Metrics:       c.glyph.Metrics,
		Scale:         c.scale,
		Attributes:    c.attrs,
		Advance:       c.advance,
		StringIndex:   c.start,
		GraphemeIndex: c.grapheme,
		CodePoint:     cps[c.start].Rune,
		Level:         c.level,
		Sideways:      c.sideways,
		Decorations:   c.decos,
	}
	if opts.Mode != Vertical {
		g.PenLocation = fixed.Point26_6{X: origin.X + pos + c.offset.X, Y: origin.Y + c.offset.Y}
		g.BoxLocation = inkBox(g, false)
		return g
	}
	if c.sideways {
		// baseline runs down the column, centered on the em box
		x := origin.X - (lm.ascent-lm.descent)/2
		g.PenLocation = fixed.Point26_6{X: x - c.offset.Y, Y: origin.Y + pos + c.offset.X}
		g.BoxLocation = inkBox(g, true)
		return g
	}
	var width fixed.Int26_6
	if len(g.Metrics) > 0 {
		width = toFixed(g.Metrics[0].AdvanceWidth * c.scale)
	}
	g.PenLocation = fixed.Point26_6{
		X: origin.X - width/2 + c.offset.X,
		Y: origin.Y + pos + lm.ascent + c.offset.Y,
	}
	g.BoxLocation = inkBox(g, false)
	return g
}

// inkBox returns the bounds of a glyph in output coordinates.
func inkBox(g GlyphLayout, sideways bool) fixed.Rectangle26_6 {
	if len(g.Metrics) == 0 || g.Metrics[0].Bounds.Empty() {
		return fixed.Rectangle26_6{Min: g.PenLocation, Max: g.PenLocation}
	}
	b, s, p := g.Metrics[0].Bounds, g.Scale, g.PenLocation
	if sideways {
		return fixed.Rectangle26_6{
			Min: fixed.Point26_6{X: p.X + toFixed(b.YMin*s), Y: p.Y + toFixed(b.XMin*s)},
			Max: fixed.Point26_6{X: p.X + toFixed(b.YMax*s), Y: p.Y + toFixed(b.XMax*s)},
		}
	}
	return fixed.Rectangle26_6{
		Min: fixed.Point26_6{X: p.X + toFixed(b.XMin*s), Y: p.Y - toFixed(b.YMax*s)},
		Max: fixed.Point26_6{X: p.X + toFixed(b.XMax*s), Y: p.Y - toFixed(b.YMin*s)},
	}
}
