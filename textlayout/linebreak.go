package textlayout

import (
	"github.com/go-text/typesetting/segmenter"
	"golang.org/x/image/math/fixed"
)

// breakOpportunities returns for every code-point position whether a line
// may be broken before it.
func breakOpportunities(cps []CodePoint, mode WordBreaking) []bool {
	allow := make([]bool, len(cps)+1)
	if len(cps) == 0 {
		return allow
	}
	text := make([]rune, len(cps))
	for i, cp := range cps {
		text[i] = cp.Rune
	}
	var seg segmenter.Segmenter
	seg.Init(text)
	iter := seg.LineIterator()
	for iter.Next() {
		line := iter.Line()
		allow[line.Offset+len(line.Text)] = true
	}
	if mode == KeepAll {
		for i := 1; i < len(cps); i++ {
			if isCJK(cps[i-1].Script) && isCJK(cps[i].Script) &&
				cps[i-1].Category[0] == 'L' && cps[i].Category[0] == 'L' {
				allow[i] = false
			}
		}
	}
	return allow
}

// line is a line of cells in logical order.
type line struct {
	cells   []cell
	wrapped bool // started by wrapping
	endsPar bool // ended by a line-ending character
}

// breaker collects cells into lines.
type breaker struct {
	opts     *Options
	allow    []bool
	tabStop  fixed.Int26_6
	minTab   fixed.Int26_6
	lines    []line
	cur      line
	x        fixed.Int26_6 // advance of the current line
	lastOpp  int           // index of the last cell with a break opportunity before it, or 0
	prevCell int           // first code-point of the previous cell, or -1
}

func newBreaker(opts *Options, allow []bool) *breaker {
	space := spaceAdvance(opts, opts.Font)
	return &breaker{
		opts:     opts,
		allow:    allow,
		tabStop:  space * fixed.Int26_6(opts.TabWidth),
		minTab:   space,
		prevCell: -1,
	}
}

// breakLines splits cells into lines at line-ending characters, and wraps
// lines exceeding the wrapping length.
func breakLines(cells []cell, opts *Options, allow []bool) []line {
	b := newBreaker(opts, allow)
	for _, c := range cells {
		b.add(c)
	}
	if len(b.cur.cells) > 0 || len(b.lines) == 0 || b.lines[len(b.lines)-1].endsPar {
		b.lines = append(b.lines, b.cur)
	}
	return b.lines
}

func (b *breaker) add(c cell) {
	if endsLine(c.control) {
		b.cur.endsPar = true
		b.newLine(false)
		return
	}
	switch c.control {
	case carriageReturn:
		b.x = 0
		b.cur.cells = append(b.cur.cells, c)
		return
	case tab:
		c.advance = b.tabAdvance(b.x)
	}
	isStart := c.start != b.prevCell
	if isStart && len(b.cur.cells) > 0 && b.allow[c.start] {
		b.lastOpp = len(b.cur.cells)
	}
	// white space hangs over the end of a line
	if wrap := b.opts.WrapLength; wrap > 0 && len(b.cur.cells) > 0 && isStart && !c.space &&
		b.x+c.advance > wrap {
		b.wrap(c)
	}
	b.prevCell = c.start
	b.cur.cells = append(b.cur.cells, c)
	b.x += c.advance
}

// wrap ends the current line before cell c would overflow it.
func (b *breaker) wrap(c cell) {
	at := 0
	switch {
	case b.opts.WordBreaking == BreakAll:
		at = len(b.cur.cells)
		for at > 0 && b.cur.cells[at-1].grapheme == c.grapheme {
			at--
		}
	case b.lastOpp > 0:
		at = b.lastOpp
	}
	if at == 0 {
		return // no opportunity: the line overflows
	}
	rest := b.cur.cells[at:]
	b.cur.cells = b.cur.cells[:at:at]
	b.newLine(true)
	for len(rest) > 0 && rest[0].space && rest[0].control == 0 {
		rest = rest[1:]
	}
	for _, r := range rest {
		if r.control == tab {
			r.advance = b.tabAdvance(b.x)
		}
		if b.allow[r.start] && len(b.cur.cells) > 0 && r.start != b.cur.cells[len(b.cur.cells)-1].start {
			b.lastOpp = len(b.cur.cells)
		}
		b.cur.cells = append(b.cur.cells, r)
		b.x += r.advance
	}
}

func (b *breaker) newLine(wrapped bool) {
	b.lines = append(b.lines, b.cur)
	b.cur = line{wrapped: wrapped}
	b.x, b.lastOpp = 0, 0
}

// tabAdvance returns the advance of a tab at x. Tabs go to the next tab stop
// at least one space advance away.
func (b *breaker) tabAdvance(x fixed.Int26_6) fixed.Int26_6 {
	if b.tabStop <= 0 {
		return b.minTab
	}
	next := (x/b.tabStop + 1) * b.tabStop
	if next-x < b.minTab {
		next += b.tabStop
	}
	return next - x
}
