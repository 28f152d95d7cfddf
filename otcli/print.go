package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pterm/pterm"
	"golang.org/x/text/unicode/runenames"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otquery"
)

func infoOp(intp *Intp, op *Op) (error, bool) {
	otf := intp.face.Font()
	names := otquery.NameInfo(otf, ot.DFLT)
	data := [][]string{{"Property", "Value"}}
	for _, key := range []string{"family", "subfamily", "fullname", "version", "postscript"} {
		if v, ok := names[key]; ok {
			data = append(data, []string{key, v})
		}
	}
	m := otquery.FontMetrics(otf)
	data = append(data,
		[]string{"type", otquery.FontType(otf)},
		[]string{"glyphs", strconv.Itoa(otf.NumGlyphs())},
		[]string{"units per em", fmt.Sprintf("%d", m.UnitsPerEm)},
		[]string{"ascent / descent", fmt.Sprintf("%d / %d", m.Ascent, m.Descent)},
		[]string{"line gap", fmt.Sprintf("%d", m.LineGap)},
		[]string{"layout tables", strings.Join(otquery.LayoutTables(otf), " ")},
		[]string{"variable", strconv.FormatBool(otf.IsVariable())},
		[]string{"style", intp.font.Style.String()},
	)
	if head, ok := otquery.HeadInfo(otf); ok {
		data = append(data,
			[]string{"revision", fmt.Sprintf("%.3f", float64(head.FontRevision)/65536)},
			[]string{"mac style", fmt.Sprintf("bold=%v italic=%v", head.IsBold(), head.IsItalic())},
		)
	}
	if maxp, ok := otquery.MaxPInfo(otf); ok && maxp.HasExtendedProfile {
		data = append(data,
			[]string{"max points / contours", fmt.Sprintf("%d / %d", maxp.MaxPoints, maxp.MaxContours)},
			[]string{"max component depth", fmt.Sprintf("%d", maxp.MaxComponentDepth)},
		)
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil, false
}

// parseCodePoint accepts a character, or a code-point in the notation U+0041
// or 0x41.
func parseCodePoint(arg string) (rune, error) {
	upper := strings.ToUpper(arg)
	for _, prefix := range []string{"U+", "0X"} {
		if strings.HasPrefix(upper, prefix) {
			n, err := strconv.ParseUint(upper[len(prefix):], 16, 32)
			if err != nil {
				return 0, fmt.Errorf("invalid code-point %s: %w", arg, err)
			}
			return rune(n), nil
		}
	}
	if r, size := utf8.DecodeRuneInString(arg); size > 0 && size == len(arg) {
		return r, nil
	}
	return 0, fmt.Errorf("expected a single character or U+XXXX, have '%s'", arg)
}

func mapOp(intp *Intp, op *Op) (error, bool) {
	data := [][]string{{"Code-point", "Name", "Glyph", "Glyph name", "Advance", "Class"}}
	for _, arg := range strings.Fields(op.arg) {
		r, err := parseCodePoint(arg)
		if err != nil {
			return err, false
		}
		gid := intp.face.GlyphIndex(r)
		data = append(data, []string{
			fmt.Sprintf("U+%04X", r),
			runenames.Name(r),
			fmt.Sprintf("%d", gid),
			intp.face.GlyphName(gid),
			fmt.Sprintf("%g", intp.face.Advance(gid)),
			otquery.ClassesForGlyph(intp.face.Font(), gid).Class.String(),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil, false
}

// outlineOp dumps the outline of a glyph, given by glyph index or by
// code-point.
func outlineOp(intp *Intp, op *Op) (error, bool) {
	gid, err := intp.glyphArg(op.arg)
	if err != nil {
		return err, false
	}
	o, err := intp.face.Outline(gid)
	if err != nil {
		return err, false
	}
	pterm.Printf("glyph %d: %d segments, %d figures, bounds %v\n", gid, len(o.Segments), o.Figures(), o.Bounds)
	for _, s := range o.Segments {
		pts := make([]string, s.ArgCount())
		for i := range pts {
			pts[i] = fmt.Sprintf("(%g,%g)", s.Args[i].X, s.Args[i].Y)
		}
		pterm.Printf("  %-8s %s\n", s.Op, strings.Join(pts, " "))
	}
	return nil, false
}

func (intp *Intp) glyphArg(arg string) (ot.GlyphIndex, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n >= intp.face.NumGlyphs() {
			return 0, fmt.Errorf("glyph index out of range: %d", n)
		}
		return ot.GlyphIndex(n), nil
	}
	r, err := parseCodePoint(arg)
	if err != nil {
		return 0, err
	}
	return intp.face.GlyphIndex(r), nil
}

func printLookupList(tag ot.Tag, table *ot.LayoutTable, isGPos bool) {
	ll := table.Lookups
	count := ll.Len()
	pterm.Printf("%s LookupList has %d entries\n", tag, count)
	if count == 0 {
		return
	}
	data := [][]string{
		{"Index", "Type", "Subtables", "Flags"},
	}
	for i := range count {
		lookup := ll.Lookup(i)
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			formatLookupType(lookup.EffectiveType(), isGPos),
			fmt.Sprintf("%d", lookup.SubtableCount()),
			formatLookupFlags(lookup.Flag),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printLookup(table *ot.LayoutTable, index int, isGPos bool) {
	lookup := table.Lookups.Lookup(index)
	if lookup == nil {
		pterm.Error.Printf("Lookup index out of range: %d\n", index)
		return
	}
	pterm.Printf("Lookup %d: type=%s flags=%s subtables=%d\n",
		index,
		formatLookupType(lookup.EffectiveType(), isGPos),
		formatLookupFlags(lookup.Flag),
		lookup.SubtableCount(),
	)
	data := [][]string{
		{"Sub", "Type", "Format", "Coverage", "Payload"},
	}
	for i, sub := range lookup.Range() {
		if sub == nil {
			continue
		}
		payload := formatPayload(sub)
		if err := sub.Error(); err != nil {
			payload = "error: " + err.Error()
		}
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			formatLookupType(sub.LookupType, isGPos),
			fmt.Sprintf("%d", sub.Format),
			formatCoverageSummary(sub.Coverage),
			payload,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func formatLookupType(ltype ot.LayoutTableLookupType, isGPos bool) string {
	if ltype == 0 {
		return "Unknown(0)"
	}
	if isGPos {
		return ltype.GPosString()
	}
	return ltype.GSubString()
}

func formatLookupFlags(flag ot.LayoutTableLookupFlag) string {
	if flag == 0 {
		return "-"
	}
	parts := make([]string, 0, 6)
	if flag&ot.LOOKUP_FLAG_RIGHT_TO_LEFT != 0 {
		parts = append(parts, "RightToLeft")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_BASE_GLYPHS != 0 {
		parts = append(parts, "IgnoreBase")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_LIGATURES != 0 {
		parts = append(parts, "IgnoreLigatures")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_MARKS != 0 {
		parts = append(parts, "IgnoreMarks")
	}
	if flag&ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		parts = append(parts, "UseMarkFilteringSet")
	}
	if t := flag.MarkAttachmentType(); t != 0 {
		parts = append(parts, fmt.Sprintf("MarkAttachType=%d", t))
	}
	return strings.Join(parts, "|")
}

func formatCoverageSummary(cov *ot.Coverage) string {
	if cov == nil {
		return "-"
	}
	return fmt.Sprintf("count=%d", cov.Len())
}

func formatPayload(sub *ot.LookupNode) string {
	switch {
	case sub.GSub != nil:
		p := sub.GSub
		switch {
		case len(p.LigatureSets) > 0:
			return fmt.Sprintf("ligature sets=%d", len(p.LigatureSets))
		case len(p.Sequences) > 0:
			return fmt.Sprintf("sequences=%d", len(p.Sequences))
		case len(p.Alternates) > 0:
			return fmt.Sprintf("alternate sets=%d", len(p.Alternates))
		case len(p.Substitutes) > 0:
			return fmt.Sprintf("substitutes=%d", len(p.Substitutes))
		}
		return fmt.Sprintf("delta=%d", p.DeltaGlyphID)
	case sub.GPos != nil:
		p := sub.GPos
		switch {
		case len(p.PairSets) > 0:
			return fmt.Sprintf("pair sets=%d", len(p.PairSets))
		case p.ClassDef1 != nil:
			return fmt.Sprintf("classes=%d×%d", p.Class1Count, p.Class2Count)
		case len(p.EntryExits) > 0:
			return fmt.Sprintf("entry/exit=%d", len(p.EntryExits))
		case len(p.Marks) > 0:
			return fmt.Sprintf("marks=%d classes=%d", len(p.Marks), p.MarkClassCount)
		}
		return "value records"
	case sub.Context != nil:
		c := sub.Context
		return fmt.Sprintf("seqctx rulesets=%d in=%d", len(c.RuleSets), len(c.InputCoverages))
	case sub.Chained != nil:
		c := sub.Chained
		return fmt.Sprintf("chainctx rulesets=%d back=%d in=%d look=%d",
			len(c.RuleSets), len(c.BacktrackCoverages), len(c.InputCoverages), len(c.LookaheadCoverages))
	}
	return "-"
}
