package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/image/math/fixed"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/textlayout"
)

// parseFeatures splits leading feature switches like "+smcp" or "-liga"
// from the text argument of a command.
func parseFeatures(arg string) ([]otshape.FeatureRange, string) {
	var features []otshape.FeatureRange
	rest := arg
	for {
		word, tail, _ := strings.Cut(rest, " ")
		if len(word) != 5 || (word[0] != '+' && word[0] != '-') {
			return features, rest
		}
		features = append(features, otshape.FeatureRange{Feature: ot.T(word[1:]), On: word[0] == '+'})
		rest = tail
	}
}

// shapeOp shapes text with the current font, e.g. "shape -liga office".
func shapeOp(intp *Intp, op *Op) (error, bool) {
	features, text := parseFeatures(op.arg)
	if text == "" {
		return fmt.Errorf("nothing to shape"), false
	}
	pc, err := intp.font.Shape(text, features...)
	if err != nil {
		return err, false
	}
	if pc.Limited {
		pterm.Warning.Println("shaping stopped early, too many lookup operations")
	}
	data := [][]string{{"Glyph", "Name", "Offset", "Code-points", "Advance", "Offset x/y"}}
	for _, g := range pc.Glyphs {
		data = append(data, []string{
			fmt.Sprintf("%d", g.Glyph),
			intp.face.GlyphName(g.Glyph),
			fmt.Sprintf("%d", g.Offset),
			fmt.Sprintf("%q", string(g.CodePoints)),
			fmt.Sprintf("%g", g.AdvanceWidth()),
			fmt.Sprintf("%g/%g", g.Delta.XOffset, g.Delta.YOffset),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Printf("%d glyphs, total advance %g units\n", pc.Len(), pc.Advance())
	return nil, false
}

// layoutOp lays out text with the current font at 12pt. A leading width
// in points, like "layout 200 some text", sets the wrapping length.
func layoutOp(intp *Intp, op *Op) (error, bool) {
	opts := textlayout.DefaultOptions()
	text := op.arg
	var width int
	if n, err := fmt.Sscanf(op.arg, "%d ", &width); err == nil && n == 1 {
		_, text, _ = strings.Cut(op.arg, " ")
		opts.WrapLength = fixed.I(width)
	}
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\t`, "\t")
	lines, err := intp.font.Layout(text, opts)
	if err != nil {
		return err, false
	}
	for i, l := range lines {
		pterm.Printf("line %d at (%.2f, %.2f), advance %.2f, wrapped=%v\n", i,
			f26(l.Origin.X), f26(l.Origin.Y), f26(l.Advance), l.Wrapped)
		data := [][]string{{"Glyph", "Char", "Index", "Pen x/y", "Advance", "Level"}}
		for _, g := range l.Glyphs {
			data = append(data, []string{
				fmt.Sprintf("%d", g.Glyph),
				fmt.Sprintf("%q", g.CodePoint),
				fmt.Sprintf("%d", g.StringIndex),
				fmt.Sprintf("%.2f/%.2f", f26(g.PenLocation.X), f26(g.PenLocation.Y)),
				fmt.Sprintf("%.2f", f26(g.Advance)),
				fmt.Sprintf("%d", g.Level),
			})
		}
		pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}
	return nil, false
}

func f26(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
