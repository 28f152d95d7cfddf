package main

import (
	"fmt"
	"strings"

	"github.com/thatisuday/commando"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/textlayout"
)

func runShapeCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	_, face := openFace(args, flags)
	input := inputText(args, flags)
	script, err := parseScript(stringFlag(flags, "script"))
	if err != nil {
		fatalf("%v", err)
	}
	lang, err := parseLanguage(stringFlag(flags, "lang"))
	if err != nil {
		fatalf("%v", err)
	}
	dir, err := parseDirection(stringFlag(flags, "direction"))
	if err != nil {
		fatalf("%v", err)
	}
	features, err := parseFeatureList(stringFlag(flags, "features"))
	if err != nil {
		fatalf("%v", err)
	}
	params := otshape.Params{
		Face:      face,
		Direction: dir,
		Script:    script,
		Language:  lang,
		Features:  features,
		PointSize: 12,
	}
	out, err := shapeText(textlayout.DefaultShaper(), params, input)
	if err != nil {
		fatalf("shaping failed: %v", err)
	}
	fmt.Println(out)
}

// shapeText shapes input and formats the glyphs of the result.
func shapeText(shaper *otshape.Shaper, params otshape.Params, input string) (string, error) {
	pc, err := shaper.Shape(params, []rune(input))
	if err != nil {
		return "", err
	}
	out := formatGlyphOutput(pc)
	if pc.Limited {
		out += " (limited)"
	}
	return out, nil
}

// formatGlyphOutput prints glyphs as gid=cluster+advance, followed by
// @xoffset,yoffset if the glyph is moved, in font units.
func formatGlyphOutput(pc *otshape.PositioningCollection) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, g := range pc.Glyphs {
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%d=%d+%d", g.Glyph, g.Offset, round(g.AdvanceWidth()))
		if g.Delta.XOffset != 0 || g.Delta.YOffset != 0 {
			fmt.Fprintf(&b, "@%d,%d", round(g.Delta.XOffset), round(g.Delta.YOffset))
		}
	}
	b.WriteByte(']')
	return b.String()
}

func round(f float32) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// directionFor maps the direction flag of a command to a paragraph direction.
func directionFor(dir bidi.Direction) textlayout.Direction {
	if dir == bidi.RightToLeft {
		return textlayout.DirectionRTL
	}
	return textlayout.DirectionLTR
}

