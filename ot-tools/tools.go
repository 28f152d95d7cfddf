/*
Command ot-tools runs font diagnostics, shaping and rendering from the
command line.

	ot-tools font Georgia.ttf GSUB,GPOS
	ot-tools shape --script Arab --direction rtl Amiri.ttf "سلام"
	ot-tools view --output hello.png --width 300 Georgia.ttf "Hello World"

Text may as well be given as code-points, which is handy for scripts the
terminal cannot display:

	ot-tools shape --codepoints "U+0915 U+094D U+0937" NotoSansDevanagari.ttf

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"cmp"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thatisuday/commando"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/opentext"
	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otshape"
)

func main() {
	commando.
		SetExecutableName("ot-tools").
		SetVersion("v0.1.0").
		SetDescription("Font diagnostics, shaping and rendering for OpenType fonts.")

	withTextInput(fontCommand("shape", "print the shaped glyph stream",
		"Shapes text and prints glyph, cluster, advance and offsets of every glyph, in font units.")).
		AddFlag("script,s", "ISO 15924 script code", commando.String, "Latn").
		AddFlag("lang,l", "BCP 47 language", commando.String, "en").
		AddFlag("direction,d", "text direction, ltr or rtl", commando.String, "ltr").
		AddFlag("features,f", `features to switch, as in "+smcp,-kern,salt=2"`, commando.String, "-").
		SetAction(runShapeCommand)

	withTextInput(fontCommand("view", "render text to PNG",
		"Lays out text, wrapped at the image width, and renders it to a PNG file.")).
		AddFlag("direction,d", "paragraph direction, ltr or rtl", commando.String, "ltr").
		AddFlag("output,o", "PNG file to write", commando.String, "ot-tools-view.png").
		AddFlag("size,p", "font size in pixels", commando.Int, 32).
		AddFlag("width,W", "image width in pixels", commando.Int, 320).
		AddFlag("height,H", "image height in pixels", commando.Int, 240).
		AddFlag("show-bboxes,B", "outline glyph boxes in red", commando.Bool, nil).
		AddFlag("underline,u", "underline the text", commando.Bool, nil).
		SetAction(runViewCommand)

	fontCommand("font", "font diagnostics",
		"Prints names, tables and scripts of a font. Tables given by tag are located in the font file.").
		AddArgument("tables...", `table tags, as in "GSUB,GPOS,head"`, "").
		AddFlag("errors,e", "list errors and warnings of parsing", commando.Bool, nil).
		AddFlag("names,n", "list the English name records", commando.Bool, nil).
		SetAction(runFontCommand)

	commando.Parse(nil)
}

// fontCommand registers a command working on a font file. Members of font
// collections are selected by --index.
func fontCommand(name, short, long string) *commando.Command {
	return commando.Register(name).
		SetShortDescription(short).
		SetDescription(long).
		AddArgument("font", "font or font collection file", "").
		AddFlag("index,i", "member of a font collection", commando.Int, 0)
}

func withTextInput(cmd *commando.Command) *commando.Command {
	return cmd.
		AddArgument("text...", "text to process", "").
		AddFlag("codepoints,c", `code-points instead of text, as in "U+0627 U+0644"`, commando.String, "-")
}

// --- Arguments and flags -----------------------------------------------

// flagOf reads a flag with one of the typed getters of commando.FlagValue.
func flagOf[T any](flags map[string]commando.FlagValue, name string, get func(commando.FlagValue) (T, error)) T {
	v, err := get(flags[name])
	if err != nil {
		fatalf("flag --%s: %v", name, err)
	}
	return v
}

func stringFlag(flags map[string]commando.FlagValue, name string) string {
	return flagOf(flags, name, commando.FlagValue.GetString)
}

func intFlag(flags map[string]commando.FlagValue, name string) int {
	return flagOf(flags, name, commando.FlagValue.GetInt)
}

func boolFlag(flags map[string]commando.FlagValue, name string) bool {
	return flagOf(flags, name, commando.FlagValue.GetBool)
}

// openFace loads the face selected by the font argument and --index.
func openFace(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) (string, *otface.Face) {
	path := strings.TrimSpace(args["font"].Value)
	if path == "" {
		fatalf("no font file given")
	}
	fonts, err := opentext.NewFontCollection().AddFile(path)
	if err != nil {
		fatalf("loading %s: %v", path, err)
	}
	index := intFlag(flags, "index")
	if index < 0 || index >= len(fonts) {
		fatalf("%s contains %d font(s), no index %d", path, len(fonts), index)
	}
	face, err := fonts[index].Face()
	if err != nil {
		fatalf("%v", err)
	}
	return path, face
}

// inputText returns the text of a command. It fails for empty input.
func inputText(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) string {
	text, err := parseShapeInput(args["text"].Value, stringFlag(flags, "codepoints"))
	if err != nil {
		fatalf("%v", err)
	}
	if text == "" {
		fatalf("no text given")
	}
	return text
}

// isUnset is true for flags left at their default "-".
func isUnset(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-"
}

// parseShapeInput returns the text given as code-points, if any, and text
// otherwise.
func parseShapeInput(text, codepoints string) (string, error) {
	if isUnset(codepoints) {
		return text, nil
	}
	rs, err := parseCodepoints(codepoints)
	return string(rs), err
}

func parseScript(s string) (language.Script, error) {
	scr, err := language.ParseScript(cmp.Or(strings.TrimSpace(s), "Latn"))
	if err != nil {
		err = fmt.Errorf("script %q: %w", s, err)
	}
	return scr, err
}

func parseLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(cmp.Or(strings.TrimSpace(s), "en"))
	if err != nil {
		err = fmt.Errorf("language %q: %w", s, err)
	}
	return tag, err
}

var directions = map[string]bidi.Direction{
	"":              bidi.LeftToRight,
	"ltr":           bidi.LeftToRight,
	"left-to-right": bidi.LeftToRight,
	"rtl":           bidi.RightToLeft,
	"right-to-left": bidi.RightToLeft,
}

func parseDirection(s string) (bidi.Direction, error) {
	if dir, ok := directions[strings.ToLower(strings.TrimSpace(s))]; ok {
		return dir, nil
	}
	return bidi.LeftToRight, fmt.Errorf("direction %q is neither ltr nor rtl", s)
}

// parseFeatureList parses a list of features, separated by commas or blanks.
func parseFeatureList(s string) ([]otshape.FeatureRange, error) {
	if isUnset(s) {
		return nil, nil
	}
	var list []otshape.FeatureRange
	for _, item := range fields(s) {
		f, err := parseFeatureItem(item)
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, nil
}

// parseFeatureItem parses one of "liga", "+liga", "-liga" or "salt=2".
// A value of 0 switches a feature off.
func parseFeatureItem(item string) (otshape.FeatureRange, error) {
	f := otshape.FeatureRange{Arg: 1, On: true}
	tag := strings.TrimSpace(item)
	if tag != "" {
		switch tag[0] {
		case '-':
			f.On = false
			tag = tag[1:]
		case '+':
			tag = tag[1:]
		}
	}
	if t, val, found := strings.Cut(tag, "="); found {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return f, fmt.Errorf("feature %q: value is not a number", item)
		}
		tag, f.Arg, f.On = t, n, n != 0
	}
	if tag = strings.TrimSpace(tag); len(tag) != 4 {
		return f, fmt.Errorf("feature %q: tag must have 4 characters", item)
	}
	f.Feature = ot.T(tag)
	return f, nil
}

// parseCodepoints parses hexadecimal code-points, with optional prefix
// "U+" or "0x".
func parseCodepoints(s string) ([]rune, error) {
	var rs []rune
	for _, field := range fields(s) {
		digits := strings.ToUpper(field)
		for _, prefix := range []string{"U+", "0X"} {
			digits = strings.TrimPrefix(digits, prefix)
		}
		n, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return nil, fmt.Errorf("%q is not a code-point", field)
		}
		rs = append(rs, rune(n))
	}
	return rs, nil
}

// fields splits s at commas and white space.
func fields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ot-tools: "+format+"\n", args...)
	os.Exit(1)
}
