package opentext

import (
	glang "github.com/go-text/typesetting/language"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/textlayout"
)

// Shape shapes text as a single run with font f. Direction and script are
// taken from the first character which determines them. Clients who need
// more control over shaping, such as shaping multiple runs, use package
// otshape or Layout.
func (f *Font) Shape(text string, features ...otshape.FeatureRange) (*otshape.PositioningCollection, error) {
	face, err := f.Face()
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	params := otshape.Params{
		Face:      face,
		Direction: direction(runes),
		Script:    script(runes),
		Language:  language.Und,
		Features:  features,
		PointSize: 12,
	}
	tracer().Debugf("shaping %d code-points with %s, script %s", len(runes), f, params.Script)
	return textlayout.DefaultShaper().Shape(params, runes)
}

// Layout lays out text with f as primary font. If opts is nil, default
// options are used. The font of opts is replaced by f.
func (f *Font) Layout(text string, opts *textlayout.Options) ([]textlayout.TextLine, error) {
	face, err := f.Face()
	if err != nil {
		return nil, err
	}
	o := textlayout.DefaultOptions()
	if opts != nil {
		c := *opts
		o = &c
	}
	o.Font = face
	return textlayout.LayoutLines(text, o)
}

// direction returns the direction of the first strong character.
func direction(text []rune) bidi.Direction {
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.L:
			return bidi.LeftToRight
		case bidi.R, bidi.AL:
			return bidi.RightToLeft
		}
	}
	return bidi.LeftToRight
}

// script returns the first script of text which is not Common or
// Inherited.
func script(text []rune) language.Script {
	for _, r := range text {
		switch s := glang.LookupScript(r); s {
		case glang.Common, glang.Inherited, glang.Unknown:
			continue
		default:
			code := string([]byte{byte(s >> 24), byte(s >> 16), byte(s >> 8), byte(s)})
			if sc, err := language.ParseScript(code); err == nil {
				return sc
			}
		}
	}
	return language.MustParseScript("Zyyy")
}
