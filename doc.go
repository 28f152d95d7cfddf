/*
Package opentext is the entry point for loading fonts and setting text.

We stick to the following nomenclature:

▪︎ A "font family" is a set of fonts sharing a design, e.g., "Helvetica".
A TrueType collection (*.ttc) frequently holds a complete family.

▪︎ A "font" is a variant of a family with a certain weight and slant, e.g.,
"Helvetica Bold".

▪︎ A "face" (package otface) is the typographic view of a font: glyph metrics,
outlines and caches. Faces are expensive to create and are created on first
use.

Fonts are kept in a FontCollection, an explicit registry owned by the
application. There is no process-wide font cache.

	fonts := opentext.NewFontCollection()
	if _, err := fonts.AddFile("/Library/Fonts/Georgia.ttf"); err != nil {
		...
	}
	font, err := fonts.Match("Georgia", opentext.Style{Weight: opentext.WeightRegular})
	...
	lines, err := font.Layout("Hello World", nil)

Packages ot, otface, otshape and textlayout give finer control.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package opentext

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'text.layout'
func tracer() tracing.Trace {
	return tracing.Select("text.layout")
}
