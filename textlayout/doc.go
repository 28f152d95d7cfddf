/*
Package textlayout lays out paragraphs of text with OpenType fonts.

A layout call runs through a fixed sequence of steps: the text is split into
paragraphs and resolved into bidi runs, the runs are itemized by script and by
text-run overrides, every item is shaped with the primary font, and graphemes
the primary font cannot display are shaped again with the fallback fonts.
The resulting glyphs are broken into lines, reordered visually and placed.

	opts := textlayout.DefaultOptions()
	opts.Font = face
	opts.WrapLength = fixed.I(300)
	glyphs, err := textlayout.Layout("Hello World", opts)

The result is a flat slice of GlyphLayout records, one per glyph, in visual
order line by line. Render drives a GlyphRenderer with the outlines of a
layout.

Coordinates are in output units: font units scaled by point size and
resolution. The y-axis points down; pen locations are on the baseline.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package textlayout
