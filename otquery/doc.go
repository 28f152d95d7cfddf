/*
Package otquery answers questions about an OpenType font which need more than
a single table lookup: the type of the font, its names, font-wide and
per-glyph metrics, and which scripts and languages its layout tables support.

Functions of this package never fail. Information missing from a font is
reported as zero values, or as ok == false where that distinction matters.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}
