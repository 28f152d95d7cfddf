/*
Package ot provides access to OpenType font tables.

Intended audience for this package are:

▪︎ text shapers, which need the advanced typographic tables GSUB, GPOS and GDEF

▪︎ glyph outline resolvers, which need glyf/loca, CFF/CFF2 and the variation tables

▪︎ text layout engines, which need metrics tables (hhea, hmtx, vhea, vmtx, OS/2, post)

Package `ot` does not interpret the tables beyond decoding them into Go types.
For example, it is not possible to ask package `ot` for the kerning distance
between two glyphs; clients consult the kern or GPOS table themselves, or use one of
the sister packages (otlayout, otface, otquery).

Fonts are untrusted input. Every offset and length is validated against the
bounds of the enclosing table before it is followed. Structural errors in required
tables make Parse fail with an error wrapping ErrInvalidFont; recoverable problems
are collected as FontErrors and FontWarnings and may be inspected after parsing.

Offsets in OpenType are relative to the start of the structure which contains
them. Package `ot` hides this, as well as the concrete format versions of
sub-tables.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}
