/*
Package otface resolves glyphs of an OpenType font: glyph indices for
code-points, glyph outlines and glyph metrics.

A Face wraps a parsed ot.Font. It is either a TrueType face (outlines from
glyf/loca) or a compact font face (outlines from CFF or CFF2), see Kind.
Composite TrueType glyphs and CFF subroutines are resolved with explicit work
stacks of bounded depth, so malformed fonts cannot exhaust the goroutine stack.

For variable fonts, clients derive a face for an instance with WithVariation.
Outlines and advances of that face include the deltas of gvar, CFF2 blend and
HVAR.

A Face is immutable after creation and safe for concurrent use by multiple
goroutines. Results are memoized in concurrency-safe caches.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otface

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}

// Errors of glyph resolution. Errors returned by a Face wrap one of these or
// an error of package ot.
var (
	// ErrCompositeCycle is returned for composite glyphs which directly or
	// indirectly contain themselves.
	ErrCompositeCycle = errors.New("composite glyph references itself")
	// ErrCompositeDepth is returned for composite glyphs nested deeper than
	// ot.MaxCompositeDepth or with more than ot.MaxCompositeComponents components.
	ErrCompositeDepth = errors.New("composite glyph nested too deeply")
	// ErrAxisOutOfRange is returned by WithVariation for coordinates outside
	// of an axis' range.
	ErrAxisOutOfRange = errors.New("variation coordinate out of axis range")
	// ErrCharString is returned for malformed CFF charstrings.
	ErrCharString = errors.New("invalid charstring")
)
