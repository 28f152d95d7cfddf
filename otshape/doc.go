/*
Package otshape shapes runs of text with OpenType fonts.

A run of text is a sequence of code-points of a single script, language and
direction. Shaping maps the code-points to glyphs, applies the GSUB features of
the font, and positions the glyphs with GPOS (or the kern table). The result is
a PositioningCollection, which holds immutable glyph metrics together with the
positioning deltas of the run.

	shaper := otshape.NewShaper(otcore.New(), otarabic.New())
	glyphs, err := shaper.Shape(otshape.Params{Face: face, Direction: bidi.LeftToRight}, []rune("office"))

Script specific knowledge lives in shaping engines (packages otcore, otarabic,
othebrew, otindic and otuse). The shaper selects the engine which matches a run
best (see ShapingEngine). Engines contribute features, set feature masks of glyphs,
and may reorder glyphs between GSUB stages by implementing the optional hook
interfaces of this package.

Shaping a run compiles a plan: the features to apply, a feature mask bit for
every feature which does not apply to all glyphs, and the GSUB lookups of each
stage. Stages are separated by pauses, where engines may inspect and modify the
glyphs.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otshape

import (
	"errors"
	"fmt"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/schuko/tracing"
)

// NOTDEF is the glyph index for OpenType ".notdef".
const NOTDEF = ot.GlyphIndex(0)

// tracer returns a trace sink for the otshape package namespace.
func tracer() tracing.Trace {
	return tracing.Select("opentype.shaper")
}

// errShaper wraps a message as a user-facing shaping error.
func errShaper(x string) error {
	return fmt.Errorf("OpenType text shaping: %s", x)
}

var (
	// ErrNoShaper is returned if a shaper has no shaping engines.
	ErrNoShaper = errors.New("no shaping engine configured")
	// ErrNoMatchingShaper is returned if no engine accepts a run.
	ErrNoMatchingShaper = errors.New("no shaping engine matches run")
)
