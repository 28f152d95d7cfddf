/*
Package otlayout applies OpenType layout features to a sequence of glyphs.

Clients put the glyphs of a run of text into a SubstitutionCollection, select
the features of a font for a script and language (FontFeatures), and apply the
lookups of these features in lookup-list order (ApplyLookups). GSUB lookups
substitute glyphs, GPOS lookups record positioning adjustments and attachments
in the collection. Resolving attachments to final glyph positions requires
glyph metrics and is left to the shaper.

Which glyph a feature applies to is decided by feature masks: every glyph
carries a mask, every scheduled lookup carries the mask of its features, and a
lookup is tried only at glyphs where the masks intersect. Script shapers
express their knowledge (e.g., Arabic joining forms) by setting glyph masks.

Fonts are untrusted input. Lookup application is bounded by a budget of
operations derived from the length of the input, see MaxOperations. A pass
which exhausts its budget is aborted with ErrShapingLimit, keeping all
substitutions made so far.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otlayout

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// errFontFormat produces user level errors for font parsing.
func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}

// tracer writes to trace with key 'opentype.layout'
func tracer() tracing.Trace {
	return tracing.Select("opentype.layout")
}

// ErrShapingLimit is returned if the application of lookups exceeded its budget
// of operations or the collection exceeded its maximum length.
var ErrShapingLimit = errors.New("shaping operation limit exceeded")

// Limits for the application of lookups.
const (
	MaxOpsFactor    = 64    // operations per input glyph
	MinOps          = 16384 // operations for short inputs
	MaxLenFactor    = 32    // growth of a collection by multiple substitutions
	MinLen          = 8192
	MaxNestingLevel = 64 // nested lookups of contextual lookups
	MaxContextLen   = 64 // glyphs matched by a contextual rule
)

// MaxOperations returns the number of lookup operations allowed for a
// pass over n glyphs.
func MaxOperations(n int) int {
	return max(n*MaxOpsFactor, MinOps)
}

// MaxLength returns the maximum length a collection of n input glyphs may
// grow to.
func MaxLength(n int) int {
	return max(n*MaxLenFactor, MinLen)
}
