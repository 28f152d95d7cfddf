package textlayout

import (
	"fmt"

	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
	"github.com/npillmayer/opentext/otshape"
	"github.com/npillmayer/opentext/otshape/otarabic"
	"github.com/npillmayer/opentext/otshape/otcore"
	"github.com/npillmayer/opentext/otshape/othebrew"
	"github.com/npillmayer/opentext/otshape/otindic"
	"github.com/npillmayer/opentext/otshape/otuse"
)

// WordBreaking selects where lines may be wrapped.
type WordBreaking uint8

const (
	// BreakStandard wraps at line-break opportunities of UAX #14.
	BreakStandard WordBreaking = iota
	// BreakAll wraps at any grapheme if a line overflows.
	BreakAll
	// KeepAll does not break between ideographs of CJK scripts.
	KeepAll
)

// Direction is the base direction of paragraphs.
type Direction uint8

const (
	DirectionAuto Direction = iota // derived from the first strong character
	DirectionLTR
	DirectionRTL
)

// Alignment places lines horizontally within the wrapping length.
type Alignment uint8

const (
	AlignStart Alignment = iota // left for left-to-right paragraphs, right otherwise
	AlignEnd
	AlignLeft
	AlignRight
	AlignCenter
)

// VerticalAlignment places the text block relative to y = 0.
type VerticalAlignment uint8

const (
	AlignTop      VerticalAlignment = iota // top of the first line at y = 0
	AlignBaseline                          // baseline of the first line at y = 0
	AlignMiddle
	AlignBottom
)

// LayoutMode selects horizontal or vertical lines.
type LayoutMode uint8

const (
	Horizontal LayoutMode = iota
	// Vertical sets upright glyphs top to bottom, with columns from right to
	// left. Characters which are sideways in vertical text are rotated.
	Vertical
	// VerticalRotated sets lines like Horizontal, for the renderer to rotate
	// them by 90 degrees clockwise.
	VerticalRotated
)

// KerningMode selects pair kerning.
type KerningMode uint8

const (
	KerningAuto KerningMode = iota // GPOS 'kern', or the kern table
	KerningNone
)

// Decoration is a set of text decorations.
type Decoration uint8

const (
	Underline Decoration = 1 << iota
	Strikeout
	Overline
)

// TextRun overrides the font, styles or decorations for the code-points
// [Start, End) of the text. Later runs win over earlier ones.
type TextRun struct {
	Start, End  int
	Font        *otface.Face // nil keeps the primary font
	Attributes  otface.Attributes
	Decorations Decoration
}

// Options configures a layout.
type Options struct {
	Font          *otface.Face
	FallbackFonts []*otface.Face
	PointSize     float32
	DPI           float32
	TabWidth      int     // in advances of the space glyph
	LineSpacing   float32 // factor for the line height of the font
	WrapLength    fixed.Int26_6
	WordBreaking  WordBreaking
	Direction     Direction
	Language      language.Tag
	Alignment     Alignment
	VAlignment    VerticalAlignment
	Justify       bool // stretch wrapped lines to the wrapping length
	Mode          LayoutMode
	Kerning       KerningMode
	ColorFonts    bool // resolve COLR color layers
	Features      []otshape.FeatureRange
	Runs          []TextRun
	Normalize     bool // NFC-normalize the text before layout
	Shaper        *otshape.Shaper
}

// DefaultOptions returns options for 12pt text at 72 dpi without wrapping.
// The font has to be set by the caller.
func DefaultOptions() *Options {
	return &Options{
		PointSize:   12,
		DPI:         72,
		TabWidth:    4,
		LineSpacing: 1,
		Language:    language.Und,
		Normalize:   true,
	}
}

// DefaultShaper returns a shaper with all shaping engines of this module.
func DefaultShaper() *otshape.Shaper {
	return otshape.NewShaper(otcore.New(), otarabic.New(), othebrew.New(), otindic.New(), otuse.New())
}

func (o *Options) validate() error {
	if o == nil {
		return fmt.Errorf("%w: layout without options", ot.ErrInvalidArgument)
	}
	if o.Font == nil {
		return fmt.Errorf("%w: layout without font", ot.ErrInvalidArgument)
	}
	if o.PointSize < 0 || o.DPI < 0 || o.TabWidth < 0 || o.LineSpacing < 0 || o.WrapLength < 0 {
		return fmt.Errorf("%w: negative size in layout options", ot.ErrInvalidArgument)
	}
	for _, f := range o.FallbackFonts {
		if f == nil {
			return fmt.Errorf("%w: nil fallback font", ot.ErrInvalidArgument)
		}
	}
	for _, r := range o.Runs {
		if r.Start < 0 || r.End < r.Start {
			return fmt.Errorf("%w: text run [%d:%d]", ot.ErrInvalidArgument, r.Start, r.End)
		}
	}
	return nil
}

// scale returns the factor from font units of face to output units.
func (o *Options) scale(face *otface.Face) float32 {
	dpi := o.DPI
	if dpi == 0 {
		dpi = 72
	}
	return o.PointSize * dpi / 72 / face.UnitsPerEm()
}

func (o *Options) shaper() *otshape.Shaper {
	if o.Shaper != nil {
		return o.Shaper
	}
	return defaultShaper
}

var defaultShaper = DefaultShaper()
