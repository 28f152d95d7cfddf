package otshape

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"

	"github.com/npillmayer/opentext/ot"
	"github.com/npillmayer/opentext/otface"
)

// Params collects shaping parameters.
type Params struct {
	Face       *otface.Face      // font face to shape with
	Direction  bidi.Direction    // writing direction, LeftToRight or RightToLeft
	Script     language.Script   // 4-letter ISO 15924 script identifier
	Language   language.Tag      // BCP 47 language tag
	Features   []FeatureRange    // OpenType features to switch on or off
	Attributes otface.Attributes // synthesized styles of glyph metrics
	ColorFonts bool              // resolve COLR color layers
	Vertical   bool              // vertical metrics
	PointSize  float32           // size of the font, in points
}

// FeatureRange tells a shaper to turn a certain OpenType feature on or off for a
// run of code-points. A range with End == 0 extends to the end of the text;
// a range with Start == 0 and End == 0 applies to the complete text.
type FeatureRange struct {
	Feature    ot.Tag // 4-letter feature tag
	Arg        int    // optional argument for this feature, e.g. an alternate
	On         bool   // turn it on or off?
	Start, End int    // position of code-points to apply feature for
}

func (fr FeatureRange) global() bool {
	return fr.Start <= 0 && fr.End <= 0
}

func (fr FeatureRange) String() string {
	sign := "-"
	if fr.On {
		sign = "+"
	}
	if fr.global() {
		return fmt.Sprintf("%s%s", sign, fr.Feature)
	}
	return fmt.Sprintf("%s%s[%d:%d]", sign, fr.Feature, fr.Start, fr.End)
}

// validate checks the caller's part of the contract.
func (p Params) validate() error {
	if p.Face == nil {
		return fmt.Errorf("%w: shaping without font face", ot.ErrInvalidArgument)
	}
	if p.PointSize < 0 {
		return fmt.Errorf("%w: negative point size %g", ot.ErrInvalidArgument, p.PointSize)
	}
	for _, fr := range p.Features {
		if fr.Start < 0 || (fr.End > 0 && fr.End < fr.Start) {
			return fmt.Errorf("%w: feature range %s", ot.ErrInvalidArgument, fr)
		}
	}
	return nil
}

func (p Params) rightToLeft() bool {
	return p.Direction == bidi.RightToLeft
}
