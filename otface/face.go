package otface

import (
	"fmt"

	"github.com/npillmayer/opentext/internal/syncmap"
	"github.com/npillmayer/opentext/ot"
)

// Kind tells where the outlines of a face come from.
type Kind uint8

const (
	TrueType    Kind = iota // glyf/loca
	CompactFont             // CFF or CFF2
)

func (k Kind) String() string {
	if k == CompactFont {
		return "CFF"
	}
	return "TrueType"
}

// Options control synthesized styles and color glyph selection of a face.
type Options struct {
	Palette       int     // CPAL palette for color glyphs
	EmboldenRatio float32 // faux bold strength per side, relative to units per em
	Slant         float32 // faux italic shear factor
}

// Option sets an option of a face.
type Option func(*Options)

// WithPalette selects the CPAL palette used for color layers.
func WithPalette(i int) Option {
	return func(o *Options) { o.Palette = i }
}

// WithFauxStyles overrides the strength of synthesized bold and italic styles.
func WithFauxStyles(emboldenRatio, slant float32) Option {
	return func(o *Options) {
		o.EmboldenRatio = emboldenRatio
		o.Slant = slant
	}
}

// Face resolves glyph indices, outlines and metrics of a font.
type Face struct {
	otf    *ot.Font
	kind   Kind
	upem   float32
	opts   Options
	coords []float64 // normalized variation coordinates; nil for the default instance
	gids   *syncmap.Map[gidKey, gidResult]
	shapes *syncmap.Map[ot.GlyphIndex, outlineResult]
	gmetr  *syncmap.Map[metricsKey, []GlyphMetrics]
}

type gidKey struct {
	cp, selector rune // selector is 0 if the next code-point is not a variation selector
}

type gidResult struct {
	gid   ot.GlyphIndex
	found bool
}

type outlineResult struct {
	outline Outline
	err     error
}

type metricsKey struct {
	cp       rune
	gid      ot.GlyphIndex
	attrs    Attributes
	color    bool
	vertical bool
}

// New creates a face for a parsed font.
func New(otf *ot.Font, opts ...Option) (*Face, error) {
	if otf == nil || otf.Head == nil || otf.CMap == nil {
		return nil, fmt.Errorf("otface.New: font missing: %w", ot.ErrInvalidArgument)
	}
	f := &Face{
		otf:  otf,
		upem: float32(otf.Head.UnitsPerEm),
		opts: Options{EmboldenRatio: DefaultEmboldenRatio, Slant: DefaultSlant},
	}
	for _, opt := range opts {
		opt(&f.opts)
	}
	switch {
	case otf.Glyf != nil:
		f.kind = TrueType
	case otf.CFF != nil:
		f.kind = CompactFont
	default:
		return nil, fmt.Errorf("otface.New: font has no outlines: %w", ot.ErrInvalidFont)
	}
	if f.upem == 0 {
		f.upem = 1000
	}
	f.resetCaches()
	tracer().Debugf("new %s face with %d glyphs", f.kind, otf.NumGlyphs())
	return f, nil
}

func (f *Face) resetCaches() {
	f.gids = syncmap.New[gidKey, gidResult]()
	f.shapes = syncmap.New[ot.GlyphIndex, outlineResult]()
	f.gmetr = syncmap.New[metricsKey, []GlyphMetrics]()
}

// Font returns the underlying font.
func (f *Face) Font() *ot.Font {
	return f.otf
}

// Kind returns the outline format of the face.
func (f *Face) Kind() Kind {
	return f.kind
}

// UnitsPerEm returns the design units per em.
func (f *Face) UnitsPerEm() float32 {
	return f.upem
}

// NumGlyphs returns the number of glyphs of the face.
func (f *Face) NumGlyphs() int {
	return f.otf.NumGlyphs()
}

// TryGetGlyphID maps code-point cp to a glyph. If next is a variation selector,
// it is consumed (skipNext is true) and the variation sequence (cp, next) is
// looked up in the cmap's format 14 subtable first.
// Unmapped code-points result in glyph 0 (.notdef) and found == false.
func (f *Face) TryGetGlyphID(cp, next rune) (found bool, gid ot.GlyphIndex, skipNext bool) {
	var sel rune
	if ot.IsVariationSelector(next) {
		sel, skipNext = next, true
	}
	r := f.gids.LoadOrCompute(gidKey{cp, sel}, func() gidResult {
		if sel != 0 {
			if g, ok := f.otf.CMap.LookupVariant(cp, sel); ok {
				return gidResult{gid: g, found: g != 0}
			}
		}
		g := f.otf.CMap.Lookup(cp)
		return gidResult{gid: g, found: g != 0}
	})
	return r.found, r.gid, skipNext
}

// GlyphIndex returns the glyph for a code-point, ignoring variation sequences.
func (f *Face) GlyphIndex(cp rune) ot.GlyphIndex {
	_, gid, _ := f.TryGetGlyphID(cp, 0)
	return gid
}

// GlyphName returns the PostScript name of a glyph, or an empty string.
func (f *Face) GlyphName(gid ot.GlyphIndex) string {
	return f.otf.Post.GlyphName(gid)
}

// Outline returns the outline of glyph gid, in font units. Outlines of
// variable fonts reflect the current variation.
func (f *Face) Outline(gid ot.GlyphIndex) (Outline, error) {
	if int(gid) >= f.otf.NumGlyphs() {
		return Outline{}, fmt.Errorf("glyph %d: %w", gid, ot.ErrNoSuchGlyph)
	}
	r := f.shapes.LoadOrCompute(gid, func() outlineResult {
		var o Outline
		var err error
		if f.kind == TrueType {
			o, err = f.trueTypeOutline(gid)
		} else {
			o, err = f.cffOutline(gid)
		}
		if err != nil {
			tracer().Infof("outline of glyph %d: %v", gid, err)
		}
		return outlineResult{outline: o, err: err}
	})
	return r.outline, r.err
}

// StyledOutline returns the outline of glyph gid with synthesized styles applied.
func (f *Face) StyledOutline(gid ot.GlyphIndex, attrs Attributes) (Outline, error) {
	o, err := f.Outline(gid)
	if err != nil || attrs == 0 {
		return o, err
	}
	if attrs&FauxBold != 0 {
		o = Embolden(o, f.emboldenStrength())
	}
	if attrs&FauxItalic != 0 {
		o = Slant(o, f.opts.Slant)
	}
	return o, nil
}

func (f *Face) emboldenStrength() float32 {
	return f.opts.EmboldenRatio * f.upem
}
