package ot

import (
	"fmt"
	"image/color"
	"math"
	"sort"
)

// COLRTable holds color glyph definitions: layered glyphs (version 0) and
// paint graphs (version 1). Colors refer to palettes of a CPAL table.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/colr
type COLRTable struct {
	tableBase
	Version    uint16
	baseGlyphs []colrBaseGlyph // v0, sorted by glyph
	layers     []LayerRecord   // v0
	paintGlyph []colrPaintRecord
	layerList  binarySegm // v1 LayerList, nil if absent
	baseList   binarySegm // v1 BaseGlyphList, nil if absent
}

// LayerRecord is a layer of a COLR version 0 glyph.
type LayerRecord struct {
	Glyph        GlyphIndex
	PaletteIndex uint16 // 0xFFFF means the text foreground color
}

// ForegroundPaletteIndex denotes the current text color instead of a palette entry.
const ForegroundPaletteIndex = 0xFFFF

type colrBaseGlyph struct {
	glyph             GlyphIndex
	firstLayer, count uint16
}

type colrPaintRecord struct {
	glyph  GlyphIndex
	offset uint32 // relative to BaseGlyphList
}

// Layers returns the version 0 layers of a color glyph, or nil.
func (t *COLRTable) Layers(g GlyphIndex) []LayerRecord {
	if t == nil {
		return nil
	}
	i := sort.Search(len(t.baseGlyphs), func(i int) bool { return t.baseGlyphs[i].glyph >= g })
	if i >= len(t.baseGlyphs) || t.baseGlyphs[i].glyph != g {
		return nil
	}
	bg := t.baseGlyphs[i]
	from, to := int(bg.firstLayer), int(bg.firstLayer)+int(bg.count)
	if to > len(t.layers) {
		return nil
	}
	return t.layers[from:to]
}

// HasPaint is true if glyph g has a version 1 paint graph.
func (t *COLRTable) HasPaint(g GlyphIndex) bool {
	_, ok := t.paintRecord(g)
	return ok
}

func (t *COLRTable) paintRecord(g GlyphIndex) (colrPaintRecord, bool) {
	if t == nil {
		return colrPaintRecord{}, false
	}
	i := sort.Search(len(t.paintGlyph), func(i int) bool { return t.paintGlyph[i].glyph >= g })
	if i >= len(t.paintGlyph) || t.paintGlyph[i].glyph != g {
		return colrPaintRecord{}, false
	}
	return t.paintGlyph[i], true
}

// Paint decodes the version 1 paint graph of glyph g. PaintColrGlyph nodes are not
// expanded; clients resolve them by calling Paint again and must bound their own
// recursion. Nesting within a graph is bounded by MaxPaintDepth.
func (t *COLRTable) Paint(g GlyphIndex) (*Paint, error) {
	rec, ok := t.paintRecord(g)
	if !ok {
		return nil, nil
	}
	return t.decodePaint(t.baseList, int(rec.offset), 0)
}

// PaintFormat is the format number of a COLR v1 paint table.
type PaintFormat uint8

// Paint formats. Variable formats are decoded as their static counterparts and
// reported with the static format number.
const (
	PaintColrLayers     PaintFormat = 1
	PaintSolid          PaintFormat = 2
	PaintLinearGradient PaintFormat = 4
	PaintRadialGradient PaintFormat = 6
	PaintSweepGradient  PaintFormat = 8
	PaintGlyph          PaintFormat = 10
	PaintColrGlyph      PaintFormat = 11
	PaintTransform      PaintFormat = 12 // includes translate, scale, rotate and skew
	PaintComposite      PaintFormat = 32
)

// Paint is a node of a COLR v1 paint graph.
type Paint struct {
	Format        PaintFormat
	Variable      bool       // decoded from a variable paint format; deltas are ignored
	Children      []*Paint   // PaintColrLayers
	Child         *Paint     // PaintGlyph, PaintTransform, and source of PaintComposite
	Backdrop      *Paint     // PaintComposite
	Glyph         GlyphIndex // PaintGlyph, PaintColrGlyph
	Color         ColorStop  // PaintSolid
	Gradient      *Gradient
	Transform     Affine
	CompositeMode uint8
}

// ColorStop is a palette color at a position of a color line.
type ColorStop struct {
	Offset       float64
	PaletteIndex uint16
	Alpha        float64
}

// Extend modes of color lines.
const (
	ExtendPad     = 0
	ExtendRepeat  = 1
	ExtendReflect = 2
)

// Gradient holds the geometry of a gradient paint in font units.
//
// Linear: P0, P1, P2 are the start, end and rotation points.
// Radial: P0/R0 is the start circle, P1/R1 the end circle.
// Sweep: P0 is the center, StartAngle and EndAngle are in degrees.
type Gradient struct {
	Extend     uint8
	Stops      []ColorStop
	P0, P1, P2 [2]float64
	R0, R1     float64
	StartAngle float64
	EndAngle   float64
}

// Affine is a 2×3 affine transform: x' = XX*x + XY*y + DX; y' = YX*x + YY*y + DY.
type Affine struct {
	XX, YX, XY, YY, DX, DY float64
}

// Identity is the identity transform.
var Identity = Affine{XX: 1, YY: 1}

// Mul returns the transform applying b first, then a.
func (a Affine) Mul(b Affine) Affine {
	return Affine{
		XX: a.XX*b.XX + a.XY*b.YX,
		YX: a.YX*b.XX + a.YY*b.YX,
		XY: a.XX*b.XY + a.XY*b.YY,
		YY: a.YX*b.XY + a.YY*b.YY,
		DX: a.XX*b.DX + a.XY*b.DY + a.DX,
		DY: a.YX*b.DX + a.YY*b.DY + a.DY,
	}
}

// Apply transforms a point.
func (a Affine) Apply(x, y float64) (float64, float64) {
	return a.XX*x + a.XY*y + a.DX, a.YX*x + a.YY*y + a.DY
}

func aroundCenter(m Affine, cx, cy float64) Affine {
	m.DX = cx - (m.XX*cx + m.XY*cy)
	m.DY = cy - (m.YX*cx + m.YY*cy)
	return m
}

func (t *COLRTable) decodePaint(b binarySegm, off int, depth int) (*Paint, error) {
	if depth > MaxPaintDepth {
		return nil, fmt.Errorf("COLR paint graph exceeds depth %d: %w", MaxPaintDepth, ErrInvalidFont)
	}
	pb, err := b.from(off)
	if err != nil || len(pb) == 0 {
		return nil, fmt.Errorf("COLR paint offset out of bounds: %w", ErrUnexpectedEnd)
	}
	r := NewReader(pb)
	format, _ := r.U8()
	p := &Paint{}
	variable := func(static PaintFormat) {
		p.Format = static
		p.Variable = PaintFormat(format) != static
	}
	child := func(at int) (*Paint, error) {
		co, err := pb.u24(at)
		if err != nil {
			return nil, err
		}
		return t.decodePaint(pb, int(co), depth+1)
	}
	fword := func() float64 { v, _ := r.I16(); return float64(v) }
	f2d14 := func() float64 { v, _ := r.F2Dot14(); return v.Float() }
	switch f := PaintFormat(format); {
	case f == PaintColrLayers:
		p.Format = f
		n, _ := r.U8()
		first, err := r.U32()
		if err != nil {
			return nil, err
		}
		if t.layerList == nil {
			return nil, fmt.Errorf("COLR layer list missing: %w", ErrInvalidFont)
		}
		for i := 0; i < int(n); i++ {
			lo, err := t.layerList.u32(4 + 4*(int(first)+i))
			if err != nil {
				return nil, fmt.Errorf("COLR layer %d: %w", int(first)+i, err)
			}
			layer, err := t.decodePaint(t.layerList, int(lo), depth+1)
			if err != nil {
				return nil, err
			}
			p.Children = append(p.Children, layer)
		}
	case f == 2 || f == 3:
		variable(PaintSolid)
		p.Color.PaletteIndex, _ = r.U16()
		p.Color.Alpha = f2d14()
	case f >= 4 && f <= 9:
		variable(f &^ 1)
		co, err := pb.u24(1)
		if err != nil {
			return nil, err
		}
		_ = r.Skip(3)
		g := &Gradient{}
		if g.Extend, g.Stops, err = decodeColorLine(pb, int(co), p.Variable); err != nil {
			return nil, err
		}
		switch p.Format {
		case PaintLinearGradient:
			g.P0 = [2]float64{fword(), fword()}
			g.P1 = [2]float64{fword(), fword()}
			g.P2 = [2]float64{fword(), fword()}
		case PaintRadialGradient:
			g.P0 = [2]float64{fword(), fword()}
			r0, _ := r.U16()
			g.R0 = float64(r0)
			g.P1 = [2]float64{fword(), fword()}
			r1, _ := r.U16()
			g.R1 = float64(r1)
		case PaintSweepGradient:
			g.P0 = [2]float64{fword(), fword()}
			g.StartAngle = f2d14() * 180
			g.EndAngle = f2d14() * 180
		}
		p.Gradient = g
	case f == PaintGlyph:
		p.Format = f
		if p.Child, err = child(1); err != nil {
			return nil, err
		}
		gid, err := pb.u16(4)
		if err != nil {
			return nil, err
		}
		p.Glyph = GlyphIndex(gid)
	case f == PaintColrGlyph:
		p.Format = f
		gid, err := r.U16()
		if err != nil {
			return nil, err
		}
		p.Glyph = GlyphIndex(gid)
	case f >= 12 && f <= 31:
		p.Format, p.Variable = PaintTransform, f%2 == 1
		if p.Child, err = child(1); err != nil {
			return nil, err
		}
		_ = r.Skip(3)
		if p.Transform, err = decodeTransform(f, pb, r, fword, f2d14); err != nil {
			return nil, err
		}
	case f == PaintComposite:
		p.Format = f
		if p.Child, err = child(1); err != nil {
			return nil, err
		}
		if p.CompositeMode, err = pb.u8(4); err != nil {
			return nil, err
		}
		if p.Backdrop, err = child(5); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("COLR paint format %d unknown: %w", format, ErrInvalidFont)
	}
	return p, nil
}

func decodeTransform(f PaintFormat, pb binarySegm, r *Reader, fword, f2d14 func() float64) (Affine, error) {
	m := Identity
	switch f &^ 1 {
	case 12: // Affine2x3, by offset
		ao, err := pb.u24(4)
		if err != nil {
			return m, err
		}
		ar, err := NewReaderAt(pb, int(ao))
		if err != nil {
			return m, err
		}
		var v [6]float64
		for i := range v {
			fx, err := ar.Fixed()
			if err != nil {
				return m, err
			}
			v[i] = fx.Float()
		}
		m = Affine{XX: v[0], YX: v[1], XY: v[2], YY: v[3], DX: v[4], DY: v[5]}
	case 14:
		m.DX, m.DY = fword(), fword()
	case 16, 18:
		m.XX, m.YY = f2d14(), f2d14()
		if f&^1 == 18 {
			m = aroundCenter(m, fword(), fword())
		}
	case 20, 22:
		s := f2d14()
		m.XX, m.YY = s, s
		if f&^1 == 22 {
			m = aroundCenter(m, fword(), fword())
		}
	case 24, 26:
		a := f2d14() * math.Pi
		m = Affine{XX: math.Cos(a), YX: math.Sin(a), XY: -math.Sin(a), YY: math.Cos(a)}
		if f&^1 == 26 {
			m = aroundCenter(m, fword(), fword())
		}
	case 28, 30:
		xs, ys := f2d14()*math.Pi, f2d14()*math.Pi
		m = Affine{XX: 1, YX: math.Tan(ys), XY: -math.Tan(xs), YY: 1}
		if f&^1 == 30 {
			m = aroundCenter(m, fword(), fword())
		}
	}
	return m, nil
}

func decodeColorLine(b binarySegm, off int, variable bool) (uint8, []ColorStop, error) {
	r, err := NewReaderAt(b, off)
	if err != nil {
		return 0, nil, fmt.Errorf("COLR color line: %w", err)
	}
	extend, _ := r.U8()
	n, err := r.U16()
	if err != nil {
		return 0, nil, fmt.Errorf("COLR color line: %w", err)
	}
	stops := make([]ColorStop, n)
	for i := range stops {
		o, _ := r.F2Dot14()
		pi, _ := r.U16()
		a, err := r.F2Dot14()
		if err != nil {
			return 0, nil, fmt.Errorf("COLR color stop %d: %w", i, err)
		}
		if variable {
			_ = r.Skip(4) // varIndexBase
		}
		stops[i] = ColorStop{Offset: o.Float(), PaletteIndex: pi, Alpha: a.Float()}
	}
	return extend, stops, nil
}

func parseCOLR(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 14 {
		return nil, fmt.Errorf("COLR table too small: %d bytes", len(b))
	}
	t := &COLRTable{}
	t.init(t, tag, b, offset, size)
	t.Version = u16(b)
	numBase := int(u16(b[2:]))
	baseOff, layerOff, numLayers := int(u32(b[4:])), int(u32(b[8:])), int(u16(b[12:]))
	if numBase > 0 {
		rb, err := b.view(baseOff, numBase*6)
		if err != nil {
			return nil, fmt.Errorf("COLR base glyph records: %w", err)
		}
		t.baseGlyphs = make([]colrBaseGlyph, numBase)
		for i := range t.baseGlyphs {
			t.baseGlyphs[i] = colrBaseGlyph{
				glyph:      GlyphIndex(u16(rb[6*i:])),
				firstLayer: u16(rb[6*i+2:]),
				count:      u16(rb[6*i+4:]),
			}
		}
	}
	if numLayers > 0 {
		lb, err := b.view(layerOff, numLayers*4)
		if err != nil {
			return nil, fmt.Errorf("COLR layer records: %w", err)
		}
		t.layers = make([]LayerRecord, numLayers)
		for i := range t.layers {
			t.layers[i] = LayerRecord{Glyph: GlyphIndex(u16(lb[4*i:])), PaletteIndex: u16(lb[4*i+2:])}
		}
	}
	if t.Version >= 1 {
		if len(b) < 34 {
			return nil, fmt.Errorf("COLR v1 header truncated: %w", ErrUnexpectedEnd)
		}
		var err error
		if t.baseList, err = b.offset32(14); err != nil {
			return nil, fmt.Errorf("COLR base glyph list: %w", err)
		}
		if t.layerList, err = b.offset32(18); err != nil {
			return nil, fmt.Errorf("COLR layer list: %w", err)
		}
		if t.baseList != nil {
			n, err := t.baseList.u32(0)
			if err != nil || int(n) > MaxGlyphCount {
				return nil, fmt.Errorf("COLR base glyph list count invalid")
			}
			rb, err := t.baseList.view(4, int(n)*6)
			if err != nil {
				return nil, fmt.Errorf("COLR base glyph paint records: %w", err)
			}
			t.paintGlyph = make([]colrPaintRecord, n)
			for i := range t.paintGlyph {
				t.paintGlyph[i] = colrPaintRecord{glyph: GlyphIndex(u16(rb[6*i:])), offset: u32(rb[6*i+2:])}
			}
		}
		if u32(b[26:]) != 0 || u32(b[30:]) != 0 {
			ec.addWarning(tag, "COLR variations present, will use default instance", offset)
		}
	}
	tracer().Debugf("COLR v%d: %d layered glyphs, %d paint glyphs", t.Version, len(t.baseGlyphs), len(t.paintGlyph))
	return t, nil
}

// --- CPAL ------------------------------------------------------------------

// CPALTable holds color palettes.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/cpal
type CPALTable struct {
	tableBase
	NumPaletteEntries int
	palettes          [][]color.NRGBA
}

// NumPalettes returns the number of palettes.
func (t *CPALTable) NumPalettes() int {
	if t == nil {
		return 0
	}
	return len(t.palettes)
}

// Palette returns palette #i, or nil.
func (t *CPALTable) Palette(i int) []color.NRGBA {
	if t == nil || i < 0 || i >= len(t.palettes) {
		return nil
	}
	return t.palettes[i]
}

func parseCPAL(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 12 {
		return nil, fmt.Errorf("CPAL table too small: %d bytes", len(b))
	}
	t := &CPALTable{}
	t.init(t, tag, b, offset, size)
	t.NumPaletteEntries = int(u16(b[2:]))
	numPalettes, numRecords := int(u16(b[4:])), int(u16(b[6:]))
	recs, err := b.view(int(u32(b[8:])), numRecords*4)
	if err != nil {
		return nil, fmt.Errorf("CPAL color records: %w", err)
	}
	t.palettes = make([][]color.NRGBA, numPalettes)
	for p := range t.palettes {
		first, err := b.u16(12 + 2*p)
		if err != nil {
			return nil, fmt.Errorf("CPAL palette indices: %w", err)
		}
		if int(first)+t.NumPaletteEntries > numRecords {
			return nil, fmt.Errorf("CPAL palette %d exceeds color records", p)
		}
		pal := make([]color.NRGBA, t.NumPaletteEntries)
		for i := range pal {
			c := recs[4*(int(first)+i):]
			pal[i] = color.NRGBA{B: c[0], G: c[1], R: c[2], A: c[3]}
		}
		t.palettes[p] = pal
	}
	return t, nil
}
