package otface

import (
	"fmt"
	"slices"

	"github.com/npillmayer/opentext/ot"
)

// A glyphFrame is an entry of the work stack for composite glyph resolution.
type glyphFrame struct {
	gid       ot.GlyphIndex
	xf        ot.Affine       // accumulated transform to root glyph space
	ancestors []ot.GlyphIndex // composite glyphs containing this one
	base      int             // first point of the parent composite in the point buffer
	match     bool            // position by point matching instead of offset
	parentPt  int             // point number in the parent composite
	childPt   int             // point number in this glyph
}

func (f *Face) trueTypeOutline(gid ot.GlyphIndex) (Outline, error) {
	buf := acquirePoints()
	defer releasePoints(buf)
	if err := f.resolveGlyph(gid, buf); err != nil {
		return Outline{}, err
	}
	segs := buf.segments()
	return Outline{Segments: segs, Bounds: controlBox(segs)}, nil
}

// resolveGlyph appends the points of glyph gid, with all components resolved, to buf.
func (f *Face) resolveGlyph(gid ot.GlyphIndex, buf *pointBuffer) error {
	stack := []glyphFrame{{gid: gid, xf: ot.Identity}}
	components := 0
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		gl, err := f.otf.Glyf.Glyph(fr.gid)
		if err != nil {
			return fmt.Errorf("glyph %d: %w", fr.gid, err)
		}
		if !gl.IsComposite() {
			if err := f.appendSimple(fr, gl, buf); err != nil {
				return err
			}
			continue
		}
		if len(fr.ancestors) >= ot.MaxCompositeDepth {
			return fmt.Errorf("glyph %d: %w", gid, ErrCompositeDepth)
		}
		components += len(gl.Components)
		if components > ot.MaxCompositeComponents {
			return fmt.Errorf("glyph %d has more than %d components: %w", gid,
				ot.MaxCompositeComponents, ErrCompositeDepth)
		}
		ancestors := append(slices.Clip(fr.ancestors), fr.gid)
		offsets, err := f.componentOffsets(fr.gid, gl)
		if err != nil {
			return err
		}
		base := len(buf.pts)
		// push in reverse, so components are resolved in order
		for i := len(gl.Components) - 1; i >= 0; i-- {
			c := gl.Components[i]
			if slices.Contains(ancestors, c.Glyph) {
				return fmt.Errorf("glyph %d contains glyph %d: %w", gid, c.Glyph, ErrCompositeCycle)
			}
			child := glyphFrame{gid: c.Glyph, ancestors: ancestors, base: base}
			lin := ot.Affine{XX: c.Transform[0], YX: c.Transform[1], XY: c.Transform[2], YY: c.Transform[3]}
			if c.ArgsAreXY() {
				dx, dy := offsets[i][0], offsets[i][1]
				if c.Flags&ot.CompScaledOffset != 0 && c.Flags&ot.CompUnscaledOffset == 0 {
					dx, dy = lin.Apply(dx, dy)
				}
				lin.DX, lin.DY = dx, dy
			} else {
				child.match = true
				child.parentPt, child.childPt = int(c.Arg1), int(c.Arg2)
			}
			child.xf = fr.xf.Mul(lin)
			stack = append(stack, child)
		}
	}
	return nil
}

// componentOffsets returns the offsets of the components of a composite glyph,
// including variation deltas.
func (f *Face) componentOffsets(gid ot.GlyphIndex, gl *ot.Glyph) ([][2]float64, error) {
	offsets := make([][2]float64, len(gl.Components))
	for i, c := range gl.Components {
		offsets[i] = [2]float64{float64(c.Arg1), float64(c.Arg2)}
	}
	dx, dy, err := f.pointDeltas(gid, len(gl.Components)+4, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("variations of glyph %d: %w", gid, err)
	}
	for i := range offsets {
		if dx != nil {
			offsets[i][0] += dx[i]
			offsets[i][1] += dy[i]
		}
	}
	return offsets, nil
}

func (f *Face) appendSimple(fr glyphFrame, gl *ot.Glyph, buf *pointBuffer) error {
	if len(gl.Points) == 0 {
		return nil
	}
	local := make([]glyphPoint, len(gl.Points))
	for i, p := range gl.Points {
		local[i] = glyphPoint{x: float64(p.X), y: float64(p.Y), on: p.OnCurve}
	}
	dx, dy, err := f.pointDeltas(fr.gid, len(local)+4, local, gl.EndPoints)
	if err != nil {
		return fmt.Errorf("variations of glyph %d: %w", fr.gid, err)
	}
	start := len(buf.pts)
	for i, p := range local {
		if dx != nil {
			p.x += dx[i]
			p.y += dy[i]
		}
		p.x, p.y = fr.xf.Apply(p.x, p.y)
		buf.pts = append(buf.pts, p)
	}
	if fr.match {
		parent, child := fr.base+fr.parentPt, start+fr.childPt
		if parent >= start || child >= len(buf.pts) || parent < 0 || fr.childPt < 0 {
			tracer().Infof("glyph %d: anchor points %d/%d out of range", fr.gid, fr.parentPt, fr.childPt)
		} else {
			mx := buf.pts[parent].x - buf.pts[child].x
			my := buf.pts[parent].y - buf.pts[child].y
			for i := start; i < len(buf.pts); i++ {
				buf.pts[i].x += mx
				buf.pts[i].y += my
			}
		}
	}
	for _, e := range gl.EndPoints {
		buf.ends = append(buf.ends, start+e)
	}
	return nil
}

// --- Advances --------------------------------------------------------------

// varAdvance returns the variation delta of the advance width of glyph gid.
// HVAR is preferred; without HVAR the phantom points of gvar are used.
func (f *Face) varAdvance(gid ot.GlyphIndex) float32 {
	if f.coords == nil {
		return 0
	}
	if hvar := f.otf.Variation.HVar; hvar != nil {
		return float32(hvar.AdvanceDelta(gid, f.coords))
	}
	if f.kind != TrueType || f.otf.Variation.GVar == nil {
		return 0
	}
	gl, err := f.otf.Glyf.Glyph(gid)
	if err != nil {
		return 0
	}
	n := len(gl.Points)
	var orig []glyphPoint
	if gl.IsComposite() {
		n = len(gl.Components)
	} else {
		orig = make([]glyphPoint, n, n+4)
		for i, p := range gl.Points {
			orig[i] = glyphPoint{x: float64(p.X), y: float64(p.Y), on: p.OnCurve}
		}
	}
	dx, _, err := f.pointDeltas(gid, n+4, orig, gl.EndPoints)
	if err != nil || dx == nil {
		return 0
	}
	// phantom points 1 and 2 mark the origin and the advance
	return float32(dx[n+1] - dx[n])
}
