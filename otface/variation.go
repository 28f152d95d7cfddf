package otface

import (
	"fmt"

	"github.com/npillmayer/opentext/internal/syncmap"
	"github.com/npillmayer/opentext/ot"
)

// Variation is a user-space coordinate on a variation axis, e.g. {wght, 650}.
type Variation struct {
	Tag   ot.Tag
	Value float64
}

// WithVariation returns a face for an instance of a variable font. Axes not
// mentioned are set to their defaults; calling WithVariation without arguments
// returns the default instance. Every coordinate must be within its axis'
// range, otherwise ErrAxisOutOfRange is returned.
//
// The receiver is not modified. Both faces share the parsed font and the
// glyph index cache; outlines and metrics are cached per face.
func (f *Face) WithVariation(vars ...Variation) (*Face, error) {
	fvar := f.otf.Variation.FVar
	if fvar == nil {
		if len(vars) > 0 {
			return nil, fmt.Errorf("font is not variable: %w", ot.ErrInvalidArgument)
		}
		return f, nil
	}
	user := make([]float64, len(fvar.Axes))
	for i, axis := range fvar.Axes {
		user[i] = axis.Default
	}
	for _, v := range vars {
		i := axisIndex(fvar, v.Tag)
		if i < 0 {
			return nil, fmt.Errorf("no variation axis %s: %w", v.Tag, ot.ErrInvalidArgument)
		}
		axis := fvar.Axes[i]
		if v.Value < axis.Min || v.Value > axis.Max {
			return nil, fmt.Errorf("axis %s = %g, range is [%g, %g]: %w", v.Tag, v.Value,
				axis.Min, axis.Max, ErrAxisOutOfRange)
		}
		user[i] = v.Value
	}
	norm := fvar.Normalize(user)
	f.otf.Variation.AVar.Map(norm)
	inst := &Face{otf: f.otf, kind: f.kind, upem: f.upem, opts: f.opts, gids: f.gids}
	for _, c := range norm {
		if c != 0 {
			inst.coords = norm
			break
		}
	}
	inst.shapes = syncmap.New[ot.GlyphIndex, outlineResult]()
	inst.gmetr = syncmap.New[metricsKey, []GlyphMetrics]()
	tracer().Debugf("variation set to %v (normalized %v)", user, norm)
	return inst, nil
}

// Coords returns the normalized coordinates of the current instance, or nil
// for the default instance.
func (f *Face) Coords() []float64 {
	return f.coords
}

func axisIndex(fvar *ot.FVarTable, tag ot.Tag) int {
	for i, a := range fvar.Axes {
		if a.Tag == tag {
			return i
		}
	}
	return -1
}

// --- gvar ------------------------------------------------------------------

// pointDeltas returns the x and y deltas for numPoints points (including the four
// phantom points) of glyph gid at the current coordinates. orig holds the
// unvaried points used to infer deltas of untouched points; ends are the
// contour end indices. Both may be nil for composite glyphs.
func (f *Face) pointDeltas(gid ot.GlyphIndex, numPoints int, orig []glyphPoint, ends []int) (dx, dy []float64, err error) {
	gvar := f.otf.Variation.GVar
	if f.coords == nil || gvar == nil {
		return nil, nil, nil
	}
	tuples, err := gvar.GlyphVariations(gid, numPoints)
	if err != nil || len(tuples) == 0 {
		return nil, nil, err
	}
	dx, dy = make([]float64, numPoints), make([]float64, numPoints)
	touched := make([]bool, numPoints)
	tx, ty := make([]float64, numPoints), make([]float64, numPoints)
	for _, tv := range tuples {
		scalar := tv.Scalar(f.coords)
		if scalar == 0 {
			continue
		}
		if tv.Points == nil { // all points
			for i := 0; i < numPoints && i < len(tv.DX); i++ {
				dx[i] += scalar * float64(tv.DX[i])
				dy[i] += scalar * float64(tv.DY[i])
			}
			continue
		}
		clear(touched)
		clear(tx)
		clear(ty)
		for k, p := range tv.Points {
			if p < 0 || p >= numPoints || k >= len(tv.DX) {
				continue
			}
			touched[p] = true
			tx[p], ty[p] = float64(tv.DX[k]), float64(tv.DY[k])
		}
		if orig != nil {
			inferDeltas(orig, ends, touched, tx, ty)
		}
		for i := range dx {
			dx[i] += scalar * tx[i]
			dy[i] += scalar * ty[i]
		}
	}
	return dx, dy, nil
}

// inferDeltas interpolates deltas of untouched points per contour from the
// nearest touched points before and after them (IUP).
func inferDeltas(orig []glyphPoint, ends []int, touched []bool, dx, dy []float64) {
	start := 0
	for _, end := range ends {
		if end >= len(orig) || end < start {
			return
		}
		iupContour(orig[start:end+1], touched[start:end+1], dx[start:end+1], dy[start:end+1])
		start = end + 1
	}
}

func iupContour(pts []glyphPoint, touched []bool, dx, dy []float64) {
	n := len(pts)
	first := -1
	for i := 0; i < n; i++ {
		if touched[i] {
			first = i
			break
		}
	}
	if first < 0 {
		return // no touched point, no deltas
	}
	i := first
	for {
		j := (i + 1) % n
		for !touched[j] {
			j = (j + 1) % n
		}
		// untouched points strictly between i and j
		for k := (i + 1) % n; k != j; k = (k + 1) % n {
			dx[k] = interpolateDelta(pts[k].x, pts[i].x, pts[j].x, dx[i], dx[j])
			dy[k] = interpolateDelta(pts[k].y, pts[i].y, pts[j].y, dy[i], dy[j])
		}
		if j == first {
			return
		}
		i = j
	}
}

func interpolateDelta(v, v1, v2, d1, d2 float64) float64 {
	if v1 == v2 {
		if d1 == d2 {
			return d1
		}
		return 0
	}
	if v1 > v2 {
		v1, v2 = v2, v1
		d1, d2 = d2, d1
	}
	switch {
	case v <= v1:
		return d1
	case v >= v2:
		return d2
	}
	return d1 + (v-v1)*(d2-d1)/(v2-v1)
}
