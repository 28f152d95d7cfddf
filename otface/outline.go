package otface

import (
	"math"
	"sync"
)

// SegmentOp is the drawing operation of an outline segment.
type SegmentOp uint8

// Outline segment operations. MoveTo starts a new figure; figures are
// implicitly closed.
const (
	MoveTo SegmentOp = iota
	LineTo
	QuadTo
	CubicTo
)

func (op SegmentOp) String() string {
	switch op {
	case MoveTo:
		return "MoveTo"
	case LineTo:
		return "LineTo"
	case QuadTo:
		return "QuadTo"
	case CubicTo:
		return "CubicTo"
	}
	return "Op?"
}

// Point is a point in font units. The y-axis points up.
type Point struct {
	X, Y float32
}

// Segment is a drawing command of an outline. Args holds 1, 1, 2 or 3 points
// for MoveTo, LineTo, QuadTo and CubicTo respectively; the last one is the end point.
type Segment struct {
	Op   SegmentOp
	Args [3]Point
}

// ArgCount returns the number of points of the segment.
func (s Segment) ArgCount() int {
	switch s.Op {
	case QuadTo:
		return 2
	case CubicTo:
		return 3
	}
	return 1
}

// End returns the end point of the segment.
func (s Segment) End() Point {
	return s.Args[s.ArgCount()-1]
}

// Rect is an axis-aligned rectangle in font units.
type Rect struct {
	XMin, YMin, XMax, YMax float32
}

// Empty is true for rectangles without area.
func (r Rect) Empty() bool {
	return r.XMax <= r.XMin || r.YMax <= r.YMin
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float32 { return r.XMax - r.XMin }

// Height returns the vertical extent of r.
func (r Rect) Height() float32 { return r.YMax - r.YMin }

// Union returns the smallest rectangle containing r and s.
// Empty rectangles do not contribute.
func (r Rect) Union(s Rect) Rect {
	if r == (Rect{}) {
		return s
	}
	if s == (Rect{}) {
		return r
	}
	return Rect{
		XMin: min(r.XMin, s.XMin), YMin: min(r.YMin, s.YMin),
		XMax: max(r.XMax, s.XMax), YMax: max(r.YMax, s.YMax),
	}
}

// Outline is the resolved outline of a glyph. Bounds is the control box,
// i.e. it includes off-curve control points.
type Outline struct {
	Segments []Segment
	Bounds   Rect
}

// Figures returns the number of figures (contours) of the outline.
func (o Outline) Figures() int {
	n := 0
	for _, s := range o.Segments {
		if s.Op == MoveTo {
			n++
		}
	}
	return n
}

// Transform returns a copy of the outline with m applied to every point.
// m is {xx, yx, xy, yy, dx, dy}, x' = xx*x + xy*y + dx, y' = yx*x + yy*y + dy.
func (o Outline) Transform(m [6]float32) Outline {
	out := Outline{Segments: make([]Segment, len(o.Segments))}
	for i, s := range o.Segments {
		for k := 0; k < s.ArgCount(); k++ {
			p := s.Args[k]
			s.Args[k] = Point{
				X: m[0]*p.X + m[2]*p.Y + m[4],
				Y: m[1]*p.X + m[3]*p.Y + m[5],
			}
		}
		out.Segments[i] = s
	}
	out.Bounds = controlBox(out.Segments)
	return out
}

func controlBox(segs []Segment) Rect {
	if len(segs) == 0 {
		return Rect{}
	}
	r := Rect{XMin: math.MaxFloat32, YMin: math.MaxFloat32, XMax: -math.MaxFloat32, YMax: -math.MaxFloat32}
	for _, s := range segs {
		for k := 0; k < s.ArgCount(); k++ {
			p := s.Args[k]
			r.XMin, r.XMax = min(r.XMin, p.X), max(r.XMax, p.X)
			r.YMin, r.YMax = min(r.YMin, p.Y), max(r.YMax, p.Y)
		}
	}
	return r
}

// --- Synthetic styles ------------------------------------------------------

// Attributes request synthesized styles for fonts lacking a bold or italic face.
type Attributes uint8

// Synthesized styles.
const (
	FauxBold Attributes = 1 << iota
	FauxItalic
)

// Default strength of synthesized styles.
const (
	DefaultEmboldenRatio = 1.0 / 48 // of units per em, per side
	DefaultSlant         = 0.2      // about 11.3 degrees
)

// Slant shears an outline to the right by factor slant (x' = x + slant*y).
func Slant(o Outline, slant float32) Outline {
	return o.Transform([6]float32{1, 0, slant, 1, 0, 0})
}

// Embolden widens the strokes of an outline by moving each point outward by
// strength units, along the bisector of its adjacent edges. Control points
// are treated like on-curve points.
func Embolden(o Outline, strength float32) Outline {
	if strength == 0 || len(o.Segments) == 0 {
		return o
	}
	out := Outline{Segments: make([]Segment, len(o.Segments))}
	copy(out.Segments, o.Segments)
	start := 0
	for i := 1; i <= len(out.Segments); i++ {
		if i == len(out.Segments) || out.Segments[i].Op == MoveTo {
			emboldenFigure(out.Segments[start:i], strength)
			start = i
		}
	}
	out.Bounds = controlBox(out.Segments)
	return out
}

type argRef struct{ seg, arg int }

func emboldenFigure(fig []Segment, strength float32) {
	var refs []argRef
	var pts []Point
	for i, s := range fig {
		for k := 0; k < s.ArgCount(); k++ {
			refs = append(refs, argRef{i, k})
			pts = append(pts, s.Args[k])
		}
	}
	n := len(pts)
	if n > 1 && pts[n-1] == pts[0] { // explicit closing point
		n--
	}
	if n < 3 {
		return
	}
	var area float32
	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		area += p.X*q.Y - q.X*p.Y
	}
	// y-up: counter-clockwise figures have positive area and their outside is to
	// the right of the direction of travel
	sign := float32(1)
	if area < 0 {
		sign = -1
	}
	moved := make([]Point, n)
	for i := 0; i < n; i++ {
		prev, cur, next := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
		n1 := normal(prev, cur)
		n2 := normal(cur, next)
		bx, by := n1.X+n2.X, n1.Y+n2.Y
		l := float32(math.Hypot(float64(bx), float64(by)))
		if l < 1e-6 {
			moved[i] = cur
			continue
		}
		bx, by = bx/l, by/l
		// keep the offset of both edges at strength on sharp corners
		cos := bx*n1.X + by*n1.Y
		if cos < 0.25 {
			cos = 0.25
		}
		d := sign * strength / cos
		moved[i] = Point{X: cur.X + bx*d, Y: cur.Y + by*d}
	}
	for i, ref := range refs {
		fig[ref.seg].Args[ref.arg] = moved[i%n]
	}
}

// normal returns the unit normal to the right of the edge a→b.
func normal(a, b Point) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return Point{}
	}
	return Point{X: dy / l, Y: -dx / l}
}

// --- Buffers ---------------------------------------------------------------

// pointBuffer collects the points of a TrueType glyph during resolution.
type pointBuffer struct {
	pts  []glyphPoint
	ends []int
}

type glyphPoint struct {
	x, y float64
	on   bool
}

var pointPool = sync.Pool{
	New: func() any { return &pointBuffer{pts: make([]glyphPoint, 0, 128), ends: make([]int, 0, 16)} },
}

func acquirePoints() *pointBuffer {
	return pointPool.Get().(*pointBuffer)
}

func releasePoints(b *pointBuffer) {
	b.pts = b.pts[:0]
	b.ends = b.ends[:0]
	pointPool.Put(b)
}

// segments converts quadratic contours to outline segments, inserting implied
// on-curve points between consecutive off-curve points.
func (b *pointBuffer) segments() []Segment {
	segs := make([]Segment, 0, len(b.pts)+len(b.ends))
	start := 0
	for _, end := range b.ends {
		if end >= len(b.pts) || end < start {
			break
		}
		segs = appendQuadContour(segs, b.pts[start:end+1])
		start = end + 1
	}
	return segs
}

func pt(p glyphPoint) Point {
	return Point{X: float32(p.x), Y: float32(p.y)}
}

func midpoint(a, b glyphPoint) glyphPoint {
	return glyphPoint{x: (a.x + b.x) / 2, y: (a.y + b.y) / 2, on: true}
}

func appendQuadContour(segs []Segment, c []glyphPoint) []Segment {
	n := len(c)
	if n == 0 {
		return segs
	}
	var start glyphPoint
	var rest []glyphPoint
	switch {
	case c[0].on:
		start, rest = c[0], c[1:]
	case c[n-1].on:
		start, rest = c[n-1], c[:n-1]
	default:
		start, rest = midpoint(c[n-1], c[0]), c
	}
	segs = append(segs, Segment{Op: MoveTo, Args: [3]Point{pt(start)}})
	last := start
	var ctrl *glyphPoint
	for i := range rest {
		q := rest[i]
		if q.on {
			if ctrl != nil {
				segs = append(segs, Segment{Op: QuadTo, Args: [3]Point{pt(*ctrl), pt(q)}})
				ctrl = nil
			} else {
				segs = append(segs, Segment{Op: LineTo, Args: [3]Point{pt(q)}})
			}
			last = q
			continue
		}
		if ctrl != nil {
			mid := midpoint(*ctrl, q)
			segs = append(segs, Segment{Op: QuadTo, Args: [3]Point{pt(*ctrl), pt(mid)}})
			last = mid
		}
		ctrl = &rest[i]
	}
	if ctrl != nil {
		segs = append(segs, Segment{Op: QuadTo, Args: [3]Point{pt(*ctrl), pt(start)}})
	} else if last.x != start.x || last.y != start.y {
		segs = append(segs, Segment{Op: LineTo, Args: [3]Point{pt(start)}})
	}
	return segs
}
