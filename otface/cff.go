package otface

import (
	"fmt"
	"math"

	"github.com/npillmayer/opentext/ot"
)

// Type 2 charstring limits. CFF2 raises the argument stack limit.
const (
	cffStackLimit  = 48
	cff2StackLimit = 513
)

func (f *Face) cffOutline(gid ot.GlyphIndex) (Outline, error) {
	cs := &csInterpreter{face: f, cff: f.otf.CFF}
	if err := cs.run(gid, 0); err != nil {
		return Outline{}, fmt.Errorf("glyph %d: %w", gid, err)
	}
	segs := cs.segs
	if m := cs.cff.FontMatrix; m[0] != 0 && f.upem > 0 {
		if s := float32(m[0]) * f.upem; math.Abs(float64(s-1)) > 1e-6 {
			return Outline{Segments: segs}.Transform([6]float32{s, 0, 0, s, 0, 0}), nil
		}
	}
	return Outline{Segments: segs, Bounds: controlBox(segs)}, nil
}

type csFrame struct {
	prog []byte
	pc   int
}

// csInterpreter executes Type 2 charstrings (CFF and CFF2), see Adobe Technical Note #5177.
type csInterpreter struct {
	face      *Face
	cff       *ot.CFFTable
	fd        *ot.CFFFontDict
	stack     []float64
	transient [32]float64
	calls     []csFrame
	nStems    int
	seenWidth bool
	width     float64
	x, y      float64
	vsindex   int
	segs      []Segment
}

func (cs *csInterpreter) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCharString}, args...)...)
}

func (cs *csInterpreter) stackLimit() int {
	if cs.cff.Version == 2 {
		return cff2StackLimit
	}
	return cffStackLimit
}

func (cs *csInterpreter) push(v float64) error {
	if len(cs.stack) >= cs.stackLimit() {
		return cs.errorf("argument stack overflow")
	}
	cs.stack = append(cs.stack, v)
	return nil
}

func (cs *csInterpreter) point(x, y float64) Point {
	return Point{X: float32(x), Y: float32(y)}
}

func (cs *csInterpreter) moveTo(dx, dy float64) {
	cs.x += dx
	cs.y += dy
	cs.segs = append(cs.segs, Segment{Op: MoveTo, Args: [3]Point{cs.point(cs.x, cs.y)}})
}

func (cs *csInterpreter) lineTo(dx, dy float64) {
	cs.x += dx
	cs.y += dy
	cs.segs = append(cs.segs, Segment{Op: LineTo, Args: [3]Point{cs.point(cs.x, cs.y)}})
}

func (cs *csInterpreter) curveTo(dxa, dya, dxb, dyb, dxc, dyc float64) {
	xa, ya := cs.x+dxa, cs.y+dya
	xb, yb := xa+dxb, ya+dyb
	cs.x, cs.y = xb+dxc, yb+dyc
	cs.segs = append(cs.segs, Segment{Op: CubicTo, Args: [3]Point{
		cs.point(xa, ya), cs.point(xb, yb), cs.point(cs.x, cs.y),
	}})
}

// takeWidth removes an optional width argument, which precedes the arguments of
// the first stack-clearing operator of a CFF1 charstring.
func (cs *csInterpreter) takeWidth(odd bool) {
	if cs.seenWidth {
		return
	}
	cs.seenWidth = true
	if cs.cff.Version == 2 {
		return
	}
	if odd && len(cs.stack) > 0 {
		cs.width = cs.fd.NominalWidthX + cs.stack[0]
		cs.stack = cs.stack[1:]
	} else {
		cs.width = cs.fd.DefaultWidthX
	}
}

// run interprets the charstring of glyph gid. depth > 0 is used for the
// components of accented characters.
func (cs *csInterpreter) run(gid ot.GlyphIndex, depth int) error {
	prog, err := cs.cff.CharString(gid)
	if err != nil {
		return err
	}
	cs.fd = cs.cff.FontDict(gid)
	cs.vsindex = cs.fd.VSIndex
	cs.calls = append(cs.calls[:0], csFrame{prog: prog})
	for len(cs.calls) > 0 {
		fr := &cs.calls[len(cs.calls)-1]
		if fr.pc >= len(fr.prog) {
			if cs.cff.Version == 2 || len(cs.calls) > 1 {
				cs.calls = cs.calls[:len(cs.calls)-1] // implicit return
				continue
			}
			return cs.errorf("missing endchar")
		}
		b0 := fr.prog[fr.pc]
		fr.pc++
		if b0 >= 32 || b0 == 28 || b0 == 255 {
			v, n, err := csNumber(fr.prog[fr.pc-1:])
			if err != nil {
				return err
			}
			fr.pc += n - 1
			if err := cs.push(v); err != nil {
				return err
			}
			continue
		}
		done, err := cs.operator(b0, fr, depth)
		if err != nil || done {
			return err
		}
	}
	return nil
}

// csNumber decodes an operand starting at b[0].
func csNumber(b []byte) (float64, int, error) {
	b0 := int(b[0])
	switch {
	case b0 == 28:
		if len(b) < 3 {
			return 0, 0, fmt.Errorf("%w: truncated operand", ErrCharString)
		}
		return float64(int16(uint16(b[1])<<8 | uint16(b[2]))), 3, nil
	case b0 == 255:
		if len(b) < 5 {
			return 0, 0, fmt.Errorf("%w: truncated operand", ErrCharString)
		}
		v := int32(uint32(b[1])<<24 | uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4]))
		return float64(v) / 65536, 5, nil
	case b0 <= 246:
		return float64(b0 - 139), 1, nil
	case b0 <= 250:
		if len(b) < 2 {
			return 0, 0, fmt.Errorf("%w: truncated operand", ErrCharString)
		}
		return float64((b0-247)*256 + int(b[1]) + 108), 2, nil
	}
	if len(b) < 2 {
		return 0, 0, fmt.Errorf("%w: truncated operand", ErrCharString)
	}
	return float64(-(b0-251)*256 - int(b[1]) - 108), 2, nil
}

// operator executes a single operator. It returns true after endchar.
func (cs *csInterpreter) operator(op byte, fr *csFrame, depth int) (bool, error) {
	args := cs.stack
	switch op {
	case 1, 3, 18, 23: // hstem, vstem, hstemhm, vstemhm
		cs.takeWidth(len(cs.stack)%2 == 1)
		cs.nStems += len(cs.stack) / 2
	case 19, 20: // hintmask, cntrmask
		cs.takeWidth(len(cs.stack)%2 == 1)
		cs.nStems += len(cs.stack) / 2
		n := (cs.nStems + 7) / 8
		if fr.pc+n > len(fr.prog) {
			return false, cs.errorf("truncated hintmask")
		}
		fr.pc += n
	case 21: // rmoveto
		cs.takeWidth(len(cs.stack) > 2)
		if len(cs.stack) < 2 {
			return false, cs.errorf("rmoveto: stack underflow")
		}
		cs.moveTo(cs.stack[0], cs.stack[1])
	case 22: // hmoveto
		cs.takeWidth(len(cs.stack) > 1)
		if len(cs.stack) < 1 {
			return false, cs.errorf("hmoveto: stack underflow")
		}
		cs.moveTo(cs.stack[0], 0)
	case 4: // vmoveto
		cs.takeWidth(len(cs.stack) > 1)
		if len(cs.stack) < 1 {
			return false, cs.errorf("vmoveto: stack underflow")
		}
		cs.moveTo(0, cs.stack[0])
	case 5: // rlineto
		for i := 0; i+1 < len(args); i += 2 {
			cs.lineTo(args[i], args[i+1])
		}
	case 6, 7: // hlineto, vlineto
		horizontal := op == 6
		for _, a := range args {
			if horizontal {
				cs.lineTo(a, 0)
			} else {
				cs.lineTo(0, a)
			}
			horizontal = !horizontal
		}
	case 8: // rrcurveto
		for i := 0; i+5 < len(args); i += 6 {
			cs.curveTo(args[i], args[i+1], args[i+2], args[i+3], args[i+4], args[i+5])
		}
	case 24: // rcurveline
		i := 0
		for ; i+5 < len(args)-2; i += 6 {
			cs.curveTo(args[i], args[i+1], args[i+2], args[i+3], args[i+4], args[i+5])
		}
		if i+1 < len(args) {
			cs.lineTo(args[i], args[i+1])
		}
	case 25: // rlinecurve
		i := 0
		for ; i+1 < len(args)-6; i += 2 {
			cs.lineTo(args[i], args[i+1])
		}
		if i+5 < len(args) {
			cs.curveTo(args[i], args[i+1], args[i+2], args[i+3], args[i+4], args[i+5])
		}
	case 26: // vvcurveto
		i := 0
		dx1 := 0.0
		if len(args)%4 == 1 {
			dx1, i = args[0], 1
		}
		for ; i+3 < len(args); i += 4 {
			cs.curveTo(dx1, args[i], args[i+1], args[i+2], 0, args[i+3])
			dx1 = 0
		}
	case 27: // hhcurveto
		i := 0
		dy1 := 0.0
		if len(args)%4 == 1 {
			dy1, i = args[0], 1
		}
		for ; i+3 < len(args); i += 4 {
			cs.curveTo(args[i], dy1, args[i+1], args[i+2], args[i+3], 0)
			dy1 = 0
		}
	case 30, 31: // vhcurveto, hvcurveto
		horizontal := op == 31
		for i := 0; i+3 < len(args); i += 4 {
			last := 0.0
			if len(args)-i == 5 {
				last = args[i+4]
			}
			if horizontal {
				cs.curveTo(args[i], 0, args[i+1], args[i+2], last, args[i+3])
			} else {
				cs.curveTo(0, args[i], args[i+1], args[i+2], args[i+3], last)
			}
			horizontal = !horizontal
		}
	case 10, 29: // callsubr, callgsubr
		if len(cs.stack) == 0 {
			return false, cs.errorf("callsubr: stack underflow")
		}
		subrs := cs.fd.LocalSubrs
		if op == 29 {
			subrs = cs.cff.GlobalSubrs
		}
		n := int(cs.stack[len(cs.stack)-1]) + subrs.SubrBias()
		cs.stack = cs.stack[:len(cs.stack)-1]
		if len(cs.calls) > ot.MaxSubrDepth {
			return false, cs.errorf("subroutines nested too deeply")
		}
		prog, err := subrs.At(n)
		if err != nil {
			return false, cs.errorf("subroutine %d: %v", n, err)
		}
		cs.calls = append(cs.calls, csFrame{prog: prog})
		return false, nil
	case 11: // return
		if len(cs.calls) <= 1 {
			return false, cs.errorf("return outside of subroutine")
		}
		cs.calls = cs.calls[:len(cs.calls)-1]
		return false, nil
	case 14: // endchar
		if cs.cff.Version == 2 {
			return false, cs.errorf("endchar in CFF2")
		}
		cs.takeWidth(len(cs.stack) == 1 || len(cs.stack) == 5)
		if len(cs.stack) == 4 && depth == 0 {
			return true, cs.seac(cs.stack[0], cs.stack[1], int(cs.stack[2]), int(cs.stack[3]))
		}
		return true, nil
	case 15: // vsindex
		if len(cs.stack) < 1 {
			return false, cs.errorf("vsindex: stack underflow")
		}
		cs.vsindex = int(cs.stack[len(cs.stack)-1])
	case 16: // blend
		return false, cs.blend()
	case 12:
		if fr.pc >= len(fr.prog) {
			return false, cs.errorf("truncated escape")
		}
		op2 := fr.prog[fr.pc]
		fr.pc++
		if handled, err := cs.arithmetic(op2); handled || err != nil {
			return false, err
		}
		if err := cs.flex(op2); err != nil {
			return false, err
		}
	default:
		return false, cs.errorf("unknown operator %d", op)
	}
	cs.stack = cs.stack[:0]
	return false, nil
}

// blend computes n interpolated values from n default values and n×k deltas.
func (cs *csInterpreter) blend() error {
	if len(cs.stack) < 1 {
		return cs.errorf("blend: stack underflow")
	}
	n := int(cs.stack[len(cs.stack)-1])
	scalars := cs.cff.VarStore.RegionScalars(cs.vsindex, cs.face.coords)
	k := len(scalars)
	if cs.cff.VarStore != nil && cs.vsindex < len(cs.cff.VarStore.Data) {
		k = len(cs.cff.VarStore.Data[cs.vsindex].RegionIndices)
	}
	need := n*(k+1) + 1
	if n < 0 || len(cs.stack) < need {
		return cs.errorf("blend: stack underflow")
	}
	base := len(cs.stack) - need
	deltas := base + n
	for i := 0; i < n; i++ {
		v := cs.stack[base+i]
		for j := 0; j < k && j < len(scalars); j++ {
			v += cs.stack[deltas+i*k+j] * scalars[j]
		}
		cs.stack[base+i] = v
	}
	cs.stack = cs.stack[:base+n]
	return nil
}

// arithmeticArgs holds the operand count of the arithmetic and storage operators.
var arithmeticArgs = map[byte]int{3: 2, 4: 2, 5: 1, 9: 1, 10: 2, 11: 2, 12: 2, 14: 1, 15: 2, 18: 1,
	20: 2, 21: 1, 22: 4, 23: 0, 24: 2, 26: 1, 27: 1, 28: 2, 29: 1, 30: 2}

// arithmetic executes the arithmetic and storage operators. It leaves the result
// on the stack and reports whether op2 was handled.
func (cs *csInterpreter) arithmetic(op2 byte) (bool, error) {
	s := cs.stack
	n, ok := arithmeticArgs[op2]
	if !ok {
		return false, nil
	}
	if len(s) < n {
		return true, cs.errorf("arithmetic operator 12 %d: stack underflow", op2)
	}
	top := len(s) - 1
	boolean := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}
	switch op2 {
	case 3: // and
		s[top-1] = boolean(s[top-1] != 0 && s[top] != 0)
		s = s[:top]
	case 4: // or
		s[top-1] = boolean(s[top-1] != 0 || s[top] != 0)
		s = s[:top]
	case 5: // not
		s[top] = boolean(s[top] == 0)
	case 9: // abs
		s[top] = math.Abs(s[top])
	case 10: // add
		s[top-1] += s[top]
		s = s[:top]
	case 11: // sub
		s[top-1] -= s[top]
		s = s[:top]
	case 12: // div
		if s[top] == 0 {
			return true, cs.errorf("division by zero")
		}
		s[top-1] /= s[top]
		s = s[:top]
	case 14: // neg
		s[top] = -s[top]
	case 15: // eq
		s[top-1] = boolean(s[top-1] == s[top])
		s = s[:top]
	case 18: // drop
		s = s[:top]
	case 20: // put
		i := int(s[top])
		if i < 0 || i >= len(cs.transient) {
			return true, cs.errorf("put: index %d out of range", i)
		}
		cs.transient[i] = s[top-1]
		s = s[:top-1]
	case 21: // get
		i := int(s[top])
		if i < 0 || i >= len(cs.transient) {
			return true, cs.errorf("get: index %d out of range", i)
		}
		s[top] = cs.transient[i]
	case 22: // ifelse
		if s[top-1] > s[top] {
			s[top-3] = s[top-2]
		}
		s = s[:top-2]
	case 23: // random; deterministic output is preferred
		cs.stack = s
		return true, cs.push(0.5)
	case 24: // mul
		s[top-1] *= s[top]
		s = s[:top]
	case 26: // sqrt
		s[top] = math.Sqrt(math.Abs(s[top]))
	case 27: // dup
		cs.stack = s
		return true, cs.push(s[top])
	case 28: // exch
		s[top-1], s[top] = s[top], s[top-1]
	case 29: // index
		i := int(s[top])
		if i < 0 {
			i = 0
		}
		if i >= top {
			return true, cs.errorf("index: stack underflow")
		}
		s[top] = s[top-1-i]
	case 30: // roll
		n, j := int(s[top-1]), int(s[top])
		s = s[:top-1]
		if n <= 0 || n > len(s) {
			return true, cs.errorf("roll: stack underflow")
		}
		part := s[len(s)-n:]
		j = ((j % n) + n) % n
		rolled := append(append([]float64{}, part[n-j:]...), part[:n-j]...)
		copy(part, rolled)
	}
	cs.stack = s
	return true, nil
}

// flex executes the flex operators, drawing two curves each.
func (cs *csInterpreter) flex(op2 byte) error {
	a := cs.stack
	switch op2 {
	case 35: // flex
		if len(a) < 13 {
			return cs.errorf("flex: stack underflow")
		}
		cs.curveTo(a[0], a[1], a[2], a[3], a[4], a[5])
		cs.curveTo(a[6], a[7], a[8], a[9], a[10], a[11])
	case 34: // hflex
		if len(a) < 7 {
			return cs.errorf("hflex: stack underflow")
		}
		y0 := cs.y
		cs.curveTo(a[0], 0, a[1], a[2], a[3], 0)
		cs.curveTo(a[4], 0, a[5], y0-cs.y, a[6], 0)
	case 36: // hflex1
		if len(a) < 9 {
			return cs.errorf("hflex1: stack underflow")
		}
		y0 := cs.y
		cs.curveTo(a[0], a[1], a[2], a[3], a[4], 0)
		cs.curveTo(a[5], 0, a[6], a[7], a[8], y0-cs.y-a[7])
	case 37: // flex1
		if len(a) < 11 {
			return cs.errorf("flex1: stack underflow")
		}
		dx := a[0] + a[2] + a[4] + a[6] + a[8]
		dy := a[1] + a[3] + a[5] + a[7] + a[9]
		cs.curveTo(a[0], a[1], a[2], a[3], a[4], a[5])
		if math.Abs(dx) > math.Abs(dy) {
			cs.curveTo(a[6], a[7], a[8], a[9], a[10], -dy)
		} else {
			cs.curveTo(a[6], a[7], a[8], a[9], -dx, a[10])
		}
	default:
		return cs.errorf("unknown operator 12 %d", op2)
	}
	return nil
}

// seac composes an accented character from two glyphs of the standard encoding.
func (cs *csInterpreter) seac(adx, ady float64, bchar, achar int) error {
	base, ok1 := cs.cff.StandardEncodingGlyph(bchar)
	accent, ok2 := cs.cff.StandardEncodingGlyph(achar)
	if !ok1 || !ok2 {
		return cs.errorf("seac: characters %d/%d not in font", bchar, achar)
	}
	width := cs.width
	sub := &csInterpreter{face: cs.face, cff: cs.cff}
	if err := sub.run(base, 1); err != nil {
		return err
	}
	acc := &csInterpreter{face: cs.face, cff: cs.cff, x: adx, y: ady}
	if err := acc.run(accent, 1); err != nil {
		return err
	}
	cs.segs = append(append(cs.segs, sub.segs...), acc.segs...)
	cs.width = width
	return nil
}
