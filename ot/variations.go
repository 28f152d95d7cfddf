package ot

import (
	"fmt"
	"math"
)

// --- fvar ------------------------------------------------------------------

// VariationAxis is a design-variation axis of a variable font.
type VariationAxis struct {
	Tag               Tag
	Min, Default, Max float64
	Hidden            bool
	NameID            NameID
}

// NamedInstance is a predefined instance of a variable font.
type NamedInstance struct {
	SubfamilyNameID NameID
	Coords          []float64 // user-space coordinates, one per axis
}

// FVarTable, the font variations table, defines the variation axes of a variable font.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/fvar
type FVarTable struct {
	tableBase
	Axes      []VariationAxis
	Instances []NamedInstance
}

// Normalize maps user-space coordinates to normalized coordinates in [-1, 1].
// Coordinates are clamped to the axis ranges; validation is up to the caller.
func (t *FVarTable) Normalize(user []float64) []float64 {
	norm := make([]float64, len(t.Axes))
	for i, axis := range t.Axes {
		if i >= len(user) {
			break
		}
		v := math.Max(axis.Min, math.Min(axis.Max, user[i]))
		switch {
		case v < axis.Default && axis.Default > axis.Min:
			norm[i] = (v - axis.Default) / (axis.Default - axis.Min)
		case v > axis.Default && axis.Max > axis.Default:
			norm[i] = (v - axis.Default) / (axis.Max - axis.Default)
		}
	}
	return norm
}

func parseFVar(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("fvar table too small: %d bytes", len(b))
	}
	t := &FVarTable{}
	t.init(t, tag, b, offset, size)
	axesOff, axisCount, axisSize := int(u16(b[4:])), int(u16(b[8:])), int(u16(b[10:]))
	instCount, instSize := int(u16(b[12:])), int(u16(b[14:]))
	if axisSize < 20 || axisCount > 64 {
		return nil, fmt.Errorf("fvar: invalid axis records (%d × %d bytes)", axisCount, axisSize)
	}
	t.Axes = make([]VariationAxis, axisCount)
	for i := range t.Axes {
		a, err := b.view(axesOff+i*axisSize, 20)
		if err != nil {
			return nil, fmt.Errorf("fvar axis %d: %w", i, err)
		}
		t.Axes[i] = VariationAxis{
			Tag:     Tag(u32(a)),
			Min:     Fixed(u32(a[4:])).Float(),
			Default: Fixed(u32(a[8:])).Float(),
			Max:     Fixed(u32(a[12:])).Float(),
			Hidden:  u16(a[16:])&1 != 0,
			NameID:  NameID(u16(a[18:])),
		}
		if ax := t.Axes[i]; ax.Min > ax.Default || ax.Default > ax.Max {
			return nil, fmt.Errorf("fvar axis %s: default outside range", ax.Tag)
		}
	}
	if instSize < 4+4*axisCount {
		return t, nil
	}
	instOff := axesOff + axisCount*axisSize
	for i := 0; i < instCount; i++ {
		ib, err := b.view(instOff+i*instSize, 4+4*axisCount)
		if err != nil {
			ec.addError(tag, "InstanceRecord", fmt.Sprintf("instance %d exceeds table", i), SeverityMinor, offset)
			break
		}
		inst := NamedInstance{SubfamilyNameID: NameID(u16(ib)), Coords: make([]float64, axisCount)}
		for k := range inst.Coords {
			inst.Coords[k] = Fixed(u32(ib[4+4*k:])).Float()
		}
		t.Instances = append(t.Instances, inst)
	}
	return t, nil
}

// --- avar ------------------------------------------------------------------

// AxisValueMap maps a normalized coordinate to a modified normalized coordinate.
type AxisValueMap struct {
	From, To float64
}

// AVarTable, the axis variations table, modifies the normalization of coordinates.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/avar
type AVarTable struct {
	tableBase
	SegmentMaps [][]AxisValueMap // one per axis
}

// Map applies the segment maps to normalized coordinates, in place.
func (t *AVarTable) Map(norm []float64) {
	if t == nil {
		return
	}
	for i, v := range norm {
		if i >= len(t.SegmentMaps) {
			break
		}
		norm[i] = mapSegment(t.SegmentMaps[i], v)
	}
}

func mapSegment(m []AxisValueMap, v float64) float64 {
	if len(m) < 3 { // too few entries to override the identity mapping
		return v
	}
	for k := 1; k < len(m); k++ {
		if v <= m[k].From {
			prev, next := m[k-1], m[k]
			if next.From == prev.From {
				return next.To
			}
			return prev.To + (v-prev.From)*(next.To-prev.To)/(next.From-prev.From)
		}
	}
	return m[len(m)-1].To
}

func parseAVar(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("avar table too small: %d bytes", len(b))
	}
	t := &AVarTable{}
	t.init(t, tag, b, offset, size)
	r, _ := NewReaderAt(b, 6)
	n, _ := r.U16()
	t.SegmentMaps = make([][]AxisValueMap, n)
	for i := range t.SegmentMaps {
		cnt, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("avar segment map %d: %w", i, err)
		}
		m := make([]AxisValueMap, cnt)
		for k := range m {
			from, _ := r.F2Dot14()
			to, err := r.F2Dot14()
			if err != nil {
				return nil, fmt.Errorf("avar segment map %d: %w", i, err)
			}
			m[k] = AxisValueMap{From: from.Float(), To: to.Float()}
			if k > 0 && m[k].From < m[k-1].From {
				return nil, fmt.Errorf("avar segment map %d not sorted", i)
			}
		}
		t.SegmentMaps[i] = m
	}
	return t, nil
}

// --- Tuples ----------------------------------------------------------------

// TupleRegion is a region of the design space, given as peak and optional
// intermediate start/end coordinates per axis.
type TupleRegion struct {
	Peak, Start, End []float64 // Start and End are nil if implied by Peak
}

// Scalar returns the influence of the region at normalized coordinates.
func (tr TupleRegion) Scalar(coords []float64) float64 {
	scalar := 1.0
	for i, peak := range tr.Peak {
		if peak == 0 {
			continue
		}
		v := 0.0
		if i < len(coords) {
			v = coords[i]
		}
		if v == peak {
			continue
		}
		start, end := math.Min(0, peak), math.Max(0, peak)
		if tr.Start != nil {
			start, end = tr.Start[i], tr.End[i]
			if start > peak || peak > end || (start < 0 && end > 0) {
				continue
			}
		}
		if v <= start || v >= end {
			return 0
		}
		if v < peak {
			scalar *= (v - start) / (peak - start)
		} else {
			scalar *= (end - v) / (end - peak)
		}
	}
	return scalar
}

// --- gvar ------------------------------------------------------------------

// GVarTable, the glyph variations table, holds per-glyph point deltas for
// TrueType outlines.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/gvar
type GVarTable struct {
	tableBase
	AxisCount    int
	sharedTuples [][]float64
	glyphCount   int
	longOffsets  bool
	dataArray    binarySegm
	offsets      binarySegm
}

// TupleVariation holds the deltas of one tuple variation of a glyph.
type TupleVariation struct {
	TupleRegion
	Points []int // point numbers; nil means all points
	DX, DY []int16
}

func parseGVar(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 20 {
		return nil, fmt.Errorf("gvar table too small: %d bytes", len(b))
	}
	t := &GVarTable{}
	t.init(t, tag, b, offset, size)
	t.AxisCount = int(u16(b[4:]))
	sharedCount, sharedOff := int(u16(b[6:])), int(u32(b[8:]))
	t.glyphCount = int(u16(b[12:]))
	t.longOffsets = u16(b[14:])&1 != 0
	var err error
	if t.dataArray, err = b.from(int(u32(b[16:]))); err != nil {
		return nil, fmt.Errorf("gvar data array: %w", err)
	}
	entry := 2
	if t.longOffsets {
		entry = 4
	}
	if t.offsets, err = b.view(20, (t.glyphCount+1)*entry); err != nil {
		return nil, fmt.Errorf("gvar offsets: %w", err)
	}
	sb, err := b.view(sharedOff, sharedCount*t.AxisCount*2)
	if err != nil {
		return nil, fmt.Errorf("gvar shared tuples: %w", err)
	}
	t.sharedTuples = make([][]float64, sharedCount)
	for i := range t.sharedTuples {
		t.sharedTuples[i] = readTuple(sb[i*t.AxisCount*2:], t.AxisCount)
	}
	return t, nil
}

func readTuple(b binarySegm, n int) []float64 {
	tuple := make([]float64, n)
	for i := range tuple {
		tuple[i] = F2Dot14(i16(b[2*i:])).Float()
	}
	return tuple
}

func (t *GVarTable) glyphData(g GlyphIndex) (binarySegm, error) {
	if int(g) >= t.glyphCount {
		return nil, nil
	}
	var from, to int
	if t.longOffsets {
		from, to = int(u32(t.offsets[4*int(g):])), int(u32(t.offsets[4*int(g)+4:]))
	} else {
		from, to = int(u16(t.offsets[2*int(g):]))*2, int(u16(t.offsets[2*int(g)+2:]))*2
	}
	if to <= from {
		return nil, nil
	}
	return t.dataArray.view(from, to-from)
}

// Tuple variation flags.
const (
	tupleSharedPointNumbers  = 0x8000
	tupleCountMask           = 0x0fff
	tupleEmbeddedPeak        = 0x8000
	tupleIntermediateRegion  = 0x4000
	tuplePrivatePointNumbers = 0x2000
	tupleIndexMask           = 0x0fff
)

// GlyphVariations decodes the tuple variations of glyph g. numPoints is the
// number of outline points including the four phantom points.
func (t *GVarTable) GlyphVariations(g GlyphIndex, numPoints int) ([]TupleVariation, error) {
	if t == nil {
		return nil, nil
	}
	data, err := t.glyphData(g)
	if err != nil || data == nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, ErrUnexpectedEnd
	}
	count, dataOff := u16(data), int(u16(data[2:]))
	hdr := NewReader(data[4:])
	serial, err := NewReaderAt(data, dataOff)
	if err != nil {
		return nil, fmt.Errorf("gvar glyph %d: %w", g, err)
	}
	var shared []int
	if count&tupleSharedPointNumbers != 0 {
		if shared, err = readPackedPoints(serial, numPoints); err != nil {
			return nil, fmt.Errorf("gvar glyph %d shared points: %w", g, err)
		}
	}
	n := int(count & tupleCountMask)
	tuples := make([]TupleVariation, 0, n)
	for i := 0; i < n; i++ {
		dataSize, _ := hdr.U16()
		index, err := hdr.U16()
		if err != nil {
			return nil, fmt.Errorf("gvar glyph %d tuple header: %w", g, err)
		}
		var tv TupleVariation
		if index&tupleEmbeddedPeak != 0 {
			pb, err := hdr.Bytes(2 * t.AxisCount)
			if err != nil {
				return nil, err
			}
			tv.Peak = readTuple(pb, t.AxisCount)
		} else {
			k := int(index & tupleIndexMask)
			if k >= len(t.sharedTuples) {
				return nil, fmt.Errorf("gvar glyph %d: shared tuple %d out of range", g, k)
			}
			tv.Peak = t.sharedTuples[k]
		}
		if index&tupleIntermediateRegion != 0 {
			ib, err := hdr.Bytes(4 * t.AxisCount)
			if err != nil {
				return nil, err
			}
			tv.Start = readTuple(ib, t.AxisCount)
			tv.End = readTuple(ib[2*t.AxisCount:], t.AxisCount)
		}
		tb, err := serial.Bytes(int(dataSize))
		if err != nil {
			return nil, fmt.Errorf("gvar glyph %d tuple data: %w", g, err)
		}
		tr := NewReader(tb)
		tv.Points = shared
		if index&tuplePrivatePointNumbers != 0 {
			if tv.Points, err = readPackedPoints(tr, numPoints); err != nil {
				return nil, fmt.Errorf("gvar glyph %d points: %w", g, err)
			}
		}
		cnt := numPoints
		if tv.Points != nil {
			cnt = len(tv.Points)
		}
		if tv.DX, err = readPackedDeltas(tr, cnt); err != nil {
			return nil, fmt.Errorf("gvar glyph %d deltas: %w", g, err)
		}
		if tv.DY, err = readPackedDeltas(tr, cnt); err != nil {
			return nil, fmt.Errorf("gvar glyph %d deltas: %w", g, err)
		}
		tuples = append(tuples, tv)
	}
	return tuples, nil
}

// readPackedPoints returns nil for "all points".
func readPackedPoints(r *Reader, numPoints int) ([]int, error) {
	c, err := r.U8()
	if err != nil {
		return nil, err
	}
	count := int(c)
	if c&0x80 != 0 {
		lo, err := r.U8()
		if err != nil {
			return nil, err
		}
		count = int(c&0x7f)<<8 | int(lo)
	}
	if count == 0 {
		return nil, nil
	}
	if count > numPoints {
		return nil, fmt.Errorf("%d point numbers for %d points", count, numPoints)
	}
	points := make([]int, 0, count)
	p := 0
	for len(points) < count {
		ctl, err := r.U8()
		if err != nil {
			return nil, err
		}
		run := int(ctl&0x7f) + 1
		for k := 0; k < run && len(points) < count; k++ {
			if ctl&0x80 != 0 {
				d, err := r.U16()
				if err != nil {
					return nil, err
				}
				p += int(d)
			} else {
				d, err := r.U8()
				if err != nil {
					return nil, err
				}
				p += int(d)
			}
			points = append(points, p)
		}
	}
	return points, nil
}

func readPackedDeltas(r *Reader, count int) ([]int16, error) {
	deltas := make([]int16, 0, count)
	for len(deltas) < count {
		ctl, err := r.U8()
		if err != nil {
			return nil, err
		}
		run := int(ctl&0x3f) + 1
		for k := 0; k < run && len(deltas) < count; k++ {
			switch {
			case ctl&0x80 != 0:
				deltas = append(deltas, 0)
			case ctl&0x40 != 0:
				d, err := r.I16()
				if err != nil {
					return nil, err
				}
				deltas = append(deltas, d)
			default:
				d, err := r.U8()
				if err != nil {
					return nil, err
				}
				deltas = append(deltas, int16(int8(d)))
			}
		}
	}
	return deltas, nil
}

// --- Item variation store --------------------------------------------------

// ItemVariationStore holds delta sets for variable values, as used by
// HVAR, CFF2 and others.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/otvarcommonformats
type ItemVariationStore struct {
	Regions []TupleRegion
	Data    []ItemVariationData
}

// ItemVariationData is a set of delta rows for a subset of regions.
type ItemVariationData struct {
	RegionIndices []uint16
	Deltas        [][]int32 // per item, one delta per region index
}

// Delta returns the interpolated delta of an item at normalized coordinates.
func (s *ItemVariationStore) Delta(outer, inner int, coords []float64) float64 {
	if s == nil || outer >= len(s.Data) || inner >= len(s.Data[outer].Deltas) {
		return 0
	}
	d := s.Data[outer]
	var sum float64
	for k, ri := range d.RegionIndices {
		if int(ri) >= len(s.Regions) {
			continue
		}
		if sc := s.Regions[ri].Scalar(coords); sc != 0 {
			sum += sc * float64(d.Deltas[inner][k])
		}
	}
	return sum
}

// RegionScalars returns the scalars of the regions referenced by item variation
// data #outer, in region index order. CFF2 blend operators use them.
func (s *ItemVariationStore) RegionScalars(outer int, coords []float64) []float64 {
	if s == nil || outer < 0 || outer >= len(s.Data) {
		return nil
	}
	ri := s.Data[outer].RegionIndices
	scalars := make([]float64, len(ri))
	for k, r := range ri {
		if int(r) < len(s.Regions) {
			scalars[k] = s.Regions[r].Scalar(coords)
		}
	}
	return scalars
}

func parseItemVariationStore(b binarySegm) (*ItemVariationStore, error) {
	if len(b) < 8 || u16(b) != 1 {
		return nil, fmt.Errorf("invalid item variation store")
	}
	s := &ItemVariationStore{}
	rl, err := b.offset32(2)
	if err != nil || rl == nil {
		return nil, fmt.Errorf("variation region list: %v", err)
	}
	axisCount, regionCount := int(u16(rl)), int(u16(rl[2:]))
	rb, err := rl.view(4, regionCount*axisCount*6)
	if err != nil {
		return nil, fmt.Errorf("variation region list: %w", err)
	}
	s.Regions = make([]TupleRegion, regionCount)
	for i := range s.Regions {
		reg := TupleRegion{
			Start: make([]float64, axisCount),
			Peak:  make([]float64, axisCount),
			End:   make([]float64, axisCount),
		}
		for a := 0; a < axisCount; a++ {
			ab := rb[(i*axisCount+a)*6:]
			reg.Start[a] = F2Dot14(i16(ab)).Float()
			reg.Peak[a] = F2Dot14(i16(ab[2:])).Float()
			reg.End[a] = F2Dot14(i16(ab[4:])).Float()
		}
		s.Regions[i] = reg
	}
	n := int(u16(b[6:]))
	s.Data = make([]ItemVariationData, n)
	for i := range s.Data {
		db, err := b.offset32(8 + 4*i)
		if err != nil || db == nil {
			return nil, fmt.Errorf("item variation data %d: offset invalid", i)
		}
		if s.Data[i], err = parseItemVariationData(db); err != nil {
			return nil, fmt.Errorf("item variation data %d: %w", i, err)
		}
	}
	return s, nil
}

func parseItemVariationData(b binarySegm) (ItemVariationData, error) {
	var d ItemVariationData
	r := NewReader(b)
	itemCount, _ := r.U16()
	wordDeltas, _ := r.U16()
	regionCount, err := r.U16()
	if err != nil {
		return d, err
	}
	long := wordDeltas&0x8000 != 0
	words := int(wordDeltas & 0x7fff)
	if words > int(regionCount) {
		return d, fmt.Errorf("word delta count exceeds region count")
	}
	d.RegionIndices = make([]uint16, regionCount)
	for k := range d.RegionIndices {
		if d.RegionIndices[k], err = r.U16(); err != nil {
			return d, err
		}
	}
	d.Deltas = make([][]int32, itemCount)
	for i := range d.Deltas {
		row := make([]int32, regionCount)
		for k := range row {
			var v int32
			switch {
			case k < words && long:
				x, e := r.U32()
				v, err = int32(x), e
			case k < words || long:
				x, e := r.I16()
				v, err = int32(x), e
			default:
				x, e := r.U8()
				v, err = int32(int8(x)), e
			}
			if err != nil {
				return d, err
			}
			row[k] = v
		}
		d.Deltas[i] = row
	}
	return d, nil
}

// --- HVAR ------------------------------------------------------------------

// HVarTable, the horizontal metrics variations table, holds advance width deltas.
//
// See https://docs.microsoft.com/en-us/typography/opentype/spec/hvar
type HVarTable struct {
	tableBase
	Store      *ItemVariationStore
	advanceMap *deltaSetIndexMap // nil: implicit mapping by glyph index
}

type deltaSetIndexMap struct {
	entrySize, innerBits int
	count                int
	data                 binarySegm
}

func (m *deltaSetIndexMap) lookup(g GlyphIndex) (int, int) {
	if m == nil {
		return 0, int(g)
	}
	i := int(g)
	if i >= m.count {
		i = m.count - 1
	}
	var entry uint32
	for _, c := range m.data[i*m.entrySize : (i+1)*m.entrySize] {
		entry = entry<<8 | uint32(c)
	}
	return int(entry >> m.innerBits), int(entry & (1<<m.innerBits - 1))
}

// AdvanceDelta returns the advance width delta of glyph g at normalized coordinates,
// in font units.
func (t *HVarTable) AdvanceDelta(g GlyphIndex, coords []float64) float64 {
	if t == nil {
		return 0
	}
	outer, inner := t.advanceMap.lookup(g)
	return t.Store.Delta(outer, inner, coords)
}

func parseHVar(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if len(b) < 20 {
		return nil, fmt.Errorf("HVAR table too small: %d bytes", len(b))
	}
	t := &HVarTable{}
	t.init(t, tag, b, offset, size)
	sb, err := b.offset32(4)
	if err != nil || sb == nil {
		return nil, fmt.Errorf("HVAR item variation store missing")
	}
	if t.Store, err = parseItemVariationStore(sb); err != nil {
		return nil, fmt.Errorf("HVAR: %w", err)
	}
	mb, err := b.offset32(8)
	if err != nil {
		return nil, fmt.Errorf("HVAR advance mapping: %w", err)
	}
	if mb != nil {
		if t.advanceMap, err = parseDeltaSetIndexMap(mb); err != nil {
			return nil, fmt.Errorf("HVAR advance mapping: %w", err)
		}
	}
	return t, nil
}

func parseDeltaSetIndexMap(b binarySegm) (*deltaSetIndexMap, error) {
	if len(b) < 4 {
		return nil, ErrUnexpectedEnd
	}
	m := &deltaSetIndexMap{}
	format, entryFormat := b[0], b[1]
	hdr := 4
	switch format {
	case 0:
		m.count = int(u16(b[2:]))
	case 1:
		if len(b) < 6 {
			return nil, ErrUnexpectedEnd
		}
		m.count, hdr = int(u32(b[2:])), 6
	default:
		return nil, fmt.Errorf("unknown delta set index map format %d", format)
	}
	m.entrySize = int(entryFormat>>4&3) + 1
	m.innerBits = int(entryFormat&0xf) + 1
	if m.count == 0 {
		return nil, fmt.Errorf("empty delta set index map")
	}
	var err error
	if m.data, err = b.view(hdr, m.count*m.entrySize); err != nil {
		return nil, err
	}
	return m, nil
}
