package otface

import (
	"errors"
	"testing"

	"github.com/npillmayer/opentext/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interpreter(version int) *csInterpreter {
	return &csInterpreter{
		face: &Face{},
		cff:  &ot.CFFTable{Version: version},
		fd:   &ot.CFFFontDict{NominalWidthX: 10, DefaultWidthX: 500},
	}
}

func TestCharStringNumbers(t *testing.T) {
	tests := []struct {
		enc []byte
		v   float64
		n   int
	}{
		{[]byte{139}, 0, 1},
		{[]byte{32}, -107, 1},
		{[]byte{246}, 107, 1},
		{[]byte{247, 0}, 108, 2},
		{[]byte{251, 0}, -108, 2},
		{[]byte{28, 0x12, 0x34}, 0x1234, 3},
		{[]byte{255, 0, 1, 0x80, 0}, 1.5, 5},
	}
	for _, tt := range tests {
		v, n, err := csNumber(tt.enc)
		require.NoError(t, err)
		assert.Equal(t, tt.v, v, "%v", tt.enc)
		assert.Equal(t, tt.n, n)
	}
	_, _, err := csNumber([]byte{28, 1})
	assert.True(t, errors.Is(err, ErrCharString))
}

func TestCharStringWidthAndHints(t *testing.T) {
	cs := interpreter(1)
	cs.stack = []float64{5, 0, 20, 30, 40}
	fr := &csFrame{prog: []byte{0xc0, 21}}
	_, err := cs.operator(1, fr, 0) // hstem with width
	require.NoError(t, err)
	assert.Equal(t, 15.0, cs.width)
	assert.Equal(t, 2, cs.nStems)
	assert.Empty(t, cs.stack)
	cs.stack = []float64{1, 2}
	_, err = cs.operator(19, fr, 0) // hintmask with implicit vstem
	require.NoError(t, err)
	assert.Equal(t, 3, cs.nStems)
	assert.Equal(t, 1, fr.pc, "mask of one byte skipped")
	//
	cs = interpreter(1)
	cs.stack = []float64{10, 20}
	_, err = cs.operator(21, fr, 0)
	require.NoError(t, err)
	assert.Equal(t, 500.0, cs.width, "default width")
	assert.Equal(t, Segment{Op: MoveTo, Args: [3]Point{{10, 20}}}, cs.segs[0])
}

func TestCharStringArithmetic(t *testing.T) {
	cs := interpreter(1)
	run := func(stack []float64, op byte) []float64 {
		cs.stack = append([]float64(nil), stack...)
		handled, err := cs.arithmetic(op)
		require.NoError(t, err)
		require.True(t, handled)
		return cs.stack
	}
	assert.Equal(t, []float64{7}, run([]float64{3, 4}, 10))
	assert.Equal(t, []float64{-1}, run([]float64{3, 4}, 11))
	assert.Equal(t, []float64{12}, run([]float64{3, 4}, 24))
	assert.Equal(t, []float64{4, 3}, run([]float64{3, 4}, 28))
	assert.Equal(t, []float64{3, 3}, run([]float64{3}, 27))
	assert.Equal(t, []float64{3, 1, 2}, run([]float64{1, 2, 3, 3, 1}, 30))
	assert.Equal(t, []float64{8, 9, 8}, run([]float64{8, 9, 1}, 29))
	assert.Equal(t, []float64{2}, run([]float64{1, 2, 5, 3}, 22))
	assert.Equal(t, []float64{1}, run([]float64{1, 2, 3, 5}, 22))
	run([]float64{42, 3}, 20)
	assert.Equal(t, []float64{42}, run([]float64{3}, 21))
	cs.stack = []float64{1, 0}
	_, err := cs.arithmetic(12)
	assert.True(t, errors.Is(err, ErrCharString))
	handled, _ := cs.arithmetic(35)
	assert.False(t, handled, "flex is not arithmetic")
}

func TestCharStringBlend(t *testing.T) {
	cs := interpreter(2)
	cs.face.coords = []float64{0.5}
	cs.cff.VarStore = &ot.ItemVariationStore{
		Regions: []ot.TupleRegion{{Peak: []float64{1}}},
		Data:    []ot.ItemVariationData{{RegionIndices: []uint16{0}}},
	}
	cs.stack = []float64{100, 200, 40, -20, 2}
	require.NoError(t, cs.blend())
	assert.Equal(t, []float64{120, 190}, cs.stack)
	cs.stack = []float64{100, 1}
	assert.Error(t, cs.blend(), "missing deltas")
}

func TestCharStringStackLimit(t *testing.T) {
	cs := interpreter(1)
	for i := 0; i < cffStackLimit; i++ {
		require.NoError(t, cs.push(1))
	}
	assert.True(t, errors.Is(cs.push(1), ErrCharString))
	cs = interpreter(2)
	for i := 0; i < cffStackLimit+1; i++ {
		require.NoError(t, cs.push(1))
	}
}

func TestCharStringFlex(t *testing.T) {
	cs := interpreter(1)
	cs.stack = []float64{10, 0, 10, 5, 10, 0, 10, 0, 10, -5, 10}
	fr := &csFrame{}
	_, err := cs.operator(12, &csFrame{prog: []byte{36}}, 0) // hflex1 needs 9 arguments
	require.NoError(t, err)
	require.Len(t, cs.segs, 2)
	assert.Equal(t, float32(0), cs.segs[1].End().Y, "hflex1 returns to the start height")
	cs.stack = []float64{1, 2}
	_, err = cs.operator(12, fr, 0)
	assert.Error(t, err, "truncated escape")
}
