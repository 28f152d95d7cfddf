package syllable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	x uint8 = iota
	c
	h
	m
)

func TestPatterns(t *testing.T) {
	cats := []uint8{c, h, c, m, x}
	assert.ElementsMatch(t, []int{1}, Cat(c).step(cats, []int{0}))
	assert.Empty(t, Cat(h).step(cats, []int{0}))
	assert.ElementsMatch(t, []int{0, 1}, Opt(Cat(c)).step(cats, []int{0}))
	assert.ElementsMatch(t, []int{0, 2}, Star(Seq(Cat(c), Cat(h))).step(cats, []int{0}))
	assert.ElementsMatch(t, []int{3, 4}, Seq(Plus(Seq(Cat(c), Cat(h))), Cat(c), Opt(Cat(m))).step(cats, []int{0}))
	assert.ElementsMatch(t, []int{1, 2}, Alt(Cat(c), Seq(Cat(c), Cat(h))).step(cats, []int{0}))
	assert.True(t, Of(c, m).Has(m))
	assert.False(t, Of(c, m).Has(h))
}

func TestMachineLongestMatch(t *testing.T) {
	consonant := Seq(Star(Seq(Cat(c), Cat(h))), Cat(c), Opt(Cat(m)))
	broken := Plus(Cat(m, h))
	machine := Machine{
		Rules:    []Rule{{Type: 1, Pattern: consonant}, {Type: 2, Pattern: broken}},
		Fallback: 3,
	}
	syls := machine.Find([]uint8{c, h, c, m, c, x, m, h})
	assert.Equal(t, []Syllable{
		{Start: 0, End: 4, Type: 1},
		{Start: 4, End: 5, Type: 1},
		{Start: 5, End: 6, Type: 3},
		{Start: 6, End: 8, Type: 2},
	}, syls)
	assert.Empty(t, machine.Find(nil))
}

func TestSerial(t *testing.T) {
	s := Serial(0, 2)
	assert.Equal(t, uint8(2), Type(s))
	assert.NotEqual(t, Serial(0, 2), Serial(1, 2))
	assert.NotEqual(t, Serial(0xffe, 1), Serial(0xfff, 1))
}
