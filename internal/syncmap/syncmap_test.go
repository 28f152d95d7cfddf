package syncmap

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type key struct {
	r    rune
	next rune
}

func TestLoadOrCompute(t *testing.T) {
	m := New[key, int]()
	_, ok := m.Load(key{'a', 0})
	assert.False(t, ok)
	calls := 0
	v := m.LoadOrCompute(key{'a', 0}, func() int { calls++; return 7 })
	assert.Equal(t, 7, v)
	v = m.LoadOrCompute(key{'a', 0}, func() int { calls++; return 8 })
	assert.Equal(t, 7, v, "first stored value wins")
	assert.Equal(t, 1, calls)
	v, ok = m.Load(key{'a', 0})
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, m.Len())
	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestConcurrentAccess(t *testing.T) {
	m := New[key, rune]()
	var computed atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := rune(0); r < 500; r++ {
				got := m.LoadOrCompute(key{r, 0}, func() rune {
					computed.Add(1)
					return r * 2
				})
				if got != r*2 {
					t.Errorf("key %d: expected %d, got %d", r, r*2, got)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, m.Len())
	assert.GreaterOrEqual(t, int(computed.Load()), 500)
}
