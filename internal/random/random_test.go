package random

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocked_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for range 20 {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestLocked_Concurrent(t *testing.T) {
	src := New(1)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				v := src.Float64()
				assert.GreaterOrEqual(t, v, 0.0)
				assert.Less(t, v, 1.0)
			}
		}()
	}
	wg.Wait()
}

func TestFixed(t *testing.T) {
	f := Fixed{F: 0.5, I: 10}
	assert.Equal(t, 0.5, f.Float64())
	assert.Equal(t, 4, f.IntN(5))
	assert.Equal(t, 10, f.IntN(50))
	assert.Equal(t, 0, Fixed{I: -3}.IntN(5))
}

func TestNewSeed(t *testing.T) {
	_, err := NewSeed()
	assert.NoError(t, err)
}
