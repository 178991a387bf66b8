// Package random provides the random sources used for stat rolls and accuracy checks.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source is the subset of *rand.Rand the game logic needs.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// Locked is a goroutine-safe PCG source. Sessions resolve moves in parallel
// and share one Locked instance.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Locked source seeded with seed.
func New(seed uint64) *Locked {
	return &Locked{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// IntN returns a value in [0, n).
func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Float64 returns a value in [0, 1).
func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Fixed always returns the same values. Used to force hits, misses and rolls in tests.
type Fixed struct {
	F float64 // returned by Float64
	I int     // returned by IntN, clamped to n-1
}

func (f Fixed) IntN(n int) int {
	if f.I >= n {
		return n - 1
	}
	if f.I < 0 {
		return 0
	}
	return f.I
}

func (f Fixed) Float64() float64 { return f.F }
