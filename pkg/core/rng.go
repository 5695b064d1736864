package core

import (
	"math/rand/v2"

	icore "jumpflood/internal/core"
)

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Pixel returns a uniformly chosen pixel inside s.
func (r *RNG) Pixel(s icore.Size) (int, int) {
	if s.Empty() {
		return 0, 0
	}
	return r.r.IntN(s.W), r.r.IntN(s.H)
}

// Point returns a seed position at the centre of a random pixel of s.
func (r *RNG) Point(s icore.Size) icore.Point {
	x, y := r.Pixel(s)
	return icore.Point{X: float32(x) + 0.5, Y: float32(y) + 0.5}
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }
