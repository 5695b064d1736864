package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	icore "jumpflood/internal/core"
)

func TestRNGDeterministic(t *testing.T) {
	s := icore.Size{W: 37, H: 5}
	a, b := NewRNG(7), NewRNG(7)
	for i := 0; i < 100; i++ {
		pa, pb := a.Point(s), b.Point(s)
		assert.Equal(t, pa, pb)
		x, y := pa.Pixel(s)
		assert.True(t, s.Contains(x, y))
		assert.Equal(t, float32(x)+0.5, pa.X)
	}
}

func TestRNGEmptySize(t *testing.T) {
	x, y := NewRNG(1).Pixel(icore.Size{})
	assert.Zero(t, x)
	assert.Zero(t, y)
}
