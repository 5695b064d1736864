package app

import (
	"jumpflood/internal/core"
	pcore "jumpflood/pkg/core"
)

// seedInput is one tick of keyboard and pointer state.
type seedInput struct {
	freeze   bool
	recentre bool
	random   bool
	cursorX  int
	cursorY  int
}

// seedControl decides where the seed goes. While unfrozen it follows the
// cursor; placing the seed with a key freezes it there.
type seedControl struct {
	frozen bool
	rng    *pcore.RNG
}

// update returns the seed to queue for this tick, if any.
func (c *seedControl) update(size core.Size, in seedInput) (core.Point, bool) {
	if in.freeze {
		c.frozen = !c.frozen
	}
	switch {
	case in.recentre:
		c.frozen = true
		return core.Center(size), true
	case in.random:
		c.frozen = true
		return c.rng.Point(size), true
	case !c.frozen && size.Contains(in.cursorX, in.cursorY):
		return core.Point{X: float32(in.cursorX) + 0.5, Y: float32(in.cursorY) + 0.5}, true
	}
	return core.Point{}, false
}

// fitSize limits a window size to what a field texture can hold.
func fitSize(outside core.Size, maxDim int) core.Size {
	if maxDim > 0 {
		outside.W = min(outside.W, maxDim)
		outside.H = min(outside.H, maxDim)
	}
	return outside
}
