package jfa

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/lucasb-eyer/go-colorful"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
)

// neighbours is the fixed sampling order of a flood step: row-major over
// dy then dx, centre excluded. The pixel's own texel is examined first.
var neighbours = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

var noSeedColor = core.Texel{0, 0, 64, 255}

const (
	distanceFalloff = 512
	contourSpacing  = 16
	contourLine     = 2
)

func uniformVec(in gpu.Inputs, name string, n int) ([]float32, error) {
	v := in.Uniform(name)
	if len(v) != n {
		return nil, fmt.Errorf("uniform %s: got %d values, want %d", name, len(v), n)
	}
	return v, nil
}

func seedKernel(in gpu.Inputs) (gpu.Fragment, error) {
	seed, err := uniformVec(in, UniformSeed, 2)
	if err != nil {
		return nil, err
	}
	dims, err := uniformVec(in, UniformDimensions, 2)
	if err != nil {
		return nil, err
	}
	size := core.Size{W: int(dims[0]), H: int(dims[1])}
	if size.Empty() {
		return nil, fmt.Errorf("seed pass: dimensions %vx%v", dims[0], dims[1])
	}
	sx, sy := core.Point{X: seed[0], Y: seed[1]}.Pixel(size)
	hit := core.EncodeSeed(sx, sy)
	return func(x, y int) core.Texel {
		if x == sx && y == sy {
			return hit
		}
		return core.NoSeed
	}, nil
}

func floodKernel(in gpu.Inputs) (gpu.Fragment, error) {
	src := in.Texture(0)
	if src == nil {
		return nil, fmt.Errorf("flood pass: no source texture")
	}
	s, err := uniformVec(in, UniformStep, 1)
	if err != nil {
		return nil, err
	}
	step := int(s[0])
	if step < 1 {
		return nil, fmt.Errorf("flood pass: step %v below one pixel", s[0])
	}
	return func(x, y int) core.Texel {
		best := src.TexelAt(x, y)
		bestDist := -1
		if sx, sy, ok := best.Seed(); ok {
			bestDist = sqDist(x, y, sx, sy)
		}
		for _, n := range neighbours {
			t := src.TexelAt(x+n[0]*step, y+n[1]*step)
			sx, sy, ok := t.Seed()
			if !ok {
				continue
			}
			if d := sqDist(x, y, sx, sy); bestDist < 0 || d < bestDist {
				best, bestDist = t, d
			}
		}
		return best
	}, nil
}

func sqDist(x, y, sx, sy int) int {
	dx, dy := x-sx, y-sy
	return dx*dx + dy*dy
}

func seedDistance(x, y int, t core.Texel) (float32, bool) {
	sx, sy, ok := t.Seed()
	if !ok {
		return 0, false
	}
	return math32.Sqrt(float32(sqDist(x, y, sx, sy))), true
}

func distanceKernel(in gpu.Inputs) (gpu.Fragment, error) {
	src := in.Texture(0)
	if src == nil {
		return nil, fmt.Errorf("composite: no field texture")
	}
	return func(x, y int) core.Texel {
		d, ok := seedDistance(x, y, src.TexelAt(x, y))
		if !ok {
			return noSeedColor
		}
		g := 1 - d/distanceFalloff
		if g < 0 {
			g = 0
		}
		v := uint8(g*255 + 0.5)
		return core.Texel{v, v, v, 255}
	}, nil
}

func contourKernel(in gpu.Inputs) (gpu.Fragment, error) {
	src := in.Texture(0)
	if src == nil {
		return nil, fmt.Errorf("composite: no field texture")
	}
	return func(x, y int) core.Texel {
		d, ok := seedDistance(x, y, src.TexelAt(x, y))
		if !ok {
			return noSeedColor
		}
		band := math32.Floor(d / contourSpacing)
		v := 1.0
		if d-band*contourSpacing >= contourSpacing-contourLine {
			v = 0.35
		}
		hue := float64(int(band)*37%360)
		r, g, b := colorful.Hsv(hue, 0.6, v).RGB255()
		return core.Texel{r, g, b, 255}
	}, nil
}

func fieldKernel(in gpu.Inputs) (gpu.Fragment, error) {
	src := in.Texture(0)
	if src == nil {
		return nil, fmt.Errorf("composite: no field texture")
	}
	return func(x, y int) core.Texel {
		t := src.TexelAt(x, y)
		return core.Texel{t[1], t[3], 0, 255}
	}, nil
}
