package jfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
)

type fakeTexture struct {
	size  core.Size
	texel map[[2]int]core.Texel
}

func (f *fakeTexture) Size() core.Size { return f.size }

func (f *fakeTexture) TexelAt(x, y int) core.Texel {
	x, y = f.size.Clamp(x, y)
	return f.texel[[2]int{x, y}]
}

type fakeInputs struct {
	size     core.Size
	textures []gpu.TexelReader
	uniforms map[string][]float32
}

func (f *fakeInputs) Texture(i int) gpu.TexelReader { return f.textures[i] }
func (f *fakeInputs) Uniform(name string) []float32  { return f.uniforms[name] }
func (f *fakeInputs) TargetSize() core.Size          { return f.size }

func floodFragment(t *testing.T, src *fakeTexture, step float32) gpu.Fragment {
	t.Helper()
	frag, err := floodKernel(&fakeInputs{
		size:     src.size,
		textures: []gpu.TexelReader{src},
		uniforms: map[string][]float32{UniformStep: {step}},
	})
	require.NoError(t, err)
	return frag
}

func TestFloodKernelFirstMinimumWins(t *testing.T) {
	size := core.Size{W: 5, H: 1}
	left := core.EncodeSeed(0, 0)
	right := core.EncodeSeed(4, 0)
	src := &fakeTexture{size: size, texel: map[[2]int]core.Texel{
		{1, 0}: left,
		{3, 0}: right,
	}}

	// Both candidates are two pixels away from (2,0); (1,0) is sampled
	// first because dy=-1 clamps onto the same row with dx=-1.
	assert.Equal(t, left, floodFragment(t, src, 1)(2, 0))

	src.texel[[2]int{2, 0}] = core.EncodeSeed(2, 2)
	assert.Equal(t, core.EncodeSeed(2, 2), floodFragment(t, src, 1)(2, 0), "own texel is examined first")
}

func TestFloodKernelPicksNearest(t *testing.T) {
	size := core.Size{W: 9, H: 9}
	src := &fakeTexture{size: size, texel: map[[2]int]core.Texel{
		{0, 0}: core.EncodeSeed(0, 0),
		{8, 8}: core.EncodeSeed(8, 8),
	}}
	frag := floodFragment(t, src, 4)
	assert.Equal(t, core.EncodeSeed(8, 8), frag(4, 4+1), "closer to the lower seed")
	assert.Equal(t, core.EncodeSeed(0, 0), frag(4, 4-1))
	assert.Equal(t, core.NoSeed, frag(2, 5), "no sampled neighbour carries a seed")
}

func TestFloodKernelRejectsSubPixelStep(t *testing.T) {
	src := &fakeTexture{size: core.Size{W: 2, H: 2}}
	_, err := floodKernel(&fakeInputs{
		size:     src.size,
		textures: []gpu.TexelReader{src},
		uniforms: map[string][]float32{UniformStep: {0.5}},
	})
	assert.Error(t, err)
}

func TestSeedKernelClampsIntoField(t *testing.T) {
	frag, err := seedKernel(&fakeInputs{
		size: core.Size{W: 4, H: 3},
		uniforms: map[string][]float32{
			UniformSeed:       {10, -2},
			UniformDimensions: {4, 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.EncodeSeed(3, 0), frag(3, 0))
	assert.Equal(t, core.NoSeed, frag(0, 0))
}
