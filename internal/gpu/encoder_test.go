package gpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
	"jumpflood/internal/gpu/soft"
)

func nopKernel(gpu.Inputs) (gpu.Fragment, error) {
	return func(int, int) core.Texel { return core.NoSeed }, nil
}

func fixture(t *testing.T) (gpu.Backend, gpu.Program, gpu.Texture, gpu.Texture, gpu.Uniform) {
	t.Helper()
	b := soft.New(soft.Options{})
	prog, err := b.CreateProgram(gpu.ProgramDesc{
		Label:  "copy",
		Kernel: nopKernel,
		Groups: []gpu.BindGroupLayout{
			{{Kind: gpu.BindingTexture}},
			{{Kind: gpu.BindingUniform, Name: "Step", Len: 1}},
		},
	})
	require.NoError(t, err)
	size := core.Size{W: 4, H: 4}
	a, err := b.CreateTexture(gpu.TextureDesc{Label: "a", Size: size})
	require.NoError(t, err)
	c, err := b.CreateTexture(gpu.TextureDesc{Label: "b", Size: size})
	require.NoError(t, err)
	u, err := b.CreateUniform(gpu.UniformDesc{Name: "Step", Len: 1})
	require.NoError(t, err)
	return b, prog, a, c, u
}

func TestEncoderRecordsInOrder(t *testing.T) {
	_, prog, a, b, u := fixture(t)
	enc := gpu.NewEncoder("frame")
	enc.Draw(gpu.Pass{Label: "one", Program: prog, Target: b, Groups: []gpu.BindGroup{{gpu.TextureBinding(a)}, {gpu.UniformBinding(u)}}})
	enc.Draw(gpu.Pass{Label: "two", Program: prog, Target: a, Groups: []gpu.BindGroup{{gpu.TextureBinding(b)}, {gpu.UniformBinding(u)}}})
	cmds, err := enc.Finish()
	require.NoError(t, err)
	require.Equal(t, 2, cmds.Len())
	assert.Equal(t, "one", cmds.Passes[0].Label)
	assert.Equal(t, "two", cmds.Passes[1].Label)
}

func TestEncoderRejectsFeedbackLoop(t *testing.T) {
	_, prog, a, _, u := fixture(t)
	enc := gpu.NewEncoder("frame")
	enc.Draw(gpu.Pass{Label: "self", Program: prog, Target: a, Groups: []gpu.BindGroup{{gpu.TextureBinding(a)}, {gpu.UniformBinding(u)}}})
	_, err := enc.Finish()
	assert.ErrorIs(t, err, gpu.ErrInvalidPass)
	assert.Contains(t, err.Error(), "both sampled and rendered")
}

func TestEncoderRejectsLayoutMismatch(t *testing.T) {
	backend, prog, a, b, _ := fixture(t)
	wrong, err := backend.CreateUniform(gpu.UniformDesc{Name: "Seed", Len: 2})
	require.NoError(t, err)

	cases := map[string]gpu.Pass{
		"missing group":   {Program: prog, Target: b, Groups: []gpu.BindGroup{{gpu.TextureBinding(a)}}},
		"wrong uniform":   {Program: prog, Target: b, Groups: []gpu.BindGroup{{gpu.TextureBinding(a)}, {gpu.UniformBinding(wrong)}}},
		"texture missing": {Program: prog, Target: b, Groups: []gpu.BindGroup{{gpu.UniformBinding(wrong)}, {gpu.UniformBinding(wrong)}}},
		"no target":       {Program: prog, Groups: []gpu.BindGroup{{gpu.TextureBinding(a)}, {gpu.UniformBinding(wrong)}}},
		"no program":      {Target: b},
	}
	for name, p := range cases {
		p.Label = name
		assert.ErrorIs(t, gpu.ValidatePass(p), gpu.ErrInvalidPass, name)
	}
}
