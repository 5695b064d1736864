package jfa

import (
	"fmt"

	"jumpflood/internal/gpu"
)

// SeedPass rasterizes the seed into a field texture.
type SeedPass struct {
	program gpu.Program
}

// NewSeedPass compiles the seed program.
func NewSeedPass(backend gpu.Backend) (*SeedPass, error) {
	p, err := backend.CreateProgram(SeedProgram())
	if err != nil {
		return nil, fmt.Errorf("seed program: %w", err)
	}
	return &SeedPass{program: p}, nil
}

// Encode records the seed pass writing into target.
func (s *SeedPass) Encode(enc *gpu.Encoder, target gpu.Texture, u *UniformStore) {
	enc.Draw(gpu.Pass{
		Label:   "seed",
		Program: s.program,
		Target:  target,
		Groups: []gpu.BindGroup{
			{gpu.UniformBinding(u.SeedUniform())},
			{gpu.UniformBinding(u.DimensionsUniform())},
		},
	})
}

// StepSequence records the jump flooding passes.
type StepSequence struct {
	program gpu.Program
}

// NewStepSequence compiles the flood program.
func NewStepSequence(backend gpu.Backend) (*StepSequence, error) {
	p, err := backend.CreateProgram(FloodProgram())
	if err != nil {
		return nil, fmt.Errorf("flood program: %w", err)
	}
	return &StepSequence{program: p}, nil
}

// Encode records one pass per scheduled step. Each pass reads the texture
// the previous one wrote. The buffers' roles are not touched; once the
// command list ran, the caller commits them with buffers.Advance. It returns
// the pass count.
func (s *StepSequence) Encode(enc *gpu.Encoder, buffers *FieldBuffers, u *UniformStore) int {
	steps := u.Steps()
	for i := range steps {
		src, dst := buffers.Pair(i)
		enc.Draw(gpu.Pass{
			Label:   fmt.Sprintf("jfa-%d", i),
			Program: s.program,
			Target:  dst,
			Groups: []gpu.BindGroup{
				{gpu.TextureBinding(src)},
				{gpu.UniformBinding(u.StepUniform(i))},
			},
		})
	}
	return len(steps)
}

// CompositePass decodes the field onto the presentation surface.
type CompositePass struct {
	programs map[Mode]gpu.Program
}

// NewCompositePass compiles one program per display mode.
func NewCompositePass(backend gpu.Backend) (*CompositePass, error) {
	c := &CompositePass{programs: map[Mode]gpu.Program{}}
	for _, m := range Modes() {
		p, err := backend.CreateProgram(CompositeProgram(m))
		if err != nil {
			return nil, fmt.Errorf("composite program %s: %w", m, err)
		}
		c.programs[m] = p
	}
	return c, nil
}

// Encode records the composite pass for mode m. The field is only sampled.
func (c *CompositePass) Encode(enc *gpu.Encoder, surface gpu.Surface, field gpu.Texture, m Mode) {
	p, ok := c.programs[m]
	if !ok {
		p = c.programs[ModeDistance]
	}
	enc.Draw(gpu.Pass{
		Label:   "composite",
		Program: p,
		Target:  surface,
		Groups:  []gpu.BindGroup{{gpu.TextureBinding(field)}},
	})
}
