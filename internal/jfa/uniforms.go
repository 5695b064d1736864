package jfa

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
)

// UniformStore owns the seed, dimensions and step values and their GPU
// copies. Setters only record values; Flush uploads whatever changed since
// the previous flush, once.
type UniformStore struct {
	backend gpu.Backend
	log     *zap.Logger

	seed     core.Point
	size     core.Size
	override int
	steps    []float32

	seedBuf  gpu.Uniform
	dimsBuf  gpu.Uniform
	stepBufs []gpu.Uniform

	seedDirty  bool
	dimsDirty  bool
	stepsDirty bool
}

// NewUniformStore creates the seed and dimensions buffers.
func NewUniformStore(backend gpu.Backend, log *zap.Logger) (*UniformStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	seedBuf, err := backend.CreateUniform(gpu.UniformDesc{Label: "seed", Name: UniformSeed, Len: 2})
	if err != nil {
		return nil, fmt.Errorf("create seed uniform: %w", err)
	}
	dimsBuf, err := backend.CreateUniform(gpu.UniformDesc{Label: "dimensions", Name: UniformDimensions, Len: 2})
	if err != nil {
		return nil, fmt.Errorf("create dimensions uniform: %w", err)
	}
	return &UniformStore{
		backend:   backend,
		log:       log,
		seedBuf:   seedBuf,
		dimsBuf:   dimsBuf,
		seedDirty: true,
	}, nil
}

// SetSeed records the seed position.
func (u *UniformStore) SetSeed(p core.Point) {
	if p == u.seed && !u.seedDirty {
		return
	}
	u.seed = p
	u.seedDirty = true
}

// SetDimensions records the field size and re-derives the pass schedule.
func (u *UniformStore) SetDimensions(s core.Size) {
	if s == u.size && !u.dimsDirty {
		return
	}
	u.size = s
	u.dimsDirty = true
	u.reschedule()
}

// SetPassOverride fixes the pass count; zero restores the derived count.
func (u *UniformStore) SetPassOverride(n int) {
	if n < 0 {
		n = 0
	}
	if n == u.override {
		return
	}
	u.override = n
	u.reschedule()
}

func (u *UniformStore) reschedule() {
	steps := Schedule(u.size, u.override)
	if slices.Equal(steps, u.steps) {
		return
	}
	u.steps = steps
	u.stepsDirty = true
	u.log.Debug("pass schedule changed",
		zap.Int("width", u.size.W), zap.Int("height", u.size.H),
		zap.Int("passes", len(steps)), zap.Float32s("steps", steps))
}

// Seed returns the recorded seed.
func (u *UniformStore) Seed() core.Point { return u.seed }

// Dimensions returns the recorded field size.
func (u *UniformStore) Dimensions() core.Size { return u.size }

// Steps returns the current schedule. Callers must not modify it.
func (u *UniformStore) Steps() []float32 { return u.steps }

// PassOverride returns the configured pass count override, or zero.
func (u *UniformStore) PassOverride() int { return u.override }

// Dirty reports whether a Flush would upload anything.
func (u *UniformStore) Dirty() bool { return u.seedDirty || u.dimsDirty || u.stepsDirty }

// SeedUniform returns the buffer bound by the seed pass.
func (u *UniformStore) SeedUniform() gpu.Uniform { return u.seedBuf }

// DimensionsUniform returns the buffer bound by the seed pass.
func (u *UniformStore) DimensionsUniform() gpu.Uniform { return u.dimsBuf }

// StepUniform returns the step buffer of pass i. Valid after Flush.
func (u *UniformStore) StepUniform(i int) gpu.Uniform { return u.stepBufs[i] }

// Flush uploads every dirty value and clears the dirty flags. A failed
// upload leaves its flag set so the next flush retries it.
func (u *UniformStore) Flush() error {
	if u.seedDirty {
		if err := u.backend.WriteUniform(u.seedBuf, []float32{u.seed.X, u.seed.Y}); err != nil {
			return fmt.Errorf("upload seed: %w", err)
		}
		u.seedDirty = false
	}
	if u.dimsDirty {
		if err := u.backend.WriteUniform(u.dimsBuf, []float32{float32(u.size.W), float32(u.size.H)}); err != nil {
			return fmt.Errorf("upload dimensions: %w", err)
		}
		u.dimsDirty = false
	}
	if u.stepsDirty {
		for len(u.stepBufs) < len(u.steps) {
			buf, err := u.backend.CreateUniform(gpu.UniformDesc{
				Label: fmt.Sprintf("step-%d", len(u.stepBufs)),
				Name:  UniformStep,
				Len:   1,
			})
			if err != nil {
				return fmt.Errorf("create step uniform: %w", err)
			}
			u.stepBufs = append(u.stepBufs, buf)
		}
		for i, step := range u.steps {
			if err := u.backend.WriteUniform(u.stepBufs[i], []float32{step}); err != nil {
				return fmt.Errorf("upload step %d: %w", i, err)
			}
		}
		u.stepsDirty = false
	}
	return nil
}
