package jfa

import (
	"fmt"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
)

// FieldBuffers owns the two ping-pong field textures. Slot a and slot b
// never alias; bSource selects which one passes read from.
type FieldBuffers struct {
	backend gpu.Backend
	size    core.Size
	a, b    gpu.Texture
	bSource bool
}

// NewFieldBuffers returns an empty pair. Call Allocate before use.
func NewFieldBuffers(backend gpu.Backend) *FieldBuffers {
	return &FieldBuffers{backend: backend}
}

// Allocate creates both textures at size s, replacing any existing pair.
// New textures hold the no-seed sentinel. On failure the previous pair, if
// any, is kept unchanged.
func (f *FieldBuffers) Allocate(s core.Size) error {
	a, err := f.create("field-a", s)
	if err != nil {
		return err
	}
	b, err := f.create("field-b", s)
	if err != nil {
		a.Release()
		return err
	}
	f.Release()
	f.a, f.b, f.size, f.bSource = a, b, s, false
	return nil
}

// Resize reallocates the pair at size s. It must only be called between
// frames, never while a command list referencing the old pair is pending.
func (f *FieldBuffers) Resize(s core.Size) error {
	if f.Allocated() && s == f.size {
		return nil
	}
	return f.Allocate(s)
}

func (f *FieldBuffers) create(label string, s core.Size) (gpu.Texture, error) {
	t, err := f.backend.CreateTexture(gpu.TextureDesc{Label: label, Size: s, Format: gpu.FormatRGBA8})
	if err != nil {
		return nil, fmt.Errorf("allocate %s %dx%d: %w", label, s.W, s.H, err)
	}
	return t, nil
}

// Allocated reports whether the pair exists.
func (f *FieldBuffers) Allocated() bool { return f.a != nil && f.b != nil }

// Size returns the size both textures share.
func (f *FieldBuffers) Size() core.Size { return f.size }

// Source returns the texture passes read from.
func (f *FieldBuffers) Source() gpu.Texture {
	if f.bSource {
		return f.b
	}
	return f.a
}

// Destination returns the texture passes write to.
func (f *FieldBuffers) Destination() gpu.Texture {
	if f.bSource {
		return f.a
	}
	return f.b
}

// Swap exchanges the source and destination roles.
func (f *FieldBuffers) Swap() { f.bSource = !f.bSource }

// Pair returns the source and destination pass i of a sequence starting
// now would use. The current roles are unchanged.
func (f *FieldBuffers) Pair(i int) (src, dst gpu.Texture) {
	if (i%2 == 1) != f.bSource {
		return f.b, f.a
	}
	return f.a, f.b
}

// Advance commits the role changes of n executed passes.
func (f *FieldBuffers) Advance(n int) {
	if n%2 == 1 {
		f.Swap()
	}
}

// Release frees both textures.
func (f *FieldBuffers) Release() {
	if f.a != nil {
		f.a.Release()
		f.a = nil
	}
	if f.b != nil {
		f.b.Release()
		f.b = nil
	}
	f.size = core.Size{}
	f.bSource = false
}
