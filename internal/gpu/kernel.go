package gpu

import "jumpflood/internal/core"

// TexelReader samples a bound texture with clamp-to-edge, nearest filtering.
type TexelReader interface {
	Size() core.Size
	TexelAt(x, y int) core.Texel
}

// Inputs exposes the resolved bindings of a pass to a Kernel.
type Inputs interface {
	// Texture returns the i-th texture binding, counting across groups in
	// declaration order.
	Texture(i int) TexelReader
	// Uniform returns the current contents of the named uniform.
	Uniform(name string) []float32
	// TargetSize returns the size of the pass target.
	TargetSize() core.Size
}

// Fragment computes the output texel for pixel (x, y). It must not retain
// or mutate shared state; the software backend calls it from many goroutines.
type Fragment func(x, y int) core.Texel

// Kernel is the CPU form of a program. It is called once per pass to resolve
// bindings and returns the per-pixel function.
type Kernel func(in Inputs) (Fragment, error)
