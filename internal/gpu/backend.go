// Package gpu describes the graphics backend the flood pipeline runs on.
//
// A backend creates textures, uniform buffers and programs, executes ordered
// command lists of full-screen passes, and hands out presentation surfaces.
// Two implementations exist: package soft runs programs as Go kernels on the
// CPU, package ebitengpu runs them as Kage shaders through ebiten.
package gpu

import (
	"context"

	"jumpflood/internal/core"
)

// Format identifies a texel format. Only RGBA8 is used by the pipeline.
type Format int

const (
	// FormatRGBA8 stores four unsigned 8-bit channels per texel.
	FormatRGBA8 Format = iota
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	default:
		return "unknown"
	}
}

// BytesPerTexel returns the storage size of one texel.
func (f Format) BytesPerTexel() int { return 4 }

// AddressMode controls sampling outside the texture.
type AddressMode int

const (
	// AddressClampToEdge repeats the border texel.
	AddressClampToEdge AddressMode = iota
)

// FilterMode controls texel interpolation.
type FilterMode int

const (
	// FilterNearest returns the texel covering the sample point.
	FilterNearest FilterMode = iota
)

// SamplerDesc describes how a bound texture is sampled.
type SamplerDesc struct {
	Address AddressMode
	Filter  FilterMode
}

// FieldSampler is the only sampler the pipeline uses.
var FieldSampler = SamplerDesc{Address: AddressClampToEdge, Filter: FilterNearest}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label  string
	Size   core.Size
	Format Format
}

// Target is anything a pass can render into.
type Target interface {
	Size() core.Size
}

// Texture is a backend-owned 2D texture.
type Texture interface {
	Target
	Label() string
	Format() Format
	// Release frees the texture. Using it afterwards is an error.
	Release()
}

// Surface is an acquired presentation target. It is valid until Present.
type Surface interface {
	Target
}

// UniformDesc describes a uniform buffer holding Len float32 values. Name is
// the identifier programs use to refer to it.
type UniformDesc struct {
	Label string
	Name  string
	Len   int
}

// Uniform is a GPU-visible buffer of float32 values.
type Uniform interface {
	Name() string
	Len() int
}

// BindingKind tells a layout entry what resource it expects.
type BindingKind int

const (
	// BindingUniform expects a uniform buffer.
	BindingUniform BindingKind = iota
	// BindingTexture expects a sampled texture.
	BindingTexture
)

func (k BindingKind) String() string {
	switch k {
	case BindingUniform:
		return "uniform"
	case BindingTexture:
		return "texture"
	default:
		return "unknown"
	}
}

// LayoutEntry declares one binding slot.
type LayoutEntry struct {
	Kind BindingKind
	// Name is the uniform name for BindingUniform entries.
	Name string
	// Len is the uniform length in float32s for BindingUniform entries.
	Len int
}

// BindGroupLayout is an ordered list of binding slots.
type BindGroupLayout []LayoutEntry

// Binding supplies the resource for one LayoutEntry.
type Binding struct {
	Uniform Uniform
	Texture Texture
	Sampler SamplerDesc
}

// BindGroup supplies resources for a BindGroupLayout, entry by entry.
type BindGroup []Binding

// UniformBinding binds a uniform buffer.
func UniformBinding(u Uniform) Binding { return Binding{Uniform: u} }

// TextureBinding binds a texture with the field sampler.
func TextureBinding(t Texture) Binding { return Binding{Texture: t, Sampler: FieldSampler} }

// ProgramDesc describes a two-stage program drawn over the full-screen
// triangle. Source is consumed by shader backends, Kernel by the software
// backend; a backend rejects a descriptor missing the form it needs.
type ProgramDesc struct {
	Label  string
	Source []byte
	Kernel Kernel
	Groups []BindGroupLayout
}

// Program is a compiled ProgramDesc.
type Program interface {
	Label() string
	Layout() []BindGroupLayout
}

// Pass is one full-screen draw: Program runs for every pixel of Target with
// the resources in Groups. Target is either a Texture or the acquired Surface.
type Pass struct {
	Label   string
	Program Program
	Target  Target
	Groups  []BindGroup
}

// Backend is the graphics device the pipeline renders with.
type Backend interface {
	// CreateTexture allocates a texture. New textures hold zero texels.
	CreateTexture(desc TextureDesc) (Texture, error)
	CreateUniform(desc UniformDesc) (Uniform, error)
	// WriteUniform replaces the contents of u. Writes become visible to
	// passes submitted afterwards.
	WriteUniform(u Uniform, values []float32) error
	CreateProgram(desc ProgramDesc) (Program, error)
	// Submit executes the command list in order. A pass observes every
	// write made by the passes before it.
	Submit(ctx context.Context, cmds *CommandList) error
	// ConfigureSurface (re)creates the presentation surface at size.
	ConfigureSurface(size core.Size) error
	// AcquireSurface returns the next presentable surface. It may block.
	AcquireSurface(ctx context.Context) (Surface, error)
	Present(s Surface) error
	// ReadTexture returns the texels of t as tightly packed rows.
	ReadTexture(t Texture) ([]byte, error)
}
