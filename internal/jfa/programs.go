package jfa

import (
	"embed"
	"fmt"

	"jumpflood/internal/gpu"
)

// Uniform names shared by the Kage sources and the CPU kernels.
const (
	UniformSeed       = "Seed"
	UniformDimensions = "Dimensions"
	UniformStep       = "Step"
)

//go:embed shaders/*.kage
var shaderFS embed.FS

var (
	seedLayout = []gpu.BindGroupLayout{
		{{Kind: gpu.BindingUniform, Name: UniformSeed, Len: 2}},
		{{Kind: gpu.BindingUniform, Name: UniformDimensions, Len: 2}},
	}
	floodLayout = []gpu.BindGroupLayout{
		{{Kind: gpu.BindingTexture}},
		{{Kind: gpu.BindingUniform, Name: UniformStep, Len: 1}},
	}
	compositeLayout = []gpu.BindGroupLayout{
		{{Kind: gpu.BindingTexture}},
	}
)

func shaderSource(name string) []byte {
	src, err := shaderFS.ReadFile("shaders/" + name + ".kage")
	if err != nil {
		// The shaders are embedded at build time.
		panic(fmt.Sprintf("jfa: missing shader %s: %v", name, err))
	}
	return src
}

// SeedProgram describes the seed rasterization program.
func SeedProgram() gpu.ProgramDesc {
	return gpu.ProgramDesc{
		Label:  "seed",
		Source: shaderSource("seed"),
		Kernel: seedKernel,
		Groups: seedLayout,
	}
}

// FloodProgram describes one jump flooding step.
func FloodProgram() gpu.ProgramDesc {
	return gpu.ProgramDesc{
		Label:  "jfa",
		Source: shaderSource("jfa"),
		Kernel: floodKernel,
		Groups: floodLayout,
	}
}

// CompositeProgram describes the decode program for mode m.
func CompositeProgram(m Mode) gpu.ProgramDesc {
	var k gpu.Kernel
	switch m {
	case ModeContour:
		k = contourKernel
	case ModeField:
		k = fieldKernel
	default:
		m = ModeDistance
		k = distanceKernel
	}
	return gpu.ProgramDesc{
		Label:  "composite-" + m.String(),
		Source: shaderSource(m.String()),
		Kernel: k,
		Groups: compositeLayout,
	}
}
