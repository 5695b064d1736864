package soft

import (
	"fmt"
	"image"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
)

type texture struct {
	owner    *Backend
	desc     gpu.TextureDesc
	pix      []byte
	released bool
}

func (t *texture) Size() core.Size    { return t.desc.Size }
func (t *texture) Label() string      { return t.desc.Label }
func (t *texture) Format() gpu.Format { return t.desc.Format }

func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.owner.release(t)
	t.pix = nil
}

// TexelAt samples with clamp-to-edge addressing.
func (t *texture) TexelAt(x, y int) core.Texel {
	x, y = t.desc.Size.Clamp(x, y)
	i := 4 * (y*t.desc.Size.W + x)
	return core.Texel{t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]}
}

type uniform struct {
	name string
	vals []float32
}

func (u *uniform) Name() string { return u.name }
func (u *uniform) Len() int     { return len(u.vals) }

type program struct {
	desc gpu.ProgramDesc
}

func (p *program) Label() string                 { return p.desc.Label }
func (p *program) Layout() []gpu.BindGroupLayout { return p.desc.Groups }

type surface struct {
	img *image.RGBA
}

func (s *surface) Size() core.Size {
	b := s.img.Bounds()
	return core.Size{W: b.Dx(), H: b.Dy()}
}

type inputs struct {
	size     core.Size
	textures []*texture
	uniforms map[string][]float32
}

func (in *inputs) TargetSize() core.Size { return in.size }

func (in *inputs) Texture(i int) gpu.TexelReader {
	if i < 0 || i >= len(in.textures) {
		return nil
	}
	return in.textures[i]
}

func (in *inputs) Uniform(name string) []float32 { return in.uniforms[name] }

// String is used in log and error messages.
func (t *texture) String() string {
	return fmt.Sprintf("%s(%dx%d)", t.desc.Label, t.desc.Size.W, t.desc.Size.H)
}
