//go:build ebiten

// Package ebitengpu runs the flood pipeline on the GPU through ebiten. Field
// textures are unmanaged ebiten images, programs are Kage shaders, and every
// pass is a DrawRectShader call with copy blending so texels are stored
// exactly as the shader writes them.
package ebitengpu

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
)

// DefaultMaxTextureDim is the largest texture accepted unless Options says
// otherwise. ebiten splits larger managed images, but field textures are
// unmanaged and must fit in one device texture.
const DefaultMaxTextureDim = 8192

// Options configures a Backend.
type Options struct {
	MaxTextureDim int
	Logger        *zap.Logger
}

// Backend implements gpu.Backend on ebiten. The window's screen image is the
// presentation surface; Game.Draw hands it over with SetScreen every frame.
type Backend struct {
	maxDim int
	log    *zap.Logger

	mu         sync.Mutex
	screen     *ebiten.Image
	configured core.Size
	acquired   *surface
}

var _ gpu.Backend = (*Backend)(nil)

// New returns an ebiten backend. It must be used from the ebiten game loop.
func New(opts Options) *Backend {
	b := &Backend{maxDim: opts.MaxTextureDim, log: opts.Logger}
	if b.maxDim <= 0 {
		b.maxDim = DefaultMaxTextureDim
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	return b
}

// MaxTextureDim returns the largest accepted texture dimension.
func (b *Backend) MaxTextureDim() int { return b.maxDim }

// SetScreen installs the image the next acquired surface draws into. Passing
// nil marks the surface lost.
func (b *Backend) SetScreen(screen *ebiten.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.screen = screen
}

type texture struct {
	desc     gpu.TextureDesc
	img      *ebiten.Image
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
	t.img.Dispose()
}

type uniform struct {
	name string
	vals []float32
}

func (u *uniform) Name() string { return u.name }
func (u *uniform) Len() int     { return len(u.vals) }

// value converts the buffer to what ebiten expects for a Kage uniform of
// the same length: a float32 for scalars, a slice for vectors.
func (u *uniform) value() any {
	if len(u.vals) == 1 {
		return u.vals[0]
	}
	return append([]float32(nil), u.vals...)
}

type program struct {
	desc   gpu.ProgramDesc
	shader *ebiten.Shader
}

func (p *program) Label() string                 { return p.desc.Label }
func (p *program) Layout() []gpu.BindGroupLayout { return p.desc.Groups }

type surface struct {
	img  *ebiten.Image
	size core.Size
}

func (s *surface) Size() core.Size { return s.size }

// CreateTexture allocates an unmanaged image. New ebiten images are cleared,
// so the texture starts at the sentinel.
func (b *Backend) CreateTexture(desc gpu.TextureDesc) (tex gpu.Texture, err error) {
	if desc.Format != gpu.FormatRGBA8 {
		return nil, fmt.Errorf("texture %q: format %v: %w", desc.Label, desc.Format, gpu.ErrResourceAllocation)
	}
	if desc.Size.Empty() || desc.Size.W > b.maxDim || desc.Size.H > b.maxDim {
		return nil, fmt.Errorf("texture %q: size %dx%d outside 1..%d: %w",
			desc.Label, desc.Size.W, desc.Size.H, b.maxDim, gpu.ErrResourceAllocation)
	}
	defer func() {
		if r := recover(); r != nil {
			tex, err = nil, fmt.Errorf("texture %q: %v: %w", desc.Label, r, gpu.ErrResourceAllocation)
		}
	}()
	img := ebiten.NewImageWithOptions(image.Rect(0, 0, desc.Size.W, desc.Size.H), &ebiten.NewImageOptions{
		Unmanaged: true,
	})
	b.log.Debug("texture created", zap.String("label", desc.Label), zap.Int("width", desc.Size.W), zap.Int("height", desc.Size.H))
	return &texture{desc: desc, img: img}, nil
}

// CreateUniform allocates a host-side uniform buffer. ebiten uploads
// uniforms with each draw call.
func (b *Backend) CreateUniform(desc gpu.UniformDesc) (gpu.Uniform, error) {
	if desc.Name == "" || desc.Len <= 0 {
		return nil, fmt.Errorf("uniform %q: name %q len %d: %w", desc.Label, desc.Name, desc.Len, gpu.ErrResourceAllocation)
	}
	return &uniform{name: desc.Name, vals: make([]float32, desc.Len)}, nil
}

// WriteUniform copies values into u.
func (b *Backend) WriteUniform(u gpu.Uniform, values []float32) error {
	eu, ok := u.(*uniform)
	if !ok {
		return fmt.Errorf("write uniform: foreign buffer %T: %w", u, gpu.ErrInvalidPass)
	}
	if len(values) != len(eu.vals) {
		return fmt.Errorf("write uniform %s: %d values, want %d: %w", eu.name, len(values), len(eu.vals), gpu.ErrInvalidPass)
	}
	copy(eu.vals, values)
	return nil
}

// CreateProgram compiles the Kage source of desc.
func (b *Backend) CreateProgram(desc gpu.ProgramDesc) (gpu.Program, error) {
	if len(desc.Source) == 0 {
		return nil, fmt.Errorf("program %q: no shader source: %w", desc.Label, gpu.ErrInvalidPass)
	}
	shader, err := ebiten.NewShader(desc.Source)
	if err != nil {
		return nil, fmt.Errorf("program %q: %v: %w", desc.Label, err, gpu.ErrInvalidPass)
	}
	b.log.Debug("shader compiled", zap.String("label", desc.Label))
	return &program{desc: desc, shader: shader}, nil
}

// ConfigureSurface records the size the screen is expected to have.
func (b *Backend) ConfigureSurface(size core.Size) error {
	if size.Empty() {
		return fmt.Errorf("configure surface %dx%d: %w", size.W, size.H, gpu.ErrResourceAllocation)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configured = size
	b.acquired = nil
	return nil
}

// AcquireSurface wraps the current screen image.
func (b *Backend) AcquireSurface(ctx context.Context) (gpu.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire surface: %v: %w", err, gpu.ErrTimeout)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.screen == nil {
		return nil, fmt.Errorf("acquire surface: no screen: %w", gpu.ErrSurfaceLost)
	}
	bounds := b.screen.Bounds()
	size := core.Size{W: bounds.Dx(), H: bounds.Dy()}
	if size != b.configured {
		return nil, fmt.Errorf("acquire surface: screen %dx%d, configured %dx%d: %w",
			size.W, size.H, b.configured.W, b.configured.H, gpu.ErrSurfaceOutdated)
	}
	b.acquired = &surface{img: b.screen, size: size}
	return b.acquired, nil
}

// Present ends the frame. ebiten swaps buffers after Draw returns.
func (b *Backend) Present(s gpu.Surface) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil || s != gpu.Surface(b.acquired) {
		return fmt.Errorf("present: surface not acquired: %w", gpu.ErrSurfaceOutdated)
	}
	b.acquired = nil
	b.screen = nil
	return nil
}

// ReadTexture reads the texels of t back from the GPU.
func (b *Backend) ReadTexture(t gpu.Texture) ([]byte, error) {
	et, ok := t.(*texture)
	if !ok {
		return nil, fmt.Errorf("read texture: foreign texture %T: %w", t, gpu.ErrInvalidPass)
	}
	if et.released {
		return nil, fmt.Errorf("read texture %q: released: %w", et.desc.Label, gpu.ErrInvalidPass)
	}
	pix := make([]byte, 4*et.desc.Size.Area())
	et.img.ReadPixels(pix)
	return pix, nil
}

// Submit issues one DrawRectShader per pass. ebiten executes draw commands
// in the order they were issued.
func (b *Backend) Submit(ctx context.Context, cmds *gpu.CommandList) error {
	for _, p := range cmds.Passes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("submit %s: %w", cmds.Label, err)
		}
		if err := b.draw(p); err != nil {
			return fmt.Errorf("submit %s: %w", cmds.Label, err)
		}
	}
	return nil
}

func (b *Backend) draw(p gpu.Pass) error {
	if err := gpu.ValidatePass(p); err != nil {
		return err
	}
	prog, ok := p.Program.(*program)
	if !ok {
		return fmt.Errorf("pass %q: foreign program %T: %w", p.Label, p.Program, gpu.ErrInvalidPass)
	}
	dst, err := b.target(p)
	if err != nil {
		return err
	}

	op := &ebiten.DrawRectShaderOptions{
		Blend:    ebiten.BlendCopy,
		Uniforms: map[string]any{},
	}
	n := 0
	for _, group := range p.Groups {
		for _, binding := range group {
			switch {
			case binding.Texture != nil:
				t, ok := binding.Texture.(*texture)
				if !ok || t.released {
					return fmt.Errorf("pass %q: unusable texture %v: %w", p.Label, binding.Texture, gpu.ErrInvalidPass)
				}
				if n == len(op.Images) {
					return fmt.Errorf("pass %q: more than %d textures: %w", p.Label, len(op.Images), gpu.ErrInvalidPass)
				}
				op.Images[n] = t.img
				n++
			case binding.Uniform != nil:
				u, ok := binding.Uniform.(*uniform)
				if !ok {
					return fmt.Errorf("pass %q: foreign uniform %T: %w", p.Label, binding.Uniform, gpu.ErrInvalidPass)
				}
				op.Uniforms[u.name] = u.value()
			}
		}
	}
	size := p.Target.Size()
	// ebiten has no non-indexed draw; the rect is an indexed quad covering
	// every target pixel.
	dst.DrawRectShader(size.W, size.H, prog.shader, op)
	return nil
}

func (b *Backend) target(p gpu.Pass) (*ebiten.Image, error) {
	switch t := p.Target.(type) {
	case *texture:
		if t.released {
			return nil, fmt.Errorf("pass %q: target %q released: %w", p.Label, t.desc.Label, gpu.ErrInvalidPass)
		}
		return t.img, nil
	case *surface:
		b.mu.Lock()
		current := b.acquired
		b.mu.Unlock()
		if t != current {
			return nil, fmt.Errorf("pass %q: stale surface: %w", p.Label, gpu.ErrSurfaceOutdated)
		}
		return t.img, nil
	default:
		return nil, fmt.Errorf("pass %q: foreign target %T: %w", p.Label, p.Target, gpu.ErrInvalidPass)
	}
}
