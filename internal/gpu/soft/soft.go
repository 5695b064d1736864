// Package soft is a software implementation of gpu.Backend. Programs run as
// Go kernels; each pass is split into row bands executed in parallel, and the
// next pass starts only after every band of the previous one finished.
package soft

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
)

// DefaultMaxTextureDim mirrors the common device limit for 2D textures.
const DefaultMaxTextureDim = 16384

// Op names a backend operation for fault injection.
type Op int

const (
	OpCreateTexture Op = iota
	OpSubmit
	OpAcquire
	OpPresent
)

func (o Op) String() string {
	switch o {
	case OpCreateTexture:
		return "create-texture"
	case OpSubmit:
		return "submit"
	case OpAcquire:
		return "acquire"
	case OpPresent:
		return "present"
	default:
		return "unknown"
	}
}

// Options configures a Backend.
type Options struct {
	// Workers bounds the goroutines used per pass. Zero means GOMAXPROCS.
	Workers int
	// MaxTextureDim is the largest accepted texture dimension.
	MaxTextureDim int
	// MemoryLimit caps live texture bytes. Zero means unlimited.
	MemoryLimit int64
	Logger      *zap.Logger
}

// Stats counts backend activity.
type Stats struct {
	TexturesCreated int
	TexturesLive    int
	TextureBytes    int64
	UniformWrites   int
	Submits         int
	Passes          int
	Presents        int
	SurfaceConfigs  int
}

// Backend executes passes on the CPU.
type Backend struct {
	workers int
	maxDim  int
	limit   int64
	log     *zap.Logger

	mu       sync.Mutex
	stats    Stats
	faults   map[Op]error
	surface  *surface
	acquired bool
	last     *image.RGBA
}

var _ gpu.Backend = (*Backend)(nil)

// New returns a software backend.
func New(opts Options) *Backend {
	b := &Backend{
		workers: opts.Workers,
		maxDim:  opts.MaxTextureDim,
		limit:   opts.MemoryLimit,
		log:     opts.Logger,
		faults:  map[Op]error{},
	}
	if b.workers <= 0 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	if b.maxDim <= 0 {
		b.maxDim = DefaultMaxTextureDim
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	return b
}

// InjectFault makes the next call of op fail with err. It exists so callers
// can exercise device-level failures the CPU never produces on its own.
func (b *Backend) InjectFault(op Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[op] = err
}

func (b *Backend) takeFault(op Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err, ok := b.faults[op]
	if !ok {
		return nil
	}
	delete(b.faults, op)
	return fmt.Errorf("soft %s: %w", op, err)
}

// Stats returns a copy of the activity counters.
func (b *Backend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// CreateTexture allocates a zeroed texture.
func (b *Backend) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if err := b.takeFault(OpCreateTexture); err != nil {
		return nil, err
	}
	if desc.Format != gpu.FormatRGBA8 {
		return nil, fmt.Errorf("texture %q: format %v: %w", desc.Label, desc.Format, gpu.ErrResourceAllocation)
	}
	if desc.Size.Empty() || desc.Size.W > b.maxDim || desc.Size.H > b.maxDim {
		return nil, fmt.Errorf("texture %q: size %dx%d outside 1..%d: %w",
			desc.Label, desc.Size.W, desc.Size.H, b.maxDim, gpu.ErrResourceAllocation)
	}
	bytes := int64(desc.Size.Area() * desc.Format.BytesPerTexel())

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit > 0 && b.stats.TextureBytes+bytes > b.limit {
		return nil, fmt.Errorf("texture %q: %d bytes exceeds budget (%d of %d in use): %w",
			desc.Label, bytes, b.stats.TextureBytes, b.limit, gpu.ErrResourceAllocation)
	}
	b.stats.TexturesCreated++
	b.stats.TexturesLive++
	b.stats.TextureBytes += bytes
	return &texture{owner: b, desc: desc, pix: make([]byte, bytes)}, nil
}

func (b *Backend) release(t *texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.TexturesLive--
	b.stats.TextureBytes -= int64(len(t.pix))
}

// CreateUniform allocates a zeroed uniform buffer.
func (b *Backend) CreateUniform(desc gpu.UniformDesc) (gpu.Uniform, error) {
	if desc.Name == "" || desc.Len <= 0 {
		return nil, fmt.Errorf("uniform %q: name %q len %d: %w", desc.Label, desc.Name, desc.Len, gpu.ErrResourceAllocation)
	}
	return &uniform{name: desc.Name, vals: make([]float32, desc.Len)}, nil
}

// WriteUniform copies values into u.
func (b *Backend) WriteUniform(u gpu.Uniform, values []float32) error {
	su, ok := u.(*uniform)
	if !ok {
		return fmt.Errorf("write uniform: foreign buffer %T: %w", u, gpu.ErrInvalidPass)
	}
	if len(values) != len(su.vals) {
		return fmt.Errorf("write uniform %s: %d values, want %d: %w", su.name, len(values), len(su.vals), gpu.ErrInvalidPass)
	}
	b.mu.Lock()
	copy(su.vals, values)
	b.stats.UniformWrites++
	b.mu.Unlock()
	return nil
}

// CreateProgram accepts descriptors that carry a Kernel.
func (b *Backend) CreateProgram(desc gpu.ProgramDesc) (gpu.Program, error) {
	if desc.Kernel == nil {
		return nil, fmt.Errorf("program %q: no kernel: %w", desc.Label, gpu.ErrInvalidPass)
	}
	return &program{desc: desc}, nil
}

// ConfigureSurface replaces the presentation surface.
func (b *Backend) ConfigureSurface(size core.Size) error {
	if size.Empty() || size.W > b.maxDim || size.H > b.maxDim {
		return fmt.Errorf("configure surface %dx%d: %w", size.W, size.H, gpu.ErrResourceAllocation)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.surface = &surface{img: image.NewRGBA(image.Rect(0, 0, size.W, size.H))}
	b.acquired = false
	b.stats.SurfaceConfigs++
	b.log.Debug("surface configured", zap.Int("width", size.W), zap.Int("height", size.H))
	return nil
}

// AcquireSurface returns the configured surface.
func (b *Backend) AcquireSurface(ctx context.Context) (gpu.Surface, error) {
	if err := b.takeFault(OpAcquire); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire surface: %v: %w", err, gpu.ErrTimeout)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.surface == nil {
		return nil, fmt.Errorf("acquire surface: not configured: %w", gpu.ErrSurfaceOutdated)
	}
	b.acquired = true
	return b.surface, nil
}

// Present publishes the surface; LastFrame returns it afterwards.
func (b *Backend) Present(s gpu.Surface) error {
	if err := b.takeFault(OpPresent); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if s != gpu.Surface(b.surface) || !b.acquired {
		return fmt.Errorf("present: surface not acquired: %w", gpu.ErrSurfaceOutdated)
	}
	b.acquired = false
	b.last = cloneRGBA(b.surface.img)
	b.stats.Presents++
	return nil
}

// LastFrame returns a copy of the most recently presented surface, or nil.
func (b *Backend) LastFrame() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return nil
	}
	return cloneRGBA(b.last)
}

// ReadTexture copies the texels of t.
func (b *Backend) ReadTexture(t gpu.Texture) ([]byte, error) {
	st, ok := t.(*texture)
	if !ok {
		return nil, fmt.Errorf("read texture: foreign texture %T: %w", t, gpu.ErrInvalidPass)
	}
	if st.released {
		return nil, fmt.Errorf("read texture %q: released: %w", st.desc.Label, gpu.ErrInvalidPass)
	}
	return append([]byte(nil), st.pix...), nil
}

// Submit runs every pass of cmds in order.
func (b *Backend) Submit(ctx context.Context, cmds *gpu.CommandList) error {
	if err := b.takeFault(OpSubmit); err != nil {
		return err
	}
	for _, p := range cmds.Passes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("submit %s: %w", cmds.Label, err)
		}
		if err := b.run(ctx, p); err != nil {
			return fmt.Errorf("submit %s: %w", cmds.Label, err)
		}
	}
	b.mu.Lock()
	b.stats.Submits++
	b.stats.Passes += len(cmds.Passes)
	b.mu.Unlock()
	return nil
}

func (b *Backend) run(ctx context.Context, p gpu.Pass) error {
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
	in, err := b.inputs(p, dst.size)
	if err != nil {
		return err
	}
	frag, err := prog.desc.Kernel(in)
	if err != nil {
		return fmt.Errorf("pass %q: %w", p.Label, err)
	}

	size := dst.size
	bands := b.workers * 4
	if bands > size.H {
		bands = size.H
	}
	rows := (size.H + bands - 1) / bands

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for y0 := 0; y0 < size.H; y0 += rows {
		y1 := min(y0+rows, size.H)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				row := dst.pix[y*dst.stride:]
				for x := 0; x < size.W; x++ {
					t := frag(x, y)
					copy(row[4*x:4*x+4], t[:])
				}
			}
			return nil
		})
	}
	return g.Wait()
}

type renderTarget struct {
	size   core.Size
	pix    []byte
	stride int
}

func (b *Backend) target(p gpu.Pass) (renderTarget, error) {
	switch t := p.Target.(type) {
	case *texture:
		if t.released {
			return renderTarget{}, fmt.Errorf("pass %q: target %q released: %w", p.Label, t.desc.Label, gpu.ErrInvalidPass)
		}
		return renderTarget{size: t.desc.Size, pix: t.pix, stride: 4 * t.desc.Size.W}, nil
	case *surface:
		b.mu.Lock()
		current, acquired := b.surface, b.acquired
		b.mu.Unlock()
		if t != current || !acquired {
			return renderTarget{}, fmt.Errorf("pass %q: stale surface: %w", p.Label, gpu.ErrSurfaceOutdated)
		}
		return renderTarget{size: t.Size(), pix: t.img.Pix, stride: t.img.Stride}, nil
	default:
		return renderTarget{}, fmt.Errorf("pass %q: foreign target %T: %w", p.Label, p.Target, gpu.ErrInvalidPass)
	}
}

func (b *Backend) inputs(p gpu.Pass, size core.Size) (*inputs, error) {
	in := &inputs{size: size, uniforms: map[string][]float32{}}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, group := range p.Groups {
		for _, binding := range group {
			switch {
			case binding.Texture != nil:
				t, ok := binding.Texture.(*texture)
				if !ok {
					return nil, fmt.Errorf("pass %q: foreign texture %T: %w", p.Label, binding.Texture, gpu.ErrInvalidPass)
				}
				if t.released {
					return nil, fmt.Errorf("pass %q: sampled texture %q released: %w", p.Label, t.desc.Label, gpu.ErrInvalidPass)
				}
				in.textures = append(in.textures, t)
			case binding.Uniform != nil:
				u, ok := binding.Uniform.(*uniform)
				if !ok {
					return nil, fmt.Errorf("pass %q: foreign uniform %T: %w", p.Label, binding.Uniform, gpu.ErrInvalidPass)
				}
				in.uniforms[u.name] = append([]float32(nil), u.vals...)
			}
		}
	}
	return in, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
