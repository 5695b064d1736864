// Package jfa implements the jump flooding render pipeline: a seed pass,
// a sequence of flood passes over ping-pong field textures, and a composite
// pass that decodes the field onto the presentation surface.
package jfa

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
)

// Options configures a Pipeline.
type Options struct {
	// Size is the initial field and surface size.
	Size core.Size
	// Seed is the initial seed; nil places it at the centre.
	Seed *core.Point
	Mode Mode
	// Passes overrides the derived pass count when positive.
	Passes int

	Logger *zap.Logger
	// Registerer receives the pipeline metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

type pending struct {
	seed        *core.Point
	size        *core.Size
	mode        *Mode
	passes      *int
	invalidated bool
}

// Pipeline sequences seed, flood and composite passes once per frame.
//
// RenderFrame and the accessors must be called from one goroutine. The
// Notify and Set methods only queue changes and may be called from any
// goroutine; queued changes take effect at the start of the next frame.
type Pipeline struct {
	backend   gpu.Backend
	log       *zap.Logger
	metrics   *Metrics
	uniforms  *UniformStore
	buffers   *FieldBuffers
	seed      *SeedPass
	steps     *StepSequence
	composite *CompositePass

	mode          Mode
	configureNext bool
	closed        bool
	frames        int

	mu      sync.Mutex
	pending pending
}

// New builds the programs and allocates the field buffers and surface.
func New(backend gpu.Backend, opts Options) (*Pipeline, error) {
	if opts.Size.Empty() {
		return nil, fmt.Errorf("jfa: invalid size %dx%d", opts.Size.W, opts.Size.H)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		backend: backend,
		log:     log,
		metrics: NewMetrics(opts.Registerer),
		buffers: NewFieldBuffers(backend),
		mode:    opts.Mode,
	}
	var err error
	if p.uniforms, err = NewUniformStore(backend, log); err != nil {
		return nil, err
	}
	if p.seed, err = NewSeedPass(backend); err != nil {
		return nil, err
	}
	if p.steps, err = NewStepSequence(backend); err != nil {
		return nil, err
	}
	if p.composite, err = NewCompositePass(backend); err != nil {
		return nil, err
	}
	if err := p.buffers.Allocate(opts.Size); err != nil {
		return nil, err
	}
	if err := backend.ConfigureSurface(opts.Size); err != nil {
		p.buffers.Release()
		return nil, fmt.Errorf("configure surface: %w", err)
	}

	seed := core.Center(opts.Size)
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	p.uniforms.SetDimensions(opts.Size)
	p.uniforms.SetPassOverride(opts.Passes)
	p.uniforms.SetSeed(seed)

	log.Info("pipeline ready",
		zap.Int("width", opts.Size.W), zap.Int("height", opts.Size.H),
		zap.Int("passes", len(p.uniforms.Steps())), zap.Stringer("mode", p.mode))
	return p, nil
}

// NotifySeed replaces the pending seed. Calls between two frames coalesce.
func (p *Pipeline) NotifySeed(pt core.Point) {
	p.mu.Lock()
	p.pending.seed = &pt
	p.mu.Unlock()
}

// NotifyResize queues a reallocation applied before the next frame.
func (p *Pipeline) NotifyResize(s core.Size) {
	p.mu.Lock()
	p.pending.size = &s
	p.mu.Unlock()
}

// NotifySurfaceInvalidated asks for the surface to be reconfigured before
// the next frame. Field buffers are kept.
func (p *Pipeline) NotifySurfaceInvalidated() {
	p.mu.Lock()
	p.pending.invalidated = true
	p.mu.Unlock()
}

// SetMode queues a display mode change.
func (p *Pipeline) SetMode(m Mode) {
	p.mu.Lock()
	p.pending.mode = &m
	p.mu.Unlock()
}

// SetPassOverride queues a pass count override; zero derives it from size.
func (p *Pipeline) SetPassOverride(n int) {
	p.mu.Lock()
	p.pending.passes = &n
	p.mu.Unlock()
}

func (p *Pipeline) takePending() pending {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = pending{}
	return out
}

// applyPending runs between frames, so reallocation never races a frame
// that still references the old buffers.
func (p *Pipeline) applyPending() error {
	q := p.takePending()
	if q.seed != nil {
		p.uniforms.SetSeed(*q.seed)
	}
	if q.mode != nil && *q.mode != p.mode {
		p.log.Info("display mode changed", zap.Stringer("from", p.mode), zap.Stringer("to", *q.mode))
		p.mode = *q.mode
	}
	if q.passes != nil {
		p.uniforms.SetPassOverride(*q.passes)
	}
	if q.invalidated {
		p.configureNext = true
	}
	if q.size == nil || *q.size == p.buffers.Size() {
		return nil
	}
	size := *q.size
	if size.Empty() {
		p.log.Debug("ignoring empty resize", zap.Int("width", size.W), zap.Int("height", size.H))
		return nil
	}
	if err := p.buffers.Resize(size); err != nil {
		return err
	}
	p.uniforms.SetDimensions(size)
	p.configureNext = true
	p.metrics.Resizes.Inc()
	p.log.Debug("field buffers reallocated",
		zap.Int("width", size.W), zap.Int("height", size.H),
		zap.Int("passes", len(p.uniforms.Steps())))
	return nil
}

// RenderFrame runs seed, flood and composite passes and presents the
// surface. Failures are returned as *FrameError.
func (p *Pipeline) RenderFrame(ctx context.Context) error {
	if p.closed {
		return p.fail(&FrameError{Class: ClassFatal, Op: "render", Err: ErrPipelineClosed})
	}
	start := time.Now()

	if err := p.applyPending(); err != nil {
		return p.fail(Classify("resize", err))
	}
	if p.configureNext {
		if err := p.backend.ConfigureSurface(p.buffers.Size()); err != nil {
			return p.fail(Classify("configure", err))
		}
		p.configureNext = false
	}
	if err := p.uniforms.Flush(); err != nil {
		return p.fail(Classify("flush", err))
	}

	enc := gpu.NewEncoder("flood")
	p.seed.Encode(enc, p.buffers.Source(), p.uniforms)
	n := p.steps.Encode(enc, p.buffers, p.uniforms)
	cmds, err := enc.Finish()
	if err != nil {
		return p.fail(Classify("encode", err))
	}
	if err := p.backend.Submit(ctx, cmds); err != nil {
		return p.fail(Classify("flood", err))
	}
	p.buffers.Advance(n)
	p.metrics.Passes.Add(float64(n + 1))

	surface, err := p.backend.AcquireSurface(ctx)
	if err != nil {
		return p.fail(Classify("acquire", err))
	}
	enc = gpu.NewEncoder("composite")
	p.composite.Encode(enc, surface, p.buffers.Source(), p.mode)
	if cmds, err = enc.Finish(); err != nil {
		return p.fail(Classify("encode", err))
	}
	if err := p.backend.Submit(ctx, cmds); err != nil {
		return p.fail(Classify("composite", err))
	}
	p.metrics.Passes.Inc()
	if err := p.backend.Present(surface); err != nil {
		return p.fail(Classify("present", err))
	}

	p.frames++
	p.metrics.Frames.WithLabelValues(OutcomePresented).Inc()
	p.metrics.FrameSeconds.Observe(time.Since(start).Seconds())
	return nil
}

func (p *Pipeline) fail(fe *FrameError) error {
	p.metrics.Frames.WithLabelValues(fe.Class.String()).Inc()
	switch fe.Class {
	case ClassSurface:
		p.configureNext = true
		p.log.Warn("surface unusable, reconfiguring before next frame", zap.String("op", fe.Op), zap.Error(fe.Err))
	case ClassTransient:
		p.log.Warn("frame skipped", zap.String("op", fe.Op), zap.Error(fe.Err))
	case ClassAllocation:
		p.log.Error("allocation failed, keeping previous buffers",
			zap.String("op", fe.Op), zap.Error(fe.Err),
			zap.Int("width", p.buffers.Size().W), zap.Int("height", p.buffers.Size().H))
	case ClassFatal:
		if !p.closed {
			p.log.Error("fatal frame error, pipeline stopped", zap.String("op", fe.Op), zap.Error(fe.Err))
		}
		p.closed = true
	}
	return fe
}

// ReadField reads back the field left by the last flood submission that
// succeeded.
func (p *Pipeline) ReadField() (*core.Field, error) {
	pix, err := p.backend.ReadTexture(p.buffers.Source())
	if err != nil {
		return nil, fmt.Errorf("read field: %w", err)
	}
	return core.DecodeField(p.buffers.Size(), pix)
}

// ReadFieldBytes returns the raw texels of the converged field.
func (p *Pipeline) ReadFieldBytes() ([]byte, error) {
	return p.backend.ReadTexture(p.buffers.Source())
}

// Size returns the current field size.
func (p *Pipeline) Size() core.Size { return p.buffers.Size() }

// Seed returns the seed used by the last flushed frame.
func (p *Pipeline) Seed() core.Point { return p.uniforms.Seed() }

// Mode returns the active display mode.
func (p *Pipeline) Mode() Mode { return p.mode }

// Steps returns the current pass schedule.
func (p *Pipeline) Steps() []float32 { return p.uniforms.Steps() }

// Frames returns the number of presented frames.
func (p *Pipeline) Frames() int { return p.frames }

// Metrics exposes the pipeline collectors.
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Closed reports whether a fatal error stopped the pipeline.
func (p *Pipeline) Closed() bool { return p.closed }

// Close releases the field buffers. Further frames fail with
// ErrPipelineClosed.
func (p *Pipeline) Close() {
	if p.closed && !p.buffers.Allocated() {
		return
	}
	p.closed = true
	p.buffers.Release()
}

// Parameters snapshots the pipeline state for display.
func (p *Pipeline) Parameters() core.ParameterSnapshot {
	size := p.buffers.Size()
	seed := p.uniforms.Seed()
	steps := p.uniforms.Steps()
	schedule := "none"
	if len(steps) > 0 {
		schedule = fmt.Sprintf("%g..%g", steps[0], steps[len(steps)-1])
	}
	passes := strconv.Itoa(len(steps))
	if o := p.uniforms.PassOverride(); o > 0 {
		passes += " (fixed)"
	}
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Field",
			Params: []core.Parameter{
				{Key: "size", Label: "Size", Value: fmt.Sprintf("%dx%d", size.W, size.H)},
				{Key: "passes", Label: "Passes", Value: passes},
				{Key: "steps", Label: "Steps", Value: schedule},
			},
		},
		{
			Name: "Seed",
			Params: []core.Parameter{
				{Key: "seed", Label: "Seed", Value: fmt.Sprintf("%.0f,%.0f", seed.X, seed.Y)},
			},
		},
		{
			Name: "Display",
			Params: []core.Parameter{
				{Key: "mode", Label: "Mode", Value: p.mode.String()},
				{Key: "frames", Label: "Frames", Value: strconv.Itoa(p.frames)},
			},
		},
	}}
}
