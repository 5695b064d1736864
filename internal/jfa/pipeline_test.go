package jfa

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu"
	"jumpflood/internal/gpu/soft"
)

func newPipeline(t *testing.T, b *soft.Backend, size core.Size, seed core.Point, passes int) *Pipeline {
	t.Helper()
	p, err := New(b, Options{
		Size:   size,
		Seed:   &seed,
		Passes: passes,
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func renderField(t *testing.T, p *Pipeline) *core.Field {
	t.Helper()
	require.NoError(t, p.RenderFrame(context.Background()))
	f, err := p.ReadField()
	require.NoError(t, err)
	return f
}

func frameClass(t *testing.T, err error) Class {
	t.Helper()
	var fe *FrameError
	require.ErrorAs(t, err, &fe)
	return fe.Class
}

func TestCornerSeedScenario(t *testing.T) {
	p := newPipeline(t, soft.New(soft.Options{}), core.Size{W: 256, H: 256}, core.Point{}, 0)
	require.Equal(t, []float32{128, 64, 32, 16, 8, 4, 2, 1}, p.Steps())

	f := renderField(t, p)
	assert.Equal(t, float32(0), f.Distance(0, 0))
	assert.Equal(t, float32(1), f.Distance(0, 1))
	assert.InDelta(t, 360.6, f.Distance(255, 255), 0.1)
	assert.Zero(t, f.Unreached())
}

func TestSeedPixelKeepsZeroDistance(t *testing.T) {
	cases := []struct {
		size core.Size
		seed core.Point
	}{
		{core.Size{W: 1, H: 1}, core.Point{X: 0.5, Y: 0.5}},
		{core.Size{W: 3, H: 7}, core.Point{X: 2.9, Y: 0}},
		{core.Size{W: 100, H: 37}, core.Point{X: 51.2, Y: 36.7}},
		{core.Size{W: 257, H: 129}, core.Point{X: 256, Y: 64}},
	}
	for _, tc := range cases {
		p := newPipeline(t, soft.New(soft.Options{}), tc.size, tc.seed, 0)
		f := renderField(t, p)
		sx, sy := tc.seed.Pixel(tc.size)
		assert.Equal(t, float32(0), f.Distance(sx, sy), "size %v seed %v", tc.size, tc.seed)
		assert.Zero(t, f.Unreached(), "size %v", tc.size)
	}
}

func TestDistanceMonotonicAlongRays(t *testing.T) {
	size := core.Size{W: 120, H: 90}
	seed := core.Point{X: 47, Y: 31}
	f := renderField(t, newPipeline(t, soft.New(soft.Options{}), size, seed, 0))

	dirs := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	for _, d := range dirs {
		prev := float32(-1)
		for i := 0; ; i++ {
			x, y := 47+d[0]*i, 31+d[1]*i
			if !size.Contains(x, y) {
				break
			}
			dist := f.Distance(x, y)
			require.GreaterOrEqual(t, dist, float32(0), "pixel (%d,%d) unreached", x, y)
			assert.GreaterOrEqual(t, dist+1e-3, prev, "inversion at (%d,%d) along %v", x, y, d)
			prev = dist
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	size := core.Size{W: 97, H: 61}
	seed := core.Point{X: 13.4, Y: 40.9}

	a := newPipeline(t, soft.New(soft.Options{Workers: 1}), size, seed, 0)
	b := newPipeline(t, soft.New(soft.Options{Workers: 8}), size, seed, 0)
	require.NoError(t, a.RenderFrame(context.Background()))
	require.NoError(t, b.RenderFrame(context.Background()))

	pa, err := a.ReadFieldBytes()
	require.NoError(t, err)
	pb, err := b.ReadFieldBytes()
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestResizeMatchesFreshPipeline(t *testing.T) {
	seed := core.Point{X: 10.5, Y: 20.2}
	target := core.Size{W: 100, H: 80}

	resized := newPipeline(t, soft.New(soft.Options{}), core.Size{W: 64, H: 48}, seed, 0)
	require.NoError(t, resized.RenderFrame(context.Background()))
	resized.NotifyResize(target)
	require.Equal(t, core.Size{W: 64, H: 48}, resized.Size(), "resize is deferred to the next frame")
	require.NoError(t, resized.RenderFrame(context.Background()))
	require.Equal(t, target, resized.Size())
	require.Len(t, resized.Steps(), DerivePasses(target))

	fresh := newPipeline(t, soft.New(soft.Options{}), target, seed, 0)
	require.NoError(t, fresh.RenderFrame(context.Background()))

	got, err := resized.ReadFieldBytes()
	require.NoError(t, err)
	want, err := fresh.ReadFieldBytes()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFarCornerNeedsAllPasses(t *testing.T) {
	size := core.Size{W: 64, H: 64}
	require.Equal(t, 6, DerivePasses(size))

	full := renderField(t, newPipeline(t, soft.New(soft.Options{}), size, core.Point{}, 6))
	assert.InDelta(t, 63*math.Sqrt2, full.Distance(63, 63), 1e-3)

	short := renderField(t, newPipeline(t, soft.New(soft.Options{}), size, core.Point{}, 5))
	_, _, ok := short.SeedAt(63, 63)
	assert.False(t, ok, "five passes must not reach the far corner")
}

func TestSeedUpdatesCoalesce(t *testing.T) {
	b := soft.New(soft.Options{})
	p := newPipeline(t, b, core.Size{W: 32, H: 32}, core.Point{X: 1, Y: 1}, 0)
	require.NoError(t, p.RenderFrame(context.Background()))
	before := b.Stats().UniformWrites

	for i := 0; i < 10; i++ {
		p.NotifySeed(core.Point{X: float32(i), Y: float32(2 * i)})
	}
	require.NoError(t, p.RenderFrame(context.Background()))
	assert.Equal(t, before+1, b.Stats().UniformWrites, "ten seed events, one upload")
	assert.Equal(t, core.Point{X: 9, Y: 18}, p.Seed())

	require.NoError(t, p.RenderFrame(context.Background()))
	assert.Equal(t, before+1, b.Stats().UniformWrites, "nothing dirty, nothing uploaded")

	f, err := p.ReadField()
	require.NoError(t, err)
	assert.Equal(t, float32(0), f.Distance(9, 18))
}

func TestSurfaceLostReconfiguresNextFrame(t *testing.T) {
	b := soft.New(soft.Options{})
	p := newPipeline(t, b, core.Size{W: 16, H: 16}, core.Point{}, 0)
	configs := b.Stats().SurfaceConfigs

	b.InjectFault(soft.OpAcquire, gpu.ErrSurfaceLost)
	err := p.RenderFrame(context.Background())
	assert.Equal(t, ClassSurface, frameClass(t, err))
	assert.True(t, errors.Is(err, gpu.ErrSurfaceLost))
	assert.Equal(t, configs, b.Stats().SurfaceConfigs, "reconfiguration waits for the next frame")

	require.NoError(t, p.RenderFrame(context.Background()))
	assert.Equal(t, configs+1, b.Stats().SurfaceConfigs)
	assert.Equal(t, 1, p.Frames())
}

func TestSurfaceInvalidatedKeepsBuffers(t *testing.T) {
	b := soft.New(soft.Options{})
	p := newPipeline(t, b, core.Size{W: 16, H: 16}, core.Point{}, 0)
	created := b.Stats().TexturesCreated
	configs := b.Stats().SurfaceConfigs

	p.NotifySurfaceInvalidated()
	require.NoError(t, p.RenderFrame(context.Background()))
	assert.Equal(t, configs+1, b.Stats().SurfaceConfigs)
	assert.Equal(t, created, b.Stats().TexturesCreated)
}

func TestTimeoutSkipsFrame(t *testing.T) {
	b := soft.New(soft.Options{})
	p := newPipeline(t, b, core.Size{W: 16, H: 16}, core.Point{}, 0)

	b.InjectFault(soft.OpAcquire, gpu.ErrTimeout)
	err := p.RenderFrame(context.Background())
	assert.Equal(t, ClassTransient, frameClass(t, err))
	assert.Zero(t, b.Stats().Presents)

	require.NoError(t, p.RenderFrame(context.Background()))
	assert.Equal(t, 1, b.Stats().Presents)
}

func TestFailedFloodKeepsConvergedField(t *testing.T) {
	b := soft.New(soft.Options{})
	// 32x32 derives an odd number of passes, so a stray role swap would
	// expose an intermediate texture.
	p := newPipeline(t, b, core.Size{W: 32, H: 32}, core.Point{}, 0)
	require.Len(t, p.Steps(), 5)

	want := renderField(t, p)
	require.Zero(t, want.Unreached())
	before, err := p.ReadFieldBytes()
	require.NoError(t, err)

	b.InjectFault(soft.OpSubmit, gpu.ErrTimeout)
	err = p.RenderFrame(context.Background())
	assert.Equal(t, ClassTransient, frameClass(t, err))

	after, err := p.ReadFieldBytes()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got := renderField(t, p)
	assert.Zero(t, got.Unreached())
}

func TestFatalErrorsStopPipeline(t *testing.T) {
	for _, cause := range []error{gpu.ErrOutOfMemory, gpu.ErrDeviceLost} {
		b := soft.New(soft.Options{})
		p := newPipeline(t, b, core.Size{W: 16, H: 16}, core.Point{}, 0)

		b.InjectFault(soft.OpSubmit, cause)
		err := p.RenderFrame(context.Background())
		assert.Equal(t, ClassFatal, frameClass(t, err), "cause %v", cause)
		assert.ErrorIs(t, err, cause)
		assert.True(t, p.Closed())

		err = p.RenderFrame(context.Background())
		assert.ErrorIs(t, err, ErrPipelineClosed)
	}
}

func TestFailedResizeKeepsPreviousBuffers(t *testing.T) {
	// Room for the initial 32x32 pair plus a 33x33 pair, not a 64x64 one.
	b := soft.New(soft.Options{MemoryLimit: 20000})
	p := newPipeline(t, b, core.Size{W: 32, H: 32}, core.Point{X: 3, Y: 3}, 0)
	require.NoError(t, p.RenderFrame(context.Background()))

	p.NotifyResize(core.Size{W: 64, H: 64})
	err := p.RenderFrame(context.Background())
	assert.Equal(t, ClassAllocation, frameClass(t, err))
	assert.ErrorIs(t, err, gpu.ErrResourceAllocation)
	assert.Equal(t, core.Size{W: 32, H: 32}, p.Size())
	assert.False(t, p.Closed())

	require.NoError(t, p.RenderFrame(context.Background()), "the failed resize is not retried")
	assert.Equal(t, core.Size{W: 32, H: 32}, p.Size())

	p.NotifyResize(core.Size{W: 33, H: 33})
	require.NoError(t, p.RenderFrame(context.Background()))
	assert.Equal(t, core.Size{W: 33, H: 33}, p.Size())
	assert.Equal(t, 2, b.Stats().TexturesLive)
}

func TestNewSurfacesAllocationFailure(t *testing.T) {
	b := soft.New(soft.Options{MaxTextureDim: 64})
	_, err := New(b, Options{Size: core.Size{W: 65, H: 10}})
	assert.ErrorIs(t, err, gpu.ErrResourceAllocation)
	assert.Zero(t, b.Stats().TexturesLive)
}

func TestModeChangeAppliesNextFrame(t *testing.T) {
	b := soft.New(soft.Options{})
	p := newPipeline(t, b, core.Size{W: 8, H: 8}, core.Point{X: 4, Y: 4}, 0)
	require.NoError(t, p.RenderFrame(context.Background()))
	distance := b.LastFrame()

	p.SetMode(ModeField)
	assert.Equal(t, ModeDistance, p.Mode())
	require.NoError(t, p.RenderFrame(context.Background()))
	assert.Equal(t, ModeField, p.Mode())
	field := b.LastFrame()

	assert.NotEqual(t, distance.Pix, field.Pix)
	// Field mode shows the low bytes of the stored seed coordinate.
	c := field.RGBAAt(0, 0)
	assert.Equal(t, [4]uint8{5, 5, 0, 255}, [4]uint8{c.R, c.G, c.B, c.A})
}

func TestPassOverrideReschedules(t *testing.T) {
	p := newPipeline(t, soft.New(soft.Options{}), core.Size{W: 64, H: 64}, core.Point{}, 0)
	require.Len(t, p.Steps(), 6)

	p.SetPassOverride(3)
	require.NoError(t, p.RenderFrame(context.Background()))
	assert.Equal(t, []float32{32, 16, 8}, p.Steps())
	v, ok := p.Parameters().Lookup("passes")
	require.True(t, ok)
	assert.Equal(t, "3 (fixed)", v)
}

func TestMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := soft.New(soft.Options{})
	seed := core.Point{}
	p, err := New(b, Options{Size: core.Size{W: 16, H: 16}, Seed: &seed, Registerer: reg})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.RenderFrame(context.Background()))
	require.NoError(t, p.RenderFrame(context.Background()))
	b.InjectFault(soft.OpAcquire, gpu.ErrTimeout)
	require.Error(t, p.RenderFrame(context.Background()))

	m := p.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Frames.WithLabelValues(OutcomePresented)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Frames.WithLabelValues(ClassTransient.String())))
	// Two full frames of 1 seed + 4 flood + 1 composite, and the seed and
	// flood passes of the skipped frame.
	assert.Equal(t, 17.0, testutil.ToFloat64(m.Passes))
	n, err := testutil.GatherAndCount(reg, "jumpflood_frames_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
